package server

import (
	"encoding/json"

	"github.com/cardclash/battle-server-go/internal/engine"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Type     string             `json:"type"`
	MatchID  string             `json:"match_id,omitempty"`
	PlayerID string             `json:"player_id,omitempty"`
	Setup    *engine.MatchSetup `json:"setup,omitempty"`
	Command  *engine.Command    `json:"command,omitempty"`
}

// Client message types.
const (
	MsgStartMatch = "start_match"
	MsgJoinMatch  = "join_match"
	MsgCommand    = "command"
	MsgView       = "view"
)

// ServerMessage is the envelope for everything the server sends.
type ServerMessage struct {
	Type    string            `json:"type"`
	MatchID string            `json:"match_id,omitempty"`
	View    *engine.MatchView `json:"view,omitempty"`
	Events  []rules.GameEvent `json:"events,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Server message types.
const (
	MsgMatchStarted = "match_started"
	MsgEvents       = "events"
	MsgError        = "error"
)

func encodeMessage(msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		return []byte(`{"type":"error","code":"CORRUPT_STATE","message":"failed to encode message"}`)
	}
	return data
}

func errorMessage(matchID string, err error) []byte {
	return encodeMessage(ServerMessage{
		Type:    MsgError,
		MatchID: matchID,
		Code:    string(rules.KindOf(err)),
		Message: err.Error(),
	})
}

// redactEvents hides information a viewer must not see: the identity of a
// secret the opponent armed stays hidden until it is revealed.
func redactEvents(events []rules.GameEvent, viewerID string) []rules.GameEvent {
	out := make([]rules.GameEvent, len(events))
	copy(out, events)
	for i := range out {
		if out[i].Type == rules.EventSecretPlayed && out[i].PlayerID != viewerID {
			out[i].CardID = ""
		}
		if out[i].Type == rules.EventCardMoved && out[i].To == rules.ZoneSecret && out[i].PlayerID != viewerID {
			out[i].CardID = ""
		}
		if out[i].Type == rules.EventCardDrawn && out[i].PlayerID != viewerID {
			out[i].CardID = ""
			out[i].InstanceID = 0
		}
	}
	return out
}
