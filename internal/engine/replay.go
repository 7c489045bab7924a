package engine

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

// CommandType discriminates recorded commands.
type CommandType string

const (
	CommandPlayCard     CommandType = "PLAY_CARD"
	CommandAttack       CommandType = "ATTACK"
	CommandUseHeroPower CommandType = "USE_HERO_POWER"
	CommandEndTurn      CommandType = "END_TURN"
	CommandConcede      CommandType = "CONCEDE"
)

// Command is one player action in wire form. Successful commands are
// appended to the match's command log verbatim; rejected commands are never
// recorded, so a log replays cleanly end to end.
type Command struct {
	Type       CommandType    `json:"type"`
	PlayerID   string         `json:"player_id"`
	InstanceID int            `json:"instance_id,omitempty"`
	Attacker   *targeting.Ref `json:"attacker,omitempty"`
	Target     *targeting.Ref `json:"target,omitempty"`
	Position   int            `json:"position"`
}

// Replay is a match's setup plus its accepted command log. Because the
// engine is deterministic, the pair reproduces the match exactly.
type Replay struct {
	MatchID  string
	Setup    MatchSetup
	Commands []Command
}

// ReplayOf exports the replay of a hosted match.
func (e *BattleEngine) ReplayOf(matchID string) (*Replay, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Replay{
		MatchID:  m.matchID,
		Setup:    m.setup,
		Commands: append([]Command(nil), m.commands...),
	}, nil
}

// ReplayMatch re-executes a replay on a fresh engine and returns the final
// snapshot. Every recorded command was accepted once, so a rejection here
// means the replay does not match the engine version.
func ReplayMatch(cat *catalog.Catalog, logger *zap.Logger, replay *Replay) (*Snapshot, error) {
	eng := NewBattleEngine(cat, logger)
	matchID, _, err := eng.StartMatch(replay.Setup)
	if err != nil {
		return nil, fmt.Errorf("replaying setup: %w", err)
	}
	for i, cmd := range replay.Commands {
		if _, err := eng.ApplyCommand(matchID, cmd); err != nil {
			return nil, fmt.Errorf("replaying command %d (%s): %w", i, cmd.Type, err)
		}
	}
	return eng.SnapshotMatch(matchID)
}

// Recorder persists replays as gzipped gob files, one per match.
type Recorder struct {
	dir    string
	logger *zap.Logger
}

// NewRecorder creates the replay directory if needed.
func NewRecorder(dir string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating replay dir: %w", err)
	}
	return &Recorder{dir: dir, logger: logger}, nil
}

func (r *Recorder) path(matchID string) string {
	return filepath.Join(r.dir, matchID+".replay.gz")
}

// Save writes a replay to disk.
func (r *Recorder) Save(replay *Replay) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(replay); err != nil {
		return fmt.Errorf("encoding replay: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing replay: %w", err)
	}
	path := r.path(replay.MatchID)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing replay: %w", err)
	}
	r.logger.Info("replay saved",
		zap.String("match_id", replay.MatchID),
		zap.String("path", path),
		zap.Int("commands", len(replay.Commands)))
	return nil
}

// Load reads a replay written by Save.
func (r *Recorder) Load(matchID string) (*Replay, error) {
	data, err := os.ReadFile(r.path(matchID))
	if err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompressing replay: %w", err)
	}
	defer zr.Close()
	var replay Replay
	if err := gob.NewDecoder(zr).Decode(&replay); err != nil {
		return nil, fmt.Errorf("decoding replay: %w", err)
	}
	return &replay, nil
}
