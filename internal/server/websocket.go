// Package server hosts the battle engine over WebSocket. Clients exchange
// JSON envelopes: commands in, per-viewer redacted events and views out.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardclash/battle-server-go/internal/engine"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
)

// Server accepts WebSocket connections and routes decoded commands into the
// battle engine. Each match's commands are serialized by the engine itself;
// the server only fans events out.
type Server struct {
	engine    *engine.BattleEngine
	recorder  *engine.Recorder
	logger    *zap.Logger
	turnTimer time.Duration
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]bool
	timers  map[string]*time.Timer
}

// New wires a server to an engine. recorder may be nil to disable replay
// persistence; turnTimer zero disables forced turn ends.
func New(eng *engine.BattleEngine, recorder *engine.Recorder, logger *zap.Logger, turnTimer time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:    eng,
		recorder:  recorder,
		logger:    logger,
		turnTimer: turnTimer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]bool),
		timers:  make(map[string]*time.Timer),
	}
	eng.SetNotificationHandler(s.onEvents)
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: address, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown error", zap.Error(err))
		}
	}()

	s.logger.Info("websocket server listening", zap.String("address", address))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	matchID  string
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.detach(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		s.handleMessage(c, msg)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleMessage(c *client, msg ClientMessage) {
	switch msg.Type {
	case MsgStartMatch:
		s.handleStartMatch(c, msg)
	case MsgJoinMatch:
		s.handleJoinMatch(c, msg)
	case MsgCommand:
		s.handleCommand(c, msg)
	case MsgView:
		s.sendView(c, msg.MatchID)
	default:
		c.trySend(errorMessage(msg.MatchID, rules.Errorf(rules.ErrInvalidTarget, "unknown message type %q", msg.Type)))
	}
}

func (s *Server) handleStartMatch(c *client, msg ClientMessage) {
	if msg.Setup == nil {
		c.trySend(errorMessage("", rules.Errorf(rules.ErrInvalidTarget, "start_match needs a setup")))
		return
	}
	matchID, _, err := s.engine.StartMatch(*msg.Setup)
	if err != nil {
		c.trySend(errorMessage("", err))
		return
	}
	if msg.PlayerID != "" {
		s.attach(c, matchID, msg.PlayerID)
	}
	s.scheduleTimer(matchID)

	resp := ServerMessage{Type: MsgMatchStarted, MatchID: matchID}
	if msg.PlayerID != "" {
		if view, viewErr := s.engine.View(matchID, msg.PlayerID); viewErr == nil {
			resp.View = view
		}
	}
	c.trySend(encodeMessage(resp))
}

func (s *Server) handleJoinMatch(c *client, msg ClientMessage) {
	view, err := s.engine.View(msg.MatchID, msg.PlayerID)
	if err != nil {
		c.trySend(errorMessage(msg.MatchID, err))
		return
	}
	s.attach(c, msg.MatchID, msg.PlayerID)
	c.trySend(encodeMessage(ServerMessage{
		Type:    MsgView,
		MatchID: msg.MatchID,
		View:    view,
	}))
}

func (s *Server) handleCommand(c *client, msg ClientMessage) {
	if msg.Command == nil {
		c.trySend(errorMessage(msg.MatchID, rules.Errorf(rules.ErrInvalidTarget, "command envelope is empty")))
		return
	}
	cmd := *msg.Command
	if c.playerID != "" && cmd.PlayerID != c.playerID {
		c.trySend(errorMessage(msg.MatchID, rules.Errorf(rules.ErrInvalidTarget, "command player does not match connection")))
		return
	}
	if _, err := s.engine.ApplyCommand(msg.MatchID, cmd); err != nil {
		c.trySend(errorMessage(msg.MatchID, err))
		return
	}
	// Events reach every attached client through the notification handler.
}

func (s *Server) sendView(c *client, matchID string) {
	if matchID == "" {
		matchID = c.matchID
	}
	view, err := s.engine.View(matchID, c.playerID)
	if err != nil {
		c.trySend(errorMessage(matchID, err))
		return
	}
	c.trySend(encodeMessage(ServerMessage{Type: MsgView, MatchID: matchID, View: view}))
}

func (c *client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		// slow consumer, drop rather than block the match
	}
}

func (s *Server) attach(c *client, matchID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.matchID != "" {
		if set := s.clients[c.matchID]; set != nil {
			delete(set, c)
		}
	}
	c.matchID = matchID
	c.playerID = playerID
	if s.clients[matchID] == nil {
		s.clients[matchID] = make(map[*client]bool)
	}
	s.clients[matchID][c] = true
}

func (s *Server) detach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.clients[c.matchID]; set != nil {
		if set[c] {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(s.clients, c.matchID)
		}
	}
}

// onEvents is the engine's notification handler. It runs while the match is
// locked, so it must not call back into the engine; anything that does is
// deferred to a goroutine.
func (s *Server) onEvents(matchID string, events []rules.GameEvent) {
	s.mu.RLock()
	receivers := make([]*client, 0, len(s.clients[matchID]))
	for c := range s.clients[matchID] {
		receivers = append(receivers, c)
	}
	s.mu.RUnlock()

	for _, c := range receivers {
		c.trySend(encodeMessage(ServerMessage{
			Type:    MsgEvents,
			MatchID: matchID,
			Events:  redactEvents(events, c.playerID),
		}))
	}

	for _, ev := range events {
		switch ev.Type {
		case rules.EventTurnStarted:
			s.resetTimer(matchID)
		case rules.EventMatchEnded:
			go s.finalizeMatch(matchID)
		}
	}
}

// scheduleTimer arms the forced end-of-turn timer for a match.
func (s *Server) scheduleTimer(matchID string) {
	if s.turnTimer <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[matchID]; exists {
		return
	}
	s.timers[matchID] = time.AfterFunc(s.turnTimer, func() {
		s.forceEndTurn(matchID)
	})
}

func (s *Server) resetTimer(matchID string) {
	if s.turnTimer <= 0 {
		return
	}
	s.mu.RLock()
	t := s.timers[matchID]
	s.mu.RUnlock()
	if t != nil {
		t.Reset(s.turnTimer)
	}
}

func (s *Server) stopTimer(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.timers[matchID]; t != nil {
		t.Stop()
		delete(s.timers, matchID)
	}
}

// forceEndTurn ends the active player's turn when the timer expires.
func (s *Server) forceEndTurn(matchID string) {
	active, finished, err := s.engine.MatchStatus(matchID)
	if err != nil || finished {
		s.stopTimer(matchID)
		return
	}
	s.logger.Info("turn timer expired",
		zap.String("match_id", matchID),
		zap.String("player", active))
	if _, err := s.engine.EndTurn(matchID, active); err != nil {
		s.logger.Warn("forced end turn failed",
			zap.String("match_id", matchID),
			zap.Error(err))
	}
}

// finalizeMatch persists the replay once a match ends.
func (s *Server) finalizeMatch(matchID string) {
	s.stopTimer(matchID)
	if s.recorder == nil {
		return
	}
	replay, err := s.engine.ReplayOf(matchID)
	if err != nil {
		s.logger.Warn("replay export failed",
			zap.String("match_id", matchID),
			zap.Error(err))
		return
	}
	if err := s.recorder.Save(replay); err != nil {
		s.logger.Warn("replay save failed",
			zap.String("match_id", matchID),
			zap.Error(err))
	}
}
