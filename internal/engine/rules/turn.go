package rules

import (
	"fmt"
	"strings"
)

// Phase represents the states of the match-level machine. A turn walks
// TurnStart -> Main -> TurnEnd; commands are only accepted during Main.
// Mulligan exists only while opening hands are dealt, and MatchOver is
// terminal.
type Phase int

const (
	PhaseMulligan Phase = iota
	PhaseTurnStart
	PhaseMain
	PhaseTurnEnd
	PhaseMatchOver
)

var phaseNames = map[Phase]string{
	PhaseMulligan:  "MULLIGAN",
	PhaseTurnStart: "TURN_START",
	PhaseMain:      "MAIN",
	PhaseTurnEnd:   "TURN_END",
	PhaseMatchOver: "MATCH_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// PhaseSequencer tracks the active player and turn progression.
type PhaseSequencer struct {
	phase        Phase
	turnNumber   int
	activePlayer string
	finished     bool
}

// NewPhaseSequencer creates a sequencer in the mulligan phase, before turn 1.
func NewPhaseSequencer(firstPlayer string) *PhaseSequencer {
	return &PhaseSequencer{
		phase:        PhaseMulligan,
		turnNumber:   0,
		activePlayer: strings.TrimSpace(firstPlayer),
	}
}

// CurrentPhase returns the phase currently in progress.
func (ps *PhaseSequencer) CurrentPhase() Phase {
	if ps.finished {
		return PhaseMatchOver
	}
	return ps.phase
}

// TurnNumber returns the current turn number (1-based; 0 during mulligan).
func (ps *PhaseSequencer) TurnNumber() int {
	return ps.turnNumber
}

// ActivePlayer returns the player who currently has the turn.
func (ps *PhaseSequencer) ActivePlayer() string {
	return ps.activePlayer
}

// BeginTurn starts the next turn for the given player. Valid from the
// mulligan phase (first turn) or from TurnEnd.
func (ps *PhaseSequencer) BeginTurn(player string) error {
	if ps.finished {
		return Errorf(ErrMatchAlreadyOver, "cannot begin a turn in a finished match")
	}
	if ps.phase != PhaseMulligan && ps.phase != PhaseTurnEnd {
		return Errorf(ErrIllegalPhase, "cannot begin a turn during %s", ps.phase)
	}
	ps.turnNumber++
	ps.activePlayer = strings.TrimSpace(player)
	ps.phase = PhaseTurnStart
	return nil
}

// EnterMain transitions from TurnStart to the command-accepting main phase.
func (ps *PhaseSequencer) EnterMain() error {
	if ps.finished {
		return Errorf(ErrMatchAlreadyOver, "cannot enter main phase in a finished match")
	}
	if ps.phase != PhaseTurnStart {
		return Errorf(ErrIllegalPhase, "cannot enter main phase from %s", ps.phase)
	}
	ps.phase = PhaseMain
	return nil
}

// EndTurn transitions from Main to TurnEnd.
func (ps *PhaseSequencer) EndTurn() error {
	if ps.finished {
		return Errorf(ErrMatchAlreadyOver, "cannot end a turn in a finished match")
	}
	if ps.phase != PhaseMain {
		return Errorf(ErrIllegalPhase, "cannot end a turn during %s", ps.phase)
	}
	ps.phase = PhaseTurnEnd
	return nil
}

// Finish moves the sequencer to the terminal state. Idempotent.
func (ps *PhaseSequencer) Finish() {
	ps.finished = true
	ps.phase = PhaseMatchOver
}

// Finished reports whether the match has reached the terminal state.
func (ps *PhaseSequencer) Finished() bool {
	return ps.finished
}
