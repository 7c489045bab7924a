package engine

import (
	"testing"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

func TestStartMatchOpeningState(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	alice := m.players["alice"]
	bob := m.players["bob"]

	// First player draws 3 plus the turn-one draw; second player draws 4.
	if len(alice.Hand) != 4 {
		t.Errorf("alice should hold 4 cards, got %d", len(alice.Hand))
	}
	if len(bob.Hand) != 4 {
		t.Errorf("bob should hold 4 cards, got %d", len(bob.Hand))
	}
	if len(alice.Deck) != 8 {
		t.Errorf("alice deck should have 8 left, got %d", len(alice.Deck))
	}
	if len(bob.Deck) != 8 {
		t.Errorf("bob deck should have 8 left, got %d", len(bob.Deck))
	}

	if alice.Hero.Health != StartingHealth || bob.Hero.Health != StartingHealth {
		t.Errorf("heroes should start at %d health", StartingHealth)
	}
	if alice.Ledger.Current() != 1 || alice.Ledger.Max() != 1 {
		t.Errorf("first player should open at 1/1 mana, got %d/%d", alice.Ledger.Current(), alice.Ledger.Max())
	}
	if bob.Ledger.Max() != 0 {
		t.Errorf("second player has no crystals before their turn, got %d", bob.Ledger.Max())
	}
	if m.seq.ActivePlayer() != "alice" || m.seq.CurrentPhase() != rules.PhaseMain {
		t.Errorf("expected alice in MAIN, got %s in %s", m.seq.ActivePlayer(), m.seq.CurrentPhase())
	}
}

func TestStartMatchRejectsBadSetups(t *testing.T) {
	eng := testEngine(t)

	_, _, err := eng.StartMatch(MatchSetup{Players: [2]PlayerSetup{
		{ID: "alice", Class: catalog.ClassMage, Deck: filler(5)},
		{ID: "alice", Class: catalog.ClassMage, Deck: filler(5)},
	}})
	if !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("duplicate seats should be rejected, got %v", err)
	}

	_, _, err = eng.StartMatch(MatchSetup{Players: [2]PlayerSetup{
		{ID: "alice", Class: catalog.ClassMage, Deck: []string{"no.such.card"}},
		{ID: "bob", Class: catalog.ClassWarrior, Deck: filler(5)},
	}})
	if !rules.IsKind(err, rules.ErrUnknownCard) {
		t.Errorf("unknown deck card should be UNKNOWN_CARD, got %v", err)
	}

	_, _, err = eng.StartMatch(MatchSetup{Players: [2]PlayerSetup{
		{ID: "alice", Class: catalog.ClassMage, Deck: []string{"warrior.notched_axe"}},
		{ID: "bob", Class: catalog.ClassWarrior, Deck: filler(5)},
	}})
	if !rules.IsKind(err, rules.ErrUnknownCard) {
		t.Errorf("off-class deck card should be rejected, got %v", err)
	}

	_, _, err = eng.StartMatch(MatchSetup{Players: [2]PlayerSetup{
		{ID: "alice", Class: catalog.ClassPaladin, Deck: []string{"token.paladin_recruit"}},
		{ID: "bob", Class: catalog.ClassWarrior, Deck: filler(5)},
	}})
	if !rules.IsKind(err, rules.ErrUnknownCard) {
		t.Errorf("token in deck should be rejected, got %v", err)
	}
}

func TestTurnRotationAndManaGrowth(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	if _, err := eng.EndTurn(matchID, "alice"); err != nil {
		t.Fatalf("alice end turn: %v", err)
	}
	if m.seq.ActivePlayer() != "bob" || m.seq.TurnNumber() != 2 {
		t.Fatalf("expected bob on turn 2, got %s on %d", m.seq.ActivePlayer(), m.seq.TurnNumber())
	}
	if m.players["bob"].Ledger.Current() != 1 {
		t.Errorf("bob should open his first turn at 1 mana")
	}

	if _, err := eng.EndTurn(matchID, "bob"); err != nil {
		t.Fatalf("bob end turn: %v", err)
	}
	if got := m.players["alice"].Ledger.Current(); got != 2 {
		t.Errorf("alice second turn should refill to 2, got %d", got)
	}

	// Mana growth caps at ten crystals.
	for i := 0; i < 30; i++ {
		endBothTurns(t, eng, matchID)
	}
	if got := m.players["alice"].Ledger.Max(); got != 10 {
		t.Errorf("mana should cap at 10, got %d", got)
	}
}

func TestNotYourTurnRejected(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	_, err := eng.EndTurn(matchID, "bob")
	if !rules.IsKind(err, rules.ErrNotYourTurn) {
		t.Errorf("expected NOT_YOUR_TURN, got %v", err)
	}

	m := matchOf(t, eng, matchID)
	attacker := putOnBoard(t, m, "bob", "neutral.riverbank_lurker")
	_, err = eng.Attack(matchID, "bob", targeting.MinionRef(attacker.ID), targeting.HeroRef("alice"))
	if !rules.IsKind(err, rules.ErrNotYourTurn) {
		t.Errorf("attack off-turn should be NOT_YOUR_TURN, got %v", err)
	}
}

func TestUnknownMatch(t *testing.T) {
	eng := testEngine(t)
	if _, err := eng.EndTurn("nope", "alice"); !rules.IsKind(err, rules.ErrUnknownMatch) {
		t.Errorf("expected UNKNOWN_MATCH, got %v", err)
	}
	if _, err := eng.View("nope", "alice"); !rules.IsKind(err, rules.ErrUnknownMatch) {
		t.Errorf("view of unknown match should fail, got %v", err)
	}
}

func TestConcede(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	events, err := eng.Concede(matchID, "bob")
	if err != nil {
		t.Fatalf("concede: %v", err)
	}
	if !hasEvent(events, rules.EventConceded) || !hasEvent(events, rules.EventMatchEnded) {
		t.Errorf("concede should emit CONCEDED and MATCH_ENDED, got %v", events)
	}

	m := matchOf(t, eng, matchID)
	if !m.finished || m.winner != "alice" {
		t.Errorf("alice should win by concession, got finished=%t winner=%q", m.finished, m.winner)
	}

	if _, err := eng.EndTurn(matchID, "alice"); !rules.IsKind(err, rules.ErrMatchAlreadyOver) {
		t.Errorf("commands after the match should be MATCH_ALREADY_OVER, got %v", err)
	}
	if _, err := eng.Concede(matchID, "alice"); !rules.IsKind(err, rules.ErrMatchAlreadyOver) {
		t.Errorf("double concede should be MATCH_ALREADY_OVER, got %v", err)
	}
}

func TestRejectedCommandLeavesStateUntouched(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	before := m.snapshot().Checksum()
	logLen := len(m.log)

	// Turn one: a 2-cost riverbank lurker is unaffordable.
	handCard := m.cards[m.players["alice"].Hand[0]]
	_, err := eng.PlayCard(matchID, "alice", handCard.ID, nil, -1)
	if !rules.IsKind(err, rules.ErrInsufficientMana) {
		t.Fatalf("expected INSUFFICIENT_MANA, got %v", err)
	}

	if after := m.snapshot().Checksum(); after != before {
		t.Error("rejected command must not change match state")
	}
	if len(m.log) != logLen {
		t.Errorf("rejected command must not emit events, log grew by %d", len(m.log)-logLen)
	}
	if len(m.commands) != 0 {
		t.Errorf("rejected command must not be recorded, got %d", len(m.commands))
	}
}

func TestMatchStatusAndIDs(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	active, finished, err := eng.MatchStatus(matchID)
	if err != nil || finished || active != "alice" {
		t.Errorf("expected alice active, got active=%q finished=%t err=%v", active, finished, err)
	}

	ids := eng.MatchIDs()
	if len(ids) != 1 || ids[0] != matchID {
		t.Errorf("expected [%s], got %v", matchID, ids)
	}

	eng.RemoveMatch(matchID)
	if got := eng.MatchIDs(); len(got) != 0 {
		t.Errorf("match should be removed, got %v", got)
	}
}
