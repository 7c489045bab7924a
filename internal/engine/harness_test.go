package engine

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/mana"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// seat describes one player for test match setup.
type seat struct {
	id    string
	class catalog.Class
	deck  []string
}

func testEngine(t *testing.T) *BattleEngine {
	t.Helper()
	cat, err := catalog.BasicSet()
	if err != nil {
		t.Fatalf("failed to load basic set: %v", err)
	}
	return NewBattleEngine(cat, zaptest.NewLogger(t))
}

// filler builds a deck of n vanilla minions so draws never hit fatigue.
func filler(n int) []string {
	deck := make([]string, n)
	for i := range deck {
		deck[i] = "neutral.riverbank_lurker"
	}
	return deck
}

func startTestMatch(t *testing.T, eng *BattleEngine, a, b seat) string {
	t.Helper()
	matchID, _, err := eng.StartMatch(MatchSetup{
		MatchID: "test-" + t.Name(),
		Players: [2]PlayerSetup{
			{ID: a.id, Class: a.class, Deck: a.deck},
			{ID: b.id, Class: b.class, Deck: b.deck},
		},
	})
	if err != nil {
		t.Fatalf("failed to start match: %v", err)
	}
	return matchID
}

// startDefaultMatch starts alice (mage) vs bob (warrior) on filler decks.
func startDefaultMatch(t *testing.T, eng *BattleEngine) string {
	t.Helper()
	return startTestMatch(t, eng,
		seat{id: "alice", class: catalog.ClassMage, deck: filler(12)},
		seat{id: "bob", class: catalog.ClassWarrior, deck: filler(12)},
	)
}

func matchOf(t *testing.T, eng *BattleEngine, matchID string) *matchState {
	t.Helper()
	m, err := eng.matchFor(matchID)
	if err != nil {
		t.Fatalf("match %q not found: %v", matchID, err)
	}
	return m
}

// giveMana sets a player's mana pool directly for scenario setup.
func giveMana(m *matchState, playerID string, amount int) {
	m.players[playerID].Ledger = mana.RestoreLedger(amount, amount, false)
}

// putInHand injects a card instance into a player's hand.
func putInHand(t *testing.T, m *matchState, playerID, defID string) *cardInstance {
	t.Helper()
	ci, err := m.createInstance(defID, playerID, rules.ZoneNone)
	if err != nil {
		t.Fatalf("failed to create %s: %v", defID, err)
	}
	if err := m.moveCard(ci, rules.ZoneHand, -1); err != nil {
		t.Fatalf("failed to move %s to hand: %v", defID, err)
	}
	return ci
}

// putOnBoard injects a ready-to-act minion onto a player's battlefield.
func putOnBoard(t *testing.T, m *matchState, playerID, defID string) *cardInstance {
	t.Helper()
	ci, err := m.createInstance(defID, playerID, rules.ZoneNone)
	if err != nil {
		t.Fatalf("failed to create %s: %v", defID, err)
	}
	if err := m.moveCard(ci, rules.ZoneBattlefield, -1); err != nil {
		t.Fatalf("failed to move %s to battlefield: %v", defID, err)
	}
	m.registerAuraSource(ci)
	m.recomputeAuras()
	return ci
}

// armSecret injects an armed secret without going through PlayCard.
func armSecret(t *testing.T, m *matchState, playerID, defID string) *cardInstance {
	t.Helper()
	ci, err := m.createInstance(defID, playerID, rules.ZoneNone)
	if err != nil {
		t.Fatalf("failed to create %s: %v", defID, err)
	}
	if err := m.moveCard(ci, rules.ZoneSecret, -1); err != nil {
		t.Fatalf("failed to arm %s: %v", defID, err)
	}
	return ci
}

// endBothTurns ends the active player's turn and then the opponent's,
// returning the turn to whoever held it.
func endBothTurns(t *testing.T, eng *BattleEngine, matchID string) {
	t.Helper()
	for i := 0; i < 2; i++ {
		active, finished, err := eng.MatchStatus(matchID)
		if err != nil || finished {
			t.Fatalf("match unavailable mid-cycle: finished=%t err=%v", finished, err)
		}
		if _, err := eng.EndTurn(matchID, active); err != nil {
			t.Fatalf("end turn for %s: %v", active, err)
		}
	}
}

func hasEvent(events []rules.GameEvent, typ rules.EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}
