package engine

import (
	"testing"

	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

func TestDrawBurnsWhenHandFull(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)
	alice := m.players["alice"]

	for len(alice.Hand) < MaxHandSize {
		putInHand(t, m, "alice", "neutral.riverbank_lurker")
	}
	deckBefore := len(alice.Deck)
	top := m.cards[alice.Deck[0]]

	if err := m.drawCard(alice); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(alice.Hand) != MaxHandSize {
		t.Errorf("hand should stay at %d, got %d", MaxHandSize, len(alice.Hand))
	}
	if len(alice.Deck) != deckBefore-1 {
		t.Errorf("the burned card still leaves the deck, got %d", len(alice.Deck))
	}
	if top.Zone != rules.ZoneGraveyard {
		t.Errorf("burned card belongs in the graveyard, got %s", top.Zone)
	}
	if !hasEvent(m.log, rules.EventCardBurned) {
		t.Error("expected a CARD_BURNED event")
	}
}

func TestFatigueEscalates(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)
	alice := m.players["alice"]
	alice.Deck = nil

	for i := 1; i <= 3; i++ {
		if err := m.drawCard(alice); err != nil {
			t.Fatalf("fatigue draw %d: %v", i, err)
		}
		if alice.Fatigue != i {
			t.Errorf("fatigue counter should be %d, got %d", i, alice.Fatigue)
		}
	}
	// 1 + 2 + 3 damage.
	if alice.Hero.Health != StartingHealth-6 {
		t.Errorf("expected %d health after fatigue, got %d", StartingHealth-6, alice.Hero.Health)
	}
	if !hasEvent(m.log, rules.EventFatigueDamage) {
		t.Error("expected FATIGUE_DAMAGE events")
	}
}

func TestFatigueChewsThroughArmorFirst(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)
	alice := m.players["alice"]
	alice.Deck = nil
	alice.Hero.Armor = 2

	if err := m.drawCard(alice); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if alice.Hero.Armor != 1 || alice.Hero.Health != StartingHealth {
		t.Errorf("armor should absorb fatigue, got armor=%d health=%d", alice.Hero.Armor, alice.Hero.Health)
	}
	if err := m.drawCard(alice); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if alice.Hero.Armor != 0 || alice.Hero.Health != StartingHealth-1 {
		t.Errorf("second fatigue hits for 2 through 1 armor, got armor=%d health=%d", alice.Hero.Armor, alice.Hero.Health)
	}
}

func TestMoveCardCapacity(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	for i := 0; i < MaxBoardMinions; i++ {
		putOnBoard(t, m, "alice", "neutral.riverbank_lurker")
	}
	extra := putInHand(t, m, "alice", "neutral.riverbank_lurker")
	err := m.moveCard(extra, rules.ZoneBattlefield, -1)
	if !rules.IsKind(err, rules.ErrZoneFull) {
		t.Errorf("seat eight on the board should be ZONE_FULL, got %v", err)
	}
	if extra.Zone != rules.ZoneHand {
		t.Errorf("failed moves must not change the zone, got %s", extra.Zone)
	}
}

func TestMoveCardMissingFromZone(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	ci := putInHand(t, m, "alice", "neutral.riverbank_lurker")
	// Corrupt the hand behind the instance's back.
	m.players["alice"].Hand, _ = removeID(m.players["alice"].Hand, ci.ID)

	err := m.moveCard(ci, rules.ZoneGraveyard, -1)
	if !rules.IsKind(err, rules.ErrCorruptState) {
		t.Errorf("an instance missing from its zone is corrupt state, got %v", err)
	}
}
