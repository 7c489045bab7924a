package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

func TestChecksumIsDeterministic(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	a, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)
	b, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)

	assert.Equal(t, a.Checksum(), b.Checksum(), "snapshots of unchanged state must hash equal")
}

func TestChecksumTracksState(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	before, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)

	_, err = eng.EndTurn(matchID, "alice")
	require.NoError(t, err)

	after, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)
	assert.NotEqual(t, before.Checksum(), after.Checksum(), "a state change must change the checksum")
}

func TestSnapshotGobRoundTrip(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	m := matchOf(t, eng, matchID)

	// Give the snapshot something non-trivial to carry.
	putOnBoard(t, m, "alice", "neutral.banner_captain")
	putOnBoard(t, m, "alice", "neutral.riverbank_lurker")
	armSecret(t, m, "bob", "mage.mirror_ward")

	snap, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)

	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)
	assert.Equal(t, snap.Checksum(), decoded.Checksum())
}

func TestReplayReproducesMatch(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)

	// Drive a short match through the command surface so the replay log has
	// every command type in it.
	endBothTurns(t, eng, matchID)
	endBothTurns(t, eng, matchID)

	m := matchOf(t, eng, matchID)
	alice := m.players["alice"]
	var played *cardInstance
	for _, id := range alice.Hand {
		if m.cards[id].DefID == "neutral.riverbank_lurker" {
			played = m.cards[id]
			break
		}
	}
	require.NotNil(t, played)
	_, err := eng.PlayCard(matchID, "alice", played.ID, nil, -1)
	require.NoError(t, err)

	ref := targeting.HeroRef("bob")
	_, err = eng.UseHeroPower(matchID, "alice", &ref)
	require.NoError(t, err)

	_, err = eng.EndTurn(matchID, "alice")
	require.NoError(t, err)

	want, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)

	replay, err := eng.ReplayOf(matchID)
	require.NoError(t, err)
	require.Len(t, replay.Commands, 7)

	got, err := ReplayMatch(eng.catalog, zaptest.NewLogger(t), replay)
	require.NoError(t, err)
	assert.Equal(t, want.Checksum(), got.Checksum(), "a replayed match must reach the same state")
}

func TestReplayCoversCombat(t *testing.T) {
	eng := testEngine(t)

	deck := append([]string{"neutral.swift_raider"}, filler(11)...)
	matchID := startTestMatch(t, eng,
		seat{id: "alice", class: catalog.ClassMage, deck: deck},
		seat{id: "bob", class: catalog.ClassWarrior, deck: filler(12)},
	)
	m := matchOf(t, eng, matchID)
	alice := m.players["alice"]

	for alice.Ledger.Max() < 5 {
		endBothTurns(t, eng, matchID)
	}
	var raider *cardInstance
	for _, id := range alice.Hand {
		if m.cards[id].DefID == "neutral.swift_raider" {
			raider = m.cards[id]
		}
	}
	require.NotNil(t, raider)

	_, err := eng.PlayCard(matchID, "alice", raider.ID, nil, -1)
	require.NoError(t, err)
	_, err = eng.Attack(matchID, "alice", targeting.MinionRef(raider.ID), targeting.HeroRef("bob"))
	require.NoError(t, err)

	want, err := eng.SnapshotMatch(matchID)
	require.NoError(t, err)
	replay, err := eng.ReplayOf(matchID)
	require.NoError(t, err)

	got, err := ReplayMatch(eng.catalog, zaptest.NewLogger(t), replay)
	require.NoError(t, err)
	assert.Equal(t, want.Checksum(), got.Checksum())
}

func TestRecorderSaveLoad(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	_, err := eng.EndTurn(matchID, "alice")
	require.NoError(t, err)

	replay, err := eng.ReplayOf(matchID)
	require.NoError(t, err)

	rec, err := NewRecorder(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, rec.Save(replay))

	loaded, err := rec.Load(matchID)
	require.NoError(t, err)
	assert.Equal(t, replay, loaded)
}

func TestRecorderLoadMissing(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = rec.Load("never-played")
	assert.Error(t, err)
}

func TestApplyCommandRejectsUnknownType(t *testing.T) {
	eng := testEngine(t)
	matchID := startDefaultMatch(t, eng)
	_, err := eng.ApplyCommand(matchID, Command{Type: "DANCE", PlayerID: "alice"})
	assert.Error(t, err)
	assert.True(t, rules.IsKind(err, rules.ErrInvalidTarget))
}
