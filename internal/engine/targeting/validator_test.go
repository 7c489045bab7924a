package targeting

import (
	"testing"

	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// fakeState is a hand-rolled Accessor over a fixed minion table.
type fakeState struct {
	minions map[int]Minion
}

func (f *fakeState) MinionInfo(instance int) (Minion, bool) {
	m, ok := f.minions[instance]
	return m, ok
}

func (f *fakeState) Opponent(playerID string) string {
	if playerID == "alice" {
		return "bob"
	}
	return "alice"
}

func (f *fakeState) TauntsFor(playerID string) []int {
	var taunts []int
	for id := 1; id <= len(f.minions)+10; id++ {
		m, ok := f.minions[id]
		if ok && m.Owner == playerID && m.OnBattlefield && m.Taunt {
			taunts = append(taunts, id)
		}
	}
	return taunts
}

func newFakeState(minions ...Minion) *fakeState {
	f := &fakeState{minions: make(map[int]Minion)}
	for _, m := range minions {
		f.minions[m.ID] = m
	}
	return f
}

func TestAttackTargetBasics(t *testing.T) {
	v := NewValidator(newFakeState(
		Minion{ID: 1, Owner: "alice", OnBattlefield: true},
		Minion{ID: 2, Owner: "bob", OnBattlefield: true},
		Minion{ID: 3, Owner: "bob", OnBattlefield: false},
	))

	if err := v.ValidateAttackTarget("alice", MinionRef(2)); err != nil {
		t.Errorf("enemy battlefield minion should be attackable: %v", err)
	}
	if err := v.ValidateAttackTarget("alice", HeroRef("bob")); err != nil {
		t.Errorf("enemy hero should be attackable with no taunts: %v", err)
	}
	if err := v.ValidateAttackTarget("alice", HeroRef("alice")); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("own hero attack should be INVALID_TARGET, got %v", err)
	}
	if err := v.ValidateAttackTarget("alice", MinionRef(1)); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("friendly minion attack should be INVALID_TARGET, got %v", err)
	}
	if err := v.ValidateAttackTarget("alice", MinionRef(3)); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("off-battlefield defender should be INVALID_TARGET, got %v", err)
	}
	if err := v.ValidateAttackTarget("alice", MinionRef(42)); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("unknown defender should be INVALID_TARGET, got %v", err)
	}
}

func TestAttackTargetTauntRouting(t *testing.T) {
	v := NewValidator(newFakeState(
		Minion{ID: 1, Owner: "bob", OnBattlefield: true, Taunt: true},
		Minion{ID: 2, Owner: "bob", OnBattlefield: true},
	))

	if err := v.ValidateAttackTarget("alice", MinionRef(1)); err != nil {
		t.Errorf("taunt defender should be legal: %v", err)
	}
	if err := v.ValidateAttackTarget("alice", MinionRef(2)); !rules.IsKind(err, rules.ErrMustTargetTaunt) {
		t.Errorf("attacking past a taunt should be MUST_TARGET_TAUNT, got %v", err)
	}
	if err := v.ValidateAttackTarget("alice", HeroRef("bob")); !rules.IsKind(err, rules.ErrMustTargetTaunt) {
		t.Errorf("attacking the hero past a taunt should be MUST_TARGET_TAUNT, got %v", err)
	}
}

func TestAttackTargetStealth(t *testing.T) {
	v := NewValidator(newFakeState(
		Minion{ID: 1, Owner: "bob", OnBattlefield: true, Stealth: true},
		Minion{ID: 2, Owner: "bob", OnBattlefield: true},
	))

	if err := v.ValidateAttackTarget("alice", MinionRef(1)); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("stealthed defender should be INVALID_TARGET, got %v", err)
	}
	// A stealthed taunt does not guard: the hero stays attackable.
	if err := v.ValidateAttackTarget("alice", HeroRef("bob")); err != nil {
		t.Errorf("hero should be attackable when only stealth is on board: %v", err)
	}
}

func TestEffectTarget(t *testing.T) {
	v := NewValidator(newFakeState(
		Minion{ID: 1, Owner: "alice", OnBattlefield: true, Stealth: true},
		Minion{ID: 2, Owner: "bob", OnBattlefield: true, Stealth: true},
		Minion{ID: 3, Owner: "bob", OnBattlefield: true},
	))

	if err := v.ValidateEffectTarget("alice", HeroRef("bob"), false); err != nil {
		t.Errorf("hero should be a legal effect target: %v", err)
	}
	if err := v.ValidateEffectTarget("alice", HeroRef("bob"), true); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("minion-only effect on a hero should be INVALID_TARGET, got %v", err)
	}
	if err := v.ValidateEffectTarget("alice", MinionRef(1), false); err != nil {
		t.Errorf("own stealthed minion should be targetable by its controller: %v", err)
	}
	if err := v.ValidateEffectTarget("alice", MinionRef(2), false); !rules.IsKind(err, rules.ErrInvalidTarget) {
		t.Errorf("enemy stealthed minion should be INVALID_TARGET, got %v", err)
	}
	if err := v.ValidateEffectTarget("alice", MinionRef(3), true); err != nil {
		t.Errorf("enemy battlefield minion should be a legal minion target: %v", err)
	}
}

func TestHasAnyEffectTarget(t *testing.T) {
	v := NewValidator(newFakeState())

	if !v.HasAnyEffectTarget("alice", false, nil) {
		t.Error("hero-capable effects always have a candidate")
	}
	if v.HasAnyEffectTarget("alice", true, nil) {
		t.Error("minion-only effect with an empty board has no candidate")
	}

	board := []Minion{
		{ID: 2, Owner: "bob", OnBattlefield: true, Stealth: true},
	}
	if v.HasAnyEffectTarget("alice", true, board) {
		t.Error("a lone enemy stealth minion is not a legal candidate")
	}

	board = append(board, Minion{ID: 3, Owner: "bob", OnBattlefield: true})
	if !v.HasAnyEffectTarget("alice", true, board) {
		t.Error("visible enemy minion should be a candidate")
	}
}
