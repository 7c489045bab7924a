package targeting

import (
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// Minion is the slice of battlefield state the validator needs about one
// instance. Taunt and Stealth here are effective values: a silenced taunt
// reports false.
type Minion struct {
	ID            int
	Owner         string
	OnBattlefield bool
	Taunt         bool
	Stealth       bool
}

// Accessor provides read access to match state for legality checks.
type Accessor interface {
	// MinionInfo finds an instance anywhere in the match.
	MinionInfo(instance int) (Minion, bool)
	// Opponent returns the other player's id.
	Opponent(playerID string) string
	// TauntsFor returns the instance ids of a player's battlefield minions
	// that currently project taunt (stealthed and silenced taunts excluded).
	TauntsFor(playerID string) []int
}

// Validator checks targets before any state is mutated, so a rejection never
// leaves a partial command behind.
type Validator struct {
	state Accessor
}

// NewValidator creates a validator over the given state accessor.
func NewValidator(state Accessor) *Validator {
	return &Validator{state: state}
}

// ValidateAttackTarget enforces attack-routing rules for an attacker owned by
// attackerOwner declaring an attack against defender.
func (v *Validator) ValidateAttackTarget(attackerOwner string, defender Ref) error {
	opponent := v.state.Opponent(attackerOwner)

	if defender.IsHero {
		if defender.PlayerID != opponent {
			return rules.Errorf(rules.ErrInvalidTarget, "cannot attack your own hero")
		}
	} else {
		m, ok := v.state.MinionInfo(defender.InstanceID)
		if !ok || !m.OnBattlefield {
			return rules.Errorf(rules.ErrInvalidTarget, "defender %d is not on the battlefield", defender.InstanceID)
		}
		if m.Owner == attackerOwner {
			return rules.Errorf(rules.ErrInvalidTarget, "cannot attack a friendly minion")
		}
		if m.Stealth {
			return rules.Errorf(rules.ErrInvalidTarget, "minion %d is stealthed", defender.InstanceID)
		}
	}

	taunts := v.state.TauntsFor(opponent)
	if len(taunts) == 0 {
		return nil
	}
	if defender.IsHero {
		return rules.Errorf(rules.ErrMustTargetTaunt, "a taunt minion is guarding the hero")
	}
	for _, id := range taunts {
		if id == defender.InstanceID {
			return nil
		}
	}
	return rules.Errorf(rules.ErrMustTargetTaunt, "minion %d is not a taunt defender", defender.InstanceID)
}

// ValidateEffectTarget enforces chosen-target rules for spells, battlecries
// and hero powers. minionOnly rejects hero targets (buffs and silence apply
// to minions only).
func (v *Validator) ValidateEffectTarget(caster string, target Ref, minionOnly bool) error {
	if target.IsHero {
		if minionOnly {
			return rules.Errorf(rules.ErrInvalidTarget, "effect requires a minion target")
		}
		if target.PlayerID != caster && target.PlayerID != v.state.Opponent(caster) {
			return rules.Errorf(rules.ErrInvalidTarget, "unknown hero %q", target.PlayerID)
		}
		return nil
	}

	m, ok := v.state.MinionInfo(target.InstanceID)
	if !ok || !m.OnBattlefield {
		return rules.Errorf(rules.ErrInvalidTarget, "target %d is not on the battlefield", target.InstanceID)
	}
	if m.Owner != caster && m.Stealth {
		return rules.Errorf(rules.ErrInvalidTarget, "minion %d is stealthed", target.InstanceID)
	}
	return nil
}

// HasAnyEffectTarget reports whether a chosen-target effect has at least one
// legal candidate; when it does not, the effect fizzles as a no-op instead of
// failing the command.
func (v *Validator) HasAnyEffectTarget(caster string, minionOnly bool, battlefield []Minion) bool {
	if !minionOnly {
		return true // both heroes are always present
	}
	for _, m := range battlefield {
		if !m.OnBattlefield {
			continue
		}
		if m.Owner != caster && m.Stealth {
			continue
		}
		return true
	}
	return false
}
