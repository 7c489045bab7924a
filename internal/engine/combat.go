package engine

import (
	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

// validateAttacker checks that the attacking character may attack at all.
// Target legality is the validator's job; this covers readiness.
func (m *matchState) validateAttacker(p *playerState, attacker targeting.Ref) error {
	if attacker.IsHero {
		if attacker.PlayerID != p.ID {
			return rules.Errorf(rules.ErrInvalidTarget, "cannot attack with the opposing hero")
		}
		if p.Hero.Frozen {
			return rules.Errorf(rules.ErrInvalidTarget, "hero is frozen")
		}
		if m.heroAttackValue(p) <= 0 {
			return rules.Errorf(rules.ErrInvalidTarget, "hero has no attack")
		}
		if p.Hero.AttacksThisTurn >= 1 {
			return rules.Errorf(rules.ErrInvalidTarget, "hero has already attacked this turn")
		}
		return nil
	}

	ci, ok := m.cards[attacker.InstanceID]
	if !ok {
		return rules.Errorf(rules.ErrUnknownCard, "unknown attacker instance %d", attacker.InstanceID)
	}
	if ci.Owner != p.ID || ci.Zone != rules.ZoneBattlefield {
		return rules.Errorf(rules.ErrInvalidTarget, "attacker is not on your battlefield")
	}
	if ci.Frozen {
		return rules.Errorf(rules.ErrInvalidTarget, "minion is frozen")
	}
	if ci.SummoningSick && !m.hasKeyword(ci, catalog.KeywordCharge) {
		return rules.Errorf(rules.ErrInvalidTarget, "minion cannot attack the turn it was played")
	}
	if m.attackOf(ci) <= 0 {
		return rules.Errorf(rules.ErrInvalidTarget, "minion has no attack")
	}
	if ci.AttacksThisTurn >= m.attacksAllowed(ci) {
		return rules.Errorf(rules.ErrInvalidTarget, "minion has already attacked this turn")
	}
	return nil
}

// resolveAttack applies combat damage after all validation has passed.
// Minion combat is simultaneous; a defending hero never strikes back.
func (m *matchState) resolveAttack(p *playerState, attacker, defender targeting.Ref) error {
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventAttackDeclared,
		PlayerID:   p.ID,
		InstanceID: attacker.InstanceID,
		TargetID:   defender.InstanceID,
		TargetHero: defender.IsHero,
	})

	opp := m.players[m.opponentOf(p.ID)]
	m.pendingSecrets = append(m.pendingSecrets, secretContext{
		Trigger:  catalog.SecretEnemyAttacks,
		Owner:    opp.ID,
		Instance: attacker.InstanceID,
		HeroRef:  heroRefFor(attacker, p.ID),
	})

	var attackValue int
	var attackerInst *cardInstance
	if attacker.IsHero {
		attackValue = m.heroAttackValue(p)
	} else {
		attackerInst = m.cards[attacker.InstanceID]
		attackValue = m.attackOf(attackerInst)
	}

	if defender.IsHero {
		target := m.players[defender.PlayerID]
		dealt := m.damageHero(target, attackValue)
		m.applyLifesteal(p, attackerInst, dealt)
	} else {
		defenderInst := m.cards[defender.InstanceID]
		dealtToDefender := m.damageMinion(defenderInst, attackValue)
		m.applyLifesteal(p, attackerInst, dealtToDefender)
		if attackerInst != nil && dealtToDefender > 0 && m.hasKeyword(attackerInst, catalog.KeywordPoisonous) {
			defenderInst.PoisonDoomed = true
			m.markIfDead(defenderInst)
		}

		retaliation := m.attackOf(defenderInst)
		if attackerInst != nil {
			dealtBack := m.damageMinion(attackerInst, retaliation)
			m.applyLifesteal(opp, defenderInst, dealtBack)
			if dealtBack > 0 && m.hasKeyword(defenderInst, catalog.KeywordPoisonous) {
				attackerInst.PoisonDoomed = true
				m.markIfDead(attackerInst)
			}
		} else {
			dealtBack := m.damageHero(p, retaliation)
			m.applyLifesteal(opp, defenderInst, dealtBack)
		}
	}

	if attackerInst != nil {
		attackerInst.AttacksThisTurn++
		attackerInst.StealthLost = true
	} else {
		p.Hero.AttacksThisTurn++
		if err := m.spendWeaponDurability(p); err != nil {
			return err
		}
	}

	m.appendEvent(rules.GameEvent{
		Type:       rules.EventAttackResolved,
		PlayerID:   p.ID,
		InstanceID: attacker.InstanceID,
		TargetID:   defender.InstanceID,
		TargetHero: defender.IsHero,
		Amount:     attackValue,
	})
	return nil
}

// applyLifesteal heals the controlling player's hero by the damage a
// lifesteal character actually dealt. Absorbed hits heal nothing.
func (m *matchState) applyLifesteal(controller *playerState, source *cardInstance, dealt int) {
	if source == nil || dealt <= 0 {
		return
	}
	if !m.hasKeyword(source, catalog.KeywordLifesteal) {
		return
	}
	m.healHero(controller, dealt)
}

// spendWeaponDurability consumes one durability after a hero attack and
// breaks the weapon at zero.
func (m *matchState) spendWeaponDurability(p *playerState) error {
	if p.Hero.WeaponID == 0 {
		return nil
	}
	w := m.cards[p.Hero.WeaponID]
	if w == nil {
		return rules.Errorf(rules.ErrCorruptState, "weapon slot references unknown instance")
	}
	w.Durability--
	if w.Durability <= 0 {
		return m.destroyWeapon(p)
	}
	return nil
}

func heroRefFor(ref targeting.Ref, playerID string) string {
	if ref.IsHero {
		return playerID
	}
	return ""
}
