package engine

import (
	"sort"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/effects"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

// damageMinion applies damage to a minion and returns the amount actually
// dealt, capped at the health the target had left: overkill past zero never
// counts as dealt, and a live divine shield absorbs the hit entirely. Lethal
// damage only marks the instance; removal happens in death processing so an
// effect resolves fully before anything leaves the battlefield.
func (m *matchState) damageMinion(ci *cardInstance, amount int) int {
	if amount <= 0 {
		return 0
	}
	if m.shieldActive(ci) {
		ci.ShieldSpent = true
		m.appendEvent(rules.GameEvent{
			Type:       rules.EventShieldBroken,
			PlayerID:   ci.Owner,
			InstanceID: ci.ID,
			CardID:     ci.DefID,
		})
		return 0
	}
	dealt := m.healthOf(ci)
	if dealt > amount {
		dealt = amount
	}
	if dealt < 0 {
		dealt = 0
	}
	ci.Damage += amount
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventDamageDealt,
		PlayerID:   ci.Owner,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
		Amount:     amount,
	})
	m.markIfDead(ci)
	return dealt
}

// damageHero applies damage to a hero, consuming armor before health. The
// full amount counts as dealt even when armor absorbs part of it.
func (m *matchState) damageHero(p *playerState, amount int) int {
	if amount <= 0 {
		return 0
	}
	absorbed := amount
	if absorbed > p.Hero.Armor {
		absorbed = p.Hero.Armor
	}
	p.Hero.Armor -= absorbed
	p.Hero.Health -= amount - absorbed
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventDamageDealt,
		PlayerID:   p.ID,
		TargetHero: true,
		Amount:     amount,
	})
	return amount
}

// markIfDead assigns a death order the first time an instance drops to zero
// health, so deathrattles later resolve in the order their owners died.
func (m *matchState) markIfDead(ci *cardInstance) {
	if ci.deathOrder != 0 {
		return
	}
	if ci.Zone != rules.ZoneBattlefield {
		return
	}
	if m.healthOf(ci) <= 0 || ci.PoisonDoomed {
		m.deathSeq++
		ci.deathOrder = m.deathSeq
	}
}

func (m *matchState) healMinion(ci *cardInstance, amount int) {
	if amount <= 0 || ci.Damage == 0 {
		return
	}
	healed := amount
	if healed > ci.Damage {
		healed = ci.Damage
	}
	ci.Damage -= healed
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventHealingDone,
		PlayerID:   ci.Owner,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
		Amount:     healed,
	})
}

func (m *matchState) healHero(p *playerState, amount int) {
	if amount <= 0 || p.Hero.Health >= StartingHealth {
		return
	}
	healed := amount
	if p.Hero.Health+healed > StartingHealth {
		healed = StartingHealth - p.Hero.Health
	}
	p.Hero.Health += healed
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventHealingDone,
		PlayerID:   p.ID,
		TargetHero: true,
		Amount:     healed,
	})
}

func (m *matchState) freezeMinion(ci *cardInstance) {
	if ci.Frozen {
		return
	}
	ci.Frozen = true
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventFrozen,
		PlayerID:   ci.Owner,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
	})
}

func (m *matchState) freezeHero(p *playerState) {
	if p.Hero.Frozen {
		return
	}
	p.Hero.Frozen = true
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventFrozen,
		PlayerID:   p.ID,
		TargetHero: true,
	})
}

// silenceMinion strips printed keywords, scripts, auras and enchantments.
// Silence never kills: if removing buffs would leave the minion at or below
// zero health it survives at one.
func (m *matchState) silenceMinion(ci *cardInstance) {
	ci.Silenced = true
	ci.Frozen = false
	ci.Enchantments = nil
	m.auras.Unregister(ci.ID)
	if max := m.maxHealthOf(ci); ci.Damage >= max {
		ci.Damage = max - 1
	}
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventSilenced,
		PlayerID:   ci.Owner,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
	})
}

// scriptTarget is one resolved recipient of a script clause.
type scriptTarget struct {
	player string // hero target when instance is 0
	inst   *cardInstance
}

// resolveScriptTargets expands a selector into concrete recipients, relative
// to the script owner. A nil result means the clause fizzles.
func (m *matchState) resolveScriptTargets(owner string, sc catalog.Script, chosen, trigger *targeting.Ref) []scriptTarget {
	heroTarget := func(pid string) []scriptTarget {
		return []scriptTarget{{player: pid}}
	}
	refTarget := func(ref *targeting.Ref) []scriptTarget {
		if ref == nil {
			return nil
		}
		if ref.IsHero {
			if _, ok := m.players[ref.PlayerID]; !ok {
				return nil
			}
			return heroTarget(ref.PlayerID)
		}
		ci, ok := m.cards[ref.InstanceID]
		if !ok || ci.Zone != rules.ZoneBattlefield {
			return nil
		}
		return []scriptTarget{{inst: ci}}
	}
	boardTargets := func(pids ...string) []scriptTarget {
		var out []scriptTarget
		for _, pid := range pids {
			p := m.players[pid]
			for _, id := range append([]int(nil), p.Battlefield...) {
				if ci, ok := m.cards[id]; ok {
					out = append(out, scriptTarget{inst: ci})
				}
			}
		}
		return out
	}

	switch sc.Target {
	case catalog.SelectorChosen:
		return refTarget(chosen)
	case catalog.SelectorTrigger:
		return refTarget(trigger)
	case catalog.SelectorOwnHero:
		return heroTarget(owner)
	case catalog.SelectorEnemyHero:
		return heroTarget(m.opponentOf(owner))
	case catalog.SelectorAllMinions:
		return boardTargets(owner, m.opponentOf(owner))
	case catalog.SelectorAllEnemyMinions:
		return boardTargets(m.opponentOf(owner))
	case catalog.SelectorAllFriendlyMinions:
		return boardTargets(owner)
	}
	return nil
}

// runScripts executes a script list for one trigger firing. spellBonus is
// only non-zero for spell cast clauses; battlecries, deathrattles and hero
// powers never receive it.
func (m *matchState) runScripts(owner string, source int, scripts []catalog.Script, chosen, trigger *targeting.Ref, spellBonus int) error {
	p, ok := m.players[owner]
	if !ok {
		return rules.Errorf(rules.ErrCorruptState, "scripts owned by unknown player %q", owner)
	}
	for _, sc := range scripts {
		targets := m.resolveScriptTargets(owner, sc, chosen, trigger)

		switch sc.Kind {
		case catalog.ScriptDealDamage:
			amount := sc.Amount + spellBonus
			for _, t := range targets {
				if t.inst != nil {
					m.damageMinion(t.inst, amount)
				} else {
					m.damageHero(m.players[t.player], amount)
				}
			}

		case catalog.ScriptRestoreHealth:
			for _, t := range targets {
				if t.inst != nil {
					m.healMinion(t.inst, sc.Amount)
				} else {
					m.healHero(m.players[t.player], sc.Amount)
				}
			}

		case catalog.ScriptDrawCards:
			for i := 0; i < sc.Amount; i++ {
				if err := m.drawCard(p); err != nil {
					return err
				}
			}

		case catalog.ScriptGainArmor:
			for _, t := range targets {
				if t.inst != nil {
					continue
				}
				tp := m.players[t.player]
				tp.Hero.Armor += sc.Amount
				m.appendEvent(rules.GameEvent{
					Type:       rules.EventArmorGained,
					PlayerID:   tp.ID,
					TargetHero: true,
					Amount:     sc.Amount,
				})
			}

		case catalog.ScriptBuffStats:
			for _, t := range targets {
				if t.inst == nil {
					continue
				}
				ench := effects.NewEnchantment(source)
				ench.Attack = sc.Attack
				ench.Health = sc.Health
				ench.UntilEndOfTurn = sc.Duration == catalog.DurationEndOfTurn
				t.inst.Enchantments = append(t.inst.Enchantments, ench)
				m.appendEvent(rules.GameEvent{
					Type:       rules.EventEnchantmentApplied,
					PlayerID:   t.inst.Owner,
					InstanceID: t.inst.ID,
					CardID:     t.inst.DefID,
					Detail:     ench.ID,
				})
			}

		case catalog.ScriptGiveKeyword:
			for _, t := range targets {
				if t.inst == nil {
					continue
				}
				ench := effects.NewEnchantment(source)
				ench.Keyword = sc.Keyword
				ench.UntilEndOfTurn = sc.Duration == catalog.DurationEndOfTurn
				t.inst.Enchantments = append(t.inst.Enchantments, ench)
				m.appendEvent(rules.GameEvent{
					Type:       rules.EventEnchantmentApplied,
					PlayerID:   t.inst.Owner,
					InstanceID: t.inst.ID,
					CardID:     t.inst.DefID,
					Detail:     ench.ID,
				})
			}

		case catalog.ScriptSummonMinion:
			count := sc.Count
			if count <= 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				if len(p.Battlefield) >= MaxBoardMinions {
					break
				}
				ci, err := m.createInstance(sc.CardID, owner, rules.ZoneNone)
				if err != nil {
					return err
				}
				ci.SummoningSick = true
				if err := m.moveCard(ci, rules.ZoneBattlefield, -1); err != nil {
					return err
				}
				m.registerAuraSource(ci)
				m.appendEvent(rules.GameEvent{
					Type:       rules.EventMinionSummoned,
					PlayerID:   owner,
					InstanceID: ci.ID,
					CardID:     ci.DefID,
				})
			}

		case catalog.ScriptSilence:
			for _, t := range targets {
				if t.inst == nil {
					continue
				}
				m.silenceMinion(t.inst)
			}

		case catalog.ScriptFreeze:
			for _, t := range targets {
				if t.inst != nil {
					m.freezeMinion(t.inst)
				} else {
					m.freezeHero(m.players[t.player])
				}
			}

		case catalog.ScriptDestroyWeapon:
			for _, t := range targets {
				if t.inst != nil {
					continue
				}
				if err := m.destroyWeapon(m.players[t.player]); err != nil {
					return err
				}
			}

		default:
			return rules.Errorf(rules.ErrCorruptState, "unknown script kind %q", sc.Kind)
		}
	}
	return nil
}

// registerAuraSource adds a minion's aura, if it has one and is not
// silenced, to the aura system.
func (m *matchState) registerAuraSource(ci *cardInstance) {
	if ci.Silenced {
		return
	}
	def := m.def(ci)
	if def.Aura == nil {
		return
	}
	m.auras.Register(effects.AuraSource{
		Instance: ci.ID,
		Owner:    ci.Owner,
		Scope:    def.Aura.Scope,
		Attack:   def.Aura.Attack,
		Health:   def.Aura.Health,
	})
}

// recomputeAuras rebuilds every aura-derived enchantment from scratch. The
// slate is wiped first, so a dead or silenced source leaves no residue.
func (m *matchState) recomputeAuras() {
	boards := make(map[string][]effects.BoardMinion, 2)
	for _, pid := range m.order {
		p := m.players[pid]
		for _, id := range p.Battlefield {
			boards[pid] = append(boards[pid], effects.BoardMinion{Instance: id, Owner: pid})
		}
	}
	derived := m.auras.Recompute(boards)
	for _, pid := range m.order {
		p := m.players[pid]
		for _, id := range p.Battlefield {
			ci := m.cards[id]
			ci.Enchantments = effects.StripAuras(ci.Enchantments)
			ci.Enchantments = append(ci.Enchantments, derived[id]...)
			m.markIfDead(ci)
		}
	}
}

// processDeaths sweeps dead battlefield minions to the graveyard and runs
// their deathrattles in the order they died, ties broken by ascending
// instance id. Deathrattles can kill in turn, so the sweep loops until the
// board is stable.
func (m *matchState) processDeaths() error {
	for {
		var dead []*cardInstance
		for _, pid := range m.order {
			p := m.players[pid]
			for _, id := range p.Battlefield {
				ci := m.cards[id]
				if ci == nil {
					continue
				}
				if m.healthOf(ci) <= 0 || ci.PoisonDoomed {
					m.markIfDead(ci)
					dead = append(dead, ci)
				}
			}
		}
		if len(dead) == 0 {
			return nil
		}
		sort.Slice(dead, func(i, j int) bool {
			if dead[i].deathOrder != dead[j].deathOrder {
				return dead[i].deathOrder < dead[j].deathOrder
			}
			return dead[i].ID < dead[j].ID
		})

		for _, ci := range dead {
			m.auras.Unregister(ci.ID)
			if err := m.moveCard(ci, rules.ZoneGraveyard, -1); err != nil {
				return err
			}
			m.appendEvent(rules.GameEvent{
				Type:       rules.EventMinionDied,
				PlayerID:   ci.Owner,
				InstanceID: ci.ID,
				CardID:     ci.DefID,
			})
		}
		m.recomputeAuras()

		for _, ci := range dead {
			if ci.Silenced {
				continue
			}
			scripts := m.def(ci).Scripts[catalog.TriggerDeathrattle]
			if len(scripts) == 0 {
				continue
			}
			if err := m.runScripts(ci.Owner, ci.ID, scripts, nil, nil, 0); err != nil {
				return err
			}
		}
	}
}

// checkSecrets consumes the trigger contexts queued during the current
// command. Each context reveals at most the matching secrets armed before
// the command began, in play order.
func (m *matchState) checkSecrets() (bool, error) {
	contexts := m.pendingSecrets
	m.pendingSecrets = nil
	fired := false
	for _, ctx := range contexts {
		p, ok := m.players[ctx.Owner]
		if !ok {
			continue
		}
		armed := append([]int(nil), p.Secrets...)
		for _, id := range armed {
			ci := m.cards[id]
			if ci == nil || ci.Zone != rules.ZoneSecret {
				continue
			}
			def := m.def(ci)
			if def.Secret != ctx.Trigger {
				continue
			}
			if err := m.moveCard(ci, rules.ZoneGraveyard, -1); err != nil {
				return fired, err
			}
			m.appendEvent(rules.GameEvent{
				Type:       rules.EventSecretRevealed,
				PlayerID:   ctx.Owner,
				InstanceID: ci.ID,
				CardID:     ci.DefID,
			})
			trigger := secretTriggerRef(ctx)
			if err := m.runScripts(ctx.Owner, ci.ID, def.Scripts[catalog.TriggerCast], nil, trigger, 0); err != nil {
				return fired, err
			}
			fired = true
		}
	}
	return fired, nil
}

func secretTriggerRef(ctx secretContext) *targeting.Ref {
	if ctx.Instance != 0 {
		ref := targeting.MinionRef(ctx.Instance)
		return &ref
	}
	if ctx.HeroRef != "" {
		ref := targeting.HeroRef(ctx.HeroRef)
		return &ref
	}
	return nil
}

// evaluateWin ends the match once a hero is at or below zero health. Both
// heroes down in the same resolution is a draw.
func (m *matchState) evaluateWin() {
	if m.finished {
		return
	}
	firstDead := m.players[m.order[0]].Hero.Health <= 0
	secondDead := m.players[m.order[1]].Hero.Health <= 0
	switch {
	case firstDead && secondDead:
		m.finished = true
		m.draw = true
	case firstDead:
		m.finished = true
		m.winner = m.order[1]
	case secondDead:
		m.finished = true
		m.winner = m.order[0]
	default:
		return
	}
	m.seq.Finish()
	detail := "draw"
	if !m.draw {
		detail = "winner"
	}
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventMatchEnded,
		PlayerID: m.winner,
		Detail:   detail,
	})
}

// settle runs the fixed post-action resolution order: deaths and
// deathrattles, aura recomputation, secret checks, then win evaluation.
func (m *matchState) settle() error {
	if err := m.processDeaths(); err != nil {
		return err
	}
	m.recomputeAuras()
	fired, err := m.checkSecrets()
	if err != nil {
		return err
	}
	if fired {
		if err := m.processDeaths(); err != nil {
			return err
		}
		m.recomputeAuras()
	}
	m.evaluateWin()
	return nil
}
