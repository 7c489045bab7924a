// Package engine implements the authoritative battle rules: match lifecycle,
// the turn and mana economy, card play, scripted effects, combat, and win
// conditions. All mutation goes through the command surface; clients observe
// the match through redacted views and the ordered event log.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/effects"
	"github.com/cardclash/battle-server-go/internal/engine/mana"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

// NotificationHandler receives the events produced by every successful
// command, in order. It is invoked synchronously while the match is locked
// and must not issue commands against the same match.
type NotificationHandler func(matchID string, events []rules.GameEvent)

// PlayerSetup describes one seat of a new match. The deck is an ordered list
// of card ids; index 0 is the top of the deck. Shuffling is the caller's
// concern, which keeps the engine deterministic and replays exact.
type PlayerSetup struct {
	ID    string        `json:"id"`
	Class catalog.Class `json:"class"`
	Deck  []string      `json:"deck"`
}

// MatchSetup is everything needed to start (or re-run) a match.
type MatchSetup struct {
	MatchID string         `json:"match_id"`
	Players [2]PlayerSetup `json:"players"`
}

// BattleEngine hosts concurrent matches. Matches are independent: the engine
// lock only guards the registry, each match serializes its own commands.
type BattleEngine struct {
	mu      sync.RWMutex
	matches map[string]*matchState

	catalog *catalog.Catalog
	logger  *zap.Logger
	notify  NotificationHandler
}

// NewBattleEngine creates an engine serving the given card catalog.
func NewBattleEngine(cat *catalog.Catalog, logger *zap.Logger) *BattleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BattleEngine{
		matches: make(map[string]*matchState),
		catalog: cat,
		logger:  logger,
	}
}

// SetNotificationHandler installs the post-command event callback.
func (e *BattleEngine) SetNotificationHandler(h NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify = h
}

func (e *BattleEngine) matchFor(matchID string) (*matchState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.matches[matchID]
	if !ok {
		return nil, rules.Errorf(rules.ErrUnknownMatch, "unknown match %q", matchID)
	}
	return m, nil
}

// StartMatch validates the setup, builds the initial state, deals opening
// hands (3 cards for the first player, 4 for the second) and runs the first
// player's turn start. It returns the match id and the full setup event run.
func (e *BattleEngine) StartMatch(setup MatchSetup) (string, []rules.GameEvent, error) {
	if err := e.validateSetup(setup); err != nil {
		return "", nil, err
	}
	if setup.MatchID == "" {
		setup.MatchID = uuid.NewString()
	}

	m := &matchState{
		matchID:   setup.MatchID,
		setup:     setup,
		catalog:   e.catalog,
		order:     [2]string{setup.Players[0].ID, setup.Players[1].ID},
		players:   make(map[string]*playerState, 2),
		cards:     make(map[int]*cardInstance),
		auras:     effects.NewAuraSystem(),
		bus:       rules.NewEventBus(),
		seq:       rules.NewPhaseSequencer(setup.Players[0].ID),
		startedAt: time.Now(),
	}
	m.validator = targeting.NewValidator(m)

	for _, ps := range setup.Players {
		p := &playerState{
			ID:     ps.ID,
			Class:  ps.Class,
			Hero:   heroState{Health: StartingHealth},
			Ledger: mana.NewLedger(),
		}
		m.players[ps.ID] = p
		for _, defID := range ps.Deck {
			ci, err := m.createInstance(defID, ps.ID, rules.ZoneDeck)
			if err != nil {
				return "", nil, err
			}
			p.Deck = append(p.Deck, ci.ID)
		}
	}

	e.mu.Lock()
	if _, exists := e.matches[setup.MatchID]; exists {
		e.mu.Unlock()
		return "", nil, rules.Errorf(rules.ErrInvalidTarget, "match %q already exists", setup.MatchID)
	}
	e.matches[setup.MatchID] = m
	e.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendEvent(rules.GameEvent{Type: rules.EventMatchStarted, Detail: m.matchID})

	for i, pid := range m.order {
		opening := firstPlayerOpeningHand
		if i == 1 {
			opening = secondPlayerOpeningHand
		}
		p := m.players[pid]
		for n := 0; n < opening; n++ {
			if err := m.drawCard(p); err != nil {
				return "", nil, err
			}
		}
	}

	if err := m.beginTurn(m.order[0]); err != nil {
		return "", nil, err
	}

	events := append([]rules.GameEvent(nil), m.log...)
	e.logger.Info("match started",
		zap.String("match_id", m.matchID),
		zap.String("first_player", m.order[0]),
		zap.Int("catalog_size", e.catalog.Size()))
	e.dispatch(m.matchID, events)
	return m.matchID, events, nil
}

func (e *BattleEngine) validateSetup(setup MatchSetup) error {
	a, b := setup.Players[0], setup.Players[1]
	if a.ID == "" || b.ID == "" {
		return rules.Errorf(rules.ErrInvalidTarget, "both players need an id")
	}
	if a.ID == b.ID {
		return rules.Errorf(rules.ErrInvalidTarget, "players must be distinct")
	}
	for _, ps := range setup.Players {
		for _, defID := range ps.Deck {
			def, ok := e.catalog.Lookup(defID)
			if !ok {
				return rules.Errorf(rules.ErrUnknownCard, "deck references unknown card %q", defID)
			}
			if def.Token {
				return rules.Errorf(rules.ErrUnknownCard, "token %q cannot be placed in a deck", defID)
			}
			switch def.Type {
			case catalog.TypeMinion, catalog.TypeSpell, catalog.TypeWeapon:
			default:
				return rules.Errorf(rules.ErrUnknownCard, "card %q of type %s cannot be placed in a deck", defID, def.Type)
			}
			if def.Class != catalog.ClassNeutral && def.Class != ps.Class {
				return rules.Errorf(rules.ErrUnknownCard, "card %q belongs to class %s", defID, def.Class)
			}
		}
	}
	return nil
}

// guardCommand runs the shared preconditions for every in-match command.
// requireActive additionally enforces turn ownership and the main phase.
func (m *matchState) guardCommand(playerID string, requireActive bool) (*playerState, error) {
	if m.aborted {
		return nil, rules.Errorf(rules.ErrCorruptState, "match %q is halted", m.matchID)
	}
	if m.finished {
		return nil, rules.Errorf(rules.ErrMatchAlreadyOver, "match %q is over", m.matchID)
	}
	p, ok := m.players[playerID]
	if !ok {
		return nil, rules.Errorf(rules.ErrInvalidTarget, "player %q is not in this match", playerID)
	}
	if requireActive {
		if m.seq.ActivePlayer() != playerID {
			return nil, rules.Errorf(rules.ErrNotYourTurn, "it is %s's turn", m.seq.ActivePlayer())
		}
		if phase := m.seq.CurrentPhase(); phase != rules.PhaseMain {
			return nil, rules.Errorf(rules.ErrIllegalPhase, "cannot act during %s", phase)
		}
	}
	return p, nil
}

// finishCommand records a successful command and returns its event run.
// A corrupt-state error halts the match: state after a failed commit is not
// trustworthy, and refusing further commands beats serving garbage.
func (e *BattleEngine) finishCommand(m *matchState, mark int, cmd Command, err error) ([]rules.GameEvent, error) {
	if err != nil {
		if rules.IsKind(err, rules.ErrCorruptState) {
			m.aborted = true
			e.logger.Error("match halted",
				zap.String("match_id", m.matchID),
				zap.String("command", string(cmd.Type)),
				zap.Error(err))
		}
		return nil, err
	}
	m.commands = append(m.commands, cmd)
	events := append([]rules.GameEvent(nil), m.log[mark:]...)
	e.dispatch(m.matchID, events)
	return events, nil
}

func (e *BattleEngine) dispatch(matchID string, events []rules.GameEvent) {
	e.mu.RLock()
	notify := e.notify
	e.mu.RUnlock()
	if notify != nil && len(events) > 0 {
		notify(matchID, events)
	}
}

// PlayCard plays a card from the player's hand. target carries the chosen
// target for battlecries and targeted spells; position is the battlefield
// insert index for minions (-1 appends). Validation is complete before any
// state changes, so a rejected command leaves the match untouched.
func (e *BattleEngine) PlayCard(matchID, playerID string, instanceID int, target *targeting.Ref, position int) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := len(m.log)
	p, err := m.guardCommand(playerID, true)
	if err != nil {
		return nil, err
	}
	err = m.playCard(p, instanceID, target, position)
	return e.finishCommand(m, mark, Command{
		Type:       CommandPlayCard,
		PlayerID:   playerID,
		InstanceID: instanceID,
		Target:     target,
		Position:   position,
	}, err)
}

func (m *matchState) playCard(p *playerState, instanceID int, chosen *targeting.Ref, position int) error {
	ci, ok := m.cards[instanceID]
	if !ok || ci.Owner != p.ID || ci.Zone != rules.ZoneHand {
		return rules.Errorf(rules.ErrUnknownCard, "instance %d is not in your hand", instanceID)
	}
	def := m.def(ci)
	if !p.Ledger.CanAfford(def.Cost) {
		return rules.Errorf(rules.ErrInsufficientMana, "%s costs %d, %d available", def.ID, def.Cost, p.Ledger.Current())
	}

	switch def.Type {
	case catalog.TypeMinion:
		if len(p.Battlefield) >= MaxBoardMinions {
			return rules.Errorf(rules.ErrZoneFull, "battlefield is full")
		}
		if err := m.validateChosen(p, def.Scripts[catalog.TriggerBattlecry], chosen); err != nil {
			return err
		}
	case catalog.TypeSpell:
		if def.IsSecret() {
			if len(p.Secrets) >= MaxSecrets {
				return rules.Errorf(rules.ErrZoneFull, "secret zone is full")
			}
			for _, id := range p.Secrets {
				if armed := m.cards[id]; armed != nil && armed.DefID == def.ID {
					return rules.Errorf(rules.ErrZoneFull, "secret %s is already armed", def.ID)
				}
			}
		} else if err := m.validateChosen(p, def.Scripts[catalog.TriggerCast], chosen); err != nil {
			return err
		}
	case catalog.TypeWeapon:
		if err := m.validateChosen(p, def.Scripts[catalog.TriggerBattlecry], chosen); err != nil {
			return err
		}
	default:
		return rules.Errorf(rules.ErrInvalidTarget, "%s cards cannot be played from hand", def.Type)
	}

	// Commit. Nothing below may reject: cascades fizzle, they do not fail.
	if err := p.Ledger.Spend(def.Cost); err != nil {
		return err
	}
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventManaSpent,
		PlayerID: p.ID,
		Amount:   def.Cost,
	})
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventCardPlayed,
		PlayerID:   p.ID,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
	})

	switch def.Type {
	case catalog.TypeMinion:
		if err := m.moveCard(ci, rules.ZoneBattlefield, position); err != nil {
			return err
		}
		ci.SummoningSick = true
		m.registerAuraSource(ci)
		m.pendingSecrets = append(m.pendingSecrets, secretContext{
			Trigger:  catalog.SecretEnemyPlaysMinion,
			Owner:    m.opponentOf(p.ID),
			Instance: ci.ID,
		})
		if err := m.runScripts(p.ID, ci.ID, def.Scripts[catalog.TriggerBattlecry], chosen, nil, 0); err != nil {
			return err
		}

	case catalog.TypeSpell:
		if def.IsSecret() {
			if err := m.moveCard(ci, rules.ZoneSecret, -1); err != nil {
				return err
			}
			m.appendEvent(rules.GameEvent{
				Type:       rules.EventSecretPlayed,
				PlayerID:   p.ID,
				InstanceID: ci.ID,
				CardID:     ci.DefID,
			})
		} else {
			if err := m.moveCard(ci, rules.ZoneGraveyard, -1); err != nil {
				return err
			}
			bonus := m.spellDamageBonus(p.ID)
			m.pendingSecrets = append(m.pendingSecrets, secretContext{
				Trigger: catalog.SecretEnemyCastsSpell,
				Owner:   m.opponentOf(p.ID),
			})
			if err := m.runScripts(p.ID, ci.ID, def.Scripts[catalog.TriggerCast], chosen, nil, bonus); err != nil {
				return err
			}
		}

	case catalog.TypeWeapon:
		if err := m.equipWeapon(p, ci); err != nil {
			return err
		}
		if err := m.runScripts(p.ID, ci.ID, def.Scripts[catalog.TriggerBattlecry], chosen, nil, 0); err != nil {
			return err
		}
	}

	return m.settle()
}

// validateChosen enforces chosen-target requirements before commit. A card
// whose targeted clause has no legal candidate may be played without a
// target and the clause fizzles; with candidates on board the target is
// mandatory.
func (m *matchState) validateChosen(p *playerState, scripts []catalog.Script, chosen *targeting.Ref) error {
	needsTarget := false
	minionOnly := false
	for _, sc := range scripts {
		if sc.Target != catalog.SelectorChosen {
			continue
		}
		needsTarget = true
		if scriptMinionOnly(sc.Kind) {
			minionOnly = true
		}
	}
	if !needsTarget {
		if chosen != nil {
			return rules.Errorf(rules.ErrInvalidTarget, "card takes no target")
		}
		return nil
	}
	if chosen == nil {
		if m.validator.HasAnyEffectTarget(p.ID, minionOnly, m.battlefieldMinions(p.ID)) {
			return rules.Errorf(rules.ErrInvalidTarget, "a target is required")
		}
		return nil
	}
	return m.validator.ValidateEffectTarget(p.ID, *chosen, minionOnly)
}

func scriptMinionOnly(k catalog.ScriptKind) bool {
	switch k {
	case catalog.ScriptBuffStats, catalog.ScriptSilence, catalog.ScriptGiveKeyword:
		return true
	}
	return false
}

// Attack declares an attack from a battlefield minion or the hero against an
// enemy character.
func (e *BattleEngine) Attack(matchID, playerID string, attacker, defender targeting.Ref) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := len(m.log)
	p, err := m.guardCommand(playerID, true)
	if err != nil {
		return nil, err
	}
	err = m.attack(p, attacker, defender)
	return e.finishCommand(m, mark, Command{
		Type:     CommandAttack,
		PlayerID: playerID,
		Attacker: &attacker,
		Target:   &defender,
	}, err)
}

func (m *matchState) attack(p *playerState, attacker, defender targeting.Ref) error {
	if err := m.validateAttacker(p, attacker); err != nil {
		return err
	}
	if err := m.validator.ValidateAttackTarget(p.ID, defender); err != nil {
		return err
	}
	if err := m.resolveAttack(p, attacker, defender); err != nil {
		return err
	}
	return m.settle()
}

// UseHeroPower activates the class hero power, once per turn.
func (e *BattleEngine) UseHeroPower(matchID, playerID string, target *targeting.Ref) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := len(m.log)
	p, err := m.guardCommand(playerID, true)
	if err != nil {
		return nil, err
	}
	err = m.useHeroPower(p, target)
	return e.finishCommand(m, mark, Command{
		Type:     CommandUseHeroPower,
		PlayerID: playerID,
		Target:   target,
	}, err)
}

func (m *matchState) useHeroPower(p *playerState, chosen *targeting.Ref) error {
	def, ok := m.catalog.HeroPower(p.Class)
	if !ok {
		return rules.Errorf(rules.ErrUnknownCard, "class %s has no hero power", p.Class)
	}
	if !p.Ledger.HeroPowerAvailable() {
		return rules.Errorf(rules.ErrAlreadyUsedHeroPower, "hero power already used this turn")
	}
	if !p.Ledger.CanAfford(def.Cost) {
		return rules.Errorf(rules.ErrInsufficientMana, "%s costs %d, %d available", def.ID, def.Cost, p.Ledger.Current())
	}
	if err := m.validateChosen(p, def.Scripts[catalog.TriggerCast], chosen); err != nil {
		return err
	}

	if err := p.Ledger.Spend(def.Cost); err != nil {
		return err
	}
	p.Ledger.MarkHeroPowerUsed()
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventManaSpent,
		PlayerID: p.ID,
		Amount:   def.Cost,
	})
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventHeroPowerUsed,
		PlayerID: p.ID,
		CardID:   def.ID,
	})
	if err := m.runScripts(p.ID, 0, def.Scripts[catalog.TriggerCast], chosen, nil, 0); err != nil {
		return err
	}
	return m.settle()
}

// EndTurn closes the active player's turn and starts the opponent's.
func (e *BattleEngine) EndTurn(matchID, playerID string) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := len(m.log)
	p, err := m.guardCommand(playerID, true)
	if err != nil {
		return nil, err
	}
	err = m.endTurn(p)
	return e.finishCommand(m, mark, Command{
		Type:     CommandEndTurn,
		PlayerID: playerID,
	}, err)
}

func (m *matchState) endTurn(p *playerState) error {
	if err := m.seq.EndTurn(); err != nil {
		return err
	}

	// End-of-turn triggers fire for the ending player's board, in order.
	for _, id := range append([]int(nil), p.Battlefield...) {
		ci := m.cards[id]
		if ci == nil || ci.Zone != rules.ZoneBattlefield || ci.Silenced {
			continue
		}
		scripts := m.def(ci).Scripts[catalog.TriggerEndOfTurn]
		if len(scripts) == 0 {
			continue
		}
		if err := m.runScripts(ci.Owner, ci.ID, scripts, nil, nil, 0); err != nil {
			return err
		}
	}
	if err := m.settle(); err != nil {
		return err
	}
	if m.finished {
		return nil
	}

	m.expireTurnEnchantments()
	m.thawPlayer(p)
	m.appendEvent(rules.GameEvent{Type: rules.EventTurnEnded, PlayerID: p.ID})

	if err := m.settle(); err != nil {
		return err
	}
	if m.finished {
		return nil
	}
	return m.beginTurn(m.opponentOf(p.ID))
}

// expireTurnEnchantments drops every until-end-of-turn enchantment in play.
// Losing a temporary health buff can push a damaged minion to zero; the
// following settle sweeps it.
func (m *matchState) expireTurnEnchantments() {
	for _, pid := range m.order {
		p := m.players[pid]
		for _, id := range p.Battlefield {
			ci := m.cards[id]
			kept, expired := effects.ExpireEndOfTurn(ci.Enchantments)
			if len(expired) == 0 {
				continue
			}
			ci.Enchantments = kept
			for _, ench := range expired {
				m.appendEvent(rules.GameEvent{
					Type:       rules.EventEnchantmentExpired,
					PlayerID:   ci.Owner,
					InstanceID: ci.ID,
					CardID:     ci.DefID,
					Detail:     ench.ID,
				})
			}
			m.markIfDead(ci)
		}
	}
}

// thawPlayer clears frozen from a player's characters at the end of their
// own turn, so a freeze always costs exactly one turn of attacks.
func (m *matchState) thawPlayer(p *playerState) {
	if p.Hero.Frozen {
		p.Hero.Frozen = false
		m.appendEvent(rules.GameEvent{
			Type:       rules.EventUnfrozen,
			PlayerID:   p.ID,
			TargetHero: true,
		})
	}
	for _, id := range p.Battlefield {
		ci := m.cards[id]
		if ci == nil || !ci.Frozen {
			continue
		}
		ci.Frozen = false
		m.appendEvent(rules.GameEvent{
			Type:       rules.EventUnfrozen,
			PlayerID:   p.ID,
			InstanceID: ci.ID,
			CardID:     ci.DefID,
		})
	}
}

// beginTurn advances the sequencer, grows and refills mana, refreshes attack
// allowances, draws for the turn and runs start-of-turn triggers.
func (m *matchState) beginTurn(playerID string) error {
	if err := m.seq.BeginTurn(playerID); err != nil {
		return err
	}
	p := m.players[playerID]
	p.Ledger.AdvanceTurn()
	m.appendEvent(rules.GameEvent{Type: rules.EventTurnStarted, PlayerID: playerID})
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventManaGained,
		PlayerID: playerID,
		Amount:   p.Ledger.Max(),
	})

	p.Hero.AttacksThisTurn = 0
	for _, id := range p.Battlefield {
		ci := m.cards[id]
		ci.SummoningSick = false
		ci.AttacksThisTurn = 0
	}

	if err := m.drawCard(p); err != nil {
		return err
	}
	if err := m.settle(); err != nil {
		return err
	}
	if m.finished {
		return nil
	}

	for _, id := range append([]int(nil), p.Battlefield...) {
		ci := m.cards[id]
		if ci == nil || ci.Zone != rules.ZoneBattlefield || ci.Silenced {
			continue
		}
		scripts := m.def(ci).Scripts[catalog.TriggerStartOfTurn]
		if len(scripts) == 0 {
			continue
		}
		if err := m.runScripts(ci.Owner, ci.ID, scripts, nil, nil, 0); err != nil {
			return err
		}
	}
	if err := m.settle(); err != nil {
		return err
	}
	if m.finished {
		return nil
	}
	return m.seq.EnterMain()
}

// Concede forfeits the match. Legal for either player at any point before
// the match is over.
func (e *BattleEngine) Concede(matchID, playerID string) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mark := len(m.log)
	p, err := m.guardCommand(playerID, false)
	if err != nil {
		return nil, err
	}
	m.finished = true
	m.winner = m.opponentOf(p.ID)
	m.seq.Finish()
	m.appendEvent(rules.GameEvent{Type: rules.EventConceded, PlayerID: p.ID})
	m.appendEvent(rules.GameEvent{
		Type:     rules.EventMatchEnded,
		PlayerID: m.winner,
		Detail:   "winner",
	})
	return e.finishCommand(m, mark, Command{
		Type:     CommandConcede,
		PlayerID: playerID,
	}, nil)
}

// ApplyCommand dispatches a decoded command to the matching engine method.
// Both the hosting layer and replay execution funnel through here.
func (e *BattleEngine) ApplyCommand(matchID string, cmd Command) ([]rules.GameEvent, error) {
	switch cmd.Type {
	case CommandPlayCard:
		return e.PlayCard(matchID, cmd.PlayerID, cmd.InstanceID, cmd.Target, cmd.Position)
	case CommandAttack:
		if cmd.Attacker == nil || cmd.Target == nil {
			return nil, rules.Errorf(rules.ErrInvalidTarget, "attack needs an attacker and a defender")
		}
		return e.Attack(matchID, cmd.PlayerID, *cmd.Attacker, *cmd.Target)
	case CommandUseHeroPower:
		return e.UseHeroPower(matchID, cmd.PlayerID, cmd.Target)
	case CommandEndTurn:
		return e.EndTurn(matchID, cmd.PlayerID)
	case CommandConcede:
		return e.Concede(matchID, cmd.PlayerID)
	}
	return nil, rules.Errorf(rules.ErrInvalidTarget, "unknown command type %q", cmd.Type)
}

// MatchStatus reports the active player and whether the match is over.
func (e *BattleEngine) MatchStatus(matchID string) (string, bool, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq.ActivePlayer(), m.finished || m.aborted, nil
}

// EventLog returns a copy of the full ordered event log of a match.
func (e *BattleEngine) EventLog(matchID string) ([]rules.GameEvent, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rules.GameEvent(nil), m.log...), nil
}

// Subscribe attaches a listener to a match's event bus and returns its
// handle.
func (e *BattleEngine) Subscribe(matchID string, listener rules.Listener) (int, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return 0, err
	}
	return m.bus.Subscribe(listener), nil
}

// Unsubscribe removes a listener previously attached with Subscribe.
func (e *BattleEngine) Unsubscribe(matchID string, handle int) {
	if m, err := e.matchFor(matchID); err == nil {
		m.bus.Unsubscribe(handle)
	}
}

// RemoveMatch drops a match from the registry.
func (e *BattleEngine) RemoveMatch(matchID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.matches, matchID)
}

// MatchIDs lists hosted matches in sorted order.
func (e *BattleEngine) MatchIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.matches))
	for id := range e.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
