package engine

import (
	"sync"
	"time"

	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/effects"
	"github.com/cardclash/battle-server-go/internal/engine/mana"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

const (
	// StartingHealth is a hero's initial health.
	StartingHealth = 30
	// MaxHandSize is the hand capacity; draws past it burn the card.
	MaxHandSize = 10
	// MaxBoardMinions caps each player's battlefield.
	MaxBoardMinions = 7
	// MaxSecrets caps the face-down secret zone.
	MaxSecrets = 5

	firstPlayerOpeningHand  = 3
	secondPlayerOpeningHand = 4
)

// cardInstance is a unique, mutable occurrence of a card definition within a
// match. Instances live in a flat arena keyed by id; zones and enchantments
// reference them by id only, so cleanup is index removal rather than graph
// traversal.
type cardInstance struct {
	ID    int
	DefID string
	Owner string
	Zone  rules.Zone

	Damage     int // health model: current health = max health - damage
	Durability int // weapons only

	SummoningSick bool
	Frozen        bool
	Silenced      bool
	ShieldSpent   bool
	StealthLost   bool
	PoisonDoomed  bool // marked by poisonous damage, consumed by death processing

	AttacksThisTurn int
	Enchantments    []effects.Enchantment

	deathOrder int // transient ordering for deathrattle resolution
}

// heroState is the hero portion of a player: never changes zones, fights with
// a weapon, stacks armor under health.
type heroState struct {
	Health          int
	Armor           int
	Frozen          bool
	AttacksThisTurn int
	WeaponID        int // instance id, 0 when unarmed
}

// playerState owns one side of the match. Zone containers hold instance ids;
// the instances themselves live in the match arena.
type playerState struct {
	ID    string
	Class catalog.Class
	Hero  heroState

	Deck        []int // ordered, index 0 is the top
	Hand        []int // ordered, max 10
	Battlefield []int // ordered left-to-right, max 7
	Graveyard   []int
	Secrets     []int // play order, max 5

	Ledger  *mana.Ledger
	Fatigue int
}

// secretContext records one condition that may reveal face-down secrets,
// queued during a command and consumed at the end of its resolution.
type secretContext struct {
	Trigger  catalog.SecretTrigger
	Owner    string // the secret holder, i.e. the opponent of the acting player
	Instance int    // the entity that tripped the trigger (0 for heroes/none)
	HeroRef  string // acting player's hero when the trigger came from a hero
}

// matchState is the full authoritative state of one match. Exactly one
// command mutates it at a time; the mutex is a safety net for hosting layers
// that fail to serialize, not a concurrency feature of the engine.
type matchState struct {
	mu sync.Mutex

	matchID string
	setup   MatchSetup
	catalog *catalog.Catalog

	order   [2]string
	players map[string]*playerState
	cards   map[int]*cardInstance

	nextInstance int
	deathSeq     int

	seq       *rules.PhaseSequencer
	auras     *effects.AuraSystem
	validator *targeting.Validator
	bus       *rules.EventBus

	log            []rules.GameEvent
	commands       []Command
	pendingSecrets []secretContext

	finished bool
	winner   string
	draw     bool
	aborted  bool

	startedAt time.Time
}

func (m *matchState) player(id string) (*playerState, bool) {
	p, ok := m.players[id]
	return p, ok
}

func (m *matchState) opponentOf(id string) string {
	if m.order[0] == id {
		return m.order[1]
	}
	return m.order[0]
}

// def resolves an instance's definition. The catalog is validated at match
// start, so a miss here is state corruption.
func (m *matchState) def(ci *cardInstance) *catalog.Definition {
	d, ok := m.catalog.Lookup(ci.DefID)
	if !ok {
		panic(rules.Errorf(rules.ErrCorruptState, "instance %d references unknown card %q", ci.ID, ci.DefID))
	}
	return d
}

// hasKeyword computes an instance's effective keyword set: silence strips the
// printed keywords but enchantment-granted ones survive until they expire.
func (m *matchState) hasKeyword(ci *cardInstance, k catalog.Keyword) bool {
	if !ci.Silenced && m.def(ci).HasKeyword(k) {
		return true
	}
	return effects.GrantsKeyword(ci.Enchantments, k)
}

// stealthActive reports whether the minion is currently hidden. Attacking
// breaks stealth for the rest of the match.
func (m *matchState) stealthActive(ci *cardInstance) bool {
	return !ci.StealthLost && m.hasKeyword(ci, catalog.KeywordStealth)
}

// shieldActive reports whether a divine shield is still up.
func (m *matchState) shieldActive(ci *cardInstance) bool {
	return !ci.ShieldSpent && m.hasKeyword(ci, catalog.KeywordDivineShield)
}

func (m *matchState) attackOf(ci *cardInstance) int {
	attack := m.def(ci).Attack + effects.AttackDelta(ci.Enchantments)
	if attack < 0 {
		return 0
	}
	return attack
}

func (m *matchState) maxHealthOf(ci *cardInstance) int {
	return m.def(ci).Health + effects.HealthDelta(ci.Enchantments)
}

func (m *matchState) healthOf(ci *cardInstance) int {
	return m.maxHealthOf(ci) - ci.Damage
}

// attacksAllowed is 1, or 2 with windfury (minions only; heroes always 1).
func (m *matchState) attacksAllowed(ci *cardInstance) int {
	if m.hasKeyword(ci, catalog.KeywordWindfury) {
		return 2
	}
	return 1
}

// spellDamageBonus sums the spell damage projected by a player's battlefield.
func (m *matchState) spellDamageBonus(playerID string) int {
	p, ok := m.players[playerID]
	if !ok {
		return 0
	}
	bonus := 0
	for _, id := range p.Battlefield {
		ci := m.cards[id]
		if ci == nil || ci.Silenced {
			continue
		}
		bonus += m.def(ci).SpellDamage
	}
	return bonus
}

// heroAttackValue is the hero's attack for the current turn (weapon only in
// this set; heroes have no printed attack).
func (m *matchState) heroAttackValue(p *playerState) int {
	if p.Hero.WeaponID == 0 {
		return 0
	}
	w := m.cards[p.Hero.WeaponID]
	if w == nil {
		return 0
	}
	return m.def(w).Attack
}

// appendEvent stamps sequence and turn numbers, appends to the match log, and
// publishes on the match bus.
func (m *matchState) appendEvent(ev rules.GameEvent) {
	ev.Seq = len(m.log)
	ev.Turn = m.seq.TurnNumber()
	m.log = append(m.log, ev)
	m.bus.Publish(ev)
}

// targeting.Accessor implementation.

// MinionInfo reports effective targeting state for one instance.
func (m *matchState) MinionInfo(instance int) (targeting.Minion, bool) {
	ci, ok := m.cards[instance]
	if !ok {
		return targeting.Minion{}, false
	}
	return targeting.Minion{
		ID:            ci.ID,
		Owner:         ci.Owner,
		OnBattlefield: ci.Zone == rules.ZoneBattlefield,
		Taunt:         !m.stealthActive(ci) && m.hasKeyword(ci, catalog.KeywordTaunt),
		Stealth:       m.stealthActive(ci),
	}, true
}

// Opponent returns the other seat.
func (m *matchState) Opponent(playerID string) string {
	return m.opponentOf(playerID)
}

// TauntsFor lists a player's battlefield minions currently projecting taunt.
func (m *matchState) TauntsFor(playerID string) []int {
	p, ok := m.players[playerID]
	if !ok {
		return nil
	}
	var taunts []int
	for _, id := range p.Battlefield {
		ci := m.cards[id]
		if ci == nil {
			continue
		}
		if m.stealthActive(ci) {
			continue
		}
		if m.hasKeyword(ci, catalog.KeywordTaunt) {
			taunts = append(taunts, id)
		}
	}
	return taunts
}

// battlefieldMinions flattens both boards into targeting inputs, acting
// player's board first.
func (m *matchState) battlefieldMinions(first string) []targeting.Minion {
	var out []targeting.Minion
	for _, pid := range []string{first, m.opponentOf(first)} {
		p := m.players[pid]
		for _, id := range p.Battlefield {
			if info, ok := m.MinionInfo(id); ok {
				out = append(out, info)
			}
		}
	}
	return out
}
