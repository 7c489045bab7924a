// Package catalog holds the static card definition table. The engine consumes
// a Catalog as read-only input at match construction and never mutates it.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CardType distinguishes the playable card categories.
type CardType string

const (
	TypeMinion    CardType = "MINION"
	TypeSpell     CardType = "SPELL"
	TypeWeapon    CardType = "WEAPON"
	TypeHeroPower CardType = "HERO_POWER"
)

// Rarity is cosmetic metadata carried through to views.
type Rarity string

const (
	RarityFree      Rarity = "FREE"
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Class restricts which hero may include a card in its deck.
type Class string

const (
	ClassNeutral Class = "NEUTRAL"
	ClassMage    Class = "MAGE"
	ClassWarrior Class = "WARRIOR"
	ClassPriest  Class = "PRIEST"
	ClassHunter  Class = "HUNTER"
	ClassPaladin Class = "PALADIN"
	ClassWarlock Class = "WARLOCK"
)

// Keyword is a static combat mechanic granted by a definition or enchantment.
type Keyword string

const (
	KeywordTaunt        Keyword = "TAUNT"
	KeywordDivineShield Keyword = "DIVINE_SHIELD"
	KeywordStealth      Keyword = "STEALTH"
	KeywordWindfury     Keyword = "WINDFURY"
	KeywordPoisonous    Keyword = "POISONOUS"
	KeywordLifesteal    Keyword = "LIFESTEAL"
	KeywordCharge       Keyword = "CHARGE"
)

// Trigger keys effect scripts to the moment they fire.
type Trigger string

const (
	TriggerBattlecry   Trigger = "BATTLECRY"
	TriggerDeathrattle Trigger = "DEATHRATTLE"
	TriggerCast        Trigger = "CAST"
	TriggerStartOfTurn Trigger = "START_OF_TURN"
	TriggerEndOfTurn   Trigger = "END_OF_TURN"
)

// ScriptKind is the closed set of effect behaviours. The resolver dispatches
// exhaustively over this set; an unknown kind is rejected at catalog load, not
// at resolution time.
type ScriptKind string

const (
	ScriptDealDamage    ScriptKind = "DEAL_DAMAGE"
	ScriptRestoreHealth ScriptKind = "RESTORE_HEALTH"
	ScriptDrawCards     ScriptKind = "DRAW_CARDS"
	ScriptGainArmor     ScriptKind = "GAIN_ARMOR"
	ScriptBuffStats     ScriptKind = "BUFF_STATS"
	ScriptSummonMinion  ScriptKind = "SUMMON_MINION"
	ScriptSilence       ScriptKind = "SILENCE"
	ScriptFreeze        ScriptKind = "FREEZE"
	ScriptDestroyWeapon ScriptKind = "DESTROY_WEAPON"
	ScriptGiveKeyword   ScriptKind = "GIVE_KEYWORD"
)

// TargetSelector names who a script applies to. SelectorChosen requires the
// caller to supply a target at command time; SelectorTrigger resolves to the
// entity that tripped a secret.
type TargetSelector string

const (
	SelectorChosen             TargetSelector = "CHOSEN"
	SelectorOwnHero            TargetSelector = "OWN_HERO"
	SelectorEnemyHero          TargetSelector = "ENEMY_HERO"
	SelectorAllMinions         TargetSelector = "ALL_MINIONS"
	SelectorAllEnemyMinions    TargetSelector = "ALL_ENEMY_MINIONS"
	SelectorAllFriendlyMinions TargetSelector = "ALL_FRIENDLY_MINIONS"
	SelectorTrigger            TargetSelector = "TRIGGER"
)

// Duration scopes a stat modification.
type Duration string

const (
	DurationPermanent Duration = "PERMANENT"
	DurationEndOfTurn Duration = "END_OF_TURN"
)

// AuraScope names which minions an ongoing aura reaches.
type AuraScope string

const (
	AuraOtherFriendlyMinions AuraScope = "OTHER_FRIENDLY_MINIONS"
	AuraAdjacentMinions      AuraScope = "ADJACENT_MINIONS"
)

// SecretTrigger is the condition that reveals a face-down secret.
type SecretTrigger string

const (
	SecretEnemyAttacks     SecretTrigger = "ENEMY_ATTACKS"
	SecretEnemyPlaysMinion SecretTrigger = "ENEMY_PLAYS_MINION"
	SecretEnemyCastsSpell  SecretTrigger = "ENEMY_CASTS_SPELL"
)

// Script is one tagged effect variant. Only the fields relevant to Kind are
// populated; unused fields stay zero.
type Script struct {
	Kind     ScriptKind     `json:"kind"`
	Target   TargetSelector `json:"target,omitempty"`
	Amount   int            `json:"amount,omitempty"`
	Attack   int            `json:"attack,omitempty"`
	Health   int            `json:"health,omitempty"`
	Keyword  Keyword        `json:"keyword,omitempty"`
	CardID   string         `json:"card_id,omitempty"`
	Count    int            `json:"count,omitempty"`
	Duration Duration       `json:"duration,omitempty"`
}

// RequiresTarget reports whether the caller must name a target for this script.
func (s Script) RequiresTarget() bool {
	return s.Target == SelectorChosen
}

// Aura is an ongoing stat modifier recomputed while its source is in play.
type Aura struct {
	Scope  AuraScope `json:"scope"`
	Attack int       `json:"attack,omitempty"`
	Health int       `json:"health,omitempty"`
}

// Definition is the immutable description of one card.
type Definition struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Cost        int                 `json:"cost"`
	Type        CardType            `json:"type"`
	Attack      int                 `json:"attack,omitempty"`
	Health      int                 `json:"health,omitempty"`
	Durability  int                 `json:"durability,omitempty"`
	Rarity      Rarity              `json:"rarity,omitempty"`
	Class       Class               `json:"class"`
	Keywords    []Keyword           `json:"keywords,omitempty"`
	SpellDamage int                 `json:"spell_damage,omitempty"`
	Scripts     map[Trigger][]Script `json:"scripts,omitempty"`
	Aura        *Aura               `json:"aura,omitempty"`
	Secret      SecretTrigger       `json:"secret_trigger,omitempty"`
	Token       bool                `json:"token,omitempty"`
}

// HasKeyword reports whether the definition carries the keyword.
func (d *Definition) HasKeyword(k Keyword) bool {
	for _, kw := range d.Keywords {
		if kw == k {
			return true
		}
	}
	return false
}

// IsSecret reports whether playing this spell arms a secret instead of
// resolving immediately.
func (d *Definition) IsSecret() bool {
	return d.Type == TypeSpell && d.Secret != ""
}

// Catalog is an immutable lookup from card identifier to definition.
type Catalog struct {
	defs       map[string]*Definition
	heroPowers map[Class]*Definition
}

// New validates the definitions and builds a catalog. Hero powers are keyed
// by class; each class may carry at most one.
func New(defs []*Definition) (*Catalog, error) {
	c := &Catalog{
		defs:       make(map[string]*Definition, len(defs)),
		heroPowers: make(map[Class]*Definition),
	}
	for _, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("card %q: %w", def.ID, err)
		}
		if _, exists := c.defs[def.ID]; exists {
			return nil, fmt.Errorf("duplicate card id %q", def.ID)
		}
		c.defs[def.ID] = def
		if def.Type == TypeHeroPower {
			if _, exists := c.heroPowers[def.Class]; exists {
				return nil, fmt.Errorf("class %s has more than one hero power", def.Class)
			}
			c.heroPowers[def.Class] = def
		}
	}
	// Summon scripts must reference cards that exist.
	for _, def := range c.defs {
		for trigger, scripts := range def.Scripts {
			for _, script := range scripts {
				if script.Kind != ScriptSummonMinion {
					continue
				}
				summoned, ok := c.defs[script.CardID]
				if !ok {
					return nil, fmt.Errorf("card %q: %s summons unknown card %q", def.ID, trigger, script.CardID)
				}
				if summoned.Type != TypeMinion {
					return nil, fmt.Errorf("card %q: %s summons non-minion %q", def.ID, trigger, script.CardID)
				}
			}
		}
	}
	return c, nil
}

// Lookup returns the definition for a card identifier.
func (c *Catalog) Lookup(id string) (*Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

// HeroPower returns the hero power definition configured for a class.
func (c *Catalog) HeroPower(class Class) (*Definition, bool) {
	def, ok := c.heroPowers[class]
	return def, ok
}

// Size returns the number of definitions in the catalog.
func (c *Catalog) Size() int {
	return len(c.defs)
}

// Definitions returns every definition sorted by id.
func (c *Catalog) Definitions() []*Definition {
	defs := make([]*Definition, 0, len(c.defs))
	for _, def := range c.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Parse decodes a JSON array of definitions and builds a catalog.
func Parse(data []byte) (*Catalog, error) {
	var defs []*Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to decode card definitions: %w", err)
	}
	return New(defs)
}

var validKinds = map[ScriptKind]bool{
	ScriptDealDamage:    true,
	ScriptRestoreHealth: true,
	ScriptDrawCards:     true,
	ScriptGainArmor:     true,
	ScriptBuffStats:     true,
	ScriptSummonMinion:  true,
	ScriptSilence:       true,
	ScriptFreeze:        true,
	ScriptDestroyWeapon: true,
	ScriptGiveKeyword:   true,
}

var validSelectors = map[TargetSelector]bool{
	"":                         true,
	SelectorChosen:             true,
	SelectorOwnHero:            true,
	SelectorEnemyHero:          true,
	SelectorAllMinions:         true,
	SelectorAllEnemyMinions:    true,
	SelectorAllFriendlyMinions: true,
	SelectorTrigger:            true,
}

var validTriggers = map[Trigger]bool{
	TriggerBattlecry:   true,
	TriggerDeathrattle: true,
	TriggerCast:        true,
	TriggerStartOfTurn: true,
	TriggerEndOfTurn:   true,
}

var validSecretTriggers = map[SecretTrigger]bool{
	SecretEnemyAttacks:     true,
	SecretEnemyPlaysMinion: true,
	SecretEnemyCastsSpell:  true,
}

var validKeywords = map[Keyword]bool{
	KeywordTaunt:        true,
	KeywordDivineShield: true,
	KeywordStealth:      true,
	KeywordWindfury:     true,
	KeywordPoisonous:    true,
	KeywordLifesteal:    true,
	KeywordCharge:       true,
}

func validateDefinition(def *Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("missing id")
	}
	switch def.Type {
	case TypeMinion, TypeSpell, TypeWeapon, TypeHeroPower:
	default:
		return fmt.Errorf("unknown card type %q", def.Type)
	}
	if def.Cost < 0 {
		return fmt.Errorf("negative cost %d", def.Cost)
	}
	if def.Type == TypeMinion && def.Health <= 0 {
		return fmt.Errorf("minion health must be positive, got %d", def.Health)
	}
	if def.Type == TypeWeapon && def.Durability <= 0 {
		return fmt.Errorf("weapon durability must be positive, got %d", def.Durability)
	}
	if def.Secret != "" {
		if def.Type != TypeSpell {
			return fmt.Errorf("secret trigger on non-spell")
		}
		if !validSecretTriggers[def.Secret] {
			return fmt.Errorf("unknown secret trigger %q", def.Secret)
		}
	}
	for _, kw := range def.Keywords {
		if !validKeywords[kw] {
			return fmt.Errorf("unknown keyword %q", kw)
		}
	}
	if def.Aura != nil {
		if def.Type != TypeMinion {
			return fmt.Errorf("aura on non-minion")
		}
		switch def.Aura.Scope {
		case AuraOtherFriendlyMinions, AuraAdjacentMinions:
		default:
			return fmt.Errorf("unknown aura scope %q", def.Aura.Scope)
		}
	}
	for trigger, scripts := range def.Scripts {
		if !validTriggers[trigger] {
			return fmt.Errorf("unknown trigger %q", trigger)
		}
		for i, script := range scripts {
			if err := validateScript(script); err != nil {
				return fmt.Errorf("%s script %d: %w", trigger, i, err)
			}
		}
	}
	return nil
}

func validateScript(s Script) error {
	if !validKinds[s.Kind] {
		return fmt.Errorf("unknown script kind %q", s.Kind)
	}
	if !validSelectors[s.Target] {
		return fmt.Errorf("unknown target selector %q", s.Target)
	}
	switch s.Kind {
	case ScriptDealDamage, ScriptRestoreHealth:
		if s.Amount <= 0 {
			return fmt.Errorf("%s requires a positive amount", s.Kind)
		}
	case ScriptDrawCards, ScriptGainArmor:
		if s.Amount <= 0 {
			return fmt.Errorf("%s requires a positive amount", s.Kind)
		}
	case ScriptBuffStats:
		if s.Attack == 0 && s.Health == 0 {
			return fmt.Errorf("BUFF_STATS with no deltas")
		}
		if s.Duration != "" && s.Duration != DurationPermanent && s.Duration != DurationEndOfTurn {
			return fmt.Errorf("unknown duration %q", s.Duration)
		}
	case ScriptSummonMinion:
		if s.CardID == "" {
			return fmt.Errorf("SUMMON_MINION requires a card id")
		}
		if s.Count < 1 {
			return fmt.Errorf("SUMMON_MINION requires count >= 1")
		}
	case ScriptGiveKeyword:
		if !validKeywords[s.Keyword] {
			return fmt.Errorf("GIVE_KEYWORD with unknown keyword %q", s.Keyword)
		}
	}
	return nil
}
