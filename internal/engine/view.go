package engine

import (
	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/cardclash/battle-server-go/internal/engine/rules"
	"github.com/cardclash/battle-server-go/internal/engine/targeting"
)

// CardView is the client-facing projection of a card instance with all
// enchantments and keyword state folded in.
type CardView struct {
	InstanceID    int               `json:"instance_id"`
	CardID        string            `json:"card_id"`
	Name          string            `json:"name"`
	Cost          int               `json:"cost"`
	Attack        int               `json:"attack"`
	Health        int               `json:"health"`
	MaxHealth     int               `json:"max_health"`
	Durability    int               `json:"durability,omitempty"`
	Keywords      []catalog.Keyword `json:"keywords,omitempty"`
	Frozen        bool              `json:"frozen,omitempty"`
	Silenced      bool              `json:"silenced,omitempty"`
	SummoningSick bool              `json:"summoning_sick,omitempty"`
	CanAttack     bool              `json:"can_attack,omitempty"`
}

// PlayerView is one seat as seen by the viewer. Hand contents are only
// populated for the viewer's own seat; the opponent sees counts.
type PlayerView struct {
	PlayerID           string        `json:"player_id"`
	Class              catalog.Class `json:"class"`
	Health             int           `json:"health"`
	Armor              int           `json:"armor"`
	Frozen             bool          `json:"frozen,omitempty"`
	WeaponAttack       int           `json:"weapon_attack,omitempty"`
	WeaponDurability   int           `json:"weapon_durability,omitempty"`
	Mana               int           `json:"mana"`
	ManaMax            int           `json:"mana_max"`
	HeroPowerAvailable bool          `json:"hero_power_available"`
	Fatigue            int           `json:"fatigue,omitempty"`
	DeckCount          int           `json:"deck_count"`
	HandCount          int           `json:"hand_count"`
	SecretCount        int           `json:"secret_count"`
	Hand               []CardView    `json:"hand,omitempty"`
	Battlefield        []CardView    `json:"battlefield"`
}

// MatchView is a redacted snapshot of a match for one viewer.
type MatchView struct {
	MatchID      string     `json:"match_id"`
	Turn         int        `json:"turn"`
	Phase        string     `json:"phase"`
	ActivePlayer string     `json:"active_player"`
	Finished     bool       `json:"finished"`
	Winner       string     `json:"winner,omitempty"`
	Draw         bool       `json:"draw,omitempty"`
	You          PlayerView `json:"you"`
	Opponent     PlayerView `json:"opponent"`
}

// View builds the match view for one player, hiding the opponent's hand,
// deck order and armed secrets.
func (e *BattleEngine) View(matchID, viewerID string) (*MatchView, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	viewer, ok := m.player(viewerID)
	if !ok {
		return nil, rules.Errorf(rules.ErrInvalidTarget, "player %q is not in this match", viewerID)
	}
	opp := m.players[m.opponentOf(viewerID)]

	return &MatchView{
		MatchID:      m.matchID,
		Turn:         m.seq.TurnNumber(),
		Phase:        m.seq.CurrentPhase().String(),
		ActivePlayer: m.seq.ActivePlayer(),
		Finished:     m.finished,
		Winner:       m.winner,
		Draw:         m.draw,
		You:          m.playerView(viewer, true),
		Opponent:     m.playerView(opp, false),
	}, nil
}

func (m *matchState) playerView(p *playerState, self bool) PlayerView {
	pv := PlayerView{
		PlayerID:           p.ID,
		Class:              p.Class,
		Health:             p.Hero.Health,
		Armor:              p.Hero.Armor,
		Frozen:             p.Hero.Frozen,
		Mana:               p.Ledger.Current(),
		ManaMax:            p.Ledger.Max(),
		HeroPowerAvailable: p.Ledger.HeroPowerAvailable(),
		Fatigue:            p.Fatigue,
		DeckCount:          len(p.Deck),
		HandCount:          len(p.Hand),
		SecretCount:        len(p.Secrets),
	}
	if p.Hero.WeaponID != 0 {
		if w := m.cards[p.Hero.WeaponID]; w != nil {
			pv.WeaponAttack = m.def(w).Attack
			pv.WeaponDurability = w.Durability
		}
	}
	if self {
		for _, id := range p.Hand {
			pv.Hand = append(pv.Hand, m.cardView(m.cards[id]))
		}
	}
	for _, id := range p.Battlefield {
		pv.Battlefield = append(pv.Battlefield, m.cardView(m.cards[id]))
	}
	return pv
}

func (m *matchState) cardView(ci *cardInstance) CardView {
	def := m.def(ci)
	cv := CardView{
		InstanceID:    ci.ID,
		CardID:        ci.DefID,
		Name:          def.Name,
		Cost:          def.Cost,
		Attack:        m.attackOf(ci),
		Health:        m.healthOf(ci),
		MaxHealth:     m.maxHealthOf(ci),
		Durability:    ci.Durability,
		Frozen:        ci.Frozen,
		Silenced:      ci.Silenced,
		SummoningSick: ci.SummoningSick,
	}
	for _, k := range []catalog.Keyword{
		catalog.KeywordTaunt,
		catalog.KeywordDivineShield,
		catalog.KeywordStealth,
		catalog.KeywordWindfury,
		catalog.KeywordPoisonous,
		catalog.KeywordLifesteal,
		catalog.KeywordCharge,
	} {
		if k == catalog.KeywordDivineShield && !m.shieldActive(ci) {
			continue
		}
		if k == catalog.KeywordStealth && !m.stealthActive(ci) {
			continue
		}
		if m.hasKeyword(ci, k) {
			cv.Keywords = append(cv.Keywords, k)
		}
	}
	if ci.Zone == rules.ZoneBattlefield {
		cv.CanAttack = m.validateAttacker(m.players[ci.Owner], targeting.MinionRef(ci.ID)) == nil
	}
	return cv
}
