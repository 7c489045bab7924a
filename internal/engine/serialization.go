package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"sort"
	"strings"
)

// EnchantmentSnapshot captures one enchantment for persistence.
type EnchantmentSnapshot struct {
	ID             string
	Source         int
	Attack         int
	Health         int
	Keyword        string
	UntilEndOfTurn bool
	FromAura       bool
}

// CardSnapshot captures one card instance for persistence.
type CardSnapshot struct {
	ID              int
	CardID          string
	Owner           string
	Zone            int
	Damage          int
	Durability      int
	SummoningSick   bool
	Frozen          bool
	Silenced        bool
	ShieldSpent     bool
	StealthLost     bool
	AttacksThisTurn int
	Enchantments    []EnchantmentSnapshot
}

// PlayerSnapshot captures one seat for persistence. Zone containers hold
// instance ids in order.
type PlayerSnapshot struct {
	ID              string
	Class           string
	Health          int
	Armor           int
	Frozen          bool
	WeaponID        int
	AttacksThisTurn int
	Mana            int
	ManaMax         int
	HeroPowerUsed   bool
	Fatigue         int
	Deck            []int
	Hand            []int
	Battlefield     []int
	Graveyard       []int
	Secrets         []int
}

// Snapshot is the complete serializable state of a match. Players follow
// seating order and cards ascend by instance id, so two snapshots of equal
// state are byte-for-byte identical.
type Snapshot struct {
	MatchID      string
	Turn         int
	Phase        string
	ActivePlayer string
	Finished     bool
	Winner       string
	Draw         bool
	NextInstance int
	EventCount   int
	Players      []PlayerSnapshot
	Cards        []CardSnapshot
}

// SnapshotMatch captures the current state of a hosted match.
func (e *BattleEngine) SnapshotMatch(matchID string) (*Snapshot, error) {
	m, err := e.matchFor(matchID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(), nil
}

func (m *matchState) snapshot() *Snapshot {
	snap := &Snapshot{
		MatchID:      m.matchID,
		Turn:         m.seq.TurnNumber(),
		Phase:        m.seq.CurrentPhase().String(),
		ActivePlayer: m.seq.ActivePlayer(),
		Finished:     m.finished,
		Winner:       m.winner,
		Draw:         m.draw,
		NextInstance: m.nextInstance,
		EventCount:   len(m.log),
	}
	for _, pid := range m.order {
		p := m.players[pid]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:              p.ID,
			Class:           string(p.Class),
			Health:          p.Hero.Health,
			Armor:           p.Hero.Armor,
			Frozen:          p.Hero.Frozen,
			WeaponID:        p.Hero.WeaponID,
			AttacksThisTurn: p.Hero.AttacksThisTurn,
			Mana:            p.Ledger.Current(),
			ManaMax:         p.Ledger.Max(),
			HeroPowerUsed:   p.Ledger.HeroPowerUsed(),
			Fatigue:         p.Fatigue,
			Deck:            append([]int(nil), p.Deck...),
			Hand:            append([]int(nil), p.Hand...),
			Battlefield:     append([]int(nil), p.Battlefield...),
			Graveyard:       append([]int(nil), p.Graveyard...),
			Secrets:         append([]int(nil), p.Secrets...),
		})
	}

	ids := make([]int, 0, len(m.cards))
	for id := range m.cards {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		ci := m.cards[id]
		cs := CardSnapshot{
			ID:              ci.ID,
			CardID:          ci.DefID,
			Owner:           ci.Owner,
			Zone:            int(ci.Zone),
			Damage:          ci.Damage,
			Durability:      ci.Durability,
			SummoningSick:   ci.SummoningSick,
			Frozen:          ci.Frozen,
			Silenced:        ci.Silenced,
			ShieldSpent:     ci.ShieldSpent,
			StealthLost:     ci.StealthLost,
			AttacksThisTurn: ci.AttacksThisTurn,
		}
		for _, ench := range ci.Enchantments {
			cs.Enchantments = append(cs.Enchantments, EnchantmentSnapshot{
				ID:             ench.ID,
				Source:         ench.Source,
				Attack:         ench.Attack,
				Health:         ench.Health,
				Keyword:        string(ench.Keyword),
				UntilEndOfTurn: ench.UntilEndOfTurn,
				FromAura:       ench.FromAura,
			})
		}
		snap.Cards = append(snap.Cards, cs)
	}
	return snap
}

// Checksum is a sha256 over the snapshot's canonical text form. Equal match
// states always hash equal; the event count is excluded so a restored match
// with a trimmed log still verifies.
func (s *Snapshot) Checksum() string {
	var b strings.Builder
	fmt.Fprintf(&b, "match:%s|turn:%d|phase:%s|active:%s|finished:%t|winner:%s|draw:%t|next:%d\n",
		s.MatchID, s.Turn, s.Phase, s.ActivePlayer, s.Finished, s.Winner, s.Draw, s.NextInstance)
	for _, p := range s.Players {
		fmt.Fprintf(&b, "player:%s|class:%s|hp:%d|armor:%d|frozen:%t|weapon:%d|attacks:%d|mana:%d/%d|power:%t|fatigue:%d\n",
			p.ID, p.Class, p.Health, p.Armor, p.Frozen, p.WeaponID, p.AttacksThisTurn,
			p.Mana, p.ManaMax, p.HeroPowerUsed, p.Fatigue)
		fmt.Fprintf(&b, "zones:%v|%v|%v|%v|%v\n", p.Deck, p.Hand, p.Battlefield, p.Graveyard, p.Secrets)
	}
	for _, c := range s.Cards {
		fmt.Fprintf(&b, "card:%d|%s|%s|zone:%d|dmg:%d|dur:%d|flags:%t%t%t%t%t|attacks:%d\n",
			c.ID, c.CardID, c.Owner, c.Zone, c.Damage, c.Durability,
			c.SummoningSick, c.Frozen, c.Silenced, c.ShieldSpent, c.StealthLost,
			c.AttacksThisTurn)
		// Enchantment ids are identity handles, not state: two runs of the
		// same match mint different ids for equal enchantments, so the
		// checksum compares structure only.
		for _, ench := range c.Enchantments {
			fmt.Fprintf(&b, "ench:src:%d|%+d/%+d|kw:%s|eot:%t|aura:%t\n",
				ench.Source, ench.Attack, ench.Health, ench.Keyword,
				ench.UntilEndOfTurn, ench.FromAura)
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a snapshot produced by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
