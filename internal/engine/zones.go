package engine

import (
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// createInstance mints a new card instance in the arena. Instance ids are
// monotonic per match, which keeps replays and tie-breaks deterministic.
func (m *matchState) createInstance(defID, owner string, zone rules.Zone) (*cardInstance, error) {
	def, ok := m.catalog.Lookup(defID)
	if !ok {
		return nil, rules.Errorf(rules.ErrUnknownCard, "unknown card %q", defID)
	}
	m.nextInstance++
	ci := &cardInstance{
		ID:         m.nextInstance,
		DefID:      def.ID,
		Owner:      owner,
		Zone:       zone,
		Durability: def.Durability,
	}
	m.cards[ci.ID] = ci
	return ci, nil
}

// zoneSlice returns the container backing a zone for one player. Weapon is
// not a slice zone; it is the single WeaponID slot on the hero.
func (p *playerState) zoneSlice(zone rules.Zone) *[]int {
	switch zone {
	case rules.ZoneDeck:
		return &p.Deck
	case rules.ZoneHand:
		return &p.Hand
	case rules.ZoneBattlefield:
		return &p.Battlefield
	case rules.ZoneGraveyard:
		return &p.Graveyard
	case rules.ZoneSecret:
		return &p.Secrets
	}
	return nil
}

func removeID(ids []int, id int) ([]int, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func insertID(ids []int, id, position int) []int {
	if position < 0 || position > len(ids) {
		position = len(ids)
	}
	ids = append(ids, 0)
	copy(ids[position+1:], ids[position:])
	ids[position] = id
	return ids
}

// moveCard relocates an instance between zones, enforcing capacity and
// emitting a CardMoved event. position applies to battlefield inserts; pass
// -1 to append. Zone membership is an invariant: an instance absent from its
// recorded zone's container is corrupt state.
func (m *matchState) moveCard(ci *cardInstance, to rules.Zone, position int) error {
	p, ok := m.players[ci.Owner]
	if !ok {
		return rules.Errorf(rules.ErrCorruptState, "instance %d owned by unknown player %q", ci.ID, ci.Owner)
	}

	if to == rules.ZoneBattlefield && len(p.Battlefield) >= MaxBoardMinions {
		return rules.Errorf(rules.ErrZoneFull, "battlefield is full")
	}
	if to == rules.ZoneHand && len(p.Hand) >= MaxHandSize {
		return rules.Errorf(rules.ErrZoneFull, "hand is full")
	}
	if to == rules.ZoneSecret && len(p.Secrets) >= MaxSecrets {
		return rules.Errorf(rules.ErrZoneFull, "secret zone is full")
	}

	from := ci.Zone
	if from != rules.ZoneWeapon && from != rules.ZoneNone {
		src := p.zoneSlice(from)
		if src == nil {
			return rules.Errorf(rules.ErrCorruptState, "instance %d in unmovable zone %s", ci.ID, from)
		}
		trimmed, found := removeID(*src, ci.ID)
		if !found {
			return rules.Errorf(rules.ErrCorruptState, "instance %d missing from zone %s", ci.ID, from)
		}
		*src = trimmed
	}

	switch to {
	case rules.ZoneWeapon:
		// caller manages the hero weapon slot
	default:
		dst := p.zoneSlice(to)
		if dst == nil {
			return rules.Errorf(rules.ErrCorruptState, "instance %d moved to unmovable zone %s", ci.ID, to)
		}
		*dst = insertID(*dst, ci.ID, position)
	}
	ci.Zone = to

	m.appendEvent(rules.GameEvent{
		Type:       rules.EventCardMoved,
		PlayerID:   ci.Owner,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
		From:       from,
		To:         to,
	})
	return nil
}

// drawCard pops the top of the deck into the hand. An empty deck deals
// escalating fatigue damage to the hero instead; a full hand burns the card
// to the graveyard.
func (m *matchState) drawCard(p *playerState) error {
	if len(p.Deck) == 0 {
		p.Fatigue++
		m.appendEvent(rules.GameEvent{
			Type:     rules.EventFatigueDamage,
			PlayerID: p.ID,
			Amount:   p.Fatigue,
		})
		m.damageHero(p, p.Fatigue)
		return nil
	}

	top := p.Deck[0]
	ci := m.cards[top]
	if ci == nil {
		return rules.Errorf(rules.ErrCorruptState, "deck references unknown instance %d", top)
	}

	if len(p.Hand) >= MaxHandSize {
		if err := m.moveCard(ci, rules.ZoneGraveyard, -1); err != nil {
			return err
		}
		m.appendEvent(rules.GameEvent{
			Type:       rules.EventCardBurned,
			PlayerID:   p.ID,
			InstanceID: ci.ID,
			CardID:     ci.DefID,
		})
		return nil
	}

	if err := m.moveCard(ci, rules.ZoneHand, -1); err != nil {
		return err
	}
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventCardDrawn,
		PlayerID:   p.ID,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
	})
	return nil
}

// destroyWeapon clears the hero weapon slot and buries the weapon instance.
func (m *matchState) destroyWeapon(p *playerState) error {
	if p.Hero.WeaponID == 0 {
		return nil
	}
	w := m.cards[p.Hero.WeaponID]
	p.Hero.WeaponID = 0
	if w == nil {
		return rules.Errorf(rules.ErrCorruptState, "weapon slot references unknown instance")
	}
	if err := m.moveCard(w, rules.ZoneGraveyard, -1); err != nil {
		return err
	}
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventWeaponDestroyed,
		PlayerID:   p.ID,
		InstanceID: w.ID,
		CardID:     w.DefID,
	})
	return nil
}

// equipWeapon replaces any current weapon with the given weapon instance.
func (m *matchState) equipWeapon(p *playerState, ci *cardInstance) error {
	if err := m.destroyWeapon(p); err != nil {
		return err
	}
	if err := m.moveCard(ci, rules.ZoneWeapon, -1); err != nil {
		return err
	}
	ci.Durability = m.def(ci).Durability
	p.Hero.WeaponID = ci.ID
	m.appendEvent(rules.GameEvent{
		Type:       rules.EventWeaponEquipped,
		PlayerID:   p.ID,
		InstanceID: ci.ID,
		CardID:     ci.DefID,
		Amount:     ci.Durability,
	})
	return nil
}
