package rules

import (
	"fmt"
	"sync"
)

// Zone identifies the container a card instance currently occupies. Every
// instance is in exactly one zone at all times; moving transfers ownership.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneDeck
	ZoneHand
	ZoneBattlefield
	ZoneGraveyard
	ZoneSecret
	ZoneWeapon
)

var zoneNames = map[Zone]string{
	ZoneNone:        "NONE",
	ZoneDeck:        "DECK",
	ZoneHand:        "HAND",
	ZoneBattlefield: "BATTLEFIELD",
	ZoneGraveyard:   "GRAVEYARD",
	ZoneSecret:      "SECRET",
	ZoneWeapon:      "WEAPON",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// EventType indicates the category of a game event.
type EventType string

const (
	EventMatchStarted       EventType = "MATCH_STARTED"
	EventTurnStarted        EventType = "TURN_STARTED"
	EventTurnEnded          EventType = "TURN_ENDED"
	EventManaGained         EventType = "MANA_GAINED"
	EventManaSpent          EventType = "MANA_SPENT"
	EventCardDrawn          EventType = "CARD_DRAWN"
	EventCardBurned         EventType = "CARD_BURNED"
	EventFatigueDamage      EventType = "FATIGUE_DAMAGE"
	EventCardMoved          EventType = "CARD_MOVED"
	EventCardPlayed         EventType = "CARD_PLAYED"
	EventMinionSummoned     EventType = "MINION_SUMMONED"
	EventDamageDealt        EventType = "DAMAGE_DEALT"
	EventShieldBroken       EventType = "SHIELD_BROKEN"
	EventHealingDone        EventType = "HEALING_DONE"
	EventArmorGained        EventType = "ARMOR_GAINED"
	EventMinionDied         EventType = "MINION_DIED"
	EventWeaponEquipped     EventType = "WEAPON_EQUIPPED"
	EventWeaponDestroyed    EventType = "WEAPON_DESTROYED"
	EventSecretPlayed       EventType = "SECRET_PLAYED"
	EventSecretRevealed     EventType = "SECRET_REVEALED"
	EventEnchantmentApplied EventType = "ENCHANTMENT_APPLIED"
	EventEnchantmentExpired EventType = "ENCHANTMENT_EXPIRED"
	EventSilenced           EventType = "SILENCED"
	EventFrozen             EventType = "FROZEN"
	EventUnfrozen           EventType = "UNFROZEN"
	EventHeroPowerUsed      EventType = "HERO_POWER_USED"
	EventAttackDeclared     EventType = "ATTACK_DECLARED"
	EventAttackResolved     EventType = "ATTACK_RESOLVED"
	EventConceded           EventType = "CONCEDED"
	EventMatchEnded         EventType = "MATCH_ENDED"
)

// GameEvent describes one state change. The append-only event log is the only
// channel through which callers learn what a command did; the engine never
// calls back into presentation code.
type GameEvent struct {
	Seq        int       `json:"seq"`
	Type       EventType `json:"type"`
	Turn       int       `json:"turn"`
	PlayerID   string    `json:"player_id,omitempty"`
	InstanceID int       `json:"instance_id,omitempty"`
	TargetID   int       `json:"target_id,omitempty"`
	TargetHero bool      `json:"target_hero,omitempty"`
	CardID     string    `json:"card_id,omitempty"`
	From       Zone      `json:"from,omitempty"`
	To         Zone      `json:"to,omitempty"`
	Amount     int       `json:"amount,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Listener defines a callback that reacts to published game events.
type Listener func(GameEvent)

// EventBus provides a synchronous publish/subscribe implementation. The
// hosting layer subscribes to forward events to clients; the engine itself
// only publishes.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []GameEvent) {
	for _, event := range events {
		bus.Publish(event)
	}
}
