package rules

import "testing"

func TestEventBusPublish(t *testing.T) {
	bus := NewEventBus()

	var received []GameEvent
	handle := bus.Subscribe(func(ev GameEvent) {
		received = append(received, ev)
	})
	if handle < 0 {
		t.Fatalf("subscribe returned invalid handle %d", handle)
	}

	bus.Publish(GameEvent{Type: EventTurnStarted, PlayerID: "alice"})
	bus.Publish(GameEvent{Type: EventCardDrawn, PlayerID: "alice"})

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != EventTurnStarted || received[1].Type != EventCardDrawn {
		t.Errorf("events delivered out of order: %v", received)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	count := 0
	handle := bus.Subscribe(func(GameEvent) { count++ })
	bus.Publish(GameEvent{Type: EventTurnStarted})
	bus.Unsubscribe(handle)
	bus.Publish(GameEvent{Type: EventTurnEnded})

	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestEventBusNilListener(t *testing.T) {
	bus := NewEventBus()
	if handle := bus.Subscribe(nil); handle != -1 {
		t.Errorf("nil listener should be rejected, got handle %d", handle)
	}
}

func TestZoneString(t *testing.T) {
	cases := map[Zone]string{
		ZoneDeck:        "DECK",
		ZoneHand:        "HAND",
		ZoneBattlefield: "BATTLEFIELD",
		ZoneGraveyard:   "GRAVEYARD",
		ZoneSecret:      "SECRET",
		ZoneWeapon:      "WEAPON",
	}
	for zone, want := range cases {
		if got := zone.String(); got != want {
			t.Errorf("zone %d: expected %s, got %s", int(zone), want, got)
		}
	}
}
