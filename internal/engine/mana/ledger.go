// Package mana implements the per-player resource ledger: the mana crystal
// curve and the once-per-turn hero power gate.
package mana

import (
	"github.com/cardclash/battle-server-go/internal/engine/rules"
)

// MaxCrystals is the cap on a player's maximum mana.
const MaxCrystals = 10

// Ledger tracks one player's mana crystals across a match. Commands within a
// match are processed one at a time, so the ledger needs no locking of its
// own.
type Ledger struct {
	current       int
	max           int
	heroPowerUsed bool
}

// NewLedger creates an empty ledger; the first AdvanceTurn grants crystal one.
func NewLedger() *Ledger {
	return &Ledger{}
}

// RestoreLedger rebuilds a ledger from snapshot values.
func RestoreLedger(current, max int, heroPowerUsed bool) *Ledger {
	if max > MaxCrystals {
		max = MaxCrystals
	}
	if current > max {
		current = max
	}
	if current < 0 {
		current = 0
	}
	return &Ledger{current: current, max: max, heroPowerUsed: heroPowerUsed}
}

// Current returns the mana available right now.
func (l *Ledger) Current() int {
	return l.current
}

// Max returns the crystal count refilled at turn start.
func (l *Ledger) Max() int {
	return l.max
}

// CanAfford is a pure legality check with no mutation.
func (l *Ledger) CanAfford(amount int) bool {
	return amount >= 0 && amount <= l.current
}

// Spend decrements available mana, failing with INSUFFICIENT_MANA and no
// mutation when the cost exceeds the current pool.
func (l *Ledger) Spend(amount int) error {
	if amount < 0 {
		return rules.Errorf(rules.ErrCorruptState, "negative mana cost %d", amount)
	}
	if amount > l.current {
		return rules.Errorf(rules.ErrInsufficientMana, "cost %d exceeds available mana %d", amount, l.current)
	}
	l.current -= amount
	return nil
}

// AdvanceTurn grants a crystal (capped), refills the pool, and re-arms the
// hero power.
func (l *Ledger) AdvanceTurn() {
	if l.max < MaxCrystals {
		l.max++
	}
	l.current = l.max
	l.heroPowerUsed = false
}

// HeroPowerAvailable reports whether the hero power is still armed this turn.
func (l *Ledger) HeroPowerAvailable() bool {
	return !l.heroPowerUsed
}

// MarkHeroPowerUsed consumes the once-per-turn hero power gate.
func (l *Ledger) MarkHeroPowerUsed() {
	l.heroPowerUsed = true
}

// HeroPowerUsed returns the raw gate flag, for snapshots.
func (l *Ledger) HeroPowerUsed() bool {
	return l.heroPowerUsed
}
