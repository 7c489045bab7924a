// Package effects holds enchantment bookkeeping and the ongoing-aura system.
package effects

import (
	"github.com/cardclash/battle-server-go/internal/catalog"
	"github.com/google/uuid"
)

// Enchantment is a modifier attached to exactly one card instance or hero.
// Aura-sourced enchantments are stripped and re-derived on every recompute;
// the rest live until their duration expires or their holder is silenced.
type Enchantment struct {
	ID             string
	Source         int // instance id of whatever created the modifier
	Attack         int
	Health         int
	CostDelta      int
	Keyword        catalog.Keyword
	UntilEndOfTurn bool
	FromAura       bool
}

// NewEnchantment creates a modifier with a fresh identifier.
func NewEnchantment(source int) Enchantment {
	return Enchantment{ID: uuid.NewString(), Source: source}
}

// ExpireEndOfTurn splits the slice into surviving and expired enchantments.
func ExpireEndOfTurn(enchs []Enchantment) (kept, expired []Enchantment) {
	for _, e := range enchs {
		if e.UntilEndOfTurn {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	return kept, expired
}

// StripAuras removes aura-derived enchantments, keeping everything else.
func StripAuras(enchs []Enchantment) []Enchantment {
	kept := enchs[:0]
	for _, e := range enchs {
		if !e.FromAura {
			kept = append(kept, e)
		}
	}
	return kept
}

// AttackDelta sums the attack contribution of a set of enchantments.
func AttackDelta(enchs []Enchantment) int {
	total := 0
	for _, e := range enchs {
		total += e.Attack
	}
	return total
}

// HealthDelta sums the max-health contribution of a set of enchantments.
func HealthDelta(enchs []Enchantment) int {
	total := 0
	for _, e := range enchs {
		total += e.Health
	}
	return total
}

// GrantsKeyword reports whether any enchantment grants the keyword.
func GrantsKeyword(enchs []Enchantment, k catalog.Keyword) bool {
	for _, e := range enchs {
		if e.Keyword == k {
			return true
		}
	}
	return false
}
