package effects

import (
	"sort"
	"strconv"

	"github.com/cardclash/battle-server-go/internal/catalog"
)

// AuraSource is one minion projecting an ongoing modifier while it remains on
// the battlefield.
type AuraSource struct {
	Instance int
	Owner    string
	Scope    catalog.AuraScope
	Attack   int
	Health   int
}

// BoardMinion is the battlefield position input to a recompute: instance id
// plus owner, in board order.
type BoardMinion struct {
	Instance int
	Owner    string
}

// AuraSystem derives aura enchantments from battlefield contents. It is
// recomputed from scratch after every zone change rather than incrementally,
// which trades a little work for immunity to stale-modifier ordering bugs.
type AuraSystem struct {
	sources map[int]AuraSource
}

// NewAuraSystem constructs an empty aura system.
func NewAuraSystem() *AuraSystem {
	return &AuraSystem{sources: make(map[int]AuraSource)}
}

// Register adds or replaces the aura projected by a source instance.
func (as *AuraSystem) Register(src AuraSource) {
	as.sources[src.Instance] = src
}

// Unregister drops a source, typically because it left the battlefield or was
// silenced.
func (as *AuraSystem) Unregister(instance int) {
	delete(as.sources, instance)
}

// Recompute derives the full aura enchantment set for the given board. Boards
// are passed per player in battlefield order; the result maps target instance
// to the enchantments auras grant it. Sources are walked in ascending
// instance order so the output is deterministic.
func (as *AuraSystem) Recompute(boards map[string][]BoardMinion) map[int][]Enchantment {
	if len(as.sources) == 0 {
		return nil
	}

	ids := make([]int, 0, len(as.sources))
	for id := range as.sources {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	derived := make(map[int][]Enchantment)
	for _, id := range ids {
		src := as.sources[id]
		board, ok := boards[src.Owner]
		if !ok {
			continue
		}
		srcIdx := -1
		for i, m := range board {
			if m.Instance == src.Instance {
				srcIdx = i
				break
			}
		}
		if srcIdx < 0 {
			// Source not on its owner's board; projects nothing.
			continue
		}

		for i, m := range board {
			if m.Instance == src.Instance {
				continue
			}
			switch src.Scope {
			case catalog.AuraOtherFriendlyMinions:
				// every friendly minion qualifies
			case catalog.AuraAdjacentMinions:
				if i != srcIdx-1 && i != srcIdx+1 {
					continue
				}
			default:
				continue
			}
			derived[m.Instance] = append(derived[m.Instance], Enchantment{
				ID:       auraEnchantmentID(src.Instance, m.Instance),
				Source:   src.Instance,
				Attack:   src.Attack,
				Health:   src.Health,
				FromAura: true,
			})
		}
	}
	return derived
}

// auraEnchantmentID is stable across recomputes so replays and checksums do
// not diverge on random identifiers.
func auraEnchantmentID(source, target int) string {
	return "aura:" + strconv.Itoa(source) + ">" + strconv.Itoa(target)
}
