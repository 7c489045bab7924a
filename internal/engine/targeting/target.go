// Package targeting validates attack and effect targets against the current
// battlefield: taunt routing, stealth protection, and target-type checks.
package targeting

// Ref names a character: either a hero (by player id) or a minion/weapon
// instance (by instance id).
type Ref struct {
	PlayerID   string `json:"player_id,omitempty"`
	InstanceID int    `json:"instance_id,omitempty"`
	IsHero     bool   `json:"is_hero,omitempty"`
}

// HeroRef points at a player's hero.
func HeroRef(playerID string) Ref {
	return Ref{PlayerID: playerID, IsHero: true}
}

// MinionRef points at a card instance.
func MinionRef(instanceID int) Ref {
	return Ref{InstanceID: instanceID}
}
