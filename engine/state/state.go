// Package state holds the immutable content catalog and the helpers that
// read and mutate the session state outside the inventory grid.
package state

import (
	"github.com/nathoo/zonecore/types"
)

// Location labels by Manhattan distance from the origin.
const (
	LabelHome  = "Rookie Village Outskirts"
	LabelEdge  = "Near Zone Edge"
	LabelOuter = "Outer Zone Territories"
	LabelDeep  = "Deep Zone Sector"
)

const (
	MaxHealth     = 100
	MinReputation = -100
	MaxReputation = 100
)

// Defs holds the immutable game definitions loaded from Lua. Ordered
// slices preserve authoring order so random picks are reproducible.
type Defs struct {
	Game                  types.GameDef
	Items                 map[string]types.ItemDef
	Mutants               map[string]types.MutantDef
	MutantOrder           []string
	LootTables            map[string]types.LootTableDef
	Factions              map[string]types.FactionDef
	FactionOrder          []string
	Locations             []string
	Structures            []types.StructureDef
	StructureDescriptions []string
	Tips                  []string
	Offers                []types.OfferDef
	Starters              []types.StarterDef
}

// Item looks up an item definition.
func (d *Defs) Item(id string) (types.ItemDef, bool) {
	def, ok := d.Items[id]
	return def, ok
}

// LootTable looks up a loot table.
func (d *Defs) LootTable(id string) (types.LootTableDef, bool) {
	def, ok := d.LootTables[id]
	return def, ok
}

// Mutant looks up a mutant template.
func (d *Defs) Mutant(id string) (types.MutantDef, bool) {
	def, ok := d.Mutants[id]
	return def, ok
}

// MutantList returns the mutant templates in authoring order.
func (d *Defs) MutantList() []types.MutantDef {
	out := make([]types.MutantDef, 0, len(d.MutantOrder))
	for _, id := range d.MutantOrder {
		out = append(out, d.Mutants[id])
	}
	return out
}

// ItemName returns the display name of an item, falling back to its ID.
func (d *Defs) ItemName(id string) string {
	if def, ok := d.Items[id]; ok && def.Name != "" {
		return def.Name
	}
	return id
}

// NewState creates a fresh game state with full health at the origin and
// every faction at its starting reputation.
func NewState(defs *Defs, playerName string) *types.State {
	health := defs.Game.StartHealth
	if health <= 0 || health > MaxHealth {
		health = MaxHealth
	}
	return &types.State{
		Player: types.Player{
			Name:   playerName,
			Health: health,
		},
		Reputation: StartingReputation(defs),
		Markers:    []*types.Marker{},
	}
}

// StartingReputation returns every faction's catalog standing, clamped.
func StartingReputation(defs *Defs) map[string]int {
	rep := make(map[string]int, len(defs.Factions))
	for id, f := range defs.Factions {
		rep[id] = clampReputation(f.Reputation)
	}
	return rep
}

// Distance returns the Manhattan distance of (x, y) from the origin.
func Distance(x, y int) int {
	return abs(x) + abs(y)
}

// LocationLabel returns the region name for a coordinate.
func LocationLabel(x, y int) string {
	switch d := Distance(x, y); {
	case d == 0:
		return LabelHome
	case d < 5:
		return LabelEdge
	case d < 15:
		return LabelOuter
	default:
		return LabelDeep
	}
}

// PlayerLocation returns the region name for the player's position.
func PlayerLocation(s *types.State) string {
	return LocationLabel(s.Player.X, s.Player.Y)
}

// SetHealth stores h clamped into [0, MaxHealth].
func SetHealth(s *types.State, h int) {
	switch {
	case h < 0:
		h = 0
	case h > MaxHealth:
		h = MaxHealth
	}
	s.Player.Health = h
}

// MarkersAt returns the markers of the given kind at (x, y), in creation order.
func MarkersAt(s *types.State, kind types.MarkerKind, x, y int) []*types.Marker {
	var out []*types.Marker
	for _, m := range s.Markers {
		if m.Kind == kind && m.X == x && m.Y == y {
			out = append(out, m)
		}
	}
	return out
}

// FindMarker returns the marker with the given ID.
func FindMarker(s *types.State, id string) (*types.Marker, bool) {
	for _, m := range s.Markers {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// FindStructure returns the structure marker with name at (x, y).
func FindStructure(s *types.State, x, y int, name string) (*types.Marker, bool) {
	for _, m := range MarkersAt(s, types.MarkerStructure, x, y) {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// AdjustReputation adds delta to a faction's standing, bounded to
// [MinReputation, MaxReputation], and returns the new value.
func AdjustReputation(s *types.State, faction string, delta int) int {
	if s.Reputation == nil {
		s.Reputation = map[string]int{}
	}
	v := clampReputation(s.Reputation[faction] + delta)
	s.Reputation[faction] = v
	return v
}

// ReputationLevel names a reputation value.
func ReputationLevel(v int) string {
	switch {
	case v >= 75:
		return "Loved"
	case v >= 50:
		return "Friendly"
	case v >= 0:
		return "Neutral"
	default:
		return "Hostile"
	}
}

func clampReputation(v int) int {
	if v < MinReputation {
		return MinReputation
	}
	if v > MaxReputation {
		return MaxReputation
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
