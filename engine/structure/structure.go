// Package structure generates the explorable node graph of a structure
// site. Generation is a pure function of the random source; the resulting
// instance is frozen and owned by a map marker.
package structure

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/nathoo/zonecore/types"
)

// Node keys.
const (
	Entrance    = "ENTRANCE"
	Underground = "UNDERGROUND"
)

const (
	minRooms          = 1
	maxRooms          = 4
	undergroundChance = 0.3
	searchLootChance  = 0.55
	searchFightChance = 0.25
	commonLootChance  = 0.8
	tunnelFightChance = 0.5
)

var ErrNoMutants = errors.New("structure generator needs at least one mutant")

// Source is the randomness the generator needs.
type Source interface {
	Between(lo, hi int) int
	Intn(n int) int
	Float64() float64
}

// Options supplies the catalog content used to fill a layout.
type Options struct {
	CommonLoot   string
	RareLoot     string
	SpecialLoot  string
	Mutants      []types.MutantDef
	Descriptions []string
}

// Layout is the fixed shape of a structure before its content is rolled.
type Layout struct {
	Rooms       int
	Underground bool
}

// Generator builds structure instances.
type Generator struct {
	opts Options
}

// NewGenerator validates opts and returns a generator.
func NewGenerator(opts Options) (*Generator, error) {
	if len(opts.Mutants) == 0 {
		return nil, ErrNoMutants
	}
	return &Generator{opts: opts}, nil
}

// RoomKey returns the node key of the i-th room, 1-based.
func RoomKey(i int) string { return fmt.Sprintf("ROOM_%d", i) }

// SearchKey returns the search outcome key of the i-th room.
func SearchKey(i int) string { return RoomKey(i) + "_SEARCH" }

// BackKey returns the back-step key of the i-th room.
func BackKey(i int) string { return RoomKey(i) + "_BACK" }

// TunnelKey returns the node key of the i-th tunnel, 1-based.
func TunnelKey(i int) string { return fmt.Sprintf("TUNNEL_%d", i) }

// RollLayout draws a room count in [1,4] and the underground flag.
func RollLayout(rng Source) Layout {
	return Layout{
		Rooms:       rng.Between(minRooms, maxRooms),
		Underground: rng.Float64() < undergroundChance,
	}
}

// Generate rolls a layout and builds it.
func (g *Generator) Generate(category string, rng Source) *types.StructureInstance {
	return g.Build(category, RollLayout(rng), rng)
}

// Build fills a fixed layout with rolled content.
func (g *Generator) Build(category string, layout Layout, rng Source) *types.StructureInstance {
	steps := map[string]types.StepNode{}

	var entrance []string
	for i := 1; i <= layout.Rooms; i++ {
		entrance = append(entrance, RoomKey(i))
	}
	if layout.Underground {
		entrance = append(entrance, Underground)
	}
	steps[Entrance] = types.StepNode{
		Kind:    types.StepBranch,
		Text:    "You stand at the entrance. Which direction do you explore?",
		Options: entrance,
	}

	for i := 1; i <= layout.Rooms; i++ {
		steps[RoomKey(i)] = types.StepNode{
			Kind:    types.StepBranch,
			Text:    fmt.Sprintf("You enter a dim room labeled #%d. Search thoroughly or move on?", i),
			Options: []string{SearchKey(i), BackKey(i)},
		}
		steps[SearchKey(i)] = g.search(rng)
		steps[BackKey(i)] = types.StepNode{
			Kind: types.StepBack,
			Text: "You back out to the previous area.",
		}
	}

	if layout.Underground {
		steps[Underground] = types.StepNode{
			Kind:    types.StepBranch,
			Text:    "A hatch opens to a narrow tunnel descending underground.",
			Options: []string{TunnelKey(1), TunnelKey(2)},
		}
		for i := 1; i <= 2; i++ {
			steps[TunnelKey(i)] = g.tunnel(rng)
		}
	}

	return &types.StructureInstance{
		Category:    category,
		Description: g.describe(category, rng),
		Steps:       steps,
		InitialStep: Entrance,
		Visited:     mapset.New[string](),
	}
}

func (g *Generator) search(rng Source) types.StepNode {
	roll := rng.Float64()
	switch {
	case roll < searchLootChance:
		table := g.opts.RareLoot
		if rng.Float64() < commonLootChance {
			table = g.opts.CommonLoot
		}
		return types.StepNode{
			Kind:      types.StepLoot,
			Text:      "You rummage through debris and find something.",
			LootTable: table,
		}
	case roll < searchLootChance+searchFightChance:
		m := g.mutant(rng)
		return types.StepNode{
			Kind:   types.StepEncounter,
			Text:   fmt.Sprintf("Something moves in the shadows... a %s!", m.Name),
			Mutant: m.ID,
		}
	default:
		return types.StepNode{Kind: types.StepLeaf, Text: "You find nothing of value."}
	}
}

func (g *Generator) tunnel(rng Source) types.StepNode {
	if rng.Float64() < tunnelFightChance {
		m := g.mutant(rng)
		return types.StepNode{
			Kind:   types.StepEncounter,
			Text:   fmt.Sprintf("The tunnel echoes with a skittering sound... a %s appears!", m.Name),
			Mutant: m.ID,
		}
	}
	return types.StepNode{
		Kind:      types.StepLoot,
		Text:      "A small alcove contains a curious object.",
		LootTable: g.opts.SpecialLoot,
	}
}

func (g *Generator) mutant(rng Source) types.MutantDef {
	return g.opts.Mutants[rng.Intn(len(g.opts.Mutants))]
}

func (g *Generator) describe(category string, rng Source) string {
	if len(g.opts.Descriptions) == 0 {
		return category
	}
	text := g.opts.Descriptions[rng.Intn(len(g.opts.Descriptions))]
	return fmt.Sprintf("%s (Source: %s)", text, category)
}

// Validate checks the structural invariants of an instance: the initial step
// is a branch and every option key exists.
func Validate(inst *types.StructureInstance) error {
	if inst == nil {
		return errors.New("nil structure instance")
	}
	init, ok := inst.Steps[inst.InitialStep]
	if !ok {
		return fmt.Errorf("initial step %q missing", inst.InitialStep)
	}
	if init.Kind != types.StepBranch {
		return fmt.Errorf("initial step %q is %s, not a branch", inst.InitialStep, init.Kind)
	}
	for key, node := range inst.Steps {
		for _, opt := range node.Options {
			if _, ok := inst.Steps[opt]; !ok {
				return fmt.Errorf("step %q references missing option %q", key, opt)
			}
		}
	}
	return nil
}
