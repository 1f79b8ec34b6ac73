package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/npc"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// Direction is a compass step on the world map.
type Direction string

const (
	North Direction = "N"
	South Direction = "S"
	East  Direction = "E"
	West  Direction = "W"
)

// ParseDirection accepts N/S/E/W or the full names, in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "north":
		return North, nil
	case "s", "south":
		return South, nil
	case "e", "east":
		return East, nil
	case "w", "west":
		return West, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// AreaEvent is what a step into a new area turned up.
type AreaEvent int

const (
	EventFlavor AreaEvent = iota
	EventCombat
	EventNPC
	EventStructure
)

func (ev AreaEvent) String() string {
	switch ev {
	case EventCombat:
		return "combat"
	case EventNPC:
		return "npc"
	case EventStructure:
		return "structure"
	default:
		return "flavor"
	}
}

// AreaRollResult describes the outcome of a move.
type AreaRollResult struct {
	Event    AreaEvent
	X, Y     int
	Location string
	Text     string
	Marker   *types.Marker // EventStructure
	Opponent *CombatView   // EventCombat
	Faction  string        // EventNPC
	Grants   []loot.Grant  // EventFlavor, occasionally
	Left     string        // faction whose encounter the move ended
}

// npcSession is an active stalker encounter.
type npcSession struct {
	faction types.FactionDef
	offers  []types.OfferDef
}

// Move steps the player one cell and rolls what the new area holds. Moving
// away from a stalker ends the encounter; moving is refused in combat or
// inside a structure.
func (e *Engine) Move(dir Direction) (AreaRollResult, error) {
	dx, dy := dir.delta()
	if dx == 0 && dy == 0 {
		return AreaRollResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
	}
	switch e.mode {
	case ModeCombat, ModeStructure:
		return AreaRollResult{}, fmt.Errorf("%w: cannot travel while in %s", ErrBusy, e.mode)
	}

	var res AreaRollResult
	if e.npc != nil {
		res.Left = e.npc.faction.ID
		e.npc = nil
		e.mode = ModeRest
	}

	e.State.Player.X += dx
	e.State.Player.Y += dy
	res.X, res.Y = e.State.Player.X, e.State.Player.Y
	res.Location = state.PlayerLocation(e.State)

	res.Event = e.rollEvent()
	switch res.Event {
	case EventCombat:
		mutants := e.Defs.MutantList()
		view := e.startMutantCombat(mutants[e.RNG.Intn(len(mutants))], false)
		res.Opponent = &view
	case EventNPC:
		id := e.Defs.FactionOrder[e.RNG.Intn(len(e.Defs.FactionOrder))]
		f := e.Defs.Factions[id]
		e.npc = &npcSession{faction: f, offers: npc.Offers(e.Defs.Offers, f)}
		e.mode = ModeNPC
		res.Faction = id
	case EventStructure:
		res.Marker = e.spotStructure()
	default:
		if len(e.Defs.Locations) > 0 {
			res.Text = e.Defs.Locations[e.RNG.Intn(len(e.Defs.Locations))]
		}
		if e.Defs.Game.FlavorLoot != "" && e.RNG.Chance(e.Settings.FlavorLootChance) {
			grants, err := e.loot.Draw(e.Defs.Game.FlavorLoot, e.Inventory)
			if err != nil {
				e.logger("explore").WithError(err).Warn("flavor loot failed")
			}
			res.Grants = grants
		}
	}

	e.logger("explore").WithFields(logrus.Fields{
		"x":     res.X,
		"y":     res.Y,
		"event": res.Event,
	}).Debug("area rolled")
	return res, nil
}

// rollEvent picks the area outcome. Outcomes without content to back them
// fall through to flavor.
func (e *Engine) rollEvent() AreaEvent {
	w := e.Settings.Encounters
	weights := []int{w.Flavor, w.Mutant, w.NPC, w.Structure}
	total := 0
	for i, v := range weights {
		if v < 0 {
			weights[i] = 0
		}
		total += weights[i]
	}
	if total == 0 {
		d := DefaultSettings().Encounters
		weights = []int{d.Flavor, d.Mutant, d.NPC, d.Structure}
	}

	ev := AreaEvent(e.RNG.WeightedSelect(weights))
	switch {
	case ev == EventCombat && len(e.Defs.MutantOrder) == 0,
		ev == EventNPC && len(e.Defs.FactionOrder) == 0,
		ev == EventStructure && len(e.Defs.Structures) == 0:
		return EventFlavor
	}
	return ev
}

// spotStructure picks a structure name and returns the marker for it at
// the player's position, creating one on first sight.
func (e *Engine) spotStructure() *types.Marker {
	def := e.Defs.Structures[e.RNG.Intn(len(e.Defs.Structures))]
	x, y := e.State.Player.X, e.State.Player.Y

	if m, ok := state.FindStructure(e.State, x, y, def.Name); ok {
		if m.Instance == nil {
			m.Instance = e.gen.Generate(def.Name, e.RNG)
		}
		return m
	}

	m := &types.Marker{
		ID:       uuid.NewString(),
		Kind:     types.MarkerStructure,
		X:        x,
		Y:        y,
		Name:     def.Name,
		Instance: e.gen.Generate(def.Name, e.RNG),
	}
	e.State.Markers = append(e.State.Markers, m)
	e.logger("explore").WithFields(logrus.Fields{
		"marker": m.ID,
		"name":   m.Name,
	}).Info("structure marked")
	return m
}

// StructuresHere lists the structure markers at the player's position.
func (e *Engine) StructuresHere() []*types.Marker {
	return state.MarkersAt(e.State, types.MarkerStructure, e.State.Player.X, e.State.Player.Y)
}
