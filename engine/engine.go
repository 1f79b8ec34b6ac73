// Package engine owns one game session: the player state, the spatial
// inventory, map markers and whichever sub-session (combat, structure
// exploration, stalker encounter) is active. Every operation runs to
// completion before the next one is accepted; nothing here is safe for
// concurrent use, and each session gets its own Engine.
package engine

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/engine/structure"
	"github.com/nathoo/zonecore/types"
)

// Mode is the interaction state of the session.
type Mode int

const (
	ModeRest Mode = iota
	ModeCombat
	ModeStructure
	ModeNPC
)

func (m Mode) String() string {
	switch m {
	case ModeCombat:
		return "combat"
	case ModeStructure:
		return "structure"
	case ModeNPC:
		return "encounter"
	default:
		return "exploring"
	}
}

// EncounterWeights are the relative odds of each area roll outcome.
type EncounterWeights struct {
	Mutant    int
	NPC       int
	Structure int
	Flavor    int
}

// Settings tune a session.
type Settings struct {
	PlayerName       string
	Seed             int64
	Rows             int
	Cols             int
	Encounters       EncounterWeights
	FlavorLootChance float64
}

// DefaultSettings returns the stock 6×8 backpack and encounter odds.
func DefaultSettings() Settings {
	return Settings{
		PlayerName:       "Stalker",
		Rows:             6,
		Cols:             8,
		Encounters:       EncounterWeights{Mutant: 12, NPC: 12, Structure: 30, Flavor: 46},
		FlavorLootChance: 0.1,
	}
}

// Engine holds the game definitions and mutable state.
type Engine struct {
	Defs      *state.Defs
	State     *types.State
	Inventory *inventory.Grid
	RNG       *RNG
	Settings  Settings
	Log       *logrus.Entry

	loot   *loot.Resolver
	gen    *structure.Generator
	mode   Mode
	combat *combatSession
	nav    *navSession
	npc    *npcSession
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine logs to l.
func WithLogger(l *logrus.Entry) Option {
	return func(e *Engine) { e.Log = l }
}

// New creates a session from definitions and hands the player the
// starting kit.
func New(defs *state.Defs, settings Settings, opts ...Option) (*Engine, error) {
	gen, err := structure.NewGenerator(structure.Options{
		CommonLoot:   defs.Game.CommonLoot,
		RareLoot:     defs.Game.RareLoot,
		SpecialLoot:  defs.Game.SpecialLoot,
		Mutants:      defs.MutantList(),
		Descriptions: defs.StructureDescriptions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating structure generator: %w", err)
	}
	if settings.Rows < 1 || settings.Cols < 1 {
		return nil, fmt.Errorf("inventory must be at least 1x1, got %dx%d", settings.Rows, settings.Cols)
	}

	s := state.NewState(defs, settings.PlayerName)
	s.RNGSeed = settings.Seed

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Engine{
		Defs:      defs,
		State:     s,
		Inventory: inventory.New(settings.Rows, settings.Cols, defs),
		RNG:       NewRNG(settings.Seed),
		Settings:  settings,
		Log:       logrus.NewEntry(quiet),
		gen:       gen,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loot = loot.New(defs, e.RNG)

	for _, st := range defs.Starters {
		if _, _, err := e.Inventory.Add(st.ItemID, st.Quantity); err != nil {
			e.Log.WithFields(logrus.Fields{"item": st.ItemID, "error": err}).Warn("starting kit item not added")
		}
	}
	return e, nil
}

// RestoreRNG re-creates the RNG from seed and advances to the saved position.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.RNG = RestoreRNG(seed, position)
	e.loot = loot.New(e.Defs, e.RNG)
	e.State.RNGSeed = seed
	e.State.RNGPosition = position
}

// Mode returns the current interaction mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Status is a read-only summary for status bars.
type Status struct {
	Name           string
	Health         int
	X, Y           int
	Location       string
	Mode           Mode
	Turn           int
	Opponent       string
	OpponentHealth int
	Structure      string
}

// Status summarises the session.
func (e *Engine) Status() Status {
	st := Status{
		Name:     e.State.Player.Name,
		Health:   e.State.Player.Health,
		X:        e.State.Player.X,
		Y:        e.State.Player.Y,
		Location: state.PlayerLocation(e.State),
		Mode:     e.mode,
		Turn:     e.State.TurnCount,
	}
	if e.combat != nil {
		st.Opponent = e.combat.Name
		st.OpponentHealth = e.combat.Health
	}
	if e.nav != nil {
		st.Structure = e.nav.marker.Name
	}
	return st
}

// logger returns a log entry scoped to a subsystem.
func (e *Engine) logger(system string) *logrus.Entry {
	return e.Log.WithFields(logrus.Fields{
		"system": system,
		"turn":   e.State.TurnCount,
	})
}

// resetSessions drops any active combat, structure or encounter.
func (e *Engine) resetSessions() {
	e.combat = nil
	e.nav = nil
	e.npc = nil
	e.mode = ModeRest
}
