// Package types defines the shared data structures for the zonecore engine.
// This package contains only type definitions and carries no logic.
package types

import "github.com/zyedidia/generic/mapset"

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb string
	Args []string
}

// Result is the output of a single game step.
type Result struct {
	Output []string
	Err    error
}

// GameDef holds game metadata and the table wiring from Lua.
type GameDef struct {
	Title        string
	Author       string
	Version      string
	Intro        string
	StartHealth  int
	CommonLoot   string // general-tier table used by rooms and flavor finds
	RareLoot     string
	SpecialLoot  string // specialty table used by tunnels
	GiftItem     string // item an NPC may hand out with a tip
	FlavorLoot   string
	StrangerLoot string // loot table for hostile faction stalkers
}

// ItemDef is the immutable catalog definition of an item.
type ItemDef struct {
	ID           string
	Name         string
	Description  string
	Kind         string // "weapon", "ammo", "heal", "food", "antirad", ...
	Width        int
	Height       int
	Stackable    bool
	Staple       bool // never taken by the knockout penalty
	Heal         int
	RadCure      int
	Effect       string
	CombatUsable bool
	Ammo         string // weapons only: matching ammunition item ID
}

// MutantDef is a hostile template from the catalog.
type MutantDef struct {
	ID          string
	Name        string
	Health      int
	Damage      int
	Loot        string
	Description string
}

// LootEntry is one weighted entry of a loot table.
type LootEntry struct {
	ItemID string
	Weight int
}

// LootTableDef is a weighted table with draw and quantity ranges.
type LootTableDef struct {
	ID       string
	Entries  []LootEntry
	MinDraws int
	MaxDraws int
	MinQty   int
	MaxQty   int
}

// FactionDef describes a faction met during NPC encounters.
type FactionDef struct {
	ID          string
	Slogan      string
	Attitude    string
	Reputation  int // starting reputation
	AskMarkup   int // added to every barter ask quantity
	ExtraOffers []OfferDef
}

// OfferDef is a barter offer: the NPC gives Give for Ask.
type OfferDef struct {
	Give    string
	GiveQty int
	Ask     string
	AskQty  int
}

// StructureDef is a named structure site that can be spotted in the field.
type StructureDef struct {
	Name        string
	Description string
}

// StarterDef is an item handed to a fresh player.
type StarterDef struct {
	ItemID   string
	Quantity int
}

// StepKind tags a structure navigation node.
type StepKind string

const (
	StepBranch    StepKind = "branch"
	StepLoot      StepKind = "loot"
	StepEncounter StepKind = "encounter"
	StepLeaf      StepKind = "leaf"
	StepBack      StepKind = "back"
)

// StepNode is one node of a structure's navigation graph.
type StepNode struct {
	Kind      StepKind `json:"kind"`
	Text      string   `json:"text"`
	Options   []string `json:"options,omitempty"`    // branch only
	LootTable string   `json:"loot_table,omitempty"` // loot only
	Mutant    string   `json:"mutant,omitempty"`     // encounter only
}

// StructureInstance is a generated, persisted exploration graph.
type StructureInstance struct {
	Category    string
	Description string
	Steps       map[string]StepNode
	InitialStep string
	Visited     mapset.Set[string]
}

// MarkerKind identifies what a map marker points at.
type MarkerKind string

const (
	MarkerStructure MarkerKind = "STRUCTURE"
	MarkerCamp      MarkerKind = "CAMP"
	MarkerAnomaly   MarkerKind = "ANOMALY"
)

// Marker is a point of interest on the world map.
type Marker struct {
	ID       string
	Kind     MarkerKind
	X        int
	Y        int
	Name     string
	Instance *StructureInstance // structures only, created lazily
}

// Player holds the player's runtime state.
type Player struct {
	Name   string
	Health int
	X      int
	Y      int
}

// State is the complete mutable game state outside the inventory grid.
type State struct {
	Player      Player
	Reputation  map[string]int
	Markers     []*Marker
	TurnCount   int
	RNGSeed     int64
	RNGPosition int64
}
