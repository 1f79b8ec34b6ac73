// Package loader loads Lua zone content into Go structs at startup.
// The Lua VM is discarded after loading; no Lua runs during play.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// rawDef holds a named definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// rawStarter is one Starter(...) call.
type rawStarter struct {
	id  string
	qty int
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// getPair reads a {a, b} field. A bare number sets both halves; a missing
// field returns the defaults.
func getPair(tbl *lua.LTable, key string, defA, defB int) (int, int) {
	switch v := tbl.RawGetString(key).(type) {
	case lua.LNumber:
		return int(v), int(v)
	case *lua.LTable:
		a, aok := v.RawGetInt(1).(lua.LNumber)
		b, bok := v.RawGetInt(2).(lua.LNumber)
		switch {
		case aok && bok:
			return int(a), int(b)
		case aok:
			return int(a), int(a)
		}
	}
	return defA, defB
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Items:      map[string]types.ItemDef{},
		Mutants:    map[string]types.MutantDef{},
		LootTables: map[string]types.LootTableDef{},
		Factions:   map[string]types.FactionDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.items {
		if _, dup := defs.Items[raw.id]; dup {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		defs.Items[raw.id] = compileItem(raw)
	}

	for _, raw := range coll.mutants {
		if _, dup := defs.Mutants[raw.id]; dup {
			return nil, fmt.Errorf("duplicate mutant %q", raw.id)
		}
		defs.Mutants[raw.id] = compileMutant(raw)
		defs.MutantOrder = append(defs.MutantOrder, raw.id)
	}

	for _, raw := range coll.lootTables {
		if _, dup := defs.LootTables[raw.id]; dup {
			return nil, fmt.Errorf("duplicate loot table %q", raw.id)
		}
		lt, err := compileLootTable(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling loot table %s: %w", raw.id, err)
		}
		defs.LootTables[raw.id] = lt
	}

	for _, raw := range coll.factions {
		if _, dup := defs.Factions[raw.id]; dup {
			return nil, fmt.Errorf("duplicate faction %q", raw.id)
		}
		defs.Factions[raw.id] = compileFaction(raw)
		defs.FactionOrder = append(defs.FactionOrder, raw.id)
	}

	for _, raw := range coll.structures {
		defs.Structures = append(defs.Structures, types.StructureDef{
			Name:        raw.id,
			Description: getString(raw.table, "description"),
		})
	}

	for _, tbl := range coll.barter {
		defs.Offers = append(defs.Offers, compileOffers(tbl)...)
	}

	for _, s := range coll.starters {
		defs.Starters = append(defs.Starters, types.StarterDef{ItemID: s.id, Quantity: s.qty})
	}

	defs.Locations = coll.locations
	defs.Tips = coll.tips
	defs.StructureDescriptions = coll.descriptions

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	game := types.GameDef{
		Title:       getString(tbl, "title"),
		Author:      getString(tbl, "author"),
		Version:     getString(tbl, "version"),
		Intro:       getString(tbl, "intro"),
		StartHealth: getInt(tbl, "start_health"),
		GiftItem:    getString(tbl, "gift"),
	}
	if loot := getTable(tbl, "loot"); loot != nil {
		game.CommonLoot = getString(loot, "common")
		game.RareLoot = getString(loot, "rare")
		game.SpecialLoot = getString(loot, "special")
		game.FlavorLoot = getString(loot, "flavor")
		game.StrangerLoot = getString(loot, "stranger")
	}
	return game
}

func compileItem(raw rawDef) types.ItemDef {
	tbl := raw.table
	w, h := getPair(tbl, "size", 1, 1)
	name := getString(tbl, "name")
	if name == "" {
		name = raw.id
	}
	return types.ItemDef{
		ID:           raw.id,
		Name:         name,
		Description:  getString(tbl, "description"),
		Kind:         getString(tbl, "kind"),
		Width:        w,
		Height:       h,
		Stackable:    getBool(tbl, "stackable", false),
		Staple:       getBool(tbl, "staple", false),
		Heal:         getInt(tbl, "heal"),
		RadCure:      getInt(tbl, "rad_cure"),
		Effect:       getString(tbl, "effect"),
		CombatUsable: getBool(tbl, "combat_usable", false),
		Ammo:         getString(tbl, "ammo"),
	}
}

func compileMutant(raw rawDef) types.MutantDef {
	tbl := raw.table
	name := getString(tbl, "name")
	if name == "" {
		name = raw.id
	}
	return types.MutantDef{
		ID:          raw.id,
		Name:        name,
		Health:      getInt(tbl, "health"),
		Damage:      getInt(tbl, "damage"),
		Loot:        getString(tbl, "loot"),
		Description: getString(tbl, "description"),
	}
}

// compileLootTable reads entries = { {"item", weight}, ... } in order.
func compileLootTable(raw rawDef) (types.LootTableDef, error) {
	tbl := raw.table
	lt := types.LootTableDef{ID: raw.id}
	lt.MinDraws, lt.MaxDraws = getPair(tbl, "draws", 1, 1)
	lt.MinQty, lt.MaxQty = getPair(tbl, "quantity", 1, 1)

	entries := getTable(tbl, "entries")
	if entries == nil {
		return lt, nil
	}
	for i := 1; i <= entries.MaxN(); i++ {
		e, ok := entries.RawGetInt(i).(*lua.LTable)
		if !ok {
			return lt, fmt.Errorf("entry %d is not a table", i)
		}
		id, ok := e.RawGetInt(1).(lua.LString)
		if !ok {
			return lt, fmt.Errorf("entry %d has no item id", i)
		}
		weight := 1
		if n, ok := e.RawGetInt(2).(lua.LNumber); ok {
			weight = int(n)
		}
		lt.Entries = append(lt.Entries, types.LootEntry{ItemID: string(id), Weight: weight})
	}
	return lt, nil
}

func compileFaction(raw rawDef) types.FactionDef {
	tbl := raw.table
	f := types.FactionDef{
		ID:         raw.id,
		Slogan:     getString(tbl, "slogan"),
		Attitude:   getString(tbl, "attitude"),
		Reputation: getInt(tbl, "reputation"),
		AskMarkup:  getInt(tbl, "ask_markup"),
	}
	if offers := getTable(tbl, "offers"); offers != nil {
		f.ExtraOffers = compileOffers(offers)
	}
	return f
}

// compileOffers reads a list of Offer(...) tables.
func compileOffers(tbl *lua.LTable) []types.OfferDef {
	var out []types.OfferDef
	for i := 1; i <= tbl.MaxN(); i++ {
		o, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		out = append(out, types.OfferDef{
			Give:    getString(o, "give"),
			GiveQty: getInt(o, "give_qty"),
			Ask:     getString(o, "ask"),
			AskQty:  getInt(o, "ask_qty"),
		})
	}
	return out
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
