package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerListHelpers(L, coll)
}

// curried returns a Lua function taking an id and returning a function that
// takes the definition table, as in Item "id" { ... }.
func curried(L *lua.LState, add func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", loot = { common = "COMMON", ... } }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	L.SetGlobal("Item", curried(L, func(id string, tbl *lua.LTable) {
		coll.items = append(coll.items, rawDef{id: id, table: tbl})
	}))

	L.SetGlobal("Mutant", curried(L, func(id string, tbl *lua.LTable) {
		coll.mutants = append(coll.mutants, rawDef{id: id, table: tbl})
	}))

	L.SetGlobal("LootTable", curried(L, func(id string, tbl *lua.LTable) {
		coll.lootTables = append(coll.lootTables, rawDef{id: id, table: tbl})
	}))

	L.SetGlobal("Faction", curried(L, func(id string, tbl *lua.LTable) {
		coll.factions = append(coll.factions, rawDef{id: id, table: tbl})
	}))

	L.SetGlobal("Structure", curried(L, func(id string, tbl *lua.LTable) {
		coll.structures = append(coll.structures, rawDef{id: id, table: tbl})
	}))

	// Offer("give", give_qty, "ask", ask_qty) returns an offer table for
	// Barter or a faction's offers list.
	L.SetGlobal("Offer", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("give", lua.LString(L.CheckString(1)))
		tbl.RawSetString("give_qty", lua.LNumber(L.CheckInt(2)))
		tbl.RawSetString("ask", lua.LString(L.CheckString(3)))
		tbl.RawSetString("ask_qty", lua.LNumber(L.CheckInt(4)))
		L.Push(tbl)
		return 1
	}))

	// Barter { Offer(...), ... } appends to the base offer list.
	L.SetGlobal("Barter", L.NewFunction(func(L *lua.LState) int {
		coll.barter = append(coll.barter, L.CheckTable(1))
		return 0
	}))

	// Starter("item", qty)
	L.SetGlobal("Starter", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		qty := L.OptInt(2, 1)
		coll.starters = append(coll.starters, rawStarter{id: id, qty: qty})
		return 0
	}))
}

// registerListHelpers registers the one-string constructors for flavour text.
func registerListHelpers(L *lua.LState, coll *collector) {
	text := func(dst *[]string) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			*dst = append(*dst, L.CheckString(1))
			return 0
		})
	}
	L.SetGlobal("Location", text(&coll.locations))
	L.SetGlobal("Tip", text(&coll.tips))
	L.SetGlobal("StructureDescription", text(&coll.descriptions))
}
