// Package loot draws weighted random items from loot tables and hands them
// to the inventory.
package loot

import (
	"errors"
	"fmt"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/types"
)

var (
	ErrUnknownTable = errors.New("unknown loot table")
	ErrEmptyTable   = errors.New("loot table has no entries")
)

// Source is the randomness the resolver needs.
type Source interface {
	Between(lo, hi int) int
	WeightedSelect(weights []int) int
}

// Tables resolves loot table definitions.
type Tables interface {
	LootTable(id string) (types.LootTableDef, bool)
}

// Adder receives granted items.
type Adder interface {
	Add(itemID string, qty int) (inventory.AddOutcome, inventory.Pos, error)
}

// Grant is one draw. Lost is set when the inventory had no room.
type Grant struct {
	ItemID   string
	Quantity int
	Outcome  inventory.AddOutcome
	Lost     bool
}

// Resolver draws from loot tables.
type Resolver struct {
	tables Tables
	rng    Source
}

// New creates a resolver over the given tables.
func New(tables Tables, rng Source) *Resolver {
	return &Resolver{tables: tables, rng: rng}
}

// Draw rolls the table's draw count, picks an entry per draw proportionally
// to its weight, rolls a quantity and adds it to inv. Inventory-full results
// are reported as lost grants rather than errors.
func (r *Resolver) Draw(tableID string, inv Adder) ([]Grant, error) {
	table, ok := r.tables.LootTable(tableID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableID)
	}
	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, tableID)
	}

	weights := make([]int, len(table.Entries))
	for i, e := range table.Entries {
		weights[i] = e.Weight
	}

	draws := r.rng.Between(atLeastOne(table.MinDraws), atLeastOne(table.MaxDraws))
	grants := make([]Grant, 0, draws)
	for i := 0; i < draws; i++ {
		entry := table.Entries[r.rng.WeightedSelect(weights)]
		qty := r.rng.Between(atLeastOne(table.MinQty), atLeastOne(table.MaxQty))

		g := Grant{ItemID: entry.ItemID, Quantity: qty}
		outcome, _, err := inv.Add(entry.ItemID, qty)
		switch {
		case err == nil:
			g.Outcome = outcome
		case errors.Is(err, inventory.ErrInventoryFull):
			g.Lost = true
		default:
			return grants, fmt.Errorf("loot table %s: %w", tableID, err)
		}
		grants = append(grants, g)
	}
	return grants, nil
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
