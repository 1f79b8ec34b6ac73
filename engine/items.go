package engine

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// UseResult reports the effect of consuming an item.
type UseResult struct {
	ItemID  string
	Healed  int
	RadCure int
	Effect  string
	Health  int
}

// InventorySnapshot returns the grid for display.
func (e *Engine) InventorySnapshot() [][]inventory.CellView {
	return e.Inventory.Snapshot()
}

// MoveInventoryItem rearranges the backpack. Allowed in every mode.
func (e *Engine) MoveInventoryItem(from, to inventory.Pos) error {
	if err := e.Inventory.Move(from, to); err != nil {
		return err
	}
	e.logger("inventory").WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Debug("item moved")
	return nil
}

// UseItem consumes one unit of the stack at p. In combat, healing goes
// through the heal action instead.
func (e *Engine) UseItem(p inventory.Pos) (UseResult, error) {
	if e.mode == ModeCombat {
		return UseResult{}, fmt.Errorf("%w: use heal during a fight", ErrBusy)
	}
	st, origin, ok := e.Inventory.StackAt(p)
	if !ok {
		return UseResult{}, fmt.Errorf("%w: %s", inventory.ErrNoStack, p)
	}
	def, ok := e.Defs.Item(st.ItemID)
	if !ok || (def.Heal <= 0 && def.RadCure <= 0) {
		return UseResult{}, fmt.Errorf("%w: %s", ErrNotUsable, e.Defs.ItemName(st.ItemID))
	}
	if err := e.Inventory.DecrementAt(origin, 1); err != nil {
		return UseResult{}, err
	}

	before := e.State.Player.Health
	state.SetHealth(e.State, before+def.Heal)
	res := UseResult{
		ItemID:  def.ID,
		Healed:  e.State.Player.Health - before,
		RadCure: def.RadCure,
		Effect:  def.Effect,
		Health:  e.State.Player.Health,
	}
	e.logger("inventory").WithFields(logrus.Fields{
		"item":   def.ID,
		"healed": res.Healed,
	}).Debug("item used")
	return res, nil
}

// DropItem discards the whole stack at p.
func (e *Engine) DropItem(p inventory.Pos) (inventory.Stack, error) {
	if e.mode == ModeCombat {
		return inventory.Stack{}, fmt.Errorf("%w: not in the middle of a fight", ErrBusy)
	}
	return e.Inventory.ClearAt(p)
}

// FindCarried resolves a player-typed item name against the backpack. It
// matches item IDs and display names, whole or by prefix.
func (e *Engine) FindCarried(name string) (inventory.Placement, types.ItemDef, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return inventory.Placement{}, types.ItemDef{}, false
	}
	var prefix *inventory.Placement
	for _, p := range e.Inventory.Stacks() {
		def, ok := e.Defs.Item(p.Stack.ItemID)
		if !ok {
			continue
		}
		id, display := strings.ToLower(def.ID), strings.ToLower(def.Name)
		if id == name || display == name {
			return p, def, true
		}
		if prefix == nil && (strings.HasPrefix(display, name) || strings.Contains(display, " "+name)) {
			pp := p
			prefix = &pp
		}
	}
	if prefix != nil {
		def, _ := e.Defs.Item(prefix.Stack.ItemID)
		return *prefix, def, true
	}
	return inventory.Placement{}, types.ItemDef{}, false
}

// Examine describes a carried item.
func (e *Engine) Examine(name string) (string, error) {
	p, def, ok := e.FindCarried(name)
	if !ok {
		return "", fmt.Errorf("%w: you aren't carrying %q", inventory.ErrNoStack, name)
	}
	desc := def.Description
	if desc == "" {
		desc = "Nothing special about it."
	}
	return fmt.Sprintf("%s (x%d, %dx%d): %s", def.Name, p.Stack.Quantity, p.Stack.Width, p.Stack.Height, desc), nil
}
