package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/state"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validate checks the compiled defs for referential integrity and
// consistency. Warnings go to log; only errors fail the load.
func validate(defs *state.Defs, log *logrus.Entry) error {
	ve := check(defs)

	for _, w := range ve.Warnings {
		log.Warn(w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func check(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.errorf("Game.title is required")
	}
	if defs.Game.StartHealth < 0 || defs.Game.StartHealth > state.MaxHealth {
		ve.errorf("Game.start_health %d must be within 0..%d", defs.Game.StartHealth, state.MaxHealth)
	}

	hasItem := func(id string) bool { _, ok := defs.Items[id]; return ok }
	hasTable := func(id string) bool { _, ok := defs.LootTables[id]; return ok }

	// Table wiring. Common, rare and special feed the structure generator.
	wiring := []struct {
		field, id string
		required  bool
	}{
		{"common", defs.Game.CommonLoot, true},
		{"rare", defs.Game.RareLoot, true},
		{"special", defs.Game.SpecialLoot, true},
		{"flavor", defs.Game.FlavorLoot, false},
		{"stranger", defs.Game.StrangerLoot, false},
	}
	for _, w := range wiring {
		switch {
		case w.id == "" && w.required:
			ve.errorf("Game.loot.%s is required", w.field)
		case w.id != "" && !hasTable(w.id):
			ve.errorf("Game.loot.%s refers to undefined loot table %q", w.field, w.id)
		}
	}
	if g := defs.Game.GiftItem; g != "" && !hasItem(g) {
		ve.errorf("Game.gift refers to undefined item %q", g)
	}

	for _, id := range sortedKeys(defs.Items) {
		item := defs.Items[id]
		if item.Width < 1 || item.Height < 1 {
			ve.errorf("item %q has invalid size %dx%d", id, item.Width, item.Height)
		}
		if item.Stackable && (item.Width != 1 || item.Height != 1) {
			ve.errorf("item %q is stackable but not 1x1", id)
		}
		if item.Ammo != "" && !hasItem(item.Ammo) {
			ve.errorf("item %q uses undefined ammo %q", id, item.Ammo)
		}
		if item.Kind == "weapon" && item.Ammo == "" {
			ve.warnf("weapon %q has no ammo and will only strike in melee", id)
		}
		if item.CombatUsable && item.Heal <= 0 {
			ve.warnf("item %q is combat usable but heals nothing", id)
		}
	}

	if len(defs.MutantOrder) == 0 {
		ve.errorf("at least one Mutant is required")
	}
	for _, id := range defs.MutantOrder {
		m := defs.Mutants[id]
		if m.Health <= 0 {
			ve.errorf("mutant %q must have positive health", id)
		}
		if m.Damage < 0 {
			ve.errorf("mutant %q has negative damage", id)
		}
		if m.Loot != "" && !hasTable(m.Loot) {
			ve.errorf("mutant %q drops from undefined loot table %q", id, m.Loot)
		}
	}

	for _, id := range sortedKeys(defs.LootTables) {
		lt := defs.LootTables[id]
		if len(lt.Entries) == 0 {
			ve.errorf("loot table %q has no entries", id)
		}
		for _, e := range lt.Entries {
			if !hasItem(e.ItemID) {
				ve.errorf("loot table %q refers to undefined item %q", id, e.ItemID)
			}
			if e.Weight <= 0 {
				ve.errorf("loot table %q entry %q must have a positive weight", id, e.ItemID)
			}
		}
		if lt.MinDraws < 1 || lt.MaxDraws < lt.MinDraws {
			ve.errorf("loot table %q has invalid draws %d..%d", id, lt.MinDraws, lt.MaxDraws)
		}
		if lt.MinQty < 1 || lt.MaxQty < lt.MinQty {
			ve.errorf("loot table %q has invalid quantity %d..%d", id, lt.MinQty, lt.MaxQty)
		}
	}

	checkOffer := func(where string, giveQty, askQty int, give, ask string) {
		if !hasItem(give) {
			ve.errorf("%s gives undefined item %q", where, give)
		}
		if !hasItem(ask) {
			ve.errorf("%s asks for undefined item %q", where, ask)
		}
		if giveQty < 1 || askQty < 1 {
			ve.errorf("%s must trade positive quantities", where)
		}
	}
	for i, o := range defs.Offers {
		checkOffer(fmt.Sprintf("barter offer %d", i+1), o.GiveQty, o.AskQty, o.Give, o.Ask)
	}
	for _, id := range defs.FactionOrder {
		f := defs.Factions[id]
		if f.Reputation < state.MinReputation || f.Reputation > state.MaxReputation {
			ve.warnf("faction %q starting reputation %d will be clamped", id, f.Reputation)
		}
		for i, o := range f.ExtraOffers {
			checkOffer(fmt.Sprintf("faction %q offer %d", id, i+1), o.GiveQty, o.AskQty, o.Give, o.Ask)
		}
	}

	for _, s := range defs.Starters {
		if !hasItem(s.ItemID) {
			ve.errorf("starter refers to undefined item %q", s.ItemID)
		}
		if s.Quantity < 1 {
			ve.errorf("starter %q must have a positive quantity", s.ItemID)
		}
	}

	seen := map[string]bool{}
	for _, s := range defs.Structures {
		if seen[s.Name] {
			ve.errorf("duplicate structure %q", s.Name)
		}
		seen[s.Name] = true
	}

	if len(defs.Locations) == 0 {
		ve.warnf("no Location texts defined")
	}
	if len(defs.Structures) == 0 {
		ve.warnf("no Structure sites defined; structures will never be spotted")
	}
	if len(defs.FactionOrder) == 0 {
		ve.warnf("no Factions defined; stalkers will never be met")
	}

	return ve
}
