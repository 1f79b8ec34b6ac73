package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/npc"
	"github.com/nathoo/zonecore/engine/parser"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// combatVerbs are the commands allowed during combat.
var combatVerbs = map[string]bool{
	"attack":     true,
	"heal":       true,
	"flee":       true,
	"choose":     true,
	"inventory":  true,
	"arrange":    true,
	"examine":    true,
	"look":       true,
	"status":     true,
	"reputation": true,
	"help":       true,
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 1. Parse input.
	intent := parser.Parse(input)

	// 2. Empty input.
	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}

	// 3. Combat mode: rewrite "go" → "flee" and restrict commands.
	if e.mode == ModeCombat {
		if intent.Verb == "go" {
			intent = types.Intent{Verb: "flee"}
		}
		if !combatVerbs[intent.Verb] {
			result.Output = append(result.Output, "You're in the middle of a fight! (attack, heal, flee)")
			return result
		}
	}

	// 4. Dispatch.
	out, err := e.dispatch(intent)
	result.Output = append(result.Output, out...)
	if err != nil {
		result.Err = err
		result.Output = append(result.Output, errorLine(err))
	}

	// 5. Track RNG position for save/load.
	e.State.RNGPosition = e.RNG.Position()

	// 6. Increment turn count.
	e.State.TurnCount++

	return result
}

func (e *Engine) dispatch(intent types.Intent) ([]string, error) {
	args := intent.Args
	switch intent.Verb {
	case "help":
		return e.helpLines(), nil
	case "status":
		return []string{e.statusLine()}, nil
	case "reputation":
		return e.reputationLines(), nil
	case "inventory":
		return e.inventoryLines(), nil
	case "examine":
		return e.examine(args)
	case "arrange":
		return e.arrange(args)
	case "use":
		return e.use(args)
	case "drop":
		return e.drop(args)
	case "look":
		return e.look()
	case "go":
		return e.goCmd(args)
	case "attack":
		if e.mode == ModeNPC {
			return e.npcAttack()
		}
		return e.combatCmd(ActionAttack)
	case "heal":
		return e.combatCmd(ActionHeal)
	case "flee":
		return e.combatCmd(ActionFlee)
	case "interact":
		return e.interact(args)
	case "choose":
		return e.choose(args)
	case "back":
		view, err := e.SelectOption(NavBack)
		if err != nil {
			return nil, err
		}
		return e.navLines(view), nil
	case "leave":
		return e.leave()
	case "trade":
		return e.trade(args)
	case "info":
		return e.info()
	}
	return []string{fmt.Sprintf("I don't know how to %q. Type 'help' for commands.", intent.Verb)}, nil
}

// --- Exploration ---

func (e *Engine) goCmd(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Go where?"}, nil
	}
	dir, err := ParseDirection(args[0])
	if err != nil {
		return nil, err
	}
	res, err := e.Move(dir)
	if err != nil {
		return nil, err
	}
	return e.areaLines(res), nil
}

func (e *Engine) areaLines(res AreaRollResult) []string {
	var out []string
	if res.Left != "" {
		out = append(out, fmt.Sprintf("You leave the %s behind.", npc.Name(res.Left)))
	}
	out = append(out, fmt.Sprintf("You move to (%d, %d) - %s.", res.X, res.Y, res.Location))

	switch res.Event {
	case EventCombat:
		out = append(out, e.combatIntro(*res.Opponent)...)
	case EventNPC:
		out = append(out, e.encounterLines()...)
	case EventStructure:
		out = append(out, fmt.Sprintf("Structure detected nearby: %s. Use the exploration menu to interact.", res.Marker.Name))
		for _, def := range e.Defs.Structures {
			if def.Name == res.Marker.Name && def.Description != "" {
				out = append(out, def.Description)
			}
		}
		out = append(out, "(Type 'interact' to explore it.)")
	default:
		if res.Text != "" {
			out = append(out, res.Text)
		}
		out = append(out, e.grantLines(res.Grants)...)
	}
	return out
}

func (e *Engine) look() ([]string, error) {
	switch e.mode {
	case ModeCombat:
		v := e.combat.view()
		return []string{
			fmt.Sprintf("You are fighting a %s. %s", v.Name, v.Description),
			e.healthLine(),
		}, nil
	case ModeStructure:
		view, err := e.NavView()
		if err != nil {
			return nil, err
		}
		return e.navLines(view), nil
	case ModeNPC:
		return e.encounterLines(), nil
	}

	out := []string{fmt.Sprintf("You are at (%d, %d) - %s.", e.State.Player.X, e.State.Player.Y, state.PlayerLocation(e.State))}
	if here := e.StructuresHere(); len(here) > 0 {
		out = append(out, "Structures here:")
		for i, m := range here {
			out = append(out, fmt.Sprintf("  %d. %s", i+1, m.Name))
		}
	}
	return out, nil
}

func (e *Engine) interact(args []string) ([]string, error) {
	n := 0
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, args[0])
		}
		n = v
	}
	if n == 0 {
		here := e.StructuresHere()
		switch len(here) {
		case 0:
			return nil, fmt.Errorf("%w: no structure here", ErrNotHere)
		case 1:
			n = 1
		default:
			out := []string{"Several structures are here:"}
			for i, m := range here {
				out = append(out, fmt.Sprintf("  %d. %s", i+1, m.Name))
			}
			return append(out, "Type 'interact <number>' to pick one."), nil
		}
	}
	view, err := e.InteractAt(n)
	if err != nil {
		return nil, err
	}
	return e.navLines(view), nil
}

// --- Structures ---

func (e *Engine) choose(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Choose which option?"}, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, args[0])
	}

	switch e.mode {
	case ModeCombat:
		actions := []CombatAction{ActionAttack, ActionHeal, ActionFlee}
		if n < 1 || n > len(actions) {
			return nil, fmt.Errorf("%w: pick 1-%d", ErrInvalidChoice, len(actions))
		}
		return e.combatCmd(actions[n-1])
	case ModeNPC:
		switch n {
		case 1:
			return e.trade(nil)
		case 2:
			return e.info()
		case 3:
			return e.leave()
		case 4:
			return e.npcAttack()
		}
		return nil, fmt.Errorf("%w: pick 1-4", ErrInvalidChoice)
	case ModeStructure:
		if n < 1 {
			return nil, fmt.Errorf("%w: option %d", ErrInvalidChoice, n)
		}
		view, err := e.SelectOption(NavChoice(n - 1))
		if err != nil {
			return nil, err
		}
		return e.navLines(view), nil
	}
	return e.interact(args)
}

func (e *Engine) leave() ([]string, error) {
	switch e.mode {
	case ModeStructure:
		view, err := e.SelectOption(NavLeave)
		if err != nil {
			return nil, err
		}
		return view.Messages, nil
	case ModeNPC:
		name := npc.Name(e.npc.faction.ID)
		if err := e.NPCLeave(); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("You nod to the %s and move on.", name)}, nil
	}
	return []string{"There is nothing to leave."}, nil
}

func (e *Engine) navLines(view StructureNavView) []string {
	var out []string
	out = append(out, view.Messages...)
	out = append(out, e.grantLines(view.Grants)...)
	if view.Combat != nil {
		return append(out, e.combatIntro(*view.Combat)...)
	}
	if !view.Active {
		return out
	}
	out = append(out, fmt.Sprintf("[%s] %s", view.Name, view.Text))
	for i, opt := range view.Options {
		line := fmt.Sprintf("  %d. %s", i+1, opt.Key)
		if opt.Explored {
			line += " (explored)"
		}
		out = append(out, line)
	}
	if view.CanGoBack {
		out = append(out, "  Type 'back' to return, or 'leave' to step outside.")
	} else {
		out = append(out, "  Type 'leave' to step outside.")
	}
	return out
}

// --- Combat ---

func (e *Engine) combatIntro(v CombatView) []string {
	out := []string{fmt.Sprintf("A %s attacks!", v.Name)}
	if v.Description != "" {
		out = append(out, v.Description)
	}
	return append(out,
		fmt.Sprintf("%s | %s health: %d", e.healthLine(), v.Name, v.Health),
		"1. Attack  2. Heal  3. Flee",
	)
}

func (e *Engine) combatCmd(action CombatAction) ([]string, error) {
	res, err := e.CombatAction(action)
	if err != nil {
		return nil, err
	}
	var out []string

	switch {
	case action == ActionAttack && res.Ranged:
		out = append(out, fmt.Sprintf("You fire your pistol, hitting the %s for %d damage. (Ammo -1)", res.Opponent, res.DamageDealt))
	case action == ActionAttack:
		out = append(out, fmt.Sprintf("You strike with your knife/fists, hitting for %d damage.", res.DamageDealt))
	case action == ActionHeal:
		out = append(out, fmt.Sprintf("You use a %s and recover %d health.", e.Defs.ItemName(res.HealItem), res.Healed))
	case res.Fled:
		out = append(out, "You manage to escape!")
	default:
		out = append(out, fmt.Sprintf("You try to flee, but the %s cuts you off!", res.Opponent))
	}

	if res.OpponentActed {
		out = append(out, fmt.Sprintf("The %s hits you for %d damage!", res.Opponent, res.DamageTaken))
	}

	switch res.Outcome {
	case CombatVictory:
		out = append(out, fmt.Sprintf("You defeated the %s!", res.Opponent))
		out = append(out, e.grantLines(res.Grants)...)
		if res.LootErr != nil {
			out = append(out, "There is nothing worth taking.")
		}
	case CombatDefeat:
		out = append(out, "Everything goes dark...")
		ko := res.Knockout
		if ko.UsedHealItem != "" {
			out = append(out, fmt.Sprintf("You come to, patched up with your %s.", e.Defs.ItemName(ko.UsedHealItem)))
		} else {
			out = append(out, "You come to, barely alive.")
		}
		if ko.Lost != nil {
			out = append(out, fmt.Sprintf("Someone took your %s while you were out.", e.Defs.ItemName(ko.Lost.ItemID)))
		}
		out = append(out, e.healthLine())
	case CombatOngoing:
		out = append(out, fmt.Sprintf("%s | %s health: %d", e.healthLine(), res.Opponent, res.OpponentHealth))
	}

	if res.Outcome != CombatOngoing && e.mode == ModeStructure {
		view, err := e.NavView()
		if err == nil {
			out = append(out, e.navLines(view)...)
		}
	}
	return out, nil
}

// --- Encounters ---

func (e *Engine) encounterLines() []string {
	v, err := e.Encounter()
	if err != nil {
		return nil
	}
	out := []string{fmt.Sprintf("You encounter a %s.", v.Name)}
	if v.Slogan != "" {
		out = append(out, fmt.Sprintf("%q", v.Slogan))
	}
	if v.Attitude != "" {
		out = append(out, fmt.Sprintf("They seem %s. (Reputation: %d, %s)", v.Attitude, v.Reputation, state.ReputationLevel(v.Reputation)))
	}
	return append(out, "1. Trade  2. Info  3. Leave  4. Attack")
}

func (e *Engine) trade(args []string) ([]string, error) {
	v, err := e.Encounter()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		if len(v.Offers) == 0 {
			return []string{"They have nothing to trade."}, nil
		}
		out := []string{"Offers:"}
		for i, o := range v.Offers {
			out = append(out, fmt.Sprintf("  %d. %d x %s for %d x %s (you have %d)",
				i+1, o.GiveQty, e.Defs.ItemName(o.Give), o.AskQty, e.Defs.ItemName(o.Ask), e.Inventory.Count(o.Ask)))
		}
		return append(out, "Type 'trade <number>' to accept."), nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, args[0])
	}
	res, err := e.NPCTrade(n - 1)
	if err != nil {
		return nil, err
	}
	o := res.Offer
	return []string{
		fmt.Sprintf("You hand over %d x %s and receive %d x %s.",
			o.AskQty, e.Defs.ItemName(o.Ask), o.GiveQty, e.Defs.ItemName(o.Give)),
		fmt.Sprintf("Reputation with %s: %d", v.Faction, res.Reputation),
	}, nil
}

func (e *Engine) info() ([]string, error) {
	res, err := e.NPCInfo()
	if err != nil {
		return nil, err
	}
	var out []string
	if res.Tip != "" {
		out = append(out, fmt.Sprintf("%q", res.Tip))
	} else {
		out = append(out, "They shrug. Nothing new to tell.")
	}
	if res.Gift != "" {
		out = append(out, "Here, take this. Might help you.")
		if res.GiftLost {
			out = append(out, fmt.Sprintf("No room for the %s; you leave it behind.", e.Defs.ItemName(res.Gift)))
		} else {
			out = append(out, fmt.Sprintf("You receive: %s.", e.Defs.ItemName(res.Gift)))
		}
	}
	return out, nil
}

func (e *Engine) npcAttack() ([]string, error) {
	v, err := e.NPCAttack()
	if err != nil {
		return nil, err
	}
	return e.combatIntro(v), nil
}

// --- Inventory ---

func (e *Engine) inventoryLines() []string {
	stacks := e.Inventory.Stacks()
	if len(stacks) == 0 {
		return []string{"Your backpack is empty."}
	}

	labels := map[inventory.Pos]byte{}
	for i, p := range stacks {
		labels[p.Origin] = stackLabel(i)
	}

	out := []string{fmt.Sprintf("Backpack (%dx%d):", e.Inventory.Rows(), e.Inventory.Cols())}
	header := "    "
	for c := 0; c < e.Inventory.Cols(); c++ {
		header += fmt.Sprintf("%d ", c)
	}
	out = append(out, strings.TrimRight(header, " "))
	for r, row := range e.InventorySnapshot() {
		var b strings.Builder
		fmt.Fprintf(&b, "  %d ", r)
		for _, cell := range row {
			if cell.Kind == inventory.CellEmpty {
				b.WriteString(". ")
				continue
			}
			b.WriteByte(labels[cell.Origin])
			b.WriteByte(' ')
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	for i, p := range stacks {
		out = append(out, fmt.Sprintf("  %c %s %s x%d", stackLabel(i), p.Origin, e.Defs.ItemName(p.Stack.ItemID), p.Stack.Quantity))
	}
	return out
}

func stackLabel(i int) byte {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return letters[i]
	}
	return '#'
}

func (e *Engine) examine(args []string) ([]string, error) {
	if len(args) == 0 {
		return e.look()
	}
	if p, _, ok := parsePos(args); ok {
		st, _, found := e.Inventory.StackAt(p)
		if !found {
			return nil, fmt.Errorf("%w: %s", inventory.ErrNoStack, p)
		}
		args = []string{st.ItemID}
	}
	text, err := e.Examine(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

func (e *Engine) arrange(args []string) ([]string, error) {
	from, rest, ok := parsePos(args)
	if !ok {
		return []string{"Usage: arrange <row> <col> <to-row> <to-col>"}, nil
	}
	to, _, ok := parsePos(rest)
	if !ok {
		return []string{"Usage: arrange <row> <col> <to-row> <to-col>"}, nil
	}
	if err := e.MoveInventoryItem(from, to); err != nil {
		return nil, err
	}
	st, _, _ := e.Inventory.StackAt(to)
	return []string{fmt.Sprintf("Moved %s to %s.", e.Defs.ItemName(st.ItemID), to)}, nil
}

// carriedPos resolves "row col" or an item name to a backpack position.
func (e *Engine) carriedPos(args []string) (inventory.Pos, error) {
	if p, _, ok := parsePos(args); ok {
		return p, nil
	}
	name := strings.Join(args, " ")
	p, _, ok := e.FindCarried(name)
	if !ok {
		return inventory.Pos{}, fmt.Errorf("%w: you aren't carrying %q", inventory.ErrNoStack, name)
	}
	return p.Origin, nil
}

func (e *Engine) use(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Use what?"}, nil
	}
	p, err := e.carriedPos(args)
	if err != nil {
		return nil, err
	}
	res, err := e.UseItem(p)
	if err != nil {
		return nil, err
	}
	out := []string{fmt.Sprintf("You use the %s.", e.Defs.ItemName(res.ItemID))}
	if res.Healed > 0 {
		out = append(out, fmt.Sprintf("You recover %d health.", res.Healed))
	}
	if res.RadCure > 0 {
		out = append(out, fmt.Sprintf("Radiation reduced by %d.", res.RadCure))
	}
	if res.Effect != "" {
		out = append(out, res.Effect)
	}
	return append(out, e.healthLine()), nil
}

func (e *Engine) drop(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"Drop what?"}, nil
	}
	p, err := e.carriedPos(args)
	if err != nil {
		return nil, err
	}
	st, err := e.DropItem(p)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("You drop %s x%d.", e.Defs.ItemName(st.ItemID), st.Quantity)}, nil
}

// parsePos reads a "row col" pair from the front of args.
func parsePos(args []string) (inventory.Pos, []string, bool) {
	if len(args) < 2 {
		return inventory.Pos{}, args, false
	}
	r, err1 := strconv.Atoi(args[0])
	c, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return inventory.Pos{}, args, false
	}
	return inventory.Pos{Row: r, Col: c}, args[2:], true
}

// --- Summaries ---

func (e *Engine) grantLines(grants []loot.Grant) []string {
	var out []string
	for _, g := range grants {
		name := e.Defs.ItemName(g.ItemID)
		if g.Lost {
			out = append(out, fmt.Sprintf("No room for %s x%d; you leave it behind.", name, g.Quantity))
			continue
		}
		out = append(out, fmt.Sprintf("You found: %s x%d (%s).", name, g.Quantity, g.Outcome))
	}
	return out
}

func (e *Engine) healthLine() string {
	return fmt.Sprintf("Your health: %d/%d", e.State.Player.Health, state.MaxHealth)
}

func (e *Engine) statusLine() string {
	st := e.Status()
	return fmt.Sprintf("%s | Health %d/%d | (%d, %d) %s | %s",
		st.Name, st.Health, state.MaxHealth, st.X, st.Y, st.Location, st.Mode)
}

func (e *Engine) reputationLines() []string {
	seen := map[string]bool{}
	var names []string
	for _, id := range e.Defs.FactionOrder {
		names = append(names, id)
		seen[id] = true
	}
	var extra []string
	for id := range e.State.Reputation {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	out := []string{"Faction standings:"}
	for _, id := range names {
		v := e.State.Reputation[id]
		out = append(out, fmt.Sprintf("- %s: %d (%s)", id, v, state.ReputationLevel(v)))
	}
	return out
}

func (e *Engine) helpLines() []string {
	out := []string{"Commands:"}
	switch e.mode {
	case ModeCombat:
		out = append(out,
			"  attack (1)             Fire your weapon or strike in melee",
			"  heal (2)               Use a healing item",
			"  flee (3)               Try to escape",
		)
	case ModeStructure:
		out = append(out,
			"  <number>               Pick an option",
			"  back                   Return to the previous area",
			"  leave                  Step outside",
		)
	case ModeNPC:
		out = append(out,
			"  trade [number]         List offers or accept one",
			"  info                   Ask for rumours",
			"  leave                  Walk away",
			"  attack                 Attack the stalker",
		)
	default:
		out = append(out,
			"  go <direction>         Move north, south, east or west (n/s/e/w)",
			"  look                   Describe your surroundings",
			"  interact [number]      Explore a structure here",
		)
	}
	return append(out,
		"  inventory (i)          Show your backpack",
		"  use <item|row col>     Consume an item",
		"  drop <item|row col>    Discard a stack",
		"  arrange <r c> <r c>    Move an item in the backpack",
		"  examine <item>         Describe an item",
		"  reputation             Faction standings",
		"  status                 Health and position",
	)
}

// errorLine turns an engine error into player-facing text.
func errorLine(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDirection):
		return "You can't go that way. Try north, south, east or west."
	case errors.Is(err, ErrNoHealingItems):
		return "You have nothing to heal with!"
	case errors.Is(err, inventory.ErrInventoryFull):
		return "Your backpack is full."
	case errors.Is(err, ErrCorruptStructure):
		return "The structure collapses around you. You scramble back outside."
	}
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
