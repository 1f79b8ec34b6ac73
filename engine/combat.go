package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// Damage ranges for the player's own attacks.
const (
	RangedMinDamage = 10
	RangedMaxDamage = 20
	MeleeMinDamage  = 2
	MeleeMaxDamage  = 5
)

// Knockout recovery health, with and without a healing item to spend.
const (
	KnockoutHealthTreated   = 10
	KnockoutHealthUntreated = 5
)

const fleeChance = 0.5

// CombatAction is one of the player's combat choices.
type CombatAction string

const (
	ActionAttack CombatAction = "attack"
	ActionHeal   CombatAction = "heal"
	ActionFlee   CombatAction = "flee"
)

// CombatOutcome is the state of a fight after a turn.
type CombatOutcome int

const (
	CombatOngoing CombatOutcome = iota
	CombatVictory
	CombatDefeat
	CombatEscaped
)

func (o CombatOutcome) String() string {
	switch o {
	case CombatVictory:
		return "victory"
	case CombatDefeat:
		return "defeat"
	case CombatEscaped:
		return "escaped"
	default:
		return "ongoing"
	}
}

// combatSession is the opponent of an active fight.
type combatSession struct {
	Name          string
	Health        int
	Damage        int
	LootTable     string
	Description   string
	fromStructure bool
}

// CombatView describes the current opponent.
type CombatView struct {
	Name        string
	Health      int
	Damage      int
	Description string
}

// KnockoutResult records how the player came back after dropping to zero.
type KnockoutResult struct {
	UsedHealItem string
	Health       int
	Lost         *inventory.Stack
}

// CombatTurnResult is everything that happened in one combat turn.
type CombatTurnResult struct {
	Action         CombatAction
	Ranged         bool
	DamageDealt    int
	HealItem       string
	Healed         int
	Fled           bool
	OpponentActed  bool
	DamageTaken    int
	Outcome        CombatOutcome
	Grants         []loot.Grant
	LootErr        error
	Knockout       *KnockoutResult
	PlayerHealth   int
	OpponentHealth int
	Opponent       string
}

// InCombat reports whether a fight is active.
func (e *Engine) InCombat() bool {
	return e.mode == ModeCombat && e.combat != nil
}

// Opponent returns the current opponent.
func (e *Engine) Opponent() (CombatView, bool) {
	if !e.InCombat() {
		return CombatView{}, false
	}
	return e.combat.view(), true
}

func (c *combatSession) view() CombatView {
	return CombatView{Name: c.Name, Health: c.Health, Damage: c.Damage, Description: c.Description}
}

// startCombat enters combat mode against an opponent.
func (e *Engine) startCombat(c *combatSession) CombatView {
	e.combat = c
	e.mode = ModeCombat
	e.npc = nil
	e.logger("combat").WithFields(logrus.Fields{
		"opponent": c.Name,
		"health":   c.Health,
		"damage":   c.Damage,
	}).Info("combat started")
	return c.view()
}

func (e *Engine) startMutantCombat(def types.MutantDef, fromStructure bool) CombatView {
	return e.startCombat(&combatSession{
		Name:          def.Name,
		Health:        def.Health,
		Damage:        def.Damage,
		LootTable:     def.Loot,
		Description:   def.Description,
		fromStructure: fromStructure,
	})
}

// CombatAction resolves one player action and, unless the fight ended, the
// opponent's reply. A heal with nothing to heal with changes nothing and
// does not cost a turn.
func (e *Engine) CombatAction(action CombatAction) (CombatTurnResult, error) {
	if !e.InCombat() {
		return CombatTurnResult{}, ErrNotInCombat
	}
	c := e.combat
	res := CombatTurnResult{Action: action, Opponent: c.Name}

	switch action {
	case ActionAttack:
		res.DamageDealt, res.Ranged = e.playerAttack()
		c.Health -= res.DamageDealt
		if c.Health <= 0 {
			c.Health = 0
			res.Outcome = CombatVictory
		}
	case ActionHeal:
		p, ok := e.Inventory.FindFirst(e.combatHealer)
		if !ok {
			return CombatTurnResult{}, ErrNoHealingItems
		}
		def, _ := e.Defs.Item(p.Stack.ItemID)
		if err := e.Inventory.DecrementAt(p.Origin, 1); err != nil {
			return CombatTurnResult{}, err
		}
		before := e.State.Player.Health
		state.SetHealth(e.State, before+def.Heal)
		res.HealItem = def.ID
		res.Healed = e.State.Player.Health - before
	case ActionFlee:
		if e.RNG.Chance(fleeChance) {
			res.Fled = true
			res.Outcome = CombatEscaped
		}
	default:
		return CombatTurnResult{}, fmt.Errorf("%w: %q", ErrInvalidChoice, action)
	}

	if res.Outcome == CombatOngoing {
		res.OpponentActed = true
		res.DamageTaken = c.Damage
		state.SetHealth(e.State, e.State.Player.Health-c.Damage)
		if e.State.Player.Health <= 0 {
			res.Outcome = CombatDefeat
			ko := e.knockout()
			res.Knockout = &ko
		}
	}

	if res.Outcome == CombatVictory && c.LootTable != "" {
		res.Grants, res.LootErr = e.loot.Draw(c.LootTable, e.Inventory)
		if res.LootErr != nil {
			e.logger("combat").WithError(res.LootErr).Warn("opponent loot failed")
		}
	}

	res.PlayerHealth = e.State.Player.Health
	res.OpponentHealth = c.Health
	e.logger("combat").WithFields(logrus.Fields{
		"action":  action,
		"dealt":   res.DamageDealt,
		"taken":   res.DamageTaken,
		"outcome": res.Outcome,
	}).Debug("combat turn")

	if res.Outcome != CombatOngoing {
		e.endCombat(res.Outcome)
	}
	return res, nil
}

// playerAttack fires the first loaded weapon, falling back to a melee strike.
func (e *Engine) playerAttack() (damage int, ranged bool) {
	p, ok := e.Inventory.FindFirst(func(st inventory.Stack) bool {
		def, ok := e.Defs.Item(st.ItemID)
		return ok && def.Kind == "weapon" && def.Ammo != "" && e.Inventory.Count(def.Ammo) > 0
	})
	if ok {
		def, _ := e.Defs.Item(p.Stack.ItemID)
		if err := e.Inventory.Remove(def.Ammo, 1); err == nil {
			return e.RNG.Between(RangedMinDamage, RangedMaxDamage), true
		}
	}
	return e.RNG.Between(MeleeMinDamage, MeleeMaxDamage), false
}

func (e *Engine) combatHealer(st inventory.Stack) bool {
	def, ok := e.Defs.Item(st.ItemID)
	return ok && def.CombatUsable && def.Heal > 0
}

// knockout revives a player at zero health. A healing item is spent when
// carried. The first weapon is lost, or failing that the first stack that
// is not a staple.
func (e *Engine) knockout() KnockoutResult {
	var ko KnockoutResult
	health := KnockoutHealthUntreated
	if p, ok := e.Inventory.FindFirst(e.combatHealer); ok {
		if err := e.Inventory.DecrementAt(p.Origin, 1); err == nil {
			ko.UsedHealItem = p.Stack.ItemID
			health = KnockoutHealthTreated
		}
	}
	state.SetHealth(e.State, health)
	ko.Health = e.State.Player.Health

	victim, ok := e.Inventory.FindFirst(func(st inventory.Stack) bool {
		def, ok := e.Defs.Item(st.ItemID)
		return ok && def.Kind == "weapon"
	})
	if !ok {
		victim, ok = e.Inventory.FindFirst(func(st inventory.Stack) bool {
			def, ok := e.Defs.Item(st.ItemID)
			return ok && !def.Staple
		})
	}
	if ok {
		if st, err := e.Inventory.ClearAt(victim.Origin); err == nil {
			ko.Lost = &st
		}
	}

	e.logger("combat").WithFields(logrus.Fields{
		"health": ko.Health,
		"healed": ko.UsedHealItem,
	}).Info("player knocked out")
	return ko
}

// endCombat leaves combat. A fight started inside a structure returns to
// navigation unless the player was knocked out.
func (e *Engine) endCombat(outcome CombatOutcome) {
	fromStructure := e.combat.fromStructure
	e.combat = nil
	if fromStructure && e.nav != nil && outcome != CombatDefeat {
		e.mode = ModeStructure
		return
	}
	e.nav = nil
	e.mode = ModeRest
}
