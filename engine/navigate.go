package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/loot"
	"github.com/nathoo/zonecore/engine/structure"
	"github.com/nathoo/zonecore/types"
)

// NavChoice selects an option of the current node by zero-based index, or
// one of the special moves below.
type NavChoice int

const (
	NavBack  NavChoice = -1
	NavLeave NavChoice = -2
)

const alreadySearched = "This area has already been searched. There's nothing new."

// navSession tracks the path through a structure. The last entry is the
// current node.
type navSession struct {
	marker *types.Marker
	stack  []string
}

func (n *navSession) current() string {
	return n.stack[len(n.stack)-1]
}

// NavOption is one selectable option of the current node.
type NavOption struct {
	Key      string
	Kind     types.StepKind
	Explored bool
}

// StructureNavView is what the player sees after a navigation step.
type StructureNavView struct {
	MarkerID    string
	Name        string
	Description string
	Active      bool
	Current     string
	Depth       int
	Text        string
	Options     []NavOption
	CanGoBack   bool
	Messages    []string
	Grants      []loot.Grant
	Combat      *CombatView
}

// Interact starts exploring a structure marker at the player's position.
// The instance is generated on first entry.
func (e *Engine) Interact(markerID string) (StructureNavView, error) {
	if e.mode != ModeRest {
		return StructureNavView{}, fmt.Errorf("%w: already in %s", ErrBusy, e.mode)
	}
	var m *types.Marker
	for _, cand := range e.State.Markers {
		if cand.ID == markerID {
			m = cand
			break
		}
	}
	if m == nil {
		return StructureNavView{}, fmt.Errorf("%w: %s", ErrUnknownMarker, markerID)
	}
	if m.Kind != types.MarkerStructure || m.X != e.State.Player.X || m.Y != e.State.Player.Y {
		return StructureNavView{}, fmt.Errorf("%w: %s", ErrNotHere, m.Name)
	}

	if m.Instance == nil {
		m.Instance = e.gen.Generate(m.Name, e.RNG)
	}
	if err := structure.Validate(m.Instance); err != nil {
		e.logger("structure").WithError(err).WithField("marker", m.ID).Error("structure instance invalid")
		return StructureNavView{}, fmt.Errorf("%w: %v", ErrCorruptStructure, err)
	}

	e.nav = &navSession{marker: m, stack: []string{m.Instance.InitialStep}}
	e.mode = ModeStructure
	e.logger("structure").WithFields(logrus.Fields{
		"marker": m.ID,
		"name":   m.Name,
	}).Info("entered structure")

	view := e.navView()
	view.Messages = append(view.Messages, m.Instance.Description)
	return view, nil
}

// InteractAt enters the n-th structure at the player's position, 1-based.
func (e *Engine) InteractAt(n int) (StructureNavView, error) {
	here := e.StructuresHere()
	if len(here) == 0 {
		return StructureNavView{}, fmt.Errorf("%w: no structure here", ErrNotHere)
	}
	if n < 1 || n > len(here) {
		return StructureNavView{}, fmt.Errorf("%w: pick 1-%d", ErrInvalidChoice, len(here))
	}
	return e.Interact(here[n-1].ID)
}

// NavView returns the current navigation view.
func (e *Engine) NavView() (StructureNavView, error) {
	if e.nav == nil {
		return StructureNavView{}, ErrNotInStructure
	}
	return e.navView(), nil
}

// SelectOption advances structure navigation. Loot and encounter nodes
// resolve once; selecting them again is inert. Broken graphs end the
// session with ErrCorruptStructure.
func (e *Engine) SelectOption(choice NavChoice) (StructureNavView, error) {
	if e.mode == ModeCombat {
		return StructureNavView{}, fmt.Errorf("%w: finish the fight first", ErrBusy)
	}
	if e.mode != ModeStructure || e.nav == nil {
		return StructureNavView{}, ErrNotInStructure
	}
	n := e.nav
	inst := n.marker.Instance

	node, ok := inst.Steps[n.current()]
	if !ok {
		return StructureNavView{}, e.abortNav(fmt.Errorf("current step %q missing", n.current()))
	}

	switch choice {
	case NavLeave:
		e.nav = nil
		e.mode = ModeRest
		return StructureNavView{
			MarkerID: n.marker.ID,
			Name:     n.marker.Name,
			Messages: []string{"You step away from the structure."},
		}, nil
	case NavBack:
		if len(n.stack) == 1 {
			return StructureNavView{}, ErrNoParent
		}
		n.stack = n.stack[:len(n.stack)-1]
		return e.navView(), nil
	}

	if choice < 0 || int(choice) >= len(node.Options) {
		return StructureNavView{}, fmt.Errorf("%w: option %d", ErrInvalidChoice, int(choice)+1)
	}
	key := node.Options[choice]
	child, ok := inst.Steps[key]
	if !ok {
		return StructureNavView{}, e.abortNav(fmt.Errorf("option %q missing", key))
	}

	var msgs []string
	var grants []loot.Grant
	var fight *CombatView

	switch child.Kind {
	case types.StepBack:
		if len(n.stack) == 1 {
			return StructureNavView{}, ErrNoParent
		}
		n.stack = n.stack[:len(n.stack)-1]
		msgs = append(msgs, child.Text)
	case types.StepBranch:
		inst.Visited.Put(key)
		n.stack = append(n.stack, key)
	case types.StepLeaf:
		inst.Visited.Put(key)
		msgs = append(msgs, child.Text)
	case types.StepLoot:
		if inst.Visited.Has(key) {
			msgs = append(msgs, alreadySearched)
			break
		}
		if _, ok := e.Defs.LootTable(child.LootTable); !ok {
			return StructureNavView{}, e.abortNav(fmt.Errorf("step %q: unknown loot table %q", key, child.LootTable))
		}
		inst.Visited.Put(key)
		msgs = append(msgs, child.Text)
		var err error
		grants, err = e.loot.Draw(child.LootTable, e.Inventory)
		if err != nil {
			return StructureNavView{}, e.abortNav(err)
		}
	case types.StepEncounter:
		if inst.Visited.Has(key) {
			msgs = append(msgs, alreadySearched)
			break
		}
		def, ok := e.Defs.Mutant(child.Mutant)
		if !ok {
			return StructureNavView{}, e.abortNav(fmt.Errorf("step %q: unknown mutant %q", key, child.Mutant))
		}
		inst.Visited.Put(key)
		msgs = append(msgs, child.Text)
		v := e.startMutantCombat(def, true)
		fight = &v
	default:
		return StructureNavView{}, e.abortNav(fmt.Errorf("step %q has unknown kind %q", key, child.Kind))
	}

	e.logger("structure").WithFields(logrus.Fields{
		"marker": n.marker.ID,
		"step":   key,
		"kind":   child.Kind,
	}).Debug("option selected")

	view := e.navView()
	view.Messages = append(msgs, view.Messages...)
	view.Grants = grants
	view.Combat = fight
	return view, nil
}

// abortNav ends navigation after a structural failure.
func (e *Engine) abortNav(cause error) error {
	if e.nav != nil {
		e.logger("structure").WithError(cause).WithField("marker", e.nav.marker.ID).Error("navigation aborted")
	}
	e.nav = nil
	e.combat = nil
	e.mode = ModeRest
	return fmt.Errorf("%w: %v", ErrCorruptStructure, cause)
}

func (e *Engine) navView() StructureNavView {
	n := e.nav
	inst := n.marker.Instance
	key := n.current()
	node := inst.Steps[key]

	view := StructureNavView{
		MarkerID:    n.marker.ID,
		Name:        n.marker.Name,
		Description: inst.Description,
		Active:      true,
		Current:     key,
		Depth:       len(n.stack),
		Text:        node.Text,
		CanGoBack:   len(n.stack) > 1,
	}
	for _, opt := range node.Options {
		view.Options = append(view.Options, NavOption{
			Key:      opt,
			Kind:     inst.Steps[opt].Kind,
			Explored: inst.Visited.Has(opt),
		})
	}
	return view
}
