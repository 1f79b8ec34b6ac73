package engine

import (
	"errors"
	"testing"

	"github.com/zyedidia/generic/mapset"

	"github.com/nathoo/zonecore/types"
)

func TestNavigate_LootOnlyOnce(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())

	view, err := e.Interact(m.ID)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if view.Current != "ENTRANCE" || len(view.Options) != 2 || view.CanGoBack {
		t.Fatalf("entrance view = %+v", view)
	}

	if view, err = e.SelectOption(0); err != nil || view.Current != "ROOM_1" {
		t.Fatalf("ROOM_1: %+v %v", view, err)
	}
	view, err = e.SelectOption(0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(view.Grants) != 1 || e.Inventory.Count("bread") != 1 {
		t.Fatalf("first search grants = %+v", view.Grants)
	}
	if !m.Instance.Visited.Has("ROOM_1_SEARCH") {
		t.Error("search node should be visited")
	}

	before := e.Inventory.Totals()
	view, err = e.SelectOption(0)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if len(view.Grants) != 0 || !outputContains(view.Messages, "already been searched") {
		t.Errorf("second search should be inert: %+v", view)
	}
	if e.Inventory.Count("bread") != before["bread"] {
		t.Error("inventory changed on a re-search")
	}
	if !view.Options[0].Explored {
		t.Error("search option should be marked explored")
	}
}

func TestNavigate_BackNodePops(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())
	e.Interact(m.ID)
	e.SelectOption(1) // ROOM_2

	view, err := e.SelectOption(1) // ROOM_2_BACK
	if err != nil {
		t.Fatalf("back node: %v", err)
	}
	if view.Current != "ENTRANCE" || view.Depth != 1 {
		t.Errorf("view = %+v", view)
	}
	if m.Instance.Visited.Has("ROOM_2_BACK") {
		t.Error("back nodes are not marked visited")
	}
}

func TestNavigate_LeafStays(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())
	e.Interact(m.ID)
	e.SelectOption(1)

	for i := 0; i < 2; i++ {
		view, err := e.SelectOption(0)
		if err != nil {
			t.Fatalf("leaf: %v", err)
		}
		if view.Current != "ROOM_2" || !outputContains(view.Messages, "nothing of value") {
			t.Errorf("pass %d: view = %+v", i, view)
		}
	}
}

func TestNavigate_BackAtEntrance(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())
	e.Interact(m.ID)

	if _, err := e.SelectOption(NavBack); !errors.Is(err, ErrNoParent) {
		t.Errorf("err = %v, want ErrNoParent", err)
	}
	if e.Mode() != ModeStructure {
		t.Error("session should stay open")
	}
}

func TestNavigate_InvalidChoice(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())
	e.Interact(m.ID)

	for _, c := range []NavChoice{2, 99, -7} {
		if _, err := e.SelectOption(c); !errors.Is(err, ErrInvalidChoice) {
			t.Errorf("choice %d: err = %v", c, err)
		}
	}
	if m.Instance.Visited.Size() != 0 {
		t.Error("invalid choices must not mark anything")
	}
}

func TestNavigate_Leave(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())
	e.Interact(m.ID)
	e.SelectOption(0)

	view, err := e.SelectOption(NavLeave)
	if err != nil || view.Active {
		t.Fatalf("leave: %+v %v", view, err)
	}
	if e.Mode() != ModeRest {
		t.Errorf("mode = %s", e.Mode())
	}
	if _, err := e.SelectOption(0); !errors.Is(err, ErrNotInStructure) {
		t.Errorf("err = %v", err)
	}

	// Re-entering starts at the entrance and keeps visited marks.
	view, _ = e.Interact(m.ID)
	if view.Current != "ENTRANCE" || !view.Options[0].Explored {
		t.Errorf("re-entry view = %+v", view)
	}
}

func encounterInstance(mutant string) *types.StructureInstance {
	return &types.StructureInstance{
		Category:    "Ruined Outpost #1",
		InitialStep: "ENTRANCE",
		Steps: map[string]types.StepNode{
			"ENTRANCE": {Kind: types.StepBranch, Text: "Entrance.", Options: []string{"UNDERGROUND"}},
			"UNDERGROUND": {
				Kind:    types.StepBranch,
				Text:    "A hatch opens.",
				Options: []string{"TUNNEL_1", "TUNNEL_2"},
			},
			"TUNNEL_1": {Kind: types.StepEncounter, Text: "Something skitters.", Mutant: mutant},
			"TUNNEL_2": {Kind: types.StepLoot, Text: "An alcove.", LootTable: "SPECIAL"},
		},
		Visited: mapset.New[string](),
	}
}

func TestNavigate_EncounterReturnsToStructure(t *testing.T) {
	e := newTestEngine(t)
	e.Defs.Mutants["rat"] = types.MutantDef{ID: "rat", Name: "Rat", Health: 1, Damage: 1}
	m := placeMarker(e, encounterInstance("rat"))
	e.Interact(m.ID)
	e.SelectOption(0)

	view, err := e.SelectOption(0)
	if err != nil {
		t.Fatalf("tunnel: %v", err)
	}
	if view.Combat == nil || view.Combat.Name != "Rat" || e.Mode() != ModeCombat {
		t.Fatalf("expected a fight: %+v mode=%s", view, e.Mode())
	}
	if _, err := e.SelectOption(1); !errors.Is(err, ErrBusy) {
		t.Errorf("navigating mid-fight: err = %v", err)
	}

	res, err := e.CombatAction(ActionAttack)
	if err != nil || res.Outcome != CombatVictory {
		t.Fatalf("attack: %+v %v", res, err)
	}
	if e.Mode() != ModeStructure {
		t.Fatalf("mode = %s, want structure", e.Mode())
	}
	view, _ = e.NavView()
	if view.Current != "UNDERGROUND" {
		t.Errorf("should resume at the same depth, got %s", view.Current)
	}

	// The encounter is spent; no back node underground, but back still pops.
	if view, _ = e.SelectOption(0); view.Combat != nil || e.Mode() != ModeStructure {
		t.Error("a resolved encounter must be inert")
	}
	if view, err = e.SelectOption(NavBack); err != nil || view.Current != "ENTRANCE" {
		t.Errorf("back from underground: %+v %v", view, err)
	}
}

func TestNavigate_DefeatEndsExploration(t *testing.T) {
	e := newTestEngine(t)
	e.Defs.Mutants["chimera"] = types.MutantDef{ID: "chimera", Name: "Chimera", Health: 1000, Damage: 200}
	m := placeMarker(e, encounterInstance("chimera"))
	e.Interact(m.ID)
	e.SelectOption(0)
	e.SelectOption(0)

	res, _ := e.CombatAction(ActionAttack)
	if res.Outcome != CombatDefeat {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if e.Mode() != ModeRest {
		t.Errorf("mode = %s, want exploring", e.Mode())
	}
	if _, err := e.NavView(); !errors.Is(err, ErrNotInStructure) {
		t.Error("navigation should have ended")
	}
}

func TestNavigate_CorruptAborts(t *testing.T) {
	e := newTestEngine(t)
	inst := twoRoomInstance()
	node := inst.Steps["ROOM_1_SEARCH"]
	node.LootTable = "MISSING"
	inst.Steps["ROOM_1_SEARCH"] = node
	m := placeMarker(e, inst)
	e.Interact(m.ID)
	e.SelectOption(0)

	_, err := e.SelectOption(0)
	if !errors.Is(err, ErrCorruptStructure) || Classify(err) != KindStructural {
		t.Fatalf("err = %v", err)
	}
	if e.Mode() != ModeRest {
		t.Errorf("mode = %s", e.Mode())
	}
	if inst.Visited.Has("ROOM_1_SEARCH") {
		t.Error("a failed node must not be marked visited")
	}
}

func TestInteract_Rejects(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, twoRoomInstance())

	if _, err := e.Interact("nope"); !errors.Is(err, ErrUnknownMarker) {
		t.Errorf("unknown marker: %v", err)
	}

	e.State.Player.X = 5
	if _, err := e.Interact(m.ID); !errors.Is(err, ErrNotHere) {
		t.Errorf("elsewhere: %v", err)
	}

	e.State.Player.X = 0
	m.Instance.InitialStep = "GONE"
	if _, err := e.Interact(m.ID); !errors.Is(err, ErrCorruptStructure) {
		t.Errorf("corrupt: %v", err)
	}
	if e.Mode() != ModeRest {
		t.Error("a failed interact leaves the player outside")
	}
}

func TestInteract_GeneratesLazily(t *testing.T) {
	e := newTestEngine(t)
	m := placeMarker(e, nil)

	view, err := e.Interact(m.ID)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if m.Instance == nil {
		t.Fatal("instance should be generated on first entry")
	}
	if view.Current != "ENTRANCE" || len(view.Options) == 0 {
		t.Errorf("view = %+v", view)
	}
}

func TestInteractAt_Index(t *testing.T) {
	e := newTestEngine(t)
	placeMarker(e, twoRoomInstance())
	second := placeMarker(e, encounterInstance("flesh"))
	second.ID = "marker-2"
	second.Name = "Ruined Outpost #7"

	view, err := e.InteractAt(2)
	if err != nil {
		t.Fatalf("InteractAt: %v", err)
	}
	if view.MarkerID != "marker-2" {
		t.Errorf("entered %s", view.MarkerID)
	}
	e.SelectOption(NavLeave)

	if _, err := e.InteractAt(3); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("err = %v", err)
	}
}
