package structure

import (
	"math/rand"
	"testing"

	"github.com/nathoo/zonecore/types"
)

// scripted replays queued ints and floats.
type scripted struct {
	ints   []int
	floats []float64
}

func (s *scripted) Between(lo, hi int) int { return s.int() }
func (s *scripted) Intn(n int) int         { return s.int() }

func (s *scripted) int() int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

type seeded struct{ r *rand.Rand }

func (s seeded) Between(lo, hi int) int { return lo + s.r.Intn(hi-lo+1) }
func (s seeded) Intn(n int) int         { return s.r.Intn(n) }
func (s seeded) Float64() float64       { return s.r.Float64() }

func testOptions() Options {
	return Options{
		CommonLoot:  "COMMON",
		RareLoot:    "RARE",
		SpecialLoot: "STRUCTURE_SPECIAL",
		Mutants: []types.MutantDef{
			{ID: "blind_dog", Name: "Blind Dog"},
			{ID: "snork", Name: "Snork"},
		},
		Descriptions: []string{"A partially collapsed building."},
	}
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(testOptions())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestBuild_TwoRoomsNoUnderground(t *testing.T) {
	g := newGenerator(t)
	// room 1: loot (0.1) from common (0.5); room 2: leaf (0.95)
	rng := &scripted{ints: []int{0}, floats: []float64{0.1, 0.5, 0.95}}

	inst := g.Build("Old Factory Warehouse", Layout{Rooms: 2}, rng)

	if err := Validate(inst); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	entrance := inst.Steps[Entrance]
	if len(entrance.Options) != 2 || entrance.Options[0] != "ROOM_1" || entrance.Options[1] != "ROOM_2" {
		t.Errorf("entrance options = %v", entrance.Options)
	}
	if _, ok := inst.Steps[Underground]; ok {
		t.Error("underground should not exist")
	}

	room := inst.Steps["ROOM_1"]
	if room.Kind != types.StepBranch || room.Options[0] != "ROOM_1_SEARCH" || room.Options[1] != "ROOM_1_BACK" {
		t.Errorf("ROOM_1 = %+v", room)
	}
	if s := inst.Steps["ROOM_1_SEARCH"]; s.Kind != types.StepLoot || s.LootTable != "COMMON" {
		t.Errorf("ROOM_1_SEARCH = %+v", s)
	}
	if s := inst.Steps["ROOM_2_SEARCH"]; s.Kind != types.StepLeaf {
		t.Errorf("ROOM_2_SEARCH = %+v", s)
	}
	if b := inst.Steps["ROOM_1_BACK"]; b.Kind != types.StepBack {
		t.Errorf("ROOM_1_BACK = %+v", b)
	}
	if inst.Visited.Size() != 0 {
		t.Error("fresh instance should have no visited nodes")
	}
	if inst.Description != "A partially collapsed building. (Source: Old Factory Warehouse)" {
		t.Errorf("description = %q", inst.Description)
	}
}

func TestBuild_SearchOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		floats []float64
		ints   []int
		kind   types.StepKind
		table  string
		mutant string
	}{
		{"common loot", []float64{0.54, 0.79}, nil, types.StepLoot, "COMMON", ""},
		{"rare loot", []float64{0.2, 0.8}, nil, types.StepLoot, "RARE", ""},
		{"encounter", []float64{0.55}, []int{1}, types.StepEncounter, "", "snork"},
		{"encounter upper edge", []float64{0.79}, []int{0}, types.StepEncounter, "", "blind_dog"},
		{"nothing", []float64{0.85}, nil, types.StepLeaf, "", ""},
	}

	g := newGenerator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := &scripted{ints: append(tt.ints, 0), floats: tt.floats}
			inst := g.Build("x", Layout{Rooms: 1}, rng)
			node := inst.Steps["ROOM_1_SEARCH"]
			if node.Kind != tt.kind || node.LootTable != tt.table || node.Mutant != tt.mutant {
				t.Errorf("got %+v", node)
			}
		})
	}
}

func TestBuild_Underground(t *testing.T) {
	g := newGenerator(t)
	// room leaf, tunnel 1 encounter (mutant 0), tunnel 2 special loot
	rng := &scripted{ints: []int{0, 0}, floats: []float64{0.9, 0.3, 0.7}}

	inst := g.Build("x", Layout{Rooms: 1, Underground: true}, rng)

	if err := Validate(inst); err != nil {
		t.Fatal(err)
	}
	entrance := inst.Steps[Entrance]
	if entrance.Options[len(entrance.Options)-1] != Underground {
		t.Errorf("underground should be the last entrance option: %v", entrance.Options)
	}
	if n := inst.Steps["TUNNEL_1"]; n.Kind != types.StepEncounter || n.Mutant != "blind_dog" {
		t.Errorf("TUNNEL_1 = %+v", n)
	}
	if n := inst.Steps["TUNNEL_2"]; n.Kind != types.StepLoot || n.LootTable != "STRUCTURE_SPECIAL" {
		t.Errorf("TUNNEL_2 = %+v", n)
	}
}

func TestGenerate_AlwaysValid(t *testing.T) {
	g := newGenerator(t)
	rng := seeded{rand.New(rand.NewSource(42))}
	rooms := map[int]bool{}
	underground := 0

	for i := 0; i < 500; i++ {
		inst := g.Generate("Ruined Outpost #7", rng)
		if err := Validate(inst); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		n := 0
		for _, opt := range inst.Steps[Entrance].Options {
			if opt == Underground {
				underground++
			} else {
				n++
			}
		}
		if n < 1 || n > 4 {
			t.Fatalf("room count %d outside [1,4]", n)
		}
		rooms[n] = true
	}
	if len(rooms) != 4 {
		t.Errorf("expected every room count to appear, saw %v", rooms)
	}
	if underground < 100 || underground > 200 {
		t.Errorf("underground appeared %d/500 times, want about 150", underground)
	}
}

func TestNewGenerator_RequiresMutants(t *testing.T) {
	if _, err := NewGenerator(Options{}); err != ErrNoMutants {
		t.Errorf("got %v, want ErrNoMutants", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		inst *types.StructureInstance
	}{
		{"nil", nil},
		{"missing initial", &types.StructureInstance{InitialStep: "ENTRANCE", Steps: map[string]types.StepNode{}}},
		{"initial not branch", &types.StructureInstance{
			InitialStep: "ENTRANCE",
			Steps:       map[string]types.StepNode{"ENTRANCE": {Kind: types.StepLeaf}},
		}},
		{"dangling option", &types.StructureInstance{
			InitialStep: "ENTRANCE",
			Steps: map[string]types.StepNode{
				"ENTRANCE": {Kind: types.StepBranch, Options: []string{"ROOM_9"}},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.inst); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
