package inventory

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/nathoo/zonecore/types"
)

type testItems map[string]types.ItemDef

func (t testItems) Item(id string) (types.ItemDef, bool) {
	d, ok := t[id]
	return d, ok
}

func catalog() testItems {
	return testItems{
		"pistol":   {ID: "pistol", Width: 2, Height: 1},
		"ammo":     {ID: "ammo", Width: 1, Height: 1, Stackable: true},
		"dressing": {ID: "dressing", Width: 1, Height: 1, Stackable: true},
		"mask":     {ID: "mask", Width: 2, Height: 2},
		"pda":      {ID: "pda", Width: 1, Height: 1},
	}
}

// checkInvariants verifies that every occupied cell points at a valid origin
// whose rectangle covers it, and that no two stacks overlap.
func checkInvariants(t *testing.T, g *Grid) {
	t.Helper()
	owner := make([][]*Stack, g.rows)
	for r := range owner {
		owner[r] = make([]*Stack, g.cols)
	}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r][c]
			if cell.Kind != CellOrigin {
				continue
			}
			st := cell.Stack
			if st.Quantity < 1 {
				t.Fatalf("stack %s at (%d,%d) has quantity %d", st.ItemID, r, c, st.Quantity)
			}
			if r+st.Height > g.rows || c+st.Width > g.cols {
				t.Fatalf("stack %s at (%d,%d) leaves the grid", st.ItemID, r, c)
			}
			for rr := r; rr < r+st.Height; rr++ {
				for cc := c; cc < c+st.Width; cc++ {
					if owner[rr][cc] != nil {
						t.Fatalf("cell (%d,%d) claimed by %s and %s", rr, cc, owner[rr][cc].ItemID, st.ItemID)
					}
					owner[rr][cc] = st
				}
			}
		}
	}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r][c]
			switch cell.Kind {
			case CellEmpty:
				if owner[r][c] != nil {
					t.Fatalf("cell (%d,%d) empty but covered by %s", r, c, owner[r][c].ItemID)
				}
			case CellOccupied:
				o := g.cells[cell.Origin.Row][cell.Origin.Col]
				if o.Kind != CellOrigin || owner[r][c] != o.Stack {
					t.Fatalf("cell (%d,%d) back-reference %v is invalid", r, c, cell.Origin)
				}
			}
		}
	}
}

func TestAdd_PlacesFootprintRowMajor(t *testing.T) {
	g := New(6, 8, catalog())

	outcome, pos, err := g.Add("pistol", 1)
	if err != nil {
		t.Fatalf("Add pistol: %v", err)
	}
	if outcome != Placed || pos != (Pos{0, 0}) {
		t.Errorf("got %v at %v, want new slot at (0,0)", outcome, pos)
	}
	if g.cells[0][1].Kind != CellOccupied || g.cells[0][1].Origin != (Pos{0, 0}) {
		t.Errorf("cell (0,1) should be occupied by origin (0,0), got %+v", g.cells[0][1])
	}

	_, pos, err = g.Add("pda", 1)
	if err != nil {
		t.Fatalf("Add pda: %v", err)
	}
	if pos != (Pos{0, 2}) {
		t.Errorf("pda placed at %v, want (0,2)", pos)
	}
	checkInvariants(t, g)
}

func TestAdd_StacksInPlace(t *testing.T) {
	g := New(6, 8, catalog())

	if _, _, err := g.Add("pistol", 1); err != nil {
		t.Fatal(err)
	}
	outcome, first, err := g.Add("ammo", 12)
	if err != nil || outcome != Placed {
		t.Fatalf("first ammo add: outcome %v err %v", outcome, err)
	}
	if _, _, err := g.Add("pda", 1); err != nil {
		t.Fatal(err)
	}
	outcome, second, err := g.Add("ammo", 3)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Stacked || second != first {
		t.Errorf("second ammo add: %v at %v, want stacked at %v", outcome, second, first)
	}
	if got := g.Count("ammo"); got != 15 {
		t.Errorf("ammo count = %d, want 15", got)
	}
	if len(g.Stacks()) != 3 {
		t.Errorf("expected 3 stacks, got %d", len(g.Stacks()))
	}
}

func TestAdd_NonStackableGetsNewSlot(t *testing.T) {
	g := New(2, 2, catalog())

	g.Add("pda", 1)
	outcome, pos, err := g.Add("pda", 1)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Placed || pos != (Pos{0, 1}) {
		t.Errorf("got %v at %v, want new slot at (0,1)", outcome, pos)
	}
	if g.Count("pda") != 2 {
		t.Errorf("pda count = %d, want 2", g.Count("pda"))
	}
}

func TestAdd_InventoryFull(t *testing.T) {
	g := New(2, 3, catalog())
	g.Add("pda", 1)
	g.Add("pda", 1)
	g.Add("pda", 1) // top row full; bottom row is free but only 1 tall

	before := g.Snapshot()
	_, _, err := g.Add("mask", 1)
	if !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("expected ErrInventoryFull, got %v", err)
	}
	after := g.Snapshot()
	for r := range before {
		for c := range before[r] {
			if before[r][c] != after[r][c] {
				t.Fatalf("grid changed at (%d,%d) after failed add", r, c)
			}
		}
	}
}

func TestAdd_Rejects(t *testing.T) {
	g := New(2, 2, catalog())

	if _, _, err := g.Add("ghost", 1); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: got %v", err)
	}
	if _, _, err := g.Add("ammo", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v", err)
	}
}

func TestRemove(t *testing.T) {
	g := New(6, 8, catalog())
	g.Add("ammo", 12)

	if err := g.Remove("ammo", 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if g.Count("ammo") != 11 {
		t.Errorf("ammo = %d, want 11", g.Count("ammo"))
	}

	if err := g.Remove("ammo", 50); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("expected ErrInsufficientQuantity, got %v", err)
	}
	if g.Count("ammo") != 11 {
		t.Errorf("failed remove changed count to %d", g.Count("ammo"))
	}

	if err := g.Remove("ammo", 11); err != nil {
		t.Fatal(err)
	}
	if g.cells[0][0].Kind != CellEmpty {
		t.Error("stack reaching zero should clear its cell")
	}
	if _, ok := g.Totals()["ammo"]; ok {
		t.Error("totals should not list an emptied item")
	}
}

func TestRemove_ClearsWholeFootprint(t *testing.T) {
	g := New(3, 3, catalog())
	g.Add("mask", 1)

	if err := g.Remove("mask", 1); err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if g.cells[r][c].Kind != CellEmpty {
				t.Fatalf("cell (%d,%d) not cleared", r, c)
			}
		}
	}
}

func TestMove(t *testing.T) {
	g := New(4, 4, catalog())
	g.Add("mask", 1) // (0,0)-(1,1)
	g.Add("pda", 1)  // (0,2)

	if err := g.Move(Pos{1, 1}, Pos{0, 2}); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("move onto pda: got %v", err)
	}
	if err := g.Move(Pos{0, 0}, Pos{3, 3}); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("move off the edge: got %v", err)
	}
	if err := g.Move(Pos{0, 0}, Pos{9, 9}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("move out of bounds: got %v", err)
	}

	// The destination must be empty, even of the moving stack's own cells.
	if err := g.Move(Pos{1, 1}, Pos{1, 0}); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("move onto own region: got %v", err)
	}
	if err := g.Move(Pos{0, 0}, Pos{0, 0}); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("move onto own origin: got %v", err)
	}
	if st, origin, ok := g.StackAt(Pos{1, 1}); !ok || st.ItemID != "mask" || origin != (Pos{0, 0}) {
		t.Errorf("rejected move changed the grid: %+v %v %v", st, origin, ok)
	}

	// Move via an occupied (non-origin) cell into an empty region.
	if err := g.Move(Pos{1, 1}, Pos{2, 0}); err != nil {
		t.Fatalf("move mask down: %v", err)
	}
	st, origin, ok := g.StackAt(Pos{3, 1})
	if !ok || st.ItemID != "mask" || origin != (Pos{2, 0}) {
		t.Errorf("StackAt(3,1) = %+v %v %v", st, origin, ok)
	}
	if g.cells[0][0].Kind != CellEmpty {
		t.Error("old origin should be empty after move")
	}
	checkInvariants(t, g)

	if err := g.Move(Pos{3, 3}, Pos{0, 0}); !errors.Is(err, ErrNoStack) {
		t.Errorf("move from empty cell: got %v", err)
	}
}

func TestDecrementAndClearAt(t *testing.T) {
	g := New(2, 4, catalog())
	g.Add("pistol", 1)
	g.Add("dressing", 2)

	if err := g.DecrementAt(Pos{0, 2}, 1); err != nil {
		t.Fatal(err)
	}
	if g.Count("dressing") != 1 {
		t.Errorf("dressing = %d, want 1", g.Count("dressing"))
	}
	if err := g.DecrementAt(Pos{0, 2}, 5); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("expected ErrInsufficientQuantity, got %v", err)
	}

	st, err := g.ClearAt(Pos{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if st.ItemID != "pistol" {
		t.Errorf("cleared %s, want pistol", st.ItemID)
	}
	if g.cells[0][0].Kind != CellEmpty || g.cells[0][1].Kind != CellEmpty {
		t.Error("pistol cells not cleared")
	}
}

func TestPlace(t *testing.T) {
	g := New(3, 3, catalog())

	if err := g.Place(Pos{1, 1}, "mask", 1); err != nil {
		t.Fatal(err)
	}
	if err := g.Place(Pos{0, 0}, "mask", 1); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("overlapping place: got %v", err)
	}
	if err := g.Place(Pos{2, 2}, "mask", 1); !errors.Is(err, ErrDestinationBlocked) {
		t.Errorf("edge place: got %v", err)
	}
	checkInvariants(t, g)
}

func TestCloneIsIndependent(t *testing.T) {
	g := New(2, 2, catalog())
	g.Add("ammo", 5)

	c := g.Clone()
	c.Remove("ammo", 5)

	if g.Count("ammo") != 5 {
		t.Errorf("original changed: ammo = %d", g.Count("ammo"))
	}
	g.CopyFrom(c)
	if g.Count("ammo") != 0 {
		t.Errorf("CopyFrom did not apply: ammo = %d", g.Count("ammo"))
	}
}

func TestSnapshot(t *testing.T) {
	g := New(2, 3, catalog())
	g.Add("pistol", 1)

	snap := g.Snapshot()
	if snap[0][0].Kind != CellOrigin || snap[0][0].ItemID != "pistol" || snap[0][0].Quantity != 1 {
		t.Errorf("origin view = %+v", snap[0][0])
	}
	if snap[0][1].Kind != CellOccupied || snap[0][1].Origin != (Pos{0, 0}) {
		t.Errorf("occupied view = %+v", snap[0][1])
	}
	if snap[1][2].Kind != CellEmpty {
		t.Errorf("empty view = %+v", snap[1][2])
	}
}

func TestRandomOperations_KeepInvariants(t *testing.T) {
	ids := []string{"pistol", "ammo", "dressing", "mask", "pda"}
	r := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		g := New(4, 5, catalog())
		want := map[string]int{}

		for step := 0; step < 60; step++ {
			switch r.Intn(3) {
			case 0:
				id := ids[r.Intn(len(ids))]
				qty := 1 + r.Intn(4)
				if _, _, err := g.Add(id, qty); err == nil {
					want[id] += qty
				} else if !errors.Is(err, ErrInventoryFull) {
					t.Fatalf("Add: %v", err)
				}
			case 1:
				id := ids[r.Intn(len(ids))]
				qty := 1 + r.Intn(3)
				if err := g.Remove(id, qty); err == nil {
					want[id] -= qty
				} else if !errors.Is(err, ErrInsufficientQuantity) {
					t.Fatalf("Remove: %v", err)
				}
			case 2:
				from := Pos{r.Intn(4), r.Intn(5)}
				to := Pos{r.Intn(4), r.Intn(5)}
				err := g.Move(from, to)
				if err != nil && !errors.Is(err, ErrDestinationBlocked) && !errors.Is(err, ErrNoStack) {
					t.Fatalf("Move: %v", err)
				}
			}
			checkInvariants(t, g)
		}

		got := g.Totals()
		for id, n := range want {
			if got[id] != n {
				t.Fatalf("trial %d: total %s = %d, want %d", trial, id, got[id], n)
			}
		}
	}
}
