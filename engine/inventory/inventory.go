// Package inventory implements the spatial backpack: a fixed grid of cells in
// which items occupy width×height rectangles, stack when allowed, and can be
// moved only onto free space.
package inventory

import (
	"errors"
	"fmt"

	"github.com/nathoo/zonecore/types"
)

var (
	ErrInventoryFull        = errors.New("inventory is full")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrDestinationBlocked   = errors.New("destination blocked")
	ErrOutOfBounds          = errors.New("position out of bounds")
	ErrNoStack              = errors.New("no item at that position")
	ErrUnknownItem          = errors.New("unknown item")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
)

// ItemLookup resolves catalog item definitions.
type ItemLookup interface {
	Item(id string) (types.ItemDef, bool)
}

// Pos is a grid coordinate, zero-based.
type Pos struct {
	Row int
	Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Stack is a placed quantity of one item.
type Stack struct {
	ItemID   string
	Quantity int
	Width    int
	Height   int
}

// CellKind tags the content of a cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellOrigin
	CellOccupied
)

// Cell is Empty, the Origin of a stack, or Occupied by a stack whose
// origin lies elsewhere.
type Cell struct {
	Kind   CellKind
	Stack  *Stack // CellOrigin only
	Origin Pos    // CellOccupied only
}

// AddOutcome reports how Add stored an item.
type AddOutcome int

const (
	Placed AddOutcome = iota + 1
	Stacked
)

func (o AddOutcome) String() string {
	switch o {
	case Placed:
		return "new slot"
	case Stacked:
		return "stacked"
	default:
		return "not added"
	}
}

// Placement is a stack together with its origin.
type Placement struct {
	Origin Pos
	Stack  Stack
}

// Grid is the inventory. It is not safe for concurrent use; each session
// owns its own Grid.
type Grid struct {
	rows  int
	cols  int
	cells [][]Cell
	items ItemLookup
}

// New creates an empty rows×cols grid.
func New(rows, cols int, items ItemLookup) *Grid {
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: cells, items: items}
}

// Rows returns the grid height in cells.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width in cells.
func (g *Grid) Cols() int { return g.cols }

// Add stores qty of itemID. Stackable items join an existing stack in place;
// everything else goes to the first row-major origin where the whole
// footprint fits. Returns ErrInventoryFull without modifying the grid when
// there is no room.
func (g *Grid) Add(itemID string, qty int) (AddOutcome, Pos, error) {
	if qty < 1 {
		return 0, Pos{}, ErrInvalidQuantity
	}
	def, ok := g.items.Item(itemID)
	if !ok {
		return 0, Pos{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}

	if def.Stackable {
		if origin, st, ok := g.find(func(s *Stack) bool { return s.ItemID == itemID }); ok {
			st.Quantity += qty
			return Stacked, origin, nil
		}
	}

	w, h := footprint(def)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			origin := Pos{Row: r, Col: c}
			if g.fits(origin, w, h) {
				g.place(origin, &Stack{ItemID: itemID, Quantity: qty, Width: w, Height: h})
				return Placed, origin, nil
			}
		}
	}
	return 0, Pos{}, fmt.Errorf("%w: no room for %s", ErrInventoryFull, itemID)
}

// Remove takes amount from the first stack of itemID that holds at least
// that many. A stack reaching zero is cleared from the grid.
func (g *Grid) Remove(itemID string, amount int) error {
	if amount < 1 {
		return ErrInvalidQuantity
	}
	origin, st, ok := g.find(func(s *Stack) bool {
		return s.ItemID == itemID && s.Quantity >= amount
	})
	if !ok {
		return fmt.Errorf("%w: need %d %s", ErrInsufficientQuantity, amount, itemID)
	}
	g.decrement(origin, st, amount)
	return nil
}

// DecrementAt takes n from the stack covering p.
func (g *Grid) DecrementAt(p Pos, n int) error {
	if n < 1 {
		return ErrInvalidQuantity
	}
	origin, err := g.originOf(p)
	if err != nil {
		return err
	}
	st := g.cells[origin.Row][origin.Col].Stack
	if st.Quantity < n {
		return fmt.Errorf("%w: need %d %s", ErrInsufficientQuantity, n, st.ItemID)
	}
	g.decrement(origin, st, n)
	return nil
}

// ClearAt removes the whole stack covering p and returns it.
func (g *Grid) ClearAt(p Pos) (Stack, error) {
	origin, err := g.originOf(p)
	if err != nil {
		return Stack{}, err
	}
	st := *g.cells[origin.Row][origin.Col].Stack
	g.clear(origin, st.Width, st.Height)
	return st, nil
}

// Move relocates the stack covering from so that its origin lands on to.
// The destination region must be entirely empty, including cells the
// stack itself covers.
func (g *Grid) Move(from, to Pos) error {
	origin, err := g.originOf(from)
	if err != nil {
		return err
	}
	if !g.inBounds(to) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, to)
	}
	st := g.cells[origin.Row][origin.Col].Stack
	if !g.fits(to, st.Width, st.Height) {
		return fmt.Errorf("%w: %s cannot go to %s", ErrDestinationBlocked, st.ItemID, to)
	}
	g.clear(origin, st.Width, st.Height)
	g.place(to, st)
	return nil
}

// Place puts a new stack at an exact origin. Used when restoring a saved grid.
func (g *Grid) Place(origin Pos, itemID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	def, ok := g.items.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if !g.inBounds(origin) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, origin)
	}
	w, h := footprint(def)
	if !g.fits(origin, w, h) {
		return fmt.Errorf("%w: %s at %s", ErrDestinationBlocked, itemID, origin)
	}
	g.place(origin, &Stack{ItemID: itemID, Quantity: qty, Width: w, Height: h})
	return nil
}

// StackAt resolves the stack covering p, following back-references.
func (g *Grid) StackAt(p Pos) (Stack, Pos, bool) {
	origin, err := g.originOf(p)
	if err != nil {
		return Stack{}, Pos{}, false
	}
	return *g.cells[origin.Row][origin.Col].Stack, origin, true
}

// FindFirst returns the first stack in row-major order matching pred.
func (g *Grid) FindFirst(pred func(Stack) bool) (Placement, bool) {
	origin, st, ok := g.find(func(s *Stack) bool { return pred(*s) })
	if !ok {
		return Placement{}, false
	}
	return Placement{Origin: origin, Stack: *st}, true
}

// Totals returns the summed quantity per item across all stacks.
func (g *Grid) Totals() map[string]int {
	counts := map[string]int{}
	for _, p := range g.Stacks() {
		counts[p.Stack.ItemID] += p.Stack.Quantity
	}
	return counts
}

// Count returns the summed quantity of one item.
func (g *Grid) Count(itemID string) int {
	return g.Totals()[itemID]
}

// Stacks lists every stack in row-major order of origins.
func (g *Grid) Stacks() []Placement {
	var out []Placement
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r][c]
			if cell.Kind == CellOrigin {
				out = append(out, Placement{Origin: Pos{Row: r, Col: c}, Stack: *cell.Stack})
			}
		}
	}
	return out
}

// Cell returns a copy of the cell at p.
func (g *Grid) Cell(p Pos) Cell {
	if !g.inBounds(p) {
		return Cell{}
	}
	cell := g.cells[p.Row][p.Col]
	if cell.Stack != nil {
		st := *cell.Stack
		cell.Stack = &st
	}
	return cell
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := New(g.rows, g.cols, g.items)
	c.CopyFrom(g)
	return c
}

// CopyFrom replaces the contents of g with a deep copy of src.
func (g *Grid) CopyFrom(src *Grid) {
	g.rows, g.cols = src.rows, src.cols
	g.cells = make([][]Cell, src.rows)
	for r := range g.cells {
		g.cells[r] = make([]Cell, src.cols)
	}
	for _, p := range src.Stacks() {
		st := p.Stack
		g.place(p.Origin, &st)
	}
}

func (g *Grid) inBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) originOf(p Pos) (Pos, error) {
	if !g.inBounds(p) {
		return Pos{}, fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	cell := g.cells[p.Row][p.Col]
	switch cell.Kind {
	case CellOrigin:
		return p, nil
	case CellOccupied:
		return cell.Origin, nil
	default:
		return Pos{}, fmt.Errorf("%w: %s", ErrNoStack, p)
	}
}

func (g *Grid) find(pred func(*Stack) bool) (Pos, *Stack, bool) {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r][c]
			if cell.Kind == CellOrigin && pred(cell.Stack) {
				return Pos{Row: r, Col: c}, cell.Stack, true
			}
		}
	}
	return Pos{}, nil, false
}

// fits reports whether a w×h region at origin is in bounds and empty.
func (g *Grid) fits(origin Pos, w, h int) bool {
	if origin.Row < 0 || origin.Col < 0 || origin.Row+h > g.rows || origin.Col+w > g.cols {
		return false
	}
	for r := origin.Row; r < origin.Row+h; r++ {
		for c := origin.Col; c < origin.Col+w; c++ {
			if g.cells[r][c].Kind != CellEmpty {
				return false
			}
		}
	}
	return true
}

func (g *Grid) place(origin Pos, st *Stack) {
	for r := origin.Row; r < origin.Row+st.Height; r++ {
		for c := origin.Col; c < origin.Col+st.Width; c++ {
			g.cells[r][c] = Cell{Kind: CellOccupied, Origin: origin}
		}
	}
	g.cells[origin.Row][origin.Col] = Cell{Kind: CellOrigin, Stack: st}
}

func (g *Grid) clear(origin Pos, w, h int) {
	for r := origin.Row; r < origin.Row+h && r < g.rows; r++ {
		for c := origin.Col; c < origin.Col+w && c < g.cols; c++ {
			g.cells[r][c] = Cell{}
		}
	}
}

func (g *Grid) decrement(origin Pos, st *Stack, n int) {
	st.Quantity -= n
	if st.Quantity <= 0 {
		g.clear(origin, st.Width, st.Height)
	}
}

func footprint(def types.ItemDef) (w, h int) {
	w, h = def.Width, def.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
