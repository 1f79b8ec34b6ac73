package inventory

// CellView is a read-only rendering of one cell.
type CellView struct {
	Kind     CellKind
	ItemID   string
	Quantity int // origin cells only
	Width    int
	Height   int
	Origin   Pos
}

// Snapshot returns a rows×cols read-only view of the grid.
func (g *Grid) Snapshot() [][]CellView {
	out := make([][]CellView, g.rows)
	for r := 0; r < g.rows; r++ {
		out[r] = make([]CellView, g.cols)
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r][c]
			switch cell.Kind {
			case CellOrigin:
				st := cell.Stack
				out[r][c] = CellView{
					Kind:     CellOrigin,
					ItemID:   st.ItemID,
					Quantity: st.Quantity,
					Width:    st.Width,
					Height:   st.Height,
					Origin:   Pos{Row: r, Col: c},
				}
			case CellOccupied:
				st := g.cells[cell.Origin.Row][cell.Origin.Col].Stack
				out[r][c] = CellView{
					Kind:   CellOccupied,
					ItemID: st.ItemID,
					Width:  st.Width,
					Height: st.Height,
					Origin: cell.Origin,
				}
			}
		}
	}
	return out
}
