package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/zonecore/engine"
	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/state"
)

// lowHealth is where the health readout turns red.
const lowHealth = 30

// renderStatusBar produces a full-width inverted status line showing
// health, position, mode and turn count.
func (m Model) renderStatusBar() string {
	st := m.engine.Status()

	health := fmt.Sprintf("HP %d/%d", st.Health, state.MaxHealth)
	if st.Health <= lowHealth {
		health = styleStatusDanger.Render(health)
	}

	left := fmt.Sprintf(" %s | %s | (%d, %d) %s", st.Name, health, st.X, st.Y, st.Location)

	var mode string
	switch st.Mode {
	case engine.ModeCombat:
		mode = fmt.Sprintf("combat: %s %d", st.Opponent, st.OpponentHealth)
	case engine.ModeStructure:
		mode = "exploring " + st.Structure
	default:
		mode = st.Mode.String()
	}
	right := fmt.Sprintf("%s | T:%d ", mode, st.Turn)

	// Drop the location name before the right side.
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > m.width {
		left = fmt.Sprintf(" %s | (%d, %d)", health, st.X, st.Y)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

// panelLabels assigns a letter to each stack in reading order.
func panelLabels(grid [][]inventory.CellView) (map[inventory.Pos]rune, []inventory.CellView) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	labels := map[inventory.Pos]rune{}
	var origins []inventory.CellView
	for _, row := range grid {
		for _, cell := range row {
			if cell.Kind != inventory.CellOrigin {
				continue
			}
			label := '#'
			if len(origins) < len(letters) {
				label = rune(letters[len(origins)])
			}
			labels[cell.Origin] = label
			origins = append(origins, cell)
		}
	}
	return labels, origins
}

// renderInventoryPanel draws the backpack grid with a legend.
func (m Model) renderInventoryPanel(height int) string {
	grid := m.engine.InventorySnapshot()
	labels, origins := panelLabels(grid)

	lines := []string{stylePanelTitle.Render("Backpack")}
	for _, row := range grid {
		var b strings.Builder
		for c, cell := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			if cell.Kind == inventory.CellEmpty {
				b.WriteString(styleCellEmpty.Render("."))
				continue
			}
			b.WriteRune(labels[cell.Origin])
		}
		lines = append(lines, b.String())
	}
	lines = append(lines, "")

	for _, cell := range origins {
		name := m.defs.ItemName(cell.ItemID)
		if len(name) > panelNameWidth {
			name = name[:panelNameWidth-1] + "…"
		}
		lines = append(lines, fmt.Sprintf("%c %-*s x%d", labels[cell.Origin], panelNameWidth, name, cell.Quantity))
	}
	if len(origins) == 0 {
		lines = append(lines, styleCellEmpty.Render("(empty)"))
	}

	// Keep within the viewport, leaving room for the border.
	if limit := height - 2; limit > 0 && len(lines) > limit {
		lines = append(lines[:limit-1], styleCellEmpty.Render("…"))
	}

	return stylePanel.Render(strings.Join(lines, "\n"))
}

const panelNameWidth = 16

// panelWidth is the rendered width of the inventory panel, 0 when hidden.
func (m Model) panelWidth() int {
	if !m.showPanel || m.width < minWidthForPanel {
		return 0
	}
	return lipgloss.Width(m.renderInventoryPanel(m.height))
}

const minWidthForPanel = 70
