package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleStatusDanger = lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("196")).
				Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleOption = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	styleExplored = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleCombat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleLoot = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	stylePanelTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleCellEmpty = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindOption
	kindExplored
	kindDialogue
	kindCombat
	kindLoot
	kindWarning
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You found:"),
		strings.HasPrefix(line, "You receive:"):
		return kindLoot
	case strings.HasPrefix(line, "No room for"),
		strings.HasPrefix(line, "Someone took your"):
		return kindWarning
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You have nothing"),
		strings.HasPrefix(line, "Your backpack is full"),
		strings.HasPrefix(line, "The structure collapses"):
		return kindError
	case strings.HasSuffix(line, "attacks!"),
		strings.Contains(line, " damage"),
		strings.HasPrefix(line, "Everything goes dark"):
		return kindCombat
	case isOption(trimmed) && strings.HasSuffix(line, "(explored)"):
		return kindExplored
	case isOption(trimmed):
		return kindOption
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarrative
	}
}

// isOption reports whether a line starts with a menu number such as "2.".
func isOption(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && line[i] == '.'
}

// containsQuotedSpeech checks if a line carries speech in double quotes.
func containsQuotedSpeech(line string) bool {
	inQuote := false
	quoteLen := 0
	for _, r := range line {
		if r == '"' {
			if inQuote && quoteLen > 5 {
				return true
			}
			inQuote = !inQuote
			quoteLen = 0
		} else if inQuote {
			quoteLen++
		}
	}
	return false
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
