package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/zonecore/engine"
	"github.com/nathoo/zonecore/engine/save"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the zonecore TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	width     int
	height    int
	ready     bool
	trace     bool
	showPanel bool
	quitting  bool
	lastCmd   string
	savePath  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs, savePath string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:    eng,
		defs:      defs,
		input:     ti,
		history:   NewHistory(100),
		showPanel: true,
		savePath:  savePath,
	}
}

// Run starts the Bubble Tea program. Notices, such as an autoload result,
// are shown above the intro.
func Run(eng *engine.Engine, defs *state.Defs, savePath string, notices ...string) error {
	m := New(eng, defs, savePath)
	m.rawLines = noticeLines(notices)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func noticeLines(notices []string) []rawLine {
	var out []rawLine
	for _, n := range notices {
		out = append(out, rawLine{text: n, isSystem: true})
	}
	return out
}

// Init returns the initial command that produces intro text and first look.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string

		g := m.defs.Game
		title := g.Title
		if g.Version != "" {
			title += " v" + g.Version
		}
		if g.Author != "" {
			title += " by " + g.Author
		}
		lines = append(lines, title, "")

		if g.Intro != "" {
			lines = append(lines, g.Intro, "")
		}

		result := m.engine.Step("look")
		lines = append(lines, result.Output...)

		return gameOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}
		vpWidth := m.width - m.panelWidth()

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "tab":
			m = m.togglePanel()
			return m, nil

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// togglePanel shows or hides the backpack panel and resizes the viewport.
func (m Model) togglePanel() Model {
	m.showPanel = !m.showPanel
	if m.ready {
		m.viewport.Width = m.width - m.panelWidth()
		m.refreshViewport()
	}
	return m
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Game command.
	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, m.formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.viewport.Width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindOption:
		return styleOption.Render(line)
	case kindExplored:
		return styleExplored.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindCombat:
		return styleCombat.Render(line)
	case kindLoot:
		return styleLoot.Render(line)
	case kindWarning:
		return styleWarning.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Leading indentation is kept on the first line.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(indent)
			result.WriteString(word)
			lineLen = len(indent) + wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport (with the backpack panel when
// there is room) + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.panelWidth() > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderInventoryPanel(m.viewport.Height))
	}
	return body + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/panel":
		*m = m.togglePanel()
		if m.showPanel {
			return []string{"Backpack panel shown."}, false
		}
		return []string{"Backpack panel hidden."}, false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(path string) []string {
	if path == "" {
		path = m.savePath
	}
	if err := m.engine.SaveTo(path); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", path)}
}

func (m *Model) cmdLoad(path string) []string {
	if path == "" {
		path = m.savePath
	}
	rep, err := m.engine.LoadFrom(path)
	if err != nil {
		if errors.Is(err, save.ErrNoSave) {
			return []string{fmt.Sprintf("Load failed: no save at %s.", path)}
		}
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	output := []string{fmt.Sprintf("Game loaded from %s (turn %d).", path, m.engine.State.TurnCount)}
	for _, st := range rep.LostStacks {
		output = append(output, fmt.Sprintf("Lost: %s x%d (no room).", m.defs.ItemName(st.Item), st.Quantity))
	}
	if n := len(rep.DroppedInstances); n > 0 {
		output = append(output, fmt.Sprintf("%d structure(s) will be re-surveyed on your next visit.", n))
	}
	result := m.engine.Step("look")
	return append(output, result.Output...)
}

func (m *Model) cmdHelp() []string {
	out := []string{
		"System:",
		"  /save [path]  — Save game (default: " + m.savePath + ")",
		"  /load [path]  — Load game (default: " + m.savePath + ")",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"  /trace        — Toggle debug trace output",
		"  /panel        — Show or hide the backpack panel",
		"",
	}
	out = append(out, m.engine.Step("help").Output...)
	return append(out,
		"  again (g)              Repeat your last command",
		"",
		"Keys: PgUp/PgDn to scroll, Up/Down for command history, Tab toggles the backpack",
	)
}

func (m *Model) cmdState() []string {
	st := m.engine.Status()
	s := m.engine.State
	return []string{
		fmt.Sprintf("Turn: %d", s.TurnCount),
		fmt.Sprintf("Position: (%d, %d) %s", st.X, st.Y, st.Location),
		fmt.Sprintf("Health: %d/%d", st.Health, state.MaxHealth),
		fmt.Sprintf("Mode: %s", st.Mode),
		fmt.Sprintf("Inventory: %v", m.engine.Inventory.Totals()),
		fmt.Sprintf("Markers: %d", len(s.Markers)),
		fmt.Sprintf("RNG: seed=%d position=%d", m.engine.RNG.Seed(), m.engine.RNG.Position()),
	}
}

func (m *Model) formatTrace(result types.Result) []string {
	lines := []string{fmt.Sprintf("[trace] turn=%d rng=%d mode=%s",
		m.engine.State.TurnCount, m.engine.RNG.Position(), m.engine.Mode())}
	if result.Err != nil {
		lines = append(lines, fmt.Sprintf("[trace] error (%s): %v", engine.Classify(result.Err), result.Err))
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
