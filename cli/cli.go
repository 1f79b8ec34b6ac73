// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the zonecore engine.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"

	"github.com/nathoo/zonecore/engine"
	"github.com/nathoo/zonecore/engine/save"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

// Output styles. Only applied when CLI.Color is set.
var (
	styleSystem  = color.Style{color.FgGray}
	styleError   = color.Style{color.FgRed, color.OpBold}
	styleCombat  = color.Style{color.FgRed}
	styleLoot    = color.Style{color.FgGreen, color.OpBold}
	styleGuide   = color.Style{color.FgCyan}
	styleWarning = color.Style{color.FgYellow}
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SavePath  string // default target of /save and /load
	Trace     bool
	Color     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs, savePath string) *CLI {
	return &CLI{
		Engine:   eng,
		Defs:     defs,
		In:       os.Stdin,
		Out:      os.Stdout,
		SavePath: savePath,
	}
}

// Run starts the game loop. It shows the intro, describes the player's
// surroundings, then loops: prompt → input → dispatch → output.
func (c *CLI) Run() {
	if c.Defs.Game.Title != "" {
		c.printStyled(styleGuide, c.Defs.Game.Title)
	}
	if c.Defs.Game.Intro != "" {
		c.printLine(c.Defs.Game.Intro)
		c.printLine("")
	}

	c.printResult(c.Engine.Step("look"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print(c.prompt())
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// prompt shows the current mode so numbered choices are unambiguous.
func (c *CLI) prompt() string {
	if m := c.Engine.Mode(); m != engine.ModeRest {
		return fmt.Sprintf("[%s] > ", m)
	}
	return "> "
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(path string) {
	if path == "" {
		path = c.SavePath
	}
	if err := c.Engine.SaveTo(path); err != nil {
		c.printError(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", path))
}

func (c *CLI) cmdLoad(path string) {
	if path == "" {
		path = c.SavePath
	}
	rep, err := c.Engine.LoadFrom(path)
	if err != nil {
		if errors.Is(err, save.ErrNoSave) {
			c.printError(fmt.Sprintf("Load failed: no save at %s.", path))
			return
		}
		c.printError(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", path, c.Engine.State.TurnCount))
	c.printReport(rep)

	c.printResult(c.Engine.Step("look"))
}

// printReport warns about anything that did not survive a load.
func (c *CLI) printReport(rep save.Report) {
	if rep.InventoryMigrated {
		c.printStyled(styleWarning, "Your backpack has a different shape now; items were repacked.")
	}
	for _, st := range rep.LostStacks {
		c.printStyled(styleWarning, fmt.Sprintf("Lost: %s x%d (no room).", c.Defs.ItemName(st.Item), st.Quantity))
	}
	if n := len(rep.DroppedInstances); n > 0 {
		c.printStyled(styleWarning, fmt.Sprintf("%d structure(s) will be re-surveyed on your next visit.", n))
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [path]  — Save game (default: " + c.SavePath + ")",
		"  /load [path]  — Load game (default: " + c.SavePath + ")",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"  /trace        — Toggle debug trace output",
		"",
	}
	for _, line := range help {
		c.printLine(line)
	}
	c.printResult(c.Engine.Step("help"))
	c.printLine("  again (g)              Repeat your last command")
}

func (c *CLI) cmdState() {
	st := c.Engine.Status()
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Turn: %d", s.TurnCount))
	c.printSystem(fmt.Sprintf("Position: (%d, %d) %s", st.X, st.Y, st.Location))
	c.printSystem(fmt.Sprintf("Health: %d/%d", st.Health, state.MaxHealth))
	c.printSystem(fmt.Sprintf("Mode: %s", st.Mode))
	c.printSystem(fmt.Sprintf("Inventory: %v", c.Engine.Inventory.Totals()))
	c.printSystem(fmt.Sprintf("Markers: %d", len(s.Markers)))
	c.printSystem(fmt.Sprintf("RNG: seed=%d position=%d", c.Engine.RNG.Seed(), c.Engine.RNG.Position()))
}

func (c *CLI) printTrace(result types.Result) {
	c.printSystem(fmt.Sprintf("[trace] turn=%d rng=%d mode=%s",
		c.Engine.State.TurnCount, c.Engine.RNG.Position(), c.Engine.Mode()))
	if result.Err != nil {
		c.printSystem(fmt.Sprintf("[trace] error (%s): %v", engine.Classify(result.Err), result.Err))
	}
}

// printResult prints engine output. The last line carries the error text
// when the step failed.
func (c *CLI) printResult(result types.Result) {
	last := len(result.Output) - 1
	for i, line := range result.Output {
		switch {
		case result.Err != nil && i == last:
			c.printStyled(styleError, line)
		case strings.HasPrefix(line, "You found:"):
			c.printStyled(styleLoot, line)
		case c.Engine.Mode() == engine.ModeCombat:
			c.printStyled(styleCombat, line)
		default:
			c.printLine(line)
		}
	}
}

func (c *CLI) printStyled(s color.Style, text string) {
	if c.Color {
		text = s.Sprint(text)
	}
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	c.printStyled(styleSystem, "["+text+"]")
}

func (c *CLI) printError(text string) {
	c.printStyled(styleError, "["+text+"]")
}
