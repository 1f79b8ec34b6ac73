package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/zonecore/engine"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"[trace] turn=3 rng=7 mode=exploring", kindTrace},
		{"[Game saved to test.]", kindSystem},
		{"You found: Field Dressing x2 (new stack).", kindLoot},
		{"You receive: Tourist's Delight.", kindLoot},
		{"No room for Gas Mask x1; you leave it behind.", kindWarning},
		{"Someone took your Makarov PM while you were out.", kindWarning},
		{"You can't go that way. Try north, south, east or west.", kindError},
		{"You have nothing to heal with!", kindError},
		{"Your backpack is full.", kindError},
		{"A Blind Dog attacks!", kindCombat},
		{"The Flesh hits you for 8 damage!", kindCombat},
		{"  1. Enter the main building", kindOption},
		{"  2. Search the supply room (explored)", kindExplored},
		{`"Get out of here, stalker."`, kindDialogue},
		{"You move to (0, 1) - Rookie Village Outskirts.", kindNarrative},
		{"[Research Post] A concrete bunker.", kindNarrative},
		{"", kindNarrative},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestContainsQuotedSpeech(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{`"Good hunting, stalker."`, true},
		{`The Loner says "Keep away from the anomalies."`, true},
		{`"Hi"`, false},
		{"No quotes here.", false},
		{`Unclosed "quote that never ends`, false},
		{"It's a stalker's life.", false},
	}
	for _, tt := range tests {
		got := containsQuotedSpeech(tt.line)
		if got != tt.want {
			t.Errorf("containsQuotedSpeech(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestIsOption(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"1. Enter", true},
		{"12. Trade", true},
		{"A. Enter", false},
		{"3 rounds left", false},
	}
	for _, tt := range tests {
		if got := isOption(tt.line); got != tt.want {
			t.Errorf("isOption(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The old factory stretches before you with its broken roof.", 30,
			"The old factory stretches\nbefore you with its broken\nroof."},
		{"", 80, ""},
		{"one", 80, "one"},
		{"a b c d e", 3, "a b\nc d\ne"},
		{"  1. Search the long dark corridor", 20, "  1. Search the long\ndark corridor"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")
	h.Push("inventory")

	for _, want := range []string{"inventory", "go north", "look", "look"} {
		got, ok := h.Prev()
		if !ok || got != want {
			t.Errorf("Prev() = (%q, %v), want (%q, true)", got, ok, want)
		}
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	if _, ok := h.Next(); ok {
		t.Error("Next() before navigating should report false")
	}

	h.Prev()
	h.Prev()
	got, ok := h.Next()
	if !ok || got != "go north" {
		t.Errorf("Next() = (%q, %v), want (%q, true)", got, ok, "go north")
	}
	if _, ok := h.Next(); ok {
		t.Error("Next() past the newest entry should report false")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("Prev() on empty history should report false")
	}
	if _, ok := h.Next(); ok {
		t.Error("Next() on empty history should report false")
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(3)
	for _, cmd := range []string{"a", "b", "c", "d"} {
		h.Push(cmd)
	}

	var got []string
	for i := 0; i < 3; i++ {
		s, _ := h.Prev()
		got = append(got, s)
	}
	if strings.Join(got, ",") != "d,c,b" {
		t.Errorf("history = %v, want [d c b]", got)
	}
}

func TestHistory_RepeatMovesToNewest(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go east")
	h.Push("look")

	first, _ := h.Prev()
	second, _ := h.Prev()
	third, _ := h.Prev()
	if first != "look" || second != "go east" || third != "go east" {
		t.Errorf("got %q, %q, %q; want look, go east, go east", first, second, third)
	}
}

func TestHistory_SkipsMenuNumbers(t *testing.T) {
	h := NewHistory(5)
	h.Push("explore")
	h.Push("2")
	h.Push("12")

	got, _ := h.Prev()
	if got != "explore" {
		t.Errorf("Prev() = %q, want %q", got, "explore")
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")
	h.Prev()
	h.Prev()
	h.ResetCursor()

	got, _ := h.Prev()
	if got != "go north" {
		t.Errorf("after reset Prev() = %q, want %q", got, "go north")
	}
}

// testDefs returns a small zone for TUI testing.
func testDefs() *state.Defs {
	table := types.LootTableDef{ID: "COMMON", Entries: []types.LootEntry{{ItemID: "dressing", Weight: 1}}, MinDraws: 1, MaxDraws: 1, MinQty: 1, MaxQty: 1}
	return &state.Defs{
		Game: types.GameDef{
			Title:       "Test Zone",
			Author:      "Test",
			Version:     "1.0",
			Intro:       "Welcome to the test.",
			CommonLoot:  "COMMON",
			RareLoot:    "COMMON",
			SpecialLoot: "COMMON",
			FlavorLoot:  "COMMON",
		},
		Items: map[string]types.ItemDef{
			"makarov":  {ID: "makarov", Name: "Makarov PM", Kind: "weapon", Width: 2, Height: 1, Ammo: "rounds"},
			"rounds":   {ID: "rounds", Name: "9x18mm PM Rounds", Kind: "ammo", Width: 1, Height: 1, Stackable: true, Staple: true},
			"dressing": {ID: "dressing", Name: "Field Dressing", Kind: "heal", Width: 1, Height: 1, Stackable: true, Staple: true, Heal: 20, CombatUsable: true},
		},
		Mutants: map[string]types.MutantDef{
			"dog": {ID: "dog", Name: "Blind Dog", Health: 20, Damage: 5, Loot: "COMMON"},
		},
		MutantOrder: []string{"dog"},
		LootTables:  map[string]types.LootTableDef{"COMMON": table},
		Locations:   []string{"An open field of yellowed grass stretches out."},
		Starters: []types.StarterDef{
			{ItemID: "makarov", Quantity: 1},
			{ItemID: "rounds", Quantity: 12},
		},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	settings := engine.DefaultSettings()
	settings.Seed = 1
	settings.Encounters = engine.EncounterWeights{Flavor: 1}
	settings.FlavorLootChance = 0
	eng, err := engine.New(testDefs(), settings)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(eng, eng.Defs, filepath.Join(t.TempDir(), "stalker_save.json"))
}

func joined(lines []string) string {
	return strings.Join(lines, "\n")
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)

	for _, cmd := range []string{"/quit", "/exit"} {
		output, quit := m.handleMeta(cmd)
		if !quit {
			t.Errorf("%s should signal quit", cmd)
		}
		if len(output) == 0 || output[0] != "Goodbye." {
			t.Errorf("%s output = %v, want Goodbye.", cmd, output)
		}
	}
}

func TestHandleMeta_SaveAndLoad(t *testing.T) {
	m := newTestModel(t)
	path := filepath.Join(t.TempDir(), "zone.json")

	m.engine.Step("go north")
	output, _ := m.handleMeta("/save " + path)
	if !strings.Contains(joined(output), "Game saved to "+path) {
		t.Errorf("expected save confirmation, got %v", output)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("save file: %v", err)
	}

	m2 := newTestModel(t)
	output, _ = m2.handleMeta("/load " + path)
	out := joined(output)
	if !strings.Contains(out, "Game loaded from "+path) {
		t.Errorf("expected load confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "You are at (0, 1)") {
		t.Errorf("expected the saved position, got:\n%s", out)
	}
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/load")
	if !strings.Contains(joined(output), "Load failed: no save at") {
		t.Errorf("expected load failure, got %v", output)
	}
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)

	out := joined(func() []string { o, _ := m.handleMeta("/help"); return o }())
	for _, want := range []string{"/save", "/load", "/quit", "/panel", "go <direction>", "again (g)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/trace")
	if !m.trace || output[0] != "Trace output enabled." {
		t.Errorf("first /trace: trace=%v output=%v", m.trace, output)
	}
	output, _ = m.handleMeta("/trace")
	if m.trace || output[0] != "Trace output disabled." {
		t.Errorf("second /trace: trace=%v output=%v", m.trace, output)
	}
}

func TestHandleMeta_Panel(t *testing.T) {
	m := newTestModel(t)
	if !m.showPanel {
		t.Fatal("panel should be shown by default")
	}

	output, _ := m.handleMeta("/panel")
	if m.showPanel || output[0] != "Backpack panel hidden." {
		t.Errorf("after /panel: showPanel=%v output=%v", m.showPanel, output)
	}
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)

	output, quit := m.handleMeta("/bogus")
	if quit {
		t.Error("unknown command should not quit")
	}
	if !strings.Contains(joined(output), "Unknown command: /bogus") {
		t.Errorf("unexpected output %v", output)
	}
}

func TestHandleMeta_State(t *testing.T) {
	m := newTestModel(t)

	out := joined(func() []string { o, _ := m.handleMeta("/state"); return o }())
	for _, want := range []string{"Turn: 0", "Position: (0, 0)", "Health: 100/100", "Mode: exploring", "RNG: seed=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in state output:\n%s", want, out)
		}
	}
}

func TestHandleEnter_GameCommandAndAgain(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("go east")
	next, _ := m.handleEnter()
	m = next.(Model)
	m.input.SetValue("g")
	next, _ = m.handleEnter()
	m = next.(Model)

	var texts []string
	for _, rl := range m.rawLines {
		texts = append(texts, rl.text)
	}
	out := joined(texts)
	if !strings.Contains(out, "> go east") {
		t.Errorf("expected echoed input:\n%s", out)
	}
	if !strings.Contains(out, "You move to (2, 0)") {
		t.Errorf("expected g to repeat the move:\n%s", out)
	}
	if m.lastCmd != "go east" {
		t.Errorf("lastCmd = %q, want %q", m.lastCmd, "go east")
	}
}

func TestHandleEnter_TraceShowsErrorKind(t *testing.T) {
	m := newTestModel(t)
	m.trace = true

	m.input.SetValue("go up")
	next, _ := m.handleEnter()
	m = next.(Model)

	found := false
	for _, rl := range m.rawLines {
		if strings.HasPrefix(rl.text, "[trace] error (validation)") {
			found = true
			if rl.kind != kindTrace {
				t.Errorf("trace line kind = %v, want kindTrace", rl.kind)
			}
		}
	}
	if !found {
		t.Error("expected a trace line with the error kind")
	}
}

func TestStatusBar(t *testing.T) {
	m := newTestModel(t)
	m.width = 120

	bar := m.renderStatusBar()
	for _, want := range []string{"Stalker", "HP 100/100", "(0, 0)", "exploring", "T:0"} {
		if !strings.Contains(bar, want) {
			t.Errorf("expected %q in status bar %q", want, bar)
		}
	}
}

func TestInventoryPanel(t *testing.T) {
	m := newTestModel(t)

	labels, origins := panelLabels(m.engine.InventorySnapshot())
	if len(origins) != 2 || len(labels) != 2 {
		t.Fatalf("got %d stacks, want 2", len(origins))
	}

	panel := m.renderInventoryPanel(40)
	for _, want := range []string{"Backpack", "A A", "Makarov PM", "x12"} {
		if !strings.Contains(panel, want) {
			t.Errorf("expected %q in panel:\n%s", want, panel)
		}
	}
}

func TestWindowSize_PanelNarrowsViewport(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)
	if !m.ready {
		t.Fatal("model should be ready after a resize")
	}
	if m.viewport.Width >= 120 {
		t.Errorf("viewport width = %d, want less than 120 with the panel shown", m.viewport.Width)
	}

	m = m.togglePanel()
	if m.viewport.Width != 120 {
		t.Errorf("viewport width = %d, want 120 with the panel hidden", m.viewport.Width)
	}
}

func TestView_NotReady(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}
