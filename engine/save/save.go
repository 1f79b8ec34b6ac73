// Package save implements JSON serialization and deserialization of game state.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/nathoo/zonecore/engine/inventory"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/engine/structure"
	"github.com/nathoo/zonecore/types"
)

// FormatVersion is the version written by Save. Loading accepts any
// version up to and including it.
const FormatVersion = 1

// MaxRNGPosition bounds rng_position. Restoring replays the generator one
// draw at a time, so an absurd position would stall the load.
const MaxRNGPosition = 1 << 26

var (
	ErrNoSave  = errors.New("no saved game")
	ErrCorrupt = errors.New("corrupt save")
	ErrWrite   = errors.New("writing save")
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     int            `json:"version"`
	Game        string         `json:"game"`
	Player      PlayerData     `json:"player"`
	Reputation  map[string]int `json:"reputation"`
	Inventory   GridData       `json:"inventory"`
	Markers     []MarkerData   `json:"markers"`
	Turn        int            `json:"turn"`
	RNGSeed     int64          `json:"rng_seed"`
	RNGPosition int64          `json:"rng_position"`
}

// PlayerData is the saved player name, health and coordinates.
type PlayerData struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// GridData records the grid dimensions and every stack by origin.
type GridData struct {
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Stacks []StackData `json:"stacks"`
}

// StackData is one stack, keyed by its origin cell.
type StackData struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// MarkerData is a map marker with its generated structure, if any.
type MarkerData struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	X        int           `json:"x"`
	Y        int           `json:"y"`
	Name     string        `json:"name"`
	Instance *InstanceData `json:"instance,omitempty"`
}

// InstanceData is a frozen structure layout plus its visited nodes.
type InstanceData struct {
	Category    string                    `json:"category"`
	Description string                    `json:"description"`
	InitialStep string                    `json:"initial_step"`
	Steps       map[string]types.StepNode `json:"steps"`
	Visited     VisitedList               `json:"visited"`
}

// VisitedList is a set of node keys. It is written as a sorted JSON list
// and read from either a list or an object whose keys are the members.
type VisitedList []string

func (v *VisitedList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = list
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("visited must be a list or an object: %w", err)
	}
	keys := make([]string, 0, len(obj))
	for k, val := range obj {
		if b, ok := val.(bool); ok && !b {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	*v = keys
	return nil
}

// Report lists what could not be restored.
type Report struct {
	LostStacks        []StackData
	DroppedInstances  []string // marker IDs whose instance failed validation
	InventoryMigrated bool
}

// Save serializes game state and the inventory grid to JSON bytes.
func Save(s *types.State, inv *inventory.Grid, defs *state.Defs) ([]byte, error) {
	data := SaveData{
		Version: FormatVersion,
		Game:    defs.Game.Title,
		Player: PlayerData{
			Name:   s.Player.Name,
			Health: s.Player.Health,
			X:      s.Player.X,
			Y:      s.Player.Y,
		},
		Reputation:  s.Reputation,
		Inventory:   GridData{Rows: inv.Rows(), Cols: inv.Cols(), Stacks: []StackData{}},
		Markers:     make([]MarkerData, 0, len(s.Markers)),
		Turn:        s.TurnCount,
		RNGSeed:     s.RNGSeed,
		RNGPosition: s.RNGPosition,
	}
	for _, p := range inv.Stacks() {
		data.Inventory.Stacks = append(data.Inventory.Stacks, StackData{
			Row:      p.Origin.Row,
			Col:      p.Origin.Col,
			Item:     p.Stack.ItemID,
			Quantity: p.Stack.Quantity,
		})
	}
	for _, m := range s.Markers {
		md := MarkerData{ID: m.ID, Type: string(m.Kind), X: m.X, Y: m.Y, Name: m.Name}
		if m.Instance != nil {
			md.Instance = encodeInstance(m.Instance)
		}
		data.Markers = append(data.Markers, md)
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if sd.Version > FormatVersion {
		return nil, fmt.Errorf("%w: version %d is newer than %d", ErrCorrupt, sd.Version, FormatVersion)
	}
	if sd.RNGPosition < 0 || sd.RNGPosition > MaxRNGPosition {
		return nil, fmt.Errorf("%w: rng_position %d out of range", ErrCorrupt, sd.RNGPosition)
	}
	// Ensure maps are never nil after load.
	if sd.Reputation == nil {
		sd.Reputation = map[string]int{}
	}
	if sd.Markers == nil {
		sd.Markers = []MarkerData{}
	}
	return &sd, nil
}

// ApplySave applies loaded save data onto a state and grid. Stacks are put
// back at their saved origins when the grid dimensions match; otherwise, or
// when an origin no longer fits, they are re-added in row-major order.
// Stacks that still do not fit are listed in the report. The grid is only
// replaced once the new layout is complete.
func ApplySave(s *types.State, inv *inventory.Grid, defs *state.Defs, sd *SaveData) Report {
	var rep Report

	s.Player = types.Player{Name: sd.Player.Name, Health: sd.Player.Health, X: sd.Player.X, Y: sd.Player.Y}
	state.SetHealth(s, sd.Player.Health)
	// Factions missing from the save start over at their catalog standing.
	s.Reputation = state.StartingReputation(defs)
	for faction, v := range sd.Reputation {
		state.AdjustReputation(s, faction, v-s.Reputation[faction])
	}
	s.TurnCount = sd.Turn
	s.RNGSeed = sd.RNGSeed
	s.RNGPosition = sd.RNGPosition

	s.Markers = make([]*types.Marker, 0, len(sd.Markers))
	for _, md := range sd.Markers {
		m := &types.Marker{ID: md.ID, Kind: types.MarkerKind(md.Type), X: md.X, Y: md.Y, Name: md.Name}
		if md.Instance != nil {
			inst := decodeInstance(md.Instance)
			if err := structure.Validate(inst); err != nil {
				rep.DroppedInstances = append(rep.DroppedInstances, md.ID)
			} else {
				m.Instance = inst
			}
		}
		s.Markers = append(s.Markers, m)
	}

	grid := inventory.New(inv.Rows(), inv.Cols(), defs)
	sameShape := sd.Inventory.Rows == inv.Rows() && sd.Inventory.Cols == inv.Cols()
	rep.InventoryMigrated = !sameShape
	var pending []StackData
	for _, st := range sd.Inventory.Stacks {
		if st.Quantity < 1 {
			continue
		}
		if sameShape && grid.Place(inventory.Pos{Row: st.Row, Col: st.Col}, st.Item, st.Quantity) == nil {
			continue
		}
		pending = append(pending, st)
	}
	for _, st := range pending {
		if _, _, err := grid.Add(st.Item, st.Quantity); err != nil {
			rep.LostStacks = append(rep.LostStacks, st)
		}
	}
	inv.CopyFrom(grid)

	return rep
}

// WriteFile writes data to a temp file then renames it over path, so an
// interrupted save never leaves a truncated file behind.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing temp file: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: renaming temp file: %v", ErrWrite, err)
	}
	return nil
}

// ReadFile reads a save file. A missing file yields ErrNoSave.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSave, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return data, nil
}

func encodeInstance(inst *types.StructureInstance) *InstanceData {
	visited := VisitedList{}
	if inst.Visited.Size() > 0 {
		inst.Visited.Each(func(key string) {
			visited = append(visited, key)
		})
		sort.Strings(visited)
	}
	return &InstanceData{
		Category:    inst.Category,
		Description: inst.Description,
		InitialStep: inst.InitialStep,
		Steps:       inst.Steps,
		Visited:     visited,
	}
}

func decodeInstance(d *InstanceData) *types.StructureInstance {
	visited := mapset.New[string]()
	for _, k := range d.Visited {
		visited.Put(k)
	}
	return &types.StructureInstance{
		Category:    d.Category,
		Description: d.Description,
		InitialStep: d.InitialStep,
		Steps:       d.Steps,
		Visited:     visited,
	}
}
