package loader

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/zonecore/engine/state"
)

//go:embed content/*.lua
var defaultContent embed.FS

// collector accumulates Lua definitions during file execution.
type collector struct {
	game         *lua.LTable
	items        []rawDef
	mutants      []rawDef
	lootTables   []rawDef
	factions     []rawDef
	structures   []rawDef
	barter       []*lua.LTable
	starters     []rawStarter
	locations    []string
	tips         []string
	descriptions []string
}

// Option configures a load.
type Option func(*options)

type options struct {
	log *logrus.Entry
}

// WithLogger routes content warnings to l.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	o := options{log: logrus.NewEntry(quiet)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads all .lua files from dir, compiles them into game definitions,
// validates references, and returns the immutable Defs. The Lua VM is
// discarded after loading.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	return loadFS(os.DirFS(dir), ".", dir, newOptions(opts))
}

// LoadDefault loads the zone content compiled into the binary.
func LoadDefault(opts ...Option) (*state.Defs, error) {
	return loadFS(defaultContent, "content", "built-in content", newOptions(opts))
}

func loadFS(fsys fs.FS, dir, label string, o options) (*state.Defs, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", label, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", label)
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		src, err := fs.ReadFile(fsys, path.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		fn, err := L.Load(strings.NewReader(string(src)), f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		L.Push(fn)
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling zone content: %w", err)
	}

	if err := validate(defs, o.log.WithField("content", label)); err != nil {
		return nil, err
	}

	return defs, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must not touch the session RNG, so drop randomness outright.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
