// Package config reads the zonecore YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/zonecore/engine"
)

// Config is the top level configuration file.
type Config struct {
	PlayerName string          `yaml:"player_name"`
	Seed       int64           `yaml:"seed"`
	ContentDir string          `yaml:"content_dir"`
	SaveDir    string          `yaml:"save_dir"`
	SaveName   string          `yaml:"save_name"`
	Autoload   bool            `yaml:"autoload"`
	Inventory  InventoryConfig `yaml:"inventory"`
	Encounters EncounterConfig `yaml:"encounters"`
	Log        LogConfig       `yaml:"log"`
}

type InventoryConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

func (c *InventoryConfig) Validate() error {
	el := errors.NewErrorList()

	if c.Rows < 1 {
		el.Add(fmt.Errorf("inventory.rows must be at least 1"))
	}
	if c.Cols < 1 {
		el.Add(fmt.Errorf("inventory.cols must be at least 1"))
	}

	return el.Err()
}

// EncounterConfig holds the relative odds of each area roll outcome.
type EncounterConfig struct {
	Mutant           int     `yaml:"mutant"`
	NPC              int     `yaml:"npc"`
	Structure        int     `yaml:"structure"`
	Flavor           int     `yaml:"flavor"`
	FlavorLootChance float64 `yaml:"flavor_loot_chance"`
}

func (c *EncounterConfig) Validate() error {
	el := errors.NewErrorList()

	weights := map[string]int{
		"mutant":    c.Mutant,
		"npc":       c.NPC,
		"structure": c.Structure,
		"flavor":    c.Flavor,
	}
	total := 0
	for _, name := range []string{"mutant", "npc", "structure", "flavor"} {
		if weights[name] < 0 {
			el.Add(fmt.Errorf("encounters.%s must not be negative", name))
			continue
		}
		total += weights[name]
	}
	if total == 0 {
		el.Add(fmt.Errorf("encounters must have at least one positive weight"))
	}
	if c.FlavorLootChance < 0 || c.FlavorLootChance > 1 {
		el.Add(fmt.Errorf("encounters.flavor_loot_chance must be within 0..1"))
	}

	return el.Err()
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func (c *LogConfig) Validate() error {
	el := errors.NewErrorList()

	switch strings.ToLower(c.Level) {
	case "panic", "fatal", "error", "warn", "warning", "info", "debug", "trace":
	default:
		el.Add(fmt.Errorf("log.level %q is invalid", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		el.Add(fmt.Errorf("log.format %q is invalid", c.Format))
	}

	return el.Err()
}

// Default returns the stock configuration.
func Default() Config {
	s := engine.DefaultSettings()
	return Config{
		PlayerName: s.PlayerName,
		SaveDir:    ".",
		SaveName:   "stalker_save.json",
		Inventory: InventoryConfig{
			Rows: s.Rows,
			Cols: s.Cols,
		},
		Encounters: EncounterConfig{
			Mutant:           s.Encounters.Mutant,
			NPC:              s.Encounters.NPC,
			Structure:        s.Encounters.Structure,
			Flavor:           s.Encounters.Flavor,
			FlavorLootChance: s.FlavorLootChance,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if strings.TrimSpace(c.PlayerName) == "" {
		el.Add(fmt.Errorf("player_name is required"))
	}
	if c.SaveName == "" {
		el.Add(fmt.Errorf("save_name is required"))
	} else if filepath.Base(c.SaveName) != c.SaveName {
		el.Add(fmt.Errorf("save_name must be a file name, not a path"))
	}

	el.Add(c.Inventory.Validate())
	el.Add(c.Encounters.Validate())
	el.Add(c.Log.Validate())

	return el.Err()
}

// SavePath is where /save writes and autoload reads.
func (c *Config) SavePath() string {
	return filepath.Join(c.SaveDir, c.SaveName)
}

// Settings converts the file into engine settings.
func (c *Config) Settings() engine.Settings {
	return engine.Settings{
		PlayerName: c.PlayerName,
		Seed:       c.Seed,
		Rows:       c.Inventory.Rows,
		Cols:       c.Inventory.Cols,
		Encounters: engine.EncounterWeights{
			Mutant:    c.Encounters.Mutant,
			NPC:       c.Encounters.NPC,
			Structure: c.Encounters.Structure,
			Flavor:    c.Encounters.Flavor,
		},
		FlavorLootChance: c.Encounters.FlavorLootChance,
	}
}
