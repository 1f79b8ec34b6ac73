// Zonecore is a grid-backpack exploration game set in the Zone.
// Usage: zonecore [--version] [--plain] [--script <file>] [--trace] [--config <file>] [content_directory]
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/cli"
	"github.com/nathoo/zonecore/config"
	"github.com/nathoo/zonecore/engine"
	"github.com/nathoo/zonecore/engine/save"
	"github.com/nathoo/zonecore/engine/state"
	"github.com/nathoo/zonecore/loader"
	"github.com/nathoo/zonecore/logger"
	"github.com/nathoo/zonecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: zonecore [--version] [--plain] [--script <file>] [--trace] [--config <file>] [content_directory]"

func main() {
	plain := false
	trace := false
	var configFile string
	var contentDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("zonecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script", "--config":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file path\n", args[i])
				os.Exit(1)
			}
			if args[i] == "--script" {
				scriptFile = args[i+1]
			} else {
				configFile = args[i+1]
			}
			i++
		case "--help", "-h":
			fmt.Println(usage)
			return
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if contentDir != "" {
		cfg.ContentDir = contentDir
	}

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, log, plain, trace, scriptFile); err != nil {
		log.WithError(err).Error("zonecore exited with an error")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logrus.Logger, plain, trace bool, scriptFile string) error {
	defs, err := loadContent(cfg.ContentDir, log.WithField("system", "loader"))
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	settings := cfg.Settings()
	if settings.Seed == 0 {
		settings.Seed = time.Now().UnixNano()
	}
	eng, err := engine.New(defs, settings, engine.WithLogger(log.WithField("app", "zonecore")))
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	log.WithFields(logrus.Fields{
		"title": defs.Game.Title,
		"seed":  settings.Seed,
		"save":  cfg.SavePath(),
	}).Info("session started")

	var notices []string
	if cfg.Autoload {
		notices = autoload(eng, cfg.SavePath(), log)
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(eng, defs, cfg.SavePath())
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		printNotices(notices)
		c.Run()
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng, defs, cfg.SavePath())
		c.Trace = trace
		c.Color = isTerminal()
		printNotices(notices)
		c.Run()
		return nil
	}

	return tui.Run(eng, defs, cfg.SavePath(), notices...)
}

func loadContent(dir string, log *logrus.Entry) (*state.Defs, error) {
	if dir == "" {
		return loader.LoadDefault(loader.WithLogger(log))
	}
	return loader.Load(dir, loader.WithLogger(log))
}

// autoload restores the configured save if one exists. Failures are
// reported to the player and the fresh session is kept.
func autoload(eng *engine.Engine, path string, log *logrus.Logger) []string {
	rep, err := eng.LoadFrom(path)
	switch {
	case errors.Is(err, save.ErrNoSave):
		return nil
	case err != nil:
		log.WithError(err).WithField("path", path).Warn("autoload failed")
		return []string{fmt.Sprintf("Could not load %s: %v", path, err)}
	}
	notices := []string{fmt.Sprintf("Resumed from %s (turn %d).", path, eng.State.TurnCount)}
	if n := len(rep.LostStacks); n > 0 {
		notices = append(notices, fmt.Sprintf("%d stack(s) no longer fit your backpack and were left behind.", n))
	}
	return notices
}

func printNotices(notices []string) {
	for _, n := range notices {
		fmt.Printf("[%s]\n", n)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
