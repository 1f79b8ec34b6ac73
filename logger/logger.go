// Package logger builds the logrus logger shared by the front ends and the
// engine.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/config"
)

// New builds a logger from the log section of the config file. LOG_LEVEL
// overrides the configured level. Without a file the logger writes to
// stderr, so it never interleaves with game output on stdout. The returned
// close function releases the log file and is safe to call when there is none.
func New(cfg config.LogConfig) (*logrus.Logger, func() error, error) {
	log := logrus.New()

	levelName := cfg.Level
	if env, ok := os.LookupEnv("LOG_LEVEL"); ok && env != "" {
		levelName = env
	}
	if levelName == "" {
		levelName = "warn"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	closer := func() error { return nil }
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closer = f.Close
	}
	log.SetOutput(out)

	return log, closer, nil
}
