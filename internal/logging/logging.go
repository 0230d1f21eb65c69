// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/finmetrics/internal/config"
)

// Setup configures the global logger from cfg and writes to stderr.
func Setup(cfg config.LoggingConfig) error {
	return SetupWriter(cfg, os.Stderr)
}

// SetupWriter configures the global logger to write to w. Format "json"
// writes raw JSON lines; anything else uses the human-readable console
// writer.
func SetupWriter(cfg config.LoggingConfig, w io.Writer) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = w
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// ParseLevel maps a config level name to a zerolog level. An empty name
// means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
