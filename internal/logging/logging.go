// Package logging holds the process-wide file logger. Everything visible to
// the user goes through the UI or stdout; the log file is for diagnostics.
package logging

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// Setup opens (or creates) the log file and configures the package logger.
// Before Setup is called, L() returns a disabled logger.
func Setup(path string, debug bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(f).Level(level).With().Timestamp().Logger()
	return nil
}

// L returns the package logger.
func L() *zerolog.Logger { return &logger }
