package main

import (
	"log/slog"
	"os"

	"github.com/correlator-io/patchkit/internal/config"
)

// newLogger builds the slog.Logger passed to patchkit.New, with its level
// read from PATCHKIT_LOG_LEVEL (debug/info/warn/error), defaulting to info.
func newLogger() *slog.Logger {
	level := config.GetEnvLogLevel("PATCHKIT_LOG_LEVEL", slog.LevelInfo)

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
