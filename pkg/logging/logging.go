// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
//	logging.Setup() // level from SETTLEUP_LOG_LEVEL, default info
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging at the level named by SETTLEUP_LOG_LEVEL.
func Setup() {
	SetupWithLevel(ParseLevel(os.Getenv("SETTLEUP_LOG_LEVEL")))
}

// SetupWithLevel configures colored logging to stderr at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(New(os.Stderr, level))
}

// New returns a tint-backed logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    !isTerminal(w),
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels.
// Anything else yields info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
