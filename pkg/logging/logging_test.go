package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden message")
	logger.Warn("shown message", "group_id", "g1")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown message") || !strings.Contains(out, "group_id=g1") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no color codes when writing to a buffer")
	}
}
