// Package testutil holds shared helpers for tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger builds a debug-level slog.Logger routed through t.Log, so
// server output shows up alongside the test that produced it (on failure or
// under -v) instead of on stderr.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(logWriter{tb: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct {
	tb testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}
