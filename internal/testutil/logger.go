// Package testutil holds helpers shared by the engine and state store tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug logger whose records go to t.Log, so the
// per-script engine and migration logs only show up for failing tests or
// under -v. Timestamps are dropped to keep the output diffable.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}
