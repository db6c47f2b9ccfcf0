// Package testutil provides shared test helpers: loggers and fakes for the
// catalog and plan builder.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// LogEntry is one captured log record with its attributes flattened.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record for assertions.
type LogRecorder struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewRecordingLogger returns a debug-level logger and the recorder behind it.
func NewRecordingLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	entry := LogEntry{Level: record.Level, Message: record.Message, Attrs: make(map[string]string)}
	for _, a := range r.attrs {
		entry.Attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.String()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, r.attrs...), attrs...)
	return &LogRecorder{mu: r.mu, entries: r.entries, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are not tracked.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Find returns the entries with the given message.
func (r *LogRecorder) Find(message string) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []LogEntry
	for _, e := range *r.entries {
		if e.Message == message {
			out = append(out, e)
		}
	}
	return out
}
