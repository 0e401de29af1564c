package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// LogRecord is one captured log line, attributes flattened to strings.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// String renders the record as "LEVEL message k=v ...".
func (r LogRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", r.Level, r.Message)
	for k, v := range r.Attrs {
		fmt.Fprintf(&sb, " %s=%s", k, v)
	}
	return sb.String()
}

// LogCapture is an slog.Handler that records every log call.
//
// Thread-safety: safe for concurrent use; handlers derived via WithAttrs
// share the parent's record list.
type LogCapture struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewLogCapture returns a capture handler and a logger writing to it.
func NewLogCapture() (*LogCapture, *slog.Logger) {
	h := &LogCapture{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return h, slog.New(h)
}

// Enabled records every level, including debug.
func (h *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	rec := LogRecord{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, rec)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{mu: h.mu, records: h.records, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

// WithGroup is not needed by the tests; groups are ignored.
func (h *LogCapture) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything captured so far.
func (h *LogCapture) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogRecord(nil), *h.records...)
}

// AtLevel returns the captured records at exactly level.
func (h *LogCapture) AtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}
