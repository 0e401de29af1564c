package filter

import (
	"log/slog"
	"time"
)

// Option configures filters built by the constructors and NewTable.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	clock     Clock
	directory Directory
	weekStart time.Weekday
}

func buildOptions(opts []Option) options {
	o := options{
		logger:    slog.Default(),
		clock:     SystemClock{},
		weekStart: time.Monday,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger for debug/warning diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock relative date ranges are anchored to.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDirectory sets the existence-check collaborator used by the labels and
// assignee filters.
func WithDirectory(d Directory) Option {
	return func(o *options) {
		o.directory = d
	}
}

// WithWeekStart sets the first day of the week for this_week/last_week/
// next_week. Defaults to Monday.
func WithWeekStart(day time.Weekday) Option {
	return func(o *options) {
		o.weekStart = day
	}
}

// Clock supplies evaluation time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }
