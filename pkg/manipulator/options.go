// Package manipulator provides the public API for driving the simulated
// manipulator: command optimization, paced playback and run history.
package manipulator

import (
	"log/slog"
	"time"

	"nickandperla.net/manipulator/internal/history"
	"nickandperla.net/manipulator/internal/sim"
)

// Option configures a Runtime.
type Option func(*Runtime)

// StepHandler receives each snapshot as playback reaches it.
type StepHandler func(snap sim.Snapshot)

// WithStepDelay sets the pause before each playback step. Zero plays back
// as fast as possible.
func WithStepDelay(d time.Duration) Option {
	return func(r *Runtime) {
		r.stepDelay = d
	}
}

// WithHistoryStore sets a custom history store. The runtime closes it.
func WithHistoryStore(s history.Store) Option {
	return func(r *Runtime) {
		r.history = s
	}
}

// WithMemoryHistory keeps history in process memory (the default).
func WithMemoryHistory() Option {
	return func(r *Runtime) {
		r.history = history.NewMemory()
	}
}

// WithSQLiteHistory keeps history in a SQLite database at path.
func WithSQLiteHistory(path string) Option {
	return func(r *Runtime) {
		r.sqlitePath = path
	}
}

// WithSamples places the given samples on the table instead of random ones.
func WithSamples(samples []sim.Sample) Option {
	return func(r *Runtime) {
		r.initSamples = sim.CloneSamples(samples)
	}
}

// WithSampleCount sets how many random samples a fresh table gets.
func WithSampleCount(n int) Option {
	return func(r *Runtime) {
		r.sampleCount = n
	}
}

// WithSeed seeds random sample placement. Zero picks a random seed.
func WithSeed(seed uint64) Option {
	return func(r *Runtime) {
		r.seed = seed
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithStepHandler sets the callback invoked after every playback step.
func WithStepHandler(h StepHandler) Option {
	return func(r *Runtime) {
		r.stepHandler = h
	}
}

// WithClock sets the clock used to stamp history records.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) {
		r.now = now
	}
}

// WithExpandLimit bounds how many symbols an optimized command may expand
// to. Zero or less disables the bound.
func WithExpandLimit(n int) Option {
	return func(r *Runtime) {
		r.expandLimit = n
	}
}
