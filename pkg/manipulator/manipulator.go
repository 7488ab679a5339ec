package manipulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"nickandperla.net/manipulator/internal/codec"
	"nickandperla.net/manipulator/internal/history"
	"nickandperla.net/manipulator/internal/logging"
	"nickandperla.net/manipulator/internal/sim"
	"nickandperla.net/manipulator/internal/symbol"
)

// ErrBusy is returned when Execute is called while a playback is running.
var ErrBusy = errors.New("playback already in progress")

// Re-exported codec errors so callers need not import internal packages.
var (
	ErrMalformedNotation  = codec.ErrMalformedNotation
	ErrInvalidRepeatCount = codec.ErrInvalidRepeatCount
	ErrInvalidInput       = codec.ErrInvalidInput
)

// Public aliases for the simulator and history types.
type (
	Position = sim.Position
	Sample   = sim.Sample
	State    = sim.State
	Snapshot = sim.Snapshot
	Record   = history.Record
)

// GridSize is the side length of the work table.
const GridSize = symbol.GridSize

// Result is the output of one execute cycle.
type Result struct {
	// Optimized is the compact notation that was played back.
	Optimized string
	// Steps holds one snapshot per executed symbol.
	Steps []Snapshot
	// Record is the history entry; nil unless the run completed.
	Record *Record
}

// Runtime owns the table: the live sample set and the manipulator. One
// playback runs at a time.
type Runtime struct {
	history     history.Store
	sqlitePath  string
	logger      *slog.Logger
	stepDelay   time.Duration
	stepHandler StepHandler
	now         func() time.Time
	expandLimit int
	sampleCount int
	seed        uint64
	initSamples []sim.Sample

	rng     *rand.Rand
	running atomic.Bool

	mu      sync.Mutex
	state   sim.State
	samples []sim.Sample
	cancel  context.CancelFunc
}

// New creates a runtime with the given options.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		stepDelay:   500 * time.Millisecond,
		now:         time.Now,
		expandLimit: codec.DefaultExpandLimit,
		sampleCount: sim.DefaultSampleCount,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.stepDelay < 0 {
		return nil, fmt.Errorf("negative step delay %v", r.stepDelay)
	}
	if r.initSamples != nil {
		if err := sim.ValidateSamples(r.initSamples); err != nil {
			return nil, fmt.Errorf("invalid samples: %w", err)
		}
	}
	if r.history == nil {
		if r.sqlitePath != "" {
			s, err := history.NewSQLite(r.sqlitePath)
			if err != nil {
				return nil, fmt.Errorf("opening history %s: %w", r.sqlitePath, err)
			}
			r.history = s
		} else {
			r.history = history.NewMemory()
		}
	}

	seed := r.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	if r.initSamples != nil {
		r.samples = sim.CloneSamples(r.initSamples)
	} else {
		r.samples = sim.GenerateSamples(r.sampleCount, r.rng)
	}
	r.logger.Debug("table ready", "samples", len(r.samples), "seed", seed)

	return r, nil
}

// Optimize returns the compact notation for raw command text.
func Optimize(raw string) string {
	return codec.Encode(raw)
}

// Expand returns the flat command text for compact notation.
func Expand(compact string) (string, error) {
	return codec.Canonicalize(compact)
}

// Optimize returns the compact notation for raw command text.
func (r *Runtime) Optimize(raw string) string {
	return Optimize(raw)
}

// Execute optimizes raw, expands the optimized text and plays it back
// against the table, pacing steps by the step delay. The manipulator starts
// at (0,0) holding nothing; samples carry over from earlier runs.
//
// Invalid input or a decode failure returns before any state changes. If
// ctx is cancelled mid-playback, the partial state is kept, no record is
// written, and the partial result is returned with the context error.
func (r *Runtime) Execute(ctx context.Context, raw string) (*Result, error) {
	if err := codec.ValidateRaw(raw); err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.running.Store(false)

	optimized := codec.Encode(raw)
	symbols, err := codec.ExpandLimit(optimized, r.expandLimit)
	if err != nil {
		r.logger.Warn("decode failed", "optimized", optimized, "error", err)
		return nil, fmt.Errorf("execute %q: %w", optimized, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.cancel = cancel
	before := sim.CloneSamples(r.samples)
	r.state = sim.State{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
	}()

	r.logger.Info("playback started", "original", raw, "optimized", optimized, "steps", len(symbols))

	res := &Result{Optimized: optimized, Steps: make([]Snapshot, 0, len(symbols))}
	machine := sim.NewMachine(before)
	limiter := r.newLimiter()

	for _, s := range symbols {
		if err := limiter.Wait(ctx); err != nil {
			r.logger.Warn("playback stopped", "done", len(res.Steps), "total", len(symbols), "error", err)
			return res, fmt.Errorf("playback stopped after %d of %d steps: %w", len(res.Steps), len(symbols), ctxErr(ctx, err))
		}
		snap := machine.Apply(s)
		res.Steps = append(res.Steps, snap)
		r.commit(machine)
		r.logger.Debug("step", "n", snap.Step, "symbol", snap.Symbol.String(), "position", snap.State.Position.String(), "holding", snap.State.Holding)
		if r.stepHandler != nil {
			r.stepHandler(snap)
		}
	}

	rec := history.NewRecord(raw, optimized, before, machine.Samples(), r.now())
	if err := r.history.Add(rec); err != nil {
		return res, fmt.Errorf("recording history: %w", err)
	}
	res.Record = &rec

	final := machine.State()
	r.logger.Info("playback finished", "id", rec.ID, "position", final.Position.String(), "holding", final.Holding)
	return res, nil
}

// newLimiter returns a limiter whose first Wait already blocks for one
// step delay.
func (r *Runtime) newLimiter() *rate.Limiter {
	if r.stepDelay == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	lim := rate.NewLimiter(rate.Every(r.stepDelay), 1)
	lim.Allow()
	return lim
}

// ctxErr prefers the context's own error over the limiter's wording. The
// limiter refuses early when the next step would land past the deadline.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if _, ok := ctx.Deadline(); ok {
		return context.DeadlineExceeded
	}
	return err
}

// commit publishes the machine's live state.
func (r *Runtime) commit(m *sim.Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = m.State()
	r.samples = m.Samples()
}

// Abort cancels the running playback, if any.
func (r *Runtime) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Running reports whether a playback is in progress.
func (r *Runtime) Running() bool {
	return r.running.Load()
}

// State returns the current manipulator state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Samples returns a copy of the sample set.
func (r *Runtime) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sim.CloneSamples(r.samples)
}

// ResetSamples scatters a fresh set of random samples and parks the
// manipulator at (0,0).
func (r *Runtime) ResetSamples() error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.running.Store(false)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = sim.GenerateSamples(r.sampleCount, r.rng)
	r.state = sim.State{}
	return nil
}

// History returns up to limit records, newest first. limit <= 0 means all.
func (r *Runtime) History(limit int) ([]Record, error) {
	return r.history.List(limit)
}

// Record retrieves one history record by id. Returns nil if not found.
func (r *Runtime) Record(id string) (*Record, error) {
	return r.history.Get(id)
}

// Render draws the table in its current state.
func (r *Runtime) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sim.Render(r.state, r.samples)
}

// Close releases resources.
func (r *Runtime) Close() error {
	r.Abort()
	return r.history.Close()
}
