package manipulator

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fixedTime = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func newTestRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{
		WithStepDelay(0),
		WithClock(func() time.Time { return fixedTime }),
		WithSamples([]Sample{{ID: 1, Position: Position{X: 2, Y: 3}}}),
	}
	r, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecuteScenario(t *testing.T) {
	r := newTestRuntime(t)

	res, err := r.Execute(context.Background(), "ЛЛЛПППОБ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Optimized != "3Л3ПОБ" {
		t.Errorf("expected '3Л3ПОБ', got %q", res.Optimized)
	}
	if len(res.Steps) != 8 {
		t.Fatalf("expected 8 steps, got %d", len(res.Steps))
	}
	if res.Steps[2].State.Position != (Position{X: 0, Y: 0}) {
		t.Errorf("expected clamp at 0 after three lefts, got %s", res.Steps[2].State.Position)
	}
	final := r.State()
	if final.Position != (Position{X: 3, Y: 0}) || final.IsHolding() {
		t.Errorf("unexpected final state %+v", final)
	}

	rec := res.Record
	if rec == nil {
		t.Fatal("expected a history record")
	}
	if rec.Original != "ЛЛЛПППОБ" || rec.Optimized != "3Л3ПОБ" {
		t.Errorf("unexpected record texts %q %q", rec.Original, rec.Optimized)
	}
	if rec.Date != "19.10.2026" || rec.Time != "14:30:00" {
		t.Errorf("unexpected record timestamp %q %q", rec.Date, rec.Time)
	}
	if rec.SamplesAfter[0].Position != (Position{X: 2, Y: 3}) {
		t.Errorf("expected sample unchanged, got %s", rec.SamplesAfter[0].Position)
	}
}

func TestExecuteMovesSample(t *testing.T) {
	r := newTestRuntime(t)

	res, err := r.Execute(context.Background(), "ППНННОПППННБ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Samples()[0].Position; got != (Position{X: 5, Y: 5}) {
		t.Errorf("expected sample at (5,5), got %s", got)
	}
	if res.Record.SamplesBefore[0].Position != (Position{X: 2, Y: 3}) {
		t.Errorf("expected before at (2,3), got %s", res.Record.SamplesBefore[0].Position)
	}
	if res.Record.SamplesAfter[0].Position != (Position{X: 5, Y: 5}) {
		t.Errorf("expected after at (5,5), got %s", res.Record.SamplesAfter[0].Position)
	}

	// The next run starts from (0,0) but sees the moved sample.
	if _, err := r.Execute(context.Background(), "ПППППНННННОЛБ"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Samples()[0].Position; got != (Position{X: 4, Y: 5}) {
		t.Errorf("expected sample at (4,5), got %s", got)
	}

	records, err := r.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Original != "ПППППНННННОЛБ" {
		t.Errorf("expected newest first, got %q", records[0].Original)
	}
	// Earlier records are not rewritten by later runs.
	if records[1].SamplesAfter[0].Position != (Position{X: 5, Y: 5}) {
		t.Errorf("expected first record unchanged, got %s", records[1].SamplesAfter[0].Position)
	}
	got, err := r.Record(records[1].ID)
	if err != nil || got == nil || got.Original != "ППНННОПППННБ" {
		t.Errorf("Record lookup failed: %+v, %v", got, err)
	}
}

func TestExecuteRejectsRawNotation(t *testing.T) {
	r := newTestRuntime(t)
	for _, raw := range []string{"", "3Л", "2(ЛП)"} {
		if _, err := r.Execute(context.Background(), raw); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestDecodeFailureLeavesStateUntouched(t *testing.T) {
	r := newTestRuntime(t, WithExpandLimit(2))

	if _, err := r.Execute(context.Background(), "ПН"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := r.State()

	res, err := r.Execute(context.Background(), "ЛЛЛ")
	if !errors.Is(err, ErrInvalidRepeatCount) {
		t.Fatalf("expected ErrInvalidRepeatCount, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if r.State() != before {
		t.Errorf("expected state %+v kept, got %+v", before, r.State())
	}
	records, _ := r.History(0)
	if len(records) != 1 {
		t.Errorf("expected no record for failed run, got %d records", len(records))
	}
	if r.Running() {
		t.Error("expected runtime idle after failure")
	}
}

func TestExecuteWhileRunningIsBusy(t *testing.T) {
	var r *Runtime
	var nested error
	r = newTestRuntime(t, WithStepHandler(func(snap Snapshot) {
		if snap.Step == 1 {
			_, nested = r.Execute(context.Background(), "Л")
		}
	}))

	if _, err := r.Execute(context.Background(), "ПП"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", nested)
	}
	if err := r.ResetSamples(); err != nil {
		t.Errorf("expected reset to succeed once idle, got %v", err)
	}
}

func TestCancelKeepsPartialState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newTestRuntime(t, WithStepHandler(func(snap Snapshot) {
		if snap.Step == 7 {
			cancel()
		}
	}))
	res, err := r.Execute(ctx, "ППНННОПБЛЛЛ")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || len(res.Steps) != 7 {
		t.Fatalf("expected 7 partial steps, got %+v", res)
	}
	if res.Record != nil {
		t.Error("expected no record for an aborted run")
	}
	state := r.State()
	if state.Position != (Position{X: 3, Y: 3}) || state.Holding != 1 {
		t.Errorf("expected partial state (3,3) holding 1, got %+v", state)
	}
	if got := r.Samples()[0].Position; got != (Position{X: 2, Y: 3}) {
		t.Errorf("expected held sample not yet moved, got %s", got)
	}
	records, _ := r.History(0)
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d", len(records))
	}
}

func TestAbort(t *testing.T) {
	var r *Runtime
	r = newTestRuntime(t, WithStepHandler(func(snap Snapshot) {
		if snap.Step == 2 {
			r.Abort()
		}
	}))
	res, err := r.Execute(context.Background(), "ПППП")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(res.Steps))
	}
	if r.State().Position != (Position{X: 2, Y: 0}) {
		t.Errorf("expected (2,0), got %s", r.State().Position)
	}
}

func TestStepDelayPacesPlayback(t *testing.T) {
	r := newTestRuntime(t, WithStepDelay(20*time.Millisecond))
	start := time.Now()
	if _, err := r.Execute(context.Background(), "ПНП"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Errorf("expected about 60ms of pacing, took %v", elapsed)
	}
}

func TestDeadlineStopsLongPlayback(t *testing.T) {
	r := newTestRuntime(t, WithStepDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res, err := r.Execute(ctx, "ПП")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if len(res.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(res.Steps))
	}
}

func TestRandomSamplesAreSeeded(t *testing.T) {
	a, err := New(WithSeed(11), WithSampleCount(4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()
	b, err := New(WithSeed(11), WithSampleCount(4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Close()

	sa, sb := a.Samples(), b.Samples()
	if len(sa) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(sa))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			t.Errorf("sample %d differs for equal seeds: %+v vs %+v", i, sa[i], sb[i])
		}
	}

	if err := a.ResetSamples(); err != nil {
		t.Fatalf("ResetSamples failed: %v", err)
	}
	if len(a.Samples()) != 4 {
		t.Errorf("expected 4 samples after reset, got %d", len(a.Samples()))
	}
}

func TestOptimize(t *testing.T) {
	r := newTestRuntime(t)
	if got := r.Optimize("ЛПЛПЛП"); got != "3(ЛП)" {
		t.Errorf("expected '3(ЛП)', got %q", got)
	}
}

func TestSQLiteHistoryOption(t *testing.T) {
	r := newTestRuntime(t, WithSQLiteHistory(":memory:"))
	if _, err := r.Execute(context.Background(), "ПО"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := r.History(5)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 || records[0].Optimized != "ПО" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestNegativeDelayRejected(t *testing.T) {
	if _, err := New(WithStepDelay(-time.Second)); err == nil {
		t.Error("expected error for negative step delay")
	}
}

func TestInvalidSamplesRejected(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
	}{
		{"zero id", []Sample{{ID: 0, Position: Position{X: 0, Y: 0}}}},
		{"negative id", []Sample{{ID: -2}}},
		{"duplicate id", []Sample{{ID: 1}, {ID: 1, Position: Position{X: 3, Y: 3}}}},
		{"off the table", []Sample{{ID: 1, Position: Position{X: GridSize, Y: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithStepDelay(0), WithSamples(tt.samples)); err == nil {
				t.Error("expected error for invalid samples")
			}
		})
	}
}
