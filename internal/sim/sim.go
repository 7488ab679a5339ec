// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package sim replays manipulator symbols against the work table.
package sim

import (
	"fmt"
	"iter"

	"nickandperla.net/manipulator/internal/symbol"
)

// Position is a cell on the table. Both coordinates lie in [0, GridSize).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Sample is an object on the table.
type Sample struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
}

// State is the manipulator state. Holding is the held sample id, 0 if none.
type State struct {
	Position Position
	Holding  int
}

// IsHolding reports whether a sample is held.
func (s State) IsHolding() bool {
	return s.Holding != 0
}

// Snapshot is the state after one executed symbol.
type Snapshot struct {
	Step   int
	Symbol symbol.Symbol
	State  State
}

// Machine is the manipulator state machine. It owns its sample set.
type Machine struct {
	state   State
	samples []Sample
	steps   int
}

// NewMachine creates a machine at (0,0) holding nothing. The samples are
// copied.
func NewMachine(samples []Sample) *Machine {
	return &Machine{samples: CloneSamples(samples)}
}

// Apply executes one symbol and returns the resulting snapshot. Unknown
// symbols leave the state unchanged.
func (m *Machine) Apply(s symbol.Symbol) Snapshot {
	pos := &m.state.Position
	switch s {
	case symbol.Left:
		pos.X = max(0, pos.X-1)
	case symbol.Right:
		pos.X = min(symbol.GridSize-1, pos.X+1)
	case symbol.Up:
		pos.Y = max(0, pos.Y-1)
	case symbol.Down:
		pos.Y = min(symbol.GridSize-1, pos.Y+1)
	case symbol.Grab:
		m.grab()
	case symbol.Place:
		m.place()
	}
	m.steps++
	return Snapshot{Step: m.steps, Symbol: s, State: m.state}
}

// grab picks up the first sample at the current cell, in slice order.
func (m *Machine) grab() {
	if m.state.IsHolding() {
		return
	}
	for _, smp := range m.samples {
		if smp.Position == m.state.Position {
			m.state.Holding = smp.ID
			return
		}
	}
}

// place drops the held sample at the current cell.
func (m *Machine) place() {
	if !m.state.IsHolding() {
		return
	}
	for i := range m.samples {
		if m.samples[i].ID == m.state.Holding {
			m.samples[i].Position = m.state.Position
			break
		}
	}
	m.state.Holding = 0
}

// State returns the current manipulator state.
func (m *Machine) State() State {
	return m.state
}

// Samples returns a copy of the sample set.
func (m *Machine) Samples() []Sample {
	return CloneSamples(m.samples)
}

// Steps returns the number of symbols applied.
func (m *Machine) Steps() int {
	return m.steps
}

// Result is the outcome of a complete run.
type Result struct {
	Snapshots []Snapshot
	Final     State
	Samples   []Sample
}

// Run replays symbols from the initial state against a copy of samples.
func Run(symbols []symbol.Symbol, samples []Sample) Result {
	m := NewMachine(samples)
	snaps := make([]Snapshot, 0, len(symbols))
	for _, s := range symbols {
		snaps = append(snaps, m.Apply(s))
	}
	return Result{Snapshots: snaps, Final: m.State(), Samples: m.Samples()}
}

// Playback returns the snapshots of a run lazily. Every iteration starts
// over from the initial state; samples is copied up front.
func Playback(symbols []symbol.Symbol, samples []Sample) iter.Seq[Snapshot] {
	initial := CloneSamples(samples)
	return func(yield func(Snapshot) bool) {
		m := NewMachine(initial)
		for _, s := range symbols {
			if !yield(m.Apply(s)) {
				return
			}
		}
	}
}

// ValidateSamples checks that every sample has a positive id, no two share
// an id, and each lies on the table.
func ValidateSamples(samples []Sample) error {
	seen := make(map[int]bool, len(samples))
	for _, smp := range samples {
		if smp.ID <= 0 {
			return fmt.Errorf("sample id %d is not positive", smp.ID)
		}
		if seen[smp.ID] {
			return fmt.Errorf("duplicate sample id %d", smp.ID)
		}
		seen[smp.ID] = true
		if !inBounds(smp.Position) {
			return fmt.Errorf("sample %d at %s is off the table", smp.ID, smp.Position)
		}
	}
	return nil
}

// CloneSamples returns a deep copy of samples.
func CloneSamples(samples []Sample) []Sample {
	if samples == nil {
		return nil
	}
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}
