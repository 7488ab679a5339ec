// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sim

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"nickandperla.net/manipulator/internal/symbol"
)

// DefaultSampleCount is the number of samples placed on a fresh table.
const DefaultSampleCount = 3

// GenerateSamples places n samples with ids 1..n on random cells. Cells
// may repeat.
func GenerateSamples(n int, rng *rand.Rand) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, Sample{
			ID: i + 1,
			Position: Position{
				X: rng.IntN(symbol.GridSize),
				Y: rng.IntN(symbol.GridSize),
			},
		})
	}
	return samples
}

// Render draws the table as text, one row per line. The manipulator is M,
// or @ while holding; samples show their id's last digit; empty cells are
// dots. A held sample is drawn only with the manipulator.
func Render(state State, samples []Sample) string {
	var grid [symbol.GridSize][symbol.GridSize]byte
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = '.'
		}
	}
	for _, s := range samples {
		if s.ID == state.Holding || !inBounds(s.Position) {
			continue
		}
		grid[s.Position.Y][s.Position.X] = strconv.Itoa(s.ID % 10)[0]
	}
	if inBounds(state.Position) {
		mark := byte('M')
		if state.IsHolding() {
			mark = '@'
		}
		grid[state.Position.Y][state.Position.X] = mark
	}

	var sb strings.Builder
	for y := range grid {
		for x := range grid[y] {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(grid[y][x])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func inBounds(p Position) bool {
	return p.X >= 0 && p.X < symbol.GridSize && p.Y >= 0 && p.Y < symbol.GridSize
}
