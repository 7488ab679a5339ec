// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package compact defines the tree form of compact command notation.
package compact

import (
	"math"
	"strconv"
	"strings"

	"nickandperla.net/manipulator/internal/symbol"
)

// Node is the interface all compact notation nodes implement.
type Node interface {
	// String returns the compact notation for the node.
	String() string
	// Size returns the number of atomic symbols the node expands to,
	// saturating at math.MaxInt.
	Size() int
	// AppendTo appends the expanded symbols to dst.
	AppendTo(dst []symbol.Symbol) []symbol.Symbol
}

// Literal is a single symbol.
type Literal struct {
	Symbol symbol.Symbol
}

func (l Literal) String() string { return l.Symbol.String() }
func (l Literal) Size() int      { return 1 }
func (l Literal) AppendTo(dst []symbol.Symbol) []symbol.Symbol {
	return append(dst, l.Symbol)
}

// Run is a symbol repeated Count times (3Л).
type Run struct {
	Count  int
	Symbol symbol.Symbol
}

func (r Run) String() string {
	return strconv.Itoa(r.Count) + r.Symbol.String()
}
func (r Run) Size() int { return r.Count }
func (r Run) AppendTo(dst []symbol.Symbol) []symbol.Symbol {
	for i := 0; i < r.Count; i++ {
		dst = append(dst, r.Symbol)
	}
	return dst
}

// Group is a sequence repeated Count times (3(ЛП)).
type Group struct {
	Count int
	Body  Sequence
}

func (g Group) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(g.Count))
	sb.WriteByte('(')
	sb.WriteString(g.Body.String())
	sb.WriteByte(')')
	return sb.String()
}
func (g Group) Size() int { return mulSat(g.Count, g.Body.Size()) }
func (g Group) AppendTo(dst []symbol.Symbol) []symbol.Symbol {
	if g.Count <= 0 {
		return dst
	}
	start := len(dst)
	dst = g.Body.AppendTo(dst)
	if len(dst) == start {
		return dst
	}
	body := dst[start:]
	for i := 1; i < g.Count; i++ {
		dst = append(dst, body...)
		body = dst[start : start+len(body)]
	}
	return dst
}

// Sequence is an ordered list of nodes.
type Sequence []Node

func (s Sequence) String() string {
	var sb strings.Builder
	for _, n := range s {
		sb.WriteString(n.String())
	}
	return sb.String()
}

func (s Sequence) Size() int {
	total := 0
	for _, n := range s {
		total = addSat(total, n.Size())
	}
	return total
}

func (s Sequence) AppendTo(dst []symbol.Symbol) []symbol.Symbol {
	for _, n := range s {
		dst = n.AppendTo(dst)
	}
	return dst
}

// NewRun returns a Run, or a Literal when count is 1.
func NewRun(count int, s symbol.Symbol) Node {
	if count == 1 {
		return Literal{Symbol: s}
	}
	return Run{Count: count, Symbol: s}
}

// Flatten expands a node to its atomic symbols.
func Flatten(n Node) []symbol.Symbol {
	if n == nil {
		return nil
	}
	return n.AppendTo(make([]symbol.Symbol, 0, min(n.Size(), maxPrealloc)))
}

// maxPrealloc caps the capacity Flatten reserves up front.
const maxPrealloc = 1 << 16

func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func mulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}
