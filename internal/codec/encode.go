// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package codec converts between flat command text and compact notation.
//
// Encoding runs two passes. The first replaces every run of two or more
// identical runes with a count and the rune. The second splits the result
// at Grab and Place tokens and replaces each segment that is an exact
// repetition of a shorter prefix with count(prefix), choosing the shortest
// such prefix. Decoding parses the notation and expands it back.
package codec

import (
	"strings"

	"nickandperla.net/manipulator/internal/compact"
	"nickandperla.net/manipulator/internal/symbol"
)

// Encode compresses command text into compact notation. It never fails;
// runes outside the alphabet are carried through like any other. Text that
// already parses as compact notation is expanded first, so re-encoding
// optimized output yields the same commands.
func Encode(text string) string {
	return EncodeTree(text).String()
}

// EncodeTree is Encode returning the notation tree.
func EncodeTree(text string) compact.Sequence {
	if strings.ContainsAny(text, "0123456789()") {
		if flat, err := Canonicalize(text); err == nil {
			text = flat
		}
	}
	return foldSegments(runLength(text))
}

// runLength collapses consecutive identical runes into Run nodes.
func runLength(text string) compact.Sequence {
	var seq compact.Sequence
	var prev rune
	count := 0
	flush := func() {
		if count > 0 {
			seq = append(seq, compact.NewRun(count, symbol.Symbol(prev)))
		}
	}
	for _, r := range text {
		if count > 0 && r == prev {
			count++
			continue
		}
		flush()
		prev, count = r, 1
	}
	flush()
	return seq
}

// foldSegments folds every segment between action tokens. Action tokens,
// including runs of an action symbol, are kept verbatim. A segment followed
// by a counted action run stays unfolded: the run's count belongs to the
// segment's text, so no period of whole commands consumes it.
func foldSegments(tokens compact.Sequence) compact.Sequence {
	out := make(compact.Sequence, 0, len(tokens))
	start := 0
	for i, tok := range tokens {
		if !isDelimiter(tok) {
			continue
		}
		if _, counted := tok.(compact.Run); counted {
			out = append(out, tokens[start:i]...)
		} else {
			out = append(out, foldSegment(tokens[start:i])...)
		}
		out = append(out, tok)
		start = i + 1
	}
	return append(out, foldSegment(tokens[start:])...)
}

// foldSegment returns count(prefix) for the shortest prefix that tiles the
// segment at least twice, or the segment unchanged.
func foldSegment(seg compact.Sequence) compact.Sequence {
	if n, ok := shortestPeriod(seg); ok {
		body := make(compact.Sequence, n)
		copy(body, seg[:n])
		return compact.Sequence{compact.Group{Count: len(seg) / n, Body: body}}
	}
	return seg
}

// shortestPeriod finds the smallest n <= len(seg)/2 such that seg is seg[:n]
// repeated exactly.
func shortestPeriod(seg compact.Sequence) (int, bool) {
	for n := 1; n <= len(seg)/2; n++ {
		if len(seg)%n != 0 {
			continue
		}
		if tiles(seg, n) {
			return n, true
		}
	}
	return 0, false
}

func tiles(seg compact.Sequence, n int) bool {
	for i := n; i < len(seg); i++ {
		if seg[i] != seg[i%n] {
			return false
		}
	}
	return true
}

func isDelimiter(n compact.Node) bool {
	switch t := n.(type) {
	case compact.Literal:
		return t.Symbol.IsAction()
	case compact.Run:
		return t.Symbol.IsAction()
	}
	return false
}
