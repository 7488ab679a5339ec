// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package codec

import (
	"strconv"

	"nickandperla.net/manipulator/internal/compact"
	"nickandperla.net/manipulator/internal/scanner"
	"nickandperla.net/manipulator/internal/symbol"
)

// DefaultExpandLimit bounds the number of symbols Expand will produce.
const DefaultExpandLimit = 1 << 20

// Parse reads compact notation into a tree.
//
//	sequence := item*
//	item     := literal | count literal | count '(' sequence ')'
//	count    := digit+
func Parse(text string) (compact.Sequence, error) {
	p := &parser{sc: scanner.NewFromString(text)}
	return p.parseSequence(-1)
}

// Expand parses compact notation and returns the atomic symbols, refusing
// expansions longer than DefaultExpandLimit.
func Expand(text string) ([]symbol.Symbol, error) {
	return ExpandLimit(text, DefaultExpandLimit)
}

// ExpandLimit is Expand with an explicit limit. A limit <= 0 disables it.
func ExpandLimit(text string, limit int) ([]symbol.Symbol, error) {
	seq, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		if size := seq.Size(); size > limit {
			return nil, invalidCount(0, "expands to more than %d symbols", limit)
		}
	}
	return compact.Flatten(seq), nil
}

// Canonicalize flattens compact notation to plain command text.
func Canonicalize(text string) (string, error) {
	symbols, err := Expand(text)
	if err != nil {
		return "", err
	}
	return symbol.Join(symbols), nil
}

type parser struct {
	sc *scanner.Scanner
}

// parseSequence parses items until EOF or, inside a group, the closing
// paren. open is the offset of the opening paren, or -1 at top level.
func (p *parser) parseSequence(open int) (compact.Sequence, error) {
	seq := compact.Sequence{}
	for {
		item, err := p.sc.Next()
		if err != nil {
			return nil, err
		}

		switch item.Kind {
		case scanner.EOF:
			if open >= 0 {
				return nil, malformed(open, "unmatched '('")
			}
			return seq, nil

		case scanner.RPAREN:
			if open < 0 {
				return nil, malformed(item.Offset, "unmatched ')'")
			}
			return seq, nil

		case scanner.LPAREN:
			return nil, malformed(item.Offset, "group without repeat count")

		case scanner.LITERAL:
			seq = append(seq, compact.Literal{Symbol: literal(item)})

		case scanner.COUNT:
			node, err := p.parseRepeat(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, node)
		}
	}
}

// parseRepeat parses what follows a count: a group body or one literal.
func (p *parser) parseRepeat(countItem *scanner.Item) (compact.Node, error) {
	count, err := strconv.Atoi(countItem.Value)
	if err != nil {
		return nil, invalidCount(countItem.Offset, "count %s out of range", countItem.Value)
	}
	if count <= 0 {
		return nil, invalidCount(countItem.Offset, "count must be positive, got %d", count)
	}

	next, err := p.sc.Next()
	if err != nil {
		return nil, err
	}
	switch next.Kind {
	case scanner.LPAREN:
		body, err := p.parseSequence(next.Offset)
		if err != nil {
			return nil, err
		}
		return compact.Group{Count: count, Body: body}, nil
	case scanner.LITERAL:
		return compact.Run{Count: count, Symbol: literal(next)}, nil
	case scanner.EOF:
		return nil, malformed(countItem.Offset, "count %d at end of input", count)
	}
	return nil, malformed(next.Offset, "count %d followed by %q", count, next.Value)
}

func literal(item *scanner.Item) symbol.Symbol {
	for _, r := range item.Value {
		return symbol.Symbol(r)
	}
	return 0
}
