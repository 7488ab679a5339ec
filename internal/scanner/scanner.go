// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming Unicode-aware lexer for compact
// command notation.
package scanner

import (
	"bufio"
	"io"
	"strings"
)

// Kind is the type of a scanned item.
type Kind int

const (
	EOF     Kind = iota
	COUNT        // decimal digit run
	LPAREN       // (
	RPAREN       // )
	LITERAL      // any other single rune
)

// String returns the string representation of a kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case COUNT:
		return "COUNT"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LITERAL:
		return "LITERAL"
	}
	return "UNKNOWN"
}

// Item represents a scanned token with its value.
type Item struct {
	Kind   Kind
	Value  string
	Offset int // Rune offset where this item started
}

// Scanner tokenizes compact notation rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	offset int // Runes consumed so far
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReader(r)}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Next returns the next item from the input.
func (s *Scanner) Next() (*Item, error) {
	r, _, err := s.reader.ReadRune()
	if err == io.EOF {
		return &Item{Kind: EOF, Offset: s.offset}, nil
	}
	if err != nil {
		return nil, err
	}
	start := s.offset
	s.offset++

	switch {
	case r == '(':
		return &Item{Kind: LPAREN, Value: "(", Offset: start}, nil
	case r == ')':
		return &Item{Kind: RPAREN, Value: ")", Offset: start}, nil
	case isDigit(r):
		return s.scanCount(r, start)
	}
	return &Item{Kind: LITERAL, Value: string(r), Offset: start}, nil
}

// scanCount reads the rest of a digit run that began with first.
func (s *Scanner) scanCount(first rune, start int) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isDigit(r) {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
		s.offset++
	}
	return &Item{Kind: COUNT, Value: s.buf.String(), Offset: start}, nil
}

// isDigit reports ASCII decimal digits only; other Unicode digits are
// ordinary literals.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
