// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package symbol defines the manipulator instruction alphabet.
package symbol

// Symbol is one atomic manipulator instruction. Runes outside the alphabet
// are carried through the codec and ignored by the simulator.
type Symbol rune

// The six instructions understood by the manipulator.
const (
	Left  Symbol = 'Л' // U+041B
	Right Symbol = 'П' // U+041F
	Up    Symbol = 'В' // U+0412
	Down  Symbol = 'Н' // U+041D
	Grab  Symbol = 'О' // U+041E
	Place Symbol = 'Б' // U+0411
)

// GridSize is the side length of the square work table.
const GridSize = 8

// Alphabet lists the known symbols in display order.
var Alphabet = []Symbol{Left, Right, Up, Down, Grab, Place}

// IsMovement returns true for the four movement symbols.
func (s Symbol) IsMovement() bool {
	switch s {
	case Left, Right, Up, Down:
		return true
	}
	return false
}

// IsAction returns true for Grab and Place. Action symbols delimit the
// segments that the encoder folds.
func (s Symbol) IsAction() bool {
	return s == Grab || s == Place
}

// IsKnown returns true if the symbol belongs to the alphabet.
func (s Symbol) IsKnown() bool {
	return s.IsMovement() || s.IsAction()
}

// Name returns the English name of a known symbol, or "" otherwise.
func (s Symbol) Name() string {
	switch s {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Grab:
		return "GRAB"
	case Place:
		return "PLACE"
	}
	return ""
}

// String returns the symbol as it appears in command text.
func (s Symbol) String() string {
	return string(rune(s))
}

// FromString converts text to symbols rune by rune.
func FromString(text string) []Symbol {
	out := make([]Symbol, 0, len(text))
	for _, r := range text {
		out = append(out, Symbol(r))
	}
	return out
}

// Join renders symbols back to command text.
func Join(symbols []Symbol) string {
	rs := make([]rune, len(symbols))
	for i, s := range symbols {
		rs[i] = rune(s)
	}
	return string(rs)
}
