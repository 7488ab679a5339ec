// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package codec

import (
	"errors"
	"fmt"
)

// Errors returned by the decoder and input validation.
var (
	// ErrMalformedNotation indicates compact text that does not follow the
	// grammar: unmatched parentheses or a count with nothing to repeat.
	ErrMalformedNotation = errors.New("malformed compact notation")

	// ErrInvalidRepeatCount indicates a zero count, a count outside the int
	// range, or an expansion larger than the configured limit. It wraps
	// ErrMalformedNotation.
	ErrInvalidRepeatCount = fmt.Errorf("%w: invalid repeat count", ErrMalformedNotation)

	// ErrInvalidInput indicates raw command text that contains notation
	// characters or is empty.
	ErrInvalidInput = errors.New("invalid command input")
)

// DecodeError describes where decoding failed.
type DecodeError struct {
	// Offset is the rune offset in the compact text.
	Offset int
	// Message describes the failure.
	Message string
	// Err is ErrMalformedNotation or ErrInvalidRepeatCount.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Message)
}

// Unwrap returns the underlying sentinel.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func malformed(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Message: fmt.Sprintf(format, args...), Err: ErrMalformedNotation}
}

func invalidCount(offset int, format string, args ...any) error {
	return &DecodeError{Offset: offset, Message: fmt.Sprintf(format, args...), Err: ErrInvalidRepeatCount}
}
