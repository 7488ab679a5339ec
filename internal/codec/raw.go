// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package codec

import (
	"fmt"
	"strings"
)

// Normalize upper-cases command text and trims surrounding whitespace, the
// way the command field treats typed input.
func Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// ValidateRaw rejects raw command text that is empty or contains digits or
// parentheses; those belong to the compact dialect only.
func ValidateRaw(text string) error {
	if text == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidInput)
	}
	pos := 0
	for _, r := range text {
		if r == '(' || r == ')' || (r >= '0' && r <= '9') {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidInput, r, pos)
		}
		pos++
	}
	return nil
}
