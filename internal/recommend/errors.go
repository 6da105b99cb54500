// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package recommend

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks malformed or out-of-range caller input. Use
// errors.Is to test for it; the concrete *InputError carries detail.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a malformed or out-of-range preference or attribute
// value. The call that received it aborts; clamping only ever happens
// internally during preference updates, never on caller input.
type InputError struct {
	// Field names the offending field, dot-separated for map entries.
	Field string

	// Value is the rejected value, when meaningful.
	Value interface{}

	// Reason explains the violated constraint.
	Reason string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid input: %s: %s (got %v)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) succeed.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
