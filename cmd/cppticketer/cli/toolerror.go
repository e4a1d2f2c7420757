// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors for the final error line.
type ErrorCategory string

const (
	// CategoryValidation is bad input: unknown ids, malformed values,
	// missing arguments. Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound is a referenced platform object that does not
	// exist: an event id, a tier id, a purchaser.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryAuth is a login the platform refused.
	CategoryAuth ErrorCategory = "auth"

	// CategoryTransient is a network or platform failure that may pass.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal is everything unexpected: I/O, corrupt files.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error. It wraps the underlying
// error so errors.Is and errors.As see through it.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Auth creates an authentication error.
func Auth(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryAuth, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
