// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
)

// ExitError asks main to exit with Code without printing anything: the
// command has already reported the problem.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCodeFor maps a command's result to the process exit code: 0 for
// success or an interrupt, the requested code for an ExitError, and 1
// for anything else.
func ExitCodeFor(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Silent reports whether err has already been reported to the user.
func Silent(err error) bool {
	var exit *ExitError
	return err == nil || errors.Is(err, context.Canceled) || errors.As(err, &exit)
}
