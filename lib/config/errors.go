// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package config

import "fmt"

// LoadError reports a configuration file that could not be read,
// decrypted, parsed, or validated.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports a failed persist. The in-memory document is
// unaffected and the previous file stays in place.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving config %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
