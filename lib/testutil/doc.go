// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the select
// with a time.After safety valve, so tests that wait on goroutines do
// not hang forever when something breaks. They are the only place in
// the test suite that uses real wall-clock timeouts; everything else
// drives a clock.FakeClock.
//
// [Logger] returns an slog.Logger that writes through t.Log, so log
// output shows up next to the failing test instead of on stderr.
//
// All helpers call t.Fatalf on failure.
package testutil
