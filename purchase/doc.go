// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package purchase runs the order poll loop.
//
// The loop is a small state machine:
//
//	Idle -> WaitingForSale -> CheckingStock <-> Submitting
//	                               ^              |
//	                               +-- Cooldown <-+
//
// and ends in Succeeded, Failed, or Cancelled. Submissions come in
// bursts of up to Settings.MaxConsecutiveRequest with no delay between
// them while the platform answers "sold out"; after a burst, or after
// a stock check that finds nothing, the loop waits RefreshInterval. A
// rate-limit or congestion answer waits RiskedInterval and resets the
// burst. A duplicate-order answer, or a message the order table does
// not know, ends the loop.
//
// Every state change is reported to the configured Observers. Time
// comes from a clock.Clock, so tests drive the loop with a fake clock.
package purchase
