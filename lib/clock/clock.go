// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source used by the poll loop, the stock monitor,
// the stress tester and the device bridge. Production code uses Real;
// tests use Fake and move time forward explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. A
	// non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker

	// Sleep blocks for at least d.
	Sleep(d time.Duration)
}

// Ticker delivers periodic ticks on C. The channel holds at most one
// pending tick; a slow reader loses ticks instead of queueing them.
type Ticker struct {
	C <-chan time.Time

	stop  func()
	reset func(time.Duration)
}

// Stop halts the ticker. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Reset changes the period and restarts the cycle from now.
func (t *Ticker) Reset(d time.Duration) { t.reset(d) }

// SleepContext sleeps for d on c, returning early with ctx.Err() if
// the context ends first.
func SleepContext(ctx interface {
	Done() <-chan struct{}
	Err() error
}, c Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
