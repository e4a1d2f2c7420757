// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at start. Nothing fires until
// Advance moves time past a waiter's deadline.
func Fake(start time.Time) *FakeClock {
	clock := &FakeClock{now: start}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a manually driven Clock. It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
	changed *sync.Cond
}

type waiter struct {
	deadline time.Time
	channel  chan time.Time
	period   time.Duration // non-zero for tickers
	stopped  bool
}

// Now returns the frozen time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot waiter.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.waiters = append(c.waiters, &waiter{deadline: c.now.Add(d), channel: channel})
	c.changed.Broadcast()
	return channel
}

// NewTicker registers a periodic waiter.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &waiter{deadline: c.now.Add(d), channel: make(chan time.Time, 1), period: d}
	c.waiters = append(c.waiters, entry)
	c.changed.Broadcast()

	return &Ticker{
		C: entry.channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			entry.stopped = true
		},
		reset: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			entry.period = d
			entry.deadline = c.now.Add(d)
			entry.stopped = false
		},
	}
}

// Sleep blocks until Advance passes the deadline.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves time forward by d and fires every waiter whose
// deadline is reached, earliest first. A ticker spanned by several
// periods fires once per period; ticks that do not fit in its buffer
// are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
		for _, event := range due {
			select {
			case event.channel <- target:
			default:
			}
		}
	}
}

type firing struct {
	deadline time.Time
	channel  chan time.Time
}

// takeDue removes expired one-shot waiters, moves tickers to their
// next period and returns everything that fires at target.
func (c *FakeClock) takeDue(target time.Time) []firing {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []firing
	var pending []*waiter
	for _, entry := range c.waiters {
		switch {
		case entry.stopped:
		case entry.deadline.After(target):
			pending = append(pending, entry)
		default:
			due = append(due, firing{deadline: entry.deadline, channel: entry.channel})
			if entry.period > 0 {
				entry.deadline = entry.deadline.Add(entry.period)
				pending = append(pending, entry)
			}
		}
	}
	c.waiters = pending
	return due
}

// WaitForTimers blocks until at least n waiters are registered. Call
// it before Advance so a goroutine's Sleep or After is in place before
// time moves.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// PendingCount reports the number of registered, unstopped waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, entry := range c.waiters {
		if !entry.stopped {
			count++
		}
	}
	return count
}
