// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package purchase

import (
	"time"

	"github.com/ticketzako/cppticketer/service"
)

// State is a poll loop state.
type State int

const (
	Idle State = iota
	WaitingForSale
	CheckingStock
	Submitting
	Cooldown
	Succeeded
	Failed
	Cancelled
)

var stateNames = [...]string{
	Idle:           "idle",
	WaitingForSale: "waiting_for_sale",
	CheckingStock:  "checking_stock",
	Submitting:     "submitting",
	Cooldown:       "cooldown",
	Succeeded:      "succeeded",
	Failed:         "failed",
	Cancelled:      "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == Cancelled
}

// Transition is one reported state change. Delay is how long the loop
// waits in To before acting; zero means it acts at once. A check that
// finds no stock is reported as CheckingStock to CheckingStock.
type Transition struct {
	From State
	To   State
	At   time.Time

	Delay time.Duration

	// Submissions counts orders submitted so far; Budget is what is
	// left of the current burst.
	Submissions int
	Budget      int

	// Stock is set on transitions caused by a stock check.
	Stock service.ProductStatus

	// Result is set on transitions caused by an order submission.
	Result *service.OrderResult
}

// Observer receives every transition, synchronously, on the loop's
// goroutine.
type Observer interface {
	Transition(Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// Transition calls f.
func (f ObserverFunc) Transition(transition Transition) { f(transition) }

// Outcome is how a run ended.
type Outcome struct {
	State       State
	Result      service.OrderResult
	Submissions int
	Checks      int
	Started     time.Time
	Finished    time.Time
}
