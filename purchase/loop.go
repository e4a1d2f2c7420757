// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package purchase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/service"
)

// StockChecker reports whether the selected tier has stock.
type StockChecker interface {
	CheckTicket(ctx context.Context) service.ProductStatus
}

// OrderSubmitter submits one order for the current selection.
type OrderSubmitter interface {
	Create(ctx context.Context) service.OrderResult
}

// Notifier is told how a run ended when it ended in Succeeded or
// Failed. Its problems are its own; the outcome does not change.
type Notifier interface {
	PurchaseFinished(ctx context.Context, outcome Outcome)
}

// Settings are the loop's timing knobs.
type Settings struct {
	MaxConsecutiveRequest int
	RiskedInterval        time.Duration
	RefreshInterval       time.Duration

	// SellStartTime delays the first stock check. Zero means none.
	SellStartTime time.Time
}

// Config configures New. Stock, Orders and Settings are required.
type Config struct {
	Stock     StockChecker
	Orders    OrderSubmitter
	Settings  Settings
	Observers []Observer
	Notifier  Notifier
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Loop runs purchase attempts. A Loop runs once.
type Loop struct {
	stock     StockChecker
	orders    OrderSubmitter
	settings  Settings
	observers []Observer
	notifier  Notifier
	clock     clock.Clock
	logger    *slog.Logger

	state       State
	budget      int
	submissions int
	checks      int
}

// New validates config and builds a Loop.
func New(config Config) (*Loop, error) {
	if config.Stock == nil || config.Orders == nil {
		return nil, errors.New("purchase: Stock and Orders are required")
	}
	if config.Settings.MaxConsecutiveRequest < 1 {
		return nil, errors.New("purchase: MaxConsecutiveRequest must be at least 1")
	}
	if config.Settings.RiskedInterval < 0 || config.Settings.RefreshInterval < 0 {
		return nil, errors.New("purchase: intervals must not be negative")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		stock:     config.Stock,
		orders:    config.Orders,
		settings:  config.Settings,
		observers: config.Observers,
		notifier:  config.Notifier,
		clock:     clk,
		logger:    logger,
		state:     Idle,
	}, nil
}

// Run drives the loop until it succeeds, fails, or ctx ends.
func (l *Loop) Run(ctx context.Context) Outcome {
	outcome := Outcome{Started: l.clock.Now()}
	finish := func(state State, result service.OrderResult) Outcome {
		outcome.State = state
		outcome.Result = result
		outcome.Submissions = l.submissions
		outcome.Checks = l.checks
		outcome.Finished = l.clock.Now()
		if state == Succeeded || state == Failed {
			l.logger.Info("purchase finished", "state", state.String(),
				"submissions", l.submissions, "message", result.Message)
			if l.notifier != nil {
				l.notifier.PurchaseFinished(context.WithoutCancel(ctx), outcome)
			}
		}
		return outcome
	}
	cancelled := func(result service.OrderResult) Outcome {
		l.move(Transition{To: Cancelled})
		return finish(Cancelled, result)
	}

	l.budget = l.settings.MaxConsecutiveRequest

	if wait := l.settings.SellStartTime.Sub(l.clock.Now()); !l.settings.SellStartTime.IsZero() && wait > 0 {
		l.logger.Info("waiting for sale to open", "opens", l.settings.SellStartTime, "wait", wait)
		l.move(Transition{To: WaitingForSale, Delay: wait})
		if err := clock.SleepContext(ctx, l.clock, wait); err != nil {
			return cancelled(service.OrderResult{})
		}
	}

	var last service.OrderResult
	l.move(Transition{To: CheckingStock})
	for {
		if ctx.Err() != nil {
			return cancelled(last)
		}

		switch l.state {
		case CheckingStock:
			l.checks++
			stock := l.stock.CheckTicket(ctx)
			if ctx.Err() != nil {
				return cancelled(last)
			}
			if stock == service.ProductSuccess {
				l.move(Transition{To: Submitting, Stock: stock})
				continue
			}
			l.logger.Debug("no stock", "status", stock.String())
			l.move(Transition{To: CheckingStock, Stock: stock, Delay: l.settings.RefreshInterval})
			if err := clock.SleepContext(ctx, l.clock, l.settings.RefreshInterval); err != nil {
				return cancelled(last)
			}

		case Submitting:
			l.submissions++
			l.budget--
			result := l.orders.Create(ctx)
			last = result
			if ctx.Err() != nil {
				return cancelled(last)
			}

			switch result.Category {
			case service.CategorySuccess:
				l.move(Transition{To: Succeeded, Result: &result})
				return finish(Succeeded, result)

			case service.CategoryStock:
				if l.budget > 0 {
					l.move(Transition{To: Submitting, Result: &result})
					continue
				}
				l.budget = l.settings.MaxConsecutiveRequest
				l.move(Transition{To: CheckingStock, Result: &result, Delay: l.settings.RefreshInterval})
				if err := clock.SleepContext(ctx, l.clock, l.settings.RefreshInterval); err != nil {
					return cancelled(last)
				}

			case service.CategoryRateLimit, service.CategoryTransport:
				l.logger.Warn("platform is throttling, cooling down",
					"message", result.Message, "cooldown", l.settings.RiskedInterval)
				l.move(Transition{To: Cooldown, Result: &result, Delay: l.settings.RiskedInterval})
				if err := clock.SleepContext(ctx, l.clock, l.settings.RiskedInterval); err != nil {
					return cancelled(last)
				}
				l.budget = l.settings.MaxConsecutiveRequest
				l.move(Transition{To: CheckingStock})

			default:
				if !result.Known() {
					l.logger.Error("unrecognized order message", "message", result.Message)
				}
				l.move(Transition{To: Failed, Result: &result})
				return finish(Failed, result)
			}
		}
	}
}

// State returns the current state. It is only meaningful from an
// Observer or after Run returns.
func (l *Loop) State() State { return l.state }

func (l *Loop) move(transition Transition) {
	transition.From = l.state
	transition.At = l.clock.Now()
	transition.Submissions = l.submissions
	transition.Budget = l.budget
	l.state = transition.To
	for _, observer := range l.observers {
		observer.Transition(transition)
	}
}
