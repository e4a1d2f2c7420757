// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor polls an event's tiers and reports their stock.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/service"
)

// DefaultInterval is the polling interval when none is given.
const DefaultInterval = 5 * time.Second

// Fetcher loads an event and its tiers. service.ProductService
// satisfies it.
type Fetcher interface {
	Get(ctx context.Context, eventMainID int) (service.ProductStatus, config.TicketMain, []config.TicketType)
}

// Sample is one poll's view of an event.
type Sample struct {
	At    time.Time
	Event config.TicketMain
	Tiers []config.TicketType

	// Changed is false when a remainder-only comparison with the
	// previous sample found nothing new.
	Changed bool
}

// Remainders maps tier id to remaining stock.
func (s Sample) Remainders() map[int]int {
	remainders := make(map[int]int, len(s.Tiers))
	for _, tier := range s.Tiers {
		remainders[tier.ID] = tier.RemainderNum
	}
	return remainders
}

// Observer receives reported samples.
type Observer interface {
	Sample(ctx context.Context, sample Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, sample Sample)

// Sample calls f.
func (f ObserverFunc) Sample(ctx context.Context, sample Sample) { f(ctx, sample) }

// Config configures a Monitor. Fetcher and EventID are required.
type Config struct {
	Fetcher Fetcher
	EventID int

	// Interval between polls. Zero polls again at once; negative
	// means DefaultInterval.
	Interval time.Duration

	// ChangesOnly reports a sample only when a tier's remainder moved
	// or the tier list changed size. The first sample is always
	// reported.
	ChangesOnly bool

	Observers []Observer
	Clock     clock.Clock
	Logger    *slog.Logger
}

// Monitor polls one event.
type Monitor struct {
	fetcher     Fetcher
	eventID     int
	interval    time.Duration
	changesOnly bool
	observers   []Observer
	clock       clock.Clock
	logger      *slog.Logger

	previous map[int]int
}

// New validates cfg and builds a Monitor.
func New(cfg Config) (*Monitor, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("monitor: Fetcher is required")
	}
	if cfg.EventID <= 0 {
		return nil, fmt.Errorf("monitor: invalid event id %d", cfg.EventID)
	}
	interval := cfg.Interval
	if interval < 0 {
		interval = DefaultInterval
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		fetcher:     cfg.Fetcher,
		eventID:     cfg.EventID,
		interval:    interval,
		changesOnly: cfg.ChangesOnly,
		observers:   cfg.Observers,
		clock:       clk,
		logger:      logger,
	}, nil
}

// Poll fetches the event once. The sample's Changed flag compares it
// with the previous successful poll.
func (m *Monitor) Poll(ctx context.Context) (Sample, error) {
	status, event, tiers := m.fetcher.Get(ctx, m.eventID)
	if status != service.ProductSuccess {
		return Sample{}, fmt.Errorf("monitor: fetching event %d: %s", m.eventID, status)
	}
	sample := Sample{At: m.clock.Now(), Event: event, Tiers: tiers}
	current := sample.Remainders()
	sample.Changed = m.previous == nil || changed(m.previous, current)
	m.previous = current
	return sample, nil
}

func changed(previous, current map[int]int) bool {
	if len(previous) != len(current) {
		return true
	}
	for id, remainder := range current {
		if before, ok := previous[id]; ok && before != remainder {
			return true
		}
	}
	return false
}

// Run polls until ctx ends. A failure on the first poll is returned;
// later failures are logged and polling continues.
func (m *Monitor) Run(ctx context.Context) error {
	first := true
	for {
		sample, err := m.Poll(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && first:
			return err
		case err != nil:
			m.logger.Warn("stock poll failed, retrying", "event", m.eventID, "error", err)
		default:
			first = false
			if !m.changesOnly || sample.Changed {
				for _, observer := range m.observers {
					observer.Sample(ctx, sample)
				}
			} else {
				m.logger.Debug("remainders unchanged", "event", m.eventID)
			}
		}
		if clock.SleepContext(ctx, m.clock, m.interval) != nil {
			return nil
		}
	}
}
