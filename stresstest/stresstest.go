// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package stresstest fires order probes at randomly chosen tiers and
// summarizes how the gateway answered. Probes target tier ids that do
// not exist, so no order is ever placed.
package stresstest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/service"
)

// Defaults for a zero Config.
const (
	DefaultRequests    = 100
	DefaultConcurrency = 10

	minTierID = 1000
	maxTierID = 9999
)

// Prober submits one order for an arbitrary tier.
// service.OrderService satisfies it.
type Prober interface {
	Probe(ctx context.Context, ticketTypeID int) service.OrderResult
}

// Config configures a Run. Prober is required.
type Config struct {
	Prober      Prober
	Requests    int
	Concurrency int

	// Interval delays each worker between its own requests.
	Interval time.Duration

	// TierID picks the tier for each probe and must be safe for
	// concurrent use. Defaults to a uniform draw from 1000..9999.
	TierID func() int

	// OnResult, when set, is called after every probe. It may be
	// called from several goroutines at once.
	OnResult func(index int, result service.OrderResult, latency time.Duration)

	Clock  clock.Clock
	Logger *slog.Logger
}

// Report summarizes a finished run.
type Report struct {
	Total    int
	Success  int
	Failed   int
	Elapsed  time.Duration
	Latency  time.Duration // sum over all probes
	Messages map[string]int
	Category map[service.Category]int
}

// SuccessRate is the share of probes the gateway answered, in percent.
func (r Report) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Success) / float64(r.Total) * 100
}

// AverageLatency is the mean probe round trip.
func (r Report) AverageLatency() time.Duration {
	if r.Total == 0 {
		return 0
	}
	return r.Latency / time.Duration(r.Total)
}

// QPS is completed probes per second of wall time.
func (r Report) QPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Total) / r.Elapsed.Seconds()
}

// String renders the summary block printed after a run.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "总请求数: %d\n", r.Total)
	fmt.Fprintf(&b, "成功请求: %d\n", r.Success)
	fmt.Fprintf(&b, "失败请求: %d\n", r.Failed)
	fmt.Fprintf(&b, "成功率: %.2f%%\n", r.SuccessRate())
	fmt.Fprintf(&b, "总耗时: %.2f秒\n", r.Elapsed.Seconds())
	fmt.Fprintf(&b, "平均耗时: %.3f秒\n", r.AverageLatency().Seconds())
	fmt.Fprintf(&b, "QPS: %.2f", r.QPS())
	return b.String()
}

// Failed reports whether a probe counts as failed: the request never
// got a business answer from the gateway.
func Failed(result service.OrderResult) bool {
	switch result.Category {
	case service.CategoryTransport, service.CategoryRateLimit:
		return true
	}
	return strings.HasPrefix(result.Message, "请求错误")
}

// Run fires cfg.Requests probes with at most cfg.Concurrency in
// flight. Cancelling ctx stops issuing new probes; the report covers
// the probes that completed.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Prober == nil {
		return Report{}, errors.New("stresstest: Prober is required")
	}
	requests := cfg.Requests
	if requests <= 0 {
		requests = DefaultRequests
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	concurrency = min(concurrency, requests)
	tierID := cfg.TierID
	if tierID == nil {
		tierID = func() int { return minTierID + rand.IntN(maxTierID-minTierID+1) }
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Info("stress test starting", "requests", requests, "concurrency", concurrency, "interval", cfg.Interval)

	var (
		mu     sync.Mutex
		report = Report{Messages: make(map[string]int), Category: make(map[service.Category]int)}
		next   = make(chan int)
		wg     sync.WaitGroup
	)
	started := clk.Now()

	for range concurrency {
		wg.Go(func() {
			first := true
			for index := range next {
				if !first && clock.SleepContext(ctx, clk, cfg.Interval) != nil {
					return
				}
				first = false
				begin := clk.Now()
				result := cfg.Prober.Probe(ctx, tierID())
				latency := clk.Now().Sub(begin)

				mu.Lock()
				report.Total++
				if Failed(result) {
					report.Failed++
				} else {
					report.Success++
				}
				report.Latency += latency
				report.Messages[result.Message]++
				report.Category[result.Category]++
				mu.Unlock()

				logger.Debug("probe finished", "index", index, "category", result.Category, "message", result.Message, "latency", latency)
				if cfg.OnResult != nil {
					cfg.OnResult(index, result, latency)
				}
			}
		})
	}

feed:
	for index := range requests {
		select {
		case next <- index:
		case <-ctx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()

	report.Elapsed = clk.Now().Sub(started)
	logger.Info("stress test finished",
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
		"elapsed", report.Elapsed,
	)
	return report, nil
}
