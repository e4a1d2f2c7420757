// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/service"
	"github.com/ticketzako/cppticketer/stresstest"
)

type stressParams struct {
	Requests    int           `flag:"requests,n" desc:"number of probe orders" default:"100"`
	Concurrency int           `flag:"concurrency,c" desc:"probes in flight at once" default:"10"`
	Interval    time.Duration `flag:"interval" desc:"pause between one worker's probes"`
	Yes         bool          `flag:"yes,y" desc:"start without asking for confirmation"`
	cli.JSONOutput
}

func stressCommand(opts appOptions) *cli.Command {
	var params stressParams

	return &cli.Command{
		Name:    "stress",
		Summary: "Measure how the order endpoint answers under load",
		Description: `Submit probe orders for random tier ids, which the platform rejects,
and report how many got a business answer, the latency and the
throughput. A probe fails when it never got a real answer: transport
errors and rate limits.

The probes are real requests under the logged-in account. Keep the
counts small.`,
		Usage: "cppticketer stress [--requests 100] [--concurrency 10] [--interval 0s]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("stress", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Requests <= 0 || params.Concurrency <= 0 {
				return cli.Validation("--requests and --concurrency must be positive")
			}
			if params.Interval < 0 {
				return cli.Validation("--interval must not be negative")
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.stress(ctx, params)
			})
		},
	}
}

type stressSummary struct {
	Total          int            `json:"total"`
	Success        int            `json:"success"`
	Failed         int            `json:"failed"`
	SuccessRate    float64        `json:"success_rate"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	AverageSeconds float64        `json:"average_seconds"`
	QPS            float64        `json:"qps"`
	Categories     map[string]int `json:"categories"`
	Messages       map[string]int `json:"messages"`
}

func (a *app) stress(ctx context.Context, params stressParams) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if !params.Yes && a.prompt.Interactive() {
		confirmed, err := a.prompt.Confirm(fmt.Sprintf("将以当前账号发送 %d 个测试订单请求，继续？", params.Requests), false)
		if err != nil {
			return promptError(err)
		}
		if !confirmed {
			fmt.Fprintln(a.prompt.Out, "已取消")
			return nil
		}
	}

	progress := newProgress(a.prompt.Out, params.Requests, a.prompt.Interactive())
	report, err := stresstest.Run(ctx, stresstest.Config{
		Prober:      a.orders,
		Requests:    params.Requests,
		Concurrency: params.Concurrency,
		Interval:    params.Interval,
		OnResult: func(int, service.OrderResult, time.Duration) {
			progress.step()
		},
		Clock:  a.clock,
		Logger: a.logger.With("component", "stresstest"),
	})
	progress.done()
	if err != nil {
		return cli.Internal("%v", err)
	}

	summary := stressSummary{
		Total:          report.Total,
		Success:        report.Success,
		Failed:         report.Failed,
		SuccessRate:    report.SuccessRate(),
		ElapsedSeconds: report.Elapsed.Seconds(),
		AverageSeconds: report.AverageLatency().Seconds(),
		QPS:            report.QPS(),
		Categories:     make(map[string]int, len(report.Category)),
		Messages:       report.Messages,
	}
	for category, count := range report.Category {
		summary.Categories[string(category)] = count
	}
	if done, err := params.EmitJSON(a.out, summary); done {
		return err
	}

	fmt.Fprintln(a.out, report.String())
	if len(report.Messages) > 0 {
		fmt.Fprintln(a.out)
		table := newTable(a.out)
		fmt.Fprintf(table, "次数\t返回信息\n")
		for _, entry := range sortedCounts(report.Messages) {
			fmt.Fprintf(table, "%d\t%s\n", entry.count, entry.key)
		}
		if err := table.Flush(); err != nil {
			return err
		}
	}
	return ctx.Err()
}

type countEntry struct {
	key   string
	count int
}

// sortedCounts orders a histogram by count, descending, then key.
func sortedCounts(counts map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, countEntry{key: key, count: count})
	}
	slices.SortFunc(entries, func(a, b countEntry) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})
	return entries
}

// progress rewrites one "n/total" line on a terminal. Off a terminal
// it stays silent.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	current int
	enabled bool
}

func newProgress(w io.Writer, total int, enabled bool) *progress {
	return &progress{w: w, total: total, enabled: enabled}
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	if p.enabled {
		fmt.Fprintf(p.w, "\r进度 %d/%d", p.current, p.total)
	}
}

func (p *progress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled && p.current > 0 {
		fmt.Fprintln(p.w)
	}
}
