// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/format"
	"github.com/ticketzako/cppticketer/lib/tui"
	"github.com/ticketzako/cppticketer/monitor"
)

// lowStockWater is the remainder at or below which a tier is shown
// as nearly sold out.
const lowStockWater = 10

type monitorParams struct {
	Event       int           `flag:"event,e" desc:"event id (default: the selected event)"`
	Interval    time.Duration `flag:"interval,i" desc:"time between polls" default:"5s"`
	ChangesOnly bool          `flag:"changes-only" desc:"print a sample only when some tier's stock moved"`
	NoJournal   bool          `flag:"no-journal" desc:"do not record samples in journal.db"`
}

func monitorCommand(opts appOptions) *cli.Command {
	var params monitorParams

	return &cli.Command{
		Name:    "monitor",
		Summary: "Watch an event's stock without buying",
		Description: `Poll an event and print every tier's remaining stock until
interrupted. Samples are recorded in journal.db unless --no-journal is
given, so 'cppticketer history samples' can show how stock moved.`,
		Usage: "cppticketer monitor [--event ID] [--interval 5s] [--changes-only]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("monitor", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.watchStock(ctx, params)
			})
		},
	}
}

func (a *app) watchStock(ctx context.Context, params monitorParams) error {
	eventID := params.Event
	if eventID == 0 {
		eventID = a.store.Snapshot().Product.TicketMain.ID
	}
	if eventID == 0 {
		return cli.Validation("no event selected; pass --event")
	}
	if params.Interval < 0 {
		return cli.Validation("--interval must not be negative")
	}

	observers := []monitor.Observer{stockPrinter(a.out)}
	if !params.NoJournal {
		if j := a.openJournal(ctx); j != nil {
			defer j.Close()
			observers = append(observers, j.SampleObserver())
		}
	}

	watcher, err := monitor.New(monitor.Config{
		Fetcher:     a.products,
		EventID:     eventID,
		Interval:    params.Interval,
		ChangesOnly: params.ChangesOnly,
		Observers:   observers,
		Clock:       a.clock,
		Logger:      a.logger.With("component", "monitor"),
	})
	if err != nil {
		return cli.Validation("%v", err)
	}
	a.logger.Info("monitoring stock", "event", eventID, "interval", params.Interval)
	if err := watcher.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cli.Transient("%v", err)
	}
	return ctx.Err()
}

// stockPrinter renders each sample as a block of colored tier lines.
func stockPrinter(w io.Writer) monitor.Observer {
	renderer := tui.NewRenderer(w)
	theme := tui.DefaultTheme
	header := renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	faint := renderer.NewStyle().Foreground(theme.FaintText)

	return monitor.ObserverFunc(func(_ context.Context, sample monitor.Sample) {
		fmt.Fprintf(w, "%s %s\n", faint.Render(sample.At.Format(format.TimeLayout)),
			header.Render(sample.Event.Name))
		for _, tier := range sample.Tiers {
			stock := renderer.NewStyle().Foreground(theme.StockColor(tier.RemainderNum, lowStockWater))
			fmt.Fprintf(w, "  %-24s %10s  %s\n", tierName(tier), format.Price(tier.Price),
				stock.Render(stockLabel(tier.RemainderNum, tier.LockNum)))
		}
	})
}

func stockLabel(remainder, locked int) string {
	if remainder <= 0 {
		if locked > 0 {
			return fmt.Sprintf("售罄（锁定 %d）", locked)
		}
		return "售罄"
	}
	if locked > 0 {
		return fmt.Sprintf("余 %d（锁定 %d）", remainder, locked)
	}
	return fmt.Sprintf("余 %d", remainder)
}
