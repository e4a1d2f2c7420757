// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/format"
	"github.com/ticketzako/cppticketer/notify"
	"github.com/ticketzako/cppticketer/purchase"
)

type runParams struct {
	Yes        bool `flag:"yes,y" desc:"start without asking for confirmation"`
	NoExternal bool `flag:"no-external" desc:"do not start or pair external notification channels before the run"`
	NoJournal  bool `flag:"no-journal" desc:"do not record the run in journal.db"`
}

func runCommand(opts appOptions) *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Poll until an order for the selected tier goes through",
		Description: `Check the session and the selection, then poll the selected tier's
stock and submit orders until one succeeds, the platform refuses the
order for good, or the command is interrupted.

Before the first check, the command waits for the tier's sale to
open. Enabled external channels (DG-Lab) are started and paired first
unless --no-external is given. Each run is recorded in journal.db;
see 'cppticketer history'.

Exit status is 0 on success or interrupt and 1 when the order failed.`,
		Usage: "cppticketer run [--yes] [--no-external] [--no-journal]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("run", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.purchase(ctx, params)
			})
		},
	}
}

// purchase runs one purchase attempt from session check to outcome.
func (a *app) purchase(ctx context.Context, params runParams) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	if err := purchase.Prepare(ctx, a.store.Snapshot(), a.products); err != nil {
		var notReady *purchase.NotReadyError
		if errors.As(err, &notReady) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return cli.Validation("%v", err)
		}
		return err
	}
	snapshot := a.store.Snapshot()

	fmt.Fprintln(a.out, notify.NewContent(snapshot, "").Body)
	fmt.Fprintf(a.out, "支付方式：%s\n", methodName(snapshot.Product.TicketMethod))
	if start := snapshot.Product.TicketType.SellStartTime; start > 0 {
		fmt.Fprintf(a.out, "开售时间：%s（%s）\n", format.DateTime(start), format.Relative(start, a.clock.Now()))
	}
	if !params.Yes && a.prompt.Interactive() {
		confirmed, err := a.prompt.Confirm("开始抢票？", true)
		if err != nil {
			return promptError(err)
		}
		if !confirmed {
			fmt.Fprintln(a.prompt.Out, "已取消")
			return nil
		}
	}

	if !params.NoExternal && snapshot.Notification.IsEnable {
		a.dispatcher.InitExternal(ctx)
		a.dispatcher.StartExternal(ctx)
		a.dispatcher.ConnectExternal(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	observers := []purchase.Observer{purchase.ObserverFunc(a.reportTransition)}
	var record *journalRun
	if !params.NoJournal {
		record = a.beginJournalRun(ctx)
		if record != nil {
			defer record.close()
			observers = append(observers, record.run)
		}
	}

	loop, err := purchase.New(purchase.Config{
		Stock:     a.products,
		Orders:    a.orders,
		Settings:  purchase.SettingsFrom(snapshot),
		Observers: observers,
		Notifier:  a.dispatcher,
		Clock:     a.clock,
		Logger:    a.logger.With("component", "purchase"),
	})
	if err != nil {
		return cli.Internal("starting purchase loop: %w", err)
	}

	a.logger.Info("purchase started", "event", snapshot.Product.TicketMain.ID,
		"tier", snapshot.Product.TicketType.ID, "buyers", snapshot.Buyer.Count)
	outcome := loop.Run(ctx)
	if record != nil {
		if err := record.run.Finish(outcome); err != nil {
			a.logger.Warn("journal outcome not recorded", "error", err)
		}
	}

	elapsed := outcome.Finished.Sub(outcome.Started).Round(time.Millisecond)
	fmt.Fprintf(a.out, "%s（提交 %d 次，检查 %d 次，用时 %s）\n",
		notify.ResultText(outcome), outcome.Submissions, outcome.Checks, elapsed)

	switch outcome.State {
	case purchase.Succeeded:
		return nil
	case purchase.Failed:
		return &cli.ExitError{Code: 1}
	default:
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	}
}

// reportTransition logs the loop's progress. Repeated empty stock
// checks are debug noise; everything else is worth a line.
func (a *app) reportTransition(transition purchase.Transition) {
	attrs := []any{"from", transition.From.String(), "to", transition.To.String()}
	if transition.Delay > 0 {
		attrs = append(attrs, "delay", transition.Delay)
	}
	if transition.Result != nil {
		attrs = append(attrs, "category", string(transition.Result.Category), "message", transition.Result.Message)
	}

	level := slog.LevelInfo
	switch {
	case transition.From == purchase.CheckingStock && transition.To == purchase.CheckingStock:
		level = slog.LevelDebug
		attrs = append(attrs, "stock", transition.Stock.String())
	case transition.From == purchase.Submitting && transition.To == purchase.Submitting:
		level = slog.LevelDebug
		attrs = append(attrs, "budget", transition.Budget)
	case transition.To == purchase.Cooldown:
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, "purchase state", attrs...)
}
