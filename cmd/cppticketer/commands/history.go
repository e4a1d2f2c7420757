// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/journal"
	"github.com/ticketzako/cppticketer/lib/codec"
	"github.com/ticketzako/cppticketer/lib/format"
)

// journalRun pairs an open journal with the run being recorded.
type journalRun struct {
	journal *journal.Journal
	run     *journal.Run
}

func (r *journalRun) close() {
	r.journal.Close()
}

// beginJournalRun opens the journal and starts a run record. It
// returns nil when the journal is unavailable.
func (a *app) beginJournalRun(ctx context.Context) *journalRun {
	j := a.openJournal(ctx)
	if j == nil {
		return nil
	}
	run, err := j.BeginRun(ctx, a.store.Snapshot())
	if err != nil {
		a.logger.Warn("journal run not started", "error", err)
		j.Close()
		return nil
	}
	return &journalRun{journal: j, run: run}
}

// withJournal opens the journal for reading or fails.
func (a *app) withJournal(ctx context.Context, fn func(j *journal.Journal) error) error {
	j, err := journal.Open(ctx, journal.Config{
		Path:   a.journalPath,
		Clock:  a.clock,
		Logger: a.logger.With("component", "journal"),
	})
	if err != nil {
		return cli.Internal("opening journal: %w", err)
	}
	defer j.Close()
	return fn(j)
}

func historyCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Summary: "Show recorded purchase runs and stock samples",
		Description: `Every 'cppticketer run' records its selection, each state change of the
purchase loop, and the outcome in journal.db next to the config
directory. 'cppticketer monitor' records stock samples there too.
Credentials and buyer identities are not recorded.`,
		Subcommands: []*cli.Command{
			historyListCommand(opts),
			historyShowCommand(opts),
			historySamplesCommand(opts),
		},
	}
}

type historyListParams struct {
	cli.JSONOutput
	Limit int `flag:"limit,n" desc:"show at most this many runs (0 for all)" default:"20"`
}

type runEntry struct {
	ID       int64  `json:"id"`
	Started  string `json:"started"`
	Finished string `json:"finished,omitempty"`
	Event    int    `json:"event"`
	Tier     int    `json:"tier"`
	State    string `json:"state"`
	Message  string `json:"message,omitempty"`
}

func historyListCommand(opts appOptions) *cli.Command {
	var params historyListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List runs, newest first",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.withJournal(ctx, func(j *journal.Journal) error {
					records, err := j.Runs(ctx, params.Limit)
					if err != nil {
						return err
					}
					entries := make([]runEntry, len(records))
					for index, record := range records {
						entries[index] = runEntry{
							ID:      record.ID,
							Started: record.Started.Format(time.RFC3339),
							Event:   record.EventID,
							Tier:    record.TicketTypeID,
							State:   record.State,
							Message: record.Message,
						}
						if !record.Finished.IsZero() {
							entries[index].Finished = record.Finished.Format(time.RFC3339)
						}
					}
					if done, err := params.EmitJSON(a.out, entries); done {
						return err
					}
					if len(entries) == 0 {
						fmt.Fprintln(a.prompt.Out, "尚无抢票记录")
						return nil
					}

					now := a.clock.Now()
					table := newTable(a.out)
					fmt.Fprintf(table, "ID\t开始\t活动\t票档\t状态\t信息\n")
					for _, record := range records {
						state := record.State
						if state == "" {
							state = "running"
						}
						fmt.Fprintf(table, "%d\t%s\t%d\t%d\t%s\t%s\n", record.ID,
							format.Relative(record.Started.UnixMilli(), now),
							record.EventID, record.TicketTypeID, state, record.Message)
					}
					return table.Flush()
				})
			})
		},
	}
}

type historyShowParams struct {
	cli.JSONOutput
	CBOR bool `flag:"cbor" desc:"print the stored selection in CBOR diagnostic notation"`
}

func historyShowCommand(opts appOptions) *cli.Command {
	var params historyShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one run's selection and state changes",
		Usage:   "cppticketer history show RUN-ID",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("usage: cppticketer history show RUN-ID")
			}
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || runID <= 0 {
				return cli.Validation("run id must be a positive integer, got %q", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.withJournal(ctx, func(j *journal.Journal) error {
					snapshot, err := j.Snapshot(ctx, runID)
					if errors.Is(err, journal.ErrNoRun) {
						return cli.NotFound("no run %d in the journal", runID)
					}
					if err != nil {
						return err
					}
					transitions, err := j.Transitions(ctx, runID)
					if err != nil {
						return err
					}
					result := struct {
						Selection   journal.Snapshot           `json:"selection"`
						Transitions []journal.TransitionRecord `json:"transitions"`
					}{snapshot, transitions}
					if done, err := params.EmitJSON(a.out, result); done {
						return err
					}
					if params.CBOR {
						return printDiagnostic(a, snapshot)
					}

					fmt.Fprintf(a.out, "活动：%s (%d)\n", snapshot.Event.Name, snapshot.Event.ID)
					fmt.Fprintf(a.out, "票档：%s (%d) %s\n", tierName(snapshot.Tier), snapshot.Tier.ID, format.Price(snapshot.Tier.Price))
					fmt.Fprintf(a.out, "购票人：%d 位，支付方式：%s\n\n", len(snapshot.BuyerIDs), methodName(snapshot.Method))

					table := newTable(a.out)
					fmt.Fprintf(table, "#\t时间\t状态\t等待\t提交\t信息\n")
					for _, transition := range transitions {
						delay := ""
						if transition.Delay > 0 {
							delay = transition.Delay.String()
						}
						message := transition.Message
						if transition.Category != "" {
							message = transition.Category + " " + message
						}
						fmt.Fprintf(table, "%d\t%s\t%s → %s\t%s\t%d\t%s\n", transition.Seq,
							transition.At.Format(format.TimeLayout), transition.From, transition.To,
							delay, transition.Submissions, message)
					}
					return table.Flush()
				})
			})
		},
	}
}

// printDiagnostic re-encodes snapshot; encoding is deterministic, so
// the bytes match what the journal stored before compression.
func printDiagnostic(a *app, snapshot journal.Snapshot) error {
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return cli.Internal("encoding snapshot: %w", err)
	}
	diagnostic, err := codec.Diagnose(data)
	if err != nil {
		return cli.Internal("diagnosing snapshot: %w", err)
	}
	_, err = fmt.Fprintln(a.out, diagnostic)
	return err
}

type historySamplesParams struct {
	cli.JSONOutput
	Event int           `flag:"event,e" desc:"event id (default: the selected event)"`
	Since time.Duration `flag:"since" desc:"how far back to look" default:"24h"`
}

func historySamplesCommand(opts appOptions) *cli.Command {
	var params historySamplesParams

	return &cli.Command{
		Name:    "samples",
		Summary: "Show recorded stock samples of an event",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("samples", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				eventID := params.Event
				if eventID == 0 {
					eventID = a.store.Snapshot().Product.TicketMain.ID
				}
				if eventID == 0 {
					return cli.Validation("no event selected; pass --event")
				}
				return a.withJournal(ctx, func(j *journal.Journal) error {
					records, err := j.Samples(ctx, eventID, a.clock.Now().Add(-params.Since))
					if err != nil {
						return err
					}
					if done, err := params.EmitJSON(a.out, records); done {
						return err
					}
					if len(records) == 0 {
						fmt.Fprintf(a.prompt.Out, "活动 %d 在此期间没有库存记录\n", eventID)
						return nil
					}
					table := newTable(a.out)
					fmt.Fprintf(table, "时间\t票档\t价格\t余票\t锁定\n")
					for _, record := range records {
						fmt.Fprintf(table, "%s\t%s %s\t%s\t%d\t%d\n",
							record.At.Format(format.DateTimeLayout), record.Square, record.Name,
							format.Price(record.Price), record.Remainder, record.Locked)
					}
					return table.Flush()
				})
			})
		},
	}
}
