// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/format"
	"github.com/ticketzako/cppticketer/lib/tui"
	"github.com/ticketzako/cppticketer/service"
)

func productCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "product",
		Summary: "Show events and select the tier to buy",
		Description: `An event (ticketMain) has several tiers (ticketType): days, areas and
price levels. The purchase loop buys the one selected tier.`,
		Subcommands: []*cli.Command{
			productShowCommand(opts),
			productSelectCommand(opts),
		},
	}
}

type tierEntry struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Square       string `json:"square"`
	Price        int    `json:"price"`
	Remainder    int    `json:"remainder"`
	Locked       int    `json:"locked"`
	PurchaseNum  int    `json:"purchase_num"`
	RealnameAuth bool   `json:"realname_auth"`
	SellStart    string `json:"sell_start"`
	SellEnd      string `json:"sell_end"`
	Selected     bool   `json:"selected"`
}

type eventEntry struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Tiers []tierEntry `json:"tiers"`
}

func tierName(tier config.TicketType) string {
	return strings.TrimSpace(tier.Square + " " + tier.Name)
}

type productShowParams struct {
	cli.JSONOutput
	Event int `flag:"event,e" desc:"event id (default: the selected event)"`
}

func productShowCommand(opts appOptions) *cli.Command {
	var params productShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show an event's tiers and stock",
		Usage:   "cppticketer product show [--event ID] [--json]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				product := a.store.Snapshot().Product
				eventID := params.Event
				if eventID == 0 {
					eventID = product.TicketMain.ID
				}
				if eventID == 0 {
					return cli.Validation("no event selected; pass --event")
				}
				main, tiers, err := a.fetchEvent(ctx, eventID)
				if err != nil {
					return err
				}

				entry := eventEntry{ID: main.ID, Name: main.Name, Tiers: make([]tierEntry, len(tiers))}
				for index, tier := range tiers {
					entry.Tiers[index] = tierEntry{
						ID:           tier.ID,
						Name:         tier.Name,
						Square:       tier.Square,
						Price:        tier.Price,
						Remainder:    tier.RemainderNum,
						Locked:       tier.LockNum,
						PurchaseNum:  tier.PurchaseNum,
						RealnameAuth: tier.RealnameAuth,
						SellStart:    format.DateTime(tier.SellStartTime),
						SellEnd:      format.DateTime(tier.SellEndTime),
						Selected:     product.TicketType.ID == tier.ID,
					}
				}
				if done, err := params.EmitJSON(a.out, entry); done {
					return err
				}

				fmt.Fprintf(a.out, "%s (%d)\n\n", main.Name, main.ID)
				table := newTable(a.out)
				fmt.Fprintf(table, "ID\t票档\t价格\t余票\t锁定\t开售\t截止\t\n")
				for _, tier := range entry.Tiers {
					mark := ""
					if tier.Selected {
						mark = "*"
					}
					fmt.Fprintf(table, "%d\t%s %s\t%s\t%d\t%d\t%s\t%s\t%s\n",
						tier.ID, tier.Square, tier.Name, format.Price(tier.Price),
						tier.Remainder, tier.Locked, tier.SellStart, tier.SellEnd, mark)
				}
				return table.Flush()
			})
		},
	}
}

type productSelectParams struct {
	Event  int    `flag:"event,e" desc:"event id (prompted when omitted)"`
	Tier   int    `flag:"tier,t" desc:"tier id (the picker opens when omitted)"`
	Method string `flag:"method" desc:"payment method: ali or wx (default: keep the stored one)"`
}

func productSelectCommand(opts appOptions) *cli.Command {
	var params productSelectParams

	return &cli.Command{
		Name:    "select",
		Summary: "Choose the event, tier and payment method",
		Usage:   "cppticketer product select [--event ID] [--tier ID] [--method ali|wx]",
		Examples: []cli.Example{
			{Description: "Pick a tier of event 3001", Command: "cppticketer product select --event 3001"},
			{Description: "Select without prompts", Command: "cppticketer product select --event 3001 --tier 9001 --method wx"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("select", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.selectProduct(ctx, params)
			})
		},
	}
}

// fetchEvent loads an event and its tiers.
func (a *app) fetchEvent(ctx context.Context, eventID int) (config.TicketMain, []config.TicketType, error) {
	status, main, tiers := a.products.Get(ctx, eventID)
	if status != service.ProductSuccess {
		if ctx.Err() != nil {
			return config.TicketMain{}, nil, ctx.Err()
		}
		return config.TicketMain{}, nil, cli.Transient("fetching event %d failed: %s", eventID, status)
	}
	if len(tiers) == 0 {
		return config.TicketMain{}, nil, cli.NotFound("event %d lists no tiers", eventID)
	}
	return main, tiers, nil
}

func (a *app) selectProduct(ctx context.Context, params productSelectParams) error {
	stored := a.store.Snapshot().Product

	if params.Method != "" && params.Method != config.TicketMethodAli && params.Method != config.TicketMethodWechat {
		return cli.Validation("--method must be %q or %q, got %q", config.TicketMethodAli, config.TicketMethodWechat, params.Method)
	}

	eventID := params.Event
	if eventID == 0 {
		if !a.prompt.Interactive() {
			return cli.Validation("no terminal to ask for the event; pass --event")
		}
		var err error
		eventID, err = a.prompt.Int("活动 ID", stored.TicketMain.ID, func(id int) error {
			if id <= 0 {
				return fmt.Errorf("活动 ID 必须为正整数")
			}
			return nil
		})
		if err != nil {
			return promptError(err)
		}
	}

	main, tiers, err := a.fetchEvent(ctx, eventID)
	if err != nil {
		return err
	}

	var tier config.TicketType
	if params.Tier != 0 {
		found := false
		for _, candidate := range tiers {
			if candidate.ID == params.Tier {
				tier, found = candidate, true
				break
			}
		}
		if !found {
			return cli.NotFound("event %d has no tier %d", eventID, params.Tier)
		}
	} else {
		now := a.clock.Now().UnixMilli()
		items := make([]tui.Item, len(tiers))
		for index, candidate := range tiers {
			detail := fmt.Sprintf("%s  余票 %d  开售 %s", format.Price(candidate.Price),
				candidate.RemainderNum, format.DateTime(candidate.SellStartTime))
			items[index] = tui.Item{
				Title:    tierName(candidate),
				Detail:   detail,
				Disabled: candidate.SellEndTime > 0 && candidate.SellEndTime <= now,
			}
		}
		chosen, err := a.pick(ctx, tui.PickerConfig{
			Title: fmt.Sprintf("%s：选择票档", main.Name),
			Items: items,
		}, "--tier")
		if err != nil {
			return err
		}
		tier = tiers[chosen[0]]
	}

	if err := a.products.Select(main, tier); err != nil {
		return err
	}
	method := stored.TicketMethod
	if params.Method != "" {
		method = params.Method
		if err := a.store.SetTicketMethod(method); err != nil {
			return err
		}
	}
	a.logger.Info("product selected", "event", main.ID, "tier", tier.ID, "method", method)
	fmt.Fprintf(a.out, "已选择 %s / %s（%s，%s）\n", main.Name, tierName(tier), format.Price(tier.Price), methodName(method))
	return nil
}

func methodName(method string) string {
	switch method {
	case config.TicketMethodAli:
		return "支付宝"
	case config.TicketMethodWechat:
		return "微信"
	}
	return method
}
