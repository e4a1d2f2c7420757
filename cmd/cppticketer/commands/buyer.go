// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/privacy"
	"github.com/ticketzako/cppticketer/lib/tui"
	"github.com/ticketzako/cppticketer/service"
)

func buyerCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "buyer",
		Summary: "List and select the buyers an order is placed for",
		Description: `Buyers are the real-name purchasers registered on the allcpp account.
An order is placed for every selected buyer, one ticket each.`,
		Subcommands: []*cli.Command{
			buyerListCommand(opts),
			buyerSelectCommand(opts),
		},
	}
}

type buyerEntry struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IDCard   string `json:"idcard"`
	Mobile   string `json:"mobile"`
	Selected bool   `json:"selected"`
}

func maskBuyer(buyer config.Buyer, selected bool) buyerEntry {
	return buyerEntry{
		ID:       buyer.ID,
		Name:     privacy.MaskName(buyer.RealName),
		IDCard:   privacy.MaskIDCard(buyer.IDCard),
		Mobile:   privacy.MaskPhone(buyer.Mobile),
		Selected: selected,
	}
}

type buyerListParams struct {
	cli.JSONOutput
	Selected bool `flag:"selected" desc:"list the stored selection without asking the platform"`
}

func buyerListCommand(opts appOptions) *cli.Command {
	var params buyerListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the account's buyers",
		Usage:   "cppticketer buyer list [--selected] [--json]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				selection := a.store.Snapshot().Buyer
				buyers := selection.Buyer
				if !params.Selected {
					var err error
					if buyers, err = a.fetchBuyers(ctx); err != nil {
						return err
					}
				}

				selectedIDs := selection.IDs()
				entries := make([]buyerEntry, len(buyers))
				for index, buyer := range buyers {
					entries[index] = maskBuyer(buyer, slices.Contains(selectedIDs, buyer.ID))
				}
				if done, err := params.EmitJSON(a.out, entries); done {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(a.prompt.Out, "没有已选择的购票人")
					return nil
				}

				table := newTable(a.out)
				fmt.Fprintf(table, "ID\t姓名\t证件号\t手机号\t已选\n")
				for _, entry := range entries {
					mark := ""
					if entry.Selected {
						mark = "*"
					}
					fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\n", entry.ID, entry.Name, entry.IDCard, entry.Mobile, mark)
				}
				return table.Flush()
			})
		},
	}
}

type buyerSelectParams struct {
	IDs []int `flag:"id" desc:"buyer id to select (repeatable; the picker opens when omitted)"`
}

func buyerSelectCommand(opts appOptions) *cli.Command {
	var params buyerSelectParams

	return &cli.Command{
		Name:    "select",
		Summary: "Choose the buyers to order for",
		Usage:   "cppticketer buyer select [--id ID]...",
		Examples: []cli.Example{
			{Description: "Pick buyers interactively", Command: "cppticketer buyer select"},
			{Description: "Select two buyers by id", Command: "cppticketer buyer select --id 1001 --id 1002"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("select", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.selectBuyers(ctx, params.IDs)
			})
		},
	}
}

// fetchBuyers logs in if needed and lists the account's buyers.
func (a *app) fetchBuyers(ctx context.Context) ([]config.Buyer, error) {
	if err := a.ensureSession(ctx); err != nil {
		return nil, err
	}
	status, buyers := a.buyers.List(ctx)
	switch status {
	case service.BuyerSuccess:
		return buyers, nil
	case service.BuyerMissing:
		return nil, cli.NotFound("the account has no buyers; add one in the allcpp app first")
	default:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cli.Transient("fetching buyers failed: %s", status)
	}
}

// selectBuyers stores the buyers with ids, or the ones picked
// interactively when ids is empty.
func (a *app) selectBuyers(ctx context.Context, ids []int) error {
	available, err := a.fetchBuyers(ctx)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		current := a.store.Snapshot().Buyer.IDs()
		items := make([]tui.Item, len(available))
		var preselected []int
		for index, buyer := range available {
			entry := maskBuyer(buyer, false)
			items[index] = tui.Item{
				Title:  buyer.RealName,
				Detail: fmt.Sprintf("%s  %s", entry.IDCard, entry.Mobile),
			}
			if slices.Contains(current, buyer.ID) {
				preselected = append(preselected, index)
			}
		}
		chosen, err := a.pick(ctx, tui.PickerConfig{
			Title:       "选择购票人（Tab 选择，Enter 确认）",
			Items:       items,
			Multi:       true,
			Preselected: preselected,
		}, "--id")
		if err != nil {
			return err
		}
		for _, index := range chosen {
			ids = append(ids, available[index].ID)
		}
	}
	if len(ids) == 0 {
		return cli.Validation("select at least one buyer")
	}

	selected, err := service.SelectIDs(available, ids)
	if err != nil {
		return cli.NotFound("%v", err)
	}
	if err := a.buyers.Select(selected); err != nil {
		return err
	}
	a.logger.Info("buyers selected", "count", len(selected))
	names := make([]string, len(selected))
	for index, buyer := range selected {
		names[index] = privacy.MaskName(buyer.RealName)
	}
	fmt.Fprintf(a.out, "已选择 %d 位购票人：%v\n", len(selected), names)
	return nil
}
