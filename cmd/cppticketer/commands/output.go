// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/tui"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
}

// pick runs a picker on the prompt streams. flagHint names the flags
// that replace the picker when there is no terminal.
func (a *app) pick(ctx context.Context, cfg tui.PickerConfig, flagHint string) ([]int, error) {
	if !a.prompt.Interactive() {
		return nil, cli.Validation("no terminal for the picker; pass %s", flagHint)
	}
	cfg.Input = a.prompt.In
	cfg.Output = a.prompt.Out
	return tui.Pick(ctx, cfg)
}

// cancelled turns a backed-out picker into a quiet exit status 1.
func (a *app) cancelled(err error) error {
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(a.prompt.Out, "已取消")
		return &cli.ExitError{Code: 1}
	}
	return err
}
