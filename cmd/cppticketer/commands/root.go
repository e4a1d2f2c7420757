// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the cppticketer command tree.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
)

// Main parses the global flags in front of the command name and runs
// the command tree.
func Main(ctx context.Context, args []string) error {
	var globals Globals
	flagSet := cli.FlagsFromParams("cppticketer", &globals)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			Root(appOptions{}).PrintHelp(os.Stderr)
			return nil
		}
		return cli.Validation("%v\n\nRun 'cppticketer --help' for usage.", err)
	}
	return Root(appOptions{Globals: globals}).Execute(ctx, flagSet.Args())
}

// Root builds the command tree. Commands open the config lazily, so
// building the tree is free.
func Root(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "cppticketer",
		Summary: "allcpp ticket purchasing assistant",
		Description: `cppticketer logs in to allcpp, keeps the chosen buyers, event and tier
in <data-dir>/config/config.yaml, and polls the platform until an order
for the selected tier goes through.

Run without a command for the interactive menu.

Global flags (before the command name):
  --data-dir DIR        data directory (default $CPPTICKETER_DATA_DIR or the working directory)
  --encrypt true|false  override setting.isEncrypt for this run without saving`,
		Run: func(ctx context.Context, _ []string) error {
			return runInteractive(ctx, opts)
		},
		Subcommands: []*cli.Command{
			runCommand(opts),
			loginCommand(opts),
			buyerCommand(opts),
			productCommand(opts),
			monitorCommand(opts),
			stressCommand(opts),
			notifyCommand(opts),
			settingCommand(opts),
			configCommand(opts),
			historyCommand(opts),
			versionCommand(opts),
		},
	}
}
