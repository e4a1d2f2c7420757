// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/version"
)

func versionCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			out := opts.Stdout
			if out == nil {
				out = os.Stdout
			}
			fmt.Fprintf(out, "cppticketer %s\n", version.Full())
			return nil
		},
	}
}
