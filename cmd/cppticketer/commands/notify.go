// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/notify"
	"github.com/ticketzako/cppticketer/notify/dglab"
)

func notifyCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "notify",
		Summary: "Configure and test purchase notifications",
		Description: `When notifications are on, the outcome of every run is pushed to each
selected channel. Channel settings (tokens, hosts) live under
notification.<channel> in the config file; set them with
'cppticketer config set'.`,
		Subcommands: []*cli.Command{
			notifyListCommand(opts),
			notifyEnableCommand(opts),
			notifyDisableCommand(opts),
			notifyTestCommand(opts),
			notifyPairCommand(opts),
		},
	}
}

type channelEntry struct {
	Method  string `json:"method"`
	Enabled bool   `json:"enabled"`
}

type notifyListParams struct {
	cli.JSONOutput
}

func notifyListCommand(opts appOptions) *cli.Command {
	var params notifyListParams

	return &cli.Command{
		Name:    "list",
		Summary: "Show the channels and which are selected",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				n := a.store.Snapshot().Notification
				methods := notify.Methods()
				entries := make([]channelEntry, len(methods))
				for index, method := range methods {
					entries[index] = channelEntry{Method: method, Enabled: n.Enabled(method)}
				}
				result := struct {
					Enabled  bool           `json:"enabled"`
					Channels []channelEntry `json:"channels"`
				}{Enabled: n.IsEnable, Channels: entries}
				if done, err := params.EmitJSON(a.out, result); done {
					return err
				}

				state := "关闭"
				if n.IsEnable {
					state = "开启"
				}
				fmt.Fprintf(a.out, "通知：%s\n\n", state)
				table := newTable(a.out)
				fmt.Fprintf(table, "渠道\t已选\n")
				for _, entry := range entries {
					mark := ""
					if entry.Enabled {
						mark = "*"
					}
					fmt.Fprintf(table, "%s\t%s\n", entry.Method, mark)
				}
				return table.Flush()
			})
		},
	}
}

// checkMethods rejects channel names the dispatcher does not know.
func checkMethods(methods []string) error {
	known := notify.Methods()
	for _, method := range methods {
		if !slices.Contains(known, method) {
			return cli.Validation("unknown channel %q (known: %s)", method, strings.Join(known, ", "))
		}
	}
	return nil
}

func notifyEnableCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "enable",
		Summary: "Turn notifications on, optionally selecting channels",
		Usage:   "cppticketer notify enable [CHANNEL...]",
		Examples: []cli.Example{
			{Description: "Turn notifications on", Command: "cppticketer notify enable"},
			{Description: "Add Bark and desktop notifications", Command: "cppticketer notify enable bark desktop"},
		},
		Run: func(ctx context.Context, args []string) error {
			if err := checkMethods(args); err != nil {
				return err
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				err := a.store.Update(func(c *config.Config) error {
					c.Notification.IsEnable = true
					for _, method := range args {
						if !c.Notification.Enabled(method) {
							c.Notification.Methods = append(c.Notification.Methods, method)
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				n := a.store.Snapshot().Notification
				if len(n.Methods) == 0 {
					fmt.Fprintln(a.out, "通知已开启，但尚未选择任何渠道")
					return nil
				}
				fmt.Fprintf(a.out, "通知已开启：%s\n", strings.Join(n.Methods, ", "))
				return nil
			})
		},
	}
}

func notifyDisableCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "disable",
		Summary: "Turn notifications off, or drop channels",
		Usage:   "cppticketer notify disable [CHANNEL...]",
		Run: func(ctx context.Context, args []string) error {
			if err := checkMethods(args); err != nil {
				return err
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				err := a.store.Update(func(c *config.Config) error {
					if len(args) == 0 {
						c.Notification.IsEnable = false
						return nil
					}
					c.Notification.Methods = slices.DeleteFunc(c.Notification.Methods, func(method string) bool {
						return slices.Contains(args, method)
					})
					return nil
				})
				if err != nil {
					return err
				}
				if len(args) == 0 {
					fmt.Fprintln(a.out, "通知已关闭")
				} else {
					fmt.Fprintf(a.out, "已移除：%s\n", strings.Join(args, ", "))
				}
				return nil
			})
		},
	}
}

func notifyTestCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "test",
		Summary: "Send a test notification through every selected channel",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				snapshot := a.store.Snapshot()
				if !snapshot.Notification.IsEnable {
					return cli.Validation("notifications are off; run 'cppticketer notify enable'")
				}
				if len(snapshot.Notification.Methods) == 0 {
					return cli.Validation("no channel selected; run 'cppticketer notify enable CHANNEL'")
				}
				sendCtx, cancel := context.WithTimeout(ctx, notify.DefaultTimeout*2)
				defer cancel()
				if err := a.dispatcher.Send(sendCtx, notify.NewContent(snapshot, "测试通知")); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return cli.Transient("test notification: %v", err)
				}
				fmt.Fprintln(a.out, "测试通知已发送")
				return nil
			})
		},
	}
}

type notifyPairParams struct {
	Pulse string `flag:"pulse" desc:"pulse played once paired (default: the first configured pulse)"`
}

func notifyPairCommand(opts appOptions) *cli.Command {
	var params notifyPairParams

	return &cli.Command{
		Name:    "pair",
		Summary: "Pair the DG-Lab app and play a test pulse",
		Description: `Start the DG-Lab WebSocket server, print the pairing QR code, wait for
the app to bind, and play one pulse on the configured channel at the
configured strength. The server stops when the command exits.

Known pulses: ` + strings.Join(dglab.DefaultPulseTable().Names(), ", "),
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("pair", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				return a.pairDGLab(ctx, params.Pulse)
			})
		},
	}
}

func (a *app) pairDGLab(ctx context.Context, pulse string) error {
	settings := a.store.Snapshot().Notification.DGLab
	pulses := settings.Pulses
	if pulse != "" {
		if _, ok := dglab.DefaultPulseTable().Frames(pulse); !ok {
			return cli.Validation("unknown pulse %q (known: %s)", pulse, strings.Join(dglab.DefaultPulseTable().Names(), ", "))
		}
		pulses = []string{pulse}
	}
	if len(pulses) == 0 {
		return cli.Validation("no pulse configured; pass --pulse")
	}
	channel, err := dglab.ParseChannel(settings.Channel)
	if err != nil {
		return cli.Validation("%v", err)
	}

	if err := a.bridge.Start(ctx); err != nil {
		return cli.Transient("%v", err)
	}
	if err := a.bridge.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cli.Transient("%v", err)
	}
	interval := time.Duration(settings.Interval * float64(time.Second))
	if err := a.bridge.Send(ctx, pulses[:1], settings.Strength, channel, interval); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cli.Transient("%v", err)
	}
	fmt.Fprintf(a.out, "已在 %s 通道以强度 %d 播放波形 %s\n", channel, settings.Strength, pulses[0])
	return nil
}
