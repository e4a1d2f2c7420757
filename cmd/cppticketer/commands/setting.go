// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
)

func settingCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "setting",
		Summary: "Show or change the purchase loop's settings",
		Subcommands: []*cli.Command{
			settingShowCommand(opts),
			settingSetCommand(opts),
		},
	}
}

type settingShowParams struct {
	cli.JSONOutput
}

func settingShowCommand(opts appOptions) *cli.Command {
	var params settingShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print the setting block",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				setting := a.store.Snapshot().Setting
				result := struct {
					Debug                 bool `json:"debug"`
					Encrypt               bool `json:"encrypt"`
					MaxConsecutiveRequest int  `json:"max_consecutive_request"`
					RiskedIntervalMillis  int  `json:"risked_interval_ms"`
					RefreshIntervalMillis int  `json:"refresh_interval_ms"`
				}{setting.IsDebug, setting.IsEncrypt, setting.MaxConsecutiveRequest, setting.RiskedInterval, setting.RefreshInterval}
				if done, err := params.EmitJSON(a.out, result); done {
					return err
				}
				printSetting(a, setting)
				return nil
			})
		},
	}
}

func printSetting(a *app, setting config.Setting) {
	table := newTable(a.out)
	fmt.Fprintf(table, "调试日志\t%s\n", onOff(setting.IsDebug))
	fmt.Fprintf(table, "配置加密\t%s\n", onOff(setting.IsEncrypt))
	fmt.Fprintf(table, "连续请求次数\t%d\n", setting.MaxConsecutiveRequest)
	fmt.Fprintf(table, "风控冷却\t%s\n", setting.RiskedCooldown())
	fmt.Fprintf(table, "刷新间隔\t%s\n", setting.RefreshDelay())
	table.Flush()
}

func onOff(value bool) string {
	if value {
		return "开启"
	}
	return "关闭"
}

type settingSetParams struct {
	MaxConsecutive  int    `flag:"max-consecutive" desc:"orders submitted back to back before pacing" default:"-1"`
	RiskedInterval  int    `flag:"risked-interval" desc:"cooldown after a rate limit, in milliseconds" default:"-1"`
	RefreshInterval int    `flag:"refresh-interval" desc:"delay between stock checks, in milliseconds" default:"-1"`
	Debug           string `flag:"debug" desc:"debug logging: true or false"`
	Encrypt         string `flag:"encrypt" desc:"seal the config file under the machine key: true or false"`
}

func settingSetCommand(opts appOptions) *cli.Command {
	var params settingSetParams

	return &cli.Command{
		Name:    "set",
		Summary: "Change settings; unset flags keep their value",
		Usage:   "cppticketer setting set [--max-consecutive N] [--risked-interval MS] [--refresh-interval MS] [--debug BOOL] [--encrypt BOOL]",
		Examples: []cli.Example{
			{Description: "Check stock every 300ms", Command: "cppticketer setting set --refresh-interval 300"},
			{Description: "Store the config in plaintext", Command: "cppticketer setting set --encrypt false"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("set", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				setting, err := applySettingParams(a.store.Snapshot().Setting, params)
				if err != nil {
					return err
				}
				if err := a.store.SetSetting(setting); err != nil {
					return updateError(err)
				}
				printSetting(a, a.store.Snapshot().Setting)
				return nil
			})
		},
	}
}

// applySettingParams overlays the flags that were given on setting.
// Negative numbers and empty strings mean "not given".
func applySettingParams(setting config.Setting, params settingSetParams) (config.Setting, error) {
	if params.MaxConsecutive >= 0 {
		setting.MaxConsecutiveRequest = params.MaxConsecutive
	}
	if params.RiskedInterval >= 0 {
		setting.RiskedInterval = params.RiskedInterval
	}
	if params.RefreshInterval >= 0 {
		setting.RefreshInterval = params.RefreshInterval
	}
	if params.Debug != "" {
		value, err := strconv.ParseBool(params.Debug)
		if err != nil {
			return setting, cli.Validation("--debug must be true or false, got %q", params.Debug)
		}
		setting.IsDebug = value
	}
	if params.Encrypt != "" {
		value, err := strconv.ParseBool(params.Encrypt)
		if err != nil {
			return setting, cli.Validation("--encrypt must be true or false, got %q", params.Encrypt)
		}
		setting.IsEncrypt = value
	}
	return setting, nil
}

// updateError reports a rejected document as a validation error and
// passes write failures through.
func updateError(err error) error {
	var saveErr *config.SaveError
	if errors.As(err, &saveErr) {
		return err
	}
	return cli.Validation("%v", err)
}
