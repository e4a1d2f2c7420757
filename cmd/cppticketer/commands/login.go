// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/validate"
	"github.com/ticketzako/cppticketer/service"
)

type loginParams struct {
	Account  string `flag:"account" desc:"phone number or email (prompted when omitted)"`
	Password string `flag:"password" desc:"password (prompted when omitted; prefer the prompt)"`
	Check    bool   `flag:"check" desc:"only report whether the stored session still works"`
}

func loginCommand(opts appOptions) *cli.Command {
	var params loginParams

	return &cli.Command{
		Name:    "login",
		Summary: "Log in and store the session token",
		Description: `Log in with an account and password. The credentials and the returned
token are stored in the config file so later commands reuse the
session.

With --check nothing is changed: the stored token is probed and the
command fails when it no longer works.`,
		Usage: "cppticketer login [--account PHONE|EMAIL] [--password PASSWORD]",
		Examples: []cli.Example{
			{Description: "Log in interactively", Command: "cppticketer login"},
			{Description: "Check the stored session", Command: "cppticketer login --check"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("login", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				if params.Check {
					if !a.users.CheckToken(ctx) {
						return cli.Auth("stored session does not work; run 'cppticketer login'")
					}
					fmt.Fprintln(a.out, "登录状态有效")
					return nil
				}
				if params.Account == "" && params.Password == "" && a.prompt.Interactive() {
					return a.loginInteractive(ctx)
				}
				return a.login(ctx, params.Account, params.Password)
			})
		},
	}
}

// login validates and stores the credentials, then signs in. Blank
// values keep what is stored.
func (a *app) login(ctx context.Context, account, password string) error {
	stored := a.store.Snapshot().Account
	if account == "" {
		account = stored.Account
	}
	if password == "" {
		password = stored.Password
	}
	if err := checkCredentials(account, password); err != nil {
		return err
	}
	if err := a.store.SetCredentials(account, password); err != nil {
		return err
	}

	switch status := a.users.Login(ctx); status {
	case service.LoginSuccess:
		a.logger.Info("logged in", "account", account)
		fmt.Fprintln(a.out, "登录成功")
		return nil
	case service.LoginError:
		return cli.Auth("account or password rejected")
	default:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cli.Transient("login failed: %s", status)
	}
}

// loginInteractive asks for credentials until a login succeeds or
// input ends.
func (a *app) loginInteractive(ctx context.Context) error {
	stored := a.store.Snapshot().Account
	fmt.Fprintln(a.prompt.Out, "请登录 allcpp 账号")
	for {
		account, err := a.prompt.Line("账号（手机号或邮箱）", stored.Account)
		if err != nil {
			return promptError(err)
		}
		password, err := a.prompt.Secret("密码")
		if err != nil {
			return promptError(err)
		}
		if password == "" {
			password = stored.Password
		}

		err = a.login(ctx, account, password)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(a.prompt.Out, "登录失败：%v\n", err)
		again, confirmErr := a.prompt.Confirm("重新输入账号密码？", true)
		if confirmErr != nil {
			return promptError(confirmErr)
		}
		if !again {
			return err
		}
		stored.Account = account
	}
}

func checkCredentials(account, password string) error {
	if err := validate.NotEmpty("账号", account); err != nil {
		return cli.Validation("%v", err)
	}
	if !validate.Account(account) {
		return cli.Validation("account %q is neither a mainland phone number nor an email address", account)
	}
	if err := validate.NotEmpty("密码", password); err != nil {
		return cli.Validation("%v", err)
	}
	if !validate.Password(password) {
		return cli.Validation("password must be at least %d characters", validate.MinPasswordLength)
	}
	return nil
}

// promptError maps end of input to a validation error so scripts see
// a clear message.
func promptError(err error) error {
	if errors.Is(err, cli.ErrNoInput) {
		return cli.Validation("input ended before an answer was given")
	}
	return err
}
