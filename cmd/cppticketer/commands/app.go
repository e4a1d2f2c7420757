// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/gateway"
	"github.com/ticketzako/cppticketer/journal"
	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/notify"
	"github.com/ticketzako/cppticketer/notify/dglab"
	"github.com/ticketzako/cppticketer/service"
)

// Globals are the flags accepted before any command name.
type Globals struct {
	DataDir string `flag:"data-dir" desc:"directory holding config/ and journal.db (default $CPPTICKETER_DATA_DIR or the working directory)"`
	Encrypt string `flag:"encrypt" desc:"override setting.isEncrypt for this run without saving (true|false)"`
}

// appOptions carries the process plumbing into openApp. Tests replace
// the streams, the platform endpoints, and the machine id.
type appOptions struct {
	Globals

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	MachineID string
	Endpoints allcpp.Endpoints
	Clock     clock.Clock

	// skipLoad leaves the store at defaults instead of reading the
	// file, for commands that must work on a file that does not load.
	skipLoad bool
}

// app is one command's view of the world: the loaded config and the
// services built over it.
type app struct {
	dataDir string
	out     io.Writer
	prompt  *cli.Prompter
	clock   clock.Clock

	level  *slog.LevelVar
	logger *slog.Logger

	store    *config.Store
	gateway  *gateway.Gateway
	client   *allcpp.Client
	users    *service.UserService
	buyers   *service.BuyerService
	products *service.ProductService
	orders   *service.OrderService

	bridge     *dglab.Bridge
	dispatcher *notify.Dispatcher

	journalPath string
}

func openApp(opts appOptions) (*app, error) {
	dataDir, err := config.ResolveDataDir(opts.DataDir)
	if err != nil {
		return nil, cli.Internal("resolving data directory: %w", err)
	}

	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	level := new(slog.LevelVar)
	logger := cli.NewLogger(stderr, level)

	store, err := config.Open(config.Options{
		Path:      config.PathFor(dataDir),
		MachineID: opts.MachineID,
		Logger:    logger.With("component", "config"),
		LogLevel:  level,
	})
	if err != nil {
		return nil, err
	}
	if opts.Encrypt != "" {
		enabled, err := strconv.ParseBool(opts.Encrypt)
		if err != nil {
			store.Close()
			return nil, cli.Validation("--encrypt must be true or false, got %q", opts.Encrypt)
		}
		store.OverrideEncrypt(enabled)
		if enabled {
			logger.Info("config encryption enabled by flag")
		} else {
			logger.Info("config encryption disabled by flag")
		}
	}
	if !opts.skipLoad {
		if err := store.Load(); err != nil {
			store.Close()
			return nil, err
		}
	}

	gw := gateway.New(gateway.Config{Logger: logger.With("component", "gateway")})
	client, err := allcpp.NewClient(allcpp.ClientConfig{
		Gateway:   gw,
		Endpoints: opts.Endpoints,
		Clock:     clk,
		Logger:    logger.With("component", "allcpp"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	bridge := dglab.New(dglab.Config{
		Out:    stdout,
		Clock:  clk,
		Logger: logger.With("component", "dglab"),
	})
	dispatcher, err := notify.New(notify.Config{
		Store:     store,
		Externals: []notify.External{bridge},
		Logger:    logger.With("component", "notify"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		dataDir:     dataDir,
		out:         stdout,
		prompt:      &cli.Prompter{In: stdin, Out: stderr},
		clock:       clk,
		level:       level,
		logger:      logger,
		store:       store,
		gateway:     gw,
		client:      client,
		users:       service.NewUserService(store, client, logger.With("component", "user")),
		buyers:      service.NewBuyerService(store, client, logger.With("component", "buyer")),
		products:    service.NewProductService(store, client, clk, logger.With("component", "product")),
		orders:      service.NewOrderService(store, client, nil, logger.With("component", "order")),
		bridge:      bridge,
		dispatcher:  dispatcher,
		journalPath: journalPathFor(dataDir),
	}, nil
}

func journalPathFor(dataDir string) string {
	return filepath.Join(dataDir, journal.FileName)
}

// Close stops the external channels and releases the config lock.
func (a *app) Close() error {
	a.dispatcher.StopExternal()
	if err := a.bridge.Stop(); err != nil {
		a.logger.Debug("stopping dglab bridge", "error", err)
	}
	a.gateway.CloseIdleConnections()
	return a.store.Close()
}

// openJournal opens the attempt journal. Failures are logged and
// return nil: the journal is a record, not a requirement.
func (a *app) openJournal(ctx context.Context) *journal.Journal {
	j, err := journal.Open(ctx, journal.Config{
		Path:   a.journalPath,
		Clock:  a.clock,
		Logger: a.logger.With("component", "journal"),
	})
	if err != nil {
		a.logger.Warn("journal unavailable, continuing without it", "path", a.journalPath, "error", err)
		return nil
	}
	return j
}

// ensureSession reuses the stored token or logs in. With no usable
// credentials it prompts when interactive; otherwise it fails.
func (a *app) ensureSession(ctx context.Context) error {
	a.logger.Info("checking account session")
	snapshot := a.store.Snapshot()
	if snapshot.Account.Account != "" && snapshot.Account.Password != "" || snapshot.Account.HasToken() {
		status := a.users.EnsureSession(ctx)
		if status == service.LoginSuccess {
			a.logger.Info("account session ready")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("stored session no longer works", "status", status)
	} else {
		a.logger.Warn("not logged in")
	}
	if !a.prompt.Interactive() {
		return cli.Auth("not logged in; run 'cppticketer login'")
	}
	return a.loginInteractive(ctx)
}

// withApp opens the app, calls fn, and closes it.
func withApp(ctx context.Context, opts appOptions, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing: %w", closeErr))
		}
	}()
	return a.cancelled(fn(ctx, a))
}
