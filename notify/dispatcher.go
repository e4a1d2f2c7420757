// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"
	"github.com/gen2brain/beeep"

	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/purchase"
)

// DefaultTimeout bounds each webhook request.
const DefaultTimeout = 10 * time.Second

// Sender delivers a message to a set of service URLs. shoutrrr's
// router satisfies it.
type Sender interface {
	Send(message string, params *types.Params) []error
}

// Snapshotter is the part of the configuration store the dispatcher
// reads.
type Snapshotter interface {
	Snapshot() *config.Config
}

// Config configures a Dispatcher. Store is required.
type Config struct {
	Store Snapshotter

	// HTTPClient posts webhooks. Nil means a client with
	// DefaultTimeout.
	HTTPClient *http.Client

	// Endpoints overrides webhook base URLs.
	Endpoints Endpoints

	// Externals are the long-lived channels, matched by Method.
	Externals []External

	// NewSender builds the shoutrrr router. Nil means
	// shoutrrr.CreateSender.
	NewSender func(urls ...string) (Sender, error)

	// Desktop shows a desktop notification. Nil means beeep.Notify.
	Desktop func(title, message string) error

	Logger *slog.Logger
}

// Dispatcher pushes notifications through every enabled channel.
type Dispatcher struct {
	store      Snapshotter
	httpClient *http.Client
	endpoints  Endpoints
	channels   []channel
	externals  map[string]External
	newSender  func(urls ...string) (Sender, error)
	desktop    func(title, message string) error
	logger     *slog.Logger
}

// New builds a Dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Store == nil {
		return nil, errors.New("notify: Store is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	newSender := cfg.NewSender
	if newSender == nil {
		newSender = func(urls ...string) (Sender, error) { return shoutrrr.CreateSender(urls...) }
	}
	desktop := cfg.Desktop
	if desktop == nil {
		desktop = func(title, message string) error { return beeep.Notify(title, message, "") }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	externals := make(map[string]External, len(cfg.Externals))
	for _, external := range cfg.Externals {
		externals[external.Method()] = external
	}
	return &Dispatcher{
		store:      cfg.Store,
		httpClient: httpClient,
		endpoints:  cfg.Endpoints.withDefaults(),
		channels:   registry(),
		externals:  externals,
		newSender:  newSender,
		desktop:    desktop,
		logger:     logger,
	}, nil
}

func (d *Dispatcher) notification() config.Notification {
	return d.store.Snapshot().Notification
}

// Push sends content through every enabled channel and logs the
// result. It does nothing when notifications are disabled.
func (d *Dispatcher) Push(ctx context.Context, content Content) {
	if err := d.Send(ctx, content); err != nil {
		d.logger.Error("push notification failed", "error", err)
	}
}

// Send is Push returning the failure instead of logging it. The
// queue's failure is a *NotificationError; external channel failures
// are *DeliveryError values joined to it.
func (d *Dispatcher) Send(ctx context.Context, content Content) error {
	n := d.notification()
	if !n.IsEnable {
		return nil
	}
	if len(n.Methods) == 0 {
		d.logger.Warn("notifications enabled but no method selected")
		return nil
	}

	q := d.build(n)
	errs := []error{d.deliver(ctx, q, content)}
	for _, method := range q.external {
		external, ok := d.externals[method]
		if !ok {
			errs = append(errs, &DeliveryError{Method: method, Err: errors.New("no service registered")})
			continue
		}
		if err := external.Notify(ctx, content, n); err != nil {
			errs = append(errs, &DeliveryError{Method: method, Err: err})
		}
	}
	return errors.Join(errs...)
}

// PurchaseFinished pushes the outcome of a purchase run.
func (d *Dispatcher) PurchaseFinished(ctx context.Context, outcome purchase.Outcome) {
	d.Push(ctx, NewContent(d.store.Snapshot(), ResultText(outcome)))
}

// build queues every enabled channel in registry order.
func (d *Dispatcher) build(n config.Notification) *queue {
	q := &queue{}
	for _, channel := range d.channels {
		if !n.Enabled(channel.method()) {
			continue
		}
		if _, ok := channel.(externalChannel); ok {
			if _, registered := d.externals[channel.method()]; !registered {
				d.logger.Error("notification channel has no service", "method", channel.method())
				continue
			}
		}
		if channel.add(q, n, d.endpoints) {
			d.logger.Info("notification channel added", "method", channel.method())
		} else {
			d.logger.Error("notification channel is not configured", "method", channel.method())
		}
	}
	return q
}

// deliver sends the queue. Partial failures are logged; when every
// delivery fails the result is a *NotificationError.
func (d *Dispatcher) deliver(ctx context.Context, q *queue, content Content) error {
	total := q.len()
	if total == 0 {
		return nil
	}
	var failures []error
	fail := func(method string, err error) {
		failure := &DeliveryError{Method: method, Err: err}
		d.logger.Warn("notification delivery failed", "method", method, "error", err)
		failures = append(failures, failure)
	}

	if q.desktop {
		if err := d.desktop(content.Title, content.Body); err != nil {
			fail(config.MethodDesktop, err)
		}
	}

	if len(q.urls) > 0 {
		sender, err := d.newSender(q.urls...)
		if err != nil {
			for _, method := range q.urlMethods {
				fail(method, fmt.Errorf("building service URL: %w", err))
			}
		} else {
			for index, err := range sender.Send(content.Body, &types.Params{"title": content.Title}) {
				if err == nil {
					continue
				}
				method := "shoutrrr"
				if index < len(q.urlMethods) {
					method = q.urlMethods[index]
				}
				fail(method, err)
			}
		}
	}

	for _, hook := range q.hooks {
		if err := d.post(ctx, hook, content); err != nil {
			fail(hook.method, err)
		}
	}

	if len(failures) == total {
		return &NotificationError{Failures: failures}
	}
	return nil
}
