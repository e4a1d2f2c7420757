// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"

	"github.com/ticketzako/cppticketer/lib/config"
)

// External is a channel backed by a long-lived service. Each lifecycle
// call is a no-op when the service is already in the state it asks
// for.
type External interface {
	// Method is the notification method the service answers to.
	Method() string

	// Init prepares the service without starting it.
	Init(ctx context.Context) error

	// Start brings the service up.
	Start(ctx context.Context) error

	// Connect waits until a peer is attached, bounded by ctx.
	Connect(ctx context.Context) error

	// Stop shuts the service down.
	Stop() error

	// Status reports whether the service is up with a peer attached.
	Status() bool

	// Notify delivers content using the service's settings in n.
	Notify(ctx context.Context, content Content, n config.Notification) error
}

// enabledExternals returns the registered externals enabled in n, in
// registry order.
func (d *Dispatcher) enabledExternals(n config.Notification) []External {
	var enabled []External
	for _, channel := range d.channels {
		if _, ok := channel.(externalChannel); !ok || !n.Enabled(channel.method()) {
			continue
		}
		if external, ok := d.externals[channel.method()]; ok {
			enabled = append(enabled, external)
		}
	}
	return enabled
}

func (d *Dispatcher) eachExternal(verb string, fn func(External) error) {
	for _, external := range d.enabledExternals(d.notification()) {
		if err := fn(external); err != nil {
			d.logger.Error("external channel "+verb+" failed", "method", external.Method(), "error", err)
			continue
		}
		d.logger.Info("external channel "+verb+" done", "method", external.Method())
	}
}

// InitExternal initializes every enabled external channel. Failures
// are logged per channel.
func (d *Dispatcher) InitExternal(ctx context.Context) {
	d.eachExternal("init", func(external External) error { return external.Init(ctx) })
}

// StartExternal starts every enabled external channel.
func (d *Dispatcher) StartExternal(ctx context.Context) {
	d.eachExternal("start", func(external External) error { return external.Start(ctx) })
}

// ConnectExternal waits for a peer on every enabled external channel.
func (d *Dispatcher) ConnectExternal(ctx context.Context) {
	d.eachExternal("connect", func(external External) error { return external.Connect(ctx) })
}

// StopExternal stops every enabled external channel.
func (d *Dispatcher) StopExternal() {
	d.eachExternal("stop", func(external External) error { return external.Stop() })
}
