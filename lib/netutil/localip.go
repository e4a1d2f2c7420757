// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"net"
)

// probeAddress is only used to pick a route. UDP dial sends nothing.
const probeAddress = "8.8.8.8:80"

// LocalIP returns the source address the kernel would use for outbound
// traffic, or 127.0.0.1 when there is no route.
func LocalIP(ctx context.Context) string {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", probeAddress)
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
