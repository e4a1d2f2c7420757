// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package sealbox

import (
	"fmt"
	"os"
	"strings"
)

// machineIDPaths are tried in order. The dbus copy exists on systems
// where /etc/machine-id is absent or empty.
var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// MachineID returns a stable identifier for this host: the systemd
// machine id when available, otherwise the hostname.
func MachineID() (string, error) {
	for _, path := range machineIDPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("sealbox: no machine id file and hostname unavailable: %w", err)
	}
	if hostname == "" {
		return "", fmt.Errorf("sealbox: no machine id file and hostname is empty")
	}
	return hostname, nil
}
