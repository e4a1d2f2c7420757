// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O helpers.
//
// Response helpers (ReadResponse, ErrorBody) bound body
// reads at MaxResponseSize. The platform and push endpoints answer with
// small JSON documents; nothing here streams.
//
// IsExpectedCloseError classifies connection teardown errors seen by
// the device bridge. LocalIP finds the address other hosts on the LAN
// reach this machine at.
package netutil

import "io"

// MaxResponseSize bounds response body reads: 16 MB.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an error response body for diagnostics. Read errors
// are ignored; a partial body still helps.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}
