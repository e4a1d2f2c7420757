// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package dglab bridges notifications to a DG-Lab device through the
// DG-Lab app's WebSocket mode.
//
// The Bridge runs the relay server the app expects (socket protocol
// v2) and acts as the terminal itself, so no third-party relay is
// involved. Pairing works like this:
//
//  1. Start assigns the terminal a client id and listens on
//     0.0.0.0:5678.
//  2. Connect prints a QR code for
//     https://www.dungeon-lab.com/app-download.php#DGLAB-SOCKET#ws://<ip>:5678/<id>.
//  3. The app scans it, connects, receives its own id, and sends a
//     bind message naming both ids. The bridge confirms with "200".
//
// Every frame is a JSON object {type, clientId, targetId, message}.
// Send sets a channel's strength and streams named pulses from an
// embedded table.
package dglab
