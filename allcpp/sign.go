// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package allcpp

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Signature is the anti-replay triple attached to an order.
type Signature struct {
	Nonce     string
	Timestamp string
	Sign      string
}

// NewNonce returns 32 lowercase hex characters.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SignOrder computes hex(md5(key + timestamp + nonce + ticketTypeID + key)).
func SignOrder(key, timestamp, nonce string, ticketTypeID int) string {
	sum := md5.Sum([]byte(key + timestamp + nonce + strconv.Itoa(ticketTypeID) + key))
	return hex.EncodeToString(sum[:])
}
