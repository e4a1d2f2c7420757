// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package allcpp speaks the allcpp platform's HTTP API: login,
// purchaser list, event ticket tiers, and order submission.
//
// Every call goes through a [gateway.Gateway]. Read calls return typed
// data or a [*RequestError] carrying the envelope message. Order
// submission never fails with an error: its outcome is the platform's
// message text, which the service layer maps through the order message
// table, so transport failures ("请求错误: 429") reach that table too.
package allcpp
