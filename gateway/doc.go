// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the single HTTP client every platform call goes
// through.
//
// Do never returns a Go error. Every outcome, including transport
// failures, comes back as an [Envelope] whose Code tells the caller
// whether the platform answered:
//
//   - HTTP 200 with a JSON body: Code is [CodeTransportOK], Message is
//     the body's "message" field, Data is the body.
//   - HTTP 302: Code is [CodeTransportOK], Message is "请求错误: 302".
//     The order endpoint answers 302 when it sheds load; the order
//     message table maps that text.
//   - Any other status, or a 200 that is not JSON: Code is
//     [CodeTransportError], Message is "请求错误: <status>".
//   - A transport failure: Code is [CodeTransportError], Message is
//     "请求错误: <error>".
//
// Redirects are never followed. Cookies and default headers are
// replaced wholesale by Refresh; cookies are only sent to hosts inside
// the configured cookie domain.
package gateway
