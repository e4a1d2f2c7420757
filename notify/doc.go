// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify delivers purchase notifications.
//
// A Dispatcher walks a fixed channel registry (desktop, pushplus, bark,
// gotify, dingtalk, mailto, pushme, pushdeer, schan, slack, tgram,
// wecombot, dglab) and queues every channel that is both listed in
// notification.methods and fully configured. Registry order decides
// delivery order; the order of notification.methods does not.
//
// Queued channels go out three ways:
//
//   - gotify, mailto, slack and tgram become shoutrrr service URLs and
//     are sent through one shoutrrr router.
//   - pushplus, bark, dingtalk, pushme, pushdeer, schan and wecombot
//     are HTTPS webhooks posted by the dispatcher itself.
//   - desktop is a beeep notification.
//
// External channels (dglab) are long-lived services with their own
// lifecycle. They are sent to after the queue, and the dispatcher's
// InitExternal, StartExternal, ConnectExternal and StopExternal drive
// every enabled one.
package notify
