// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package service turns platform calls into domain outcomes.
//
// Each service reads the configuration through a [config.Store]
// snapshot, calls the platform through an [allcpp.Client], writes
// results back through the store's mutation API, and returns a status
// code. Platform problems are outcomes here, not errors: a failed
// query is ProductError, an unmapped order message is
// [CategoryUnknown].
//
// Order messages are mapped by the [MessageTable] embedded from
// ordermessages.jsonc.
package service
