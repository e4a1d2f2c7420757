// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"errors"
	"fmt"
)

// NotificationError reports that every queued delivery failed.
type NotificationError struct {
	Failures []error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("sending notification failed on all %d channels: %v", len(e.Failures), errors.Join(e.Failures...))
}

func (e *NotificationError) Unwrap() []error {
	return e.Failures
}

// DeliveryError is one channel's failure.
type DeliveryError struct {
	Method string
	Err    error
}

func (e *DeliveryError) Error() string {
	return e.Method + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
