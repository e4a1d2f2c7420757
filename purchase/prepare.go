// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/service"
)

// SettingsFrom reads the loop settings from a configuration snapshot.
func SettingsFrom(c *config.Config) Settings {
	settings := Settings{
		MaxConsecutiveRequest: c.Setting.MaxConsecutiveRequest,
		RiskedInterval:        c.Setting.RiskedCooldown(),
		RefreshInterval:       c.Setting.RefreshDelay(),
	}
	if start := c.Product.TicketType.SellStartTime; start > 0 {
		settings.SellStartTime = time.UnixMilli(start)
	}
	return settings
}

// Products is what Prepare needs from the product service.
type Products interface {
	CheckInactive(ctx context.Context) service.ProductStatus
	Refresh(ctx context.Context) service.ProductStatus
}

// NotReadyError is returned by Prepare when a run cannot start.
type NotReadyError struct {
	Reason string
}

func (e *NotReadyError) Error() string {
	return "not ready to purchase: " + e.Reason
}

// Prepare checks that snapshot describes a purchasable selection and
// refreshes the tier's sale window from the platform. Callers take a
// fresh snapshot afterwards for SettingsFrom.
func Prepare(ctx context.Context, snapshot *config.Config, products Products) error {
	buyers := snapshot.Buyer
	if len(buyers.Buyer) == 0 {
		return &NotReadyError{Reason: "no buyer selected"}
	}
	if buyers.Count != len(buyers.Buyer) {
		return &NotReadyError{Reason: fmt.Sprintf("buyer count %d does not match %d selected buyers", buyers.Count, len(buyers.Buyer))}
	}
	if !snapshot.Product.Selected() {
		return &NotReadyError{Reason: "no product selected"}
	}
	switch status := products.CheckInactive(ctx); status {
	case service.ProductSuccess:
	case service.ProductInactive:
		return &NotReadyError{Reason: "the selected ticket is no longer on sale"}
	default:
		return &NotReadyError{Reason: "checking the selected ticket failed: " + status.String()}
	}
	if status := products.Refresh(ctx); status != service.ProductSuccess {
		return &NotReadyError{Reason: "refreshing the selected ticket failed: " + status.String()}
	}
	return nil
}
