// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"log/slog"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/lib/clock"
	"github.com/ticketzako/cppticketer/lib/config"
)

// ProductService queries events and checks the selected tier.
type ProductService struct {
	store  *config.Store
	client *allcpp.Client
	clock  clock.Clock
	logger *slog.Logger
}

// NewProductService builds a ProductService.
func NewProductService(store *config.Store, client *allcpp.Client, clk clock.Clock, logger *slog.Logger) *ProductService {
	if clk == nil {
		clk = clock.Real()
	}
	return &ProductService{store: store, client: client, clock: clk, logger: orDiscard(logger)}
}

// Get fetches an event and its tiers.
func (s *ProductService) Get(ctx context.Context, eventMainID int) (ProductStatus, config.TicketMain, []config.TicketType) {
	event, err := s.client.Event(ctx, eventMainID)
	if err != nil {
		s.logger.Error("fetching event failed", "event", eventMainID, "error", err)
		return ProductError, config.TicketMain{}, nil
	}
	tiers := make([]config.TicketType, len(event.TicketTypeList))
	for index, tier := range event.TicketTypeList {
		tiers[index] = tierFromTicketType(tier)
	}
	return ProductSuccess, mainFromEvent(event.TicketMain), tiers
}

// selectedTier fetches the configured event and finds the configured
// tier in it.
func (s *ProductService) selectedTier(ctx context.Context) (allcpp.TicketType, bool, ProductStatus) {
	product := s.store.Snapshot().Product
	event, err := s.client.Event(ctx, product.TicketMain.ID)
	if err != nil {
		s.logger.Error("fetching event failed", "event", product.TicketMain.ID, "error", err)
		return allcpp.TicketType{}, false, ProductError
	}
	tier, ok := event.Tier(product.TicketType.ID)
	return tier, ok, ProductSuccess
}

// CheckTicket reports whether the selected tier has stock. A tier
// missing from the listing has none.
func (s *ProductService) CheckTicket(ctx context.Context) ProductStatus {
	tier, found, status := s.selectedTier(ctx)
	if status != ProductSuccess {
		return status
	}
	if !found {
		return ProductNoStock
	}
	s.logger.Debug("stock checked", "remainder", tier.RemainderNum, "locked", tier.LockNum)
	if tier.RemainderNum > 0 {
		return ProductSuccess
	}
	return ProductNoStock
}

// CheckInactive reports whether the selected tier is still on sale.
// A tier missing from the listing is inactive.
func (s *ProductService) CheckInactive(ctx context.Context) ProductStatus {
	tier, found, status := s.selectedTier(ctx)
	if status != ProductSuccess {
		return status
	}
	if !found {
		return ProductInactive
	}
	if tier.SellEndTime > s.clock.Now().UnixMilli() {
		return ProductSuccess
	}
	return ProductInactive
}

// Refresh copies the selected tier's sale window and real-name flag
// from the platform into the configuration.
func (s *ProductService) Refresh(ctx context.Context) ProductStatus {
	tier, found, status := s.selectedTier(ctx)
	if status != ProductSuccess {
		return status
	}
	if !found {
		return ProductInactive
	}
	err := s.store.Update(func(c *config.Config) error {
		c.Product.TicketType.SellStartTime = tier.SellStartTime
		c.Product.TicketType.SellEndTime = tier.SellEndTime
		c.Product.TicketType.RealnameAuth = tier.RealnameAuth
		return nil
	})
	if err != nil {
		s.logger.Warn("storing refreshed tier failed", "error", err)
	}
	return ProductSuccess
}

// Select stores an event and tier as the selection.
func (s *ProductService) Select(main config.TicketMain, tier config.TicketType) error {
	return s.store.SetProduct(main, tier)
}
