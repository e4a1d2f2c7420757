// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/lib/config"
)

// BuyerService lists and selects purchasers.
type BuyerService struct {
	store  *config.Store
	client *allcpp.Client
	logger *slog.Logger
}

// NewBuyerService builds a BuyerService.
func NewBuyerService(store *config.Store, client *allcpp.Client, logger *slog.Logger) *BuyerService {
	return &BuyerService{store: store, client: client, logger: orDiscard(logger)}
}

// List fetches the account's purchasers.
func (s *BuyerService) List(ctx context.Context) (BuyerStatus, []config.Buyer) {
	purchasers, err := s.client.Purchasers(ctx)
	if err != nil {
		s.logger.Error("fetching purchasers failed", "error", err)
		return BuyerError, nil
	}
	if len(purchasers) == 0 {
		return BuyerMissing, nil
	}
	buyers := make([]config.Buyer, len(purchasers))
	for index, purchaser := range purchasers {
		buyers[index] = buyerFromPurchaser(purchaser)
	}
	return BuyerSuccess, buyers
}

// Select stores buyers as the selection; the buyer count follows in
// the same write.
func (s *BuyerService) Select(buyers []config.Buyer) error {
	return s.store.SetBuyers(buyers)
}

// SelectIDs picks the buyers with ids out of available, in ids order.
func SelectIDs(available []config.Buyer, ids []int) ([]config.Buyer, error) {
	byID := make(map[int]config.Buyer, len(available))
	for _, buyer := range available {
		byID[buyer.ID] = buyer
	}
	selected := make([]config.Buyer, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		buyer, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no purchaser with id %d", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, buyer)
	}
	return selected, nil
}
