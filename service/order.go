// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"log/slog"

	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/lib/config"
)

// OrderResult is the outcome of one order submission. Category is
// CategoryUnknown when the message is not in the table; Status is then
// meaningless and left at OrderUnmapped.
type OrderResult struct {
	Category    Category
	Status      OrderStatus
	Message     string
	OutTradeNo  string
	RedirectURL string
}

// OrderUnmapped is the Status of an unknown result. No table entry
// uses it.
const OrderUnmapped OrderStatus = -1

// Known reports whether the message was in the table.
func (r OrderResult) Known() bool { return r.Category != CategoryUnknown }

// OrderService submits orders for the current selection.
type OrderService struct {
	store    *config.Store
	client   *allcpp.Client
	messages *MessageTable
	logger   *slog.Logger
}

// NewOrderService builds an OrderService. A nil table means
// DefaultMessageTable().
func NewOrderService(store *config.Store, client *allcpp.Client, messages *MessageTable, logger *slog.Logger) *OrderService {
	if messages == nil {
		messages = DefaultMessageTable()
	}
	return &OrderService{store: store, client: client, messages: messages, logger: orDiscard(logger)}
}

// Create submits one order for the selected tier and buyers.
func (s *OrderService) Create(ctx context.Context) OrderResult {
	return s.submit(ctx, s.store.Snapshot().Product.TicketType.ID)
}

// Probe submits an order for an arbitrary tier with the selected
// buyers. The stress tester uses it against tiers that do not exist.
func (s *OrderService) Probe(ctx context.Context, ticketTypeID int) OrderResult {
	return s.submit(ctx, ticketTypeID)
}

func (s *OrderService) submit(ctx context.Context, ticketTypeID int) OrderResult {
	snapshot := s.store.Snapshot()
	reply := s.client.SubmitOrder(ctx, allcpp.Order{
		Method:       snapshot.Product.TicketMethod,
		TicketTypeID: ticketTypeID,
		Count:        snapshot.Buyer.Count,
		PurchaserIDs: snapshot.Buyer.IDs(),
	})
	result := s.Classify(reply)
	s.logger.Debug("order result",
		"ticket_type", ticketTypeID,
		"category", result.Category,
		"status", int(result.Status),
		"message", result.Message,
	)
	return result
}

// Classify maps a platform reply to a result. A successful reply is
// Success whatever its message says.
func (s *OrderService) Classify(reply allcpp.OrderReply) OrderResult {
	result := OrderResult{Message: reply.Message}
	if reply.IsSuccess {
		result.Category = CategorySuccess
		result.Status = OrderSuccess
		result.OutTradeNo = reply.OutTradeNo
		result.RedirectURL = reply.RedirectURL()
		return result
	}
	entry, ok := s.messages.Lookup(reply.Message)
	if !ok {
		result.Category = CategoryUnknown
		result.Status = OrderUnmapped
		return result
	}
	result.Category = entry.Category
	result.Status = entry.Code
	return result
}
