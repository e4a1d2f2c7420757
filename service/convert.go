// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/ticketzako/cppticketer/allcpp"
	"github.com/ticketzako/cppticketer/lib/config"
)

func buyerFromPurchaser(p allcpp.Purchaser) config.Buyer {
	return config.Buyer{
		ID:        p.ID,
		RealName:  p.RealName,
		IDCard:    p.IDCard,
		Mobile:    p.Mobile,
		ValidType: p.ValidType,
	}
}

func mainFromEvent(m allcpp.EventMain) config.TicketMain {
	return config.TicketMain{ID: m.EventMainID, Name: m.EventName}
}

func tierFromTicketType(t allcpp.TicketType) config.TicketType {
	return config.TicketType{
		ID:            t.ID,
		Name:          t.TicketName,
		Square:        t.Square,
		Price:         t.TicketPrice,
		PurchaseNum:   t.PurchaseNum,
		RemainderNum:  t.RemainderNum,
		LockNum:       t.LockNum,
		RealnameAuth:  t.RealnameAuth,
		SellStartTime: t.SellStartTime,
		SellEndTime:   t.SellEndTime,
	}
}
