// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "strconv"

// StatusError is shared by every service: the call got no usable
// answer from the platform.
const StatusError = 114514

// LoginStatus is the outcome of a login.
type LoginStatus int

const (
	LoginSuccess         LoginStatus = 0
	LoginError           LoginStatus = 200000
	LoginMissingAccount  LoginStatus = 300000
	LoginMissingPassword LoginStatus = 300001
	LoginFailed          LoginStatus = StatusError
)

func (s LoginStatus) String() string {
	switch s {
	case LoginSuccess:
		return "success"
	case LoginError:
		return "rejected"
	case LoginMissingAccount:
		return "missing account"
	case LoginMissingPassword:
		return "missing password"
	case LoginFailed:
		return "error"
	}
	return "login status " + strconv.Itoa(int(s))
}

// BuyerStatus is the outcome of a purchaser query.
type BuyerStatus int

const (
	BuyerSuccess BuyerStatus = 0
	BuyerMissing BuyerStatus = 300000
	BuyerError   BuyerStatus = StatusError
)

func (s BuyerStatus) String() string {
	switch s {
	case BuyerSuccess:
		return "success"
	case BuyerMissing:
		return "no purchasers"
	case BuyerError:
		return "error"
	}
	return "buyer status " + strconv.Itoa(int(s))
}

// ProductStatus is the outcome of an event or tier check.
type ProductStatus int

const (
	ProductSuccess  ProductStatus = 0
	ProductNoStock  ProductStatus = 100000
	ProductInactive ProductStatus = 100001
	ProductError    ProductStatus = StatusError
)

func (s ProductStatus) String() string {
	switch s {
	case ProductSuccess:
		return "success"
	case ProductNoStock:
		return "no stock"
	case ProductInactive:
		return "inactive"
	case ProductError:
		return "error"
	}
	return "product status " + strconv.Itoa(int(s))
}

// OrderStatus is the code of a mapped order message.
type OrderStatus int

const (
	OrderSuccess            OrderStatus = 0
	OrderNoStock            OrderStatus = 100000
	OrderRequestLimited     OrderStatus = 200000
	OrderRequestRisked      OrderStatus = 200001
	OrderRequestBlocked     OrderStatus = 200002
	OrderRequestCongested   OrderStatus = 200003
	OrderRedirected         OrderStatus = 200010
	OrderTransportCongested OrderStatus = 200020
	OrderDuplicated         OrderStatus = 300000
)

func (s OrderStatus) String() string {
	switch s {
	case OrderSuccess:
		return "success"
	case OrderNoStock:
		return "no stock"
	case OrderRequestLimited:
		return "request limited"
	case OrderRequestRisked:
		return "request risked"
	case OrderRequestBlocked:
		return "request blocked"
	case OrderRequestCongested:
		return "request congested"
	case OrderRedirected:
		return "redirected"
	case OrderTransportCongested:
		return "transport congested"
	case OrderDuplicated:
		return "duplicated"
	}
	return "order status " + strconv.Itoa(int(s))
}

// Category groups order codes by how the purchase loop reacts.
type Category string

const (
	CategorySuccess   Category = "success"
	CategoryStock     Category = "stock"
	CategoryRateLimit Category = "rate_limit"
	CategoryTransport Category = "transport"
	CategoryDuplicate Category = "duplicate"

	// CategoryUnknown is the message table's miss. It is never
	// stored in the table.
	CategoryUnknown Category = "unknown"
)

func (c Category) known() bool {
	switch c {
	case CategorySuccess, CategoryStock, CategoryRateLimit, CategoryTransport, CategoryDuplicate:
		return true
	}
	return false
}
