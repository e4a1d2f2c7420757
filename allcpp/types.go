// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package allcpp

import (
	"net/url"
	"strings"
)

// Purchaser is a real-name buyer registered on the account.
type Purchaser struct {
	ID        int    `json:"id"`
	RealName  string `json:"realname"`
	IDCard    string `json:"idcard"`
	Mobile    string `json:"mobile"`
	ValidType int    `json:"validType"`
}

// EventMain identifies an event.
type EventMain struct {
	EventMainID int    `json:"eventMainId"`
	EventName   string `json:"eventName"`
}

// TicketType is one tier as the platform reports it. Price is in
// cents; times are Unix milliseconds.
type TicketType struct {
	ID            int    `json:"id"`
	TicketName    string `json:"ticketName"`
	Square        string `json:"square"`
	TicketPrice   int    `json:"ticketPrice"`
	PurchaseNum   int    `json:"purchaseNum"`
	RemainderNum  int    `json:"remainderNum"`
	LockNum       int    `json:"lockNum"`
	RealnameAuth  bool   `json:"realnameAuth"`
	SellStartTime int64  `json:"sellStartTime"`
	SellEndTime   int64  `json:"sellEndTime"`
}

// Event is the ticket tier listing of one event.
type Event struct {
	TicketMain     EventMain    `json:"ticketMain"`
	TicketTypeList []TicketType `json:"ticketTypeList"`
}

// Tier returns the tier with id.
func (e Event) Tier(id int) (TicketType, bool) {
	for _, tier := range e.TicketTypeList {
		if tier.ID == id {
			return tier, true
		}
	}
	return TicketType{}, false
}

// OrderReply is the parsed order response. When the platform did not
// answer, IsSuccess is false and Message is the gateway message.
type OrderReply struct {
	IsSuccess  bool
	Message    string
	OutTradeNo string
	OrderInfo  string
}

// UnknownTradeNo stands in when the platform omits the order number.
const UnknownTradeNo = "Unknown"

// orderBody is the wire shape of an order response.
type orderBody struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Result    *struct {
		OutTradeNo string `json:"outTradeNo"`
		OrderID    string `json:"orderid"`
		OrderInfo  string `json:"orderInfo"`
	} `json:"result"`
}

// PaymentParams decodes OrderInfo, a query string that may itself be
// URL-encoded, into its fields. Values are unescaped once more, as the
// platform double-encodes them.
func (r OrderReply) PaymentParams() map[string]string {
	info := r.OrderInfo
	if !strings.Contains(info, "=") {
		if unescaped, err := url.QueryUnescape(info); err == nil {
			info = unescaped
		}
	}
	values, err := url.ParseQuery(info)
	if err != nil {
		return nil
	}
	params := make(map[string]string, len(values))
	for key, list := range values {
		if len(list) == 0 {
			params[key] = ""
			continue
		}
		unescaped, err := url.QueryUnescape(list[0])
		if err != nil {
			unescaped = list[0]
		}
		params[key] = unescaped
	}
	return params
}

// redirectKeys are the order info fields that carry a payment page.
var redirectKeys = []string{"return_url", "redirect_url", "url"}

// RedirectURL returns the payment page the order info points at, or
// "".
func (r OrderReply) RedirectURL() string {
	params := r.PaymentParams()
	for _, key := range redirectKeys {
		if value := params[key]; strings.HasPrefix(value, "http") {
			return value
		}
	}
	if unescaped, err := url.QueryUnescape(r.OrderInfo); err == nil && strings.HasPrefix(unescaped, "http") {
		return unescaped
	}
	return ""
}
