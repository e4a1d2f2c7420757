// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package allcpp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ticketzako/cppticketer/gateway"
	"github.com/ticketzako/cppticketer/lib/clock"
)

// Paths under Endpoints.
const (
	loginPath     = "/api/login/normal"
	purchaserPath = "/allcpp/user/purchaser/getList.do"
	ticketPath    = "/allcpp/ticket/getTicketTypeList.do"
	aliOrderPath  = "/allcpp/ticket/buyTicketAliWapPay.do"
	wxOrderPath   = "/allcpp/ticket/buyTicketWeixin.do"
)

// Payment methods.
const (
	MethodAli    = "ali"
	MethodWechat = "wx"
)

// DefaultProductAttempts bounds retries of an event query whose answer
// lacks the tier list.
const DefaultProductAttempts = 3

// ErrBadCredentials means the login answer carried no token.
var ErrBadCredentials = errors.New("allcpp: account or password rejected")

// RequestError is a read call that got no usable answer.
type RequestError struct {
	Operation string
	Envelope  gateway.Envelope
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("allcpp: %s: %s", e.Operation, e.Envelope.Message)
}

// ClientConfig configures NewClient. Gateway is required.
type ClientConfig struct {
	Gateway   *gateway.Gateway
	Endpoints Endpoints
	Profile   Profile

	// Clock stamps order signatures. Nil means clock.Real().
	Clock clock.Clock

	// Nonce generates order nonces. Nil means NewNonce.
	Nonce func() string

	// ProductAttempts defaults to DefaultProductAttempts.
	ProductAttempts int

	Logger *slog.Logger
}

// Client calls the platform.
type Client struct {
	gateway         *gateway.Gateway
	endpoints       Endpoints
	profile         Profile
	clock           clock.Clock
	nonce           func() string
	productAttempts int
	logger          *slog.Logger
}

// NewClient builds a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Gateway == nil {
		return nil, errors.New("allcpp: Gateway is required")
	}
	endpoints := config.Endpoints
	defaults := DefaultEndpoints()
	if endpoints.User == "" {
		endpoints.User = defaults.User
	}
	if endpoints.Web == "" {
		endpoints.Web = defaults.Web
	}
	endpoints.User = strings.TrimRight(endpoints.User, "/")
	endpoints.Web = strings.TrimRight(endpoints.Web, "/")

	profile := config.Profile
	if profile == (Profile{}) {
		profile = DefaultProfile()
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	nonce := config.Nonce
	if nonce == nil {
		nonce = NewNonce
	}
	attempts := config.ProductAttempts
	if attempts <= 0 {
		attempts = DefaultProductAttempts
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	config.Gateway.RefreshHeaders(profile.Headers())

	return &Client{
		gateway:         config.Gateway,
		endpoints:       endpoints,
		profile:         profile,
		clock:           clk,
		nonce:           nonce,
		productAttempts: attempts,
		logger:          logger,
	}, nil
}

// Login exchanges credentials for a token and installs it in the
// gateway: cookie token="<token>", fresh default headers, and the
// session token.
func (c *Client) Login(ctx context.Context, account, password string) (string, error) {
	envelope := c.gateway.PostForm(ctx, c.endpoints.User+loginPath, url.Values{
		"account":  {account},
		"password": {password},
	})
	if !envelope.OK() {
		return "", &RequestError{Operation: "login", Envelope: envelope}
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := envelope.Decode(&body); err != nil || body.Token == "" {
		if envelope.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrBadCredentials, envelope.Message)
		}
		return "", ErrBadCredentials
	}

	c.UseToken(body.Token)
	c.logger.Debug("token refreshed")
	return body.Token, nil
}

// UseToken installs a stored token without logging in.
func (c *Client) UseToken(token string) {
	c.gateway.RefreshCookies(map[string]string{"token": `"` + token + `"`})
	c.gateway.RefreshHeaders(c.profile.Headers())
	c.gateway.SetToken(token)
}

// Purchasers lists the account's registered buyers.
func (c *Client) Purchasers(ctx context.Context) ([]Purchaser, error) {
	envelope := c.gateway.Get(ctx, c.endpoints.Web+purchaserPath, nil)
	if !envelope.OK() {
		return nil, &RequestError{Operation: "purchaser list", Envelope: envelope}
	}
	var purchasers []Purchaser
	if err := envelope.Decode(&purchasers); err != nil {
		return nil, &RequestError{Operation: "purchaser list", Envelope: withMessage(envelope, err)}
	}
	return purchasers, nil
}

// Event fetches an event's tiers. An answer without a tier list is
// retried up to the configured attempt count.
func (c *Client) Event(ctx context.Context, eventMainID int) (Event, error) {
	query := url.Values{"eventMainId": {strconv.Itoa(eventMainID)}}
	var envelope gateway.Envelope
	for attempt := 1; attempt <= c.productAttempts; attempt++ {
		envelope = c.gateway.Get(ctx, c.endpoints.Web+ticketPath, query)
		if !envelope.OK() {
			return Event{}, &RequestError{Operation: "event query", Envelope: envelope}
		}
		if envelope.Has("ticketTypeList") {
			var event Event
			if err := envelope.Decode(&event); err != nil {
				return Event{}, &RequestError{Operation: "event query", Envelope: withMessage(envelope, err)}
			}
			return event, nil
		}
		c.logger.Debug("event answer lacks tier list", "event", eventMainID, "attempt", attempt)
	}
	if envelope.Message == "" {
		envelope.Message = "ticketTypeList missing"
	}
	return Event{}, &RequestError{Operation: "event query", Envelope: envelope}
}

// Order is one submission.
type Order struct {
	Method       string
	TicketTypeID int
	Count        int
	PurchaserIDs []int
}

// SubmitOrder posts an order. The reply always carries a message; a
// transport failure shows up as IsSuccess false with the gateway
// message.
func (c *Client) SubmitOrder(ctx context.Context, order Order) OrderReply {
	path := aliOrderPath
	if order.Method == MethodWechat {
		path = wxOrderPath
	}

	signature := c.Sign(order.TicketTypeID)
	ids := make([]string, len(order.PurchaserIDs))
	for index, id := range order.PurchaserIDs {
		ids[index] = strconv.Itoa(id)
	}
	query := url.Values{
		"ticketTypeId": {strconv.Itoa(order.TicketTypeID)},
		"count":        {strconv.Itoa(order.Count)},
		"nonce":        {signature.Nonce},
		"timeStamp":    {signature.Timestamp},
		"sign":         {signature.Sign},
		"purchaserIds": {strings.Join(ids, ",")},
	}

	envelope := c.gateway.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.Web + path,
		Query:  query,
		JSON:   struct{}{},
	})

	reply := OrderReply{Message: envelope.Message, OutTradeNo: UnknownTradeNo}
	if !envelope.OK() || len(envelope.Data) == 0 {
		return reply
	}
	var body orderBody
	if err := envelope.Decode(&body); err != nil {
		return reply
	}
	reply.IsSuccess = body.IsSuccess
	reply.Message = body.Message
	if body.Result != nil {
		switch {
		case body.Result.OutTradeNo != "":
			reply.OutTradeNo = body.Result.OutTradeNo
		case body.Result.OrderID != "":
			reply.OutTradeNo = body.Result.OrderID
		}
		reply.OrderInfo = body.Result.OrderInfo
	}
	c.logger.Debug("order submitted", "success", reply.IsSuccess, "message", reply.Message)
	return reply
}

// Sign builds the signature for an order on ticketTypeID.
func (c *Client) Sign(ticketTypeID int) Signature {
	nonce := c.nonce()
	timestamp := strconv.FormatInt(c.clock.Now().Unix(), 10)
	return Signature{
		Nonce:     nonce,
		Timestamp: timestamp,
		Sign:      SignOrder(c.profile.SignKey, timestamp, nonce, ticketTypeID),
	}
}

func withMessage(envelope gateway.Envelope, err error) gateway.Envelope {
	envelope.Message = fmt.Sprintf("decoding response: %v", err)
	return envelope
}
