// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ticketzako/cppticketer/lib/netutil"
)

// webhook is one HTTPS push. body returns url.Values for a form post
// and anything else for a JSON post.
type webhook struct {
	method string
	url    string
	body   func(Content) any
}

// webhookReply covers the status fields the push services answer
// with. DingTalk and WeCom use errcode; the rest use code, where 0 and
// 200 both mean success.
type webhookReply struct {
	ErrCode *int   `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (r webhookReply) err() error {
	if r.ErrCode != nil && *r.ErrCode != 0 {
		return fmt.Errorf("service error %d: %s", *r.ErrCode, r.ErrMsg)
	}
	if r.Code != nil && *r.Code != 0 && *r.Code != http.StatusOK {
		message := r.Message
		if message == "" {
			message = r.Msg
		}
		return fmt.Errorf("service error %d: %s", *r.Code, message)
	}
	return nil
}

func (d *Dispatcher) post(ctx context.Context, hook webhook, content Content) error {
	var (
		body        io.Reader
		contentType string
	)
	switch payload := hook.body(content).(type) {
	case url.Values:
		body = strings.NewReader(payload.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)

	response, err := d.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unexpected %d response: %s", response.StatusCode, netutil.ErrorBody(response.Body))
	}
	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	var reply webhookReply
	if json.Unmarshal(data, &reply) != nil {
		// Plain-text acknowledgements (PushMe answers "success").
		return nil
	}
	return reply.err()
}
