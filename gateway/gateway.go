// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ticketzako/cppticketer/lib/netutil"
)

// Envelope codes.
const (
	// CodeTransportOK means the platform answered and Data holds its
	// body. It says nothing about whether the operation succeeded.
	CodeTransportOK = -1

	// CodeTransportError means there is no usable answer.
	CodeTransportError = 114514
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 5 * time.Second

// DefaultCookieDomain is the domain platform cookies are scoped to.
const DefaultCookieDomain = "allcpp.cn"

// Envelope is the uniform result of a request.
type Envelope struct {
	Code    int
	Message string
	Status  int
	Data    json.RawMessage
}

// OK reports whether the platform answered.
func (e Envelope) OK() bool { return e.Code == CodeTransportOK }

// Decode unmarshals Data into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("gateway: empty response body (%s)", e.Message)
	}
	return json.Unmarshal(e.Data, v)
}

// Has reports whether Data is a JSON object with a top-level key.
func (e Envelope) Has(key string) bool {
	var object map[string]json.RawMessage
	if json.Unmarshal(e.Data, &object) != nil {
		return false
	}
	_, ok := object[key]
	return ok
}

// Request describes one call. URL is absolute. At most one of Form and
// JSON is used as the body; Form wins.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Form   url.Values
	JSON   any
	Header http.Header
}

// Config configures New.
type Config struct {
	// HTTPClient is copied; its redirect policy is replaced so
	// redirects are never followed. Nil means a client with Timeout.
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// CookieDomain scopes stored cookies. Empty means
	// DefaultCookieDomain.
	CookieDomain string

	// Headers are the initial default headers.
	Headers http.Header

	Logger *slog.Logger
}

// Gateway sends requests with shared headers and cookies. It is safe
// for concurrent use.
type Gateway struct {
	client       *http.Client
	logger       *slog.Logger
	cookieDomain string

	mu      sync.RWMutex
	headers http.Header
	cookies map[string]string
	token   string
}

// New builds a Gateway.
func New(config Config) *Gateway {
	var client http.Client
	if config.HTTPClient != nil {
		client = *config.HTTPClient
	} else {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client.Timeout = timeout
	}
	client.Jar = nil
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	domain := config.CookieDomain
	if domain == "" {
		domain = DefaultCookieDomain
	}
	headers := config.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}

	return &Gateway{
		client:       &client,
		logger:       logger,
		cookieDomain: strings.TrimPrefix(domain, "."),
		headers:      headers,
		cookies:      map[string]string{},
	}
}

// Do sends request and wraps the outcome in an Envelope.
func (g *Gateway) Do(ctx context.Context, request Request) Envelope {
	httpRequest, body, err := g.build(ctx, request)
	if err != nil {
		return transportFailure(err)
	}

	logBody := string(body)
	if request.Form != nil {
		logBody = redact(request.Form)
	}
	g.logger.Debug("request",
		"method", httpRequest.Method,
		"url", endpoint(httpRequest.URL),
		"query", redact(httpRequest.URL.Query()),
		"body", logBody,
	)

	response, err := g.client.Do(httpRequest)
	if err != nil {
		g.logger.Error("request failed", "method", httpRequest.Method, "url", endpoint(httpRequest.URL), "error", err)
		return transportFailure(err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return transportFailure(fmt.Errorf("reading response body: %w", err))
	}
	g.storeCookies(httpRequest.URL, response)

	g.logger.Debug("response",
		"url", endpoint(httpRequest.URL),
		"status", response.StatusCode,
		"body", string(responseBody),
	)
	if response.StatusCode != http.StatusOK {
		g.logger.Error("request returned non-200 status",
			"url", endpoint(httpRequest.URL),
			"status", response.StatusCode,
		)
	}

	return envelopeFor(response, responseBody)
}

// Get is Do with GET and a query.
func (g *Gateway) Get(ctx context.Context, rawURL string, query url.Values) Envelope {
	return g.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Query: query})
}

// PostForm is Do with POST and a form body.
func (g *Gateway) PostForm(ctx context.Context, rawURL string, form url.Values) Envelope {
	return g.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Form: form})
}

// RefreshHeaders replaces the default headers.
func (g *Gateway) RefreshHeaders(headers http.Header) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.headers = headers.Clone()
	if g.headers == nil {
		g.headers = http.Header{}
	}
}

// RefreshCookies replaces every stored cookie.
func (g *Gateway) RefreshCookies(cookies map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cookies = make(map[string]string, len(cookies))
	for name, value := range cookies {
		g.cookies[name] = value
	}
}

// Headers returns a copy of the default headers.
func (g *Gateway) Headers() http.Header {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.headers.Clone()
}

// Cookies returns a copy of the stored cookies.
func (g *Gateway) Cookies() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cookies := make(map[string]string, len(g.cookies))
	for name, value := range g.cookies {
		cookies[name] = value
	}
	return cookies
}

// SetToken stores the session token.
func (g *Gateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

// Token returns the session token.
func (g *Gateway) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// CloseIdleConnections releases pooled connections.
func (g *Gateway) CloseIdleConnections() {
	g.client.CloseIdleConnections()
}

func (g *Gateway) build(ctx context.Context, request Request) (*http.Request, []byte, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := url.Parse(request.URL)
	if err != nil {
		return nil, nil, err
	}
	if len(request.Query) > 0 {
		query := target.Query()
		for key, values := range request.Query {
			query[key] = values
		}
		target.RawQuery = query.Encode()
	}

	var body []byte
	var contentType string
	switch {
	case request.Form != nil:
		body = []byte(request.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case request.JSON != nil:
		body, err = json.Marshal(request.JSON)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding request body: %w", err)
		}
		contentType = "application/json;charset=UTF-8"
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
	if err != nil {
		return nil, nil, err
	}

	g.mu.RLock()
	for key, values := range g.headers {
		httpRequest.Header[key] = append([]string(nil), values...)
	}
	if g.inCookieDomain(target.Hostname()) {
		for name, value := range g.cookies {
			unquoted, quoted := strings.CutPrefix(value, `"`)
			if quoted {
				unquoted, quoted = strings.CutSuffix(unquoted, `"`)
			}
			if !quoted {
				unquoted = value
			}
			httpRequest.AddCookie(&http.Cookie{Name: name, Value: unquoted, Quoted: quoted})
		}
	}
	g.mu.RUnlock()

	for key, values := range request.Header {
		httpRequest.Header[key] = append([]string(nil), values...)
	}
	if contentType != "" {
		httpRequest.Header.Set("Content-Type", contentType)
	}
	return httpRequest, body, nil
}

func (g *Gateway) storeCookies(target *url.URL, response *http.Response) {
	received := response.Cookies()
	if len(received) == 0 || !g.inCookieDomain(target.Hostname()) {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, cookie := range received {
		if cookie.MaxAge < 0 {
			delete(g.cookies, cookie.Name)
			continue
		}
		value := cookie.Value
		if cookie.Quoted {
			value = `"` + value + `"`
		}
		g.cookies[cookie.Name] = value
	}
}

func (g *Gateway) inCookieDomain(host string) bool {
	return host == g.cookieDomain || strings.HasSuffix(host, "."+g.cookieDomain)
}

func envelopeFor(response *http.Response, body []byte) Envelope {
	switch response.StatusCode {
	case http.StatusOK:
		mediaType, _, _ := mime.ParseMediaType(response.Header.Get("Content-Type"))
		if mediaType != "application/json" {
			return statusFailure(response.StatusCode)
		}
		var object map[string]any
		if err := json.Unmarshal(body, &object); err != nil {
			// Arrays are valid bodies with no message.
			if !json.Valid(body) {
				return transportFailure(fmt.Errorf("decoding response body: %w", err))
			}
		}
		message, _ := object["message"].(string)
		return Envelope{
			Code:    CodeTransportOK,
			Message: message,
			Status:  response.StatusCode,
			Data:    json.RawMessage(body),
		}
	case http.StatusFound:
		return Envelope{
			Code:    CodeTransportOK,
			Message: fmt.Sprintf("请求错误: %d", response.StatusCode),
			Status:  response.StatusCode,
		}
	default:
		return statusFailure(response.StatusCode)
	}
}

func statusFailure(status int) Envelope {
	return Envelope{
		Code:    CodeTransportError,
		Message: fmt.Sprintf("请求错误: %d", status),
		Status:  status,
	}
}

func transportFailure(err error) Envelope {
	return Envelope{
		Code:    CodeTransportError,
		Message: fmt.Sprintf("请求错误: %v", err),
	}
}

// endpoint drops the query from logged URLs. Only the debug request
// line logs the query, through redact.
func endpoint(target *url.URL) string {
	clean := *target
	clean.RawQuery = ""
	return clean.String()
}

// secretParams are the query and form fields masked in debug logs.
var secretParams = []string{"password", "sign", "nonce"}

func redact(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	clean := make(url.Values, len(values))
	for key, value := range values {
		clean[key] = value
	}
	for _, name := range secretParams {
		if _, ok := clean[name]; ok {
			clean.Set(name, "redacted")
		}
	}
	return clean.Encode()
}
