// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Configuration constants for the gateway.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	userAgent = "parley/0.1.0"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client with connection pooling for all gateway requests.
// No cookie jar: the gateway never sends credentialed cookies cross-origin.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// INTERFACES
// =============================================================================

// TokenSource supplies the current bearer credential. An empty string means
// the session is unauthenticated and no Authorization header is attached.
type TokenSource interface {
	Token() string
}

// BaseResolver supplies the gateway base URL and is re-read on every
// request, so an externally updated config store takes effect immediately.
type BaseResolver interface {
	APIBase() string
}

// staticBase is a BaseResolver for a fixed URL (explicit overrides, tests).
type staticBase string

func (b staticBase) APIBase() string { return string(b) }

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Request describes one gateway call.
type Request struct {
	// Path is appended to the base URL; it should start with "/".
	Path string

	// Method is the HTTP method; empty defaults to POST.
	Method string

	// Body is JSON-serialized unless Form is set. A nil Body sends no body.
	Body any

	// Form, when non-nil, is sent as application/x-www-form-urlencoded and
	// Body is ignored.
	Form url.Values

	// Header entries override the default headers. The Authorization header
	// is owned by the gateway and cannot be displaced.
	Header http.Header
}

// Result is a successful (2xx) exchange. Exactly one of JSON and Text is
// meaningful: servers answer with JSON when they say so and plain text
// otherwise, and callers must accept either shape.
type Result struct {
	Status int
	JSON   json.RawMessage
	Text   string
}

// IsJSON reports whether the response body was JSON.
func (r *Result) IsJSON() bool {
	return r.JSON != nil
}

// Decode unmarshals a JSON result into v.
func (r *Result) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("response is not JSON")
	}
	return json.Unmarshal(r.JSON, v)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the authenticated request gateway.
type Client struct {
	base       BaseResolver
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a gateway resolving its base URL from the given
// resolver (normally the config store).
func NewClient(base BaseResolver) *Client {
	return &Client{
		base:       base,
		httpClient: sharedHTTPClient,
	}
}

// WithBaseURL pins the gateway to a fixed base URL, overriding the
// resolver. A single trailing slash is stripped before path concatenation.
func (c *Client) WithBaseURL(u string) *Client {
	c.base = staticBase(strings.TrimSuffix(u, "/"))
	return c
}

// WithTokenSource sets the bearer credential source.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	c.tokens = ts
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests, timeouts).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// resolveBase returns the base URL for this request, trailing slash
// stripped, or a TransportError when the URL carries no usable scheme.
// The scheme check runs before any network attempt.
func (c *Client) resolveBase() (string, error) {
	base := ""
	if c.base != nil {
		base = strings.TrimSpace(c.base.APIBase())
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "", &TransportError{
			URL: base,
			Err: fmt.Errorf("base URL must start with http:// or https://"),
		}
	}
	return base, nil
}

// logRequest logs an API request without exposing sensitive data.
// Headers (may contain auth) and bodies (may contain user text) are never logged.
func logRequest(method, path string) {
	log.Printf("API Request: %s %s", method, path)
}

// logResponse logs status and duration only.
func logResponse(status int, duration time.Duration) {
	log.Printf("API Response: %d (%v)", status, duration)
}

// Send dispatches one request and classifies the outcome.
//
// The error is nil for 2xx responses and otherwise exactly one of
// *TransportError, *AuthError, or *APIError (see package doc). The gateway
// never retries and never touches session state.
func (c *Client) Send(ctx context.Context, req Request) (*Result, error) {
	base, err := c.resolveBase()
	if err != nil {
		return nil, err
	}
	requestURL := base + req.Path

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	contentType := "application/json"
	switch {
	case req.Form != nil:
		contentType = "application/x-www-form-urlencoded"
		bodyReader = strings.NewReader(req.Form.Encode())
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, &TransportError{URL: requestURL, Err: err}
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", userAgent)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	// Authorization is attached last: explicit header overrides never
	// displace the session credential.
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	logRequest(method, req.Path)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// No response at all: DNS, refused connection, CORS-style rejection.
		return nil, &TransportError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()
	logResponse(resp.StatusCode, time.Since(start))

	// Best-effort body read. For error statuses a read failure must not
	// mask the status itself, so the body collapses to "".
	body, readErr := readBody(resp)

	if err := classify(resp.StatusCode, string(body)); err != nil {
		return nil, err
	}

	if readErr != nil {
		return nil, &TransportError{URL: requestURL, Err: readErr}
	}

	res := &Result{Status: resp.StatusCode}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		res.JSON = json.RawMessage(body)
	} else {
		res.Text = string(body)
	}
	return res, nil
}

// readBody reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
