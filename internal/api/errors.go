// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
)

// =============================================================================
// OUTCOME ERROR CLASSES
// =============================================================================

// TransportError reports a request that never produced a server response:
// name resolution, connection refusal, cross-origin rejection, or a base
// URL the gateway refused to dial. These causes look identical to callers,
// so the message always names the usual suspects.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to reach %s: %v (check the API base URL, cross-origin policy, and http/https scheme)", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to reach %s (check the API base URL, cross-origin policy, and http/https scheme)", e.URL)
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError reports an HTTP 401: the bearer credential is missing, invalid,
// or expired, and the caller must re-authenticate.
type AuthError struct {
	Status int // always http.StatusUnauthorized
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return "authentication required (HTTP 401): session expired or invalid credentials"
}

// APIError reports a non-2xx, non-401 response: the request reached the
// server and the server rejected it. Message carries the response body text
// when one could be read.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// classify maps a response status to exactly one outcome error class, or
// nil for success. For any status c exactly one of {success (2xx),
// AuthError (401), APIError (other)} holds.
func classify(status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &AuthError{Status: status}
	default:
		return &APIError{Status: status, Message: body}
	}
}
