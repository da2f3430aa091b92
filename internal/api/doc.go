// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the authenticated HTTP gateway to the chat backend.
//
// The gateway builds and dispatches requests, injects the bearer token and
// content-type headers, and classifies every exchange into exactly one of
// four outcomes:
//
//   - success: 2xx, body parsed as JSON when the response says it is JSON,
//     returned as raw text otherwise
//   - *AuthError: HTTP 401, the credential is invalid or expired
//   - *APIError: any other non-2xx, the server rejected the request
//   - *TransportError: the request never completed (DNS, refused
//     connection, cross-origin rejection, malformed base URL)
//
// Every caller depends on these classes staying disjoint: each one drives a
// different recovery path. The gateway itself never retries and never
// mutates session state; reacting to a 401 is the session manager's job.
//
// # Usage
//
//	client := api.NewClient(store).WithTokenSource(session)
//	res, err := client.Send(ctx, api.Request{
//	    Path:   "/chat",
//	    Method: http.MethodPost,
//	    Body:   payload,
//	})
//
// # Security
//
// Bearer tokens are attached at dispatch time and never logged; request
// logging covers method, path, status, and duration only.
package api
