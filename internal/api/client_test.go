// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedToken string

func (f fixedToken) Token() string { return string(f) }

func TestClassify_Exhaustive(t *testing.T) {
	// For any status exactly one of {success, AuthError, APIError} holds.
	for status := 100; status < 600; status++ {
		err := classify(status, "detail")
		switch {
		case status >= 200 && status < 300:
			assert.NoError(t, err, "status %d", status)
		case status == http.StatusUnauthorized:
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr, "status %d", status)
			assert.Equal(t, 401, authErr.Status)
		default:
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr, "status %d", status)
			assert.Equal(t, status, apiErr.Status)
			assert.Equal(t, "detail", apiErr.Message)
		}
	}
}

func TestSend_RejectsBadBaseURLBeforeDialing(t *testing.T) {
	for _, base := range []string{"", "localhost:8000", "ftp://example.com", "example.com/api"} {
		t.Run(fmt.Sprintf("base=%q", base), func(t *testing.T) {
			client := NewClient(staticBase(base))
			_, err := client.Send(context.Background(), Request{Path: "/chat"})

			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Contains(t, transportErr.Error(), "http/https scheme")
		})
	}
}

func TestSend_TransportFailure(t *testing.T) {
	// A closed server: the request never completes.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := NewClient(staticBase(serverURL))
	_, err := client.Send(context.Background(), Request{Path: "/chat"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	// The hint names the dominant real-world causes.
	assert.Contains(t, transportErr.Error(), "API base URL")
}

func TestSend_BearerAndContentType(t *testing.T) {
	var gotAuth, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL)).WithTokenSource(fixedToken("tok123"))
	res, err := client.Send(context.Background(), Request{
		Path: "/chat",
		Body: map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsJSON())
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestSend_NoTokenNoAuthorizationHeader(t *testing.T) {
	var sawAuthHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuthHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL)).WithTokenSource(fixedToken(""))
	_, err := client.Send(context.Background(), Request{Path: "/chat"})
	require.NoError(t, err)
	assert.False(t, sawAuthHeader)
}

func TestSend_FormEncoded(t *testing.T) {
	var gotType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Encode()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"abc"}`)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL))
	res, err := client.Send(context.Background(), Request{
		Path: "/token",
		Form: url.Values{"username": {"a@b.com"}, "password": {"pw"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "password=pw&username=a%40b.com", gotBody)

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, "abc", payload.AccessToken)
}

func TestSend_HeaderOverrideCannotDisplaceAuthorization(t *testing.T) {
	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL)).WithTokenSource(fixedToken("tok123"))
	_, err := client.Send(context.Background(), Request{
		Path: "/chat",
		Header: http.Header{
			"Accept":        {"text/plain"},
			"Authorization": {"Bearer forged"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestSend_ErrorBodyAttached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, "validation failed")
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL))
	_, err := client.Send(context.Background(), Request{Path: "/chat"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, "validation failed", apiErr.Message)
}

func TestSend_AuthErrorOn401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL)).WithTokenSource(fixedToken("stale"))
	_, err := client.Send(context.Background(), Request{Path: "/chat"})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.Status)

	// 401 is never an APIError; the classes are disjoint.
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestSend_PlainTextSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "just text")
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL))
	res, err := client.Send(context.Background(), Request{Path: "/chat", Method: http.MethodGet})
	require.NoError(t, err)
	assert.False(t, res.IsJSON())
	assert.Equal(t, "just text", res.Text)
}

func TestSend_TrailingSlashStripped(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(staticBase(server.URL + "/"))
	_, err := client.Send(context.Background(), Request{Path: "/chat"})
	require.NoError(t, err)
	assert.Equal(t, "/chat", gotPath)
}
