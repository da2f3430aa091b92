// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/parley-tui/internal/api"
)

func TestGetExitCode_OutcomeClasses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", &ValidationError{Field: "x", Reason: "bad"}, ExitUsageError},
		{"not found", &NotFoundError{Resource: "transcript", ID: "1"}, ExitNotFoundError},
		{"auth", &api.AuthError{Status: http.StatusUnauthorized}, ExitAuthError},
		{"transport", &api.TransportError{URL: "http://x.test"}, ExitNetworkError},
		{"server", &api.APIError{Status: 500, Message: "boom"}, ExitServerError},
		{"generic", errors.New("something broke"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestGetExitCode_WrappedOutcomes(t *testing.T) {
	wrapped := fmt.Errorf("send failed: %w", &api.AuthError{Status: http.StatusUnauthorized})
	assert.Equal(t, ExitAuthError, GetExitCode(wrapped))

	wrapped = fmt.Errorf("send failed: %w", &api.TransportError{URL: "http://x.test"})
	assert.Equal(t, ExitNetworkError, GetExitCode(wrapped))
}

func TestGetExitCode_MessageFallbacks(t *testing.T) {
	assert.Equal(t, ExitConfigError, GetExitCode(errors.New("failed to parse config file")))
	assert.Equal(t, ExitAuthError, GetExitCode(errors.New("invalid credentials")))
	assert.Equal(t, ExitNetworkError, GetExitCode(errors.New("connection refused")))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{
		Field:   "username",
		Value:   "",
		Reason:  "username cannot be empty",
		Example: "parley login --user alice",
	}

	msg := err.Error()
	assert.Contains(t, msg, "username")
	assert.Contains(t, msg, "cannot be empty")
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{Resource: "transcript", ID: "42"}
	assert.Contains(t, err.Error(), "transcript")
	assert.Contains(t, err.Error(), "42")
}

func TestTTYRequiredError_Message(t *testing.T) {
	err := &TTYRequiredError{Operation: "chat"}
	assert.Contains(t, err.Error(), "chat")

	err = &TTYRequiredError{}
	assert.Contains(t, err.Error(), "not a terminal")
}
