// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for parley.
package styles

import (
	"strings"
	"testing"
)

// =============================================================================
// COLOR DEFINITION TESTS
// =============================================================================

func TestAdaptiveColorsDefined(t *testing.T) {
	colors := []struct {
		name  string
		light string
		dark  string
	}{
		{"Purple", Purple.Light, Purple.Dark},
		{"Cyan", Cyan.Light, Cyan.Dark},
		{"Emerald", Emerald.Light, Emerald.Dark},
		{"Rose", Rose.Light, Rose.Dark},
		{"Amber", Amber.Light, Amber.Dark},
		{"TextPrimary", TextPrimary.Light, TextPrimary.Dark},
		{"UserBubbleFg", UserBubbleFg.Light, UserBubbleFg.Dark},
		{"DiagnosticFg", DiagnosticFg.Light, DiagnosticFg.Dark},
	}

	for _, c := range colors {
		if !strings.HasPrefix(c.light, "#") {
			t.Errorf("%s.Light = %q, want hex color", c.name, c.light)
		}
		if !strings.HasPrefix(c.dark, "#") {
			t.Errorf("%s.Dark = %q, want hex color", c.name, c.dark)
		}
		if c.light == c.dark {
			t.Errorf("%s light and dark variants are identical", c.name)
		}
	}
}

// =============================================================================
// STATUS INDICATOR TESTS
// =============================================================================

func TestStatusIndicatorsASCII(t *testing.T) {
	indicators := []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
	}

	for _, ind := range indicators {
		if ind == "" {
			t.Error("status indicator should not be empty")
		}
		for _, r := range ind {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", ind, r)
			}
		}
	}
}

// =============================================================================
// RENDER HELPER TESTS
// =============================================================================

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"RenderSuccess", RenderSuccess, StatusIndicators.Success},
		{"RenderError", RenderError, StatusIndicators.Error},
		{"RenderWarning", RenderWarning, StatusIndicators.Warning},
		{"RenderInfo", RenderInfo, StatusIndicators.Info},
	}

	for _, tt := range tests {
		out := tt.render("message")
		if !strings.Contains(out, tt.indicator) {
			t.Errorf("%s output %q missing indicator %q", tt.name, out, tt.indicator)
		}
		if !strings.Contains(out, "message") {
			t.Errorf("%s output %q missing message text", tt.name, out)
		}
	}
}
