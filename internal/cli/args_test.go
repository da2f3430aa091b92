// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgParser_Subcommand(t *testing.T) {
	parser := NewArgParser([]string{"show", "2"})
	assert.Equal(t, "show", parser.Subcommand())

	parser = NewArgParser(nil)
	assert.Empty(t, parser.Subcommand())
}

func TestArgParser_Flags(t *testing.T) {
	parser := NewArgParser([]string{"export", "1", "--format", "json", "--since=2024-01-01"})

	assert.Equal(t, "json", parser.Flag("format"))
	assert.Equal(t, "json", parser.Flag("--format"))
	assert.Equal(t, "2024-01-01", parser.Flag("since"))
	assert.Empty(t, parser.Flag("missing"))
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"export", "1", "--format", "json"})

	assert.Equal(t, "json", parser.FlagOrDefault("format", "md"))
	assert.Equal(t, "md", parser.FlagOrDefault("output", "md"))
}

func TestArgParser_TrailingBoolFlagKeepsPositionals(t *testing.T) {
	parser := NewArgParser([]string{"delete", "3", "--force"})

	assert.Equal(t, "delete", parser.Subcommand())
	assert.Equal(t, []string{"3"}, parser.PositionalFrom(1))
}

func TestArgParser_Positionals(t *testing.T) {
	parser := NewArgParser([]string{"search", "wire", "format", "--limit=5"})

	assert.Equal(t, []string{"wire", "format"}, parser.PositionalFrom(1))
	assert.Equal(t, "wire format", JoinPositionalArgs(parser, 1))
	assert.Nil(t, parser.PositionalFrom(9))
}
