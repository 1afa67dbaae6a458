// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// Result contains the result of parsing one input line.
type Result struct {
	// Empty is true for blank lines, which are ignored
	Empty bool

	// IsCommand is true if the first token starts with /
	IsCommand bool

	// Name is the command name with the slash stripped
	Name string

	// Args are the positional arguments
	Args []string

	// Text is the trimmed line when it is not a command
	Text string
}

// =============================================================================
// PARSER
// =============================================================================

// Parse splits a line on runs of whitespace. Quoting is not supported: every
// space separates arguments.
func Parse(line string) Result {
	trimmed := strings.TrimSpace(line)
	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		return Result{Empty: true}
	}

	if !strings.HasPrefix(tokens[0], "/") {
		return Result{Text: trimmed}
	}

	return Result{
		IsCommand: true,
		Name:      strings.TrimPrefix(tokens[0], "/"),
		Args:      tokens[1:],
	}
}

// IsCommand checks if the input is a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}
