// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments. Candidates are
// whole replacement lines, the shape the line editor expects.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns the candidate lines for input, in declaration order.
func (c *Completer) Complete(input string) []string {
	if !IsCommand(input) {
		return nil
	}
	input = strings.TrimLeft(input, " \t")

	parts := strings.Fields(input)
	trailingSpace := strings.HasSuffix(input, " ")

	// Still typing the command name?
	if len(parts) == 1 && !trailingSpace {
		return c.completeCommands(strings.TrimPrefix(parts[0], "/"))
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil || cmd.Complete == nil {
		return nil
	}

	// Only the first argument is completed
	switch {
	case len(parts) == 1 && trailingSpace:
		return prefixed(parts[0]+" ", cmd.Complete(""))
	case len(parts) == 2 && !trailingSpace:
		return prefixed(parts[0]+" ", cmd.Complete(parts[1]))
	}
	return nil
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns "/name " for every visible command starting with
// partial. Aliases are not offered.
func (c *Completer) completeCommands(partial string) []string {
	partial = strings.ToLower(partial)

	var out []string
	for _, cmd := range c.registry.Visible() {
		if strings.HasPrefix(cmd.Name, partial) {
			out = append(out, "/"+cmd.Name+" ")
		}
	}
	return out
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// completeFromList returns a completion function over a fixed set of values.
func completeFromList(values []string) func(string) []string {
	return func(partial string) []string {
		partial = strings.ToLower(partial)
		var out []string
		for _, v := range values {
			if strings.HasPrefix(strings.ToLower(v), partial) {
				out = append(out, v)
			}
		}
		return out
	}
}

func prefixed(prefix string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = prefix + v
	}
	return out
}
