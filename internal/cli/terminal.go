// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - What the attached terminal allows.
//
// The line editor works on pipes too, but masked password input needs a
// terminal on stdin. Styled output follows NO_COLOR and FORCE_COLOR
// (https://no-color.org/).

package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/oswc/internal/commands"
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NoTerminalError is returned when input must be read without echo but
// stdin is a pipe or a file.
type NoTerminalError struct {
	Prompt string
}

func (e *NoTerminalError) Error() string {
	return fmt.Sprintf("cannot read %q without echo: %v",
		strings.TrimSpace(e.Prompt), commands.ErrNoTerminal)
}

func (e *NoTerminalError) Unwrap() error {
	return commands.ErrNoTerminal
}

// requireTerminal fails with *NoTerminalError unless stdinTTY is set.
func requireTerminal(prompt string, stdinTTY bool) error {
	if !stdinTTY {
		return &NoTerminalError{Prompt: prompt}
	}
	return nil
}

// =============================================================================
// COLORS
// =============================================================================

// wantColors decides on styled output. NO_COLOR wins over FORCE_COLOR, which
// wins over terminal detection.
func wantColors(getenv func(string) string, stdoutTTY bool) bool {
	switch {
	case getenv("NO_COLOR") != "":
		return false
	case getenv("FORCE_COLOR") != "":
		return true
	default:
		return stdoutTTY
	}
}

var colorsEnabled = sync.OnceValue(func() bool {
	return wantColors(os.Getenv, isTerminal(os.Stdout))
})

// ColorsEnabled reports whether output to stdout should be styled.
func ColorsEnabled() bool {
	return colorsEnabled()
}

// GetColorProfile returns Ascii when colors are off, otherwise the profile
// termenv detects.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
