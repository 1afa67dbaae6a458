// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"io"

	"github.com/peterh/liner"

	"github.com/jeranaias/oswc/internal/commands"
	"github.com/jeranaias/oswc/internal/session"
)

// =============================================================================
// READ-EVAL LOOP
// =============================================================================

// LineReader reads one command line after showing prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// RunStartup executes the command-line supplied commands in order. It
// reports whether one of them asked to quit.
func RunStartup(ctx context.Context, d *commands.Dispatcher, lines []string) bool {
	for _, line := range lines {
		if errors.Is(d.Execute(ctx, line), commands.ErrQuit) {
			return true
		}
	}
	return false
}

// RunREPL reads and executes lines until quit, end of input, Ctrl-C at the
// prompt or ctx being done.
func RunREPL(ctx context.Context, in LineReader, d *commands.Dispatcher, st *session.State) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := in.ReadLine(st.Prompt())
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, liner.ErrPromptAborted):
			return nil
		default:
			return err
		}

		if errors.Is(d.Execute(ctx, line), commands.ErrQuit) {
			return nil
		}
	}
}
