// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/oswc/internal/service"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrQuit is returned by the quit command; the read-eval loop exits on it.
var ErrQuit = errors.New("quit")

// ErrNoTerminal is wrapped by prompters that cannot read without echo.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// Fixed messages for unmet preconditions.
const (
	MsgNotConnected = "You must first be connected to perform this command"
	MsgNotLoggedIn  = "You must first be logged in to perform this command"
	MsgInputAborted = "input aborted"
	MsgNoTerminal   = "input aborted: passwords can only be typed on a terminal"
)

// UsageError is a command invoked with arguments it cannot accept.
type UsageError struct {
	Name   string // Command name, without the slash
	Usage  string // Argument shape
	Detail string // Overrides the default message when set
}

func (e *UsageError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("incorrect number of arguments to %s, expecting: %s",
		e.Name, strings.TrimSpace("/"+e.Name+" "+e.Usage))
}

// PromptError wraps a local input failure during an interactive prompt.
type PromptError struct {
	Label string
	Err   error
}

func (e *PromptError) Error() string {
	return fmt.Sprintf("prompt %q: %v", strings.TrimSpace(e.Label), e.Err)
}

func (e *PromptError) Unwrap() error {
	return e.Err
}

// userMessage maps a handler error to the line shown after the error prefix.
func userMessage(err error) string {
	var (
		usage  *UsageError
		prompt *PromptError
		req    *service.RequestError
	)
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return MsgNotLoggedIn
	case errors.Is(err, service.ErrNotConnected):
		return MsgNotConnected
	case errors.As(err, &usage):
		return usage.Error()
	case errors.As(err, &prompt) && errors.Is(err, ErrNoTerminal):
		return MsgNoTerminal
	case errors.As(err, &prompt):
		return MsgInputAborted
	case errors.As(err, &req):
		return req.Error()
	default:
		return err.Error()
	}
}
