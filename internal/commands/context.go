// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
	"github.com/jeranaias/oswc/internal/session"
)

// =============================================================================
// HANDLER DEPENDENCIES
// =============================================================================

// Prompter reads interactive answers from the user.
type Prompter interface {
	// Prompt shows label and returns the line typed, without echo changes.
	Prompt(label string) (string, error)

	// PasswordPrompt shows label and reads a line without echoing it.
	PasswordPrompt(label string) (string, error)
}

// Output draws command results on the terminal.
type Output interface {
	Message(msg string)
	Error(msg string)
	Inbox(entries []*model.ActivityEntry)
	Activities(title string, entries []*model.ActivityEntry)
	Relations(relations []*model.Relation)
	Profile(profile *model.Profile)
	List(title string, items []string)

	// Watch re-renders inbox on every event until ctx is done or events
	// is closed.
	Watch(ctx context.Context, inbox service.Inbox, events <-chan service.Event)
}

// Context provides access to application state for command handlers.
type Context struct {
	Service  service.Service
	State    *session.State
	Prompter Prompter
	Out      Output
	Logger   *zap.Logger
	Registry *Registry

	// DefaultPort is used by connect when no port is given
	DefaultPort int

	// ClientTag identifies this client on login
	ClientTag string

	ConnectOptions service.ConnectOptions

	// Now is the clock used to timestamp new entries
	Now func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// ask prompts for a line, converting I/O failures to a PromptError.
func (c *Context) ask(label string) (string, error) {
	answer, err := c.Prompter.Prompt(label)
	if err != nil {
		return "", &PromptError{Label: label, Err: err}
	}
	return answer, nil
}

// askSecret prompts for a masked line.
func (c *Context) askSecret(label string) (string, error) {
	answer, err := c.Prompter.PasswordPrompt(label)
	if err != nil {
		return "", &PromptError{Label: label, Err: err}
	}
	return answer, nil
}
