// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/jeranaias/oswc/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Precondition is the session state a command needs before it runs.
type Precondition int

const (
	RequiresNothing Precondition = iota
	RequiresConnection
	RequiresAuth
)

// HandlerFunc executes a command whose arity and precondition were checked.
type HandlerFunc func(ctx context.Context, c *Context, args []string) error

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name, without the slash (e.g., "login")
	Name string

	// Aliases are alternative names (e.g., "logout")
	Aliases []string

	// Usage shows argument syntax (e.g., "server [[-p] port]")
	Usage string

	// Description is shown in help
	Description string

	// Arities lists every accepted argument count
	Arities []int

	// Requires is checked after arity and before the handler runs
	Requires Precondition

	// Hidden commands don't appear in help or completion
	Hidden bool

	// Complete offers values for the first argument
	Complete func(partial string) []string

	// Handler is the function that executes the command
	Handler HandlerFunc
}

// Accepts reports whether n arguments are valid for the command.
func (c *Command) Accepts(n int) bool {
	return slices.Contains(c.Arities, n)
}

// usageError builds the standard arity error for the command.
func (c *Command) usageError() *UsageError {
	return &UsageError{Name: c.Name, Usage: c.Usage}
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands in declaration order.
type Registry struct {
	ordered []*Command
	byName  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Command)}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry. A later registration of the same
// name replaces the earlier one in place.
func (r *Registry) Register(cmd *Command) {
	if old, ok := r.byName[cmd.Name]; ok {
		for i, c := range r.ordered {
			if c == old {
				r.ordered[i] = cmd
			}
		}
	} else {
		r.ordered = append(r.ordered, cmd)
	}
	r.byName[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.byName[alias] = cmd
	}
}

// Get retrieves a command by name or alias. A leading slash is ignored.
func (r *Registry) Get(name string) *Command {
	return r.byName[strings.TrimPrefix(name, "/")]
}

// All returns all registered commands in declaration order.
func (r *Registry) All() []*Command {
	return slices.Clone(r.ordered)
}

// Visible returns the commands shown in help.
func (r *Registry) Visible() []*Command {
	var out []*Command
	for _, cmd := range r.ordered {
		if !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Session
	r.Register(&Command{
		Name:        "connect",
		Usage:       "server [[-p] port]",
		Description: "Connect to a server",
		Arities:     []int{1, 2, 3},
		Handler:     handleConnect,
	})
	r.Register(&Command{
		Name:        "disconnect",
		Aliases:     []string{"logout"},
		Description: "Close the connection to the server",
		Arities:     []int{0},
		Requires:    RequiresConnection,
		Handler:     handleDisconnect,
	})
	r.Register(&Command{
		Name:        "login",
		Usage:       "username",
		Description: "Log in, asking for the password",
		Arities:     []int{1, 2},
		Requires:    RequiresConnection,
		Handler:     handleLogin,
	})
	r.Register(&Command{
		Name:        "register",
		Description: "Create an account on the server",
		Arities:     []int{0},
		Requires:    RequiresConnection,
		Handler:     handleRegister,
	})

	// Activities
	r.Register(&Command{
		Name:        "inbox",
		Description: "Refresh and show your inbox",
		Arities:     []int{0},
		Requires:    RequiresAuth,
		Handler:     handleInbox,
	})
	r.Register(&Command{
		Name:        "activities",
		Usage:       "[jid]",
		Description: "Show the activities of a user",
		Arities:     []int{0, 1},
		Requires:    RequiresAuth,
		Handler:     handleActivities,
	})

	// Subscriptions
	r.Register(&Command{
		Name:        "subscribe",
		Usage:       "jid",
		Description: "Follow the activities of a user",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleSubscribe,
	})
	r.Register(&Command{
		Name:        "subscriptions",
		Usage:       "[jid]",
		Description: "List the users someone follows",
		Arities:     []int{0, 1},
		Requires:    RequiresAuth,
		Handler:     handleSubscriptions,
	})
	r.Register(&Command{
		Name:        "subscribers",
		Usage:       "[jid]",
		Description: "List the followers of someone",
		Arities:     []int{0, 1},
		Requires:    RequiresAuth,
		Handler:     handleSubscribers,
	})
	r.Register(&Command{
		Name:        "unsubscribe",
		Usage:       "jid",
		Description: "Stop following a user",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleUnsubscribe,
	})

	// Relations and profile
	r.Register(&Command{
		Name:        "relations",
		Usage:       "[jid]",
		Description: "Show the relations of a user",
		Arities:     []int{0, 1},
		Requires:    RequiresAuth,
		Handler:     handleRelations,
	})
	r.Register(&Command{
		Name:        "profile",
		Usage:       "[jid]",
		Description: "Show the profile of a user",
		Arities:     []int{0, 1},
		Requires:    RequiresAuth,
		Handler:     handleProfile,
	})
	r.Register(&Command{
		Name:        "privacy",
		Description: "Choose who sees what you publish next",
		Arities:     []int{0},
		Requires:    RequiresAuth,
		Handler:     handlePrivacy,
	})
	r.Register(&Command{
		Name:        "set",
		Usage:       "key",
		Description: "Set a profile field",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Complete:    completeFieldKeys,
		Handler:     handleSet,
	})
	r.Register(&Command{
		Name:        "clear",
		Usage:       "key",
		Description: "Remove a profile field",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Complete:    completeFieldKeys,
		Handler:     handleClear,
	})
	r.Register(&Command{
		Name:        "relation",
		Usage:       "[add|update] [id]",
		Description: "Request or answer a relation",
		Arities:     []int{1, 2, 3},
		Requires:    RequiresAuth,
		Complete:    completeFromList([]string{"add", "update"}),
		Handler:     handleRelation,
	})
	r.Register(&Command{
		Name:        "upload",
		Description: "Get an upload session id",
		Arities:     []int{0},
		Requires:    RequiresAuth,
		Handler:     handleUpload,
	})

	// Inbox positions
	r.Register(&Command{
		Name:        "delete",
		Usage:       "activityNr",
		Description: "Delete an activity from your inbox",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleDelete,
	})
	r.Register(&Command{
		Name:        "update",
		Usage:       "activityNr",
		Description: "Rewrite an activity from your inbox",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleUpdate,
	})
	r.Register(&Command{
		Name:        "comment",
		Usage:       "activityNr",
		Description: "Comment on an activity from your inbox",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleComment,
	})
	r.Register(&Command{
		Name:        "replies",
		Usage:       "activityNr",
		Description: "Show the replies to an activity",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleReplies,
	})
	r.Register(&Command{
		Name:        "shout",
		Aliases:     []string{"dm"},
		Usage:       "jid",
		Description: "Send a direct message",
		Arities:     []int{1},
		Requires:    RequiresAuth,
		Handler:     handleShout,
	})

	// Navigation
	r.Register(&Command{
		Name:        "help",
		Description: "Show this list",
		Arities:     []int{0},
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "quit",
		Aliases:     []string{"exit"},
		Description: "Leave the client",
		Arities:     []int{0},
		Handler:     handleQuit,
	})
}

// parsePosition converts an inbox position argument. Non-numeric input is a
// usage error.
func parsePosition(c *Command, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, c.usageError()
	}
	return n, nil
}

func completeFieldKeys(partial string) []string {
	return completeFromList(model.KnownFieldKeys())(partial)
}
