// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system of the console client.
//
// Lines starting with a slash are commands; any other non-empty line is
// posted as a status update. Each command declares the argument counts it
// accepts and the session state it needs, and the dispatcher checks them in
// the order lookup, arity, precondition before the handler runs.
//
// # Key Types
//
//   - Registry: ordered command table with name and alias lookup
//   - Result: parsed input line
//   - Dispatcher: runs lines and renders every failure
//   - Completer: tab completion for command names and profile keys
//   - Context: service, session state, prompter and output for handlers
//
// # Built-in Commands
//
//   - /connect, /disconnect, /login, /register: session
//   - /inbox, /activities, /delete, /update, /comment, /replies, /shout: content
//   - /subscribe, /unsubscribe, /subscriptions, /subscribers: following
//   - /relations, /relation: relations
//   - /profile, /set, /clear, /privacy: profile and visibility
//   - /upload, /help, /quit
//
// # Usage
//
//	d := commands.NewDispatcher(&commands.Context{
//	    Service:  svc,
//	    State:    session.New(),
//	    Prompter: console,
//	    Out:      renderer,
//	})
//	if err := d.Execute(ctx, "/connect example.org"); errors.Is(err, commands.ErrQuit) {
//	    return
//	}
//
// Get completions:
//
//	completions := commands.NewCompleter(registry).Complete("/sub")
//	// Returns ["/subscribe ", "/subscriptions ", "/subscribers "]
package commands
