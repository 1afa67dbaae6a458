// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render draws client views on the terminal without disturbing the
// line being typed.
//
// # Key Types
//
//   - Renderer: mutex-guarded terminal writer, also the inbox watcher
//   - Page: a title and plain body lines, built by the *Page functions
//   - Styles: lipgloss styles bound to the output's color profile
//
// # Usage
//
//	r := render.New(os.Stdout, render.WithColors(cfg.UI.Colors))
//	r.Inbox(inbox.Entries())
//	go r.Watch(ctx, inbox, events)
package render
