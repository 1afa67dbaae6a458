// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-process state of the interactive client.
//
// # Key Types
//
//   - State: connection, identity, profile, inbox and default visibility
//
// # Usage
//
//	st := session.New()
//	st.SetConnected("example.org")
//	st.SetLoggedIn("alice")
//	st.Identity() // "alice@example.org"
//	st.Prompt()   // "(alice) "
//
// Inbox positions are 1-based and resolved against the current snapshot:
//
//	entry, ok := st.EntryAt(3)
package session
