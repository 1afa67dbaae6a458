// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package service defines the facade the console talks to.
//
// The facade hides the federation protocol: connecting, authenticating and
// exchanging activities, relations and profiles. Two drivers implement it:
//
//   - local: a loopback service backed by SQLite, for offline use and tests
//   - gateway: a JSON-over-WebSocket client for a protocol gateway
//
// # Errors
//
// Every call fails with one of three distinguishable conditions:
//
//   - ErrNotConnected: no transport session
//   - ErrNotAuthenticated: connected but not logged in
//   - *RequestError: the remote side rejected the call
//
// # Inbox
//
// Inbox exposes an ordered snapshot of entries plus a channel of change
// events. Feed is a ready-made Inbox implementation drivers embed:
//
//	feed := service.NewFeed(fetch)
//	events, cancel := feed.Subscribe()
//	defer cancel()
//	for ev := range events {
//	    render(feed.Entries())
//	}
package service
