// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local implements the service facade as a loopback server backed by
// SQLite.
//
// Each server name maps to one database file under the data directory, so
// "connect example.org" opens <data_dir>/example.org.db. Several Service values
// opened on the same file within one process see each other's activities live:
// a process-wide hub fans post, update and delete events out to every open inbox
// the change is visible to.
//
// # Schema
//
//   - users: accounts with bcrypt password hashes
//   - activities: status updates, comments and direct messages
//   - subscriptions: who follows whom
//   - relations: relation requests and their status
//   - profiles: one JSON field list per user
//   - upload_tokens: issued upload session identifiers
package local
