// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username      TEXT PRIMARY KEY,
		password_hash BLOB NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		created_at    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id           TEXT PRIMARY KEY,
		actor        TEXT NOT NULL,
		verb         TEXT NOT NULL,
		object_type  TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		content      TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		published    INTEGER NOT NULL,
		rules        TEXT NOT NULL DEFAULT '[]',
		recipients   TEXT NOT NULL DEFAULT '[]',
		parent_id    TEXT NOT NULL DEFAULT '',
		parent_actor TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS activities_actor ON activities(actor, published)`,
	`CREATE INDEX IF NOT EXISTS activities_parent ON activities(parent_id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		subscriber TEXT NOT NULL,
		target     TEXT NOT NULL,
		PRIMARY KEY (subscriber, target)
	)`,
	`CREATE TABLE IF NOT EXISTS relations (
		id        TEXT PRIMARY KEY,
		from_jid  TEXT NOT NULL,
		to_jid    TEXT NOT NULL,
		nature    TEXT NOT NULL DEFAULT '',
		status    TEXT NOT NULL DEFAULT '',
		message   TEXT NOT NULL DEFAULT '',
		published INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		fields  TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS upload_tokens (
		token      TEXT PRIMARY KEY,
		owner      TEXT NOT NULL,
		ref        TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
}

// migrate creates the tables if needed and stamps the schema version.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}
