// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

const activityColumns = `a.id, a.actor, a.verb, a.object_type, a.title, a.content, a.content_type,
	a.published, a.rules, a.recipients, a.parent_id, a.parent_actor,
	(SELECT COUNT(*) FROM activities r WHERE r.parent_id = a.id)`

func scanActivity(sc interface{ Scan(...any) error }) (*model.ActivityEntry, error) {
	var (
		e                 model.ActivityEntry
		objectType        string
		published         int64
		rules, recipients string
	)
	err := sc.Scan(&e.ID, &e.Actor, &e.Verb, &objectType, &e.Title, &e.Content, &e.ContentType,
		&published, &rules, &recipients, &e.ParentID, &e.ParentActor, &e.ReplyCount)
	if err != nil {
		return nil, err
	}
	e.ObjectType = model.ObjectType(objectType)
	e.Published = time.Unix(0, published).UTC()
	if err := json.Unmarshal([]byte(rules), &e.Rules); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recipients), &e.Recipients); err != nil {
		return nil, err
	}
	if len(e.Recipients) == 0 {
		e.Recipients = nil
	}
	return &e, nil
}

func scanActivities(rows *sql.Rows) ([]*model.ActivityEntry, error) {
	defer rows.Close()
	var out []*model.ActivityEntry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// loadActivity reads one entry by ID.
func loadActivity(ctx context.Context, db *sql.DB, op, id string) (*model.ActivityEntry, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id = ?`, id)
	e, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.NewRequestError(op, codeNotFound, "item-not-found", nil)
	}
	if err != nil {
		return nil, storageError(op, err)
	}
	return e, nil
}

// =============================================================================
// VISIBILITY
// =============================================================================

// visible applies the entry's ACL for viewer. Direct messages are visible only
// to their actor and recipients.
func (s *Service) visible(ctx context.Context, db *sql.DB, viewer string, e *model.ActivityEntry) bool {
	if e.Actor == viewer {
		return true
	}
	if len(e.Recipients) > 0 {
		return containsString(e.Recipients, viewer)
	}
	return model.Allows(effectiveRules(e.Rules), e.Actor, viewer, s.groupResolver(ctx, db, e.Actor, viewer))
}

func (s *Service) filterVisible(ctx context.Context, db *sql.DB, viewer string, entries []*model.ActivityEntry) []*model.ActivityEntry {
	out := entries[:0]
	for _, e := range entries {
		if s.visible(ctx, db, viewer, e) {
			out = append(out, e)
		}
	}
	return out
}

// groupResolver treats a group as the set of identities the owner holds a
// relation of that nature with.
func (s *Service) groupResolver(ctx context.Context, db *sql.DB, owner, viewer string) func(string) bool {
	return func(group string) bool {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM relations WHERE from_jid = ? AND to_jid = ? AND nature = ?`,
			owner, viewer, group).Scan(&n)
		if err != nil {
			s.logger.Warn("group lookup failed", zap.String("group", group), zap.Error(err))
			return false
		}
		return n > 0
	}
}

// effectiveRules treats an empty rule set as public.
func effectiveRules(rules []model.AclRule) []model.AclRule {
	if len(rules) == 0 {
		return model.DefaultRules()
	}
	return rules
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ACTIVITIES
// =============================================================================

// Activities lists the top-level entries published by identity that the
// caller may see.
func (s *Service) Activities(ctx context.Context, identity string) ([]*model.ActivityEntry, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	if identity == "" {
		identity = me
	}
	rows, err := db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities a
		WHERE a.actor = ? AND a.parent_id = '' ORDER BY a.published DESC`, identity)
	if err != nil {
		return nil, storageError("activities", err)
	}
	entries, err := scanActivities(rows)
	if err != nil {
		return nil, storageError("activities", err)
	}
	return s.filterVisible(ctx, db, me, entries), nil
}

// PostActivity stores a new entry and assigns its ID and actor.
func (s *Service) PostActivity(ctx context.Context, entry *model.ActivityEntry) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}

	var parent *model.ActivityEntry
	if entry.ParentID != "" {
		if parent, err = loadActivity(ctx, db, "post", entry.ParentID); err != nil {
			return err
		}
		if !s.visible(ctx, db, me, parent) {
			return service.NewRequestError("post", codeNotFound, "item-not-found", nil)
		}
		entry.ParentActor = parent.Actor
	}

	entry.ID = uuid.NewString()
	entry.Actor = me
	if entry.Verb == "" {
		entry.Verb = model.VerbPost
	}
	if entry.Published.IsZero() {
		entry.Published = s.now()
	}
	rules, _ := json.Marshal(entry.Rules)
	recipients, _ := json.Marshal(entry.Recipients)

	_, err = db.ExecContext(ctx, `INSERT INTO activities
		(id, actor, verb, object_type, title, content, content_type, published, rules, recipients, parent_id, parent_actor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Actor, entry.Verb, string(entry.ObjectType), entry.Title, entry.Content, entry.ContentType,
		entry.Published.UnixNano(), string(rules), string(recipients), entry.ParentID, entry.ParentActor)
	if err != nil {
		return storageError("post", err)
	}
	s.logger.Debug("activity posted", zap.String("id", entry.ID), zap.String("actor", me))

	h := s.currentHub()
	h.publish(service.EventReceived, entry)
	if parent != nil {
		parent.ReplyCount++
		h.publish(service.EventUpdated, parent)
	}
	return nil
}

// UpdateActivity rewrites the text of one of the caller's entries.
func (s *Service) UpdateActivity(ctx context.Context, entry *model.ActivityEntry) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	current, err := loadActivity(ctx, db, "update", entry.ID)
	if err != nil {
		return err
	}
	if current.Actor != me {
		return service.NewRequestError("update", codeForbidden, "forbidden", nil)
	}

	if _, err := db.ExecContext(ctx, `UPDATE activities SET title = ?, content = ? WHERE id = ?`,
		entry.Title, entry.Content, entry.ID); err != nil {
		return storageError("update", err)
	}
	current.Title = entry.Title
	current.Content = entry.Content
	s.currentHub().publish(service.EventUpdated, current)
	return nil
}

// DeleteActivity removes one of the caller's entries and its replies.
func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	current, err := loadActivity(ctx, db, "delete", id)
	if err != nil {
		return err
	}
	if current.Actor != me {
		return service.NewRequestError("delete", codeForbidden, "forbidden", nil)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM activities WHERE id = ? OR parent_id = ?`, id, id); err != nil {
		return storageError("delete", err)
	}
	h := s.currentHub()
	h.publish(service.EventDeleted, current)
	if current.ParentID != "" {
		if parent, err := loadActivity(ctx, db, "delete", current.ParentID); err == nil {
			h.publish(service.EventUpdated, parent)
		}
	}
	return nil
}

// Replies lists the comments on entry, oldest first.
func (s *Service) Replies(ctx context.Context, entry *model.ActivityEntry) ([]*model.ActivityEntry, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities a
		WHERE a.parent_id = ? ORDER BY a.published ASC`, entry.ID)
	if err != nil {
		return nil, storageError("replies", err)
	}
	entries, err := scanActivities(rows)
	if err != nil {
		return nil, storageError("replies", err)
	}
	return s.filterVisible(ctx, db, me, entries), nil
}

func (s *Service) currentHub() *hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hub == nil {
		return &hub{listeners: map[listener]struct{}{}}
	}
	return s.hub
}
