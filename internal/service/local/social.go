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

// =============================================================================
// PROFILES
// =============================================================================

// Profile returns the fields of identity's profile the caller may see. A user
// who never set a field has an empty profile.
func (s *Service) Profile(ctx context.Context, identity string) (*model.Profile, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	if identity == "" {
		identity = me
	}

	var raw string
	err = db.QueryRowContext(ctx, `SELECT fields FROM profiles WHERE user_id = ?`, identity).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewProfile(identity), nil
	}
	if err != nil {
		return nil, storageError("profile", err)
	}

	var fields []model.Field
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, storageError("profile", err)
	}
	profile := model.NewProfile(identity)
	inGroup := s.groupResolver(ctx, db, identity, me)
	for _, f := range fields {
		if model.Allows(effectiveRules(f.Rules), identity, me, inGroup) {
			profile.Fields = append(profile.Fields, f)
		}
	}
	return profile, nil
}

// SetProfile replaces the caller's stored profile.
func (s *Service) SetProfile(ctx context.Context, profile *model.Profile) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	if profile.UserID != "" && profile.UserID != me {
		return service.NewRequestError("set profile", codeForbidden, "forbidden", nil)
	}
	if err := profile.Validate(); err != nil {
		return service.NewRequestError("set profile", codeBadRequest, err.Error(), err)
	}
	fields := profile.Fields
	if fields == nil {
		fields = []model.Field{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return service.NewRequestError("set profile", codeBadRequest, "unencodable profile", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO profiles (user_id, fields) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET fields = excluded.fields`, me, string(raw))
	if err != nil {
		return storageError("set profile", err)
	}
	return nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe follows identity and refreshes the inbox.
func (s *Service) Subscribe(ctx context.Context, identity string) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	if identity == "" || identity == me {
		return service.NewRequestError("subscribe", codeBadRequest, "cannot subscribe to "+quoteIdentity(identity), nil)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (subscriber, target) VALUES (?, ?)`, me, identity); err != nil {
		return storageError("subscribe", err)
	}
	s.refreshFeed(ctx)
	return nil
}

// Unsubscribe stops following identity and refreshes the inbox.
func (s *Service) Unsubscribe(ctx context.Context, identity string) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber = ? AND target = ?`, me, identity)
	if err != nil {
		return storageError("unsubscribe", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return service.NewRequestError("unsubscribe", codeNotFound, "not subscribed to "+quoteIdentity(identity), nil)
	}
	s.refreshFeed(ctx)
	return nil
}

// Subscriptions lists whom identity follows.
func (s *Service) Subscriptions(ctx context.Context, identity string) ([]string, error) {
	return s.listIdentities(ctx, "subscriptions",
		`SELECT target FROM subscriptions WHERE subscriber = ? ORDER BY target`, identity)
}

// Subscribers lists who follows identity.
func (s *Service) Subscribers(ctx context.Context, identity string) ([]string, error) {
	return s.listIdentities(ctx, "subscribers",
		`SELECT subscriber FROM subscriptions WHERE target = ? ORDER BY subscriber`, identity)
}

func (s *Service) listIdentities(ctx context.Context, op, query, identity string) ([]string, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	if identity == "" {
		identity = me
	}
	rows, err := db.QueryContext(ctx, query, identity)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageError(op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return out, nil
}

func (s *Service) refreshFeed(ctx context.Context) {
	s.mu.RLock()
	feed := s.feed
	s.mu.RUnlock()
	if feed == nil {
		return
	}
	if err := feed.Refresh(ctx); err != nil {
		s.logger.Warn("inbox refresh failed", zap.Error(err))
	}
}

func quoteIdentity(id string) string {
	if id == "" {
		return "an empty identity"
	}
	return id
}

// =============================================================================
// RELATIONS
// =============================================================================

const relationColumns = `id, from_jid, to_jid, nature, status, message, published`

func scanRelation(sc interface{ Scan(...any) error }) (*model.Relation, error) {
	var (
		r         model.Relation
		published int64
	)
	if err := sc.Scan(&r.ID, &r.From, &r.To, &r.Nature, &r.Status, &r.Message, &published); err != nil {
		return nil, err
	}
	r.Published = time.Unix(0, published).UTC()
	return &r, nil
}

// Relations lists the relations identity takes part in, newest first.
func (s *Service) Relations(ctx context.Context, identity string) ([]*model.Relation, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	if identity == "" {
		identity = me
	}
	rows, err := db.QueryContext(ctx, `SELECT `+relationColumns+` FROM relations
		WHERE from_jid = ? OR to_jid = ? ORDER BY published DESC`, identity, identity)
	if err != nil {
		return nil, storageError("relations", err)
	}
	defer rows.Close()

	var out []*model.Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, storageError("relations", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("relations", err)
	}
	return out, nil
}

// AddRelation stores a relation request from the caller.
func (s *Service) AddRelation(ctx context.Context, relation *model.Relation) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	if relation.To == "" {
		return service.NewRequestError("add relation", codeBadRequest, "missing target user", nil)
	}
	if relation.From == "" {
		relation.From = me
	}
	if relation.From != me {
		return service.NewRequestError("add relation", codeForbidden, "forbidden", nil)
	}
	if relation.Status == "" {
		relation.Status = model.StatusRequested
	}
	relation.ID = uuid.NewString()
	relation.Published = s.now()

	_, err = db.ExecContext(ctx, `INSERT INTO relations (`+relationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		relation.ID, relation.From, relation.To, relation.Nature, relation.Status, relation.Message,
		relation.Published.UnixNano())
	if err != nil {
		return storageError("add relation", err)
	}
	return nil
}

// UpdateRelation changes the status of a relation the caller takes part in.
// Empty nature and message keep their stored values.
func (s *Service) UpdateRelation(ctx context.Context, relation *model.Relation) error {
	db, me, err := s.auth()
	if err != nil {
		return err
	}
	row := db.QueryRowContext(ctx, `SELECT `+relationColumns+` FROM relations WHERE id = ?`, relation.ID)
	current, err := scanRelation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.NewRequestError("update relation", codeNotFound, "item-not-found", nil)
	}
	if err != nil {
		return storageError("update relation", err)
	}
	if current.From != me && current.To != me {
		return service.NewRequestError("update relation", codeForbidden, "forbidden", nil)
	}

	if relation.Status != "" {
		current.Status = relation.Status
	}
	if relation.Nature != "" {
		current.Nature = relation.Nature
	}
	if relation.Message != "" {
		current.Message = relation.Message
	}
	_, err = db.ExecContext(ctx, `UPDATE relations SET status = ?, nature = ?, message = ? WHERE id = ?`,
		current.Status, current.Nature, current.Message, current.ID)
	if err != nil {
		return storageError("update relation", err)
	}
	*relation = *current
	return nil
}

// =============================================================================
// MEDIA
// =============================================================================

// UploadToken issues an upload session identifier bound to ref.
func (s *Service) UploadToken(ctx context.Context, ref string) (string, error) {
	db, me, err := s.auth()
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO upload_tokens (token, owner, ref, created_at) VALUES (?, ?, ?, ?)`,
		token, me, ref, s.now().UnixNano())
	if err != nil {
		return "", storageError("upload", err)
	}
	return token, nil
}
