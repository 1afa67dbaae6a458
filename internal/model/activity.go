// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ACTIVITY ENTRY
// =============================================================================

// ObjectType is the kind of object an activity carries.
type ObjectType string

const (
	ObjectStatus  ObjectType = "status"
	ObjectComment ObjectType = "comment"
)

// VerbPost is the verb of every entry the client creates.
const VerbPost = "post"

// ContentTypePlain is the MIME type of text content.
const ContentTypePlain = "text/plain"

// ActivityEntry is a timestamped piece of user-generated content.
type ActivityEntry struct {
	// Identity, assigned by the service
	ID    string `json:"id,omitempty"`
	Actor string `json:"actor,omitempty"`

	Verb        string     `json:"verb"`
	ObjectType  ObjectType `json:"object_type"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentType string     `json:"content_type"`
	Published   time.Time  `json:"published"`

	Rules      []AclRule `json:"rules,omitempty"`
	Recipients []string  `json:"recipients,omitempty"`

	// Threading
	ParentID    string `json:"parent_id,omitempty"`
	ParentActor string `json:"parent_actor,omitempty"`
	ReplyCount  int    `json:"reply_count,omitempty"`
}

// NewStatus builds a status update broadcast under rules.
func NewStatus(text string, rules []AclRule, now time.Time) *ActivityEntry {
	return &ActivityEntry{
		Verb:        VerbPost,
		ObjectType:  ObjectStatus,
		Title:       text,
		Content:     text,
		ContentType: ContentTypePlain,
		Published:   now,
		Rules:       CloneRules(rules),
	}
}

// NewDirectMessage builds a status update addressed to a single recipient.
func NewDirectMessage(text, recipient string, rules []AclRule, now time.Time) *ActivityEntry {
	e := NewStatus(text, rules, now)
	e.Recipients = []string{recipient}
	return e
}

// NewComment builds a comment on parent.
func NewComment(text string, parent *ActivityEntry, rules []AclRule, now time.Time) *ActivityEntry {
	e := NewStatus(text, rules, now)
	e.ObjectType = ObjectComment
	e.ParentID = parent.ID
	e.ParentActor = parent.Actor
	return e
}

// SetText rewrites the display text of the entry.
func (e *ActivityEntry) SetText(text string) {
	e.Title = text
	e.Content = text
}

// Text returns the display text, falling back to the content body.
func (e *ActivityEntry) Text() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Content
}

// HasReplies reports whether the service counted any replies.
func (e *ActivityEntry) HasReplies() bool {
	return e.ReplyCount > 0
}

// Clone returns a deep copy of the entry.
func (e *ActivityEntry) Clone() *ActivityEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Rules = CloneRules(e.Rules)
	if e.Recipients != nil {
		c.Recipients = append([]string(nil), e.Recipients...)
	}
	return &c
}
