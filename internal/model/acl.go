// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// =============================================================================
// ACCESS CONTROL
// =============================================================================

// SubjectType identifies who a visibility rule applies to.
type SubjectType string

const (
	SubjectEveryone SubjectType = "everyone"
	SubjectGroup    SubjectType = "group"
	SubjectPerson   SubjectType = "person"
)

// Permission is the outcome of a rule for its action.
type Permission string

const (
	PermissionGrant Permission = "grant"
	PermissionDeny  Permission = "deny"
)

// ActionView is the only action the client manipulates.
const ActionView = "view"

// AclSubject is the target of a rule. Name is empty for SubjectEveryone.
type AclSubject struct {
	Type SubjectType `json:"type"`
	Name string      `json:"name,omitempty"`
}

// AclAction pairs an action with a permission.
type AclAction struct {
	Name       string     `json:"name"`
	Permission Permission `json:"permission"`
}

// AclRule is a single visibility rule.
type AclRule struct {
	Subject AclSubject `json:"subject"`
	Action  AclAction  `json:"action"`
}

// NewViewRule creates a rule on the view action.
func NewViewRule(subject SubjectType, name string, perm Permission) AclRule {
	return AclRule{
		Subject: AclSubject{Type: subject, Name: name},
		Action:  AclAction{Name: ActionView, Permission: perm},
	}
}

// DefaultRules returns the rule set a fresh session starts with: everyone may view.
func DefaultRules() []AclRule {
	return []AclRule{NewViewRule(SubjectEveryone, "", PermissionGrant)}
}

// CloneRules returns a copy of rules so callers can hand out a rule set
// without sharing the backing array.
func CloneRules(rules []AclRule) []AclRule {
	if rules == nil {
		return nil
	}
	out := make([]AclRule, len(rules))
	copy(out, rules)
	return out
}

// String renders the rule as "grant view to group:friends".
func (r AclRule) String() string {
	target := string(r.Subject.Type)
	if r.Subject.Name != "" {
		target += ":" + r.Subject.Name
	}
	return fmt.Sprintf("%s %s to %s", r.Action.Permission, r.Action.Name, target)
}

// Allows reports whether the rule set lets viewer see content owned by owner.
// Groups are resolved by the caller through inGroup; a nil inGroup never matches.
// The first matching rule wins; with no match, only the owner may view.
func Allows(rules []AclRule, owner, viewer string, inGroup func(group string) bool) bool {
	if owner == viewer {
		return true
	}
	for _, r := range rules {
		if r.Action.Name != ActionView {
			continue
		}
		matched := false
		switch r.Subject.Type {
		case SubjectEveryone:
			matched = true
		case SubjectPerson:
			matched = r.Subject.Name == viewer
		case SubjectGroup:
			matched = inGroup != nil && inGroup(r.Subject.Name)
		}
		if matched {
			return r.Action.Permission == PermissionGrant
		}
	}
	return false
}
