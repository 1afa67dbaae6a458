// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ACTIVITY TESTS
// =============================================================================

func TestNewStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rules := DefaultRules()

	e := NewStatus("  hello world ", rules, now)

	assert.Equal(t, ObjectStatus, e.ObjectType)
	assert.Equal(t, VerbPost, e.Verb)
	assert.Equal(t, "hello world", e.Title)
	assert.Equal(t, "hello world", e.Content)
	assert.Equal(t, ContentTypePlain, e.ContentType)
	assert.Equal(t, now, e.Published)
	require.Len(t, e.Rules, 1)

	// The entry must not share the caller's rule slice.
	rules[0].Action.Permission = PermissionDeny
	assert.Equal(t, PermissionGrant, e.Rules[0].Action.Permission)
}

func TestNewComment(t *testing.T) {
	parent := &ActivityEntry{ID: "a1", Actor: "bob@example.org"}
	c := NewComment("nice", parent, DefaultRules(), time.Now())

	assert.Equal(t, ObjectComment, c.ObjectType)
	assert.Equal(t, "a1", c.ParentID)
	assert.Equal(t, "bob@example.org", c.ParentActor)
}

func TestNewDirectMessage(t *testing.T) {
	dm := NewDirectMessage("psst", "carol@example.org", DefaultRules(), time.Now())
	assert.Equal(t, []string{"carol@example.org"}, dm.Recipients)
	assert.Equal(t, ObjectStatus, dm.ObjectType)
}

func TestText_KeptAsTyped(t *testing.T) {
	for _, text := range []string{"cafe\u0301 ok", "caf\u00e9 ok", "  spaced  ", "tab\there"} {
		e := NewStatus(text, nil, time.Now())
		assert.Equal(t, text, e.Text())
		assert.Equal(t, text, e.Content)

		e.SetText(text + "!")
		assert.Equal(t, text+"!", e.Text())
	}
}

// =============================================================================
// ACL TESTS
// =============================================================================

func TestAllows(t *testing.T) {
	friends := func(g string) bool { return g == "friends" }

	tests := []struct {
		name   string
		rules  []AclRule
		viewer string
		want   bool
	}{
		{"everyone grant", DefaultRules(), "x@h", true},
		{"nobody", []AclRule{NewViewRule(SubjectEveryone, "", PermissionDeny)}, "x@h", false},
		{"owner always", []AclRule{NewViewRule(SubjectEveryone, "", PermissionDeny)}, "me@h", true},
		{"person match", []AclRule{NewViewRule(SubjectPerson, "x@h", PermissionGrant)}, "x@h", true},
		{"person miss", []AclRule{NewViewRule(SubjectPerson, "y@h", PermissionGrant)}, "x@h", false},
		{"group match", []AclRule{NewViewRule(SubjectGroup, "friends", PermissionGrant)}, "x@h", true},
		{"no rules", nil, "x@h", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Allows(tc.rules, "me@h", tc.viewer, friends)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAclRuleString(t *testing.T) {
	r := NewViewRule(SubjectGroup, "friends", PermissionGrant)
	assert.Equal(t, "grant view to group:friends", r.String())
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

// values lists the values stored under key, in order.
func values(p *Profile, key FieldKey) []string {
	var out []string
	for _, f := range p.Fields {
		if f.Key == key {
			out = append(out, f.Value)
		}
	}
	return out
}

func TestProfilePut_SingleValuedKeepsOne(t *testing.T) {
	p := NewProfile("alice@example.org")
	p.Put(Field{Key: FieldFullName, Value: "Alice"})
	p.Put(Field{Key: FieldFullName, Value: "Alice A."})
	p.Put(Field{Key: FieldFullName, Value: "Alice B."})

	assert.Equal(t, []string{"Alice B."}, values(p, FieldFullName))
	assert.NoError(t, p.Validate())
}

func TestProfilePut_MultiValuedReplacesAll(t *testing.T) {
	p := NewProfile("alice@example.org")
	p.Fields = []Field{
		{Key: FieldEmail, Value: "a@one"},
		{Key: FieldEmail, Value: "a@two"},
	}

	p.Put(Field{Key: FieldEmail, Value: "a@three"})

	assert.Equal(t, []string{"a@three"}, values(p, FieldEmail))
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr bool
	}{
		{"empty", nil, false},
		{"multi-valued repeated", []Field{{Key: FieldTel, Value: "1"}, {Key: FieldTel, Value: "2"}}, false},
		{"unknown key repeated", []Field{{Key: "x-extra", Value: "1"}, {Key: "x-extra", Value: "2"}}, false},
		{"single-valued repeated", []Field{{Key: FieldNote, Value: "one"}, {Key: FieldURL, Value: "u"}, {Key: FieldNote, Value: "two"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{UserID: "alice@example.org", Fields: tt.fields}
			err := p.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrCardinality))
				assert.Contains(t, err.Error(), "note")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProfileRemoveAll(t *testing.T) {
	p := NewProfile("alice@example.org")
	p.Fields = []Field{
		{Key: FieldTel, Value: "1"},
		{Key: FieldNote, Value: "n"},
		{Key: FieldTel, Value: "2"},
	}

	assert.Equal(t, 2, p.RemoveAll(FieldTel))
	assert.False(t, p.HasField(FieldTel))
	assert.True(t, p.HasField(FieldNote))
	assert.Equal(t, 0, p.RemoveAll(FieldTel))
}

func TestProfileClone_Independent(t *testing.T) {
	p := NewProfile("alice@example.org")
	p.Put(Field{Key: FieldNote, Value: "bio", Rules: DefaultRules()})

	c := p.Clone()
	c.Put(Field{Key: FieldNote, Value: "changed"})

	assert.Equal(t, []string{"bio"}, values(p, FieldNote))
}

// =============================================================================
// FIELD PARSING TESTS
// =============================================================================

func TestParseField(t *testing.T) {
	tests := []struct {
		key     FieldKey
		raw     string
		want    string
		wantErr bool
	}{
		{FieldBirthday, "24/12/1990", "1990-12-24", false},
		{FieldBirthday, "1990-12-24", "", true},
		{FieldGender, "0", "notknown", false},
		{FieldGender, "1", "male", false},
		{FieldGender, "2", "female", false},
		{FieldGender, "3", "notapplicable", false},
		{FieldGender, "4", "", true},
		{FieldGender, "x", "", true},
		{FieldFullName, " Alice ", "Alice", false},
		{FieldURL, "https://example.org", "https://example.org", false},
		{FieldTel, "+1 650-253-0000", "+16502530000", false},
		{FieldTel, "ext 42", "ext 42", false},
	}

	for _, tc := range tests {
		t.Run(string(tc.key)+"/"+tc.raw, func(t *testing.T) {
			f, err := ParseField(tc.key, tc.raw)
			if tc.wantErr {
				var fe *FieldError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tc.key, fe.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.key, f.Key)
			assert.Equal(t, tc.want, f.Value)
		})
	}
}

func TestParseField_Unknown(t *testing.T) {
	_, err := ParseField("nickname", "al")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestKnownFieldKeys(t *testing.T) {
	assert.Equal(t,
		[]string{"photo", "bday", "gender", "fn", "note", "url", "tz", "email", "tel"},
		KnownFieldKeys())
}
