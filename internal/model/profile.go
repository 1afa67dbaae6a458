// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// =============================================================================
// PROFILE FIELD KEYS
// =============================================================================

// FieldKey is the vCard name of a profile field.
type FieldKey string

const (
	FieldPhoto    FieldKey = "photo"
	FieldBirthday FieldKey = "bday"
	FieldGender   FieldKey = "gender"
	FieldFullName FieldKey = "fn"
	FieldNote     FieldKey = "note"
	FieldURL      FieldKey = "url"
	FieldTimeZone FieldKey = "tz"
	FieldEmail    FieldKey = "email"
	FieldTel      FieldKey = "tel"
)

// FieldSpec describes how a recognized key is edited.
type FieldSpec struct {
	Key    FieldKey
	Prompt string
	// Multi fields may appear several times in a profile.
	Multi bool
}

// knownFields preserves display order for help and completion.
var knownFields = []FieldSpec{
	{Key: FieldPhoto, Prompt: "Photo uri: ", Multi: true},
	{Key: FieldBirthday, Prompt: "Birthday (dd/mm/yyyy): "},
	{Key: FieldGender, Prompt: "Gender [0=not known, 1=male, 2=female, 3=not applicable]: "},
	{Key: FieldFullName, Prompt: "Display name: "},
	{Key: FieldNote, Prompt: "Bio: "},
	{Key: FieldURL, Prompt: "Url: "},
	{Key: FieldTimeZone, Prompt: "TimeZone: "},
	{Key: FieldEmail, Prompt: "Email: ", Multi: true},
	{Key: FieldTel, Prompt: "Tel: ", Multi: true},
}

// KnownFieldKeys returns the recognized keys as strings.
func KnownFieldKeys() []string {
	keys := make([]string, len(knownFields))
	for i, f := range knownFields {
		keys[i] = string(f.Key)
	}
	return keys
}

// LookupField returns the FieldSpec for key.
func LookupField(key string) (FieldSpec, bool) {
	for _, f := range knownFields {
		if string(f.Key) == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// =============================================================================
// PROFILE
// =============================================================================

// ErrCardinality is returned when a single-valued field appears twice.
var ErrCardinality = errors.New("field may only appear once")

// Field is a single named profile attribute, independently access-controlled.
type Field struct {
	Key   FieldKey  `json:"key"`
	Value string    `json:"value"`
	Rules []AclRule `json:"rules,omitempty"`
}

// Profile is the public profile of a user.
type Profile struct {
	UserID string  `json:"user_id"`
	Fields []Field `json:"fields"`
}

// NewProfile creates an empty profile for userID.
func NewProfile(userID string) *Profile {
	return &Profile{UserID: userID}
}

// HasField reports whether any field with key is present.
func (p *Profile) HasField(key FieldKey) bool {
	for _, f := range p.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// RemoveAll deletes every field with key and returns how many were removed.
func (p *Profile) RemoveAll(key FieldKey) int {
	kept := p.Fields[:0]
	removed := 0
	for _, f := range p.Fields {
		if f.Key == key {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	p.Fields = kept
	return removed
}

// Validate reports the first single-valued key that appears more than once.
// Unrecognized keys are not checked.
func (p *Profile) Validate() error {
	seen := make(map[FieldKey]bool, len(p.Fields))
	for _, f := range p.Fields {
		def, ok := LookupField(string(f.Key))
		if !ok || def.Multi {
			continue
		}
		if seen[f.Key] {
			return fmt.Errorf("%s: %w", f.Key, ErrCardinality)
		}
		seen[f.Key] = true
	}
	return nil
}

// Put replaces any existing value(s) of the field's key with f.
func (p *Profile) Put(f Field) {
	p.RemoveAll(f.Key)
	p.Fields = append(p.Fields, f)
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := &Profile{UserID: p.UserID, Fields: make([]Field, len(p.Fields))}
	for i, f := range p.Fields {
		f.Rules = CloneRules(f.Rules)
		c.Fields[i] = f
	}
	return c
}
