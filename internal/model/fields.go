// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// BirthdayLayout is the input format accepted for the bday field.
const BirthdayLayout = "02/01/2006"

// Gender values accepted by the gender field, in input order.
type Gender int

const (
	GenderNotKnown Gender = iota
	GenderMale
	GenderFemale
	GenderNotApplicable
)

// String returns the stored representation of the gender.
func (g Gender) String() string {
	switch g {
	case GenderNotKnown:
		return "notknown"
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderNotApplicable:
		return "notapplicable"
	default:
		return "gender(" + strconv.Itoa(int(g)) + ")"
	}
}

// ErrUnknownField is returned for keys outside KnownFields.
var ErrUnknownField = errors.New("unknown profile field")

// FieldError describes a value that could not be parsed for a key.
type FieldError struct {
	Key    FieldKey
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Key, e.Value, e.Reason)
}

// ParseField converts raw user input into a field for key.
// Birthdays are read as dd/mm/yyyy and stored as yyyy-mm-dd, gender as 0..3,
// telephone numbers are normalized to E.164 when they carry a country code.
// Every other key is stored verbatim.
func ParseField(key FieldKey, raw string) (Field, error) {
	if _, ok := LookupField(string(key)); !ok {
		return Field{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	value := strings.TrimSpace(raw)

	switch key {
	case FieldBirthday:
		t, err := time.Parse(BirthdayLayout, value)
		if err != nil {
			return Field{}, &FieldError{Key: key, Value: value, Reason: "expected dd/mm/yyyy"}
		}
		value = t.Format("2006-01-02")
	case FieldGender:
		n, err := strconv.Atoi(value)
		if err != nil || n < int(GenderNotKnown) || n > int(GenderNotApplicable) {
			return Field{}, &FieldError{Key: key, Value: value, Reason: "expected 0, 1, 2 or 3"}
		}
		value = Gender(n).String()
	case FieldTel:
		value = normalizeTel(value)
	}

	return Field{Key: key, Value: value}, nil
}

// normalizeTel formats numbers with an explicit country code as E.164 and
// leaves anything else untouched.
func normalizeTel(value string) string {
	num, err := phonenumbers.Parse(value, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return value
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
