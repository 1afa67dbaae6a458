// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete(t *testing.T) {
	c := NewCompleter(NewRegistry())

	tests := []struct {
		input string
		want  []string
	}{
		{"/sub", []string{"/subscribe ", "/subscriptions ", "/subscribers "}},
		{"/co", []string{"/connect ", "/comment "}},
		{"/CON", []string{"/connect "}},
		{"/zzz", nil},
		{"hello", nil},
		{"/set ", []string{"/set photo", "/set bday", "/set gender", "/set fn", "/set note", "/set url", "/set tz", "/set email", "/set tel"}},
		{"/clear t", []string{"/clear tz", "/clear tel"}},
		{"/relation u", []string{"/relation update"}},
		{"/set fn x", nil},
		{"/login al", nil},
	}

	for _, tc := range tests {
		got := c.Complete(tc.input)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Complete(%q) mismatch (-want +got):\n%s", tc.input, diff)
		}
	}
}

func TestCompleteListsEveryVisibleCommand(t *testing.T) {
	r := NewRegistry()
	got := NewCompleter(r).Complete("/")

	if len(got) != len(r.Visible()) {
		t.Fatalf("Complete(\"/\") returned %d candidates, want %d", len(got), len(r.Visible()))
	}
	if got[0] != "/connect " {
		t.Errorf("first candidate = %q, want %q", got[0], "/connect ")
	}
}
