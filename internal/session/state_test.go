// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

func newInbox(texts ...string) *service.Feed {
	feed := service.NewFeed(func(ctx context.Context) ([]*model.ActivityEntry, error) {
		return nil, nil
	})
	var entries []*model.ActivityEntry
	for i, text := range texts {
		e := model.NewStatus(text, nil, time.Now())
		e.ID = string(rune('a' + i))
		entries = append(entries, e)
	}
	feed.Apply(service.Event{Kind: service.EventRefreshed}, entries...)
	return feed
}

// =============================================================================
// STATE CREATION TESTS
// =============================================================================

func TestNew(t *testing.T) {
	s := New()

	if !strings.HasPrefix(s.SessionID(), "sess_") {
		t.Errorf("SessionID should start with 'sess_', got %q", s.SessionID())
	}
	if s.Connected() || s.LoggedIn() {
		t.Error("New state should be disconnected and anonymous")
	}
	if s.Prompt() != PromptDisconnected {
		t.Errorf("Prompt = %q, want %q", s.Prompt(), PromptDisconnected)
	}

	rules := s.Rules()
	if len(rules) != 1 || rules[0].String() != "grant view to everyone" {
		t.Errorf("Default rules = %v", rules)
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestLifecycle(t *testing.T) {
	s := New()

	s.SetConnected("example.org")
	if got := s.Prompt(); got != "(example.org) " {
		t.Errorf("Prompt after connect = %q", got)
	}

	s.SetLoggedIn("alice")
	if got := s.Identity(); got != "alice@example.org" {
		t.Errorf("Identity = %q", got)
	}
	if got := s.Prompt(); got != "(alice) " {
		t.Errorf("Prompt after login = %q", got)
	}

	cancelled := false
	s.AttachInbox(newInbox("one"), func() { cancelled = true })
	s.SetProfile(model.NewProfile("alice@example.org"))

	s.Disconnect()
	if !cancelled {
		t.Error("Disconnect should cancel the inbox subscription")
	}
	if s.Connected() || s.LoggedIn() || s.Inbox() != nil || s.Profile() != nil {
		t.Error("Disconnect should clear connection, identity, inbox and profile")
	}
	if s.Prompt() != PromptDisconnected {
		t.Errorf("Prompt after disconnect = %q", s.Prompt())
	}
}

func TestAttachInbox_CancelsPrevious(t *testing.T) {
	s := New()
	first := 0
	s.AttachInbox(newInbox(), func() { first++ })
	s.AttachInbox(newInbox(), func() {})
	if first != 1 {
		t.Errorf("previous subscription cancelled %d times, want 1", first)
	}
}

// =============================================================================
// POSITION TESTS
// =============================================================================

func TestEntryAt(t *testing.T) {
	s := New()
	if _, ok := s.EntryAt(1); ok {
		t.Error("EntryAt without inbox should fail")
	}

	s.AttachInbox(newInbox("first", "second", "third"), nil)

	testCases := []struct {
		position int
		ok       bool
		text     string
	}{
		{0, false, ""},
		{1, true, "first"},
		{3, true, "third"},
		{4, false, ""},
		{-1, false, ""},
	}
	for _, tc := range testCases {
		e, ok := s.EntryAt(tc.position)
		if ok != tc.ok {
			t.Errorf("EntryAt(%d) ok = %v, want %v", tc.position, ok, tc.ok)
			continue
		}
		if ok && e.Text() != tc.text {
			t.Errorf("EntryAt(%d) = %q, want %q", tc.position, e.Text(), tc.text)
		}
	}
}

func TestStillAt_DetectsShift(t *testing.T) {
	feed := newInbox("first", "second")
	s := New()
	s.AttachInbox(feed, nil)

	e, _ := s.EntryAt(2)
	if !s.StillAt(2, e.ID) {
		t.Fatal("StillAt should hold before any change")
	}

	arrived := model.NewStatus("new", nil, time.Now())
	arrived.ID = "z"
	feed.Apply(service.Event{Kind: service.EventReceived, Entry: arrived})

	if s.StillAt(2, e.ID) {
		t.Error("StillAt should fail once a new entry shifted the positions")
	}
}

// =============================================================================
// COPY SEMANTICS
// =============================================================================

func TestProfileAndRulesAreCopies(t *testing.T) {
	s := New()
	p := model.NewProfile("alice@example.org")
	s.SetProfile(p)
	p.Put(model.Field{Key: model.FieldNote, Value: "changed"})
	if s.Profile().HasField(model.FieldNote) {
		t.Error("SetProfile should store a copy")
	}

	rules := s.Rules()
	rules[0].Action.Permission = model.PermissionDeny
	if s.Rules()[0].Action.Permission != model.PermissionGrant {
		t.Error("Rules should return a copy")
	}
}

// TestState_ConcurrentAccess exercises the mutex under -race.
func TestState_ConcurrentAccess(t *testing.T) {
	s := New()
	s.SetConnected("example.org")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetLoggedIn("alice")
			s.AttachInbox(newInbox("x"), nil)
		}()
		go func() {
			defer wg.Done()
			_ = s.Prompt()
			_ = s.Entries()
		}()
	}
	wg.Wait()
}
