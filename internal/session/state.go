// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

// PromptDisconnected is shown while no server is connected.
const PromptDisconnected = "(not connected) :"

// =============================================================================
// SESSION STATE
// =============================================================================

// State tracks the connection, the logged-in identity and everything tied to
// it. The render goroutine reads it concurrently with the read-eval loop.
type State struct {
	mu sync.Mutex

	sessionID string
	startTime time.Time

	// Connection
	connected bool
	hostname  string

	// Authentication
	user     string
	identity string
	profile  *model.Profile

	// Inbox and the cancel func of its event subscription
	inbox       service.Inbox
	cancelInbox func()

	// Visibility applied to new posts and profile fields
	rules []model.AclRule
}

// New creates a disconnected state with the default visibility rules.
func New() *State {
	now := time.Now()
	return &State{
		sessionID: generateSessionID(now),
		startTime: now,
		rules:     model.DefaultRules(),
	}
}

// generateSessionID returns an identifier used to correlate log lines.
func generateSessionID(t time.Time) string {
	return "sess_" + t.Format("20060102_150405")
}

// SessionID returns the session identifier.
func (s *State) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Duration returns how long the process has been running.
func (s *State) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// =============================================================================
// CONNECTION
// =============================================================================

// SetConnected records a successful connect. Any previous login is dropped.
func (s *State) SetConnected(hostname string) {
	s.mu.Lock()
	cancel := s.clearLoginLocked()
	s.connected = true
	s.hostname = hostname
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Connected reports whether a server is connected.
func (s *State) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Hostname returns the connected server name.
func (s *State) Hostname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostname
}

// Disconnect clears the connection, identity, profile and inbox, and cancels
// the inbox subscription.
func (s *State) Disconnect() {
	s.mu.Lock()
	cancel := s.clearLoginLocked()
	s.connected = false
	s.hostname = ""
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// clearLoginLocked forgets everything tied to the login and returns the inbox
// cancel func for the caller to run outside the lock.
func (s *State) clearLoginLocked() func() {
	cancel := s.cancelInbox
	s.user = ""
	s.identity = ""
	s.profile = nil
	s.inbox = nil
	s.cancelInbox = nil
	return cancel
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// SetLoggedIn records the user and derives the identity user@hostname.
func (s *State) SetLoggedIn(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.identity = user + "@" + s.hostname
}

// LoggedIn reports whether an identity is set.
func (s *State) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != ""
}

// User returns the logged-in username.
func (s *State) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Identity returns user@hostname, or "" when not logged in.
func (s *State) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Prompt returns the line editor prompt for the current state.
func (s *State) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.user != "":
		return "(" + s.user + ") "
	case s.connected:
		return "(" + s.hostname + ") "
	default:
		return PromptDisconnected
	}
}

// =============================================================================
// INBOX
// =============================================================================

// AttachInbox replaces the inbox reference and its subscription. The previous
// subscription is cancelled.
func (s *State) AttachInbox(inbox service.Inbox, cancel func()) {
	s.mu.Lock()
	old := s.cancelInbox
	s.inbox = inbox
	s.cancelInbox = cancel
	s.mu.Unlock()

	if old != nil {
		old()
	}
}

// Inbox returns the current inbox, or nil.
func (s *State) Inbox() service.Inbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inbox
}

// Entries returns the inbox snapshot, or nil without an inbox.
func (s *State) Entries() []*model.ActivityEntry {
	inbox := s.Inbox()
	if inbox == nil {
		return nil
	}
	return inbox.Entries()
}

// EntryAt resolves a 1-based inbox position.
func (s *State) EntryAt(position int) (*model.ActivityEntry, bool) {
	entries := s.Entries()
	if position < 1 || position > len(entries) {
		return nil, false
	}
	return entries[position-1], true
}

// StillAt reports whether the entry with id is still at position. Positions
// shift when inbox events arrive during an interactive prompt.
func (s *State) StillAt(position int, id string) bool {
	e, ok := s.EntryAt(position)
	return ok && e.ID == id
}

// =============================================================================
// PROFILE AND VISIBILITY
// =============================================================================

// Profile returns a copy of the loaded profile, or nil.
func (s *State) Profile() *model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// SetProfile stores a copy of p.
func (s *State) SetProfile(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p.Clone()
}

// Rules returns a copy of the default visibility rules.
func (s *State) Rules() []model.AclRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneRules(s.rules)
}

// SetRules replaces the default visibility rules.
func (s *State) SetRules(rules []model.AclRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = model.CloneRules(rules)
}
