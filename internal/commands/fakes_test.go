// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
	"github.com/jeranaias/oswc/internal/session"
)

// =============================================================================
// RECORDING SERVICE
// =============================================================================

// fakeService records every remote call by operation name. Connected,
// Authenticated, Hostname, User and Inbox are local state and not recorded.
type fakeService struct {
	mu sync.Mutex

	connected bool
	authed    bool
	host      string
	user      string
	port      int
	password  string

	calls []string
	fail  map[string]error

	feed    *service.Feed
	entries []*model.ActivityEntry

	posted      []*model.ActivityEntry
	updated     []*model.ActivityEntry
	deleted     []string
	profile     *model.Profile
	setProfiles []*model.Profile
	added       []*model.Relation
	changed     []*model.Relation
	registered  []string
	subscribed  []string
	queried     []string
	lists       map[string][]string
}

func newFakeService() *fakeService {
	s := &fakeService{fail: make(map[string]error), lists: make(map[string][]string)}
	s.feed = service.NewFeed(func(context.Context) ([]*model.ActivityEntry, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.entries, nil
	})
	return s
}

func (s *fakeService) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.fail[op]
}

func (s *fakeService) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *fakeService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeService) setEntries(entries ...*model.ActivityEntry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

func (s *fakeService) Connect(_ context.Context, server string, port int, _ service.ConnectOptions) error {
	if err := s.record("connect"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected, s.host, s.port = true, server, port
	return nil
}

func (s *fakeService) Disconnect(context.Context) error {
	if err := s.record("disconnect"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected, s.authed, s.host, s.user = false, false, "", ""
	return nil
}

func (s *fakeService) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

func (s *fakeService) Hostname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

func (s *fakeService) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *fakeService) Login(_ context.Context, username, password, _ string) error {
	if err := s.record("login"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed, s.user, s.password = true, username, password
	return nil
}

func (s *fakeService) Register(_ context.Context, username, password, name, email string) error {
	if err := s.record("register"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = []string{username, password, name, email}
	return nil
}

func (s *fakeService) Inbox() (service.Inbox, error) {
	if !s.Authenticated() {
		return nil, service.ErrNotAuthenticated
	}
	return s.feed, nil
}

func (s *fakeService) Activities(_ context.Context, identity string) ([]*model.ActivityEntry, error) {
	if err := s.record("activities"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, identity)
	return s.entries, nil
}

func (s *fakeService) PostActivity(_ context.Context, entry *model.ActivityEntry) error {
	if err := s.record("post"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, entry.Clone())
	return nil
}

func (s *fakeService) UpdateActivity(_ context.Context, entry *model.ActivityEntry) error {
	if err := s.record("update"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, entry.Clone())
	return nil
}

func (s *fakeService) DeleteActivity(_ context.Context, id string) error {
	if err := s.record("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeService) Replies(_ context.Context, entry *model.ActivityEntry) ([]*model.ActivityEntry, error) {
	if err := s.record("replies"); err != nil {
		return nil, err
	}
	reply := model.NewComment("re", entry, nil, time.Time{})
	return []*model.ActivityEntry{reply}, nil
}

func (s *fakeService) Profile(_ context.Context, identity string) (*model.Profile, error) {
	if err := s.record("profile"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, identity)
	return s.profile.Clone(), nil
}

func (s *fakeService) SetProfile(_ context.Context, profile *model.Profile) error {
	if err := s.record("set_profile"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProfiles = append(s.setProfiles, profile.Clone())
	return nil
}

func (s *fakeService) Subscribe(_ context.Context, identity string) error {
	if err := s.record("subscribe"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, identity)
	return nil
}

func (s *fakeService) Unsubscribe(_ context.Context, identity string) error {
	return s.record("unsubscribe")
}

func (s *fakeService) Subscriptions(_ context.Context, identity string) ([]string, error) {
	if err := s.record("subscriptions"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, identity)
	return s.lists["subscriptions"], nil
}

func (s *fakeService) Subscribers(_ context.Context, identity string) ([]string, error) {
	if err := s.record("subscribers"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, identity)
	return s.lists["subscribers"], nil
}

func (s *fakeService) Relations(_ context.Context, identity string) ([]*model.Relation, error) {
	if err := s.record("relations"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, identity)
	return s.added, nil
}

func (s *fakeService) AddRelation(_ context.Context, relation *model.Relation) error {
	if err := s.record("add_relation"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, relation)
	return nil
}

func (s *fakeService) UpdateRelation(_ context.Context, relation *model.Relation) error {
	if err := s.record("update_relation"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, relation)
	return nil
}

func (s *fakeService) UploadToken(context.Context, string) (string, error) {
	if err := s.record("upload"); err != nil {
		return "", err
	}
	return "tok-1", nil
}

// =============================================================================
// SCRIPTED PROMPTER
// =============================================================================

// scriptedPrompter answers prompts from a queue and fails with io.EOF once
// the queue is empty.
type scriptedPrompter struct {
	answers []string
	labels  []string
	masked  []bool

	// onPrompt runs before each answer is returned
	onPrompt func(label string)

	// maskedErr, when set, fails every masked prompt
	maskedErr error
}

func (p *scriptedPrompter) next(label string, masked bool) (string, error) {
	p.labels = append(p.labels, label)
	p.masked = append(p.masked, masked)
	if p.onPrompt != nil {
		p.onPrompt(label)
	}
	if masked && p.maskedErr != nil {
		return "", p.maskedErr
	}
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	return p.next(label, false)
}

func (p *scriptedPrompter) PasswordPrompt(label string) (string, error) {
	return p.next(label, true)
}

func (p *scriptedPrompter) script(answers ...string) {
	p.answers = append(p.answers, answers...)
}

// =============================================================================
// RECORDING OUTPUT
// =============================================================================

type listing struct {
	title string
	items []string
}

type recordingOutput struct {
	mu         sync.Mutex
	messages   []string
	errors     []string
	inboxes    [][]*model.ActivityEntry
	activities []string
	relations  [][]*model.Relation
	profiles   []*model.Profile
	lists      []listing
	watches    int
}

func (o *recordingOutput) Message(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
}

func (o *recordingOutput) Error(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, msg)
}

func (o *recordingOutput) Inbox(entries []*model.ActivityEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inboxes = append(o.inboxes, entries)
}

func (o *recordingOutput) Activities(title string, _ []*model.ActivityEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activities = append(o.activities, title)
}

func (o *recordingOutput) Relations(relations []*model.Relation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.relations = append(o.relations, relations)
}

func (o *recordingOutput) Profile(profile *model.Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.profiles = append(o.profiles, profile)
}

func (o *recordingOutput) List(title string, items []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lists = append(o.lists, listing{title: title, items: items})
}

func (o *recordingOutput) Watch(context.Context, service.Inbox, <-chan service.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.watches++
}

func (o *recordingOutput) Errors() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.errors...)
}

func (o *recordingOutput) Messages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.messages...)
}

func (o *recordingOutput) Watches() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.watches
}

// =============================================================================
// HARNESS
// =============================================================================

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	waitFor = time.Second
	tick    = 10 * time.Millisecond
)

type harness struct {
	svc    *fakeService
	out    *recordingOutput
	prompt *scriptedPrompter
	state  *session.State
	d      *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		svc:    newFakeService(),
		out:    &recordingOutput{},
		prompt: &scriptedPrompter{},
		state:  session.New(),
	}
	h.d = NewDispatcher(&Context{
		Service:     h.svc,
		State:       h.state,
		Prompter:    h.prompt,
		Out:         h.out,
		DefaultPort: service.DefaultPort,
		ClientTag:   "console",
		Now:         func() time.Time { return testTime },
	})
	return h
}

// run executes line and requires that it did not ask to quit.
func (h *harness) run(t *testing.T, line string) {
	t.Helper()
	require.NoError(t, h.d.Execute(context.Background(), line))
}

// login connects to example.org and logs alice in with entries in her inbox.
func (h *harness) login(t *testing.T, entries ...*model.ActivityEntry) {
	t.Helper()
	h.svc.setEntries(entries...)
	h.run(t, "/connect example.org")
	h.run(t, "/login alice secret")
	require.Empty(t, h.out.Errors())
	require.True(t, h.state.LoggedIn())
}

// entry builds an inbox entry with a fixed id.
func entry(id, text string) *model.ActivityEntry {
	e := model.NewStatus(text, model.DefaultRules(), testTime)
	e.ID = id
	e.Actor = "bob@example.org"
	return e
}
