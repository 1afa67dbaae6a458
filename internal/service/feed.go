// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"
	"sync"

	"github.com/jeranaias/oswc/internal/model"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind is the kind of inbox change.
type EventKind int

const (
	EventReceived EventKind = iota
	EventUpdated
	EventDeleted
	EventRefreshed
)

// String returns the event name used in logs and on the wire.
func (k EventKind) String() string {
	switch k {
	case EventReceived:
		return "received"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventRefreshed:
		return "refreshed"
	default:
		return "unknown"
	}
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, bool) {
	switch s {
	case "received":
		return EventReceived, true
	case "updated":
		return EventUpdated, true
	case "deleted":
		return EventDeleted, true
	case "refreshed":
		return EventRefreshed, true
	}
	return 0, false
}

// Event is a single inbox change. Entry is nil for EventRefreshed.
type Event struct {
	Kind  EventKind
	Entry *model.ActivityEntry
}

// =============================================================================
// FEED
// =============================================================================

// subscriberBuffer bounds how many events queue for a slow subscriber. Every
// event triggers a full re-render, so dropping surplus events loses nothing.
const subscriberBuffer = 8

// FetchFunc loads the full inbox snapshot from the service.
type FetchFunc func(ctx context.Context) ([]*model.ActivityEntry, error)

// Feed is an Inbox that keeps a local snapshot and fans events out to
// subscribers.
type Feed struct {
	mu      sync.RWMutex
	entries []*model.ActivityEntry
	subs    map[int]chan Event
	nextSub int
	fetch   FetchFunc
}

// NewFeed creates an empty feed backed by fetch.
func NewFeed(fetch FetchFunc) *Feed {
	return &Feed{
		subs:  make(map[int]chan Event),
		fetch: fetch,
	}
}

// Entries returns a copy of the snapshot.
func (f *Feed) Entries() []*model.ActivityEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*model.ActivityEntry, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Clone()
	}
	return out
}

// Refresh reloads the snapshot through the fetch function.
func (f *Feed) Refresh(ctx context.Context) error {
	entries, err := f.fetch(ctx)
	if err != nil {
		return err
	}
	f.Apply(Event{Kind: EventRefreshed}, entries...)
	return nil
}

// Subscribe registers a subscriber.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan Event, subscriberBuffer)
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close cancels every subscription.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.subs {
		delete(f.subs, id)
		close(c)
	}
}

// Apply updates the snapshot for ev and notifies subscribers. For
// EventRefreshed the snapshot is replaced by snapshot.
func (f *Feed) Apply(ev Event, snapshot ...*model.ActivityEntry) {
	f.mu.Lock()
	switch ev.Kind {
	case EventRefreshed:
		f.entries = make([]*model.ActivityEntry, len(snapshot))
		for i, e := range snapshot {
			f.entries[i] = e.Clone()
		}
	case EventReceived:
		if i := f.indexLocked(ev.Entry.ID); i >= 0 {
			f.entries[i] = ev.Entry.Clone()
		} else {
			f.entries = append([]*model.ActivityEntry{ev.Entry.Clone()}, f.entries...)
		}
	case EventUpdated:
		if i := f.indexLocked(ev.Entry.ID); i >= 0 {
			f.entries[i] = ev.Entry.Clone()
		}
	case EventDeleted:
		if i := f.indexLocked(ev.Entry.ID); i >= 0 {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
		}
	}

	for _, c := range f.subs {
		select {
		case c <- ev:
		default:
		}
	}
	f.mu.Unlock()
}

func (f *Feed) indexLocked(id string) int {
	for i, e := range f.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
