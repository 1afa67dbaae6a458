// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"sync"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

// =============================================================================
// HUB
// =============================================================================

// listener receives change notifications for one open session.
type listener interface {
	notify(kind service.EventKind, entry *model.ActivityEntry)
}

// hub fans activity changes out to every session open on the same database.
type hub struct {
	mu        sync.Mutex
	listeners map[listener]struct{}
}

var (
	hubsMu sync.Mutex
	hubs   = make(map[string]*hub)
)

// hubFor returns the shared hub for the database at path.
func hubFor(path string) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	h, ok := hubs[path]
	if !ok {
		h = &hub{listeners: make(map[listener]struct{})}
		hubs[path] = h
	}
	return h
}

func (h *hub) join(l listener) {
	h.mu.Lock()
	h.listeners[l] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) leave(l listener) {
	h.mu.Lock()
	delete(h.listeners, l)
	h.mu.Unlock()
}

// publish notifies every listener. Listeners decide visibility themselves.
func (h *hub) publish(kind service.EventKind, entry *model.ActivityEntry) {
	h.mu.Lock()
	targets := make([]listener, 0, len(h.listeners))
	for l := range h.listeners {
		targets = append(targets, l)
	}
	h.mu.Unlock()

	for _, l := range targets {
		l.notify(kind, entry.Clone())
	}
}
