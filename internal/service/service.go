// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

import (
	"context"

	"github.com/jeranaias/oswc/internal/model"
)

// DefaultPort is the port used when connect is given only a server.
const DefaultPort = 5222

// ConnectOptions tune the transport session.
type ConnectOptions struct {
	Compression bool
	Reconnect   bool
}

// Service is the facade to the social network.
//
// Identity arguments that are empty mean "the logged-in user".
type Service interface {
	// Session
	Connect(ctx context.Context, server string, port int, opts ConnectOptions) error
	Disconnect(ctx context.Context) error
	Connected() bool
	Authenticated() bool
	Hostname() string
	User() string
	Login(ctx context.Context, username, password, clientTag string) error
	Register(ctx context.Context, username, password, name, email string) error

	// Activities
	Inbox() (Inbox, error)
	Activities(ctx context.Context, identity string) ([]*model.ActivityEntry, error)
	PostActivity(ctx context.Context, entry *model.ActivityEntry) error
	UpdateActivity(ctx context.Context, entry *model.ActivityEntry) error
	DeleteActivity(ctx context.Context, id string) error
	Replies(ctx context.Context, entry *model.ActivityEntry) ([]*model.ActivityEntry, error)

	// Profiles
	Profile(ctx context.Context, identity string) (*model.Profile, error)
	SetProfile(ctx context.Context, profile *model.Profile) error

	// Social graph
	Subscribe(ctx context.Context, identity string) error
	Unsubscribe(ctx context.Context, identity string) error
	Subscriptions(ctx context.Context, identity string) ([]string, error)
	Subscribers(ctx context.Context, identity string) ([]string, error)
	Relations(ctx context.Context, identity string) ([]*model.Relation, error)
	AddRelation(ctx context.Context, relation *model.Relation) error
	UpdateRelation(ctx context.Context, relation *model.Relation) error

	// Media
	UploadToken(ctx context.Context, id string) (string, error)
}

// Inbox is the ordered, refreshable collection of entries visible to the
// logged-in user.
type Inbox interface {
	// Entries returns a copy of the current snapshot, newest first.
	Entries() []*model.ActivityEntry

	// Refresh reloads the snapshot and emits EventRefreshed.
	Refresh(ctx context.Context) error

	// Subscribe returns a channel of change events and a function that
	// cancels the subscription and closes the channel.
	Subscribe() (<-chan Event, func())
}
