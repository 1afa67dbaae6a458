// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"encoding/json"

	"github.com/jeranaias/oswc/internal/model"
)

// request is a client-to-gateway frame.
type request struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Params any    `json:"params,omitempty"`
}

// frame is any gateway-to-client frame: a response when ID is set, a push
// when Event is set.
type frame struct {
	ID     string          `json:"id,omitempty"`
	Code   int             `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`

	Event string               `json:"event,omitempty"`
	Kind  string               `json:"kind,omitempty"`
	Entry *model.ActivityEntry `json:"entry,omitempty"`
}

// pushInbox is the event name of inbox change pushes.
const pushInbox = "inbox"

// Request parameter shapes.
type (
	loginParams struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Client   string `json:"client"`
	}
	registerParams struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name,omitempty"`
		Email    string `json:"email,omitempty"`
	}
	identityParams struct {
		Identity string `json:"identity,omitempty"`
	}
	idParams struct {
		ID string `json:"id"`
	}
	uploadResult struct {
		Token string `json:"token"`
	}
)
