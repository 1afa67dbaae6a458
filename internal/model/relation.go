// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// StatusRequested is the status of a freshly created relation request.
const StatusRequested = "requested"

// Relation is a directed social connection between two identities.
type Relation struct {
	ID        string    `json:"id,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Nature    string    `json:"nature,omitempty"`
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// NewRelationRequest builds a relation request from one identity to another.
func NewRelationRequest(from, to, nature, message string) *Relation {
	return &Relation{
		From:    from,
		To:      to,
		Nature:  nature,
		Status:  StatusRequested,
		Message: message,
	}
}
