// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the social-network domain types exchanged with the
// service facade.
//
// # Key Types
//
//   - ActivityEntry: A timestamped status update or comment with an actor,
//     optional parent reference and visibility rules
//   - Relation: A directed social connection request between two identities
//   - Profile: A user's public profile made of independently access-controlled fields
//   - AclRule: A (subject, permission) pair controlling who may view content
//
// # Usage
//
// Build a status update carrying the session's default visibility rules:
//
//	entry := model.NewStatus("hello world", model.DefaultRules(), time.Now())
//
// Replace the birthday of a profile:
//
//	field, err := model.ParseField(model.FieldBirthday, "24/12/1990")
//	if err == nil {
//	    profile.Put(field)
//	}
package model
