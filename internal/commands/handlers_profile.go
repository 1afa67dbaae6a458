// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/model"
)

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

const (
	msgProfileUpdated = "Profile updated."
	msgPrivacyChanged = "Your privacy has changed."
)

func handleProfile(ctx context.Context, c *Context, args []string) error {
	profile, err := c.Service.Profile(ctx, identityArg(c, args))
	if err != nil {
		return err
	}
	if profile != nil {
		c.Out.Profile(profile)
	}
	return nil
}

// unknownKey builds the usage error listing the recognized keys.
func unknownKey(name, key string) error {
	return &UsageError{
		Name:   name,
		Detail: "unknown key " + key + ", expecting one of: " + strings.Join(model.KnownFieldKeys(), ", "),
	}
}

func handleSet(ctx context.Context, c *Context, args []string) error {
	def, ok := model.LookupField(args[0])
	if !ok {
		return unknownKey("set", args[0])
	}

	raw, err := c.ask(def.Prompt)
	if err != nil {
		return err
	}
	field, err := model.ParseField(def.Key, raw)
	if err != nil {
		var fe *model.FieldError
		if errors.As(err, &fe) {
			return &UsageError{Name: "set", Detail: fe.Error()}
		}
		return err
	}
	field.Rules = c.State.Rules()

	profile := c.State.Profile()
	if profile == nil {
		profile = model.NewProfile(c.State.Identity())
	}
	profile.Put(field)

	if err := c.Service.SetProfile(ctx, profile); err != nil {
		return err
	}
	c.State.SetProfile(profile)
	c.Out.Message(msgProfileUpdated)
	return nil
}

func handleClear(ctx context.Context, c *Context, args []string) error {
	def, ok := model.LookupField(args[0])
	if !ok {
		return unknownKey("clear", args[0])
	}

	profile := c.State.Profile()
	if profile == nil {
		c.logger().Debug("clear without a loaded profile", zap.String("key", args[0]))
		return nil
	}
	profile.RemoveAll(def.Key)

	if err := c.Service.SetProfile(ctx, profile); err != nil {
		return err
	}
	c.State.SetProfile(profile)
	c.Out.Message(msgProfileUpdated)
	return nil
}

// =============================================================================
// PRIVACY
// =============================================================================

func handlePrivacy(_ context.Context, c *Context, _ []string) error {
	mode, err := c.ask("Privacy mode [E/G/I/N] ? ")
	if err != nil {
		return err
	}

	var rule model.AclRule
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "e":
		rule = model.NewViewRule(model.SubjectEveryone, "", model.PermissionGrant)
	case "g":
		group, err := c.ask("Group name: ")
		if err != nil {
			return err
		}
		rule = model.NewViewRule(model.SubjectGroup, group, model.PermissionGrant)
	case "i":
		user, err := c.ask("User id: ")
		if err != nil {
			return err
		}
		rule = model.NewViewRule(model.SubjectPerson, user, model.PermissionGrant)
	case "n":
		rule = model.NewViewRule(model.SubjectEveryone, "", model.PermissionDeny)
	default:
		return nil
	}

	c.State.SetRules([]model.AclRule{rule})
	c.Out.Message(msgPrivacyChanged)
	return nil
}
