// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"

	"github.com/jeranaias/oswc/internal/model"
)

// =============================================================================
// SUBSCRIPTION HANDLERS
// =============================================================================

func handleSubscribe(ctx context.Context, c *Context, args []string) error {
	if err := c.Service.Subscribe(ctx, args[0]); err != nil {
		return err
	}
	c.Out.Message("You are now subscribed to " + args[0])
	return nil
}

func handleUnsubscribe(ctx context.Context, c *Context, args []string) error {
	if err := c.Service.Unsubscribe(ctx, args[0]); err != nil {
		return err
	}
	c.Out.Message("You are no longer subscribed to " + args[0])
	return nil
}

func handleSubscriptions(ctx context.Context, c *Context, args []string) error {
	jid := identityArg(c, args)
	subs, err := c.Service.Subscriptions(ctx, jid)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		c.Out.List("Subscriptions of "+jid, subs)
	}
	return nil
}

func handleSubscribers(ctx context.Context, c *Context, args []string) error {
	jid := identityArg(c, args)
	subs, err := c.Service.Subscribers(ctx, jid)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		c.Out.List("Subscribers to "+jid, subs)
	}
	return nil
}

// =============================================================================
// RELATION HANDLERS
// =============================================================================

const (
	msgRelationSent    = "Relation request sent."
	msgRelationUpdated = "Relation update sent."

	usageRelationAdd    = "too many arguments, expecting: /relation add"
	usageRelationUpdate = "incorrect arguments, expecting: /relation update [relation-id]"
)

func handleRelations(ctx context.Context, c *Context, args []string) error {
	relations, err := c.Service.Relations(ctx, identityArg(c, args))
	if err != nil {
		return err
	}
	c.Out.Relations(relations)
	return nil
}

// handleRelation dispatches the add and update subcommands.
func handleRelation(ctx context.Context, c *Context, args []string) error {
	switch args[0] {
	case "add":
		if len(args) != 1 {
			return &UsageError{Name: "relation", Detail: usageRelationAdd}
		}
		return addRelation(ctx, c)
	case "update":
		if len(args) != 2 {
			return &UsageError{Name: "relation", Detail: usageRelationUpdate}
		}
		return updateRelation(ctx, c, args[1])
	default:
		return c.Registry.Get("relation").usageError()
	}
}

func addRelation(ctx context.Context, c *Context) error {
	to, err := c.ask("User: ")
	if err != nil {
		return err
	}
	nature, err := c.ask("Nature: ")
	if err != nil {
		return err
	}
	message, err := c.ask("Message: ")
	if err != nil {
		return err
	}

	relation := model.NewRelationRequest(c.State.Identity(), to, nature, message)
	if err := c.Service.AddRelation(ctx, relation); err != nil {
		return err
	}
	c.Out.Message(msgRelationSent)
	return nil
}

func updateRelation(ctx context.Context, c *Context, id string) error {
	status, err := c.ask("Status: ")
	if err != nil {
		return err
	}

	relation := &model.Relation{ID: id, Status: status}
	if err := c.Service.UpdateRelation(ctx, relation); err != nil {
		return err
	}
	c.Out.Message(msgRelationUpdated)
	return nil
}
