// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/model"
)

// =============================================================================
// CONTENT HANDLERS
// =============================================================================

// errEntryMoved is returned when the inbox changed under an interactive prompt.
var errEntryMoved = errors.New("the activity moved while you were typing, nothing was sent")

// postStatus publishes a plain input line under the session rules.
func postStatus(ctx context.Context, c *Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	entry := model.NewStatus(text, c.State.Rules(), c.now())
	return c.Service.PostActivity(ctx, entry)
}

func handleInbox(ctx context.Context, c *Context, _ []string) error {
	inbox := c.State.Inbox()
	if inbox == nil {
		return nil
	}
	if err := inbox.Refresh(ctx); err != nil {
		return err
	}
	c.Out.Inbox(inbox.Entries())
	return nil
}

func handleActivities(ctx context.Context, c *Context, args []string) error {
	jid := identityArg(c, args)
	entries, err := c.Service.Activities(ctx, jid)
	if err != nil {
		return err
	}
	c.Out.Activities("Activities of "+jid, entries)
	return nil
}

// resolve looks up an inbox position. Out-of-range positions resolve to nil
// without error.
func resolve(c *Context, name string, arg string) (int, *model.ActivityEntry, error) {
	pos, err := parsePosition(c.Registry.Get(name), arg)
	if err != nil {
		return 0, nil, err
	}
	entry, ok := c.State.EntryAt(pos)
	if !ok {
		c.logger().Debug("position out of range", zap.String("command", name), zap.Int("position", pos))
		return pos, nil, nil
	}
	return pos, entry, nil
}

func handleDelete(ctx context.Context, c *Context, args []string) error {
	_, entry, err := resolve(c, "delete", args[0])
	if err != nil || entry == nil {
		return err
	}
	if err := c.Service.DeleteActivity(ctx, entry.ID); err != nil {
		return err
	}
	return refreshInbox(ctx, c)
}

func handleUpdate(ctx context.Context, c *Context, args []string) error {
	pos, entry, err := resolve(c, "update", args[0])
	if err != nil || entry == nil {
		return err
	}

	text, err := c.ask("New message for the activity: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !c.State.StillAt(pos, entry.ID) {
		return errEntryMoved
	}

	entry.SetText(text)
	if err := c.Service.UpdateActivity(ctx, entry); err != nil {
		return err
	}
	return refreshInbox(ctx, c)
}

func handleComment(ctx context.Context, c *Context, args []string) error {
	pos, entry, err := resolve(c, "comment", args[0])
	if err != nil || entry == nil {
		return err
	}

	text, err := c.ask("Enter your comment: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !c.State.StillAt(pos, entry.ID) {
		return errEntryMoved
	}

	comment := model.NewComment(text, entry, c.State.Rules(), c.now())
	return c.Service.PostActivity(ctx, comment)
}

func handleReplies(ctx context.Context, c *Context, args []string) error {
	pos, entry, err := resolve(c, "replies", args[0])
	if err != nil || entry == nil {
		return err
	}
	replies, err := c.Service.Replies(ctx, entry)
	if err != nil {
		return err
	}
	c.Out.Activities(fmt.Sprintf("Replies to activity %d", pos), replies)
	return nil
}

func handleShout(ctx context.Context, c *Context, args []string) error {
	text, err := c.ask("Message: ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	entry := model.NewDirectMessage(text, args[0], c.State.Rules(), c.now())
	return c.Service.PostActivity(ctx, entry)
}

// refreshInbox reloads and redraws the inbox after a change.
func refreshInbox(ctx context.Context, c *Context) error {
	return handleInbox(ctx, c, nil)
}

// identityArg returns the optional jid argument, defaulting to the session
// identity.
func identityArg(c *Context, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return c.State.Identity()
}
