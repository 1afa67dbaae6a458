// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"

	"github.com/jeranaias/oswc/internal/util"
)

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

func handleHelp(_ context.Context, c *Context, _ []string) error {
	c.Out.List("Commands:", HelpLines(c.Registry))
	return nil
}

func handleQuit(context.Context, *Context, []string) error {
	return ErrQuit
}

func handleUpload(ctx context.Context, c *Context, _ []string) error {
	token, err := c.Service.UploadToken(ctx, "0")
	if err != nil {
		return err
	}
	c.Out.Message("Session ID: " + token)
	return nil
}

// HelpLines formats the command table with name and usage columns padded to
// the widest entry, measured in terminal columns.
func HelpLines(r *Registry) []string {
	cmds := r.Visible()

	nameWidth, usageWidth := 0, 0
	for _, cmd := range cmds {
		nameWidth = max(nameWidth, util.StringWidth(cmd.Name))
		usageWidth = max(usageWidth, util.StringWidth(cmd.Usage))
	}

	lines := make([]string, len(cmds))
	for i, cmd := range cmds {
		lines[i] = "  " + util.PadRight(cmd.Name, nameWidth) + "  " +
			util.PadRight(cmd.Usage, usageWidth) + "  " + cmd.Description
	}
	return lines
}
