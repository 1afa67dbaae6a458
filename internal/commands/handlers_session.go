// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/service"
)

// =============================================================================
// SESSION HANDLERS
// =============================================================================

const (
	msgDisconnected = "You have been successfully disconnected"
	msgRegistered   = "Registration request sent."
)

func handleConnect(ctx context.Context, c *Context, args []string) error {
	server := args[0]
	port := c.DefaultPort
	if port == 0 {
		port = service.DefaultPort
	}
	if len(args) == 3 && args[1] != "-p" {
		return c.Registry.Get("connect").usageError()
	}
	if len(args) > 1 {
		p, err := strconv.Atoi(args[len(args)-1])
		if err != nil || p < 1 || p > 65535 {
			return c.Registry.Get("connect").usageError()
		}
		port = p
	}

	if err := c.Service.Connect(ctx, server, port, c.ConnectOptions); err != nil {
		return err
	}

	host := c.Service.Hostname()
	if host == "" {
		host = server
	}
	c.State.SetConnected(host)
	c.logger().Info("connected", zap.String("host", host), zap.Int("port", port))
	return nil
}

func handleDisconnect(ctx context.Context, c *Context, _ []string) error {
	err := c.Service.Disconnect(ctx)
	c.State.Disconnect()
	if err != nil && !errors.Is(err, service.ErrNotConnected) {
		return err
	}
	c.Out.Message(msgDisconnected)
	return nil
}

func handleLogin(ctx context.Context, c *Context, args []string) error {
	username := args[0]
	var password string
	if len(args) == 2 {
		password = args[1]
	} else {
		var err error
		if password, err = c.askSecret("Password: "); err != nil {
			return err
		}
	}

	if err := c.Service.Login(ctx, username, password, c.ClientTag); err != nil {
		return err
	}
	inbox, err := c.Service.Inbox()
	if err != nil {
		return err
	}

	events, cancel := inbox.Subscribe()
	c.State.SetLoggedIn(username)
	c.State.SetProfile(nil)
	c.State.AttachInbox(inbox, cancel)
	c.logger().Info("logged in", zap.String("identity", c.State.Identity()))

	if err := inbox.Refresh(ctx); err != nil {
		c.logger().Warn("inbox refresh failed", zap.Error(err))
		c.Out.Error(userMessage(err))
	}
	c.Out.Inbox(inbox.Entries())
	go c.Out.Watch(ctx, inbox, events)

	if profile, err := c.Service.Profile(ctx, ""); err != nil {
		c.logger().Debug("profile fetch failed", zap.Error(err))
	} else {
		c.State.SetProfile(profile)
	}
	return nil
}

func handleRegister(ctx context.Context, c *Context, _ []string) error {
	username, err := c.ask("Username: ")
	if err != nil {
		return err
	}
	name, err := c.ask("Name: ")
	if err != nil {
		return err
	}
	email, err := c.ask("Email: ")
	if err != nil {
		return err
	}
	password, err := c.askSecret("Password: ")
	if err != nil {
		return err
	}

	if err := c.Service.Register(ctx, username, password, name, email); err != nil {
		return err
	}
	c.Out.Message(msgRegistered)
	return nil
}
