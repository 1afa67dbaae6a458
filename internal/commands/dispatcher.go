// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/service"
)

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher routes parsed lines to command handlers and renders their errors.
type Dispatcher struct {
	ctx *Context
}

// NewDispatcher creates a dispatcher over c. A nil c.Registry is replaced by
// the built-in registry.
func NewDispatcher(c *Context) *Dispatcher {
	if c.Registry == nil {
		c.Registry = NewRegistry()
	}
	return &Dispatcher{ctx: c}
}

// Context returns the handler context.
func (d *Dispatcher) Context() *Context {
	return d.ctx
}

// Execute runs one input line. Every failure is rendered; the only error
// returned is ErrQuit.
func (d *Dispatcher) Execute(ctx context.Context, line string) error {
	err := d.execute(ctx, line)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrQuit) {
		return ErrQuit
	}

	d.ctx.logger().Debug("command failed", zap.String("line", redact(line)), zap.Error(err))
	d.ctx.Out.Error(userMessage(err))
	return nil
}

// execute validates in the order lookup, arity, precondition, then runs the
// handler.
func (d *Dispatcher) execute(ctx context.Context, line string) error {
	res := Parse(line)
	switch {
	case res.Empty:
		return nil
	case !res.IsCommand:
		if err := d.check(RequiresAuth); err != nil {
			return err
		}
		return postStatus(ctx, d.ctx, res.Text)
	}

	cmd := d.ctx.Registry.Get(res.Name)
	if cmd == nil {
		d.ctx.logger().Debug("unknown command", zap.String("name", res.Name))
		return handleHelp(ctx, d.ctx, nil)
	}
	if !cmd.Accepts(len(res.Args)) {
		return cmd.usageError()
	}
	if err := d.check(cmd.Requires); err != nil {
		return err
	}

	d.ctx.logger().Debug("dispatch", zap.String("command", cmd.Name), zap.Int("args", len(res.Args)))
	return cmd.Handler(ctx, d.ctx, res.Args)
}

// check reports the unmet precondition, if any, from the service's view of
// the session. A transport the service lost is dropped from the session too.
func (d *Dispatcher) check(p Precondition) error {
	svc := d.ctx.Service
	if !svc.Connected() && d.ctx.State.Connected() {
		d.ctx.logger().Info("connection lost", zap.String("host", d.ctx.State.Hostname()))
		d.ctx.State.Disconnect()
	}
	switch p {
	case RequiresConnection:
		if !svc.Connected() {
			return service.ErrNotConnected
		}
	case RequiresAuth:
		if !svc.Connected() {
			return service.ErrNotConnected
		}
		if !svc.Authenticated() {
			return service.ErrNotAuthenticated
		}
	}
	return nil
}

// redact drops login arguments so passwords never reach the log file.
func redact(line string) string {
	res := Parse(line)
	if res.IsCommand && res.Name == "login" && len(res.Args) > 1 {
		return "/login " + res.Args[0] + " ***"
	}
	return line
}
