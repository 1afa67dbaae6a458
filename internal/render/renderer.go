// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"io"
	"sync"

	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
	"github.com/jeranaias/oswc/internal/util"
)

// =============================================================================
// RENDERER
// =============================================================================

const (
	// DefaultWidth and DefaultHeight are used when the size is unknown
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Renderer owns terminal output. Every write happens under one mutex, so
// inbox notifications and command output never interleave.
//
// On an interactive terminal, views are drawn on rows 1..height-1 between a
// cursor save and restore. The bottom row belongs to the line editor and is
// never written, so a prompt with partially typed input survives any redraw.
type Renderer struct {
	mu          sync.Mutex
	out         *termenv.Output
	styles      Styles
	size        func() (width, height int)
	interactive bool
	logger      *zap.Logger
}

type options struct {
	colors      bool
	size        func() (int, int)
	interactive *bool
	logger      *zap.Logger
}

// Option configures a Renderer.
type Option func(*options)

// WithColors enables or disables styled output.
func WithColors(enabled bool) Option {
	return func(o *options) { o.colors = enabled }
}

// WithSize overrides terminal size detection.
func WithSize(size func() (width, height int)) Option {
	return func(o *options) { o.size = size }
}

// WithInteractive overrides terminal detection. Non-interactive renderers
// print views as plain sequential lines.
func WithInteractive(interactive bool) Option {
	return func(o *options) { o.interactive = &interactive }
}

// WithLogger sets the logger for inbox notifications.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	o := options{colors: true}
	for _, opt := range opts {
		opt(&o)
	}

	fd, isTTY := terminalFd(w)
	interactive := isTTY
	if o.interactive != nil {
		interactive = *o.interactive
	}
	size := o.size
	if size == nil {
		size = func() (int, int) { return terminalSize(fd, isTTY) }
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	profile := termenv.Ascii
	if o.colors {
		profile = termenv.NewOutput(w).EnvColorProfile()
	}

	return &Renderer{
		out:         termenv.NewOutput(w, termenv.WithProfile(profile)),
		styles:      NewStyles(w, profile),
		size:        size,
		interactive: interactive,
		logger:      logger,
	}
}

// terminalFd returns the descriptor of w when it is a terminal.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func terminalSize(fd int, isTTY bool) (int, int) {
	if !isTTY {
		return DefaultWidth, DefaultHeight
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return w, h
}

// =============================================================================
// VIEWS
// =============================================================================

// Inbox draws the numbered inbox.
func (r *Renderer) Inbox(entries []*model.ActivityEntry) {
	r.draw(InboxPage(entries))
}

// Activities draws entries under title.
func (r *Renderer) Activities(title string, entries []*model.ActivityEntry) {
	r.draw(ActivitiesPage(title, entries))
}

// Relations draws relations.
func (r *Renderer) Relations(relations []*model.Relation) {
	r.draw(RelationsPage(relations))
}

// Profile draws a profile.
func (r *Renderer) Profile(p *model.Profile) {
	r.draw(ProfilePage(p))
}

// List draws items under title.
func (r *Renderer) List(title string, items []string) {
	r.draw(ListPage(title, items))
}

// Message shows a one-line notice above the prompt.
func (r *Renderer) Message(msg string) {
	r.line(r.styles.Message.Render, msg)
}

// Error shows "Error: msg" above the prompt.
func (r *Renderer) Error(msg string) {
	r.line(r.styles.Error.Render, "Error: "+msg)
}

// Watch redraws the inbox on every event until ctx is done or events is
// closed.
func (r *Renderer) Watch(ctx context.Context, inbox service.Inbox, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.logger.Debug("inbox event", zap.Stringer("kind", ev.Kind))
			r.Inbox(inbox.Entries())
		}
	}
}

// =============================================================================
// DRAWING
// =============================================================================

// rows styles and clips page to at most height-1 rows of width columns.
func (r *Renderer) rows(p Page, width, height int) []string {
	limit := max(height-1, 1)

	var rows []string
	if p.Title != "" {
		rows = append(rows, r.styles.Title.Render(util.ClipWidth(p.Title, width)))
	}
	for i, l := range p.Lines {
		if len(rows) == limit {
			r.logger.Debug("view clipped", zap.Int("shown", i), zap.Int("lines", len(p.Lines)))
			break
		}
		rows = append(rows, util.ClipWidth(util.SanitizeLine(l), width))
	}
	return rows
}

func (r *Renderer) draw(p Page) {
	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := r.size()
	rows := r.rows(p, width, height)

	if !r.interactive {
		for _, row := range rows {
			io.WriteString(r.out, row+"\n")
		}
		return
	}

	r.out.SaveCursorPosition()
	for row := 1; row < max(height, 2); row++ {
		r.out.MoveCursor(row, 1)
		r.out.ClearLine()
		if row <= len(rows) {
			io.WriteString(r.out, rows[row-1])
		}
	}
	r.out.RestoreCursorPosition()
}

func (r *Renderer) line(style func(...string) string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := r.size()
	text := style(util.ClipWidth(util.SanitizeLine(msg), width))

	if !r.interactive {
		io.WriteString(r.out, text+"\n")
		return
	}

	r.out.SaveCursorPosition()
	r.out.MoveCursor(max(height-1, 1), 1)
	r.out.ClearLine()
	io.WriteString(r.out, text)
	r.out.RestoreCursorPosition()
}
