// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

const (
	// DefaultPath is the gateway endpoint path.
	DefaultPath = "/v1/osw"

	// Time allowed to write a frame to the gateway.
	writeWait = 10 * time.Second

	// Largest frame accepted from the gateway.
	maxFrameSize = 1 << 20
)

// =============================================================================
// CLIENT
// =============================================================================

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithPath overrides the endpoint path.
func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

// WithRateLimit bounds outgoing requests to limit per second with burst.
// A limit of zero or less disables limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// Client is the WebSocket implementation of service.Service.
type Client struct {
	path    string
	logger  *zap.Logger
	limiter *rate.Limiter
	seq     atomic.Uint64

	mu   sync.RWMutex
	link *link
	host string
	user string
	feed *service.Feed
}

var _ service.Service = (*Client)(nil)

// New creates a disconnected gateway client.
func New(opts ...Option) *Client {
	c := &Client{
		path:    DefaultPath,
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// link is one live WebSocket connection and its in-flight requests.
type link struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *frame

	done     chan struct{}
	doneOnce sync.Once
}

func (l *link) closeDone() {
	l.doneOnce.Do(func() { close(l.done) })
}

// =============================================================================
// SESSION
// =============================================================================

// Connect dials the gateway. An existing session is closed only after the
// new socket is up; a failed dial leaves it untouched.
func (c *Client) Connect(ctx context.Context, server string, port int, opts service.ConnectOptions) error {
	if server == "" {
		return service.NewRequestError("connect", 400, "server name is empty", nil)
	}

	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(server, strconv.Itoa(port)), Path: c.path}
	dialer := *websocket.DefaultDialer
	dialer.EnableCompression = opts.Compression

	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		return service.NewRequestError("connect", code, "cannot reach "+u.Host, err)
	}
	ws.SetReadLimit(maxFrameSize)

	if c.Connected() {
		if err := c.Disconnect(ctx); err != nil && !errors.Is(err, service.ErrNotConnected) {
			c.logger.Debug("closing previous connection failed", zap.Error(err))
		}
	}

	l := &link{
		ws:      ws,
		pending: make(map[string]chan *frame),
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	c.link = l
	c.host = server
	c.user = ""
	c.mu.Unlock()

	go c.readLoop(l)

	c.logger.Info("gateway connected",
		zap.String("url", u.String()),
		zap.Bool("compression", opts.Compression),
		zap.Bool("reconnect", opts.Reconnect))
	return nil
}

// Disconnect closes the WebSocket and waits for the reader to stop.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	l, feed := c.link, c.feed
	c.link, c.feed = nil, nil
	c.host, c.user = "", ""
	c.mu.Unlock()

	if l == nil {
		return service.ErrNotConnected
	}

	l.writeMu.Lock()
	_ = l.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	l.writeMu.Unlock()
	err := l.ws.Close()

	select {
	case <-l.done:
	case <-ctx.Done():
	}
	if feed != nil {
		feed.Close()
	}
	c.logger.Info("gateway disconnected")
	return err
}

// Connected reports whether a WebSocket is open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.link != nil
}

// Authenticated reports whether login succeeded on the current connection.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.link != nil && c.user != ""
}

// Hostname returns the connected server name.
func (c *Client) Hostname() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.host
}

// User returns the logged-in username.
func (c *Client) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Login authenticates and attaches a fresh inbox.
func (c *Client) Login(ctx context.Context, username, password, clientTag string) error {
	params := loginParams{Username: username, Password: password, Client: clientTag}
	if err := c.call(ctx, "login", params, nil); err != nil {
		return err
	}

	feed := service.NewFeed(func(ctx context.Context) ([]*model.ActivityEntry, error) {
		var entries []*model.ActivityEntry
		err := c.authCall(ctx, "inbox", nil, &entries)
		return entries, err
	})

	c.mu.Lock()
	old := c.feed
	c.user = username
	c.feed = feed
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.logger.Info("gateway login", zap.String("user", username), zap.String("client", clientTag))
	return nil
}

// Register asks the gateway to create an account.
func (c *Client) Register(ctx context.Context, username, password, name, email string) error {
	return c.call(ctx, "register", registerParams{
		Username: username, Password: password, Name: name, Email: email,
	}, nil)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// call sends one request and waits for its response. result, when non-nil,
// receives the decoded result payload.
func (c *Client) call(ctx context.Context, op string, params, result any) error {
	c.mu.RLock()
	l := c.link
	c.mu.RUnlock()
	if l == nil {
		return service.ErrNotConnected
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return service.NewRequestError(op, 0, "rate limited", err)
	}

	id := strconv.FormatUint(c.seq.Add(1), 10)
	reply := make(chan *frame, 1)
	l.pendingMu.Lock()
	l.pending[id] = reply
	l.pendingMu.Unlock()
	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, id)
		l.pendingMu.Unlock()
	}()

	l.writeMu.Lock()
	_ = l.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := l.ws.WriteJSON(request{ID: id, Op: op, Params: params})
	l.writeMu.Unlock()
	if err != nil {
		return service.NewRequestError(op, 0, "send failed", err)
	}

	var resp *frame
	select {
	case resp = <-reply:
	case <-l.done:
		return service.NewRequestError(op, 0, "connection closed", nil)
	case <-ctx.Done():
		return service.NewRequestError(op, 0, "cancelled", ctx.Err())
	}

	switch {
	case resp.Code == 401 && op != "login":
		return service.ErrNotAuthenticated
	case resp.Code < 200 || resp.Code > 299:
		return service.NewRequestError(op, resp.Code, resp.Error, nil)
	}

	if result != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return service.NewRequestError(op, resp.Code, "malformed result", err)
		}
	}
	return nil
}

// authCall is call for operations that need a logged-in user.
func (c *Client) authCall(ctx context.Context, op string, params, result any) error {
	c.mu.RLock()
	connected, user := c.link != nil, c.user
	c.mu.RUnlock()
	if !connected {
		return service.ErrNotConnected
	}
	if user == "" {
		return service.ErrNotAuthenticated
	}
	return c.call(ctx, op, params, result)
}

// readLoop routes responses to their callers and pushes to the inbox.
func (c *Client) readLoop(l *link) {
	defer c.linkClosed(l)

	for {
		var f frame
		if err := l.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Warn("gateway read failed", zap.Error(err))
			}
			return
		}

		if f.Event != "" {
			c.handlePush(&f)
			continue
		}

		l.pendingMu.Lock()
		reply, ok := l.pending[f.ID]
		l.pendingMu.Unlock()
		if !ok {
			c.logger.Debug("unmatched gateway response", zap.String("id", f.ID))
			continue
		}
		reply <- &f
	}
}

func (c *Client) handlePush(f *frame) {
	if f.Event != pushInbox {
		c.logger.Debug("ignored gateway push", zap.String("event", f.Event))
		return
	}
	kind, ok := service.ParseEventKind(f.Kind)
	if !ok || (kind != service.EventRefreshed && f.Entry == nil) {
		c.logger.Warn("malformed inbox push", zap.String("kind", f.Kind))
		return
	}

	c.mu.RLock()
	feed := c.feed
	c.mu.RUnlock()
	if feed == nil {
		return
	}
	if kind == service.EventRefreshed {
		go func() {
			if err := feed.Refresh(context.Background()); err != nil {
				c.logger.Warn("inbox refresh failed", zap.Error(err))
			}
		}()
		return
	}
	feed.Apply(service.Event{Kind: kind, Entry: f.Entry})
}

// linkClosed drops session state when the gateway goes away on its own.
func (c *Client) linkClosed(l *link) {
	l.closeDone()

	c.mu.Lock()
	var feed *service.Feed
	if c.link == l {
		feed = c.feed
		c.link, c.feed = nil, nil
		c.host, c.user = "", ""
	}
	c.mu.Unlock()

	if feed != nil {
		feed.Close()
		c.logger.Warn("gateway connection lost")
	}
	_ = l.ws.Close()
}

// =============================================================================
// FACADE
// =============================================================================

// Inbox returns the logged-in user's inbox.
func (c *Client) Inbox() (service.Inbox, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.link == nil {
		return nil, service.ErrNotConnected
	}
	if c.user == "" || c.feed == nil {
		return nil, service.ErrNotAuthenticated
	}
	return c.feed, nil
}

func (c *Client) Activities(ctx context.Context, identity string) ([]*model.ActivityEntry, error) {
	var out []*model.ActivityEntry
	err := c.authCall(ctx, "activities", identityParams{Identity: identity}, &out)
	return out, err
}

func (c *Client) PostActivity(ctx context.Context, entry *model.ActivityEntry) error {
	return c.authCall(ctx, "post", entry, entry)
}

func (c *Client) UpdateActivity(ctx context.Context, entry *model.ActivityEntry) error {
	return c.authCall(ctx, "update", entry, nil)
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.authCall(ctx, "delete", idParams{ID: id}, nil)
}

func (c *Client) Replies(ctx context.Context, entry *model.ActivityEntry) ([]*model.ActivityEntry, error) {
	var out []*model.ActivityEntry
	err := c.authCall(ctx, "replies", idParams{ID: entry.ID}, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context, identity string) (*model.Profile, error) {
	p := model.NewProfile(identity)
	if err := c.authCall(ctx, "profile", identityParams{Identity: identity}, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) SetProfile(ctx context.Context, profile *model.Profile) error {
	return c.authCall(ctx, "set_profile", profile, nil)
}

func (c *Client) Subscribe(ctx context.Context, identity string) error {
	return c.authCall(ctx, "subscribe", identityParams{Identity: identity}, nil)
}

func (c *Client) Unsubscribe(ctx context.Context, identity string) error {
	return c.authCall(ctx, "unsubscribe", identityParams{Identity: identity}, nil)
}

func (c *Client) Subscriptions(ctx context.Context, identity string) ([]string, error) {
	var out []string
	err := c.authCall(ctx, "subscriptions", identityParams{Identity: identity}, &out)
	return out, err
}

func (c *Client) Subscribers(ctx context.Context, identity string) ([]string, error) {
	var out []string
	err := c.authCall(ctx, "subscribers", identityParams{Identity: identity}, &out)
	return out, err
}

func (c *Client) Relations(ctx context.Context, identity string) ([]*model.Relation, error) {
	var out []*model.Relation
	err := c.authCall(ctx, "relations", identityParams{Identity: identity}, &out)
	return out, err
}

func (c *Client) AddRelation(ctx context.Context, relation *model.Relation) error {
	return c.authCall(ctx, "add_relation", relation, relation)
}

func (c *Client) UpdateRelation(ctx context.Context, relation *model.Relation) error {
	return c.authCall(ctx, "update_relation", relation, relation)
}

func (c *Client) UploadToken(ctx context.Context, id string) (string, error) {
	var res uploadResult
	if err := c.authCall(ctx, "upload", idParams{ID: id}, &res); err != nil {
		return "", err
	}
	if res.Token == "" {
		return "", service.NewRequestError("upload", 0, "gateway returned no token", nil)
	}
	return res.Token, nil
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("gateway(%s%s)", c.Hostname(), c.path)
}
