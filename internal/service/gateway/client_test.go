// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

// =============================================================================
// FAKE GATEWAY
// =============================================================================

type fakeGateway struct {
	mu      sync.Mutex
	entries []*model.ActivityEntry
	next    int
	ops     []string
	conns   []*websocket.Conn
}

// kick drops every open connection from the server side.
func (g *fakeGateway) kick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ws := range g.conns {
		ws.Close()
	}
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != DefaultPath {
		http.NotFound(w, r)
		return
	}
	ws, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	g.mu.Lock()
	g.conns = append(g.conns, ws)
	g.mu.Unlock()

	user := ""
	for {
		var req struct {
			ID     string          `json:"id"`
			Op     string          `json:"op"`
			Params json.RawMessage `json:"params"`
		}
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		g.mu.Lock()
		g.ops = append(g.ops, req.Op)
		g.mu.Unlock()

		resp := map[string]any{"id": req.ID, "code": 200}
		switch req.Op {
		case "login":
			var p loginParams
			_ = json.Unmarshal(req.Params, &p)
			if p.Password != "secret" {
				resp["code"] = 401
				resp["error"] = "not-authorized"
				break
			}
			user = p.Username + "@example.org"
		case "post":
			if user == "" {
				resp["code"] = 401
				break
			}
			var e model.ActivityEntry
			_ = json.Unmarshal(req.Params, &e)
			g.mu.Lock()
			g.next++
			e.ID = fmt.Sprintf("e%d", g.next)
			e.Actor = user
			g.entries = append([]*model.ActivityEntry{&e}, g.entries...)
			g.mu.Unlock()
			_ = ws.WriteJSON(map[string]any{"event": "inbox", "kind": "received", "entry": e})
			resp["result"] = e
		case "inbox":
			g.mu.Lock()
			resp["result"] = g.entries
			g.mu.Unlock()
		case "subscriptions":
			resp["result"] = []string{"bob@example.org", "carol@example.org"}
		case "upload":
			resp["result"] = map[string]string{"token": "tok-1"}
		case "profile":
			resp["code"] = 404
			resp["error"] = "item-not-found"
		default:
			resp["code"] = 400
			resp["error"] = "unknown op " + req.Op
		}
		if err := ws.WriteJSON(resp); err != nil {
			return
		}
	}
}

func startGateway(t *testing.T) (*fakeGateway, *httptest.Server, string, int) {
	t.Helper()
	g := &fakeGateway{}
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return g, srv, host, port
}

// =============================================================================
// TESTS
// =============================================================================

func TestClient_NotConnected(t *testing.T) {
	c := New()
	ctx := context.Background()

	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Login(ctx, "alice", "secret", "console"), service.ErrNotConnected)
	assert.ErrorIs(t, c.Disconnect(ctx), service.ErrNotConnected)
	_, err := c.Subscriptions(ctx, "")
	assert.ErrorIs(t, err, service.ErrNotConnected)
}

func TestClient_LoginAndPost(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	g, srv, host, port := startGateway(t)
	ctx := context.Background()
	c := New(WithRateLimit(0, 0))

	require.NoError(t, c.Connect(ctx, host, port, service.ConnectOptions{}))
	assert.True(t, c.Connected())
	assert.Equal(t, host, c.Hostname())

	_, err := c.Inbox()
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	assert.ErrorIs(t, c.PostActivity(ctx, model.NewStatus("x", nil, time.Now())), service.ErrNotAuthenticated)

	err = c.Login(ctx, "alice", "wrong", "console")
	var re *service.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 401, re.Code)
	assert.False(t, c.Authenticated())

	require.NoError(t, c.Login(ctx, "alice", "secret", "console"))
	assert.True(t, c.Authenticated())

	inbox, err := c.Inbox()
	require.NoError(t, err)
	events, cancel := inbox.Subscribe()

	entry := model.NewStatus("hello gateway", model.DefaultRules(), time.Now())
	require.NoError(t, c.PostActivity(ctx, entry))
	assert.Equal(t, "e1", entry.ID)
	assert.Equal(t, "alice@example.org", entry.Actor)

	ev := <-events
	assert.Equal(t, service.EventReceived, ev.Kind)
	assert.Equal(t, "hello gateway", ev.Entry.Text())

	require.NoError(t, inbox.Refresh(ctx))
	require.Len(t, inbox.Entries(), 1)

	subs, err := c.Subscriptions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob@example.org", "carol@example.org"}, subs)

	token, err := c.UploadToken(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	_, err = c.Profile(ctx, "nobody@example.org")
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 404, re.Code)
	assert.Equal(t, "item-not-found", re.Reason)

	cancel()
	require.NoError(t, c.Disconnect(ctx))
	assert.False(t, c.Connected())
	srv.Close()

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, []string{"login", "login", "post", "inbox", "subscriptions", "upload", "profile"}, g.ops)
}

func TestClient_ConnectFailure(t *testing.T) {
	_, _, host, port := startGateway(t)
	c := New(WithPath("/nope"))

	err := c.Connect(context.Background(), host, port, service.ConnectOptions{})
	var re *service.RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 404, re.Code)
	assert.False(t, c.Connected())
}

func TestClient_FailedReconnectKeepsSession(t *testing.T) {
	_, _, host, port := startGateway(t)
	_, dead, deadHost, deadPort := startGateway(t)
	dead.Close()

	c := New(WithRateLimit(0, 0))
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, host, port, service.ConnectOptions{}))
	t.Cleanup(func() { _ = c.Disconnect(context.Background()) })
	require.NoError(t, c.Login(ctx, "alice", "secret", "console"))

	err := c.Connect(ctx, deadHost, deadPort, service.ConnectOptions{})
	require.True(t, service.IsRequestError(err), "got %v", err)

	assert.True(t, c.Connected())
	assert.True(t, c.Authenticated())
	assert.Equal(t, host, c.Hostname())
	_, err = c.Subscriptions(ctx, "")
	assert.NoError(t, err)
}

func TestClient_ServerGoneDropsSession(t *testing.T) {
	g, _, host, port := startGateway(t)

	c := New(WithRateLimit(0, 0))
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, host, port, service.ConnectOptions{}))
	require.NoError(t, c.Login(ctx, "alice", "secret", "console"))

	g.kick()

	require.Eventually(t, func() bool { return !c.Connected() }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, c.Authenticated())
}
