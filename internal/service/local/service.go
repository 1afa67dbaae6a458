// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package local

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/oswc/internal/model"
	"github.com/jeranaias/oswc/internal/service"
)

// Status codes reported in RequestError, mirroring their HTTP meaning.
const (
	codeBadRequest   = 400
	codeUnauthorized = 401
	codeForbidden    = 403
	codeNotFound     = 404
	codeConflict     = 409
	codeStorage      = 500
)

// =============================================================================
// SERVICE
// =============================================================================

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// Service is the SQLite-backed loopback implementation of service.Service.
type Service struct {
	dataDir string
	logger  *zap.Logger
	now     func() time.Time
	cost    int

	mu   sync.RWMutex
	db   *sql.DB
	hub  *hub
	host string
	port int
	user string
	feed *service.Feed
}

var _ service.Service = (*Service)(nil)

// New creates a disconnected service storing its databases in dataDir.
func New(dataDir string, opts ...Option) *Service {
	s := &Service{
		dataDir: dataDir,
		logger:  zap.NewNop(),
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// databasePath maps a server name to its database file.
func (s *Service) databasePath(server string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.ToLower(server))
	safe = strings.Trim(safe, ".")
	return filepath.Join(s.dataDir, safe+".db")
}

// =============================================================================
// SESSION
// =============================================================================

// Connect opens the store for server. An existing session is replaced only
// once the new store is open; on failure it is left untouched.
func (s *Service) Connect(ctx context.Context, server string, port int, opts service.ConnectOptions) error {
	if strings.TrimSpace(server) == "" {
		return service.NewRequestError("connect", codeBadRequest, "server name is empty", nil)
	}

	path := s.databasePath(server)
	db, err := openStore(ctx, s.dataDir, path)
	if err != nil {
		return err
	}

	if s.Connected() {
		if err := s.Disconnect(ctx); err != nil && !errors.Is(err, service.ErrNotConnected) {
			s.logger.Debug("closing previous store failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.db = db
	s.hub = hubFor(path)
	s.host = server
	s.port = port
	s.mu.Unlock()

	s.logger.Info("connected",
		zap.String("server", server),
		zap.Int("port", port),
		zap.String("store", path),
		zap.Bool("compression", opts.Compression),
		zap.Bool("reconnect", opts.Reconnect))
	return nil
}

// openStore opens and migrates the database at path.
func openStore(ctx context.Context, dataDir, path string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, service.NewRequestError("connect", codeStorage, "cannot create data directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, service.NewRequestError("connect", codeStorage, "cannot open server store", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, service.NewRequestError("connect", codeStorage, "cannot open server store", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, service.NewRequestError("connect", codeStorage, "cannot prepare server store", err)
	}
	return db, nil
}

// Disconnect ends the session and closes the store.
func (s *Service) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.db == nil {
		s.mu.Unlock()
		return service.ErrNotConnected
	}
	db, h, feed, host := s.db, s.hub, s.feed, s.host
	s.db, s.hub, s.feed = nil, nil, nil
	s.host, s.user, s.port = "", "", 0
	s.mu.Unlock()

	h.leave(s)
	if feed != nil {
		feed.Close()
	}
	s.logger.Info("disconnected", zap.String("server", host))
	return db.Close()
}

// Connected reports whether a store is open.
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Authenticated reports whether a user is logged in.
func (s *Service) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil && s.user != ""
}

// Hostname returns the connected server name.
func (s *Service) Hostname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// User returns the logged-in username without the server part.
func (s *Service) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Login verifies the credentials and opens the user's inbox.
func (s *Service) Login(ctx context.Context, username, password, clientTag string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	var hash []byte
	err = db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return service.NewRequestError("login", codeUnauthorized, "not-authorized", nil)
	}
	if err != nil {
		return storageError("login", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return service.NewRequestError("login", codeUnauthorized, "not-authorized", nil)
	}

	feed := service.NewFeed(s.fetchInbox)

	s.mu.Lock()
	old, h := s.feed, s.hub
	s.user = username
	s.feed = feed
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	h.join(s)
	s.logger.Info("logged in", zap.String("user", username), zap.String("client", clientTag))
	return nil
}

// Register creates an account on the connected server.
func (s *Service) Register(ctx context.Context, username, password, name, email string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if username == "" || strings.ContainsAny(username, "@/ \t") {
		return service.NewRequestError("register", codeBadRequest, "invalid username", nil)
	}
	// Decomposed names would be a second account that renders like the first.
	if !norm.NFC.IsNormalString(username) {
		return service.NewRequestError("register", codeBadRequest, "username is not in composed form", nil)
	}
	if password == "" {
		return service.NewRequestError("register", codeBadRequest, "password is empty", nil)
	}

	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&exists); err != nil {
		return storageError("register", err)
	}
	if exists > 0 {
		return service.NewRequestError("register", codeConflict, "conflict", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return service.NewRequestError("register", codeBadRequest, "unusable password", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, name, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		username, hash, name, email, s.now().UnixNano())
	if err != nil {
		return storageError("register", err)
	}
	s.logger.Info("registered", zap.String("user", username))
	return nil
}

// conn returns the open store or ErrNotConnected.
func (s *Service) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, service.ErrNotConnected
	}
	return s.db, nil
}

// auth returns the open store and the caller's identity.
func (s *Service) auth() (*sql.DB, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, "", service.ErrNotConnected
	}
	if s.user == "" {
		return nil, "", service.ErrNotAuthenticated
	}
	return s.db, s.user + "@" + s.host, nil
}

func storageError(op string, err error) error {
	return service.NewRequestError(op, codeStorage, "storage error", err)
}

// =============================================================================
// INBOX
// =============================================================================

// Inbox returns the logged-in user's inbox.
func (s *Service) Inbox() (service.Inbox, error) {
	if _, _, err := s.auth(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feed, nil
}

// fetchInbox loads the top-level entries the user follows or is addressed by.
func (s *Service) fetchInbox(ctx context.Context) ([]*model.ActivityEntry, error) {
	db, me, err := s.auth()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities a
		WHERE a.parent_id = '' AND (
			a.actor = ?
			OR a.actor IN (SELECT target FROM subscriptions WHERE subscriber = ?)
			OR EXISTS (SELECT 1 FROM json_each(a.recipients) r WHERE r.value = ?))
		ORDER BY a.published DESC`,
		me, me, me)
	if err != nil {
		return nil, storageError("inbox", err)
	}
	entries, err := scanActivities(rows)
	if err != nil {
		return nil, storageError("inbox", err)
	}
	return s.filterVisible(ctx, db, me, entries), nil
}

// notify is called by the hub for every change on the store.
func (s *Service) notify(kind service.EventKind, entry *model.ActivityEntry) {
	s.mu.RLock()
	feed, db, user, host := s.feed, s.db, s.user, s.host
	s.mu.RUnlock()
	if feed == nil || db == nil {
		return
	}
	if kind == service.EventDeleted {
		feed.Apply(service.Event{Kind: kind, Entry: entry})
		return
	}
	if entry.ParentID != "" {
		return
	}

	ctx := context.Background()
	me := user + "@" + host
	if !s.inInbox(ctx, db, me, entry) {
		return
	}
	feed.Apply(service.Event{Kind: kind, Entry: entry})
}

func (s *Service) inInbox(ctx context.Context, db *sql.DB, me string, e *model.ActivityEntry) bool {
	if !s.visible(ctx, db, me, e) {
		return false
	}
	if e.Actor == me || containsString(e.Recipients, me) {
		return true
	}
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber = ? AND target = ?`, me, e.Actor).Scan(&n)
	return err == nil && n > 0
}
