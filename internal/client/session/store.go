// Package session owns the client's authentication state: the access and
// refresh token pair, its durable copy in the local metadata table, token
// validity checks and the single-flight access token refresh.
//
// No other component touches the stored tokens directly; everything goes
// through Store.
package session

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cashtrack/internal/dbx"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/dmitrijs2005/cashtrack/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Durable storage keys of the token pair.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// ValidityMargin is subtracted from the token lifetime: a token expiring
// within this window is already treated as invalid.
const ValidityMargin = 30 * time.Second

var (
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrSessionCleared = errors.New("session cleared during refresh")
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store holds the token pair in memory and mirrors it to the metadata table.
// It is safe for concurrent use.
type Store struct {
	db        *sql.DB
	refresher Refresher
	log       logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu      sync.Mutex
	access  string
	refresh string
	// hydrated is set once memory is authoritative: after the first load
	// from storage, SetTokens or Clear. Storage is never read after that.
	hydrated bool
	// epoch changes on every Clear so that a refresh started before the
	// clear cannot bring the session back.
	epoch uint64

	group singleflight.Group
}

// NewStore builds a Store over a database already migrated with the
// metadata table.
func NewStore(db *sql.DB, refresher Refresher, opts ...Option) *Store {
	s := &Store{
		db:        db,
		refresher: refresher,
		log:       logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Hydrate loads both tokens from durable storage into memory. It is meant to
// be called once on start; the getters hydrate lazily anyway. Once memory
// holds the session, Hydrate does nothing.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrateLocked(ctx)
}

func (s *Store) hydrateLocked(ctx context.Context) error {
	if s.hydrated {
		return nil
	}
	values, err := s.repo(s.db).List(ctx)
	if err != nil {
		return err
	}
	s.access, s.refresh = string(values[AccessTokenKey]), string(values[RefreshTokenKey])
	s.hydrated = true
	return nil
}

// SetTokens stores both values in memory and in durable storage. An empty
// value clears that token in both places. Memory is updated even when the
// durable write fails; the write error is returned.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.access, s.refresh = access, refresh
	s.hydrated = true
	return s.persistLocked(ctx, access, refresh)
}

func (s *Store) persistLocked(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if err := putOrDelete(ctx, repo, AccessTokenKey, access); err != nil {
			return err
		}
		return putOrDelete(ctx, repo, RefreshTokenKey, refresh)
	})
}

func putOrDelete(ctx context.Context, repo metadata.Repository, key, value string) error {
	if value == "" {
		return repo.Delete(ctx, key)
	}
	return repo.Set(ctx, key, []byte(value))
}

// AccessToken returns the current access token or "" when there is none.
func (s *Store) AccessToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
	return s.access
}

// RefreshToken returns the current refresh token or "" when there is none.
func (s *Store) RefreshToken(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
	return s.refresh
}

// loadLocked hydrates memory on first access. A read error is logged and the
// session reported as absent; the next access tries again.
func (s *Store) loadLocked(ctx context.Context) {
	if err := s.hydrateLocked(ctx); err != nil {
		s.log.Warn(ctx, "failed to read tokens from storage", "error", err)
	}
}

// Authenticated reports whether both tokens are present.
func (s *Store) Authenticated(ctx context.Context) bool {
	return s.AccessToken(ctx) != "" && s.RefreshToken(ctx) != ""
}

// IsTokenValid reports whether the access token decodes and expires later
// than now plus ValidityMargin. Absent or malformed tokens are invalid.
func (s *Store) IsTokenValid(ctx context.Context) bool {
	exp, ok := ExpiresAt(s.AccessToken(ctx))
	if !ok {
		return false
	}
	return s.now().Add(ValidityMargin).Before(exp)
}

// Clear drops both tokens from memory and durable storage and forgets any
// refresh in flight. Memory stays cleared even when the storage delete
// fails; the error is returned.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	return s.repo(s.db).Delete(ctx, AccessTokenKey, RefreshTokenKey)
}

func (s *Store) clearLocked() {
	s.access, s.refresh = "", ""
	s.hydrated = true
	s.epoch++
	s.group.Forget(refreshKey)
}
