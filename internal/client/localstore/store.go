// Package localstore is an in-memory CashTrack backend used by demo mode.
//
// It seeds a deterministic set of categories, users and transactions and
// serves them through the same service interfaces as the REST client.
// Every mutation of the transaction list recomputes all running balances
// from the opening balance.
package localstore

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/ledger"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/shopspring/decimal"
)

const (
	seedTransactions = 60
	seedUsers        = 25
)

type Option func(*Store)

// WithRand sets the source used to generate seed data.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithOpeningBalance(d decimal.Decimal) Option {
	return func(s *Store) { s.opening = d }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

type Store struct {
	mu      sync.RWMutex
	rng     *rand.Rand
	now     func() time.Time
	opening decimal.Decimal
	log     logging.Logger

	user       *models.User
	categories []models.Category
	users      []models.User
	entries    []ledger.Entry
	history    []models.HistoryEntry
	nextID     models.ID
}

// New builds a seeded store. Without WithRand the seed is fixed, so two
// stores built at the same instant hold the same data.
func New(opts ...Option) *Store {
	s := &Store{
		rng:     rand.New(rand.NewPCG(1, 2)),
		now:     time.Now,
		opening: ledger.DefaultOpeningBalance,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}

	s.categories = seedCategories()
	s.users = s.seedUsers()
	s.entries = ledger.Recalculate(s.seedTransactions(), s.opening)
	s.nextID = 1000
	return s
}

func (s *Store) Auth() services.AuthService               { return authView{s} }
func (s *Store) Transactions() services.TransactionService { return transactionView{s} }
func (s *Store) Categories() services.CategoryService     { return categoryView{s} }
func (s *Store) Users() services.UserService              { return userView{s} }

// Entries returns the ledger in chronological order.
func (s *Store) Entries() []ledger.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Summary returns the dashboard figures of the whole ledger.
func (s *Store) Summary() ledger.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Summarize(s.entries, s.now())
}

// HasPermission reports whether the logged-in user holds p. It is false
// when nobody is logged in.
func (s *Store) HasPermission(p models.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Can(p)
}

// requireLocked checks that a user is logged in and, when p is non-empty,
// holds p.
func (s *Store) requireLocked(p models.Permission) (*models.User, error) {
	if s.user == nil {
		return nil, client.ErrUnauthorized
	}
	if p != "" && !s.user.Can(p) {
		return nil, fmt.Errorf("%w: %s", client.ErrForbidden, p)
	}
	return s.user, nil
}

// recalculateLocked replaces the ledger with txns, balances recomputed in
// full.
func (s *Store) recalculateLocked(txns []models.Transaction) {
	s.entries = ledger.Recalculate(txns, s.opening)
}

func (s *Store) transactionsLocked() []models.Transaction {
	return ledger.Transactions(s.entries)
}

func (s *Store) newIDLocked() models.ID {
	s.nextID++
	return s.nextID
}

func (s *Store) categoryLocked(id models.ID) (models.Category, bool) {
	i := slices.IndexFunc(s.categories, func(c models.Category) bool { return c.ID == id })
	if i < 0 {
		return models.Category{}, false
	}
	return s.categories[i], true
}

type authView struct{ s *Store }

// Login accepts any non-empty password for a known email.
func (v authView) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", services.ErrInvalidInput)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	i := slices.IndexFunc(v.s.users, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
	if i < 0 {
		return nil, fmt.Errorf("login: %w", client.ErrUnauthorized)
	}
	u := v.s.users[i]
	v.s.user = &u
	v.s.log.Info(ctx, "demo login", "user", u.Email)
	return &u, nil
}

func (v authView) Logout(context.Context) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.user = nil
	return nil
}

func (v authView) CurrentUser(context.Context) (*models.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	u, err := v.s.requireLocked("")
	if err != nil {
		return nil, err
	}
	out := *u
	return &out, nil
}

func (v authView) Authenticated(context.Context) bool {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return v.s.user != nil
}
