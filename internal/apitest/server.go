// Package apitest runs an in-process fake of the CashTrack REST API for
// tests. It issues real HS256 tokens, checks them on every protected route,
// counts refresh calls and can be switched into failure modes.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default credentials of the seeded admin account.
const (
	AdminEmail    = "admin@cashtrack.com"
	AdminPassword = "admin123"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

type claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Recorded is a request as seen by the fake.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type account struct {
	user     models.User
	password string
}

// Server is the fake API. URL() + "/api" is the base URL clients use.
type Server struct {
	*httptest.Server

	secret []byte

	mu           sync.Mutex
	now          func() time.Time
	accessTTL    time.Duration
	accounts     map[models.ID]*account
	categories   map[models.ID]models.Category
	transactions map[models.ID]models.Transaction
	history      []models.HistoryEntry
	reports      map[models.ID]models.ReportMetadata
	nextID       models.ID
	revoked      map[string]bool
	recorded     []Recorded

	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
	reject       atomic.Int32
	refreshGate  chan struct{}
}

// NewServer starts the fake and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:       []byte("apitest-" + uuid.NewString()),
		now:          time.Now,
		accessTTL:    defaultAccessTTL,
		accounts:     map[models.ID]*account{},
		categories:   map[models.ID]models.Category{},
		transactions: map[models.ID]models.Transaction{},
		reports:      map[models.ID]models.ReportMetadata{},
		revoked:      map[string]bool{},
		nextID:       100,
	}
	s.seed()

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root including the /api prefix.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) seed() {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.accounts[1] = &account{
		user:     models.User{ID: 1, Email: AdminEmail, Name: "Admin User", Role: models.RoleAdmin, Status: models.StatusActive, CreatedAt: &created},
		password: AdminPassword,
	}
	s.accounts[3] = &account{
		user:     models.User{ID: 3, Email: "user@cashtrack.com", Name: "Regular User", Role: models.RoleUser, Status: models.StatusActive, CreatedAt: &created},
		password: "user123",
	}
	s.categories[1] = models.Category{ID: 1, Name: "Ventes", Type: models.CategoryRecette, Color: "#10B981", Icon: "ShoppingBag"}
	s.categories[5] = models.Category{ID: 5, Name: "Loyer", Type: models.CategoryDepense, Color: "#EF4444", Icon: "Home"}
}

// SetClock replaces the clock used to issue and verify tokens.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (s *Server) SetAccessTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = d
}

// FailRefresh makes the refresh endpoint reject every token.
func (s *Server) FailRefresh(fail bool) { s.failRefresh.Store(fail) }

// RejectNext answers the next n protected requests with 401 whatever token
// they carry.
func (s *Server) RejectNext(n int) { s.reject.Store(int32(n)) }

// HoldRefresh blocks refresh responses until the returned func is called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// RefreshCalls is the number of requests the refresh endpoint received.
func (s *Server) RefreshCalls() int { return int(s.refreshCalls.Load()) }

// Requests returns the requests received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.recorded...)
}

// RequestsTo returns the recorded requests whose path equals path.
func (s *Server) RequestsTo(path string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// IssueTokens mints a fresh token pair for the user with the given email.
func (s *Server) IssueTokens(t testing.TB, email string) (access, refresh string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.accounts {
		if a.user.Email == email {
			access, refresh = s.issueLocked(id)
			return access, refresh
		}
	}
	t.Fatalf("apitest: unknown user %q", email)
	return "", ""
}

// MintAccess mints an access token for userID expiring at exp.
func (s *Server) MintAccess(t testing.TB, userID models.ID, exp time.Time) string {
	t.Helper()
	tok, err := s.sign(int64(userID), "access", exp)
	if err != nil {
		t.Fatalf("apitest: sign: %v", err)
	}
	return tok
}

// RevokeRefresh makes the refresh endpoint reject token.
func (s *Server) RevokeRefresh(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func (s *Server) issueLocked(id models.ID) (string, string) {
	now := s.now()
	access, _ := s.sign(int64(id), "access", now.Add(s.accessTTL))
	refresh, _ := s.sign(int64(id), "refresh", now.Add(defaultRefreshTTL))
	return access, refresh
}

func (s *Server) sign(userID int64, typ string, exp time.Time) (string, error) {
	c := claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) parse(token, typ string) (*claims, bool) {
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()

	c := &claims{}
	_, err := jwt.ParseWithClaims(token, c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(now))
	if err != nil || c.TokenType != typ {
		return nil, false
	}
	return c, true
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.recorded = append(s.recorded, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.reject.Load() > 0 && s.reject.Add(-1) >= 0 {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		ah := r.Header.Get("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		c, ok := s.parse(strings.TrimPrefix(ah, "Bearer "), "access")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), models.ID(c.UserID))))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", s.login)
		r.Post("/auth/refresh/", s.refresh)

		r.Group(func(r chi.Router) {
			r.Use(s.auth)

			r.Post("/auth/logout/", s.logout)
			r.Get("/auth/me/", s.me)

			r.Get("/auth/users/", s.listUsers)
			r.Post("/auth/users/", s.createUser)
			r.Get("/auth/users/{id}/", s.getUser)
			r.Patch("/auth/users/{id}/", s.updateUser)
			r.Delete("/auth/users/{id}/", s.deleteUser)
			r.Post("/auth/users/{id}/change-password/", s.changePassword)
			r.Post("/auth/users/{id}/toggle-status/", s.toggleStatus)

			r.Get("/categories/", s.listCategories)
			r.Post("/categories/", s.createCategory)
			r.Get("/categories/stats/", s.categoryStats)
			r.Get("/categories/{id}/", s.getCategory)
			r.Patch("/categories/{id}/", s.updateCategory)
			r.Delete("/categories/{id}/", s.deleteCategory)

			r.Get("/transactions/", s.listTransactions)
			r.Post("/transactions/", s.createTransaction)
			r.Get("/transactions/stats/", s.transactionStats)
			r.Get("/transactions/dashboard-stats/", s.dashboardStats)
			r.Get("/transactions/analytics/", s.analytics)
			r.Get("/transactions/history/", s.listHistory)
			r.Get("/transactions/{id}/", s.getTransaction)
			r.Patch("/transactions/{id}/", s.updateTransaction)
			r.Delete("/transactions/{id}/", s.deleteTransaction)

			r.Get("/transactions/reports/", s.listReports)
			r.Get("/transactions/reports/generate/", s.generateReport)
			r.Post("/transactions/reports/create/", s.createReport)
			r.Get("/transactions/reports/{id}/download/", s.downloadReport)
		})
	})
	return r
}
