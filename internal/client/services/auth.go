package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
)

// Session is the token store as seen by AuthService.
type Session interface {
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
	Authenticated(ctx context.Context) bool
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the token pair.
//   - Logout: notify the server, then drop the local session whatever the
//     server said.
//   - CurrentUser: fetch the profile of the logged-in user.
//   - Authenticated: report whether a token pair is held locally.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	Authenticated(ctx context.Context) bool
}

type authService struct {
	api     API
	session Session
	log     logging.Logger
}

// NewAuthService constructs an AuthService bound to the given pipeline and
// session store.
func NewAuthService(api API, session Session, log logging.Logger) AuthService {
	return &authService{api: api, session: session, log: log}
}

// Login posts the credentials and stores the returned tokens. A 401 from
// the login endpoint means wrong credentials, so the call opts out of the
// refresh-and-retry cycle.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	resp, err := a.api.Do(ctx, &client.Request{
		Method:      http.MethodPost,
		Path:        "/auth/login/",
		Body:        map[string]string{"email": email, "password": password},
		NoAuthRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var out models.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if out.Access == "" || out.Refresh == "" {
		return nil, fmt.Errorf("login: response carries no tokens")
	}

	if err := a.session.SetTokens(ctx, out.Access, out.Refresh); err != nil {
		return nil, fmt.Errorf("login: save session: %w", err)
	}
	a.log.Info(ctx, "logged in", "user", out.User.Email)
	return &out.User, nil
}

// Logout is best effort towards the server: its failure is logged and the
// local session is cleared anyway.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.api.Post(ctx, "/auth/logout/", nil, nil); err != nil {
		a.log.Warn(ctx, "server logout failed", "error", err)
	}
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.api.Get(ctx, "/auth/me/", nil, &u); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &u, nil
}

func (a *authService) Authenticated(ctx context.Context) bool {
	return a.session.Authenticated(ctx)
}
