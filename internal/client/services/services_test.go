package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/apitest"
	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/session"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/stretchr/testify/require"
)

type env struct {
	srv   *apitest.Server
	api   *client.HTTPClient
	store *session.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	srv := apitest.NewServer(t)
	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := session.NewStore(db, client.NewRefresher(srv.BaseURL(), 5*time.Second))
	nav := client.NavigatorFunc(func(context.Context, string) {})
	api := client.NewHTTPClient(srv.BaseURL(), store, client.WithNavigator(nav), client.WithTimeout(5*time.Second))
	return &env{srv: srv, api: api, store: store}
}

// loggedIn returns an env holding an admin session.
func loggedIn(t *testing.T) *env {
	t.Helper()
	e := newEnv(t)
	access, refresh := e.srv.IssueTokens(t, apitest.AdminEmail)
	require.NoError(t, e.store.SetTokens(context.Background(), access, refresh))
	return e
}

func (e *env) auth() AuthService {
	return NewAuthService(e.api, e.store, logging.Nop())
}
