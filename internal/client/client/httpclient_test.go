package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/apitest"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/session"
	"github.com/dmitrijs2005/cashtrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (n *navRecorder) RedirectToLogin(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *navRecorder) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type pipeline struct {
	srv     *apitest.Server
	client  *HTTPClient
	store   *session.Store
	nav     *navRecorder
	metrics *metrics.Metrics
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	ctx := context.Background()

	srv := apitest.NewServer(t)
	db, err := InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := metrics.New(nil)
	store := session.NewStore(db, NewRefresher(srv.BaseURL(), 5*time.Second), session.WithMetrics(m))
	nav := &navRecorder{}
	c := NewHTTPClient(srv.BaseURL(), store, WithNavigator(nav), WithMetrics(m), WithTimeout(5*time.Second))

	return &pipeline{srv: srv, client: c, store: store, nav: nav, metrics: m}
}

func (p *pipeline) login(t *testing.T) (access, refresh string) {
	t.Helper()
	access, refresh = p.srv.IssueTokens(t, apitest.AdminEmail)
	require.NoError(t, p.store.SetTokens(context.Background(), access, refresh))
	return access, refresh
}

func TestDo_AttachesValidToken(t *testing.T) {
	p := newPipeline(t)
	access, _ := p.login(t)

	var me models.User
	require.NoError(t, p.client.Get(context.Background(), "/auth/me/", nil, &me))

	assert.Equal(t, apitest.AdminEmail, me.Email)
	reqs := p.srv.RequestsTo("/api/auth/me/")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+access, reqs[0].Authorization)
	assert.NotEmpty(t, reqs[0].RequestID)
	assert.Zero(t, p.srv.RefreshCalls())
}

func TestDo_NoTokenSendsUnauthenticated(t *testing.T) {
	p := newPipeline(t)

	err := p.client.Get(context.Background(), "/auth/me/", nil, nil)

	require.ErrorIs(t, err, ErrUnauthorized)
	reqs := p.srv.RequestsTo("/api/auth/me/")
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Authorization)
	assert.Zero(t, p.srv.RefreshCalls())
	assert.Equal(t, []string{LoginPath}, p.nav.Paths())
}

func TestDo_ExpiredTokenRefreshedBeforeSend(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, refresh := p.login(t)
	expired := p.srv.MintAccess(t, 1, time.Now().Add(-time.Minute))
	require.NoError(t, p.store.SetTokens(ctx, expired, refresh))

	var page models.Page[models.Category]
	require.NoError(t, p.client.Get(ctx, "/categories/", nil, &page))

	assert.Equal(t, 1, p.srv.RefreshCalls())
	reqs := p.srv.RequestsTo("/api/categories/")
	require.Len(t, reqs, 1, "caller must never see a 401")
	assert.NotEqual(t, "Bearer "+expired, reqs[0].Authorization)
	assert.Equal(t, refresh, p.store.RefreshToken(ctx))
	assert.True(t, p.store.IsTokenValid(ctx))
}

func TestDo_RetriesOnceAfter401(t *testing.T) {
	p := newPipeline(t)
	p.login(t)
	p.srv.RejectNext(1)

	var me models.User
	require.NoError(t, p.client.Get(context.Background(), "/auth/me/", nil, &me))

	assert.Equal(t, apitest.AdminEmail, me.Email)
	assert.Equal(t, 1, p.srv.RefreshCalls())
	reqs := p.srv.RequestsTo("/api/auth/me/")
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].RequestID, reqs[1].RequestID)
	assert.NotEqual(t, reqs[0].Authorization, reqs[1].Authorization)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.AuthRetries))
	assert.Empty(t, p.nav.Paths())
}

func TestDo_Second401IsNotRetried(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.login(t)
	p.srv.RejectNext(2)

	resp, err := p.client.Do(ctx, &Request{Method: http.MethodGet, Path: "/auth/me/"})

	require.ErrorIs(t, err, ErrUnauthorized)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, 1, p.srv.RefreshCalls())
	assert.Len(t, p.srv.RequestsTo("/api/auth/me/"), 2)
	// the refresh worked, so the session stays
	assert.True(t, p.store.Authenticated(ctx))
	assert.Empty(t, p.nav.Paths())
}

func TestDo_RefreshRejectedClearsAndRedirects(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, refresh := p.login(t)
	expired := p.srv.MintAccess(t, 1, time.Now().Add(-time.Minute))
	require.NoError(t, p.store.SetTokens(ctx, expired, refresh))
	p.srv.RevokeRefresh(refresh)

	err := p.client.Get(ctx, "/transactions/", nil, nil)

	require.ErrorIs(t, err, ErrUnauthorized, "original error must reach the caller")
	assert.False(t, p.store.Authenticated(ctx))
	assert.Empty(t, p.store.AccessToken(ctx))
	assert.Empty(t, p.store.RefreshToken(ctx))
	assert.Equal(t, []string{LoginPath}, p.nav.Paths())
	assert.Equal(t, 1, p.srv.RefreshCalls())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.Redirects))
}

func TestDo_Non401ErrorsPassThrough(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.login(t)

	err := p.client.Get(ctx, "/transactions/9999/", nil, nil)

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, Classify(err))
	assert.Zero(t, p.srv.RefreshCalls())
	assert.True(t, p.store.Authenticated(ctx))
	assert.Len(t, p.srv.RequestsTo("/api/transactions/9999/"), 1)
}

func TestDo_NoAuthRetry(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.login(t)

	_, err := p.client.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        "/auth/login/",
		Body:        map[string]string{"email": apitest.AdminEmail, "password": "wrong"},
		NoAuthRetry: true,
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Email ou mot de passe incorrect", apiErr.Message)
	assert.Zero(t, p.srv.RefreshCalls())
	assert.True(t, p.store.Authenticated(ctx))
	assert.Empty(t, p.nav.Paths())
}

func TestDo_ServerDown(t *testing.T) {
	p := newPipeline(t)
	p.srv.Close()

	err := p.client.Get(context.Background(), "/categories/", nil, nil)

	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, KindNetwork, Classify(err))
	assert.Empty(t, p.nav.Paths())
}

func TestDo_ConcurrentExpiredCallsShareOneRefresh(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	_, refresh := p.login(t)
	require.NoError(t, p.store.SetTokens(ctx, p.srv.MintAccess(t, 1, time.Now().Add(-time.Minute)), refresh))
	release := p.srv.HoldRefresh()

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = p.client.Get(ctx, "/auth/me/", nil, nil)
		}(i)
	}

	require.Eventually(t, func() bool { return p.srv.RefreshCalls() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.srv.RefreshCalls())
}

func TestDo_CountsRequests(t *testing.T) {
	p := newPipeline(t)
	p.login(t)

	require.NoError(t, p.client.Get(context.Background(), "/auth/me/", nil, nil))
	_ = p.client.Get(context.Background(), "/transactions/424242/", nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.Requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.Requests.WithLabelValues("GET", "404")))
}

func TestResponse_Decode(t *testing.T) {
	var v struct{ A int }
	require.NoError(t, (&Response{}).Decode(&v))
	require.NoError(t, (&Response{Body: []byte(`{"A": 3}`)}).Decode(&v))
	assert.Equal(t, 3, v.A)
	require.Error(t, (&Response{Body: []byte(`{`)}).Decode(&v))
}
