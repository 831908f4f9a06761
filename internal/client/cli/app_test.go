package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/apitest"
	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/config"
	"github.com/dmitrijs2005/cashtrack/internal/client/localstore"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/dmitrijs2005/cashtrack/internal/client/session"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/dmitrijs2005/cashtrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DownloadDir = t.TempDir()
	return cfg
}

// noTerminal makes GetPassword read from the App's input.
func noTerminal(t *testing.T) {
	t.Helper()
	old := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = old })
}

func demoApp(t *testing.T, input string) (*App, *localstore.Store, *bytes.Buffer) {
	t.Helper()
	noTerminal(t)
	store := localstore.New(localstore.WithClock(clock))
	var out bytes.Buffer
	app := NewApp(testConfig(t), Services{
		Auth:         store.Auth(),
		Transactions: store.Transactions(),
		Categories:   store.Categories(),
		Users:        store.Users(),
	}, WithInput(strings.NewReader(input)), WithOutput(&out), WithClock(clock), WithMode("demo"))
	return app, store, &out
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestApp_DemoLoginAndBrowse(t *testing.T) {
	app, _, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "secret",
		"whoami", "list", "ledger", "stats", "categories", "exit",
	))
	app.Run(context.Background())

	s := out.String()
	assert.Contains(t, s, "Logged in as Admin User (admin)")
	assert.Contains(t, s, "cashtrack (admin@cashtrack.com demo)>")
	assert.Contains(t, s, "Permissions: view_dashboard, manage_transactions")
	assert.Contains(t, s, "manage_users")
	assert.Contains(t, s, "BALANCE")
	assert.Contains(t, s, "Opening balance: 5000000.00")
	assert.Contains(t, s, "Profit margin:")
	assert.Contains(t, s, "Ventes")
	assert.Contains(t, s, "Bye!")
	assert.NotContains(t, s, "error:")
}

func TestApp_UnknownEmailIsRejected(t *testing.T) {
	app, _, out := demoApp(t, script("login", "nobody@example.com", "x", "list"))
	app.Run(context.Background())

	assert.Contains(t, out.String(), "error: invalid email or password")
	assert.Contains(t, out.String(), "error: not logged in")
	assert.False(t, app.isLoggedIn())
}

func TestApp_AddTransactionUpdatesLedger(t *testing.T) {
	app, store, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "x",
		"add", "recette", "1500,50", "Vente comptoir", "VTE-TEST", "Client", "1",
	))
	before := store.Summary().CurrentBalance
	app.Run(context.Background())

	require.NotContains(t, out.String(), "error:")
	entries := store.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, "VTE-TEST", last.Ref)
	assert.Equal(t, "Ventes", last.CategoryName())
	assert.True(t, last.Balance.Equal(before.Add(decimal.RequireFromString("1500.50"))), last.Balance.String())
	assert.Contains(t, out.String(), "recorded, balance "+money(last.Balance))
}

func TestApp_AddRejectsBadAmount(t *testing.T) {
	app, store, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "x",
		"add", "depense", "-3",
	))
	count := len(store.Entries())
	app.Run(context.Background())

	assert.Contains(t, out.String(), "error: amount must be positive")
	assert.Len(t, store.Entries(), count)
}

func TestApp_EditSendsOnlyChanges(t *testing.T) {
	app, store, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "x",
		"edit 1", "", "999", "", "", "", "",
	))
	app.Run(context.Background())

	require.NotContains(t, out.String(), "error:")
	tx, err := store.Transactions().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, tx.Amount.Abs().Equal(decimal.NewFromInt(999)))
	assert.NotNil(t, tx.UpdatedAt)
}

func TestApp_DeleteAsksForConfirmation(t *testing.T) {
	app, store, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "x",
		"delete 1", "n",
		"delete 2", "y",
	))
	count := len(store.Entries())
	app.Run(context.Background())

	assert.Contains(t, out.String(), "Transaction 2 deleted")
	assert.NotContains(t, out.String(), "Transaction 1 deleted")
	assert.Len(t, store.Entries(), count-1)
}

func TestApp_RegularUserCannotManageUsers(t *testing.T) {
	app, _, out := demoApp(t, script("login", "user@cashtrack.com", "x", "users", "show 1"))
	app.Run(context.Background())

	assert.Contains(t, out.String(), "error: you do not have permission to do that")
	assert.Contains(t, out.String(), "Reference:")
}

func TestApp_Period(t *testing.T) {
	app, _, out := demoApp(t, script(
		"login", "admin@cashtrack.com", "x",
		"period",
		"period 2025-06-01 2025-06-10",
		"period 2025-06-10 2025-06-01",
		"period all",
		"period today",
		"period nope",
	))
	app.Run(context.Background())

	s := out.String()
	assert.Contains(t, s, "Period: 2025-06-01..2025-06-30")
	assert.Contains(t, s, "Period: 2025-06-01..2025-06-10")
	assert.Contains(t, s, "error: "+models.ErrInvalidPeriod.Error())
	assert.Contains(t, s, "Period: all")
	assert.Contains(t, s, "Period: 2025-06-15..2025-06-15")
	assert.Contains(t, s, "error: usage: period")
	assert.True(t, app.getPeriod().From.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestApp_LedgerMatchesStore(t *testing.T) {
	app, store, out := demoApp(t, script("login", "admin@cashtrack.com", "x", "ledger all"))
	app.Run(context.Background())

	sum := store.Summary()
	assert.Contains(t, out.String(), "60 of 60 entries, period all")
	assert.Contains(t, out.String(), "Balance: "+money(sum.CurrentBalance))
}

func TestApp_ReportsUnavailableInDemo(t *testing.T) {
	app, _, out := demoApp(t, script("login", "admin@cashtrack.com", "x", "report pdf"))
	app.Run(context.Background())
	assert.Contains(t, out.String(), "error: "+errNoReports.Error())
}

func TestApp_MetricsCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveRequest("GET", 200)
	m.ObserveRefresh(true)

	app, _, out := demoApp(t, script("metrics"))
	app.gatherer = reg
	app.Run(context.Background())

	assert.Contains(t, out.String(), "cashtrack_api_requests_total")
	assert.Contains(t, out.String(), "method=GET,status=200")
	assert.Contains(t, out.String(), "cashtrack_token_refreshes_total")
}

func TestApp_MetricsDisabled(t *testing.T) {
	app, _, out := demoApp(t, script("metrics"))
	app.Run(context.Background())
	assert.Contains(t, out.String(), "error: metrics are disabled")
}

type apiEnv struct {
	srv   *apitest.Server
	app   *App
	store *session.Store
	out   *bytes.Buffer
}

func newAPIApp(t *testing.T, input string) *apiEnv {
	t.Helper()
	noTerminal(t)
	ctx := context.Background()

	srv := apitest.NewServer(t)
	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := session.NewStore(db, client.NewRefresher(srv.BaseURL(), 5*time.Second))
	cfg := testConfig(t)

	var app *App
	nav := client.NavigatorFunc(func(ctx context.Context, path string) { app.RedirectToLogin(ctx, path) })
	api := client.NewHTTPClient(srv.BaseURL(), store, client.WithNavigator(nav), client.WithTimeout(5*time.Second))

	var out bytes.Buffer
	app = NewApp(cfg, Services{
		Auth:         services.NewAuthService(api, store, logging.Nop()),
		Transactions: services.NewTransactionService(api),
		Categories:   services.NewCategoryService(api),
		Users:        services.NewUserService(api),
		Reports:      services.NewReportService(api, cfg.DownloadDir, clock),
	}, WithInput(strings.NewReader(input)), WithOutput(&out), WithClock(clock))
	return &apiEnv{srv: srv, app: app, store: store, out: &out}
}

func TestApp_APILoginAndWrongPassword(t *testing.T) {
	e := newAPIApp(t, script(
		"login", apitest.AdminEmail, "wrong",
		"login", apitest.AdminEmail, apitest.AdminPassword,
		"users",
	))
	e.app.Run(context.Background())

	s := e.out.String()
	assert.Contains(t, s, "error: ")
	assert.Contains(t, s, "Logged in as Admin User (admin)")
	assert.Contains(t, s, "user@cashtrack.com")
	assert.True(t, e.store.Authenticated(context.Background()))
}

func TestApp_RestoresSavedSession(t *testing.T) {
	e := newAPIApp(t, script("whoami"))
	access, refresh := e.srv.IssueTokens(t, apitest.AdminEmail)
	require.NoError(t, e.store.SetTokens(context.Background(), access, refresh))

	e.app.Run(context.Background())

	assert.Contains(t, e.out.String(), "Logged in as Admin User")
	assert.Contains(t, e.out.String(), "Email:       "+apitest.AdminEmail)
}

func TestApp_SessionLossReturnsToLogin(t *testing.T) {
	e := newAPIApp(t, script(
		"login", apitest.AdminEmail, apitest.AdminPassword,
		"list",
		"list",
	))
	// login is not a protected route, so the rejection hits the first list
	e.srv.FailRefresh(true)
	e.srv.RejectNext(1)

	e.app.Run(context.Background())

	s := e.out.String()
	assert.Contains(t, s, "Your session has expired")
	assert.Contains(t, s, "error: not logged in")
	assert.False(t, e.app.isLoggedIn())
	assert.False(t, e.store.Authenticated(context.Background()))
}

func TestApp_GenerateAndDownloadReport(t *testing.T) {
	e := newAPIApp(t, script(
		"login", apitest.AdminEmail, apitest.AdminPassword,
		"period 2025-01-01 2025-12-31",
		"report pdf yearly",
		"reports",
	))
	e.app.Run(context.Background())

	s := e.out.String()
	require.NotContains(t, s, "error:")
	assert.Contains(t, s, "Report saved to ")
	files, err := os.ReadDir(e.app.cfg.DownloadDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".pdf", filepath.Ext(files[0].Name()))

	require.Len(t, e.srv.RequestsTo("/api/transactions/reports/create/"), 1)
	assert.Contains(t, s, files[0].Name())
}

func TestApp_DownloadMissingReport(t *testing.T) {
	e := newAPIApp(t, script(
		"login", apitest.AdminEmail, apitest.AdminPassword,
		"download 4242",
		"download x",
	))
	e.app.Run(context.Background())

	assert.Contains(t, e.out.String(), "error: ")
	assert.Contains(t, e.out.String(), `invalid id "x"`)
}
