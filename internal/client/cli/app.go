package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/config"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Services is the backend the App drives. Reports is nil when the backend
// cannot produce report files.
type Services struct {
	Auth         services.AuthService
	Transactions services.TransactionService
	Categories   services.CategoryService
	Users        services.UserService
	Reports      services.ReportService
}

type App struct {
	cfg      *config.Config
	svc      Services
	log      logging.Logger
	gatherer prometheus.Gatherer
	reader   *bufio.Reader
	out      io.Writer
	now      func() time.Time
	mode     string

	mu     sync.Mutex
	user   *models.User
	period models.Period
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.reader = bufio.NewReader(r) }
}

func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithGatherer sets the registry read by the metrics command.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// WithMode labels the prompt, e.g. "demo".
func WithMode(mode string) Option {
	return func(a *App) { a.mode = mode }
}

func NewApp(cfg *config.Config, svc Services, opts ...Option) *App {
	a := &App{
		cfg:    cfg,
		svc:    svc,
		log:    logging.Nop(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.period = models.CurrentMonth(a.now())
	return a
}

// Run restores a persisted session, if any, and starts the shell. It
// returns when the input ends, the user exits or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	a.printf("Welcome to CashTrack CLI (type 'help' for commands)\n")
	a.restoreSession(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) restoreSession(ctx context.Context) {
	if !a.svc.Auth.Authenticated(ctx) {
		return
	}
	u, err := a.svc.Auth.CurrentUser(ctx)
	if err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
		return
	}
	a.setUser(u)
	a.printf("Logged in as %s\n", u.DisplayName())
}

// RedirectToLogin is called by the request pipeline once the session is
// gone for good.
func (a *App) RedirectToLogin(ctx context.Context, path string) {
	a.setUser(nil)
	a.log.Info(ctx, "session expired", "redirect", path)
	a.printf("Your session has expired. Type 'login' to sign in again.\n")
}

var _ client.Navigator = (*App)(nil)

func (a *App) setUser(u *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = u
}

func (a *App) currentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) isLoggedIn() bool {
	return a.currentUser() != nil
}

func (a *App) can(p models.Permission) bool {
	u := a.currentUser()
	return u != nil && u.Can(p)
}

func (a *App) getPeriod() models.Period {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.period
}

func (a *App) getStatus() string {
	s := ""
	if u := a.currentUser(); u != nil {
		s = u.Email
	}
	if a.mode != "" {
		if s != "" {
			s += " "
		}
		s += a.mode
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
