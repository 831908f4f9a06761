package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	errs     map[string]error
	out      bytes.Buffer
}

func (f *fakeExec) record(name string, args ...string) error {
	call := name
	if len(args) > 0 {
		call += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, call)
	return f.errs[name]
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Whoami(context.Context) error { return f.record("whoami") }
func (f *fakeExec) List(_ context.Context, a []string) error { return f.record("list", a...) }
func (f *fakeExec) Show(_ context.Context, a []string) error { return f.record("show", a...) }
func (f *fakeExec) Add(context.Context) error { return f.record("add") }
func (f *fakeExec) Edit(_ context.Context, a []string) error { return f.record("edit", a...) }
func (f *fakeExec) Delete(_ context.Context, a []string) error { return f.record("delete", a...) }
func (f *fakeExec) Categories(_ context.Context, a []string) error {
	return f.record("categories", a...)
}
func (f *fakeExec) Users(_ context.Context, a []string) error { return f.record("users", a...) }
func (f *fakeExec) Stats(context.Context) error { return f.record("stats") }
func (f *fakeExec) Period(_ context.Context, a []string) error { return f.record("period", a...) }
func (f *fakeExec) Ledger(_ context.Context, a []string) error { return f.record("ledger", a...) }
func (f *fakeExec) History(_ context.Context, a []string) error { return f.record("history", a...) }
func (f *fakeExec) Reports(_ context.Context, a []string) error { return f.record("reports", a...) }
func (f *fakeExec) Report(_ context.Context, a []string) error { return f.record("report", a...) }
func (f *fakeExec) Download(_ context.Context, a []string) error { return f.record("download", a...) }
func (f *fakeExec) Metrics(context.Context) error { return f.record("metrics") }
func (f *fakeExec) printf(format string, args ...any) { fmt.Fprintf(&f.out, format, args...) }

func runLines(f *fakeExec, lines ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), f, func() string { return "" }, r)
}

func TestREPL_DispatchesCommands(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runLines(f, "l type=recette", "show 3", "", "add", "edit 3", "delete 3", "categories stats",
		"users toggle 2", "stats", "period month", "ledger all", "history action=created",
		"reports format=pdf", "report pdf monthly", "download 7", "metrics", "whoami", "logout")

	assert.Equal(t, []string{
		"list type=recette", "show 3", "add", "edit 3", "delete 3", "categories stats",
		"users toggle 2", "stats", "period month", "ledger all", "history action=created",
		"reports format=pdf", "report pdf monthly", "download 7", "metrics", "whoami", "logout",
	}, f.calls)
}

func TestREPL_RequiresLogin(t *testing.T) {
	f := &fakeExec{}
	runLines(f, "list", "help", "metrics")

	assert.Equal(t, []string{"metrics"}, f.calls)
	assert.Contains(t, f.out.String(), "error: not logged in")
	assert.Contains(t, f.out.String(), helpLoggedOut)
}

func TestREPL_HelpWhenLoggedIn(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runLines(f, "help")
	assert.Contains(t, f.out.String(), helpLoggedIn)
}

func TestREPL_UnknownCommand(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runLines(f, "frobnicate")
	assert.Empty(t, f.calls)
	assert.Contains(t, f.out.String(), "Unknown command: frobnicate")
}

func TestREPL_StopsOnExit(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runLines(f, "stats", "exit", "stats")
	assert.Equal(t, []string{"stats"}, f.calls)
	assert.Contains(t, f.out.String(), "Bye!")
}

func TestREPL_StopsOnCanceledContext(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runREPL(ctx, f, func() string { return "" }, bufio.NewReader(strings.NewReader("stats\n")))
	assert.Empty(t, f.calls)
}

func TestREPL_LastLineWithoutNewline(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	runREPL(context.Background(), f, func() string { return "" }, bufio.NewReader(strings.NewReader("stats")))
	assert.Equal(t, []string{"stats"}, f.calls)
}

func TestREPL_PrintsErrorsAndContinues(t *testing.T) {
	f := &fakeExec{loggedIn: true, errs: map[string]error{
		"stats": fmt.Errorf("dashboard: %w", client.ErrUnavailable),
	}}
	runLines(f, "stats", "whoami")

	assert.Equal(t, []string{"stats", "whoami"}, f.calls)
	assert.Contains(t, f.out.String(), "error: cannot reach the server")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"usage", usage("show <id>"), "usage: show <id>"},
		{"forbidden sentinel", fmt.Errorf("x: %w", client.ErrForbidden), "you do not have permission to do that"},
		{"unauthorized sentinel", client.ErrUnauthorized, "authentication required, type 'login'"},
		{"api message", &client.APIError{Status: 400, Message: "Montant invalide", RequestID: "r1"}, "Montant invalide (request r1)"},
		{"gone", &client.APIError{Status: 410, Message: "Le fichier du rapport n'existe plus"}, "Le fichier du rapport n'existe plus"},
		{"not found", &client.APIError{Status: 404, Code: client.CodeNotFound, Message: "Transaction introuvable"}, "Transaction introuvable"},
		{"server", &client.APIError{Status: 500, Code: client.CodeInternalError, Message: "boom"}, "the server failed, try again later"},
		{"network", &client.APIError{Code: client.CodeNetworkError}, "cannot reach the server, check your connection"},
		{"plain", errors.New("something else"), "something else"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}
