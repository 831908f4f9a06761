package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Categories(ctx context.Context, args []string) error
	Users(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Period(ctx context.Context, args []string) error
	Ledger(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Reports(ctx context.Context, args []string) error
	Report(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Metrics(ctx context.Context) error
	printf(format string, args ...any)
}

const (
	helpLoggedOut = "Available commands: login, metrics, help, exit"
	helpLoggedIn  = "Available commands: whoami, (l)ist, show, add, edit, delete, history, " +
		"categories, users, stats, period, ledger, reports, report, download, metrics, logout, exit"
)

// errNotLoggedIn is reported for commands that need a session.
var errNotLoggedIn = errors.New("not logged in, type 'login' first")

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF, on "exit"/"quit" or when ctx is canceled.
// Handler errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		a.printf("cashtrack %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			a.printf("\n")
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			a.printf("Bye!\n")
			return
		}
		if err := dispatch(ctx, a, cmd, args); err != nil {
			a.printf("error: %s\n", describe(err))
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			a.printf("%s\n", helpLoggedIn)
		} else {
			a.printf("%s\n", helpLoggedOut)
		}
		return nil
	case "login":
		return a.Login(ctx)
	case "metrics":
		return a.Metrics(ctx)
	}

	known := true
	switch cmd {
	case "logout", "whoami", "l", "list", "show", "add", "edit", "delete", "history",
		"categories", "users", "stats", "period", "ledger", "reports", "report", "download":
	default:
		known = false
	}
	if !known {
		a.printf("Unknown command: %s\n", cmd)
		return nil
	}
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.Whoami(ctx)
	case "l", "list":
		return a.List(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "add":
		return a.Add(ctx)
	case "edit":
		return a.Edit(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "history":
		return a.History(ctx, args)
	case "categories":
		return a.Categories(ctx, args)
	case "users":
		return a.Users(ctx, args)
	case "stats":
		return a.Stats(ctx)
	case "period":
		return a.Period(ctx, args)
	case "ledger":
		return a.Ledger(ctx, args)
	case "reports":
		return a.Reports(ctx, args)
	case "report":
		return a.Report(ctx, args)
	default:
		return a.Download(ctx, args)
	}
}

// usageError is returned when a command is called with bad arguments.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func usage(format string, args ...any) error {
	return usageError(fmt.Sprintf(format, args...))
}
