package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

var errBadCredentials = errors.New("invalid email or password")

func (a *App) Login(ctx context.Context) error {
	if u := a.currentUser(); u != nil {
		a.printf("Already logged in as %s, type 'logout' first\n", u.Email)
		return nil
	}

	email, err := a.ask("Email: ")
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password: ", a.out)
	if err != nil {
		return err
	}

	u, err := a.svc.Auth.Login(ctx, email, password)
	if err != nil {
		// prefer the server's own wording when there is one
		var apiErr *client.APIError
		if errors.Is(err, client.ErrUnauthorized) && !errors.As(err, &apiErr) {
			return errBadCredentials
		}
		return err
	}
	a.setUser(u)
	a.printf("Logged in as %s (%s)\n", u.DisplayName(), u.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.svc.Auth.Logout(ctx)
	a.setUser(nil)
	if err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

// allPermissions is the display order used by whoami.
var allPermissions = []models.Permission{
	models.PermViewDashboard,
	models.PermManageTransactions,
	models.PermManageCategories,
	models.PermManageUsers,
	models.PermViewAnalytics,
	models.PermViewReports,
	models.PermManageSettings,
}

func (a *App) Whoami(ctx context.Context) error {
	u, err := a.svc.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	a.setUser(u)

	var perms []string
	for _, p := range allPermissions {
		if u.Can(p) {
			perms = append(perms, string(p))
		}
	}

	a.printf("ID:          %s\n", u.ID)
	a.printf("Email:       %s\n", u.Email)
	a.printf("Name:        %s\n", orDash(u.Name))
	a.printf("Role:        %s\n", u.Role)
	a.printf("Status:      %s\n", orDash(string(u.Status)))
	a.printf("Permissions: %s\n", strings.Join(perms, ", "))
	return nil
}
