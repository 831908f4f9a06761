package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
	"github.com/shopspring/decimal"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func userName(u *models.User) string {
	if u == nil {
		return "-"
	}
	return u.DisplayName()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// describe turns err into the line shown to the user.
func describe(err error) string {
	var u usageError
	var apiErr *client.APIError
	hasMessage := errors.As(err, &apiErr) && apiErr.Message != ""

	switch {
	case errors.As(err, &u), errors.Is(err, errNotLoggedIn), errors.Is(err, services.ErrInvalidInput):
		return err.Error()
	case hasMessage && apiErr.Status < 500 && apiErr.Status != 404:
		if apiErr.RequestID != "" {
			return fmt.Sprintf("%s (request %s)", apiErr.Message, apiErr.RequestID)
		}
		return apiErr.Message
	case errors.Is(err, client.ErrUnauthorized):
		return "authentication required, type 'login'"
	case errors.Is(err, client.ErrForbidden):
		return "you do not have permission to do that"
	}

	switch client.Classify(err) {
	case client.KindNetwork:
		return "cannot reach the server, check your connection"
	case client.KindServer:
		return "the server failed, try again later"
	case client.KindNotFound:
		if hasMessage {
			return apiErr.Message
		}
		return "not found"
	}
	return err.Error()
}
