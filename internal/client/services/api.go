// Package services contains the application services of the CashTrack
// client. Each service is a thin, typed facade over one group of REST
// endpoints; every call goes through the authenticated request pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
)

// API is the part of the request pipeline the services depend on.
// *client.HTTPClient implements it.
type API interface {
	Do(ctx context.Context, req *client.Request) (*client.Response, error)
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
