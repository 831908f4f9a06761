package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RefreshPath is the token refresh endpoint.
const RefreshPath = "/auth/refresh/"

// Refresher exchanges a refresh token for an access token. It uses its own
// HTTP client so the call never re-enters the authenticated pipeline.
type Refresher struct {
	rest *resty.Client
}

func NewRefresher(baseURL string, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Refresher{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// Refresh posts {refresh} and returns the "access" field of the answer. Any
// non-2xx status is an error; an empty access value is returned as "" with a
// nil error and left for the caller to judge.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	res, err := r.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refresh": refreshToken}).
		Post(RefreshPath)
	if err != nil {
		return "", fmt.Errorf("%w: refresh: %w", ErrUnavailable, err)
	}
	if res.IsError() {
		return "", newAPIError(res.StatusCode(), res.Body(), "")
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	return out.Access, nil
}
