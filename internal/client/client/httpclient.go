package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/logging"
	"github.com/dmitrijs2005/cashtrack/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// LoginPath is the login entry point the client is sent to once the session
// cannot be recovered.
const LoginPath = "/auth/login"

// RequestIDHeader carries a per-call id. A retried request keeps its id.
const RequestIDHeader = "X-Request-ID"

// maxAuthRetries bounds the refresh-and-resend cycles of a single call.
const maxAuthRetries = 1

const DefaultTimeout = 10 * time.Second

// TokenSource is the session the pipeline reads tokens from.
type TokenSource interface {
	AccessToken(ctx context.Context) string
	IsTokenValid(ctx context.Context) bool
	RefreshAccessToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Navigator moves the user to another entry point of the application.
type Navigator interface {
	RedirectToLogin(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, path string) { f(ctx, path) }

type Request struct {
	Method string
	// Path is relative to the API base URL, e.g. "/transactions/".
	Path  string
	Query url.Values
	// Body is sent as JSON when non-nil.
	Body   any
	Accept string
	// NoAuthRetry disables the refresh-and-resend cycle on 401. Login uses
	// it: there a 401 means wrong credentials.
	NoAuthRetry bool
}

type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Option func(*HTTPClient)

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func WithNavigator(n Navigator) Option {
	return func(c *HTTPClient) { c.nav = n }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.rest.SetTimeout(d) }
}

// HTTPClient is the authenticated request pipeline.
type HTTPClient struct {
	rest    *resty.Client
	tokens  TokenSource
	nav     Navigator
	log     logging.Logger
	metrics *metrics.Metrics
}

func NewHTTPClient(baseURL string, tokens TokenSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		tokens: tokens,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.nav == nil {
		c.nav = NavigatorFunc(func(ctx context.Context, path string) {
			c.log.Warn(ctx, "session lost, login required", "path", path)
		})
	}
	return c
}

// Do sends req through the pipeline.
//
// A valid access token is attached as is; one that is present but expiring
// is refreshed first. On 401 the session is refreshed and the request
// re-sent once with the new token. If that refresh fails the session is
// cleared, the navigator redirected to LoginPath, and the original error
// returned. Other failures are returned unchanged.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	requestID := uuid.NewString()
	return c.send(ctx, req, requestID, c.bearer(ctx), maxAuthRetries)
}

func (c *HTTPClient) send(ctx context.Context, req *Request, requestID, token string, retriesLeft int) (*Response, error) {
	resp, err := c.execute(ctx, req, requestID, token)
	if err == nil || retriesLeft <= 0 || req.NoAuthRetry || !errors.Is(err, ErrUnauthorized) {
		return resp, err
	}

	fresh, rerr := c.tokens.RefreshAccessToken(ctx)
	if rerr != nil {
		if ctx.Err() != nil {
			return resp, err
		}
		c.dropSession(ctx, requestID, rerr)
		return resp, err
	}

	c.metrics.ObserveRetry()
	c.log.Debug(ctx, "retrying after token refresh", "request_id", requestID, "path", req.Path)
	return c.send(ctx, req, requestID, fresh, retriesLeft-1)
}

// bearer picks the token to attach before sending: the current one if valid,
// a refreshed one if it is present but expiring, none otherwise.
func (c *HTTPClient) bearer(ctx context.Context) string {
	token := c.tokens.AccessToken(ctx)
	if token == "" {
		return ""
	}
	if c.tokens.IsTokenValid(ctx) {
		return token
	}

	fresh, err := c.tokens.RefreshAccessToken(ctx)
	if err != nil {
		c.log.Debug(ctx, "pre-request refresh failed, sending unauthenticated", "error", err)
		return ""
	}
	return fresh
}

func (c *HTTPClient) dropSession(ctx context.Context, requestID string, cause error) {
	c.log.Warn(ctx, "token refresh failed, clearing session", "request_id", requestID, "error", cause)
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error(ctx, "failed to clear session", "error", err)
	}
	c.metrics.ObserveRedirect()
	c.nav.RedirectToLogin(ctx, LoginPath)
}

func (c *HTTPClient) execute(ctx context.Context, req *Request, requestID, token string) (*Response, error) {
	r := c.rest.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)
	if token != "" {
		r.SetAuthToken(token)
	}
	if req.Accept != "" {
		r.SetHeader("Accept", req.Accept)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	res, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0)
		c.log.Debug(ctx, "api request failed", "request_id", requestID, "method", req.Method, "path", req.Path, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, req.Method, req.Path, err)
	}

	resp := &Response{
		Status:    res.StatusCode(),
		Header:    res.Header(),
		Body:      res.Body(),
		RequestID: requestID,
	}
	c.metrics.ObserveRequest(req.Method, resp.Status)
	c.log.Debug(ctx, "api request", "request_id", requestID, "method", req.Method, "path", req.Path, "status", resp.Status)

	if res.IsError() {
		return resp, newAPIError(resp.Status, resp.Body, requestID)
	}
	return resp, nil
}

// Get fetches path and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *HTTPClient) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *HTTPClient) Delete(ctx context.Context, path string) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *HTTPClient) call(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
