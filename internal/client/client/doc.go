// Package client contains the client-side building blocks for talking to
// the CashTrack REST API.
//
// # Overview
//
// The package provides:
//  1. HTTPClient, the request pipeline every API call goes through. It
//     attaches a bearer token (refreshing it first when it is about to
//     expire), and on a 401 refreshes once and re-sends the request once.
//     When the refresh fails the session is cleared and the Navigator is
//     told to go back to the login entry point.
//  2. Refresher, the bare token refresh call used by the session store. It
//     never goes through the pipeline.
//  3. Local persistence bootstrap (InitDatabase) wiring the SQLite database
//     and applying embedded goose migrations.
//
// # Error Handling
//
// Failed responses are returned as *APIError, which matches the sentinel
// errors through errors.Is: ErrUnauthorized, ErrForbidden, ErrNotFound,
// ErrServer. Transport failures wrap ErrUnavailable. Classify reduces any
// error to the coarse kind user-facing messages are chosen by.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
