package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)

// Error codes as reported by the API in the "code" field, or derived from
// the HTTP status when the body carries none.
const (
	CodeNetworkError       = "NETWORK_ERROR"
	CodeTimeoutError       = "TIMEOUT_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   map[string]any
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// newAPIError builds an APIError from a failed response. The message is the
// body's "error" field, then "detail", then the field errors of a
// validation response, then the HTTP status text.
func newAPIError(status int, body []byte, requestID string) *APIError {
	e := &APIError{Status: status, RequestID: requestID}

	var details map[string]any
	if len(body) > 0 && json.Unmarshal(body, &details) == nil {
		e.Details = details
	}

	e.Code = stringField(details, "code")
	if e.Code == "" {
		e.Code = codeForStatus(status)
	}

	switch {
	case stringField(details, "error") != "":
		e.Message = stringField(details, "error")
	case stringField(details, "detail") != "":
		e.Message = stringField(details, "detail")
	case fieldErrors(details) != "":
		e.Message = fieldErrors(details)
	default:
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return e
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// fieldErrors renders validation errors such as {"email": ["required"]}.
func fieldErrors(m map[string]any) string {
	var parts []string
	for k, v := range m {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			continue
		}
		msg, ok := list[0].(string)
		if !ok {
			continue
		}
		if k == "non_field_errors" {
			parts = append(parts, msg)
		} else {
			parts = append(parts, k+": "+msg)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		return CodeInternalError
	}
	return ""
}

// ErrorKind is the coarse category user-facing messages are chosen by.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindServer   ErrorKind = "server"
	KindNotFound ErrorKind = "not-found"
	KindGeneric  ErrorKind = "generic"
)

// Classify maps err to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindGeneric
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case CodeNetworkError, CodeTimeoutError:
			return KindNetwork
		case CodeNotFound:
			return KindNotFound
		case CodeInternalError, CodeServiceUnavailable:
			return KindServer
		}
		return KindGeneric
	}

	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindGeneric
}
