package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Failure categories of the generative endpoint. Every error returned by a
// TextGenerator in this package wraps exactly one of them.
var (
	ErrBadRequest    = errors.New("invalid request")
	ErrForbidden     = errors.New("api key rejected")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstream      = errors.New("upstream error")
	ErrNoCandidates  = errors.New("no response generated")
	ErrEmptyResponse = errors.New("empty response")
)

// APIError is a non-2xx answer from a generative endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status=%d (%v) body=%s", e.Provider, e.StatusCode, e.Kind, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// ClassifyStatus maps an HTTP status from the provider to an *APIError.
func ClassifyStatus(provider string, status int, body string) error {
	kind := ErrUpstream
	switch status {
	case http.StatusBadRequest:
		kind = ErrBadRequest
	case http.StatusForbidden:
		kind = ErrForbidden
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	}
	return &APIError{Provider: provider, StatusCode: status, Body: body, Kind: kind}
}

// IsRetryable reports whether the user may simply try again later.
// Every generative failure is; configuration problems need a fix first.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrForbidden)
}

// UserMessage turns a generator error into the text shown to the user.
func UserMessage(err error) string {
	var apiErr *APIError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadRequest):
		return "Invalid request. Please check your API key or try again."
	case errors.Is(err, ErrForbidden):
		return "API key is invalid or doesn't have permission."
	case errors.Is(err, ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.Is(err, ErrNoCandidates):
		return "No response generated. Please try with different input."
	case errors.Is(err, ErrEmptyResponse):
		return "Empty response from AI. Please try again."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s API error: %d - %s", apiErr.Provider, apiErr.StatusCode, apiErr.Body)
	case errors.Is(err, context.DeadlineExceeded):
		return "The AI service took too long to respond. Please try again."
	case errors.As(err, &netErr):
		return "Network error. Please check your internet connection."
	default:
		return "Failed to get response. Please try again."
	}
}
