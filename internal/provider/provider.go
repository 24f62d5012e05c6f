// Package provider talks to generative-model APIs. Clients make exactly one
// request per call; retry policy belongs to the caller.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Name identifies a provider backend.
type Name string

const (
	Anthropic Name = "anthropic"
	Gemini    Name = "gemini"
)

// Names lists the supported providers.
var Names = []Name{Anthropic, Gemini}

// Valid reports whether n is a supported provider.
func (n Name) Valid() bool {
	return n == Anthropic || n == Gemini
}

var (
	ErrMissingAPIKey = errors.New("provider: API key not configured")
	ErrEmptyResponse = errors.New("provider: empty completion")
)

// Request is a single completion request.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Response carries the completion text and token usage.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client completes prompts against one provider.
type Client interface {
	Provider() Name
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Factory builds a client for an API key. Keys are per caller, so clients
// are built per call.
type Factory func(ctx context.Context, apiKey string) (Client, error)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   Name
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, body)
}

// RateLimited reports whether err is an HTTP 429 and any Retry-After hint.
func RateLimited(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		return se.RetryAfter, true
	}
	return 0, false
}

// Unauthorized reports whether err means the credential was rejected.
func Unauthorized(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
