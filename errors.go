// Package ratecap provides fixed-window rate limiting middleware for Chi
// routers and standard http.Handler chains.
//
// This file contains the structured error types used for JSON error
// responses. These types enable consistent, Stripe-style error handling
// when the Handler middleware manages response writing.
package ratecap

import (
	"fmt"
	"net/http"
	"time"
)

// APIError represents a structured API error response.
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

type errorResponse struct {
	Error *APIError `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Is implements errors.Is for comparing error types.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// With returns a copy of the error with a custom message.
func (e *APIError) With(message string) *APIError {
	if e == nil {
		return nil
	}
	dup := *e
	dup.Message = message
	return &dup
}

// Predefined sentinel errors
var (
	ErrBadRequest  = &APIError{Type: "request_error", Code: "bad_request", Message: "Bad request", Status: http.StatusBadRequest}
	ErrRateLimited = &APIError{Type: "rate_limit_error", Code: "limit_exceeded", Message: "Rate limit exceeded", Status: http.StatusTooManyRequests}
	ErrInternal    = &APIError{Type: "internal_error", Code: "internal", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// RateLimitedError reports that an identifier's count exceeded the threshold
// for the current window. Until is the instant the window expires and the
// caller may retry; zero when the backend does not report an expiry.
type RateLimitedError struct {
	Until time.Time
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.Until.IsZero() {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited until %d", e.Until.Unix())
}
