// Package errors provides custom error types for the chat backend client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrTokenLimit      = errors.New("token limit exceeded")
	ErrNotAllowed      = errors.New("feature not allowed")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrSessionClosed   = errors.New("session is closed")
	ErrBusyStreaming   = errors.New("a response is already streaming")
)

// Wire error codes returned by the backend.
const (
	CodeRateLimit          = "rate_limit_exceeded"
	CodeTokenLimit         = "token_limit_exceeded"
	CodeUltimateNotAllowed = "ultimate_not_allowed"
)

// NetworkError represents a transport-level failure (connection refused,
// reset, timeout). These are recovered locally via reconnect where possible.
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{Op: op, Endpoint: endpoint, Err: err}
}

// APIError represents an API request failure
type APIError struct {
	StatusCode int
	Endpoint   string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Code)
	}
	return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Code:       code,
		Message:    message,
	}
}

// RateLimitError indicates the per-key request quota was exhausted
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded: %s", e.Message)
}

// Is allows comparison with the ErrRateLimited sentinel
func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimited {
		return true
	}
	_, ok := target.(*RateLimitError)
	return ok
}

// TokenLimitError indicates the token quota was exhausted
type TokenLimitError struct {
	Message string
}

func (e *TokenLimitError) Error() string {
	if e.Message == "" {
		return "token limit exceeded"
	}
	return fmt.Sprintf("token limit exceeded: %s", e.Message)
}

// Is allows comparison with the ErrTokenLimit sentinel
func (e *TokenLimitError) Is(target error) bool {
	if target == ErrTokenLimit {
		return true
	}
	_, ok := target.(*TokenLimitError)
	return ok
}

// NotAllowedError indicates the account's tier does not permit the request,
// e.g. ultimate mode on a non-ultimate account
type NotAllowedError struct {
	Message string
}

func (e *NotAllowedError) Error() string {
	if e.Message == "" {
		return "feature not allowed"
	}
	return fmt.Sprintf("feature not allowed: %s", e.Message)
}

// Is allows comparison with the ErrNotAllowed sentinel
func (e *NotAllowedError) Is(target error) bool {
	if target == ErrNotAllowed {
		return true
	}
	_, ok := target.(*NotAllowedError)
	return ok
}

// StreamError is the terminal application-level failure of a streamed
// response. The in-progress content is discarded when it occurs.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream failed"
	}
	return fmt.Sprintf("stream failed: %s", e.Message)
}

// NewStreamError creates a new StreamError
func NewStreamError(message string) *StreamError {
	return &StreamError{Message: message}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with the ErrInvalidResponse sentinel
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message string) *ParseError {
	return &ParseError{Message: message}
}

// FromCode maps a wire error code to a typed error. Unknown codes map to an
// APIError so the user-facing fallback stays generic.
func FromCode(statusCode int, endpoint, code, message string) error {
	switch code {
	case CodeRateLimit:
		return &RateLimitError{Message: message}
	case CodeTokenLimit:
		return &TokenLimitError{Message: message}
	case CodeUltimateNotAllowed:
		return &NotAllowedError{Message: message}
	default:
		return NewAPIError(statusCode, endpoint, code, message)
	}
}

// UserMessage maps an error to user-facing guidance. Known policy errors get
// specific text; everything else falls back to a generic message so raw
// internals never leak into the conversation view.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "You're sending messages too quickly. Wait a moment and try again."
	case errors.Is(err, ErrTokenLimit):
		return "Your token quota is used up for now. Try again later."
	case errors.Is(err, ErrNotAllowed):
		return "Ultimate mode isn't available on your account."
	case isStreamError(err):
		var se *StreamError
		errors.As(err, &se)
		if se.Message != "" {
			return se.Message
		}
		return "The response failed partway through. Please resend your message."
	case isNetworkError(err):
		return "Network error. Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func isNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func isStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}
