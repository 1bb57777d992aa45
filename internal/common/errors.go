// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors. These block a request before any network call is made.
	ErrEmptyDescription = errors.New("product description is required")
	ErrEmptyQuestion    = errors.New("follow-up question is required")
	ErrUnauthorized     = errors.New("invalid password")
	ErrFollowUpDisabled = errors.New("follow-up questions are disabled")

	// Upstream errors from the embedding, vector, chat or feed providers.
	ErrUpstream = errors.New("upstream service error")

	// Content errors.
	ErrMalformedOutput = errors.New("malformed model output")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UpstreamError marks err as an upstream-service failure while keeping its text.
func UpstreamError(service string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUpstream, err)
}

// IsInputError reports whether err was caused by invalid user input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyDescription) ||
		errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrFollowUpDisabled)
}
