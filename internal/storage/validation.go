package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/customs-ai/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidOutcome = errors.New("invalid ingestion outcome")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateOutcome(o model.Outcome) error {
	switch o {
	case model.OutcomeStored, model.OutcomeShort, model.OutcomeHTTPStatus, model.OutcomeNetwork:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, o)
	}
}
