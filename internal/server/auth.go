package server

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/customs-ai/internal/common"
)

// PasswordGate guards follow-up questions. A nil gate means follow-ups are
// disabled.
type PasswordGate struct {
	hash []byte
}

// NewPasswordGate builds a gate from a bcrypt hash or, failing that, a plain
// password hashed once here. With neither it returns nil.
func NewPasswordGate(plain, hash string) (*PasswordGate, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%w: followup.password_hash is not a bcrypt hash: %w", common.ErrInvalidConfig, err)
		}
		return &PasswordGate{hash: []byte(hash)}, nil
	}
	if plain == "" {
		return nil, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash follow-up password: %w", err)
	}
	return &PasswordGate{hash: h}, nil
}

// Check verifies password against the gate.
func (g *PasswordGate) Check(password string) error {
	if g == nil {
		return common.ErrFollowUpDisabled
	}
	err := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}
