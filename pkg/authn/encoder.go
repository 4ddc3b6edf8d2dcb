package authn

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordEncoder hashes and verifies passwords
type PasswordEncoder interface {
	Encode(raw string) (string, error)
	Matches(raw, encoded string) bool
}

// BcryptEncoder stores passwords as bcrypt hashes
type BcryptEncoder struct {
	cost int
}

// NewBcryptEncoder creates an encoder. A cost of 0 selects bcrypt.DefaultCost.
func NewBcryptEncoder(cost int) *BcryptEncoder {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptEncoder{cost: cost}
}

// Encode hashes raw
func (e *BcryptEncoder) Encode(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), e.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Matches checks raw against a bcrypt hash
func (e *BcryptEncoder) Matches(raw, encoded string) bool {
	if encoded == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}

// NoopEncoder stores passwords as plain text. Development only.
type NoopEncoder struct{}

// Encode returns raw unchanged
func (NoopEncoder) Encode(raw string) (string, error) {
	return raw, nil
}

// Matches compares in constant time
func (NoopEncoder) Matches(raw, encoded string) bool {
	return subtle.ConstantTimeCompare([]byte(raw), []byte(encoded)) == 1
}
