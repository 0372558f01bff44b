package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify returns nil if password matches hash.
	Verify(password, hash string) error
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// BcryptOption configures the bcrypt hasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost (default: bcrypt.DefaultCost).
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is empty")
	}
	if len(password) > 72 {
		return "", errors.New("auth: maximum password length is 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
