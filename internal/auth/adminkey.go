// Package auth — admin key verification.
//
// Feed publishing has no operator accounts; a single pre-shared key sent in
// the X-Admin-Key header authorizes it. Only the bcrypt hash of that key is
// configured on the server, so a leaked config file doesn't leak the key.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which makes brute-forcing the key from its
// hash expensive, and CompareHashAndPassword is constant-time, so response
// timing leaks nothing about how close a guess was.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyService verifies the operator key against its stored bcrypt hash.
type AdminKeyService struct {
	hash []byte
}

// NewAdminKeyService creates an AdminKeyService from a bcrypt hash string.
// An empty hash is allowed and disables the admin surface entirely: Verify
// then rejects every key.
//
// Generate the hash once and put it in ADMIN_KEY_HASH:
//
//	htpasswd -bnBC 12 "" "the-key" | tr -d ':\n'
func NewAdminKeyService(hash string) (*AdminKeyService, error) {
	if hash != "" {
		// Fail at startup on a malformed hash, not on the first request.
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("auth: admin key hash is not a bcrypt hash: %w", err)
		}
	}
	return &AdminKeyService{hash: []byte(hash)}, nil
}

// Enabled reports whether an admin key hash is configured.
func (a *AdminKeyService) Enabled() bool {
	return len(a.hash) > 0
}

// Verify checks a presented key against the stored hash.
// Returns nil on a match, a non-nil error otherwise.
func (a *AdminKeyService) Verify(key string) error {
	if !a.Enabled() {
		return errors.New("auth: admin access is not configured")
	}
	if key == "" {
		return errors.New("auth: missing admin key")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: invalid admin key")
		}
		return fmt.Errorf("auth: comparing admin key hash: %w", err)
	}
	return nil
}
