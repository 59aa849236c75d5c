// Package secrets issues and verifies admin bearer tokens. A token has the
// form <adminID>.<secret>; only a bcrypt hash of the secret is stored.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	id "phishsim/pkg/domain"
	dErrors "phishsim/pkg/domain-errors"
)

// Cost is the bcrypt cost used for new hashes.
var Cost = bcrypt.DefaultCost

// Generate creates a cryptographically secure random secret.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of the provided secret.
func Hash(secret string) ([]byte, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
		}
		return nil, fmt.Errorf("could not hash secret: %w", err)
	}
	return hashed, nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret string, hash []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}

// Issue creates a token for adminID and the hash to store with the admin.
func Issue(adminID id.AdminID) (token string, hash []byte, err error) {
	secret, err := Generate()
	if err != nil {
		return "", nil, err
	}
	hash, err = Hash(secret)
	if err != nil {
		return "", nil, err
	}
	return adminID.String() + "." + secret, hash, nil
}

// Split separates a token into the admin id and its secret.
func Split(token string) (id.AdminID, string, error) {
	rawID, secret, ok := strings.Cut(token, ".")
	if !ok || secret == "" {
		return id.AdminID{}, "", dErrors.New(dErrors.CodeUnauthorized, "malformed token")
	}
	adminID, err := id.ParseAdminID(rawID)
	if err != nil {
		return id.AdminID{}, "", dErrors.New(dErrors.CodeUnauthorized, "malformed token")
	}
	return adminID, secret, nil
}
