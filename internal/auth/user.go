// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package auth

import (
	"context"
	"regexp"

	"github.com/samber/oops"
)

// Username validation constraints, applied when seeding accounts.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User represents a volunteer account. Accounts are created out-of-band
// (the seed command or an administrator) and never mutated here.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// ValidateUsername validates a username against seeding rules.
// Lookup is exact and case-sensitive; these rules only gate creation.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username.
	// Returns ErrNotFound if no such user exists; absence is a normal
	// outcome, not a storage failure.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
