// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package auth

import (
	"context"
	"crypto/rand"

	"github.com/samber/oops"
)

// Session token configuration. 32 symbols over a 62-character alphabet
// is just over 190 bits of entropy, enough to make online guessing
// infeasible.
const (
	SessionTokenLength   = 32
	SessionTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Session binds a token to the user that logged in with it. Sessions
// have no expiry or revocation; once issued a token stays valid until
// its row is removed. One user may hold any number of concurrent
// sessions.
type Session struct {
	UserID int64
	Token  string
}

// NewSession creates a validated Session instance.
func NewSession(userID int64, token string) (*Session, error) {
	if userID <= 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID must be positive")
	}
	if token == "" {
		return nil, oops.Code("SESSION_INVALID_TOKEN").Errorf("token cannot be empty")
	}
	return &Session{UserID: userID, Token: token}, nil
}

// GenerateSessionToken creates a secure random alphanumeric token.
// Bytes from crypto/rand are mapped onto the alphabet by rejection
// sampling so every symbol is equally likely.
func GenerateSessionToken() (string, error) {
	const maxAccept = 248 // largest multiple of len(alphabet) below 256

	token := make([]byte, 0, SessionTokenLength)
	buf := make([]byte, SessionTokenLength*2)
	for len(token) < SessionTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
				With("operation", "crypto/rand.Read").
				Wrap(err)
		}
		for _, b := range buf {
			if b >= maxAccept {
				continue
			}
			token = append(token, SessionTokenAlphabet[int(b)%len(SessionTokenAlphabet)])
			if len(token) == SessionTokenLength {
				break
			}
		}
	}
	return string(token), nil
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session row. Fails only on storage errors.
	Create(ctx context.Context, session *Session) error

	// GetByToken retrieves the session owning the given token.
	// Returns ErrNotFound for an unknown token; storage failures are
	// returned as-is so callers can tell the two apart.
	GetByToken(ctx context.Context, token string) (*Session, error)
}
