// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/div176/div176/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret!")
		require.NoError(t, err)

		valid, err := hasher.Verify("s3cret!", hash)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		hash, err := hasher.Hash("s3cret!")
		require.NoError(t, err)

		valid, err := hasher.Verify("wrong", hash)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("parameters come from the stored hash", func(t *testing.T) {
		// Hashed with m=1024,t=2,p=1 - not the current defaults.
		// Verification must parse and honour these.
		legacy := "$argon2id$v=19$m=1024,t=2,p=1$c29tZXNhbHRzb21lc2E$kCXUjmjvc5XKqQKvtM1DQTm6jPtUggSEKDdyUHmRHfA"

		_, err := hasher.Verify("whatever", legacy)
		// The parse must succeed even though the digest won't match.
		require.NoError(t, err)
	})

	t.Run("malformed hash is an error, not a mismatch", func(t *testing.T) {
		tests := []struct {
			name string
			hash string
		}{
			{"empty", ""},
			{"not a PHC string", "plainly-not-a-hash"},
			{"wrong algorithm", "$bcrypt$v=19$m=1024,t=2,p=1$c2FsdA$aGFzaA"},
			{"missing sections", "$argon2id$v=19$m=1024,t=2,p=1"},
			{"bad parameters", "$argon2id$v=19$bogus$c2FsdA$aGFzaA"},
			{"bad salt encoding", "$argon2id$v=19$m=1024,t=2,p=1$!!$aGFzaA"},
			{"threads overflow", "$argon2id$v=19$m=1024,t=2,p=300$c2FsdA$aGFzaA"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := hasher.Verify("password", tt.hash)
				assert.Error(t, err)
			})
		}
	})
}
