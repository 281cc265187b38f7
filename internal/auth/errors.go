// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is the uniform failure for a login attempt,
// returned identically for an unknown username and a wrong password so
// clients cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidSession is returned when a presented token resolves to no
// stored session. Storage failures are never folded into this error.
var ErrInvalidSession = errors.New("invalid session token")
