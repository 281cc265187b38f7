// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

// Package auth provides the credential and session subsystem for the
// Division 176 volunteer site.
//
// # Domain Types
//
// User is a volunteer account seeded out-of-band; this package never
// creates or mutates users during normal operation. Session binds a
// high-entropy token to a user id for the lifetime of the stored row.
//
// # Service
//
// Service coordinates the login flow (credential lookup, argon2id
// verification, session issuance) and per-request session resolution.
// Repository implementations live in the postgres subpackage; testify
// doubles live in mocks.
package auth
