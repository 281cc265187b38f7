// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

// Package web is the HTTP boundary of the div176 site: route table,
// server lifecycle, the auth guard, the shared error taxonomy, and the
// HTML renderers for the public and member pages.
package web
