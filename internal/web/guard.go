// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/div176/div176/internal/auth"
	"github.com/div176/div176/internal/observability"
)

// AuthCookie is the name of the cookie carrying the session token.
const AuthCookie = "authorization"

// Ctx is the per-request authenticated context handed to handlers.
// It lives only for the duration of one request and is never persisted.
type Ctx struct {
	UserID int64
}

type ctxKey struct{}

// FromContext extracts the authenticated context, if the guard ran.
func FromContext(ctx context.Context) (Ctx, bool) {
	c, ok := ctx.Value(ctxKey{}).(Ctx)
	return c, ok
}

// SessionResolver resolves a session token to a user id.
// *auth.Service satisfies it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (int64, error)
}

// Fallback declares how a route answers a rejected request. The guard
// itself only classifies; the route decides the HTTP consequence.
type Fallback int

const (
	// FallbackRedirect sends rejected requests to the login page.
	// Used by HTML pages.
	FallbackRedirect Fallback = iota

	// FallbackError answers rejected requests with the unauthorized
	// error body. Used by non-navigational routes.
	FallbackError
)

// Guard is the per-request authentication gate.
type Guard struct {
	resolver SessionResolver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewGuard creates a Guard. metrics may be nil.
func NewGuard(resolver SessionResolver, metrics *observability.Metrics, logger *slog.Logger) (*Guard, error) {
	if resolver == nil {
		return nil, oops.Code("GUARD_NIL_DEPENDENCY").Errorf("session resolver is required")
	}
	if logger == nil {
		return nil, oops.Code("GUARD_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Guard{resolver: resolver, metrics: metrics, logger: logger}, nil
}

// Require wraps next so it only runs for authenticated requests.
//
// Missing cookie and unknown token both reach the route's declared
// fallback; the distinction (no_token vs invalid_token) exists only in
// logs and metrics, never in the response. A storage failure during
// resolution is an internal error, not a rejection: the client gets a
// 500, not a login redirect, so "not logged in" and "auth backend down"
// stay distinguishable for operators.
func (g *Guard) Require(fallback Fallback, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already authenticated by an outer guard on this request.
		if _, ok := FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || cookie.Value == "" {
			g.reject(w, r, fallback, "no_token")
			return
		}

		userID, err := g.resolver.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidSession) {
				g.reject(w, r, fallback, "invalid_token")
				return
			}
			WriteError(w, r, g.logger, Internal(err))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, Ctx{UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, fallback Fallback, reason string) {
	g.logger.InfoContext(r.Context(), "request rejected",
		"path", r.URL.Path,
		"reason", reason,
	)
	if g.metrics != nil {
		g.metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
	}

	switch fallback {
	case FallbackRedirect:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		WriteError(w, r, g.logger, Unauthorized())
	}
}
