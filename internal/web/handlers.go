// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/div176/div176/internal/auth"
	"github.com/div176/div176/internal/observability"
)

// LoginService performs the credential check and session issuance.
// *auth.Service satisfies it.
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// HealthChecker reports database reachability. *store.Store satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers holds the site's request handlers and their dependencies.
type Handlers struct {
	logins        LoginService
	health        HealthChecker
	renderer      *Renderer
	metrics       *observability.Metrics
	logger        *slog.Logger
	secureCookies bool
}

// NewHandlers creates the handler set. metrics may be nil.
func NewHandlers(logins LoginService, health HealthChecker, renderer *Renderer, metrics *observability.Metrics, logger *slog.Logger, secureCookies bool) (*Handlers, error) {
	if logins == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("login service is required")
	}
	if health == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("health checker is required")
	}
	if renderer == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("renderer is required")
	}
	if logger == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &Handlers{
		logins:        logins,
		health:        health,
		renderer:      renderer,
		metrics:       metrics,
		logger:        logger,
		secureCookies: secureCookies,
	}, nil
}

// LoginPage serves the public login form.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, "login", nil); err != nil {
		WriteError(w, r, h.logger, Internal(err))
	}
}

// Login handles the login form submission. On success it sets the
// session cookie and tells the client to navigate to the member area
// via an HX-Redirect header.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.recordLogin("error")
		WriteError(w, r, h.logger, ValidationFailed(map[string][]string{
			"body": {"request body must be form-encoded"},
		}))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	fields := make(map[string][]string)
	if username == "" {
		fields["username"] = append(fields["username"], "username is required")
	}
	if password == "" {
		fields["password"] = append(fields["password"], "password is required")
	}
	if len(fields) > 0 {
		h.recordLogin("error")
		WriteError(w, r, h.logger, ValidationFailed(fields))
		return
	}

	token, err := h.logins.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.recordLogin("unauthorized")
			WriteError(w, r, h.logger, Unauthorized())
			return
		}
		h.recordLogin("error")
		WriteError(w, r, h.logger, Internal(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)

	h.recordLogin("success")
}

// Home serves the protected member area. The guard runs first, so the
// authenticated context is always present here.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	c, ok := FromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, Unauthorized())
		return
	}

	h.logger.DebugContext(r.Context(), "serving member area", "user_id", c.UserID)
	if err := h.renderer.Render(w, "home", nil); err != nil {
		WriteError(w, r, h.logger, Internal(err))
	}
}

// Health reports database reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state := "healthy"
	status := http.StatusOK
	if err := h.health.Health(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		state = "unhealthy"
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	fmt.Fprintf(w, "<p>database: %s</p>", state)
}

func (h *Handlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
