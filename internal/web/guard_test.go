// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/div176/div176/internal/auth"
	"github.com/div176/div176/internal/observability"
)

type stubResolver struct {
	resolve func(ctx context.Context, token string) (int64, error)
}

func (s stubResolver) ResolveSession(ctx context.Context, token string) (int64, error) {
	return s.resolve(ctx, token)
}

func newTestGuard(t *testing.T, resolve func(context.Context, string) (int64, error)) (*Guard, *observability.Metrics) {
	t.Helper()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	guard, err := NewGuard(stubResolver{resolve: resolve}, metrics, discardLogger())
	require.NoError(t, err)
	return guard, metrics
}

func TestNewGuard_RequiresDependencies(t *testing.T) {
	_, err := NewGuard(nil, nil, discardLogger())
	assert.Error(t, err)

	_, err = NewGuard(stubResolver{}, nil, nil)
	assert.Error(t, err)
}

func TestGuard_ValidTokenReachesHandler(t *testing.T) {
	guard, _ := newTestGuard(t, func(_ context.Context, token string) (int64, error) {
		assert.Equal(t, "sometoken", token)
		return 42, nil
	})

	var seen Ctx
	handler := guard.Require(FallbackRedirect, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = c
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "sometoken"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), seen.UserID)
}

func TestGuard_MissingCookieRedirects(t *testing.T) {
	guard, metrics := newTestGuard(t, func(context.Context, string) (int64, error) {
		t.Fatal("resolver must not be called without a cookie")
		return 0, nil
	})

	handler := guard.Require(FallbackRedirect, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GuardRejectionsTotal.WithLabelValues("no_token")))
}

func TestGuard_UnknownTokenRedirects(t *testing.T) {
	guard, metrics := newTestGuard(t, func(context.Context, string) (int64, error) {
		return 0, auth.ErrInvalidSession
	})

	handler := guard.Require(FallbackRedirect, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "stale-token-from-an-old-session0"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Outwardly identical to the missing-cookie case.
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GuardRejectionsTotal.WithLabelValues("invalid_token")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.GuardRejectionsTotal.WithLabelValues("no_token")))
}

func TestGuard_StoreFailureIsInternalNotRedirect(t *testing.T) {
	guard, metrics := newTestGuard(t, func(context.Context, string) (int64, error) {
		return 0, errors.New("connection pool exhausted")
	})

	handler := guard.Require(FallbackRedirect, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "sometoken"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.GuardRejectionsTotal.WithLabelValues("invalid_token")))
}

func TestGuard_ErrorFallbackAnswers401(t *testing.T) {
	guard, _ := newTestGuard(t, func(context.Context, string) (int64, error) {
		return 0, auth.ErrInvalidSession
	})

	handler := guard.Require(FallbackError, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required\n", rec.Body.String())
}

func TestGuard_SkipsResolutionWhenAlreadyAuthenticated(t *testing.T) {
	guard, _ := newTestGuard(t, func(context.Context, string) (int64, error) {
		t.Fatal("resolver must not run again for an authenticated request")
		return 0, nil
	})

	handler := guard.Require(FallbackRedirect, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(7), c.UserID)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, Ctx{UserID: 7}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
