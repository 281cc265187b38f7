// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/div176/div176/internal/auth"
	"github.com/div176/div176/internal/observability"
)

// startSite wires a full server against in-memory stubs: one known
// credential pair, one valid session token.
func startSite(t *testing.T) (*Server, *observability.Metrics) {
	t.Helper()

	const validToken = "h9AfMd5HLRZvvLX3mLuY0Gq4VQxQTJo1"

	logins := stubLogins{login: func(_ context.Context, username, password string) (string, error) {
		if username == "alice" && password == "pw" {
			return validToken, nil
		}
		return "", auth.ErrInvalidCredentials
	}}
	resolver := stubResolver{resolve: func(_ context.Context, token string) (int64, error) {
		if token == validToken {
			return 1, nil
		}
		return 0, auth.ErrInvalidSession
	}}

	renderer, err := NewRenderer()
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	handlers, err := NewHandlers(logins, stubHealth{}, renderer, metrics, discardLogger(), false)
	require.NoError(t, err)
	guard, err := NewGuard(resolver, metrics, discardLogger())
	require.NoError(t, err)

	srv, err := NewServer("127.0.0.1:0", handlers, guard, metrics, discardLogger())
	require.NoError(t, err)
	_, err = srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, srv.Stop(ctx))
	})

	return srv, metrics
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestServer_AnonymousHomeRedirectsToLogin(t *testing.T) {
	srv, metrics := startSite(t)

	resp, err := noRedirectClient().Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("GET /{$}", "303")))
}

func TestServer_LoginFlow(t *testing.T) {
	srv, _ := startSite(t)
	base := "http://" + srv.Addr()

	resp, err := noRedirectClient().PostForm(base+"/login", url.Values{
		"username": {"alice"},
		"password": {"pw"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("HX-Redirect"))
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)

	// The issued cookie now opens the member area.
	req, err := http.NewRequest(http.MethodGet, base+"/", nil)
	require.NoError(t, err)
	req.AddCookie(cookies[0])
	resp2, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Member Area")
}

func TestServer_StaleCookieRedirects(t *testing.T) {
	srv, _ := startSite(t)

	req, err := http.NewRequest(http.MethodGet, "http://"+srv.Addr()+"/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: strings.Repeat("x", 32)})
	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestServer_LoginPageIsPublic(t *testing.T) {
	srv, _ := startSite(t)

	resp, err := http.Get("http://" + srv.Addr() + "/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Volunteer Login")
}

func TestServer_StaticAssets(t *testing.T) {
	srv, _ := startSite(t)

	resp, err := http.Get("http://" + srv.Addr() + "/static/css/site.css")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")

	missing, err := http.Get("http://" + srv.Addr() + "/static/css/nope.css")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_UnmatchedRoute(t *testing.T) {
	srv, metrics := startSite(t)

	resp, err := http.Get("http://" + srv.Addr() + "/no-such-page")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "not found\n", string(body))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("/", "404")))
}
