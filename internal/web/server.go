// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/div176/div176/internal/observability"
)

// Server is the public-facing web server.
type Server struct {
	addr       string
	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer assembles the route table and returns the server.
// Each inbound request is handled on its own goroutine by net/http; all
// cross-request state lives in the store, so no handler holds locks
// across I/O.
func NewServer(addr string, handlers *Handlers, guard *Guard, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if handlers == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("handlers are required")
	}
	if guard == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("guard is required")
	}
	if logger == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("logger is required")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", guard.Require(FallbackRedirect, http.HandlerFunc(handlers.Home)))
	mux.HandleFunc("GET /login", handlers.LoginPage)
	mux.HandleFunc("POST /login", handlers.Login)
	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /static/", StaticHandler())
	// Paths no route above claims get the taxonomy's not-found body
	// instead of the mux default.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, logger, NotFound())
	})

	return &Server{
		addr:    addr,
		handler: requestMetrics(metrics, mux),
		logger:  logger,
	}, nil
}

// Start begins serving requests. It returns an error channel that
// receives any serve-loop failure; the channel is closed on graceful
// stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the web server, letting in-flight requests
// finish until the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the bound address, or empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// requestMetrics counts requests by route pattern and status code.
// A nil metrics disables counting.
func requestMetrics(metrics *observability.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
