// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/div176/div176/internal/auth"
	authpg "github.com/div176/div176/internal/auth/postgres"
	"github.com/div176/div176/internal/config"
	"github.com/div176/div176/internal/logging"
	"github.com/div176/div176/internal/observability"
	"github.com/div176/div176/internal/store"
	"github.com/div176/div176/internal/web"
)

// shutdownTimeout bounds graceful shutdown of both servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the membership site",
		Long: `Run the web server and the observability (metrics/health)
server until interrupted.`,
		RunE: runServe,
	}

	// Flag names mirror config keys so posflag can overlay them.
	cmd.Flags().String("server.addr", "", "web server listen address")
	cmd.Flags().String("observability.addr", "", "metrics/health listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection string")
	cmd.Flags().String("log.format", "", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("div176", cmd.Root().Version, cfg.Log.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(ctx, store.Config{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		checkCtx, cancel := context.WithTimeout(ctx, store.DefaultAcquireTimeout)
		defer cancel()
		return db.Health(checkCtx) == nil
	})

	pool := db.Pool()
	authService, err := auth.NewServiceWithLogger(
		authpg.NewUserRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewArgon2idHasher(),
		logger,
	)
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	guard, err := web.NewGuard(authService, obsServer.Metrics(), logger)
	if err != nil {
		return err
	}

	handlers, err := web.NewHandlers(authService, db, renderer, obsServer.Metrics(), logger, cfg.Server.SecureCookies)
	if err != nil {
		return err
	}

	webServer, err := web.NewServer(cfg.Server.Addr, handlers, guard, obsServer.Metrics(), logger)
	if err != nil {
		return err
	}

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
	}

	webErrCh, err := webServer.Start()
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = obsServer.Stop(stopCtx) //nolint:errcheck // best effort, startup error takes precedence
		return oops.Code("SERVE_FAILED").With("operation", "start web server").Wrap(err)
	}

	logger.Info("div176 running",
		"web_addr", webServer.Addr(),
		"observability_addr", obsServer.Addr(),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-webErrCh:
		if serveErr != nil {
			runErr = oops.Code("SERVE_FAILED").With("server", "web").Wrap(serveErr)
		}
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			runErr = oops.Code("SERVE_FAILED").With("server", "observability").Wrap(serveErr)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := webServer.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := obsServer.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}
