// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/div176/div176/internal/auth"
	authpg "github.com/div176/div176/internal/auth/postgres"
	"github.com/div176/div176/internal/config"
	"github.com/div176/div176/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	username string
	password string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand. Volunteer accounts are only
// ever created here (or by an administrator); the site itself has no
// registration flow.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a volunteer account",
		Long: `Creates a volunteer account with the given username and password.
This command is idempotent - seeding an existing username is reported,
not treated as a failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "username for the new account (required)")
	cmd.Flags().StringVar(&cfg.password, "password", "", "password for the new account (required)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection string")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	if err := auth.ValidateUsername(seedCfg.username); err != nil {
		return err
	}
	if seedCfg.password == "" {
		return oops.Code("SEED_INVALID").Errorf("--password is required")
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	// Use cmd.Context() so SIGINT/SIGTERM still interrupt the run.
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.New(ctx, store.Config{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	hasher := auth.NewArgon2idHasher()
	passwordHash, err := hasher.Hash(seedCfg.password)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "hash password").Wrap(err)
	}

	users := authpg.NewUserRepository(db.Pool())
	user := &auth.User{
		Username:     seedCfg.username,
		PasswordHash: passwordHash,
	}

	if err := users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			cmd.Printf("Account %q already exists, skipping seed\n", seedCfg.username)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create user").Wrap(err)
	}

	cmd.Printf("Created account %q (uid %d)\n", user.Username, user.ID)
	return nil
}
