// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the div176 CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "div176",
		Short: "div176 - membership site for St. John Ambulance Division 176",
		Long: `div176 serves the Division 176 volunteer membership site:
server-rendered pages behind cookie-based session authentication,
backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
