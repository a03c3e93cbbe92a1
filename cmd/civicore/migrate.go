// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/civicore/civicore/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with up/down/version actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, or inspect schema migrations against the PostgreSQL database.`,
	}

	cmd.PersistentFlags().String("database_url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())

	return cmd
}

func migratorFromFlags(cmd *cobra.Command) (*store.Migrator, error) {
	databaseURL, err := cmd.Flags().GetString("database_url")
	if err != nil {
		return nil, oops.Wrap(err)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (--database_url or DATABASE_URL)")
	}
	return store.NewMigrator(databaseURL)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer migrator.Close()

			pending, err := migrator.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}

			if err := migrator.Up(); err != nil {
				return err
			}
			cmd.Printf("Applied %d migration(s)\n", len(pending))
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down drops all tables; re-run with --yes to confirm")
			}

			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if err := migrator.Down(); err != nil {
				return err
			}
			cmd.Println("Rolled back all migrations")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrator, err := migratorFromFlags(cmd)
			if err != nil {
				return err
			}
			defer migrator.Close()

			version, dirty, err := migrator.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				cmd.Println("No migrations applied")
				return nil
			}

			name, err := store.MigrationName(version)
			if err != nil {
				return err
			}
			if name == "" {
				cmd.Printf("Version: %d (unknown migration)\n", version)
			} else {
				cmd.Printf("Version: %d (%s)\n", version, name)
			}
			if dirty {
				cmd.Println("WARNING: migration state is dirty; manual intervention required")
			}
			return nil
		},
	}
}
