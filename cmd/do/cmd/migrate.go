package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/portfolio/internal/config"
	"github.com/templui/portfolio/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
					return db.RunMigrations(ctx, conn.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
					return db.MigrateDown(ctx, conn.DB, cfg.DBDriver)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
					version, err := db.Version(ctx, conn.DB, cfg.DBDriver)
					if err != nil {
						return err
					}
					fmt.Printf("driver: %s\nversion: %d\n", cfg.DBDriver, version)
					return nil
				})
			},
		},
	)

	return cmd
}

// withDB loads config from .env and the environment and opens the database
// for the duration of fn.
func withDB(ctx context.Context, fn func(context.Context, *config.Config, *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	conn, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()

	return fn(ctx, cfg, conn)
}
