package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortlink/internal/app"
)

var migrateTimeout time.Duration

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	Long: `Apply the embedded SQL migrations to the database configured by
DATABASE_URL (or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME).

Already applied versions are skipped, so running it repeatedly is safe. The
SQLite store creates its schema when it opens and needs no migration.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", 2*time.Minute, "Give up after this long")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := applyFlagOverrides(); err != nil {
		return err
	}

	cfg, logger, err := app.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), migrateTimeout)
	defer cancel()

	applied, err := app.Migrate(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	}
	for _, v := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
	}
	return nil
}
