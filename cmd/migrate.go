package main

import (
	"fmt"

	"session_auth/internal/config"
	"session_auth/internal/repository/db"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Read(v)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDB(); err != nil {
		return err
	}

	ctx := cmd.Context()

	cmd.Printf("Connecting to %s database...\n", cfg.DB.Driver)
	conn, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	cmd.Println("Running migrations...")
	applied, err := db.Migrate(ctx, conn, cfg.DB.Driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cmd.Printf("Migrations completed successfully (applied: %v)\n", applied)
	return nil
}
