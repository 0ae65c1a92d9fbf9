package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"perpetua/internal/config"
	"perpetua/internal/database"
	"perpetua/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Apply or revert the Perpetua database schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *sqlx.DB, driver string) error {
			return database.MigrateUp(cmd.Context(), db, driver)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *sqlx.DB, driver string) error {
			return database.MigrateDown(cmd.Context(), db, driver)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(db *sqlx.DB, driver string) error {
			version, dirty, err := database.Version(db, driver)
			if errors.Is(err, database.ErrVersionUnsupported) {
				fmt.Fprintln(cmd.OutOrStdout(), "version tracking unavailable for", driver)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(versionCmd)
}

// withDB loads configuration, connects, and runs fn against the open database.
func withDB(ctx context.Context, fn func(db *sqlx.DB, driver string) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.Open(ctx, cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, cfg.DB.Driver)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}
