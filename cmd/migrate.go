package cmd

import (
	"fmt"

	"github.com/jon4hz/khaki/internal/api/auth"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run database migrations to set up or update the database schema and create the configured admin user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		if err := auth.SeedAdmin(cmd.Context(), cfg, db); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}

		fmt.Println("Database migrations completed successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
