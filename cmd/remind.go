package cmd

import (
	"fmt"

	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/engine"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the missing hours reminders now",
	Long:  `Mail every user without hours in the previous week of the editable window, independent of the configured schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cfg.EmailEnabled() {
			return fmt.Errorf("email is not enabled")
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		eng, err := engine.New(cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer eng.Close(cmd.Context()) //nolint:errcheck

		return eng.SendReminders(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
