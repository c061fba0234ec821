package cmd

import (
	"fmt"

	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/jon4hz/khaki/internal/engine"
	"github.com/jon4hz/khaki/internal/policy"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show calendar statistics",
	Long:  `Display the first and last active day and the total hours of every user with a calendar.`,
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

		eng, err := engine.New(cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer eng.Close(cmd.Context()) //nolint:errcheck

		count, err := db.CountUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		rows, err := eng.UserOverview(cmd.Context(), policy.Actor{IsAdmin: true})
		if err != nil {
			return fmt.Errorf("failed to get user statistics: %w", err)
		}

		fmt.Println("Calendar Statistics:")
		fmt.Printf("Registered Users: %d\n", count)
		fmt.Printf("Users With Calendar: %d\n", len(rows))

		if len(rows) > 0 {
			fmt.Println("\nUsers:")
			for _, row := range rows {
				fmt.Printf("  %s (%s): first %s, last %s, total %s hours\n",
					row.Name, row.Username, row.FirstActive, row.LastActive, row.TotalDisplay)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
