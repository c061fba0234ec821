package cmd

import (
	"errors"
	"fmt"

	"github.com/jon4hz/khaki/internal/api/auth"
	"github.com/jon4hz/khaki/internal/config"
	"github.com/jon4hz/khaki/internal/database"
	"github.com/spf13/cobra"
)

var userAddCmdFlags struct {
	Name     string
	Email    string
	Password string
}

var userAddCmd = &cobra.Command{
	Use:     "useradd USERNAME",
	Short:   "Create a local user",
	Long:    `Create a local user that can log in with a username and password.`,
	Example: `khaki useradd alice --name "Alice" --email alice@example.com --password secret`,
	Args:    cobra.ExactArgs(1),
	RunE:    userAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userAddCmdFlags.Name, "name", "", "Display name of the user")
	userAddCmd.Flags().StringVar(&userAddCmdFlags.Email, "email", "", "Email address of the user")
	userAddCmd.Flags().StringVar(&userAddCmdFlags.Password, "password", "", "Password of the user")
	_ = userAddCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(userAddCmd)
}

func userAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	username := args[0]
	req := auth.RegisterRequest{
		Name:     userAddCmdFlags.Name,
		Email:    userAddCmdFlags.Email,
		Username: username,
		Password: userAddCmdFlags.Password,
	}
	if req.Name == "" {
		req.Name = username
	}
	if req.Email == "" {
		req.Email = username + "@localhost"
	}

	user, err := auth.NewLocalProvider(cfg, db).Register(cmd.Context(), req)
	if errors.Is(err, database.ErrDuplicateUsername) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
	return nil
}
