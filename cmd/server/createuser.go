package main

import (
	"fmt"
	"log"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/models"
	"github.com/adi-253/parley/backend/internal/services"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/spf13/cobra"
)

var (
	newUsername string
	newEmail    string
	newPassword string
	newRole     string
)

// createUserCmd bootstraps accounts, typically the first admin.
var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create a user account with any role",
	Example: `  parley createuser --username root --email root@example.com --password s3cret-pass --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		s, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := services.NewUserService(s).Create(cmd.Context(), models.CreateUserRequest{
			Username: newUsername,
			Email:    newEmail,
			Password: newPassword,
			Role:     models.Role(newRole),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		log.Printf("Created %s user %s (%s)", u.Role, u.Username, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().StringVar(&newUsername, "username", "", "login name (required)")
	createUserCmd.Flags().StringVar(&newEmail, "email", "", "email address (required)")
	createUserCmd.Flags().StringVar(&newPassword, "password", "", "password, at least 8 characters (required)")
	createUserCmd.Flags().StringVar(&newRole, "role", string(models.RoleGuest), "guest, host, moderator or admin")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
}
