package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"text/tabwriter"

	"github.com/mgrier/stride/internal/models"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		role       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("user: name is required")
			}
			if role != models.RoleUser && role != models.RoleExpert {
				return fmt.Errorf("user: invalid role %q (must be %s or %s)", role, models.RoleUser, models.RoleExpert)
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			id, err := generateUserID()
			if err != nil {
				return err
			}
			user := models.User{ID: id, Name: name, Role: role}
			if email != "" {
				user.Email = &email
			}
			if err := gormDB.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s: %s (%s)\n", user.ID, user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "account role: user or expert")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var users []models.User
			if err := gormDB.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tEMAIL")
			for _, u := range users {
				email := "-"
				if u.Email != nil && *u.Email != "" {
					email = *u.Email
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, truncate(u.Name, 40), u.Role, email)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stride.yaml", "path to Stride config file")
	return cmd
}

func generateUserID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("user: generate ID: %w", err)
	}
	return "user-" + hex.EncodeToString(b)[:5], nil
}
