package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"lapordesa/services/auth-service/models"
	"lapordesa/services/auth-service/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var getenv = os.Getenv

var errAdminExists = errors.New("account already exists, use --force to reset it")

type accountStore interface {
	// UpsertAdmin returns true when a new account was created.
	UpsertAdmin(ctx context.Context, email, name, passwordHash string, force bool) (bool, error)
}

type gormAccounts struct {
	db *gorm.DB
}

func (a *gormAccounts) UpsertAdmin(ctx context.Context, email, name, passwordHash string, force bool) (bool, error) {
	var created bool
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		err := tx.Where("email = ?", email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(&models.User{Email: email, Name: name, Password: passwordHash, Role: models.RoleAdmin}).Error
		}
		if err != nil {
			return err
		}
		if !force {
			return errAdminExists
		}
		return tx.Model(&u).Updates(map[string]interface{}{
			"name":     name,
			"password": passwordHash,
			"role":     models.RoleAdmin,
		}).Error
	})
	return created, err
}

func seedAdminCmd(e *env) *cobra.Command {
	var email, name, password string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the village admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				password = strings.TrimSpace(getenv("ADMIN_PASSWORD"))
			}
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters (--password or ADMIN_PASSWORD)")
			}

			hash, err := utils.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			accounts, err := e.accounts()
			if err != nil {
				return err
			}
			created, err := accounts.UpsertAdmin(cmd.Context(), email, name, hash, force)
			if err != nil {
				return err
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "reset admin %s\n", email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Admin Desa", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().BoolVar(&force, "force", false, "reset an existing account")
	return cmd
}
