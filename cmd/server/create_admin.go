package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/database"
	"github.com/iliyamo/store-rating-api/internal/logging"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/service"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

// newCreateAdminCmd bootstraps a system_admin.  Signup only ever creates
// normal users, so the first admin has to come from here.
func newCreateAdminCmd() *cobra.Command {
	var name, email, password, address string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a system_admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat, nil)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			db, err := database.Open(ctx, dbOptions(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			var addr *string
			if a := strings.TrimSpace(address); a != "" {
				addr = &a
			}
			users := service.NewUserService(repository.NewUserRepo(db), nil, nil,
				utils.NewBcryptHasher(cfg.BcryptCost), nil, log)
			id, err := users.Create(ctx, service.CreateUserInput{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
				Address:  addr,
				Role:     string(model.RoleSystemAdmin),
			})
			if err != nil {
				_, msg := apperr.Public(err)
				return fmt.Errorf("create admin: %s", msg)
			}
			log.Info().Uint64("user_id", id).Str("email", email).Msg("system admin created")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full name (20-60 characters)")
	f.StringVar(&email, "email", "", "login email")
	f.StringVar(&password, "password", "", "password (8-16 chars, one uppercase, one special)")
	f.StringVar(&address, "address", "", "optional address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
