package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/campusnotify/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with JWT_SIGNING_KEY",
		Long:  "token prints a signed access token, useful for local testing of the stream and producer endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.App.JWTTokenTTL
			}

			svc, err := jwt.NewFromString(cfg.App.JWTSigningKey)
			if err != nil {
				return err
			}
			token, err := svc.Issue(jwt.Identity{UserID: userID, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", "student", "role claim (student, driver, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TOKEN_TTL)")
	return cmd
}
