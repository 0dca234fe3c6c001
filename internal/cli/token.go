package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cohort-portal-service/internal/config"
	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/identity"
)

// NewTokenCmd mints an ID token signed with the configured secret, for local
// development against the API.
func NewTokenCmd(configPath *string) *cobra.Command {
	var id domain.Identity
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development ID token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.TokenSecret == "" {
				return errors.New("TOKEN_SECRET is not set")
			}
			if ttl == 0 {
				ttl = config.TTLDuration(cfg.Auth.TokenTTL, time.Hour)
			}
			token, err := identity.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.Issuer, ttl).Issue(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UserID, "sub", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.DisplayName, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
