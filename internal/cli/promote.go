package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
)

// NewPromoteCmd sets a user's role. Roles are never changed over HTTP.
func NewPromoteCmd(configPath *string) *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Assign a role to an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			ctx := cmd.Context()
			cfg, logger, b, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer b.Close()

			if err := b.services(cfg, logger).Profiles.SetRole(ctx, userID, r); err != nil {
				return err
			}
			logger.Info("role assigned", zap.String("user_id", userID), zap.String("role", role))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", userID, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCoordinator), "participant or coordinator")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
