package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cohort-portal-service/internal/seed"
)

// NewSeedCmd loads profile and lesson fixtures into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load profiles and lessons from a YAML fixtures file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			fixtures, err := seed.Parse(f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, logger, b, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			defer b.Close()

			svc := b.services(cfg, logger)
			res, err := seed.Apply(ctx, fixtures, svc.Profiles, svc.Lessons)
			if err != nil {
				return err
			}
			logger.Info("fixtures loaded",
				zap.String("file", file),
				zap.Int("profiles", res.Profiles),
				zap.Int("lessons", res.Lessons),
				zap.Int("skipped", res.Skipped),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles, %d lessons (%d skipped)\n", res.Profiles, res.Lessons, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "fixtures.yaml", "path to the fixtures file")
	return cmd
}
