package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// NewCacheCmd manages the redis report cache.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the report cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop every cached analysis report",
		Long: "Cached reports are keyed by dataset content only.  Purge them after\n" +
			"changing the analysis configuration so that new runs pick it up.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, _ *CLIContext, rt *app.App) error {
				if rt.Redis == nil {
					return errors.New(errors.ErrCodeServiceUnavailable, "redis cache is not enabled")
				}
				n, err := rt.Analysis.PurgeCache(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached reports\n", n)
				return nil
			})
		},
	})
	return cmd
}
