package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/app"
)

// NewCompareCmd ranks stored keywords against each other.
func NewCompareCmd() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:     "compare KEYWORD KEYWORD...",
		Short:   "Rank stored keywords by opportunity",
		Args:    cobra.MinimumNArgs(2),
		Example: "  oceanscout compare \"yoga mat\" \"yoga block\" \"yoga strap\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := checkOutput(output)
			if err != nil {
				return err
			}
			return runWithRuntime(cmd, func(ctx context.Context, _ *CLIContext, rt *app.App) error {
				ranked, err := rt.Analysis.Compare(ctx, args, !noCache)
				if err != nil {
					return err
				}
				if format == outputJSON {
					return printJSON(cmd, ranked)
				}
				fmt.Fprint(cmd.OutOrStdout(), comparisonTable(ranked))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached results")
	return cmd
}
