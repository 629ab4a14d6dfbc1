package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// NewImportCmd loads a dataset file into the product store.
func NewImportCmd() *cobra.Command {
	var keyword, input string
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Import a dataset file into postgres",
		Example: "  oceanscout import --keyword \"yoga mat\" --input products.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, _ *CLIContext, rt *app.App) error {
				ds, err := loadDataset(input, keyword, cmd.InOrStdin())
				if err != nil {
					return err
				}
				if err := ds.Validate(); err != nil {
					return err
				}
				importer, err := rt.Importer(ctx)
				if err != nil {
					return err
				}
				n, err := importer.ReplaceKeyword(ctx, ds.Keyword, ds.Products)
				if err != nil {
					return err
				}
				if ds.Market != nil {
					if err := rt.MarketData.Save(ctx, ds.Market); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d products for %q\n", n, ds.Keyword)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "keyword the products belong to (overrides the file)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "dataset JSON file (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// NewMigrateCmd manages the postgres schema.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(cmd *cobra.Command, fn func(rt *app.App) error) error {
		return runWithRuntime(cmd, func(_ context.Context, _ *CLIContext, rt *app.App) error {
			if rt.Migrator() == nil {
				return errors.New(errors.ErrCodeServiceUnavailable, "postgres is not enabled")
			}
			return fn(rt)
		})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(rt *app.App) error {
					if err := rt.Migrator().Up(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down [STEPS]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return errors.Newf(errors.ErrCodeValidation, "invalid step count %q", args[0])
					}
					steps = n
				}
				return withMigrator(cmd, func(rt *app.App) error {
					if err := rt.Migrator().Down(steps); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(rt *app.App) error {
					version, dirty, err := rt.Migrator().Status()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}
