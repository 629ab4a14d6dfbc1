package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type analyzeOptions struct {
	keyword string
	input   string
	output  string
	noCache bool
	async   bool
}

// NewAnalyzeCmd runs one analysis.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a keyword market",
		Long: "Analyze the products of a keyword.  The dataset comes from --input, or from\n" +
			"the product store when --input is omitted.  With --async the request is\n" +
			"queued for the worker instead of run locally.",
		Example: "  oceanscout analyze --keyword \"yoga mat\" --input products.json\n" +
			"  oceanscout analyze -k \"yoga mat\" -o json --no-cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := checkOutput(opts.output)
			if err != nil {
				return err
			}
			return runWithRuntime(cmd, func(ctx context.Context, cc *CLIContext, rt *app.App) error {
				if opts.async {
					return enqueueAnalysis(ctx, cmd, rt, opts)
				}
				r, err := runAnalysis(ctx, cmd, rt, opts.keyword, opts.input, !opts.noCache)
				if err != nil {
					return err
				}
				cc.Logger.Debug("Analysis finished", logging.String("run_id", r.RunID.String()))
				return printReport(cmd, r, format)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.keyword, "keyword", "k", "", "keyword to analyze")
	f.StringVarP(&opts.input, "input", "i", "", "dataset JSON file (\"-\" for stdin)")
	f.StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or table")
	f.BoolVar(&opts.noCache, "no-cache", false, "ignore cached results")
	f.BoolVar(&opts.async, "async", false, "queue the analysis on kafka instead of running it")
	return cmd
}

// runAnalysis runs the analysis of keyword, loading the dataset from input
// when set.
func runAnalysis(ctx context.Context, cmd *cobra.Command, rt *app.App, keyword, input string, useCache bool) (*analysis.Report, error) {
	req := analysis.Request{Keyword: keyword, UseCache: useCache}
	if input != "" {
		ds, err := loadDataset(input, keyword, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		req.Keyword, req.Products, req.Market = ds.Keyword, ds.Products, ds.Market
	} else if keyword == "" {
		return nil, errors.New(errors.ErrCodeDatasetKeywordMissing, "--keyword or --input is required")
	}
	return rt.Analysis.Run(ctx, req)
}

func enqueueAnalysis(ctx context.Context, cmd *cobra.Command, rt *app.App, opts *analyzeOptions) error {
	if rt.Producer == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "--async requires messaging.kafka.enabled")
	}
	if opts.input != "" {
		return errors.New(errors.ErrCodeValidation, "--async analyzes stored products; import the dataset first")
	}
	id, err := analysis.PublishRequest(ctx, rt.Producer, rt.Config.Messaging.Kafka.TopicPrefix, opts.keyword, !opts.noCache)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "queued analysis of %q (event %s)\n", opts.keyword, id)
	return nil
}

func printReport(cmd *cobra.Command, r *analysis.Report, format string) error {
	switch format {
	case outputJSON:
		return printJSON(cmd, r)
	case outputTable:
		fmt.Fprint(cmd.OutOrStdout(), productTable(r))
	default:
		writeSummary(cmd.OutOrStdout(), r)
	}
	return nil
}
