package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/application/reporting"
	"github.com/turtacn/OceanScout/pkg/errors"
)

type reportOptions struct {
	keyword string
	input   string
	format  string
	outDir  string
	split   bool
	upload  bool
	noCache bool
}

// NewReportCmd exports an analysis as a CSV, XLSX or JSON document.
func NewReportCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export an analysis report",
		Long: "Analyze a keyword and write the report to --out.  --split writes one CSV\n" +
			"file per section; --upload also stores the document in object storage.",
		Example: "  oceanscout report -k \"yoga mat\" --format xlsx --out ./reports\n" +
			"  oceanscout report -k \"yoga mat\" --format csv --split --out ./reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithRuntime(cmd, func(ctx context.Context, _ *CLIContext, rt *app.App) error {
				return runReport(ctx, cmd, rt, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.keyword, "keyword", "k", "", "keyword to report on")
	f.StringVarP(&opts.input, "input", "i", "", "dataset JSON file (\"-\" for stdin)")
	f.StringVarP(&opts.format, "format", "f", "", "document format: csv, xlsx or json (default from report.default_format)")
	f.StringVar(&opts.outDir, "out", "", "output directory (default from report.output_dir)")
	f.BoolVar(&opts.split, "split", false, "write one CSV file per section")
	f.BoolVar(&opts.upload, "upload", false, "upload the document to object storage")
	f.BoolVar(&opts.noCache, "no-cache", false, "ignore cached results")
	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, rt *app.App, opts *reportOptions) error {
	rc := rt.Config.Report
	format, err := reporting.ParseFormat(opts.format, reporting.Format(rc.DefaultFormat))
	if err != nil {
		return err
	}
	if opts.split && format != reporting.FormatCSV {
		return errors.New(errors.ErrCodeValidation, "--split applies to csv only")
	}
	outDir := opts.outDir
	if outDir == "" {
		outDir = rc.OutputDir
	}

	r, err := runAnalysis(ctx, cmd, rt, opts.keyword, opts.input, !opts.noCache)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.split {
		paths, err := reporting.NewCSVExporter(rc.TopN).WriteFiles(outDir, r)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
	} else {
		doc, err := rt.Reports.Render(ctx, r, format)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return errors.Wrapf(err, errors.ErrCodeReportRenderFailed, "failed to create %s", outDir)
		}
		path := filepath.Join(outDir, doc.FileName)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return errors.Wrapf(err, errors.ErrCodeReportRenderFailed, "failed to write %s", path)
		}
		fmt.Fprintln(out, path)
	}

	if opts.upload {
		pub, err := rt.Reports.Publish(ctx, r, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s\n", pub.Key)
		if pub.URL != "" {
			fmt.Fprintf(out, "download %s\n", pub.URL)
		}
	}
	return nil
}
