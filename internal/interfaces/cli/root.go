// Package cli implements the oceanscout command line: one-shot analyses,
// report export, dataset import and schema migration.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool
	NoColor    bool
	Timeout    time.Duration
}

// RuntimeFactory builds the runtime of a command.  Tests replace it.
type RuntimeFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (*app.App, error)

func defaultRuntime(ctx context.Context, cfg *config.Config, log logging.Logger) (*app.App, error) {
	return app.New(ctx, cfg, log, "cli")
}

// CLIContext carries the loaded configuration and logger through the
// command tree.  The runtime is built on first use.
type CLIContext struct {
	Config  *config.Config
	Logger  logging.Logger
	Verbose bool

	factory RuntimeFactory
	runtime *app.App
	cancel  context.CancelFunc
}

// Runtime returns the assembled runtime, building it on first call.
func (c *CLIContext) Runtime(ctx context.Context) (*app.App, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	rt, err := c.factory(ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.runtime = rt
	return rt, nil
}

func (c *CLIContext) close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.runtime == nil {
		return
	}
	if err := c.runtime.Close(); err != nil {
		c.Logger.Warn("Failed to close runtime", logging.Err(err))
	}
	c.runtime = nil
}

// runWithRuntime builds the runtime, runs fn and releases the runtime.
func runWithRuntime(cmd *cobra.Command, fn func(ctx context.Context, cc *CLIContext, rt *app.App) error) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	defer cc.close()

	ctx := cmd.Context()
	rt, err := cc.Runtime(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, cc, rt)
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultRuntime)
}

func newRootCommand(factory RuntimeFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "oceanscout",
		Short: "OceanScout: Amazon keyword market analysis",
		Long: "OceanScout scores Amazon keyword markets: market size and competition,\n" +
			"blue-ocean product opportunities, lifecycle trends and brand concentration.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.NoColor {
				color.NoColor = true
			}
			cliCtx, err := newCLIContext(opts, factory)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.Timeout > 0 {
				ctx, cliCtx.cancel = context.WithTimeout(ctx, opts.Timeout)
			}
			cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment and built-in defaults)")
	pf.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the configuration")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "overall command timeout (0 disables)")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewCompareCmd(),
		NewReportCmd(),
		NewImportCmd(),
		NewMigrateCmd(),
		NewCacheCmd(),
		NewVersionCmd(),
	)
	return cmd
}

func newCLIContext(opts *RootOptions, factory RuntimeFactory) (*CLIContext, error) {
	if opts.EnvFile != "" {
		if err := config.LoadDotEnv(opts.EnvFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger, err := initLogger(cfg, opts.Verbose)
	if err != nil {
		return nil, err
	}
	return &CLIContext{Config: cfg, Logger: logger, Verbose: opts.Verbose, factory: factory}, nil
}

// initLogger writes console logs to stderr so that stdout carries only
// command output.  Without --verbose only warnings and errors are shown.
func initLogger(cfg *config.Config, verbose bool) (logging.Logger, error) {
	level := logging.LevelWarn
	if verbose {
		level = logging.LevelDebug
	} else if strings.EqualFold(cfg.Log.Level, logging.LevelError) {
		level = logging.LevelError
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the CLI.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// NewVersionCmd prints build information.
func NewVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// version needs neither configuration nor logging
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return printJSON(cmd, map[string]string{
					"version":    Version,
					"commit":     GitCommit,
					"build_date": BuildDate,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "oceanscout %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes err to stderr, with its code and detail when it is an
// application error.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown && code != errors.CodeOK {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", code, err.Error())
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as a borderless, left-aligned text
// table.  Short rows are padded with empty cells.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		table.Append(cells)
	}
	table.Render()
	return buf.String()
}

// colorGrade highlights a letter grade: A and B green, C yellow, D and F red.
func colorGrade(g stats.GradeLevel) string {
	switch g {
	case stats.GradeAPlus, stats.GradeA, stats.GradeBPlus, stats.GradeB:
		return color.GreenString(string(g))
	case stats.GradeC:
		return color.YellowString(string(g))
	default:
		return color.RedString(string(g))
	}
}
