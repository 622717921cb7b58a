// Package main provides the docs-check binary entry point.
// docs-check reports undocumented exported symbols and links references
// in doc comments to external documentation.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360studio/docscheck/config"
	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/metrics"
	"github.com/c360studio/docscheck/output/report"
	"github.com/c360studio/docscheck/processor/ast"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "docs-check"
)

// exitError carries a non-zero exit code for a run that completed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds the command line flags.
type options struct {
	strict            bool
	strictEntryPoints bool
	workers           int
	format            string
	reportFile        string
	metricsFile       string
	logLevel          string
}

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(report.ExitFatal)
		}
	}()

	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return report.ExitClean
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if hints := errs.Hints(err); hints != "" {
		for _, h := range strings.Split(hints, "\n") {
			fmt.Fprintf(stderr, "  hint: %s\n", h)
		}
	}
	if errs.Is(err, errs.KindPattern) {
		fmt.Fprintf(stderr, "  hint: supported extensions: %s\n",
			strings.Join(ast.DefaultRegistry.ListExtensions(), " "))
	}
	return report.ExitFatal
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "docs-check [config]",
		Short: "Documentation coverage and link checker",
		Long: `docs-check discovers source files through the entryPoints globs of a
configuration file, flags exported symbols without a documentation comment,
and resolves references to external symbols through
externalSymbolLinkMappings.

Exit codes:
  0  no findings
  1  undocumented symbols, or unresolved links in strict mode
  2  configuration, pattern, or duplicate symbol error`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, configArg(args), opts, stdout, stderr)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.strict, "strict", false, "Fail on unresolved external links")
	flags.BoolVar(&opts.strictEntryPoints, "strict-entry-points", false, "Fail on entry points matching no files")
	flags.IntVar(&opts.workers, "workers", 0, "Parser goroutines (0 = one per CPU)")
	flags.StringVar(&opts.format, "format", "text", "Output format (text, jsonl)")
	flags.StringVar(&opts.reportFile, "report-file", "", "Also write a JSONL report to this path")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this path")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(watchCmd(&opts, stdout, stderr))
	cmd.AddCommand(initCmd(stdout))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "%s version %s (build: %s)\n", appName, Version, BuildTime)
			for _, name := range ast.DefaultRegistry.ListParsers() {
				fmt.Fprintf(stdout, "  %-10s %s\n", name,
					strings.Join(ast.DefaultRegistry.GetExtensionsForParser(name), " "))
			}
		},
	})

	return cmd
}

func configArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// newLogger configures logging at the given level
func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, path string, opts options, logger *slog.Logger) (config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Strict = opts.strict
	}
	if flags.Changed("strict-entry-points") {
		cfg.StrictEntryPoints = opts.strictEntryPoints
	}
	if flags.Changed("workers") {
		if opts.workers < 0 {
			return config.Config{}, errs.Configf("--workers must not be negative, got %d", opts.workers)
		}
		cfg.Workers = opts.workers
	}
	return cfg, nil
}

func validateFormat(format string) error {
	switch format {
	case "text", "jsonl":
		return nil
	}
	return errs.Configf("unknown --format %q (want text or jsonl)", format)
}

func runCheck(cmd *cobra.Command, configPath string, opts options, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts.logLevel)
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd, configPath, opts, logger)
	if err != nil {
		return err
	}

	res, err := checkOnce(ctx, cfg, opts, stdout, logger)
	if err != nil {
		return err
	}
	if code := res.Report.ExitCode(cfg.Strict); code != report.ExitClean {
		return &exitError{code: code}
	}
	return nil
}

// checkOnce runs the pipeline and writes every requested output.
func checkOnce(ctx context.Context, cfg config.Config, opts options, stdout io.Writer, logger *slog.Logger) (*runResult, error) {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("Starting docs check", "root", cfg.Root, "entry_points", len(cfg.EntryPoints))

	run := metrics.NewRun()
	res, err := runPipeline(ctx, cfg, run, logger)
	if err != nil {
		return nil, err
	}

	switch opts.format {
	case "jsonl":
		err = report.WriteJSONL(stdout, res.Report)
	default:
		err = report.WriteText(stdout, res.Report)
	}
	if err != nil {
		return nil, errors.Wrap(err, "write report")
	}

	if opts.reportFile != "" {
		if err := report.WriteJSONLFile(opts.reportFile, res.Report); err != nil {
			return nil, err
		}
		logger.Debug("Wrote report file", "path", opts.reportFile)
	}
	if opts.metricsFile != "" {
		if err := run.WriteFile(opts.metricsFile); err != nil {
			return nil, err
		}
		logger.Debug("Wrote metrics file", "path", opts.metricsFile)
	}
	return res, nil
}
