package main

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/docscheck/config"
	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/processor/ast"
)

const watchDebounce = 300 * time.Millisecond

func watchCmd(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [config]",
		Short: "Re-run the check whenever sources or the config change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(stderr, opts.logLevel)
			if err := validateFormat(opts.format); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return watch(ctx, cmd, configArg(args), *opts, stdout, logger)
		},
	}
}

// watch runs the check, then re-runs it after every debounced batch of
// relevant changes until ctx is cancelled. Failures after the first run
// are logged and watching continues.
func watch(ctx context.Context, cmd *cobra.Command, configPath string, opts options, stdout io.Writer, logger *slog.Logger) error {
	cfg, err := loadConfig(cmd, configPath, opts, logger)
	if err != nil {
		return err
	}

	// Reload from the file the loader settled on
	configPath = cfg.Path
	configName := filepath.Base(configPath)

	w, err := ast.NewWatcher(ast.WatcherConfig{
		Root: cfg.Root,
		Match: func(rel string) bool {
			return ast.DefaultRegistry.Supports(rel) || isConfigFile(rel, configName)
		},
		DebounceDelay: watchDebounce,
		Logger:        logger,
	})
	if err != nil {
		return errs.WrapConfig(err, cfg.Root)
	}
	if err := w.Start(ctx); err != nil {
		return errs.WrapConfig(err, cfg.Root)
	}
	defer w.Stop()

	rerun := func(cfg config.Config) {
		res, err := checkOnce(ctx, cfg, opts, stdout, logger)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("Check failed", "error", err)
			}
			return
		}
		w.Seed(res.Files)
	}

	rerun(cfg)
	logger.Info("Watching for changes", "root", cfg.Root)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching")
			return nil
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			for _, ev := range batch {
				logger.Debug("Change detected", "path", ev.Path, "op", ev.Operation)
			}

			next, err := loadConfig(cmd, configPath, opts, logger)
			if err != nil {
				logger.Error("Config reload failed", "error", err)
				continue
			}
			rerun(next)
		}
	}
}

// isConfigFile reports whether rel is the config file or the .env beside it.
func isConfigFile(rel, configName string) bool {
	return rel == configName || rel == config.EnvFile
}
