package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/docscheck/config"
	"github.com/c360studio/docscheck/metrics"
	"github.com/c360studio/docscheck/output/report"
	"github.com/c360studio/docscheck/processor/ast"
	"github.com/c360studio/docscheck/processor/coverage"
	entryresolver "github.com/c360studio/docscheck/processor/entry-resolver"
	linkresolver "github.com/c360studio/docscheck/processor/link-resolver"
	symbolgraph "github.com/c360studio/docscheck/processor/symbol-graph"

	// Register language parsers via init()
	_ "github.com/c360studio/docscheck/processor/ast/golang"
	_ "github.com/c360studio/docscheck/processor/ast/java"
	_ "github.com/c360studio/docscheck/processor/ast/python"
	_ "github.com/c360studio/docscheck/processor/ast/ts"
)

// runResult is the outcome of one pipeline pass.
type runResult struct {
	Report *report.Report
	Files  []*ast.SourceFile
}

// runPipeline resolves, parses, and checks the entry points of cfg. The
// coverage check and link resolution read the finished graph concurrently.
func runPipeline(ctx context.Context, cfg config.Config, run *metrics.Run, logger *slog.Logger) (*runResult, error) {
	start := time.Now()

	kinds, err := cfg.RequiredKinds()
	if err != nil {
		return nil, err
	}

	files, err := entryresolver.Resolve(ctx, cfg.Root, cfg.EntryPoints, entryresolver.Options{
		Exclude: cfg.Exclude,
		Accept:  ast.DefaultRegistry.Supports,
		Strict:  cfg.StrictEntryPoints,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	run.SetFiles(len(files))
	logger.Debug("Resolved entry points", "files", len(files))

	graph, err := symbolgraph.Build(ctx, files, symbolgraph.Options{
		Workers:  cfg.Workers,
		Observer: run,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	run.RecordSymbols(graph.Symbols())

	var (
		wg    sync.WaitGroup
		cov   *coverage.Report
		links *linkresolver.Report
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cov = coverage.Check(graph.Symbols(), cfg.Exemptions(), coverage.Options{
			RequiredKinds: kinds,
			Logger:        logger,
		})
	}()
	go func() {
		defer wg.Done()
		links = linkresolver.Resolve(graph, cfg.ExternalSymbolLinkMappings, linkresolver.Options{
			Logger: logger,
		})
	}()
	wg.Wait()

	rep := report.New(cov, links, graph.ParseErrors(), len(files), graph.Len())
	run.RecordReport(rep)

	logger.Info("Check complete",
		"files", len(files),
		"symbols", graph.Len(),
		"violations", len(cov.Violations),
		"unresolved_links", len(links.Unresolved()),
		"parse_errors", len(graph.ParseErrors()),
		"duration", time.Since(start).Round(time.Millisecond))

	return &runResult{Report: rep, Files: files}, nil
}
