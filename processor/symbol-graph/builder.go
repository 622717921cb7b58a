package symbolgraph

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/processor/ast"
)

// Observer receives per-file parse timings.
type Observer interface {
	ObserveParse(language string, elapsed time.Duration, err error)
}

// Options tunes graph construction.
type Options struct {
	// Workers bounds concurrent parsing; 0 means runtime.NumCPU()
	Workers int

	// Registry routes files to parsers by extension; nil means ast.DefaultRegistry
	Registry *ast.ParserRegistry

	// Observer, when set, is told about every parse
	Observer Observer

	Logger *slog.Logger
}

// outcome is the parse result of one file, stored at the file's index
type outcome struct {
	result *ast.ParseResult
	err    error
}

// Build parses files on a bounded worker pool and aggregates the results
// into a Graph once every worker has finished.
//
// A file that fails to parse is recorded as a ParseError and skipped. A
// qualified name exported by two files aborts the build with a
// DuplicateSymbolError. When ctx is cancelled partial results are discarded
// and ctx.Err() is returned.
func Build(ctx context.Context, files []*ast.SourceFile, opts Options) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = ast.DefaultRegistry
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]outcome, len(files))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)
		go func(i int, file *ast.SourceFile) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			outcomes[i] = parseFile(ctx, registry, file, opts.Observer)
		}(i, file)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return aggregate(files, outcomes, logger)
}

// parseFile routes one file to its parser
func parseFile(ctx context.Context, registry *ast.ParserRegistry, file *ast.SourceFile, observer Observer) outcome {
	ext := filepath.Ext(file.RelPath)
	language, ok := registry.GetParserName(ext)
	if !ok {
		return outcome{err: errs.Parse(file.RelPath, errors.Newf("no parser for extension %q", ext))}
	}

	parser, err := registry.CreateParser(language)
	if err != nil {
		return outcome{err: errs.Parse(file.RelPath, err)}
	}

	start := time.Now()
	result, err := parser.ParseFile(ctx, file)
	if observer != nil {
		observer.ObserveParse(language, time.Since(start), err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return outcome{err: ctx.Err()}
		}
		return outcome{err: errs.Parse(file.RelPath, err)}
	}
	return outcome{result: result}
}

// aggregate merges the per-file results in file order. Stub files that
// overlay another file are merged after every other file.
func aggregate(files []*ast.SourceFile, outcomes []outcome, logger *slog.Logger) (*Graph, error) {
	g := newGraph()

	var stubs []*ast.ParseResult
	for i, o := range outcomes {
		if o.err != nil {
			if errs.IsFatal(o.err) {
				return nil, o.err
			}
			g.parseErrors = append(g.parseErrors, o.err)
			logger.Warn("Skipping unparseable file",
				"path", files[i].RelPath,
				"error", o.err)
			continue
		}
		if o.result.Overlays != "" {
			stubs = append(stubs, o.result)
			continue
		}
		if err := g.merge(o.result, logger); err != nil {
			return nil, err
		}
	}
	for _, stub := range stubs {
		if err := g.merge(stub, logger); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(g.symbols, func(i, j int) bool {
		return g.symbols[i].Site.Less(g.symbols[j].Site)
	})
	sort.SliceStable(g.references, func(i, j int) bool {
		return g.references[i].Site.Less(g.references[j].Site)
	})

	return g, nil
}

// merge adds the symbols and references of one parsed file. A stub symbol
// whose qualified name the overlaid file already defines is folded into it.
func (g *Graph) merge(result *ast.ParseResult, logger *slog.Logger) error {
	for _, sym := range result.Symbols {
		existing, ok := g.add(sym)
		if ok {
			continue
		}
		if result.Overlays != "" && existing.Site.Path == result.Overlays {
			existing.Overlay(sym)
			continue
		}
		return errs.DuplicateSymbol(sym.QualifiedName(), existing.Site.String(), sym.Site.String())
	}
	g.references = append(g.references, result.References()...)

	logger.Debug("Parsed file",
		"path", result.Path,
		"language", result.Language,
		"symbols", len(result.Symbols))
	return nil
}
