// Package entryresolver expands entry point glob patterns into an ordered,
// deduplicated list of source files.
package entryresolver

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/processor/ast"
)

// Options tunes pattern resolution.
type Options struct {
	// Exclude lists globs, relative to root, whose matches are dropped
	Exclude []string

	// Accept filters matches by relative path. Nil accepts every file.
	Accept func(relPath string) bool

	// Strict turns a pattern matching zero files into a PatternError
	Strict bool

	Logger *slog.Logger
}

// Resolve expands patterns, relative to root, into source files.
//
// Patterns are processed in order. The matches of one pattern are sorted by
// relative path, and a file produced by an earlier pattern is not repeated,
// so the result is identical across runs on an unchanged filesystem. A
// pattern without glob characters naming a directory expands to every file
// beneath it. Each accepted file is read exactly once.
func Resolve(ctx context.Context, root string, patterns []string, opts Options) ([]*ast.SourceFile, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve root %s", root)
	}

	excludes, err := normalizeExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var files []*ast.SourceFile
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches, err := resolvePattern(absRoot, pattern)
		if err != nil {
			return nil, err
		}

		accepted := 0
		for _, m := range matches {
			if excluded(excludes, m.rel) {
				continue
			}
			if opts.Accept != nil && !opts.Accept(m.rel) {
				continue
			}
			accepted++

			if seen[m.abs] {
				continue
			}
			seen[m.abs] = true

			content, err := os.ReadFile(m.abs)
			if err != nil {
				return nil, errors.Wrapf(err, "read entry point %s", m.rel)
			}
			files = append(files, ast.NewSourceFile(m.abs, m.rel, content))
		}

		if accepted == 0 {
			if opts.Strict {
				return nil, errs.WithHint(
					errs.Patternf(pattern, "matches no source files"),
					"check the pattern against the config file's directory or disable strictEntryPoints")
			}
			logger.Warn("Entry point matches no source files", "pattern", pattern)
			continue
		}

		logger.Debug("Resolved entry point", "pattern", pattern, "files", accepted)
	}

	return files, nil
}

type match struct {
	abs string
	rel string
}

// resolvePattern expands a single pattern to files sorted by relative path.
// Only the pattern is treated as a glob; root and the literal prefix of a
// relative pattern are joined as plain paths.
func resolvePattern(root, pattern string) ([]match, error) {
	slashed := filepath.ToSlash(strings.TrimSpace(pattern))
	if slashed == "" || !doublestar.ValidatePattern(slashed) {
		return nil, errs.Patternf(pattern, "invalid glob syntax")
	}

	// A plain path names one file, or everything beneath a directory
	if !containsGlob(slashed) {
		target := anchor(root, slashed)
		info, err := os.Stat(target)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, errors.Wrapf(err, "stat %s", pattern)
		}
		if !info.IsDir() {
			return []match{newMatch(root, target)}, nil
		}
		return globUnder(root, target, "**", pattern)
	}

	base, rest := doublestar.SplitPattern(slashed)
	return globUnder(root, anchor(root, base), rest, pattern)
}

// anchor joins a slash-separated relative path onto root; absolute paths are
// returned as is.
func anchor(root, slashed string) string {
	p := filepath.FromSlash(slashed)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// globUnder matches rest against the files beneath base.
func globUnder(root, base, rest, pattern string) ([]match, error) {
	found, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Patternf(pattern, "glob: %v", err)
	}

	matches := make([]match, 0, len(found))
	for _, f := range found {
		matches = append(matches, newMatch(root, filepath.Join(base, filepath.FromSlash(f))))
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].rel < matches[j].rel })
	return matches, nil
}

func newMatch(root, abs string) match {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		rel = abs
	}
	return match{abs: abs, rel: filepath.ToSlash(rel)}
}

// normalizeExcludes validates exclude globs and strips a leading "./".
func normalizeExcludes(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		slashed := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
		if slashed == "" || !doublestar.ValidatePattern(slashed) {
			return nil, errs.Patternf(p, "invalid exclude glob syntax")
		}
		out = append(out, slashed)
	}
	return out, nil
}

// excluded reports whether rel matches any exclude glob. A glob naming a
// directory also excludes everything beneath it.
func excluded(excludes []string, rel string) bool {
	for _, p := range excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(p, "/")+"/**", rel); ok {
			return true
		}
	}
	return false
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
