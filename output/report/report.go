// Package report combines coverage and link results, renders them, and
// derives the process exit code.
package report

import (
	"github.com/c360studio/docscheck/processor/coverage"
	linkresolver "github.com/c360studio/docscheck/processor/link-resolver"
)

// Exit codes of a completed run.
const (
	ExitClean    = 0
	ExitFindings = 1
	ExitFatal    = 2
)

// Report is the outcome of one run.
type Report struct {
	Coverage *coverage.Report
	Links    *linkresolver.Report

	// ParseErrors are the files skipped because they could not be parsed
	ParseErrors []error

	// Files and Symbols count the resolved files and exported symbols
	Files   int
	Symbols int
}

// New assembles a report, substituting empty results for nil ones.
func New(cov *coverage.Report, links *linkresolver.Report, parseErrors []error, files, symbols int) *Report {
	if cov == nil {
		cov = &coverage.Report{}
	}
	if links == nil {
		links = &linkresolver.Report{}
	}
	return &Report{
		Coverage:    cov,
		Links:       links,
		ParseErrors: parseErrors,
		Files:       files,
		Symbols:     symbols,
	}
}

// ExitCode returns ExitFindings when any coverage violation exists, or
// when strict is set and a link is unresolved. Otherwise ExitClean.
func (r *Report) ExitCode(strict bool) int {
	if len(r.Coverage.Violations) > 0 {
		return ExitFindings
	}
	if strict && len(r.Links.Unresolved()) > 0 {
		return ExitFindings
	}
	return ExitClean
}
