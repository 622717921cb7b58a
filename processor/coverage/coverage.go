// Package coverage flags exported symbols that carry no documentation
// comment and are not exempted.
package coverage

import (
	"log/slog"
	"sort"

	"github.com/c360studio/docscheck/processor/ast"
)

// Reason explains a violation.
type Reason string

// ReasonMissingDocumentation marks an exported symbol with no doc comment.
const ReasonMissingDocumentation Reason = "MissingDocumentation"

// Violation is one undocumented exported symbol.
type Violation struct {
	Symbol string
	Reason Reason
	Kind   ast.DeclarationKind
	Site   ast.Site
}

// Report is the result of a coverage check.
type Report struct {
	// Violations are ordered by definition site
	Violations []Violation

	// StaleExemptions name no exported symbol, sorted
	StaleExemptions []string

	// Checked counts the symbols whose kind required documentation
	Checked int

	// Exempted counts undocumented symbols skipped by an exemption
	Exempted int
}

// Clean reports whether no violations were found.
func (r *Report) Clean() bool {
	return len(r.Violations) == 0
}

// Options tunes the check.
type Options struct {
	// RequiredKinds limits the check to these kinds; empty means every kind
	RequiredKinds []ast.DeclarationKind

	Logger *slog.Logger
}

// Check compares symbols, given in definition-site order, against the
// exemption set. An exemption matches a symbol by qualified name, by its
// alias name, or by its unscoped nested name.
func Check(symbols []*ast.Symbol, exemptions map[string]struct{}, opts Options) *Report {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	required := make(map[ast.DeclarationKind]bool)
	for _, k := range opts.RequiredKinds {
		required[k] = true
	}

	report := &Report{Violations: make([]Violation, 0)}
	used := make(map[string]bool)

	for _, sym := range symbols {
		qname := sym.QualifiedName()
		exemptBy := exemption(sym, exemptions)
		if exemptBy != "" {
			used[exemptBy] = true
			if exemptBy != qname {
				logger.Debug("Exemption matched by unqualified name",
					"exemption", exemptBy,
					"symbol", qname)
			}
		}

		if len(required) > 0 && !required[sym.Kind] {
			continue
		}
		report.Checked++

		if sym.HasDocComment() {
			continue
		}
		if exemptBy != "" {
			report.Exempted++
			continue
		}

		report.Violations = append(report.Violations, Violation{
			Symbol: qname,
			Reason: ReasonMissingDocumentation,
			Kind:   sym.Kind,
			Site:   sym.Site,
		})
	}

	sort.SliceStable(report.Violations, func(i, j int) bool {
		return report.Violations[i].Site.Less(report.Violations[j].Site)
	})

	for name := range exemptions {
		if !used[name] {
			report.StaleExemptions = append(report.StaleExemptions, name)
		}
	}
	sort.Strings(report.StaleExemptions)

	for _, name := range report.StaleExemptions {
		logger.Warn("Stale exemption matches no exported symbol", "symbol", name)
	}

	return report
}

// exemption returns the exemption entry that matches sym, or ""
func exemption(sym *ast.Symbol, exemptions map[string]struct{}) string {
	for _, name := range []string{sym.QualifiedName(), sym.AliasName(), sym.Name} {
		if name == "" {
			continue
		}
		if _, ok := exemptions[name]; ok {
			return name
		}
	}
	return ""
}
