// Package linkresolver turns doc comment references to identifiers defined
// outside the symbol graph into hyperlinks.
package linkresolver

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/c360studio/docscheck/processor/ast"
)

// WildcardKey is the mapping key consulted when nothing more specific matches.
const WildcardKey = "*"

// namePlaceholder in a mapping value is replaced by the escaped reference.
const namePlaceholder = "{name}"

// SymbolIndex is the part of the symbol graph the resolver reads.
type SymbolIndex interface {
	References() []ast.Reference
	Resolve(name, scope string) (*ast.Symbol, bool)
}

// Link is one distinct external reference.
type Link struct {
	Reference string

	// URL is nil when no mapping matched
	URL *string

	// Sites lists every documented declaration mentioning the reference
	Sites []ast.Site
}

// Resolved reports whether a mapping matched.
func (l Link) Resolved() bool {
	return l.URL != nil
}

// Report is the result of link resolution.
type Report struct {
	// Links are ordered by the first site mentioning them
	Links []Link

	// Local counts references satisfied by the symbol graph
	Local int
}

// Unresolved returns the links no mapping matched.
func (r *Report) Unresolved() []Link {
	var out []Link
	for _, l := range r.Links {
		if !l.Resolved() {
			out = append(out, l)
		}
	}
	return out
}

// Options tunes resolution.
type Options struct {
	Logger *slog.Logger
}

// Resolve maps every reference the index cannot satisfy locally through
// links. References arrive in site order, so the first occurrence of a
// name fixes its position in the report.
func Resolve(index SymbolIndex, links map[string]string, opts Options) *Report {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report := &Report{Links: make([]Link, 0)}
	position := make(map[string]int)

	for _, ref := range index.References() {
		if _, ok := index.Resolve(ref.Name, ref.Scope); ok {
			report.Local++
			continue
		}

		if i, ok := position[ref.Name]; ok {
			report.Links[i].Sites = appendSite(report.Links[i].Sites, ref.Site)
			continue
		}

		link := Link{Reference: ref.Name, Sites: []ast.Site{ref.Site}}
		if target, ok := Lookup(links, ref.Name); ok {
			link.URL = &target
		} else {
			logger.Warn("Unresolved external link",
				"reference", ref.Name,
				"site", ref.Site.String())
		}

		position[ref.Name] = len(report.Links)
		report.Links = append(report.Links, link)
	}

	return report
}

// Lookup finds the URL for name. It tries the exact key, then each dotted
// prefix from longest to shortest, then the same for the part after a
// "pkg!" qualifier, then the wildcard key.
func Lookup(links map[string]string, name string) (string, bool) {
	if len(links) == 0 {
		return "", false
	}

	candidates := prefixes(name)
	if _, bare, ok := strings.Cut(name, "!"); ok && bare != "" {
		candidates = append(candidates, prefixes(bare)...)
	}
	candidates = append(candidates, WildcardKey)

	for _, key := range candidates {
		if value, ok := links[key]; ok {
			return expand(value, name), true
		}
	}
	return "", false
}

// prefixes returns name and its dotted prefixes, longest first.
func prefixes(name string) []string {
	out := []string{name}
	for i := strings.LastIndex(name, "."); i > 0; i = strings.LastIndex(name[:i], ".") {
		out = append(out, name[:i])
	}
	return out
}

func expand(value, name string) string {
	if !strings.Contains(value, namePlaceholder) {
		return value
	}
	return strings.ReplaceAll(value, namePlaceholder, url.PathEscape(name))
}

func appendSite(sites []ast.Site, site ast.Site) []ast.Site {
	for _, s := range sites {
		if s == site {
			return sites
		}
	}
	return append(sites, site)
}
