package ast

import (
	"go/doc/comment"
	"go/token"
	"regexp"
	"sort"
	"strings"
)

// DocSyntax selects which cross-reference forms are recognized in a doc comment.
type DocSyntax int

const (
	// SyntaxGoDoc recognizes Go doc links: [Name], [pkg.Name], [*Name].
	SyntaxGoDoc DocSyntax = iota + 1
	// SyntaxTSDoc recognizes {@link X}, {@linkcode X}, {@linkplain X}.
	SyntaxTSDoc
	// SyntaxJavadoc recognizes the inline link tags plus @see X.
	SyntaxJavadoc
	// SyntaxSphinx recognizes :class:`X` style roles.
	SyntaxSphinx
)

var (
	inlineLinkRe = regexp.MustCompile(`\{@link(?:code|plain)?\s+([^}|\s]+)[^}]*\}`)
	seeTagRe     = regexp.MustCompile(`(?m)^\s*@see\s+([A-Za-z_][\w.#$]*(?:\([^)]*\))?)`)
	sphinxRoleRe = regexp.MustCompile(":(?:py:)?(?:class|func|meth|exc|data|obj|attr|mod|const):`([^`]+)`")
)

// ExtractReferences returns the identifiers a doc comment links to, in order
// of first appearance and without duplicates. URL and anchor targets are
// skipped.
func ExtractReferences(doc string, syntax DocSyntax) []string {
	if doc == "" {
		return nil
	}

	var raw []string
	switch syntax {
	case SyntaxGoDoc:
		raw = goDocLinks(doc)
	case SyntaxTSDoc:
		raw = submatches(inlineLinkRe, doc)
	case SyntaxJavadoc:
		raw = orderedMatches(doc, inlineLinkRe, seeTagRe)
	case SyntaxSphinx:
		raw = sphinxTargets(doc)
	}

	seen := make(map[string]bool)
	var refs []string
	for _, r := range raw {
		name := normalizeReference(r)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, name)
	}
	return refs
}

// goDocLinks returns the doc link targets the Go doc comment parser
// recognizes. Code blocks, link definitions and brackets inside words such
// as buf[i] are not links.
func goDocLinks(doc string) []string {
	p := comment.Parser{
		// Every package and symbol name is a candidate; the symbol graph
		// decides later whether it is local
		LookupPackage: func(name string) (string, bool) { return name, token.IsIdentifier(name) },
		LookupSym:     func(recv, name string) bool { return true },
	}

	var out []string
	var walkText func(texts []comment.Text)
	walkText = func(texts []comment.Text) {
		for _, t := range texts {
			switch t := t.(type) {
			case *comment.DocLink:
				out = append(out, docLinkName(t))
			case *comment.Link:
				walkText(t.Text)
			}
		}
	}
	var walkBlocks func(blocks []comment.Block)
	walkBlocks = func(blocks []comment.Block) {
		for _, b := range blocks {
			switch b := b.(type) {
			case *comment.Paragraph:
				walkText(b.Text)
			case *comment.Heading:
				walkText(b.Text)
			case *comment.List:
				for _, item := range b.Items {
					walkBlocks(item.Content)
				}
			}
		}
	}

	walkBlocks(p.Parse(doc).Content)
	return out
}

// docLinkName joins the parts of a doc link as written, e.g. bytes.Buffer.Len
func docLinkName(link *comment.DocLink) string {
	var parts []string
	for _, part := range []string{link.ImportPath, link.Recv, link.Name} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

func sphinxTargets(doc string) []string {
	var out []string
	for _, target := range submatches(sphinxRoleRe, doc) {
		// "Title <pkg.Target>" form
		if open := strings.LastIndex(target, "<"); open >= 0 && strings.HasSuffix(target, ">") {
			target = target[open+1 : len(target)-1]
		}
		target = strings.TrimLeft(target, "~.!")
		out = append(out, target)
	}
	return out
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// orderedMatches merges the first submatch of several patterns in order of
// their position in s.
func orderedMatches(s string, res ...*regexp.Regexp) []string {
	type hit struct {
		pos  int
		text string
	}
	var hits []hit
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
			hits = append(hits, hit{pos: m[2], text: s[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}

// normalizeReference canonicalizes a link target to a dotted identifier.
// It returns "" for targets that are not symbol references.
func normalizeReference(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "#") {
		return ""
	}
	if strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "<") || strings.HasPrefix(ref, `"`) {
		return ""
	}
	if idx := strings.Index(ref, "("); idx >= 0 {
		ref = ref[:idx]
	}
	ref = strings.TrimPrefix(ref, "*")
	ref = strings.ReplaceAll(ref, "#", ".")
	ref = strings.TrimSuffix(ref, ".")
	return ref
}

// CleanBlockComment strips /** */ delimiters and leading asterisks from a
// block comment and trims surrounding blank lines.
func CleanBlockComment(raw string) string {
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines[i] = strings.TrimPrefix(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// IsDocBlockComment reports whether raw is a /** documentation block.
func IsDocBlockComment(raw string) bool {
	return strings.HasPrefix(raw, "/**") && !strings.HasPrefix(raw, "/**/")
}
