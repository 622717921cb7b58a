package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SourceFile is a resolved entry point file. It is produced once by the
// entry resolver and never mutated afterwards.
type SourceFile struct {
	// Path is the absolute filesystem path
	Path string

	// RelPath is the slash-separated path relative to the project root
	RelPath string

	// Hash is the content hash for change detection
	Hash string

	// Content holds the file bytes read by the resolver
	Content []byte
}

// NewSourceFile creates a SourceFile and computes its hash.
func NewSourceFile(path, relPath string, content []byte) *SourceFile {
	return &SourceFile{
		Path:    path,
		RelPath: relPath,
		Hash:    ComputeHash(content),
		Content: content,
	}
}

// Site locates a declaration in source.
type Site struct {
	// Path is the slash-separated path relative to the project root
	Path string

	// Offset is the byte offset of the declaration start
	Offset int

	// Line and Column are 1-based
	Line   int
	Column int
}

// String renders the site as path:line:column.
func (s Site) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Path, s.Line, s.Column)
}

// Less orders sites by path, then offset.
func (s Site) Less(other Site) bool {
	if s.Path != other.Path {
		return s.Path < other.Path
	}
	return s.Offset < other.Offset
}

// Symbol is an exported declaration extracted from a source file.
type Symbol struct {
	// Name is the nested declaration path, e.g. "Client.Close"
	Name string

	// Scope is the module or package qualifier; empty for languages whose
	// exports share a single namespace
	Scope string

	// ScopeAlias is the short name other files use for Scope, such as the
	// Go package name of an import path; empty when references use Scope
	ScopeAlias string

	// Kind classifies the declaration
	Kind DeclarationKind

	// Site is where the declaration starts
	Site Site

	// Doc is the attached documentation comment text
	Doc string

	// Language is the parser language name
	Language string

	// undocumentedRepeat is set when a merged repeat of this declaration
	// had no documentation
	undocumentedRepeat bool
}

// QualifiedName returns the run-wide unique name of the symbol.
func (s *Symbol) QualifiedName() string {
	if s.Scope == "" {
		return s.Name
	}
	return s.Scope + "." + s.Name
}

// AliasName returns the name qualified by ScopeAlias, or "" when the symbol
// has no alias.
func (s *Symbol) AliasName() string {
	if s.ScopeAlias == "" || s.ScopeAlias == s.Scope {
		return ""
	}
	return s.ScopeAlias + "." + s.Name
}

// Overlay folds a stub declaration of the same symbol into s. The stub's
// documentation applies only when s has none.
func (s *Symbol) Overlay(stub *Symbol) {
	if s.HasDocComment() || !stub.HasDocComment() {
		return
	}
	s.Doc = stub.Doc
	s.undocumentedRepeat = false
}

// HasDocComment reports whether a documentation comment is attached.
func (s *Symbol) HasDocComment() bool {
	return s.Doc != "" && !s.undocumentedRepeat
}

// Reference is an identifier mentioned in a documentation comment.
type Reference struct {
	// Name is the referenced identifier as written (normalized)
	Name string

	// Scope is the scope of the documented declaration
	Scope string

	// From is the qualified name of the documented symbol; empty for
	// file-level documentation
	From string

	// Site is where the documented declaration starts
	Site Site
}

// ComputeHash computes a SHA256 hash of the given content
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8]) // First 8 bytes for brevity
}

// ParseResult holds the results of parsing one source file
type ParseResult struct {
	// Path is the relative file path
	Path string

	// Hash is the content hash
	Hash string

	// Language is the parser language name
	Language string

	// Scope is the module or package qualifier for every symbol in the file
	Scope string

	// ScopeAlias is copied to every symbol; see Symbol.ScopeAlias
	ScopeAlias string

	// Overlays is the relative path of the implementation file this file
	// declares types for, such as the .py next to a .pyi stub
	Overlays string

	// FileDoc is the file or package level documentation, if any
	FileDoc string

	// Syntax selects the cross-reference forms recognized in Doc texts
	Syntax DocSyntax

	// Symbols are the exported declarations in source order
	Symbols []*Symbol

	index map[string]*Symbol
}

// References extracts the doc comment references of every symbol and of the
// file documentation, in source order.
func (r *ParseResult) References() []Reference {
	var refs []Reference
	if r.FileDoc != "" {
		site := Site{Path: r.Path, Line: 1, Column: 1}
		for _, name := range ExtractReferences(r.FileDoc, r.Syntax) {
			refs = append(refs, Reference{Name: name, Scope: r.Scope, Site: site})
		}
	}
	for _, sym := range r.Symbols {
		for _, name := range ExtractReferences(sym.Doc, r.Syntax) {
			refs = append(refs, Reference{
				Name:  name,
				Scope: sym.Scope,
				From:  sym.QualifiedName(),
				Site:  sym.Site,
			})
		}
	}
	return refs
}

// NewParseResult creates an empty result for file.
func NewParseResult(file *SourceFile, language, scope string, syntax DocSyntax) *ParseResult {
	return &ParseResult{
		Path:     file.RelPath,
		Hash:     file.Hash,
		Language: language,
		Scope:    scope,
		Syntax:   syntax,
		Symbols:  make([]*Symbol, 0),
		index:    make(map[string]*Symbol),
	}
}

// AddSymbol records an exported declaration. A name repeated within one file
// (overloads, redeclarations) is merged into the first occurrence, which
// stays documented only if every occurrence is.
func (r *ParseResult) AddSymbol(name string, kind DeclarationKind, site Site, doc string) *Symbol {
	if r.index == nil {
		r.index = make(map[string]*Symbol)
	}
	if existing, ok := r.index[name]; ok {
		if doc == "" {
			existing.undocumentedRepeat = true
		}
		return existing
	}

	sym := &Symbol{
		Name:       name,
		Scope:      r.Scope,
		ScopeAlias: r.ScopeAlias,
		Kind:       kind,
		Site:       site,
		Doc:        doc,
		Language:   r.Language,
	}
	r.index[name] = sym
	r.Symbols = append(r.Symbols, sym)
	return sym
}

// AddOverload records one signature of an overloaded declaration. Unlike
// AddSymbol, documentation on any signature documents the whole set.
func (r *ParseResult) AddOverload(name string, kind DeclarationKind, site Site, doc string) *Symbol {
	existing, ok := r.Lookup(name)
	if !ok {
		return r.AddSymbol(name, kind, site, doc)
	}
	if existing.Doc == "" {
		existing.Doc = doc
	}
	return existing
}

// Lookup returns the symbol with the given nested name.
func (r *ParseResult) Lookup(name string) (*Symbol, bool) {
	sym, ok := r.index[name]
	return sym, ok
}
