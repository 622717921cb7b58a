package golang

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/docscheck/processor/ast"
)

func parse(t *testing.T, relPath, code string) *ast.ParseResult {
	t.Helper()
	p := NewParser()
	result, err := p.ParseFile(context.Background(), ast.NewSourceFile("/repo/"+relPath, relPath, []byte(code)))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return result
}

func mustLookup(t *testing.T, r *ast.ParseResult, name string) *ast.Symbol {
	t.Helper()
	sym, ok := r.Lookup(name)
	if !ok {
		names := make([]string, 0, len(r.Symbols))
		for _, s := range r.Symbols {
			names = append(names, s.Name)
		}
		t.Fatalf("symbol %q not found, have %v", name, names)
	}
	return sym
}

func TestParseFile_SimpleFunction(t *testing.T) {
	code := `package example

// Add adds two integers and returns the sum.
func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}

func helper() {}
`
	result := parse(t, "math/math.go", code)

	if result.Scope != "math" {
		t.Errorf("Scope = %q, want %q", result.Scope, "math")
	}
	if result.ScopeAlias != "example" {
		t.Errorf("ScopeAlias = %q, want %q", result.ScopeAlias, "example")
	}
	if result.Hash == "" {
		t.Error("Hash is empty")
	}
	if len(result.Symbols) != 2 {
		t.Fatalf("len(Symbols) = %d, want 2", len(result.Symbols))
	}

	add := mustLookup(t, result, "Add")
	if add.Kind != ast.KindFunction {
		t.Errorf("Kind = %v, want Function", add.Kind)
	}
	if !add.HasDocComment() || !strings.Contains(add.Doc, "adds two integers") {
		t.Errorf("Doc = %q", add.Doc)
	}
	if add.QualifiedName() != "math.Add" {
		t.Errorf("QualifiedName() = %q", add.QualifiedName())
	}
	if add.AliasName() != "example.Add" {
		t.Errorf("AliasName() = %q", add.AliasName())
	}
	if add.Site.Path != "math/math.go" || add.Site.Line != 4 {
		t.Errorf("Site = %s, want math/math.go:4:1", add.Site)
	}

	sub := mustLookup(t, result, "Sub")
	if sub.HasDocComment() {
		t.Error("Sub should be undocumented")
	}
	if _, ok := result.Lookup("helper"); ok {
		t.Error("unexported function should not be recorded")
	}
}

func TestParseFile_Methods(t *testing.T) {
	code := `package store

// Store holds items.
type Store struct{}

// Get returns an item.
func (s *Store) Get(id string) string { return id }

func (s Store) Put(id string) {}

func (s *Store) reset() {}

type cache struct{}

// Len is exported but its receiver is not.
func (c *cache) Len() int { return 0 }

// List is generic.
type List[T any] struct{}

// Push appends.
func (l *List[T]) Push(v T) {}
`
	result := parse(t, "store.go", code)

	get := mustLookup(t, result, "Store.Get")
	if get.Kind != ast.KindMethod || !get.HasDocComment() {
		t.Errorf("Store.Get: kind=%v documented=%v", get.Kind, get.HasDocComment())
	}
	if mustLookup(t, result, "Store.Put").HasDocComment() {
		t.Error("Store.Put should be undocumented")
	}
	mustLookup(t, result, "List.Push")

	for _, name := range []string{"Store.reset", "cache", "cache.Len"} {
		if _, ok := result.Lookup(name); ok {
			t.Errorf("%s should not be recorded", name)
		}
	}
}

func TestParseFile_TypesAndValues(t *testing.T) {
	code := `package shapes

// Shape is drawable.
type Shape interface {
	Area() float64
}

// Point is a coordinate.
type Point struct {
	X, Y int
}

type ID = string

// Units of length.
const (
	Meter = iota
	// Foot is imperial.
	Foot
	inch
)

// Default is the zero point.
var Default Point

var Origin, Unit = Point{}, Point{1, 1}
`
	result := parse(t, "shapes.go", code)

	tests := []struct {
		name       string
		kind       ast.DeclarationKind
		documented bool
		doc        string
	}{
		{"Shape", ast.KindInterface, true, "Shape is drawable."},
		{"Point", ast.KindClass, true, "Point is a coordinate."},
		{"ID", ast.KindTypeAlias, false, ""},
		{"Meter", ast.KindConst, true, "Units of length."},
		{"Foot", ast.KindConst, true, "Foot is imperial."},
		{"Default", ast.KindVariable, true, "Default is the zero point."},
		{"Origin", ast.KindVariable, false, ""},
		{"Unit", ast.KindVariable, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := mustLookup(t, result, tt.name)
			if sym.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", sym.Kind, tt.kind)
			}
			if sym.HasDocComment() != tt.documented {
				t.Errorf("HasDocComment() = %v, want %v", sym.HasDocComment(), tt.documented)
			}
			if sym.Doc != tt.doc {
				t.Errorf("Doc = %q, want %q", sym.Doc, tt.doc)
			}
		})
	}

	if _, ok := result.Lookup("inch"); ok {
		t.Error("unexported const should not be recorded")
	}
	if _, ok := result.Lookup("Point.X"); ok {
		t.Error("struct fields are not symbols")
	}
}

func TestParseFile_SourceOrder(t *testing.T) {
	code := `package order

func C() {}
func A() {}
func B() {}
`
	result := parse(t, "order.go", code)

	var names []string
	for _, s := range result.Symbols {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "C,A,B" {
		t.Errorf("Symbols = %v, want source order C,A,B", names)
	}
	for i := 1; i < len(result.Symbols); i++ {
		if !result.Symbols[i-1].Site.Less(result.Symbols[i].Site) {
			t.Errorf("symbol %d is not after symbol %d", i, i-1)
		}
	}
}

func TestParseFile_PackageDocAndReferences(t *testing.T) {
	code := `// Package client talks to the [Server].
package client

// New returns a [Client] that writes to a [bytes.Buffer].
func New() *Client { return nil }

// Client is a connection.
type Client struct{}
`
	result := parse(t, "client.go", code)

	if result.FileDoc != "Package client talks to the [Server]." {
		t.Errorf("FileDoc = %q", result.FileDoc)
	}
	if result.Syntax != ast.SyntaxGoDoc {
		t.Errorf("Syntax = %v, want SyntaxGoDoc", result.Syntax)
	}

	refs := result.References()
	var got []string
	for _, r := range refs {
		got = append(got, r.Name+"@"+r.From)
	}
	want := []string{"Server@", "Client@client.New", "bytes.Buffer@client.New"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("References() = %v, want %v", got, want)
	}
}

func TestParseFile_DirectiveOnlyComment(t *testing.T) {
	code := `package gen

//go:generate stringer -type=Mode
type Mode int
`
	result := parse(t, "gen.go", code)
	if mustLookup(t, result, "Mode").HasDocComment() {
		t.Error("a directive is not documentation")
	}
}

func TestParseFile_TestFilesSkipped(t *testing.T) {
	code := `package example

// TestAdd tests.
func TestAdd() {}
`
	result := parse(t, "math_test.go", code)
	if len(result.Symbols) != 0 {
		t.Errorf("len(Symbols) = %d, want 0 for test file", len(result.Symbols))
	}
	if result.Scope != "example" {
		t.Errorf("Scope = %q, want example", result.Scope)
	}
}

func TestParseFile_ScopeIsImportPath(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/proj\n\ngo 1.22\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rel       string
		pkg       string
		wantScope string
		wantAlias string
	}{
		{"root.go", "proj", "example.com/proj", "proj.Load"},
		{"internal/config/config.go", "config", "example.com/proj/internal/config", "config.Load"},
		{"cmd/tool/config/config.go", "config", "example.com/proj/cmd/tool/config", "config.Load"},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			code := "package " + tt.pkg + "\n\n// Load reads.\nfunc Load() {}\n"
			file := ast.NewSourceFile(filepath.Join(root, filepath.FromSlash(tt.rel)), tt.rel, []byte(code))
			result, err := p.ParseFile(context.Background(), file)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			if result.Scope != tt.wantScope {
				t.Errorf("Scope = %q, want %q", result.Scope, tt.wantScope)
			}
			load := mustLookup(t, result, "Load")
			if load.QualifiedName() != tt.wantScope+".Load" {
				t.Errorf("QualifiedName() = %q", load.QualifiedName())
			}
			if load.AliasName() != tt.wantAlias {
				t.Errorf("AliasName() = %q, want %q", load.AliasName(), tt.wantAlias)
			}
		})
	}
}

func TestParseFile_ScopeWithoutModule(t *testing.T) {
	result := parse(t, "a/config/config.go", "package config\n\nfunc Load() {}\n")
	other := parse(t, "b/config/config.go", "package config\n\nfunc Load() {}\n")

	if result.Scope != "a/config" || other.Scope != "b/config" {
		t.Errorf("Scopes = %q, %q, want distinct directories", result.Scope, other.Scope)
	}
	if result.ScopeAlias != "config" || other.ScopeAlias != "config" {
		t.Errorf("ScopeAlias = %q, %q, want config", result.ScopeAlias, other.ScopeAlias)
	}
}

func TestParseFile_SyntaxError(t *testing.T) {
	p := NewParser()
	file := ast.NewSourceFile("/repo/bad.go", "bad.go", []byte("package bad\n\nfunc (\n"))
	_, err := p.ParseFile(context.Background(), file)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.go:") {
		t.Errorf("error %q should name the position", err)
	}
}

func TestParseFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewParser()
	_, err := p.ParseFile(ctx, ast.NewSourceFile("/repo/a.go", "a.go", []byte("package a\n")))
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRegistered(t *testing.T) {
	name, ok := ast.DefaultRegistry.GetParserName(".go")
	if !ok || name != "go" {
		t.Errorf("GetParserName(.go) = %q, %v", name, ok)
	}
}
