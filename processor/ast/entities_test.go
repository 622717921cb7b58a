package ast

import (
	"testing"
)

func TestNewSourceFile(t *testing.T) {
	content := []byte("export function foo() {}\n")
	f := NewSourceFile("/repo/lib/a.ts", "lib/a.ts", content)

	if f.Hash == "" {
		t.Error("Hash is empty")
	}
	if f.Hash != ComputeHash(content) {
		t.Errorf("Hash = %q, want %q", f.Hash, ComputeHash(content))
	}
	if f.RelPath != "lib/a.ts" {
		t.Errorf("RelPath = %q, want %q", f.RelPath, "lib/a.ts")
	}
}

func TestComputeHash(t *testing.T) {
	content := []byte("package main\n\nfunc main() {}\n")
	hash := ComputeHash(content)

	if hash == "" {
		t.Error("hash is empty")
	}
	if len(hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash))
	}
	if hash != ComputeHash(content) {
		t.Error("hash is not deterministic")
	}
	if hash == ComputeHash([]byte("package other\n")) {
		t.Error("different content produced the same hash")
	}
}

func TestSymbol_QualifiedName(t *testing.T) {
	tests := []struct {
		scope string
		name  string
		want  string
	}{
		{"", "foo", "foo"},
		{"", "Client.close", "Client.close"},
		{"bytes", "Buffer", "bytes.Buffer"},
		{"pkg.mod", "Thing.run", "pkg.mod.Thing.run"},
	}

	for _, tt := range tests {
		s := &Symbol{Scope: tt.scope, Name: tt.name}
		if got := s.QualifiedName(); got != tt.want {
			t.Errorf("QualifiedName(%q, %q) = %q, want %q", tt.scope, tt.name, got, tt.want)
		}
	}
}

func TestSite_Less(t *testing.T) {
	a := Site{Path: "a.ts", Offset: 50}
	b := Site{Path: "a.ts", Offset: 10}
	c := Site{Path: "b.ts", Offset: 0}

	if !b.Less(a) {
		t.Error("expected lower offset first within a file")
	}
	if !a.Less(c) {
		t.Error("expected path to order before offset")
	}
	if a.Less(a) {
		t.Error("a site must not be less than itself")
	}
	if got := (Site{Path: "a.ts", Line: 3, Column: 1}).String(); got != "a.ts:3:1" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseResult_AddSymbolMergesRepeats(t *testing.T) {
	file := NewSourceFile("/r/a.java", "a.java", []byte("x"))
	r := NewParseResult(file, "java", "com.acme", SyntaxJavadoc)

	first := r.AddSymbol("Api.get", KindMethod, Site{Path: "a.java", Offset: 10}, "Gets.")
	again := r.AddSymbol("Api.get", KindMethod, Site{Path: "a.java", Offset: 90}, "")

	if first != again {
		t.Fatal("repeat should return the first symbol")
	}
	if len(r.Symbols) != 1 {
		t.Fatalf("len(Symbols) = %d, want 1", len(r.Symbols))
	}
	if first.HasDocComment() {
		t.Error("an undocumented repeat should make the merged symbol undocumented")
	}
	if first.Site.Offset != 10 {
		t.Errorf("Site.Offset = %d, want first occurrence 10", first.Site.Offset)
	}
	if first.QualifiedName() != "com.acme.Api.get" {
		t.Errorf("QualifiedName() = %q", first.QualifiedName())
	}
}

func TestParseResult_AddOverloadAnyDocumented(t *testing.T) {
	file := NewSourceFile("/r/a.ts", "a.ts", []byte("x"))
	r := NewParseResult(file, "typescript", "", SyntaxTSDoc)

	r.AddOverload("parse", KindFunction, Site{Path: "a.ts", Offset: 0}, "")
	r.AddOverload("parse", KindFunction, Site{Path: "a.ts", Offset: 40}, "Parses input.")
	r.AddOverload("parse", KindFunction, Site{Path: "a.ts", Offset: 80}, "")

	sym, ok := r.Lookup("parse")
	if !ok {
		t.Fatal("parse not found")
	}
	if !sym.HasDocComment() {
		t.Error("documentation on any overload should document the set")
	}
	if sym.Doc != "Parses input." {
		t.Errorf("Doc = %q", sym.Doc)
	}
}

func TestKinds(t *testing.T) {
	for _, k := range AllKinds() {
		parsed, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), parsed, k)
		}
	}

	if k, err := ParseKind("typealias"); err != nil || k != KindTypeAlias {
		t.Errorf("ParseKind is expected to be case-insensitive, got %v, %v", k, err)
	}
	if _, err := ParseKind("Widget"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
