package python

import (
	"context"
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

func names(r *ast.ParseResult) []string {
	out := make([]string, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		out = append(out, s.Name)
	}
	return out
}

func mustLookup(t *testing.T, r *ast.ParseResult, name string) *ast.Symbol {
	t.Helper()
	sym, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("symbol %q not found, have %v", name, names(r))
	}
	return sym
}

func TestExtractModuleName(t *testing.T) {
	tests := []struct {
		relPath string
		want    string
	}{
		{"mod.py", "mod"},
		{"pkg/mod.py", "pkg.mod"},
		{"pkg/sub/__init__.py", "pkg.sub"},
		{"__init__.py", ""},
		{"stubs/api.pyi", "stubs.api"},
	}
	for _, tt := range tests {
		if got := extractModuleName(tt.relPath); got != tt.want {
			t.Errorf("extractModuleName(%q) = %q, want %q", tt.relPath, got, tt.want)
		}
	}
}

func TestParseFile_FunctionsAndClasses(t *testing.T) {
	code := `"""Utilities for :class:` + "`pathlib.Path`" + ` handling."""

import os


def load(path):
    """Load a file.

    Returns a :class:` + "`Config`" + `.
    """
    return open(path).read()


def save(path):
    pass


def _helper():
    """Private."""


class Config:
    """Holds settings."""

    def get(self, key):
        """Get a value."""

    def set(self, key, value):
        pass

    def _reset(self):
        pass

    def __repr__(self):
        return "Config()"

    class Section:
        """A nested section."""

    @property
    def size(self):
        """Number of keys."""
        return 0

    @size.setter
    def size(self, value):
        pass


class Color(Enum):
    RED = 1
`
	result := parse(t, "pkg/util.py", code)

	if result.Scope != "pkg.util" {
		t.Errorf("Scope = %q, want pkg.util", result.Scope)
	}
	if !strings.Contains(result.FileDoc, "Utilities for") {
		t.Errorf("FileDoc = %q", result.FileDoc)
	}

	tests := []struct {
		name       string
		kind       ast.DeclarationKind
		documented bool
	}{
		{"load", ast.KindFunction, true},
		{"save", ast.KindFunction, false},
		{"Config", ast.KindClass, true},
		{"Config.get", ast.KindMethod, true},
		{"Config.set", ast.KindMethod, false},
		{"Config.Section", ast.KindClass, true},
		{"Config.size", ast.KindProperty, true},
		{"Color", ast.KindEnum, false},
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
		})
	}

	for _, name := range []string{"_helper", "Config._reset", "Config.__repr__", "os", "Color.RED"} {
		if _, ok := result.Lookup(name); ok {
			t.Errorf("%s should not be recorded", name)
		}
	}

	if got := mustLookup(t, result, "load").QualifiedName(); got != "pkg.util.load" {
		t.Errorf("QualifiedName() = %q", got)
	}
	if got := mustLookup(t, result, "load").Doc; got != "Load a file.\n\nReturns a :class:`Config`." {
		t.Errorf("load Doc = %q", got)
	}
}

func TestParseFile_Assignments(t *testing.T) {
	code := `# Default request timeout.
TIMEOUT = 30

retries = 3
"""How often to retry."""

x = 1  # trailing comment
VERSION = "1.0"

Alias: TypeAlias = dict

_private = 1
a, b = 1, 2
`
	result := parse(t, "settings.py", code)

	tests := []struct {
		name       string
		kind       ast.DeclarationKind
		documented bool
	}{
		{"TIMEOUT", ast.KindConst, true},
		{"retries", ast.KindVariable, true},
		{"x", ast.KindVariable, false},
		{"VERSION", ast.KindConst, false},
		{"Alias", ast.KindTypeAlias, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := mustLookup(t, result, tt.name)
			if sym.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", sym.Kind, tt.kind)
			}
			if sym.HasDocComment() != tt.documented {
				t.Errorf("HasDocComment() = %v, want %v (doc %q)", sym.HasDocComment(), tt.documented, sym.Doc)
			}
		})
	}

	if got := mustLookup(t, result, "TIMEOUT").Doc; got != "Default request timeout." {
		t.Errorf("TIMEOUT Doc = %q", got)
	}
	if _, ok := result.Lookup("_private"); ok {
		t.Error("_private should not be recorded")
	}
	if _, ok := result.Lookup("a"); ok {
		t.Error("tuple assignment should not be recorded")
	}
}

func TestParseFile_DunderAll(t *testing.T) {
	code := `__all__ = ["run", "_special"]


def run():
    """Run."""


def other():
    pass


def _special():
    pass
`
	result := parse(t, "api.py", code)

	if got := strings.Join(names(result), ","); got != "run,_special" {
		t.Errorf("Symbols = %s, want run,_special", got)
	}
}

func TestParseFile_References(t *testing.T) {
	code := `def read():
    """Read into a :class:` + "`~io.BytesIO`" + ` or raise :exc:` + "`ValueError`" + `."""
`
	result := parse(t, "io_utils.py", code)

	var got []string
	for _, r := range result.References() {
		got = append(got, r.Name)
	}
	if strings.Join(got, ",") != "io.BytesIO,ValueError" {
		t.Errorf("References() = %v", got)
	}
	if result.References()[0].From != "io_utils.read" {
		t.Errorf("From = %q", result.References()[0].From)
	}
}

func TestParseFile_StubOverlaysModule(t *testing.T) {
	stub := parse(t, "pkg/mod.pyi", "def load() -> int:\n    \"\"\"Load the value.\"\"\"\n")
	impl := parse(t, "pkg/mod.py", "def load():\n    return 1\n")

	if stub.Overlays != "pkg/mod.py" {
		t.Errorf("stub Overlays = %q, want pkg/mod.py", stub.Overlays)
	}
	if impl.Overlays != "" {
		t.Errorf("module Overlays = %q, want empty", impl.Overlays)
	}
	if stub.Scope != impl.Scope {
		t.Errorf("Scope = %q and %q, want the same module", stub.Scope, impl.Scope)
	}

	load := mustLookup(t, impl, "load")
	load.Overlay(mustLookup(t, stub, "load"))
	if !load.HasDocComment() || load.Doc != "Load the value." {
		t.Errorf("Doc = %q after overlay", load.Doc)
	}
	if load.Site.Path != "pkg/mod.py" {
		t.Errorf("Site = %s, want the module site", load.Site)
	}
}

func TestParseFile_SyntaxError(t *testing.T) {
	p := NewParser()
	file := ast.NewSourceFile("/repo/bad.py", "bad.py", []byte("def broken(:\n    pass\n"))
	_, err := p.ParseFile(context.Background(), file)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !strings.HasPrefix(err.Error(), "bad.py:") {
		t.Errorf("error %q should name the position", err)
	}
}

func TestIsAllCaps(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"MAX_SIZE", true},
		{"HTTP2", true},
		{"Max", false},
		{"_", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAllCaps(tt.in); got != tt.want {
			t.Errorf("isAllCaps(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
