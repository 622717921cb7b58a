// Package symbolgraph parses resolved source files into the graph of
// exported symbols and the references their documentation makes.
package symbolgraph

import (
	"github.com/c360studio/docscheck/processor/ast"
)

// Graph is the exported symbol graph of one run. It is built once by Build
// and read-only afterwards.
type Graph struct {
	symbols     []*ast.Symbol
	references  []ast.Reference
	parseErrors []error

	byName  map[string]*ast.Symbol
	byAlias map[string][]*ast.Symbol
	byShort map[string][]*ast.Symbol
}

func newGraph() *Graph {
	return &Graph{
		byName:  make(map[string]*ast.Symbol),
		byAlias: make(map[string][]*ast.Symbol),
		byShort: make(map[string][]*ast.Symbol),
	}
}

// Symbols returns every exported symbol in definition-site order.
func (g *Graph) Symbols() []*ast.Symbol {
	return g.symbols
}

// Len returns the number of symbols.
func (g *Graph) Len() int {
	return len(g.symbols)
}

// Lookup returns the symbol with the given qualified name.
func (g *Graph) Lookup(qualifiedName string) (*ast.Symbol, bool) {
	sym, ok := g.byName[qualifiedName]
	return sym, ok
}

// Resolve finds the local symbol a documentation reference names. It tries
// the name as a qualified name, then qualified by scope, then as an alias
// name such as "config.Load" (the first in file order when several packages
// share the alias), then as a nested name that only one symbol carries.
func (g *Graph) Resolve(name, scope string) (*ast.Symbol, bool) {
	if sym, ok := g.byName[name]; ok {
		return sym, true
	}
	if scope != "" {
		if sym, ok := g.byName[scope+"."+name]; ok {
			return sym, true
		}
	}
	if candidates := g.byAlias[name]; len(candidates) > 0 {
		return candidates[0], true
	}
	if candidates := g.byShort[name]; len(candidates) == 1 {
		return candidates[0], true
	}
	return nil, false
}

// References returns the documentation references of every symbol in
// definition-site order.
func (g *Graph) References() []ast.Reference {
	return g.references
}

// ParseErrors returns the files that could not be parsed, as ParseErrors in
// file order.
func (g *Graph) ParseErrors() []error {
	return g.parseErrors
}

// add indexes a symbol. It returns the already indexed symbol when the
// qualified name is taken.
func (g *Graph) add(sym *ast.Symbol) (*ast.Symbol, bool) {
	qname := sym.QualifiedName()
	if existing, ok := g.byName[qname]; ok {
		return existing, false
	}
	g.byName[qname] = sym
	if alias := sym.AliasName(); alias != "" {
		g.byAlias[alias] = append(g.byAlias[alias], sym)
	}
	g.byShort[sym.Name] = append(g.byShort[sym.Name], sym)
	g.symbols = append(g.symbols, sym)
	return sym, true
}
