// Package golang extracts exported declarations and their doc comments from
// Go source files.
package golang

import (
	"context"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/c360studio/docscheck/processor/ast"
)

func init() {
	ast.DefaultRegistry.Register("go", []string{".go"}, func() ast.FileParser {
		return NewParser()
	})
}

// Parser extracts exported declarations from Go source files
type Parser struct{}

// NewParser creates a new Go parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single Go file and records its exported declarations.
// The package import path is the scope of every symbol in the file and the
// package name is its alias.
func (p *Parser) ParseFile(ctx context.Context, file *ast.SourceFile) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file.RelPath, file.Content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	scope := importPath(file.Path, file.RelPath, f.Name.Name)
	result := ast.NewParseResult(file, "go", scope, ast.SyntaxGoDoc)
	result.ScopeAlias = f.Name.Name

	// Test files belong to the package but never to its public surface
	if strings.HasSuffix(file.RelPath, "_test.go") {
		return result, nil
	}

	if f.Doc != nil {
		result.FileDoc = docText(f.Doc)
	}

	for _, decl := range f.Decls {
		p.extractDeclaration(fset, decl, result)
	}

	return result, nil
}

// extractDeclaration records the exported names a declaration introduces
func (p *Parser) extractDeclaration(fset *token.FileSet, decl goast.Decl, result *ast.ParseResult) {
	switch d := decl.(type) {
	case *goast.FuncDecl:
		p.extractFunction(fset, d, result)

	case *goast.GenDecl:
		// A lone spec shares the declaration's doc and start position
		grouped := d.Lparen.IsValid()

		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *goast.TypeSpec:
				if !s.Name.IsExported() {
					continue
				}
				pos := s.Pos()
				if !grouped {
					pos = d.Pos()
				}
				result.AddSymbol(s.Name.Name, typeKind(s), site(fset, pos), specDoc(s.Doc, d.Doc))

			case *goast.ValueSpec:
				kind := ast.KindVariable
				if d.Tok == token.CONST {
					kind = ast.KindConst
				}
				for _, name := range s.Names {
					if !name.IsExported() {
						continue
					}
					pos := name.Pos()
					if !grouped {
						pos = d.Pos()
					}
					result.AddSymbol(name.Name, kind, site(fset, pos), specDoc(s.Doc, d.Doc))
				}
			}
		}
	}
}

// extractFunction records an exported function, or an exported method of
// an exported receiver type as "Type.Method"
func (p *Parser) extractFunction(fset *token.FileSet, fn *goast.FuncDecl, result *ast.ParseResult) {
	if !fn.Name.IsExported() {
		return
	}

	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		result.AddSymbol(fn.Name.Name, ast.KindFunction, site(fset, fn.Pos()), docText(fn.Doc))
		return
	}

	receiver := extractTypeName(fn.Recv.List[0].Type)
	if receiver == "" || !goast.IsExported(receiver) {
		return
	}
	result.AddSymbol(receiver+"."+fn.Name.Name, ast.KindMethod, site(fset, fn.Pos()), docText(fn.Doc))
}

// typeKind classifies a type spec
func typeKind(ts *goast.TypeSpec) ast.DeclarationKind {
	switch ts.Type.(type) {
	case *goast.StructType:
		return ast.KindClass
	case *goast.InterfaceType:
		return ast.KindInterface
	default:
		return ast.KindTypeAlias
	}
}

// extractTypeName extracts the receiver base type name, dropping pointers
// and type parameters
func extractTypeName(expr goast.Expr) string {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name
	case *goast.StarExpr:
		return extractTypeName(t.X)
	case *goast.ParenExpr:
		return extractTypeName(t.X)
	case *goast.IndexExpr:
		return extractTypeName(t.X)
	case *goast.IndexListExpr:
		return extractTypeName(t.X)
	}
	return ""
}

// specDoc prefers the spec's own doc over the enclosing declaration's
func specDoc(spec, decl *goast.CommentGroup) string {
	if doc := docText(spec); doc != "" {
		return doc
	}
	return docText(decl)
}

// docText returns the comment text with directives stripped
func docText(cg *goast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	return strings.TrimSpace(cg.Text())
}

func site(fset *token.FileSet, pos token.Pos) ast.Site {
	p := fset.Position(pos)
	return ast.Site{
		Path:   p.Filename,
		Offset: p.Offset,
		Line:   p.Line,
		Column: p.Column,
	}
}
