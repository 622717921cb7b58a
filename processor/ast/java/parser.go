// Package java extracts public declarations and their Javadoc comments from
// Java source files using tree-sitter.
package java

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/c360studio/docscheck/processor/ast"
)

func init() {
	ast.DefaultRegistry.Register("java", []string{".java"},
		func() ast.FileParser {
			return NewParser()
		})
}

// typeKinds classifies the type declarations that can carry members
var typeKinds = map[string]ast.DeclarationKind{
	"class_declaration":           ast.KindClass,
	"record_declaration":          ast.KindClass,
	"interface_declaration":       ast.KindInterface,
	"annotation_type_declaration": ast.KindInterface,
	"enum_declaration":            ast.KindEnum,
}

// Parser extracts public declarations from Java source files.
type Parser struct{}

// NewParser creates a new Java parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single Java file. The package name is the scope of
// every symbol in the file.
func (p *Parser) ParseFile(ctx context.Context, file *ast.SourceFile) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := ast.ParseTree(ctx, java.GetLanguage(), file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	e := &extractor{source: file.Content, path: file.RelPath}

	pkg := e.extractPackage(root)
	e.result = ast.NewParseResult(file, "java", pkg.name, ast.SyntaxJavadoc)
	e.result.FileDoc = pkg.doc

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if _, ok := typeKinds[child.Type()]; ok && e.isPublic(child) {
			e.extractType(child, "")
		}
	}

	sort.SliceStable(e.result.Symbols, func(i, j int) bool {
		return e.result.Symbols[i].Site.Less(e.result.Symbols[j].Site)
	})

	return e.result, nil
}

type extractor struct {
	source []byte
	path   string
	result *ast.ParseResult
}

type packageInfo struct {
	name string
	doc  string
}

// extractPackage returns the package name and its Javadoc (package-info.java)
func (e *extractor) extractPackage(root *sitter.Node) packageInfo {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "package_declaration" {
			continue
		}
		info := packageInfo{doc: ast.PrecedingDocComment(child, e.source)}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			pkgNode := child.NamedChild(j)
			if pkgNode.Type() == "scoped_identifier" || pkgNode.Type() == "identifier" {
				info.name = e.text(pkgNode)
			}
		}
		return info
	}
	return packageInfo{}
}

// extractType records a public type and its public members
func (e *extractor) extractType(node *sitter.Node, owner string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	qname := e.text(nameNode)
	if owner != "" {
		qname = owner + "." + qname
	}
	e.result.AddSymbol(qname, typeKinds[node.Type()], e.site(node), e.doc(node))

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	implicit := node.Type() == "interface_declaration" || node.Type() == "annotation_type_declaration"
	e.extractBody(body, qname, implicit)
}

// extractBody records the members of a type body. Interface members are
// public unless declared private.
func (e *extractor) extractBody(body *sitter.Node, owner string, implicit bool) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)

		switch member.Type() {
		case "enum_constant":
			if name := member.ChildByFieldName("name"); name != nil {
				e.result.AddSymbol(owner+"."+e.text(name), ast.KindConst, e.site(member), e.doc(member))
			}

		case "enum_body_declarations":
			e.extractBody(member, owner, false)

		case "method_declaration", "constructor_declaration", "annotation_type_element_declaration":
			if !e.visible(member, implicit) {
				continue
			}
			if name := member.ChildByFieldName("name"); name != nil {
				// Overloads merge into one symbol
				e.result.AddSymbol(owner+"."+e.text(name), ast.KindMethod, e.site(member), e.doc(member))
			}

		case "field_declaration", "constant_declaration":
			if !e.visible(member, implicit) {
				continue
			}
			kind := ast.KindProperty
			if implicit || member.Type() == "constant_declaration" || (e.hasModifier(member, "static") && e.hasModifier(member, "final")) {
				kind = ast.KindConst
			}
			doc := e.doc(member)
			for j := 0; j < int(member.NamedChildCount()); j++ {
				declarator := member.NamedChild(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				if name := declarator.ChildByFieldName("name"); name != nil {
					e.result.AddSymbol(owner+"."+e.text(name), kind, e.site(member), doc)
				}
			}

		default:
			if _, ok := typeKinds[member.Type()]; ok && e.visible(member, implicit) {
				e.extractType(member, owner)
			}
		}
	}
}

// visible reports whether a member is part of the public API
func (e *extractor) visible(node *sitter.Node, implicit bool) bool {
	if implicit {
		return !e.hasModifier(node, "private")
	}
	return e.isPublic(node)
}

func (e *extractor) isPublic(node *sitter.Node) bool {
	return e.hasModifier(node, "public")
}

// hasModifier checks the declaration's modifiers node for a keyword
func (e *extractor) hasModifier(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			if mod := child.Child(j); mod.Type() == keyword || e.text(mod) == keyword {
				return true
			}
		}
	}
	return false
}

// doc returns the Javadoc comment directly above a declaration
func (e *extractor) doc(node *sitter.Node) string {
	return ast.PrecedingDocComment(node, e.source)
}

func (e *extractor) site(n *sitter.Node) ast.Site {
	return ast.NodeSite(n, e.path)
}

func (e *extractor) text(n *sitter.Node) string {
	return n.Content(e.source)
}
