// Package ts extracts exported declarations and their TSDoc comments from
// TypeScript and JavaScript files using tree-sitter.
package ts

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360studio/docscheck/processor/ast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	ast.DefaultRegistry.Register("typescript",
		[]string{".ts", ".tsx", ".mts", ".cts"},
		func() ast.FileParser {
			return NewParser()
		})
	ast.DefaultRegistry.Register("javascript",
		[]string{".js", ".jsx", ".mjs", ".cjs"},
		func() ast.FileParser {
			return NewParser()
		})
}

// Parser extracts exported declarations from TypeScript/JavaScript source
// files. Exports share one namespace, so symbols carry no scope except the
// default export, which is scoped by module path.
type Parser struct{}

// NewParser creates a new TypeScript/JavaScript parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single TypeScript/JavaScript file and records its
// exported declarations
func (p *Parser) ParseFile(ctx context.Context, file *ast.SourceFile) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := ast.ParseTree(ctx, getTreeSitterLanguage(file.RelPath), file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := ast.NewParseResult(file, detectLanguage(file.RelPath), "", ast.SyntaxTSDoc)
	w := &walker{
		source:      file.Content,
		path:        file.RelPath,
		result:      result,
		declaration: strings.HasSuffix(file.RelPath, ".d.ts"),
	}

	root := tree.RootNode()
	result.FileDoc = packageDoc(root, file.Content)
	w.walkScope(root, target{})
	scopeDefaultExport(result, moduleName(file.RelPath))

	// Export clauses are resolved after the declarations they name
	sort.SliceStable(result.Symbols, func(i, j int) bool {
		return result.Symbols[i].Site.Less(result.Symbols[j].Site)
	})

	return result, nil
}

// scopeDefaultExport qualifies the default export and its members by module
// path, since every module may export its own "default".
func scopeDefaultExport(result *ast.ParseResult, module string) {
	for _, sym := range result.Symbols {
		if sym.Name == "default" || strings.HasPrefix(sym.Name, "default.") {
			sym.Scope = module
		}
	}
}

// moduleName returns the slash-separated module path of a file, e.g.
// "src/a" for "src/a.ts"
func moduleName(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	if strings.HasSuffix(relPath, ".d.ts") {
		return strings.TrimSuffix(relPath, ".d.ts")
	}
	return strings.TrimSuffix(relPath, filepath.Ext(relPath))
}

// detectLanguage returns the language identifier for the file
func detectLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	}
	return "javascript"
}

// getTreeSitterLanguage returns the tree-sitter language for the file type
func getTreeSitterLanguage(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx":
		return tsx.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// packageDoc returns a leading @packageDocumentation comment, if any
func packageDoc(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "comment" {
			return ""
		}
		text := child.Content(source)
		if ast.IsDocBlockComment(text) && isFileComment(text) {
			return ast.CleanBlockComment(text)
		}
	}
	return ""
}

func isFileComment(text string) bool {
	return strings.Contains(text, "@packageDocumentation") ||
		strings.Contains(text, "@module") ||
		strings.Contains(text, "@fileoverview")
}

// target describes where a declaration lands in the export namespace
type target struct {
	// prefix is the nested path of the enclosing namespace, with a trailing dot
	prefix string

	// only restricts a multi-name declaration to one local name
	only string

	// alias is the exported name when it differs from the local one
	alias string

	// ambient is set inside declare blocks, where every declaration is exported
	ambient bool
}

func (t target) name(local string) string {
	if t.alias != "" {
		return t.prefix + t.alias
	}
	return t.prefix + local
}

type walker struct {
	source      []byte
	path        string
	result      *ast.ParseResult
	declaration bool // .d.ts file
}

// walkScope records the exports of a program or namespace body
func (w *walker) walkScope(scope *sitter.Node, t target) {
	locals := make(map[string][]*sitter.Node)
	var clauses []*sitter.Node

	for i := 0; i < int(scope.NamedChildCount()); i++ {
		stmt := scope.NamedChild(i)
		switch stmt.Type() {
		case "comment":
			continue

		case "export_statement":
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				w.declare(decl, stmt, t)
				continue
			}
			if value := stmt.ChildByFieldName("value"); value != nil {
				w.exportDefault(value, stmt, t, locals)
				continue
			}
			if stmt.ChildByFieldName("source") == nil {
				clauses = append(clauses, stmt)
			}

		default:
			if t.ambient || (w.declaration && t.prefix == "" && stmt.Type() == "ambient_declaration") {
				w.declare(stmt, stmt, t)
				continue
			}
			for _, name := range w.localNames(stmt) {
				locals[name] = append(locals[name], stmt)
			}
		}
	}

	for _, stmt := range clauses {
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			clause := stmt.NamedChild(i)
			if clause.Type() != "export_clause" {
				continue
			}
			w.exportClause(clause, t, locals)
		}
	}
}

// exportClause records `export { a, b as c }` specifiers that name local
// declarations. Re-exports of imports are left to their defining file.
func (w *walker) exportClause(clause *sitter.Node, t target, locals map[string][]*sitter.Node) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		local := w.text(nameNode)
		st := t
		st.only = local
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			st.alias = w.text(alias)
		}
		for _, stmt := range locals[local] {
			w.declare(stmt, stmt, st)
		}
	}
}

// exportDefault records `export default <expression>`
func (w *walker) exportDefault(value, stmt *sitter.Node, t target, locals map[string][]*sitter.Node) {
	switch value.Type() {
	case "identifier":
		name := w.text(value)
		st := t
		st.only = name
		for _, decl := range locals[name] {
			w.declare(decl, decl, st)
		}
	case "class":
		qname := t.name("default")
		w.result.AddSymbol(qname, ast.KindClass, w.site(stmt), w.doc(stmt))
		w.members(value, qname)
	case "function", "function_expression", "arrow_function", "generator_function":
		w.result.AddSymbol(t.name("default"), ast.KindFunction, w.site(stmt), w.doc(stmt))
	default:
		w.result.AddSymbol(t.name("default"), ast.KindVariable, w.site(stmt), w.doc(stmt))
	}
}

// declare records the symbols a declaration introduces. anchor is the node
// the doc comment attaches to and the site is taken from.
func (w *walker) declare(decl, anchor *sitter.Node, t target) {
	if decl.Type() == "expression_statement" && decl.NamedChildCount() > 0 {
		decl = decl.NamedChild(0)
	}

	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		if name, ok := w.declName(decl, t); ok {
			w.result.AddOverload(t.name(name), ast.KindFunction, w.site(anchor), w.doc(anchor))
		}

	case "class_declaration", "abstract_class_declaration":
		if name, ok := w.declName(decl, t); ok {
			qname := t.name(name)
			w.result.AddSymbol(qname, ast.KindClass, w.site(anchor), w.doc(anchor))
			w.members(decl, qname)
		}

	case "interface_declaration":
		if name, ok := w.declName(decl, t); ok {
			w.result.AddSymbol(t.name(name), ast.KindInterface, w.site(anchor), w.doc(anchor))
		}

	case "type_alias_declaration":
		if name, ok := w.declName(decl, t); ok {
			w.result.AddSymbol(t.name(name), ast.KindTypeAlias, w.site(anchor), w.doc(anchor))
		}

	case "enum_declaration":
		if name, ok := w.declName(decl, t); ok {
			w.result.AddSymbol(t.name(name), ast.KindEnum, w.site(anchor), w.doc(anchor))
		}

	case "lexical_declaration", "variable_declaration":
		w.declareVariables(decl, anchor, t)

	case "internal_module", "module":
		name, ok := w.declName(decl, t)
		if !ok || strings.HasPrefix(name, `"`) || strings.HasPrefix(name, "'") {
			return
		}
		qname := t.name(name)
		w.result.AddSymbol(qname, ast.KindNamespace, w.site(anchor), w.doc(anchor))
		if body := decl.ChildByFieldName("body"); body != nil {
			w.walkScope(body, target{prefix: qname + ".", ambient: t.ambient})
		}

	case "ambient_declaration":
		inner := target{prefix: t.prefix, only: t.only, alias: t.alias, ambient: true}
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			child := decl.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			w.declare(child, anchor, inner)
		}
	}
}

// declareVariables records each declarator of a const/let/var statement.
// Function-valued bindings are classified as functions.
func (w *walker) declareVariables(decl, anchor *sitter.Node, t target) {
	kind := ast.KindVariable
	if decl.Type() == "lexical_declaration" && decl.ChildCount() > 0 && decl.Child(0).Type() == "const" {
		kind = ast.KindConst
	}

	var declarators []*sitter.Node
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		if child := decl.NamedChild(i); child.Type() == "variable_declarator" {
			declarators = append(declarators, child)
		}
	}

	doc := w.doc(anchor)
	for _, d := range declarators {
		nameNode := d.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := w.text(nameNode)
		if t.only != "" && name != t.only {
			continue
		}

		k := kind
		if value := d.ChildByFieldName("value"); value != nil {
			switch value.Type() {
			case "arrow_function", "function", "function_expression", "generator_function":
				k = ast.KindFunction
			}
		}

		site := w.site(anchor)
		if len(declarators) > 1 {
			site = w.site(d)
		}
		w.result.AddSymbol(t.name(name), k, site, doc)
	}
}

// members records the public methods and fields of an exported class
func (w *walker) members(class *sitter.Node, owner string) {
	body := class.ChildByFieldName("body")
	if body == nil {
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)

		var kind ast.DeclarationKind
		switch m.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			kind = ast.KindMethod
		case "public_field_definition", "field_definition":
			kind = ast.KindProperty
		default:
			continue
		}

		name := w.memberName(m)
		if name == "" || name == "constructor" || !w.isPublic(m) {
			continue
		}

		qname := owner + "." + name
		doc := ast.PrecedingDocComment(m, w.source, "decorator")
		if kind == ast.KindMethod {
			// Overload signatures and get/set pairs share one symbol
			w.result.AddOverload(qname, kind, w.site(m), doc)
		} else {
			w.result.AddSymbol(qname, kind, w.site(m), doc)
		}
	}
}

// memberName returns the member's plain name, or "" for private (#x) and
// computed ([expr]) names
func (w *walker) memberName(m *sitter.Node) string {
	nameNode := m.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = m.ChildByFieldName("property")
	}
	if nameNode == nil {
		return ""
	}

	switch nameNode.Type() {
	case "private_property_identifier", "computed_property_name":
		return ""
	}
	name := w.text(nameNode)
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "[") {
		return ""
	}
	return strings.Trim(name, `"'`)
}

// isPublic reports whether a class member lacks a private or protected
// accessibility modifier
func (w *walker) isPublic(m *sitter.Node) bool {
	for i := 0; i < int(m.ChildCount()); i++ {
		child := m.Child(i)
		if child.Type() != "accessibility_modifier" {
			continue
		}
		switch w.text(child) {
		case "private", "protected":
			return false
		}
	}
	return true
}

// localNames returns the names a non-exported top-level statement declares
func (w *walker) localNames(stmt *sitter.Node) []string {
	decl := stmt
	if decl.Type() == "expression_statement" && decl.NamedChildCount() > 0 {
		decl = decl.NamedChild(0)
	}

	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			child := decl.NamedChild(i)
			if child.Type() != "variable_declarator" {
				continue
			}
			if n := child.ChildByFieldName("name"); n != nil && n.Type() == "identifier" {
				names = append(names, w.text(n))
			}
		}
		return names

	case "ambient_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			names = append(names, w.localNames(decl.NamedChild(i))...)
		}
		return names

	default:
		if n := decl.ChildByFieldName("name"); n != nil {
			return []string{w.text(n)}
		}
	}
	return nil
}

// declName returns the declared name, honoring the target's restriction
func (w *walker) declName(decl *sitter.Node, t target) (string, bool) {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return "", false
	}
	name := w.text(nameNode)
	if t.only != "" && name != t.only {
		return "", false
	}
	return name, true
}

// doc returns the doc comment attached to anchor
func (w *walker) doc(anchor *sitter.Node) string {
	doc := ast.PrecedingDocComment(anchor, w.source, "decorator")
	if isFileComment(doc) {
		return ""
	}
	return doc
}

func (w *walker) site(n *sitter.Node) ast.Site {
	return ast.NodeSite(n, w.path)
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.source)
}
