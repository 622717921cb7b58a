// Package python extracts public declarations and their docstrings from
// Python source files using tree-sitter.
package python

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/docscheck/processor/ast"
)

func init() {
	ast.DefaultRegistry.Register("python", []string{".py", ".pyi"},
		func() ast.FileParser {
			return NewParser()
		})
}

// enumBases are the base classes that make a class an enumeration
var enumBases = map[string]bool{
	"Enum":    true,
	"IntEnum": true,
	"StrEnum": true,
	"Flag":    true,
	"IntFlag": true,
}

// Parser extracts public declarations from Python source files.
type Parser struct{}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single Python file. The dotted module path derived from
// the file path is the scope of every symbol.
func (p *Parser) ParseFile(ctx context.Context, file *ast.SourceFile) (*ast.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := ast.ParseTree(ctx, python.GetLanguage(), file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	result := ast.NewParseResult(file, "python", extractModuleName(file.RelPath), ast.SyntaxSphinx)
	result.FileDoc = extractBodyDocstring(root, file.Content)
	if strings.HasSuffix(file.RelPath, ".pyi") {
		result.Overlays = strings.TrimSuffix(file.RelPath, ".pyi") + ".py"
	}

	m := &module{
		source: file.Content,
		path:   file.RelPath,
		result: result,
		all:    extractAll(root, file.Content),
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		m.extractNode(root.NamedChild(i))
	}

	sort.SliceStable(result.Symbols, func(i, j int) bool {
		return result.Symbols[i].Site.Less(result.Symbols[j].Site)
	})

	return result, nil
}

// extractModuleName converts a relative file path into a dotted module path.
func extractModuleName(relPath string) string {
	modPath := strings.TrimSuffix(strings.TrimSuffix(relPath, ".pyi"), ".py")
	modPath = strings.ReplaceAll(modPath, "/", ".")
	modPath = strings.TrimSuffix(modPath, "__init__")
	return strings.TrimSuffix(modPath, ".")
}

type module struct {
	source []byte
	path   string
	result *ast.ParseResult

	// all is the __all__ list, nil when the module does not define one
	all map[string]bool
}

// exported reports whether a top-level name is part of the public surface
func (m *module) exported(name string) bool {
	if m.all != nil {
		return m.all[name]
	}
	return isPublic(name)
}

// extractNode records a top-level statement.
func (m *module) extractNode(node *sitter.Node) {
	switch node.Type() {
	case "class_definition", "function_definition":
		m.extractDefinition(node, node, "", m.exported)

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			m.extractDefinition(def, node, "", m.exported)
		}

	case "expression_statement":
		m.extractAssignment(node)
	}
}

// extractDefinition records a class or function. anchor is the statement
// including decorators, where the site is taken from.
func (m *module) extractDefinition(def, anchor *sitter.Node, owner string, visible func(string) bool) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := m.text(nameNode)
	if !visible(name) {
		return
	}
	qname := name
	if owner != "" {
		qname = owner + "." + name
	}

	body := def.ChildByFieldName("body")
	doc := extractBodyDocstring(body, m.source)
	site := ast.NodeSite(anchor, m.path)

	switch def.Type() {
	case "class_definition":
		kind := ast.KindClass
		if m.isEnum(def) {
			kind = ast.KindEnum
		}
		m.result.AddSymbol(qname, kind, site, doc)
		m.extractMembers(body, qname)

	case "function_definition":
		if owner == "" {
			m.result.AddOverload(qname, ast.KindFunction, site, doc)
			return
		}
		kind := ast.KindMethod
		if m.hasDecorator(anchor, "property") || m.hasDecorator(anchor, "cached_property") {
			kind = ast.KindProperty
		}
		// Property setters and typing overloads share one symbol
		m.result.AddOverload(qname, kind, site, doc)
	}
}

// extractMembers records the public methods and nested classes of a class
func (m *module) extractMembers(body *sitter.Node, owner string) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "class_definition", "function_definition":
			m.extractDefinition(child, child, owner, isPublic)
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				m.extractDefinition(def, child, owner, isPublic)
			}
		}
	}
}

// extractAssignment records a module-level assignment. Its documentation is
// a comment block directly above, or a string literal directly below.
func (m *module) extractAssignment(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := m.text(left)
	if name == "__all__" || !m.exported(name) {
		return
	}

	kind := ast.KindVariable
	if typeNode := assign.ChildByFieldName("type"); typeNode != nil && strings.HasSuffix(m.text(typeNode), "TypeAlias") {
		kind = ast.KindTypeAlias
	} else if isAllCaps(name) {
		kind = ast.KindConst
	}

	doc := m.commentAbove(stmt)
	if doc == "" {
		doc = m.stringBelow(stmt)
	}
	m.result.AddSymbol(name, kind, ast.NodeSite(stmt, m.path), doc)
}

// commentAbove collects the # comment lines ending directly above node
func (m *module) commentAbove(node *sitter.Node) string {
	var lines []string
	row := int(node.StartPoint().Row)
	prev := node.PrevNamedSibling()
	for prev != nil && prev.Type() == "comment" && row-int(prev.EndPoint().Row) == 1 && m.ownLine(prev) {
		text := strings.TrimPrefix(m.text(prev), "#")
		text = strings.TrimPrefix(text, ":")
		lines = append([]string{strings.TrimSpace(text)}, lines...)
		row = int(prev.StartPoint().Row)
		prev = prev.PrevNamedSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// stringBelow returns a bare string literal statement on the line after node
func (m *module) stringBelow(node *sitter.Node) string {
	next := node.NextNamedSibling()
	if next == nil || next.Type() != "expression_statement" || next.NamedChildCount() == 0 {
		return ""
	}
	if int(next.StartPoint().Row)-int(node.EndPoint().Row) != 1 {
		return ""
	}
	if expr := next.NamedChild(0); expr.Type() == "string" {
		return extractStringContent(m.text(expr))
	}
	return ""
}

// ownLine reports whether node is the first thing on its source line
func (m *module) ownLine(node *sitter.Node) bool {
	for i := int(node.StartByte()) - 1; i >= 0; i-- {
		switch m.source[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}

// isEnum reports whether a class derives from one of the enum base classes
func (m *module) isEnum(class *sitter.Node) bool {
	bases := class.ChildByFieldName("superclasses")
	if bases == nil {
		return false
	}
	for i := 0; i < int(bases.NamedChildCount()); i++ {
		base := m.text(bases.NamedChild(i))
		if idx := strings.LastIndex(base, "."); idx >= 0 {
			base = base[idx+1:]
		}
		if enumBases[base] {
			return true
		}
	}
	return false
}

// hasDecorator reports whether a decorated definition carries @name
func (m *module) hasDecorator(anchor *sitter.Node, name string) bool {
	if anchor.Type() != "decorated_definition" {
		return false
	}
	for i := 0; i < int(anchor.NamedChildCount()); i++ {
		child := anchor.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(m.text(child), "@"))
		if text == name || strings.HasSuffix(text, "."+name) {
			return true
		}
	}
	return false
}

func (m *module) text(n *sitter.Node) string {
	return n.Content(m.source)
}

// extractAll returns the names listed in a module-level __all__, or nil
func extractAll(root *sitter.Node, source []byte) map[string]bool {
	var all map[string]bool
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" && assign.Type() != "augmented_assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Content(source) != "__all__" {
			continue
		}
		if right.Type() != "list" && right.Type() != "tuple" {
			continue
		}
		if all == nil || assign.Type() == "assignment" {
			all = make(map[string]bool)
		}
		for j := 0; j < int(right.NamedChildCount()); j++ {
			item := right.NamedChild(j)
			if item.Type() == "string" {
				all[extractStringContent(item.Content(source))] = true
			}
		}
	}
	return all
}

// extractBodyDocstring extracts the docstring from a module, class, or
// function body.
func extractBodyDocstring(body *sitter.Node, content []byte) string {
	if body == nil {
		return ""
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if child.Type() == "expression_statement" && child.NamedChildCount() > 0 {
			if expr := child.NamedChild(0); expr.Type() == "string" {
				return extractStringContent(expr.Content(content))
			}
		}
		return ""
	}
	return ""
}

// extractStringContent extracts the actual string content, removing quotes
// and string prefixes, and dedents its lines.
func extractStringContent(raw string) string {
	raw = strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			raw = raw[len(q) : len(raw)-len(q)]
			break
		}
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// isPublic reports whether a name is public by Python naming conventions.
func isPublic(name string) bool {
	return !strings.HasPrefix(name, "_")
}

// isAllCaps returns true if the string is all uppercase (constant naming convention).
func isAllCaps(s string) bool {
	if s == "" {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
