package ast

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseTree parses content with a tree-sitter grammar. A tree containing
// syntax errors is rejected with an error naming the first error position.
func ParseTree(ctx context.Context, lang *sitter.Language, file *SourceFile) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, file.Content)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := SyntaxError(tree.RootNode(), file.RelPath); err != nil {
		tree.Close()
		return nil, err
	}
	return tree, nil
}

// SyntaxError returns an error naming the first ERROR or missing node below
// root, or nil when the tree is clean.
func SyntaxError(root *sitter.Node, path string) error {
	if root == nil || !root.HasError() {
		return nil
	}
	n := firstError(root)
	pt := n.StartPoint()
	if n.IsMissing() {
		return fmt.Errorf("%s:%d:%d: syntax error: missing %s", path, pt.Row+1, pt.Column+1, n.Type())
	}
	return fmt.Errorf("%s:%d:%d: syntax error", path, pt.Row+1, pt.Column+1)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "ERROR" || child.IsMissing() || child.HasError() {
			return firstError(child)
		}
	}
	return n
}

// NodeSite returns the site where n starts.
func NodeSite(n *sitter.Node, path string) Site {
	pt := n.StartPoint()
	return Site{
		Path:   path,
		Offset: int(n.StartByte()),
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
	}
}

// PrecedingDocComment returns the cleaned /** */ comment attached to n: the
// previous named sibling, ending on the line directly above n (or on the
// same line). Line comments and sibling nodes whose type is listed in skip
// may sit between the doc comment and n.
func PrecedingDocComment(n *sitter.Node, source []byte, skip ...string) string {
	row := int(n.StartPoint().Row)
	prev := n.PrevNamedSibling()

	for prev != nil && row-int(prev.EndPoint().Row) <= 1 {
		switch prev.Type() {
		case "comment", "block_comment", "line_comment":
			text := prev.Content(source)
			if IsDocBlockComment(text) {
				return CleanBlockComment(text)
			}
			if !strings.HasPrefix(text, "//") {
				return ""
			}
		default:
			if !slices.Contains(skip, prev.Type()) {
				return ""
			}
		}
		row = int(prev.StartPoint().Row)
		prev = prev.PrevNamedSibling()
	}
	return ""
}
