package parser

import (
	"errors"
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ErrSyntax is wrapped by every *SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first malformed construct in a source file.
// Line and Column are 1-based.
type SyntaxError struct {
	Line   int
	Column int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (%d:%d)", e.Reason, e.Line, e.Column)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

const maxSnippet = 32

// firstSyntaxError walks the tree depth-first and describes the first ERROR
// or MISSING node. root must report HasError.
func firstSyntaxError(root *ts.Node, source []byte) *SyntaxError {
	node := findErrorNode(root)
	if node == nil {
		node = root
	}

	pos := node.StartPosition()
	serr := &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}

	switch {
	case node.IsMissing():
		serr.Reason = fmt.Sprintf("missing %s", node.Kind())
	case node.IsError():
		text := strings.TrimSpace(node.Utf8Text(source))
		if len(text) > maxSnippet {
			text = text[:maxSnippet] + "..."
		}
		if text == "" {
			serr.Reason = "unexpected end of input"
		} else {
			serr.Reason = fmt.Sprintf("unexpected token near %q", text)
		}
	default:
		serr.Reason = "malformed source"
	}
	return serr
}

func findErrorNode(node *ts.Node) *ts.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < uint(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.HasError() || child.IsMissing() {
			if found := findErrorNode(child); found != nil {
				return found
			}
		}
	}
	return nil
}
