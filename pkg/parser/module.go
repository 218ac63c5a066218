package parser

import (
	"fmt"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// legacyOctal matches numeric literals with a leading zero followed by a
// digit, which strict mode rejects ("010", "08", "01.5").
var legacyOctal = regexp.MustCompile(`^0[0-9]`)

// CheckModule parses JavaScript source and rejects anything that is not a
// valid ES module: syntax errors first, then the constructs the grammar
// accepts but module (strict) code does not. These are JSX, return outside
// a function, with statements, legacy octal numbers, and a name declared
// twice in one scope by let, const, class, import or a module-level
// function.
func (pm *ParserManager) CheckModule(source []byte) error {
	tree, err := pm.Parse(source, LanguageJavaScript, false)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	var serr *SyntaxError
	if root.HasError() {
		serr = firstSyntaxError(root, source)
	} else {
		c := moduleChecker{source: source}
		serr = c.visit(root, newScope(false, false))
	}
	if serr == nil {
		return nil
	}
	pm.logger.Debug("module syntax error",
		"line", serr.Line,
		"column", serr.Column,
		"reason", serr.Reason)
	return serr
}

type scope struct {
	lexical map[string]bool
	vars    map[string]bool
	// inFunction is set anywhere inside a function; functionBody only at a
	// function's top level, where function declarations are var-scoped.
	inFunction   bool
	functionBody bool
}

func newScope(inFunction, functionBody bool) *scope {
	return &scope{
		lexical:      map[string]bool{},
		vars:         map[string]bool{},
		inFunction:   inFunction,
		functionBody: functionBody,
	}
}

type moduleChecker struct {
	source []byte
}

func (c *moduleChecker) errorAt(n *ts.Node, format string, args ...any) *SyntaxError {
	pos := n.StartPosition()
	return &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Reason: fmt.Sprintf(format, args...),
	}
}

func isFunctionNode(kind string) bool {
	switch kind {
	case "function_declaration", "function_expression", "function",
		"generator_function_declaration", "generator_function",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

func (c *moduleChecker) visit(n *ts.Node, sc *scope) *SyntaxError {
	kind := n.Kind()
	switch {
	case strings.HasPrefix(kind, "jsx_"):
		return c.errorAt(n, "JSX is not valid in a module")
	case kind == "with_statement":
		return c.errorAt(n, "'with' in strict mode")
	case kind == "return_statement" && !sc.inFunction:
		return c.errorAt(n, "'return' outside of function")
	case kind == "number" && legacyOctal.MatchString(n.Utf8Text(c.source)):
		return c.errorAt(n, "invalid number %s", n.Utf8Text(c.source))
	}

	if err := c.declare(n, sc); err != nil {
		return err
	}

	inner := sc
	switch {
	case isFunctionNode(kind):
		inner = newScope(true, true)
	case kind == "statement_block":
		if p := n.Parent(); p == nil || !isFunctionNode(p.Kind()) {
			inner = newScope(sc.inFunction, false)
		}
	case kind == "switch_body", kind == "for_statement", kind == "for_in_statement", kind == "class_body":
		inner = newScope(sc.inFunction, false)
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if err := c.visit(child, inner); err != nil {
			return err
		}
	}
	return nil
}

// declare records the bindings n introduces into sc.
func (c *moduleChecker) declare(n *ts.Node, sc *scope) *SyntaxError {
	switch n.Kind() {
	case "lexical_declaration":
		for _, id := range c.declaratorNames(n) {
			if err := c.addLexical(id, sc); err != nil {
				return err
			}
		}
	case "variable_declaration":
		for _, id := range c.declaratorNames(n) {
			name := id.Utf8Text(c.source)
			if sc.lexical[name] {
				return c.errorAt(id, "identifier %q has already been declared", name)
			}
			sc.vars[name] = true
		}
	case "class_declaration":
		if id := n.ChildByFieldName("name"); id != nil {
			return c.addLexical(id, sc)
		}
	case "function_declaration", "generator_function_declaration":
		id := n.ChildByFieldName("name")
		if id == nil {
			return nil
		}
		if sc.functionBody {
			name := id.Utf8Text(c.source)
			if sc.lexical[name] {
				return c.errorAt(id, "identifier %q has already been declared", name)
			}
			sc.vars[name] = true
			return nil
		}
		return c.addLexical(id, sc)
	case "import_statement":
		for _, id := range importBindings(n) {
			if err := c.addLexical(id, sc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *moduleChecker) addLexical(id *ts.Node, sc *scope) *SyntaxError {
	name := id.Utf8Text(c.source)
	if sc.lexical[name] || sc.vars[name] {
		return c.errorAt(id, "identifier %q has already been declared", name)
	}
	sc.lexical[name] = true
	return nil
}

func (c *moduleChecker) declaratorNames(decl *ts.Node) []*ts.Node {
	var out []*ts.Node
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		d := decl.NamedChild(i)
		if d == nil || d.Kind() != "variable_declarator" {
			continue
		}
		if name := d.ChildByFieldName("name"); name != nil {
			out = append(out, patternNames(name)...)
		}
	}
	return out
}

// patternNames returns the identifiers a binding pattern declares, skipping
// property keys and default values.
func patternNames(n *ts.Node) []*ts.Node {
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*ts.Node{n}
	case "assignment_pattern", "object_assignment_pattern":
		if left := n.ChildByFieldName("left"); left != nil {
			return patternNames(left)
		}
		return nil
	case "pair_pattern":
		if value := n.ChildByFieldName("value"); value != nil {
			return patternNames(value)
		}
		return nil
	case "object_pattern", "array_pattern", "rest_pattern":
		var out []*ts.Node
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if child := n.NamedChild(i); child != nil {
				out = append(out, patternNames(child)...)
			}
		}
		return out
	}
	return nil
}

func importBindings(stmt *ts.Node) []*ts.Node {
	var out []*ts.Node
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause == nil || clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			if part == nil {
				continue
			}
			switch part.Kind() {
			case "identifier":
				out = append(out, part)
			case "namespace_import":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					if id := part.NamedChild(k); id != nil && id.Kind() == "identifier" {
						out = append(out, id)
					}
				}
			case "named_imports":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					spec := part.NamedChild(k)
					if spec == nil || spec.Kind() != "import_specifier" {
						continue
					}
					id := spec.ChildByFieldName("alias")
					if id == nil {
						id = spec.ChildByFieldName("name")
					}
					if id != nil && id.Kind() == "identifier" {
						out = append(out, id)
					}
				}
			}
		}
	}
	return out
}
