// # internal/parser/convert.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyfront/internal/ast"
)

// converter lowers the tree-sitter CST into the pyfront AST. Binary operators
// desugar into dunder-method access calls and subscripts into __getitem__, so
// every call site is uniformly the trailing Call of an access chain.
type converter struct {
	source      []byte
	handle      string
	startLine   int
	startColumn int
	nextID      int
}

func (c *converter) text(node *sitter.Node) string {
	return string(c.source[node.StartByte():node.EndByte()])
}

func (c *converter) position(point sitter.Point) ast.Position {
	line := c.startLine + int(point.Row)
	column := int(point.Column)
	if point.Row == 0 {
		column += c.startColumn
	}
	return ast.Position{Line: line, Column: column}
}

func (c *converter) location(node *sitter.Node) ast.Location {
	return ast.Location{
		Path:  c.handle,
		Start: c.position(node.StartPosition()),
		Stop:  c.position(node.EndPosition()),
	}
}

func (c *converter) module(root *sitter.Node) []ast.Stmt {
	return c.block(root)
}

func (c *converter) block(node *sitter.Node) []ast.Stmt {
	if node == nil {
		return nil
	}
	var out []ast.Stmt
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, c.statement(child)...)
	}
	return out
}

func (c *converter) statement(node *sitter.Node) []ast.Stmt {
	loc := c.location(node)
	switch node.Kind() {
	case "expression_statement":
		var out []ast.Stmt
		for i := uint(0); i < node.NamedChildCount(); i++ {
			out = append(out, c.simpleStatement(node.NamedChild(i))...)
		}
		return out

	case "assignment", "augmented_assignment":
		return c.simpleStatement(node)

	case "import_statement":
		return []ast.Stmt{c.importStatement(node, loc)}

	case "import_from_statement":
		return []ast.Stmt{c.importFromStatement(node, loc)}

	case "future_import_statement":
		return nil

	case "function_definition":
		return []ast.Stmt{c.functionDefinition(node, loc, nil)}

	case "class_definition":
		return []ast.Stmt{c.classDefinition(node, loc, nil)}

	case "decorated_definition":
		var decorators []ast.Expr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() == "decorator" {
				if child.NamedChildCount() > 0 {
					decorators = append(decorators, c.expression(child.NamedChild(0)))
				}
			}
		}
		definition := node.ChildByFieldName("definition")
		if definition == nil {
			return nil
		}
		if definition.Kind() == "class_definition" {
			return []ast.Stmt{c.classDefinition(definition, c.location(definition), decorators)}
		}
		return []ast.Stmt{c.functionDefinition(definition, c.location(definition), decorators)}

	case "if_statement":
		return []ast.Stmt{c.ifStatement(node, loc)}

	case "for_statement":
		stmt := &ast.For{
			Loc:      loc,
			Target:   c.expression(node.ChildByFieldName("left")),
			Iterator: c.expression(node.ChildByFieldName("right")),
			Body:     c.block(node.ChildByFieldName("body")),
			Async:    hasKeyword(node, "async"),
		}
		if alternative := node.ChildByFieldName("alternative"); alternative != nil {
			stmt.Orelse = c.block(alternative.ChildByFieldName("body"))
		}
		return []ast.Stmt{stmt}

	case "while_statement":
		stmt := &ast.While{
			Loc:  loc,
			Test: c.expression(node.ChildByFieldName("condition")),
			Body: c.block(node.ChildByFieldName("body")),
		}
		if alternative := node.ChildByFieldName("alternative"); alternative != nil {
			stmt.Orelse = c.block(alternative.ChildByFieldName("body"))
		}
		return []ast.Stmt{stmt}

	case "try_statement":
		return []ast.Stmt{c.tryStatement(node, loc)}

	case "with_statement":
		return []ast.Stmt{c.withStatement(node, loc)}

	case "return_statement":
		stmt := &ast.Return{Loc: loc}
		if node.NamedChildCount() > 0 {
			stmt.Value = c.expression(node.NamedChild(0))
		}
		return []ast.Stmt{stmt}

	case "raise_statement":
		stmt := &ast.Raise{Loc: loc}
		if node.NamedChildCount() > 0 {
			stmt.Value = c.expression(node.NamedChild(0))
		}
		return []ast.Stmt{stmt}

	case "assert_statement":
		stmt := &ast.Assert{Loc: loc, Test: c.expression(node.NamedChild(0))}
		if node.NamedChildCount() > 1 {
			stmt.Message = c.expression(node.NamedChild(1))
		}
		return []ast.Stmt{stmt}

	case "delete_statement":
		var targets []ast.Expr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			target := c.expression(node.NamedChild(i))
			if tuple, ok := target.(*ast.Tuple); ok {
				targets = append(targets, tuple.Items...)
			} else {
				targets = append(targets, target)
			}
		}
		return []ast.Stmt{&ast.Delete{Loc: loc, Targets: targets}}

	case "global_statement":
		return []ast.Stmt{&ast.Global{Loc: loc, Names: c.identifierList(node)}}

	case "nonlocal_statement":
		return []ast.Stmt{&ast.Nonlocal{Loc: loc, Names: c.identifierList(node)}}

	case "pass_statement":
		return []ast.Stmt{&ast.Pass{Loc: loc}}

	case "break_statement":
		return []ast.Stmt{&ast.Break{Loc: loc}}

	case "continue_statement":
		return []ast.Stmt{&ast.Continue{Loc: loc}}

	default:
		return nil
	}
}

// simpleStatement handles the statements an expression_statement wraps.
func (c *converter) simpleStatement(node *sitter.Node) []ast.Stmt {
	loc := c.location(node)
	switch node.Kind() {
	case "assignment":
		stmt := &ast.Assign{Loc: loc, Target: c.expression(node.ChildByFieldName("left"))}
		if annotation := node.ChildByFieldName("type"); annotation != nil {
			stmt.Annotation = c.typeExpression(annotation)
		}
		if right := node.ChildByFieldName("right"); right != nil {
			stmt.Value = c.expression(right)
		}
		return []ast.Stmt{stmt}

	case "augmented_assignment":
		// a += b desugars to a = a.__iadd__(b).
		target := c.expression(node.ChildByFieldName("left"))
		operator := augmentedOperators[operatorText(node, c)]
		if operator == "" {
			operator = "__iadd__"
		}
		value := c.dunderCall(loc, c.expression(node.ChildByFieldName("left")), operator, c.expression(node.ChildByFieldName("right")))
		return []ast.Stmt{&ast.Assign{Loc: loc, Target: target, Value: value}}

	case "yield":
		if isYieldFrom(node) {
			return []ast.Stmt{&ast.YieldFromStmt{Loc: loc, Value: c.yieldValue(node)}}
		}
		return []ast.Stmt{&ast.YieldStmt{Loc: loc, Value: c.yieldValue(node)}}

	default:
		return []ast.Stmt{&ast.ExpressionStmt{Loc: loc, Value: c.expression(node)}}
	}
}

func (c *converter) importStatement(node *sitter.Node, loc ast.Location) ast.Stmt {
	imp := &ast.Import{Loc: loc}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			imp.Imports = append(imp.Imports, ast.ImportEntry{Name: c.dottedReference(child)})
		case "aliased_import":
			entry := ast.ImportEntry{Name: c.dottedReference(child.ChildByFieldName("name"))}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				aliasRef := ast.Reference{Loc: c.location(alias), Names: []string{c.text(alias)}}
				entry.Alias = &aliasRef
			}
			imp.Imports = append(imp.Imports, entry)
		}
	}
	return imp
}

func (c *converter) importFromStatement(node *sitter.Node, loc ast.Location) ast.Stmt {
	imp := &ast.Import{Loc: loc}
	module := node.ChildByFieldName("module_name")
	if module != nil {
		if module.Kind() == "relative_import" {
			text := c.text(module)
			imp.Relative = strings.Count(text, ".")
			rest := strings.TrimLeft(text, ".")
			if rest != "" {
				from := ast.Reference{Loc: c.location(module), Names: strings.Split(rest, ".")}
				imp.From = &from
			} else {
				from := ast.Reference{Loc: c.location(module)}
				imp.From = &from
			}
		} else {
			from := c.dottedReference(module)
			imp.From = &from
		}
	}
	if wildcard := childOfKind(node, "wildcard_import"); wildcard != nil {
		imp.Imports = append(imp.Imports, ast.ImportEntry{
			Name: ast.Reference{Loc: c.location(wildcard), Names: []string{"*"}},
		})
		return imp
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if module != nil && sameNode(child, module) {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			imp.Imports = append(imp.Imports, ast.ImportEntry{Name: c.dottedReference(child)})
		case "aliased_import":
			entry := ast.ImportEntry{Name: c.dottedReference(child.ChildByFieldName("name"))}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				aliasRef := ast.Reference{Loc: c.location(alias), Names: []string{c.text(alias)}}
				entry.Alias = &aliasRef
			}
			imp.Imports = append(imp.Imports, entry)
		}
	}
	return imp
}

func (c *converter) functionDefinition(node *sitter.Node, loc ast.Location, decorators []ast.Expr) ast.Stmt {
	c.nextID++
	define := &ast.Define{
		Loc:        loc,
		ID:         c.nextID,
		Name:       ast.Reference{Loc: loc, Names: []string{c.text(node.ChildByFieldName("name"))}},
		Decorators: decorators,
		Async:      hasKeyword(node, "async"),
	}
	if parameters := node.ChildByFieldName("parameters"); parameters != nil {
		define.Parameters = c.parameters(parameters)
	}
	if returnType := node.ChildByFieldName("return_type"); returnType != nil {
		define.ReturnAnnotation = c.typeExpression(returnType)
	}
	define.Body = c.block(node.ChildByFieldName("body"))
	define.Docstring, define.Body = splitDocstring(define.Body)
	return define
}

func (c *converter) classDefinition(node *sitter.Node, loc ast.Location, decorators []ast.Expr) ast.Stmt {
	c.nextID++
	class := &ast.Class{
		Loc:        loc,
		ID:         c.nextID,
		Name:       ast.Reference{Loc: loc, Names: []string{c.text(node.ChildByFieldName("name"))}},
		Decorators: decorators,
	}
	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		class.Bases = c.callArguments(superclasses)
	}
	class.Body = c.block(node.ChildByFieldName("body"))
	class.Docstring, class.Body = splitDocstring(class.Body)
	return class
}

func (c *converter) ifStatement(node *sitter.Node, loc ast.Location) ast.Stmt {
	stmt := &ast.If{
		Loc:  loc,
		Test: c.expression(node.ChildByFieldName("condition")),
		Body: c.block(node.ChildByFieldName("consequence")),
	}
	// elif chains nest into the orelse.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "elif_clause":
			stmt.Orelse = append(stmt.Orelse, c.ifStatement(child, c.location(child)))
		case "else_clause":
			stmt.Orelse = append(stmt.Orelse, c.block(child.ChildByFieldName("body"))...)
		}
	}
	return stmt
}

func (c *converter) tryStatement(node *sitter.Node, loc ast.Location) ast.Stmt {
	stmt := &ast.Try{Loc: loc, Body: c.block(node.ChildByFieldName("body"))}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "except_clause":
			handler := ast.ExceptHandler{Loc: c.location(child)}
			for j := uint(0); j < child.NamedChildCount(); j++ {
				sub := child.NamedChild(j)
				switch sub.Kind() {
				case "block":
					handler.Body = c.block(sub)
				case "as_pattern":
					handler.Kind = c.expression(sub.NamedChild(0))
					if alias := sub.ChildByFieldName("alias"); alias != nil {
						handler.Name = c.text(alias)
					}
				default:
					if handler.Kind == nil {
						handler.Kind = c.expression(sub)
					}
				}
			}
			stmt.Handlers = append(stmt.Handlers, handler)
		case "else_clause":
			stmt.Orelse = c.block(child.ChildByFieldName("body"))
		case "finally_clause":
			stmt.Finally = c.block(childOfKind(child, "block"))
		}
	}
	return stmt
}

func (c *converter) withStatement(node *sitter.Node, loc ast.Location) ast.Stmt {
	stmt := &ast.With{Loc: loc, Async: hasKeyword(node, "async")}
	if clause := childOfKind(node, "with_clause"); clause != nil {
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			item := clause.NamedChild(i)
			if item.Kind() != "with_item" {
				continue
			}
			value := item.ChildByFieldName("value")
			w := ast.WithItem{}
			if value != nil && value.Kind() == "as_pattern" {
				w.Value = c.expression(value.NamedChild(0))
				if alias := value.ChildByFieldName("alias"); alias != nil {
					w.Target = c.expression(alias.NamedChild(0))
				}
			} else if value != nil {
				w.Value = c.expression(value)
			}
			stmt.Items = append(stmt.Items, w)
		}
	}
	stmt.Body = c.block(node.ChildByFieldName("body"))
	return stmt
}

func (c *converter) parameters(node *sitter.Node) []*ast.Parameter {
	var out []*ast.Parameter
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		loc := c.location(child)
		switch child.Kind() {
		case "identifier":
			out = append(out, &ast.Parameter{Loc: loc, Name: c.text(child)})
		case "typed_parameter":
			parameter := &ast.Parameter{Loc: loc, Name: c.text(child.NamedChild(0))}
			if annotation := child.ChildByFieldName("type"); annotation != nil {
				parameter.Annotation = c.typeExpression(annotation)
			}
			out = append(out, parameter)
		case "default_parameter":
			parameter := &ast.Parameter{Loc: loc, Name: c.text(child.ChildByFieldName("name"))}
			if value := child.ChildByFieldName("value"); value != nil {
				parameter.Value = c.expression(value)
			}
			out = append(out, parameter)
		case "typed_default_parameter":
			parameter := &ast.Parameter{Loc: loc, Name: c.text(child.ChildByFieldName("name"))}
			if annotation := child.ChildByFieldName("type"); annotation != nil {
				parameter.Annotation = c.typeExpression(annotation)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				parameter.Value = c.expression(value)
			}
			out = append(out, parameter)
		case "list_splat_pattern":
			out = append(out, &ast.Parameter{Loc: loc, Name: "*" + c.text(child.NamedChild(0))})
		case "dictionary_splat_pattern":
			out = append(out, &ast.Parameter{Loc: loc, Name: "**" + c.text(child.NamedChild(0))})
		}
	}
	return out
}

func (c *converter) identifierList(node *sitter.Node) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "identifier" {
			out = append(out, c.text(child))
		}
	}
	return out
}

func (c *converter) dottedReference(node *sitter.Node) ast.Reference {
	return ast.Reference{Loc: c.location(node), Names: strings.Split(c.text(node), ".")}
}

func (c *converter) yieldValue(node *sitter.Node) ast.Expr {
	if node.NamedChildCount() == 0 {
		return nil
	}
	return c.expression(node.NamedChild(0))
}

func isYieldFrom(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "from" {
			return true
		}
	}
	return false
}

func hasKeyword(node *sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == keyword {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// splitDocstring records a leading string expression as the docstring. The
// statement itself stays in the body so bodies are never emptied.
func splitDocstring(body []ast.Stmt) (string, []ast.Stmt) {
	if len(body) == 0 {
		return "", body
	}
	expr, ok := body[0].(*ast.ExpressionStmt)
	if !ok {
		return "", body
	}
	literal, ok := expr.Value.(*ast.StringLiteral)
	if !ok || literal.Kind != ast.StringRaw {
		return "", body
	}
	return literal.Value, body
}

func operatorText(node *sitter.Node, c *converter) string {
	if operator := node.ChildByFieldName("operator"); operator != nil {
		return c.text(operator)
	}
	return ""
}

func (c *converter) dunderCall(loc ast.Location, receiver ast.Expr, method string, arguments ...ast.Expr) ast.Expr {
	args := make([]ast.Argument, len(arguments))
	for i, argument := range arguments {
		args[i] = ast.Argument{Value: argument}
	}
	elements := []ast.AccessElement{
		&ast.Identifier{Loc: loc, Name: method},
		&ast.Call{Loc: loc, Arguments: args},
	}
	if access, ok := receiver.(*ast.AccessExpr); ok {
		combined := append(append([]ast.AccessElement(nil), access.Elements...), elements...)
		return &ast.AccessExpr{Loc: loc, Base: access.Base, Elements: combined}
	}
	return &ast.AccessExpr{Loc: loc, Base: receiver, Elements: elements}
}
