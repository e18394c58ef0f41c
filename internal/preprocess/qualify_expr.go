// # internal/preprocess/qualify_expr.go
package preprocess

import (
	"log/slog"
	"strings"

	"pyfront/internal/ast"
	"pyfront/internal/scope"
)

func (q *qualifier) expression(s *scope.Scope, expression ast.Expr, opts exprOptions) ast.Expr {
	if expression == nil {
		return nil
	}
	if s.Skip[expression.Span()] {
		return expression
	}
	switch e := expression.(type) {
	case *ast.AccessExpr:
		return q.access(s, e, opts)
	case *ast.Name:
		return q.name(s, e, opts)
	case *ast.StringLiteral:
		if opts.qualifyStrings && e.Kind == ast.StringRaw {
			return q.stringAnnotation(s, e)
		}
		if e.Kind == ast.StringFormat {
			n := *e
			n.Format = make([]ast.Expr, len(e.Format))
			for i, sub := range e.Format {
				n.Format[i] = q.expression(s, sub, exprOptions{})
			}
			return &n
		}
		return e
	case *ast.Await:
		n := *e
		n.Operand = q.expression(s, e.Operand, opts)
		return &n
	case *ast.BooleanOp:
		n := *e
		n.Left = q.expression(s, e.Left, opts)
		n.Right = q.expression(s, e.Right, opts)
		return &n
	case *ast.Comparison:
		n := *e
		n.Left = q.expression(s, e.Left, opts)
		n.Comparisons = make([]ast.ComparisonPair, len(e.Comparisons))
		for i, pair := range e.Comparisons {
			p := pair
			p.Right = q.expression(s, pair.Right, opts)
			n.Comparisons[i] = p
		}
		return &n
	case *ast.Dictionary:
		n := *e
		n.Entries = make([]ast.DictEntry, len(e.Entries))
		for i, entry := range e.Entries {
			d := entry
			d.Key = q.expression(s, entry.Key, opts)
			d.Value = q.expression(s, entry.Value, opts)
			n.Entries[i] = d
		}
		return &n
	case *ast.DictComprehension:
		n := *e
		child := s.Copy()
		n.Generators = q.generators(child, e.Generators)
		n.Key = q.expression(child, e.Key, opts)
		n.Value = q.expression(child, e.Value, opts)
		return &n
	case *ast.Comprehension:
		n := *e
		child := s.Copy()
		n.Generators = q.generators(child, e.Generators)
		n.Element = q.expression(child, e.Element, opts)
		return &n
	case *ast.Lambda:
		n := *e
		child := s.Copy()
		child.IsTopLevel = false
		n.Parameters = make([]*ast.Parameter, len(e.Parameters))
		for i, parameter := range e.Parameters {
			p := *parameter
			stars, bare := splitStars(parameter.Name)
			bare = ast.SanitizeName(bare)
			renamed := "$parameter$" + bare
			p.Name = stars + renamed
			p.Value = q.expression(s, parameter.Value, exprOptions{})
			child.SetAlias(bare, scope.Alias{
				Access:    ast.SimpleAccess(parameter.Loc, renamed),
				Qualifier: child.Qualifier,
			})
			n.Parameters[i] = &p
		}
		n.Body = q.expression(child, e.Body, opts)
		return &n
	case *ast.List:
		n := *e
		n.Items = q.expressionList(s, e.Items, opts)
		return &n
	case *ast.Set:
		n := *e
		n.Items = q.expressionList(s, e.Items, opts)
		return &n
	case *ast.Tuple:
		n := *e
		n.Items = q.expressionList(s, e.Items, opts)
		return &n
	case *ast.Starred:
		n := *e
		n.Operand = q.expression(s, e.Operand, opts)
		return &n
	case *ast.Ternary:
		n := *e
		n.Target = q.expression(s, e.Target, opts)
		n.Test = q.expression(s, e.Test, opts)
		n.Alternative = q.expression(s, e.Alternative, opts)
		return &n
	case *ast.Unary:
		n := *e
		n.Operand = q.expression(s, e.Operand, opts)
		return &n
	case *ast.Yield:
		n := *e
		n.Value = q.expression(s, e.Value, opts)
		return &n
	default:
		return expression
	}
}

func (q *qualifier) expressionList(s *scope.Scope, items []ast.Expr, opts exprOptions) []ast.Expr {
	out := make([]ast.Expr, len(items))
	for i, item := range items {
		out[i] = q.expression(s, item, opts)
	}
	return out
}

// generators bind comprehension targets as locals in the child scope.
func (q *qualifier) generators(child *scope.Scope, gens []ast.ComprehensionFor) []ast.ComprehensionFor {
	out := make([]ast.ComprehensionFor, len(gens))
	for i, gen := range gens {
		g := gen
		g.Iterator = q.expression(child, gen.Iterator, exprOptions{})
		g.Target = q.target(child, gen.Target, false)
		g.Conditions = q.expressionList(child, gen.Conditions, exprOptions{})
		out[i] = g
	}
	return out
}

// name resolves a bare identifier exactly like a single-element access head.
func (q *qualifier) name(s *scope.Scope, name *ast.Name, opts exprOptions) ast.Expr {
	alias, ok := s.Lookup(name.ID)
	if !ok || (alias.IsForwardReference && !s.UseForwardReferences) {
		return name
	}
	if opts.suppressSynthetics && isSyntheticAccess(alias.Access) {
		return s.Qualifier.Extend(name.ID).ToAccess()
	}
	return cloneAccessAt(alias.Access, name.Loc)
}

// access rewrites the chain head through the alias map, then walks the
// remaining elements qualifying call arguments.
func (q *qualifier) access(s *scope.Scope, access *ast.AccessExpr, opts exprOptions) ast.Expr {
	n := *access
	rest := access.Elements
	var elements []ast.AccessElement

	if access.Base != nil {
		n.Base = q.expression(s, access.Base, exprOptions{})
	} else if head := access.Head(); head != nil {
		if alias, ok := s.Lookup(head.Name); ok && (!alias.IsForwardReference || s.UseForwardReferences) {
			if opts.suppressSynthetics && isSyntheticAccess(alias.Access) {
				elements = append(elements, s.Qualifier.Extend(head.Name).ToAccess().Elements...)
			} else {
				elements = append(elements, cloneAccessAt(alias.Access, head.Loc).Elements...)
			}
			rest = access.Elements[1:]
		}
	}

	var lastName string
	for _, element := range elements {
		if id, ok := element.(*ast.Identifier); ok {
			lastName = id.Name
		}
	}
	for _, element := range rest {
		switch element := element.(type) {
		case *ast.Identifier:
			if element.Name != "__getitem__" {
				lastName = element.Name
			}
			elements = append(elements, element)
		case *ast.Call:
			call := *element
			call.Arguments = make([]ast.Argument, len(element.Arguments))
			typeVar := lastName == "TypeVar"
			for i, arg := range element.Arguments {
				a := arg
				if a.Name != "" && !strings.HasPrefix(a.Name, "$parameter$") {
					a.Name = "$parameter$" + a.Name
				}
				if typeVar {
					a.Value = q.expression(s, arg.Value, exprOptions{qualifyStrings: true, suppressSynthetics: true})
				} else {
					a.Value = q.expression(s, arg.Value, exprOptions{qualifyStrings: opts.qualifyStrings})
				}
				call.Arguments[i] = a
			}
			elements = append(elements, &call)
		}
	}
	n.Elements = elements
	return &n
}

// stringAnnotation qualifies the contents of a string in annotation position,
// re-rendering the qualified expression back into the literal.
func (q *qualifier) stringAnnotation(s *scope.Scope, literal *ast.StringLiteral) ast.Expr {
	if q.reparser == nil {
		return literal
	}
	statements, err := q.reparser.Parse(literal.Value, literal.Loc.Start.Line, literal.Loc.Start.Column+1, q.source.Handle)
	if err != nil || len(statements) != 1 {
		slog.Debug("unqualifiable string annotation", "handle", q.source.Handle, "value", literal.Value, "error", err)
		return literal
	}
	expr, ok := statements[0].(*ast.ExpressionStmt)
	if !ok {
		return literal
	}
	qualified := q.expression(s, expr.Value, exprOptions{suppressSynthetics: true})
	out := *literal
	out.Value = ast.PrintExpr(qualified)
	return &out
}

func isSyntheticAccess(access *ast.AccessExpr) bool {
	head := access.Head()
	return head != nil && strings.HasPrefix(head.Name, "$")
}
