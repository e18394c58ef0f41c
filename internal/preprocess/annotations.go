// # internal/preprocess/annotations.go
package preprocess

import (
	"log/slog"

	"pyfront/internal/ast"
)

// ExpandStringAnnotations parses string literals appearing in annotation
// position (assignment annotations, parameter and return annotations, the
// type argument of cast) and replaces them with the parsed expression. Inside
// Literal[...] call arguments are values, not types, and are left alone.
func ExpandStringAnnotations(source *ast.Source, reparser Reparser) *ast.Source {
	expander := annotationExpander{reparser: reparser, handle: source.Handle}
	t := ast.Transformer[struct{}]{
		Expression: func(state struct{}, expression ast.Expr) (struct{}, ast.Expr) {
			access, ok := expression.(*ast.AccessExpr)
			if !ok {
				return state, expression
			}
			return state, expander.expandCast(access)
		},
		Statement: func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
			switch s := statement.(type) {
			case *ast.Assign:
				if s.Annotation == nil {
					return state, []ast.Stmt{statement}
				}
				n := *s
				n.Annotation = expander.expand(s.Annotation, false)
				return state, []ast.Stmt{&n}
			case *ast.Define:
				n := *s
				n.Parameters = make([]*ast.Parameter, len(s.Parameters))
				for i, param := range s.Parameters {
					p := *param
					if p.Annotation != nil {
						p.Annotation = expander.expand(p.Annotation, false)
					}
					n.Parameters[i] = &p
				}
				if n.ReturnAnnotation != nil {
					n.ReturnAnnotation = expander.expand(n.ReturnAnnotation, false)
				}
				return state, []ast.Stmt{&n}
			}
			return state, []ast.Stmt{statement}
		},
	}
	_, out := t.Transform(source, struct{}{})
	return out
}

type annotationExpander struct {
	reparser Reparser
	handle   string
}

// expandCast rewrites the type argument of cast(...) or typing.cast(...).
func (x annotationExpander) expandCast(access *ast.AccessExpr) ast.Expr {
	if access.Base != nil || len(access.Elements) < 2 {
		return access
	}
	call, ok := access.Elements[len(access.Elements)-1].(*ast.Call)
	if !ok || len(call.Arguments) == 0 {
		return access
	}
	names := identifierNames(access.Elements[:len(access.Elements)-1])
	if !(len(names) == 1 && names[0] == "cast") &&
		!(len(names) == 2 && names[0] == "typing" && names[1] == "cast") {
		return access
	}
	rewritten := *call
	rewritten.Arguments = append([]ast.Argument(nil), call.Arguments...)
	rewritten.Arguments[0].Value = x.expand(call.Arguments[0].Value, false)
	elements := append([]ast.AccessElement(nil), access.Elements[:len(access.Elements)-1]...)
	elements = append(elements, &rewritten)
	return &ast.AccessExpr{Loc: access.Loc, Base: access.Base, Elements: elements}
}

// expand walks an annotation expression, replacing string literals with their
// parse. inLiteral suppresses descent into call arguments.
func (x annotationExpander) expand(expression ast.Expr, inLiteral bool) ast.Expr {
	switch e := expression.(type) {
	case *ast.StringLiteral:
		if e.Kind != ast.StringRaw {
			return e
		}
		return x.parseString(e)
	case *ast.AccessExpr:
		n := *e
		n.Elements = make([]ast.AccessElement, len(e.Elements))
		literalHead := inLiteral
		var lastName string
		for i, element := range e.Elements {
			switch element := element.(type) {
			case *ast.Identifier:
				if element.Name != "__getitem__" {
					lastName = element.Name
				}
				n.Elements[i] = element
			case *ast.Call:
				if literalHead || lastName == "Literal" {
					// Values under Literal stay untouched.
					n.Elements[i] = element
					continue
				}
				call := *element
				call.Arguments = make([]ast.Argument, len(element.Arguments))
				for j, arg := range element.Arguments {
					a := arg
					a.Value = x.expand(arg.Value, false)
					call.Arguments[j] = a
				}
				n.Elements[i] = &call
			}
		}
		return &n
	case *ast.Tuple:
		n := *e
		n.Items = x.expandAll(e.Items, inLiteral)
		return &n
	case *ast.List:
		n := *e
		n.Items = x.expandAll(e.Items, inLiteral)
		return &n
	default:
		return expression
	}
}

func (x annotationExpander) expandAll(items []ast.Expr, inLiteral bool) []ast.Expr {
	out := make([]ast.Expr, len(items))
	for i, item := range items {
		out[i] = x.expand(item, inLiteral)
	}
	return out
}

// parseString re-enters the parser on the string's contents. The origin is
// the string's line and column+1 so positions inside the annotation line up
// with the file. Failures degrade to the $unparsed_annotation sentinel.
func (x annotationExpander) parseString(literal *ast.StringLiteral) ast.Expr {
	if x.reparser == nil {
		return sentinel(literal.Loc)
	}
	statements, err := x.reparser.Parse(literal.Value, literal.Loc.Start.Line, literal.Loc.Start.Column+1, x.handle)
	if err == nil && len(statements) == 1 {
		if expr, ok := statements[0].(*ast.ExpressionStmt); ok {
			return expr.Value
		}
	}
	slog.Debug("unparsable string annotation", "handle", x.handle, "value", literal.Value, "error", err)
	return sentinel(literal.Loc)
}

func sentinel(loc ast.Location) ast.Expr {
	return ast.SimpleAccess(loc, UnparsedAnnotation)
}

func identifierNames(elements []ast.AccessElement) []string {
	names := make([]string, 0, len(elements))
	for _, element := range elements {
		id, ok := element.(*ast.Identifier)
		if !ok {
			return nil
		}
		names = append(names, id.Name)
	}
	return names
}
