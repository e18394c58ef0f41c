// # internal/ast/visit.go
package ast

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	expr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	exprs := func(es []Expr) {
		for _, e := range es {
			expr(e)
		}
	}
	stmts := func(ss []Stmt) {
		for _, s := range ss {
			out = append(out, s)
		}
	}
	arguments := func(args []Argument) {
		for _, arg := range args {
			expr(arg.Value)
		}
	}
	generators := func(gens []ComprehensionFor) {
		for _, gen := range gens {
			expr(gen.Target)
			expr(gen.Iterator)
			exprs(gen.Conditions)
		}
	}
	parameters := func(params []*Parameter) {
		for _, param := range params {
			out = append(out, param)
		}
	}

	switch n := n.(type) {
	case *AccessExpr:
		expr(n.Base)
		for _, element := range n.Elements {
			out = append(out, element)
		}
	case *Call:
		arguments(n.Arguments)
	case *Await:
		expr(n.Operand)
	case *BooleanOp:
		expr(n.Left)
		expr(n.Right)
	case *Comparison:
		expr(n.Left)
		for _, pair := range n.Comparisons {
			expr(pair.Right)
		}
	case *Dictionary:
		for _, entry := range n.Entries {
			expr(entry.Key)
			expr(entry.Value)
		}
	case *DictComprehension:
		expr(n.Key)
		expr(n.Value)
		generators(n.Generators)
	case *Comprehension:
		expr(n.Element)
		generators(n.Generators)
	case *Parameter:
		expr(n.Annotation)
		expr(n.Value)
	case *Lambda:
		parameters(n.Parameters)
		expr(n.Body)
	case *List:
		exprs(n.Items)
	case *Set:
		exprs(n.Items)
	case *Tuple:
		exprs(n.Items)
	case *Starred:
		expr(n.Operand)
	case *StringLiteral:
		exprs(n.Format)
	case *Ternary:
		expr(n.Target)
		expr(n.Test)
		expr(n.Alternative)
	case *Unary:
		expr(n.Operand)
	case *Yield:
		expr(n.Value)

	case *Assign:
		expr(n.Target)
		expr(n.Annotation)
		expr(n.Value)
	case *Assert:
		expr(n.Test)
		expr(n.Message)
	case *Class:
		arguments(n.Bases)
		exprs(n.Decorators)
		stmts(n.Body)
	case *Define:
		exprs(n.Decorators)
		parameters(n.Parameters)
		expr(n.ReturnAnnotation)
		stmts(n.Body)
	case *Delete:
		exprs(n.Targets)
	case *ExpressionStmt:
		expr(n.Value)
	case *For:
		expr(n.Target)
		expr(n.Iterator)
		stmts(n.Body)
		stmts(n.Orelse)
	case *If:
		expr(n.Test)
		stmts(n.Body)
		stmts(n.Orelse)
	case *Raise:
		expr(n.Value)
	case *Return:
		expr(n.Value)
	case *Try:
		stmts(n.Body)
		for _, handler := range n.Handlers {
			expr(handler.Kind)
			stmts(handler.Body)
		}
		stmts(n.Orelse)
		stmts(n.Finally)
	case *With:
		for _, item := range n.Items {
			expr(item.Value)
			expr(item.Target)
		}
		stmts(n.Body)
	case *While:
		expr(n.Test)
		stmts(n.Body)
		stmts(n.Orelse)
	case *YieldStmt:
		expr(n.Value)
	case *YieldFromStmt:
		expr(n.Value)
	}
	return out
}

// Inspect traverses the tree in pre-order. f is called with each node; when it
// returns true the node's children are visited, followed by a call of f(nil)
// closing the node.
func Inspect(n Node, f func(Node) bool) {
	if n == nil {
		return
	}
	if !f(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, f)
	}
	f(nil)
}

func inspectStatements(statements []Stmt, f func(Node) bool) {
	for _, statement := range statements {
		Inspect(statement, f)
	}
}

// InspectSource runs Inspect over every toplevel statement of the source.
func InspectSource(source *Source, f func(Node) bool) {
	inspectStatements(source.Statements, f)
}
