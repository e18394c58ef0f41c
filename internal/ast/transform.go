// # internal/ast/transform.go
package ast

// StatementRewrite folds user state through a statement stream. Each call
// returns the next state and the replacement statements (zero, one or many).
type StatementRewrite[S any] func(S, Stmt) (S, []Stmt)

// TransformStatements applies f to every statement of the source, recursing
// into every nested block with the same contract. Children of a compound
// statement are rewritten before the statement itself emits its replacements.
func TransformStatements[S any](source *Source, state S, f StatementRewrite[S]) (S, *Source) {
	t := Transformer[S]{Statement: f}
	return t.Transform(source, state)
}

// Transformer is the full traversal shape: statement replacement plus
// expression rewriting, with a per-statement predicate pruning descent.
// Nil callbacks are identity.
type Transformer[S any] struct {
	Expression        func(S, Expr) (S, Expr)
	Statement         StatementRewrite[S]
	TransformChildren func(S, Stmt) bool
}

// Transform rewrites the source, threading state through the traversal.
func (t *Transformer[S]) Transform(source *Source, state S) (S, *Source) {
	state, statements := t.block(state, source.Statements)
	return state, source.WithStatements(statements)
}

func (t *Transformer[S]) block(state S, statements []Stmt) (S, []Stmt) {
	out := make([]Stmt, 0, len(statements))
	for _, statement := range statements {
		var replacements []Stmt
		state, replacements = t.statement(state, statement)
		out = append(out, replacements...)
	}
	return state, out
}

func (t *Transformer[S]) statement(state S, statement Stmt) (S, []Stmt) {
	if t.TransformChildren == nil || t.TransformChildren(state, statement) {
		state, statement = t.children(state, statement)
	}
	if t.Statement == nil {
		return state, []Stmt{statement}
	}
	return t.Statement(state, statement)
}

// children rebuilds the statement with transformed sub-expressions and blocks.
func (t *Transformer[S]) children(state S, statement Stmt) (S, Stmt) {
	switch s := statement.(type) {
	case *Assign:
		n := *s
		state, n.Target = t.expression(state, s.Target)
		state, n.Annotation = t.expression(state, s.Annotation)
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	case *Assert:
		n := *s
		state, n.Test = t.expression(state, s.Test)
		state, n.Message = t.expression(state, s.Message)
		return state, &n
	case *Class:
		n := *s
		state, n.Decorators = t.expressions(state, s.Decorators)
		state, n.Bases = t.arguments(state, s.Bases)
		state, n.Body = t.block(state, s.Body)
		return state, &n
	case *Define:
		n := *s
		state, n.Decorators = t.expressions(state, s.Decorators)
		state, n.Parameters = t.parameters(state, s.Parameters)
		state, n.ReturnAnnotation = t.expression(state, s.ReturnAnnotation)
		state, n.Body = t.block(state, s.Body)
		return state, &n
	case *Delete:
		n := *s
		state, n.Targets = t.expressions(state, s.Targets)
		return state, &n
	case *ExpressionStmt:
		n := *s
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	case *For:
		n := *s
		state, n.Target = t.expression(state, s.Target)
		state, n.Iterator = t.expression(state, s.Iterator)
		state, n.Body = t.block(state, s.Body)
		state, n.Orelse = t.block(state, s.Orelse)
		return state, &n
	case *If:
		n := *s
		state, n.Test = t.expression(state, s.Test)
		state, n.Body = t.block(state, s.Body)
		state, n.Orelse = t.block(state, s.Orelse)
		return state, &n
	case *Raise:
		n := *s
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	case *Return:
		n := *s
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	case *Try:
		n := *s
		state, n.Body = t.block(state, s.Body)
		n.Handlers = make([]ExceptHandler, len(s.Handlers))
		for i, handler := range s.Handlers {
			h := handler
			state, h.Kind = t.expression(state, handler.Kind)
			state, h.Body = t.block(state, handler.Body)
			n.Handlers[i] = h
		}
		state, n.Orelse = t.block(state, s.Orelse)
		state, n.Finally = t.block(state, s.Finally)
		return state, &n
	case *With:
		n := *s
		n.Items = make([]WithItem, len(s.Items))
		for i, item := range s.Items {
			w := item
			state, w.Value = t.expression(state, item.Value)
			state, w.Target = t.expression(state, item.Target)
			n.Items[i] = w
		}
		state, n.Body = t.block(state, s.Body)
		return state, &n
	case *While:
		n := *s
		state, n.Test = t.expression(state, s.Test)
		state, n.Body = t.block(state, s.Body)
		state, n.Orelse = t.block(state, s.Orelse)
		return state, &n
	case *YieldStmt:
		n := *s
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	case *YieldFromStmt:
		n := *s
		state, n.Value = t.expression(state, s.Value)
		return state, &n
	default:
		// Import, Global, Nonlocal, Pass, Break, Continue carry no children
		// the transformer rewrites.
		return state, statement
	}
}

func (t *Transformer[S]) expressions(state S, expressions []Expr) (S, []Expr) {
	if expressions == nil {
		return state, nil
	}
	out := make([]Expr, len(expressions))
	for i, expression := range expressions {
		state, out[i] = t.expression(state, expression)
	}
	return state, out
}

func (t *Transformer[S]) arguments(state S, args []Argument) (S, []Argument) {
	if args == nil {
		return state, nil
	}
	out := make([]Argument, len(args))
	for i, arg := range args {
		a := arg
		state, a.Value = t.expression(state, arg.Value)
		out[i] = a
	}
	return state, out
}

func (t *Transformer[S]) parameters(state S, params []*Parameter) (S, []*Parameter) {
	if params == nil {
		return state, nil
	}
	out := make([]*Parameter, len(params))
	for i, param := range params {
		p := *param
		state, p.Annotation = t.expression(state, param.Annotation)
		state, p.Value = t.expression(state, param.Value)
		out[i] = &p
	}
	return state, out
}

func (t *Transformer[S]) generators(state S, gens []ComprehensionFor) (S, []ComprehensionFor) {
	out := make([]ComprehensionFor, len(gens))
	for i, gen := range gens {
		g := gen
		state, g.Target = t.expression(state, gen.Target)
		state, g.Iterator = t.expression(state, gen.Iterator)
		state, g.Conditions = t.expressions(state, gen.Conditions)
		out[i] = g
	}
	return state, out
}

// expression rebuilds sub-expressions bottom-up, then applies the user
// expression callback to the rebuilt node.
func (t *Transformer[S]) expression(state S, expression Expr) (S, Expr) {
	if expression == nil {
		return state, nil
	}
	switch e := expression.(type) {
	case *AccessExpr:
		n := *e
		state, n.Base = t.expression(state, e.Base)
		n.Elements = make([]AccessElement, len(e.Elements))
		for i, element := range e.Elements {
			switch element := element.(type) {
			case *Call:
				call := *element
				state, call.Arguments = t.argumentValues(state, element.Arguments)
				n.Elements[i] = &call
			default:
				n.Elements[i] = element
			}
		}
		expression = &n
	case *Await:
		n := *e
		state, n.Operand = t.expression(state, e.Operand)
		expression = &n
	case *BooleanOp:
		n := *e
		state, n.Left = t.expression(state, e.Left)
		state, n.Right = t.expression(state, e.Right)
		expression = &n
	case *Comparison:
		n := *e
		state, n.Left = t.expression(state, e.Left)
		n.Comparisons = make([]ComparisonPair, len(e.Comparisons))
		for i, pair := range e.Comparisons {
			p := pair
			state, p.Right = t.expression(state, pair.Right)
			n.Comparisons[i] = p
		}
		expression = &n
	case *Dictionary:
		n := *e
		n.Entries = make([]DictEntry, len(e.Entries))
		for i, entry := range e.Entries {
			d := entry
			state, d.Key = t.expression(state, entry.Key)
			state, d.Value = t.expression(state, entry.Value)
			n.Entries[i] = d
		}
		expression = &n
	case *DictComprehension:
		n := *e
		state, n.Key = t.expression(state, e.Key)
		state, n.Value = t.expression(state, e.Value)
		state, n.Generators = t.generators(state, e.Generators)
		expression = &n
	case *Comprehension:
		n := *e
		state, n.Element = t.expression(state, e.Element)
		state, n.Generators = t.generators(state, e.Generators)
		expression = &n
	case *Lambda:
		n := *e
		state, n.Parameters = t.parameters(state, e.Parameters)
		state, n.Body = t.expression(state, e.Body)
		expression = &n
	case *List:
		n := *e
		state, n.Items = t.expressions(state, e.Items)
		expression = &n
	case *Set:
		n := *e
		state, n.Items = t.expressions(state, e.Items)
		expression = &n
	case *Tuple:
		n := *e
		state, n.Items = t.expressions(state, e.Items)
		expression = &n
	case *Starred:
		n := *e
		state, n.Operand = t.expression(state, e.Operand)
		expression = &n
	case *StringLiteral:
		n := *e
		state, n.Format = t.expressions(state, e.Format)
		expression = &n
	case *Ternary:
		n := *e
		state, n.Target = t.expression(state, e.Target)
		state, n.Test = t.expression(state, e.Test)
		state, n.Alternative = t.expression(state, e.Alternative)
		expression = &n
	case *Unary:
		n := *e
		state, n.Operand = t.expression(state, e.Operand)
		expression = &n
	case *Yield:
		n := *e
		state, n.Value = t.expression(state, e.Value)
		expression = &n
	}
	if t.Expression == nil {
		return state, expression
	}
	return t.Expression(state, expression)
}

func (t *Transformer[S]) argumentValues(state S, args []Argument) (S, []Argument) {
	out := make([]Argument, len(args))
	for i, arg := range args {
		a := arg
		state, a.Value = t.expression(state, arg.Value)
		out[i] = a
	}
	return state, out
}
