// # internal/preprocess/returns.go
package preprocess

import "pyfront/internal/ast"

// ExpandImplicitReturns gives every function body an explicit ending: a
// synthetic "return None" is appended unless the body already returns, yields,
// ends in an infinite loop, or ends in a try whose finally returns.
func ExpandImplicitReturns(source *ast.Source) *ast.Source {
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		define, ok := statement.(*ast.Define)
		if !ok || len(define.Body) == 0 {
			return state, []ast.Stmt{statement}
		}
		if define.IsGenerator() || terminates(define.Body) {
			return state, []ast.Stmt{statement}
		}
		last := define.Body[len(define.Body)-1]
		n := *define
		n.Body = append(append([]ast.Stmt(nil), define.Body...), &ast.Return{
			Loc:        last.Span(),
			IsImplicit: true,
		})
		return state, []ast.Stmt{&n}
	})
	return out
}

// terminates reports whether the block's last statement guarantees the
// function never falls off the end.
func terminates(body []ast.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	switch last := body[len(body)-1].(type) {
	case *ast.Return:
		return true
	case *ast.While:
		test, ok := last.Test.(*ast.Boolean)
		return ok && test.Value
	case *ast.Try:
		if len(last.Finally) == 0 {
			return false
		}
		_, ok := last.Finally[len(last.Finally)-1].(*ast.Return)
		return ok
	}
	return false
}
