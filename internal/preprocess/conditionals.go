// # internal/preprocess/conditionals.go
package preprocess

import "pyfront/internal/ast"

// The analysis assumes a non-Windows host, matching the checked runtime.
const runtimePlatform = "linux"

// ReplacePlatformSpecificCode folds "if sys.platform == ..." conditionals,
// keeping the branch matching the analysis platform. Other tests are left
// alone. An empty surviving branch becomes Pass.
func ReplacePlatformSpecificCode(source *ast.Source) *ast.Source {
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		conditional, ok := statement.(*ast.If)
		if !ok {
			return state, []ast.Stmt{statement}
		}
		comparison, ok := conditional.Test.(*ast.Comparison)
		if !ok || len(comparison.Comparisons) != 1 {
			return state, []ast.Stmt{statement}
		}
		right := comparison.Comparisons[0].Right
		var literal *ast.StringLiteral
		switch {
		case accessMatches(comparison.Left, "sys", "platform"):
			literal, _ = right.(*ast.StringLiteral)
		case accessMatches(right, "sys", "platform"):
			literal, _ = comparison.Left.(*ast.StringLiteral)
		}
		if literal == nil || literal.Kind != ast.StringRaw {
			return state, []ast.Stmt{statement}
		}
		matches := literal.Value == runtimePlatform
		switch comparison.Comparisons[0].Operator {
		case ast.CompareEquals, ast.CompareIs:
		case ast.CompareNotEquals, ast.CompareIsNot:
			matches = !matches
		default:
			return state, []ast.Stmt{statement}
		}
		if matches {
			return state, nonEmptyBranch(conditional.Body, conditional.Loc)
		}
		return state, nonEmptyBranch(conditional.Orelse, conditional.Loc)
	})
	return out
}

// ReplaceVersionSpecificCode folds "if sys.version_info ..." conditionals
// against the major version the analysis targets. Comparisons are normalized
// into a (small, large) pair; equality checks never pin to a concrete runtime
// version and always take the else branch.
func ReplaceVersionSpecificCode(source *ast.Source) *ast.Source {
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		conditional, ok := statement.(*ast.If)
		if !ok {
			return state, []ast.Stmt{statement}
		}
		comparison, ok := conditional.Test.(*ast.Comparison)
		if !ok || len(comparison.Comparisons) != 1 {
			return state, []ast.Stmt{statement}
		}
		operator := comparison.Comparisons[0].Operator
		left, right := comparison.Left, comparison.Comparisons[0].Right

		var takeBody bool
		switch {
		case isVersionAccess(left) && isMajorThree(right):
			switch operator {
			case ast.CompareLessThan, ast.CompareLessThanOrEquals:
				takeBody = false // version_info < (3, ...) is legacy code
			case ast.CompareGreaterThan, ast.CompareGreaterThanOrEquals:
				takeBody = true
			case ast.CompareEquals:
				takeBody = false
			default:
				return state, []ast.Stmt{statement}
			}
		case isMajorThree(left) && isVersionAccess(right):
			switch operator {
			case ast.CompareLessThan, ast.CompareLessThanOrEquals:
				takeBody = true // (3, ...) < version_info
			case ast.CompareGreaterThan, ast.CompareGreaterThanOrEquals:
				takeBody = false
			case ast.CompareEquals:
				takeBody = false
			default:
				return state, []ast.Stmt{statement}
			}
		default:
			return state, []ast.Stmt{statement}
		}
		if takeBody {
			return state, nonEmptyBranch(conditional.Body, conditional.Loc)
		}
		return state, nonEmptyBranch(conditional.Orelse, conditional.Loc)
	})
	return out
}

// ExpandTypeCheckingImports splices the body of "if TYPE_CHECKING:" blocks in
// unconditionally.
func ExpandTypeCheckingImports(source *ast.Source) *ast.Source {
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		conditional, ok := statement.(*ast.If)
		if !ok {
			return state, []ast.Stmt{statement}
		}
		if accessMatches(conditional.Test, "TYPE_CHECKING") ||
			accessMatches(conditional.Test, "typing", "TYPE_CHECKING") {
			return state, conditional.Body
		}
		return state, []ast.Stmt{statement}
	})
	return out
}

func nonEmptyBranch(branch []ast.Stmt, loc ast.Location) []ast.Stmt {
	if len(branch) == 0 {
		return []ast.Stmt{&ast.Pass{Loc: loc}}
	}
	return branch
}

func accessMatches(expression ast.Expr, names ...string) bool {
	access, ok := expression.(*ast.AccessExpr)
	if !ok || access.Base != nil {
		return false
	}
	reference, ok := access.AsReference()
	if !ok || len(reference.Names) != len(names) {
		return false
	}
	for i, name := range names {
		if reference.Names[i] != name {
			return false
		}
	}
	return true
}

// isVersionAccess recognizes sys.version_info and sys.version_info[0].
func isVersionAccess(expression ast.Expr) bool {
	if accessMatches(expression, "sys", "version_info") {
		return true
	}
	access, ok := expression.(*ast.AccessExpr)
	if !ok || access.Base != nil || len(access.Elements) != 4 {
		return false
	}
	names := identifierNames(access.Elements[:3])
	if len(names) != 3 || names[0] != "sys" || names[1] != "version_info" || names[2] != "__getitem__" {
		return false
	}
	call, ok := access.Elements[3].(*ast.Call)
	if !ok || len(call.Arguments) != 1 {
		return false
	}
	index, ok := call.Arguments[0].Value.(*ast.Integer)
	return ok && index.Value == 0
}

// isMajorThree recognizes the literal 3 and tuples whose first item is 3.
func isMajorThree(expression ast.Expr) bool {
	switch e := expression.(type) {
	case *ast.Integer:
		return e.Value == 3
	case *ast.Tuple:
		if len(e.Items) == 0 {
			return false
		}
		first, ok := e.Items[0].(*ast.Integer)
		return ok && first.Value == 3
	}
	return false
}
