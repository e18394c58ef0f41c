// # internal/preprocess/typeddict.go
package preprocess

import (
	"strings"

	"pyfront/internal/ast"
)

// ReplaceMypyExtensionsStub swaps the TypedDict function definition in the
// mypy_extensions stub for a special-form binding, so downstream phases treat
// TypedDict as a type constructor rather than a plain callable.
func ReplaceMypyExtensionsStub(source *ast.Source) *ast.Source {
	if !strings.HasSuffix(source.Handle, "mypy_extensions.pyi") {
		return source
	}
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		define, ok := statement.(*ast.Define)
		if !ok || ast.SanitizeName(define.Name.Last()) != "TypedDict" {
			return state, []ast.Stmt{statement}
		}
		return state, []ast.Stmt{&ast.Assign{
			Loc:        define.Loc,
			Target:     define.Name.ToAccess(),
			Annotation: ast.SimpleAccess(define.Loc, "typing", "_SpecialForm"),
			Value:      &ast.Ellipsis{Loc: define.Loc},
		}}
	})
	return out
}

// ExpandTypedDictionaryDeclarations canonicalizes both TypedDict declaration
// forms into one Assign whose value subscripts
// mypy_extensions.TypedDict.__getitem__ with (name, total, (k1,v1), ...).
func ExpandTypedDictionaryDeclarations(source *ast.Source) *ast.Source {
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		switch s := statement.(type) {
		case *ast.Assign:
			if rewritten, ok := expandTypedDictAssign(s); ok {
				return state, []ast.Stmt{rewritten}
			}
		case *ast.Class:
			if rewritten, ok := expandTypedDictClass(s); ok {
				return state, []ast.Stmt{rewritten}
			}
		}
		return state, []ast.Stmt{statement}
	})
	return out
}

// expandTypedDictAssign handles X = mypy_extensions.TypedDict('X', {...}).
func expandTypedDictAssign(assign *ast.Assign) (ast.Stmt, bool) {
	value, ok := assign.Value.(*ast.AccessExpr)
	if !ok || !value.IsCall() {
		return nil, false
	}
	names := identifierNames(value.Elements[:len(value.Elements)-1])
	if !isTypedDictName(names) {
		return nil, false
	}
	call := value.Elements[len(value.Elements)-1].(*ast.Call)
	if len(call.Arguments) < 2 {
		return nil, false
	}
	name, ok := call.Arguments[0].Value.(*ast.StringLiteral)
	if !ok {
		return nil, false
	}
	fields, ok := call.Arguments[1].Value.(*ast.Dictionary)
	if !ok {
		return nil, false
	}
	total := totality(call.Arguments)
	var pairs []ast.Expr
	for _, entry := range fields.Entries {
		pairs = append(pairs, &ast.Tuple{
			Loc:   assign.Loc,
			Items: []ast.Expr{entry.Key, entry.Value},
		})
	}
	return typedDictDeclaration(assign.Loc, assign.Target, name.Value, total, pairs), true
}

// expandTypedDictClass handles class X(mypy_extensions.TypedDict, total=...).
func expandTypedDictClass(class *ast.Class) (ast.Stmt, bool) {
	isTypedDict := false
	total := true
	for _, base := range class.Bases {
		if base.Name == "total" {
			if flag, ok := base.Value.(*ast.Boolean); ok {
				total = flag.Value
			}
			continue
		}
		if access, ok := base.Value.(*ast.AccessExpr); ok {
			if reference, refOK := access.AsReference(); refOK && isTypedDictName(reference.Names) {
				isTypedDict = true
			}
		}
	}
	if !isTypedDict {
		return nil, false
	}
	name := ast.SanitizeName(class.Name.Last())
	var pairs []ast.Expr
	for _, statement := range class.Body {
		assign, ok := statement.(*ast.Assign)
		if !ok || assign.Annotation == nil {
			continue
		}
		fieldName := fieldNameOf(assign.Target)
		if fieldName == "" {
			continue
		}
		pairs = append(pairs, &ast.Tuple{
			Loc: assign.Loc,
			Items: []ast.Expr{
				&ast.StringLiteral{Loc: assign.Loc, Value: fieldName, Kind: ast.StringRaw},
				assign.Annotation,
			},
		})
	}
	return typedDictDeclaration(class.Loc, class.Name.ToAccess(), name, total, pairs), true
}

func typedDictDeclaration(loc ast.Location, target ast.Expr, name string, total bool, pairs []ast.Expr) ast.Stmt {
	items := make([]ast.Expr, 0, len(pairs)+2)
	items = append(items,
		&ast.StringLiteral{Loc: loc, Value: name, Kind: ast.StringRaw},
		&ast.Boolean{Loc: loc, Value: total})
	items = append(items, pairs...)
	value := &ast.AccessExpr{
		Loc: loc,
		Elements: []ast.AccessElement{
			&ast.Identifier{Loc: loc, Name: "mypy_extensions"},
			&ast.Identifier{Loc: loc, Name: "TypedDict"},
			&ast.Identifier{Loc: loc, Name: "__getitem__"},
			&ast.Call{Loc: loc, Arguments: []ast.Argument{{Value: &ast.Tuple{Loc: loc, Items: items}}}},
		},
	}
	annotation := &ast.AccessExpr{
		Loc: loc,
		Elements: []ast.AccessElement{
			&ast.Identifier{Loc: loc, Name: "typing"},
			&ast.Identifier{Loc: loc, Name: "Type"},
			&ast.Identifier{Loc: loc, Name: "__getitem__"},
			&ast.Call{Loc: loc, Arguments: []ast.Argument{{Value: value}}},
		},
	}
	return &ast.Assign{Loc: loc, Target: target, Annotation: annotation, Value: value}
}

// isTypedDictName accepts TypedDict and mypy_extensions.TypedDict, qualified
// or not.
func isTypedDictName(names []string) bool {
	if len(names) == 0 {
		return false
	}
	if names[len(names)-1] != "TypedDict" {
		return false
	}
	if len(names) == 1 {
		return true
	}
	return names[len(names)-2] == "mypy_extensions"
}

func totality(args []ast.Argument) bool {
	for _, arg := range args {
		if arg.Name == "total" || arg.Name == "$parameter$total" {
			if flag, ok := arg.Value.(*ast.Boolean); ok {
				return flag.Value
			}
		}
	}
	return true
}

func fieldNameOf(target ast.Expr) string {
	switch t := target.(type) {
	case *ast.Name:
		return ast.SanitizeName(t.ID)
	case *ast.AccessExpr:
		if reference, ok := t.AsReference(); ok && len(reference.Names) > 0 {
			return ast.SanitizeName(reference.Last())
		}
	}
	return ""
}
