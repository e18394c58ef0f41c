// # internal/preprocess/typeddict_test.go
package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfront/internal/ast"
)

func TestReplaceMypyExtensionsStub(t *testing.T) {
	src := source("mypy_extensions.pyi", ast.NewReference("mypy_extensions"),
		&ast.Define{
			Name: ast.NewReference("mypy_extensions", "TypedDict"),
			Body: []ast.Stmt{&ast.Pass{}},
		})
	out := ReplaceMypyExtensionsStub(src)

	assign, ok := out.Statements[0].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "mypy_extensions.TypedDict", assign.Target.(*ast.AccessExpr).Key())
	assert.Equal(t, "typing._SpecialForm", assign.Annotation.(*ast.AccessExpr).Key())
	_, isEllipsis := assign.Value.(*ast.Ellipsis)
	assert.True(t, isEllipsis)
}

func TestReplaceMypyExtensionsStubOnlyInStub(t *testing.T) {
	define := &ast.Define{
		Name: ast.NewReference("TypedDict"),
		Body: []ast.Stmt{&ast.Pass{}},
	}
	src := source("other.py", ast.NewReference("other"), define)
	out := ReplaceMypyExtensionsStub(src)
	assert.Same(t, define, out.Statements[0])
}

func typedDictCall(total *bool) *ast.AccessExpr {
	arguments := []ast.Argument{
		{Value: &ast.StringLiteral{Value: "Movie", Kind: ast.StringRaw}},
		{Value: &ast.Dictionary{Entries: []ast.DictEntry{
			{Key: &ast.StringLiteral{Value: "name", Kind: ast.StringRaw},
				Value: ast.SimpleAccess(ast.Location{}, "str")},
			{Key: &ast.StringLiteral{Value: "year", Kind: ast.StringRaw},
				Value: ast.SimpleAccess(ast.Location{}, "int")},
		}}},
	}
	if total != nil {
		arguments = append(arguments, ast.Argument{Name: "total", Value: &ast.Boolean{Value: *total}})
	}
	access := ast.SimpleAccess(ast.Location{}, "mypy_extensions", "TypedDict")
	access.Elements = append(access.Elements, &ast.Call{Arguments: arguments})
	return access
}

// declarationTuple digs the canonical (name, total, fields...) tuple out of a
// rewritten declaration.
func declarationTuple(t *testing.T, statement ast.Stmt) *ast.Tuple {
	t.Helper()
	assign, ok := statement.(*ast.Assign)
	require.True(t, ok)
	value := assign.Value.(*ast.AccessExpr)
	names := make([]string, 0, len(value.Elements)-1)
	for _, element := range value.Elements[:len(value.Elements)-1] {
		names = append(names, element.(*ast.Identifier).Name)
	}
	assert.Equal(t, []string{"mypy_extensions", "TypedDict", "__getitem__"}, names)
	call := value.Elements[len(value.Elements)-1].(*ast.Call)
	require.Len(t, call.Arguments, 1)
	annotation := assign.Annotation.(*ast.AccessExpr)
	assert.Equal(t, "typing", annotation.Elements[0].(*ast.Identifier).Name)
	assert.Equal(t, "Type", annotation.Elements[1].(*ast.Identifier).Name)
	return call.Arguments[0].Value.(*ast.Tuple)
}

func TestExpandTypedDictionaryAssignmentForm(t *testing.T) {
	src := source("a.py", ast.NewReference("a"),
		&ast.Assign{
			Target: ast.SimpleAccess(ast.Location{}, "a", "Movie"),
			Value:  typedDictCall(nil),
		})
	out := ExpandTypedDictionaryDeclarations(src)

	tuple := declarationTuple(t, out.Statements[0])
	require.Len(t, tuple.Items, 4)
	assert.Equal(t, "Movie", tuple.Items[0].(*ast.StringLiteral).Value)
	assert.True(t, tuple.Items[1].(*ast.Boolean).Value)
	first := tuple.Items[2].(*ast.Tuple)
	assert.Equal(t, "name", first.Items[0].(*ast.StringLiteral).Value)
	assert.Equal(t, "str", first.Items[1].(*ast.AccessExpr).Key())
}

func TestExpandTypedDictionaryAssignmentFormTotality(t *testing.T) {
	partial := false
	src := source("a.py", ast.NewReference("a"),
		&ast.Assign{
			Target: ast.SimpleAccess(ast.Location{}, "a", "Movie"),
			Value:  typedDictCall(&partial),
		})
	out := ExpandTypedDictionaryDeclarations(src)

	tuple := declarationTuple(t, out.Statements[0])
	assert.False(t, tuple.Items[1].(*ast.Boolean).Value)
}

func TestExpandTypedDictionaryClassForm(t *testing.T) {
	src := source("a.py", ast.NewReference("a"),
		&ast.Class{
			Name: ast.NewReference("a", "Movie"),
			Bases: []ast.Argument{
				{Value: ast.SimpleAccess(ast.Location{}, "mypy_extensions", "TypedDict")},
				{Name: "total", Value: &ast.Boolean{Value: false}},
			},
			Body: []ast.Stmt{
				&ast.Assign{
					Target:     ast.SimpleAccess(ast.Location{}, "a", "Movie", "name"),
					Annotation: ast.SimpleAccess(ast.Location{}, "str"),
				},
				&ast.Pass{},
			},
		})
	out := ExpandTypedDictionaryDeclarations(src)

	tuple := declarationTuple(t, out.Statements[0])
	require.Len(t, tuple.Items, 3)
	assert.Equal(t, "Movie", tuple.Items[0].(*ast.StringLiteral).Value)
	assert.False(t, tuple.Items[1].(*ast.Boolean).Value)
	field := tuple.Items[2].(*ast.Tuple)
	assert.Equal(t, "name", field.Items[0].(*ast.StringLiteral).Value)
	assert.Equal(t, "str", field.Items[1].(*ast.AccessExpr).Key())
}

func TestExpandTypedDictionaryLeavesOrdinaryClasses(t *testing.T) {
	class := &ast.Class{
		Name:  ast.NewReference("C"),
		Bases: []ast.Argument{{Value: ast.SimpleAccess(ast.Location{}, "object")}},
		Body:  []ast.Stmt{&ast.Pass{}},
	}
	src := source("a.py", ast.NewReference("a"), class)
	out := ExpandTypedDictionaryDeclarations(src)
	assert.Same(t, class, out.Statements[0])
}
