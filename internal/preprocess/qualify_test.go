// # internal/preprocess/qualify_test.go
package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfront/internal/ast"
)

func qualifyOne(t *testing.T, src *ast.Source) *ast.Source {
	t.Helper()
	return Qualify(src, &fakeReparser{})
}

func TestQualifyToplevelAssignBecomesModuleAttribute(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Assign{Target: &ast.Name{ID: "x"}, Value: &ast.Integer{Value: 1}},
		&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "x")})
	out := qualifyOne(t, src)

	assign := out.Statements[0].(*ast.Assign)
	assert.Equal(t, "m.x", assign.Target.(*ast.AccessExpr).Key())
	use := out.Statements[1].(*ast.ExpressionStmt).Value.(*ast.AccessExpr)
	assert.Equal(t, "m.x", use.Key())
}

func TestQualifyFunctionLocals(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name:       ast.NewReference("f"),
			Parameters: []*ast.Parameter{{Name: "a"}},
			Body: []ast.Stmt{
				&ast.Assign{Target: &ast.Name{ID: "x"}, Value: ast.SimpleAccess(ast.Location{}, "a")},
				&ast.Return{Value: ast.SimpleAccess(ast.Location{}, "x")},
			},
		})
	out := qualifyOne(t, src)

	define := out.Statements[0].(*ast.Define)
	assert.Equal(t, "m.f", define.Name.Key())
	assert.Equal(t, "$parameter$a", define.Parameters[0].Name)

	assign := define.Body[0].(*ast.Assign)
	assert.Equal(t, "$local_m?f$x", assign.Target.(*ast.AccessExpr).Key())
	assert.Equal(t, "$parameter$a", assign.Value.(*ast.AccessExpr).Key())
	assert.Equal(t, "$local_m?f$x", define.Body[1].(*ast.Return).Value.(*ast.AccessExpr).Key())
}

func TestQualifyRebindingKeepsSyntheticName(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name: ast.NewReference("f"),
			Body: []ast.Stmt{
				&ast.Assign{Target: &ast.Name{ID: "a"}, Value: callAccess(t, "A")},
				&ast.Assign{Target: &ast.Name{ID: "a"}, Value: callAccess(t, "B")},
			},
		})
	out := qualifyOne(t, src)

	define := out.Statements[0].(*ast.Define)
	first := define.Body[0].(*ast.Assign).Target.(*ast.AccessExpr).Key()
	second := define.Body[1].(*ast.Assign).Target.(*ast.AccessExpr).Key()
	assert.Equal(t, "$local_m?f$a", first)
	assert.Equal(t, first, second)
}

func TestQualifyClassBody(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Class{
			Name: ast.NewReference("Foo"),
			Body: []ast.Stmt{
				&ast.Assign{Target: &ast.Name{ID: "attribute"}, Value: &ast.Integer{Value: 1}},
				&ast.Define{
					Name:       ast.NewReference("bar"),
					Parameters: []*ast.Parameter{{Name: "self"}},
					Body:       []ast.Stmt{&ast.Pass{}},
				},
			},
		})
	out := qualifyOne(t, src)

	class := out.Statements[0].(*ast.Class)
	assert.Equal(t, "m.Foo", class.Name.Key())

	attribute := class.Body[0].(*ast.Assign)
	assert.Equal(t, "m.Foo.attribute", attribute.Target.(*ast.AccessExpr).Key())
	require.NotNil(t, attribute.Parent)
	assert.Equal(t, "m.Foo", attribute.Parent.Key())

	bar := class.Body[1].(*ast.Define)
	assert.Equal(t, "m.Foo.bar", bar.Name.Key())
	require.NotNil(t, bar.Parent)
	assert.Equal(t, "m.Foo", bar.Parent.Key())
}

func TestQualifyForwardReferencesInsideFunctionBodies(t *testing.T) {
	// Inside a function body a class declared later in the module is only
	// visible when forward references are honored; the body default is not.
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name: ast.NewReference("f"),
			Body: []ast.Stmt{
				&ast.Return{Value: ast.SimpleAccess(ast.Location{}, "Later")},
			},
		},
		&ast.Class{Name: ast.NewReference("Later"), Body: []ast.Stmt{&ast.Pass{}}})
	out := qualifyOne(t, src)

	define := out.Statements[0].(*ast.Define)
	value := define.Body[0].(*ast.Return).Value.(*ast.AccessExpr)
	assert.Equal(t, "Later", value.Key())
}

func TestQualifyDecoratorsHonorForwardReferences(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name:       ast.NewReference("f"),
			Decorators: []ast.Expr{ast.SimpleAccess(ast.Location{}, "wrapper")},
			Body:       []ast.Stmt{&ast.Pass{}},
		},
		&ast.Define{Name: ast.NewReference("wrapper"), Body: []ast.Stmt{&ast.Pass{}}})
	out := qualifyOne(t, src)

	define := out.Statements[0].(*ast.Define)
	require.Len(t, define.Decorators, 1)
	assert.Equal(t, "m.wrapper", define.Decorators[0].(*ast.AccessExpr).Key())
}

func TestQualifyBindingDecoratorsAreLeftAlone(t *testing.T) {
	for _, name := range []string{"staticmethod", "classmethod", "property", "x.setter"} {
		names := []string{name}
		if name == "x.setter" {
			names = []string{"x", "setter"}
		}
		src := source("m.py", ast.NewReference("m"),
			&ast.Class{Name: ast.NewReference("C"), Body: []ast.Stmt{
				&ast.Define{
					Name:       ast.NewReference("f"),
					Decorators: []ast.Expr{ast.SimpleAccess(ast.Location{}, names...)},
					Body:       []ast.Stmt{&ast.Pass{}},
				},
			}})
		out := qualifyOne(t, src)
		class := out.Statements[0].(*ast.Class)
		decorator := class.Body[0].(*ast.Define).Decorators[0].(*ast.AccessExpr)
		assert.Equal(t, ast.NewReference(names...).Key(), decorator.Key())
	}
}

func TestQualifyImportAliases(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Import{From: refPtr("collections"), Imports: []ast.ImportEntry{
			{Name: ast.NewReference("OrderedDict"), Alias: refPtr("OD")},
			{Name: ast.NewReference("defaultdict")},
		}},
		&ast.Import{Imports: []ast.ImportEntry{
			{Name: ast.NewReference("os", "path"), Alias: refPtr("p")},
		}},
		&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "OD")},
		&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "defaultdict")},
		&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "p", "join")})
	out := qualifyOne(t, src)

	assert.Equal(t, "collections.OrderedDict",
		out.Statements[2].(*ast.ExpressionStmt).Value.(*ast.AccessExpr).Key())
	assert.Equal(t, "collections.defaultdict",
		out.Statements[3].(*ast.ExpressionStmt).Value.(*ast.AccessExpr).Key())
	assert.Equal(t, "os.path.join",
		out.Statements[4].(*ast.ExpressionStmt).Value.(*ast.AccessExpr).Key())
}

func TestQualifyBuiltinsImportInstallsNoAliases(t *testing.T) {
	imp := &ast.Import{From: refPtr("builtins"), Imports: []ast.ImportEntry{
		{Name: ast.NewReference("len")},
	}}
	src := source("m.py", ast.NewReference("m"), imp,
		&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "len")})
	out := qualifyOne(t, src)

	assert.Same(t, imp, out.Statements[0])
	assert.Equal(t, "len", out.Statements[1].(*ast.ExpressionStmt).Value.(*ast.AccessExpr).Key())
}

func TestQualifyExceptTarget(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Try{
			Body: []ast.Stmt{&ast.Pass{}},
			Handlers: []ast.ExceptHandler{{
				Kind: ast.SimpleAccess(ast.Location{}, "ValueError"),
				Name: "e",
				Body: []ast.Stmt{
					&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "e")},
				},
			}},
		})
	out := qualifyOne(t, src)

	handler := out.Statements[0].(*ast.Try).Handlers[0]
	assert.Equal(t, "$target$e", handler.Name)
	use := handler.Body[0].(*ast.ExpressionStmt).Value.(*ast.AccessExpr)
	assert.Equal(t, "$target$e", use.Key())
}

func TestQualifyJoinPrefersFirstBranch(t *testing.T) {
	// Both branches bind the same name to different qualified forms; after
	// the join the body's binding wins.
	src := source("m.py", ast.NewReference("m"),
		&ast.Import{From: refPtr("first"), Imports: []ast.ImportEntry{{Name: ast.NewReference("thing")}}},
		&ast.Define{
			Name: ast.NewReference("f"),
			Body: []ast.Stmt{
				&ast.If{
					Test:   &ast.Boolean{Value: true},
					Body:   []ast.Stmt{&ast.Import{From: refPtr("x"), Imports: []ast.ImportEntry{{Name: ast.NewReference("thing")}}}},
					Orelse: []ast.Stmt{&ast.Import{From: refPtr("y"), Imports: []ast.ImportEntry{{Name: ast.NewReference("thing")}}}},
				},
				&ast.ExpressionStmt{Value: ast.SimpleAccess(ast.Location{}, "thing")},
			},
		})
	out := qualifyOne(t, src)

	define := out.Statements[1].(*ast.Define)
	use := define.Body[1].(*ast.ExpressionStmt).Value.(*ast.AccessExpr)
	assert.Equal(t, "x.thing", use.Key())
}

func TestQualifyGlobalStaysModuleLevel(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name: ast.NewReference("f"),
			Body: []ast.Stmt{
				&ast.Global{Names: []string{"counter"}},
				&ast.Assign{Target: &ast.Name{ID: "counter"}, Value: &ast.Integer{Value: 1}},
			},
		})
	out := qualifyOne(t, src)

	define := out.Statements[0].(*ast.Define)
	assign := define.Body[1].(*ast.Assign)
	assert.Equal(t, "m.counter", assign.Target.(*ast.AccessExpr).Key())
}

func TestQualifyCallArgumentNames(t *testing.T) {
	call := ast.SimpleAccess(ast.Location{}, "f")
	call.Elements = append(call.Elements, &ast.Call{Arguments: []ast.Argument{
		{Name: "key", Value: ast.SimpleAccess(ast.Location{}, "value")},
	}})
	src := source("m.py", ast.NewReference("m"),
		&ast.Assign{Target: &ast.Name{ID: "value"}, Value: &ast.Integer{Value: 1}},
		&ast.ExpressionStmt{Value: call})
	out := qualifyOne(t, src)

	rewritten := out.Statements[1].(*ast.ExpressionStmt).Value.(*ast.AccessExpr)
	callElement := rewritten.Elements[len(rewritten.Elements)-1].(*ast.Call)
	assert.Equal(t, "$parameter$key", callElement.Arguments[0].Name)
	assert.Equal(t, "m.value", callElement.Arguments[0].Value.(*ast.AccessExpr).Key())
}

func TestQualifyTuplePatternBindsEachName(t *testing.T) {
	src := source("m.py", ast.NewReference("m"),
		&ast.Define{
			Name: ast.NewReference("f"),
			Body: []ast.Stmt{
				&ast.Assign{
					Target: &ast.Tuple{Items: []ast.Expr{&ast.Name{ID: "a"}, &ast.Name{ID: "b"}}},
					Value:  ast.SimpleAccess(ast.Location{}, "pair"),
				},
			},
		})
	out := qualifyOne(t, src)

	assign := out.Statements[0].(*ast.Define).Body[0].(*ast.Assign)
	tuple := assign.Target.(*ast.Tuple)
	assert.Equal(t, "$local_m?f$a", tuple.Items[0].(*ast.AccessExpr).Key())
	assert.Equal(t, "$local_m?f$b", tuple.Items[1].(*ast.AccessExpr).Key())
}

func callAccess(t *testing.T, names ...string) *ast.AccessExpr {
	t.Helper()
	a := ast.SimpleAccess(ast.Location{}, names...)
	a.Elements = append(a.Elements, &ast.Call{})
	return a
}
