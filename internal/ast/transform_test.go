// # internal/ast/transform_test.go
package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func name(id string) *AccessExpr {
	return SimpleAccess(Location{}, id)
}

func TestTransformStatementsReplacesAndThreadsState(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&Pass{},
			&ExpressionStmt{Value: name("keep")},
			&Pass{},
		},
	}
	// Drop every Pass and count the statements seen.
	count, out := TransformStatements(src, 0, func(state int, statement Stmt) (int, []Stmt) {
		state++
		if _, ok := statement.(*Pass); ok {
			return state, nil
		}
		return state, []Stmt{statement}
	})
	assert.Equal(t, 3, count)
	require.Len(t, out.Statements, 1)
}

func TestTransformStatementsDescendsIntoBlocks(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&If{
				Test: name("cond"),
				Body: []Stmt{&Pass{}},
				Orelse: []Stmt{
					&Try{
						Body:     []Stmt{&Pass{}},
						Handlers: []ExceptHandler{{Body: []Stmt{&Pass{}}}},
						Finally:  []Stmt{&Pass{}},
					},
				},
			},
		},
	}
	seen := 0
	_, out := TransformStatements(src, struct{}{}, func(state struct{}, statement Stmt) (struct{}, []Stmt) {
		if _, ok := statement.(*Pass); ok {
			seen++
			return state, []Stmt{&ExpressionStmt{Value: name("replaced")}}
		}
		return state, []Stmt{statement}
	})
	assert.Equal(t, 4, seen)

	conditional := out.Statements[0].(*If)
	_, replaced := conditional.Body[0].(*ExpressionStmt)
	assert.True(t, replaced)
}

func TestTransformStatementsEmitsChildrenBeforeParent(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&While{Test: name("cond"), Body: []Stmt{&Pass{}}},
		},
	}
	var order []string
	_, _ = TransformStatements(src, struct{}{}, func(state struct{}, statement Stmt) (struct{}, []Stmt) {
		switch statement.(type) {
		case *Pass:
			order = append(order, "child")
		case *While:
			order = append(order, "parent")
		}
		return state, []Stmt{statement}
	})
	assert.Equal(t, []string{"child", "parent"}, order)
}

func TestTransformerRewritesExpressions(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&Return{Value: &BooleanOp{Left: name("a"), Right: name("b")}},
		},
	}
	tr := Transformer[int]{
		Expression: func(state int, expression Expr) (int, Expr) {
			if access, ok := expression.(*AccessExpr); ok && access.Key() == "a" {
				return state + 1, SimpleAccess(Location{}, "renamed")
			}
			return state, expression
		},
	}
	count, out := tr.Transform(src, 0)
	assert.Equal(t, 1, count)
	op := out.Statements[0].(*Return).Value.(*BooleanOp)
	assert.Equal(t, "renamed", op.Left.(*AccessExpr).Key())
	assert.Equal(t, "b", op.Right.(*AccessExpr).Key())
}

func TestTransformerPrunesChildren(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&Define{Name: NewReference("f"), Body: []Stmt{&Pass{}}},
			&Pass{},
		},
	}
	seen := 0
	tr := Transformer[struct{}]{
		Statement: func(state struct{}, statement Stmt) (struct{}, []Stmt) {
			if _, ok := statement.(*Pass); ok {
				seen++
			}
			return state, []Stmt{statement}
		},
		TransformChildren: func(state struct{}, statement Stmt) bool {
			_, isDefine := statement.(*Define)
			return !isDefine
		},
	}
	_, _ = tr.Transform(src, struct{}{})
	assert.Equal(t, 1, seen)
}

func TestCollectIsLazyAndPrunable(t *testing.T) {
	src := &Source{
		Handle: "m.py",
		Statements: []Stmt{
			&Define{Name: NewReference("outer"), Body: []Stmt{
				&Define{Name: NewReference("inner"), Body: []Stmt{&Pass{}}},
			}},
			&Define{Name: NewReference("sibling"), Body: []Stmt{&Pass{}}},
		},
	}
	isDefine := func(n Node) bool { _, ok := n.(*Define); return ok }

	var all []string
	for node := range Collect(src, isDefine, nil) {
		all = append(all, node.(*Define).Name.Key())
	}
	assert.Equal(t, []string{"outer", "inner", "sibling"}, all)

	var toplevel []string
	for node := range Collect(src, isDefine, isDefine) {
		toplevel = append(toplevel, node.(*Define).Name.Key())
	}
	assert.Equal(t, []string{"outer", "sibling"}, toplevel)

	// Early break stops the walk.
	count := 0
	for range Collect(src, isDefine, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestInspectPreOrder(t *testing.T) {
	inner := &BooleanOp{Left: name("b"), Right: name("c")}
	outer := &BooleanOp{Left: name("a"), Right: inner}

	var visited []Node
	Inspect(outer, func(n Node) bool {
		visited = append(visited, n)
		return true
	})
	// Every open is eventually closed by a nil.
	opens, closes := 0, 0
	for _, n := range visited {
		if n == nil {
			closes++
		} else {
			opens++
		}
	}
	assert.Equal(t, opens, closes)
	assert.Same(t, outer, visited[0])
}

func TestAccessKeyRendersCalls(t *testing.T) {
	a := SimpleAccess(Location{}, "a", "foo")
	a.Elements = append(a.Elements, &Call{})
	a.Elements = append(a.Elements, &Identifier{Name: "bar"}, &Call{})
	assert.Equal(t, "a.foo.(...).bar.(...)", a.Key())
	assert.True(t, a.IsCall())
}

func TestReferenceAccessRoundTrip(t *testing.T) {
	ref := NewReference("m", "Foo", "bar")
	access := ref.ToAccess()
	back, ok := access.AsReference()
	require.True(t, ok)
	assert.Equal(t, ref.Key(), back.Key())

	access.Elements = append(access.Elements, &Call{})
	_, ok = access.AsReference()
	assert.False(t, ok)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"$local_m?f$x":  "x",
		"$parameter$y":  "y",
		"$target$e":     "e",
		"plain":         "plain",
		"$unrecognized": "$unrecognized",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, SanitizeName(input), input)
	}
}
