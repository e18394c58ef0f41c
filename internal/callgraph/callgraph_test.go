// # internal/callgraph/callgraph_test.go
package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfront/internal/ast"
	"pyfront/internal/environment"
)

func access(names ...string) *ast.AccessExpr {
	return ast.SimpleAccess(ast.Location{}, names...)
}

// callAccess builds an access chain ending in a call, e.g. self.bar().
func callAccess(names ...string) *ast.AccessExpr {
	a := access(names...)
	a.Elements = append(a.Elements, &ast.Call{})
	return a
}

func method(id int, class, name string, body ...ast.Stmt) *ast.Define {
	parent := ast.NewReference(class)
	return &ast.Define{
		ID:     id,
		Name:   ast.NewReference(class, name),
		Parent: &parent,
		Body:   body,
	}
}

func expressionStmt(value ast.Expr) ast.Stmt {
	return &ast.ExpressionStmt{Value: value}
}

func returnStmt(value ast.Expr) ast.Stmt {
	return &ast.Return{Value: value}
}

func named(name string) environment.Element {
	return environment.SignatureElement{
		Callable: environment.Callable{Kind: environment.CallableNamed, Name: name},
	}
}

func TestCreateConstructionEdge(t *testing.T) {
	// class Foo:
	//     def __init__(self): pass
	//     def bar(self): return 10
	//     def quux(self): return self.bar()
	env := environment.New()
	quuxBody := returnStmt(callAccess("$parameter$self", "bar"))
	source := &ast.Source{
		Handle: "test.py",
		Statements: []ast.Stmt{
			&ast.Class{
				ID:   1,
				Name: ast.NewReference("Foo"),
				Body: []ast.Stmt{
					method(2, "Foo", "__init__", &ast.Pass{}),
					method(3, "Foo", "bar", returnStmt(&ast.Integer{Value: 10})),
					method(4, "Foo", "quux", quuxBody),
				},
			},
		},
	}
	env.Resolutions.AddAnnotation(4, 0, "$parameter$self.bar.(...)", named("Foo.bar"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	require.Contains(t, edges, "Foo.quux")
	assert.Equal(t, []string{"Foo.bar"}, edges["Foo.quux"])
}

func TestCreateMutualRecursion(t *testing.T) {
	env := environment.New()
	source := &ast.Source{
		Handle: "test.py",
		Statements: []ast.Stmt{
			&ast.Class{
				ID:   1,
				Name: ast.NewReference("Foo"),
				Body: []ast.Stmt{
					method(2, "Foo", "bar", returnStmt(callAccess("$parameter$self", "quux"))),
					method(3, "Foo", "quux", returnStmt(callAccess("$parameter$self", "bar"))),
				},
			},
		},
	}
	env.Resolutions.AddAnnotation(2, 0, "$parameter$self.quux.(...)", named("Foo.quux"))
	env.Resolutions.AddAnnotation(3, 0, "$parameter$self.bar.(...)", named("Foo.bar"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Equal(t, []string{"Foo.quux"}, edges["Foo.bar"])
	assert.Equal(t, []string{"Foo.bar"}, edges["Foo.quux"])

	partition := Partition(edges)
	require.Len(t, partition, 1)
	assert.ElementsMatch(t, []string{"Foo.bar", "Foo.quux"}, partition[0])
}

func TestCreateConstructorDependency(t *testing.T) {
	// class A: def __init__(self) -> A: return self
	// class B: def __init__(self) -> A: return A()
	env := environment.New()
	source := &ast.Source{
		Handle: "test.py",
		Statements: []ast.Stmt{
			&ast.Class{ID: 1, Name: ast.NewReference("A"), Body: []ast.Stmt{
				method(2, "A", "__init__", returnStmt(access("$parameter$self"))),
			}},
			&ast.Class{ID: 3, Name: ast.NewReference("B"), Body: []ast.Stmt{
				method(4, "B", "__init__", returnStmt(callAccess("A"))),
			}},
		},
	}
	env.Resolutions.AddAnnotation(4, 0, "A.(...)", named("A.__init__"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Equal(t, []string{"A.__init__"}, edges["B.__init__"])
}

func TestCreateAssignmentRetypesReceiver(t *testing.T) {
	// Re-binding the receiver between statements switches which method the
	// same textual call site resolves to.
	env := environment.New()
	caller := &ast.Define{
		ID:   5,
		Name: ast.NewReference("test1", "X", "caller"),
		Body: []ast.Stmt{
			&ast.Assign{Target: access("$local_test1?X?caller$a"), Value: callAccess("test1", "A")},
			expressionStmt(callAccess("$local_test1?X?caller$a", "foo")),
			&ast.Assign{Target: access("$local_test1?X?caller$a"), Value: callAccess("test1", "B")},
			expressionStmt(callAccess("$local_test1?X?caller$a", "foo")),
		},
	}
	source := &ast.Source{
		Handle:     "test1.py",
		Qualifier:  ast.NewReference("test1"),
		Statements: []ast.Stmt{caller},
	}
	site := "$local_test1?X?caller$a.foo.(...)"
	env.Resolutions.AddAnnotation(5, 1, site, named("test1.A.foo"))
	env.Resolutions.AddAnnotation(5, 3, site, named("test1.B.foo"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Equal(t, []string{"test1.A.foo", "test1.B.foo"}, edges["test1.X.caller"])
}

func TestCreateChainedCallOnReturnedInstance(t *testing.T) {
	// B().foo() returns an A; the terminal .foo() dispatches on A.
	env := environment.New()
	chain := callAccess("test2", "B")
	chain.Elements = append(chain.Elements, &ast.Identifier{Name: "foo"}, &ast.Call{})
	caller := &ast.Define{
		ID:   7,
		Name: ast.NewReference("test2", "caller"),
		Body: []ast.Stmt{expressionStmt(chain)},
	}
	source := &ast.Source{
		Handle:     "test2.py",
		Qualifier:  ast.NewReference("test2"),
		Statements: []ast.Stmt{caller},
	}
	env.Resolutions.AddAnnotation(7, 0, "test2.B.(...).foo.(...)", named("test2.A.foo"))
	// The intermediate constructor call resolves too; only the terminal
	// element decides the chained site.
	env.Resolutions.AddAnnotation(7, 0, "test2.B.(...)", named("test2.B.__init__"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Contains(t, edges["test2.caller"], "test2.A.foo")
}

func TestCreateCollapsesDuplicateEdges(t *testing.T) {
	env := environment.New()
	define := &ast.Define{
		ID:   1,
		Name: ast.NewReference("caller"),
		Body: []ast.Stmt{
			expressionStmt(callAccess("helper")),
			expressionStmt(callAccess("helper")),
		},
	}
	source := &ast.Source{Handle: "test.py", Statements: []ast.Stmt{define}}
	env.Resolutions.AddAnnotation(1, 0, "helper.(...)", named("helper"))
	env.Resolutions.AddAnnotation(1, 1, "helper.(...)", named("helper"))
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Equal(t, []string{"helper"}, edges["caller"])
}

func TestCreateIgnoresAnonymousCallables(t *testing.T) {
	env := environment.New()
	define := &ast.Define{
		ID:   1,
		Name: ast.NewReference("caller"),
		Body: []ast.Stmt{expressionStmt(callAccess("f"))},
	}
	source := &ast.Source{Handle: "test.py", Statements: []ast.Stmt{define}}
	env.Resolutions.AddAnnotation(1, 0, "f.(...)", environment.SignatureElement{
		Callable: environment.Callable{Kind: environment.CallableAnonymous},
	})
	env.Resolutions.Freeze()

	edges := Create(env, source)
	assert.Empty(t, edges)
}

func TestOverrides(t *testing.T) {
	// Foo.foo overridden in Bar(Foo) and Quux(Foo); Bar.foo overridden in
	// Baz(Bar). Only direct overrides are listed.
	env := environment.New()
	env.Hierarchy.AddClass("Foo", nil, []string{"foo"})
	env.Hierarchy.AddClass("Bar", []string{"Foo"}, []string{"foo"})
	env.Hierarchy.AddClass("Quux", []string{"Foo"}, []string{"foo"})
	env.Hierarchy.AddClass("Baz", []string{"Bar"}, []string{"foo"})
	env.Hierarchy.Freeze()

	source := &ast.Source{
		Handle: "test.py",
		Statements: []ast.Stmt{
			&ast.Class{ID: 1, Name: ast.NewReference("Foo"), Body: []ast.Stmt{
				method(2, "Foo", "foo", &ast.Pass{}),
			}},
			&ast.Class{ID: 3, Name: ast.NewReference("Bar"),
				Bases: []ast.Argument{{Value: access("Foo")}},
				Body:  []ast.Stmt{method(4, "Bar", "foo", &ast.Pass{})}},
		},
	}

	overrides := Overrides(env, source)
	assert.Equal(t, []string{"Bar.foo", "Quux.foo"}, overrides["Foo.foo"])
	assert.Equal(t, []string{"Baz.foo"}, overrides["Bar.foo"])
}

func TestPartitionOrdering(t *testing.T) {
	// Two cycles {c1,c2} and {c3,c4}, a self loop {c5}, and c3 calling into
	// the first cycle. Callers come before the cycles they call into.
	edges := Edges{
		"c1": {"c2"},
		"c2": {"c1"},
		"c3": {"c4", "c1"},
		"c4": {"c3"},
		"c5": {"c5"},
	}
	partition := Partition(edges)
	require.Len(t, partition, 3)
	assert.Equal(t, []string{"c3", "c4"}, partition[0])
	assert.Equal(t, []string{"c1", "c2"}, partition[1])
	assert.Equal(t, []string{"c5"}, partition[2])

	// No edge may point from a later component to an earlier one.
	position := make(map[string]int)
	for i, component := range partition {
		for _, member := range component {
			position[member] = i
		}
	}
	for caller, callees := range edges {
		for _, callee := range callees {
			assert.LessOrEqual(t, position[caller], position[callee])
		}
	}
}

func TestPartitionCoversEveryVertexOnce(t *testing.T) {
	edges := Edges{
		"a": {"b"},
		"b": {"c"},
	}
	partition := Partition(edges)
	seen := make(map[string]int)
	for _, component := range partition {
		for _, member := range component {
			seen[member]++
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}
