// # internal/preprocess/imports_test.go
package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfront/internal/ast"
)

func TestExpandRelativeImports(t *testing.T) {
	tests := []struct {
		name      string
		handle    string
		qualifier []string
		relative  int
		from      []string
		expected  string
	}{
		{"sibling module", "pkg/mod.py", []string{"pkg", "mod"}, 1, []string{"x"}, "pkg.x"},
		{"bare dot import", "pkg/mod.py", []string{"pkg", "mod"}, 1, nil, "pkg"},
		{"parent package", "pkg/sub/mod.py", []string{"pkg", "sub", "mod"}, 2, []string{"x"}, "pkg.x"},
		{"package init keeps own level", "pkg/__init__.py", []string{"pkg"}, 1, []string{"x"}, "pkg.x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var from *ast.Reference
			if tt.from != nil {
				from = refPtr(tt.from...)
			}
			src := source(tt.handle, ast.NewReference(tt.qualifier...),
				&ast.Import{Relative: tt.relative, From: from,
					Imports: []ast.ImportEntry{{Name: ast.NewReference("y")}}})
			out := ExpandRelativeImports(src)
			imp := out.Statements[0].(*ast.Import)
			require.NotNil(t, imp.From)
			assert.Zero(t, imp.Relative)
			assert.Equal(t, tt.expected, imp.From.Key())
		})
	}
}

func TestExpandRelativeImportsSkipsBuiltins(t *testing.T) {
	imp := &ast.Import{Relative: 1, From: refPtr("x"),
		Imports: []ast.ImportEntry{{Name: ast.NewReference("y")}}}
	src := source("builtins.pyi", ast.NewReference("builtins"), imp)
	out := ExpandRelativeImports(src)
	assert.Same(t, imp, out.Statements[0])
}

func TestExpandWildcardImportsRewritesIndexedModule(t *testing.T) {
	src := source("a.py", ast.NewReference("a"),
		&ast.Import{From: refPtr("m"), Imports: []ast.ImportEntry{{Name: ast.NewReference("*")}}})
	modules := fakeModules{exports: map[string][]string{"m": {"a", "b", "c"}}}
	out, err := ExpandWildcardImports(src, modules, false)
	require.NoError(t, err)
	imp := out.Statements[0].(*ast.Import)
	require.Len(t, imp.Imports, 3)
	assert.Equal(t, "a", imp.Imports[0].Name.Key())
	assert.Equal(t, "b", imp.Imports[1].Name.Key())
	assert.Equal(t, "c", imp.Imports[2].Name.Key())
	for _, entry := range imp.Imports {
		assert.Nil(t, entry.Alias)
	}
}

func TestExpandWildcardImportsStrictFailsWhenUnindexed(t *testing.T) {
	src := source("a.py", ast.NewReference("a"),
		&ast.Import{From: refPtr("m"), Imports: []ast.ImportEntry{{Name: ast.NewReference("*")}}})
	_, err := ExpandWildcardImports(src, fakeModules{}, false)
	var missing *MissingWildcardImport
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "m", missing.Qualifier)
}

func TestExpandWildcardImportsForcedKeepsStar(t *testing.T) {
	src := source("a.py", ast.NewReference("a"),
		&ast.Import{From: refPtr("m"), Imports: []ast.ImportEntry{{Name: ast.NewReference("*")}}})
	out, err := ExpandWildcardImports(src, fakeModules{}, true)
	require.NoError(t, err)
	imp := out.Statements[0].(*ast.Import)
	assert.Equal(t, "*", imp.Imports[0].Name.Key())
}

func TestExpandWildcardImportsLeavesPlainImports(t *testing.T) {
	imp := &ast.Import{From: refPtr("m"), Imports: []ast.ImportEntry{{Name: ast.NewReference("f")}}}
	src := source("a.py", ast.NewReference("a"), imp)
	out, err := ExpandWildcardImports(src, fakeModules{}, false)
	require.NoError(t, err)
	assert.Same(t, imp, out.Statements[0])
}
