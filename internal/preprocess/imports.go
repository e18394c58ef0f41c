// # internal/preprocess/imports.go
package preprocess

import (
	"strings"

	"pyfront/internal/ast"
	"pyfront/internal/environment"
)

// ExpandRelativeImports rewrites "from .x import y" against the source's
// qualifier and handle. Builtins sources are left alone.
func ExpandRelativeImports(source *ast.Source) *ast.Source {
	qualifier := source.Qualifier.Key()
	if qualifier == "builtins" || qualifier == "future.builtins" {
		return source
	}
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		imp, ok := statement.(*ast.Import)
		if !ok || imp.Relative == 0 {
			return state, []ast.Stmt{statement}
		}
		base := source.Qualifier.Names
		// A module's first dot refers to its enclosing package; a package
		// __init__ already is that package.
		if !isPackageInit(source.Handle) && len(base) > 0 {
			base = base[:len(base)-1]
		}
		for i := 1; i < imp.Relative && len(base) > 0; i++ {
			base = base[:len(base)-1]
		}
		names := make([]string, 0, len(base))
		names = append(names, base...)
		if imp.From != nil {
			names = append(names, imp.From.Names...)
		}
		rewritten := *imp
		rewritten.Relative = 0
		from := ast.Reference{Loc: imp.Loc, Names: names}
		rewritten.From = &from
		return state, []ast.Stmt{&rewritten}
	})
	return out
}

func isPackageInit(handle string) bool {
	return strings.HasSuffix(handle, "__init__.py") || strings.HasSuffix(handle, "__init__.pyi")
}

// ExpandWildcardImports rewrites "from M import *" to the module's indexed
// exports. When exports are unavailable the source is kept as-is under force,
// and rejected with MissingWildcardImport otherwise so callers may defer.
func ExpandWildcardImports(source *ast.Source, modules environment.Modules, force bool) (*ast.Source, error) {
	var failure error
	_, out := ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		imp, ok := statement.(*ast.Import)
		if !ok || imp.From == nil || !isWildcard(imp) {
			return state, []ast.Stmt{statement}
		}
		var exports []string
		indexed := false
		if modules != nil {
			exports, indexed = modules.Exports(imp.From.Key())
		}
		if !indexed {
			if !force && failure == nil {
				failure = &MissingWildcardImport{Qualifier: imp.From.Key()}
			}
			return state, []ast.Stmt{statement}
		}
		entries := make([]ast.ImportEntry, 0, len(exports))
		for _, export := range exports {
			entries = append(entries, ast.ImportEntry{
				Name: ast.Reference{Loc: imp.Loc, Names: []string{export}},
			})
		}
		rewritten := *imp
		rewritten.Imports = entries
		return state, []ast.Stmt{&rewritten}
	})
	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func isWildcard(imp *ast.Import) bool {
	for _, entry := range imp.Imports {
		if len(entry.Name.Names) == 1 && entry.Name.Names[0] == "*" {
			return true
		}
	}
	return false
}
