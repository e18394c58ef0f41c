// # internal/preprocess/defines.go
package preprocess

import (
	"pyfront/internal/ast"
)

// DefinesOptions controls which function definitions are enumerated.
type DefinesOptions struct {
	IncludeStubs        bool
	IncludeNested       bool
	ExtractIntoToplevel bool
}

// Defines enumerates the source's function definitions. With
// ExtractIntoToplevel the module body itself is wrapped into a synthetic
// $toplevel define so module-level statements get analyzed like a function.
func Defines(source *ast.Source, opts DefinesOptions) []*ast.Define {
	var out []*ast.Define
	if opts.ExtractIntoToplevel {
		out = append(out, &ast.Define{
			Name:       source.Qualifier.Extend("$toplevel"),
			Body:       source.Statements,
			IsToplevel: true,
		})
	}
	for node := range ast.Collect(source, isDefine, pruneNested(opts.IncludeNested)) {
		define := node.(*ast.Define)
		if !opts.IncludeStubs && define.IsStub() {
			continue
		}
		out = append(out, define)
	}
	return out
}

// Classes enumerates every class statement of the source.
func Classes(source *ast.Source) []*ast.Class {
	var out []*ast.Class
	for node := range ast.Collect(source, func(n ast.Node) bool {
		_, ok := n.(*ast.Class)
		return ok
	}, nil) {
		out = append(out, node.(*ast.Class))
	}
	return out
}

// DequalifyMap inverts the source's imports: fully qualified names map back to
// the local form the author chose. Used when rendering diagnostics.
func DequalifyMap(source *ast.Source) map[string]ast.Reference {
	out := make(map[string]ast.Reference)
	_, _ = ast.TransformStatements(source, struct{}{}, func(state struct{}, statement ast.Stmt) (struct{}, []ast.Stmt) {
		imp, ok := statement.(*ast.Import)
		if !ok {
			return state, []ast.Stmt{statement}
		}
		for _, entry := range imp.Imports {
			switch {
			case imp.From != nil:
				local := entry.Name
				if entry.Alias != nil {
					local = *entry.Alias
				}
				out[imp.From.Extend(entry.Name.Names...).Key()] = local
			case entry.Alias != nil:
				out[entry.Name.Key()] = *entry.Alias
			}
		}
		return state, []ast.Stmt{statement}
	})
	return out
}

func isDefine(n ast.Node) bool {
	_, ok := n.(*ast.Define)
	return ok
}

// pruneNested stops descent at defines when nested functions are excluded,
// while still entering classes so methods are always found.
func pruneNested(includeNested bool) func(ast.Node) bool {
	if includeNested {
		return nil
	}
	return func(n ast.Node) bool {
		_, ok := n.(*ast.Define)
		return ok
	}
}
