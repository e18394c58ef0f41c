// # internal/callgraph/callgraph.go
package callgraph

import (
	"pyfront/internal/ast"
	"pyfront/internal/environment"
	"pyfront/internal/preprocess"
	"pyfront/internal/shared/observability"
)

// Edges is the caller→callees relation, keyed by fully qualified names.
// Callee lists preserve discovery order; duplicates are collapsed.
type Edges map[string][]string

// Create resolves every call site of every define in the normalized source to
// the concrete callables the checker published, and records one edge per
// (caller, callee) pair. The type checker must have completed on this source.
func Create(env *environment.Environment, source *ast.Source) Edges {
	edges := make(Edges)
	seen := make(map[string]map[string]bool)

	for _, define := range preprocess.Defines(source, preprocess.DefinesOptions{IncludeStubs: true, IncludeNested: true}) {
		caller := define.Name.Key()
		for index, statement := range define.Body {
			resolution, ok := env.Resolutions.Resolution(define.ID, index)
			if !ok {
				continue
			}
			for _, site := range callSites(statement) {
				element := resolution.LastElement(site)
				signature, ok := element.(environment.SignatureElement)
				if !ok {
					continue
				}
				if signature.Callable.Kind != environment.CallableNamed {
					continue
				}
				callee := signature.Callable.Name
				if seen[caller] == nil {
					seen[caller] = make(map[string]bool)
				}
				if seen[caller][callee] {
					continue
				}
				seen[caller][callee] = true
				edges[caller] = append(edges[caller], callee)
			}
		}
	}
	observability.CallGraphEdges.Set(float64(edgeCount(edges)))
	return edges
}

// callSites returns the access keys of every expression whose terminal
// element is a call, without descending into nested defines.
func callSites(statement ast.Stmt) []string {
	var sites []string
	ast.Inspect(statement, func(n ast.Node) bool {
		switch n := n.(type) {
		case nil:
			return false
		case *ast.Define, *ast.Class, *ast.Lambda:
			return false
		case *ast.AccessExpr:
			if n.IsCall() {
				sites = append(sites, n.Key())
			}
		}
		return true
	})
	return sites
}

func edgeCount(edges Edges) int {
	count := 0
	for _, callees := range edges {
		count += len(callees)
	}
	return count
}
