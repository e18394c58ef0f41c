// # internal/callgraph/overrides.go
package callgraph

import (
	"pyfront/internal/ast"
	"pyfront/internal/environment"
	"pyfront/internal/preprocess"
)

// Overrides maps a method to the methods that directly override it in
// subclasses. Transitive overrides surface through their immediate parents.
func Overrides(env *environment.Environment, source *ast.Source) map[string][]string {
	overrides := make(map[string][]string)
	for _, class := range preprocess.Classes(source) {
		className := class.Name.Key()
		for _, statement := range class.Body {
			define, ok := statement.(*ast.Define)
			if !ok {
				continue
			}
			method := ast.SanitizeName(define.Name.Last())
			var overriding []string
			for _, subclass := range env.Hierarchy.Subclasses(className) {
				if env.Hierarchy.DefinesMethod(subclass, method) {
					overriding = append(overriding, subclass+"."+method)
				}
			}
			if len(overriding) > 0 {
				overrides[className+"."+method] = overriding
			}
		}
	}
	return overrides
}
