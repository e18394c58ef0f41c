// # internal/diagnostics/kinds.go
package diagnostics

import (
	"fmt"

	"pyfront/internal/ast"
)

// ParseFailure reports a file or fragment the parser rejected.
type ParseFailure struct {
	Detail string
}

func (ParseFailure) Code() int    { return 404 }
func (ParseFailure) Name() string { return "Parsing failure" }

func (k ParseFailure) Messages(concise bool, define *ast.Define, location ast.Location) []string {
	if concise {
		return []string{"Could not parse file."}
	}
	return []string{
		fmt.Sprintf("Could not parse %s at line %d.", location.Path, location.Start.Line),
		k.Detail,
	}
}

func (ParseFailure) InferenceInformation(*ast.Define) map[string]any { return nil }

// DeferredSource reports a source skipped because a wildcard import's module
// has not been indexed.
type DeferredSource struct {
	Qualifier string
}

func (DeferredSource) Code() int    { return 101 }
func (DeferredSource) Name() string { return "Undefined import" }

func (k DeferredSource) Messages(concise bool, define *ast.Define, location ast.Location) []string {
	if concise {
		return []string{fmt.Sprintf("Module `%s` is not indexed.", k.Qualifier)}
	}
	return []string{
		fmt.Sprintf("Wildcard import from `%s` could not be expanded because the module is not indexed.", k.Qualifier),
	}
}

func (DeferredSource) InferenceInformation(*ast.Define) map[string]any { return nil }
