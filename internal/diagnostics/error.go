// # internal/diagnostics/error.go
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"pyfront/internal/ast"
	"pyfront/internal/shared/observability"
)

// Kind describes one family of diagnostics: a stable code and name, how its
// messages render, and what inference detail it exposes for tooling.
type Kind interface {
	Code() int
	Name() string
	Messages(concise bool, define *ast.Define, location ast.Location) []string
	InferenceInformation(define *ast.Define) map[string]any
}

// Error is one diagnostic: an instantiated location, the kind, and the
// enclosing function. Errors are value types: comparable, usable as map keys,
// and serializable for on-disk caches.
type Error[K Kind] struct {
	location ast.Location
	kind     K
	define   *ast.Define
}

// Key buckets errors by path and line for deduplication.
type Key struct {
	Path string
	Line int
}

func Create[K Kind](location ast.Location, kind K, define *ast.Define) Error[K] {
	observability.ErrorsEmittedTotal.WithLabelValues(kind.Name()).Inc()
	return Error[K]{location: location, kind: kind, define: define}
}

func (e Error[K]) Kind() K                { return e.kind }
func (e Error[K]) Path() string           { return e.location.Path }
func (e Error[K]) Location() ast.Location { return e.location }
func (e Error[K]) Code() int              { return e.kind.Code() }
func (e Error[K]) Define() *ast.Define    { return e.define }

func (e Error[K]) Key() Key {
	return Key{Path: e.location.Path, Line: e.location.Start.Line}
}

// Description renders "<name> [<code>]: <messages>". With traces enabled all
// messages are joined by separator; otherwise only the first is shown.
func (e Error[K]) Description(separator string, concise, showErrorTraces bool) string {
	messages := e.kind.Messages(concise, e.define, e.location)
	text := ""
	if len(messages) > 0 {
		if showErrorTraces {
			text = strings.Join(messages, separator)
		} else {
			text = messages[0]
		}
	}
	return fmt.Sprintf("%s [%d]: %s", e.kind.Name(), e.kind.Code(), text)
}

// ToJSON renders the structured form hosts persist and report.
func (e Error[K]) ToJSON(showErrorTraces bool) map[string]any {
	long := e.Description("\n", false, true)
	concise := e.Description("\n", true, showErrorTraces)
	defineName := ""
	if e.define != nil {
		defineName = ast.SanitizeName(e.define.Name.Last())
	}
	return map[string]any{
		"line":                e.location.Start.Line,
		"column":              e.location.Start.Column,
		"path":                e.location.Path,
		"code":                e.kind.Code(),
		"name":                e.kind.Name(),
		"description":         e.Description("\n", false, showErrorTraces),
		"long_description":    long,
		"concise_description": concise,
		"inference":           e.kind.InferenceInformation(e.define),
		"define":              defineName,
	}
}

// MarshalJSON makes errors directly serializable.
func (e Error[K]) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON(false))
}
