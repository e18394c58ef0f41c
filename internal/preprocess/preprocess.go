// # internal/preprocess/preprocess.go
package preprocess

import (
	"errors"
	"fmt"
	"time"

	"pyfront/internal/ast"
	"pyfront/internal/environment"
	"pyfront/internal/shared/observability"
)

// Reparser re-enters the parser for annotation strings and f-string fragments.
// Implementations must be reentrant and honor the origin line/column so
// diagnostics on re-parsed fragments line up with the original file.
type Reparser interface {
	Parse(text string, startLine, startColumn int, handle string) ([]ast.Stmt, error)
}

// MissingWildcardImport is reported when a wildcard import cannot be expanded
// because the module's exports have not been indexed yet.
type MissingWildcardImport struct {
	Qualifier string
}

func (e *MissingWildcardImport) Error() string {
	return fmt.Sprintf("exports of %s are not indexed yet", e.Qualifier)
}

// UnparsedAnnotation is the sentinel access substituted for annotation strings
// the parser rejected.
const UnparsedAnnotation = "$unparsed_annotation"

// Pipeline applies the normalization passes in their mandatory order. Each
// pass is pure in its inputs; a pass that fails stops the run, and no source
// is returned alongside the error.
type Pipeline struct {
	Reparser Reparser
	Modules  environment.Modules
}

type pass struct {
	name string
	run  func(*Pipeline, *ast.Source, bool) (*ast.Source, error)
}

// Pass order is mandatory: every pass relies on invariants established by the
// ones before it.
var passes = []pass{
	{"expand_relative_imports", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandRelativeImports(s), nil
	}},
	{"expand_string_annotations", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandStringAnnotations(s, p.Reparser), nil
	}},
	{"expand_format_string", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandFormatString(s, p.Reparser), nil
	}},
	{"replace_platform_specific_code", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ReplacePlatformSpecificCode(s), nil
	}},
	{"replace_version_specific_code", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ReplaceVersionSpecificCode(s), nil
	}},
	{"expand_type_checking_imports", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandTypeCheckingImports(s), nil
	}},
	{"expand_wildcard_imports", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandWildcardImports(s, p.Modules, force)
	}},
	{"qualify", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return Qualify(s, p.Reparser), nil
	}},
	{"expand_implicit_returns", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandImplicitReturns(s), nil
	}},
	{"replace_mypy_extensions_stub", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ReplaceMypyExtensionsStub(s), nil
	}},
	{"expand_typed_dictionary_declarations", func(p *Pipeline, s *ast.Source, force bool) (*ast.Source, error) {
		return ExpandTypedDictionaryDeclarations(s), nil
	}},
}

func (p *Pipeline) run(source *ast.Source, force bool) (*ast.Source, error) {
	for _, pass := range passes {
		started := time.Now()
		next, err := pass.run(p, source, force)
		observability.PassDuration.WithLabelValues(pass.name).Observe(time.Since(started).Seconds())
		if err != nil {
			return nil, err
		}
		source = next
	}
	return source, nil
}

// Preprocess normalizes the source eagerly; wildcard imports whose exports are
// unindexed are left in place rather than failing.
func (p *Pipeline) Preprocess(source *ast.Source) *ast.Source {
	out, err := p.run(source, true)
	if err != nil {
		// Forced runs have no failing passes.
		panic(fmt.Sprintf("preprocess: forced pipeline failed: %v", err))
	}
	return out
}

// TryPreprocess normalizes lazily: it returns nil when a required wildcard
// import has not been indexed so the caller can defer the source.
func (p *Pipeline) TryPreprocess(source *ast.Source) *ast.Source {
	out, err := p.run(source, false)
	if err != nil {
		var missing *MissingWildcardImport
		if errors.As(err, &missing) {
			return nil
		}
		panic(fmt.Sprintf("preprocess: unexpected pipeline failure: %v", err))
	}
	return out
}
