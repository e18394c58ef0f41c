// # internal/parser/parser.go
package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"pyfront/internal/ast"
	"pyfront/internal/shared/observability"
)

// Parser turns source text into pyfront ASTs. It is reentrant: the pipeline
// re-enters it for annotation strings and f-string fragments, passing the
// origin line and column so positions land in the original file.
type Parser struct {
	language *sitter.Language
}

func New() *Parser {
	return &Parser{language: sitter.NewLanguage(tree_sitter_python.Language())}
}

// ParseModule parses a whole file into a Source.
func (p *Parser) ParseModule(handle string, qualifier ast.Reference, content []byte) (*ast.Source, error) {
	started := time.Now()
	statements, err := p.Parse(string(content), 1, 0, handle)
	observability.ParsingDuration.WithLabelValues("module").Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	return &ast.Source{
		Handle:     handle,
		Qualifier:  qualifier,
		Statements: statements,
	}, nil
}

// Parse parses a statement sequence at the given origin. startLine is
// 1-based, startColumn 0-based; both offset every position in the result.
func (p *Parser) Parse(text string, startLine, startColumn int, handle string) ([]ast.Stmt, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("set grammar: %w", err)
	}

	tree := parser.Parse([]byte(text), nil)
	if tree == nil {
		observability.ParseFailuresTotal.WithLabelValues("module").Inc()
		return nil, errors.New("parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		observability.ParseFailuresTotal.WithLabelValues("fragment").Inc()
		return nil, fmt.Errorf("syntax error near line %d", startLine)
	}

	c := &converter{
		source:      []byte(text),
		handle:      handle,
		startLine:   startLine,
		startColumn: startColumn,
	}
	return c.module(root), nil
}

// QualifierForPath derives the dotted module qualifier from a relative path,
// e.g. "pkg/mod.py" becomes pkg.mod and "pkg/__init__.py" becomes pkg.
func QualifierForPath(path string) ast.Reference {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(path, ".pyi"), ".py")
	trimmed = strings.TrimSuffix(trimmed, "/__init__")
	trimmed = strings.ReplaceAll(trimmed, "/", ".")
	if trimmed == "" {
		return ast.Reference{}
	}
	return ast.NewReference(strings.Split(trimmed, ".")...)
}
