// # internal/preprocess/fstring.go
package preprocess

import (
	"log/slog"
	"strings"

	"pyfront/internal/ast"
)

// ExpandFormatString parses the brace-delimited expressions out of f-string
// substrings. The emitted literal keeps the original value for diagnostics and
// carries the parsed expressions under the Format kind. Fragments the parser
// rejects are logged and dropped. Braces do not nest inside expressions.
func ExpandFormatString(source *ast.Source, reparser Reparser) *ast.Source {
	t := ast.Transformer[struct{}]{
		Expression: func(state struct{}, expression ast.Expr) (struct{}, ast.Expr) {
			literal, ok := expression.(*ast.StringLiteral)
			if !ok || literal.Kind != ast.StringMixed {
				return state, expression
			}
			var format []ast.Expr
			for _, substring := range literal.Substrings {
				if substring.Kind != ast.SubstringFormat {
					continue
				}
				format = append(format, scanFormatSubstring(substring, reparser, source.Handle)...)
			}
			out := *literal
			out.Kind = ast.StringFormat
			out.Format = format
			out.Substrings = nil
			return state, &out
		},
	}
	_, out := t.Transform(source, struct{}{})
	return out
}

type fstringState int

const (
	fstringLiteral fstringState = iota
	fstringExpression
)

func scanFormatSubstring(substring ast.Substring, reparser Reparser, handle string) []ast.Expr {
	var expressions []ast.Expr
	state := fstringLiteral
	var buffer strings.Builder
	column := 0

	emit := func() {
		input := buffer.String()
		buffer.Reset()
		if input == "" {
			return
		}
		if reparser == nil {
			return
		}
		statements, err := reparser.Parse(input, substring.Loc.Start.Line, substring.Loc.Start.Column+column, handle)
		if err == nil && len(statements) == 1 {
			if expr, ok := statements[0].(*ast.ExpressionStmt); ok {
				expressions = append(expressions, expr.Value)
				return
			}
		}
		slog.Debug("dropped unparsable format-string fragment", "handle", handle, "fragment", input, "error", err)
	}

	for position, character := range substring.Value {
		switch state {
		case fstringLiteral:
			if character == '{' {
				state = fstringExpression
				column = position + 1
			}
		case fstringExpression:
			switch {
			case character == '{' && buffer.Len() == 0:
				// Escaped {{ collapses back to a literal brace.
				state = fstringLiteral
			case character == '}':
				emit()
				state = fstringLiteral
			case (character == ' ' || character == '\t') && buffer.Len() == 0:
				// Leading whitespace is stripped; keep the column pointing at
				// the expression itself.
				column = position + 1
			default:
				buffer.WriteRune(character)
			}
		}
	}
	return expressions
}
