// # internal/parser/convert_expr.go
package parser

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyfront/internal/ast"
)

var binaryOperators = map[string]string{
	"+":  "__add__",
	"-":  "__sub__",
	"*":  "__mul__",
	"/":  "__truediv__",
	"//": "__floordiv__",
	"%":  "__mod__",
	"**": "__pow__",
	"<<": "__lshift__",
	">>": "__rshift__",
	"&":  "__and__",
	"|":  "__or__",
	"^":  "__xor__",
	"@":  "__matmul__",
}

var augmentedOperators = map[string]string{
	"+=":  "__iadd__",
	"-=":  "__isub__",
	"*=":  "__imul__",
	"/=":  "__itruediv__",
	"//=": "__ifloordiv__",
	"%=":  "__imod__",
	"**=": "__ipow__",
	"<<=": "__ilshift__",
	">>=": "__irshift__",
	"&=":  "__iand__",
	"|=":  "__ior__",
	"^=":  "__ixor__",
	"@=":  "__imatmul__",
}

var comparisonOperators = map[string]ast.ComparisonOperator{
	"==":     ast.CompareEquals,
	"!=":     ast.CompareNotEquals,
	"<":      ast.CompareLessThan,
	"<=":     ast.CompareLessThanOrEquals,
	">":      ast.CompareGreaterThan,
	">=":     ast.CompareGreaterThanOrEquals,
	"is":     ast.CompareIs,
	"is not": ast.CompareIsNot,
	"in":     ast.CompareIn,
	"not in": ast.CompareNotIn,
}

func (c *converter) expression(node *sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	loc := c.location(node)
	switch node.Kind() {
	case "parenthesized_expression":
		return c.expression(node.NamedChild(0))

	case "identifier":
		return &ast.AccessExpr{Loc: loc, Elements: []ast.AccessElement{
			&ast.Identifier{Loc: loc, Name: c.text(node)},
		}}

	case "attribute":
		object := c.expression(node.ChildByFieldName("object"))
		attribute := node.ChildByFieldName("attribute")
		element := &ast.Identifier{Loc: c.location(attribute), Name: c.text(attribute)}
		if access, ok := object.(*ast.AccessExpr); ok {
			elements := append(append([]ast.AccessElement(nil), access.Elements...), element)
			return &ast.AccessExpr{Loc: loc, Base: access.Base, Elements: elements}
		}
		return &ast.AccessExpr{Loc: loc, Base: object, Elements: []ast.AccessElement{element}}

	case "call":
		function := c.expression(node.ChildByFieldName("function"))
		call := &ast.Call{Loc: loc, Arguments: c.callArguments(node.ChildByFieldName("arguments"))}
		if access, ok := function.(*ast.AccessExpr); ok {
			elements := append(append([]ast.AccessElement(nil), access.Elements...), call)
			return &ast.AccessExpr{Loc: loc, Base: access.Base, Elements: elements}
		}
		return &ast.AccessExpr{Loc: loc, Base: function, Elements: []ast.AccessElement{call}}

	case "subscript":
		// x[i] desugars to x.__getitem__(i).
		value := c.expression(node.ChildByFieldName("value"))
		var indexes []ast.Expr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if valueField := node.ChildByFieldName("value"); valueField != nil && sameNode(child, valueField) {
				continue
			}
			indexes = append(indexes, c.expression(child))
		}
		var index ast.Expr
		if len(indexes) == 1 {
			index = indexes[0]
		} else {
			index = &ast.Tuple{Loc: loc, Items: indexes}
		}
		return c.dunderCall(loc, value, "__getitem__", index)

	case "binary_operator":
		method := binaryOperators[operatorText(node, c)]
		if method == "" {
			method = "__add__"
		}
		return c.dunderCall(loc,
			c.expression(node.ChildByFieldName("left")),
			method,
			c.expression(node.ChildByFieldName("right")))

	case "boolean_operator":
		operator := ast.BoolAnd
		if operatorText(node, c) == "or" {
			operator = ast.BoolOr
		}
		return &ast.BooleanOp{
			Loc:      loc,
			Operator: operator,
			Left:     c.expression(node.ChildByFieldName("left")),
			Right:    c.expression(node.ChildByFieldName("right")),
		}

	case "comparison_operator":
		return c.comparison(node, loc)

	case "not_operator":
		return &ast.Unary{Loc: loc, Operator: ast.UnaryNot, Operand: c.expression(node.ChildByFieldName("argument"))}

	case "unary_operator":
		operator := ast.UnaryNegative
		switch operatorText(node, c) {
		case "+":
			operator = ast.UnaryPositive
		case "~":
			operator = ast.UnaryInvert
		}
		return &ast.Unary{Loc: loc, Operator: operator, Operand: c.expression(node.ChildByFieldName("argument"))}

	case "conditional_expression":
		return &ast.Ternary{
			Loc:         loc,
			Target:      c.expression(node.NamedChild(0)),
			Test:        c.expression(node.NamedChild(1)),
			Alternative: c.expression(node.NamedChild(2)),
		}

	case "lambda":
		lambda := &ast.Lambda{Loc: loc, Body: c.expression(node.ChildByFieldName("body"))}
		if parameters := node.ChildByFieldName("parameters"); parameters != nil {
			lambda.Parameters = c.parameters(parameters)
		}
		return lambda

	case "await":
		return &ast.Await{Loc: loc, Operand: c.expression(node.NamedChild(0))}

	case "yield":
		return &ast.Yield{Loc: loc, Value: c.yieldValue(node)}

	case "list":
		return &ast.List{Loc: loc, Items: c.expressionItems(node)}

	case "set":
		return &ast.Set{Loc: loc, Items: c.expressionItems(node)}

	case "tuple", "expression_list", "pattern_list":
		return &ast.Tuple{Loc: loc, Items: c.expressionItems(node)}

	case "dictionary":
		dictionary := &ast.Dictionary{Loc: loc}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "pair":
				dictionary.Entries = append(dictionary.Entries, ast.DictEntry{
					Key:   c.expression(child.ChildByFieldName("key")),
					Value: c.expression(child.ChildByFieldName("value")),
				})
			}
		}
		return dictionary

	case "list_comprehension":
		return &ast.Comprehension{Loc: loc, Kind: ast.ListComprehension,
			Element: c.expression(node.ChildByFieldName("body")), Generators: c.comprehensionClauses(node)}

	case "set_comprehension":
		return &ast.Comprehension{Loc: loc, Kind: ast.SetComprehension,
			Element: c.expression(node.ChildByFieldName("body")), Generators: c.comprehensionClauses(node)}

	case "generator_expression":
		return &ast.Comprehension{Loc: loc, Kind: ast.GeneratorComprehension,
			Element: c.expression(node.ChildByFieldName("body")), Generators: c.comprehensionClauses(node)}

	case "dictionary_comprehension":
		body := node.ChildByFieldName("body")
		return &ast.DictComprehension{
			Loc:        loc,
			Key:        c.expression(body.ChildByFieldName("key")),
			Value:      c.expression(body.ChildByFieldName("value")),
			Generators: c.comprehensionClauses(node),
		}

	case "list_splat":
		return &ast.Starred{Loc: loc, Kind: ast.StarOnce, Operand: c.expression(node.NamedChild(0))}

	case "dictionary_splat":
		return &ast.Starred{Loc: loc, Kind: ast.StarTwice, Operand: c.expression(node.NamedChild(0))}

	case "string":
		return c.stringLiteral(node, loc)

	case "concatenated_string":
		var value strings.Builder
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if piece, ok := c.stringLiteral(node.NamedChild(i), loc).(*ast.StringLiteral); ok {
				value.WriteString(piece.Value)
			}
		}
		return &ast.StringLiteral{Loc: loc, Value: value.String(), Kind: ast.StringRaw}

	case "integer":
		text := strings.TrimRight(c.text(node), "lL")
		if value, err := strconv.ParseInt(text, 0, 64); err == nil {
			return &ast.Integer{Loc: loc, Value: value}
		}
		return &ast.Integer{Loc: loc}

	case "float":
		if value, err := strconv.ParseFloat(c.text(node), 64); err == nil {
			return &ast.Float{Loc: loc, Value: value}
		}
		return &ast.Float{Loc: loc}

	case "true":
		return &ast.Boolean{Loc: loc, Value: true}

	case "false":
		return &ast.Boolean{Loc: loc}

	case "none":
		return &ast.NoneLiteral{Loc: loc}

	case "ellipsis":
		return &ast.Ellipsis{Loc: loc}

	case "keyword_argument":
		// Handled by callArguments; reaching here means a stray node.
		return c.expression(node.ChildByFieldName("value"))

	case "slice":
		var items []ast.Expr
		for i := uint(0); i < node.NamedChildCount(); i++ {
			items = append(items, c.expression(node.NamedChild(i)))
		}
		return &ast.Tuple{Loc: loc, Items: items}

	case "type":
		return c.expression(node.NamedChild(0))

	default:
		// Unknown constructs degrade to an opaque name carrying their text.
		return &ast.Name{Loc: loc, ID: c.text(node)}
	}
}

func (c *converter) typeExpression(node *sitter.Node) ast.Expr {
	if node.Kind() == "type" && node.NamedChildCount() > 0 {
		return c.expression(node.NamedChild(0))
	}
	return c.expression(node)
}

func (c *converter) expressionItems(node *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for i := uint(0); i < node.NamedChildCount(); i++ {
		out = append(out, c.expression(node.NamedChild(i)))
	}
	return out
}

func (c *converter) callArguments(node *sitter.Node) []ast.Argument {
	if node == nil {
		return nil
	}
	if node.Kind() == "generator_expression" {
		return []ast.Argument{{Value: c.expression(node)}}
	}
	var out []ast.Argument
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "keyword_argument" {
			out = append(out, ast.Argument{
				Name:  c.text(child.ChildByFieldName("name")),
				Value: c.expression(child.ChildByFieldName("value")),
			})
			continue
		}
		out = append(out, ast.Argument{Value: c.expression(child)})
	}
	return out
}

func (c *converter) comprehensionClauses(node *sitter.Node) []ast.ComprehensionFor {
	var out []ast.ComprehensionFor
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "for_in_clause":
			out = append(out, ast.ComprehensionFor{
				Target:   c.expression(child.ChildByFieldName("left")),
				Iterator: c.expression(child.ChildByFieldName("right")),
				Async:    hasKeyword(child, "async"),
			})
		case "if_clause":
			if len(out) > 0 {
				last := &out[len(out)-1]
				last.Conditions = append(last.Conditions, c.expression(child.NamedChild(0)))
			}
		}
	}
	return out
}

// stringLiteral lowers string nodes. Plain strings collapse to their content;
// f-strings keep their raw body as a format substring for the later
// format-string expansion pass to scan.
func (c *converter) stringLiteral(node *sitter.Node, loc ast.Location) ast.Expr {
	prefix := ""
	var content strings.Builder
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_start":
			prefix = strings.ToLower(strings.TrimRight(c.text(child), "\"'"))
		case "string_content", "interpolation", "escape_sequence", "escape_interpolation":
			content.WriteString(c.text(child))
		}
	}
	value := content.String()
	if strings.Contains(prefix, "f") {
		contentLoc := loc
		if node.ChildCount() > 1 {
			contentLoc = c.location(node.Child(1))
		}
		return &ast.StringLiteral{
			Loc:   loc,
			Value: value,
			Kind:  ast.StringMixed,
			Substrings: []ast.Substring{
				{Loc: contentLoc, Kind: ast.SubstringFormat, Value: value},
			},
		}
	}
	return &ast.StringLiteral{Loc: loc, Value: value, Kind: ast.StringRaw}
}

func (c *converter) comparison(node *sitter.Node, loc ast.Location) ast.Expr {
	comparison := &ast.Comparison{Loc: loc}
	var operators []string
	var operands []*sitter.Node
	swallowIn := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			operands = append(operands, child)
			continue
		}
		switch text := child.Kind(); text {
		case "in":
			if swallowIn {
				swallowIn = false
				continue
			}
			operators = append(operators, text)
		case "==", "!=", "<", "<=", ">", ">=", "is":
			operators = append(operators, text)
		case "not":
			if len(operators) > 0 && operators[len(operators)-1] == "is" {
				operators[len(operators)-1] = "is not"
			} else {
				// "not in" arrives as separate tokens.
				operators = append(operators, "not in")
				swallowIn = true
			}
		}
	}
	if len(operands) == 0 {
		return &ast.Name{Loc: loc, ID: c.text(node)}
	}
	comparison.Left = c.expression(operands[0])
	for i, operand := range operands[1:] {
		operator := ast.CompareEquals
		if i < len(operators) {
			if mapped, ok := comparisonOperators[operators[i]]; ok {
				operator = mapped
			}
		}
		comparison.Comparisons = append(comparison.Comparisons, ast.ComparisonPair{
			Operator: operator,
			Right:    c.expression(operand),
		})
	}
	return comparison
}
