// # internal/ast/print.go
package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintExpr renders an expression back to surface-ish text. Used when a
// qualified annotation has to be re-embedded into a string literal and for
// diagnostics; not a full pretty-printer.
func PrintExpr(expression Expr) string {
	var b strings.Builder
	printExpr(&b, expression)
	return b.String()
}

func printExpr(b *strings.Builder, expression Expr) {
	switch e := expression.(type) {
	case nil:
	case *AccessExpr:
		if e.Base != nil {
			b.WriteByte('(')
			printExpr(b, e.Base)
			b.WriteByte(')')
		}
		for i, element := range e.Elements {
			switch element := element.(type) {
			case *Identifier:
				if i > 0 || e.Base != nil {
					b.WriteByte('.')
				}
				b.WriteString(element.Name)
			case *Call:
				b.WriteByte('(')
				for j, arg := range element.Arguments {
					if j > 0 {
						b.WriteString(", ")
					}
					if arg.Name != "" {
						b.WriteString(arg.Name)
						b.WriteString(" = ")
					}
					printExpr(b, arg.Value)
				}
				b.WriteByte(')')
			}
		}
	case *Name:
		b.WriteString(e.ID)
	case *Await:
		b.WriteString("await ")
		printExpr(b, e.Operand)
	case *BooleanOp:
		printExpr(b, e.Left)
		if e.Operator == BoolAnd {
			b.WriteString(" and ")
		} else {
			b.WriteString(" or ")
		}
		printExpr(b, e.Right)
	case *Comparison:
		printExpr(b, e.Left)
		for _, pair := range e.Comparisons {
			b.WriteString(comparisonText[pair.Operator])
			printExpr(b, pair.Right)
		}
	case *Dictionary:
		b.WriteByte('{')
		for i, entry := range e.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, entry.Key)
			b.WriteString(": ")
			printExpr(b, entry.Value)
		}
		b.WriteByte('}')
	case *DictComprehension:
		b.WriteByte('{')
		printExpr(b, e.Key)
		b.WriteString(": ")
		printExpr(b, e.Value)
		printGenerators(b, e.Generators)
		b.WriteByte('}')
	case *Comprehension:
		open, close := "(", ")"
		switch e.Kind {
		case ListComprehension:
			open, close = "[", "]"
		case SetComprehension:
			open, close = "{", "}"
		}
		b.WriteString(open)
		printExpr(b, e.Element)
		printGenerators(b, e.Generators)
		b.WriteString(close)
	case *Lambda:
		b.WriteString("lambda")
		for i, param := range e.Parameters {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(param.Name)
		}
		b.WriteString(": ")
		printExpr(b, e.Body)
	case *List:
		printItems(b, "[", e.Items, "]")
	case *Set:
		printItems(b, "{", e.Items, "}")
	case *Tuple:
		printItems(b, "(", e.Items, ")")
	case *Starred:
		if e.Kind == StarTwice {
			b.WriteString("**")
		} else {
			b.WriteByte('*')
		}
		printExpr(b, e.Operand)
	case *StringLiteral:
		b.WriteString(strconv.Quote(e.Value))
	case *Ternary:
		printExpr(b, e.Target)
		b.WriteString(" if ")
		printExpr(b, e.Test)
		b.WriteString(" else ")
		printExpr(b, e.Alternative)
	case *Unary:
		b.WriteString(unaryText[e.Operator])
		printExpr(b, e.Operand)
	case *Yield:
		b.WriteString("yield")
		if e.Value != nil {
			b.WriteByte(' ')
			printExpr(b, e.Value)
		}
	case *Integer:
		b.WriteString(strconv.FormatInt(e.Value, 10))
	case *Float:
		b.WriteString(strconv.FormatFloat(e.Value, 'g', -1, 64))
	case *Complex:
		fmt.Fprintf(b, "%g", e.Value)
	case *Boolean:
		if e.Value {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case *Ellipsis:
		b.WriteString("...")
	case *NoneLiteral:
		b.WriteString("None")
	}
}

var comparisonText = map[ComparisonOperator]string{
	CompareEquals:              " == ",
	CompareNotEquals:           " != ",
	CompareLessThan:            " < ",
	CompareLessThanOrEquals:    " <= ",
	CompareGreaterThan:         " > ",
	CompareGreaterThanOrEquals: " >= ",
	CompareIs:                  " is ",
	CompareIsNot:               " is not ",
	CompareIn:                  " in ",
	CompareNotIn:               " not in ",
}

var unaryText = map[UnaryOperator]string{
	UnaryNot:      "not ",
	UnaryNegative: "-",
	UnaryPositive: "+",
	UnaryInvert:   "~",
}

func printItems(b *strings.Builder, open string, items []Expr, close string) {
	b.WriteString(open)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		printExpr(b, item)
	}
	b.WriteString(close)
}

func printGenerators(b *strings.Builder, gens []ComprehensionFor) {
	for _, gen := range gens {
		b.WriteString(" for ")
		printExpr(b, gen.Target)
		b.WriteString(" in ")
		printExpr(b, gen.Iterator)
		for _, condition := range gen.Conditions {
			b.WriteString(" if ")
			printExpr(b, condition)
		}
	}
}
