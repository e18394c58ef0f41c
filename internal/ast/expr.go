// # internal/ast/expr.go
package ast

// Node is anything with a source span.
type Node interface {
	Span() Location
}

// Expr is the expression sum. Calls are not a standalone variant: a call is an
// AccessExpr whose last element is a Call.
type Expr interface {
	Node
	exprNode()
}

// AccessElement is one step of an access chain: a plain identifier or a call.
type AccessElement interface {
	Node
	accessElement()
}

type Identifier struct {
	Loc  Location
	Name string
}

type Call struct {
	Loc       Location
	Arguments []Argument
}

type Argument struct {
	Name  string // empty for positional arguments
	Value Expr
}

// AccessExpr is an ordered chain of identifiers and calls. A non-nil Base makes
// it an expression access: an arbitrary expression followed by a trailing chain,
// e.g. (f()).g.
type AccessExpr struct {
	Loc      Location
	Base     Expr
	Elements []AccessElement
}

type Name struct {
	Loc Location
	ID  string
}

type Await struct {
	Loc     Location
	Operand Expr
}

type BooleanOperator int

const (
	BoolAnd BooleanOperator = iota
	BoolOr
)

type BooleanOp struct {
	Loc      Location
	Operator BooleanOperator
	Left     Expr
	Right    Expr
}

type ComparisonOperator int

const (
	CompareEquals ComparisonOperator = iota
	CompareNotEquals
	CompareLessThan
	CompareLessThanOrEquals
	CompareGreaterThan
	CompareGreaterThanOrEquals
	CompareIs
	CompareIsNot
	CompareIn
	CompareNotIn
)

type ComparisonPair struct {
	Operator ComparisonOperator
	Right    Expr
}

type Comparison struct {
	Loc         Location
	Left        Expr
	Comparisons []ComparisonPair
}

type DictEntry struct {
	Key   Expr
	Value Expr
}

type Dictionary struct {
	Loc     Location
	Entries []DictEntry
}

type ComprehensionFor struct {
	Target     Expr
	Iterator   Expr
	Conditions []Expr
	Async      bool
}

type DictComprehension struct {
	Loc        Location
	Key        Expr
	Value      Expr
	Generators []ComprehensionFor
}

type ComprehensionKind int

const (
	GeneratorComprehension ComprehensionKind = iota
	ListComprehension
	SetComprehension
)

type Comprehension struct {
	Loc        Location
	Kind       ComprehensionKind
	Element    Expr
	Generators []ComprehensionFor
}

type Parameter struct {
	Loc        Location
	Name       string // keeps any * or ** prefix
	Value      Expr   // default, may be nil
	Annotation Expr   // may be nil
}

type Lambda struct {
	Loc        Location
	Parameters []*Parameter
	Body       Expr
}

type List struct {
	Loc   Location
	Items []Expr
}

type Set struct {
	Loc   Location
	Items []Expr
}

type Tuple struct {
	Loc   Location
	Items []Expr
}

type StarKind int

const (
	StarOnce StarKind = iota
	StarTwice
)

type Starred struct {
	Loc     Location
	Kind    StarKind
	Operand Expr
}

type StringKind int

const (
	// StringRaw is a plain string literal.
	StringRaw StringKind = iota
	// StringFormat is an f-string whose substitutions have been parsed out.
	StringFormat
	// StringMixed is an f-string still holding its literal/format substrings.
	StringMixed
)

type SubstringKind int

const (
	SubstringLiteral SubstringKind = iota
	SubstringFormat
)

type Substring struct {
	Loc   Location
	Kind  SubstringKind
	Value string
}

type StringLiteral struct {
	Loc        Location
	Value      string
	Kind       StringKind
	Format     []Expr      // populated when Kind is StringFormat
	Substrings []Substring // populated when Kind is StringMixed
}

type Ternary struct {
	Loc         Location
	Target      Expr
	Test        Expr
	Alternative Expr
}

type UnaryOperator int

const (
	UnaryNot UnaryOperator = iota
	UnaryNegative
	UnaryPositive
	UnaryInvert
)

type Unary struct {
	Loc      Location
	Operator UnaryOperator
	Operand  Expr
}

// Yield is the expression form; YieldStmt/YieldFromStmt wrap it at statement level.
type Yield struct {
	Loc   Location
	Value Expr // may be nil
}

type Integer struct {
	Loc   Location
	Value int64
}

type Float struct {
	Loc   Location
	Value float64
}

type Complex struct {
	Loc   Location
	Value complex128
}

type Boolean struct {
	Loc   Location
	Value bool
}

type Ellipsis struct {
	Loc Location
}

type NoneLiteral struct {
	Loc Location
}

func (x *Identifier) Span() Location { return x.Loc }
func (x *Call) Span() Location       { return x.Loc }

func (*Identifier) accessElement() {}
func (*Call) accessElement()       {}

func (x *AccessExpr) Span() Location        { return x.Loc }
func (x *Name) Span() Location              { return x.Loc }
func (x *Await) Span() Location             { return x.Loc }
func (x *BooleanOp) Span() Location         { return x.Loc }
func (x *Comparison) Span() Location        { return x.Loc }
func (x *Dictionary) Span() Location        { return x.Loc }
func (x *DictComprehension) Span() Location { return x.Loc }
func (x *Comprehension) Span() Location     { return x.Loc }
func (x *Parameter) Span() Location         { return x.Loc }
func (x *Lambda) Span() Location            { return x.Loc }
func (x *List) Span() Location              { return x.Loc }
func (x *Set) Span() Location               { return x.Loc }
func (x *Tuple) Span() Location             { return x.Loc }
func (x *Starred) Span() Location           { return x.Loc }
func (x *StringLiteral) Span() Location     { return x.Loc }
func (x *Ternary) Span() Location           { return x.Loc }
func (x *Unary) Span() Location             { return x.Loc }
func (x *Yield) Span() Location             { return x.Loc }
func (x *Integer) Span() Location           { return x.Loc }
func (x *Float) Span() Location             { return x.Loc }
func (x *Complex) Span() Location           { return x.Loc }
func (x *Boolean) Span() Location           { return x.Loc }
func (x *Ellipsis) Span() Location          { return x.Loc }
func (x *NoneLiteral) Span() Location       { return x.Loc }

func (*AccessExpr) exprNode()        {}
func (*Name) exprNode()              {}
func (*Await) exprNode()             {}
func (*BooleanOp) exprNode()         {}
func (*Comparison) exprNode()        {}
func (*Dictionary) exprNode()        {}
func (*DictComprehension) exprNode() {}
func (*Comprehension) exprNode()     {}
func (*Lambda) exprNode()            {}
func (*List) exprNode()              {}
func (*Set) exprNode()               {}
func (*Tuple) exprNode()             {}
func (*Starred) exprNode()           {}
func (*StringLiteral) exprNode()     {}
func (*Ternary) exprNode()           {}
func (*Unary) exprNode()             {}
func (*Yield) exprNode()             {}
func (*Integer) exprNode()           {}
func (*Float) exprNode()             {}
func (*Complex) exprNode()           {}
func (*Boolean) exprNode()           {}
func (*Ellipsis) exprNode()          {}
func (*NoneLiteral) exprNode()       {}
