// # internal/ast/access.go
package ast

import "strings"

// Reference is an access restricted to identifiers, used for declared names.
type Reference struct {
	Loc   Location
	Names []string
}

func NewReference(names ...string) Reference {
	return Reference{Names: names}
}

func (r Reference) Span() Location { return r.Loc }

// Key renders the dotted form, e.g. "test.Foo.bar".
func (r Reference) Key() string {
	return strings.Join(r.Names, ".")
}

func (r Reference) Empty() bool {
	return len(r.Names) == 0
}

// Extend returns a new reference with the given names appended.
func (r Reference) Extend(names ...string) Reference {
	combined := make([]string, 0, len(r.Names)+len(names))
	combined = append(combined, r.Names...)
	combined = append(combined, names...)
	return Reference{Loc: r.Loc, Names: combined}
}

// Last returns the final name, or "" for an empty reference.
func (r Reference) Last() string {
	if len(r.Names) == 0 {
		return ""
	}
	return r.Names[len(r.Names)-1]
}

// ToAccess converts the reference into an identifier-only access chain.
func (r Reference) ToAccess() *AccessExpr {
	elements := make([]AccessElement, 0, len(r.Names))
	for _, name := range r.Names {
		elements = append(elements, &Identifier{Loc: r.Loc, Name: name})
	}
	return &AccessExpr{Loc: r.Loc, Elements: elements}
}

// AsReference converts an identifier-only access back into a reference. The
// second result is false when the access has a base expression or any call.
func (a *AccessExpr) AsReference() (Reference, bool) {
	if a.Base != nil {
		return Reference{}, false
	}
	names := make([]string, 0, len(a.Elements))
	for _, element := range a.Elements {
		id, ok := element.(*Identifier)
		if !ok {
			return Reference{}, false
		}
		names = append(names, id.Name)
	}
	return Reference{Loc: a.Loc, Names: names}, true
}

// Key renders the chain with calls shown as "(...)", e.g. "a.foo.(...)". Used
// as the lookup key into alias maps and the type-resolution store.
func (a *AccessExpr) Key() string {
	var builder strings.Builder
	if a.Base != nil {
		builder.WriteString("(...)")
	}
	for i, element := range a.Elements {
		if i > 0 || a.Base != nil {
			builder.WriteByte('.')
		}
		switch element := element.(type) {
		case *Identifier:
			builder.WriteString(element.Name)
		case *Call:
			builder.WriteString("(...)")
		}
	}
	return builder.String()
}

// Head returns the first identifier of the chain, or nil when the chain starts
// with a base expression or a call.
func (a *AccessExpr) Head() *Identifier {
	if a.Base != nil || len(a.Elements) == 0 {
		return nil
	}
	id, _ := a.Elements[0].(*Identifier)
	return id
}

// IsCall reports whether the terminal element is a call.
func (a *AccessExpr) IsCall() bool {
	if len(a.Elements) == 0 {
		return false
	}
	_, ok := a.Elements[len(a.Elements)-1].(*Call)
	return ok
}

// SimpleAccess builds an identifier-only access from dotted names.
func SimpleAccess(loc Location, names ...string) *AccessExpr {
	return Reference{Loc: loc, Names: names}.ToAccess()
}

// SanitizeName strips the synthetic qualification wrappers injected during
// normalization, recovering the surface name: "$local_test$x" and
// "$parameter$x" both come back as "x".
func SanitizeName(name string) string {
	if !strings.HasPrefix(name, "$") {
		return name
	}
	if rest, ok := strings.CutPrefix(name, "$parameter$"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(name, "$target$"); ok {
		return rest
	}
	if strings.HasPrefix(name, "$local_") {
		if index := strings.Index(name[1:], "$"); index >= 0 {
			return name[index+2:]
		}
	}
	return name
}
