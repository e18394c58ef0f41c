// # internal/scope/scope.go
package scope

import "pyfront/internal/ast"

// Alias is the canonical form a name rewrites to, and whether its binding is a
// forward declaration (class/def introduced later in the enclosing block).
type Alias struct {
	Access             *ast.AccessExpr
	Qualifier          ast.Reference
	IsForwardReference bool
}

// Scope is the lexical environment a qualification pass folds through one
// block. It is copied at block entry and joined at control-flow merges.
type Scope struct {
	Qualifier            ast.Reference
	Aliases              map[string]Alias
	Immutables           map[string]bool
	Locals               map[string]bool
	UseForwardReferences bool
	IsTopLevel           bool
	Skip                 map[ast.Location]bool
}

func New(qualifier ast.Reference) *Scope {
	return &Scope{
		Qualifier:            qualifier,
		Aliases:              make(map[string]Alias),
		Immutables:           make(map[string]bool),
		Locals:               make(map[string]bool),
		UseForwardReferences: true,
		IsTopLevel:           true,
		Skip:                 make(map[ast.Location]bool),
	}
}

// Copy returns an independent scope; mutations in a branch do not leak back.
func (s *Scope) Copy() *Scope {
	out := &Scope{
		Qualifier:            s.Qualifier,
		Aliases:              make(map[string]Alias, len(s.Aliases)),
		Immutables:           make(map[string]bool, len(s.Immutables)),
		Locals:               make(map[string]bool, len(s.Locals)),
		UseForwardReferences: s.UseForwardReferences,
		IsTopLevel:           s.IsTopLevel,
		Skip:                 make(map[ast.Location]bool, len(s.Skip)),
	}
	for k, v := range s.Aliases {
		out.Aliases[k] = v
	}
	for k := range s.Immutables {
		out.Immutables[k] = true
	}
	for k := range s.Locals {
		out.Locals[k] = true
	}
	for k := range s.Skip {
		out.Skip[k] = true
	}
	return out
}

// SetAlias installs or replaces the rewrite rule for name.
func (s *Scope) SetAlias(name string, alias Alias) {
	s.Aliases[name] = alias
}

func (s *Scope) Lookup(name string) (Alias, bool) {
	alias, ok := s.Aliases[name]
	return alias, ok
}

// Join merges branch scopes after control flow splits. Each branch started as
// a copy of the pre-branch scope; aliases and locals are unioned and on alias
// collision the earliest branch wins.
func Join(branches ...*Scope) *Scope {
	out := branches[0].Copy()
	for _, branch := range branches[1:] {
		if branch == nil {
			continue
		}
		for name, alias := range branch.Aliases {
			if _, exists := out.Aliases[name]; !exists {
				out.Aliases[name] = alias
			}
		}
		for name := range branch.Locals {
			out.Locals[name] = true
		}
		for name := range branch.Immutables {
			out.Immutables[name] = true
		}
		for loc := range branch.Skip {
			out.Skip[loc] = true
		}
	}
	return out
}
