// # internal/preprocess/qualify.go
package preprocess

import (
	"strings"

	"pyfront/internal/ast"
	"pyfront/internal/scope"
)

// Qualify rewrites every name into its canonical form: fully qualified,
// $local_<qualifier>$<name>, $parameter$<name>, $target$<name>, or a built-in
// left alone. Each block is processed in two phases: explore registers forward
// aliases for the block's classes, defs, special-form bindings and globals;
// qualify then folds the scope left to right through the statements.
func Qualify(source *ast.Source, reparser Reparser) *ast.Source {
	q := &qualifier{source: source, reparser: reparser}
	root := scope.New(source.Qualifier)
	q.explore(root, source.Statements, false)
	statements := make([]ast.Stmt, 0, len(source.Statements))
	current := root
	for _, statement := range source.Statements {
		var rewritten ast.Stmt
		current, rewritten = q.statement(current, statement, false)
		statements = append(statements, rewritten)
	}
	return source.WithStatements(statements)
}

type qualifier struct {
	source   *ast.Source
	reparser Reparser
}

type exprOptions struct {
	qualifyStrings     bool
	suppressSynthetics bool
}

func localName(s *scope.Scope, name string) string {
	return "$local_" + strings.Join(s.Qualifier.Names, "?") + "$" + name
}

// binding returns the canonical access a name declared in this block rewrites
// to: a module or class attribute at toplevel and in class bodies, a synthetic
// local inside function bodies.
func binding(s *scope.Scope, name string, qualifyAssign bool) *ast.AccessExpr {
	if s.IsTopLevel || qualifyAssign {
		return s.Qualifier.Extend(ast.SanitizeName(name)).ToAccess()
	}
	return ast.SimpleAccess(ast.Location{}, localName(s, name))
}

// explore registers forward aliases for the block's direct declarations. It
// recurses into structural statements but never into nested defines or
// classes; those get their own explore when their body is qualified.
func (q *qualifier) explore(s *scope.Scope, statements []ast.Stmt, qualifyAssign bool) {
	for _, statement := range statements {
		switch statement := statement.(type) {
		case *ast.Class:
			name := ast.SanitizeName(statement.Name.Last())
			s.SetAlias(name, scope.Alias{
				Access:             binding(s, name, qualifyAssign),
				Qualifier:          s.Qualifier,
				IsForwardReference: true,
			})
		case *ast.Define:
			name := ast.SanitizeName(statement.Name.Last())
			s.SetAlias(name, scope.Alias{
				Access:             binding(s, name, qualifyAssign),
				Qualifier:          s.Qualifier,
				IsForwardReference: true,
			})
		case *ast.Assign:
			if !isSpecialForm(statement.Annotation) {
				continue
			}
			if name := targetName(statement.Target); name != "" {
				s.SetAlias(name, scope.Alias{
					Access:             binding(s, name, qualifyAssign),
					Qualifier:          s.Qualifier,
					IsForwardReference: true,
				})
			}
		case *ast.Global:
			for _, name := range statement.Names {
				s.Immutables[name] = true
				s.SetAlias(name, scope.Alias{
					Access:    q.source.Qualifier.Extend(name).ToAccess(),
					Qualifier: q.source.Qualifier,
				})
			}
		case *ast.If:
			q.explore(s, statement.Body, qualifyAssign)
			q.explore(s, statement.Orelse, qualifyAssign)
		case *ast.For:
			q.explore(s, statement.Body, qualifyAssign)
			q.explore(s, statement.Orelse, qualifyAssign)
		case *ast.While:
			q.explore(s, statement.Body, qualifyAssign)
			q.explore(s, statement.Orelse, qualifyAssign)
		case *ast.With:
			q.explore(s, statement.Body, qualifyAssign)
		case *ast.Try:
			q.explore(s, statement.Body, qualifyAssign)
			for _, handler := range statement.Handlers {
				q.explore(s, handler.Body, qualifyAssign)
			}
			q.explore(s, statement.Orelse, qualifyAssign)
			q.explore(s, statement.Finally, qualifyAssign)
		}
	}
}

func (q *qualifier) statements(s *scope.Scope, statements []ast.Stmt, qualifyAssign bool) (*scope.Scope, []ast.Stmt) {
	out := make([]ast.Stmt, 0, len(statements))
	for _, statement := range statements {
		var rewritten ast.Stmt
		s, rewritten = q.statement(s, statement, qualifyAssign)
		out = append(out, rewritten)
	}
	return s, out
}

func (q *qualifier) statement(s *scope.Scope, statement ast.Stmt, qualifyAssign bool) (*scope.Scope, ast.Stmt) {
	switch statement := statement.(type) {
	case *ast.Assign:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		n.Annotation = q.expression(s, statement.Annotation, exprOptions{qualifyStrings: true, suppressSynthetics: true})
		n.Target = q.target(s, statement.Target, qualifyAssign)
		if qualifyAssign {
			parent := s.Qualifier
			n.Parent = &parent
		}
		return s, &n

	case *ast.Assert:
		n := *statement
		n.Test = q.expression(s, statement.Test, exprOptions{})
		n.Message = q.expression(s, statement.Message, exprOptions{})
		return s, &n

	case *ast.Class:
		return s, q.class(s, statement, qualifyAssign)

	case *ast.Define:
		return s, q.define(s, statement, qualifyAssign)

	case *ast.Delete:
		n := *statement
		n.Targets = make([]ast.Expr, len(statement.Targets))
		for i, target := range statement.Targets {
			n.Targets[i] = q.expression(s, target, exprOptions{})
		}
		return s, &n

	case *ast.ExpressionStmt:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		return s, &n

	case *ast.For:
		n := *statement
		n.Iterator = q.expression(s, statement.Iterator, exprOptions{})
		n.Target = q.target(s, statement.Target, false)
		bodyScope := s.Copy()
		orelseScope := s.Copy()
		bodyScope, n.Body = q.statements(bodyScope, statement.Body, qualifyAssign)
		orelseScope, n.Orelse = q.statements(orelseScope, statement.Orelse, qualifyAssign)
		return scope.Join(bodyScope, orelseScope), &n

	case *ast.If:
		n := *statement
		n.Test = q.expression(s, statement.Test, exprOptions{})
		bodyScope := s.Copy()
		orelseScope := s.Copy()
		bodyScope, n.Body = q.statements(bodyScope, statement.Body, qualifyAssign)
		orelseScope, n.Orelse = q.statements(orelseScope, statement.Orelse, qualifyAssign)
		return scope.Join(bodyScope, orelseScope), &n

	case *ast.Import:
		q.installImportAliases(s, statement)
		return s, statement

	case *ast.Raise:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		return s, &n

	case *ast.Return:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		return s, &n

	case *ast.Try:
		n := *statement
		bodyScope := s.Copy()
		bodyScope, n.Body = q.statements(bodyScope, statement.Body, qualifyAssign)
		branchScopes := []*scope.Scope{bodyScope}
		n.Handlers = make([]ast.ExceptHandler, len(statement.Handlers))
		for i, handler := range statement.Handlers {
			handlerScope := s.Copy()
			h := handler
			h.Kind = q.expression(handlerScope, handler.Kind, exprOptions{})
			if handler.Name != "" && !strings.HasPrefix(handler.Name, "$target$") {
				renamed := "$target$" + handler.Name
				handlerScope.SetAlias(handler.Name, scope.Alias{
					Access:    ast.SimpleAccess(handler.Loc, renamed),
					Qualifier: handlerScope.Qualifier,
				})
				h.Name = renamed
			}
			handlerScope, h.Body = q.statements(handlerScope, handler.Body, qualifyAssign)
			n.Handlers[i] = h
			branchScopes = append(branchScopes, handlerScope)
		}
		orelseScope := bodyScope.Copy()
		orelseScope, n.Orelse = q.statements(orelseScope, statement.Orelse, qualifyAssign)
		finallyScope := s.Copy()
		finallyScope, n.Finally = q.statements(finallyScope, statement.Finally, qualifyAssign)
		branchScopes = append(branchScopes, orelseScope, finallyScope)
		return scope.Join(branchScopes...), &n

	case *ast.With:
		n := *statement
		n.Items = make([]ast.WithItem, len(statement.Items))
		for i, item := range statement.Items {
			w := item
			w.Value = q.expression(s, item.Value, exprOptions{})
			if item.Target != nil {
				w.Target = q.target(s, item.Target, false)
			}
			n.Items[i] = w
		}
		s, n.Body = q.statements(s, statement.Body, qualifyAssign)
		return s, &n

	case *ast.While:
		n := *statement
		n.Test = q.expression(s, statement.Test, exprOptions{})
		bodyScope := s.Copy()
		orelseScope := s.Copy()
		bodyScope, n.Body = q.statements(bodyScope, statement.Body, qualifyAssign)
		orelseScope, n.Orelse = q.statements(orelseScope, statement.Orelse, qualifyAssign)
		return scope.Join(bodyScope, orelseScope), &n

	case *ast.YieldStmt:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		return s, &n

	case *ast.YieldFromStmt:
		n := *statement
		n.Value = q.expression(s, statement.Value, exprOptions{})
		return s, &n

	default:
		// Global, Nonlocal, Pass, Break, Continue are handled by explore or
		// carry no names to rewrite.
		return s, statement
	}
}

// define qualifies a function: decorators against the enclosing scope with
// forward references honored, parameters into $parameter$ form, annotations
// with string qualification, and the body in a fresh child scope.
func (q *qualifier) define(s *scope.Scope, define *ast.Define, qualifyAssign bool) ast.Stmt {
	n := *define
	n.Decorators = q.decorators(s, define.Decorators)

	name := ast.SanitizeName(define.Name.Last())
	qualified := binding(s, name, qualifyAssign)
	if reference, ok := qualified.AsReference(); ok {
		n.Name = reference
	}
	if qualifyAssign {
		parent := s.Qualifier
		n.Parent = &parent
	}

	child := s.Copy()
	child.IsTopLevel = false
	child.UseForwardReferences = false
	child.Locals = make(map[string]bool)
	child.Qualifier = s.Qualifier.Extend(name)

	n.Parameters = make([]*ast.Parameter, len(define.Parameters))
	for i, parameter := range define.Parameters {
		p := *parameter
		stars, bare := splitStars(parameter.Name)
		bare = ast.SanitizeName(bare)
		renamed := "$parameter$" + bare
		p.Name = stars + renamed
		p.Annotation = q.expression(s, parameter.Annotation, exprOptions{qualifyStrings: true, suppressSynthetics: true})
		p.Value = q.expression(s, parameter.Value, exprOptions{})
		child.SetAlias(bare, scope.Alias{
			Access:    ast.SimpleAccess(parameter.Loc, renamed),
			Qualifier: child.Qualifier,
		})
		n.Parameters[i] = &p
	}
	n.ReturnAnnotation = q.expression(s, define.ReturnAnnotation, exprOptions{qualifyStrings: true, suppressSynthetics: true})

	q.explore(child, define.Body, false)
	_, n.Body = q.statements(child, define.Body, false)
	return &n
}

// class qualifies bases and decorators in the enclosing scope, then the body
// in a child scope where bare assignments promote to class attributes.
func (q *qualifier) class(s *scope.Scope, class *ast.Class, qualifyAssign bool) ast.Stmt {
	n := *class
	n.Decorators = q.decorators(s, class.Decorators)
	n.Bases = make([]ast.Argument, len(class.Bases))
	for i, base := range class.Bases {
		b := base
		b.Value = q.expression(s, base.Value, exprOptions{})
		n.Bases[i] = b
	}

	name := ast.SanitizeName(class.Name.Last())
	qualified := binding(s, name, qualifyAssign)
	if reference, ok := qualified.AsReference(); ok {
		n.Name = reference
	}

	child := s.Copy()
	child.IsTopLevel = false
	child.Qualifier = s.Qualifier.Extend(name)
	q.explore(child, class.Body, true)
	_, n.Body = q.statements(child, class.Body, true)
	return &n
}

// Decorators that only adjust binding semantics are left untouched.
func skipDecorator(expression ast.Expr) bool {
	access, ok := expression.(*ast.AccessExpr)
	if !ok {
		return false
	}
	reference, ok := access.AsReference()
	if !ok || len(reference.Names) == 0 {
		return false
	}
	switch last := reference.Last(); last {
	case "staticmethod", "classmethod", "property":
		return true
	default:
		return strings.HasSuffix(last, "getter") ||
			strings.HasSuffix(last, "setter") ||
			strings.HasSuffix(last, "deleter")
	}
}

func (q *qualifier) decorators(s *scope.Scope, decorators []ast.Expr) []ast.Expr {
	if decorators == nil {
		return nil
	}
	decoratorScope := s.Copy()
	decoratorScope.UseForwardReferences = true
	out := make([]ast.Expr, len(decorators))
	for i, decorator := range decorators {
		if skipDecorator(decorator) {
			out[i] = decorator
			continue
		}
		out[i] = q.expression(decoratorScope, decorator, exprOptions{})
	}
	return out
}

// installImportAliases records the rewrite rules an import introduces. The
// statement itself is kept verbatim; builtins imports install nothing.
func (q *qualifier) installImportAliases(s *scope.Scope, imp *ast.Import) {
	if imp.From != nil {
		from := imp.From.Key()
		if from == "builtins" || from == "future.builtins" {
			return
		}
		for _, entry := range imp.Imports {
			target := imp.From.Extend(entry.Name.Names...)
			name := entry.Name.Key()
			if entry.Alias != nil {
				name = entry.Alias.Key()
			}
			s.SetAlias(name, scope.Alias{Access: target.ToAccess(), Qualifier: s.Qualifier})
		}
		return
	}
	for _, entry := range imp.Imports {
		if entry.Alias == nil {
			// A plain "import m" stays resolvable through its dotted name.
			continue
		}
		s.SetAlias(entry.Alias.Key(), scope.Alias{Access: entry.Name.ToAccess(), Qualifier: s.Qualifier})
	}
}

// target binds assignment targets. Identifiers become locals (or class/module
// attributes under qualifyAssign / at toplevel) unless already qualified,
// already local, or declared global. Tuple and list patterns recurse.
func (q *qualifier) target(s *scope.Scope, target ast.Expr, qualifyAssign bool) ast.Expr {
	switch t := target.(type) {
	case *ast.Tuple:
		n := *t
		n.Items = make([]ast.Expr, len(t.Items))
		for i, item := range t.Items {
			n.Items[i] = q.target(s, item, qualifyAssign)
		}
		return &n
	case *ast.List:
		n := *t
		n.Items = make([]ast.Expr, len(t.Items))
		for i, item := range t.Items {
			n.Items[i] = q.target(s, item, qualifyAssign)
		}
		return &n
	case *ast.Starred:
		n := *t
		n.Operand = q.target(s, t.Operand, qualifyAssign)
		return &n
	case *ast.Name:
		return q.bindName(s, t.ID, t.Loc, qualifyAssign)
	case *ast.AccessExpr:
		if id := t.Head(); id != nil && len(t.Elements) == 1 {
			return q.bindName(s, id.Name, t.Loc, qualifyAssign)
		}
		// Attribute targets rewrite their head like any other access.
		return q.expression(s, t, exprOptions{})
	default:
		return q.expression(s, target, exprOptions{})
	}
}

func (q *qualifier) bindName(s *scope.Scope, name string, loc ast.Location, qualifyAssign bool) ast.Expr {
	if strings.HasPrefix(name, "$") {
		return ast.SimpleAccess(loc, name)
	}
	if s.Immutables[name] {
		if alias, ok := s.Lookup(name); ok {
			return cloneAccessAt(alias.Access, loc)
		}
		return ast.SimpleAccess(loc, name)
	}
	if alias, ok := s.Lookup(name); ok && !alias.IsForwardReference {
		head := alias.Access.Head()
		if head != nil && strings.HasPrefix(head.Name, "$local_") {
			// Rebinding an existing local keeps its synthetic name.
			return cloneAccessAt(alias.Access, loc)
		}
	}
	qualified := binding(s, name, qualifyAssign)
	s.SetAlias(name, scope.Alias{Access: qualified, Qualifier: s.Qualifier})
	if head := qualified.Head(); head != nil && strings.HasPrefix(head.Name, "$local_") {
		s.Locals[head.Name] = true
	}
	return cloneAccessAt(qualified, loc)
}

func cloneAccessAt(access *ast.AccessExpr, loc ast.Location) *ast.AccessExpr {
	elements := make([]ast.AccessElement, len(access.Elements))
	for i, element := range access.Elements {
		switch element := element.(type) {
		case *ast.Identifier:
			elements[i] = &ast.Identifier{Loc: loc, Name: element.Name}
		default:
			elements[i] = element
		}
	}
	return &ast.AccessExpr{Loc: loc, Base: access.Base, Elements: elements}
}

func splitStars(name string) (string, string) {
	if rest, ok := strings.CutPrefix(name, "**"); ok {
		return "**", rest
	}
	if rest, ok := strings.CutPrefix(name, "*"); ok {
		return "*", rest
	}
	return "", name
}

func isSpecialForm(annotation ast.Expr) bool {
	return accessMatches(annotation, "typing", "_SpecialForm") ||
		accessMatches(annotation, "_SpecialForm")
}

func targetName(target ast.Expr) string {
	switch t := target.(type) {
	case *ast.Name:
		return t.ID
	case *ast.AccessExpr:
		if id := t.Head(); id != nil && len(t.Elements) == 1 {
			return id.Name
		}
	}
	return ""
}
