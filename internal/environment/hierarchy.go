// # internal/environment/hierarchy.go
package environment

import (
	"sync"

	"pyfront/internal/ast"
)

// ClassHierarchy records, per fully qualified class name, its direct
// subclasses and the methods it defines. Subclass lists keep registration
// order so override enumeration is deterministic.
type ClassHierarchy struct {
	mu         sync.Mutex
	frozen     bool
	subclasses map[string][]string
	methods    map[string]map[string]bool
}

func NewClassHierarchy() *ClassHierarchy {
	return &ClassHierarchy{
		subclasses: make(map[string][]string),
		methods:    make(map[string]map[string]bool),
	}
}

func (h *ClassHierarchy) AddClass(name string, bases []string, methods []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.frozen {
		panic("class hierarchy is frozen")
	}
	for _, base := range bases {
		present := false
		for _, existing := range h.subclasses[base] {
			if existing == name {
				present = true
				break
			}
		}
		if !present {
			h.subclasses[base] = append(h.subclasses[base], name)
		}
	}
	set, ok := h.methods[name]
	if !ok {
		set = make(map[string]bool)
		h.methods[name] = set
	}
	for _, method := range methods {
		set[method] = true
	}
}

func (h *ClassHierarchy) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = true
}

// Subclasses returns the direct subclasses of the class, in registration order.
func (h *ClassHierarchy) Subclasses(name string) []string {
	return h.subclasses[name]
}

// DefinesMethod reports whether the class itself declares the method.
func (h *ClassHierarchy) DefinesMethod(class, method string) bool {
	return h.methods[class][method]
}

// Environment bundles the read-only collaborator tables the analysis phases
// consult. All tables follow the freeze-after-populate discipline.
type Environment struct {
	Modules     *ModuleTable
	Handles     *HandleTable
	Resolutions *ResolutionStore
	Hierarchy   *ClassHierarchy
}

func New() *Environment {
	return &Environment{
		Modules:     NewModuleTable(),
		Handles:     NewHandleTable(),
		Resolutions: NewResolutionStore(),
		Hierarchy:   NewClassHierarchy(),
	}
}

// Populate registers the class hierarchy of normalized sources. The type
// checker fills the resolution store separately before call graphs are built.
func Populate(env *Environment, sources []*ast.Source) {
	for _, source := range sources {
		for node := range ast.Collect(source, isClass, nil) {
			class := node.(*ast.Class)
			var bases []string
			for _, base := range class.Bases {
				if base.Name != "" {
					continue // keyword arguments like metaclass=
				}
				if access, ok := base.Value.(*ast.AccessExpr); ok {
					if reference, ok := access.AsReference(); ok {
						bases = append(bases, reference.Key())
					}
				}
			}
			var methods []string
			for _, statement := range class.Body {
				if define, ok := statement.(*ast.Define); ok {
					methods = append(methods, ast.SanitizeName(define.Name.Last()))
				}
			}
			env.Hierarchy.AddClass(class.Name.Key(), bases, methods)
		}
	}
}

func isClass(n ast.Node) bool {
	_, ok := n.(*ast.Class)
	return ok
}
