// # internal/environment/environment.go
package environment

import (
	"sync"

	"pyfront/internal/ast"
)

// Modules answers export lookups for wildcard-import expansion. A nil slice
// with ok=false means the module has not been indexed yet.
type Modules interface {
	Exports(qualifier string) ([]string, bool)
}

// Handles resolves compact source handles back to filenames.
type Handles interface {
	Get(handle string) (string, bool)
}

// ModuleTable is the in-process export table. It is populated during setup and
// frozen before analysis; readers take no locks after Freeze.
type ModuleTable struct {
	mu      sync.Mutex
	frozen  bool
	exports map[string][]string
}

func NewModuleTable() *ModuleTable {
	return &ModuleTable{exports: make(map[string][]string)}
}

func (t *ModuleTable) Add(qualifier string, exports []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		panic("module table is frozen")
	}
	t.exports[qualifier] = exports
}

func (t *ModuleTable) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

func (t *ModuleTable) Exports(qualifier string) ([]string, bool) {
	exports, ok := t.exports[qualifier]
	return exports, ok
}

// HandleTable maps handles to resolved paths, frozen after populate.
type HandleTable struct {
	mu     sync.Mutex
	frozen bool
	paths  map[string]string
}

func NewHandleTable() *HandleTable {
	return &HandleTable{paths: make(map[string]string)}
}

func (t *HandleTable) Add(handle, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		panic("handle table is frozen")
	}
	t.paths[handle] = path
}

func (t *HandleTable) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

func (t *HandleTable) Get(handle string) (string, bool) {
	path, ok := t.paths[handle]
	return path, ok
}

var _ ast.PathResolver = (*HandleTable)(nil)
