// # internal/callgraph/scc.go
package callgraph

import (
	"sort"

	"pyfront/internal/shared/observability"
)

// Partition computes the strongly connected components of the call graph and
// returns the condensation ordered so no edge points from a later component
// to an earlier one: callers of a cycle appear before the cycle they call
// into. Tarjan runs over the reversed edge relation; components are emitted
// as they complete and members keep their discovery order.
func Partition(edges Edges) [][]string {
	var vertices []string
	index := make(map[string]int)
	add := func(name string) {
		if _, ok := index[name]; !ok {
			index[name] = len(vertices)
			vertices = append(vertices, name)
		}
	}
	// The edge relation is a map, so fix a deterministic vertex universe:
	// callers in sorted order, each followed by its callees in list order.
	for _, caller := range sortedCallers(edges) {
		add(caller)
		for _, callee := range edges[caller] {
			add(callee)
		}
	}

	reversed := make(map[int][]int, len(vertices))
	for _, caller := range sortedCallers(edges) {
		from := index[caller]
		for _, callee := range edges[caller] {
			reversed[index[callee]] = append(reversed[index[callee]], from)
		}
	}

	t := tarjan{
		graph:   reversed,
		order:   make([]int, len(vertices)),
		lowlink: make([]int, len(vertices)),
		onStack: make([]bool, len(vertices)),
	}
	for i := range t.order {
		t.order[i] = -1
	}
	for v := range vertices {
		if t.order[v] < 0 {
			t.strongConnect(v)
		}
	}

	out := make([][]string, len(t.components))
	for i, component := range t.components {
		names := make([]string, len(component))
		for j, v := range component {
			names[j] = vertices[v]
		}
		out[i] = names
	}
	observability.CallGraphComponents.Set(float64(len(out)))
	return out
}

func sortedCallers(edges Edges) []string {
	callers := make([]string, 0, len(edges))
	for caller := range edges {
		callers = append(callers, caller)
	}
	sort.Strings(callers)
	return callers
}

type tarjan struct {
	graph      map[int][]int
	counter    int
	order      []int
	lowlink    []int
	onStack    []bool
	stack      []int
	components [][]int
}

func (t *tarjan) strongConnect(v int) {
	t.order[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.graph[v] {
		if t.order[w] < 0 {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] && t.order[w] < t.lowlink[v] {
			t.lowlink[v] = t.order[w]
		}
	}

	if t.lowlink[v] != t.order[v] {
		return
	}
	var component []int
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}
	// The stack pops members in reverse discovery order.
	for i, j := 0, len(component)-1; i < j; i, j = i+1, j-1 {
		component[i], component[j] = component[j], component[i]
	}
	t.components = append(t.components, component)
}
