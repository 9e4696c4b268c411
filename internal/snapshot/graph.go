package snapshot

import (
	"fmt"
	"sort"
)

// Graph records which resources must be removed before which others. An edge
// (dependent, target) means dependent keeps target alive: a container and
// the image it was created from, a container and a volume it mounts, a
// build-cache record and its parent record. Edges are plain ID pairs; kinds
// do not matter to the graph.
type Graph struct {
	dependents map[string][]string // target -> resources that must go first
	requires   map[string][]string // dependent -> targets it keeps alive
}

func newGraph() *Graph {
	return &Graph{
		dependents: make(map[string][]string),
		requires:   make(map[string][]string),
	}
}

func (g *Graph) addEdge(dependent, target string) {
	g.dependents[target] = append(g.dependents[target], dependent)
	g.requires[dependent] = append(g.requires[dependent], target)
}

func (g *Graph) normalize() {
	for _, m := range []map[string][]string{g.dependents, g.requires} {
		for k, ids := range m {
			sort.Strings(ids)
			m[k] = dedupe(ids)
		}
	}
}

// Dependents returns the resources that must be removed or absent before id
// can be removed.
func (g *Graph) Dependents(id string) []string {
	return append([]string(nil), g.dependents[id]...)
}

// Requires returns the resources id keeps alive (the inverse of Dependents).
func (g *Graph) Requires(id string) []string {
	return append([]string(nil), g.requires[id]...)
}

// TopoOrder orders ids so that every dependent precedes the resources it
// keeps alive. Among simultaneously ready nodes, less breaks ties
// deterministically. A cycle within ids yields ErrInconsistentState.
func (g *Graph) TopoOrder(ids []string, less func(a, b string) bool) ([]string, error) {
	inSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}

	// A node is ready once all its in-set dependents have been emitted.
	pending := make(map[string]int, len(ids))
	for _, id := range ids {
		n := 0
		for _, dep := range g.dependents[id] {
			if inSet[dep] {
				n++
			}
		}
		pending[id] = n
	}

	var ready []string
	for _, id := range ids {
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(ids))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)

		for _, target := range g.requires[id] {
			if !inSet[target] {
				continue
			}
			pending[target]--
			if pending[target] == 0 {
				ready = append(ready, target)
			}
		}
	}

	if len(out) != len(ids) {
		return nil, fmt.Errorf("%w: dependency cycle among %d resource(s)", ErrInconsistentState, len(ids)-len(out))
	}
	return out, nil
}

// checkAcyclic verifies the whole graph is a DAG.
func (g *Graph) checkAcyclic(ids []string) error {
	_, err := g.TopoOrder(ids, func(a, b string) bool { return a < b })
	return err
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, id := range sorted {
		if i == 0 || sorted[i-1] != id {
			out = append(out, id)
		}
	}
	return out
}
