// Package reclaim turns a user selection into an ordered deletion plan and
// executes it against the engine with per-item failure isolation.
package reclaim

import (
	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/snapshot"
)

// Skip reasons recorded at plan-build time.
const (
	ReasonInUse     = "in-use"
	ReasonProtected = "protected"
	ReasonMissing   = "missing"
	ReasonCancelled = "cancelled"
)

// Item is one planned deletion. Bytes is the reclaim credit for this item
// given its position in the plan: self-owned bytes plus every shared extent
// whose last reference disappears with it.
type Item struct {
	ID    string
	Kind  engine.Kind
	Name  string
	Bytes int64
}

// Skipped is a selected resource excluded from the plan.
type Skipped struct {
	ID     string
	Kind   engine.Kind
	Name   string
	Reason string
}

// Plan is an ordered deletion batch derived from one selection against one
// snapshot generation. Plans are ephemeral: built, executed once, discarded.
type Plan struct {
	Generation     uint64
	Items          []Item
	Skipped        []Skipped
	EstimatedBytes int64
}

// Options tunes plan building.
type Options struct {
	// Cascade pulls dependent resources into the plan transitively instead
	// of skipping selections that still have external dependents.
	Cascade bool
	// ProtectLabels lists label keys whose presence excludes a resource
	// from any plan.
	ProtectLabels []string
}

// BuildPlan orders the selection so every dependent precedes the resource it
// keeps alive. With cascade off, a selected resource whose dependents are not
// all selected is skipped as in-use; with cascade on, dependents join the
// plan transitively. The only error is an inconsistent dependency graph,
// which a well-formed snapshot has already ruled out.
func BuildPlan(s *snapshot.Snapshot, selection []string, opts Options) (*Plan, error) {
	plan := &Plan{Generation: s.Generation}
	graph := s.Graph()

	included := make(map[string]bool)
	skip := func(id, reason string) {
		sk := Skipped{ID: id, Reason: reason}
		if r := s.Resource(id); r != nil {
			sk.Kind = r.Kind
			sk.Name = r.Name
		}
		plan.Skipped = append(plan.Skipped, sk)
	}

	if opts.Cascade {
		// Transitive closure over dependents, depth-first.
		var visit func(id string)
		visit = func(id string) {
			if included[id] {
				return
			}
			included[id] = true
			for _, dep := range graph.Dependents(id) {
				visit(dep)
			}
		}
		for _, id := range selection {
			if s.Resource(id) == nil {
				skip(id, ReasonMissing)
				continue
			}
			visit(id)
		}
	} else {
		for _, id := range selection {
			if s.Resource(id) == nil {
				skip(id, ReasonMissing)
				continue
			}
			included[id] = true
		}
	}

	// Protected resources never enter a plan, cascade or not.
	for id := range included {
		if isProtected(s.Resource(id), opts.ProtectLabels) {
			delete(included, id)
			skip(id, ReasonProtected)
		}
	}

	// Dropping one resource can strand another that depended on its
	// removal, so re-check until stable.
	for changed := true; changed; {
		changed = false
		for id := range included {
			for _, dep := range graph.Dependents(id) {
				if !included[dep] {
					delete(included, id)
					skip(id, ReasonInUse)
					changed = true
					break
				}
			}
		}
	}

	ids := make([]string, 0, len(included))
	for id := range included {
		ids = append(ids, id)
	}
	ordered, err := graph.TopoOrder(ids, s.OlderFirst)
	if err != nil {
		return nil, err
	}

	// Reclaim credit per item, walking the plan in order so an extent is
	// credited exactly once, to the item that drops its last reference.
	removed := make(map[string]bool, len(ordered))
	for _, id := range ordered {
		r := s.Resource(id)
		bytes := s.ReclaimableNow(id, removed)
		removed[id] = true
		plan.Items = append(plan.Items, Item{ID: id, Kind: r.Kind, Name: r.Name, Bytes: bytes})
		plan.EstimatedBytes += bytes
	}
	return plan, nil
}

func isProtected(r *snapshot.Resource, labels []string) bool {
	if r == nil {
		return false
	}
	for _, key := range labels {
		if _, ok := r.Labels[key]; ok {
			return true
		}
	}
	return false
}
