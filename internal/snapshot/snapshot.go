// Package snapshot builds and serves the point-in-time model of engine disk
// usage: resources, shared extents, and the dependency graph between them.
// A snapshot is immutable once built; refreshes produce a new one under the
// next generation.
package snapshot

import (
	"errors"
	"sort"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/example/docksweep/internal/engine"
)

// ErrInconsistentState means the listings contradict themselves (a dependency
// cycle). It fails the whole refresh; the previous snapshot stays in place.
var ErrInconsistentState = errors.New("inconsistent engine state")

// Resource is one deletable engine resource. SelfSize counts only bytes
// exclusively owned by this resource; bytes in content-addressed layers live
// in the snapshot's extent table and are referenced by digest.
type Resource struct {
	ID        string
	Kind      engine.Kind
	Name      string
	Detail    string
	SelfSize  int64
	TotalSize int64 // display size including shared bytes
	SharedSize int64
	Extents   []digest.Digest
	Labels    map[string]string
	Created   time.Time
	InUse     bool
}

// SharedExtent is a content-addressed segment referenced by one or more
// resources. Its size counts once toward total usage regardless of how many
// resources reference it.
type SharedExtent struct {
	Digest digest.Digest
	Size   int64
	Refs   []string // resource IDs, sorted
}

// Snapshot is the atomically fetched state of the engine's storage at one
// point in time.
type Snapshot struct {
	Generation  uint64
	TakenAt     time.Time
	System      engine.SystemInfo
	LayersSize  int64
	BuilderSize int64

	resources map[string]*Resource
	extents   map[digest.Digest]*SharedExtent
	byKind    map[engine.Kind][]*Resource
	graph     *Graph
}

// Resource returns the resource with the given ID, or nil.
func (s *Snapshot) Resource(id string) *Resource { return s.resources[id] }

// Kind returns resources of one kind in display order: images, volumes and
// build cache by size descending, containers by creation time descending
// (newest first), IDs as tiebreak.
func (s *Snapshot) Kind(kind engine.Kind) []*Resource { return s.byKind[kind] }

// Len returns the number of resources across all kinds.
func (s *Snapshot) Len() int { return len(s.resources) }

// Extent returns the shared extent for a digest, or nil.
func (s *Snapshot) Extent(d digest.Digest) *SharedExtent { return s.extents[d] }

// Graph returns the dependency graph over this snapshot's resources.
func (s *Snapshot) Graph() *Graph { return s.graph }

// TotalUsage is the deduplicated total: every self-owned byte plus every
// extent counted exactly once.
func (s *Snapshot) TotalUsage() int64 {
	var total int64
	for _, r := range s.resources {
		total += r.SelfSize
	}
	for _, e := range s.extents {
		total += e.Size
	}
	return total
}

// Reclaimable reports the bytes freed if every resource in ids were removed:
// their self-owned sizes plus each extent whose reference count would drop
// to zero. Unknown IDs are ignored.
func (s *Snapshot) Reclaimable(ids []string) int64 {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.resources[id] != nil {
			selected[id] = true
		}
	}

	var total int64
	seen := make(map[digest.Digest]bool)
	for id := range selected {
		r := s.resources[id]
		total += r.SelfSize
		for _, d := range r.Extents {
			if seen[d] {
				continue
			}
			seen[d] = true
			if s.extentFreedBy(d, selected) {
				total += s.extents[d].Size
			}
		}
	}
	return total
}

// ReclaimableNow reports the bytes freed by removing one resource given that
// everything in alsoRemoved is gone as well. Recomputed against current
// reference counts, never a proportional share: an extent counts only when
// this removal takes its last reference.
func (s *Snapshot) ReclaimableNow(id string, alsoRemoved map[string]bool) int64 {
	r := s.resources[id]
	if r == nil {
		return 0
	}
	total := r.SelfSize
	for _, d := range r.Extents {
		gone := true
		for _, ref := range s.extents[d].Refs {
			if ref != id && !alsoRemoved[ref] {
				gone = false
				break
			}
		}
		if gone {
			total += s.extents[d].Size
		}
	}
	return total
}

func (s *Snapshot) extentFreedBy(d digest.Digest, selected map[string]bool) bool {
	for _, ref := range s.extents[d].Refs {
		if !selected[ref] {
			return false
		}
	}
	return true
}

// OlderFirst orders resource IDs by ascending creation time, ID as tiebreak.
// Used as the stable deterministic order among otherwise unordered plan
// siblings.
func (s *Snapshot) OlderFirst(a, b string) bool {
	ra, rb := s.resources[a], s.resources[b]
	if ra == nil || rb == nil {
		return a < b
	}
	if !ra.Created.Equal(rb.Created) {
		return ra.Created.Before(rb.Created)
	}
	return a < b
}

func (s *Snapshot) sortKinds() {
	for kind, rs := range s.byKind {
		switch kind {
		case engine.KindContainer:
			sort.Slice(rs, func(i, j int) bool {
				if !rs[i].Created.Equal(rs[j].Created) {
					return rs[i].Created.After(rs[j].Created)
				}
				return rs[i].ID < rs[j].ID
			})
		default:
			sort.Slice(rs, func(i, j int) bool {
				if rs[i].TotalSize != rs[j].TotalSize {
					return rs[i].TotalSize > rs[j].TotalSize
				}
				return rs[i].ID < rs[j].ID
			})
		}
	}
}
