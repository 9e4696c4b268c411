// Package v1 is the stable JSON export schema for disk-usage snapshots.
// The df command writes it; the report command reads it back. Fields are
// additive only within a schema version.
package v1

import (
	"sort"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/snapshot"
)

// BuildFromSnapshot flattens a snapshot into the export schema.
func BuildFromSnapshot(s *snapshot.Snapshot, version, gitCommit, buildTime string) Report {
	sys := s.System

	var unused []string
	for _, kind := range engine.Kinds {
		for _, r := range s.Kind(kind) {
			if !r.InUse {
				unused = append(unused, r.ID)
			}
		}
	}

	seen := map[string]bool{}
	var extents []Extent
	for _, kind := range engine.Kinds {
		for _, r := range s.Kind(kind) {
			for _, d := range r.Extents {
				if seen[string(d)] {
					continue
				}
				seen[string(d)] = true
				ext := s.Extent(d)
				extents = append(extents, Extent{
					Digest: string(ext.Digest),
					Bytes:  ext.Size,
					Refs:   ext.Refs,
				})
			}
		}
	}
	sort.Slice(extents, func(i, j int) bool { return extents[i].Digest < extents[j].Digest })

	return Report{
		SchemaVersion: "1.0",
		Tool: Tool{
			Name:      "docksweep",
			Version:   version,
			GitCommit: gitCommit,
			BuildTime: buildTime,
		},
		Snapshot: Snapshot{
			Generation: s.Generation,
			TakenAt:    s.TakenAt.UTC(),
		},
		Engine: Engine{
			Version:         sys.Version,
			Name:            sys.Name,
			OperatingSystem: sys.OperatingSystem,
			KernelVersion:   sys.KernelVersion,
			Architecture:    sys.Architecture,
			DataRoot:        sys.RootDir,
			DiskUsedBytes:   sys.RootFSUsed,
			DiskTotalBytes:  sys.RootFSTotal,
		},
		Totals: Totals{
			TotalBytes:       s.TotalUsage(),
			LayersBytes:      s.LayersSize,
			BuilderBytes:     s.BuilderSize,
			ReclaimableBytes: s.Reclaimable(unused),
		},
		Images:     resources(s, engine.KindImage),
		Containers: resources(s, engine.KindContainer),
		Volumes:    resources(s, engine.KindVolume),
		BuildCache: resources(s, engine.KindBuildCache),
		Extents:    extents,
	}
}

func resources(s *snapshot.Snapshot, kind engine.Kind) []Resource {
	rs := s.Kind(kind)
	out := make([]Resource, 0, len(rs))
	for _, r := range rs {
		out = append(out, Resource{
			ID:               r.ID,
			Name:             r.Name,
			Detail:           r.Detail,
			SelfBytes:        r.SelfSize,
			TotalBytes:       r.TotalSize,
			SharedBytes:      r.SharedSize,
			CreatedAt:        r.Created.UTC(),
			InUse:            r.InUse,
			ReclaimableBytes: s.Reclaimable([]string{r.ID}),
		})
	}
	return out
}
