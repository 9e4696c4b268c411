package snapshot

import (
	"sort"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/example/docksweep/internal/engine"
)

// Build aggregates raw listings into a snapshot: the resource table, the
// shared-extent table keyed by content digest, and the dependency graph.
// It fails with ErrInconsistentState when the listings imply a dependency
// cycle; no partial snapshot is returned.
func Build(
	generation uint64,
	takenAt time.Time,
	sys engine.SystemInfo,
	images []engine.RawImage,
	containers []engine.RawContainer,
	volumes []engine.RawVolume,
	cache []engine.RawBuildCache,
) (*Snapshot, error) {
	s := &Snapshot{
		Generation: generation,
		TakenAt:    takenAt,
		System:     sys,
		resources:  make(map[string]*Resource),
		extents:    make(map[digest.Digest]*SharedExtent),
		byKind:     make(map[engine.Kind][]*Resource),
		graph:      newGraph(),
	}

	for _, img := range images {
		r := &Resource{
			ID:         img.ID,
			Kind:       engine.KindImage,
			Name:       imageName(img),
			Detail:     strings.Join(img.Tags, ","),
			TotalSize:  img.Size,
			SharedSize: img.SharedSize,
			Labels:     img.Labels,
			Created:    img.Created,
			InUse:      img.Containers > 0,
		}
		if len(img.Layers) == 0 {
			// Layer chain unknown: keep only the unshared portion
			// self-owned so shared bytes are never double counted.
			r.SelfSize = img.Size - img.SharedSize
			if r.SelfSize < 0 {
				r.SelfSize = 0
			}
		} else {
			// All image bytes live in layer extents.
			seen := make(map[digest.Digest]bool, len(img.Layers))
			for _, layer := range img.Layers {
				if seen[layer.Digest] {
					continue
				}
				seen[layer.Digest] = true
				r.Extents = append(r.Extents, layer.Digest)

				ext := s.extents[layer.Digest]
				if ext == nil {
					ext = &SharedExtent{Digest: layer.Digest, Size: layer.Size}
					s.extents[layer.Digest] = ext
				} else if layer.Size > ext.Size {
					ext.Size = layer.Size
				}
				ext.Refs = append(ext.Refs, r.ID)
			}
		}
		s.add(r)
	}

	type volRef struct{ container, volume string }
	var volRefs []volRef

	for _, ct := range containers {
		r := &Resource{
			ID:        ct.ID,
			Kind:      engine.KindContainer,
			Name:      ct.Name,
			Detail:    ct.Command,
			SelfSize:  ct.SizeRw,
			TotalSize: ct.SizeRootFs,
			Labels:    ct.Labels,
			Created:   ct.Created,
			InUse:     ct.Running,
		}
		s.add(r)

		if img := s.resources[ct.ImageID]; img != nil {
			s.graph.addEdge(ct.ID, img.ID)
			img.InUse = true
		}
		for _, name := range ct.Volumes {
			volRefs = append(volRefs, volRef{container: ct.ID, volume: name})
		}
	}

	for _, v := range volumes {
		s.add(&Resource{
			ID:        v.Name,
			Kind:      engine.KindVolume,
			Name:      v.Name,
			Detail:    v.Mountpoint,
			SelfSize:  v.Size,
			TotalSize: v.Size,
			Labels:    v.Labels,
			Created:   v.Created,
			InUse:     v.RefCount > 0,
		})
	}
	for _, ref := range volRefs {
		if vol := s.resources[ref.volume]; vol != nil && vol.Kind == engine.KindVolume {
			s.graph.addEdge(ref.container, ref.volume)
			vol.InUse = true
		}
	}

	for _, b := range cache {
		s.add(&Resource{
			ID:        b.ID,
			Kind:      engine.KindBuildCache,
			Name:      b.ID,
			Detail:    strings.TrimSpace(b.Type + " " + b.Description),
			SelfSize:  b.Size,
			TotalSize: b.Size,
			Created:   b.Created,
			InUse:     b.InUse,
		})
		s.BuilderSize += b.Size
	}
	for _, b := range cache {
		for _, parent := range b.Parents {
			if p := s.resources[parent]; p != nil && p.Kind == engine.KindBuildCache {
				s.graph.addEdge(b.ID, parent)
			}
		}
	}

	for d := range s.extents {
		sort.Strings(s.extents[d].Refs)
	}
	s.graph.normalize()

	ids := make([]string, 0, len(s.resources))
	for id := range s.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if err := s.graph.checkAcyclic(ids); err != nil {
		return nil, err
	}

	for _, r := range s.byKind[engine.KindImage] {
		s.LayersSize += r.SelfSize
	}
	for _, e := range s.extents {
		s.LayersSize += e.Size
	}

	s.sortKinds()
	return s, nil
}

func (s *Snapshot) add(r *Resource) {
	s.resources[r.ID] = r
	s.byKind[r.Kind] = append(s.byKind[r.Kind], r)
}

func imageName(img engine.RawImage) string {
	for _, tag := range img.Tags {
		if tag != "" && tag != "<none>:<none>" {
			return tag
		}
	}
	return ShortID(img.ID)
}

// ShortID trims a content-addressed ID down to the familiar 12-character
// display form.
func ShortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
