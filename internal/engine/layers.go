package engine

import (
	"strings"

	"github.com/docker/docker/api/types/image"
	"github.com/opencontainers/go-digest"
)

// layerize matches an image's rootfs diff IDs against its history to recover
// per-layer sizes. History is reported newest-first and includes metadata-only
// instructions that produced no layer; those are filtered out before pairing.
// Sizes that cannot be paired are folded into the topmost layer so the
// per-image total never drops bytes.
func layerize(diffIDs []string, history []image.HistoryResponseItem) []ExtentRef {
	if len(diffIDs) == 0 {
		return nil
	}

	sizes := make([]int64, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if h.Size == 0 && strings.Contains(h.CreatedBy, "#(nop)") {
			continue
		}
		sizes = append(sizes, h.Size)
	}

	out := make([]ExtentRef, len(diffIDs))
	for i, id := range diffIDs {
		out[i] = ExtentRef{Digest: digest.Digest(id)}
		if i < len(sizes) {
			out[i].Size = sizes[i]
		}
	}
	for i := len(diffIDs); i < len(sizes); i++ {
		out[len(out)-1].Size += sizes[i]
	}
	return out
}
