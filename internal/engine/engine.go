// Package engine adapts the container engine's management API into the
// normalized resource listings the rest of docksweep works with. The adapter
// is deliberately dumb: it lists, it deletes, and it classifies failures.
// Retry and ordering policy live with the callers.
package engine

import (
	"context"
	"time"

	"github.com/opencontainers/go-digest"
)

// Kind identifies the category of an engine resource.
type Kind string

const (
	KindImage      Kind = "image"
	KindContainer  Kind = "container"
	KindVolume     Kind = "volume"
	KindBuildCache Kind = "build-cache"
)

// Kinds lists all resource kinds in display order.
var Kinds = []Kind{KindImage, KindContainer, KindVolume, KindBuildCache}

// ExtentRef is a content-addressed storage segment (an image layer) together
// with its on-disk size. Segments with the same digest are stored once by the
// engine no matter how many resources reference them.
type ExtentRef struct {
	Digest digest.Digest
	Size   int64
}

// RawImage is one image as reported by the engine's disk-usage endpoint,
// enriched with its layer chain.
type RawImage struct {
	ID         string
	Tags       []string
	Created    time.Time
	Size       int64 // total bytes including shared layers
	SharedSize int64
	Containers int64 // number of containers using this image
	Labels     map[string]string
	Layers     []ExtentRef
}

// RawContainer is one container with its size and mount information.
type RawContainer struct {
	ID         string
	Name       string
	Command    string
	Image      string
	ImageID    string
	State      string
	Status     string
	Created    time.Time
	SizeRw     int64 // writable layer, exclusive to this container
	SizeRootFs int64
	Running    bool
	Volumes    []string // names of named volumes mounted by this container
	Labels     map[string]string
}

// RawVolume is one named volume with usage data.
type RawVolume struct {
	Name       string
	Mountpoint string
	Created    time.Time
	Size       int64
	RefCount   int64
	Labels     map[string]string
}

// RawBuildCache is one build-cache record.
type RawBuildCache struct {
	ID          string
	Parents     []string
	Type        string
	Description string
	InUse       bool
	Shared      bool
	Size        int64
	Created     time.Time
	LastUsed    *time.Time
	UsageCount  int
}

// SystemInfo is a small summary of the engine daemon and its storage root,
// shown on the dashboard's system view.
type SystemInfo struct {
	Version         string
	Name            string
	OperatingSystem string
	OSType          string
	KernelVersion   string
	Architecture    string
	Containers      int
	Images          int
	RootDir         string
	RootFSUsed      uint64
	RootFSTotal     uint64
}

// Client is the engine boundary. Listing calls return raw records or fail
// with ErrEngineUnreachable (daemon not reachable) or an *EngineError (the
// daemon rejected the call). Remove reports ErrInUse, ErrNotFound or an
// *EngineError; callers treat ErrNotFound as an idempotent success.
type Client interface {
	ListImages(ctx context.Context) ([]RawImage, error)
	ListContainers(ctx context.Context) ([]RawContainer, error)
	ListVolumes(ctx context.Context) ([]RawVolume, error)
	ListBuildCache(ctx context.Context) ([]RawBuildCache, error)
	Info(ctx context.Context) (*SystemInfo, error)
	Remove(ctx context.Context, kind Kind, id string, force bool) error
	Close() error
}
