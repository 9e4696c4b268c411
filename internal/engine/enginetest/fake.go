// Package enginetest provides an in-memory engine.Client for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/docksweep/internal/engine"
)

// Fake is an engine.Client over fixture data. Listing errors can be injected
// per kind, and Remove outcomes per resource ID.
type Fake struct {
	mu sync.Mutex

	Images     []engine.RawImage
	Containers []engine.RawContainer
	Volumes    []engine.RawVolume
	BuildCache []engine.RawBuildCache
	System     engine.SystemInfo

	// ListErr, when set for a kind, fails that listing call.
	ListErr map[engine.Kind]error
	// RemoveErr, when set for an ID, fails (or classifies) that deletion.
	RemoveErr map[string]error

	// Removed records every Remove call in order.
	Removed []string
}

// NewFake returns an empty fake engine.
func NewFake() *Fake {
	return &Fake{
		ListErr:   map[engine.Kind]error{},
		RemoveErr: map[string]error{},
	}
}

func (f *Fake) ListImages(ctx context.Context) ([]engine.RawImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ListErr[engine.KindImage]; err != nil {
		return nil, err
	}
	return append([]engine.RawImage(nil), f.Images...), nil
}

func (f *Fake) ListContainers(ctx context.Context) ([]engine.RawContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ListErr[engine.KindContainer]; err != nil {
		return nil, err
	}
	return append([]engine.RawContainer(nil), f.Containers...), nil
}

func (f *Fake) ListVolumes(ctx context.Context) ([]engine.RawVolume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ListErr[engine.KindVolume]; err != nil {
		return nil, err
	}
	return append([]engine.RawVolume(nil), f.Volumes...), nil
}

func (f *Fake) ListBuildCache(ctx context.Context) ([]engine.RawBuildCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ListErr[engine.KindBuildCache]; err != nil {
		return nil, err
	}
	return append([]engine.RawBuildCache(nil), f.BuildCache...), nil
}

func (f *Fake) Info(ctx context.Context) (*engine.SystemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sys := f.System
	return &sys, nil
}

func (f *Fake) Remove(ctx context.Context, kind engine.Kind, id string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Removed = append(f.Removed, id)
	if err := f.RemoveErr[id]; err != nil {
		return err
	}
	if !f.drop(kind, id) {
		return fmt.Errorf("%w: %s %s", engine.ErrNotFound, kind, id)
	}
	return nil
}

func (f *Fake) drop(kind engine.Kind, id string) bool {
	switch kind {
	case engine.KindImage:
		for i, r := range f.Images {
			if r.ID == id {
				f.Images = append(f.Images[:i], f.Images[i+1:]...)
				return true
			}
		}
	case engine.KindContainer:
		for i, r := range f.Containers {
			if r.ID == id {
				f.Containers = append(f.Containers[:i], f.Containers[i+1:]...)
				return true
			}
		}
	case engine.KindVolume:
		for i, r := range f.Volumes {
			if r.Name == id {
				f.Volumes = append(f.Volumes[:i], f.Volumes[i+1:]...)
				return true
			}
		}
	case engine.KindBuildCache:
		for i, r := range f.BuildCache {
			if r.ID == id {
				f.BuildCache = append(f.BuildCache[:i], f.BuildCache[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (f *Fake) Close() error { return nil }
