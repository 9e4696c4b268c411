package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/engine/enginetest"
)

const mb = int64(1 << 20)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newFake() *enginetest.Fake {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := enginetest.NewFake()
	f.Images = []engine.RawImage{
		{
			ID:      "sha256:imgI",
			Tags:    []string{"app:latest"},
			Created: base.Add(-48 * time.Hour),
			Size:    500 * mb,
			Layers: []engine.ExtentRef{
				{Digest: "sha256:layerA", Size: 400 * mb},
				{Digest: "sha256:layerE", Size: 100 * mb},
			},
		},
		{
			ID:      "sha256:imgJ",
			Tags:    []string{"base:1.0"},
			Created: base.Add(-72 * time.Hour),
			Size:    150 * mb,
			Layers: []engine.ExtentRef{
				{Digest: "sha256:layerE", Size: 100 * mb},
				{Digest: "sha256:layerB", Size: 50 * mb},
			},
		},
	}
	f.Containers = []engine.RawContainer{
		{
			ID:      "ctrC",
			Name:    "worker",
			ImageID: "sha256:imgI",
			Created: base.Add(-24 * time.Hour),
			SizeRw:  10 * mb,
			Volumes: []string{"volV"},
		},
	}
	f.Volumes = []engine.RawVolume{
		{Name: "volV", Created: base.Add(-36 * time.Hour), Size: 200 * mb, RefCount: 1},
	}
	return f
}

func TestSession_RefreshBumpsGeneration(t *testing.T) {
	s := New(newFake(), Options{Logger: quietLogger()})

	if s.Generation() != 0 || s.Snapshot() != nil {
		t.Fatal("fresh session must start empty at generation 0")
	}

	snap, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if s.Generation() != 1 || snap.Generation != 1 {
		t.Errorf("generation = %d/%d, want 1", s.Generation(), snap.Generation)
	}

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
}

func TestSession_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	f := newFake()
	s := New(f, Options{Logger: quietLogger()})

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	before := s.Snapshot()

	f.ListErr[engine.KindVolume] = engine.ErrEngineUnreachable
	if _, err := s.Refresh(context.Background()); !errors.Is(err, engine.ErrEngineUnreachable) {
		t.Fatalf("expected ErrEngineUnreachable, got %v", err)
	}

	if s.Snapshot() != before {
		t.Error("failed refresh must not replace the snapshot")
	}
	if s.Generation() != 1 {
		t.Errorf("generation = %d, want unchanged 1", s.Generation())
	}
}

func TestSession_PlanBeforeRefresh(t *testing.T) {
	s := New(newFake(), Options{Logger: quietLogger()})
	if _, err := s.BuildPlan([]string{"x"}, false); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSession_StalePlanDeletesNothing(t *testing.T) {
	f := newFake()
	s := New(f, Options{Logger: quietLogger()})

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	plan, err := s.BuildPlan([]string{"sha256:imgJ"}, false)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	// The snapshot moves on before the plan runs.
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := s.Execute(context.Background(), plan); !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if len(f.Removed) != 0 {
		t.Errorf("stale plan must not touch the engine, removed %v", f.Removed)
	}
}

func TestSession_ExecuteRemovesAndRefreshes(t *testing.T) {
	f := newFake()
	s := New(f, Options{Logger: quietLogger()})

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	plan, err := s.BuildPlan([]string{"sha256:imgJ"}, false)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}

	res, err := s.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Removed != 1 || res.BytesReclaimed != 50*mb {
		t.Errorf("result = removed %d, %d bytes; want 1, %d", res.Removed, res.BytesReclaimed, 50*mb)
	}

	// Execution refreshes automatically; J is gone from the new snapshot.
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2 after post-execution refresh", s.Generation())
	}
	if s.Snapshot().Resource("sha256:imgJ") != nil {
		t.Error("removed image still present in refreshed snapshot")
	}
}

func TestSession_PlanUsesProtectLabels(t *testing.T) {
	f := newFake()
	f.Images[1].Labels = map[string]string{"keep.me": "1"}
	s := New(f, Options{Logger: quietLogger(), ProtectLabels: []string{"keep.me"}})

	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	plan, err := s.BuildPlan([]string{"sha256:imgJ"}, false)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	if len(plan.Items) != 0 || len(plan.Skipped) != 1 {
		t.Errorf("protected image must be skipped, plan = %+v", plan)
	}
}
