// Package session owns the current snapshot and serializes every operation
// against it: refresh, read, plan, execute. The generation counter is the
// sole staleness guard between operations; the engine itself remains the
// source of truth and may change underneath us at any time.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/reclaim"
	"github.com/example/docksweep/internal/snapshot"
)

var (
	// ErrStaleSnapshot means a plan was built against an outdated
	// generation. Nothing was deleted; the caller must re-plan.
	ErrStaleSnapshot = errors.New("stale snapshot")

	// ErrNoSnapshot means no refresh has succeeded yet.
	ErrNoSnapshot = errors.New("no snapshot available")
)

// Options configures a session.
type Options struct {
	Logger        *log.Logger
	ProtectLabels []string
	Force         bool
}

// Session mediates between the presentation layer and the engine.
type Session struct {
	client engine.Client
	logger *log.Logger
	opts   Options

	mu   sync.Mutex
	gen  uint64
	snap *snapshot.Snapshot
}

// New returns a session with no snapshot; call Refresh before reading.
func New(client engine.Client, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{
		client: client,
		logger: opts.Logger,
		opts:   opts,
	}
}

// Refresh fetches the four listings in parallel, aggregates them, and swaps
// in the new snapshot only if the whole pipeline succeeded. On failure the
// previous snapshot stays readable and the error is returned.
func (s *Session) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) (*snapshot.Snapshot, error) {
	start := time.Now()

	var (
		images     []engine.RawImage
		containers []engine.RawContainer
		volumes    []engine.RawVolume
		cache      []engine.RawBuildCache
		sys        *engine.SystemInfo
	)

	// The four listings are independent reads; any failure fails the whole
	// refresh (no partial join).
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		images, err = s.client.ListImages(gctx)
		return err
	})
	g.Go(func() (err error) {
		containers, err = s.client.ListContainers(gctx)
		return err
	})
	g.Go(func() (err error) {
		volumes, err = s.client.ListVolumes(gctx)
		return err
	})
	g.Go(func() (err error) {
		cache, err = s.client.ListBuildCache(gctx)
		return err
	})
	g.Go(func() (err error) {
		sys, err = s.client.Info(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("refresh failed, keeping previous snapshot", "generation", s.gen, "err", err)
		return nil, err
	}

	snap, err := snapshot.Build(s.gen+1, time.Now(), *sys, images, containers, volumes, cache)
	if err != nil {
		s.logger.Error("listings are inconsistent, keeping previous snapshot", "generation", s.gen, "err", err)
		return nil, err
	}

	s.gen++
	s.snap = snap
	s.logger.Debug("snapshot refreshed",
		"generation", s.gen,
		"resources", snap.Len(),
		"total_bytes", snap.TotalUsage(),
		"took", time.Since(start))
	return snap, nil
}

// Snapshot returns the last successfully fetched snapshot, or nil before the
// first refresh. The returned snapshot is immutable.
func (s *Session) Snapshot() *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Generation returns the current snapshot generation (0 before the first
// refresh).
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// BuildPlan derives an ordered deletion plan from a selection against the
// current snapshot.
func (s *Session) BuildPlan(selection []string, cascade bool) (*reclaim.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, ErrNoSnapshot
	}
	return reclaim.BuildPlan(s.snap, selection, reclaim.Options{
		Cascade:       cascade,
		ProtectLabels: s.opts.ProtectLabels,
	})
}

// Execute runs a plan, rejecting it outright with ErrStaleSnapshot when the
// snapshot has moved on since the plan was built (zero deletions in that
// case). A refresh is attempted after execution regardless of the outcome
// mix; its failure is logged, not fatal, and leaves the pre-execution
// snapshot in place.
func (s *Session) Execute(ctx context.Context, plan *reclaim.Plan) (*reclaim.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Generation != s.gen {
		return nil, ErrStaleSnapshot
	}

	res := reclaim.Execute(ctx, s.client, plan, s.opts.Force, s.logger)

	if _, err := s.refreshLocked(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("post-execution refresh failed", "err", err)
	}
	return res, nil
}

// Close releases the engine client.
func (s *Session) Close() error { return s.client.Close() }
