package reclaim

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/example/docksweep/internal/engine"
)

// Status is the terminal state of one plan item. There are no retries within
// a single execution; a retry is a new user-initiated plan.
type Status string

const (
	StatusRemoved Status = "removed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ItemResult is the outcome for one plan item.
type ItemResult struct {
	ID     string
	Kind   engine.Kind
	Name   string
	Status Status
	Reason string // skip reason or failure message
	Bytes  int64  // reclaimed bytes credited when removed
}

// Result summarizes one executed plan.
type Result struct {
	Items          []ItemResult
	Removed        int
	Failed         int
	Skipped        int
	BytesReclaimed int64
}

// Deleter is the slice of the engine client execution needs.
type Deleter interface {
	Remove(ctx context.Context, kind engine.Kind, id string, force bool) error
}

// Execute runs the plan in order. Every item's failure is isolated: in-use
// and engine errors are recorded and the batch continues. A resource that is
// already gone counts as removed. Cancellation takes effect at the next item
// boundary; items not attempted are recorded as skipped.
func Execute(ctx context.Context, d Deleter, plan *Plan, force bool, logger *log.Logger) *Result {
	if logger == nil {
		logger = log.Default()
	}
	res := &Result{}

	for _, sk := range plan.Skipped {
		res.Items = append(res.Items, ItemResult{
			ID: sk.ID, Kind: sk.Kind, Name: sk.Name,
			Status: StatusSkipped, Reason: sk.Reason,
		})
		res.Skipped++
	}

	cancelled := false
	for _, item := range plan.Items {
		if cancelled || ctx.Err() != nil {
			cancelled = true
			res.Items = append(res.Items, ItemResult{
				ID: item.ID, Kind: item.Kind, Name: item.Name,
				Status: StatusSkipped, Reason: ReasonCancelled,
			})
			res.Skipped++
			continue
		}

		err := d.Remove(ctx, item.Kind, item.ID, force)
		switch {
		case err == nil || errors.Is(err, engine.ErrNotFound):
			if err != nil {
				logger.Debug("already gone, counting as removed", "kind", item.Kind, "id", item.ID)
			} else {
				logger.Info("removed", "kind", item.Kind, "id", item.ID, "bytes", item.Bytes)
			}
			res.Items = append(res.Items, ItemResult{
				ID: item.ID, Kind: item.Kind, Name: item.Name,
				Status: StatusRemoved, Bytes: item.Bytes,
			})
			res.Removed++
			res.BytesReclaimed += item.Bytes
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			cancelled = true
			res.Items = append(res.Items, ItemResult{
				ID: item.ID, Kind: item.Kind, Name: item.Name,
				Status: StatusSkipped, Reason: ReasonCancelled,
			})
			res.Skipped++
		default:
			logger.Warn("removal failed", "kind", item.Kind, "id", item.ID, "err", err)
			res.Items = append(res.Items, ItemResult{
				ID: item.ID, Kind: item.Kind, Name: item.Name,
				Status: StatusFailed, Reason: err.Error(),
			})
			res.Failed++
		}
	}
	return res
}
