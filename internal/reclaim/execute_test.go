package reclaim

import (
	"context"
	"testing"

	"github.com/example/docksweep/internal/engine"
)

type fakeDeleter struct {
	calls  []string
	errs   map[string]error
	cancel context.CancelFunc // when set, fired after the first call
}

func (f *fakeDeleter) Remove(ctx context.Context, kind engine.Kind, id string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls = append(f.calls, id)
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	return f.errs[id]
}

func twoItemPlan() *Plan {
	return &Plan{
		Generation: 1,
		Items: []Item{
			{ID: "ctrC", Kind: engine.KindContainer, Name: "worker", Bytes: 10 * mb},
			{ID: "sha256:imgI", Kind: engine.KindImage, Name: "app:latest", Bytes: 400 * mb},
		},
		EstimatedBytes: 410 * mb,
	}
}

func TestExecute_RemovesInPlanOrder(t *testing.T) {
	d := &fakeDeleter{}
	res := Execute(context.Background(), d, twoItemPlan(), false, nil)

	if len(d.calls) != 2 || d.calls[0] != "ctrC" || d.calls[1] != "sha256:imgI" {
		t.Errorf("calls = %v, want [ctrC sha256:imgI]", d.calls)
	}
	if res.Removed != 2 || res.Failed != 0 || res.Skipped != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/0/0", res.Removed, res.Failed, res.Skipped)
	}
	if res.BytesReclaimed != 410*mb {
		t.Errorf("BytesReclaimed = %d, want %d", res.BytesReclaimed, 410*mb)
	}
}

func TestExecute_FailureIsIsolated(t *testing.T) {
	d := &fakeDeleter{errs: map[string]error{"ctrC": engine.ErrInUse}}
	res := Execute(context.Background(), d, twoItemPlan(), false, nil)

	if len(d.calls) != 2 {
		t.Errorf("batch must continue past a failed item, calls = %v", d.calls)
	}
	if res.Failed != 1 || res.Removed != 1 {
		t.Errorf("counts = removed %d failed %d, want 1/1", res.Removed, res.Failed)
	}
	if res.BytesReclaimed != 400*mb {
		t.Errorf("BytesReclaimed = %d, want only the removed item's credit", res.BytesReclaimed)
	}
	if res.Items[0].Status != StatusFailed || res.Items[0].Reason == "" {
		t.Errorf("failed item = %+v, want status failed with a reason", res.Items[0])
	}
}

func TestExecute_AlreadyGoneCountsAsRemoved(t *testing.T) {
	d := &fakeDeleter{errs: map[string]error{"ctrC": engine.ErrNotFound}}
	res := Execute(context.Background(), d, twoItemPlan(), false, nil)

	if res.Removed != 2 || res.Failed != 0 {
		t.Errorf("counts = removed %d failed %d, want 2/0", res.Removed, res.Failed)
	}
	if res.BytesReclaimed != 410*mb {
		t.Errorf("BytesReclaimed = %d, want full credit", res.BytesReclaimed)
	}
}

func TestExecute_CancellationStopsAtItemBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDeleter{cancel: cancel}
	res := Execute(ctx, d, twoItemPlan(), false, nil)

	if len(d.calls) != 1 {
		t.Errorf("no further removals after cancellation, calls = %v", d.calls)
	}
	if res.Removed != 1 || res.Skipped != 1 {
		t.Errorf("counts = removed %d skipped %d, want 1/1", res.Removed, res.Skipped)
	}
	if res.Items[1].Status != StatusSkipped || res.Items[1].Reason != ReasonCancelled {
		t.Errorf("unattempted item = %+v, want skipped:cancelled", res.Items[1])
	}
}

func TestExecute_PlanSkipsCarryIntoResult(t *testing.T) {
	plan := twoItemPlan()
	plan.Skipped = []Skipped{{ID: "volV", Kind: engine.KindVolume, Reason: ReasonInUse}}

	d := &fakeDeleter{}
	res := Execute(context.Background(), d, plan, false, nil)

	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want the plan-time skip reported", res.Skipped)
	}
	if res.Items[0].ID != "volV" || res.Items[0].Reason != ReasonInUse {
		t.Errorf("first result = %+v, want the plan-time skip", res.Items[0])
	}
	for _, id := range d.calls {
		if id == "volV" {
			t.Error("skipped resource must not be attempted")
		}
	}
}
