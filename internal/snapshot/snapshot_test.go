package snapshot

import "testing"

func TestReclaimable_SingleImageExcludesSharedExtent(t *testing.T) {
	s := buildFixture(t)

	// Removing I alone frees its unique 400MB layer but not the layer
	// still referenced by J.
	if got := s.Reclaimable([]string{"sha256:imgI"}); got != 400*mb {
		t.Errorf("Reclaimable(I) = %d, want %d", got, 400*mb)
	}
}

func TestReclaimable_LastReferenceFreesExtent(t *testing.T) {
	s := buildFixture(t)

	want := (400 + 100 + 50) * mb
	if got := s.Reclaimable([]string{"sha256:imgI", "sha256:imgJ"}); got != want {
		t.Errorf("Reclaimable(I,J) = %d, want %d", got, want)
	}
}

func TestReclaimable_IgnoresUnknownIDs(t *testing.T) {
	s := buildFixture(t)
	if got := s.Reclaimable([]string{"no-such-resource"}); got != 0 {
		t.Errorf("Reclaimable(unknown) = %d, want 0", got)
	}
}

func TestReclaimableNow_GrowsWithSelection(t *testing.T) {
	s := buildFixture(t)

	alone := s.ReclaimableNow("sha256:imgI", nil)
	withJ := s.ReclaimableNow("sha256:imgI", map[string]bool{"sha256:imgJ": true})

	if alone != 400*mb {
		t.Errorf("ReclaimableNow(I) = %d, want %d", alone, 400*mb)
	}
	if withJ != 500*mb {
		t.Errorf("ReclaimableNow(I | J removed) = %d, want %d", withJ, 500*mb)
	}
	if withJ < alone {
		t.Error("removing more referents must never shrink reclaimable bytes")
	}
}

func TestReclaimableNow_NeverIncreasesForOthers(t *testing.T) {
	s := buildFixture(t)

	// Removing J only ever decreases or holds remaining reference counts,
	// so no other resource's standalone value may drop below its value
	// with J gone... and the value with J gone may only grow.
	for _, id := range []string{"sha256:imgI", "ctrC", "volV", "cacheK1"} {
		before := s.ReclaimableNow(id, nil)
		after := s.ReclaimableNow(id, map[string]bool{"sha256:imgJ": true})
		if after < before {
			t.Errorf("%s: reclaimable dropped from %d to %d after removing a referent", id, before, after)
		}
	}
}

func TestOlderFirst_StableOrder(t *testing.T) {
	s := buildFixture(t)

	// imgJ (72h old) predates imgI (48h old).
	if !s.OlderFirst("sha256:imgJ", "sha256:imgI") {
		t.Error("older resource should sort first")
	}
	if s.OlderFirst("sha256:imgI", "sha256:imgJ") {
		t.Error("ordering must be antisymmetric")
	}
}
