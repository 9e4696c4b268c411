package tui

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/engine/enginetest"
	"github.com/example/docksweep/internal/session"
)

const mb = int64(1 << 20)

func newModel(t *testing.T) Model {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := enginetest.NewFake()
	f.Images = []engine.RawImage{
		{ID: "sha256:imgI", Tags: []string{"app:latest"}, Created: base.Add(-48 * time.Hour), Size: 500 * mb,
			Layers: []engine.ExtentRef{{Digest: "sha256:layerA", Size: 500 * mb}}},
		{ID: "sha256:imgJ", Tags: []string{"base:1.0"}, Created: base.Add(-72 * time.Hour), Size: 150 * mb,
			Layers: []engine.ExtentRef{{Digest: "sha256:layerB", Size: 150 * mb}}},
	}
	f.Volumes = []engine.RawVolume{
		{Name: "volV", Created: base, Size: 200 * mb},
	}

	sess := session.New(f, session.Options{Logger: log.New(io.Discard)})
	m := New(sess, false, log.New(io.Discard))

	// Simulate the Init refresh and a sized terminal.
	msg := m.refreshCmd()()
	next, _ := m.Update(msg)
	next, _ = next.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestModel_TabCyclesViews(t *testing.T) {
	m := newModel(t)

	if m.view != viewSystem {
		t.Fatalf("initial view = %d, want system", m.view)
	}
	m = press(t, m, "tab")
	if m.view != viewImages {
		t.Errorf("view after tab = %d, want images", m.view)
	}
	for i := 0; i < int(viewCount)-1; i++ {
		m = press(t, m, "tab")
	}
	if m.view != viewSystem {
		t.Errorf("tab should wrap back to system, got %d", m.view)
	}
}

func TestModel_CursorStaysInBounds(t *testing.T) {
	m := press(t, newModel(t), "tab") // images: two rows

	m = press(t, m, "j", "j", "j", "j")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want clamped to 1", m.cursor)
	}
	m = press(t, m, "k", "k", "k")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.cursor)
	}
}

func TestModel_SpaceTogglesSelection(t *testing.T) {
	m := press(t, newModel(t), "tab")

	m = press(t, m, " ")
	if !m.selected["sha256:imgI"] {
		t.Fatalf("selected = %v, want imgI (largest first)", m.selected)
	}
	// The cursor advances on select; move back up to toggle off.
	m = press(t, m, "k", " ")
	if len(m.selected) != 0 {
		t.Errorf("selected = %v, want empty after toggle", m.selected)
	}
}

func TestModel_DeleteOpensConfirmWithPlan(t *testing.T) {
	m := press(t, newModel(t), "tab", " ", "d")

	if m.mode != modeConfirm {
		t.Fatalf("mode = %d, want confirm", m.mode)
	}
	if m.plan == nil || len(m.plan.Items) != 1 || m.plan.Items[0].ID != "sha256:imgI" {
		t.Fatalf("plan = %+v, want single item imgI", m.plan)
	}
	if !strings.Contains(m.View(), "500 MiB") {
		t.Errorf("confirm view should show the estimate, got:\n%s", m.View())
	}
}

func TestModel_ConfirmCancelRestoresBrowse(t *testing.T) {
	m := press(t, newModel(t), "tab", " ", "d", "n")

	if m.mode != modeBrowse || m.plan != nil {
		t.Errorf("mode/plan = %d/%v, want browse with no plan", m.mode, m.plan)
	}
	if len(m.selected) != 1 {
		t.Errorf("cancel must keep the selection, got %v", m.selected)
	}
}

func TestModel_ExecutedMsgClearsSelectionAndReports(t *testing.T) {
	m := press(t, newModel(t), "tab", " ", "d")

	next, cmd := m.Update(key("y"))
	m = next.(Model)
	if m.mode != modeBusy || cmd == nil {
		t.Fatalf("confirm must hand off to execution, mode = %d", m.mode)
	}

	// Run the execution command synchronously against the fake.
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			if got := sub(); got != nil {
				if _, ok := got.(executedMsg); ok {
					msg = got
				}
			}
		}
	}
	exec, ok := msg.(executedMsg)
	if !ok {
		t.Fatalf("expected executedMsg, got %T", msg)
	}

	next, _ = m.Update(exec)
	m = next.(Model)
	if len(m.selected) != 0 {
		t.Errorf("selection should reset after execution, got %v", m.selected)
	}
	if !strings.Contains(m.status, "removed 1") {
		t.Errorf("status = %q, want removal summary", m.status)
	}
}

func TestModel_RefreshErrorKeepsSnapshot(t *testing.T) {
	m := newModel(t)
	before := m.snap

	next, _ := m.Update(refreshedMsg{err: engine.ErrEngineUnreachable})
	m = next.(Model)

	if m.snap != before {
		t.Error("failed refresh must keep the previous snapshot")
	}
	if !strings.Contains(m.status, "refresh failed") {
		t.Errorf("status = %q, want refresh failure notice", m.status)
	}
}

func TestModel_HeaderShowsTotals(t *testing.T) {
	m := newModel(t)
	out := m.View()
	if !strings.Contains(out, "Layers:") || !strings.Contains(out, "Builder:") {
		t.Errorf("header missing totals:\n%s", out)
	}
}
