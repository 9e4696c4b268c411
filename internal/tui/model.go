// Package tui is the interactive dashboard: a tabbed view over the current
// snapshot with cursor selection and a confirm-then-execute deletion flow.
// All engine access goes through the session; the model itself never blocks.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/example/docksweep/internal/engine"
	"github.com/example/docksweep/internal/reclaim"
	"github.com/example/docksweep/internal/session"
	"github.com/example/docksweep/internal/snapshot"
)

type view int

const (
	viewSystem view = iota
	viewImages
	viewContainers
	viewVolumes
	viewBuildCache
	viewCount
)

func (v view) kind() engine.Kind {
	switch v {
	case viewImages:
		return engine.KindImage
	case viewContainers:
		return engine.KindContainer
	case viewVolumes:
		return engine.KindVolume
	case viewBuildCache:
		return engine.KindBuildCache
	}
	return ""
}

type mode int

const (
	modeBrowse mode = iota
	modeConfirm
	modeBusy
)

type refreshedMsg struct {
	snap *snapshot.Snapshot
	err  error
}

type executedMsg struct {
	res *reclaim.Result
	err error
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	sess   *session.Session
	theme  *Theme
	logger *log.Logger

	view   view
	mode   mode
	cursor int
	offset int
	width  int
	height int

	snap     *snapshot.Snapshot
	selected map[string]bool
	cascade  bool
	plan     *reclaim.Plan

	spin    spinner.Model
	busy    string
	status  string
	lastErr error
}

// New returns a dashboard model over an established session. The first
// refresh is triggered from Init.
func New(sess *session.Session, cascade bool, logger *log.Logger) Model {
	if logger == nil {
		logger = log.Default()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return Model{
		sess:     sess,
		theme:    DefaultTheme(),
		logger:   logger,
		selected: map[string]bool{},
		cascade:  cascade,
		spin:     s,
		mode:     modeBusy,
		busy:     "connecting",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.sess.Refresh(context.Background())
		return refreshedMsg{snap: snap, err: err}
	}
}

func (m Model) executeCmd(plan *reclaim.Plan) tea.Cmd {
	return func() tea.Msg {
		res, err := m.sess.Execute(context.Background(), plan)
		return executedMsg{res: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshedMsg:
		m.mode = modeBrowse
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.lastErr = nil
		m.snap = msg.snap
		m.pruneSelection()
		m.clampCursor()
		m.status = fmt.Sprintf("snapshot #%d: %d resources, %s in use",
			msg.snap.Generation, msg.snap.Len(), ibytes(msg.snap.TotalUsage()))
		return m, nil

	case executedMsg:
		m.mode = modeBrowse
		m.busy = ""
		m.plan = nil
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = "deletion failed: " + msg.err.Error()
			return m, nil
		}
		m.selected = map[string]bool{}
		m.snap = m.sess.Snapshot()
		m.clampCursor()
		m.status = fmt.Sprintf("removed %d, freed %s (%d failed, %d skipped)",
			msg.res.Removed, ibytes(msg.res.BytesReclaimed), msg.res.Failed, msg.res.Skipped)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeBusy:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.view = (m.view + 1) % viewCount
		m.cursor, m.offset = 0, 0
	case "shift+tab":
		m.view = (m.view + viewCount - 1) % viewCount
		m.cursor, m.offset = 0, 0

	case "down", "j":
		m.cursor++
		m.clampCursor()
	case "up", "k":
		m.cursor--
		m.clampCursor()

	case " ":
		if r := m.current(); r != nil {
			if m.selected[r.ID] {
				delete(m.selected, r.ID)
			} else {
				m.selected[r.ID] = true
			}
			m.cursor++
			m.clampCursor()
		}

	case "c":
		m.cascade = !m.cascade

	case "r":
		m.mode = modeBusy
		m.busy = "refreshing"
		return m, tea.Batch(m.spin.Tick, m.refreshCmd())

	case "d":
		return m.startConfirm()
	}
	return m, nil
}

// startConfirm builds a plan for the selection (or the cursor row when
// nothing is selected) and switches to the confirmation overlay.
func (m Model) startConfirm() (tea.Model, tea.Cmd) {
	ids := m.selectionIDs()
	if len(ids) == 0 {
		if r := m.current(); r != nil {
			ids = []string{r.ID}
		}
	}
	if len(ids) == 0 {
		m.status = "nothing selected"
		return m, nil
	}

	plan, err := m.sess.BuildPlan(ids, m.cascade)
	if err != nil {
		m.lastErr = err
		m.status = "cannot plan: " + err.Error()
		return m, nil
	}
	m.plan = plan
	m.mode = modeConfirm
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		if len(m.plan.Items) == 0 {
			m.mode = modeBrowse
			m.plan = nil
			m.status = "nothing to delete"
			return m, nil
		}
		plan := m.plan
		m.mode = modeBusy
		m.busy = "deleting"
		return m, tea.Batch(m.spin.Tick, m.executeCmd(plan))

	case "c":
		// Re-plan with the opposite cascade setting, same selection.
		m.cascade = !m.cascade
		return m.startConfirm()

	case "n", "esc", "q":
		m.mode = modeBrowse
		m.plan = nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// rows returns the resources behind the active view, in display order.
func (m Model) rows() []*snapshot.Resource {
	if m.snap == nil || m.view == viewSystem {
		return nil
	}
	return m.snap.Kind(m.view.kind())
}

func (m Model) current() *snapshot.Resource {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m Model) selectionIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	return ids
}

// pruneSelection drops selected IDs that no longer exist after a refresh.
func (m *Model) pruneSelection() {
	for id := range m.selected {
		if m.snap.Resource(id) == nil {
			delete(m.selected, id)
		}
	}
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor > n-1 {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	// Keep the cursor inside the visible window with a small margin.
	h := m.bodyHeight()
	if h <= 0 {
		return
	}
	if m.cursor-m.offset >= h-1 {
		m.offset = m.cursor - h + 2
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) bodyHeight() int {
	// Header, separator, column header and status bar.
	return m.height - 4
}

func ibytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
