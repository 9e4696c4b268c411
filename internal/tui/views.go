package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/example/docksweep/internal/snapshot"
)

type column struct {
	title string
	// width is an absolute cell width, or a fraction of the remaining
	// space when < 1.
	width float64
	right bool
}

var tabTitles = []string{"System", "Images", "Containers", "Volumes", "Build cache"}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.theme.Dim.Render(strings.Repeat("─", max(m.width, 1))))
	b.WriteString("\n")

	switch {
	case m.mode == modeConfirm && m.plan != nil:
		b.WriteString(m.viewConfirm())
	case m.view == viewSystem:
		b.WriteString(m.viewSystemInfo())
	default:
		b.WriteString(m.viewTable())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatusbar())
	return b.String()
}

func (m Model) viewHeader() string {
	var tabs []string
	for i, title := range tabTitles {
		label := title
		if m.snap != nil {
			if kind := view(i).kind(); kind != "" {
				label = fmt.Sprintf("%s %d", title, len(m.snap.Kind(kind)))
			}
		}
		if view(i) == m.view {
			tabs = append(tabs, m.theme.TabOn.Render(label))
		} else {
			tabs = append(tabs, m.theme.TabOff.Render(label))
		}
	}
	left := strings.Join(tabs, " ")

	right := ""
	if m.snap != nil {
		sys := m.snap.System
		right = m.theme.Totals.Render(fmt.Sprintf("Disk: %s / %s │ Layers: %s │ Builder: %s",
			humanize.IBytes(sys.RootFSUsed), humanize.IBytes(sys.RootFSTotal),
			ibytes(m.snap.LayersSize), ibytes(m.snap.BuilderSize)))
	}

	gap := m.width - visibleWidth(left) - visibleWidth(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) viewSystemInfo() string {
	if m.snap == nil {
		return m.theme.Dim.Render("  no snapshot yet")
	}
	sys := m.snap.System

	kv := [][2]string{
		{"Server version", sys.Version},
		{"Name", sys.Name},
		{"Operating system", sys.OperatingSystem},
		{"OS type", sys.OSType},
		{"Kernel version", sys.KernelVersion},
		{"Architecture", sys.Architecture},
		{"Containers", fmt.Sprintf("%d", sys.Containers)},
		{"Images", fmt.Sprintf("%d", sys.Images)},
		{"Storage root", sys.RootDir},
		{"Disk used", humanize.IBytes(sys.RootFSUsed)},
		{"Disk total", humanize.IBytes(sys.RootFSTotal)},
		{"Total usage", ibytes(m.snap.TotalUsage())},
		{"Reclaimable now", ibytes(m.reclaimableUnused())},
	}

	var b strings.Builder
	for _, pair := range kv {
		b.WriteString(fmt.Sprintf("  %-24s: %s\n", pair[0], pair[1]))
	}
	return strings.TrimRight(b.String(), "\n")
}

// reclaimableUnused estimates what deleting everything not in use would free.
func (m Model) reclaimableUnused() int64 {
	var ids []string
	for _, v := range []view{viewImages, viewContainers, viewVolumes, viewBuildCache} {
		for _, r := range m.snap.Kind(v.kind()) {
			if !r.InUse {
				ids = append(ids, r.ID)
			}
		}
	}
	return m.snap.Reclaimable(ids)
}

func (m Model) viewTable() string {
	rows := m.rows()
	cols := m.columns()

	var b strings.Builder
	b.WriteString(m.theme.Header.Render(m.renderCells(cols, headerCells(cols))))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(m.theme.Dim.Render("  nothing here"))
		return b.String()
	}

	end := min(len(rows), m.offset+max(m.bodyHeight()-1, 1))
	for i := m.offset; i < end; i++ {
		line := m.renderCells(cols, m.rowCells(rows[i]))
		switch {
		case i == m.cursor:
			line = m.theme.Cursor.Render(line)
		case m.selected[rows[i].ID]:
			line = m.theme.Selected.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) columns() []column {
	switch m.view {
	case viewImages:
		return []column{
			{title: "Tags", width: 0.5},
			{title: "Size", width: 12, right: true},
			{title: "Shared", width: 12, right: true},
			{title: "Created", width: 14, right: true},
			{title: "", width: 8},
		}
	case viewContainers:
		return []column{
			{title: "Name", width: 0.25},
			{title: "Command", width: 0.3},
			{title: "Size", width: 12, right: true},
			{title: "Created", width: 14, right: true},
			{title: "", width: 8},
		}
	case viewVolumes:
		return []column{
			{title: "Name", width: 0.3},
			{title: "Mountpoint", width: 0.4},
			{title: "Size", width: 12, right: true},
			{title: "", width: 8},
		}
	default:
		return []column{
			{title: "ID", width: 14},
			{title: "Description", width: 0.5},
			{title: "Size", width: 12, right: true},
			{title: "Last used", width: 14, right: true},
			{title: "", width: 8},
		}
	}
}

func headerCells(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.title
	}
	return out
}

func (m Model) rowCells(r *snapshot.Resource) []string {
	mark := " "
	if m.selected[r.ID] {
		mark = m.theme.Mark
	}
	use := ""
	if r.InUse {
		use = "in use"
	}
	age := humanize.Time(r.Created)

	switch m.view {
	case viewImages:
		return []string{mark + " " + r.Name, ibytes(r.TotalSize), ibytes(r.SharedSize), age, use}
	case viewContainers:
		return []string{mark + " " + r.Name, r.Detail, ibytes(r.TotalSize), age, use}
	case viewVolumes:
		return []string{mark + " " + r.Name, r.Detail, ibytes(r.TotalSize), use}
	default:
		return []string{mark + " " + snapshot.ShortID(r.ID), r.Detail, ibytes(r.TotalSize), age, use}
	}
}

// renderCells lays out one table line with fixed and fractional widths, the
// way the column set declares them.
func (m Model) renderCells(cols []column, cells []string) string {
	total := max(m.width-2, 20)
	fixed := 0
	for _, c := range cols {
		if c.width >= 1 {
			fixed += int(c.width) + 1
		}
	}

	var b strings.Builder
	b.WriteString(" ")
	for i, c := range cols {
		w := int(c.width)
		if c.width < 1 {
			w = int(float64(total-fixed) * c.width)
		}
		if w < 2 {
			w = 2
		}
		cell := cells[i]
		if len(cell) > w {
			cell = cell[:w]
		}
		if c.right {
			b.WriteString(fmt.Sprintf("%*s ", w, cell))
		} else {
			b.WriteString(fmt.Sprintf("%-*s ", w, cell))
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func (m Model) viewConfirm() string {
	var b strings.Builder

	cascade := "off"
	if m.cascade {
		cascade = "on"
	}
	b.WriteString(m.theme.Header.Render(fmt.Sprintf(
		"Delete %d resources, freeing an estimated %s? (cascade %s)",
		len(m.plan.Items), ibytes(m.plan.EstimatedBytes), cascade)))
	b.WriteString("\n\n")

	for _, item := range m.plan.Items {
		b.WriteString(fmt.Sprintf("  %s %-12s %-40s %12s\n",
			m.theme.Red.Render("✗"), item.Kind, truncate(item.Name, 40), ibytes(item.Bytes)))
	}
	for _, sk := range m.plan.Skipped {
		name := sk.Name
		if name == "" {
			name = sk.ID
		}
		b.WriteString(m.theme.Dim.Render(fmt.Sprintf(
			"  - %-12s %-40s skipped: %s", sk.Kind, truncate(name, 40), sk.Reason)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Yellow.Render("y/enter: delete   c: toggle cascade   n/esc: cancel"))
	return b.String()
}

func (m Model) viewStatusbar() string {
	if m.mode == modeBusy {
		return fmt.Sprintf(" %s %s...", m.spin.View(), m.busy)
	}

	left := " q quit │ tab views │ j/k move │ space select │ d delete │ c cascade │ r refresh"
	pos := ""
	if rows := m.rows(); len(rows) > 0 {
		pos = fmt.Sprintf("%d selected │ %d/%d ", len(m.selected), m.cursor+1, len(rows))
	}
	if m.status != "" {
		left = " " + m.status
	}

	gap := m.width - visibleWidth(left) - visibleWidth(pos)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Status.Render(left + strings.Repeat(" ", gap) + pos)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// visibleWidth measures rendered width; styled segments carry escape
// sequences plain len would overcount.
func visibleWidth(s string) int {
	return lipgloss.Width(s)
}
