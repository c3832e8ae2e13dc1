package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

// Runs browser layout constants
const (
	minWidthForPreview = 100 // Minimum width to show the snapshot preview
	previewWidth       = 32  // Preview width in cells, border included
	maxRuns            = 200 // Max runs to load
)

// RunStore is the subset of storage the runs browser reads.
type RunStore interface {
	ListRuns(scenario string, limit int) ([]storage.Run, error)
	LatestSnapshot(runID string) (sim.Snapshot, bool, error)
	DeleteRun(id string) error
}

// RunsKeyMap defines the key bindings for the runs browser.
type RunsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Preview key.Binding
	Delete  key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RunsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Preview, k.Delete, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k RunsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Preview},
		{k.Delete, k.Quit},
	}
}

// DefaultRunsKeyMap returns default key bindings.
func DefaultRunsKeyMap() RunsKeyMap {
	return RunsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Preview: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "preview"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete run"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RunsModel is the Bubble Tea model for browsing recorded runs.
type RunsModel struct {
	store    RunStore
	scenario string
	runs     []storage.Run
	table    table.Model
	help     help.Model
	keys     RunsKeyMap

	preview    *sim.Snapshot
	previewFor string
	err        error

	width       int
	height      int
	showPreview bool
	quitting    bool
}

// NewRunsModel creates a runs browser, optionally limited to one scenario.
func NewRunsModel(store RunStore, scenario string, width, height int) RunsModel {
	h := help.New()
	h.ShowAll = false

	m := RunsModel{
		store:       store,
		scenario:    scenario,
		keys:        DefaultRunsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showPreview: width >= minWidthForPreview,
	}
	m.table = m.createTable()
	m.loadRuns()
	return m
}

// createTable creates a new table sized for the current window.
func (m *RunsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Run", Width: 8},
		{Title: "Scenario", Width: 10},
		{Title: "Seed", Width: 20},
		{Title: "Epoch", Width: 5},
		{Title: "Snaps", Width: 7},
		{Title: "Last tick", Width: 9},
		{Title: "Recorded", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns reloads the run list from the store.
func (m *RunsModel) loadRuns() {
	if m.store == nil {
		m.runs = nil
		m.updateTableRows()
		return
	}

	runs, err := m.store.ListRuns(m.scenario, maxRuns)
	if err != nil {
		m.err = err
		m.runs = nil
	} else {
		m.runs = runs
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the current runs.
func (m *RunsModel) updateTableRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			shortID(r.ID),
			r.Scenario,
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%d", r.Epoch),
			fmt.Sprintf("%d", r.Snapshots),
			fmt.Sprintf("%d", r.LastTick),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.GotoTop()
	}
}

// selected returns the run under the cursor.
func (m RunsModel) selected() (storage.Run, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.runs) {
		return storage.Run{}, false
	}
	return m.runs[i], true
}

// Init initializes the runs browser.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs browser.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Preview):
			m.loadPreview()
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			m.deleteSelected()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showPreview = m.width >= minWidthForPreview
		cursor := m.table.Cursor()
		m.table = m.createTable()
		m.updateTableRows()
		m.table.SetCursor(min(cursor, max(len(m.runs)-1, 0)))
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// loadPreview fetches the latest snapshot of the selected run.
func (m *RunsModel) loadPreview() {
	run, ok := m.selected()
	if !ok || m.store == nil {
		return
	}
	snap, found, err := m.store.LatestSnapshot(run.ID)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.previewFor = run.ID
	if !found {
		m.preview = nil
		return
	}
	m.preview = &snap
}

// deleteSelected removes the selected run and reloads the list.
func (m *RunsModel) deleteSelected() {
	run, ok := m.selected()
	if !ok || m.store == nil {
		return
	}
	if err := m.store.DeleteRun(run.ID); err != nil {
		m.err = err
		return
	}
	if m.previewFor == run.ID {
		m.preview = nil
		m.previewFor = ""
	}
	m.err = nil
	m.loadRuns()
}

// View renders the runs browser.
func (m RunsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "RECORDED RUNS"
	if m.scenario != "" {
		title = fmt.Sprintf("RECORDED RUNS - %s", m.scenario)
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	tableRendered := boxStyle.Render(m.renderTableContent())
	if m.showPreview {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tableRendered, "  ", m.renderPreview()))
	} else {
		b.WriteString(tableRendered)
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m RunsModel) renderTableContent() string {
	if len(m.runs) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No runs recorded yet.\nUse `causalsim record` or `causalsim run --record`.")
	}
	return m.table.View()
}

// renderPreview draws the latest snapshot of the previewed run.
func (m RunsModel) renderPreview() string {
	if m.previewFor == "" {
		return messageStyle.Render("enter: preview run")
	}
	if m.preview == nil {
		return messageStyle.Render("run " + shortID(m.previewFor) + " has no snapshots")
	}

	snap := *m.preview
	h := previewWidth / 2
	if snap.Context.Width > 0 {
		h = max(int(float64(previewWidth)*snap.Context.Height/snap.Context.Width/2), 3)
	}
	screen := core.NewScreen(previewWidth, h)
	DrawSnapshot(screen, snap)

	caption := fmt.Sprintf("run %s  tick %d  %d objects", shortID(m.previewFor), snap.Tick, len(snap.Objects))
	return RenderScreen(screen) + "\n" + messageStyle.Render(caption)
}

// IsQuitting returns true if the user closed the browser.
func (m RunsModel) IsQuitting() bool {
	return m.quitting
}

// RunRunsBrowser runs the runs browser on the local terminal.
func RunRunsBrowser(store RunStore, scenario string, width, height int) error {
	model := NewRunsModel(store, scenario, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}
