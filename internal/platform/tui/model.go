package tui

import (
	"io"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/observability"
	"github.com/vovakirdan/causal-sim/internal/recorder"
	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

// Model is the Bubble Tea model for watching and controlling one
// simulation. It is the renderer consumer of the clock's stream: it only
// reads the latest snapshot and never touches the engine directly.
type Model struct {
	clock    *sim.Clock
	title    string
	screen   *core.Screen
	config   core.RuntimeConfig
	keys     KeyMap
	help     help.Model
	recorder *recorder.Recorder
	metrics  *observability.Collector
	stateDir string
	logger   *log.Logger

	message  string
	err      error
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the label shown in the status line.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// WithRecorder drains the recorder before every restart so the run being
// recorded is complete.
func WithRecorder(r *recorder.Recorder) Option {
	return func(m *Model) {
		m.recorder = r
	}
}

// WithMetrics reports restarts and the stream length.
func WithMetrics(c *observability.Collector) Option {
	return func(m *Model) {
		m.metrics = c
	}
}

// WithStateDir sets where the save key writes state files.
func WithStateDir(dir string) Option {
	return func(m *Model) {
		m.stateDir = dir
	}
}

// WithLogger sets the logger. The viewer owns the terminal, so the default
// discards everything.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// NewModel creates a viewer for the given clock.
func NewModel(clock *sim.Clock, cfg core.RuntimeConfig, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		clock:    clock,
		title:    "causal-sim",
		screen:   core.NewScreen(cfg.ScreenW, max(cfg.ScreenH-2, 0)),
		config:   cfg,
		keys:     DefaultKeyMap(),
		help:     h,
		stateDir: ".",
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.help.Width = cfg.ScreenW
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.apply(m.keys.Action(msg))

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// apply maps a control action to a clock transition.
func (m Model) apply(action core.Action) (tea.Model, tea.Cmd) {
	switch action {
	case core.ActionQuit:
		m.clock.Stop()
		m.quitting = true
		return m, tea.Quit

	case core.ActionStart:
		if m.clock.Start() {
			m.message = "started"
		}

	case core.ActionToggle:
		if m.clock.Toggle() {
			m.message = m.clock.State().String()
		}

	case core.ActionRestart:
		m.restart()

	case core.ActionSave:
		m.saveState()

	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// restart rebuilds the world and keeps it running, so a restart never
// leaves the viewer waiting for another start key.
func (m *Model) restart() {
	if m.recorder != nil {
		if _, err := m.recorder.Drain(); err != nil {
			m.logger.Warn("could not drain recorder before restart", "error", err)
		}
	}

	ok, err := m.clock.Restart()
	if err != nil {
		m.err = err
		m.logger.Error("restart failed", "error", err)
		return
	}
	if !ok {
		return
	}
	m.metrics.ObserveRestart()
	m.clock.Start()
	m.message = "restarted"
}

// saveState writes the latest snapshot to a state file.
func (m *Model) saveState() {
	snap, ok := m.clock.Stream().Latest()
	if !ok {
		m.message = "nothing to save"
		return
	}
	path, err := storage.WriteStateFile(m.stateDir, snap)
	if err != nil {
		m.err = err
		m.logger.Error("could not write state file", "error", err)
		return
	}
	m.message = "saved " + path
	m.logger.Info("state saved", "path", path, "tick", snap.Tick)
}

// handleTick advances the clock by one step. A stopped clock keeps the last
// frame on screen until the user quits.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if _, _, err := m.clock.Advance(); err != nil {
		m.err = err
		m.logger.Error("simulation stopped", "tick", m.clock.Tick(), "error", err)
	}
	m.metrics.SetStreamLength(m.clock.Stream().Len())
	return m, tickCmd(m.config.TickRate)
}

// View renders the latest snapshot with the status line and help below it.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	helpView := helpStyle.Render(m.help.View(m.keys))
	status := statusLine(m.title, m.clock.State(), m.clock.Tick(), m.message, m.err)

	h := max(m.config.ScreenH-1-lipgloss.Height(helpView), 0)
	if m.screen.Width() != m.config.ScreenW || m.screen.Height() != h {
		m.screen.Resize(m.config.ScreenW, h)
	}
	if snap, ok := m.clock.Stream().Latest(); ok {
		DrawSnapshot(m.screen, snap)
	} else {
		m.screen.Clear()
	}

	return RenderScreen(m.screen) + "\n" + status + "\n" + helpView
}

// Message returns the last status message.
func (m Model) Message() string {
	return m.message
}

// Err returns the last error, if any.
func (m Model) Err() error {
	return m.err
}

// IsQuitting returns true if the user requested to quit.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// Run starts the viewer on the local terminal and blocks until it quits.
func Run(clock *sim.Clock, cfg core.RuntimeConfig, opts ...Option) error {
	model := NewModel(clock, cfg, opts...)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
