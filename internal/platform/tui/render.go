package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

const (
	mobileFill = '█'
	staticFill = '▓'
)

// DrawSnapshot draws the context frame and every object of snap onto the
// screen, scaling world units to cells independently on each axis. Static
// objects are drawn first so moving ones stay visible on top.
func DrawSnapshot(s *core.Screen, snap sim.Snapshot) {
	s.Clear()
	if s.Width() < 3 || s.Height() < 3 || snap.Context.Width <= 0 || snap.Context.Height <= 0 {
		return
	}
	s.DrawBox(core.NewRect(0, 0, s.Width(), s.Height()), core.ColorGray)
	if label := fmt.Sprintf(" %gx%g ", snap.Context.Width, snap.Context.Height); len(label)+4 <= s.Width() {
		s.DrawTextColored(2, 0, label, core.ColorGray)
	}

	innerW, innerH := s.Width()-2, s.Height()-2
	sx := float64(innerW) / snap.Context.Width
	sy := float64(innerH) / snap.Context.Height

	for _, static := range []bool{true, false} {
		for _, o := range snap.Objects {
			if o.IsStatic != static {
				continue
			}
			minX, minY, maxX, maxY := o.Bounds()
			r := core.ScaleRect(minX, minY, maxX, maxY, sx, sy)
			r.X = core.Clamp(r.X, 0, innerW-1) + 1
			r.Y = core.Clamp(r.Y, 0, innerH-1) + 1
			r.W = min(r.W, innerW+1-r.X)
			r.H = min(r.H, innerH+1-r.Y)

			fill := mobileFill
			if o.IsStatic {
				fill = staticFill
			}
			s.DrawRect(r, fill, core.NearestColor(o.Color))
		}
	}
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells of the same color share one styled run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := 0; y < s.Height(); y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stateStyles = map[sim.State]lipgloss.Style{
		sim.StateInitialized: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true),
		sim.StateRunning:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		sim.StatePaused:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		sim.StateRestarting:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		sim.StateStopped:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// statusLine renders the one-line summary shown under the simulation.
func statusLine(title string, state sim.State, tick uint64, message string, err error) string {
	parts := []string{
		statusStyle.Render(title),
		stateStyles[state].Render(strings.ToUpper(state.String())),
		statusStyle.Render("tick " + strconv.FormatUint(tick, 10)),
	}
	switch {
	case err != nil:
		parts = append(parts, errorStyle.Render(err.Error()))
	case message != "":
		parts = append(parts, messageStyle.Render(message))
	}
	return strings.Join(parts, "  ")
}
