// Package tui is the terminal viewer for a running simulation. It renders
// snapshots with Bubble Tea, maps keys to clock controls and serves the same
// viewer over SSH with Wish.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg is sent to advance the simulation by one step.
type TickMsg time.Time

// tickCmd returns a command that sends a TickMsg after one frame at the
// given rate.
func tickCmd(tickRate int) tea.Cmd {
	if tickRate <= 0 {
		tickRate = 60
	}
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
