package tui

import (
	"strings"
	"testing"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
)

func TestDrawSnapshot(t *testing.T) {
	snap := sim.Snapshot{
		Tick:    3,
		Context: sim.Context{Width: 200, Height: 100},
		Objects: []sim.ObjectState{
			{ID: 1, Type: sim.TypeRedBlock, Position: core.V(50, 50), HalfExtent: 5, Color: core.RGB{255, 0, 0}},
			{ID: 2, Type: sim.TypeCenterBlock, Position: core.V(150, 50), HalfExtent: 10, IsStatic: true, Color: core.RGB{128, 128, 128}},
		},
	}

	// 20x10 inner cells: one cell per 10 world units
	screen := core.NewScreen(22, 12)
	DrawSnapshot(screen, snap)

	tests := []struct {
		name  string
		x, y  int
		rune  rune
		color core.Color
	}{
		{"top left corner", 0, 0, '┌', core.ColorGray},
		{"bottom right corner", 21, 11, '┘', core.ColorGray},
		{"mobile body", 5, 5, mobileFill, core.ColorBrightRed},
		{"static body", 15, 5, staticFill, core.ColorGray},
		{"empty space", 10, 2, ' ', core.ColorDefault},
		{"context label", 3, 0, '2', core.ColorGray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := screen.GetCell(tt.x, tt.y)
			if cell.Rune != tt.rune {
				t.Errorf("cell (%d, %d) = %q, want %q", tt.x, tt.y, cell.Rune, tt.rune)
			}
			if cell.Color != tt.color {
				t.Errorf("cell (%d, %d) color = %v, want %v", tt.x, tt.y, cell.Color, tt.color)
			}
		})
	}
}

func TestDrawSnapshotStaysInsideFrame(t *testing.T) {
	// Bodies flush against every edge
	snap := sim.Snapshot{
		Context: sim.Context{Width: 100, Height: 100},
		Objects: []sim.ObjectState{
			{ID: 1, Type: "a", Position: core.V(5, 5), HalfExtent: 5},
			{ID: 2, Type: "b", Position: core.V(95, 95), HalfExtent: 5},
		},
	}

	screen := core.NewScreen(12, 12)
	DrawSnapshot(screen, snap)

	for x := 0; x < 12; x++ {
		for _, y := range []int{0, 11} {
			if r := screen.Get(x, y); r == mobileFill {
				t.Errorf("body drawn over frame at (%d, %d)", x, y)
			}
		}
	}
	if screen.Get(1, 1) != mobileFill || screen.Get(10, 10) != mobileFill {
		t.Errorf("edge bodies not drawn:\n%s", screen.String())
	}
}

func TestDrawSnapshotTinyScreen(t *testing.T) {
	screen := core.NewScreen(2, 2)
	DrawSnapshot(screen, sim.Snapshot{Context: sim.Context{Width: 10, Height: 10}})
	if screen.String() != "  \n  " {
		t.Errorf("tiny screen = %q, want blank", screen.String())
	}
}

func TestRenderScreenKeepsText(t *testing.T) {
	screen := core.NewScreen(5, 2)
	screen.DrawTextColored(0, 0, "ab", core.ColorRed)
	screen.DrawTextColored(2, 0, "cd", core.ColorDefault)

	out := RenderScreen(screen)
	if !strings.Contains(out, "ab") || !strings.Contains(out, "cd") {
		t.Errorf("RenderScreen lost text: %q", out)
	}
	if got := strings.Count(out, "\n"); got != 1 {
		t.Errorf("RenderScreen has %d newlines, want 1", got)
	}
}
