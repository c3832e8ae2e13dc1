package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
)

func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	isolateHome(t)
	chdirForTest(t, t.TempDir())

	for _, name := range []string{"causal", "headon", "corner"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(name, "")
			if err != nil {
				t.Fatalf("Load(%s) error = %v", name, err)
			}
			if cfg.Source != SourceEmbedded {
				t.Errorf("Source = %q, want embedded", cfg.Source)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestCausalLayout(t *testing.T) {
	cfg, err := Parse(DefaultYAML("causal"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	setup, err := cfg.ToSetup()
	if err != nil {
		t.Fatalf("ToSetup() error = %v", err)
	}

	if setup.Context != (sim.Context{Width: 1000, Height: 1000}) {
		t.Errorf("context = %+v", setup.Context)
	}
	if setup.Rules != nil {
		t.Error("rules should default when not configured")
	}

	wantTypes := []sim.ObjectType{
		sim.TypeWall, sim.TypeWall, sim.TypeWall, sim.TypeWall,
		sim.TypeCenterBlock, sim.TypeRedBlock, sim.TypeBlueBlock,
	}
	if len(setup.Bodies) != len(wantTypes) {
		t.Fatalf("got %d bodies, want %d", len(setup.Bodies), len(wantTypes))
	}
	for i, b := range setup.Bodies {
		if b.Type != wantTypes[i] {
			t.Errorf("body %d type = %s, want %s", i, b.Type, wantTypes[i])
		}
	}

	red := setup.Bodies[5]
	if red.Pos != core.V(100, 100) || red.HalfExtent != 15 || red.Static || red.Color != (core.RGB{255, 0, 0}) {
		t.Errorf("red block = %+v", red)
	}
	if wall := setup.Bodies[0]; wall.Pos != core.V(500, 10) || wall.HalfExtent != 10 || !wall.Static {
		t.Errorf("top wall = %+v", wall)
	}
}

func TestLoadSearchOrder(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	chdirForTest(t, dir)

	local := "title: local\ncontext: {width: 100, height: 100}\nspeed: 1\n"
	if err := os.MkdirAll("configs", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("configs", "causal.yaml"), []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("causal", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Title != "local" {
		t.Errorf("Title = %q, want the local config", cfg.Title)
	}

	custom := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(custom, []byte("title: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("causal", custom)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Title != "custom" || cfg.Source != custom {
		t.Errorf("got %q from %q, want the custom config", cfg.Title, cfg.Source)
	}
}

func TestLoadErrors(t *testing.T) {
	isolateHome(t)
	chdirForTest(t, t.TempDir())

	if _, err := Load("nope", ""); err == nil {
		t.Error("Load() of an unknown scenario should fail")
	}
	if _, err := Load("causal", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing custom path should fail")
	}

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(broken, []byte("bodies: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("causal", broken); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() error = %v, want a parse error", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown rule",
			yaml: `
context: {width: 100, height: 100}
speed: 1
bodies:
  - {type: red_block, position: [50, 50], size: 10}
rules:
  translation: {red_block: warp}
`,
		},
		{
			name: "missing pair",
			yaml: `
context: {width: 100, height: 100}
speed: 1
bodies:
  - {type: red_block, position: [20, 20], size: 10}
  - {type: wall, position: [70, 70], size: 10, static: true}
rules:
  translation: {red_block: linear}
`,
		},
		{
			name: "outside context",
			yaml: `
context: {width: 100, height: 100}
speed: 1
bodies:
  - {type: red_block, position: [98, 50], size: 10}
`,
		},
		{
			name: "zero speed",
			yaml: `
context: {width: 100, height: 100}
bodies:
  - {type: red_block, position: [50, 50], size: 10}
`,
		},
		{
			name: "no bodies",
			yaml: `
context: {width: 100, height: 100}
speed: 1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			err = cfg.Validate()
			if !IsConfigError(err) {
				t.Errorf("Validate() error = %v, want a configuration error", err)
			}
		})
	}
}

func TestExplicitRules(t *testing.T) {
	cfg, err := Parse(DefaultYAML("corner"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	setup, err := cfg.ToSetup()
	if err != nil {
		t.Fatalf("ToSetup() error = %v", err)
	}
	if setup.Rules == nil {
		t.Fatal("configured rules were dropped")
	}
	if _, swapped, ok := setup.Rules.Interaction(sim.TypeCenterBlock, sim.TypeRedBlock); !ok || !swapped {
		t.Errorf("reversed pair lookup = swapped %v ok %v, want true true", swapped, ok)
	}
	if setup.Bodies[1].Vel == nil {
		t.Error("explicit velocity was dropped")
	}
}

func TestWarnings(t *testing.T) {
	cfg, err := Parse([]byte(`
context: {width: 100, height: 100}
speed: 2
bodies:
  - {type: red_block, position: [50, 50], size: 3}
  - {type: wall, position: [10, 10], size: 2, static: true}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	w := cfg.Warnings()
	if len(w) != 1 || !strings.Contains(w[0], "red_block") {
		t.Errorf("Warnings() = %v, want one warning for red_block", w)
	}
}

// chdirForTest changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
