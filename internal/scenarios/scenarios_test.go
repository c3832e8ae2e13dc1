package scenarios

import (
	"os"

	"testing"

	"github.com/vovakirdan/causal-sim/internal/registry"
	"github.com/vovakirdan/causal-sim/internal/sim"
)

func TestBuiltinsRegistered(t *testing.T) {
	for _, id := range []string{"causal", "headon", "corner"} {
		if !registry.Exists(id) {
			t.Errorf("scenario %q is not registered", id)
		}
	}
}

func TestLoadAppliesSeed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdirForTest(t, t.TempDir())

	l, err := Load("causal", "", 77)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.Setup.Seed != 77 {
		t.Errorf("Seed = %d, want 77", l.Setup.Seed)
	}

	l, err = Load("causal", "", 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.Setup.Seed == 0 {
		t.Error("a zero seed should be replaced")
	}
}

func TestHeadonScenarioCollides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdirForTest(t, t.TempDir())

	l, err := Load("headon", "", 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	clock, err := sim.NewClock(l.Setup)
	if err != nil {
		t.Fatalf("NewClock() error = %v", err)
	}
	clock.Start()

	// The faces meet after 125 ticks.
	var snap sim.Snapshot
	for i := 0; i < 125; i++ {
		if snap, _, err = clock.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	red, _ := snap.Object(1)
	blue, _ := snap.Object(2)
	if red.Velocity.X != -1 || blue.Velocity.X != 1 {
		t.Errorf("velocities after contact = %v, %v", red.Velocity, blue.Velocity)
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("nope", "", 1); err == nil {
		t.Error("Load() of an unknown scenario should fail")
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
