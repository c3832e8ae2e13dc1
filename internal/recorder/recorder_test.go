package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/causal-sim/internal/core"
	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

func testSetup() sim.Setup {
	vel := core.V(1, 0)
	return sim.Setup{
		Context: sim.Context{Width: 100, Height: 100},
		Speed:   1,
		Bodies: []sim.BodySpec{
			{Type: sim.TypeCenterBlock, Pos: core.V(50, 50), HalfExtent: 10, Static: true},
			{Type: sim.TypeRedBlock, Pos: core.V(20, 20), HalfExtent: 5},
			{Type: sim.TypeBlueBlock, Pos: core.V(80, 80), HalfExtent: 5, Vel: &vel},
		},
		Seed:            3,
		CheckInvariants: true,
	}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newClock(t *testing.T, setup sim.Setup) *sim.Clock {
	t.Helper()
	c, err := sim.NewClock(setup)
	if err != nil {
		t.Fatalf("NewClock() failed: %v", err)
	}
	c.Start()
	return c
}

func step(t *testing.T, c *sim.Clock, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, _, err := c.Advance(); err != nil {
			t.Fatalf("Advance() failed: %v", err)
		}
	}
}

func TestRecorderDrain(t *testing.T) {
	store := openStore(t)
	clock := newClock(t, testSetup())
	rec := New(store, clock.Stream(), "test", 3, WithBatchSize(4))

	step(t, clock, 9)
	n, err := rec.Drain()
	if err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}
	if n != 10 {
		t.Errorf("Drain() wrote %d snapshots, want 10", n)
	}

	// Nothing new
	if n, _ := rec.Drain(); n != 0 {
		t.Errorf("second Drain() wrote %d snapshots, want 0", n)
	}

	step(t, clock, 5)
	if n, _ := rec.Drain(); n != 5 {
		t.Errorf("Drain() wrote %d snapshots, want 5", n)
	}

	run, ok := rec.Current()
	if !ok {
		t.Fatal("no current run")
	}
	stored, err := store.Snapshots(run.ID, 0, 0)
	if err != nil {
		t.Fatalf("Snapshots() failed: %v", err)
	}
	live := clock.Stream().Since(0)
	if len(stored) != len(live) {
		t.Fatalf("stored %d snapshots, stream has %d", len(stored), len(live))
	}
	for i := range live {
		if stored[i].Hash() != live[i].Hash() {
			t.Errorf("stored snapshot %d differs from the stream", i)
		}
	}
}

func TestRecorderStartsNewRunOnRestart(t *testing.T) {
	store := openStore(t)
	clock := newClock(t, testSetup())
	rec := New(store, clock.Stream(), "test", 3)

	step(t, clock, 5)
	if _, err := rec.Drain(); err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}

	if ok, err := clock.Restart(); !ok || err != nil {
		t.Fatalf("Restart() = %v, %v", ok, err)
	}
	clock.Start()
	step(t, clock, 3)
	if _, err := rec.Drain(); err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}

	runs := rec.Runs()
	if len(runs) != 2 {
		t.Fatalf("recorded %d runs, want 2", len(runs))
	}
	if runs[1].Epoch != 1 {
		t.Errorf("second run epoch = %d, want 1", runs[1].Epoch)
	}

	first, _ := store.GetRun(runs[0].ID)
	second, _ := store.GetRun(runs[1].ID)
	if first.Snapshots != 6 || second.Snapshots != 4 {
		t.Errorf("snapshots per run = %d, %d, want 6, 4", first.Snapshots, second.Snapshots)
	}
	if rec.Saved() != 10 {
		t.Errorf("Saved() = %d, want 10", rec.Saved())
	}
}

func TestRecorderReportsGap(t *testing.T) {
	store := openStore(t)
	setup := testSetup()
	setup.History = 3
	clock := newClock(t, setup)
	rec := New(store, clock.Stream(), "test", 3)

	step(t, clock, 10)
	n, err := rec.Drain()
	if err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Drain() wrote %d snapshots, want the 3 retained", n)
	}
}

type failingStore struct{}

func (f failingStore) CreateRun(string, int64, uint64, sim.Context) (storage.Run, error) {
	return storage.Run{ID: "r1"}, nil
}

func (f failingStore) SaveSnapshots(string, []sim.Snapshot) error {
	return errors.New("disk full")
}

func TestRecorderPropagatesStoreErrors(t *testing.T) {
	clock := newClock(t, testSetup())
	rec := New(failingStore{}, clock.Stream(), "test", 3)

	if _, err := rec.Drain(); err == nil {
		t.Error("Drain() should fail when the store fails")
	}
}

func TestRecorderRunFinalDrain(t *testing.T) {
	store := openStore(t)
	clock := newClock(t, testSetup())

	var hooked int
	rec := New(store, clock.Stream(), "test", 3, WithSaveHook(func(n int) { hooked += n }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- rec.Run(ctx, time.Hour)
	}()

	step(t, clock, 7)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if rec.Saved() != 8 || hooked != 8 {
		t.Errorf("Saved() = %d, hook saw %d, want 8", rec.Saved(), hooked)
	}
}
