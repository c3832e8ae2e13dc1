package sim

import (
	"sync"
	"testing"

	"github.com/vovakirdan/causal-sim/internal/core"
)

func snapAt(tick uint64) Snapshot {
	return Snapshot{Tick: tick, Context: Context{Width: 10, Height: 10}}
}

func TestStreamSince(t *testing.T) {
	s := NewStream(0)
	for tick := uint64(0); tick < 5; tick++ {
		s.Append(snapAt(tick))
	}

	tests := []struct {
		since uint64
		want  []uint64
	}{
		{0, []uint64{0, 1, 2, 3, 4}},
		{3, []uint64{3, 4}},
		{4, []uint64{4}},
		{5, nil},
	}

	for _, tt := range tests {
		got := s.Since(tt.since)
		if len(got) != len(tt.want) {
			t.Errorf("Since(%d) returned %d snapshots, want %d", tt.since, len(got), len(tt.want))
			continue
		}
		for i, snap := range got {
			if snap.Tick != tt.want[i] {
				t.Errorf("Since(%d)[%d].Tick = %d, want %d", tt.since, i, snap.Tick, tt.want[i])
			}
		}
	}
}

func TestStreamLatest(t *testing.T) {
	s := NewStream(0)
	if _, ok := s.Latest(); ok {
		t.Error("Latest() on an empty stream should report false")
	}

	s.Append(snapAt(0))
	s.Append(snapAt(1))
	latest, ok := s.Latest()
	if !ok || latest.Tick != 1 {
		t.Errorf("Latest() = %d, %v, want 1, true", latest.Tick, ok)
	}
}

func TestStreamReset(t *testing.T) {
	s := NewStream(0)
	s.Append(snapAt(0))
	s.Append(snapAt(1))

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after reset = %d, want 0", s.Len())
	}
	if s.Epoch() != 1 {
		t.Errorf("Epoch() = %d, want 1", s.Epoch())
	}

	s.Append(snapAt(0))
	snaps, epoch := s.Read(0)
	if len(snaps) != 1 || epoch != 1 {
		t.Errorf("Read(0) = %d snapshots in epoch %d, want 1 in epoch 1", len(snaps), epoch)
	}
}

func TestStreamRetention(t *testing.T) {
	s := NewStream(3)
	for tick := uint64(0); tick < 10; tick++ {
		s.Append(snapAt(tick))
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	got := s.Since(0)
	if got[0].Tick != 7 || got[2].Tick != 9 {
		t.Errorf("retained ticks %d..%d, want 7..9", got[0].Tick, got[2].Tick)
	}
}

func TestStreamSinceReturnsCopy(t *testing.T) {
	s := NewStream(0)
	s.Append(snapAt(0))

	got := s.Since(0)
	got[0].Tick = 42

	latest, _ := s.Latest()
	if latest.Tick != 0 {
		t.Errorf("stream was modified through Since() result")
	}
}

func TestStreamSnapshotsDoNotShareObjects(t *testing.T) {
	appended := snapAt(0)
	appended.Objects = []ObjectState{{ID: 1, Position: core.V(1, 2)}}

	s := NewStream(0)
	s.Append(appended)
	appended.Objects[0].Position = core.V(-1, -1)

	tests := []struct {
		name string
		read func() Snapshot
	}{
		{"Latest", func() Snapshot { snap, _ := s.Latest(); return snap }},
		{"Since", func() Snapshot { return s.Since(0)[0] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.read().Objects[0].Position = core.V(-999, -999)

			latest, _ := s.Latest()
			if got := latest.Objects[0].Position; got != core.V(1, 2) {
				t.Errorf("stored position = %v, want (1, 2)", got)
			}
		})
	}
}

func TestStreamConcurrentReaders(t *testing.T) {
	s := NewStream(0)
	const n = 2000

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cursor uint64
			for cursor < n {
				for _, snap := range s.Since(cursor) {
					if snap.Tick != cursor {
						t.Errorf("reader saw tick %d, want %d", snap.Tick, cursor)
						return
					}
					cursor++
				}
			}
		}()
	}

	for tick := uint64(0); tick < n; tick++ {
		s.Append(snapAt(tick))
	}
	wg.Wait()
}
