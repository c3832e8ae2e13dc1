package sim

import (
	"sort"
	"sync"
)

// Stream is the append-only sequence of snapshots exposed to consumers.
// The engine is its only writer. Readers never block the writer for longer
// than a slice copy and simply lag behind when they are slow.
type Stream struct {
	mu    sync.RWMutex
	snaps []Snapshot
	limit int
	epoch uint64
}

// NewStream creates a stream that retains at most limit snapshots, dropping
// the oldest first. A limit of 0 retains everything.
func NewStream(limit int) *Stream {
	return &Stream{limit: max(0, limit)}
}

// Append adds a copy of snap. Ticks must be increasing within an epoch.
func (s *Stream) Append(snap Snapshot) {
	snap = snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps = append(s.snaps, snap)
	if s.limit > 0 && len(s.snaps) > s.limit {
		s.snaps = s.snaps[len(s.snaps)-s.limit:]
	}
}

// Latest returns a copy of the most recent snapshot.
func (s *Stream) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snaps) == 0 {
		return Snapshot{}, false
	}
	return s.snaps[len(s.snaps)-1].Clone(), true
}

// Since returns copies of the retained snapshots with Tick >= tick, oldest
// first.
func (s *Stream) Since(tick uint64) []Snapshot {
	snaps, _ := s.Read(tick)
	return snaps
}

// Read is Since plus the epoch the snapshots belong to, taken atomically so
// a reader can tell whether a restart discarded the history it was following.
func (s *Stream) Read(tick uint64) ([]Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := sort.Search(len(s.snaps), func(i int) bool { return s.snaps[i].Tick >= tick })
	if i == len(s.snaps) {
		return nil, s.epoch
	}
	out := make([]Snapshot, 0, len(s.snaps)-i)
	for _, snap := range s.snaps[i:] {
		out = append(out, snap.Clone())
	}
	return out, s.epoch
}

// Len returns the number of retained snapshots.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// Epoch counts resets. It changes whenever history is discarded.
func (s *Stream) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Reset discards all history and starts a new epoch.
func (s *Stream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = nil
	s.epoch++
}
