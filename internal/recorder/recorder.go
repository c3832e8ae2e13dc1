// Package recorder is the state-logging consumer of a simulation: it drains
// the snapshot stream into storage at its own pace, starting a new run
// whenever the stream is reset by a restart.
package recorder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/causal-sim/internal/sim"
	"github.com/vovakirdan/causal-sim/internal/storage"
)

// Store is the subset of storage the recorder writes to.
type Store interface {
	CreateRun(scenario string, seed int64, epoch uint64, ctx sim.Context) (storage.Run, error)
	SaveSnapshots(runID string, snaps []sim.Snapshot) error
}

// Recorder persists every snapshot it can reach. It never blocks the
// producer: a recorder that falls behind a bounded stream loses the
// snapshots trimmed in the meantime and logs the gap. Drain may be called
// from any goroutine, including while Run is active.
type Recorder struct {
	mu sync.Mutex

	store    Store
	stream   *sim.Stream
	scenario string
	seed     int64
	logger   *log.Logger
	batch    int
	onSave   func(n int)

	started bool
	epoch   uint64
	cursor  uint64
	run     storage.Run
	runs    []storage.Run
	saved   int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithBatchSize caps the snapshots written per transaction.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batch = n
		}
	}
}

// WithSaveHook is called with the number of snapshots after every write.
func WithSaveHook(fn func(n int)) Option {
	return func(r *Recorder) {
		r.onSave = fn
	}
}

// New creates a recorder for the stream of a scenario.
func New(store Store, stream *sim.Stream, scenario string, seed int64, opts ...Option) *Recorder {
	r := &Recorder{
		store:    store,
		stream:   stream,
		scenario: scenario,
		seed:     seed,
		logger:   log.New(io.Discard),
		batch:    500,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Drain writes every snapshot appended since the last call and returns how
// many were written.
func (r *Recorder) Drain() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snaps, epoch := r.stream.Read(r.cursor)

	if !r.started || epoch != r.epoch {
		snaps, epoch = r.stream.Read(0)
		if len(snaps) == 0 {
			// Reset but not rebuilt yet
			return 0, nil
		}
		if err := r.startRun(epoch, snaps[0].Context); err != nil {
			return 0, err
		}
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	if first := snaps[0].Tick; first > r.cursor {
		r.logger.Warn("recorder fell behind, snapshots were trimmed",
			"run", r.run.ID, "from", r.cursor, "to", first-1)
	}

	written := 0
	for len(snaps) > 0 {
		n := min(r.batch, len(snaps))
		if err := r.store.SaveSnapshots(r.run.ID, snaps[:n]); err != nil {
			return written, fmt.Errorf("recorder: %w", err)
		}
		r.cursor = snaps[n-1].Tick + 1
		written += n
		snaps = snaps[n:]
		if r.onSave != nil {
			r.onSave(n)
		}
	}
	r.saved += written

	r.logger.Debug("snapshots persisted", "run", r.run.ID, "count", written, "next", r.cursor)
	return written, nil
}

func (r *Recorder) startRun(epoch uint64, ctx sim.Context) error {
	run, err := r.store.CreateRun(r.scenario, r.seed, epoch, ctx)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	if r.started {
		r.logger.Info("stream restarted, recording a new run", "previous", r.run.ID, "run", run.ID)
	} else {
		r.logger.Info("recording run", "run", run.ID, "scenario", r.scenario, "seed", r.seed)
	}

	r.started = true
	r.epoch = epoch
	r.cursor = 0
	r.run = run
	r.runs = append(r.runs, run)
	return nil
}

// Run drains the stream on every interval until ctx is done, then drains
// one last time so nothing appended before cancellation is lost.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_, err := r.Drain()
			return err
		case <-ticker.C:
			if _, err := r.Drain(); err != nil {
				return err
			}
		}
	}
}

// Current returns the run being recorded, if any.
func (r *Recorder) Current() (storage.Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run, r.started
}

// Runs returns every run started so far, oldest first.
func (r *Recorder) Runs() []storage.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]storage.Run, len(r.runs))
	copy(out, r.runs)
	return out
}

// Saved returns the total number of snapshots written.
func (r *Recorder) Saved() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved
}
