package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// State is the lifecycle state of a Clock.
type State int

const (
	StateInitialized State = iota
	StateRunning
	StatePaused
	StateRestarting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateRestarting:
		return "restarting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Observer is notified after every successful step.
type Observer func(snap Snapshot, stats StepStats)

// Clock gates stepping. It owns the engine and the stream, and serializes
// control calls with steps: a pause or stop takes effect between ticks,
// never inside one. Invalid transitions are ignored and reported as false.
type Clock struct {
	mu       sync.Mutex
	state    State
	setup    Setup
	rng      *rand.Rand
	engine   *Engine
	stream   *Stream
	observer Observer
	err      error
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithObserver registers a callback invoked after every step.
func WithObserver(fn Observer) ClockOption {
	return func(c *Clock) {
		c.observer = fn
	}
}

// NewClock builds the initial world from setup. The tick 0 snapshot is
// already in the stream when NewClock returns.
func NewClock(setup Setup, opts ...ClockOption) (*Clock, error) {
	c := &Clock{
		setup:  setup,
		rng:    setup.NewRand(),
		stream: NewStream(setup.History),
	}
	for _, opt := range opts {
		opt(c)
	}

	engine, err := setup.Build(c.rng, c.stream)
	if err != nil {
		return nil, err
	}
	c.engine = engine
	return c, nil
}

// State returns the current lifecycle state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stream returns the snapshot stream. It survives restarts.
func (c *Clock) Stream() *Stream {
	return c.stream
}

// Setup returns the setup the clock builds worlds from.
func (c *Clock) Setup() Setup {
	return c.setup
}

// Tick returns the current tick of the world.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Tick()
}

// Err returns the error that stopped the clock, if any.
func (c *Clock) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Start begins stepping a freshly initialized world.
func (c *Clock) Start() bool {
	return c.transition(StateRunning, StateInitialized)
}

// Pause suspends stepping.
func (c *Clock) Pause() bool {
	return c.transition(StatePaused, StateRunning)
}

// Resume continues a paused world.
func (c *Clock) Resume() bool {
	return c.transition(StateRunning, StatePaused)
}

// Toggle pauses a running clock and resumes a paused one.
func (c *Clock) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning:
		c.state = StatePaused
	case StatePaused:
		c.state = StateRunning
	default:
		return false
	}
	return true
}

// Stop ends the clock for good.
func (c *Clock) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return false
	}
	c.state = StateStopped
	return true
}

// Restart discards the world and its history and builds a new one from the
// setup with fresh random directions. The clock ends up Initialized and
// must be started again. A build failure stops the clock.
func (c *Clock) Restart() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning && c.state != StatePaused {
		return false, nil
	}
	c.state = StateRestarting

	c.stream.Reset()
	engine, err := c.setup.Build(c.rng, c.stream)
	if err != nil {
		c.state = StateStopped
		c.err = err
		return false, err
	}
	c.engine = engine
	c.state = StateInitialized
	return true, nil
}

// Advance steps the world once if the clock is running. An invariant
// violation stops the clock and is returned.
func (c *Clock) Advance() (Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return Snapshot{}, false, nil
	}

	snap, err := c.engine.Step()
	if err != nil {
		c.state = StateStopped
		c.err = err
		return snap, false, err
	}
	if c.observer != nil {
		c.observer(snap, c.engine.Stats())
	}
	return snap, true, nil
}

// Run advances the clock on every interval until it is stopped, a step
// fails or ctx is done. Paused and initialized clocks keep waiting.
func (c *Clock) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := c.Advance(); err != nil {
				return err
			}
			if c.State() == StateStopped {
				return nil
			}
		}
	}
}

func (c *Clock) transition(to State, from State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != from {
		return false
	}
	c.state = to
	return true
}
