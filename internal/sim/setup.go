package sim

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/causal-sim/internal/core"
)

// BodySpec describes one body of an initial layout.
type BodySpec struct {
	Type       ObjectType
	Pos        core.Vec2
	HalfExtent float64
	Static     bool
	Color      core.RGB

	// Vel optionally fixes the initial direction of a mobile body. It is
	// rescaled to the configured speed. Nil picks a random direction.
	Vel *core.Vec2
}

// Setup is everything needed to create a simulation from scratch. A setup
// can be built any number of times; each build draws fresh random
// directions for mobile bodies without an explicit velocity.
type Setup struct {
	Context Context
	Speed   float64
	Bodies  []BodySpec

	// Rules defaults to DefaultRules over the built objects when nil.
	Rules *RuleTable

	Seed            int64
	History         int // stream retention, 0 keeps everything
	CheckInvariants bool
}

// NewRand returns the random source a clock uses for this setup.
func (s Setup) NewRand() *rand.Rand {
	return rand.New(rand.NewSource(s.Seed))
}

// Objects creates the objects of the layout. Ids are assigned from 1 in
// layout order. Static bodies get a zero velocity, mobile ones a velocity of
// magnitude Speed.
func (s Setup) Objects(rng *rand.Rand) ([]*Object, error) {
	if !(s.Speed > 0) || math.IsInf(s.Speed, 0) {
		return nil, configErrorf("speed must be positive and finite, got %g", s.Speed)
	}

	objects := make([]*Object, 0, len(s.Bodies))
	for i, b := range s.Bodies {
		o := &Object{
			ID:         ObjectID(i + 1),
			Type:       b.Type,
			Pos:        b.Pos,
			HalfExtent: b.HalfExtent,
			Static:     b.Static,
			Color:      b.Color,
		}
		if !b.Static {
			v, err := s.initialVelocity(o, b.Vel, rng)
			if err != nil {
				return nil, err
			}
			o.Vel = v
		}
		objects = append(objects, o)
	}
	return objects, nil
}

func (s Setup) initialVelocity(o *Object, vel *core.Vec2, rng *rand.Rand) (core.Vec2, error) {
	if vel == nil {
		return core.FromAngle(rng.Float64()*2*math.Pi, s.Speed), nil
	}
	if !vel.IsFinite() || vel.IsZero() {
		return core.Vec2{}, configErrorf("object %d (%s) has an unusable initial velocity (%g, %g)",
			o.ID, o.Type, vel.X, vel.Y)
	}
	return vel.Normalize().Scale(s.Speed), nil
}

// Build validates the setup and returns an engine appending to stream.
func (s Setup) Build(rng *rand.Rand, stream *Stream) (*Engine, error) {
	if err := s.Context.Validate(); err != nil {
		return nil, err
	}
	objects, err := s.Objects(rng)
	if err != nil {
		return nil, err
	}

	rules := s.Rules
	if rules == nil {
		rules = DefaultRules(objects)
	}

	var opts []EngineOption
	if s.CheckInvariants {
		opts = append(opts, WithInvariantChecks())
	}
	return NewEngine(s.Context, rules, objects, s.Speed, stream, opts...)
}

// Tunneling reports the mobile bodies whose half extent does not exceed the
// per-tick displacement. Such bodies can pass through a thin obstacle between
// two ticks; the engine does not guard against it.
func (s Setup) Tunneling() []BodySpec {
	var out []BodySpec
	for _, b := range s.Bodies {
		if !b.Static && b.HalfExtent <= s.Speed {
			out = append(out, b)
		}
	}
	return out
}
