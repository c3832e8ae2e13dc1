package sim

import (
	"math"
	"sort"

	"github.com/vovakirdan/causal-sim/internal/core"
)

// Tolerance is the floating point slack used by the invariant checks.
const Tolerance = 1e-9

// StepStats counts the contacts resolved during one step.
type StepStats struct {
	Tick             uint64
	BoundaryContacts int
	StaticContacts   int
	MobileContacts   int
}

// Engine advances the world one tick at a time. It exclusively owns its
// objects; consumers read snapshots from the stream.
type Engine struct {
	ctx     Context
	rules   *RuleTable
	objects []*Object // sorted by ID
	speed   float64
	tick    uint64
	stream  *Stream
	stats   StepStats

	checkInvariants bool
	statics         map[ObjectID]core.Vec2 // initial static positions
	prev            []core.Vec2            // positions at the start of the step
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInvariantChecks verifies containment, overlap, static invariance and
// speed conservation after every step.
func WithInvariantChecks() EngineOption {
	return func(e *Engine) {
		e.checkInvariants = true
	}
}

// NewEngine validates the configuration, takes a private copy of the objects
// and appends the tick 0 snapshot to the stream. A nil stream gets a fresh
// unbounded one.
func NewEngine(ctx Context, rules *RuleTable, objects []*Object, speed float64, stream *Stream, opts ...EngineOption) (*Engine, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return nil, configErrorf("speed must be positive and finite, got %g", speed)
	}
	if rules == nil {
		return nil, configErrorf("rule table is required")
	}

	owned := make([]*Object, len(objects))
	seen := make(map[ObjectID]bool, len(objects))
	statics := make(map[ObjectID]core.Vec2)
	for i, o := range objects {
		if err := validateObject(ctx, o, speed); err != nil {
			return nil, err
		}
		if seen[o.ID] {
			return nil, configErrorf("duplicate object id %d", o.ID)
		}
		seen[o.ID] = true

		cp := *o
		if cp.Static {
			cp.Vel = core.Vec2{}
			statics[cp.ID] = cp.Pos
		}
		owned[i] = &cp
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })

	if err := validateLayout(owned); err != nil {
		return nil, err
	}
	if err := rules.Validate(owned); err != nil {
		return nil, err
	}

	if stream == nil {
		stream = NewStream(0)
	}

	e := &Engine{
		ctx:     ctx,
		rules:   rules,
		objects: owned,
		speed:   speed,
		stream:  stream,
		statics: statics,
		prev:    make([]core.Vec2, len(owned)),
	}
	for _, opt := range opts {
		opt(e)
	}

	stream.Append(e.snapshot())
	return e, nil
}

func validateObject(ctx Context, o *Object, speed float64) error {
	if o.Type == "" {
		return configErrorf("object %d has no type", o.ID)
	}
	if !(o.HalfExtent > 0) {
		return configErrorf("object %d (%s) must have a positive half extent, got %g", o.ID, o.Type, o.HalfExtent)
	}
	if o.HalfExtent >= ctx.Width || o.HalfExtent >= ctx.Height {
		return configErrorf("object %d (%s) half extent %g does not fit a %gx%g context",
			o.ID, o.Type, o.HalfExtent, ctx.Width, ctx.Height)
	}
	if !o.Pos.IsFinite() || !o.Vel.IsFinite() {
		return configErrorf("object %d (%s) has non-finite kinematics", o.ID, o.Type)
	}
	if !ctx.Contains(o, 0) {
		return configErrorf("object %d (%s) at (%g, %g) lies outside the context", o.ID, o.Type, o.Pos.X, o.Pos.Y)
	}
	if !o.Static && !speedMatches(o.Vel.Len(), speed) {
		return configErrorf("object %d (%s) has speed %g, expected %g", o.ID, o.Type, o.Vel.Len(), speed)
	}
	return nil
}

// validateLayout rejects initial layouts in which a mobile body overlaps
// another body. Static bodies may overlap each other.
func validateLayout(objects []*Object) error {
	for i, a := range objects {
		for _, b := range objects[i+1:] {
			if a.Static && b.Static {
				continue
			}
			if ox, oy := overlap(a, b); ox > Tolerance && oy > Tolerance {
				return configErrorf("objects %d (%s) and %d (%s) overlap in the initial layout",
					a.ID, a.Type, b.ID, b.Type)
			}
		}
	}
	return nil
}

// speedMatches reports whether l is within the invariant tolerance of speed.
func speedMatches(l, speed float64) bool {
	return math.Abs(l-speed) <= Tolerance*math.Max(1, speed)
}

// Context returns the space the engine simulates.
func (e *Engine) Context() Context {
	return e.ctx
}

// Tick returns the number of completed steps.
func (e *Engine) Tick() uint64 {
	return e.tick
}

// Speed returns the configured per-tick speed of mobile objects.
func (e *Engine) Speed() float64 {
	return e.speed
}

// Stream returns the stream snapshots are appended to.
func (e *Engine) Stream() *Stream {
	return e.stream
}

// Stats returns the contact counters of the most recent step.
func (e *Engine) Stats() StepStats {
	return e.stats
}

// Step runs the translation, boundary, static and mobile passes, appends the
// resulting snapshot to the stream and returns it. With invariant checks
// enabled a violation is returned and nothing is appended.
func (e *Engine) Step() (Snapshot, error) {
	e.stats = StepStats{Tick: e.tick + 1}
	for i, o := range e.objects {
		e.prev[i] = o.Pos
	}

	e.translate()
	e.resolveBoundaries()
	e.resolveStatic()
	e.resolveMobile()
	e.normalizeSpeeds()
	e.settle()

	e.tick++
	snap := e.snapshot()

	if e.checkInvariants {
		if err := e.verify(); err != nil {
			return snap, err
		}
	}

	e.stream.Append(snap)
	return snap, nil
}

// translate applies each mobile object's translation rule. Static objects
// are skipped entirely.
func (e *Engine) translate() {
	for _, o := range e.objects {
		if o.Static {
			continue
		}
		rule, _ := e.rules.Translation(o.Type)
		rule(o, e.ctx)
	}
}

// resolveBoundaries clamps mobile objects that reach an edge back inside and
// turns the velocity component on that axis inward.
func (e *Engine) resolveBoundaries() {
	for _, o := range e.objects {
		if o.Static {
			continue
		}
		hitX := e.clampX(o, true)
		hitY := e.clampY(o, true)
		if hitX || hitY {
			e.stats.BoundaryContacts++
		}
	}
}

// maxSettleRounds bounds the position-only relaxation in settle.
const maxSettleRounds = 64

// settle corrects positions only, leaving the velocities chosen by the
// earlier passes alone. Separation in the mobile pass may push a body back
// into a static one or past an edge, and pushing it out again may reopen an
// overlap with its partner; the rounds alternate the two corrections until
// nothing overlaps. A crowd the rounds cannot untangle is handed to restore.
func (e *Engine) settle() {
	for round := 0; round < maxSettleRounds; round++ {
		e.confine()
		if !e.separateMobile() {
			break
		}
	}
	e.confine()
	e.restore()
}

// confine moves mobile bodies out of static ones along the minimum
// translation axis and clamps them inside the context.
func (e *Engine) confine() {
	for _, o := range e.objects {
		if o.Static {
			continue
		}
		for _, s := range e.objects {
			if !s.Static {
				continue
			}
			for _, c := range staticContacts(o, s) {
				if c.Depth > Tolerance {
					o.Pos = o.Pos.Add(c.Normal.Scale(c.Depth))
				}
			}
		}
		e.clampX(o, false)
		e.clampY(o, false)
	}
}

// separateMobile pushes overlapping mobile pairs apart along the axis of
// smaller overlap without changing their velocities. A body that cannot give
// way without leaving the context or entering a static body stays put and its
// partner takes the whole push. It reports whether anything moved.
func (e *Engine) separateMobile() bool {
	moved := false
	for i, a := range e.objects {
		if a.Static {
			continue
		}
		for _, b := range e.objects[i+1:] {
			if b.Static {
				continue
			}
			ox, oy := overlap(a, b)
			if ox <= Tolerance || oy <= Tolerance {
				continue
			}

			d := a.Pos.Sub(b.Pos)
			rel := a.Vel.Sub(b.Vel)
			n, depth := core.V(awaySign(d.X, rel.X), 0), ox
			if oy < ox {
				n, depth = core.V(0, awaySign(d.Y, rel.Y)), oy
			}

			half := n.Scale(depth / 2)
			aFree := e.free(a, a.Pos.Add(half))
			bFree := e.free(b, b.Pos.Sub(half))
			switch {
			case aFree == bFree:
				a.Pos = a.Pos.Add(half)
				b.Pos = b.Pos.Sub(half)
			case aFree:
				a.Pos = a.Pos.Add(n.Scale(depth))
			default:
				b.Pos = b.Pos.Sub(n.Scale(depth))
			}
			moved = true
		}
	}
	return moved
}

// free reports whether o could sit at pos without leaving the context or
// overlapping a static body.
func (e *Engine) free(o *Object, pos core.Vec2) bool {
	at := *o
	at.Pos = pos
	if !e.ctx.Contains(&at, Tolerance) {
		return false
	}
	for _, s := range e.objects {
		if !s.Static {
			continue
		}
		if ox, oy := overlap(&at, s); ox > Tolerance && oy > Tolerance {
			return false
		}
	}
	return true
}

// restore moves every mobile body that still overlaps something, or has left
// the context, back to where it started the step. Its velocity keeps the
// bounces of this step. The starting positions overlap nothing, so each round
// restores at least one more body and the loop ends once no body is
// displaced from a clean position.
func (e *Engine) restore() {
	for {
		changed := false
		for i, o := range e.objects {
			if o.Static || o.Pos == e.prev[i] || e.placed(o) {
				continue
			}
			o.Pos = e.prev[i]
			changed = true
		}
		if !changed {
			return
		}
	}
}

// placed reports whether mobile o is inside the context and overlaps no
// other body beyond the tolerance.
func (e *Engine) placed(o *Object) bool {
	if !e.ctx.Contains(o, Tolerance) {
		return false
	}
	for _, other := range e.objects {
		if other == o {
			continue
		}
		if ox, oy := overlap(o, other); ox > Tolerance && oy > Tolerance {
			return false
		}
	}
	return true
}

// normalizeSpeeds removes the rounding error reflections about non-axis
// normals leave in a mobile speed. Larger deviations come from a rule and
// are left for the invariant check.
func (e *Engine) normalizeSpeeds() {
	for _, o := range e.objects {
		if o.Static {
			continue
		}
		l := o.Vel.Len()
		if l != e.speed && l > 0 && speedMatches(l, e.speed) {
			o.Vel = o.Vel.Scale(e.speed / l)
		}
	}
}

func (e *Engine) clampX(o *Object, reflect bool) bool {
	h := o.HalfExtent
	switch {
	case o.Pos.X-h <= 0:
		o.Pos.X = h
		if reflect {
			o.Vel.X = math.Abs(o.Vel.X)
		}
		return true
	case o.Pos.X+h >= e.ctx.Width:
		o.Pos.X = e.ctx.Width - h
		if reflect {
			o.Vel.X = -math.Abs(o.Vel.X)
		}
		return true
	}
	return false
}

func (e *Engine) clampY(o *Object, reflect bool) bool {
	h := o.HalfExtent
	switch {
	case o.Pos.Y-h <= 0:
		o.Pos.Y = h
		if reflect {
			o.Vel.Y = math.Abs(o.Vel.Y)
		}
		return true
	case o.Pos.Y+h >= e.ctx.Height:
		o.Pos.Y = e.ctx.Height - h
		if reflect {
			o.Vel.Y = -math.Abs(o.Vel.Y)
		}
		return true
	}
	return false
}

// resolveStatic handles every mobile object touching a static one, in
// ascending id order of the mobile object and then of the static one.
func (e *Engine) resolveStatic() {
	for _, m := range e.objects {
		if m.Static {
			continue
		}
		for _, s := range e.objects {
			if !s.Static {
				continue
			}
			contacts := staticContacts(m, s)
			if len(contacts) == 0 {
				continue
			}
			for _, c := range contacts {
				e.interact(m, s, c)
			}
			e.stats.StaticContacts++
		}
	}
}

// resolveMobile handles every touching pair of mobile objects in ascending
// pair order.
func (e *Engine) resolveMobile() {
	for i, a := range e.objects {
		if a.Static {
			continue
		}
		for _, b := range e.objects[i+1:] {
			if b.Static {
				continue
			}
			c, ok := mobileContact(a, b)
			if !ok {
				continue
			}
			e.interact(a, b, c)
			e.stats.MobileContacts++
		}
	}
}

// interact dispatches to the pair's rule. Static participants get a copy.
func (e *Engine) interact(a, b *Object, c Contact) {
	rule, swapped, _ := e.rules.Interaction(a.Type, b.Type)
	if swapped {
		a, b = b, a
		c = c.Flip()
	}
	rule(guard(a), guard(b), c)
}

func guard(o *Object) *Object {
	if !o.Static {
		return o
	}
	cp := *o
	return &cp
}

// staticContacts computes the minimum translation contact of mobile m against
// static s. The normal is the axis of smaller overlap, pointing toward m. An
// exact tie is a corner hit and yields one contact per axis, x first, so the
// rule turns both velocity components the way the boundary pass does at a
// corner of the context.
func staticContacts(m, s *Object) []Contact {
	ox, oy := overlap(m, s)
	if ox < 0 || oy < 0 {
		return nil
	}

	d := m.Pos.Sub(s.Pos)
	sx := awaySign(d.X, m.Vel.X)
	sy := awaySign(d.Y, m.Vel.Y)

	switch {
	case ox < oy:
		return []Contact{{Normal: core.V(sx, 0), Depth: ox}}
	case oy < ox:
		return []Contact{{Normal: core.V(0, sy), Depth: oy}}
	default:
		return []Contact{
			{Normal: core.V(sx, 0), Depth: ox},
			{Normal: core.V(0, sy), Depth: oy},
		}
	}
}

// mobileContact computes the contact between two mobile objects. The normal
// follows the line joining the centers; coincident centers fall back to the
// relative velocity and then to +x.
func mobileContact(a, b *Object) (Contact, bool) {
	ox, oy := overlap(a, b)
	if ox < 0 || oy < 0 {
		return Contact{}, false
	}

	n := a.Pos.Sub(b.Pos).Normalize()
	if n.IsZero() {
		n = b.Vel.Sub(a.Vel).Normalize()
	}
	if n.IsZero() {
		n = core.V(1, 0)
	}

	return Contact{Normal: n, Depth: separation(n, ox, oy)}, true
}

// separation returns the distance along unit normal n that clears an AABB
// overlap of (ox, oy): moving apart clears the boxes as soon as either axis
// stops overlapping.
func separation(n core.Vec2, ox, oy float64) float64 {
	depth := math.Inf(1)
	if n.X != 0 {
		depth = ox / math.Abs(n.X)
	}
	if n.Y != 0 {
		depth = math.Min(depth, oy/math.Abs(n.Y))
	}
	return depth
}

// awaySign returns the direction along an axis that points away from the
// other body. A zero offset falls back to the direction opposing the velocity.
func awaySign(d, v float64) float64 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	case v > 0:
		return -1
	default:
		return 1
	}
}

func (e *Engine) snapshot() Snapshot {
	states := make([]ObjectState, len(e.objects))
	for i, o := range e.objects {
		states[i] = o.State()
	}
	return Snapshot{Tick: e.tick, Context: e.ctx, Objects: states}
}
