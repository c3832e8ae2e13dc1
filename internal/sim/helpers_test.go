package sim

import (
	"testing"

	"github.com/vovakirdan/causal-sim/internal/core"
)

func mobile(id ObjectID, typ ObjectType, x, y, h, vx, vy float64) *Object {
	return &Object{ID: id, Type: typ, Pos: core.V(x, y), Vel: core.V(vx, vy), HalfExtent: h}
}

func static(id ObjectID, typ ObjectType, x, y, h float64) *Object {
	return &Object{ID: id, Type: typ, Pos: core.V(x, y), HalfExtent: h, Static: true}
}

// causalSetup is the reference layout: four walls at the edge midpoints, a
// center block and two mobile blocks.
func causalSetup(seed int64) Setup {
	wall := func(x, y float64) BodySpec {
		return BodySpec{Type: TypeWall, Pos: core.V(x, y), HalfExtent: 10, Static: true, Color: core.RGB{0, 255, 0}}
	}
	return Setup{
		Context: Context{Width: 1000, Height: 1000},
		Speed:   1,
		Bodies: []BodySpec{
			wall(500, 10),
			wall(500, 990),
			wall(10, 500),
			wall(990, 500),
			{Type: TypeCenterBlock, Pos: core.V(500, 500), HalfExtent: 25, Static: true, Color: core.RGB{128, 128, 128}},
			{Type: TypeRedBlock, Pos: core.V(100, 100), HalfExtent: 15, Color: core.RGB{255, 0, 0}},
			{Type: TypeBlueBlock, Pos: core.V(900, 900), HalfExtent: 15, Color: core.RGB{0, 0, 255}},
		},
		Seed:            seed,
		CheckInvariants: true,
	}
}

func newTestEngine(t *testing.T, ctx Context, speed float64, objects ...*Object) *Engine {
	t.Helper()
	e, err := NewEngine(ctx, DefaultRules(objects), objects, speed, nil, WithInvariantChecks())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func mustStep(t *testing.T, e *Engine, n int) Snapshot {
	t.Helper()
	var snap Snapshot
	for i := 0; i < n; i++ {
		var err error
		snap, err = e.Step()
		if err != nil {
			t.Fatalf("Step() at tick %d error = %v", e.Tick(), err)
		}
	}
	return snap
}

func mustObject(t *testing.T, snap Snapshot, id ObjectID) ObjectState {
	t.Helper()
	o, ok := snap.Object(id)
	if !ok {
		t.Fatalf("object %d missing from snapshot at tick %d", id, snap.Tick)
	}
	return o
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func approxVec(a, b core.Vec2) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y)
}
