package sim

import (
	"errors"
	"testing"

	"github.com/vovakirdan/causal-sim/internal/core"
)

func TestSetupObjects(t *testing.T) {
	setup := causalSetup(3)
	objects, err := setup.Objects(setup.NewRand())
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}

	if len(objects) != len(setup.Bodies) {
		t.Fatalf("got %d objects, want %d", len(objects), len(setup.Bodies))
	}
	for i, o := range objects {
		if o.ID != ObjectID(i+1) {
			t.Errorf("object %d has id %d", i, o.ID)
		}
		if o.Static {
			if !o.Vel.IsZero() {
				t.Errorf("static object %d has velocity %v", o.ID, o.Vel)
			}
			continue
		}
		if !approx(o.Vel.Len(), setup.Speed) {
			t.Errorf("object %d speed = %g, want %g", o.ID, o.Vel.Len(), setup.Speed)
		}
	}
}

func TestSetupSeedIsReproducible(t *testing.T) {
	a := causalSetup(11)
	b := causalSetup(11)
	oa, _ := a.Objects(a.NewRand())
	ob, _ := b.Objects(b.NewRand())

	for i := range oa {
		if oa[i].Vel != ob[i].Vel {
			t.Errorf("object %d velocity differs: %v vs %v", oa[i].ID, oa[i].Vel, ob[i].Vel)
		}
	}
}

func TestSetupExplicitVelocity(t *testing.T) {
	vel := core.V(3, 4)
	setup := Setup{
		Context: Context{Width: 100, Height: 100},
		Speed:   2,
		Bodies:  []BodySpec{{Type: TypeRedBlock, Pos: core.V(50, 50), HalfExtent: 5, Vel: &vel}},
	}
	objects, err := setup.Objects(setup.NewRand())
	if err != nil {
		t.Fatalf("Objects() error = %v", err)
	}
	if !approxVec(objects[0].Vel, core.V(1.2, 1.6)) {
		t.Errorf("velocity = %v, want (1.2, 1.6)", objects[0].Vel)
	}
}

func TestSetupErrors(t *testing.T) {
	zero := core.V(0, 0)
	tests := []struct {
		name  string
		setup Setup
	}{
		{
			name: "zero speed",
			setup: Setup{
				Context: Context{Width: 100, Height: 100},
				Bodies:  []BodySpec{{Type: TypeRedBlock, Pos: core.V(50, 50), HalfExtent: 5}},
			},
		},
		{
			name: "zero explicit velocity",
			setup: Setup{
				Context: Context{Width: 100, Height: 100},
				Speed:   1,
				Bodies:  []BodySpec{{Type: TypeRedBlock, Pos: core.V(50, 50), HalfExtent: 5, Vel: &zero}},
			},
		},
		{
			name: "body outside",
			setup: Setup{
				Context: Context{Width: 100, Height: 100},
				Speed:   1,
				Bodies:  []BodySpec{{Type: TypeRedBlock, Pos: core.V(150, 50), HalfExtent: 5}},
			},
		},
		{
			name: "invalid context",
			setup: Setup{
				Context: Context{Width: -1, Height: 100},
				Speed:   1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.setup.Build(tt.setup.NewRand(), nil)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Build() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestSetupTunneling(t *testing.T) {
	setup := Setup{
		Speed: 5,
		Bodies: []BodySpec{
			{Type: TypeWall, HalfExtent: 2, Static: true},
			{Type: TypeRedBlock, HalfExtent: 4},
			{Type: TypeBlueBlock, HalfExtent: 10},
		},
	}
	got := setup.Tunneling()
	if len(got) != 1 || got[0].Type != TypeRedBlock {
		t.Errorf("Tunneling() = %+v, want only the red block", got)
	}
}
