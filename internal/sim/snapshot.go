package sim

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/vovakirdan/causal-sim/internal/core"
)

// ObjectState is a read-only copy of an Object at one tick. The JSON field
// names form the persisted training-data contract and must stay stable.
type ObjectState struct {
	ID         ObjectID   `json:"id"`
	Type       ObjectType `json:"type"`
	Position   core.Vec2  `json:"position"`
	Velocity   core.Vec2  `json:"velocity"`
	HalfExtent float64    `json:"half_extent"`
	Size       float64    `json:"size"`
	IsStatic   bool       `json:"is_static"`
	Color      core.RGB   `json:"color"`
}

// Bounds returns the AABB as (minX, minY, maxX, maxY).
func (s ObjectState) Bounds() (minX, minY, maxX, maxY float64) {
	h := s.HalfExtent
	return s.Position.X - h, s.Position.Y - h, s.Position.X + h, s.Position.Y + h
}

// Snapshot is the immutable world state after one tick. It shares nothing
// with the engine, and the stream only hands out copies, so consumers may
// keep and even modify it without affecting anyone else.
type Snapshot struct {
	Tick    uint64        `json:"tick"`
	Context Context       `json:"context"`
	Objects []ObjectState `json:"objects"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	if s.Objects != nil {
		s.Objects = append([]ObjectState(nil), s.Objects...)
	}
	return s
}

// Object returns the state of the object with the given id.
func (s Snapshot) Object(id ObjectID) (ObjectState, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectState{}, false
}

// Mobile returns the states of the non-static objects, in id order.
func (s Snapshot) Mobile() []ObjectState {
	var out []ObjectState
	for _, o := range s.Objects {
		if !o.IsStatic {
			out = append(out, o)
		}
	}
	return out
}

// Hash returns an xxhash digest of the snapshot for determinism checks.
// Floats are hashed by their bit patterns, so equal hashes mean identical
// trajectories rather than merely close ones.
func (s Snapshot) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		//nolint:errcheck // xxhash.Digest.Write never fails
		d.Write(buf[:])
	}
	putF64 := func(v float64) {
		putU64(math.Float64bits(v))
	}

	putU64(s.Tick)
	putF64(s.Context.Width)
	putF64(s.Context.Height)
	for _, o := range s.Objects {
		putU64(uint64(o.ID))
		//nolint:errcheck // xxhash.Digest.WriteString never fails
		d.WriteString(string(o.Type))
		putF64(o.Position.X)
		putF64(o.Position.Y)
		putF64(o.Velocity.X)
		putF64(o.Velocity.Y)
		putF64(o.HalfExtent)
		if o.IsStatic {
			putU64(1)
		} else {
			putU64(0)
		}
		//nolint:errcheck // xxhash.Digest.Write never fails
		d.Write(o.Color[:])
	}
	return d.Sum64()
}
