package core

import (
	"math"
	"testing"
)

const eps = 1e-12

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestVecArithmetic(t *testing.T) {
	a := V(3, 4)
	b := V(1, -2)

	if got := a.Add(b); got != V(4, 2) {
		t.Errorf("Add() = %v, expected (4, 2)", got)
	}
	if got := a.Sub(b); got != V(2, 6) {
		t.Errorf("Sub() = %v, expected (2, 6)", got)
	}
	if got := a.Scale(2); got != V(6, 8) {
		t.Errorf("Scale() = %v, expected (6, 8)", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot() = %v, expected -5", got)
	}
	if got := a.Len(); got != 5 {
		t.Errorf("Len() = %v, expected 5", got)
	}
	if got := a.Neg(); got != V(-3, -4) {
		t.Errorf("Neg() = %v, expected (-3, -4)", got)
	}
}

func TestVecNormalize(t *testing.T) {
	n := V(3, 4).Normalize()
	if !near(n.X, 0.6) || !near(n.Y, 0.8) {
		t.Errorf("Normalize() = %v, expected (0.6, 0.8)", n)
	}

	if z := (Vec2{}).Normalize(); !z.IsZero() {
		t.Errorf("zero vector should normalize to zero, got %v", z)
	}
}

func TestVecReflect(t *testing.T) {
	tests := []struct {
		name     string
		v, n     Vec2
		expected Vec2
	}{
		{"head on x", V(1, 0), V(-1, 0), V(-1, 0)},
		{"tangent preserved", V(1, 1), V(0, 1), V(1, -1)},
		{"parallel to surface", V(1, 0), V(0, 1), V(1, 0)},
		{"diagonal normal", V(1, 0), V(-1, 1).Normalize(), V(0, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.v.Reflect(tc.n)
			if !near(got.X, tc.expected.X) || !near(got.Y, tc.expected.Y) {
				t.Errorf("Reflect() = %v, expected %v", got, tc.expected)
			}
			if !near(got.Len(), tc.v.Len()) {
				t.Errorf("Reflect() changed magnitude: %v -> %v", tc.v.Len(), got.Len())
			}
		})
	}
}

func TestVecFinite(t *testing.T) {
	if !V(1, 2).IsFinite() {
		t.Error("(1, 2) should be finite")
	}
	if V(math.NaN(), 0).IsFinite() {
		t.Error("NaN component should not be finite")
	}
	if V(0, math.Inf(1)).IsFinite() {
		t.Error("Inf component should not be finite")
	}
}

func TestFromAngle(t *testing.T) {
	v := FromAngle(math.Pi/2, 2)
	if !near(v.X, 0) || !near(v.Y, 2) {
		t.Errorf("FromAngle(pi/2, 2) = %v, expected (0, 2)", v)
	}
}
