package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Distance(t *testing.T) {
	got := Vec2{1, 1}.Distance(Vec2{4, 5})
	if got != 5 {
		t.Errorf("Vec2.Distance() = %v, want 5", got)
	}
}

func TestVec2FloorDiv(t *testing.T) {
	tests := []struct {
		pos   Vec2
		size  float32
		wantX int
		wantY int
	}{
		{Vec2{0, 0}, 2000, 0, 0},
		{Vec2{1999, 2000}, 2000, 0, 1},
		{Vec2{-1, -2001}, 2000, -1, -2},
		{Vec2{4500, 100}, 2000, 2, 0},
	}
	for _, tt := range tests {
		x, y := tt.pos.FloorDiv(tt.size)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("FloorDiv(%v, %v) = (%d,%d), want (%d,%d)", tt.pos, tt.size, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	if got != UnitZ {
		t.Errorf("Vec3.Cross() = %v, want %v", got, UnitZ)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("expected zero vector to normalize to zero")
	}
}
