package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/terrastream/pkg/math"
)

func TestFlyCameraAxes(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 100)
	c.Pitch = 0

	f := c.Forward()
	if !near(f.X, 0) || !near(f.Y, 1) || !near(f.Z, 0) {
		t.Errorf("expected forward +Y, got %+v", f)
	}
	r := c.Right()
	if !near(r.X, 1) || !near(r.Y, 0) || !near(r.Z, 0) {
		t.Errorf("expected right +X, got %+v", r)
	}
	if d := f.Dot(r); !near(d, 0) {
		t.Errorf("expected forward and right to be orthogonal, got dot %v", d)
	}
}

func TestFlyCameraMovement(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 10, Y: 10, Z: 100}, 100)
	c.Pitch = 0

	c.HandleMovement(1, 0, 0, 0.5, false)
	if !near(c.Position.Y, 60) || !near(c.Position.X, 10) {
		t.Errorf("expected to move 50 units along +Y, got %+v", c.Position)
	}

	c.HandleMovement(0, 0, 1, 1, true)
	if !near(c.Position.Z, 500) {
		t.Errorf("expected boosted climb to Z=500, got %v", c.Position.Z)
	}

	// Diagonal input is not faster than a single axis.
	start := c.Position
	c.HandleMovement(1, 1, 0, 1, false)
	if d := c.Position.Sub(start).Length(); !near(d, 100) {
		t.Errorf("expected diagonal move of 100 units, got %v", d)
	}
}

func TestFlyCameraPitchClamp(t *testing.T) {
	c := NewFlyCamera(math.Vec3{}, 100)
	c.HandleLook(0, -100000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MaxPitch, c.Pitch)
	}
	c.HandleLook(0, 100000)
	if c.Pitch != c.MinPitch {
		t.Errorf("expected pitch clamped to %v, got %v", c.MinPitch, c.Pitch)
	}

	yaw := c.Yaw
	c.HandleLook(100, 0)
	if c.Yaw >= yaw {
		t.Errorf("expected moving the mouse right to turn clockwise, yaw %v -> %v", yaw, c.Yaw)
	}
}

func TestFlyCameraKeepAbove(t *testing.T) {
	c := NewFlyCamera(math.Vec3{Z: 50}, 100)

	if c.KeepAbove(10) {
		t.Error("expected no correction when already above ground")
	}
	if !c.KeepAbove(100) {
		t.Fatal("expected correction below ground")
	}
	if want := 100 + c.ClearanceAboveGround; c.Position.Z != want {
		t.Errorf("expected Z %v, got %v", want, c.Position.Z)
	}
}

func TestFlyCameraViewMatrix(t *testing.T) {
	c := NewFlyCamera(math.Vec3{X: 5, Y: 5, Z: 5}, 100)
	view := c.ViewMatrix()

	// The camera position maps to the view-space origin.
	p := view.TransformVec3(c.Position)
	if !near(p.X, 0) || !near(p.Y, 0) || !near(p.Z, 0) {
		t.Errorf("expected eye at origin, got %+v", p)
	}

	// A point ahead of the camera lies on the -Z view axis.
	ahead := view.TransformVec3(c.Position.Add(c.Forward().Scale(10)))
	if !near(ahead.X, 0) || !near(ahead.Y, 0) || !near(ahead.Z, -10) {
		t.Errorf("expected point ahead at (0,0,-10), got %+v", ahead)
	}
}

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}
