// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/Faultbox/terrastream/pkg/math"
)

// FlyCamera is a free-flying first-person camera in Z-up terrain space.
// Its position is the observer the sector streamer follows.
type FlyCamera struct {
	Position math.Vec3

	Yaw   float32 // radians, counter-clockwise from +X around Z
	Pitch float32 // radians, positive looks up

	MinPitch float32
	MaxPitch float32

	// Speed is in world units per second; Boost multiplies it.
	Speed                float32
	Boost                float32
	LookSensitivity      float32
	ClearanceAboveGround float32
}

// NewFlyCamera creates a fly camera at pos looking along +Y.
func NewFlyCamera(pos math.Vec3, speed float32) *FlyCamera {
	return &FlyCamera{
		Position:             pos,
		Yaw:                  gomath.Pi / 2,
		Pitch:                -0.3,
		MinPitch:             -1.5,
		MaxPitch:             1.5,
		Speed:                speed,
		Boost:                4,
		LookSensitivity:      0.003,
		ClearanceAboveGround: 20,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	return math.Vec3{
		X: cp * float32(gomath.Cos(float64(c.Yaw))),
		Y: cp * float32(gomath.Sin(float64(c.Yaw))),
		Z: float32(gomath.Sin(float64(c.Pitch))),
	}
}

// Right returns the unit right direction on the XY plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{
		X: float32(gomath.Sin(float64(c.Yaw))),
		Y: float32(-gomath.Cos(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Position.Add(c.Forward()), math.UnitZ)
}

// HandleLook turns the camera by a mouse delta in pixels.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity

	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleMovement moves the camera. forward and right follow the view
// direction, up is along +Z. Each axis is -1..1.
func (c *FlyCamera) HandleMovement(forward, right, up float32, dt float32, boost bool) {
	speed := c.Speed * dt
	if boost {
		speed *= c.Boost
	}
	move := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(math.UnitZ.Scale(up))
	if move.Length() > 1 {
		move = move.Normalize()
	}
	c.Position = c.Position.Add(move.Scale(speed))
}

// KeepAbove lifts the camera so it stays ClearanceAboveGround over ground.
// It reports whether the camera moved.
func (c *FlyCamera) KeepAbove(ground float32) bool {
	floor := ground + c.ClearanceAboveGround
	if c.Position.Z >= floor {
		return false
	}
	c.Position.Z = floor
	return true
}
