// Package picking casts rays from the camera onto the terrain.
package picking

import (
	gomath "math"

	"github.com/Faultbox/terrastream/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // normalized
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Lens describes a perspective camera without building matrices.
type Lens struct {
	Position math.Vec3
	Forward  math.Vec3 // unit view direction
	Right    math.Vec3 // unit, perpendicular to Forward
	FOV      float32   // vertical, degrees
	Width    float32   // viewport pixels
	Height   float32
}

// ScreenToRay converts pixel coordinates (origin top-left) to a world ray.
func ScreenToRay(screenX, screenY float32, lens Lens) Ray {
	ndcX := 2.0*screenX/lens.Width - 1.0
	ndcY := 1.0 - 2.0*screenY/lens.Height // Flip Y

	tanHalf := float32(gomath.Tan(float64(lens.FOV) * gomath.Pi / 360))
	aspect := lens.Width / lens.Height
	up := lens.Right.Cross(lens.Forward)

	dir := lens.Forward.
		Add(lens.Right.Scale(ndcX * tanHalf * aspect)).
		Add(up.Scale(ndcY * tanHalf))
	return Ray{Origin: lens.Position, Direction: dir.Normalize()}
}

// IntersectPlaneZ intersects the ray with the horizontal plane Z = level.
func (r Ray) IntersectPlaneZ(level float32) (math.Vec3, bool) {
	if gomath.Abs(float64(r.Direction.Z)) < 1e-6 {
		return math.Vec3{}, false // parallel
	}
	t := (level - r.Origin.Z) / r.Direction.Z
	if t < 0 {
		return math.Vec3{}, false // behind the origin
	}
	return r.At(t), true
}

// HeightFunc returns the ground height at a world position, or false
// where no height is known.
type HeightFunc func(x, y float32) (float32, bool)

// MarchHeightField steps along the ray until it passes below the ground,
// then bisects the last step. Positions without known height are skipped.
// It returns false when nothing is hit within maxDistance.
func (r Ray) MarchHeightField(height HeightFunc, step, maxDistance float32) (math.Vec3, bool) {
	if step <= 0 {
		return math.Vec3{}, false
	}

	var prev float32
	for t := float32(0); t <= maxDistance; t += step {
		p := r.At(t)
		ground, ok := height(p.X, p.Y)
		if !ok {
			prev = t
			continue
		}
		if p.Z > ground {
			prev = t
			continue
		}
		if t == 0 {
			return p, true
		}
		return r.bisect(height, prev, t), true
	}
	return math.Vec3{}, false
}

// bisect narrows [above, below] to the ground crossing.
func (r Ray) bisect(height HeightFunc, above, below float32) math.Vec3 {
	for i := 0; i < 16; i++ {
		mid := (above + below) / 2
		p := r.At(mid)
		ground, ok := height(p.X, p.Y)
		if ok && p.Z <= ground {
			below = mid
		} else {
			above = mid
		}
	}
	return r.At(below)
}
