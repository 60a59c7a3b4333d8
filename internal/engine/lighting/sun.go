// Package lighting provides lighting parameters for terrain rendering.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/terrastream/pkg/math"
)

// SunDirection converts azimuth/elevation angles in degrees into a unit
// vector pointing towards the sun. Terrain space is Z-up: azimuth turns
// counter-clockwise from +X around Z, elevation rises from the XY plane.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := float64(azimuth) * gomath.Pi / 180.0
	el := float64(elevation) * gomath.Pi / 180.0

	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Cos(az)),
		Y: float32(gomath.Cos(el) * gomath.Sin(az)),
		Z: float32(gomath.Sin(el)),
	}
}

// Sun holds the directional light used by the sector shaders.
type Sun struct {
	Direction math.Vec3
	Ambient   [3]float32
	Diffuse   [3]float32
}

// NewSun returns a sun at the given angles. A low sun gets a warmer
// diffuse and a dimmer ambient term.
func NewSun(azimuth, elevation float32) Sun {
	dir := SunDirection(azimuth, elevation)
	height := dir.Z
	if height < 0 {
		height = 0
	}
	return Sun{
		Direction: dir,
		Ambient:   [3]float32{0.25 + 0.15*height, 0.25 + 0.15*height, 0.3 + 0.15*height},
		Diffuse:   [3]float32{0.9, 0.8 + 0.15*height, 0.7 + 0.25*height},
	}
}
