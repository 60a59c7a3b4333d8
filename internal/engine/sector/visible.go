package sector

import "github.com/Faultbox/terrastream/pkg/math"

// ObserverSector returns the sector containing a world position. The
// result may lie outside the world.
func ObserverSector(pos math.Vec2, sectorSize float32) Coordinate {
	if sectorSize <= 0 {
		return Coordinate{}
	}
	x, y := pos.FloorDiv(sectorSize)
	return Coordinate{X: x, Y: y}
}

// VisibleSet returns every coordinate within Chebyshev distance radius of
// center that lies in [0, worldSize) on both axes, in row-major order.
// Out-of-world neighbours are skipped, not clamped.
func VisibleSet(center Coordinate, radius, worldSize int) []Coordinate {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	out := make([]Coordinate, 0, side*side)
	for dy := -radius; dy <= radius; dy++ {
		y := center.Y + dy
		if y < 0 || y >= worldSize {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := center.X + dx
			if x < 0 || x >= worldSize {
				continue
			}
			out = append(out, Coordinate{X: x, Y: y})
		}
	}
	return out
}

func chebyshev(a, b Coordinate) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}
