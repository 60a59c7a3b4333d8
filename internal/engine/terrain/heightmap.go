package terrain

import "github.com/Faultbox/terrastream/internal/config"

// GroundHeightAt returns the interpolated ground height at a sector-local
// position. Positions outside the sector are clamped to its edge. ok is
// false when the render data holds no ground grid.
func (d *SectorRenderData) GroundHeightAt(localX, localY float32) (height float32, ok bool) {
	n := d.Cells
	if n <= 0 || d.CellSize <= 0 || len(d.Ground.Vertices) == 0 {
		return 0, false
	}

	cellFX := clampf(localX/d.CellSize, 0, float32(n))
	cellFY := clampf(localY/d.CellSize, 0, float32(n))

	cellX := int(cellFX)
	cellY := int(cellFY)
	if cellX > n-1 {
		cellX = n - 1
	}
	if cellY > n-1 {
		cellY = n - 1
	}

	fracX := clampf(cellFX-float32(cellX), 0, 1)
	fracY := clampf(cellFY-float32(cellY), 0, 1)

	// Corners: 0=(x,y) 1=(x+1,y) 2=(x+1,y+1) 3=(x,y+1)
	var corners [4]uint32
	if d.Layout == config.LayoutQuad {
		base := uint32((cellY*n + cellX) * 4)
		corners = [4]uint32{base, base + 1, base + 2, base + 3}
	} else {
		side := n + 1
		v00 := uint32(cellY*side + cellX)
		corners = [4]uint32{v00, v00 + 1, v00 + uint32(side) + 1, v00 + uint32(side)}
	}
	for _, c := range corners {
		if int(c) >= len(d.Ground.Vertices) {
			return 0, false
		}
	}

	v := d.Ground.Vertices
	south := v[corners[0]].Z*(1-fracX) + v[corners[1]].Z*fracX
	north := v[corners[3]].Z*(1-fracX) + v[corners[2]].Z*fracX
	return south*(1-fracY) + north*fracY, true
}

// BiomeAt returns the primary biome rendered at a sector-local position:
// the nearest grid vertex in the shared layout, the containing cell in
// the quad layout. Positions outside the sector are clamped to its edge.
func (d *SectorRenderData) BiomeAt(localX, localY float32) (uint8, bool) {
	n := d.Cells
	if n <= 0 || d.CellSize <= 0 {
		return 0, false
	}
	fx := clampf(localX/d.CellSize, 0, float32(n))
	fy := clampf(localY/d.CellSize, 0, float32(n))

	var i int
	if d.Layout == config.LayoutQuad {
		cx, cy := int(fx), int(fy)
		if cx > n-1 {
			cx = n - 1
		}
		if cy > n-1 {
			cy = n - 1
		}
		i = (cy*n + cx) * 4
	} else {
		i = int(fy+0.5)*(n+1) + int(fx+0.5)
	}
	if i >= len(d.Ground.PrimaryBiome) {
		return 0, false
	}
	return d.Ground.PrimaryBiome[i], true
}

func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
