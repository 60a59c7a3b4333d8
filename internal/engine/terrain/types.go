// Package terrain builds render data for streamed terrain sectors.
package terrain

import (
	"fmt"

	"github.com/Faultbox/terrastream/pkg/math"
)

// SectorCoordinate identifies a sector on the world grid.
type SectorCoordinate struct {
	X, Y int
}

func (c SectorCoordinate) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// MeshRenderData is one surface of a sector, ready for a geometry realizer.
// Positions are local to the sector origin with Z up. Indices form a
// counter-clockwise triangle list when viewed from +Z.
//
// Boundary, PrimaryBiome and SecondaryBiome are optional; when present
// they are parallel to Vertices.
type MeshRenderData struct {
	Vertices []math.Vec3
	Indices  []uint32
	UVs      []math.Vec2
	Colors   [][4]float32

	Boundary       []bool
	PrimaryBiome   []uint8
	SecondaryBiome []uint8
}

// VertexCount returns the number of vertices.
func (m *MeshRenderData) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *MeshRenderData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Check reports the first violated structural invariant, if any.
func (m *MeshRenderData) Check() error {
	n := len(m.Vertices)
	if len(m.UVs) != n {
		return fmt.Errorf("uv count %d does not match vertex count %d", len(m.UVs), n)
	}
	if len(m.Colors) != n {
		return fmt.Errorf("color count %d does not match vertex count %d", len(m.Colors), n)
	}
	if m.Boundary != nil && len(m.Boundary) != n {
		return fmt.Errorf("boundary count %d does not match vertex count %d", len(m.Boundary), n)
	}
	if m.PrimaryBiome != nil && len(m.PrimaryBiome) != n {
		return fmt.Errorf("primary biome count %d does not match vertex count %d", len(m.PrimaryBiome), n)
	}
	if m.SecondaryBiome != nil && len(m.SecondaryBiome) != n {
		return fmt.Errorf("secondary biome count %d does not match vertex count %d", len(m.SecondaryBiome), n)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("index %d at %d out of range for %d vertices", idx, i, n)
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *MeshRenderData) Bounds() Bounds {
	b := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, v := range m.Vertices {
		updateBounds(&b, [3]float32{v.X, v.Y, v.Z})
	}
	return b
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// SectorRenderData holds the ground and water surfaces of one sector.
type SectorRenderData struct {
	Coordinate SectorCoordinate
	Origin     math.Vec2 // world position of local (0, 0)
	CellSize   float32
	Cells      int // cells per side
	Layout     string

	Ground MeshRenderData
	Water  MeshRenderData
}

// Check validates both surfaces.
func (d *SectorRenderData) Check() error {
	if err := d.Ground.Check(); err != nil {
		return fmt.Errorf("ground: %w", err)
	}
	if err := d.Water.Check(); err != nil {
		return fmt.Errorf("water: %w", err)
	}
	return nil
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
