package terrain

import "github.com/Faultbox/terrastream/pkg/math"

// VertexFloats is the number of float32s per interleaved vertex:
// position (3), normal (3), uv (2), color (4).
const VertexFloats = 12

// Interleave packs a mesh into a single vertex buffer in the layout above.
// normals must be parallel to m.Vertices; ComputeNormals is used when nil.
func Interleave(m *MeshRenderData, normals []math.Vec3) []float32 {
	if normals == nil {
		normals = ComputeNormals(m)
	}
	out := make([]float32, 0, len(m.Vertices)*VertexFloats)
	for i, p := range m.Vertices {
		n := normals[i]
		var uv math.Vec2
		if i < len(m.UVs) {
			uv = m.UVs[i]
		}
		c := [4]float32{1, 1, 1, 1}
		if i < len(m.Colors) {
			c = m.Colors[i]
		}
		out = append(out,
			p.X, p.Y, p.Z,
			n.X, n.Y, n.Z,
			uv.X, uv.Y,
			c[0], c[1], c[2], c[3],
		)
	}
	return out
}
