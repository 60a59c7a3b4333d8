package terrain

import (
	"testing"

	"github.com/Faultbox/terrastream/pkg/math"
)

func TestInterleave(t *testing.T) {
	m := &MeshRenderData{
		Vertices: []math.Vec3{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 2}, {X: 0, Y: 10, Z: 3}},
		Indices:  []uint32{0, 1, 2},
		UVs:      []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Colors:   [][4]float32{{0.2, 0.4, 0, 1}, {0.2, 0.4, 1, 1}, {1, 1, 1, 1}},
	}

	buf := Interleave(m, nil)
	if len(buf) != 3*VertexFloats {
		t.Fatalf("expected %d floats, got %d", 3*VertexFloats, len(buf))
	}

	second := buf[VertexFloats : 2*VertexFloats]
	want := []float32{10, 0, 2}
	for i, v := range want {
		if second[i] != v {
			t.Errorf("position[%d]: expected %v, got %v", i, v, second[i])
		}
	}
	if second[6] != 1 || second[7] != 0 {
		t.Errorf("expected uv (1, 0), got (%v, %v)", second[6], second[7])
	}
	if second[8] != 0.2 || second[10] != 1 {
		t.Errorf("expected color carried through, got %v", second[8:12])
	}
	// The triangle is tilted but still faces up.
	if second[5] <= 0 {
		t.Errorf("expected upward normal, got z=%v", second[5])
	}
}

func TestInterleaveUsesGivenNormals(t *testing.T) {
	m := &MeshRenderData{
		Vertices: []math.Vec3{{}},
		UVs:      []math.Vec2{{}},
		Colors:   [][4]float32{{1, 1, 1, 1}},
	}
	buf := Interleave(m, []math.Vec3{{X: 1}})
	if buf[3] != 1 || buf[5] != 0 {
		t.Errorf("expected normal (1, 0, 0), got %v", buf[3:6])
	}
}
