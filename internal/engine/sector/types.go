// Package sector streams terrain sectors around a moving observer.
package sector

import (
	"fmt"

	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/pkg/math"
)

// Coordinate identifies a sector.
type Coordinate = terrain.SectorCoordinate

// Observer supplies the world position the streamer follows.
type Observer interface {
	Position() math.Vec3
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func() math.Vec3

// Position calls f.
func (f ObserverFunc) Position() math.Vec3 { return f() }

// Realizer turns render data into a renderable mesh placed at origin.
type Realizer interface {
	Realize(name string, origin math.Vec2, data *terrain.MeshRenderData, collision bool) (Mesh, error)
}

// Mesh is a realized geometry resource. Attach makes it visible, Detach
// hides it, Release frees it. A released mesh is never used again.
type Mesh interface {
	Attach()
	Detach()
	Release()
}

// Store persists render data between runs.
type Store interface {
	Load(coord Coordinate) (*terrain.SectorRenderData, bool, error)
	Save(data *terrain.SectorRenderData) error
}

// RegionStore is implemented by stores that also persist region
// assignments. Stored sectors were classified with them, so freshly
// generated neighbours must see the same assignments.
type RegionStore interface {
	LoadRegions() ([]biome.RegionEntry, error)
	SaveRegions(entries []biome.RegionEntry) error
}

// Mesh name prefixes for the two surfaces.
const (
	GroundPrefix = "SMG"
	WaterPrefix  = "SMW"
)

// MeshName returns the realized mesh name for a surface of a sector.
func MeshName(prefix string, c Coordinate) string {
	return fmt.Sprintf("%s_%d_%d", prefix, c.X, c.Y)
}

// Sector is the runtime instance of a visible sector.
type Sector struct {
	Coordinate Coordinate
	Origin     math.Vec2

	geometry *geometry
	attached bool
}

// Attached reports whether the sector's geometry is visible.
func (s *Sector) Attached() bool { return s.attached }

// geometry holds the realized meshes of one sector.
type geometry struct {
	ground Mesh
	water  Mesh
}

func (g *geometry) attach() {
	g.ground.Attach()
	g.water.Attach()
}

func (g *geometry) detach() {
	g.ground.Detach()
	g.water.Detach()
}

func (g *geometry) release() {
	g.ground.Release()
	g.water.Release()
}

// Report summarizes one streaming tick.
type Report struct {
	Observer Coordinate
	Visible  int

	Added   int // sectors created
	Removed int // sectors evicted

	Generated int // render data built
	Loaded    int // render data read from the store
	Realized  int // sectors whose meshes were built
	Attached  int
	Pending   int // jobs in flight after the tick
	Failed    int // realize failures, retried next tick
	Dropped   int // render data entries trimmed by the limit
}

// Changed reports whether the tick did any work.
func (r Report) Changed() bool {
	return r.Added+r.Removed+r.Generated+r.Loaded+r.Realized+r.Attached+r.Failed+r.Dropped > 0
}
