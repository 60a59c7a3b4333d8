package terrain

import (
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

var waterColor = [4]float32{1, 1, 1, 1}

// Builder generates SectorRenderData. It owns its noise samplers and is
// not safe for concurrent use; give each goroutine its own Builder. The
// region cache may be shared.
type Builder struct {
	terrain    config.TerrainConfig
	heights    *HeightSampler
	classifier biome.Classifier
	palette    biome.Palette

	ground config.NoiseGroup
	water  config.NoiseGroup

	log *zap.Logger
}

// NewBuilder creates a builder for cfg. Missing noise groups are logged
// and contribute zero height.
func NewBuilder(cfg *config.Config, regions *biome.RegionCache, log *zap.Logger) *Builder {
	if log == nil {
		log = logger.Named("terrain")
	}

	// The classifier reports an unknown kind.
	kind, _ := noise.ParseKind(cfg.Terrain.NoiseKind)

	b := &Builder{
		terrain:    cfg.Terrain,
		heights:    NewHeightSampler(kind, int64(cfg.Terrain.Seed), cfg.Terrain.WaterLevel),
		classifier: biome.New(cfg.Terrain, cfg.Biomes, regions, log.Named("biome")),
		palette:    biome.NewPalette(cfg.Biomes.Definitions),
		log:        log,
	}
	b.ground = b.noiseGroup(cfg.Terrain.GroundNoiseGroup)
	b.water = b.noiseGroup(cfg.Terrain.WaterNoiseGroup)

	switch cfg.Terrain.VertexLayout {
	case config.LayoutShared, config.LayoutQuad:
	default:
		log.Warn("unknown vertex layout, using shared", zap.String("layout", cfg.Terrain.VertexLayout))
		b.terrain.VertexLayout = config.LayoutShared
	}
	return b
}

func (b *Builder) noiseGroup(name string) config.NoiseGroup {
	g, ok := b.terrain.NoiseGroup(name)
	if !ok {
		b.log.Warn("noise group not found, using zero height", zap.String("group", name))
		return config.NoiseGroup{Name: name}
	}
	for i, layer := range g.Layers {
		if layer.Period <= 0 {
			b.log.Warn("noise layer has non-positive period, skipping",
				zap.String("group", g.Name),
				zap.Int("layer", i),
				zap.Float32("period", layer.Period))
		}
	}
	return g
}

// Origin returns the world position of a sector's local origin.
func (b *Builder) Origin(coord SectorCoordinate) math.Vec2 {
	size := b.terrain.SectorSize()
	return math.Vec2{X: float32(coord.X) * size, Y: float32(coord.Y) * size}
}

// Build generates the ground and water surfaces of one sector.
func (b *Builder) Build(coord SectorCoordinate) *SectorRenderData {
	data := &SectorRenderData{
		Coordinate: coord,
		Origin:     b.Origin(coord),
		CellSize:   b.terrain.CellSize,
		Cells:      b.terrain.SectorSizeInCells,
		Layout:     b.terrain.VertexLayout,
	}
	if data.Cells <= 0 {
		b.log.Warn("sector has no cells", zap.Stringer("sector", coord))
		return data
	}

	if data.Layout == config.LayoutQuad {
		b.buildQuads(data)
	} else {
		b.buildShared(data)
	}

	b.log.Debug("built sector",
		zap.Stringer("sector", coord),
		zap.String("layout", data.Layout),
		zap.Int("vertices", data.Ground.VertexCount()),
		zap.Int("triangles", data.Ground.TriangleCount()))
	return data
}

// buildShared emits a (cells+1)^2 vertex grid shared by adjacent cells.
// Primaries are filled for the whole grid before boundaries are computed.
func (b *Builder) buildShared(data *SectorRenderData) {
	n := data.Cells
	side := n + 1
	count := side * side

	ground := &data.Ground
	water := &data.Water
	ground.Vertices = make([]math.Vec3, 0, count)
	ground.UVs = make([]math.Vec2, 0, count)
	ground.PrimaryBiome = make([]uint8, 0, count)
	water.Vertices = make([]math.Vec3, 0, count)
	water.UVs = make([]math.Vec2, 0, count)
	water.Colors = make([][4]float32, 0, count)

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			local := math.Vec2{X: float32(x) * data.CellSize, Y: float32(y) * data.CellSize}
			uv := math.Vec2{X: float32(x) / float32(n), Y: float32(y) / float32(n)}
			b.appendVertex(data, local, uv)
			ground.PrimaryBiome = append(ground.PrimaryBiome, b.classify(data.Origin.Add(local)))
		}
	}

	ground.Boundary, ground.SecondaryBiome = biome.Boundaries(ground.PrimaryBiome, side, b.terrain.BoundaryNeighbors)

	ground.Colors = make([][4]float32, count)
	for i := range ground.Colors {
		ground.Colors[i] = b.groundColor(ground.PrimaryBiome[i], ground.SecondaryBiome[i], ground.Boundary[i])
	}

	indices := make([]uint32, 0, n*n*6)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v00 := uint32(y*side + x)
			v10 := v00 + 1
			v01 := v00 + uint32(side)
			v11 := v01 + 1
			indices = append(indices,
				v00, v10, v11,
				v00, v11, v01,
			)
		}
	}
	ground.Indices = indices
	water.Indices = append([]uint32(nil), indices...)
}

// buildQuads emits four vertices per cell so each cell carries one flat
// biome sampled at its center. There is no boundary information in this
// layout; secondary equals primary.
func (b *Builder) buildQuads(data *SectorRenderData) {
	n := data.Cells
	count := n * n * 4

	ground := &data.Ground
	water := &data.Water
	ground.Vertices = make([]math.Vec3, 0, count)
	ground.UVs = make([]math.Vec2, 0, count)
	ground.Colors = make([][4]float32, 0, count)
	ground.Boundary = make([]bool, 0, count)
	ground.PrimaryBiome = make([]uint8, 0, count)
	ground.SecondaryBiome = make([]uint8, 0, count)
	water.Vertices = make([]math.Vec3, 0, count)
	water.UVs = make([]math.Vec2, 0, count)
	water.Colors = make([][4]float32, 0, count)

	corners := [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	indices := make([]uint32, 0, n*n*6)

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			center := math.Vec2{
				X: (float32(x) + 0.5) * data.CellSize,
				Y: (float32(y) + 0.5) * data.CellSize,
			}
			primary := b.classify(data.Origin.Add(center))
			color := b.groundColor(primary, primary, false)

			base := uint32(len(ground.Vertices))
			for _, c := range corners {
				cx, cy := x+c[0], y+c[1]
				local := math.Vec2{X: float32(cx) * data.CellSize, Y: float32(cy) * data.CellSize}
				uv := math.Vec2{X: float32(cx) / float32(n), Y: float32(cy) / float32(n)}
				b.appendVertex(data, local, uv)
				ground.Colors = append(ground.Colors, color)
				ground.Boundary = append(ground.Boundary, false)
				ground.PrimaryBiome = append(ground.PrimaryBiome, primary)
				ground.SecondaryBiome = append(ground.SecondaryBiome, primary)
			}
			indices = append(indices,
				base, base+1, base+2,
				base, base+2, base+3,
			)
		}
	}
	ground.Indices = indices
	water.Indices = append([]uint32(nil), indices...)
}

// appendVertex samples both surfaces at one local position.
func (b *Builder) appendVertex(data *SectorRenderData, local, uv math.Vec2) {
	world := data.Origin.Add(local)
	wx, wy := float64(world.X), float64(world.Y)

	gz := float32(b.heights.Sample(wx, wy, b.ground))
	wz := float32(b.heights.Water(wx, wy, b.water))

	data.Ground.Vertices = append(data.Ground.Vertices, local.Vec3(gz))
	data.Ground.UVs = append(data.Ground.UVs, uv)
	data.Water.Vertices = append(data.Water.Vertices, local.Vec3(wz))
	data.Water.UVs = append(data.Water.UVs, uv)
	data.Water.Colors = append(data.Water.Colors, waterColor)
}

func (b *Builder) classify(world math.Vec2) uint8 {
	return b.classifier.Classify(float64(world.X), float64(world.Y))
}

// groundColor encodes biome data for the ground material. With debug
// biomes enabled the biome's debug color is used instead.
//
//	R = primary / (count-1)
//	G = secondary / (count-1)
//	B = 1 on a boundary vertex, else 0
//	A = 1
func (b *Builder) groundColor(primary, secondary uint8, boundary bool) [4]float32 {
	if b.terrain.DebugBiomes {
		return b.palette.Color(primary)
	}
	return EncodeBiomeColor(primary, secondary, boundary, b.classifier.Count())
}

// EncodeBiomeColor packs biome indices into a vertex color. With fewer
// than two biomes both index channels are 0.
func EncodeBiomeColor(primary, secondary uint8, boundary bool, biomeCount int) [4]float32 {
	var c [4]float32
	if top := float32(biomeCount - 1); top > 0 {
		c[0] = float32(primary) / top
		c[1] = float32(secondary) / top
	}
	if boundary {
		c[2] = 1
	}
	c[3] = 1
	return c
}

// DecodeBiomeColor recovers biome indices from an encoded vertex color.
func DecodeBiomeColor(c [4]float32, biomeCount int) (primary, secondary uint8, boundary bool) {
	if top := float32(biomeCount - 1); top > 0 {
		primary = uint8(c[0]*top + 0.5)
		secondary = uint8(c[1]*top + 0.5)
	}
	return primary, secondary, c[2] >= 0.5
}

// ComputeNormals returns area-weighted vertex normals. Vertices not used
// by any triangle get +Z.
func ComputeNormals(m *MeshRenderData) []math.Vec3 {
	normals := make([]math.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(a) >= len(normals) || int(b) >= len(normals) || int(c) >= len(normals) {
			continue
		}
		p0, p1, p2 := m.Vertices[a], m.Vertices[b], m.Vertices[c]
		// Unnormalized, so larger triangles weigh more.
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Length() < 1e-6 {
			normals[i] = math.UnitZ
			continue
		}
		normals[i] = n.Normalize()
	}
	return normals
}
