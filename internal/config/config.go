// Package config handles terrain configuration loading and management.
package config

import (
	"strings"
	"time"
)

// Config holds all settings. Terrain and Biomes drive generation and are
// treated as immutable once loaded; the rest configure the hosts.
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Biomes    BiomeSet        `yaml:"biomes"`
	Streaming StreamingConfig `yaml:"streaming"`
	Cache     CacheConfig     `yaml:"cache"`
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Noise kinds accepted by TerrainConfig.NoiseKind.
const (
	NoiseKindPerlin      = "perlin"
	NoiseKindOpenSimplex = "opensimplex"
	NoiseKindValue       = "value"
)

// Vertex layouts accepted by TerrainConfig.VertexLayout.
const (
	LayoutShared = "shared"
	LayoutQuad   = "quad"
)

// Biome classification modes accepted by BiomeSet.Mode.
const (
	BiomeModeDirect  = "direct"
	BiomeModeRegions = "regions"
)

// TerrainConfig holds the world shape and height-field parameters.
type TerrainConfig struct {
	Seed               int     `yaml:"seed"`
	CellSize           float32 `yaml:"cell_size"` // world units per grid cell
	SectorSizeInCells  int     `yaml:"sector_size_in_cells"`
	WorldSizeInSectors int     `yaml:"world_size_in_sectors"`
	WaterLevel         float32 `yaml:"water_level"`

	// Smooth noise used for heights and biome bucketing.
	NoiseKind string `yaml:"noise_kind"`

	NoiseGroups      []NoiseGroup `yaml:"noise_groups"`
	GroundNoiseGroup string       `yaml:"ground_noise_group"`
	WaterNoiseGroup  string       `yaml:"water_noise_group"`

	VertexLayout      string `yaml:"vertex_layout"`
	BoundaryNeighbors int    `yaml:"boundary_neighbors"` // 4 or 8

	DebugBiomes bool `yaml:"debug_biomes"`
}

// SectorSize returns the edge length of one sector in world units.
func (t TerrainConfig) SectorSize() float32 {
	return t.CellSize * float32(t.SectorSizeInCells)
}

// WorldSize returns the edge length of the whole world in world units.
func (t TerrainConfig) WorldSize() float32 {
	return t.SectorSize() * float32(t.WorldSizeInSectors)
}

// NoiseGroup is a named weighted stack of noise layers.
type NoiseGroup struct {
	Name   string       `yaml:"name"`
	Layers []NoiseLayer `yaml:"layers"`
}

// NoiseLayer is one octave of a noise group. Frequency is 1/Period.
type NoiseLayer struct {
	Weight    float32 `yaml:"weight"`
	Period    float32 `yaml:"period"`
	Amplitude float32 `yaml:"amplitude"`
}

// BiomeSet lists the biomes and how positions are assigned to them.
// The index of a definition is its biome id and is order-significant.
type BiomeSet struct {
	Mode        string            `yaml:"mode"`
	Period      float32           `yaml:"period"`
	Definitions []BiomeDefinition `yaml:"definitions"`
	Rings       []RingDefinition  `yaml:"rings"`
}

// Frequency returns the biome noise frequency.
func (b BiomeSet) Frequency() float64 {
	if b.Period <= 0 {
		return 0
	}
	return 1.0 / float64(b.Period)
}

// BiomeDefinition names a biome and its debug color (RGBA, 0..1).
// A zero color is filled from the debug palette.
type BiomeDefinition struct {
	Name       string     `yaml:"name"`
	DebugColor [4]float32 `yaml:"debug_color,flow"`
}

// RingDefinition is an annular band around the world center.
// Radii are half-open: InnerRadius <= d < OuterRadius.
type RingDefinition struct {
	Name        string            `yaml:"name"`
	InnerRadius float32           `yaml:"inner_radius"`
	OuterRadius float32           `yaml:"outer_radius"`
	Weights     map[uint8]float32 `yaml:"weights"`
}

// StreamingConfig holds sector streaming settings.
type StreamingConfig struct {
	ViewRadius        int           `yaml:"view_radius"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	Workers           int           `yaml:"workers"`
	RetainGeometry    bool          `yaml:"retain_geometry"`
	RenderDataLimit   int           `yaml:"render_data_limit"`
	GenerateCollision bool          `yaml:"generate_collision"`
}

// CacheConfig holds the persistent render data store settings.
type CacheConfig struct {
	Path string `yaml:"path"` // empty disables the store
}

// GraphicsConfig holds viewer display settings.
type GraphicsConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	FOV           float32 `yaml:"fov"` // degrees
	FarPlane      float32 `yaml:"far_plane"`
	MoveSpeed     float32 `yaml:"move_speed"` // world units per second
	SunAzimuth    float32 `yaml:"sun_azimuth"`
	SunElevation  float32 `yaml:"sun_elevation"`
	WaterOpacity  float32 `yaml:"water_opacity"`
	ShowWireframe bool    `yaml:"show_wireframe"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Seed:               813,
			CellSize:           100,
			SectorSizeInCells:  20,
			WorldSizeInSectors: 12,
			WaterLevel:         0,
			NoiseKind:          NoiseKindPerlin,
			NoiseGroups: []NoiseGroup{
				{
					Name: "Terrain",
					Layers: []NoiseLayer{
						{Weight: 1, Period: 200, Amplitude: 2000},
						{Weight: 1, Period: 100, Amplitude: 100},
					},
				},
				{
					Name: "Water",
					Layers: []NoiseLayer{
						{Weight: 1, Period: 100, Amplitude: 200},
					},
				},
			},
			GroundNoiseGroup:  "Terrain",
			WaterNoiseGroup:   "Water",
			VertexLayout:      LayoutShared,
			BoundaryNeighbors: 4,
			DebugBiomes:       false,
		},
		Biomes: BiomeSet{
			Mode:   BiomeModeDirect,
			Period: 10000,
			Definitions: []BiomeDefinition{
				{Name: "b0_grass", DebugColor: [4]float32{0, 1, 0, 1}},
				{Name: "b1_moss", DebugColor: [4]float32{0, 0.5, 0.2, 1}},
				{Name: "b2_lichen", DebugColor: [4]float32{0.2, 0.2, 0.2, 1}},
				{Name: "b3_redsands", DebugColor: [4]float32{0.8, 0, 0.2, 1}},
				{Name: "b4_mountain", DebugColor: [4]float32{0.8, 0.8, 0.8, 1}},
				{Name: "b5_snow", DebugColor: [4]float32{1, 1, 1, 1}},
			},
			Rings: []RingDefinition{
				{
					Name:        "core",
					InnerRadius: 0,
					OuterRadius: 4000,
					Weights:     map[uint8]float32{0: 3, 1: 1},
				},
				{
					Name:        "middle",
					InnerRadius: 4000,
					OuterRadius: 9000,
					Weights:     map[uint8]float32{1: 1, 2: 1, 3: 2},
				},
				{
					Name:        "rim",
					InnerRadius: 9000,
					OuterRadius: 20000,
					Weights:     map[uint8]float32{4: 2, 5: 1},
				},
			},
		},
		Streaming: StreamingConfig{
			ViewRadius:        1,
			TickInterval:      250 * time.Millisecond,
			Workers:           0,
			RetainGeometry:    true,
			RenderDataLimit:   0,
			GenerateCollision: true,
		},
		Cache: CacheConfig{
			Path: "",
		},
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			FOV:           60,
			FarPlane:      20000,
			MoveSpeed:     1500,
			SunAzimuth:    135,
			SunElevation:  50,
			WaterOpacity:  0.6,
			ShowWireframe: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// NoiseGroup returns the noise group with the given name, compared
// case-insensitively. The second result is false when no group matches.
func (t TerrainConfig) NoiseGroup(name string) (NoiseGroup, bool) {
	for _, g := range t.NoiseGroups {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return NoiseGroup{}, false
}
