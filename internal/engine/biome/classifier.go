// Package biome assigns biome indices to world positions.
package biome

import (
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/logger"
)

// Classifier maps a world position to a biome index in [0, Count()).
// Implementations hold noise samplers and are not safe for concurrent use.
type Classifier interface {
	Classify(x, y float64) uint8
	Count() int
}

// Seed offsets from the terrain seed.
const (
	BiomeSeedOffset  = 1
	RegionSeedOffset = 2
)

// New returns the classifier selected by set.Mode. Regions mode shares
// cache with every other classifier built from the same cache, which
// keeps region assignments stable across builders. An unknown mode falls
// back to direct bucketing.
func New(terrain config.TerrainConfig, set config.BiomeSet, cache *RegionCache, log *zap.Logger) Classifier {
	if log == nil {
		log = logger.Named("biome")
	}

	kind, err := noise.ParseKind(terrain.NoiseKind)
	if err != nil {
		log.Warn("unknown noise kind, using perlin", zap.String("kind", terrain.NoiseKind))
	}

	if len(set.Definitions) == 0 {
		log.Warn("biome set is empty, every position maps to biome 0")
	}

	switch set.Mode {
	case config.BiomeModeRegions:
		if cache == nil {
			cache = NewRegionCache()
		}
		return NewRegions(kind, terrain, set, cache, log)
	case config.BiomeModeDirect, "":
		return NewDirect(kind, int64(terrain.Seed)+BiomeSeedOffset, set)
	default:
		log.Warn("unknown biome mode, using direct bucketing", zap.String("mode", set.Mode))
		return NewDirect(kind, int64(terrain.Seed)+BiomeSeedOffset, set)
	}
}

// bucket maps a noise value in [-1, 1] onto [0, n).
func bucket(v float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(float64(n) * noise.Normalize(v))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
