package biome

import (
	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
)

// Direct buckets the biome noise value at each point.
type Direct struct {
	sampler *noise.Sampler
	count   int
}

// NewDirect creates a direct-bucketing classifier.
func NewDirect(kind noise.Kind, seed int64, set config.BiomeSet) *Direct {
	s := noise.New(kind, seed)
	s.SetFrequency(set.Frequency())
	return &Direct{
		sampler: s,
		count:   len(set.Definitions),
	}
}

// Classify returns floor(count * normalize(noise)) clamped to the biome range.
func (d *Direct) Classify(x, y float64) uint8 {
	if d.count == 0 {
		return 0
	}
	return uint8(bucket(d.sampler.Eval(x, y), d.count))
}

// Count returns the number of biomes.
func (d *Direct) Count() int { return d.count }
