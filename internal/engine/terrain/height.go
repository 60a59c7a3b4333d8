package terrain

import (
	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
)

// Fixed input transform applied before every height lookup. It keeps the
// X and Y axes decorrelated and moves the origin off the noise lattice.
const (
	scaleX  = 1.01
	offsetX = 17.123
	scaleY  = 0.99
	offsetY = 43.512
)

// HeightSampler sums the layers of a noise group into an elevation.
// It mutates its sampler's frequency per layer and is not safe for
// concurrent use.
type HeightSampler struct {
	sampler    *noise.Sampler
	waterLevel float64
}

// NewHeightSampler creates a sampler for the terrain seed.
func NewHeightSampler(kind noise.Kind, seed int64, waterLevel float32) *HeightSampler {
	return &HeightSampler{
		sampler:    noise.New(kind, seed),
		waterLevel: float64(waterLevel),
	}
}

// Sample returns the elevation of group at world position (x, y).
// Layers with a non-positive period contribute nothing.
func (h *HeightSampler) Sample(x, y float64, group config.NoiseGroup) float64 {
	nx := x*scaleX + offsetX
	ny := y*scaleY + offsetY

	var height float64
	for _, layer := range group.Layers {
		if layer.Period <= 0 {
			continue
		}
		h.sampler.SetFrequency(1 / float64(layer.Period))
		height += float64(layer.Weight) * float64(layer.Amplitude) * h.sampler.Eval(nx, ny)
	}
	return height
}

// Water returns the water surface elevation, which is the group's
// elevation raised by the water level.
func (h *HeightSampler) Water(x, y float64, group config.NoiseGroup) float64 {
	return h.Sample(x, y, group) + h.waterLevel
}
