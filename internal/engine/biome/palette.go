package biome

import (
	"image/color"

	"github.com/mazznoer/colorgrad"

	"github.com/Faultbox/terrastream/internal/config"
)

// Palette holds one RGBA debug color per biome index.
type Palette [][4]float32

// NewPalette returns the debug colors of defs. Definitions without a
// color get one sampled from a rainbow gradient at their index.
func NewPalette(defs []config.BiomeDefinition) Palette {
	grad := colorgrad.Rainbow()
	p := make(Palette, len(defs))
	for i, def := range defs {
		if def.DebugColor != ([4]float32{}) {
			p[i] = def.DebugColor
			continue
		}
		t := 0.0
		if len(defs) > 1 {
			t = float64(i) / float64(len(defs)-1)
		}
		r, g, b, _ := grad.At(t).RGBA()
		p[i] = [4]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff, 1}
	}
	return p
}

// Color returns the color of biome i, or opaque black when i is out of range.
func (p Palette) Color(i uint8) [4]float32 {
	if int(i) >= len(p) {
		return [4]float32{0, 0, 0, 1}
	}
	return p[i]
}

// RGBA returns the color of biome i as an 8-bit color.
func (p Palette) RGBA(i uint8) color.RGBA {
	c := p.Color(i)
	return color.RGBA{
		R: uint8(clamp01(c[0]) * 255),
		G: uint8(clamp01(c[1]) * 255),
		B: uint8(clamp01(c[2]) * 255),
		A: uint8(clamp01(c[3]) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
