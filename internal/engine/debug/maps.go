package debug

import (
	"fmt"
	"image"
	"image/color"
	"io"
	gomath "math"

	"github.com/mazznoer/colorgrad"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

// Sampling grid for the map images: size x size pixels over a square of
// edge world, each pixel sampled at its center. Image row 0 is the
// world's largest Y so north is up.
func pixelToWorld(px, py, size int, world float32) (x, y float64) {
	step := float64(world) / float64(size)
	x = (float64(px) + 0.5) * step
	y = (float64(size-1-py) + 0.5) * step
	return x, y
}

// BiomeMap renders the biome of every pixel with the palette colors.
func BiomeMap(c biome.Classifier, palette biome.Palette, world float32, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			x, y := pixelToWorld(px, py, size, world)
			img.SetRGBA(px, py, palette.RGBA(c.Classify(x, y)))
		}
	}
	return img
}

// HeightRange is the elevation span mapped onto the height gradient.
type HeightRange struct {
	Min, Max float64
}

// GroupRange returns the span a noise group can reach: the sum of
// |weight * amplitude| over its layers, in both directions.
func GroupRange(g config.NoiseGroup) HeightRange {
	var total float64
	for _, l := range g.Layers {
		if l.Period <= 0 {
			continue
		}
		total += gomath.Abs(float64(l.Weight) * float64(l.Amplitude))
	}
	return HeightRange{Min: -total, Max: total}
}

// heightGradient runs from deep blue through green and brown to snow.
func heightGradient() (colorgrad.Gradient, error) {
	return colorgrad.NewGradient().
		Colors(
			color.RGBA{20, 40, 120, 255},
			color.RGBA{60, 140, 70, 255},
			color.RGBA{130, 110, 70, 255},
			color.RGBA{245, 245, 250, 255},
		).
		Build()
}

// HeightMap renders ground elevation through a color gradient.
func HeightMap(h *terrain.HeightSampler, group config.NoiseGroup, r HeightRange, world float32, size int) (*image.RGBA, error) {
	grad, err := heightGradient()
	if err != nil {
		return nil, fmt.Errorf("building height gradient: %w", err)
	}
	span := r.Max - r.Min

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			x, y := pixelToWorld(px, py, size, world)
			t := 0.5
			if span > 0 {
				t = (h.Sample(x, y, group) - r.Min) / span
			}
			t = gomath.Max(0, gomath.Min(1, t))
			cr, cg, cb, _ := grad.At(t).RGBA()
			img.SetRGBA(px, py, color.RGBA{uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8), 255})
		}
	}
	return img, nil
}

const biomeGlyphs = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// WriteASCIIBiomeMap prints one glyph per sample, biome index in base 62.
// Indices beyond that print as '?'.
func WriteASCIIBiomeMap(w io.Writer, c biome.Classifier, world float32, size int) error {
	line := make([]byte, size+1)
	line[size] = '\n'
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			x, y := pixelToWorld(px, py, size, world)
			b := int(c.Classify(x, y))
			if b < len(biomeGlyphs) {
				line[px] = biomeGlyphs[b]
			} else {
				line[px] = '?'
			}
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
