package texture

import (
	"image/color"
	"testing"

	"github.com/Faultbox/terrastream/internal/engine/biome"
)

func TestPaletteStrip(t *testing.T) {
	p := biome.Palette{
		{1, 0, 0, 1},
		{0, 1, 0, 1},
		{0, 0, 1, 0.5},
	}
	img := PaletteStrip(p)

	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 1 {
		t.Fatalf("expected 3x1 image, got %v", b)
	}
	tests := []struct {
		x    int
		want color.RGBA
	}{
		{0, color.RGBA{255, 0, 0, 255}},
		{1, color.RGBA{0, 255, 0, 255}},
		{2, color.RGBA{0, 0, 255, 127}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, 0); got != tt.want {
			t.Errorf("texel %d: expected %v, got %v", tt.x, tt.want, got)
		}
	}
}

func TestPaletteStripEmpty(t *testing.T) {
	img := PaletteStrip(nil)
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("expected 1x1 image, got %v", b)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("expected opaque black, got %v", got)
	}
}
