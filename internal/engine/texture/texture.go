// Package texture builds and uploads the small lookup textures the
// terrain shaders sample.
package texture

import (
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terrastream/internal/engine/biome"
)

// PaletteStrip returns an Nx1 image with one pixel per biome, in index
// order. An empty palette yields a single black pixel.
func PaletteStrip(p biome.Palette) *image.RGBA {
	n := len(p)
	if n == 0 {
		n = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, n, 1))
	for i := 0; i < n; i++ {
		img.SetRGBA(i, 0, p.RGBA(uint8(i)))
	}
	return img
}

// Upload creates a 2D texture from img with nearest filtering and clamped
// edges, so texelFetch and exact lookups return stored texels. Requires a
// current GL context.
func Upload(img *image.RGBA) uint32 {
	bounds := img.Bounds()
	width, height := int32(bounds.Dx()), int32(bounds.Dy())

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Delete releases a texture created by Upload. Zero is ignored.
func Delete(tex *uint32) {
	if *tex == 0 {
		return
	}
	gl.DeleteTextures(1, tex)
	*tex = 0
}
