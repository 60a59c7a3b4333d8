// Package scene realizes streamed terrain sectors as OpenGL meshes and
// draws them.
package scene

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/lighting"
	"github.com/Faultbox/terrastream/internal/engine/scene/shaders"
	"github.com/Faultbox/terrastream/internal/engine/sector"
	"github.com/Faultbox/terrastream/internal/engine/shader"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/internal/engine/texture"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

// Options configures a SectorRenderer.
type Options struct {
	Palette      biome.Palette
	DebugColors  bool // vertex colors are already debug colors
	WaterColor   [3]float32
	WaterOpacity float32
	Logger       *zap.Logger
}

// Frame holds the per-frame inputs to Render.
type Frame struct {
	ViewProj math.Mat4
	Eye      math.Vec3
	Sun      lighting.Sun
	FogColor [3]float32
	FogFar   float32
}

// SectorRenderer uploads sector meshes to the GPU and draws the attached
// ones. It implements sector.Realizer. All methods must be called on the
// thread that owns the GL context.
type SectorRenderer struct {
	ground *shader.Program
	water  *shader.Program

	paletteTex uint32
	biomeCount int
	opts       Options

	live     map[*SectorMesh]struct{}
	attached map[*SectorMesh]struct{}

	log *zap.Logger
}

var _ sector.Realizer = (*SectorRenderer)(nil)

// NewSectorRenderer compiles the sector shaders and uploads the biome
// palette. Requires a current GL context.
func NewSectorRenderer(opts Options) (*SectorRenderer, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Named("scene")
	}
	if opts.WaterColor == ([3]float32{}) {
		opts.WaterColor = [3]float32{0.15, 0.35, 0.55}
	}

	ground, err := shader.NewProgram("ground", shaders.GroundVertexShader, shaders.GroundFragmentShader, log)
	if err != nil {
		return nil, err
	}
	water, err := shader.NewProgram("water", shaders.WaterVertexShader, shaders.WaterFragmentShader, log)
	if err != nil {
		ground.Delete()
		return nil, err
	}

	r := &SectorRenderer{
		ground:     ground,
		water:      water,
		biomeCount: len(opts.Palette),
		opts:       opts,
		live:       make(map[*SectorMesh]struct{}),
		attached:   make(map[*SectorMesh]struct{}),
		log:        log,
	}
	// One texel per biome; the ground shader looks colors up by decoded index.
	r.paletteTex = texture.Upload(texture.PaletteStrip(opts.Palette))
	return r, nil
}

// Realize uploads one surface. Water is recognized by its mesh name
// prefix. Collision is not cooked; the flag is only logged.
func (r *SectorRenderer) Realize(name string, origin math.Vec2, data *terrain.MeshRenderData, collision bool) (sector.Mesh, error) {
	if data == nil {
		return nil, fmt.Errorf("realize %s: no render data", name)
	}
	if err := data.Check(); err != nil {
		return nil, fmt.Errorf("realize %s: %w", name, err)
	}

	m := &SectorMesh{
		Name:     name,
		Origin:   origin,
		water:    strings.HasPrefix(name, sector.WaterPrefix),
		renderer: r,
	}
	if len(data.Indices) > 0 {
		m.upload(data)
	}
	r.live[m] = struct{}{}

	r.log.Debug("mesh realized",
		zap.String("name", name),
		zap.Int("vertices", data.VertexCount()),
		zap.Int("triangles", data.TriangleCount()),
		zap.Bool("collision", collision))
	return m, nil
}

// Render draws attached ground meshes, then attached water meshes back to
// front with blending.
func (r *SectorRenderer) Render(f Frame) {
	var grounds, waters []*SectorMesh
	for m := range r.attached {
		if m.vao == 0 {
			continue
		}
		if m.water {
			waters = append(waters, m)
		} else {
			grounds = append(grounds, m)
		}
	}

	if len(grounds) > 0 {
		p := r.ground
		p.Use()
		gl.UniformMatrix4fv(p.Uniform("uViewProj"), 1, false, &f.ViewProj[0])
		setLight(p, f)
		gl.Uniform3f(p.Uniform("uAmbient"), f.Sun.Ambient[0], f.Sun.Ambient[1], f.Sun.Ambient[2])
		gl.Uniform3f(p.Uniform("uDiffuse"), f.Sun.Diffuse[0], f.Sun.Diffuse[1], f.Sun.Diffuse[2])
		gl.Uniform1i(p.Uniform("uBiomeCount"), int32(r.biomeCount))
		debug := int32(0)
		if r.opts.DebugColors {
			debug = 1
		}
		gl.Uniform1i(p.Uniform("uDebugColors"), debug)

		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.paletteTex)
		gl.Uniform1i(p.Uniform("uPalette"), 0)

		for _, m := range grounds {
			m.draw(p)
		}
	}

	if len(waters) > 0 {
		sortBackToFront(waters, f.Eye.XY())

		p := r.water
		p.Use()
		gl.UniformMatrix4fv(p.Uniform("uViewProj"), 1, false, &f.ViewProj[0])
		setLight(p, f)
		c := r.opts.WaterColor
		gl.Uniform3f(p.Uniform("uWaterColor"), c[0], c[1], c[2])
		gl.Uniform1f(p.Uniform("uOpacity"), r.opts.WaterOpacity)

		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, m := range waters {
			m.draw(p)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}

	gl.BindVertexArray(0)
}

func setLight(p *shader.Program, f Frame) {
	d := f.Sun.Direction
	gl.Uniform3f(p.Uniform("uLightDir"), d.X, d.Y, d.Z)
	gl.Uniform3f(p.Uniform("uFogColor"), f.FogColor[0], f.FogColor[1], f.FogColor[2])
	gl.Uniform1f(p.Uniform("uFogFar"), f.FogFar)
}

// sortBackToFront orders meshes by decreasing distance of their origin
// from eye.
func sortBackToFront(meshes []*SectorMesh, eye math.Vec2) {
	sort.Slice(meshes, func(i, j int) bool {
		return meshes[i].Origin.Distance(eye) > meshes[j].Origin.Distance(eye)
	})
}

// Stats returns the number of live and attached meshes.
func (r *SectorRenderer) Stats() (live, attached int) {
	return len(r.live), len(r.attached)
}

// Destroy releases every live mesh, the palette and the programs.
func (r *SectorRenderer) Destroy() {
	for m := range r.live {
		m.Release()
	}
	texture.Delete(&r.paletteTex)
	r.ground.Delete()
	r.water.Delete()
}

// SectorMesh is one realized sector surface.
type SectorMesh struct {
	Name   string
	Origin math.Vec2

	water      bool
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	released   bool

	renderer *SectorRenderer
}

func (m *SectorMesh) upload(data *terrain.MeshRenderData) {
	vertices := terrain.Interleave(data, nil)
	stride := int32(terrain.VertexFloats * 4)

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	// TexCoord (location 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	// Color (location 3)
	gl.VertexAttribPointerWithOffset(3, 4, gl.FLOAT, false, stride, 8*4)
	gl.EnableVertexAttribArray(3)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, unsafe.Pointer(&data.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	m.indexCount = int32(len(data.Indices))
}

func (m *SectorMesh) draw(p *shader.Program) {
	gl.Uniform3f(p.Uniform("uOrigin"), m.Origin.X, m.Origin.Y, 0)
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
}

// Attach makes the mesh visible.
func (m *SectorMesh) Attach() {
	if m.released {
		return
	}
	m.renderer.attached[m] = struct{}{}
}

// Detach hides the mesh without freeing it.
func (m *SectorMesh) Detach() {
	delete(m.renderer.attached, m)
}

// Release frees the GPU buffers.
func (m *SectorMesh) Release() {
	if m.released {
		return
	}
	m.released = true
	delete(m.renderer.attached, m)
	delete(m.renderer.live, m)

	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	m.vao, m.vbo, m.ebo = 0, 0, 0
}
