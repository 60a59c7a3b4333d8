// Package viewer implements the interactive terrain viewer main loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/camera"
	"github.com/Faultbox/terrastream/internal/engine/debug"
	"github.com/Faultbox/terrastream/internal/engine/input"
	"github.com/Faultbox/terrastream/internal/engine/lighting"
	"github.com/Faultbox/terrastream/internal/engine/picking"
	"github.com/Faultbox/terrastream/internal/engine/renderer"
	"github.com/Faultbox/terrastream/internal/engine/scene"
	"github.com/Faultbox/terrastream/internal/engine/sector"
	"github.com/Faultbox/terrastream/internal/engine/window"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

const title = "TerraStream"

var skyColor = [3]float32{0.55, 0.7, 0.85}

// Viewer flies a camera over streamed terrain.
type Viewer struct {
	cfg     *config.Config
	running bool
	looking bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FlyCamera
	sectors  *scene.SectorRenderer
	streamer *sector.Streamer
	cadence  sector.Cadence
	sun      lighting.Sun
	shots    *debug.ScreenshotCapture

	screenshotPending bool

	lastReport sector.Report
	log        *zap.Logger
}

// New opens the window and sets up streaming. store may be nil.
func New(cfg *config.Config, store sector.Store) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.Int("seed", cfg.Terrain.Seed),
		zap.String("biome_mode", cfg.Biomes.Mode),
		zap.Int("view_radius", cfg.Streaming.ViewRadius))

	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		FOV:        cfg.Graphics.FOV,
		NearPlane:  1,
		FarPlane:   cfg.Graphics.FarPlane,
		ClearColor: skyColor,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.sectors, err = scene.NewSectorRenderer(scene.Options{
		Palette:      biome.NewPalette(cfg.Biomes.Definitions),
		DebugColors:  cfg.Terrain.DebugBiomes,
		WaterOpacity: cfg.Graphics.WaterOpacity,
	})
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create sector renderer: %w", err)
	}
	v.renderer.SetWireframe(cfg.Graphics.ShowWireframe)

	center := cfg.Terrain.WorldSize() / 2
	v.camera = camera.NewFlyCamera(math.Vec3{X: center, Y: center, Z: 2500}, cfg.Graphics.MoveSpeed)
	v.input = input.New()
	v.sun = lighting.NewSun(cfg.Graphics.SunAzimuth, cfg.Graphics.SunElevation)
	v.shots = debug.NewScreenshotCapture("screenshots", "terrain")

	// The camera position is the streaming observer.
	observer := sector.ObserverFunc(func() math.Vec3 { return v.camera.Position })
	v.streamer = sector.New(cfg, observer, sector.Options{
		Realizer: v.sectors,
		Store:    store,
	})
	v.cadence = sector.Cadence{Interval: v.streamer.TickInterval()}

	v.log.Info("viewer initialized")
	return v, nil
}

// Run starts the main loop and returns when the window closes.
func (v *Viewer) Run() error {
	v.running = true

	// Stream the starting area before the first frame.
	v.lastReport = v.streamer.Tick()

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		v.update(dt)
		v.render()
		if v.screenshotPending {
			v.screenshotPending = false
			v.saveScreenshot()
		}
		v.window.SwapBuffers()

		frameCount++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			fps := float64(frameCount) / elapsed.Seconds()
			v.window.SetTitle(v.status(fps))
			v.log.Debug("fps", zap.Float64("fps", fps), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_F1:
				v.renderer.SetWireframe(!v.renderer.Wireframe())
			case sdl.SCANCODE_F12:
				v.screenshotPending = true
			}
		case input.EventMouseClick:
			if event.Button == sdl.BUTTON_LEFT {
				v.pick(event.X, event.Y)
			}
		case input.EventMouseWheel:
			// Scroll adjusts flight speed.
			if event.Wheel > 0 {
				v.camera.Speed *= 1.25
			} else if event.Wheel < 0 {
				v.camera.Speed /= 1.25
			}
		}
	}
}

func (v *Viewer) update(dt time.Duration) {
	look := v.input.IsButtonHeld(sdl.BUTTON_RIGHT)
	if look != v.looking {
		v.window.SetMouseCaptured(look)
		v.looking = look
	}
	if look {
		dx, dy := v.input.MouseDelta()
		v.camera.HandleLook(float32(dx), float32(dy))
	}

	forward := v.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := v.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	up := v.input.Axis(sdl.SCANCODE_Q, sdl.SCANCODE_E)
	boost := v.input.IsKeyHeld(sdl.SCANCODE_LSHIFT)
	v.camera.HandleMovement(forward, right, up, float32(dt.Seconds()), boost)

	if ground, ok := v.streamer.GroundHeightAt(v.camera.Position.X, v.camera.Position.Y); ok {
		v.camera.KeepAbove(ground)
	}

	if v.cadence.Advance(dt) {
		v.lastReport = v.streamer.Tick()
	}
}

// pick logs the terrain point under a window position.
func (v *Viewer) pick(x, y int) {
	width, height := v.window.Size()
	if width <= 0 || height <= 0 {
		return
	}
	ray := picking.ScreenToRay(float32(x), float32(y), picking.Lens{
		Position: v.camera.Position,
		Forward:  v.camera.Forward(),
		Right:    v.camera.Right().Normalize(),
		FOV:      v.renderer.FOV(),
		Width:    float32(width),
		Height:   float32(height),
	})
	step := v.cfg.Terrain.CellSize / 2
	hit, ok := ray.MarchHeightField(v.streamer.GroundHeightAt, step, v.renderer.FarPlane())
	if !ok {
		v.log.Debug("pick missed", zap.Int("x", x), zap.Int("y", y))
		return
	}
	name := "?"
	if index, ok := v.streamer.BiomeAt(hit.X, hit.Y); ok && int(index) < len(v.cfg.Biomes.Definitions) {
		name = v.cfg.Biomes.Definitions[index].Name
	}
	v.log.Info("picked terrain",
		zap.Stringer("sector", sector.ObserverSector(hit.XY(), v.cfg.Terrain.SectorSize())),
		zap.Float32("x", hit.X),
		zap.Float32("y", hit.Y),
		zap.Float32("z", hit.Z),
		zap.String("biome", name))
}

func (v *Viewer) render() {
	v.renderer.Begin()

	viewProj := v.renderer.Projection().Mul(v.camera.ViewMatrix())
	v.sectors.Render(scene.Frame{
		ViewProj: viewProj,
		Eye:      v.camera.Position,
		Sun:      v.sun,
		FogColor: v.renderer.ClearColor(),
		FogFar:   v.renderer.FarPlane(),
	})

	v.renderer.End()
}

func (v *Viewer) saveScreenshot() {
	pixels, width, height := v.renderer.ReadPixels()
	if pixels == nil {
		return
	}
	path, err := v.shots.CaptureFromPixels(pixels, width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *Viewer) status(fps float64) string {
	live, attached := v.sectors.Stats()
	return fmt.Sprintf("%s  sector %s  active %d  meshes %d/%d  pending %d  %.0f fps",
		title, v.lastReport.Observer, len(v.streamer.Active()), attached, live, v.lastReport.Pending, fps)
}

// Close releases streaming, GPU and window resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.streamer != nil {
		v.streamer.Close()
		v.streamer.ReleaseAll()
	}
	if v.sectors != nil {
		v.sectors.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
