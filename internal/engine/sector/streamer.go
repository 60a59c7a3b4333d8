package sector

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/pkg/math"
)

const defaultTickInterval = 250 * time.Millisecond

// Options holds the streamer's optional collaborators.
type Options struct {
	// Realizer builds meshes. Without one sectors become active as soon
	// as their render data exists.
	Realizer Realizer
	// Store is consulted before generating render data.
	Store Store
	// Regions is shared by every builder. A new cache is created if nil.
	Regions *biome.RegionCache
	Logger  *zap.Logger
}

// Streamer keeps the sectors around an observer generated and attached.
//
// It owns three caches keyed by coordinate: active sectors, render data
// and realized geometry. Each is checked on its own, so geometry can be
// rebuilt from cached render data and render data survives visibility
// churn. Only the ticking goroutine touches the caches; Tick and the
// accessors must not be called concurrently.
type Streamer struct {
	cfg      *config.Config
	observer Observer
	builder  *terrain.Builder
	realizer Realizer
	store    Store
	regions  *biome.RegionCache
	log      *zap.Logger

	sectors    map[Coordinate]*Sector
	renderData map[Coordinate]*terrain.SectorRenderData
	geometry   map[Coordinate]*geometry

	pool     *workerPool
	center   Coordinate
	interval time.Duration
}

// New creates a streamer for cfg following observer. With
// cfg.Streaming.Workers > 0 render data is built on a worker pool.
func New(cfg *config.Config, observer Observer, opts Options) *Streamer {
	log := opts.Logger
	if log == nil {
		log = logger.Named("streamer")
	}
	regions := opts.Regions
	if regions == nil {
		regions = biome.NewRegionCache()
	}

	interval := cfg.Streaming.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if cfg.Terrain.SectorSizeInCells <= 0 || cfg.Terrain.WorldSizeInSectors <= 0 {
		log.Warn("world has no sectors, nothing will stream",
			zap.Int("sector_size_in_cells", cfg.Terrain.SectorSizeInCells),
			zap.Int("world_size_in_sectors", cfg.Terrain.WorldSizeInSectors))
	}

	s := &Streamer{
		cfg:        cfg,
		observer:   observer,
		builder:    terrain.NewBuilder(cfg, regions, log.Named("builder")),
		realizer:   opts.Realizer,
		store:      opts.Store,
		regions:    regions,
		log:        log,
		sectors:    make(map[Coordinate]*Sector),
		renderData: make(map[Coordinate]*terrain.SectorRenderData),
		geometry:   make(map[Coordinate]*geometry),
		interval:   interval,
	}
	s.restoreRegions()

	if n := cfg.Streaming.Workers; n > 0 {
		s.pool = newWorkerPool(n, func() *terrain.Builder {
			return terrain.NewBuilder(cfg, regions, zap.NewNop())
		}, log.Named("workers"))
	}
	return s
}

// Close stops the worker pool. Call it from the ticking goroutine.
func (s *Streamer) Close() {
	if s.pool != nil {
		s.pool.close()
	}
}

// Tick runs one streaming pass: commit finished jobs, find the visible
// set, bring every visible sector up to attached, and evict the rest.
// Failures are logged and retried on later ticks.
func (s *Streamer) Tick() Report {
	var report Report

	if s.pool != nil {
		for _, r := range s.pool.drain() {
			s.commit(r.coord, r.data)
			report.Generated++
		}
	}

	pos := s.observer.Position()
	s.center = ObserverSector(pos.XY(), s.cfg.Terrain.SectorSize())
	visible := VisibleSet(s.center, s.cfg.Streaming.ViewRadius, s.cfg.Terrain.WorldSizeInSectors)
	report.Observer = s.center
	report.Visible = len(visible)

	if s.pool != nil {
		s.pool.setWanted(visible)
	}

	wanted := make(map[Coordinate]struct{}, len(visible))
	for _, c := range visible {
		wanted[c] = struct{}{}
		s.activate(c, &report)
	}

	for c, sector := range s.sectors {
		if _, ok := wanted[c]; ok {
			continue
		}
		s.evict(c, sector)
		report.Removed++
	}

	report.Dropped = s.trimRenderData()

	if s.pool != nil {
		report.Pending = s.pool.pending()
	}

	if report.Changed() {
		s.log.Debug("streaming tick",
			zap.Stringer("observer", report.Observer),
			zap.Int("visible", report.Visible),
			zap.Int("added", report.Added),
			zap.Int("removed", report.Removed),
			zap.Int("generated", report.Generated),
			zap.Int("loaded", report.Loaded),
			zap.Int("realized", report.Realized),
			zap.Int("pending", report.Pending))
	}
	return report
}

// activate advances one visible coordinate as far as it can go this tick.
func (s *Streamer) activate(c Coordinate, report *Report) {
	sector, ok := s.sectors[c]
	if !ok {
		sector = &Sector{Coordinate: c, Origin: s.builder.Origin(c)}
		s.sectors[c] = sector
		report.Added++
	}
	if sector.attached {
		return
	}

	data, ok := s.renderData[c]
	if !ok {
		data, ok = s.obtainRenderData(c, report)
		if !ok {
			return
		}
	}

	if s.realizer == nil {
		sector.attached = true
		report.Attached++
		return
	}

	geom, ok := s.geometry[c]
	if !ok {
		var err error
		geom, err = s.realize(data)
		if err != nil {
			s.log.Warn("realizing sector failed, retrying next tick",
				zap.Stringer("sector", c),
				zap.Error(err))
			report.Failed++
			return
		}
		s.geometry[c] = geom
		report.Realized++
	}

	geom.attach()
	sector.geometry = geom
	sector.attached = true
	report.Attached++
}

// obtainRenderData loads or builds render data for c. With a worker pool
// it queues the job and returns false until the result is committed.
func (s *Streamer) obtainRenderData(c Coordinate, report *Report) (*terrain.SectorRenderData, bool) {
	if s.pool != nil && s.pool.isInFlight(c) {
		return nil, false
	}
	if s.store != nil {
		data, found, err := s.store.Load(c)
		if err != nil {
			s.log.Warn("loading sector from store failed", zap.Stringer("sector", c), zap.Error(err))
		}
		if found && data != nil {
			s.renderData[c] = data
			report.Loaded++
			return data, true
		}
	}

	if s.pool != nil {
		s.pool.submit(c)
		return nil, false
	}

	data := s.builder.Build(c)
	s.commit(c, data)
	report.Generated++
	return data, true
}

// commit caches freshly built render data and persists it. Region
// assignments are saved first; a sector is never stored without them.
func (s *Streamer) commit(c Coordinate, data *terrain.SectorRenderData) {
	if _, ok := s.renderData[c]; ok {
		return
	}
	s.renderData[c] = data
	if s.store == nil {
		return
	}
	if err := s.saveRegions(); err != nil {
		s.log.Warn("saving regions to store failed, sector not stored", zap.Stringer("sector", c), zap.Error(err))
		return
	}
	if err := s.store.Save(data); err != nil {
		s.log.Warn("saving sector to store failed", zap.Stringer("sector", c), zap.Error(err))
	}
}

// restoreRegions preloads the region cache from a RegionStore.
func (s *Streamer) restoreRegions() {
	rs, ok := s.store.(RegionStore)
	if !ok {
		return
	}
	entries, err := rs.LoadRegions()
	if err != nil {
		s.log.Warn("loading regions from store failed", zap.Error(err))
		return
	}
	if n := s.regions.Restore(entries); n > 0 {
		s.log.Debug("restored regions", zap.Int("regions", n))
	}
}

func (s *Streamer) saveRegions() error {
	rs, ok := s.store.(RegionStore)
	if !ok {
		return nil
	}
	entries := s.regions.Unsaved()
	if len(entries) == 0 {
		return nil
	}
	if err := rs.SaveRegions(entries); err != nil {
		return err
	}
	s.regions.MarkSaved(entries)
	return nil
}

func (s *Streamer) realize(data *terrain.SectorRenderData) (*geometry, error) {
	c := data.Coordinate
	collision := s.cfg.Streaming.GenerateCollision

	ground, err := s.realizer.Realize(MeshName(GroundPrefix, c), data.Origin, &data.Ground, collision)
	if err != nil {
		return nil, err
	}
	water, err := s.realizer.Realize(MeshName(WaterPrefix, c), data.Origin, &data.Water, false)
	if err != nil {
		ground.Release()
		return nil, err
	}
	return &geometry{ground: ground, water: water}, nil
}

// evict tears down the runtime instance of c. Geometry stays cached
// unless retention is off.
func (s *Streamer) evict(c Coordinate, sector *Sector) {
	if sector.attached && sector.geometry != nil {
		sector.geometry.detach()
	}
	if !s.cfg.Streaming.RetainGeometry {
		if geom, ok := s.geometry[c]; ok {
			geom.release()
			delete(s.geometry, c)
		}
	}
	sector.geometry = nil
	sector.attached = false
	delete(s.sectors, c)
}

// trimRenderData drops inactive render data farthest from the observer
// until the cache fits the configured limit.
func (s *Streamer) trimRenderData() int {
	limit := s.cfg.Streaming.RenderDataLimit
	if limit <= 0 || len(s.renderData) <= limit {
		return 0
	}

	var candidates []Coordinate
	for c := range s.renderData {
		if _, active := s.sectors[c]; !active {
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		di, dj := chebyshev(candidates[i], s.center), chebyshev(candidates[j], s.center)
		if di != dj {
			return di > dj
		}
		if candidates[i].Y != candidates[j].Y {
			return candidates[i].Y < candidates[j].Y
		}
		return candidates[i].X < candidates[j].X
	})

	dropped := 0
	for _, c := range candidates {
		if len(s.renderData) <= limit {
			break
		}
		delete(s.renderData, c)
		dropped++
	}
	return dropped
}

// Active returns the active sector coordinates in row-major order.
func (s *Streamer) Active() []Coordinate {
	out := make([]Coordinate, 0, len(s.sectors))
	for c := range s.sectors {
		out = append(out, c)
	}
	sortCoordinates(out)
	return out
}

// Sector returns the active sector at c.
func (s *Streamer) Sector(c Coordinate) (*Sector, bool) {
	sector, ok := s.sectors[c]
	return sector, ok
}

// RenderData returns cached render data for c.
func (s *Streamer) RenderData(c Coordinate) (*terrain.SectorRenderData, bool) {
	data, ok := s.renderData[c]
	return data, ok
}

// HasGeometry reports whether realized geometry for c is cached.
func (s *Streamer) HasGeometry(c Coordinate) bool {
	_, ok := s.geometry[c]
	return ok
}

// CacheSizes returns the number of active sectors, render data entries
// and geometry entries.
func (s *Streamer) CacheSizes() (sectors, renderData, meshes int) {
	return len(s.sectors), len(s.renderData), len(s.geometry)
}

// Regions returns the region cache shared by the builders.
func (s *Streamer) Regions() *biome.RegionCache { return s.regions }

// TickInterval returns the streaming cadence.
func (s *Streamer) TickInterval() time.Duration { return s.interval }

// GroundHeightAt returns the ground height at a world position when the
// containing sector's render data is cached.
func (s *Streamer) GroundHeightAt(x, y float32) (float32, bool) {
	size := s.cfg.Terrain.SectorSize()
	if size <= 0 {
		return 0, false
	}
	c := ObserverSector(math.Vec2{X: x, Y: y}, size)
	data, ok := s.renderData[c]
	if !ok {
		return 0, false
	}
	return data.GroundHeightAt(x-data.Origin.X, y-data.Origin.Y)
}

// BiomeAt returns the primary biome rendered at a world position when the
// containing sector's render data is cached.
func (s *Streamer) BiomeAt(x, y float32) (uint8, bool) {
	size := s.cfg.Terrain.SectorSize()
	if size <= 0 {
		return 0, false
	}
	c := ObserverSector(math.Vec2{X: x, Y: y}, size)
	data, ok := s.renderData[c]
	if !ok {
		return 0, false
	}
	return data.BiomeAt(x-data.Origin.X, y-data.Origin.Y)
}

// ReleaseAll detaches and releases every realized mesh and clears all
// caches. The streamer can keep ticking afterwards.
func (s *Streamer) ReleaseAll() {
	for c, sector := range s.sectors {
		if sector.attached && sector.geometry != nil {
			sector.geometry.detach()
		}
		delete(s.sectors, c)
	}
	for c, geom := range s.geometry {
		geom.release()
		delete(s.geometry, c)
	}
	clear(s.renderData)
}

func sortCoordinates(cs []Coordinate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Y != cs[j].Y {
			return cs[i].Y < cs[j].Y
		}
		return cs[i].X < cs[j].X
	})
}
