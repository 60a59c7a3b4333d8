package biome

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/logger"
)

// Point is a world-space position.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// RegionBucketCount is the number of distinct region ids.
const RegionBucketCount = 1_000_000

const weightEpsilon = 1e-6

// RegionCache remembers the ring, biome and first-seen position of every
// region id encountered. Entries are never removed. It is safe for
// concurrent use.
//
// Assignments made since the last MarkSaved are reported by Unsaved so a
// store can persist them; restored entries are not.
type RegionCache struct {
	mu        sync.Mutex
	rings     map[int]uint8
	biomes    map[int]uint8
	positions map[int]Point
	unsaved   map[int]struct{}
}

// RegionEntry is one cached region assignment.
type RegionEntry struct {
	ID       int
	Ring     uint8
	Biome    uint8
	HasBiome bool
	Position Point
}

// NewRegionCache creates an empty cache.
func NewRegionCache() *RegionCache {
	return &RegionCache{
		rings:     make(map[int]uint8),
		biomes:    make(map[int]uint8),
		positions: make(map[int]Point),
		unsaved:   make(map[int]struct{}),
	}
}

// Restore adds entries loaded from a store. Regions already cached keep
// their assignment.
func (c *RegionCache) Restore(entries []RegionEntry) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, e := range entries {
		if _, ok := c.rings[e.ID]; !ok {
			c.rings[e.ID] = e.Ring
			c.positions[e.ID] = e.Position
			added++
		}
		if _, ok := c.biomes[e.ID]; !ok && e.HasBiome {
			c.biomes[e.ID] = e.Biome
		}
	}
	return added
}

// Unsaved returns the entries assigned since they were last marked
// saved, ordered by region id.
func (c *RegionCache) Unsaved() []RegionEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.unsaved) == 0 {
		return nil
	}
	out := make([]RegionEntry, 0, len(c.unsaved))
	for id := range c.unsaved {
		out = append(out, c.entry(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MarkSaved clears entries returned by Unsaved. An entry whose biome was
// assigned after it was read stays unsaved.
func (c *RegionCache) MarkSaved(entries []RegionEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		if c.entry(e.ID) == e {
			delete(c.unsaved, e.ID)
		}
	}
}

func (c *RegionCache) entry(id int) RegionEntry {
	b, hasBiome := c.biomes[id]
	return RegionEntry{
		ID:       id,
		Ring:     c.rings[id],
		Biome:    b,
		HasBiome: hasBiome,
		Position: c.positions[id],
	}
}

// Ring returns the cached ring index of a region.
func (c *RegionCache) Ring(id int) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rings[id]
	return r, ok
}

// Biome returns the cached biome index of a region.
func (c *RegionCache) Biome(id int) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.biomes[id]
	return b, ok
}

// Position returns the position at which a region was first seen.
func (c *RegionCache) Position(id int) (Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.positions[id]
	return p, ok
}

// Len returns the number of regions seen.
func (c *RegionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rings)
}

func (c *RegionCache) ringOrStore(id int, pos Point, compute func() uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rings[id]; ok {
		return r
	}
	r := compute()
	c.rings[id] = r
	c.positions[id] = pos
	c.unsaved[id] = struct{}{}
	return r
}

func (c *RegionCache) biomeOrStore(id int, compute func() uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.biomes[id]; ok {
		return b
	}
	b := compute()
	c.biomes[id] = b
	c.unsaved[id] = struct{}{}
	return b
}

// Regions groups points into cell-noise regions, picks a ring per region
// by distance from the world center, and draws a weighted biome from
// that ring once per region.
type Regions struct {
	cells  *noise.Sampler
	biome  *noise.Sampler
	rings  []config.RingDefinition
	center Point
	count  int
	cache  *RegionCache
	log    *zap.Logger
}

// NewRegions creates a region classifier backed by cache.
func NewRegions(kind noise.Kind, terrain config.TerrainConfig, set config.BiomeSet, cache *RegionCache, log *zap.Logger) *Regions {
	if log == nil {
		log = logger.Named("biome")
	}
	cells := noise.New(noise.KindCellular, int64(terrain.Seed)+RegionSeedOffset)
	cells.SetFrequency(set.Frequency())
	biome := noise.New(kind, int64(terrain.Seed)+BiomeSeedOffset)
	biome.SetFrequency(set.Frequency())

	half := float64(terrain.WorldSize()) / 2
	if len(set.Rings) == 0 {
		log.Warn("no biome rings defined, every region maps to biome 0")
	}

	return &Regions{
		cells:  cells,
		biome:  biome,
		rings:  set.Rings,
		center: Point{X: half, Y: half},
		count:  len(set.Definitions),
		cache:  cache,
		log:    log,
	}
}

// Count returns the number of biomes.
func (r *Regions) Count() int { return r.count }

// Cache returns the region cache.
func (r *Regions) Cache() *RegionCache { return r.cache }

// RegionID returns the region bucket containing (x, y).
func (r *Regions) RegionID(x, y float64) int {
	return bucket(r.cells.Eval(x, y), RegionBucketCount)
}

// Classify returns the biome of the region containing (x, y).
func (r *Regions) Classify(x, y float64) uint8 {
	id := r.RegionID(x, y)
	pos := Point{X: x, Y: y}

	ring := r.cache.ringOrStore(id, pos, func() uint8 {
		idx, exact := FindRing(r.rings, pos.Distance(r.center))
		if !exact && len(r.rings) > 0 {
			r.log.Warn("distance not covered by any ring, using last ring",
				zap.Int("region", id),
				zap.Float64("distance", pos.Distance(r.center)))
		}
		return uint8(idx)
	})

	return r.cache.biomeOrStore(id, func() uint8 {
		if int(ring) >= len(r.rings) {
			return 0
		}
		t := noise.Normalize(r.biome.Eval(x, y))
		idx, ok := PickWeighted(r.rings[ring].Weights, t)
		if !ok {
			r.log.Warn("ring has no biome weights, using biome 0",
				zap.Int("region", id),
				zap.String("ring", r.rings[ring].Name))
			return 0
		}
		if int(idx) >= r.count {
			r.log.Warn("ring weight names an undefined biome, using biome 0",
				zap.Int("region", id),
				zap.Uint8("biome", idx))
			return 0
		}
		return idx
	})
}

// FindRing returns the ring whose [inner, outer) band contains distance.
// Distances past the last ring resolve to the last ring and distances
// before the first ring to the first; both count as exact. A distance
// that falls into a gap between rings resolves to the last ring with
// exact false. With no rings the result is (0, false).
func FindRing(rings []config.RingDefinition, distance float64) (int, bool) {
	if len(rings) == 0 {
		return 0, false
	}
	for i, ring := range rings {
		if distance >= float64(ring.InnerRadius) && distance < float64(ring.OuterRadius) {
			return i, true
		}
	}
	last := len(rings) - 1
	if distance >= float64(rings[last].OuterRadius) {
		return last, true
	}
	if distance < float64(rings[0].InnerRadius) {
		return 0, true
	}
	return last, false
}

// PickWeighted walks the weights in ascending biome order and returns the
// first biome whose cumulative weight reaches t*total. Entries with a
// non-positive weight are never picked unless the total is not positive,
// in which case the lowest biome index wins. ok is false for an empty map.
func PickWeighted(weights map[uint8]float32, t float64) (uint8, bool) {
	if len(weights) == 0 {
		return 0, false
	}

	keys := make([]int, 0, len(weights))
	var total float64
	for k, w := range weights {
		keys = append(keys, int(k))
		if w > 0 {
			total += float64(w)
		}
	}
	sort.Ints(keys)

	if total <= weightEpsilon {
		return uint8(keys[0]), true
	}

	target := t * total
	var cum float64
	last := keys[0]
	for _, k := range keys {
		w := weights[uint8(k)]
		if w <= 0 {
			continue
		}
		cum += float64(w)
		last = k
		if cum >= target {
			return uint8(k), true
		}
	}
	return uint8(last), true
}
