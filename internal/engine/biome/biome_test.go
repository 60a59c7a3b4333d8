package biome

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/terrastream/internal/config"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

func TestBucket(t *testing.T) {
	tests := []struct {
		v    float64
		n    int
		want int
	}{
		{-1, 6, 0},
		{0, 6, 3},
		{1, 6, 5},
		{0.999, 6, 5},
		{0.5, 0, 0},
		{-0.34, 3, 0},
	}
	for _, tt := range tests {
		if got := bucket(tt.v, tt.n); got != tt.want {
			t.Errorf("bucket(%v, %d): expected %d, got %d", tt.v, tt.n, tt.want, got)
		}
	}
}

func TestDirectInRangeAndDeterministic(t *testing.T) {
	cfg := config.Default()
	a := New(cfg.Terrain, cfg.Biomes, nil, zaptest.NewLogger(t))
	b := New(cfg.Terrain, cfg.Biomes, nil, zaptest.NewLogger(t))

	if _, ok := a.(*Direct); !ok {
		t.Fatalf("expected *Direct for mode %q, got %T", cfg.Biomes.Mode, a)
	}

	for i := 0; i < 5000; i++ {
		x := float64(i%100) * 241.7
		y := float64(i/100) * 480.3
		got := a.Classify(x, y)
		if int(got) >= a.Count() {
			t.Fatalf("biome %d at (%v, %v) outside [0, %d)", got, x, y, a.Count())
		}
		if again := b.Classify(x, y); again != got {
			t.Fatalf("expected %d at (%v, %v), got %d", got, x, y, again)
		}
	}
}

func TestDirectEmptyBiomeSet(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Definitions = nil
	log, logs := observedLogger()

	c := New(cfg.Terrain, cfg.Biomes, nil, log)
	for i := 0; i < 100; i++ {
		if got := c.Classify(float64(i)*997, float64(i)*-311); got != 0 {
			t.Fatalf("expected biome 0 with no definitions, got %d", got)
		}
	}
	if logs.FilterMessageSnippet("biome set is empty").Len() != 1 {
		t.Error("expected a warning for the empty biome set")
	}
}

func TestUnknownModeFallsBackToDirect(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = "voronoi"
	log, logs := observedLogger()

	c := New(cfg.Terrain, cfg.Biomes, nil, log)
	if _, ok := c.(*Direct); !ok {
		t.Errorf("expected *Direct fallback, got %T", c)
	}
	if logs.FilterMessageSnippet("unknown biome mode").Len() != 1 {
		t.Error("expected a warning for the unknown mode")
	}
}

func TestFindRing(t *testing.T) {
	rings := []config.RingDefinition{
		{Name: "core", InnerRadius: 0, OuterRadius: 4000},
		{Name: "middle", InnerRadius: 4000, OuterRadius: 9000},
		{Name: "rim", InnerRadius: 9000, OuterRadius: 20000},
	}
	gapped := []config.RingDefinition{
		{Name: "a", InnerRadius: 0, OuterRadius: 10},
		{Name: "b", InnerRadius: 20, OuterRadius: 30},
	}
	offset := []config.RingDefinition{
		{Name: "a", InnerRadius: 5, OuterRadius: 10},
	}

	tests := []struct {
		name      string
		rings     []config.RingDefinition
		distance  float64
		want      int
		wantExact bool
	}{
		{"origin", rings, 0, 0, true},
		{"just inside core", rings, 3999.9, 0, true},
		{"inner bound is inclusive", rings, 4000, 1, true},
		{"outer bound is exclusive", rings, 9000, 2, true},
		{"last ring outer bound clamps", rings, 20000, 2, true},
		{"far outside clamps", rings, 1e9, 2, true},
		{"gap falls back to last", gapped, 15, 1, false},
		{"before first ring", offset, 1, 0, true},
		{"no rings", nil, 100, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exact := FindRing(tt.rings, tt.distance)
			if got != tt.want || exact != tt.wantExact {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.wantExact, got, exact)
			}
		})
	}
}

func TestFindRingCoversEveryRadius(t *testing.T) {
	rings := config.Default().Biomes.Rings
	for d := 0.0; d < 30000; d += 7.5 {
		idx, exact := FindRing(rings, d)
		if !exact {
			t.Fatalf("expected radius %v to match a ring", d)
		}
		matches := 0
		for _, r := range rings {
			if d >= float64(r.InnerRadius) && d < float64(r.OuterRadius) {
				matches++
			}
		}
		last := len(rings) - 1
		if d >= float64(rings[last].OuterRadius) {
			if idx != last {
				t.Fatalf("expected radius %v to clamp to ring %d, got %d", d, last, idx)
			}
			continue
		}
		if matches != 1 {
			t.Fatalf("expected exactly one ring for radius %v, got %d", d, matches)
		}
	}
}

func TestPickWeighted(t *testing.T) {
	weights := map[uint8]float32{3: 2, 1: 1, 2: 1}
	tests := []struct {
		t    float64
		want uint8
	}{
		{0, 1},
		{0.25, 1},
		{0.3, 2},
		{0.5, 2},
		{0.51, 3},
		{1, 3},
	}
	for _, tt := range tests {
		got, ok := PickWeighted(weights, tt.t)
		if !ok || got != tt.want {
			t.Errorf("PickWeighted(t=%v): expected %d, got %d (ok=%v)", tt.t, tt.want, got, ok)
		}
	}

	if got, ok := PickWeighted(map[uint8]float32{4: 0, 2: 0}, 0.7); !ok || got != 2 {
		t.Errorf("expected lowest biome 2 for zero total weight, got %d (ok=%v)", got, ok)
	}
	if _, ok := PickWeighted(nil, 0.5); ok {
		t.Error("expected ok=false for an empty weight map")
	}
	if got, _ := PickWeighted(map[uint8]float32{0: 0, 5: 1}, 0); got != 5 {
		t.Errorf("expected zero-weight biome to be skipped, got %d", got)
	}
}

func TestRegionsCacheStability(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	cache := NewRegionCache()

	c := New(cfg.Terrain, cfg.Biomes, cache, zaptest.NewLogger(t))
	r, ok := c.(*Regions)
	if !ok {
		t.Fatalf("expected *Regions, got %T", c)
	}

	type sample struct {
		x, y  float64
		biome uint8
	}
	var first []sample
	byRegion := make(map[int]uint8)
	for i := 0; i < 400; i++ {
		x := float64(i%20) * 600
		y := float64(i/20) * 600
		b := r.Classify(x, y)
		if int(b) >= r.Count() {
			t.Fatalf("biome %d out of range", b)
		}
		id := r.RegionID(x, y)
		if prev, seen := byRegion[id]; seen && prev != b {
			t.Fatalf("region %d returned %d and %d", id, prev, b)
		}
		byRegion[id] = b
		first = append(first, sample{x, y, b})
	}
	if cache.Len() == 0 {
		t.Fatal("expected regions to be cached")
	}

	// Discover unrelated regions far away.
	for i := 0; i < 400; i++ {
		r.Classify(-50000-float64(i)*913, 70000+float64(i)*457)
	}

	for _, s := range first {
		if got := r.Classify(s.x, s.y); got != s.biome {
			t.Fatalf("expected cached biome %d at (%v, %v), got %d", s.biome, s.x, s.y, got)
		}
	}

	id := r.RegionID(first[0].x, first[0].y)
	if _, ok := cache.Ring(id); !ok {
		t.Error("expected ring to be cached for a visited region")
	}
	if _, ok := cache.Position(id); !ok {
		t.Error("expected first-seen position to be cached for a visited region")
	}
}

func TestRegionsSharedCacheAgrees(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	cache := NewRegionCache()

	a := New(cfg.Terrain, cfg.Biomes, cache, zaptest.NewLogger(t))
	b := New(cfg.Terrain, cfg.Biomes, cache, zaptest.NewLogger(t))
	for i := 0; i < 200; i++ {
		x, y := float64(i)*123.4, float64(i)*87.6
		if a.Classify(x, y) != b.Classify(x, y) {
			t.Fatalf("classifiers sharing a cache disagree at (%v, %v)", x, y)
		}
	}
}

func TestRegionsWithoutRings(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	cfg.Biomes.Rings = nil
	log, logs := observedLogger()

	c := New(cfg.Terrain, cfg.Biomes, nil, log)
	for i := 0; i < 50; i++ {
		if got := c.Classify(float64(i)*500, 0); got != 0 {
			t.Fatalf("expected biome 0 without rings, got %d", got)
		}
	}
	if logs.FilterMessageSnippet("no biome rings").Len() != 1 {
		t.Error("expected a warning for the missing rings")
	}
}

func TestRegionsEmptyRingWeights(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	cfg.Biomes.Rings = []config.RingDefinition{
		{Name: "barren", InnerRadius: 0, OuterRadius: 1e6},
	}
	log, logs := observedLogger()

	c := New(cfg.Terrain, cfg.Biomes, nil, log)
	if got := c.Classify(1200, 3400); got != 0 {
		t.Errorf("expected biome 0 for a ring without weights, got %d", got)
	}
	if logs.FilterMessageSnippet("no biome weights").Len() == 0 {
		t.Error("expected a warning for the empty ring")
	}
}

func TestBoundaries(t *testing.T) {
	primary := []uint8{
		0, 0, 1,
		0, 0, 1,
		0, 0, 0,
	}

	boundary, secondary := Boundaries(primary, 3, 4)
	wantBoundary := []bool{
		false, true, true,
		false, true, true,
		false, false, true,
	}
	wantSecondary := []uint8{
		0, 1, 0,
		0, 1, 0,
		0, 0, 1,
	}
	for i := range primary {
		if boundary[i] != wantBoundary[i] {
			t.Errorf("vertex %d: expected boundary %v, got %v", i, wantBoundary[i], boundary[i])
		}
		if secondary[i] != wantSecondary[i] {
			t.Errorf("vertex %d: expected secondary %d, got %d", i, wantSecondary[i], secondary[i])
		}
	}

	boundary8, secondary8 := Boundaries(primary, 3, 8)
	if !boundary8[7] || secondary8[7] != 1 {
		t.Errorf("expected diagonal neighbour to mark vertex 7, got boundary=%v secondary=%d", boundary8[7], secondary8[7])
	}
	if boundary8[0] {
		t.Error("expected vertex 0 to stay interior with 8 neighbours")
	}
}

func TestBoundariesUniform(t *testing.T) {
	primary := make([]uint8, 16)
	for i := range primary {
		primary[i] = 4
	}
	boundary, secondary := Boundaries(primary, 4, 8)
	for i := range primary {
		if boundary[i] {
			t.Errorf("vertex %d: expected no boundary on a uniform grid", i)
		}
		if secondary[i] != 4 {
			t.Errorf("vertex %d: expected secondary 4, got %d", i, secondary[i])
		}
	}
}

func TestPalette(t *testing.T) {
	defs := []config.BiomeDefinition{
		{Name: "grass", DebugColor: [4]float32{0, 1, 0, 1}},
		{Name: "unset"},
	}
	p := NewPalette(defs)
	if p.Color(0) != defs[0].DebugColor {
		t.Errorf("expected configured color %v, got %v", defs[0].DebugColor, p.Color(0))
	}
	filled := p.Color(1)
	if filled[3] != 1 {
		t.Errorf("expected opaque gradient color, got alpha %v", filled[3])
	}
	if filled[0] == 0 && filled[1] == 0 && filled[2] == 0 {
		t.Error("expected gradient color for a biome without one")
	}
	if got := p.RGBA(9); got.R != 0 || got.G != 0 || got.B != 0 || got.A != 255 {
		t.Errorf("expected opaque black for an unknown biome, got %v", got)
	}
	if got := p.RGBA(0); got.G != 255 || got.R != 0 {
		t.Errorf("expected pure green, got %v", got)
	}
}

func TestRegionCacheUnsavedAndRestore(t *testing.T) {
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	cache := NewRegionCache()
	r := New(cfg.Terrain, cfg.Biomes, cache, zaptest.NewLogger(t)).(*Regions)

	for i := 0; i < 50; i++ {
		r.Classify(float64(i)*700, float64(i)*300)
	}
	unsaved := cache.Unsaved()
	if len(unsaved) != cache.Len() {
		t.Fatalf("expected %d unsaved entries, got %d", cache.Len(), len(unsaved))
	}
	for i, e := range unsaved {
		if !e.HasBiome {
			t.Errorf("entry %d: expected a biome after Classify", e.ID)
		}
		if i > 0 && unsaved[i-1].ID >= e.ID {
			t.Fatalf("expected entries ordered by id, got %d before %d", unsaved[i-1].ID, e.ID)
		}
	}

	cache.MarkSaved(unsaved)
	if got := cache.Unsaved(); len(got) != 0 {
		t.Errorf("expected nothing unsaved after MarkSaved, got %d", len(got))
	}

	// A fresh cache restored from the entries classifies identically and
	// has nothing new to save.
	restored := NewRegionCache()
	if n := restored.Restore(unsaved); n != len(unsaved) {
		t.Errorf("expected %d restored, got %d", len(unsaved), n)
	}
	other := New(cfg.Terrain, cfg.Biomes, restored, zaptest.NewLogger(t)).(*Regions)
	for i := 0; i < 50; i++ {
		x, y := float64(i)*700, float64(i)*300
		if got, want := other.Classify(x, y), r.Classify(x, y); got != want {
			t.Fatalf("expected restored biome %d at (%v, %v), got %d", want, x, y, got)
		}
	}
	if got := restored.Unsaved(); len(got) != 0 {
		t.Errorf("expected restored entries to stay saved, got %d unsaved", len(got))
	}

	// Restore never overrides an existing assignment.
	e := unsaved[0]
	want, _ := restored.Biome(e.ID)
	e.Biome = want + 1
	if n := restored.Restore([]RegionEntry{e}); n != 0 {
		t.Errorf("expected no entries added, got %d", n)
	}
	if got, _ := restored.Biome(e.ID); got != want {
		t.Errorf("expected biome %d kept, got %d", want, got)
	}
}
