package sectordb

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache", "sectors.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func buildSector(t *testing.T, x, y int) (*config.Config, *terrain.SectorRenderData) {
	t.Helper()
	cfg := config.Default()
	cfg.Terrain.SectorSizeInCells = 4
	return cfg, terrain.NewBuilder(cfg, nil, zaptest.NewLogger(t)).Build(terrain.SectorCoordinate{X: x, Y: y})
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	cfg, data := buildSector(t, 3, 5)
	digest := cfg.Digest()

	if err := db.Put(ctx, digest, data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := db.Get(ctx, digest, data.Coordinate)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if err := got.Check(); err != nil {
		t.Fatalf("decoded data violates invariants: %v", err)
	}
	if !reflect.DeepEqual(got.Ground.Vertices, data.Ground.Vertices) {
		t.Error("ground vertices differ after round trip")
	}
	if !reflect.DeepEqual(got.Ground.Colors, data.Ground.Colors) {
		t.Error("ground colors differ after round trip")
	}
	if !reflect.DeepEqual(got.Ground.Boundary, data.Ground.Boundary) {
		t.Error("boundary flags differ after round trip")
	}
	if !reflect.DeepEqual(got.Water.Indices, data.Water.Indices) {
		t.Error("water indices differ after round trip")
	}
	if got.Origin != data.Origin || got.Coordinate != data.Coordinate || got.Cells != data.Cells {
		t.Errorf("header differs: got %v/%v/%d, expected %v/%v/%d",
			got.Coordinate, got.Origin, got.Cells, data.Coordinate, data.Origin, data.Cells)
	}
}

func TestGetMissing(t *testing.T) {
	db := openTemp(t)
	_, ok, err := db.Get(context.Background(), "nope", terrain.SectorCoordinate{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("expected no error for a missing row, got %v", err)
	}
	if ok {
		t.Error("expected ok=false for a missing row")
	}
}

func TestDigestIsolation(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	_, data := buildSector(t, 0, 0)

	if err := db.Put(ctx, "a", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := db.Get(ctx, "b", data.Coordinate); ok {
		t.Error("expected rows to be scoped by digest")
	}

	if err := db.Put(ctx, "b", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	removed, err := db.Prune(ctx, "b")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 row pruned, got %d", removed)
	}
	if n, _ := db.Count(ctx, "b"); n != 1 {
		t.Errorf("expected 1 row kept, got %d", n)
	}
}

func TestPutReplaces(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	_, data := buildSector(t, 2, 2)

	for i := 0; i < 3; i++ {
		if err := db.Put(ctx, "d", data); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}
	if n, err := db.Count(ctx, "d"); err != nil || n != 1 {
		t.Errorf("expected 1 row, got %d (err %v)", n, err)
	}
}

func TestBucket(t *testing.T) {
	db := openTemp(t)
	cfg, data := buildSector(t, 7, 1)
	b := db.Bucket(cfg.Digest())

	if err := b.Save(data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := b.Load(data.Coordinate)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Ground.VertexCount() != data.Ground.VertexCount() {
		t.Errorf("expected %d vertices, got %d", data.Ground.VertexCount(), got.Ground.VertexCount())
	}
}

func TestClosed(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "sectors.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
	if _, _, err := db.Get(context.Background(), "d", terrain.SectorCoordinate{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected error for an empty path")
	}
}

func TestRegionsRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	entries := []biome.RegionEntry{
		{ID: 7, Ring: 1, Biome: 3, HasBiome: true, Position: biome.Point{X: 150.5, Y: -20}},
		{ID: 42, Ring: 2, Position: biome.Point{X: 9000, Y: 12000}},
	}
	if err := db.PutRegions(ctx, "a", entries); err != nil {
		t.Fatalf("PutRegions: %v", err)
	}

	got, err := db.GetRegions(ctx, "a")
	if err != nil {
		t.Fatalf("GetRegions: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("expected %+v, got %+v", entries, got)
	}

	// A later save fills in a missing biome but never replaces one.
	update := []biome.RegionEntry{
		{ID: 7, Ring: 1, Biome: 5, HasBiome: true, Position: biome.Point{X: 150.5, Y: -20}},
		{ID: 42, Ring: 2, Biome: 1, HasBiome: true, Position: biome.Point{X: 9000, Y: 12000}},
	}
	if err := db.PutRegions(ctx, "a", update); err != nil {
		t.Fatalf("PutRegions: %v", err)
	}
	got, _ = db.GetRegions(ctx, "a")
	if len(got) != 2 || got[0].Biome != 3 || !got[1].HasBiome || got[1].Biome != 1 {
		t.Errorf("expected biomes 3 and 1, got %+v", got)
	}

	if other, _ := db.GetRegions(ctx, "b"); len(other) != 0 {
		t.Errorf("expected no regions under another digest, got %d", len(other))
	}

	if _, err := db.Prune(ctx, "b"); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if got, _ := db.GetRegions(ctx, "a"); len(got) != 0 {
		t.Errorf("expected regions pruned with their digest, got %d", len(got))
	}
}

func TestBucketRegions(t *testing.T) {
	db := openTemp(t)
	b := db.Bucket("digest")

	cache := biome.NewRegionCache()
	cfg := config.Default()
	cfg.Biomes.Mode = config.BiomeModeRegions
	c := biome.New(cfg.Terrain, cfg.Biomes, cache, zaptest.NewLogger(t))
	for i := 0; i < 20; i++ {
		c.Classify(float64(i)*1000, float64(i)*500)
	}

	if err := b.SaveRegions(cache.Unsaved()); err != nil {
		t.Fatalf("SaveRegions: %v", err)
	}
	loaded, err := b.LoadRegions()
	if err != nil {
		t.Fatalf("LoadRegions: %v", err)
	}
	if len(loaded) != cache.Len() {
		t.Fatalf("expected %d regions, got %d", cache.Len(), len(loaded))
	}
	for _, e := range loaded {
		want, _ := cache.Biome(e.ID)
		if !e.HasBiome || e.Biome != want {
			t.Errorf("region %d: expected biome %d, got %d", e.ID, want, e.Biome)
		}
	}
}
