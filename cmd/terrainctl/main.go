// terrainctl is a CLI utility for inspecting and pre-generating terrain.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/biome"
	"github.com/Faultbox/terrastream/internal/engine/debug"
	"github.com/Faultbox/terrastream/internal/engine/noise"
	"github.com/Faultbox/terrastream/internal/engine/terrain"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/internal/persistence/sectordb"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "sector":
		err = cmdSector(os.Stdout, args)
	case "biomes", "map":
		err = cmdBiomes(os.Stdout, args)
	case "bake":
		err = cmdBake(os.Stdout, args)
	case "config":
		err = cmdConfig(os.Stdout, args)
	case "validate":
		err = cmdValidate(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrainctl - procedural terrain utility

Usage:
  terrainctl <command> [options]

Commands:
  sector [-config f] <x> <y>          Build one sector and print statistics
  biomes [-config f] [-size N] [-o f] Print an ASCII biome map or write a PNG
         [-heights]                   Render ground elevation instead of biomes
  bake [-config f] [-db f] [-keep]    Generate every sector into the cache
  config [-config f] [-o f]           Print or write the effective config
  validate <file>                     Check a config file

Examples:
  terrainctl sector 3 4
  terrainctl biomes -size 64
  terrainctl biomes -size 512 -o biomes.png
  terrainctl bake -db cache/sectors.db
  terrainctl validate terrain.yaml`)
}

// commonFlags registers the flags every command shares.
type commonFlags struct {
	config  *string
	seed    *int
	verbose *bool
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs, commonFlags{
		config:  fs.String("config", "", "Path to config file"),
		seed:    fs.Int("seed", 0, "Override the world seed (0 keeps the configured seed)"),
		verbose: fs.Bool("v", false, "Log debug output"),
	}
}

// load reads the config and sets up logging. Warnings from generation
// fallbacks go to stderr.
func (c commonFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *c.config != "" {
		cfg, err = config.LoadFile(*c.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if *c.seed != 0 {
		cfg.Terrain.Seed = *c.seed
	}

	level := "warn"
	if *c.verbose {
		level = "debug"
	}
	if err := logger.InitWithFileConfig(level, logger.FileConfig{}, true); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdSector(w io.Writer, args []string) error {
	fs, common := newFlagSet("sector")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("usage: terrainctl sector [-config f] <x> <y>")
	}
	x, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("sector x: %w", err)
	}
	y, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("sector y: %w", err)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if n := cfg.Terrain.WorldSizeInSectors; x < 0 || y < 0 || x >= n || y >= n {
		fmt.Fprintf(w, "Note: sector (%d, %d) is outside the %dx%d world and would never stream\n", x, y, n, n)
	}

	builder := terrain.NewBuilder(cfg, biome.NewRegionCache(), logger.Named("terrain"))
	start := time.Now()
	data := builder.Build(terrain.SectorCoordinate{X: x, Y: y})
	elapsed := time.Since(start)

	printSector(w, data, len(cfg.Biomes.Definitions), cfg.Biomes.Definitions)
	fmt.Fprintf(w, "Built in: %v\n", elapsed.Round(time.Microsecond))

	if err := data.Check(); err != nil {
		return fmt.Errorf("sector failed checks: %w", err)
	}
	fmt.Fprintln(w, "Checks:   ok")
	return nil
}

func printSector(w io.Writer, data *terrain.SectorRenderData, biomeCount int, defs []config.BiomeDefinition) {
	fmt.Fprintf(w, "Sector:   %s\n", data.Coordinate)
	fmt.Fprintf(w, "Origin:   (%.0f, %.0f)\n", data.Origin.X, data.Origin.Y)
	fmt.Fprintf(w, "Layout:   %s, %d cells of %.0f\n", data.Layout, data.Cells, data.CellSize)
	printMesh(w, "Ground", &data.Ground)
	printMesh(w, "Water", &data.Water)

	// Biome histogram over ground vertices.
	counts := make(map[uint8]int)
	boundary := 0
	for i, c := range data.Ground.Colors {
		primary, _, onBoundary := terrain.DecodeBiomeColor(c, biomeCount)
		if data.Ground.PrimaryBiome != nil {
			primary = data.Ground.PrimaryBiome[i]
		}
		counts[primary]++
		if data.Ground.Boundary != nil {
			onBoundary = data.Ground.Boundary[i]
		}
		if onBoundary {
			boundary++
		}
	}
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Fprintln(w, "Biomes:")
	for _, id := range ids {
		name := "?"
		if id < len(defs) {
			name = defs[id].Name
		}
		fmt.Fprintf(w, "  %3d %-16s %d\n", id, name, counts[uint8(id)])
	}
	fmt.Fprintf(w, "Boundary: %d vertices\n", boundary)
}

func printMesh(w io.Writer, label string, m *terrain.MeshRenderData) {
	b := m.Bounds()
	fmt.Fprintf(w, "%-9s %d vertices, %d triangles, z %.1f..%.1f\n",
		label+":", m.VertexCount(), m.TriangleCount(), b.Min[2], b.Max[2])
}

func cmdBiomes(w io.Writer, args []string) error {
	fs, common := newFlagSet("biomes")
	size := fs.Int("size", 48, "Samples per side")
	output := fs.String("o", "", "Write a PNG instead of printing")
	heights := fs.Bool("heights", false, "Render ground elevation instead of biomes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size <= 0 {
		return fmt.Errorf("size must be positive, got %d", *size)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	world := cfg.Terrain.WorldSize()

	if *heights {
		if *output == "" {
			return errors.New("-heights needs -o")
		}
		kind, _ := noise.ParseKind(cfg.Terrain.NoiseKind)
		group, ok := cfg.Terrain.NoiseGroup(cfg.Terrain.GroundNoiseGroup)
		if !ok {
			logger.Warn("noise group not found, using zero height", zap.String("group", cfg.Terrain.GroundNoiseGroup))
		}
		sampler := terrain.NewHeightSampler(kind, int64(cfg.Terrain.Seed), cfg.Terrain.WaterLevel)
		img, err := debug.HeightMap(sampler, group, debug.GroupRange(group), world, *size)
		if err != nil {
			return err
		}
		if err := debug.WritePNG(*output, img); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %dx%d height map to %s\n", *size, *size, *output)
		return nil
	}

	classifier := biome.New(cfg.Terrain, cfg.Biomes, biome.NewRegionCache(), logger.Named("biome"))
	if *output == "" {
		return debug.WriteASCIIBiomeMap(w, classifier, world, *size)
	}

	img := debug.BiomeMap(classifier, biome.NewPalette(cfg.Biomes.Definitions), world, *size)
	if err := debug.WritePNG(*output, img); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %dx%d %s biome map to %s\n", *size, *size, cfg.Biomes.Mode, *output)
	return nil
}

func cmdBake(w io.Writer, args []string) error {
	fs, common := newFlagSet("bake")
	dbPath := fs.String("db", "", "Cache database (default: cache.path from config)")
	keep := fs.Bool("keep", false, "Keep entries baked from other configs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	path := *dbPath
	if path == "" {
		path = cfg.Cache.Path
	}
	if path == "" {
		return errors.New("no cache database: set cache.path or pass -db")
	}

	db, err := sectordb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return bake(context.Background(), w, cfg, db, !*keep)
}

// bake builds every sector of the world into db under the config digest.
func bake(ctx context.Context, w io.Writer, cfg *config.Config, db *sectordb.DB, prune bool) error {
	digest := cfg.Digest()

	// Rebuilt sectors must agree with regions already assigned by earlier
	// runs under this digest.
	regions := biome.NewRegionCache()
	stored, err := db.GetRegions(ctx, digest)
	if err != nil {
		return err
	}
	regions.Restore(stored)

	builder := terrain.NewBuilder(cfg, regions, logger.Named("terrain"))
	n := cfg.Terrain.WorldSizeInSectors

	start := time.Now()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := builder.Build(terrain.SectorCoordinate{X: x, Y: y})
			if entries := regions.Unsaved(); len(entries) > 0 {
				if err := db.PutRegions(ctx, digest, entries); err != nil {
					return fmt.Errorf("storing regions for sector (%d, %d): %w", x, y, err)
				}
				regions.MarkSaved(entries)
			}
			if err := db.Put(ctx, digest, data); err != nil {
				return fmt.Errorf("storing sector (%d, %d): %w", x, y, err)
			}
		}
		fmt.Fprintf(w, "\rBaked %d/%d rows", y+1, n)
	}
	if n > 0 {
		fmt.Fprintln(w)
	}

	if prune {
		removed, err := db.Prune(ctx, digest)
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Fprintf(w, "Pruned %d sectors from other configs\n", removed)
		}
	}

	count, err := db.Count(ctx, digest)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Cached %d sectors for digest %s in %v\n", count, digest[:12], time.Since(start).Round(time.Millisecond))
	return nil
}

func cmdConfig(w io.Writer, args []string) error {
	fs, common := newFlagSet("config")
	output := fs.String("o", "", "Write to file instead of printing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *output != "" {
		if err := cfg.SaveTo(*output); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote config to %s\n", *output)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func cmdValidate(w io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: terrainctl validate <file>")
	}

	cfg, err := config.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		// errors.Join separates causes with newlines.
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return fmt.Errorf("%s is not valid", args[0])
	}

	fmt.Fprintf(w, "%s: ok (digest %s)\n", args[0], cfg.Digest()[:12])
	return nil
}
