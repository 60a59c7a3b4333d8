// Package noise provides deterministic seeded 2D scalar fields.
//
// A Sampler is bound to one kind and one seed. Its frequency may be changed
// between calls to evaluate different layers, so a Sampler must not be
// shared across goroutines.
package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Kind selects the noise function.
type Kind int

const (
	// KindPerlin is single-octave gradient noise.
	KindPerlin Kind = iota
	// KindOpenSimplex is OpenSimplex gradient noise.
	KindOpenSimplex
	// KindValue is hashed lattice value noise with smoothstep blending.
	KindValue
	// KindCellular returns one constant value per Voronoi cell.
	KindCellular
)

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPerlin:
		return "perlin"
	case KindOpenSimplex:
		return "opensimplex"
	case KindValue:
		return "value"
	case KindCellular:
		return "cellular"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a config name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "perlin":
		return KindPerlin, nil
	case "opensimplex", "simplex":
		return KindOpenSimplex, nil
	case "value":
		return KindValue, nil
	case "cellular", "cell":
		return KindCellular, nil
	default:
		return KindPerlin, fmt.Errorf("unknown noise kind %q", name)
	}
}

// go-perlin parameters for a single octave.
const (
	perlinAlpha  = 2.0
	perlinBeta   = 2.0
	perlinOctave = 1
)

// Sampler evaluates one kind of noise for one seed.
type Sampler struct {
	kind      Kind
	seed      int64
	frequency float64

	perlin  *perlin.Perlin
	simplex opensimplex.Noise
}

// New creates a sampler with frequency 1.
func New(kind Kind, seed int64) *Sampler {
	s := &Sampler{
		kind:      kind,
		seed:      seed,
		frequency: 1,
	}
	switch kind {
	case KindPerlin:
		s.perlin = perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed)
	case KindOpenSimplex:
		s.simplex = opensimplex.New(seed)
	}
	return s
}

// Kind returns the sampler's noise kind.
func (s *Sampler) Kind() Kind { return s.kind }

// Seed returns the sampler's seed.
func (s *Sampler) Seed() int64 { return s.seed }

// Frequency returns the current frequency.
func (s *Sampler) Frequency() float64 { return s.frequency }

// SetFrequency sets the scale applied to input coordinates.
func (s *Sampler) SetFrequency(f float64) { s.frequency = f }

// Eval returns the noise value at (x, y) scaled by the current
// frequency. The result is always in [-1, 1].
func (s *Sampler) Eval(x, y float64) float64 {
	x *= s.frequency
	y *= s.frequency

	var v float64
	switch s.kind {
	case KindPerlin:
		v = s.perlin.Noise2D(x, y)
	case KindOpenSimplex:
		v = s.simplex.Eval2(x, y)
	case KindValue:
		v = valueNoise(x, y, s.seed)
	case KindCellular:
		v = cellValue(x, y, s.seed)
	}
	return clamp(v)
}

// Sample evaluates a single point without keeping a Sampler around.
// Gradient tables are rebuilt on every call, so prefer a Sampler in loops.
func Sample(kind Kind, seed int64, frequency, x, y float64) float64 {
	s := New(kind, seed)
	s.SetFrequency(frequency)
	return s.Eval(x, y)
}

// Normalize maps a value in [-1, 1] to [0, 1].
func Normalize(v float64) float64 {
	return (v + 1) / 2
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
