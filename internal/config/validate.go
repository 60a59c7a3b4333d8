package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned (wrapped) for any config that fails validation.
var ErrInvalid = errors.New("invalid config")

// MaxBiomes is the number of biome ids representable by a uint8 index.
const MaxBiomes = 256

//go:embed terrain.schema.json
var schemaSource string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("terrain.schema.json", schemaSource)
	})
	return schema, schemaErr
}

// Validate checks the config against the embedded schema and then runs
// the cross-field checks the schema cannot express.
func (c *Config) Validate() error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	doc, err := c.document()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return c.checkSemantics()
}

// document converts the config into the generic JSON value tree the
// schema validator expects, using the YAML field names.
func (c *Config) document() (any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	js, err := json.Marshal(stringKeys(raw))
	if err != nil {
		return nil, fmt.Errorf("encoding config as json: %w", err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("decoding config json: %w", err)
	}
	return doc, nil
}

// stringKeys rewrites YAML maps with non-string keys (ring weights are
// keyed by biome index) so they survive JSON encoding.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	default:
		return v
	}
}

func (c *Config) checkSemantics() error {
	var errs []error

	if c.Streaming.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("streaming.tick_interval must be positive, got %v", c.Streaming.TickInterval))
	}

	seen := make(map[string]bool, len(c.Terrain.NoiseGroups))
	for _, g := range c.Terrain.NoiseGroups {
		key := normalizeName(g.Name)
		if seen[key] {
			errs = append(errs, fmt.Errorf("noise group %q defined twice", g.Name))
		}
		seen[key] = true
	}

	count := len(c.Biomes.Definitions)
	if count > MaxBiomes {
		errs = append(errs, fmt.Errorf("%d biomes exceeds the limit of %d", count, MaxBiomes))
	}

	if c.Biomes.Mode == BiomeModeRegions {
		if len(c.Biomes.Rings) == 0 {
			errs = append(errs, errors.New("biomes.mode regions needs at least one ring"))
		}
		var prevOuter float32
		for i, r := range c.Biomes.Rings {
			if r.OuterRadius <= r.InnerRadius {
				errs = append(errs, fmt.Errorf("ring %d (%s): outer radius %v must exceed inner radius %v", i, r.Name, r.OuterRadius, r.InnerRadius))
			}
			if r.InnerRadius != prevOuter {
				errs = append(errs, fmt.Errorf("ring %d (%s): inner radius %v leaves a gap or overlap after %v", i, r.Name, r.InnerRadius, prevOuter))
			}
			prevOuter = r.OuterRadius
			for idx := range r.Weights {
				if int(idx) >= count {
					errs = append(errs, fmt.Errorf("ring %d (%s): weight for biome %d but only %d biomes defined", i, r.Name, idx, count))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
