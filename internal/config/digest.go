package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"gopkg.in/yaml.v3"
)

// Digest returns a stable hash of the generation-relevant settings.
// Two configs with equal digests produce identical sector render data.
func (c *Config) Digest() string {
	generation := struct {
		Terrain TerrainConfig `yaml:"terrain"`
		Biomes  BiomeSet      `yaml:"biomes"`
	}{c.Terrain, c.Biomes}

	// yaml.v3 sorts map keys, so ring weights encode deterministically.
	data, err := yaml.Marshal(generation)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
