package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	OriginLat          float64 `yaml:"origin_lat" json:"origin_lat"`
	OriginLng          float64 `yaml:"origin_lng" json:"origin_lng"`
	TileSize           float64 `yaml:"tile_size" json:"tile_size"`
	Scale              float64 `yaml:"scale" json:"scale"`
	NeighborhoodRadius int     `yaml:"neighborhood_radius" json:"neighborhood_radius"`
	SpawnProbability   float64 `yaml:"spawn_probability" json:"spawn_probability"`
}

// Defaults places the start at the Oakes College classroom with a 1e-4 degree tile.
func Defaults() Tuning {
	return Tuning{
		OriginLat:          36.98949379578401,
		OriginLng:          -122.06277128548504,
		TileSize:           1e-4,
		Scale:              1e4,
		NeighborhoodRadius: 8,
		SpawnProbability:   0.1,
	}
}

// Load overlays the YAML file at path on Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TileSize <= 0 {
		return fmt.Errorf("tile_size must be > 0 (got %v)", t.TileSize)
	}
	if t.Scale <= 0 {
		return fmt.Errorf("scale must be > 0 (got %v)", t.Scale)
	}
	if t.NeighborhoodRadius < 0 {
		return fmt.Errorf("neighborhood_radius must be >= 0 (got %d)", t.NeighborhoodRadius)
	}
	if t.SpawnProbability < 0 || t.SpawnProbability > 1 {
		return fmt.Errorf("spawn_probability must be in [0,1] (got %v)", t.SpawnProbability)
	}
	return nil
}

// Digest is the sha256 hex of the canonical JSON form.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
