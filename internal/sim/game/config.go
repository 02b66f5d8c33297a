package game

import (
	"fmt"

	"geocoin.ai/internal/sim/tuning"
)

type Config struct {
	ID string

	OriginLat float64
	OriginLng float64
	TileSize  float64
	Scale     float64

	NeighborhoodRadius int
	SpawnProbability   float64
}

func ConfigFromTuning(id string, t tuning.Tuning) Config {
	return Config{
		ID:                 id,
		OriginLat:          t.OriginLat,
		OriginLng:          t.OriginLng,
		TileSize:           t.TileSize,
		Scale:              t.Scale,
		NeighborhoodRadius: t.NeighborhoodRadius,
		SpawnProbability:   t.SpawnProbability,
	}
}

// Tuning is the inverse of ConfigFromTuning.
func (c Config) Tuning() tuning.Tuning {
	return tuning.Tuning{
		OriginLat:          c.OriginLat,
		OriginLng:          c.OriginLng,
		TileSize:           c.TileSize,
		Scale:              c.Scale,
		NeighborhoodRadius: c.NeighborhoodRadius,
		SpawnProbability:   c.SpawnProbability,
	}
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "session_1"
	}
	d := tuning.Defaults()
	if c.TileSize == 0 {
		c.TileSize = d.TileSize
	}
	if c.Scale == 0 {
		c.Scale = d.Scale
	}
}

func (c Config) validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be > 0 (got %v)", c.TileSize)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be > 0 (got %v)", c.Scale)
	}
	if c.NeighborhoodRadius < 0 {
		return fmt.Errorf("neighborhood radius must be >= 0 (got %d)", c.NeighborhoodRadius)
	}
	if c.SpawnProbability < 0 || c.SpawnProbability > 1 {
		return fmt.Errorf("spawn probability must be in [0,1] (got %v)", c.SpawnProbability)
	}
	return nil
}
