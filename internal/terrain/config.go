package terrain

import (
	"errors"
	"fmt"

	"github.com/VoidMesh/pathfinder/internal/noise"
)

// ErrInvalidConfig wraps every construction-time configuration failure.
var ErrInvalidConfig = errors.New("invalid terrain configuration")

// Config is fixed for the lifetime of a Map.
type Config struct {
	Width               int     `yaml:"width" json:"width"`
	Height              int     `yaml:"height" json:"height"`
	MaxElevation        float64 `yaml:"max_elevation" json:"max_elevation"`
	ChunkSize           int     `yaml:"chunk_size" json:"chunk_size"`
	Seed                int64   `yaml:"seed" json:"seed"`
	Scale               float64 `yaml:"scale" json:"scale"`
	Octaves             int     `yaml:"octaves" json:"octaves"`
	Persistence         float64 `yaml:"persistence" json:"persistence"`
	Lacunarity          float64 `yaml:"lacunarity" json:"lacunarity"`
	ObstacleProbability float64 `yaml:"obstacle_probability" json:"obstacle_probability"`
	NoiseBackend        string  `yaml:"noise_backend" json:"noise_backend"`
}

// DefaultConfig returns the full-size world used by the simulator.
func DefaultConfig() Config {
	return Config{
		Width:               15000,
		Height:              15000,
		MaxElevation:        250,
		ChunkSize:           256,
		Seed:                0,
		Scale:               0.01,
		Octaves:             6,
		Persistence:         0.5,
		Lacunarity:          2.0,
		ObstacleProbability: 0.05,
		NoiseBackend:        noise.BackendPerlin,
	}
}

// Validate rejects parameters under which chunks could not be addressed or
// sampled consistently.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: world extent %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk_size %d must be positive", ErrInvalidConfig, c.ChunkSize)
	case c.ChunkSize > max(c.Width, c.Height):
		return fmt.Errorf("%w: chunk_size %d exceeds world extent %dx%d", ErrInvalidConfig, c.ChunkSize, c.Width, c.Height)
	case c.MaxElevation <= 0:
		return fmt.Errorf("%w: max_elevation %g must be positive", ErrInvalidConfig, c.MaxElevation)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale %g must be positive", ErrInvalidConfig, c.Scale)
	case c.Octaves < 1:
		return fmt.Errorf("%w: octaves %d must be at least 1", ErrInvalidConfig, c.Octaves)
	case c.Persistence <= 0:
		return fmt.Errorf("%w: persistence %g must be positive", ErrInvalidConfig, c.Persistence)
	case c.Lacunarity <= 0:
		return fmt.Errorf("%w: lacunarity %g must be positive", ErrInvalidConfig, c.Lacunarity)
	case c.ObstacleProbability < 0 || c.ObstacleProbability > 1:
		return fmt.Errorf("%w: obstacle_probability %g must be within [0, 1]", ErrInvalidConfig, c.ObstacleProbability)
	}
	return nil
}

// NoiseParams converts the config into sampler parameters.
func (c Config) NoiseParams() noise.Params {
	return noise.Params{
		Seed:                c.Seed,
		MaxElevation:        c.MaxElevation,
		Scale:               c.Scale,
		Octaves:             c.Octaves,
		Persistence:         c.Persistence,
		Lacunarity:          c.Lacunarity,
		ObstacleProbability: c.ObstacleProbability,
	}
}
