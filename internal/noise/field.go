// Package noise provides seeded elevation fields for terrain synthesis.
//
// Every Field is owned by the terrain instance that created it. Sampling is
// a pure function of (seed, x, y, params): there is no shared random stream,
// so a chunk regenerated after eviction sees exactly the values it had
// before, regardless of the order in which cells are visited.
package noise

import (
	"errors"
	"fmt"
	"strings"
)

// Field maps integer world coordinates to an elevation and an obstacle draw.
type Field interface {
	// Sample returns the elevation at (x, y) in [0, MaxElevation].
	Sample(x, y int) float64
	// Obstacle reports whether (x, y) holds an impassable cell.
	Obstacle(x, y int) bool
	Seed() int64
}

// Backend names accepted by New.
const (
	BackendPerlin = "perlin"
	BackendValue  = "value"
	BackendFlat   = "flat"
)

var ErrUnknownBackend = errors.New("unknown noise backend")

// Params configures octave summation and the obstacle draw.
type Params struct {
	Seed                int64
	MaxElevation        float64
	Scale               float64
	Octaves             int
	Persistence         float64
	Lacunarity          float64
	ObstacleProbability float64
}

// DefaultParams mirrors the simulator defaults.
func DefaultParams(seed int64) Params {
	return Params{
		Seed:                seed,
		MaxElevation:        250,
		Scale:               0.01,
		Octaves:             6,
		Persistence:         0.5,
		Lacunarity:          2.0,
		ObstacleProbability: 0.05,
	}
}

// New builds the field for the named backend. The flat backend uses half of
// MaxElevation as its constant height.
func New(backend string, p Params) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendPerlin:
		return NewPerlinField(p), nil
	case BackendValue:
		return NewValueField(p), nil
	case BackendFlat:
		return NewFlat(p.Seed, p.MaxElevation/2), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// fbm sums octave layers of base at geometrically increasing frequency and
// decreasing amplitude. The sum is divided by the total amplitude so the
// result keeps the base layer's [-1, 1] range.
func fbm(base func(x, y float64) float64, p Params, x, y int) float64 {
	octaves := p.Octaves
	if octaves < 1 {
		octaves = 1
	}

	var total, norm float64
	amplitude, frequency := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		nx := float64(x) * p.Scale * frequency
		ny := float64(y) * p.Scale * frequency
		total += base(nx, ny) * amplitude
		norm += amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}

// toElevation remaps a [-1, 1] signal into [0, maxElevation].
func toElevation(v, maxElevation float64) float64 {
	v = (v + 1) / 2
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return v * maxElevation
}

// obstacleDraw is the per-cell boolean draw shared by the noise backends.
func obstacleDraw(seed int64, probability float64, x, y int) bool {
	if probability <= 0 {
		return false
	}
	return Unit(Hash2(uint64(seed)^obstacleSalt, int64(x), int64(y))) < probability
}
