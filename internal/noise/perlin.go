package noise

import (
	"github.com/aquilax/go-perlin"
)

// PerlinField sums Perlin octaves from a single-octave generator owned by
// this field. The permutation table is derived from the seed when the field
// is built, so two fields never share state.
type PerlinField struct {
	noise  *perlin.Perlin
	params Params
}

// NewPerlinField creates a Perlin-backed field. Octave summation happens in
// fbm rather than inside go-perlin so persistence and lacunarity stay
// configurable per field.
func NewPerlinField(p Params) *PerlinField {
	return &PerlinField{
		noise:  perlin.NewPerlin(2, 2, 1, p.Seed),
		params: p,
	}
}

// Sample returns the elevation at (x, y).
func (f *PerlinField) Sample(x, y int) float64 {
	return toElevation(fbm(f.noise.Noise2D, f.params, x, y), f.params.MaxElevation)
}

// Obstacle reports the deterministic obstacle draw at (x, y).
func (f *PerlinField) Obstacle(x, y int) bool {
	return obstacleDraw(f.params.Seed, f.params.ObstacleProbability, x, y)
}

func (f *PerlinField) Seed() int64 {
	return f.params.Seed
}
