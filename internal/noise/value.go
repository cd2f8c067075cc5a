package noise

import "math"

// ValueField is hash-lattice value noise: random heights on integer lattice
// points, blended with smoothstep bilinear interpolation. It needs no
// permutation table and is the cheaper alternative to PerlinField.
type ValueField struct {
	params Params
	salt   uint64
}

func NewValueField(p Params) *ValueField {
	return &ValueField{
		params: p,
		salt:   uint64(p.Seed) ^ latticeSalt,
	}
}

func (f *ValueField) Sample(x, y int) float64 {
	return toElevation(fbm(f.noise2D, f.params, x, y), f.params.MaxElevation)
}

func (f *ValueField) Obstacle(x, y int) bool {
	return obstacleDraw(f.params.Seed, f.params.ObstacleProbability, x, y)
}

func (f *ValueField) Seed() int64 {
	return f.params.Seed
}

// noise2D returns a value in [-1, 1].
func (f *ValueField) noise2D(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	tx := smoothstep(x - x0)
	ty := smoothstep(y - y0)

	ix, iy := int64(x0), int64(y0)
	n00 := f.lattice(ix, iy)
	n10 := f.lattice(ix+1, iy)
	n01 := f.lattice(ix, iy+1)
	n11 := f.lattice(ix+1, iy+1)

	nx0 := lerp(n00, n10, tx)
	nx1 := lerp(n01, n11, tx)
	return lerp(nx0, nx1, ty)
}

func (f *ValueField) lattice(ix, iy int64) float64 {
	return Unit(Hash2(f.salt, ix, iy))*2 - 1
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
