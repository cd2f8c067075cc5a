package noise

// Cell is an integer world coordinate.
type Cell struct {
	X, Y int
}

// Flat is a Field with constant elevation and an explicit obstacle set.
// It isolates search behaviour from noise when benchmarking or testing.
type Flat struct {
	seed      int64
	elevation float64
	blocked   map[Cell]struct{}
}

func NewFlat(seed int64, elevation float64, blocked ...Cell) *Flat {
	f := &Flat{
		seed:      seed,
		elevation: elevation,
		blocked:   make(map[Cell]struct{}, len(blocked)),
	}
	for _, c := range blocked {
		f.blocked[c] = struct{}{}
	}
	return f
}

func (f *Flat) Sample(x, y int) float64 {
	return f.elevation
}

func (f *Flat) Obstacle(x, y int) bool {
	_, ok := f.blocked[Cell{X: x, Y: y}]
	return ok
}

func (f *Flat) Seed() int64 {
	return f.seed
}
