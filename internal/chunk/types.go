package chunk

import "fmt"

// Obstacle is the elevation sentinel for impassable cells. Real elevations
// are never negative.
const Obstacle = -1.0

// Coord identifies a chunk; it is the cache key.
type Coord struct {
	X int `json:"chunk_x"`
	Y int `json:"chunk_y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%d:%d", c.X, c.Y)
}

// Manhattan returns the chunk-grid Manhattan distance between c and o.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

// Chunk is an immutable Size x Size block of elevations. Cells are stored
// row-major: index = ly*Size + lx. A chunk without cells is entirely
// obstacle.
type Chunk struct {
	Coord Coord
	Size  int
	cells []float64
}

// At returns the elevation (or Obstacle) at local coordinates.
func (c *Chunk) At(lx, ly int) float64 {
	if c.cells == nil {
		return Obstacle
	}
	return c.cells[ly*c.Size+lx]
}

// ObstacleCount returns how many cells in the chunk are impassable.
func (c *Chunk) ObstacleCount() int {
	if c.cells == nil {
		return c.Size * c.Size
	}
	n := 0
	for _, v := range c.cells {
		if v == Obstacle {
			n++
		}
	}
	return n
}

// Stats is a point-in-time view of the store counters.
type Stats struct {
	Resident  int   `json:"resident"`
	Generated int64 `json:"generated"`
	Evicted   int64 `json:"evicted"`
	Hits      int64 `json:"hits"`
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns the non-negative remainder of a / b for positive b.
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Locate maps a world coordinate to its chunk and local offset.
func Locate(x, y, size int) (Coord, int, int) {
	return Coord{X: FloorDiv(x, size), Y: FloorDiv(y, size)}, FloorMod(x, size), FloorMod(y, size)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
