// Package terrain is the world-coordinate façade over the chunk store.
package terrain

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/noise"
)

// preloadWorkers bounds parallel chunk synthesis during Preload.
const preloadWorkers = 4

// Map answers elevation queries in world coordinates, materializing chunks
// on demand. Any coordinate outside [0,Width) x [0,Height) is an obstacle.
type Map struct {
	cfg    Config
	field  noise.Field
	store  *chunk.Store
	logger *log.Logger
}

// New validates cfg and builds the map with the configured noise backend.
func New(cfg Config) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	field, err := noise.New(cfg.NoiseBackend, cfg.NoiseParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return NewWithField(cfg, field)
}

// NewWithField builds the map over an explicit field. Only the world extent
// and chunk size of cfg are used for addressing; the noise parameters are
// whatever field was built with.
func NewWithField(cfg Config, field noise.Field) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := chunk.NewStore(field, cfg.ChunkSize, cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := logging.WithComponent("terrain")
	logger.Info("Terrain initialized",
		"width", cfg.Width, "height", cfg.Height,
		"chunk_size", cfg.ChunkSize, "seed", field.Seed(), "backend", cfg.NoiseBackend)

	return &Map{
		cfg:    cfg,
		field:  field,
		store:  store,
		logger: logger,
	}, nil
}

func (m *Map) Config() Config        { return m.cfg }
func (m *Map) Width() int            { return m.cfg.Width }
func (m *Map) Height() int           { return m.cfg.Height }
func (m *Map) ChunkSize() int        { return m.cfg.ChunkSize }
func (m *Map) MaxElevation() float64 { return m.cfg.MaxElevation }
func (m *Map) Seed() int64           { return m.field.Seed() }
func (m *Map) Store() *chunk.Store   { return m.store }
func (m *Map) Stats() chunk.Stats    { return m.store.Stats() }

// InBounds reports whether (x, y) lies inside the world.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.cfg.Width && y < m.cfg.Height
}

// Elevation returns the elevation at (x, y), or chunk.Obstacle for
// impassable and out-of-bounds cells.
func (m *Map) Elevation(x, y int) float64 {
	if !m.InBounds(x, y) {
		return chunk.Obstacle
	}
	c, lx, ly := chunk.Locate(x, y, m.cfg.ChunkSize)
	return m.store.Generate(c.X, c.Y).At(lx, ly)
}

// IsObstacle reports whether (x, y) cannot be entered.
func (m *Map) IsObstacle(x, y int) bool {
	return m.Elevation(x, y) == chunk.Obstacle
}

// ChunkOf returns the chunk containing world point (x, y).
func (m *Map) ChunkOf(x, y int) chunk.Coord {
	c, _, _ := chunk.Locate(x, y, m.cfg.ChunkSize)
	return c
}

// VisibleChunks lists the chunks within Manhattan radius of the chunk that
// contains (centerX, centerY), clipped to the world and ordered by (X, Y).
// It never materializes anything.
func (m *Map) VisibleChunks(centerX, centerY, radius int) []chunk.Coord {
	if radius < 0 {
		return nil
	}
	center := m.ChunkOf(centerX, centerY)

	// Iterate only over the part of the diamond that lies inside the grid.
	var coords []chunk.Coord
	xlo, xhi := clip(center.X, radius, m.store.Cols())
	for x := xlo; x <= xhi; x++ {
		span := radius - abs(x-center.X)
		ylo, yhi := clip(center.Y, span, m.store.Rows())
		for y := ylo; y <= yhi; y++ {
			coords = append(coords, chunk.Coord{X: x, Y: y})
		}
	}
	return coords
}

// clip intersects [c-r, c+r] with [0, n) without overflowing. The range is
// empty when lo > hi.
func clip(c, r, n int) (lo, hi int) {
	switch {
	case c <= 0 || r >= c:
		lo = 0
	default:
		lo = c - r
	}
	switch {
	case c < 0:
		hi = min(c+r, n-1)
	case c >= n-1 || r >= n-1-c:
		hi = n - 1
	default:
		hi = c + r
	}
	return lo, hi
}

// UnloadDistantChunks evicts chunks farther than radius (Manhattan, in
// chunks) from the chunk containing (centerX, centerY). Query results are
// unaffected; evicted chunks regenerate identically on next access.
func (m *Map) UnloadDistantChunks(centerX, centerY, radius int) int {
	return m.store.EvictFar(centerX, centerY, radius)
}

// UnloadOutside evicts chunks farther than radius from every given center.
func (m *Map) UnloadOutside(centers []chunk.Coord, radius int) int {
	return m.store.EvictOutside(centers, radius)
}

// Preload materializes the visible chunk set around (centerX, centerY) in
// parallel.
func (m *Map) Preload(ctx context.Context, centerX, centerY, radius int) error {
	coords := m.VisibleChunks(centerX, centerY, radius)
	if len(coords) == 0 {
		return nil
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadWorkers)
	for _, c := range coords {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.store.Generate(c.X, c.Y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("Chunk preload interrupted", "center_x", centerX, "center_y", centerY, "error", err)
		return fmt.Errorf("failed to preload chunks: %w", err)
	}

	logging.WithDuration("preload", time.Since(start)).Debug("Chunks preloaded",
		"center_x", centerX, "center_y", centerY, "radius", radius, "chunks", len(coords))
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
