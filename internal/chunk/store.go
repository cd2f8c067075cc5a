package chunk

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/noise"
)

var ErrInvalidDimensions = errors.New("invalid chunk store dimensions")

// Store lazily materializes chunks from a noise field and keeps them
// resident until evicted. It is safe for concurrent use: each key moves
// absent -> generating -> present at most once per residency, and callers
// racing on the same key share one synthesis.
type Store struct {
	field  noise.Field
	size   int
	width  int
	height int
	cols   int
	rows   int

	mu     sync.RWMutex
	chunks map[Coord]*Chunk
	group  singleflight.Group

	generated atomic.Int64
	evicted   atomic.Int64
	hits      atomic.Int64

	logger *log.Logger
}

// NewStore creates a store for a width x height world cut into size x size
// chunks. Edge chunks may extend past the world; those cells are obstacles.
func NewStore(field noise.Field, size, width, height int) (*Store, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: nil noise field", ErrInvalidDimensions)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidDimensions, size)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: world %dx%d", ErrInvalidDimensions, width, height)
	}

	logger := logging.WithComponent("chunk-store")
	s := &Store{
		field:  field,
		size:   size,
		width:  width,
		height: height,
		cols:   (width + size - 1) / size,
		rows:   (height + size - 1) / size,
		chunks: make(map[Coord]*Chunk),
		logger: logger,
	}
	logger.Debug("Creating chunk store", "chunk_size", size, "cols", s.cols, "rows", s.rows, "seed", field.Seed())
	return s, nil
}

// Size returns the chunk edge length in cells.
func (s *Store) Size() int { return s.size }

// Cols returns the number of chunk columns covering the world.
func (s *Store) Cols() int { return s.cols }

// Rows returns the number of chunk rows covering the world.
func (s *Store) Rows() int { return s.rows }

// InRange reports whether c addresses a chunk overlapping the world.
func (s *Store) InRange(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < s.cols && c.Y < s.rows
}

// Generate returns the chunk at (cx, cy), synthesizing and caching it on
// first access. Out-of-range coordinates yield an all-obstacle chunk that is
// neither cached nor counted.
func (s *Store) Generate(cx, cy int) *Chunk {
	c := Coord{X: cx, Y: cy}
	if !s.InRange(c) {
		return &Chunk{Coord: c, Size: s.size}
	}

	s.mu.RLock()
	ch, ok := s.chunks[c]
	s.mu.RUnlock()
	if ok {
		s.hits.Inc()
		return ch
	}

	v, _, _ := s.group.Do(c.String(), func() (interface{}, error) {
		// A caller that lost the race to a finished flight lands here.
		s.mu.RLock()
		existing, ok := s.chunks[c]
		s.mu.RUnlock()
		if ok {
			return existing, nil
		}

		generated := s.synthesize(c)

		s.mu.Lock()
		s.chunks[c] = generated
		s.mu.Unlock()
		s.generated.Inc()
		return generated, nil
	})
	return v.(*Chunk)
}

func (s *Store) synthesize(c Coord) *Chunk {
	logger := logging.WithChunkCoords(c.X, c.Y)
	start := time.Now()

	cells := make([]float64, s.size*s.size)
	originX := c.X * s.size
	originY := c.Y * s.size
	obstacles := 0
	for ly := 0; ly < s.size; ly++ {
		for lx := 0; lx < s.size; lx++ {
			wx := originX + lx
			wy := originY + ly
			idx := ly*s.size + lx
			switch {
			case wx >= s.width || wy >= s.height:
				cells[idx] = Obstacle
				obstacles++
			case s.field.Obstacle(wx, wy):
				cells[idx] = Obstacle
				obstacles++
			default:
				cells[idx] = s.field.Sample(wx, wy)
			}
		}
	}

	logger.Debug("Chunk generated", "duration", time.Since(start), "obstacles", obstacles)
	return &Chunk{Coord: c, Size: s.size, cells: cells}
}

// EvictFar removes every resident chunk whose Manhattan chunk distance from
// the chunk containing world point (centerX, centerY) exceeds radius. It
// returns the number of chunks removed.
func (s *Store) EvictFar(centerX, centerY, radius int) int {
	center, _, _ := Locate(centerX, centerY, s.size)
	return s.EvictOutside([]Coord{center}, radius)
}

// EvictOutside removes every resident chunk farther than radius from all of
// the given center chunks. With no centers every chunk is removed.
func (s *Store) EvictOutside(centers []Coord, radius int) int {
	s.mu.Lock()
	removed := 0
	for c := range s.chunks {
		if !withinAny(c, centers, radius) {
			delete(s.chunks, c)
			removed++
		}
	}
	resident := len(s.chunks)
	s.mu.Unlock()

	if removed > 0 {
		s.evicted.Add(int64(removed))
		s.logger.Debug("Evicted distant chunks", "removed", removed, "resident", resident, "radius", radius)
	}
	return removed
}

func withinAny(c Coord, centers []Coord, radius int) bool {
	for _, center := range centers {
		if c.Manhattan(center) <= radius {
			return true
		}
	}
	return false
}

// Clear drops every resident chunk and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	removed := len(s.chunks)
	s.chunks = make(map[Coord]*Chunk)
	s.mu.Unlock()

	s.evicted.Add(int64(removed))
	s.logger.Debug("Chunk cache cleared", "removed", removed)
	return removed
}

// Len returns the number of resident chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// IsResident reports whether c is currently cached.
func (s *Store) IsResident(c Coord) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[c]
	return ok
}

// Resident returns the cached chunk coordinates sorted by (X, Y).
func (s *Store) Resident() []Coord {
	s.mu.RLock()
	coords := make([]Coord, 0, len(s.chunks))
	for c := range s.chunks {
		coords = append(coords, c)
	}
	s.mu.RUnlock()

	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})
	return coords
}

// Stats returns the current counters. Generated is the number of chunk
// syntheses since the store was created.
func (s *Store) Stats() Stats {
	return Stats{
		Resident:  s.Len(),
		Generated: s.generated.Load(),
		Evicted:   s.evicted.Load(),
		Hits:      s.hits.Load(),
	}
}
