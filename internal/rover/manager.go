package rover

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/pathfind"
	"github.com/VoidMesh/pathfinder/internal/terrain"
)

// Manager tracks every rover on one terrain and keeps the chunks around
// them resident.
type Manager struct {
	mu      sync.RWMutex
	rovers  map[uuid.UUID]*Controller
	terrain *terrain.Map
	opts    Options
	logger  *log.Logger
}

// NewManager creates a new rover manager
func NewManager(m *terrain.Map, opts Options) *Manager {
	return &Manager{
		rovers:  make(map[uuid.UUID]*Controller),
		terrain: m,
		opts:    opts,
		logger:  logging.WithComponent("rover-manager"),
	}
}

func (m *Manager) Terrain() *terrain.Map { return m.terrain }
func (m *Manager) Options() Options      { return m.opts }

// Create places a new rover on the passable cell nearest to the request.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Controller, error) {
	m.logger.Debug("Creating rover", "name", req.Name, "x", req.X, "y", req.Y)

	start, ok := FindPassable(m.terrain, req.X, req.Y, m.opts.SpawnRadius)
	if !ok {
		return nil, fmt.Errorf("%w: (%d,%d) within %d cells", ErrNoPassableStart, req.X, req.Y, m.opts.SpawnRadius)
	}

	c := NewController(m.terrain, req.Name, float64(start.X), float64(start.Y), m.opts)
	if err := m.terrain.Preload(ctx, start.X, start.Y, m.opts.PreloadRadius); err != nil {
		return nil, fmt.Errorf("failed to create rover: %w", err)
	}

	m.mu.Lock()
	m.rovers[c.ID()] = c
	m.mu.Unlock()

	logging.WithCoords(start.X, start.Y).Info("Created rover", "rover_id", c.ID(), "name", req.Name)
	return c, nil
}

// Get returns the rover with the given id.
func (m *Manager) Get(id uuid.UUID) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.rovers[id]
	if !ok {
		return nil, ErrRoverNotFound
	}
	return c, nil
}

// List returns the state of every rover, oldest first.
func (m *Manager) List() []State {
	controllers := m.controllers()
	states := make([]State, 0, len(controllers))
	for _, c := range controllers {
		states = append(states, c.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if !states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].CreatedAt.Before(states[j].CreatedAt)
		}
		return states[i].ID.String() < states[j].ID.String()
	})
	return states
}

// Remove forgets a rover. Its chunks are released on the next Tick.
func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rovers[id]; !ok {
		return ErrRoverNotFound
	}
	delete(m.rovers, id)
	m.logger.Info("Removed rover", "rover_id", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rovers)
}

func (m *Manager) controllers() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Controller, 0, len(m.rovers))
	for _, c := range m.rovers {
		out = append(out, c)
	}
	return out
}

// Tick steps every autopilot rover, preloads chunks around each rover and
// evicts chunks beyond ViewRadius of all of them. With no rovers nothing
// anchors the cache, so every resident chunk is dropped.
func (m *Manager) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	start := time.Now()
	controllers := m.controllers()
	report := TickReport{Rovers: len(controllers)}
	if len(controllers) == 0 {
		report.Evicted = m.terrain.UnloadOutside(nil, m.opts.ViewRadius)
		if report.Evicted > 0 {
			m.logger.Debug("Released idle chunks", "evicted", report.Evicted, "duration", time.Since(start))
		}
		return report, nil
	}

	centers := make([]chunk.Coord, 0, len(controllers))
	for _, c := range controllers {
		if c.Step(ctx, now) {
			report.Moved++
		}
		cell := c.Cell()
		if err := m.terrain.Preload(ctx, cell.X, cell.Y, m.opts.PreloadRadius); err != nil {
			return report, fmt.Errorf("failed to maintain chunks: %w", err)
		}
		centers = append(centers, m.terrain.ChunkOf(cell.X, cell.Y))
	}

	report.Evicted = m.terrain.UnloadOutside(centers, m.opts.ViewRadius)
	if report.Evicted > 0 || report.Moved > 0 {
		m.logger.Debug("Maintenance tick", "rovers", report.Rovers, "moved", report.Moved,
			"evicted", report.Evicted, "resident", m.terrain.Stats().Resident, "duration", time.Since(start))
	}
	return report, nil
}

// Run calls Tick every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Starting rover maintenance loop", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Rover maintenance loop stopped")
			return
		case now := <-ticker.C:
			if _, err := m.Tick(ctx, now); err != nil && ctx.Err() == nil {
				m.logger.Error("Maintenance tick failed", "error", err)
			}
		}
	}
}

// Plan runs a one-off search on a fresh PathFinder configured from the
// manager's options and the request's overrides.
func (m *Manager) Plan(ctx context.Context, req PlanRequest) (*pathfind.Result, error) {
	pf := pathfind.New(m.terrain)
	pf.ElevationWeight = m.opts.ElevationWeight
	pf.SteepPenaltyFactor = m.opts.SteepPenaltyFactor
	pf.MaxSteps = m.opts.MaxSteps
	if req.ElevationWeight != nil {
		pf.ElevationWeight = *req.ElevationWeight
	}
	if req.MaxSteps > 0 {
		pf.MaxSteps = req.MaxSteps
	}

	if m.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.SearchTimeout)
		defer cancel()
	}
	return pf.Search(ctx, req.Start, req.Goal)
}
