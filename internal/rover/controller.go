// Package rover drives agents across the terrain: manual moves, planned
// routes and autopilot, plus the chunk residency upkeep around them.
package rover

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/pathfind"
)

const (
	// steepMoveFactor scales a step whose elevation difference is steep.
	steepMoveFactor = 0.1
	// autopilotSpeedFactor slows autopilot relative to manual moves.
	autopilotSpeedFactor = 0.5
	// waypointReach is how close counts as arriving at a waypoint.
	waypointReach = 1.0
)

// Terrain is what a rover needs from the world.
type Terrain interface {
	pathfind.Terrain
	ChunkOf(x, y int) chunk.Coord
}

// Controller owns one rover. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	id      uuid.UUID
	name    string
	terrain Terrain
	finder  *pathfind.PathFinder
	opts    Options

	x, y float64

	autopilot   bool
	destination *pathfind.Point
	path        []pathfind.Point
	pathIndex   int
	lastPlanned time.Time
	summary     *PathSummary

	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time

	logger *log.Logger
}

// NewController places a rover at (x, y). The caller is responsible for
// choosing a passable cell; see FindPassable.
func NewController(terrain Terrain, name string, x, y float64, opts Options) *Controller {
	finder := pathfind.New(terrain)
	finder.ElevationWeight = opts.ElevationWeight
	finder.SteepPenaltyFactor = opts.SteepPenaltyFactor
	finder.MaxSteps = opts.MaxSteps

	id := uuid.New()
	now := time.Now()
	return &Controller{
		id:        id,
		name:      name,
		terrain:   terrain,
		finder:    finder,
		opts:      opts,
		x:         x,
		y:         y,
		createdAt: now,
		updatedAt: now,
		now:       time.Now,
		logger:    logging.WithRoverID(id.String()),
	}
}

func (c *Controller) ID() uuid.UUID { return c.id }

// Position returns the rover's continuous position.
func (c *Controller) Position() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

// Cell returns the terrain cell under the rover.
func (c *Controller) Cell() pathfind.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cell()
}

func (c *Controller) cell() pathfind.Point {
	return pathfind.Point{X: int(math.Floor(c.x)), Y: int(math.Floor(c.y))}
}

// Elevation returns the elevation under the rover.
func (c *Controller) Elevation() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.cell()
	return c.terrain.Elevation(p.X, p.Y)
}

// Autopilot reports whether autopilot is engaged.
func (c *Controller) Autopilot() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autopilot
}

// Summary returns the last planned route, or nil.
func (c *Controller) Summary() *PathSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// Path returns a copy of the planned waypoints.
func (c *Controller) Path() []pathfind.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == nil {
		return nil
	}
	return append([]pathfind.Point(nil), c.path...)
}

// State returns a snapshot of the rover.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.cell()
	s := State{
		ID:        c.id,
		Name:      c.name,
		X:         c.x,
		Y:         c.y,
		Elevation: c.terrain.Elevation(p.X, p.Y),
		Chunk:     c.terrain.ChunkOf(p.X, p.Y),
		Autopilot: c.autopilot,
		Waypoints: len(c.path),
		PathIndex: c.pathIndex,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
	if c.destination != nil {
		d := *c.destination
		s.Destination = &d
	}
	return s
}

// Move shifts the rover by (dx, dy). The target must be inside the world
// and passable. Steep steps are shortened to a tenth. Manual moves are
// ignored while autopilot is engaged.
func (c *Controller) Move(dx, dy float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autopilot {
		return false
	}
	return c.move(dx, dy)
}

func (c *Controller) move(dx, dy float64) bool {
	return c.moveTo(c.x+dx, c.y+dy)
}

func (c *Controller) moveTo(nx, ny float64) bool {
	tx, ty := int(math.Floor(nx)), int(math.Floor(ny))
	if !c.terrain.InBounds(tx, ty) || c.terrain.IsObstacle(tx, ty) {
		return false
	}

	from := c.cell()
	current := c.terrain.Elevation(from.X, from.Y)
	target := c.terrain.Elevation(tx, ty)
	if current == chunk.Obstacle || target == chunk.Obstacle {
		return false
	}

	if math.Abs(current-target) > c.terrain.MaxElevation()/pathfind.SteepDivisor {
		nx = c.x + (nx-c.x)*steepMoveFactor
		ny = c.y + (ny-c.y)*steepMoveFactor
	}

	c.x, c.y = nx, ny
	c.updatedAt = c.now()
	return true
}

// SetDestination records the goal and plans a route that favours minimal
// elevation change.
func (c *Controller) SetDestination(ctx context.Context, dest pathfind.Point) (*PathSummary, error) {
	return c.SetDestinationWith(ctx, dest, true)
}

// SetDestinationWith is SetDestination with an explicit optimisation choice.
func (c *Controller) SetDestinationWith(ctx context.Context, dest pathfind.Point, optimizeForElevation bool) (*PathSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.terrain.InBounds(dest.X, dest.Y) || c.terrain.IsObstacle(dest.X, dest.Y) {
		return nil, ErrInvalidDestination
	}
	c.destination = &dest
	return c.calculatePath(ctx, optimizeForElevation, c.now())
}

// CalculatePath replans from the current cell to the destination.
func (c *Controller) CalculatePath(ctx context.Context, optimizeForElevation bool) (*PathSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calculatePath(ctx, optimizeForElevation, c.now())
}

func (c *Controller) calculatePath(ctx context.Context, optimizeForElevation bool, now time.Time) (*PathSummary, error) {
	c.path = nil
	c.pathIndex = 0
	c.summary = nil
	if c.destination == nil {
		return nil, ErrNoDestination
	}

	if c.opts.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.SearchTimeout)
		defer cancel()
	}

	start, goal := c.cell(), *c.destination
	var (
		res *pathfind.Result
		err error
	)
	search := func() { res, err = c.finder.Search(ctx, start, goal) }
	if optimizeForElevation {
		c.finder.WithElevationWeight(c.opts.OptimizedWeight, search)
	} else {
		search()
	}
	c.lastPlanned = now

	if err != nil {
		c.logger.Warn("Path search aborted", "start", start, "goal", goal, "error", err)
		return nil, fmt.Errorf("failed to plan path: %w", err)
	}
	switch res.Status {
	case pathfind.StatusInvalidEndpoint:
		c.logger.Warn("Path search rejected endpoints", "start", start, "goal", goal)
		return nil, ErrInvalidDestination
	case pathfind.StatusFound:
	default:
		c.logger.Info("No path found to destination", "start", start, "goal", goal, "expanded", res.Expanded)
		return nil, ErrNoPath
	}

	c.path = res.Path
	c.summary = &PathSummary{
		Start:           start,
		Goal:            goal,
		Waypoints:       len(res.Path),
		Cost:            res.Cost,
		ElevationChange: res.ElevationChange,
		Optimized:       optimizeForElevation,
		Expanded:        res.Expanded,
	}
	c.logger.Info("Path found", "waypoints", len(res.Path),
		"elevation_change", fmt.Sprintf("%.1f", res.ElevationChange), "optimized", optimizeForElevation)

	s := *c.summary
	return &s, nil
}

// ToggleAutopilot flips autopilot and replans when engaging. Without a
// destination, or when no route exists, autopilot stays off.
func (c *Controller) ToggleAutopilot(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destination == nil {
		c.autopilot = false
		return false
	}
	if c.autopilot {
		c.autopilot = false
		c.logger.Info("Autopilot disengaged")
		return false
	}

	if _, err := c.calculatePath(ctx, true, c.now()); err != nil {
		c.logger.Warn("Autopilot not engaged", "error", err)
		return false
	}
	c.autopilot = true
	c.logger.Info("Autopilot engaged", "destination", *c.destination)
	return true
}

// Step advances the autopilot by one tick at time now. It replans when the
// route is older than ReplanInterval and disengages on arrival. It reports
// whether the rover progressed.
func (c *Controller) Step(ctx context.Context, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.autopilot || c.path == nil {
		return false
	}
	if c.pathIndex >= len(c.path)-1 {
		c.autopilot = false
		c.logger.Info("Destination reached", "x", c.x, "y", c.y)
		return false
	}

	if now.Sub(c.lastPlanned) > c.opts.ReplanInterval {
		if _, err := c.calculatePath(ctx, true, now); err != nil {
			if errors.Is(err, ErrNoPath) || errors.Is(err, ErrInvalidDestination) {
				c.autopilot = false
			}
			return false
		}
		if c.pathIndex >= len(c.path)-1 {
			return false
		}
	}

	next := c.path[c.pathIndex+1]
	dx := float64(next.X) - c.x
	dy := float64(next.Y) - c.y
	distance := math.Hypot(dx, dy)
	if distance < waypointReach {
		c.pathIndex++
		return true
	}

	step := c.opts.Speed * autopilotSpeedFactor
	if step >= distance {
		// Land on the waypoint itself so rounding never puts the rover in
		// a neighbouring cell.
		return c.moveTo(float64(next.X), float64(next.Y))
	}
	return c.move(dx/distance*step, dy/distance*step)
}

// FindPassable returns the nearest passable in-bounds cell to (x, y),
// searching square rings out to radius.
func FindPassable(t Terrain, x, y, radius int) (pathfind.Point, bool) {
	for r := 0; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				px, py := x+dx, y+dy
				if t.InBounds(px, py) && !t.IsObstacle(px, py) {
					return pathfind.Point{X: px, Y: py}, true
				}
			}
		}
	}
	return pathfind.Point{}, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
