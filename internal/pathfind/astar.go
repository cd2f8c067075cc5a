// Package pathfind implements elevation-aware A* search over terrain cells.
//
// The heuristic is Manhattan distance. With diagonal steps costing 1.4 it
// can overestimate the remaining cost, so returned paths are not guaranteed
// to be globally optimal. This is intentional and callers depend on the
// resulting routes.
package pathfind

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/logging"
)

const (
	CardinalCost              = 1.0
	DiagonalCost              = 1.4
	DefaultElevationWeight    = 1.0
	DefaultSteepPenaltyFactor = 10.0

	// A step is steep when its elevation difference exceeds
	// MaxElevation / SteepDivisor.
	SteepDivisor = 10.0

	ctxCheckInterval = 256
)

var ErrBudgetExceeded = errors.New("search step budget exceeded")

// Terrain is the query surface the search needs.
type Terrain interface {
	Elevation(x, y int) float64
	IsObstacle(x, y int) bool
	InBounds(x, y int) bool
	MaxElevation() float64
}

// Point is a world cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// directions lists the 8-connected neighbour offsets, cardinals first.
var directions = [8]Point{
	{0, 1}, {1, 0}, {0, -1}, {-1, 0},
	{1, 1}, {1, -1}, {-1, -1}, {-1, 1},
}

// Result describes a finished search.
type Result struct {
	Path            []Point `json:"path"`
	Cost            float64 `json:"cost"`
	ElevationChange float64 `json:"elevation_change"`
	Expanded        int     `json:"expanded"`
	Status          Status  `json:"status"`
}

// PathFinder runs A* over a Terrain. ElevationWeight and SteepPenaltyFactor
// may be changed between searches; a PathFinder is not safe for concurrent
// use.
type PathFinder struct {
	terrain Terrain

	// ElevationWeight scales the elevation term of non-steep steps.
	ElevationWeight float64
	// SteepPenaltyFactor scales the elevation term of steep steps.
	SteepPenaltyFactor float64
	// MaxSteps bounds node expansions in Search; zero means unbounded.
	MaxSteps int

	logger *log.Logger
}

func New(terrain Terrain) *PathFinder {
	return &PathFinder{
		terrain:            terrain,
		ElevationWeight:    DefaultElevationWeight,
		SteepPenaltyFactor: DefaultSteepPenaltyFactor,
		logger:             logging.WithComponent("pathfinder"),
	}
}

// WithElevationWeight runs fn with ElevationWeight temporarily set to w.
func (p *PathFinder) WithElevationWeight(w float64, fn func()) {
	previous := p.ElevationWeight
	p.ElevationWeight = w
	defer func() { p.ElevationWeight = previous }()
	fn()
}

// Heuristic returns the Manhattan distance between a and b.
func (p *PathFinder) Heuristic(a, b Point) float64 {
	return float64(abs(a.X-b.X) + abs(a.Y-b.Y))
}

// Neighbors returns the in-bounds, passable cells around pt.
func (p *PathFinder) Neighbors(pt Point) []Point {
	out := make([]Point, 0, len(directions))
	for _, d := range directions {
		nx, ny := pt.X+d.X, pt.Y+d.Y
		if p.terrain.InBounds(nx, ny) && !p.terrain.IsObstacle(nx, ny) {
			out = append(out, Point{X: nx, Y: ny})
		}
	}
	return out
}

// Cost returns the cost of stepping from one cell to an adjacent one.
// Steps touching an obstacle cost +Inf.
func (p *PathFinder) Cost(from, to Point) float64 {
	base := CardinalCost
	if from.X != to.X && from.Y != to.Y {
		base = DiagonalCost
	}

	ef := p.terrain.Elevation(from.X, from.Y)
	et := p.terrain.Elevation(to.X, to.Y)
	if ef == chunk.Obstacle || et == chunk.Obstacle {
		return math.Inf(1)
	}

	diff := math.Abs(ef - et)
	if diff > p.terrain.MaxElevation()/SteepDivisor {
		return base + diff*p.SteepPenaltyFactor
	}
	return base + diff*p.ElevationWeight
}

// AStar returns the path from start to goal inclusive, or nil when either
// endpoint is an obstacle, the goal is unreachable, or MaxSteps runs out.
func (p *PathFinder) AStar(start, goal Point) []Point {
	res, err := p.Search(context.Background(), start, goal)
	if err != nil || res.Status != StatusFound {
		return nil
	}
	return res.Path
}

// Search runs A* honouring MaxSteps and ctx. Unreachable goals and obstacle
// endpoints are reported through Result.Status; the only errors are
// ErrBudgetExceeded and the context's error.
func (p *PathFinder) Search(ctx context.Context, start, goal Point) (*Result, error) {
	if p.terrain.IsObstacle(start.X, start.Y) || p.terrain.IsObstacle(goal.X, goal.Y) {
		p.logger.Debug("Rejected search endpoint", "start", start, "goal", goal)
		return &Result{Status: StatusInvalidEndpoint}, nil
	}

	began := time.Now()
	gScore := map[Point]float64{start: 0}
	parent := make(map[Point]Point)
	open := make(map[Point]*node)
	queue := &nodeQueue{}
	seq := 0

	push := func(pt Point, g float64) {
		n := &node{pt: pt, g: g, f: g + p.Heuristic(pt, goal), seq: seq}
		seq++
		heap.Push(queue, n)
		open[pt] = n
	}
	push(start, 0)

	expanded := 0
	for queue.Len() > 0 {
		current := heap.Pop(queue).(*node)
		delete(open, current.pt)

		if current.pt == goal {
			path := reconstruct(parent, start, goal)
			p.logger.Debug("Path found", "start", start, "goal", goal, "length", len(path),
				"expanded", expanded, "duration", time.Since(began))
			return &Result{
				Path:            path,
				Cost:            current.g,
				ElevationChange: ElevationChange(p.terrain, path),
				Expanded:        expanded,
				Status:          StatusFound,
			}, nil
		}

		expanded++
		if p.MaxSteps > 0 && expanded > p.MaxSteps {
			return &Result{Expanded: expanded, Status: StatusBudgetExceeded},
				fmt.Errorf("%w after %d expansions", ErrBudgetExceeded, p.MaxSteps)
		}
		if expanded%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return &Result{Expanded: expanded, Status: StatusBudgetExceeded}, err
			}
		}

		for _, nb := range p.Neighbors(current.pt) {
			tentative := current.g + p.Cost(current.pt, nb)
			if best, seen := gScore[nb]; seen && tentative >= best {
				continue
			}
			gScore[nb] = tentative
			parent[nb] = current.pt

			if n, ok := open[nb]; ok {
				n.g = tentative
				n.f = tentative + p.Heuristic(nb, goal)
				n.seq = seq
				seq++
				heap.Fix(queue, n.index)
				continue
			}
			push(nb, tentative)
		}
	}

	p.logger.Debug("No path found", "start", start, "goal", goal, "expanded", expanded,
		"duration", time.Since(began))
	return &Result{Expanded: expanded, Status: StatusExhausted}, nil
}

// reconstruct walks parent links back from goal. start has no parent entry
// and is always the first element.
func reconstruct(parent map[Point]Point, start, goal Point) []Point {
	var path []Point
	for current := goal; current != start; current = parent[current] {
		path = append(path, current)
	}
	path = append(path, start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums the step costs along path using the finder's current weights.
func (p *PathFinder) PathCost(path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += p.Cost(path[i-1], path[i])
	}
	return total
}

// ElevationChange sums the absolute elevation differences along path.
func ElevationChange(t Terrain, path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		a := t.Elevation(path[i-1].X, path[i-1].Y)
		b := t.Elevation(path[i].X, path[i].Y)
		total += math.Abs(a - b)
	}
	return total
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
