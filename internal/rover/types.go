package rover

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/pathfind"
)

var (
	ErrRoverNotFound      = errors.New("rover not found")
	ErrInvalidRoverID     = errors.New("invalid rover id")
	ErrNoDestination      = errors.New("no destination set")
	ErrNoPath             = errors.New("no path to destination")
	ErrInvalidDestination = errors.New("destination is not passable")
	ErrNoPassableStart    = errors.New("no passable cell near requested start")
)

// State is a point-in-time view of a rover.
type State struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Elevation   float64         `json:"elevation"`
	Chunk       chunk.Coord     `json:"chunk"`
	Autopilot   bool            `json:"autopilot"`
	Destination *pathfind.Point `json:"destination,omitempty"`
	Waypoints   int             `json:"waypoints"`
	PathIndex   int             `json:"path_index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PathSummary describes the most recently planned route.
type PathSummary struct {
	Start           pathfind.Point `json:"start"`
	Goal            pathfind.Point `json:"goal"`
	Waypoints       int            `json:"waypoints"`
	Cost            float64        `json:"cost"`
	ElevationChange float64        `json:"elevation_change"`
	Optimized       bool           `json:"optimized"`
	Expanded        int            `json:"expanded"`
}

// CreateRequest asks for a rover near (X, Y).
type CreateRequest struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type MoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type DestinationRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	// OptimizeForElevation defaults to true when omitted.
	OptimizeForElevation *bool `json:"optimize_for_elevation,omitempty"`
}

// PlanRequest is a one-off route query not tied to a rover.
type PlanRequest struct {
	Start           pathfind.Point `json:"start"`
	Goal            pathfind.Point `json:"goal"`
	ElevationWeight *float64       `json:"elevation_weight,omitempty"`
	MaxSteps        int            `json:"max_steps,omitempty"`
}

// TickReport summarizes one maintenance pass.
type TickReport struct {
	Rovers  int `json:"rovers"`
	Moved   int `json:"moved"`
	Evicted int `json:"evicted"`
}

// Options tunes rover movement, planning and chunk residency.
type Options struct {
	Speed           float64
	ReplanInterval  time.Duration
	OptimizedWeight float64

	ElevationWeight    float64
	SteepPenaltyFactor float64
	MaxSteps           int
	SearchTimeout      time.Duration

	PreloadRadius int
	ViewRadius    int
	SpawnRadius   int
}

func DefaultOptions() Options {
	return Options{
		Speed:              10,
		ReplanInterval:     5 * time.Second,
		OptimizedWeight:    3.0,
		ElevationWeight:    pathfind.DefaultElevationWeight,
		SteepPenaltyFactor: pathfind.DefaultSteepPenaltyFactor,
		MaxSteps:           0,
		SearchTimeout:      0,
		PreloadRadius:      1,
		ViewRadius:         5,
		SpawnRadius:        64,
	}
}

// ParseID validates a rover id from an external source.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidRoverID
	}
	return id, nil
}
