package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/VoidMesh/pathfinder/internal/chunk"
	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/pathfind"
	"github.com/VoidMesh/pathfinder/internal/rover"
	"github.com/VoidMesh/pathfinder/internal/terrain"
)

const defaultVisibleRadius = 1

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ElevationResponse struct {
	X         int         `json:"x"`
	Y         int         `json:"y"`
	Elevation float64     `json:"elevation"`
	Obstacle  bool        `json:"obstacle"`
	InBounds  bool        `json:"in_bounds"`
	Chunk     chunk.Coord `json:"chunk"`
}

type TerrainResponse struct {
	Config terrain.Config `json:"config"`
	Cols   int            `json:"cols"`
	Rows   int            `json:"rows"`
	Stats  chunk.Stats    `json:"stats"`
}

type ChunksResponse struct {
	Center *chunk.Coord  `json:"center,omitempty"`
	Radius int           `json:"radius,omitempty"`
	Chunks []chunk.Coord `json:"chunks"`
	Count  int           `json:"count"`
	Stats  *chunk.Stats  `json:"stats,omitempty"`
}

type UnloadRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"radius"`
}

type UnloadResponse struct {
	Evicted  int `json:"evicted"`
	Resident int `json:"resident"`
}

type Handler struct {
	terrain *terrain.Map
	rovers  *rover.Manager
	logger  *log.Logger
}

func NewHandler(terrainMap *terrain.Map, rovers *rover.Manager) *Handler {
	return &Handler{
		terrain: terrainMap,
		rovers:  rovers,
		logger:  logging.WithComponent("api"),
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "pathfinder",
		"version":   "1.0.0",
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

func (h *Handler) GetTerrain(w http.ResponseWriter, r *http.Request) {
	store := h.terrain.Store()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, TerrainResponse{
		Config: h.terrain.Config(),
		Cols:   store.Cols(),
		Rows:   store.Rows(),
		Stats:  h.terrain.Stats(),
	})
}

func (h *Handler) GetElevation(w http.ResponseWriter, r *http.Request) {
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid x coordinate", err)
		return
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid y coordinate", err)
		return
	}

	elevation := h.terrain.Elevation(x, y)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ElevationResponse{
		X:         x,
		Y:         y,
		Elevation: elevation,
		Obstacle:  elevation == chunk.Obstacle,
		InBounds:  h.terrain.InBounds(x, y),
		Chunk:     h.terrain.ChunkOf(x, y),
	})
}

func (h *Handler) GetVisibleChunks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid x coordinate", err)
		return
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid y coordinate", err)
		return
	}
	radius := defaultVisibleRadius
	if raw := q.Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius < 0 {
			h.renderError(w, r, http.StatusBadRequest, "radius must be a non-negative integer", err)
			return
		}
	}

	center := h.terrain.ChunkOf(x, y)
	coords := h.terrain.VisibleChunks(x, y, radius)
	if coords == nil {
		coords = []chunk.Coord{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ChunksResponse{
		Center: &center,
		Radius: radius,
		Chunks: coords,
		Count:  len(coords),
	})
}

func (h *Handler) GetResidentChunks(w http.ResponseWriter, r *http.Request) {
	coords := h.terrain.Store().Resident()
	stats := h.terrain.Stats()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ChunksResponse{
		Chunks: coords,
		Count:  len(coords),
		Stats:  &stats,
	})
}

func (h *Handler) UnloadChunks(w http.ResponseWriter, r *http.Request) {
	var req UnloadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Radius < 0 {
		h.renderError(w, r, http.StatusBadRequest, "radius must be non-negative", nil)
		return
	}

	evicted := h.terrain.UnloadDistantChunks(req.X, req.Y, req.Radius)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, UnloadResponse{
		Evicted:  evicted,
		Resident: h.terrain.Stats().Resident,
	})
}

func (h *Handler) FindPath(w http.ResponseWriter, r *http.Request) {
	var req rover.PlanRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.MaxSteps < 0 {
		h.renderError(w, r, http.StatusBadRequest, "max_steps must be non-negative", nil)
		return
	}
	if req.ElevationWeight != nil && *req.ElevationWeight < 0 {
		h.renderError(w, r, http.StatusBadRequest, "elevation_weight must be non-negative", nil)
		return
	}

	res, err := h.rovers.Plan(r.Context(), req)
	if err != nil {
		h.renderError(w, r, statusForError(err), "search aborted before reaching the goal", err)
		return
	}

	switch res.Status {
	case pathfind.StatusInvalidEndpoint:
		h.renderError(w, r, http.StatusUnprocessableEntity, "start and goal must be passable cells inside the world", nil)
		return
	case pathfind.StatusExhausted:
		h.renderError(w, r, http.StatusNotFound, "no path between start and goal", nil)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, rover.ErrInvalidRoverID):
		return http.StatusBadRequest
	case errors.Is(err, rover.ErrRoverNotFound), errors.Is(err, rover.ErrNoPath):
		return http.StatusNotFound
	case errors.Is(err, rover.ErrInvalidDestination),
		errors.Is(err, rover.ErrNoPassableStart),
		errors.Is(err, rover.ErrNoDestination),
		errors.Is(err, pathfind.ErrBudgetExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	renderError(h.logger, w, r, status, message, err)
}

func renderError(logger *log.Logger, w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    status,
		Message: message,
	}

	if err != nil {
		// Don't expose internal errors to the client
		if status >= 500 {
			logger.Error("API error", "error", err, "message", message, "status", status)
			errorResponse.Error = "Internal server error"
		} else {
			logger.Warn("API request rejected", "error", err, "message", message, "status", status)
			errorResponse.Message = err.Error()
		}
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse)
}
