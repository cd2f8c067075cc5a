package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/VoidMesh/pathfinder/internal/logging"
	"github.com/VoidMesh/pathfinder/internal/pathfind"
	"github.com/VoidMesh/pathfinder/internal/rover"
)

type MoveResponse struct {
	Moved bool        `json:"moved"`
	Rover rover.State `json:"rover"`
}

type DestinationResponse struct {
	Rover   rover.State        `json:"rover"`
	Summary *rover.PathSummary `json:"summary"`
	Path    []pathfind.Point   `json:"path"`
}

type AutopilotResponse struct {
	Autopilot bool        `json:"autopilot"`
	Rover     rover.State `json:"rover"`
}

// RoverHandlers contains all HTTP handlers for rover operations
type RoverHandlers struct {
	manager *rover.Manager
	logger  *log.Logger
}

// NewRoverHandlers creates a new rover handlers instance
func NewRoverHandlers(manager *rover.Manager) *RoverHandlers {
	return &RoverHandlers{
		manager: manager,
		logger:  logging.WithComponent("rover-api"),
	}
}

// RegisterRoutes registers all rover-related routes
func (h *RoverHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/rovers", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{roverID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Remove)
			r.Post("/move", h.Move)
			r.Put("/destination", h.SetDestination)
			r.Post("/autopilot", h.ToggleAutopilot)
		})
	})
}

func (h *RoverHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req rover.CreateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(h.logger, w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c, err := h.manager.Create(r.Context(), req)
	if err != nil {
		renderError(h.logger, w, r, statusForError(err), "failed to create rover", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c.State())
}

func (h *RoverHandlers) List(w http.ResponseWriter, r *http.Request) {
	states := h.manager.List()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"rovers": states,
		"count":  len(states),
	})
}

func (h *RoverHandlers) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, c.State())
}

func (h *RoverHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := rover.ParseID(chi.URLParam(r, "roverID"))
	if err != nil {
		renderError(h.logger, w, r, http.StatusBadRequest, "invalid rover id", err)
		return
	}
	if err := h.manager.Remove(id); err != nil {
		renderError(h.logger, w, r, statusForError(err), "failed to remove rover", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoverHandlers) Move(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req rover.MoveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(h.logger, w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	moved := c.Move(req.DX, req.DY)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, MoveResponse{Moved: moved, Rover: c.State()})
}

func (h *RoverHandlers) SetDestination(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req rover.DestinationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(h.logger, w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	optimize := true
	if req.OptimizeForElevation != nil {
		optimize = *req.OptimizeForElevation
	}

	summary, err := c.SetDestinationWith(r.Context(), pathfind.Point{X: req.X, Y: req.Y}, optimize)
	if err != nil {
		renderError(h.logger, w, r, statusForError(err), "failed to plan route", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, DestinationResponse{
		Rover:   c.State(),
		Summary: summary,
		Path:    c.Path(),
	})
}

func (h *RoverHandlers) ToggleAutopilot(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	engaged := c.ToggleAutopilot(r.Context())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, AutopilotResponse{Autopilot: engaged, Rover: c.State()})
}

// lookup resolves the {roverID} URL parameter, writing the error response
// itself when it fails.
func (h *RoverHandlers) lookup(w http.ResponseWriter, r *http.Request) (*rover.Controller, bool) {
	id, err := rover.ParseID(chi.URLParam(r, "roverID"))
	if err != nil {
		renderError(h.logger, w, r, http.StatusBadRequest, "invalid rover id", err)
		return nil, false
	}
	c, err := h.manager.Get(id)
	if err != nil {
		renderError(h.logger, w, r, statusForError(err), "rover not found", err)
		return nil, false
	}
	return c, true
}
