package config

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"statement_insight/pkg/core/agent"
)

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
}

type SwitchRequest struct {
	Provider string `json:"provider" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		AgentMgr: agentMgr,
		logger:   logger.With("component", "api.config"),
		validate: validator.New(),
	}
}

// Routes returns the router mounted at /api/config.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleConfig)
	r.Post("/switch", h.HandleSwitch)
	return r
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.current())
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Info("provider switched", "provider", req.Provider)
	render.JSON(w, r, h.current())
}

func (h *Handler) current() Response {
	return Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
	}
}
