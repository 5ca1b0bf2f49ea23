package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mbta-board/internal/board"
	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/internal/store"
	"github.com/jusunglee/mbta-board/pkg/dashboard"
)

// Handler handles HTTP requests
type Handler struct {
	client dashboard.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client dashboard.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/healthz", h.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/board", h.handleBoard).Methods("GET")
	api.HandleFunc("/groups/{name}", h.handleGroup).Methods("GET")
	api.HandleFunc("/panels/{ids}", h.handlePanels).Methods("GET")
	api.HandleFunc("/alerts", h.handleAlerts).Methods("GET")
}

// Response wraps API responses
type Response struct {
	Data    any    `json:"data"`
	Updated string `json:"updated,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is served on /healthz
type HealthResponse struct {
	Status     string `json:"status"`
	LastUpdate string `json:"last_update,omitempty"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	b, err := h.client.GetBoard()
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := board.RenderHTML(w, b, h.client.RefreshInterval(), h.client.Location()); err != nil {
		log.Error().Err(err).Msg("Failed to render board")
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, HealthResponse{
		Status:     "ok",
		LastUpdate: h.updated(),
	})
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	b, err := h.client.GetBoard()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: b, Updated: h.updated()})
}

func (h *Handler) handleGroup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	g, err := h.client.GetGroup(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: g, Updated: h.updated()})
}

func (h *Handler) handlePanels(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(mux.Vars(r)["ids"], ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	panels, err := h.client.GetPanels(ids)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, Response{Data: panels, Updated: h.updated()})
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	banners, err := h.client.GetAlerts()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if banners == nil {
		banners = []models.Banner{}
	}
	h.writeJSON(w, Response{Data: banners, Updated: h.updated()})
}

func (h *Handler) updated() string {
	t := h.client.GetLastUpdate()
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrGroupNotFound) || errors.Is(err, store.ErrPanelNotFound) {
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
