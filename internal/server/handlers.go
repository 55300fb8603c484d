package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"value-bet-finder/internal/analysis"
	"value-bet-finder/internal/board"
	"value-bet-finder/internal/export"
	"value-bet-finder/internal/hub"
)

const exportFilename = "value_bets.csv"

// Controller is the part of the engine the HTTP surface drives.
type Controller interface {
	Config() analysis.Config
	SetConfig(cfg analysis.Config)
	Refresh()
}

// Reporter is the status line the handlers read and write.
type Reporter interface {
	StatusSource
	UpdateStatus(message string)
	LogError(prefix string, err error)
}

// Handler serves the board over HTTP
type Handler struct {
	board      *board.DB
	controller Controller
	status     Reporter
	hub        *hub.Hub
	now        func() time.Time
}

// NewHandler creates a new handler instance. h may be nil, which disables /ws.
func NewHandler(db *board.DB, controller Controller, status Reporter, h *hub.Hub) *Handler {
	return &Handler{
		board:      db,
		controller: controller,
		status:     status,
		hub:        h,
		now:        time.Now,
	}
}

// Router builds the HTTP routes. ctx bounds the lifetime of websocket connections.
func (h *Handler) Router(ctx context.Context, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if h.hub != nil {
		r.Get("/ws", h.hub.ServeWS(ctx))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", h.HealthCheck)
		r.Get("/", h.Index)
		r.Get("/api/v1/valuebets", h.ValueBets)
		r.Post("/api/v1/refresh", h.Refresh)
		r.Get("/api/v1/export.csv", h.ExportCSV)
	})

	return r
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "value-bet-finder",
	})
}

// ValueBets returns the current board
func (h *Handler) ValueBets(w http.ResponseWriter, r *http.Request) {
	view, err := loadBoard(h.board, h.status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	view.Settings = settingsFrom(h.controller.Config())
	respondJSON(w, http.StatusOK, view)
}

// Refresh applies optional setting overrides and requests an immediate pass.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	cfg, err := analysis.ParseConfig(h.controller.Config(),
		r.Form.Get("threshold"),
		r.Form.Get("commission"),
		r.Form.Get("discount"),
		r.Form.Get("bet_unit"),
	)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.controller.SetConfig(cfg)
	h.controller.Refresh()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "refresh scheduled",
		"settings": settingsFrom(cfg),
	})
}

// ExportCSV streams the board in the BF Botmanager layout.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	rows, err := h.board.Rows()
	if err == nil {
		err = export.Write(&buf, rows, h.now())
	}
	if err != nil {
		h.status.LogError("Error exporting to CSV", err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Error exporting to CSV: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	h.status.UpdateStatus(fmt.Sprintf("Successfully exported to %s", exportFilename))
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
