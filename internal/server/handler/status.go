package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/hftsim/internal/session"
)

// StatusSession defines the session methods the status handler requires.
type StatusSession interface {
	Initialize(provider string) (string, error)
	Latency() session.LatencyStats
	Symbols() []string
	DroppedEvents() uint64
}

// StatusHandler serves session lifecycle and introspection endpoints.
type StatusHandler struct {
	session   StatusSession
	logger    *slog.Logger
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler with the given session and logger.
func NewStatusHandler(session StatusSession, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		session:   session,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

type initializeRequest struct {
	Provider string `json:"provider"`
}

// Initialize arms the session with a data provider label.
// POST /api/initialize
func (h *StatusHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	msg, err := h.session.Initialize(req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
	})
}

// GetLatency returns fixed illustrative latency figures. The numbers are a
// stub, not measurements.
// GET /api/latency
func (h *StatusHandler) GetLatency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"latency": h.session.Latency(),
	})
}

// HealthCheck reports process liveness and a few engine counters.
// GET /api/health
func (h *StatusHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"symbols":        len(h.session.Symbols()),
		"dropped_events": h.session.DroppedEvents(),
	})
}
