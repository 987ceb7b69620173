package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

// BookSession defines the session methods the book handler requires. It is
// declared locally so the handler package does not depend on the concrete
// session implementation.
type BookSession interface {
	CreateBook(symbol string, depth int) error
	ApplyUpdate(symbol string, bids, asks map[float64]float64, ts time.Time) (domain.BookFeatures, error)
	RecordTrade(symbol string, price, size float64, side domain.Side, ts time.Time) (domain.Trade, error)
	Snapshot(symbol string, n int) (domain.BookSnapshot, error)
	RemoveBook(symbol string) error
}

// BookHandler serves order book HTTP endpoints.
type BookHandler struct {
	session BookSession
	logger  *slog.Logger
}

// NewBookHandler creates a BookHandler with the given session and logger.
func NewBookHandler(session BookSession, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		session: session,
		logger:  logger,
	}
}

type createBookRequest struct {
	Symbol string `json:"symbol"`
	Depth  int    `json:"depth"`
}

// CreateBook registers a new symbol with an empty book.
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Depth <= 0 {
		req.Depth = 10
	}

	if err := h.session.CreateBook(req.Symbol, req.Depth); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"symbol":  req.Symbol,
		"depth":   req.Depth,
	})
}

type updateBookRequest struct {
	Bids      map[string]float64 `json:"bids"`
	Asks      map[string]float64 `json:"asks"`
	Timestamp *time.Time         `json:"timestamp"`
}

// UpdateBook replaces a symbol's book with a fresh snapshot and returns the
// recomputed microstructure features.
// PUT /api/books/{symbol}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	bids, err := parseLevels(req.Bids)
	if err != nil {
		writeBadRequest(w, "bids: prices must be numeric strings")
		return
	}
	asks, err := parseLevels(req.Asks)
	if err != nil {
		writeBadRequest(w, "asks: prices must be numeric strings")
		return
	}

	ts := time.Time{}
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	features, err := h.session.ApplyUpdate(symbol, bids, asks, ts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"features": features,
	})
}

type recordTradeRequest struct {
	Price     float64    `json:"price"`
	Size      float64    `json:"size"`
	Side      string     `json:"side"`
	Timestamp *time.Time `json:"timestamp"`
}

// RecordTrade appends a trade to a symbol's tape.
// POST /api/books/{symbol}/trades
func (h *BookHandler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	var req recordTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeError(w, err)
		return
	}

	ts := time.Time{}
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	trade, err := h.session.RecordTrade(symbol, req.Price, req.Size, side, ts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"trade":   trade,
	})
}

// GetSnapshot returns the top levels of a symbol's book.
// GET /api/books/{symbol}/snapshot?levels=5
func (h *BookHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	levels := queryInt(r, "levels", 5)

	snap, err := h.session.Snapshot(symbol, levels)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"snapshot": snap,
	})
}

// DeleteBook removes a symbol's book and position.
// DELETE /api/books/{symbol}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	if err := h.session.RemoveBook(symbol); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"symbol":  symbol,
	})
}
