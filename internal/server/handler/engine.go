package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quantfold/hftsim/internal/domain"
	"github.com/quantfold/hftsim/internal/session"
)

// EngineSession defines the session methods the engine handler requires.
type EngineSession interface {
	Quote(symbol string, p session.QuoteParams) (domain.QuoteSet, error)
	DetectToxicity(symbol string, window int) (domain.ToxicityReport, error)
	Execute(symbol string, side domain.Side, size, maxSlippage float64) (domain.Fill, error)
	Positions() []domain.Position
}

// EngineHandler serves quoting, toxicity, and execution HTTP endpoints.
type EngineHandler struct {
	session EngineSession
	logger  *slog.Logger
}

// NewEngineHandler creates an EngineHandler with the given session and logger.
func NewEngineHandler(session EngineSession, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{
		session: session,
		logger:  logger,
	}
}

// GetQuotes computes a two-sided quote for a symbol.
// GET /api/books/{symbol}/quotes?inventory=0&risk_aversion=0.01&spread_multiplier=1.5&base_size=100
func (h *EngineHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	params := session.QuoteParams{
		Inventory:        queryFloat(r, "inventory", 0),
		RiskAversion:     queryFloat(r, "risk_aversion", 0),
		SpreadMultiplier: queryFloat(r, "spread_multiplier", 0),
		BaseSize:         queryFloat(r, "base_size", 0),
	}

	quotes, err := h.session.Quote(symbol, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"quotes":  quotes,
	})
}

// GetToxicity scores recent tape flow for a symbol.
// GET /api/books/{symbol}/toxicity?window=100
func (h *EngineHandler) GetToxicity(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	window := queryInt(r, "window", 0)

	report, err := h.session.DetectToxicity(symbol, window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"toxicity": report,
	})
}

type placeOrderRequest struct {
	Side        string  `json:"side"`
	Size        float64 `json:"size"`
	MaxSlippage float64 `json:"max_slippage"`
}

// PlaceOrder executes a spread-crossing order against the symbol's book.
// POST /api/books/{symbol}/orders
func (h *EngineHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeError(w, err)
		return
	}

	fill, err := h.session.Execute(symbol, side, req.Size, req.MaxSlippage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"fill":    fill,
	})
}

// ListPositions returns the signed position for every registered symbol.
// GET /api/positions
func (h *EngineHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"positions": h.session.Positions(),
	})
}
