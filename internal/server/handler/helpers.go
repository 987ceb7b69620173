// Package handler implements the HTTP endpoints of the API server.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quantfold/hftsim/internal/domain"
)

// errorBody is the JSON envelope for failed requests.
type errorBody struct {
	Success bool      `json:"success"`
	Error   errorInfo `json:"error"`
}

type errorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"success":false,"error":{"kind":"internal","message":"encode response"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError maps a domain error to its HTTP status and writes the error
// envelope. Unknown errors become a 500 with kind "internal".
func writeError(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	writeJSON(w, statusForKind(kind), errorBody{
		Success: false,
		Error:   errorInfo{Kind: kind, Message: err.Error()},
	})
}

// writeBadRequest writes a validation error envelope for malformed input
// that never reached the session.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Success: false,
		Error:   errorInfo{Kind: "validation_error", Message: msg},
	})
}

// statusForKind maps an error taxonomy kind to an HTTP status code.
func statusForKind(kind string) int {
	switch kind {
	case "validation_error":
		return http.StatusBadRequest
	case "symbol_not_found", "not_found":
		return http.StatusNotFound
	case "session_closed":
		return http.StatusConflict
	case "insufficient_market_data", "insufficient_history",
		"no_liquidity", "slippage_exceeded":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// queryFloat parses a float query parameter, returning def when absent or
// malformed.
func queryFloat(r *http.Request, name string, def float64) float64 {
	if v := r.URL.Query().Get(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// queryInt parses an integer query parameter, returning def when absent or
// malformed.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// parseLevels converts a JSON object keyed by price strings into the
// price->size map the session expects.
func parseLevels(raw map[string]float64) (map[float64]float64, error) {
	levels := make(map[float64]float64, len(raw))
	for k, size := range raw {
		price, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return nil, err
		}
		levels[price] = size
	}
	return levels, nil
}
