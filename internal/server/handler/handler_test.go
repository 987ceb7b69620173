package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quantfold/hftsim/internal/session"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(session.Config{}, logger)
	t.Cleanup(sess.Close)

	books := NewBookHandler(sess, logger)
	engine := NewEngineHandler(sess, logger)
	status := NewStatusHandler(sess, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/initialize", status.Initialize)
	mux.HandleFunc("GET /api/latency", status.GetLatency)
	mux.HandleFunc("GET /api/health", status.HealthCheck)
	mux.HandleFunc("POST /api/books", books.CreateBook)
	mux.HandleFunc("PUT /api/books/{symbol}", books.UpdateBook)
	mux.HandleFunc("POST /api/books/{symbol}/trades", books.RecordTrade)
	mux.HandleFunc("GET /api/books/{symbol}/snapshot", books.GetSnapshot)
	mux.HandleFunc("DELETE /api/books/{symbol}", books.DeleteBook)
	mux.HandleFunc("GET /api/books/{symbol}/quotes", engine.GetQuotes)
	mux.HandleFunc("GET /api/books/{symbol}/toxicity", engine.GetToxicity)
	mux.HandleFunc("POST /api/books/{symbol}/orders", engine.PlaceOrder)
	mux.HandleFunc("GET /api/positions", engine.ListPositions)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, decoded
}

func TestBookLifecycle(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":"ACME","depth":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create book status = %d: %v", rec.Code, body)
	}

	rec, body = doRequest(t, mux, http.MethodPut, "/api/books/ACME",
		`{"bids":{"100":10,"99":5},"asks":{"101":8,"102":3}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update book status = %d: %v", rec.Code, body)
	}
	features, ok := body["features"].(map[string]any)
	if !ok {
		t.Fatalf("missing features in %v", body)
	}
	if got := features["spread"].(float64); got != 1 {
		t.Fatalf("spread = %v, want 1", got)
	}
	if got := features["mid_price"].(float64); got != 100.5 {
		t.Fatalf("mid_price = %v, want 100.5", got)
	}

	rec, body = doRequest(t, mux, http.MethodGet, "/api/books/ACME/snapshot?levels=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d: %v", rec.Code, body)
	}

	rec, body = doRequest(t, mux, http.MethodDelete, "/api/books/ACME", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %v", rec.Code, body)
	}

	rec, body = doRequest(t, mux, http.MethodGet, "/api/books/ACME/snapshot", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("snapshot after delete status = %d: %v", rec.Code, body)
	}
	errInfo := body["error"].(map[string]any)
	if errInfo["kind"] != "symbol_not_found" {
		t.Fatalf("error kind = %v", errInfo["kind"])
	}
}

func TestQuotesAndOrders(t *testing.T) {
	mux := newTestMux(t)

	doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":"ACME"}`)
	doRequest(t, mux, http.MethodPut, "/api/books/ACME",
		`{"bids":{"100":10},"asks":{"101":8}}`)

	rec, body := doRequest(t, mux, http.MethodGet, "/api/books/ACME/quotes?inventory=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("quotes status = %d: %v", rec.Code, body)
	}
	quotes := body["quotes"].(map[string]any)
	bid := quotes["bid"].(map[string]any)
	if got := bid["price"].(float64); got != 99.75 {
		t.Fatalf("bid price = %v, want 99.75", got)
	}

	rec, body = doRequest(t, mux, http.MethodPost, "/api/books/ACME/orders",
		`{"side":"buy","size":5,"max_slippage":0.01}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("order status = %d: %v", rec.Code, body)
	}
	fill := body["fill"].(map[string]any)
	if got := fill["price"].(float64); got != 101 {
		t.Fatalf("fill price = %v, want 101", got)
	}

	rec, body = doRequest(t, mux, http.MethodGet, "/api/positions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("positions status = %d: %v", rec.Code, body)
	}
	positions := body["positions"].([]any)
	if len(positions) != 1 {
		t.Fatalf("positions = %v", positions)
	}
	pos := positions[0].(map[string]any)
	if got := pos["quantity"].(float64); got != 5 {
		t.Fatalf("quantity = %v, want 5", got)
	}
}

func TestOrderRejectedOnSlippage(t *testing.T) {
	mux := newTestMux(t)

	doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":"ACME"}`)
	doRequest(t, mux, http.MethodPut, "/api/books/ACME",
		`{"bids":{"100":10},"asks":{"101":8}}`)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/books/ACME/orders",
		`{"side":"buy","size":5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("order status = %d: %v", rec.Code, body)
	}
	errInfo := body["error"].(map[string]any)
	if errInfo["kind"] != "slippage_exceeded" {
		t.Fatalf("error kind = %v", errInfo["kind"])
	}
}

func TestToxicityRequiresHistory(t *testing.T) {
	mux := newTestMux(t)

	doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":"ACME"}`)

	rec, body := doRequest(t, mux, http.MethodGet, "/api/books/ACME/toxicity?window=100", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("toxicity status = %d: %v", rec.Code, body)
	}
	errInfo := body["error"].(map[string]any)
	if errInfo["kind"] != "insufficient_history" {
		t.Fatalf("error kind = %v", errInfo["kind"])
	}
}

func TestValidationErrors(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty symbol status = %d: %v", rec.Code, body)
	}

	doRequest(t, mux, http.MethodPost, "/api/books", `{"symbol":"ACME"}`)

	rec, body = doRequest(t, mux, http.MethodPost, "/api/books/ACME/trades",
		`{"price":100,"size":1,"side":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad side status = %d: %v", rec.Code, body)
	}

	rec, body = doRequest(t, mux, http.MethodPut, "/api/books/ACME",
		`{"bids":{"not-a-price":10},"asks":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad price key status = %d: %v", rec.Code, body)
	}
}

func TestInitializeAndHealth(t *testing.T) {
	mux := newTestMux(t)

	rec, body := doRequest(t, mux, http.MethodPost, "/api/initialize", `{"provider":"simulated"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("initialize status = %d: %v", rec.Code, body)
	}
	if body["message"] == "" {
		t.Fatal("initialize returned empty message")
	}

	rec, body = doRequest(t, mux, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d: %v", rec.Code, body)
	}
	if body["status"] != "ok" {
		t.Fatalf("health = %v", body)
	}

	rec, body = doRequest(t, mux, http.MethodGet, "/api/latency", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("latency status = %d: %v", rec.Code, body)
	}
	latency := body["latency"].(map[string]any)
	if latency["source"] != "simulated" {
		t.Fatalf("latency source = %v", latency["source"])
	}
}
