package domain

import "time"

// Trade is a single print on a symbol's trade tape.
type Trade struct {
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Side      Side      `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}

// Fill is the result of a spread-crossing execution. Position is the signed
// per-symbol position after the fill was applied.
type Fill struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Price    float64   `json:"price"`
	Size     float64   `json:"size"`
	Slippage float64   `json:"slippage"`
	Position float64   `json:"position"`
	FilledAt time.Time `json:"filled_at"`
}
