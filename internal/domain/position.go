package domain

import "time"

// Position is the signed net quantity held in one symbol. Positive is long,
// negative is short. Owned exclusively by the trading session; only the
// execution path mutates it.
type Position struct {
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}
