package domain

import "time"

// PriceLevel is a single price+size entry on one side of an order book.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BookSnapshot is the top-N view of a symbol's book for external display.
// Spread and MidPrice are nil when either side of the book is empty.
type BookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // sorted descending by price
	Asks      []PriceLevel `json:"asks"` // sorted ascending by price
	Spread    *float64     `json:"spread"`
	MidPrice  *float64     `json:"mid_price"`
	Timestamp time.Time    `json:"timestamp"`
}

// TapeStats summarizes the most recent stretch of the trade tape.
type TapeStats struct {
	Count     int     `json:"count"`
	MeanPrice float64 `json:"mean_price"`
	StdPrice  float64 `json:"std_price"`
	Volume    float64 `json:"volume"`
}

// BookFeatures aggregates the microstructure state of one symbol at a point
// in time: spread/mid (nil when a side is empty), depth imbalance, per-side
// aggregate volume and VWAP over the configured depth, and statistics over
// the tail of the trade tape. It is an immutable value handed to consumers.
type BookFeatures struct {
	Symbol         string    `json:"symbol"`
	Spread         *float64  `json:"spread"`
	MidPrice       *float64  `json:"mid_price"`
	DepthImbalance float64   `json:"depth_imbalance"`
	BidVolume      float64   `json:"bid_volume"`
	AskVolume      float64   `json:"ask_volume"`
	BidVWAP        float64   `json:"bid_vwap"`
	AskVWAP        float64   `json:"ask_vwap"`
	Tape           TapeStats `json:"tape"`
	Timestamp      time.Time `json:"timestamp"`
}
