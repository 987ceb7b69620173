package domain

// Quote is one side of a market-maker quote. Not persisted; produced by the
// quoting engine and consumed directly by the caller.
type Quote struct {
	Side  Side    `json:"side"`
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// QuoteSet is the full output of one quoting pass: both quotes plus the
// book state they were derived from.
type QuoteSet struct {
	Symbol         string  `json:"symbol"`
	Bid            Quote   `json:"bid"`
	Ask            Quote   `json:"ask"`
	MidPrice       float64 `json:"mid_price"`
	Spread         float64 `json:"spread"`
	Inventory      float64 `json:"inventory"`
	DepthImbalance float64 `json:"depth_imbalance"`
}

// ToxicityReport is the output of informed-flow detection over the trade
// tape. Action is "widen_spreads" when the flow looks informed, otherwise
// "normal".
type ToxicityReport struct {
	Symbol          string  `json:"symbol"`
	Score           float64 `json:"toxicity_score"`
	Toxic           bool    `json:"is_toxic"`
	Action          string  `json:"action"`
	VolumeImbalance float64 `json:"volume_imbalance"`
	PriceChange     float64 `json:"price_change"`
	Window          int     `json:"window"`
}
