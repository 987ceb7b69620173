package book

import (
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

// tapeStatsWindow is the number of most recent tape trades summarized in
// BookFeatures.
const tapeStatsWindow = 10

// VWAP computes the volume-weighted average price over the top n levels of
// each side independently (bids descending, asks ascending). A side with no
// qualifying levels yields 0 rather than dividing by zero.
func (b *OrderBook) VWAP(n int) (bidVWAP, askVWAP float64) {
	return sideVWAP(b.TopBids(n)), sideVWAP(b.TopAsks(n))
}

// DepthImbalance returns (bidVolume - askVolume) / (bidVolume + askVolume)
// over the top n levels of each side. The result lies in [-1, 1]; positive
// means buy-side pressure. Zero total volume yields 0.
func (b *OrderBook) DepthImbalance(n int) float64 {
	bidVol := sideVolume(b.TopBids(n))
	askVol := sideVolume(b.TopAsks(n))
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}

// Features aggregates spread, mid, depth imbalance, per-side volume and VWAP
// over the configured depth, and trailing trade-tape statistics into one
// immutable record.
func (b *OrderBook) Features() domain.BookFeatures {
	bids := b.TopBids(b.depth)
	asks := b.TopAsks(b.depth)

	f := domain.BookFeatures{
		Symbol:         b.symbol,
		DepthImbalance: b.DepthImbalance(b.depth),
		BidVolume:      sideVolume(bids),
		AskVolume:      sideVolume(asks),
		BidVWAP:        sideVWAP(bids),
		AskVWAP:        sideVWAP(asks),
		Tape:           b.tape.Stats(tapeStatsWindow),
		Timestamp:      b.updatedAt,
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	if spread, ok := b.Spread(); ok {
		f.Spread = &spread
	}
	if mid, ok := b.Mid(); ok {
		f.MidPrice = &mid
	}
	return f
}

func sideVolume(levels []domain.PriceLevel) float64 {
	var vol float64
	for _, l := range levels {
		vol += l.Size
	}
	return vol
}

func sideVWAP(levels []domain.PriceLevel) float64 {
	var notional, vol float64
	for _, l := range levels {
		notional += l.Price * l.Size
		vol += l.Size
	}
	if vol == 0 {
		return 0
	}
	return notional / vol
}
