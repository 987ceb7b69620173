// Package book implements the per-symbol price-level order book, its bounded
// trade tape, and the read-only microstructure queries derived from them.
//
// An OrderBook performs no locking of its own: the owning session serializes
// writers per symbol. ApplySnapshot builds fresh side maps and swaps them in
// wholesale, so a book never holds a half-applied update.
package book

import (
	"sort"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

// DefaultDepth is the number of price levels per side considered by
// aggregate queries when no depth was configured.
const DefaultDepth = 10

// OrderBook owns one symbol's bid and ask level maps (keyed by price), its
// trade tape, and the timestamp of the last applied snapshot. A crossed or
// partially empty book is tolerated by every query; snapshots are applied
// without crossedness validation.
type OrderBook struct {
	symbol    string
	bids      map[float64]float64
	asks      map[float64]float64
	tape      *Tape
	depth     int
	updatedAt time.Time
}

// New creates an empty OrderBook for symbol. depth bounds the number of
// levels per side that aggregate queries consider.
func New(symbol string, depth int) *OrderBook {
	if depth < 1 {
		depth = DefaultDepth
	}
	return &OrderBook{
		symbol: symbol,
		bids:   make(map[float64]float64),
		asks:   make(map[float64]float64),
		tape:   NewTape(TapeCapacity),
		depth:  depth,
	}
}

// Symbol returns the instrument this book belongs to.
func (b *OrderBook) Symbol() string { return b.symbol }

// Depth returns the configured query depth.
func (b *OrderBook) Depth() int { return b.depth }

// UpdatedAt returns the timestamp of the last applied snapshot.
func (b *OrderBook) UpdatedAt() time.Time { return b.updatedAt }

// Tape returns the book's trade tape.
func (b *OrderBook) Tape() *Tape { return b.tape }

// ApplySnapshot replaces both sides wholesale with the given level sets and
// records ts. Levels with non-positive size or price are dropped, making a
// zero-size level equivalent to absence. The new maps are built off to the
// side and then swapped in.
func (b *OrderBook) ApplySnapshot(bids, asks map[float64]float64, ts time.Time) {
	newBids := make(map[float64]float64, len(bids))
	for price, size := range bids {
		if price > 0 && size > 0 {
			newBids[price] = size
		}
	}
	newAsks := make(map[float64]float64, len(asks))
	for price, size := range asks {
		if price > 0 && size > 0 {
			newAsks[price] = size
		}
	}
	b.bids = newBids
	b.asks = newAsks
	b.updatedAt = ts
}

// AddTrade appends a print to the tape, evicting the oldest once the tape is
// at capacity.
func (b *OrderBook) AddTrade(price, size float64, side domain.Side, ts time.Time) {
	b.tape.Append(domain.Trade{
		Price:     price,
		Size:      size,
		Side:      side,
		Timestamp: ts,
	})
}

// BestBid returns the level with the highest bid price, or false if the bid
// side is empty.
func (b *OrderBook) BestBid() (domain.PriceLevel, bool) {
	if len(b.bids) == 0 {
		return domain.PriceLevel{}, false
	}
	var best float64
	first := true
	for price := range b.bids {
		if first || price > best {
			best = price
			first = false
		}
	}
	return domain.PriceLevel{Price: best, Size: b.bids[best]}, true
}

// BestAsk returns the level with the lowest ask price, or false if the ask
// side is empty.
func (b *OrderBook) BestAsk() (domain.PriceLevel, bool) {
	if len(b.asks) == 0 {
		return domain.PriceLevel{}, false
	}
	var best float64
	first := true
	for price := range b.asks {
		if first || price < best {
			best = price
			first = false
		}
	}
	return domain.PriceLevel{Price: best, Size: b.asks[best]}, true
}

// Spread returns best ask minus best bid, or false if either side is empty.
// The value can be negative for a crossed book.
func (b *OrderBook) Spread() (float64, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Mid returns the arithmetic mean of best bid and best ask prices, or false
// if either side is empty.
func (b *OrderBook) Mid() (float64, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// TopBids returns up to n bid levels sorted descending by price.
func (b *OrderBook) TopBids(n int) []domain.PriceLevel {
	levels := collectLevels(b.bids)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return truncate(levels, n)
}

// TopAsks returns up to n ask levels sorted ascending by price.
func (b *OrderBook) TopAsks(n int) []domain.PriceLevel {
	levels := collectLevels(b.asks)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return truncate(levels, n)
}

// Snapshot returns the top-n view of both sides plus spread and mid for
// external display.
func (b *OrderBook) Snapshot(n int) domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Symbol:    b.symbol,
		Bids:      b.TopBids(n),
		Asks:      b.TopAsks(n),
		Timestamp: b.updatedAt,
	}
	if spread, ok := b.Spread(); ok {
		snap.Spread = &spread
	}
	if mid, ok := b.Mid(); ok {
		snap.MidPrice = &mid
	}
	return snap
}

func collectLevels(side map[float64]float64) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(side))
	for price, size := range side {
		levels = append(levels, domain.PriceLevel{Price: price, Size: size})
	}
	return levels
}

func truncate(levels []domain.PriceLevel, n int) []domain.PriceLevel {
	if n > 0 && len(levels) > n {
		return levels[:n]
	}
	return levels
}
