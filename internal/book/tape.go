package book

import (
	"math"

	"github.com/quantfold/hftsim/internal/domain"
)

// TapeCapacity is the fixed number of trades retained per symbol. Once full,
// the oldest print is overwritten.
const TapeCapacity = 1000

// Tape is a fixed-capacity ring buffer of trades indexed by a monotonically
// advancing write cursor. Insertion order is chronological; there is no
// per-insert allocation after construction.
type Tape struct {
	buf  []domain.Trade
	next uint64 // total trades ever appended; buf index is next % capacity
}

// NewTape creates a Tape with the given capacity. A capacity below 1 falls
// back to TapeCapacity.
func NewTape(capacity int) *Tape {
	if capacity < 1 {
		capacity = TapeCapacity
	}
	return &Tape{buf: make([]domain.Trade, capacity)}
}

// Append records a trade, overwriting the oldest entry when full.
func (t *Tape) Append(trade domain.Trade) {
	t.buf[t.next%uint64(len(t.buf))] = trade
	t.next++
}

// Len returns the number of trades currently held, at most the capacity.
func (t *Tape) Len() int {
	if t.next < uint64(len(t.buf)) {
		return int(t.next)
	}
	return len(t.buf)
}

// Capacity returns the fixed buffer size.
func (t *Tape) Capacity() int { return len(t.buf) }

// Recent returns the most recent n trades in chronological order. If fewer
// than n trades exist, all of them are returned.
func (t *Tape) Recent(n int) []domain.Trade {
	held := t.Len()
	if n > held {
		n = held
	}
	if n <= 0 {
		return nil
	}
	out := make([]domain.Trade, n)
	cap64 := uint64(len(t.buf))
	start := t.next - uint64(n)
	for i := 0; i < n; i++ {
		out[i] = t.buf[(start+uint64(i))%cap64]
	}
	return out
}

// Stats computes mean and population standard deviation of the prices of the
// most recent n trades, plus their summed volume. Zero values are returned
// for an empty window.
func (t *Tape) Stats(n int) domain.TapeStats {
	trades := t.Recent(n)
	if len(trades) == 0 {
		return domain.TapeStats{}
	}

	var sum, volume float64
	for _, tr := range trades {
		sum += tr.Price
		volume += tr.Size
	}
	mean := sum / float64(len(trades))

	var sq float64
	for _, tr := range trades {
		d := tr.Price - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(trades)))

	return domain.TapeStats{
		Count:     len(trades),
		MeanPrice: mean,
		StdPrice:  std,
		Volume:    volume,
	}
}
