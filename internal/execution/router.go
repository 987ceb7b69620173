// Package execution models instantaneous spread-crossing fills against the
// best level of a book, guarded by a relative slippage bound.
//
// Known limitation, kept on purpose: slippage is measured against the mid
// price, and when the mid is unavailable (one book side empty beyond the
// crossed level) slippage is reported as 0 and the guard does not trip. Fills
// also consume only the single best level; deeper levels are never walked.
package execution

import (
	"fmt"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
)

// DefaultMaxSlippage is the slippage bound applied when the caller passes 0.
const DefaultMaxSlippage = 0.001

// Execution is the outcome of one aggressive order, before the owning
// session applies it to the position.
type Execution struct {
	Side     domain.Side
	Price    float64
	Size     float64
	Slippage float64
}

// Router executes aggressive orders. Stateless; the session provides the
// book and owns the resulting position change.
type Router struct{}

// NewRouter creates a Router.
func NewRouter() *Router { return &Router{} }

// Execute crosses the spread on the given book: a buy lifts the best ask, a
// sell hits the best bid. It fails with domain.ErrNoLiquidity when that side
// is empty, with domain.ErrValidation for a non-positive size, and with
// domain.ErrSlippageExceeded when |price-mid|/mid exceeds maxSlippage; a
// rejection is atomic, nothing is filled. On success the filled size is
// min(requestedSize, size at the best level). The book itself is not
// mutated; levels change only through snapshots.
func (r *Router) Execute(b *book.OrderBook, side domain.Side, requestedSize, maxSlippage float64) (Execution, error) {
	if requestedSize <= 0 {
		return Execution{}, fmt.Errorf("execution: size %v: %w", requestedSize, domain.ErrValidation)
	}
	if maxSlippage == 0 {
		maxSlippage = DefaultMaxSlippage
	}

	var level domain.PriceLevel
	var ok bool
	if side == domain.SideBuy {
		level, ok = b.BestAsk()
	} else {
		level, ok = b.BestBid()
	}
	if !ok {
		return Execution{}, fmt.Errorf("execution: %s %s: %w", side, b.Symbol(), domain.ErrNoLiquidity)
	}

	// Slippage relative to mid. With no mid the guard is bypassed and the
	// fill proceeds at the touch.
	var slippage float64
	if mid, okMid := b.Mid(); okMid && mid != 0 {
		slippage = abs(level.Price-mid) / mid
	}
	if slippage > maxSlippage {
		return Execution{}, fmt.Errorf(
			"execution: %s %s slippage %.6f > %.6f: %w",
			side, b.Symbol(), slippage, maxSlippage, domain.ErrSlippageExceeded,
		)
	}

	filled := requestedSize
	if level.Size < filled {
		filled = level.Size
	}

	return Execution{
		Side:     side,
		Price:    level.Price,
		Size:     filled,
		Slippage: slippage,
	}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
