// Package toxicity estimates informed-trading risk from the trade tape. The
// heuristic multiplies signed volume imbalance by the relative price move
// over a trailing window: one-sided flow that moves the price scores high.
package toxicity

import (
	"fmt"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
)

const (
	// DefaultWindow is the number of trades examined per detection pass.
	DefaultWindow = 100

	// toxicThreshold is the fixed score above which flow is flagged.
	toxicThreshold = 0.5
)

// Recommended actions returned with a report.
const (
	ActionNormal       = "normal"
	ActionWidenSpreads = "widen_spreads"
)

// Detector scores informed-flow risk. Stateless; pure function of the tape.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector { return &Detector{} }

// Detect scores the most recent window trades of the book's tape. It fails
// with domain.ErrInsufficientHistory when the tape holds fewer than window
// trades, and never mutates anything.
func (d *Detector) Detect(b *book.OrderBook, window int) (domain.ToxicityReport, error) {
	if window < 1 {
		window = DefaultWindow
	}
	tape := b.Tape()
	if tape.Len() < window {
		return domain.ToxicityReport{}, fmt.Errorf(
			"toxicity: detect %s: %d of %d trades: %w",
			b.Symbol(), tape.Len(), window, domain.ErrInsufficientHistory,
		)
	}

	trades := tape.Recent(window)

	var buyVol, sellVol float64
	for _, tr := range trades {
		if tr.Side == domain.SideBuy {
			buyVol += tr.Size
		} else {
			sellVol += tr.Size
		}
	}

	var volumeImbalance float64
	if total := buyVol + sellVol; total > 0 {
		volumeImbalance = (buyVol - sellVol) / total
	}

	var priceChange float64
	if first := trades[0].Price; first != 0 {
		priceChange = (trades[len(trades)-1].Price - first) / first
	}

	score := abs(volumeImbalance) * abs(priceChange) * 100
	toxic := score > toxicThreshold

	action := ActionNormal
	if toxic {
		action = ActionWidenSpreads
	}

	return domain.ToxicityReport{
		Symbol:          b.Symbol(),
		Score:           score,
		Toxic:           toxic,
		Action:          action,
		VolumeImbalance: volumeImbalance,
		PriceChange:     priceChange,
		Window:          window,
	}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
