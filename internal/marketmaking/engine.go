// Package marketmaking computes two-sided quotes around the mid price using a
// simplified inventory-skew model. This is an approximation, not the
// Avellaneda-Stoikov closed form: inventory shifts both quotes by
// riskAversion * inventory * spread, and sizes lean into depth imbalance.
package marketmaking

import (
	"fmt"
	"math"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
)

const (
	// DefaultBaseSize is the unskewed quote size in units.
	DefaultBaseSize = 100.0

	// DefaultRiskAversion scales the inventory adjustment.
	DefaultRiskAversion = 0.01

	// DefaultSpreadMultiplier widens the quoted spread relative to the
	// observed one.
	DefaultSpreadMultiplier = 1.5

	// imbalanceDepth is the number of levels per side used for size skew.
	imbalanceDepth = 5
)

// Params are the per-call quoting inputs. Zero-value fields fall back to the
// package defaults; Inventory is the caller's current signed position.
type Params struct {
	Inventory        float64
	RiskAversion     float64
	SpreadMultiplier float64
	BaseSize         float64
}

func (p Params) withDefaults() Params {
	if p.RiskAversion == 0 {
		p.RiskAversion = DefaultRiskAversion
	}
	if p.SpreadMultiplier == 0 {
		p.SpreadMultiplier = DefaultSpreadMultiplier
	}
	if p.BaseSize == 0 {
		p.BaseSize = DefaultBaseSize
	}
	return p
}

// Engine quotes symbols. It holds no state; all inputs arrive per call.
type Engine struct{}

// NewEngine creates a quoting engine.
func NewEngine() *Engine { return &Engine{} }

// Quote computes bid and ask quotes for the given book. It fails with
// domain.ErrInsufficientMarketData when mid or spread is absent (one or both
// book sides empty). No side effects: the book is only read.
func (e *Engine) Quote(b *book.OrderBook, p Params) (domain.QuoteSet, error) {
	p = p.withDefaults()

	mid, okMid := b.Mid()
	spread, okSpread := b.Spread()
	if !okMid || !okSpread {
		return domain.QuoteSet{}, fmt.Errorf("marketmaking: quote %s: %w", b.Symbol(), domain.ErrInsufficientMarketData)
	}

	inventoryAdj := p.RiskAversion * p.Inventory * spread
	optimalSpread := spread * p.SpreadMultiplier

	bidPrice := mid - optimalSpread/2 - inventoryAdj
	askPrice := mid + optimalSpread/2 - inventoryAdj

	imb := b.DepthImbalance(imbalanceDepth)
	bidSize := p.BaseSize
	askSize := p.BaseSize
	if imb > 0 {
		bidSize = p.BaseSize * (1 + imb)
	}
	if imb < 0 {
		askSize = p.BaseSize * (1 - imb)
	}

	return domain.QuoteSet{
		Symbol:         b.Symbol(),
		Bid:            domain.Quote{Side: domain.SideBuy, Price: bidPrice, Size: math.Round(bidSize)},
		Ask:            domain.Quote{Side: domain.SideSell, Price: askPrice, Size: math.Round(askSize)},
		MidPrice:       mid,
		Spread:         spread,
		Inventory:      p.Inventory,
		DepthImbalance: imb,
	}, nil
}
