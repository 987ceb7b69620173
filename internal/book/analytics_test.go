package book

import (
	"math"
	"testing"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

func TestVWAPUniformPriceEqualsPrice(t *testing.T) {
	b := New("SIM-1", 10)
	b.ApplySnapshot(
		map[float64]float64{50: 7},
		map[float64]float64{50: 999},
		time.Now(),
	)
	bidVWAP, askVWAP := b.VWAP(10)
	if bidVWAP != 50 {
		t.Fatalf("bid vwap = %v, want 50", bidVWAP)
	}
	if askVWAP != 50 {
		t.Fatalf("ask vwap = %v, want 50", askVWAP)
	}
}

func TestVWAPEmptySideIsZero(t *testing.T) {
	b := New("SIM-1", 10)
	b.ApplySnapshot(map[float64]float64{100: 10}, nil, time.Now())
	bidVWAP, askVWAP := b.VWAP(5)
	if bidVWAP != 100 {
		t.Fatalf("bid vwap = %v, want 100", bidVWAP)
	}
	if askVWAP != 0 {
		t.Fatalf("ask vwap = %v, want 0 for empty side", askVWAP)
	}
}

func TestVWAPWeighting(t *testing.T) {
	b := New("SIM-1", 10)
	b.ApplySnapshot(
		map[float64]float64{100: 10, 99: 5},
		map[float64]float64{101: 8, 102: 3},
		time.Now(),
	)
	bidVWAP, askVWAP := b.VWAP(2)

	wantBid := (100*10 + 99*5) / 15.0
	wantAsk := (101*8 + 102*3) / 11.0
	if math.Abs(bidVWAP-wantBid) > 1e-12 {
		t.Fatalf("bid vwap = %v, want %v", bidVWAP, wantBid)
	}
	if math.Abs(askVWAP-wantAsk) > 1e-12 {
		t.Fatalf("ask vwap = %v, want %v", askVWAP, wantAsk)
	}
}

func TestDepthImbalance(t *testing.T) {
	b := testBook(t)

	// (15 - 11) / 26
	got := b.DepthImbalance(2)
	want := 4.0 / 26.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("imbalance = %v, want %v", got, want)
	}
	if got < -1 || got > 1 {
		t.Fatalf("imbalance %v outside [-1, 1]", got)
	}
}

func TestDepthImbalanceBalancedAndEmpty(t *testing.T) {
	b := New("SIM-1", 10)
	b.ApplySnapshot(
		map[float64]float64{100: 6},
		map[float64]float64{101: 6},
		time.Now(),
	)
	if got := b.DepthImbalance(3); got != 0 {
		t.Fatalf("balanced imbalance = %v, want 0", got)
	}

	empty := New("SIM-2", 10)
	if got := empty.DepthImbalance(3); got != 0 {
		t.Fatalf("empty-book imbalance = %v, want 0", got)
	}
}

func TestDepthImbalanceBounds(t *testing.T) {
	b := New("SIM-1", 10)
	b.ApplySnapshot(map[float64]float64{100: 42}, nil, time.Now())
	if got := b.DepthImbalance(5); got != 1 {
		t.Fatalf("bid-only imbalance = %v, want 1", got)
	}

	b.ApplySnapshot(nil, map[float64]float64{101: 42}, time.Now())
	if got := b.DepthImbalance(5); got != -1 {
		t.Fatalf("ask-only imbalance = %v, want -1", got)
	}
}

func TestFeaturesAggregation(t *testing.T) {
	b := testBook(t)
	for i := 0; i < 12; i++ {
		b.AddTrade(100+float64(i%2), 2, domain.SideBuy, time.Now())
	}

	f := b.Features()
	if f.Symbol != "SIM-1" {
		t.Fatalf("symbol = %q", f.Symbol)
	}
	if f.Spread == nil || *f.Spread != 1 {
		t.Fatalf("features spread = %v, want 1", f.Spread)
	}
	if f.MidPrice == nil || *f.MidPrice != 100.5 {
		t.Fatalf("features mid = %v, want 100.5", f.MidPrice)
	}
	if f.BidVolume != 15 || f.AskVolume != 11 {
		t.Fatalf("volumes = (%v, %v), want (15, 11)", f.BidVolume, f.AskVolume)
	}
	// Only the 10 most recent prints are summarized.
	if f.Tape.Count != 10 {
		t.Fatalf("tape count = %d, want 10", f.Tape.Count)
	}
	if f.Tape.Volume != 20 {
		t.Fatalf("tape volume = %v, want 20", f.Tape.Volume)
	}
	if f.Tape.MeanPrice != 100.5 {
		t.Fatalf("tape mean = %v, want 100.5", f.Tape.MeanPrice)
	}
	if math.Abs(f.Tape.StdPrice-0.5) > 1e-12 {
		t.Fatalf("tape std = %v, want 0.5", f.Tape.StdPrice)
	}
}

func TestFeaturesOnEmptyBook(t *testing.T) {
	b := New("SIM-1", 10)
	f := b.Features()
	if f.Spread != nil || f.MidPrice != nil {
		t.Fatal("empty book must report absent spread/mid")
	}
	if f.DepthImbalance != 0 || f.BidVWAP != 0 || f.AskVWAP != 0 {
		t.Fatalf("empty book features must be neutral: %+v", f)
	}
}
