package toxicity

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
)

func fillTape(b *book.OrderBook, n int, price float64, side domain.Side) {
	for i := 0; i < n; i++ {
		b.AddTrade(price, 1, side, time.Now())
	}
}

func TestDetectInsufficientHistory(t *testing.T) {
	d := NewDetector()
	b := book.New("SIM-1", 10)
	fillTape(b, 99, 100, domain.SideBuy)

	if _, err := d.Detect(b, 100); !errors.Is(err, domain.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}

	// One more trade crosses the threshold; the error must disappear.
	b.AddTrade(100, 1, domain.SideBuy, time.Now())
	if _, err := d.Detect(b, 100); err != nil {
		t.Fatalf("err after 100 trades = %v, want nil", err)
	}
}

func TestDetectFlatPriceIsNotToxic(t *testing.T) {
	d := NewDetector()
	b := book.New("SIM-1", 10)

	// 60 buys vs 40 sells, price pinned: imbalanced but uninformative flow.
	fillTape(b, 60, 100, domain.SideBuy)
	fillTape(b, 40, 100, domain.SideSell)

	rep, err := d.Detect(b, 100)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if rep.Score != 0 {
		t.Fatalf("score = %v, want 0 with zero price change", rep.Score)
	}
	if rep.Toxic {
		t.Fatal("flat-price flow flagged toxic")
	}
	if rep.Action != ActionNormal {
		t.Fatalf("action = %q, want %q", rep.Action, ActionNormal)
	}
	if math.Abs(rep.VolumeImbalance-0.2) > 1e-12 {
		t.Fatalf("volume imbalance = %v, want 0.2", rep.VolumeImbalance)
	}
}

func TestDetectDirectionalFlowIsToxic(t *testing.T) {
	d := NewDetector()
	b := book.New("SIM-1", 10)

	// Pure buy flow pushing the price up 2%: score = 1 * 0.02 * 100 = 2.
	for i := 0; i < 100; i++ {
		b.AddTrade(100+float64(i)*0.02, 1, domain.SideBuy, time.Now())
	}

	rep, err := d.Detect(b, 100)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !rep.Toxic {
		t.Fatalf("score = %v, expected toxic flag", rep.Score)
	}
	if rep.Action != ActionWidenSpreads {
		t.Fatalf("action = %q, want %q", rep.Action, ActionWidenSpreads)
	}
	if rep.Score <= toxicThreshold {
		t.Fatalf("score = %v, want > %v", rep.Score, toxicThreshold)
	}
}

func TestDetectWindowUsesMostRecentTrades(t *testing.T) {
	d := NewDetector()
	b := book.New("SIM-1", 10)

	// Older sell flow followed by a balanced recent window.
	fillTape(b, 50, 90, domain.SideSell)
	fillTape(b, 10, 100, domain.SideBuy)
	fillTape(b, 10, 100, domain.SideSell)

	rep, err := d.Detect(b, 20)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if rep.VolumeImbalance != 0 {
		t.Fatalf("imbalance = %v, want 0 over the recent window", rep.VolumeImbalance)
	}
}

func TestDetectDefaultsWindow(t *testing.T) {
	d := NewDetector()
	b := book.New("SIM-1", 10)
	fillTape(b, DefaultWindow, 100, domain.SideBuy)

	rep, err := d.Detect(b, 0)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if rep.Window != DefaultWindow {
		t.Fatalf("window = %d, want %d", rep.Window, DefaultWindow)
	}
}
