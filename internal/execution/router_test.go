package execution

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
)

func execBook(t *testing.T) *book.OrderBook {
	t.Helper()
	b := book.New("SIM-1", 10)
	b.ApplySnapshot(
		map[float64]float64{100: 10, 99: 5},
		map[float64]float64{101: 8, 102: 3},
		time.Unix(1700000000, 0),
	)
	return b
}

func TestExecuteRejectsOnSlippage(t *testing.T) {
	r := NewRouter()

	// mid=100.5, best ask=101 => slippage ~0.498% > 0.1%.
	_, err := r.Execute(execBook(t), domain.SideBuy, 20, 0.001)
	if !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded", err)
	}
}

func TestExecuteBuyFillsBestAskOnly(t *testing.T) {
	r := NewRouter()
	exec, err := r.Execute(execBook(t), domain.SideBuy, 20, 0.01)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if exec.Price != 101 {
		t.Fatalf("price = %v, want best ask 101", exec.Price)
	}
	// Requested 20 but the best level holds 8; deeper levels stay untouched.
	if exec.Size != 8 {
		t.Fatalf("size = %v, want 8 (single best level)", exec.Size)
	}
	wantSlip := (101 - 100.5) / 100.5
	if math.Abs(exec.Slippage-wantSlip) > 1e-12 {
		t.Fatalf("slippage = %v, want %v", exec.Slippage, wantSlip)
	}
}

func TestExecuteSellHitsBestBid(t *testing.T) {
	r := NewRouter()
	exec, err := r.Execute(execBook(t), domain.SideSell, 4, 0.01)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Price != 100 {
		t.Fatalf("price = %v, want best bid 100", exec.Price)
	}
	if exec.Size != 4 {
		t.Fatalf("size = %v, want full requested 4", exec.Size)
	}
}

func TestExecuteNoLiquidity(t *testing.T) {
	r := NewRouter()
	b := book.New("SIM-1", 10)
	b.ApplySnapshot(map[float64]float64{100: 10}, nil, time.Now())

	if _, err := r.Execute(b, domain.SideBuy, 5, 0.01); !errors.Is(err, domain.ErrNoLiquidity) {
		t.Fatalf("err = %v, want ErrNoLiquidity", err)
	}
	// The bid side still has liquidity for a sell.
	if _, err := r.Execute(b, domain.SideSell, 5, 0.01); err != nil {
		t.Fatalf("sell err = %v, want nil", err)
	}
}

func TestExecuteWithoutMidBypassesGuard(t *testing.T) {
	r := NewRouter()
	b := book.New("SIM-1", 10)
	b.ApplySnapshot(nil, map[float64]float64{101: 8}, time.Now())

	// No bid side, so no mid: slippage reports 0 and the fill proceeds even
	// under the tightest bound.
	exec, err := r.Execute(b, domain.SideBuy, 5, 1e-9)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Slippage != 0 {
		t.Fatalf("slippage = %v, want 0 without mid", exec.Slippage)
	}
	if exec.Size != 5 {
		t.Fatalf("size = %v, want 5", exec.Size)
	}
}

func TestExecuteValidatesSize(t *testing.T) {
	r := NewRouter()
	for _, size := range []float64{0, -3} {
		if _, err := r.Execute(execBook(t), domain.SideBuy, size, 0.01); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("size %v: err = %v, want ErrValidation", size, err)
		}
	}
}

func TestExecuteDefaultSlippageBound(t *testing.T) {
	r := NewRouter()
	// Zero maxSlippage falls back to the 0.1% default, which this book
	// violates at the touch.
	if _, err := r.Execute(execBook(t), domain.SideBuy, 1, 0); !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded under default bound", err)
	}
}
