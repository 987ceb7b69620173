package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

func newTestSession() *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{}, logger)
}

func seedBook(t *testing.T, s *Session, symbol string) {
	t.Helper()
	if err := s.CreateBook(symbol, 10); err != nil {
		t.Fatalf("create book: %v", err)
	}
	if _, err := s.ApplyUpdate(symbol,
		map[float64]float64{100: 10, 99: 5},
		map[float64]float64{101: 8, 102: 3},
		time.Unix(1700000000, 0),
	); err != nil {
		t.Fatalf("apply update: %v", err)
	}
}

func TestUnknownSymbolFails(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	if _, err := s.ApplyUpdate("GHOST", nil, nil, time.Now()); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Fatalf("apply update err = %v, want ErrSymbolNotFound", err)
	}
	if _, err := s.Quote("GHOST", QuoteParams{}); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Fatalf("quote err = %v, want ErrSymbolNotFound", err)
	}
	if _, err := s.Execute("GHOST", domain.SideBuy, 1, 0.01); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Fatalf("execute err = %v, want ErrSymbolNotFound", err)
	}
	if err := s.RemoveBook("GHOST"); !errors.Is(err, domain.ErrSymbolNotFound) {
		t.Fatalf("remove err = %v, want ErrSymbolNotFound", err)
	}
}

func TestUpdateReturnsFeatures(t *testing.T) {
	s := newTestSession()
	defer s.Close()
	seedBook(t, s, "SIM-1")

	f, err := s.ApplyUpdate("SIM-1",
		map[float64]float64{100: 10, 99: 5},
		map[float64]float64{101: 8, 102: 3},
		time.Now(),
	)
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if f.Spread == nil || *f.Spread != 1 {
		t.Fatalf("features spread = %v, want 1", f.Spread)
	}
	if f.MidPrice == nil || *f.MidPrice != 100.5 {
		t.Fatalf("features mid = %v, want 100.5", f.MidPrice)
	}
}

func TestRecordTradeValidation(t *testing.T) {
	s := newTestSession()
	defer s.Close()
	seedBook(t, s, "SIM-1")

	cases := []struct {
		price, size float64
	}{
		{-1, 5},
		{100, 0},
		{100, -2},
	}
	for _, tc := range cases {
		if _, err := s.RecordTrade("SIM-1", tc.price, tc.size, domain.SideBuy, time.Now()); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("price=%v size=%v: err = %v, want ErrValidation", tc.price, tc.size, err)
		}
	}

	tr, err := s.RecordTrade("SIM-1", 100.5, 2, domain.SideSell, time.Time{})
	if err != nil {
		t.Fatalf("record trade: %v", err)
	}
	if tr.Timestamp.IsZero() {
		t.Fatal("zero timestamp should be defaulted")
	}
}

func TestExecuteUpdatesPositionAtomically(t *testing.T) {
	s := newTestSession()
	defer s.Close()
	seedBook(t, s, "SIM-1")

	// Tight bound: rejected, position untouched.
	if _, err := s.Execute("SIM-1", domain.SideBuy, 20, 0.001); !errors.Is(err, domain.ErrSlippageExceeded) {
		t.Fatalf("err = %v, want ErrSlippageExceeded", err)
	}
	pos, err := s.Position("SIM-1")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.Quantity != 0 {
		t.Fatalf("position after rejection = %v, want 0", pos.Quantity)
	}

	// Loose bound: best ask holds 8 of the requested 20.
	fill, err := s.Execute("SIM-1", domain.SideBuy, 20, 0.01)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fill.Size != 8 || fill.Price != 101 {
		t.Fatalf("fill = %+v, want size 8 at 101", fill)
	}
	if fill.Position != 8 {
		t.Fatalf("fill position = %v, want 8", fill.Position)
	}
	if fill.ID == "" {
		t.Fatal("fill must carry an ID")
	}

	// A sell nets the position back down.
	fill, err = s.Execute("SIM-1", domain.SideSell, 3, 0.01)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if fill.Position != 5 {
		t.Fatalf("net position = %v, want 5", fill.Position)
	}
}

func TestEventsFlow(t *testing.T) {
	s := newTestSession()
	seedBook(t, s, "SIM-1") // emits one book_update

	if _, err := s.Execute("SIM-1", domain.SideBuy, 2, 0.01); err != nil {
		t.Fatalf("execute: %v", err)
	}
	s.Close()

	var kinds []string
	for ev := range s.Events() {
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) != 2 || kinds[0] != EventBookUpdate || kinds[1] != EventFill {
		t.Fatalf("event kinds = %v, want [book_update fill]", kinds)
	}
}

func TestToxicEventEmitted(t *testing.T) {
	s := newTestSession()
	if err := s.CreateBook("SIM-1", 10); err != nil {
		t.Fatalf("create book: %v", err)
	}
	for i := 0; i < 100; i++ {
		if _, err := s.RecordTrade("SIM-1", 100+float64(i)*0.05, 1, domain.SideBuy, time.Now()); err != nil {
			t.Fatalf("record trade: %v", err)
		}
	}

	rep, err := s.DetectToxicity("SIM-1", 100)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !rep.Toxic {
		t.Fatalf("report = %+v, want toxic", rep)
	}
	s.Close()

	found := false
	for ev := range s.Events() {
		if ev.Kind == EventToxicFlow && ev.Toxicity != nil {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a toxic_flow event on the queue")
	}
}

func TestClosedSessionRejectsEverything(t *testing.T) {
	s := newTestSession()
	seedBook(t, s, "SIM-1")
	s.Close()
	s.Close() // idempotent

	if err := s.CreateBook("SIM-2", 10); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("create err = %v, want ErrSessionClosed", err)
	}
	if _, err := s.ApplyUpdate("SIM-1", nil, nil, time.Now()); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("update err = %v, want ErrSessionClosed", err)
	}
}

func TestSymbolsRunInParallel(t *testing.T) {
	s := newTestSession()
	defer s.Close()
	seedBook(t, s, "SIM-1")
	seedBook(t, s, "SIM-2")

	var wg sync.WaitGroup
	for _, sym := range []string{"SIM-1", "SIM-2"} {
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(sym string) {
				defer wg.Done()
				_, _ = s.ApplyUpdate(sym,
					map[float64]float64{100: 10},
					map[float64]float64{101: 8},
					time.Now(),
				)
			}(sym)
			go func(sym string) {
				defer wg.Done()
				_, _ = s.Execute(sym, domain.SideBuy, 1, 1)
			}(sym)
		}
	}
	wg.Wait()

	for _, sym := range []string{"SIM-1", "SIM-2"} {
		if _, err := s.Snapshot(sym, 5); err != nil {
			t.Fatalf("snapshot %s: %v", sym, err)
		}
	}
}

func TestLatencyIsAStub(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	stats := s.Latency()
	if stats.Source != "simulated" {
		t.Fatalf("source = %q, want simulated", stats.Source)
	}
	if stats.AvgUpdateMicros == 0 {
		t.Fatal("placeholder figures should be non-zero")
	}
}
