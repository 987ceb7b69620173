// Package session orchestrates per-symbol order books, positions, and the
// quoting, toxicity, and execution engines behind one registry.
//
// Concurrency model: every symbol is an independently lockable unit (book +
// tape + position). Operations on different symbols run in parallel;
// operations on one symbol are serialized by its mutex, so a reader never
// observes a half-replaced book and a fill never double-counts. Outbound
// effects (cache writes, persistence, alerts) leave through a buffered event
// channel instead of being invoked inline, keeping the hot path free of I/O.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quantfold/hftsim/internal/book"
	"github.com/quantfold/hftsim/internal/domain"
	"github.com/quantfold/hftsim/internal/execution"
	"github.com/quantfold/hftsim/internal/marketmaking"
	"github.com/quantfold/hftsim/internal/toxicity"
)

// Config holds the session-wide engine defaults applied when a caller omits
// a parameter.
type Config struct {
	DefaultDepth     int
	BaseQuoteSize    float64
	RiskAversion     float64
	SpreadMultiplier float64
	ToxicityWindow   int
	MaxSlippage      float64
	EventBuffer      int
}

// QuoteParams are the caller-supplied quoting inputs; zero values fall back
// to the session defaults.
type QuoteParams struct {
	Inventory        float64
	RiskAversion     float64
	SpreadMultiplier float64
	BaseSize         float64
}

// symbolUnit bundles the state guarded by one symbol's lock.
type symbolUnit struct {
	mu         sync.Mutex
	book       *book.OrderBook
	position   float64
	posUpdated time.Time
}

// Session owns all order books and positions. No other component holds a
// long-lived reference to either.
type Session struct {
	cfg      Config
	engine   *marketmaking.Engine
	detector *toxicity.Detector
	router   *execution.Router

	mu       sync.RWMutex
	symbols  map[string]*symbolUnit
	provider string
	closed   bool

	events  chan Event
	dropped atomic.Uint64

	logger *slog.Logger
}

// New creates a Session with the given defaults.
func New(cfg Config, logger *slog.Logger) *Session {
	if cfg.DefaultDepth < 1 {
		cfg.DefaultDepth = book.DefaultDepth
	}
	if cfg.BaseQuoteSize == 0 {
		cfg.BaseQuoteSize = marketmaking.DefaultBaseSize
	}
	if cfg.ToxicityWindow < 1 {
		cfg.ToxicityWindow = toxicity.DefaultWindow
	}
	if cfg.MaxSlippage == 0 {
		cfg.MaxSlippage = execution.DefaultMaxSlippage
	}
	if cfg.EventBuffer < 1 {
		cfg.EventBuffer = 256
	}
	return &Session{
		cfg:      cfg,
		engine:   marketmaking.NewEngine(),
		detector: toxicity.NewDetector(),
		router:   execution.NewRouter(),
		symbols:  make(map[string]*symbolUnit),
		events:   make(chan Event, cfg.EventBuffer),
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Initialize records the upstream provider configuration and arms the
// session. It may be called again to switch providers.
func (s *Session) Initialize(provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", domain.ErrSessionClosed
	}
	if provider == "" {
		provider = "simulated"
	}
	s.provider = provider
	s.logger.Info("session initialized", slog.String("provider", provider))
	return fmt.Sprintf("initialized with provider %q", provider), nil
}

// CreateBook registers symbol with an empty book. Re-creating an existing
// symbol replaces its book and resets its position, matching wholesale
// registry assignment.
func (s *Session) CreateBook(symbol string, depth int) error {
	if symbol == "" {
		return fmt.Errorf("session: empty symbol: %w", domain.ErrValidation)
	}
	if depth < 1 {
		depth = s.cfg.DefaultDepth
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.symbols[symbol] = &symbolUnit{book: book.New(symbol, depth)}
	s.logger.Info("book created",
		slog.String("symbol", symbol),
		slog.Int("depth", depth),
	)
	return nil
}

// RemoveBook drops a symbol's book and position. Subsequent operations on
// the symbol fail with ErrSymbolNotFound.
func (s *Session) RemoveBook(symbol string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if _, ok := s.symbols[symbol]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("session: %s: %w", symbol, domain.ErrSymbolNotFound)
	}
	delete(s.symbols, symbol)
	s.mu.Unlock()

	s.logger.Info("book removed", slog.String("symbol", symbol))
	s.emit(Event{Kind: EventBookRemove, Symbol: symbol})
	return nil
}

// ApplyUpdate replaces the symbol's book wholesale with the given level sets
// and returns the refreshed microstructure features.
func (s *Session) ApplyUpdate(symbol string, bids, asks map[float64]float64, ts time.Time) (domain.BookFeatures, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.BookFeatures{}, err
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	unit.mu.Lock()
	unit.book.ApplySnapshot(bids, asks, ts)
	features := unit.book.Features()
	snapshot := unit.book.Snapshot(unit.book.Depth())
	unit.mu.Unlock()

	s.emit(Event{
		Kind:     EventBookUpdate,
		Symbol:   symbol,
		Features: &features,
		Snapshot: &snapshot,
	})
	return features, nil
}

// RecordTrade appends a print to the symbol's tape.
func (s *Session) RecordTrade(symbol string, price, size float64, side domain.Side, ts time.Time) (domain.Trade, error) {
	if price <= 0 || size <= 0 {
		return domain.Trade{}, fmt.Errorf(
			"session: trade price=%v size=%v: %w", price, size, domain.ErrValidation)
	}
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.Trade{}, err
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	unit.mu.Lock()
	unit.book.AddTrade(price, size, side, ts)
	unit.mu.Unlock()

	return domain.Trade{Price: price, Size: size, Side: side, Timestamp: ts}, nil
}

// Quote produces market-making quotes for the symbol. Inventory is supplied
// by the caller (defaulting to 0), not read from the session position, so
// external risk systems can quote hypothetical inventories.
func (s *Session) Quote(symbol string, p QuoteParams) (domain.QuoteSet, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.QuoteSet{}, err
	}

	params := marketmaking.Params{
		Inventory:        p.Inventory,
		RiskAversion:     p.RiskAversion,
		SpreadMultiplier: p.SpreadMultiplier,
		BaseSize:         p.BaseSize,
	}
	if params.RiskAversion == 0 {
		params.RiskAversion = s.cfg.RiskAversion
	}
	if params.SpreadMultiplier == 0 {
		params.SpreadMultiplier = s.cfg.SpreadMultiplier
	}
	if params.BaseSize == 0 {
		params.BaseSize = s.cfg.BaseQuoteSize
	}

	unit.mu.Lock()
	defer unit.mu.Unlock()
	return s.engine.Quote(unit.book, params)
}

// DetectToxicity scores informed-flow risk over the symbol's tape. A toxic
// result is also emitted on the event queue so alerting can pick it up.
func (s *Session) DetectToxicity(symbol string, window int) (domain.ToxicityReport, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.ToxicityReport{}, err
	}
	if window < 1 {
		window = s.cfg.ToxicityWindow
	}

	unit.mu.Lock()
	report, err := s.detector.Detect(unit.book, window)
	unit.mu.Unlock()
	if err != nil {
		return domain.ToxicityReport{}, err
	}

	if report.Toxic {
		s.emit(Event{Kind: EventToxicFlow, Symbol: symbol, Toxicity: &report})
	}
	return report, nil
}

// Execute routes an aggressive order against the symbol's book and applies
// the fill to the position, all under the symbol lock. Rejections leave the
// position untouched.
func (s *Session) Execute(symbol string, side domain.Side, size, maxSlippage float64) (domain.Fill, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.Fill{}, err
	}
	if maxSlippage == 0 {
		maxSlippage = s.cfg.MaxSlippage
	}

	unit.mu.Lock()
	exec, err := s.router.Execute(unit.book, side, size, maxSlippage)
	if err != nil {
		unit.mu.Unlock()
		return domain.Fill{}, err
	}
	now := time.Now().UTC()
	unit.position += exec.Size * side.Sign()
	unit.posUpdated = now
	fill := domain.Fill{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Side:     side,
		Price:    exec.Price,
		Size:     exec.Size,
		Slippage: exec.Slippage,
		Position: unit.position,
		FilledAt: now,
	}
	unit.mu.Unlock()

	s.emit(Event{Kind: EventFill, Symbol: symbol, Fill: &fill})
	return fill, nil
}

// Snapshot returns the top-n view of the symbol's book.
func (s *Session) Snapshot(symbol string, n int) (domain.BookSnapshot, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	if n < 1 {
		n = 5
	}

	unit.mu.Lock()
	defer unit.mu.Unlock()
	return unit.book.Snapshot(n), nil
}

// Position returns the signed position for one symbol.
func (s *Session) Position(symbol string) (domain.Position, error) {
	unit, err := s.unit(symbol)
	if err != nil {
		return domain.Position{}, err
	}
	unit.mu.Lock()
	defer unit.mu.Unlock()
	return domain.Position{Symbol: symbol, Quantity: unit.position, UpdatedAt: unit.posUpdated}, nil
}

// Positions returns all positions, including flat ones for registered
// symbols.
func (s *Session) Positions() []domain.Position {
	s.mu.RLock()
	units := make(map[string]*symbolUnit, len(s.symbols))
	for sym, u := range s.symbols {
		units[sym] = u
	}
	s.mu.RUnlock()

	out := make([]domain.Position, 0, len(units))
	for sym, u := range units {
		u.mu.Lock()
		out = append(out, domain.Position{Symbol: sym, Quantity: u.position, UpdatedAt: u.posUpdated})
		u.mu.Unlock()
	}
	return out
}

// Symbols returns the registered symbols.
func (s *Session) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	return out
}

// Close moves the session to its terminal state: every subsequent operation
// fails with ErrSessionClosed and the event channel is closed so the
// publisher drains and exits.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	s.logger.Info("session closed",
		slog.Int("symbols", len(s.symbols)),
		slog.Uint64("dropped_events", s.dropped.Load()),
	)
}

// unit resolves a symbol to its lockable unit.
func (s *Session) unit(symbol string) (*symbolUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	u, ok := s.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("session: %s: %w", symbol, domain.ErrSymbolNotFound)
	}
	return u, nil
}
