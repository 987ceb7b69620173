package session

import (
	"log/slog"

	"github.com/quantfold/hftsim/internal/domain"
)

// Event kinds emitted on the session's outbound queue.
const (
	EventBookUpdate = "book_update"
	EventBookRemove = "book_remove"
	EventFill       = "fill"
	EventToxicFlow  = "toxic_flow"
)

// Event is one outbound effect of a session operation. Exactly one of the
// payload pointers matching Kind is set (Snapshot accompanies book updates).
type Event struct {
	Kind     string
	Symbol   string
	Features *domain.BookFeatures
	Snapshot *domain.BookSnapshot
	Fill     *domain.Fill
	Toxicity *domain.ToxicityReport
}

// Events exposes the outbound queue. It is closed when the session closes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// DroppedEvents reports how many events were discarded because the queue was
// full.
func (s *Session) DroppedEvents() uint64 {
	return s.dropped.Load()
}

// emit enqueues without blocking: when the publisher falls behind, the event
// is dropped and counted rather than stalling the hot path.
func (s *Session) emit(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
		s.logger.Warn("event queue full, dropping",
			slog.String("kind", ev.Kind),
			slog.String("symbol", ev.Symbol),
		)
	}
}
