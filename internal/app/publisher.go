package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/quantfold/hftsim/internal/domain"
	"github.com/quantfold/hftsim/internal/notify"
	"github.com/quantfold/hftsim/internal/session"
)

// Publisher drains the session's outbound event queue and fans each event
// out to the configured backends: the Redis book cache and signal bus, the
// Postgres fill store, and the notifier. All backends are optional; a nil
// backend is skipped. Backend errors are logged and never fed back into the
// engine.
type Publisher struct {
	events    <-chan session.Event
	bookCache domain.BookCache
	bus       domain.SignalBus
	fills     domain.FillStore
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// NewPublisher creates a Publisher draining the given event channel.
func NewPublisher(events <-chan session.Event, deps *Dependencies, logger *slog.Logger) *Publisher {
	return &Publisher{
		events:    events,
		bookCache: deps.BookCache,
		bus:       deps.SignalBus,
		fills:     deps.FillStore,
		notifier:  deps.Notifier,
		logger:    logger.With(slog.String("component", "publisher")),
	}
}

// Run consumes events until the context is cancelled or the session closes
// its queue.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-p.events:
			if !ok {
				return nil
			}
			p.handle(ctx, ev)
		}
	}
}

func (p *Publisher) handle(ctx context.Context, ev session.Event) {
	switch ev.Kind {
	case session.EventBookUpdate:
		p.handleBookUpdate(ctx, ev)
	case session.EventBookRemove:
		p.handleBookRemove(ctx, ev)
	case session.EventFill:
		p.handleFill(ctx, ev)
	case session.EventToxicFlow:
		p.handleToxicFlow(ctx, ev)
	}
}

func (p *Publisher) handleBookUpdate(ctx context.Context, ev session.Event) {
	if p.bookCache != nil && ev.Snapshot != nil {
		if err := p.bookCache.SetSnapshot(ctx, ev.Symbol, *ev.Snapshot); err != nil {
			p.logBackendError(ctx, ev, "cache snapshot", err)
		}
		if ev.Features != nil {
			if err := p.bookCache.SetFeatures(ctx, ev.Symbol, *ev.Features); err != nil {
				p.logBackendError(ctx, ev, "cache features", err)
			}
		}
	}
	p.publish(ctx, ev, "ch:book:"+ev.Symbol, ev.Features)
}

func (p *Publisher) handleBookRemove(ctx context.Context, ev session.Event) {
	if p.bookCache != nil {
		if err := p.bookCache.Delete(ctx, ev.Symbol); err != nil {
			p.logBackendError(ctx, ev, "cache delete", err)
		}
	}
}

func (p *Publisher) handleFill(ctx context.Context, ev session.Event) {
	if ev.Fill == nil {
		return
	}
	if p.fills != nil {
		if err := p.fills.Insert(ctx, *ev.Fill); err != nil {
			p.logBackendError(ctx, ev, "fill store", err)
		}
	}
	p.publish(ctx, ev, "ch:fill", ev.Fill)
	if p.notifier != nil {
		if err := p.notifier.NotifyFill(ctx, *ev.Fill); err != nil {
			p.logBackendError(ctx, ev, "notify", err)
		}
	}
}

func (p *Publisher) handleToxicFlow(ctx context.Context, ev session.Event) {
	if ev.Toxicity == nil {
		return
	}
	p.publish(ctx, ev, "ch:toxic", ev.Toxicity)
	if p.notifier != nil {
		if err := p.notifier.NotifyToxicFlow(ctx, *ev.Toxicity); err != nil {
			p.logBackendError(ctx, ev, "notify", err)
		}
	}
}

// publish sends a typed JSON envelope on the signal bus.
func (p *Publisher) publish(ctx context.Context, ev session.Event, channel string, payload any) {
	if p.bus == nil || payload == nil {
		return
	}

	msg, err := json.Marshal(map[string]any{
		"type":    ev.Kind,
		"symbol":  ev.Symbol,
		"payload": payload,
	})
	if err != nil {
		p.logBackendError(ctx, ev, "marshal", err)
		return
	}

	if err := p.bus.Publish(ctx, channel, msg); err != nil {
		p.logBackendError(ctx, ev, "bus publish", err)
	}
}

func (p *Publisher) logBackendError(ctx context.Context, ev session.Event, backend string, err error) {
	p.logger.ErrorContext(ctx, "publish failed",
		slog.String("backend", backend),
		slog.String("kind", ev.Kind),
		slog.String("symbol", ev.Symbol),
		slog.String("error", err.Error()),
	)
}
