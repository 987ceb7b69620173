// Package notify delivers operator alerts for engine events. Notifications
// fan out to all registered senders (Telegram, Discord) and can be filtered
// by event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quantfold/hftsim/internal/domain"
)

// Event types accepted by Notifier.Notify.
const (
	EventFill      = "fill"
	EventToxicFlow = "toxic_flow"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards messages whose event type
// is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
// Only events whose type appears in the events slice will be forwarded by
// Notify. If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders only if the event type is in
// the allowed list. If no events were configured, all events pass.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// NotifyFill formats and sends a fill alert.
func (n *Notifier) NotifyFill(ctx context.Context, fill domain.Fill) error {
	title := fmt.Sprintf("Fill: %s %s", fill.Symbol, fill.Side)
	message := fmt.Sprintf("%.4f @ %.4f (slippage %.4f%%, position %.4f)",
		fill.Size, fill.Price, fill.Slippage*100, fill.Position)
	return n.Notify(ctx, EventFill, title, message)
}

// NotifyToxicFlow formats and sends a toxic flow alert.
func (n *Notifier) NotifyToxicFlow(ctx context.Context, report domain.ToxicityReport) error {
	title := fmt.Sprintf("Toxic flow: %s", report.Symbol)
	message := fmt.Sprintf("score %.4f over %d trades (imbalance %.4f, price change %.4f%%), action: %s",
		report.Score, report.Window, report.VolumeImbalance, report.PriceChange*100, report.Action)
	return n.Notify(ctx, EventToxicFlow, title, message)
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned combined; a single sender
// failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
