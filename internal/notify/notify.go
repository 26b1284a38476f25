// Package notify delivers engine events to operator alert channels (Telegram,
// Discord). The Notifier plugs into the event log as a sink and forwards only
// the event types the operator subscribed to; monitoring stays outside the
// engine and can never abort an operation.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans engine events out to its senders. It implements the event
// log's Sink interface.
type Notifier struct {
	senders []Sender
	allowed map[domain.EventType]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders. Only event types in
// events are forwarded; an empty list forwards everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.EventType]bool, len(events))
	for _, e := range events {
		allowed[domain.EventType(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Deliver formats the event and sends it through every channel. Per-sender
// failures are collected; one failing channel does not block the others.
func (n *Notifier) Deliver(ctx context.Context, ev domain.Event) error {
	if len(n.allowed) > 0 && !n.allowed[ev.Type] {
		return nil
	}
	title, message := format(ev)

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "notification failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Name returns the sink identifier.
func (n *Notifier) Name() string { return "notifier" }

// format renders an event as a short alert. Fields are sorted for stable
// output.
func format(ev domain.Event) (title, message string) {
	switch ev.Type {
	case domain.EventArbitrageExecuted:
		title = "Arbitrage executed"
	case domain.EventFlashLoanExecuted:
		title = "Flash loan executed"
	case domain.EventFlashOperationStarted:
		title = "Flash operation started"
	case domain.EventOperationAborted:
		title = "Operation aborted"
	default:
		title = string(ev.Type)
	}

	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, ev.Fields[k])
	}
	fmt.Fprintf(&b, "at: %s", ev.At.Format("2006-01-02 15:04:05 MST"))
	return title, b.String()
}
