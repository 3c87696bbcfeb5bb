package contactform

import (
	"context"
	"sync"

	"github.com/dalemusser/contactsection/internal/domain/models"
	"go.uber.org/zap"
)

// Notifier displays a transient message to the user. Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, ev models.NotificationEvent)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev models.NotificationEvent)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev models.NotificationEvent) {
	f(ctx, ev)
}

// Collector records events so a response can render them.
type Collector struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

// Notify records ev.
func (c *Collector) Notify(_ context.Context, ev models.NotificationEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events, oldest first.
func (c *Collector) Events() []models.NotificationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.NotificationEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Last returns the most recent event.
func (c *Collector) Last() (models.NotificationEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return models.NotificationEvent{}, false
	}
	return c.events[len(c.events)-1], true
}

// LogNotifier logs every event before passing it to next (which may be nil).
func LogNotifier(logger *zap.Logger, next Notifier) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NotifierFunc(func(ctx context.Context, ev models.NotificationEvent) {
		logger.Debug("contact notification",
			zap.String("title", ev.Title),
			zap.String("severity", string(ev.Severity)),
		)
		if next != nil {
			next.Notify(ctx, ev)
		}
	})
}
