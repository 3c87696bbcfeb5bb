package contactform

import (
	"context"
	"testing"

	"github.com/dalemusser/contactsection/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector_EventsAndLast(t *testing.T) {
	c := &Collector{}
	_, ok := c.Last()
	assert.False(t, ok)

	c.Notify(context.Background(), models.NotificationEvent{Title: "first"})
	c.Notify(context.Background(), models.NotificationEvent{Title: "second"})

	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "second", last.Title)

	events := c.Events()
	assert.Len(t, events, 2)
	events[0].Title = "mutated"
	assert.Equal(t, "first", c.Events()[0].Title, "Events returns a copy")
}

func TestLogNotifier_LogsAndForwards(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := &Collector{}
	n := LogNotifier(zap.New(core), c)

	n.Notify(context.Background(), models.NotificationEvent{Title: "Message sent!", Severity: models.SeverityInfo})

	assert.Len(t, c.Events(), 1)
	entries := logs.FilterMessage("contact notification").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "Message sent!", entries[0].ContextMap()["title"])
	}
}

func TestLogNotifier_NilNextAndLogger(t *testing.T) {
	var got []string
	fn := NotifierFunc(func(_ context.Context, ev models.NotificationEvent) { got = append(got, ev.Title) })

	LogNotifier(nil, nil).Notify(context.Background(), models.NotificationEvent{Title: "dropped"})
	LogNotifier(nil, fn).Notify(context.Background(), models.NotificationEvent{Title: "kept"})

	assert.Equal(t, []string{"kept"}, got)
}
