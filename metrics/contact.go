package metrics

import (
	"context"
	"time"

	"github.com/dalemusser/contactsection/pantry/email"
	"github.com/prometheus/client_golang/prometheus"
)

var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contact_submissions_total",
		Help: "Contact form submissions by outcome.",
	},
	[]string{"outcome"},
)

var sendDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "contact_email_send_seconds",
		Help:    "Latency of email transport calls.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
	},
	[]string{"transport", "result"},
)

// ObserveSubmission counts one finished submission. outcome is the
// lower-case outcome name ("sent", "rejected", "failed", "busy").
func ObserveSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// InstrumentSender wraps next so every SendTemplate call is timed into
// contact_email_send_seconds under the given transport label.
func InstrumentSender(transport string, next email.TemplateSender) email.TemplateSender {
	return &instrumentedSender{transport: transport, next: next, hist: sendDuration}
}

type instrumentedSender struct {
	transport string
	next      email.TemplateSender
	hist      *prometheus.HistogramVec
}

func (s *instrumentedSender) SendTemplate(ctx context.Context, req email.TemplateRequest) error {
	start := time.Now()
	err := s.next.SendTemplate(ctx, req)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.hist.WithLabelValues(s.transport, result).Observe(time.Since(start).Seconds())
	return err
}
