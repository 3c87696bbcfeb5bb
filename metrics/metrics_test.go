package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/contactsection/pantry/email"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusLabel(t *testing.T) {
	for code, want := range map[int]string{0: "200", 201: "201", 422: "422", 42: "500", 700: "500"} {
		if got := statusLabel(code); got != want {
			t.Errorf("statusLabel(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	ObserveSubmission("sent")
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "contact_submissions_total" {
			found = true
		}
	}
	if !found {
		t.Error("contact_submissions_total not gathered")
	}
}

func TestRouteLabel_UsesPattern(t *testing.T) {
	r := chi.NewRouter()
	var label string
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			label = routeLabel(req)
		})
	})
	r.Get("/contact/{section}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contact/form", nil))
	if label != "/contact/{section}" {
		t.Errorf("label = %q, want route pattern", label)
	}
}

func TestRouteLabel_Unmatched(t *testing.T) {
	r := chi.NewRouter()
	var label string
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			label = routeLabel(req)
		})
	})
	r.Get("/contact", func(w http.ResponseWriter, req *http.Request) {})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", 400), nil))
	if label != unmatchedRoute {
		t.Errorf("label = %q, want %q", label, unmatchedRoute)
	}
}

func TestObserveSubmission(t *testing.T) {
	before := testutil.ToFloat64(submissions.WithLabelValues("sent"))
	ObserveSubmission("sent")
	if got := testutil.ToFloat64(submissions.WithLabelValues("sent")); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestInstrumentSender(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	inner := email.TemplateSenderFunc(func(ctx context.Context, req email.TemplateRequest) error {
		calls++
		if req.TemplateID == "bad" {
			return boom
		}
		return nil
	})
	s := InstrumentSender("test", inner)

	if err := s.SendTemplate(context.Background(), email.TemplateRequest{TemplateID: "good"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SendTemplate(context.Background(), email.TemplateRequest{TemplateID: "bad"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if got := testutil.CollectAndCount(sendDuration); got < 2 {
		t.Errorf("series count = %d, want at least 2 (ok and error)", got)
	}
}

func TestHTTPMetrics_DefaultsStatus(t *testing.T) {
	h := HTTPMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := testutil.CollectAndCount(reqDuration); got < 1 {
		t.Errorf("series count = %d, want at least 1", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
