package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("scan_recorded")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `stn_outbox_published_total{event_type="scan_recorded"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}

func TestServeBlankAddrIsNoop(t *testing.T) {
	if err := Serve(context.Background(), "  ", nil, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
