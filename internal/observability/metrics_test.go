package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/authz"
	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
)

var _ authz.Observer = (*Metrics)(nil)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobmetrics.NewMetrics(metrics.Registerer()).Track("mail:activation").End(nil)

	body := scrape(t, metrics)
	if !strings.Contains(body, `rentdesk_jobs_total{job="mail:activation",status="success"} 1`) {
		t.Fatalf("expected body to contain rentdesk_jobs_total, got: %s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collectors, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "rentdesk_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "rentdesk_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestMetricsCountsAuthorizationDecisions(t *testing.T) {
	metrics := NewMetrics()
	engine := authz.NewEngine(authz.MustDefaultPolicy(), authz.WithObserver(metrics))

	operator := &authz.Subject{ID: "op", Features: []string{authz.ReadDevices}}
	for _, feature := range []string{authz.ReadDevices, authz.DeleteDevices, authz.DeleteDevices} {
		if _, err := engine.Can(operator, feature, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `rentdesk_authz_decisions_total{decision="allow",feature="read:devices"} 1`) {
		t.Fatalf("expected allow decision, got: %s", body)
	}
	if !strings.Contains(body, `rentdesk_authz_decisions_total{decision="deny",feature="delete:devices"} 2`) {
		t.Fatalf("expected deny decisions, got: %s", body)
	}
}

func TestNilMetricsIsInert(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveDecision(authz.ReadDevices, true)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if metrics.Middleware(next) == nil {
		t.Fatal("expected passthrough handler")
	}

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
