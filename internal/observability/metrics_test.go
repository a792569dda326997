package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatheredFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestOrbitCollectorRecordsFramesAndTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewOrbitCollector(reg)
	if err != nil {
		t.Fatalf("NewOrbitCollector: %v", err)
	}

	c.ObserveFrame(16 * time.Millisecond)
	c.ObserveFrame(16 * time.Millisecond)
	c.RecordTransition("start")
	c.SetOrbitState(true, true)

	frames := gatheredFamily(t, reg, "orbitcam_frames_total")
	if frames == nil {
		t.Fatal("orbitcam_frames_total not gathered")
	}
	if got := frames.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("frames_total = %f, want 2", got)
	}

	transitions := gatheredFamily(t, reg, "orbitcam_transitions_total")
	if transitions == nil {
		t.Fatal("orbitcam_transitions_total not gathered")
	}
	m := transitions.GetMetric()[0]
	if got := m.GetLabel()[0].GetValue(); got != "start" {
		t.Fatalf("transition label = %q, want start", got)
	}
	if got := m.GetCounter().GetValue(); got != 1 {
		t.Fatalf("transitions_total = %f, want 1", got)
	}

	enabled := gatheredFamily(t, reg, "orbitcam_orbit_enabled")
	if got := enabled.GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Fatalf("orbit_enabled = %f, want 1", got)
	}
}

func TestOrbitCollectorDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewOrbitCollector(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewOrbitCollector(reg); err != nil {
		t.Fatalf("second registration should reuse collectors, got %v", err)
	}
}

func TestOrbitCollectorMiddlewareCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewOrbitCollector(reg)
	if err != nil {
		t.Fatalf("NewOrbitCollector: %v", err)
	}

	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/orbit/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	requests := gatheredFamily(t, reg, "orbitcam_admin_requests_total")
	if requests == nil {
		t.Fatal("orbitcam_admin_requests_total not gathered")
	}
	m := requests.GetMetric()[0]
	labels := map[string]string{}
	for _, l := range m.GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	if labels["method"] != http.MethodPost || labels["path"] != "/v1/orbit/start" || labels["code"] != "204" {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestOrbitCollectorMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewOrbitCollector(reg)
	if err != nil {
		t.Fatalf("NewOrbitCollector: %v", err)
	}
	c.ObserveFrame(8 * time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("/metrics body empty")
	}
}
