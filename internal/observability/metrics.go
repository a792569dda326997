package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrbitCollector bundles Prometheus metrics for the camera engine and
// provides helpers to wire them into HTTP handlers. It satisfies the
// controller's MetricsRecorder so frame and transition telemetry flows
// straight from the orbit loop.
type OrbitCollector struct {
	gatherer prometheus.Gatherer

	FramesTotal   prometheus.Counter
	FrameDuration prometheus.Histogram
	Transitions   *prometheus.CounterVec

	OrbitEnabled prometheus.Gauge
	OrbitRunning prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewOrbitCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewOrbitCollector(reg prometheus.Registerer) (*OrbitCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orbitcam_frames_total",
		Help: "Total number of orbit animation frames applied to the camera.",
	}), "orbitcam_frames_total")
	if err != nil {
		return nil, err
	}

	frameDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orbitcam_frame_interval_seconds",
		Help:    "Elapsed time between consecutive orbit frames.",
		Buckets: []float64{0.004, 0.008, 0.016, 0.033, 0.066, 0.1, 0.25, 0.5, 1},
	})
	frameDur, err = registerHistogram(reg, frameDur, "orbitcam_frame_interval_seconds")
	if err != nil {
		return nil, err
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitcam_transitions_total",
		Help: "Orbit state transitions, labeled by reason (start, stop, suspend, resume, profile-switch, target-change, fly-to, pose-error).",
	}, []string{"reason"})
	transitions, err = registerCounterVec(reg, transitions, "orbitcam_transitions_total")
	if err != nil {
		return nil, err
	}

	enabled, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitcam_orbit_enabled",
		Help: "Whether auto-orbit is enabled (1) or disabled (0).",
	}), "orbitcam_orbit_enabled")
	if err != nil {
		return nil, err
	}
	running, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orbitcam_orbit_running",
		Help: "Whether an orbit animation loop is currently scheduled (1) or not (0).",
	}), "orbitcam_orbit_running")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orbitcam_admin_requests_total",
		Help: "Total number of handled admin API requests, labeled by method, path, and status code.",
	}, []string{"method", "path", "code"})
	requests, err = registerCounterVec(reg, requests, "orbitcam_admin_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orbitcam_admin_request_duration_seconds",
		Help:    "Admin API request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "path"})
	durations, err = registerHistogramVec(reg, durations, "orbitcam_admin_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &OrbitCollector{
		gatherer:      gatherer,
		FramesTotal:   frames,
		FrameDuration: frameDur,
		Transitions:   transitions,
		OrbitEnabled:  enabled,
		OrbitRunning:  running,
		HTTPRequests:  requests,
		HTTPDurations: durations,
	}, nil
}

// ObserveFrame records one applied orbit frame. Satisfies the controller's
// MetricsRecorder.
func (c *OrbitCollector) ObserveFrame(elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.FramesTotal != nil {
		c.FramesTotal.Inc()
	}
	if c.FrameDuration != nil {
		c.FrameDuration.Observe(elapsed.Seconds())
	}
}

// RecordTransition counts an orbit state transition by reason.
func (c *OrbitCollector) RecordTransition(reason string) {
	if c == nil || c.Transitions == nil {
		return
	}
	c.Transitions.WithLabelValues(reason).Inc()
}

// SetOrbitState mirrors the controller's enabled/running state into gauges.
func (c *OrbitCollector) SetOrbitState(enabled, running bool) {
	if c == nil {
		return
	}
	if c.OrbitEnabled != nil {
		c.OrbitEnabled.Set(boolToGauge(enabled))
	}
	if c.OrbitRunning != nil {
		c.OrbitRunning.Set(boolToGauge(running))
	}
}

// Middleware records request counts and durations for admin API handlers.
func (c *OrbitCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if c == nil {
			return
		}
		path := r.URL.Path
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *OrbitCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
