package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geovista/orbitcam/core"
	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/model"
)

// ErrInvalidRequest is a package-level sentinel used for client-side
// validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Server exposes the orbit controller over a small JSON API, the surface the
// demo's admin page drives.
type Server struct {
	ctrl       *core.OrbitController
	log        logging.Logger
	middleware []func(http.Handler) http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger to the server.
func WithLogger(log logging.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMiddleware wraps every request in mw, outermost first.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.middleware = append(s.middleware, mw...) }
}

// NewServer builds an admin server around a controller.
func NewServer(ctrl *core.OrbitController, opts ...Option) *Server {
	s := &Server{ctrl: ctrl, log: logging.Noop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler, with request-ID annotation applied
// to every request.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("PUT /v1/orbit", s.handleUpdateOrbit)
	mux.HandleFunc("POST /v1/orbit/start", s.handleStart)
	mux.HandleFunc("POST /v1/orbit/stop", s.handleStop)
	mux.HandleFunc("PUT /v1/orbit/target", s.handleSetTarget)
	mux.HandleFunc("DELETE /v1/orbit/target", s.handleClearTarget)
	mux.HandleFunc("POST /v1/camera/flyto", s.handleFlyTo)
	mux.HandleFunc("POST /v1/camera/interaction", s.handleInteraction)

	var h http.Handler = s.requestID(mux)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		h = s.middleware[i](h)
	}
	return h
}

// requestID ensures a request_id is present on the context, sourcing it from
// the X-Request-Id header if provided, and attaches a per-request logger
// annotated with request_id, method, and path.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get("X-Request-Id"); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, _ = logging.WithRequestLogger(ctx, s.log.With(
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		))
		w.Header().Set("X-Request-Id", logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusResponse struct {
	Enabled   bool         `json:"enabled"`
	Running   bool         `json:"running"`
	Suspended bool         `json:"suspended"`
	SpeedRPM  float64      `json:"speed_rpm"`
	Profile   string       `json:"profile"`
	Center    locationBody `json:"center"`
	Pose      poseBody     `json:"pose"`
}

type locationBody struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	HeightM float64 `json:"height_m"`
}

type poseBody struct {
	HeadingDeg float64 `json:"heading_deg"`
	PitchDeg   float64 `json:"pitch_deg"`
	RangeM     float64 `json:"range_m"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Enabled:   st.Enabled,
		Running:   st.Running,
		Suspended: st.Suspended,
		SpeedRPM:  st.Settings.SpeedRPM,
		Profile:   st.Settings.Profile.String(),
		Center: locationBody{
			Lat:     st.Center.LatDeg,
			Lon:     st.Center.LonDeg,
			HeightM: st.Center.HeightM,
		},
		Pose: poseBody{
			HeadingDeg: model.Degrees(st.Pose.HeadingRad),
			PitchDeg:   model.Degrees(st.Pose.PitchRad),
			RangeM:     st.Pose.RangeM,
		},
	})
}

type updateOrbitRequest struct {
	SpeedRPM *float64 `json:"speed_rpm,omitempty"`
	Profile  *string  `json:"profile,omitempty"`
}

func (s *Server) handleUpdateOrbit(w http.ResponseWriter, r *http.Request) {
	var req updateOrbitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.SpeedRPM == nil && req.Profile == nil {
		s.writeError(w, r, fmt.Errorf("%w: no fields to update", ErrInvalidRequest))
		return
	}
	if req.Profile != nil {
		p, err := model.ParseProfile(*req.Profile)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
		s.ctrl.SetProfile(p)
	}
	if req.SpeedRPM != nil {
		if err := s.ctrl.SetSpeed(*req.SpeedRPM); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.handleStatus(w, r)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Start()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req locationBody
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target := model.Geodetic{LatDeg: req.Lat, LonDeg: req.Lon, HeightM: req.HeightM}
	if err := target.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if err := s.ctrl.SetTarget(target); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTarget(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ClearTarget()
	w.WriteHeader(http.StatusNoContent)
}

type flyToRequest struct {
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	HeightM         float64 `json:"height_m"`
	HeadingDeg      float64 `json:"heading_deg"`
	PitchDeg        float64 `json:"pitch_deg"`
	RangeM          float64 `json:"range_m"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (s *Server) handleFlyTo(w http.ResponseWriter, r *http.Request) {
	var req flyToRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	center := model.Geodetic{LatDeg: req.Lat, LonDeg: req.Lon, HeightM: req.HeightM}
	pose := model.Pose{
		HeadingRad: model.Radians(req.HeadingDeg),
		PitchRad:   model.Radians(req.PitchDeg),
		RangeM:     req.RangeM,
	}
	if err := center.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if err := pose.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	duration := time.Duration(req.DurationSeconds * float64(time.Second))
	if err := s.ctrl.FlyTo(center, pose, duration, nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type interactionRequest struct {
	Phase string `json:"phase"` // begin | end
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	switch req.Phase {
	case "begin":
		s.ctrl.OnManualInteractionBegin()
	case "end":
		s.ctrl.OnManualInteractionEnd()
	default:
		s.writeError(w, r, fmt.Errorf("%w: unknown interaction phase %q", ErrInvalidRequest, req.Phase))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps controller errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := toStatusCode(err)
	if code >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "admin request failed", logging.Any("error", err))
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func toStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrInvalidSpeed):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrPoseRejected):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the admin API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
