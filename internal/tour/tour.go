package tour

import (
	"context"
	"errors"
	"time"

	"github.com/geovista/orbitcam/core"
	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/model"
)

// ErrNoStops is returned when a runner is built with an empty itinerary.
var ErrNoStops = errors.New("tour has no stops")

// Runner flies the camera through a fixed itinerary of points of interest.
// At each stop it waits for the flight to arrive, lets the auto-orbit show
// the place for the dwell time, then moves on. Cancelling the context stops
// the tour after the current flight.
type Runner struct {
	ctrl  *core.OrbitController
	stops []model.PointOfInterest
	pose  model.Pose
	fly   time.Duration
	dwell time.Duration
	log   logging.Logger

	onArrive func(model.PointOfInterest)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger attaches a logger to the runner.
func WithLogger(log logging.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithArrivalHook registers a callback invoked as each stop is reached.
func WithArrivalHook(fn func(model.PointOfInterest)) Option {
	return func(r *Runner) { r.onArrive = fn }
}

// NewRunner builds a tour over stops. pose is the camera framing applied at
// every stop, fly the per-leg flight time, dwell the time spent at each stop.
func NewRunner(ctrl *core.OrbitController, stops []model.PointOfInterest, pose model.Pose, fly, dwell time.Duration, opts ...Option) (*Runner, error) {
	if len(stops) == 0 {
		return nil, ErrNoStops
	}
	if err := pose.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		ctrl:  ctrl,
		stops: stops,
		pose:  pose,
		fly:   fly,
		dwell: dwell,
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes one pass over the itinerary. It returns ctx.Err() if the tour
// is cancelled mid-way, or the first flight error.
func (r *Runner) Run(ctx context.Context) error {
	for _, stop := range r.stops {
		if err := r.visit(ctx, stop); err != nil {
			return err
		}
	}
	return nil
}

// RunForever loops the itinerary until the context is cancelled.
func (r *Runner) RunForever(ctx context.Context) error {
	for {
		if err := r.Run(ctx); err != nil {
			return err
		}
	}
}

func (r *Runner) visit(ctx context.Context, stop model.PointOfInterest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.log.Info(ctx, "tour leg started",
		logging.String("poi", stop.Name),
		logging.Float64("lat", stop.Location.LatDeg),
		logging.Float64("lon", stop.Location.LonDeg),
	)

	arrived := make(chan struct{})
	err := r.ctrl.FlyTo(stop.Location, r.pose, r.fly, func() {
		close(arrived)
	})
	if err != nil {
		return err
	}

	select {
	case <-arrived:
	case <-ctx.Done():
		return ctx.Err()
	}

	if r.onArrive != nil {
		r.onArrive(stop)
	}
	r.log.Info(ctx, "tour stop reached", logging.String("poi", stop.Name))

	if r.dwell <= 0 {
		return nil
	}
	timer := time.NewTimer(r.dwell)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
