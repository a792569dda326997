package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/model"
)

// SimRig is a headless camera rig over a terrain model. It holds the camera
// pose directly and animates fly-to transitions with cubic ease-in-out,
// stepped once per frame by the host's frame scheduler.
type SimRig struct {
	terrain TerrainSampler
	log     logging.Logger

	mu     sync.Mutex
	center model.Geodetic
	pose   model.Pose
	flight *flight
}

// flight is an in-progress eased transition between two camera states.
type flight struct {
	fromCenter, toCenter model.Geodetic
	fromPose, toPose     model.Pose
	startedAt            time.Time
	duration             time.Duration
	onComplete           func()
}

// SimRigOption configures a SimRig.
type SimRigOption func(*SimRig)

// WithRigLogger sets the rig's logger.
func WithRigLogger(log logging.Logger) SimRigOption {
	return func(r *SimRig) { r.log = log }
}

// NewSimRig constructs a rig looking at center with the given pose.
func NewSimRig(terrain TerrainSampler, center model.Geodetic, pose model.Pose, opts ...SimRigOption) (*SimRig, error) {
	if err := pose.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}

	r := &SimRig{
		terrain: terrain,
		log:     logging.Noop(),
		center:  center,
		pose:    pose,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Pose returns the current camera orientation.
func (r *SimRig) Pose() model.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

// Center returns the point the camera looks at.
func (r *SimRig) Center() model.Geodetic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.center
}

// InFlight reports whether an eased transition is active.
func (r *SimRig) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flight != nil
}

// SetPose positions the camera instantly. Any active flight is superseded
// and its completion callback dropped.
func (r *SimRig) SetPose(center model.Geodetic, pose model.Pose) error {
	if err := pose.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}
	if err := center.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}

	r.mu.Lock()
	r.flight = nil
	r.center = center
	r.pose = pose
	r.mu.Unlock()
	return nil
}

// FlyTo starts an eased transition toward the target camera state. An active
// flight is superseded; its callback never fires. A non-positive duration
// applies the pose immediately and invokes onComplete synchronously.
func (r *SimRig) FlyTo(center model.Geodetic, pose model.Pose, duration time.Duration, onComplete func()) error {
	if err := pose.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}
	if err := center.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoseRejected, err)
	}

	if duration <= 0 {
		r.mu.Lock()
		r.flight = nil
		r.center = center
		r.pose = pose
		r.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return nil
	}

	r.mu.Lock()
	r.flight = &flight{
		fromCenter: r.center,
		toCenter:   center,
		fromPose:   r.pose,
		toPose:     pose,
		duration:   duration,
		onComplete: onComplete,
	}
	r.mu.Unlock()
	return nil
}

// PickCenter ray-casts from the camera's world position along its view
// direction against the terrain.
func (r *SimRig) PickCenter() (model.Geodetic, bool) {
	r.mu.Lock()
	center := r.center
	pose := r.pose
	r.mu.Unlock()

	cameraECEF := CameraPosition(center, pose)
	camera := ECEFToGeodetic(cameraECEF)
	return RaycastTerrain(r.terrain, camera, pose.HeadingRad, pose.PitchRad)
}

// Step advances the active flight to the given frame time. The first frame
// after FlyTo anchors the flight's start time. Intended to be registered
// with the frame scheduler for the lifetime of the rig.
func (r *SimRig) Step(now time.Time) {
	r.mu.Lock()
	f := r.flight
	if f == nil {
		r.mu.Unlock()
		return
	}

	if f.startedAt.IsZero() {
		f.startedAt = now
	}

	t := float64(now.Sub(f.startedAt)) / float64(f.duration)
	if t >= 1 {
		r.center = f.toCenter
		r.pose = f.toPose
		r.flight = nil
		done := f.onComplete
		r.mu.Unlock()

		r.log.Debug(context.Background(), "flight complete",
			logging.Float64("lat", f.toCenter.LatDeg),
			logging.Float64("lon", f.toCenter.LonDeg),
		)
		if done != nil {
			done()
		}
		return
	}

	e := easeInOutCubic(t)
	r.center = lerpGeodetic(f.fromCenter, f.toCenter, e)
	r.pose = model.Pose{
		HeadingRad: lerpHeading(f.fromPose.HeadingRad, f.toPose.HeadingRad, e),
		PitchRad:   lerp(f.fromPose.PitchRad, f.toPose.PitchRad, e),
		RangeM:     lerp(f.fromPose.RangeM, f.toPose.RangeM, e),
	}
	r.mu.Unlock()
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// lerpHeading interpolates along the shorter arc between two headings.
func lerpHeading(a, b, t float64) float64 {
	diff := math.Mod(b-a, 2*math.Pi)
	if diff > math.Pi {
		diff -= 2 * math.Pi
	} else if diff < -math.Pi {
		diff += 2 * math.Pi
	}
	return model.WrapHeading(a + diff*t)
}

// lerpGeodetic interpolates positions componentwise, taking the shorter way
// around the antimeridian for longitude.
func lerpGeodetic(a, b model.Geodetic, t float64) model.Geodetic {
	dLon := b.LonDeg - a.LonDeg
	if dLon > 180 {
		dLon -= 360
	} else if dLon < -180 {
		dLon += 360
	}
	lon := a.LonDeg + dLon*t
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return model.Geodetic{
		LatDeg:  lerp(a.LatDeg, b.LatDeg, t),
		LonDeg:  lon,
		HeightM: lerp(a.HeightM, b.HeightM, t),
	}
}
