package core

import (
	"errors"
	"time"

	"github.com/geovista/orbitcam/model"
)

// ErrPoseRejected is returned when a camera rig refuses a pose it cannot
// assume (non-positive range, pitch beyond vertical, invalid center).
var ErrPoseRejected = errors.New("camera pose rejected")

// CameraRig is the rendering engine's camera surface as the controller sees
// it: read the current pose, set a pose instantly, or fly to a pose over
// time with a completion callback.
//
// Flight semantics: at most one flight is active. Starting a new flight, or
// setting a pose instantly, supersedes the active flight; a superseded
// flight's completion callback never fires.
type CameraRig interface {
	// Pose returns the camera's current orientation.
	Pose() model.Pose

	// Center returns the point the camera currently looks at.
	Center() model.Geodetic

	// SetPose positions the camera instantly, with no transition.
	SetPose(center model.Geodetic, pose model.Pose) error

	// FlyTo eases the camera to the target pose over the given duration,
	// invoking onComplete once the flight finishes. A non-positive
	// duration completes immediately.
	FlyTo(center model.Geodetic, pose model.Pose, duration time.Duration, onComplete func()) error

	// PickCenter ray-casts through the middle of the viewport and returns
	// the first surface point hit, or ok=false when the view misses the
	// ground entirely.
	PickCenter() (point model.Geodetic, ok bool)
}
