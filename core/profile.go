package core

import (
	"math"

	"github.com/geovista/orbitcam/model"
)

// Dynamic-orbit modulation constants. The pitch swings ±10° around its
// anchor while the range breathes by up to 55% of its anchor, out of phase,
// so the camera pulls back as it swings up and approaches as it dips.
const (
	DynamicPitchAmplitudeRad = 10.0 * math.Pi / 180.0
	DynamicRangeAmplitude    = 0.55
)

// MotionProfile maps an accumulated orbit angle to the pitch and range the
// camera should hold at that point of the revolution. Implementations are
// pure: no side effects, no internal state.
type MotionProfile interface {
	Evaluate(anchorPitchRad, anchorRangeM, headingDelta float64) (pitchRad, rangeM float64)
}

// FixedOrbitProfile holds pitch and range at their anchors; only heading
// advances, producing a level circular orbit.
type FixedOrbitProfile struct{}

// Evaluate for a fixed orbit returns the anchors unchanged.
func (FixedOrbitProfile) Evaluate(anchorPitchRad, anchorRangeM, headingDelta float64) (float64, float64) {
	return anchorPitchRad, anchorRangeM
}

// DynamicOrbitProfile modulates pitch and range sinusoidally with the orbit
// angle. At headingDelta 0 it returns the anchors exactly, so switching into
// orbit never causes a pose discontinuity.
type DynamicOrbitProfile struct {
	PitchAmplitudeRad float64
	RangeAmplitude    float64 // relative to the anchor range
}

// Evaluate applies the sinusoidal offsets.
func (p DynamicOrbitProfile) Evaluate(anchorPitchRad, anchorRangeM, headingDelta float64) (float64, float64) {
	s := math.Sin(headingDelta)
	pitch := anchorPitchRad + p.PitchAmplitudeRad*s
	rng := anchorRangeM - p.RangeAmplitude*anchorRangeM*s
	return pitch, rng
}

// NewMotionProfile chooses the evaluator for a configured profile.
func NewMotionProfile(p model.Profile) MotionProfile {
	if p == model.DynamicOrbit {
		return DynamicOrbitProfile{
			PitchAmplitudeRad: DynamicPitchAmplitudeRad,
			RangeAmplitude:    DynamicRangeAmplitude,
		}
	}
	return FixedOrbitProfile{}
}
