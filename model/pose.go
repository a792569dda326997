package model

import (
	"fmt"
	"math"
)

// Pose describes a camera orientation relative to the point it is looking at:
// compass heading around the vertical axis, pitch against the horizon
// (negative looks down), and range as the distance to the look-at point.
type Pose struct {
	HeadingRad float64
	PitchRad   float64
	RangeM     float64
}

// Geodetic is a position on (or above) the globe.
type Geodetic struct {
	LatDeg  float64
	LonDeg  float64
	HeightM float64
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// WrapHeading normalises a heading into [0, 2π).
func WrapHeading(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

// Validate checks a pose for values the camera rig can actually assume.
func (p Pose) Validate() error {
	if p.RangeM <= 0 {
		return fmt.Errorf("pose range must be positive, got %f", p.RangeM)
	}
	if p.PitchRad < -math.Pi/2 || p.PitchRad > math.Pi/2 {
		return fmt.Errorf("pose pitch must be within ±90°, got %f°", Degrees(p.PitchRad))
	}
	return nil
}

// Validate checks that the point is a real location on the globe.
func (g Geodetic) Validate() error {
	if g.LatDeg < -90 || g.LatDeg > 90 {
		return fmt.Errorf("latitude must be within ±90°, got %f", g.LatDeg)
	}
	if g.LonDeg < -180 || g.LonDeg > 180 {
		return fmt.Errorf("longitude must be within ±180°, got %f", g.LonDeg)
	}
	return nil
}
