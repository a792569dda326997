package model

import "fmt"

// Profile names a motion pattern governing how pitch and range vary while
// the camera orbits its target.
type Profile int

const (
	// FixedOrbit keeps pitch and range constant; only heading advances,
	// producing a level circular orbit.
	FixedOrbit Profile = iota
	// DynamicOrbit varies pitch and range sinusoidally with the orbit
	// angle, pulling back as the camera swings up and approaching as it
	// dips.
	DynamicOrbit
)

func (p Profile) String() string {
	switch p {
	case FixedOrbit:
		return "fixed-orbit"
	case DynamicOrbit:
		return "dynamic-orbit"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// ParseProfile maps a configuration value onto a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "fixed-orbit", "fixed":
		return FixedOrbit, nil
	case "dynamic-orbit", "dynamic":
		return DynamicOrbit, nil
	default:
		return FixedOrbit, fmt.Errorf("unknown orbit profile %q", s)
	}
}
