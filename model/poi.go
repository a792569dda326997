package model

// PointOfInterest is a named location the demo tour can fly the camera to.
type PointOfInterest struct {
	ID       string
	Name     string
	Category string // e.g. "cafe", "park", "museum"

	Location Geodetic
}
