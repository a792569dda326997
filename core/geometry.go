package core

import (
	"math"

	"github.com/geovista/orbitcam/model"
)

// WGS84 ellipsoid parameters used for all geodetic conversions (metres).
const (
	wgsSemiMajorM = 6378137.0
	wgsEccSq      = 6.69437999014e-3
)

// Vec3 is an ECEF-style vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// GeodeticToECEF converts latitude/longitude/height into ECEF metres.
func GeodeticToECEF(g model.Geodetic) Vec3 {
	lat := model.Radians(g.LatDeg)
	lon := model.Radians(g.LonDeg)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := wgsSemiMajorM / math.Sqrt(1-wgsEccSq*sinLat*sinLat)
	return Vec3{
		X: (n + g.HeightM) * cosLat * cosLon,
		Y: (n + g.HeightM) * cosLat * sinLon,
		Z: (n*(1-wgsEccSq) + g.HeightM) * sinLat,
	}
}

// ECEFToGeodetic converts ECEF metres back to latitude/longitude/height
// using a short fixed-point iteration on the latitude.
func ECEFToGeodetic(v Vec3) model.Geodetic {
	lon := math.Atan2(v.Y, v.X)
	r := math.Sqrt(v.X*v.X + v.Y*v.Y)
	lat := math.Atan2(v.Z, r*(1-wgsEccSq))
	h := 0.0
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgsSemiMajorM / math.Sqrt(1-wgsEccSq*sinLat*sinLat)
		h = r/math.Cos(lat) - n
		lat = math.Atan2(v.Z, r*(1-wgsEccSq*(n/(n+h))))
	}
	return model.Geodetic{
		LatDeg:  model.Degrees(lat),
		LonDeg:  model.Degrees(lon),
		HeightM: h,
	}
}

// enuBasis returns the local east/north/up unit vectors at a location,
// expressed in ECEF.
func enuBasis(g model.Geodetic) (east, north, up Vec3) {
	lat := model.Radians(g.LatDeg)
	lon := model.Radians(g.LonDeg)
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	east = Vec3{X: -sinLon, Y: cosLon, Z: 0}
	north = Vec3{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up = Vec3{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	return east, north, up
}

// ViewDirection returns the ECEF unit vector a camera at g looks along for a
// given heading and pitch. Heading 0 points north, π/2 east; pitch 0 is the
// horizon and negative pitch looks down.
func ViewDirection(g model.Geodetic, headingRad, pitchRad float64) Vec3 {
	east, north, up := enuBasis(g)

	horiz := math.Cos(pitchRad)
	n := horiz * math.Cos(headingRad)
	e := horiz * math.Sin(headingRad)
	u := math.Sin(pitchRad)

	return north.Scale(n).Add(east.Scale(e)).Add(up.Scale(u))
}

// CameraPosition derives the camera's world position for an orbit pose: the
// camera sits range metres away from the center, opposite its view direction.
func CameraPosition(center model.Geodetic, pose model.Pose) Vec3 {
	centerECEF := GeodeticToECEF(center)
	dir := ViewDirection(center, pose.HeadingRad, pose.PitchRad)
	return centerECEF.Sub(dir.Scale(pose.RangeM))
}
