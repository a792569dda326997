package core

import (
	"math"

	"github.com/geovista/orbitcam/model"
)

// DefaultCenterClearanceM is how far above the terrain surface an orbit
// center is placed, so the camera never targets a point below ground.
const DefaultCenterClearanceM = 25.0

// TerrainSampler reports terrain surface height (metres above the ellipsoid)
// at a horizontal coordinate.
type TerrainSampler interface {
	HeightAt(latDeg, lonDeg float64) float64
}

// FlatTerrain is a terrain of constant height. Useful as a stand-in for a
// city plane and in tests.
type FlatTerrain struct {
	HeightM float64
}

// HeightAt returns the constant height everywhere.
func (t FlatTerrain) HeightAt(latDeg, lonDeg float64) float64 { return t.HeightM }

// ProceduralTerrain models gentle deterministic relief: a base height plus
// sinusoidal hills. Good enough to exercise center clamping and ray-casting
// without real elevation data.
type ProceduralTerrain struct {
	BaseHeightM   float64
	ReliefM       float64 // hill amplitude
	WavelengthDeg float64 // angular size of one hill
}

// HeightAt evaluates the relief field at the given coordinate.
func (t ProceduralTerrain) HeightAt(latDeg, lonDeg float64) float64 {
	wl := t.WavelengthDeg
	if wl <= 0 {
		wl = 0.01
	}
	phaseLat := latDeg / wl * 2 * math.Pi
	phaseLon := lonDeg / wl * 2 * math.Pi
	return t.BaseHeightM + t.ReliefM*0.5*(math.Sin(phaseLat)+math.Cos(phaseLon))
}

// ClampAboveTerrain returns g lifted to sit clearance metres above the
// terrain surface if it is below that, and unchanged otherwise.
func ClampAboveTerrain(t TerrainSampler, g model.Geodetic, clearanceM float64) model.Geodetic {
	if t == nil {
		return g
	}
	floor := t.HeightAt(g.LatDeg, g.LonDeg) + clearanceM
	if g.HeightM < floor {
		g.HeightM = floor
	}
	return g
}
