package core

import "github.com/geovista/orbitcam/model"

// Ray-march tuning. Steps are coarse until the first sample below ground,
// then a binary search refines the hit point.
const (
	raycastStepM    = 25.0
	raycastMaxDistM = 50000.0
	raycastRefine   = 20
)

// RaycastTerrain marches a ray from a camera position along its view
// direction until it passes below the terrain surface, returning the surface
// intersection. ok is false when the ray never meets the ground within the
// maximum distance, e.g. when the camera points at open sky.
func RaycastTerrain(t TerrainSampler, camera model.Geodetic, headingRad, pitchRad float64) (model.Geodetic, bool) {
	if t == nil {
		return model.Geodetic{}, false
	}

	origin := GeodeticToECEF(camera)
	dir := ViewDirection(camera, headingRad, pitchRad)

	prev := origin
	cur := origin
	for dist := 0.0; dist < raycastMaxDistM; dist += raycastStepM {
		prev = cur
		cur = cur.Add(dir.Scale(raycastStepM))

		g := ECEFToGeodetic(cur)
		if g.HeightM <= t.HeightAt(g.LatDeg, g.LonDeg) {
			return refineHit(t, prev, cur), true
		}
	}
	return model.Geodetic{}, false
}

// refineHit binary-searches between the last above-ground sample and the
// first below-ground sample.
func refineHit(t TerrainSampler, above, below Vec3) model.Geodetic {
	for i := 0; i < raycastRefine; i++ {
		mid := above.Add(below).Scale(0.5)
		g := ECEFToGeodetic(mid)
		if g.HeightM > t.HeightAt(g.LatDeg, g.LonDeg) {
			above = mid
		} else {
			below = mid
		}
	}
	hit := ECEFToGeodetic(below)
	hit.HeightM = t.HeightAt(hit.LatDeg, hit.LonDeg)
	return hit
}
