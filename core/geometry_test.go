package core

import (
	"math"
	"testing"

	"github.com/geovista/orbitcam/model"
)

func TestGeodeticECEFRoundTrip(t *testing.T) {
	cases := []model.Geodetic{
		{LatDeg: 0, LonDeg: 0, HeightM: 0},
		{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 324},
		{LatDeg: -33.8568, LonDeg: 151.2153, HeightM: 88},
		{LatDeg: 64.15, LonDeg: -21.95, HeightM: 10},
	}

	for _, g := range cases {
		back := ECEFToGeodetic(GeodeticToECEF(g))
		if math.Abs(back.LatDeg-g.LatDeg) > 1e-6 {
			t.Errorf("lat round trip for %+v: got %f", g, back.LatDeg)
		}
		if math.Abs(back.LonDeg-g.LonDeg) > 1e-6 {
			t.Errorf("lon round trip for %+v: got %f", g, back.LonDeg)
		}
		if math.Abs(back.HeightM-g.HeightM) > 0.01 {
			t.Errorf("height round trip for %+v: got %f", g, back.HeightM)
		}
	}
}

func TestViewDirectionCardinalHeadings(t *testing.T) {
	g := model.Geodetic{LatDeg: 45, LonDeg: 9, HeightM: 0}

	// Level view north vs east should be orthogonal unit vectors.
	north := ViewDirection(g, 0, 0)
	east := ViewDirection(g, math.Pi/2, 0)

	if math.Abs(north.Norm()-1) > 1e-9 || math.Abs(east.Norm()-1) > 1e-9 {
		t.Fatalf("view directions not unit length: %f, %f", north.Norm(), east.Norm())
	}
	if dot := north.Dot(east); math.Abs(dot) > 1e-9 {
		t.Fatalf("north and east views not orthogonal, dot=%f", dot)
	}
}

func TestViewDirectionStraightDownOpposesUp(t *testing.T) {
	g := model.Geodetic{LatDeg: 10, LonDeg: 20, HeightM: 100}

	down := ViewDirection(g, 0.7, -math.Pi/2)
	_, _, up := enuBasis(g)

	if dot := down.Dot(up); math.Abs(dot+1) > 1e-9 {
		t.Fatalf("straight-down view should oppose local up, dot=%f", dot)
	}
}

func TestCameraPositionSitsAtRangeFromCenter(t *testing.T) {
	center := model.Geodetic{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 60}
	pose := model.Pose{HeadingRad: model.Radians(30), PitchRad: model.Radians(-35), RangeM: 1200}

	cam := CameraPosition(center, pose)
	dist := cam.DistanceTo(GeodeticToECEF(center))
	if math.Abs(dist-pose.RangeM) > 1e-6 {
		t.Fatalf("camera distance from center = %f, want %f", dist, pose.RangeM)
	}

	// Negative pitch means looking down: the camera must sit above the
	// center point.
	camGeo := ECEFToGeodetic(cam)
	if camGeo.HeightM <= center.HeightM {
		t.Fatalf("camera height %f should exceed center height %f", camGeo.HeightM, center.HeightM)
	}
}
