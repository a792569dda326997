package core

import (
	"math"
	"testing"

	"github.com/geovista/orbitcam/model"
)

func TestClampAboveTerrainLiftsLowPoints(t *testing.T) {
	terrain := FlatTerrain{HeightM: 120}

	low := model.Geodetic{LatDeg: 1, LonDeg: 2, HeightM: 50}
	got := ClampAboveTerrain(terrain, low, 25)
	if got.HeightM != 145 {
		t.Fatalf("clamped height = %f, want 145", got.HeightM)
	}

	high := model.Geodetic{LatDeg: 1, LonDeg: 2, HeightM: 500}
	if got := ClampAboveTerrain(terrain, high, 25); got.HeightM != 500 {
		t.Fatalf("high point should be untouched, got %f", got.HeightM)
	}
}

func TestClampAboveTerrainNilSampler(t *testing.T) {
	g := model.Geodetic{LatDeg: 1, LonDeg: 2, HeightM: -10}
	if got := ClampAboveTerrain(nil, g, 25); got != g {
		t.Fatalf("nil terrain should leave the point unchanged, got %+v", got)
	}
}

func TestProceduralTerrainDeterministicAndBounded(t *testing.T) {
	terrain := ProceduralTerrain{BaseHeightM: 100, ReliefM: 40, WavelengthDeg: 0.02}

	a := terrain.HeightAt(48.85, 2.29)
	b := terrain.HeightAt(48.85, 2.29)
	if a != b {
		t.Fatalf("terrain not deterministic: %f vs %f", a, b)
	}

	for lat := 48.0; lat < 49.0; lat += 0.013 {
		h := terrain.HeightAt(lat, 2.29)
		if h < 100-40 || h > 100+40 {
			t.Fatalf("terrain height %f outside base±relief at lat %f", h, lat)
		}
	}
}

func TestRaycastTerrainHitsGroundWhenLookingDown(t *testing.T) {
	terrain := FlatTerrain{HeightM: 0}
	camera := model.Geodetic{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 500}

	hit, ok := RaycastTerrain(terrain, camera, model.Radians(90), model.Radians(-45))
	if !ok {
		t.Fatal("expected a terrain hit when looking down at 45°")
	}
	if math.Abs(hit.HeightM) > 1 {
		t.Fatalf("hit height = %f, want ~0 (terrain surface)", hit.HeightM)
	}
	// At 45° down from 500m the hit should be roughly 500m east.
	if hit.LonDeg <= camera.LonDeg {
		t.Fatalf("hit should be east of the camera: %f vs %f", hit.LonDeg, camera.LonDeg)
	}
}

func TestRaycastTerrainMissesWhenLookingUp(t *testing.T) {
	terrain := FlatTerrain{HeightM: 0}
	camera := model.Geodetic{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 500}

	if _, ok := RaycastTerrain(terrain, camera, 0, model.Radians(10)); ok {
		t.Fatal("expected no hit when the camera points at open sky")
	}
}

func TestRaycastTerrainNilSampler(t *testing.T) {
	camera := model.Geodetic{LatDeg: 0, LonDeg: 0, HeightM: 100}
	if _, ok := RaycastTerrain(nil, camera, 0, -1); ok {
		t.Fatal("nil terrain must never report a hit")
	}
}
