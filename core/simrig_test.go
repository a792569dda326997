package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/geovista/orbitcam/model"
)

func testRigState() (model.Geodetic, model.Pose) {
	center := model.Geodetic{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 60}
	pose := model.Pose{HeadingRad: 0, PitchRad: model.Radians(-30), RangeM: 1000}
	return center, pose
}

func TestSimRigRejectsInvalidPose(t *testing.T) {
	center, pose := testRigState()

	if _, err := NewSimRig(FlatTerrain{}, center, model.Pose{RangeM: -1}); !errors.Is(err, ErrPoseRejected) {
		t.Fatalf("expected ErrPoseRejected for negative range, got %v", err)
	}

	rig, err := NewSimRig(FlatTerrain{}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}
	bad := model.Pose{HeadingRad: 0, PitchRad: model.Radians(-120), RangeM: 100}
	if err := rig.SetPose(center, bad); !errors.Is(err, ErrPoseRejected) {
		t.Fatalf("expected ErrPoseRejected for pitch below vertical, got %v", err)
	}
}

func TestSimRigFlightInterpolatesAndCompletes(t *testing.T) {
	center, pose := testRigState()
	rig, err := NewSimRig(FlatTerrain{}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	dest := model.Geodetic{LatDeg: 40.7128, LonDeg: -74.0060, HeightM: 100}
	destPose := model.Pose{HeadingRad: model.Radians(90), PitchRad: model.Radians(-45), RangeM: 500}

	completed := false
	if err := rig.FlyTo(dest, destPose, 2*time.Second, func() { completed = true }); err != nil {
		t.Fatalf("FlyTo: %v", err)
	}
	if !rig.InFlight() {
		t.Fatal("rig should report an active flight")
	}

	start := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	rig.Step(start) // anchors flight start

	// Halfway: cubic ease-in-out is exactly 0.5 at t=0.5.
	rig.Step(start.Add(time.Second))
	midPose := rig.Pose()
	wantRange := (pose.RangeM + destPose.RangeM) / 2
	if math.Abs(midPose.RangeM-wantRange) > 1e-6 {
		t.Fatalf("mid-flight range = %f, want %f", midPose.RangeM, wantRange)
	}
	if completed {
		t.Fatal("completion callback fired before the flight finished")
	}

	rig.Step(start.Add(2 * time.Second))
	if !completed {
		t.Fatal("completion callback should fire when the flight lands")
	}
	if rig.InFlight() {
		t.Fatal("flight should be cleared after landing")
	}

	got := rig.Center()
	if got.LatDeg != dest.LatDeg || got.LonDeg != dest.LonDeg || got.HeightM != dest.HeightM {
		t.Fatalf("final center = %+v, want %+v", got, dest)
	}
	if rig.Pose() != destPose {
		t.Fatalf("final pose = %+v, want %+v", rig.Pose(), destPose)
	}
}

func TestSimRigSetPoseSupersedesFlight(t *testing.T) {
	center, pose := testRigState()
	rig, err := NewSimRig(FlatTerrain{}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	fired := false
	dest := model.Geodetic{LatDeg: 10, LonDeg: 10, HeightM: 100}
	if err := rig.FlyTo(dest, pose, time.Second, func() { fired = true }); err != nil {
		t.Fatalf("FlyTo: %v", err)
	}

	if err := rig.SetPose(center, pose); err != nil {
		t.Fatalf("SetPose: %v", err)
	}
	if rig.InFlight() {
		t.Fatal("instant pose set should cancel the flight")
	}

	rig.Step(time.Now().Add(time.Hour))
	if fired {
		t.Fatal("superseded flight callback must never fire")
	}
}

func TestSimRigNewFlightSupersedesOld(t *testing.T) {
	center, pose := testRigState()
	rig, err := NewSimRig(FlatTerrain{}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	firstFired := false
	secondFired := false
	destA := model.Geodetic{LatDeg: 10, LonDeg: 10, HeightM: 100}
	destB := model.Geodetic{LatDeg: 20, LonDeg: 20, HeightM: 100}

	if err := rig.FlyTo(destA, pose, time.Second, func() { firstFired = true }); err != nil {
		t.Fatalf("FlyTo A: %v", err)
	}
	if err := rig.FlyTo(destB, pose, time.Second, func() { secondFired = true }); err != nil {
		t.Fatalf("FlyTo B: %v", err)
	}

	start := time.Now()
	rig.Step(start)
	rig.Step(start.Add(2 * time.Second))

	if firstFired {
		t.Fatal("superseded flight callback fired")
	}
	if !secondFired {
		t.Fatal("replacing flight should complete normally")
	}
	if got := rig.Center(); got.LatDeg != destB.LatDeg {
		t.Fatalf("rig landed at %+v, want destination B", got)
	}
}

func TestSimRigZeroDurationFlightCompletesImmediately(t *testing.T) {
	center, pose := testRigState()
	rig, err := NewSimRig(FlatTerrain{}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	dest := model.Geodetic{LatDeg: 1, LonDeg: 1, HeightM: 100}
	completed := false
	if err := rig.FlyTo(dest, pose, 0, func() { completed = true }); err != nil {
		t.Fatalf("FlyTo: %v", err)
	}

	if !completed {
		t.Fatal("zero-duration flight should complete synchronously")
	}
	if rig.InFlight() {
		t.Fatal("no flight should remain active")
	}
	if got := rig.Center(); got.LatDeg != dest.LatDeg {
		t.Fatalf("center = %+v, want %+v", got, dest)
	}
}

func TestSimRigPickCenterLookingDown(t *testing.T) {
	terrain := FlatTerrain{HeightM: 35}
	center := model.Geodetic{LatDeg: 48.8584, LonDeg: 2.2945, HeightM: 60}
	pose := model.Pose{HeadingRad: 0, PitchRad: model.Radians(-45), RangeM: 800}

	rig, err := NewSimRig(terrain, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	hit, ok := rig.PickCenter()
	if !ok {
		t.Fatal("expected a pick hit while looking down at terrain")
	}
	if math.Abs(hit.HeightM-35) > 1 {
		t.Fatalf("pick height = %f, want terrain surface 35", hit.HeightM)
	}
	// The hit should be near the look-at point, within the distance the
	// ray continues past the center to reach the ground.
	if math.Abs(hit.LatDeg-center.LatDeg) > 0.05 || math.Abs(hit.LonDeg-center.LonDeg) > 0.05 {
		t.Fatalf("pick point %+v far from look-at center %+v", hit, center)
	}
}

func TestSimRigPickCenterMissesSky(t *testing.T) {
	// Short range keeps the derived camera position above the surface
	// while the view points upward.
	center, _ := testRigState()
	pose := model.Pose{HeadingRad: 0, PitchRad: model.Radians(20), RangeM: 100}

	rig, err := NewSimRig(FlatTerrain{HeightM: 0}, center, pose)
	if err != nil {
		t.Fatalf("NewSimRig: %v", err)
	}

	if _, ok := rig.PickCenter(); ok {
		t.Fatal("expected no pick hit while looking upward")
	}
}
