package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geovista/orbitcam/model"
)

const sampleScenario = `
location:
  name: "Montmartre"
  lat: 48.8867
  lon: 2.3431
  height_m: 130

camera:
  heading_deg: 90
  pitch_deg: -30
  range_m: 600

orbit:
  enabled: true
  speed_rpm: 2.5
  profile: dynamic-orbit

frame:
  fps: 30

tour:
  dwell_seconds: 10
  fly_seconds: 2
  pois:
    - id: basilica
      name: "Sacré-Cœur"
      category: landmark
      lat: 48.8867
      lon: 2.3431
      height_m: 130
    - name: "Place du Tertre"
      category: square
      lat: 48.8865
      lon: 2.3407
      height_m: 128
`

func TestParseFullScenario(t *testing.T) {
	s, err := Parse([]byte(sampleScenario))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if s.Location.Name != "Montmartre" {
		t.Errorf("location name = %q", s.Location.Name)
	}
	loc := s.StartLocation()
	if loc.LatDeg != 48.8867 || loc.LonDeg != 2.3431 || loc.HeightM != 130 {
		t.Errorf("start location = %+v", loc)
	}

	pose := s.StartPose()
	if math.Abs(pose.HeadingRad-math.Pi/2) > 1e-9 {
		t.Errorf("heading = %f, want pi/2", pose.HeadingRad)
	}
	if math.Abs(pose.PitchRad-model.Radians(-30)) > 1e-9 {
		t.Errorf("pitch = %f", pose.PitchRad)
	}
	if pose.RangeM != 600 {
		t.Errorf("range = %f", pose.RangeM)
	}

	if !s.Orbit.Enabled {
		t.Error("orbit should be enabled")
	}
	if s.Orbit.SpeedRPM != 2.5 {
		t.Errorf("speed = %f", s.Orbit.SpeedRPM)
	}
	if s.Profile() != model.DynamicOrbit {
		t.Errorf("profile = %v", s.Profile())
	}
	if s.Frame.FPS != 30 {
		t.Errorf("fps = %d", s.Frame.FPS)
	}

	if got := s.Dwell(); got != 10*time.Second {
		t.Errorf("dwell = %v", got)
	}
	if got := s.FlyDuration(); got != 2*time.Second {
		t.Errorf("fly = %v", got)
	}

	pois := s.POIs()
	if len(pois) != 2 {
		t.Fatalf("pois = %d, want 2", len(pois))
	}
	if pois[0].ID != "basilica" {
		t.Errorf("first poi id = %q", pois[0].ID)
	}
	if pois[1].ID != "poi-2" {
		t.Errorf("generated id = %q, want poi-2", pois[1].ID)
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(`
location:
  lat: 48.85
  lon: 2.35
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if s.Orbit.SpeedRPM != DefaultSpeedRPM {
		t.Errorf("speed = %f, want default %f", s.Orbit.SpeedRPM, DefaultSpeedRPM)
	}
	if s.Profile() != model.FixedOrbit {
		t.Errorf("default profile = %v, want fixed", s.Profile())
	}
	if s.Frame.FPS != DefaultFPS {
		t.Errorf("fps = %d, want %d", s.Frame.FPS, DefaultFPS)
	}
	if s.Camera.RangeM != DefaultRangeM {
		t.Errorf("range = %f", s.Camera.RangeM)
	}
	if s.Camera.PitchDeg != DefaultPitchDeg {
		t.Errorf("pitch = %f", s.Camera.PitchDeg)
	}
	if s.Dwell() != 20*time.Second {
		t.Errorf("dwell = %v", s.Dwell())
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad latitude", "location:\n  lat: 120\n  lon: 0\n", "location"},
		{"negative speed", "location:\n  lat: 0\n  lon: 0\norbit:\n  speed_rpm: -1\n", "speed_rpm"},
		{"unknown profile", "location:\n  lat: 0\n  lon: 0\norbit:\n  profile: spiral\n", "profile"},
		{"negative fps", "location:\n  lat: 0\n  lon: 0\nframe:\n  fps: -5\n", "fps"},
		{"bad poi", "location:\n  lat: 0\n  lon: 0\ntour:\n  pois:\n    - name: x\n      lat: 99\n      lon: 500\n", "poi"},
		{"not yaml", ": : :\n", "parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(sampleScenario), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Location.Name != "Montmartre" {
		t.Errorf("location name = %q", s.Location.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
