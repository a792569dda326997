package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geovista/orbitcam/model"
)

// Scenario is the on-disk configuration for a camera session: where the
// demo starts, how the camera sits, how the auto-orbit behaves, and which
// points of interest the tour visits.
type Scenario struct {
	Location LocationConfig `yaml:"location"`
	Camera   CameraConfig   `yaml:"camera"`
	Orbit    OrbitConfig    `yaml:"orbit"`
	Frame    FrameConfig    `yaml:"frame"`
	Tour     TourConfig     `yaml:"tour"`
}

// LocationConfig is the neighbourhood the session opens on.
type LocationConfig struct {
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	HeightM float64 `yaml:"height_m"`
}

// CameraConfig is the starting camera pose relative to the location.
type CameraConfig struct {
	HeadingDeg float64 `yaml:"heading_deg"`
	PitchDeg   float64 `yaml:"pitch_deg"`
	RangeM     float64 `yaml:"range_m"`
}

// OrbitConfig tunes the auto-orbit.
type OrbitConfig struct {
	Enabled  bool    `yaml:"enabled"`
	SpeedRPM float64 `yaml:"speed_rpm"`
	Profile  string  `yaml:"profile"` // fixed-orbit | dynamic-orbit
}

// FrameConfig tunes the animation loop.
type FrameConfig struct {
	FPS int `yaml:"fps"`
}

// TourConfig describes the POI tour.
type TourConfig struct {
	DwellSeconds float64     `yaml:"dwell_seconds"`
	FlySeconds   float64     `yaml:"fly_seconds"`
	POIs         []POIConfig `yaml:"pois"`
}

// POIConfig is one tour destination.
type POIConfig struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	HeightM  float64 `yaml:"height_m"`
}

// Defaults applied on load when fields are unset.
const (
	DefaultSpeedRPM     = 1.0
	DefaultFPS          = 60
	DefaultDwellSeconds = 20.0
	DefaultFlySeconds   = 3.0
	DefaultRangeM       = 800.0
	DefaultPitchDeg     = -45.0
)

// Load reads, defaults, and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes scenario YAML, applies defaults, and validates.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Orbit.SpeedRPM == 0 {
		s.Orbit.SpeedRPM = DefaultSpeedRPM
	}
	if s.Orbit.Profile == "" {
		s.Orbit.Profile = model.FixedOrbit.String()
	}
	if s.Frame.FPS == 0 {
		s.Frame.FPS = DefaultFPS
	}
	if s.Camera.RangeM == 0 {
		s.Camera.RangeM = DefaultRangeM
	}
	if s.Camera.PitchDeg == 0 {
		s.Camera.PitchDeg = DefaultPitchDeg
	}
	if s.Tour.DwellSeconds == 0 {
		s.Tour.DwellSeconds = DefaultDwellSeconds
	}
	if s.Tour.FlySeconds == 0 {
		s.Tour.FlySeconds = DefaultFlySeconds
	}
}

// Validate checks the scenario for values the engine can actually use.
func (s *Scenario) Validate() error {
	if err := s.StartLocation().Validate(); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if err := s.StartPose().Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if s.Orbit.SpeedRPM < 0 {
		return fmt.Errorf("orbit: speed_rpm must be non-negative, got %f", s.Orbit.SpeedRPM)
	}
	if _, err := model.ParseProfile(s.Orbit.Profile); err != nil {
		return fmt.Errorf("orbit: %w", err)
	}
	if s.Frame.FPS < 0 {
		return fmt.Errorf("frame: fps must be non-negative, got %d", s.Frame.FPS)
	}
	for i, poi := range s.Tour.POIs {
		loc := model.Geodetic{LatDeg: poi.Lat, LonDeg: poi.Lon, HeightM: poi.HeightM}
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("tour: poi %d (%s): %w", i, poi.Name, err)
		}
	}
	return nil
}

// StartLocation returns the starting location as a geodetic point.
func (s *Scenario) StartLocation() model.Geodetic {
	return model.Geodetic{
		LatDeg:  s.Location.Lat,
		LonDeg:  s.Location.Lon,
		HeightM: s.Location.HeightM,
	}
}

// StartPose returns the configured starting camera pose.
func (s *Scenario) StartPose() model.Pose {
	return model.Pose{
		HeadingRad: model.Radians(s.Camera.HeadingDeg),
		PitchRad:   model.Radians(s.Camera.PitchDeg),
		RangeM:     s.Camera.RangeM,
	}
}

// Profile returns the parsed orbit profile. Validate must have accepted the
// scenario first.
func (s *Scenario) Profile() model.Profile {
	p, _ := model.ParseProfile(s.Orbit.Profile)
	return p
}

// Dwell returns the per-POI dwell time.
func (s *Scenario) Dwell() time.Duration {
	return time.Duration(s.Tour.DwellSeconds * float64(time.Second))
}

// FlyDuration returns the per-POI flight time.
func (s *Scenario) FlyDuration() time.Duration {
	return time.Duration(s.Tour.FlySeconds * float64(time.Second))
}

// POIs converts the configured tour stops into model points of interest.
func (s *Scenario) POIs() []model.PointOfInterest {
	pois := make([]model.PointOfInterest, 0, len(s.Tour.POIs))
	for i, p := range s.Tour.POIs {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("poi-%d", i+1)
		}
		pois = append(pois, model.PointOfInterest{
			ID:       id,
			Name:     p.Name,
			Category: p.Category,
			Location: model.Geodetic{LatDeg: p.Lat, LonDeg: p.Lon, HeightM: p.HeightM},
		})
	}
	return pois
}
