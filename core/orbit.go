package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/geovista/orbitcam/framectrl"
	"github.com/geovista/orbitcam/internal/logging"
	"github.com/geovista/orbitcam/model"
)

// ErrInvalidSpeed is returned when a caller sets a negative orbit speed.
var ErrInvalidSpeed = errors.New("orbit speed must be non-negative")

// Canonical pose a profile switch flies to before the loop restarts: same
// heading as the moment of the switch, fixed pitch and range so the new
// pattern starts from a known vantage.
const (
	CanonicalPitchRad = -30.0 * math.Pi / 180.0
	CanonicalRangeM   = 800.0
)

// Transition durations for a profile switch. Switching to the fixed profile
// gets the long flight; the dynamic profile can start directly from the
// fixed-orbit pose without a visible snap.
const (
	ProfileSwitchSlowFlight = time.Second
	ProfileSwitchFastFlight = 150 * time.Millisecond
)

// OrbitSettings are the user-tunable orbit parameters. Changes take effect
// on the next frame without restarting the loop.
type OrbitSettings struct {
	SpeedRPM float64 // revolutions per minute; 0 means no rotation
	Profile  model.Profile
}

// EventType classifies orbit controller state changes.
type EventType int

const (
	// EventStarted fires when an orbit loop is scheduled.
	EventStarted EventType = iota
	// EventStopped fires when orbiting is disabled, explicitly or after a
	// pose failure.
	EventStopped
	// EventSuspended fires when manual interaction pauses an enabled orbit.
	EventSuspended
	// EventResumed fires when a suspended orbit restarts.
	EventResumed
	// EventSettingsChanged fires when speed or profile changes.
	EventSettingsChanged
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventSuspended:
		return "suspended"
	case EventResumed:
		return "resumed"
	case EventSettingsChanged:
		return "settings-changed"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is emitted to subscribers when the controller's state changes. The
// controller is the source of truth for enabled state; UI toggles should
// subscribe rather than track their own copy.
type Event struct {
	Type     EventType
	Enabled  bool
	Running  bool
	Settings OrbitSettings
}

// MetricsRecorder receives frame and transition telemetry from the
// controller. Implemented by the observability collector; a no-op is used
// when none is provided.
type MetricsRecorder interface {
	ObserveFrame(elapsed time.Duration)
	RecordTransition(reason string)
	SetOrbitState(enabled, running bool)
}

type noopMetrics struct{}

func (noopMetrics) ObserveFrame(time.Duration) {}
func (noopMetrics) RecordTransition(string)    {}
func (noopMetrics) SetOrbitState(bool, bool)   {}

// Status is a point-in-time snapshot of the controller and camera.
type Status struct {
	Enabled   bool
	Running   bool
	Suspended bool
	Settings  OrbitSettings
	Center    model.Geodetic
	Pose      model.Pose
}

// OrbitController animates the camera around a target point and coordinates
// handoff between manual navigation and unattended auto-orbit, so the two
// never fight over camera ownership.
type OrbitController struct {
	rig     CameraRig
	sched   framectrl.Scheduler
	terrain TerrainSampler
	log     logging.Logger
	metrics MetricsRecorder

	mu        sync.Mutex
	settings  OrbitSettings
	target    *model.Geodetic
	enabled   bool
	suspended bool
	run       *orbitRun
	subs      []func(Event)
}

// orbitRun is the state of one continuous loop run. The anchor pose is
// captured once at loop start and never mutated mid-run: the sinusoidal
// offsets hang off it, so entering orbit never jumps the camera.
type orbitRun struct {
	task         framectrl.Task
	center       model.Geodetic
	anchor       model.Pose
	headingDelta float64
	lastFrame    time.Time
}

// Option configures an OrbitController.
type Option func(*OrbitController)

// WithLogger sets the controller's logger.
func WithLogger(log logging.Logger) Option {
	return func(c *OrbitController) { c.log = log }
}

// WithMetrics sets the telemetry recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *OrbitController) { c.metrics = m }
}

// WithTerrain sets the terrain model used to keep orbit centers above
// ground.
func WithTerrain(t TerrainSampler) Option {
	return func(c *OrbitController) { c.terrain = t }
}

// WithSettings sets the initial orbit settings.
func WithSettings(s OrbitSettings) Option {
	return func(c *OrbitController) { c.settings = s }
}

// NewOrbitController constructs an inert controller; nothing is scheduled
// until Start.
func NewOrbitController(rig CameraRig, sched framectrl.Scheduler, opts ...Option) *OrbitController {
	c := &OrbitController{
		rig:     rig,
		sched:   sched,
		log:     logging.Noop(),
		metrics: noopMetrics{},
		settings: OrbitSettings{
			SpeedRPM: 1,
			Profile:  model.FixedOrbit,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a callback invoked on every state change.
func (c *OrbitController) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Settings returns the current orbit settings.
func (c *OrbitController) Settings() OrbitSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Enabled reports whether auto-orbit is on (running or suspended).
func (c *OrbitController) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Running reports whether an orbit loop is currently scheduled.
func (c *OrbitController) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil
}

// Status snapshots controller and camera state.
func (c *OrbitController) Status() Status {
	c.mu.Lock()
	st := Status{
		Enabled:   c.enabled,
		Running:   c.run != nil,
		Suspended: c.suspended,
		Settings:  c.settings,
	}
	c.mu.Unlock()

	st.Center = c.rig.Center()
	st.Pose = c.rig.Pose()
	return st
}

// SetSpeed changes the orbit speed in revolutions per minute. Takes effect
// on the next frame without interrupting a running loop.
func (c *OrbitController) SetSpeed(rpm float64) error {
	if rpm < 0 {
		return fmt.Errorf("%w: %f", ErrInvalidSpeed, rpm)
	}

	c.mu.Lock()
	if c.settings.SpeedRPM == rpm {
		c.mu.Unlock()
		return nil
	}
	c.settings.SpeedRPM = rpm
	ev := c.eventLocked(EventSettingsChanged)
	c.mu.Unlock()

	c.notify(ev)
	return nil
}

// SetProfile switches the motion profile. When a loop is running, the camera
// first flies to the canonical pose (keeping its heading) and the loop
// restarts from there, re-anchored; otherwise the new profile simply applies
// at the next start.
func (c *OrbitController) SetProfile(p model.Profile) {
	c.mu.Lock()
	if c.settings.Profile == p {
		c.mu.Unlock()
		return
	}
	c.settings.Profile = p
	ev := c.eventLocked(EventSettingsChanged)

	if c.run == nil {
		c.mu.Unlock()
		c.notify(ev)
		return
	}

	// Stop the loop before flying; two writers must never share a frame.
	center := c.run.center
	c.cancelRunLocked()
	c.suspended = c.enabled
	c.metrics.RecordTransition("profile-switch")
	heading := c.rig.Pose().HeadingRad
	c.mu.Unlock()
	c.notify(ev)

	canonical := model.Pose{
		HeadingRad: heading,
		PitchRad:   CanonicalPitchRad,
		RangeM:     CanonicalRangeM,
	}
	duration := ProfileSwitchFastFlight
	if p == model.FixedOrbit {
		duration = ProfileSwitchSlowFlight
	}
	err := c.rig.FlyTo(center, canonical, duration, func() {
		c.resumeIfEnabled("profile-switch")
	})
	if err != nil {
		c.log.Error(context.Background(), "profile switch flight rejected",
			logging.String("profile", p.String()),
			logging.String("error", err.Error()),
		)
	}
}

// SetTarget pins the orbit center to an explicit point, lifted above
// terrain. A running loop is interrupted and restarts around the new center,
// re-anchored to the camera's current pose.
func (c *OrbitController) SetTarget(g model.Geodetic) error {
	if err := g.Validate(); err != nil {
		return err
	}
	g = ClampAboveTerrain(c.terrain, g, DefaultCenterClearanceM)

	c.mu.Lock()
	c.target = &g
	var events []Event
	if c.run != nil {
		c.cancelRunLocked()
		c.metrics.RecordTransition("target-change")
		if c.startLocked("target-change") {
			events = append(events, c.eventLocked(EventStarted))
		} else {
			c.suspended = c.enabled
			events = append(events, c.eventLocked(EventSuspended))
		}
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.notify(ev)
	}
	return nil
}

// ClearTarget reverts to orbiting whatever sits under the middle of the
// viewport at the next start.
func (c *OrbitController) ClearTarget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
}

// Start enables auto-orbit and schedules the animation loop, anchored to the
// camera's current pose. If no explicit target is set and the view misses
// the ground, the start is aborted silently: no loop is scheduled and no
// error is raised. Calling Start while running cancels the prior loop before
// scheduling the new one.
func (c *OrbitController) Start() {
	c.mu.Lock()
	if !c.startLocked("start") {
		c.mu.Unlock()
		return
	}
	c.enabled = true
	c.suspended = false
	ev := c.eventLocked(EventStarted)
	c.mu.Unlock()

	c.notify(ev)
}

// Stop disables auto-orbit and cancels the loop. Deterministic and
// idempotent: stopping an already-stopped controller is a no-op.
func (c *OrbitController) Stop() {
	c.mu.Lock()
	if !c.enabled && c.run == nil {
		c.mu.Unlock()
		return
	}
	c.cancelRunLocked()
	c.enabled = false
	c.suspended = false
	c.metrics.RecordTransition("stop")
	ev := c.eventLocked(EventStopped)
	c.mu.Unlock()

	c.notify(ev)
}

// OnManualInteractionBegin is called from input handlers the moment the user
// grabs the camera (pointer-down, wheel). The loop stops immediately so the
// user and the orbit never write the pose in the same frame; auto-orbit
// stays enabled and resumes when the interaction ends.
func (c *OrbitController) OnManualInteractionBegin() {
	c.mu.Lock()
	if c.run == nil {
		c.mu.Unlock()
		return
	}
	c.cancelRunLocked()
	c.suspended = c.enabled
	c.metrics.RecordTransition("suspend")
	ev := c.eventLocked(EventSuspended)
	c.mu.Unlock()

	c.notify(ev)
}

// OnManualInteractionEnd is called when the user releases the camera. If
// auto-orbit is still enabled, a new loop starts anchored to wherever the
// user left the camera.
func (c *OrbitController) OnManualInteractionEnd() {
	c.resumeIfEnabled("resume")
}

// FlyTo mediates an explicit flight (marker selection, admin request): the
// orbit loop stops for the duration of the flight and resumes, re-anchored,
// once the flight completes. onArrived, if set, runs at completion before
// the orbit resumes.
func (c *OrbitController) FlyTo(center model.Geodetic, pose model.Pose, duration time.Duration, onArrived func()) error {
	if err := center.Validate(); err != nil {
		return err
	}
	if err := pose.Validate(); err != nil {
		return err
	}
	center = ClampAboveTerrain(c.terrain, center, DefaultCenterClearanceM)

	c.mu.Lock()
	var events []Event
	if c.run != nil {
		c.cancelRunLocked()
		c.suspended = c.enabled
		c.metrics.RecordTransition("fly-to")
		events = append(events, c.eventLocked(EventSuspended))
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.notify(ev)
	}

	return c.rig.FlyTo(center, pose, duration, func() {
		if onArrived != nil {
			onArrived()
		}
		c.resumeIfEnabled("fly-to")
	})
}

// resumeIfEnabled restarts the loop after a manual interaction or flight,
// anchored to the current camera pose. A failed center resolution leaves the
// orbit suspended; a later interaction end may succeed.
func (c *OrbitController) resumeIfEnabled(reason string) {
	c.mu.Lock()
	if !c.enabled || c.run != nil {
		c.mu.Unlock()
		return
	}
	if !c.startLocked(reason) {
		c.suspended = true
		c.mu.Unlock()
		return
	}
	c.suspended = false
	ev := c.eventLocked(EventResumed)
	c.mu.Unlock()

	c.notify(ev)
}

// startLocked resolves the orbit center and schedules a fresh loop run,
// cancelling any existing one first. Returns false, with no loop scheduled,
// when no center can be resolved. Caller holds c.mu.
func (c *OrbitController) startLocked(reason string) bool {
	var center model.Geodetic
	if c.target != nil {
		center = *c.target
	} else {
		picked, ok := c.rig.PickCenter()
		if !ok {
			c.log.Debug(context.Background(), "orbit start aborted: nothing under view center",
				logging.String("reason", reason),
			)
			return false
		}
		center = ClampAboveTerrain(c.terrain, picked, DefaultCenterClearanceM)
	}

	c.cancelRunLocked()

	run := &orbitRun{
		center:    center,
		anchor:    c.rig.Pose(),
		lastFrame: c.sched.Now(),
	}
	run.task = c.sched.Schedule(c.frame)
	c.run = run

	c.metrics.RecordTransition(reason)
	c.log.Info(context.Background(), "orbit loop started",
		logging.String("reason", reason),
		logging.String("profile", c.settings.Profile.String()),
		logging.Float64("speed_rpm", c.settings.SpeedRPM),
		logging.Float64("center_lat", center.LatDeg),
		logging.Float64("center_lon", center.LonDeg),
	)
	return true
}

// cancelRunLocked cancels the scheduled loop if one exists. Caller holds c.mu.
func (c *OrbitController) cancelRunLocked() {
	if c.run == nil {
		return
	}
	c.run.task.Cancel()
	c.run = nil
}

// frame advances the orbit by one display frame: elapsed time since the
// previous frame converts to orbit angle, the profile evaluator maps the
// accumulated angle to pitch and range, and the pose is applied with no
// transition. Failures are caught here and never propagate to the host.
func (c *OrbitController) frame(now time.Time) {
	c.mu.Lock()
	run := c.run
	if run == nil {
		c.mu.Unlock()
		return
	}

	elapsed := now.Sub(run.lastFrame)
	if elapsed < 0 {
		elapsed = 0
	}
	run.lastFrame = now
	run.headingDelta += elapsed.Seconds() * (c.settings.SpeedRPM / 60.0) * 2 * math.Pi

	profile := NewMotionProfile(c.settings.Profile)
	anchor := run.anchor
	center := run.center
	delta := run.headingDelta
	c.mu.Unlock()

	pitch, rng := profile.Evaluate(anchor.PitchRad, anchor.RangeM, delta)
	pose := model.Pose{
		HeadingRad: model.WrapHeading(anchor.HeadingRad + delta),
		PitchRad:   clampPitch(pitch),
		RangeM:     rng,
	}

	if err := c.rig.SetPose(center, pose); err != nil {
		c.log.Error(context.Background(), "camera pose apply failed; halting orbit",
			logging.String("error", err.Error()),
		)
		c.haltAfterError()
		return
	}
	c.metrics.ObserveFrame(elapsed)
}

// haltAfterError stops the loop after a pose failure. The camera degrades to
// a static view; only an explicit Start resumes animation.
func (c *OrbitController) haltAfterError() {
	c.mu.Lock()
	c.cancelRunLocked()
	c.enabled = false
	c.suspended = false
	c.metrics.RecordTransition("pose-error")
	ev := c.eventLocked(EventStopped)
	c.mu.Unlock()

	c.notify(ev)
}

// eventLocked builds an event from current state. Caller holds c.mu.
func (c *OrbitController) eventLocked(t EventType) Event {
	return Event{
		Type:     t,
		Enabled:  c.enabled,
		Running:  c.run != nil,
		Settings: c.settings,
	}
}

// notify fans an event out to subscribers outside the lock, so a subscriber
// may call back into the controller.
func (c *OrbitController) notify(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.metrics.SetOrbitState(ev.Enabled, ev.Running)
	for _, fn := range subs {
		fn(ev)
	}
}

// clampPitch keeps the evaluated pitch inside the rig's accepted envelope
// when a steep anchor plus the dynamic swing would tip past vertical.
func clampPitch(pitch float64) float64 {
	const limit = math.Pi/2 - 1e-3
	if pitch > limit {
		return limit
	}
	if pitch < -limit {
		return -limit
	}
	return pitch
}
