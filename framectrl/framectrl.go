package framectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is an interface for reading frame time. Components that compute
// elapsed-time motion depend on this abstraction rather than on wall-clock
// time directly, enabling testability.
type Clock interface {
	// Now returns the current frame time.
	Now() time.Time
}

// Task is a handle to a repeating per-frame callback. Cancel removes the
// callback from the schedule; it is safe to call more than once and safe to
// call from within the callback itself.
type Task interface {
	Cancel()
}

// Scheduler registers callbacks that run once per display frame until
// cancelled. Starting and stopping a callback is an explicit Task lifecycle
// rather than a callback re-scheduling itself.
type Scheduler interface {
	Clock

	// Schedule registers fn to run on every frame, passing the frame time.
	Schedule(fn func(now time.Time)) Task
}

// FrameTicker drives registered frame callbacks from a single goroutine at a
// fixed frame rate. All callbacks for one frame run sequentially, so two
// callbacks never mutate shared camera state in the same instant.
type FrameTicker struct {
	interval time.Duration

	mu      sync.Mutex
	counter uint64
	tasks   map[uint64]func(time.Time)
}

// NewFrameTicker constructs a ticker that fires fps times per second.
// Non-positive fps falls back to 60.
func NewFrameTicker(fps int) *FrameTicker {
	if fps <= 0 {
		fps = 60
	}
	return &FrameTicker{
		interval: time.Second / time.Duration(fps),
		tasks:    make(map[uint64]func(time.Time)),
	}
}

// Now returns the current wall-clock time. Implements Clock.
func (t *FrameTicker) Now() time.Time { return time.Now() }

// Interval returns the spacing between frames.
func (t *FrameTicker) Interval() time.Duration { return t.interval }

// Schedule registers fn to run every frame until its Task is cancelled.
func (t *FrameTicker) Schedule(fn func(now time.Time)) Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	id := t.counter
	t.tasks[id] = fn
	return &tickerTask{owner: t, id: id}
}

// Run blocks, invoking scheduled callbacks once per frame, until ctx is
// cancelled. Callbacks execute outside the registration lock so a callback
// may cancel its own task or schedule new ones.
func (t *FrameTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.fire(now)
		}
	}
}

func (t *FrameTicker) fire(now time.Time) {
	t.mu.Lock()
	ids := make([]uint64, 0, len(t.tasks))
	for id := range t.tasks {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		// Re-check under lock: the task may have been cancelled by an
		// earlier callback in this same frame.
		t.mu.Lock()
		fn := t.tasks[id]
		t.mu.Unlock()
		if fn != nil {
			fn(now)
		}
	}
}

type tickerTask struct {
	owner *FrameTicker
	id    uint64
}

// Cancel removes the callback. A no-op if already cancelled.
func (tt *tickerTask) Cancel() {
	tt.owner.mu.Lock()
	defer tt.owner.mu.Unlock()
	delete(tt.owner.tasks, tt.id)
}

// ManualScheduler is a Scheduler whose frames are stepped explicitly by the
// caller. Tests use it to drive animation deterministically without waiting
// on real time.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	counter uint64
	tasks   map[uint64]func(time.Time)
}

// NewManualScheduler constructs a manually stepped scheduler starting at
// the given time.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{
		now:   start,
		tasks: make(map[uint64]func(time.Time)),
	}
}

// Now returns the current manual frame time. Implements Clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Schedule registers fn to run on every manual step until cancelled.
func (m *ManualScheduler) Schedule(fn func(now time.Time)) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	id := m.counter
	m.tasks[id] = fn
	return &manualTask{owner: m, id: id}
}

// TaskCount reports how many callbacks are currently scheduled.
func (m *ManualScheduler) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves frame time forward by d and fires one frame.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	ids := make([]uint64, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		fn := m.tasks[id]
		m.mu.Unlock()
		if fn != nil {
			fn(now)
		}
	}
}

type manualTask struct {
	owner *ManualScheduler
	id    uint64
}

func (mt *manualTask) Cancel() {
	mt.owner.mu.Lock()
	defer mt.owner.mu.Unlock()
	delete(mt.owner.tasks, mt.id)
}
