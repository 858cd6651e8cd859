package timing

import (
	"sync"
	"time"
)

// Clock reports the current time for deadline computation.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks the calling goroutine for a fixed duration.
// Used to throttle continuous polling.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Default control flow timings.
const (
	DefaultWaitTime      = 100 * time.Millisecond
	DefaultPollSleepTime = 100 * time.Millisecond
)

// System returns a Clock and Sleeper backed by the wall clock.
func System() *SystemClock {
	return &SystemClock{}
}

// SystemClock implements Clock and Sleeper on the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (s *SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d.
func (s *SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock is a virtual clock for headless runs and tests.
// Sleep advances the clock instead of blocking and records the duration.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewManualClock creates a virtual clock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the virtual time.
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep records d and advances the clock by it without blocking.
func (m *ManualClock) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	if d > 0 {
		m.now = m.now.Add(d)
	}
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now = m.now.Add(d)
	}
}

// Set moves the clock to t, unless t is in the clock's past.
func (m *ManualClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.After(m.now) {
		m.now = t
	}
}

// Sleeps returns every duration passed to Sleep, in call order.
func (m *ManualClock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}
