package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/input"
	"github.com/valerio/go-ctrlflow/ctrlflow/input/action"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

var (
	// ErrPreconditionViolation is returned when a frame is requested before a surface exists.
	ErrPreconditionViolation = errors.New("precondition violation")
	// ErrPlatformFailure wraps surface and window system failures.
	ErrPlatformFailure = errors.New("platform failure")
)

// Surface is the drawable the scheduler paints into.
type Surface interface {
	// PrePresentNotify is called right before a frame is painted.
	PrePresentNotify()
	// Paint produces a frame.
	Paint() error
	// RequestRepaint schedules a future RedrawRequested event.
	RequestRepaint()
}

// SurfaceFactory creates surfaces once the platform allows it.
type SurfaceFactory interface {
	CreateSurface() (Surface, error)
}

// Config holds the scheduler timings and bindings.
type Config struct {
	WaitTime      time.Duration // deadline offset in WaitUntil mode
	PollSleepTime time.Duration // throttle applied on every Poll iteration
	Clock         timing.Clock
	Sleeper       timing.Sleeper
	Keymap        input.Keymap
}

// DefaultConfig returns the reference timings on the system clock.
func DefaultConfig() Config {
	sys := timing.System()
	return Config{
		WaitTime:      timing.DefaultWaitTime,
		PollSleepTime: timing.DefaultPollSleepTime,
		Clock:         sys,
		Sleeper:       sys,
		Keymap:        input.DefaultKeymap,
	}
}

// Scheduler owns the session state and decides, once per iteration,
// how the loop waits and whether a frame is requested.
// It is not safe for concurrent use; events are handled one at a time.
type Scheduler struct {
	config  Config
	factory SurfaceFactory
	state   State
	surface Surface
}

// New creates a scheduler in Wait mode with redraw requests disabled.
// Zero config fields, and non-positive timings, fall back to DefaultConfig values.
func New(config Config, factory SurfaceFactory) *Scheduler {
	def := DefaultConfig()
	if config.WaitTime <= 0 {
		config.WaitTime = def.WaitTime
	}
	if config.PollSleepTime <= 0 {
		config.PollSleepTime = def.PollSleepTime
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if config.Sleeper == nil {
		config.Sleeper = def.Sleeper
	}
	if config.Keymap == nil {
		config.Keymap = def.Keymap
	}

	return &Scheduler{
		config:  config,
		factory: factory,
		state:   State{Mode: Wait},
	}
}

// State returns a snapshot of the session state.
func (s *Scheduler) State() State {
	st := s.state
	st.HasSurface = s.surface != nil
	return st
}

// Handle applies one event. Only iteration end yields a directive.
// Returned errors are fatal.
func (s *Scheduler) Handle(ev event.Event) (Action, error) {
	slog.Debug("Event", "event", ev)

	switch event.Classify(ev) {
	case event.IterationStart:
		s.state.WaitCancelled = s.state.Mode == WaitUntil && ev.Cause == event.WaitCancelled

	case event.SurfaceReady:
		surface, err := s.factory.CreateSurface()
		if err != nil {
			return Action{}, fmt.Errorf("%w: failed to create surface: %v", ErrPlatformFailure, err)
		}
		if s.surface != nil {
			slog.Debug("Replacing surface")
		}
		s.surface = surface

	case event.CloseRequested:
		s.state.CloseRequested = true

	case event.KeyPressed:
		s.handleKey(ev.Key)

	case event.Redraw:
		if s.surface == nil {
			return Action{}, fmt.Errorf("%w: redraw requested before the surface was created", ErrPreconditionViolation)
		}
		s.surface.PrePresentNotify()
		if err := s.surface.Paint(); err != nil {
			return Action{}, fmt.Errorf("%w: failed to paint: %v", ErrPlatformFailure, err)
		}

	case event.IterationEnd:
		return s.decide(), nil
	}

	return Action{}, nil
}

func (s *Scheduler) handleKey(key string) {
	act, ok := s.config.Keymap.Lookup(key)
	if !ok {
		return
	}

	switch act {
	case action.ModeWait:
		s.setMode(Wait)
	case action.ModeWaitUntil:
		s.setMode(WaitUntil)
	case action.ModePoll:
		s.setMode(Poll)
	case action.ToggleRedraw:
		s.state.AutoRedraw = !s.state.AutoRedraw
		slog.Info("Redraw requests toggled", "request_redraw", s.state.AutoRedraw)
	case action.Close:
		s.state.CloseRequested = true
	}
}

func (s *Scheduler) setMode(m Mode) {
	s.state.Mode = m
	slog.Info("Control flow mode changed", "mode", m)
}

// decide runs the wait-policy decision for the idle period ahead.
func (s *Scheduler) decide() Action {
	var act Action

	if s.state.AutoRedraw && !s.state.WaitCancelled && !s.state.CloseRequested && s.surface != nil {
		s.surface.RequestRepaint()
		act.Repaint = true
	}

	switch s.state.Mode {
	case Wait:
		act.Directive = Block()
	case WaitUntil:
		if s.state.WaitCancelled {
			// Woken early: re-arming here would restart the deadline on every spurious wake.
			act.Directive = Unchanged()
		} else {
			act.Directive = Until(s.config.Clock.Now().Add(s.config.WaitTime))
		}
	case Poll:
		s.config.Sleeper.Sleep(s.config.PollSleepTime)
		act.Directive = Immediate()
	}

	if s.state.CloseRequested {
		act.Directive = Exit()
	}

	return act
}
