package backend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

// ErrLoopExited is returned by Next once a Terminate directive was received.
var ErrLoopExited = errors.New("event loop exited")

// Wait describes a single platform wait.
// Block false returns pending events without blocking. A zero Deadline blocks
// until an event arrives.
type Wait struct {
	Block    bool
	Deadline time.Time
}

// Source is the platform side of the loop: it blocks and collects raw events.
type Source interface {
	WaitEvents(ctx context.Context, w Wait) ([]event.Event, error)
}

// Loop drives a Source according to scheduler directives and assembles
// event batches. It keeps the installed policy across iterations, so a Keep
// directive leaves an armed deadline in place.
type Loop struct {
	source        Source
	clock         timing.Clock
	policy        scheduler.Directive
	started       bool
	exited        bool
	redrawPending bool
}

// NewLoop creates a loop with the platform default policy: block until an event arrives.
func NewLoop(source Source, clock timing.Clock) *Loop {
	if clock == nil {
		clock = timing.System()
	}
	return &Loop{
		source: source,
		clock:  clock,
		policy: scheduler.Block(),
	}
}

// Policy returns the installed wait policy.
func (l *Loop) Policy() scheduler.Directive {
	return l.policy
}

// RequestRedraw schedules a RedrawRequested event for the next batch.
// Multiple requests before that batch coalesce into one event.
func (l *Loop) RequestRedraw() {
	l.redrawPending = true
}

// Next installs d and returns the next batch of events.
func (l *Loop) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	if l.exited {
		return nil, ErrLoopExited
	}

	switch d.Kind {
	case scheduler.None, scheduler.Keep:
	case scheduler.Terminate:
		l.exited = true
		return nil, ErrLoopExited
	default:
		l.policy = d
	}

	if !l.started {
		l.started = true
		now := l.clock.Now()
		batch := []event.Event{
			event.Start(now, event.Init, time.Time{}),
			event.Of(now, event.Resumed),
		}
		return l.finish(batch, now), nil
	}

	wait := l.waitFor(l.clock.Now())
	raw, err := l.source.WaitEvents(ctx, wait)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	cause := l.cause(now)
	if len(raw) == 0 && cause == event.WaitCancelled && wait.Block {
		slog.Debug("Spurious wake-up", "policy", l.policy)
	}

	batch := make([]event.Event, 0, len(raw)+3)
	batch = append(batch, event.Start(now, cause, l.policy.Deadline))
	batch = append(batch, raw...)
	return l.finish(batch, now), nil
}

func (l *Loop) finish(batch []event.Event, now time.Time) []event.Event {
	if l.redrawPending {
		l.redrawPending = false
		batch = append(batch, event.Of(now, event.RedrawRequested))
	}
	return append(batch, event.Of(now, event.AboutToWait))
}

func (l *Loop) waitFor(now time.Time) Wait {
	if l.redrawPending {
		return Wait{}
	}

	switch l.policy.Kind {
	case scheduler.BlockUntil:
		if !now.Before(l.policy.Deadline) {
			return Wait{}
		}
		return Wait{Block: true, Deadline: l.policy.Deadline}
	case scheduler.ReturnImmediately:
		return Wait{}
	default:
		return Wait{Block: true}
	}
}

func (l *Loop) cause(now time.Time) event.StartCause {
	switch l.policy.Kind {
	case scheduler.ReturnImmediately:
		return event.Poll
	case scheduler.BlockUntil:
		if !now.Before(l.policy.Deadline) {
			return event.ResumeTimeReached
		}
		return event.WaitCancelled
	default:
		return event.WaitCancelled
	}
}
