package event

import (
	"fmt"
	"time"
)

// Kind is the raw platform event type, before classification.
type Kind int

const (
	Unknown Kind = iota
	NewEvents
	Resumed
	Suspended
	WindowCloseRequested
	KeyboardInput
	RedrawRequested
	Resized
	Focused
	AboutToWait
	LoopExiting
)

var kindNames = map[Kind]string{
	Unknown:              "Unknown",
	NewEvents:            "NewEvents",
	Resumed:              "Resumed",
	Suspended:            "Suspended",
	WindowCloseRequested: "CloseRequested",
	KeyboardInput:        "KeyboardInput",
	RedrawRequested:      "RedrawRequested",
	Resized:              "Resized",
	Focused:              "Focused",
	AboutToWait:          "AboutToWait",
	LoopExiting:          "LoopExiting",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// StartCause tells why the loop resumed from idle.
type StartCause int

const (
	Init              StartCause = iota // first iteration
	ResumeTimeReached                   // deadline elapsed
	WaitCancelled                       // woken before the deadline, or out of an indefinite wait
	Poll                                // poll timer fired
)

func (c StartCause) String() string {
	switch c {
	case Init:
		return "Init"
	case ResumeTimeReached:
		return "ResumeTimeReached"
	case WaitCancelled:
		return "WaitCancelled"
	case Poll:
		return "Poll"
	default:
		return fmt.Sprintf("StartCause(%d)", int(c))
	}
}

// KeyState is the transition reported by a keyboard event.
type KeyState int

const (
	Pressed KeyState = iota
	Released
)

func (s KeyState) String() string {
	if s == Released {
		return "Released"
	}
	return "Pressed"
}

// Named keys. Printable keys use the character itself ("1", "r").
const (
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
	KeySpace  = "Space"
)

// Event is a timestamped raw platform event.
type Event struct {
	Time time.Time
	Kind Kind

	// NewEvents only.
	Cause    StartCause
	Deadline time.Time // requested resume time, zero when none

	// KeyboardInput only.
	Key    string
	State  KeyState
	Repeat bool
}

func (e Event) String() string {
	switch e.Kind {
	case NewEvents:
		if e.Deadline.IsZero() {
			return fmt.Sprintf("NewEvents(%s)", e.Cause)
		}
		return fmt.Sprintf("NewEvents(%s, deadline=%s)", e.Cause, e.Deadline.Format("15:04:05.000"))
	case KeyboardInput:
		s := fmt.Sprintf("KeyboardInput(%q, %s", e.Key, e.State)
		if e.Repeat {
			s += ", repeat"
		}
		return s + ")"
	default:
		return e.Kind.String()
	}
}

// Start builds a NewEvents event.
func Start(at time.Time, cause StartCause, deadline time.Time) Event {
	return Event{Time: at, Kind: NewEvents, Cause: cause, Deadline: deadline}
}

// Key builds a non-repeated key press.
func Key(at time.Time, key string) Event {
	return Event{Time: at, Kind: KeyboardInput, Key: key, State: Pressed}
}

// KeyUp builds a key release.
func KeyUp(at time.Time, key string) Event {
	return Event{Time: at, Kind: KeyboardInput, Key: key, State: Released}
}

// Of builds an event carrying nothing but its kind.
func Of(at time.Time, kind Kind) Event {
	return Event{Time: at, Kind: kind}
}
