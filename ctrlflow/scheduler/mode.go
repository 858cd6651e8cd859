package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the wait policy selected by the user.
type Mode int

const (
	Wait Mode = iota
	WaitUntil
	Poll
)

func (m Mode) String() string {
	switch m {
	case Wait:
		return "Wait"
	case WaitUntil:
		return "WaitUntil"
	case Poll:
		return "Poll"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name, case insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wait":
		return Wait, nil
	case "waituntil", "wait-until", "wait_until":
		return WaitUntil, nil
	case "poll":
		return Poll, nil
	}
	return 0, fmt.Errorf("unknown control flow mode %q", s)
}

// DirectiveKind is what the loop driver must do in the next idle period.
type DirectiveKind int

const (
	// None means the handled event produced no decision.
	None DirectiveKind = iota
	// Keep leaves the wait policy installed in the driver untouched.
	Keep
	BlockIndefinitely
	BlockUntil
	ReturnImmediately
	Terminate
)

func (k DirectiveKind) String() string {
	switch k {
	case None:
		return "None"
	case Keep:
		return "Keep"
	case BlockIndefinitely:
		return "BlockIndefinitely"
	case BlockUntil:
		return "BlockUntil"
	case ReturnImmediately:
		return "ReturnImmediately"
	case Terminate:
		return "Terminate"
	default:
		return fmt.Sprintf("DirectiveKind(%d)", int(k))
	}
}

// Directive is a wait policy for the loop driver.
// Deadline is only set for BlockUntil.
type Directive struct {
	Kind     DirectiveKind
	Deadline time.Time
}

func (d Directive) String() string {
	if d.Kind == BlockUntil {
		return fmt.Sprintf("BlockUntil(%s)", d.Deadline.Format("15:04:05.000"))
	}
	return d.Kind.String()
}

// Block waits until the next platform event.
func Block() Directive { return Directive{Kind: BlockIndefinitely} }

// Until waits until deadline or the next platform event.
func Until(deadline time.Time) Directive { return Directive{Kind: BlockUntil, Deadline: deadline} }

// Immediate returns pending events without blocking.
func Immediate() Directive { return Directive{Kind: ReturnImmediately} }

// Exit ends the event loop.
func Exit() Directive { return Directive{Kind: Terminate} }

// Unchanged leaves the installed wait policy, including its deadline, in place.
func Unchanged() Directive { return Directive{Kind: Keep} }

// Action is the outcome of handling one event.
type Action struct {
	// Repaint is set when a future redraw was requested from the surface.
	Repaint bool
	// Directive is set on iteration end, None otherwise.
	Directive Directive
}

// State is a snapshot of the session state.
type State struct {
	Mode           Mode
	AutoRedraw     bool
	WaitCancelled  bool
	CloseRequested bool
	HasSurface     bool
}
