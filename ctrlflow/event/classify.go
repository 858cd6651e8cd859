package event

// Category is the semantic class the scheduler dispatches on.
type Category int

const (
	Other Category = iota
	IterationStart
	SurfaceReady
	CloseRequested
	KeyPressed
	Redraw
	IterationEnd
)

func (c Category) String() string {
	switch c {
	case IterationStart:
		return "IterationStart"
	case SurfaceReady:
		return "SurfaceReady"
	case CloseRequested:
		return "CloseRequested"
	case KeyPressed:
		return "KeyPressed"
	case Redraw:
		return "RedrawRequested"
	case IterationEnd:
		return "IterationEnd"
	default:
		return "Other"
	}
}

// Classify maps every raw event to exactly one category.
// Key releases and key repeats are Other.
func Classify(e Event) Category {
	switch e.Kind {
	case NewEvents:
		return IterationStart
	case Resumed:
		return SurfaceReady
	case WindowCloseRequested:
		return CloseRequested
	case KeyboardInput:
		if e.State == Pressed && !e.Repeat {
			return KeyPressed
		}
		return Other
	case RedrawRequested:
		return Redraw
	case AboutToWait:
		return IterationEnd
	default:
		return Other
	}
}
