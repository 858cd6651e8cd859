package backend

import (
	"context"
	"log/slog"

	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

// Backend represents a complete windowing platform (event source + loop driver + surface)
// Backends are responsible for:
// - Waiting for platform events as dictated by the last directive
// - Translating platform-specific events into raw event.Events
// - Creating the surface frames are painted into
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Next.
	Init(config Config) error

	// Next installs the directive, waits accordingly and returns the next
	// batch of events. Every batch starts with NewEvents and ends with AboutToWait.
	Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error)

	scheduler.SurfaceFactory

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Title string
	Clock timing.Clock // Used for event timestamps and deadline checks; defaults to the system clock
	// LogLevel applies to backends that take over log output. Defaults to info.
	LogLevel slog.Leveler
}

// DefaultTitle is the window title used when none is configured.
const DefaultTitle = "Press 1, 2, 3 to change control flow mode. Press R to toggle redraw requests."
