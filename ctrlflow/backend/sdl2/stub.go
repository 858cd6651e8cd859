//go:build !sdl2

package sdl2

import (
	"context"
	"fmt"

	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
)

// Backend stub for when SDL2 is not available
type Backend struct{}

// New creates a stub SDL2 backend that returns an error
func New() *Backend {
	return &Backend{}
}

// Init returns an error indicating SDL2 is not available
func (s *Backend) Init(config backend.Config) error {
	return fmt.Errorf("SDL2 backend not available - build with -tags sdl2 to enable")
}

// Next returns an error
func (s *Backend) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	return nil, fmt.Errorf("SDL2 backend not available")
}

// CreateSurface returns an error
func (s *Backend) CreateSurface() (scheduler.Surface, error) {
	return nil, fmt.Errorf("SDL2 backend not available")
}

// Cleanup does nothing
func (s *Backend) Cleanup() error {
	return nil
}
