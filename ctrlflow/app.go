package ctrlflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
)

// App drives a backend with a scheduler until the scheduler asks to terminate.
type App struct {
	backend    backend.Backend
	scheduler  *scheduler.Scheduler
	iterations int
}

// New wires a backend and a scheduler. The backend must already be initialized.
func New(b backend.Backend, s *scheduler.Scheduler) *App {
	return &App{backend: b, scheduler: s}
}

// Run handles event batches until termination, a scheduler error or the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	directive := scheduler.Directive{Kind: scheduler.None}

	for {
		batch, err := a.backend.Next(ctx, directive)
		if errors.Is(err, backend.ErrLoopExited) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}
		a.iterations++

		for _, ev := range batch {
			act, err := a.scheduler.Handle(ev)
			if err != nil {
				return err
			}
			if act.Directive.Kind != scheduler.None {
				directive = act.Directive
			}
		}

		if directive.Kind == scheduler.Terminate {
			slog.Info("Exiting event loop", "iterations", a.iterations)
			return nil
		}
	}
}

// Iterations returns the number of batches handled so far.
func (a *App) Iterations() int {
	return a.iterations
}
