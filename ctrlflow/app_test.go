package ctrlflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/headless"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newHeadlessApp(t *testing.T, maxIterations int, script string) (*App, *headless.Backend, *scheduler.Scheduler) {
	t.Helper()

	parsed, err := headless.ParseScript(script)
	require.NoError(t, err)

	clock := timing.NewManualClock(epoch)
	b := headless.New(clock, maxIterations, parsed)
	require.NoError(t, b.Init(backend.Config{Title: backend.DefaultTitle, Clock: clock}))

	s := scheduler.New(scheduler.Config{Clock: clock, Sleeper: clock}, b)
	return New(b, s), b, s
}

func TestRunUntilEscape(t *testing.T) {
	app, b, s := newHeadlessApp(t, 0, "2:3,4:Escape")

	require.NoError(t, app.Run(context.Background()))

	st := s.State()
	assert.Equal(t, scheduler.Poll, st.Mode)
	assert.True(t, st.CloseRequested)
	assert.True(t, st.HasSurface)
	// initial batch plus four waits
	assert.Equal(t, 5, app.Iterations())
	assert.Equal(t, 1, b.Stats().SurfacesCreated)

	// Poll sleeps once per iteration end after the switch, including the last one
	assert.Equal(t, []time.Duration{
		timing.DefaultPollSleepTime,
		timing.DefaultPollSleepTime,
		timing.DefaultPollSleepTime,
	}, b.Clock().Sleeps())
}

func TestRunUntilWindowClose(t *testing.T) {
	app, _, s := newHeadlessApp(t, 3, "")

	require.NoError(t, app.Run(context.Background()))

	assert.True(t, s.State().CloseRequested)
	assert.Equal(t, 4, app.Iterations())
}

func TestRunWaitUntilAdvancesByWaitTime(t *testing.T) {
	app, b, _ := newHeadlessApp(t, 6, "1:2")

	require.NoError(t, app.Run(context.Background()))

	// waits 1 and 6 wake early, waits 2 to 5 each run to a fresh deadline
	elapsed := b.Clock().Now().Sub(epoch)
	assert.Equal(t, 2*time.Millisecond+4*timing.DefaultWaitTime, elapsed)
	assert.Zero(t, b.Stats().Paints)
}

func TestRunAutoRedraw(t *testing.T) {
	app, b, s := newHeadlessApp(t, 5, "1:r")

	require.NoError(t, app.Run(context.Background()))

	assert.True(t, s.State().AutoRedraw)
	// every iteration end from the toggle on requests a frame, and each request
	// is painted in the following batch; the close iteration requests none
	stats := b.Stats()
	assert.Equal(t, 4, stats.RepaintRequests)
	assert.Equal(t, 4, stats.Paints)
	assert.Equal(t, 4, stats.Presents)
}

func TestRunWaitUntilRedrawCycle(t *testing.T) {
	app, b, _ := newHeadlessApp(t, 7, "1:2,1:r")

	require.NoError(t, app.Run(context.Background()))

	// a repaint wakes the loop early, which keeps the armed deadline instead
	// of requesting another frame
	stats := b.Stats()
	assert.Equal(t, 7, stats.Waits)
	assert.Equal(t, 3, stats.RepaintRequests)
	assert.Equal(t, 3, stats.Paints)
	assert.Equal(t, 2*time.Millisecond+2*timing.DefaultWaitTime, b.Clock().Now().Sub(epoch))
}

func TestRunScriptedRedraw(t *testing.T) {
	app, b, _ := newHeadlessApp(t, 3, "1:@redraw,2:@redraw")

	require.NoError(t, app.Run(context.Background()))

	stats := b.Stats()
	assert.Equal(t, 2, stats.Paints)
	assert.Equal(t, 2, stats.Presents)
	assert.Zero(t, stats.RepaintRequests)
}

func TestRunCancelledContext(t *testing.T) {
	app, _, _ := newHeadlessApp(t, 0, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	// the initial batch does not wait
	assert.Equal(t, 1, app.Iterations())
}

type failingBackend struct {
	batches [][]event.Event
	err     error
}

func (f *failingBackend) Init(backend.Config) error { return nil }

func (f *failingBackend) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	if len(f.batches) == 0 {
		return nil, f.err
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *failingBackend) CreateSurface() (scheduler.Surface, error) {
	return nil, errors.New("no display")
}

func (f *failingBackend) Cleanup() error { return nil }

func TestRunSchedulerErrors(t *testing.T) {
	tests := []struct {
		name  string
		batch []event.Event
		want  error
	}{
		{
			name:  "surface creation failure",
			batch: []event.Event{event.Start(epoch, event.Init, time.Time{}), event.Of(epoch, event.Resumed)},
			want:  scheduler.ErrPlatformFailure,
		},
		{
			name:  "redraw before surface",
			batch: []event.Event{event.Start(epoch, event.Init, time.Time{}), event.Of(epoch, event.RedrawRequested)},
			want:  scheduler.ErrPreconditionViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &failingBackend{batches: [][]event.Event{tt.batch}}
			clock := timing.NewManualClock(epoch)
			app := New(b, scheduler.New(scheduler.Config{Clock: clock, Sleeper: clock}, b))

			err := app.Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunBackendError(t *testing.T) {
	b := &failingBackend{err: errors.New("display lost")}
	clock := timing.NewManualClock(epoch)
	app := New(b, scheduler.New(scheduler.Config{Clock: clock, Sleeper: clock}, b))

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display lost")
	assert.Zero(t, app.Iterations())
}
