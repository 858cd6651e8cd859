package terminal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
)

func TestTranslateKey(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		key      *tcell.EventKey
		expected event.Event
		ok       bool
	}{
		{"digit", tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone), event.Key(now, "1"), true},
		{"letter", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), event.Key(now, "r"), true},
		{"upper case letter is distinct", tcell.NewEventKey(tcell.KeyRune, 'R', tcell.ModShift), event.Key(now, "R"), true},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), event.Key(now, event.KeySpace), true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), event.Key(now, event.KeyEscape), true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), event.Key(now, event.KeyEnter), true},
		{"ctrl-c closes", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), event.Of(now, event.WindowCloseRequested), true},
		{"unmapped key", tcell.NewEventKey(tcell.KeyF7, 0, tcell.ModNone), event.Event{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateKey(tt.key, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func newSimulated(t *testing.T) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	require.NoError(t, b.Init(backend.Config{Title: "Test"}))
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, screen
}

// collectUntil keeps waiting until an event matching want shows up.
func collectUntil(t *testing.T, b *Backend, want func(event.Event) bool) []event.Event {
	t.Helper()
	ctx := context.Background()
	var seen []event.Event
	for i := 0; i < 20; i++ {
		batch, err := b.Next(ctx, scheduler.Until(time.Now().Add(500*time.Millisecond)))
		require.NoError(t, err)
		seen = append(seen, batch...)
		for _, ev := range batch {
			if want(ev) {
				return seen
			}
		}
	}
	t.Fatalf("expected event not delivered, got %v", seen)
	return nil
}

func TestSimulatedScreen(t *testing.T) {
	t.Run("first batch resumes", func(t *testing.T) {
		b, _ := newSimulated(t)

		batch, err := b.Next(context.Background(), scheduler.Directive{})
		require.NoError(t, err)
		require.Len(t, batch, 3)
		assert.Equal(t, event.Init, batch[0].Cause)
		assert.Equal(t, event.Resumed, batch[1].Kind)
	})

	t.Run("injected keys are delivered", func(t *testing.T) {
		b, screen := newSimulated(t)
		_, err := b.Next(context.Background(), scheduler.Directive{})
		require.NoError(t, err)

		screen.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)

		seen := collectUntil(t, b, func(ev event.Event) bool {
			return ev.Kind == event.KeyboardInput && ev.Key == "r"
		})
		assert.NotEmpty(t, seen)
	})

	t.Run("deadline elapses without events", func(t *testing.T) {
		b, _ := newSimulated(t)
		ctx := context.Background()
		_, err := b.Next(ctx, scheduler.Directive{})
		require.NoError(t, err)

		// Let any startup events through first
		_, err = b.Next(ctx, scheduler.Immediate())
		require.NoError(t, err)

		start := time.Now()
		batch, err := b.Next(ctx, scheduler.Until(start.Add(20*time.Millisecond)))
		require.NoError(t, err)
		if len(batch) == 2 {
			// nothing woke the wait early
			assert.Equal(t, event.ResumeTimeReached, batch[0].Cause)
			assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		}
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		b, _ := newSimulated(t)
		ctx, cancel := context.WithCancel(context.Background())
		_, err := b.Next(ctx, scheduler.Directive{})
		require.NoError(t, err)

		cancel()
		_, err = b.Next(ctx, scheduler.Block())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("surface paints the title", func(t *testing.T) {
		b, screen := newSimulated(t)

		s, err := b.CreateSurface()
		require.NoError(t, err)
		s.PrePresentNotify()
		require.NoError(t, s.Paint())
		assert.Equal(t, 1, b.Frames())

		title := []rune(" Test ")
		for i, want := range title {
			got, _, _, _ := screen.GetContent(1+i, 0)
			assert.Equal(t, want, got)
		}
	})
}

func TestInitKeepsLogLevel(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	tests := []struct {
		name       string
		level      slog.Leveler
		debugShown bool
	}{
		{"default level", nil, false},
		{"debug", slog.LevelDebug, true},
		{"warn", slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewWithScreen(tcell.NewSimulationScreen("UTF-8"))
			require.NoError(t, b.Init(backend.Config{Title: "Test", LogLevel: tt.level}))
			t.Cleanup(func() { _ = b.Cleanup() })

			assert.Equal(t, tt.debugShown, slog.Default().Enabled(context.Background(), slog.LevelDebug))

			before := b.logBuffer.Len()
			slog.Debug("Event", "event", "NewEvents(Init)")
			if tt.debugShown {
				require.Equal(t, before+1, b.logBuffer.Len())
				assert.Equal(t, "Event event=NewEvents(Init)", b.logBuffer.Recent(1)[0].Message)
			} else {
				assert.Equal(t, before, b.logBuffer.Len())
			}
		})
	}
}

func TestTerminalImplementsBackend(t *testing.T) {
	var _ backend.Backend = (*Backend)(nil)
	var _ backend.Source = (*Backend)(nil)
}
