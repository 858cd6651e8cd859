package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/backend/terminal/render"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

const (
	logBufferSize = 200
	eventBuffer   = 64
)

// closeSignal is the payload of the interrupt posted by the signal handler.
type closeSignal struct{ sig os.Signal }

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen    tcell.Screen
	config    backend.Config
	clock     timing.Clock
	loop      *backend.Loop
	logBuffer *render.LogBuffer

	events chan tcell.Event
	quit   chan struct{}

	frames int
}

// New creates a new terminal backend on the controlling terminal
func New() *Backend {
	return &Backend{}
}

// NewWithScreen creates a terminal backend drawing to the given screen,
// typically a tcell.SimulationScreen in tests.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	if t.config.Title == "" {
		t.config.Title = backend.DefaultTitle
	}
	t.clock = config.Clock
	if t.clock == nil {
		t.clock = timing.System()
	}

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %v", err)
		}
		t.screen = screen
	}

	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %v", err)
	}

	// Logs go to the on-screen pane while the terminal is ours
	level := config.LogLevel
	if level == nil {
		level = slog.LevelInfo
	}
	t.logBuffer = render.NewLogBuffer(logBufferSize)
	slog.SetDefault(slog.New(render.NewHandler(t.logBuffer, level)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.loop = backend.NewLoop(t, t.clock)
	t.events = make(chan tcell.Event, eventBuffer)
	t.quit = make(chan struct{})
	go t.screen.ChannelEvents(t.events, t.quit)

	// Set up signal handling for graceful shutdown
	go t.handleSignals(t.quit)

	slog.Info("Terminal backend initialized")
	return nil
}

func (t *Backend) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	if t.loop == nil {
		return nil, fmt.Errorf("terminal backend not initialized")
	}
	return t.loop.Next(ctx, d)
}

// WaitEvents blocks for screen events as described by w.
func (t *Backend) WaitEvents(ctx context.Context, w backend.Wait) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !w.Block {
		return t.drain(), nil
	}

	var timeout <-chan time.Time
	if !w.Deadline.IsZero() {
		timer := time.NewTimer(w.Deadline.Sub(t.clock.Now()))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ev, ok := <-t.events:
		if !ok {
			return nil, fmt.Errorf("terminal event stream closed")
		}
		out := t.translate(ev)
		return append(out, t.drain()...), nil
	case <-timeout:
		return t.drain(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain collects the events already pending without blocking.
func (t *Backend) drain() []event.Event {
	var out []event.Event
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return out
			}
			out = append(out, t.translate(ev)...)
		default:
			return out
		}
	}
}

func (t *Backend) translate(ev tcell.Event) []event.Event {
	now := t.clock.Now()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		if e, ok := translateKey(ev, now); ok {
			return []event.Event{e}
		}
		return nil
	case *tcell.EventResize:
		t.screen.Sync()
		return []event.Event{event.Of(now, event.Resized), event.Of(now, event.RedrawRequested)}
	case *tcell.EventFocus:
		return []event.Event{event.Of(now, event.Focused)}
	case *tcell.EventInterrupt:
		if sig, ok := ev.Data().(closeSignal); ok {
			slog.Info("Received signal to stop", "signal", sig.sig)
			return []event.Event{event.Of(now, event.WindowCloseRequested)}
		}
		return []event.Event{event.Of(now, event.Unknown)}
	default:
		return []event.Event{event.Of(now, event.Unknown)}
	}
}

// tcellKeyNames converts tcell keys to key names used in keymaps
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEscape: event.KeyEscape,
	tcell.KeyEnter:  event.KeyEnter,
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyTab:    "Tab",
}

// translateKey maps a tcell key event to a key press. Terminals report no
// key releases, so every key event is a press. Ctrl-C closes the window.
func translateKey(ev *tcell.EventKey, now time.Time) (event.Event, bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return event.Of(now, event.WindowCloseRequested), true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return event.Key(now, event.KeySpace), true
		}
		return event.Key(now, string(ev.Rune())), true
	}

	if name, ok := tcellKeyNames[ev.Key()]; ok {
		return event.Key(now, name), true
	}
	return event.Event{}, false
}

func (t *Backend) handleSignals(quit <-chan struct{}) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		// Deliver as a close request so the scheduler shuts down at iteration end
		if err := t.screen.PostEvent(tcell.NewEventInterrupt(closeSignal{sig: sig})); err != nil {
			slog.Warn("Failed to post close request", "error", err)
		}
	case <-quit:
	}
}

func (t *Backend) CreateSurface() (scheduler.Surface, error) {
	if t.screen == nil {
		return nil, fmt.Errorf("terminal backend not initialized")
	}
	slog.Debug("Creating terminal surface")
	return &surface{backend: t}, nil
}

// Frames returns the number of frames painted so far.
func (t *Backend) Frames() int {
	return t.frames
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.quit != nil {
		close(t.quit)
		t.quit = nil
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}
