//go:build sdl2

package sdl2

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowWidth  = 800
	windowHeight = 600

	// waitSlice bounds each blocking SDL wait so context cancellation is noticed.
	waitSlice = 250 * time.Millisecond
)

// SDL must be driven from the main OS thread.
func init() {
	runtime.LockOSThread()
}

// Backend implements the Backend interface using SDL2 bindings
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2)
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	config   backend.Config
	clock    timing.Clock
	loop     *backend.Loop
	frames   int
}

// New creates a new SDL2 backend
func New() *Backend {
	return &Backend{}
}

// Init initializes SDL; the window itself is created with the surface.
func (s *Backend) Init(config backend.Config) error {
	s.config = config
	if s.config.Title == "" {
		s.config.Title = backend.DefaultTitle
	}
	s.clock = config.Clock
	if s.clock == nil {
		s.clock = timing.System()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %v", err)
	}

	s.loop = backend.NewLoop(s, s.clock)
	slog.Info("SDL2 backend initialized")
	return nil
}

func (s *Backend) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	if s.loop == nil {
		return nil, fmt.Errorf("SDL2 backend not initialized")
	}
	return s.loop.Next(ctx, d)
}

// WaitEvents maps the three wait kinds onto SDL_PollEvent and SDL_WaitEventTimeout.
func (s *Backend) WaitEvents(ctx context.Context, w backend.Wait) ([]event.Event, error) {
	if !w.Block {
		return s.drain(), nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slice := waitSlice
		if !w.Deadline.IsZero() {
			remaining := w.Deadline.Sub(s.clock.Now())
			if remaining <= 0 {
				return s.drain(), nil
			}
			if remaining < slice {
				slice = remaining
			}
		}

		if ev := sdl.WaitEventTimeout(int(slice / time.Millisecond)); ev != nil {
			out := s.translate(ev)
			return append(out, s.drain()...), nil
		}
	}
}

func (s *Backend) drain() []event.Event {
	var out []event.Event
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		out = append(out, s.translate(ev)...)
	}
	return out
}

func (s *Backend) translate(ev sdl.Event) []event.Event {
	now := s.clock.Now()

	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return []event.Event{event.Of(now, event.WindowCloseRequested)}

	case *sdl.KeyboardEvent:
		name, ok := keyName(e.Keysym.Sym)
		if !ok {
			return nil
		}
		out := event.Event{Time: now, Kind: event.KeyboardInput, Key: name, Repeat: e.Repeat != 0}
		if e.Type == sdl.KEYUP {
			out.State = event.Released
		}
		return []event.Event{out}

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return []event.Event{event.Of(now, event.WindowCloseRequested)}
		case sdl.WINDOWEVENT_EXPOSED:
			return []event.Event{event.Of(now, event.RedrawRequested)}
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return []event.Event{event.Of(now, event.Resized)}
		case sdl.WINDOWEVENT_FOCUS_GAINED, sdl.WINDOWEVENT_FOCUS_LOST:
			return []event.Event{event.Of(now, event.Focused)}
		}
	}

	return []event.Event{event.Of(now, event.Unknown)}
}

// namedKeys maps SDL2 keys to key names used in keymaps
var namedKeys = map[sdl.Keycode]string{
	sdl.K_ESCAPE: event.KeyEscape,
	sdl.K_RETURN: event.KeyEnter,
	sdl.K_SPACE:  event.KeySpace,
	sdl.K_UP:     "Up",
	sdl.K_DOWN:   "Down",
	sdl.K_LEFT:   "Left",
	sdl.K_RIGHT:  "Right",
}

// keyName returns the logical key name. Printable keycodes are their ASCII character.
func keyName(sym sdl.Keycode) (string, bool) {
	if name, ok := namedKeys[sym]; ok {
		return name, true
	}
	if sym > ' ' && sym < 0x7f {
		return string(rune(sym)), true
	}
	return "", false
}

// CreateSurface opens the window. A second call replaces the previous window.
func (s *Backend) CreateSurface() (scheduler.Surface, error) {
	s.destroyWindow()

	window, err := sdl.CreateWindow(
		s.config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		windowWidth,
		windowHeight,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %v", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("failed to create renderer: %v", err)
	}

	s.window = window
	s.renderer = renderer
	slog.Info("SDL2 window created", "width", windowWidth, "height", windowHeight)
	return &surface{backend: s}, nil
}

func (s *Backend) destroyWindow() {
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
}

// Cleanup cleans up SDL2 resources
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend", "frames", s.frames)
	s.destroyWindow()
	sdl.Quit()
	return nil
}

type surface struct {
	backend *Backend
}

func (f *surface) PrePresentNotify() {
	// SDL2 has no pre-present hook; presentation is synchronous in Paint.
}

// Paint fills the window with a solid colour and presents it.
func (f *surface) Paint() error {
	r := f.backend.renderer
	if r == nil {
		return fmt.Errorf("SDL2 renderer is gone")
	}

	if err := r.SetDrawColor(0x3f, 0x4c, 0x5a, 0xff); err != nil {
		return fmt.Errorf("failed to set draw color: %v", err)
	}
	if err := r.Clear(); err != nil {
		return fmt.Errorf("failed to clear window: %v", err)
	}
	r.Present()
	f.backend.frames++
	return nil
}

func (f *surface) RequestRepaint() {
	f.backend.loop.RequestRedraw()
}
