package headless

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valerio/go-ctrlflow/ctrlflow/backend"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/scheduler"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

// wakeStep is how far the virtual clock moves when scripted events wake an idle wait.
const wakeStep = time.Millisecond

// Script maps a wait number (1-based, the initial batch is not counted) to the
// raw events the platform delivers during that wait.
type Script map[int][]event.Event

// Backend implements the Backend interface for automated testing and batch processing.
// It never blocks on real time: waits advance a virtual clock instead.
type Backend struct {
	config        backend.Config
	clock         *timing.ManualClock
	loop          *backend.Loop
	script        Script
	lastScripted  int
	waits         int
	maxIterations int
	stats         Stats
}

// Stats counts what the scheduler asked the surface to do.
type Stats struct {
	SurfacesCreated int
	Presents        int
	Paints          int
	RepaintRequests int
	Waits           int
	SpuriousWakeUps int
}

// New creates a headless backend. After maxIterations waits a close request
// is delivered; zero disables the limit, and the close request is delivered
// by the first indefinite wait after the script ran out.
func New(clock *timing.ManualClock, maxIterations int, script Script) *Backend {
	if clock == nil {
		clock = timing.NewManualClock(time.Now())
	}
	if script == nil {
		script = Script{}
	}
	last := 0
	for w := range script {
		last = max(last, w)
	}
	return &Backend{
		clock:         clock,
		script:        script,
		lastScripted:  last,
		maxIterations: maxIterations,
	}
}

// Clock returns the virtual clock shared with the scheduler.
func (h *Backend) Clock() *timing.ManualClock {
	return h.clock
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	h.loop = backend.NewLoop(h, h.clock)

	slog.Info("Running headless mode",
		"iterations", h.maxIterations,
		"scripted_waits", len(h.script))

	return nil
}

func (h *Backend) Next(ctx context.Context, d scheduler.Directive) ([]event.Event, error) {
	if h.loop == nil {
		return nil, fmt.Errorf("headless backend not initialized")
	}
	return h.loop.Next(ctx, d)
}

// WaitEvents delivers the scripted events for the current wait.
func (h *Backend) WaitEvents(ctx context.Context, w backend.Wait) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.waits++
	h.stats.Waits++

	scripted := h.script[h.waits]
	events := make([]event.Event, 0, len(scripted)+1)
	for _, ev := range scripted {
		ev.Time = h.clock.Now()
		events = append(events, ev)
	}

	if h.maxIterations > 0 && h.waits >= h.maxIterations {
		slog.Info("Headless execution completed", "iterations", h.waits)
		events = append(events, event.Of(h.clock.Now(), event.WindowCloseRequested))
	}

	switch {
	case !w.Block:
	case len(events) > 0:
		// woken early by the platform
		if w.Deadline.IsZero() || h.clock.Now().Add(wakeStep).Before(w.Deadline) {
			h.clock.Advance(wakeStep)
		}
	case !w.Deadline.IsZero():
		h.clock.Set(w.Deadline)
	case h.maxIterations == 0 && h.waits >= h.lastScripted:
		// nothing can ever wake this wait
		slog.Info("Headless script exhausted", "iterations", h.waits)
		events = append(events, event.Of(h.clock.Now(), event.WindowCloseRequested))
	default:
		h.stats.SpuriousWakeUps++
	}

	// Log progress periodically
	if h.waits%10 == 0 {
		slog.Debug("Iteration progress", "completed", h.waits, "total", h.maxIterations)
	}

	return events, nil
}

func (h *Backend) CreateSurface() (scheduler.Surface, error) {
	h.stats.SurfacesCreated++
	return &surface{backend: h}, nil
}

// Stats returns the surface counters collected so far.
func (h *Backend) Stats() Stats {
	return h.stats
}

func (h *Backend) Cleanup() error {
	slog.Info("Headless stats",
		"waits", h.stats.Waits,
		"paints", h.stats.Paints,
		"repaint_requests", h.stats.RepaintRequests,
		"spurious_wakeups", h.stats.SpuriousWakeUps)
	return nil
}

type surface struct {
	backend *Backend
}

func (s *surface) PrePresentNotify() {
	s.backend.stats.Presents++
}

func (s *surface) Paint() error {
	s.backend.stats.Paints++
	return nil
}

func (s *surface) RequestRepaint() {
	s.backend.stats.RepaintRequests++
	s.backend.loop.RequestRedraw()
}

// ParseScript parses a comma separated list of wait:token pairs, such as
// "2:3,4:r,6:Escape". Tokens are key names or one of @close, @resume,
// @redraw and @suspend.
func ParseScript(s string) (Script, error) {
	script := Script{}
	s = strings.TrimSpace(s)
	if s == "" {
		return script, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		waitStr, token, ok := strings.Cut(part, ":")
		if !ok || token == "" {
			return nil, fmt.Errorf("invalid script entry %q, expected <wait>:<key>", part)
		}
		wait, err := strconv.Atoi(strings.TrimSpace(waitStr))
		if err != nil || wait <= 0 {
			return nil, fmt.Errorf("invalid wait number in script entry %q", part)
		}
		script[wait] = append(script[wait], parseToken(token))
	}

	return script, nil
}

func parseToken(token string) event.Event {
	switch strings.ToLower(token) {
	case "@close":
		return event.Event{Kind: event.WindowCloseRequested}
	case "@resume":
		return event.Event{Kind: event.Resumed}
	case "@redraw":
		return event.Event{Kind: event.RedrawRequested}
	case "@suspend":
		return event.Event{Kind: event.Suspended}
	case "esc":
		token = event.KeyEscape
	}
	return event.Event{Kind: event.KeyboardInput, Key: token, State: event.Pressed}
}

// String renders the script in ParseScript syntax, ordered by wait number.
func (s Script) String() string {
	waits := make([]int, 0, len(s))
	for w := range s {
		waits = append(waits, w)
	}
	sort.Ints(waits)

	var parts []string
	for _, w := range waits {
		for _, ev := range s[w] {
			token := ev.Key
			switch ev.Kind {
			case event.WindowCloseRequested:
				token = "@close"
			case event.Resumed:
				token = "@resume"
			case event.RedrawRequested:
				token = "@redraw"
			case event.Suspended:
				token = "@suspend"
			}
			parts = append(parts, fmt.Sprintf("%d:%s", w, token))
		}
	}
	return strings.Join(parts, ",")
}
