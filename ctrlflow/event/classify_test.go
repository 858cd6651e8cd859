package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		event    Event
		expected Category
	}{
		{"first iteration", Start(now, Init, time.Time{}), IterationStart},
		{"deadline elapsed", Start(now, ResumeTimeReached, now), IterationStart},
		{"woken early", Start(now, WaitCancelled, now.Add(time.Second)), IterationStart},
		{"poll", Start(now, Poll, time.Time{}), IterationStart},
		{"resumed", Of(now, Resumed), SurfaceReady},
		{"close", Of(now, WindowCloseRequested), CloseRequested},
		{"key press", Key(now, "1"), KeyPressed},
		{"key release is ignored", KeyUp(now, "1"), Other},
		{"key repeat is ignored", Event{Time: now, Kind: KeyboardInput, Key: "r", Repeat: true}, Other},
		{"redraw", Of(now, RedrawRequested), Redraw},
		{"about to wait", Of(now, AboutToWait), IterationEnd},
		{"resize", Of(now, Resized), Other},
		{"focus", Of(now, Focused), Other},
		{"suspended", Of(now, Suspended), Other},
		{"loop exiting", Of(now, LoopExiting), Other},
		{"unknown", Event{}, Other},
		{"out of range kind", Event{Kind: Kind(99)}, Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.event))
		})
	}
}

func TestEventString(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "NewEvents(Init)", Start(now, Init, time.Time{}).String())
	assert.Equal(t, "NewEvents(WaitCancelled, deadline=12:00:00.100)",
		Start(now, WaitCancelled, now.Add(100*time.Millisecond)).String())
	assert.Equal(t, `KeyboardInput("r", Pressed)`, Key(now, "r").String())
	assert.Equal(t, `KeyboardInput("Escape", Released)`, KeyUp(now, KeyEscape).String())
	assert.Equal(t, "AboutToWait", Of(now, AboutToWait).String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
