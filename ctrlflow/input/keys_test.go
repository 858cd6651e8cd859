package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/input/action"
)

func TestDefaultKeymap(t *testing.T) {
	tests := []struct {
		key      string
		expected action.Action
		bound    bool
	}{
		{"1", action.ModeWait, true},
		{"2", action.ModeWaitUntil, true},
		{"3", action.ModePoll, true},
		{"r", action.ToggleRedraw, true},
		{event.KeyEscape, action.Close, true},
		{"R", 0, false},
		{"4", 0, false},
		{"q", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			act, ok := DefaultKeymap.Lookup(tt.key)
			assert.Equal(t, tt.bound, ok)
			if tt.bound {
				assert.Equal(t, tt.expected, act)
			}
		})
	}
}

func TestKeymapMerge(t *testing.T) {
	merged, err := DefaultKeymap.Merge(map[string]string{
		"q": "close",
		"p": "poll",
	})
	require.NoError(t, err)

	act, ok := merged.Lookup("q")
	assert.True(t, ok)
	assert.Equal(t, action.Close, act)

	act, ok = merged.Lookup("3")
	assert.True(t, ok, "existing bindings are kept")
	assert.Equal(t, action.ModePoll, act)

	_, ok = DefaultKeymap.Lookup("q")
	assert.False(t, ok, "merge must not modify the receiver")

	_, err = DefaultKeymap.Merge(map[string]string{"x": "explode"})
	assert.Error(t, err)

	_, err = DefaultKeymap.Merge(map[string]string{"": "close"})
	assert.Error(t, err)
}

func TestHelpLines(t *testing.T) {
	assert.Equal(t, []string{
		"Press '1' to switch to Wait mode.",
		"Press '2' to switch to WaitUntil mode.",
		"Press '3' to switch to Poll mode.",
		"Press 'r' to toggle request_redraw() calls.",
		"Press 'Esc' to close the window.",
	}, HelpLines(DefaultKeymap))
}
