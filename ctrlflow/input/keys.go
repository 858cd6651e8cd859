package input

import (
	"fmt"
	"sort"

	"github.com/valerio/go-ctrlflow/ctrlflow/event"
	"github.com/valerio/go-ctrlflow/ctrlflow/input/action"
)

// Keymap maps logical key names to actions. Key names are case sensitive.
type Keymap map[string]action.Action

// DefaultKeymap provides the default bindings shared by all backends.
var DefaultKeymap = Keymap{
	"1":             action.ModeWait,
	"2":             action.ModeWaitUntil,
	"3":             action.ModePoll,
	"r":             action.ToggleRedraw,
	event.KeyEscape: action.Close,
}

// Lookup returns the action bound to key, if any
func (k Keymap) Lookup(key string) (action.Action, bool) {
	act, ok := k[key]
	return act, ok
}

// Clone returns an independent copy of the keymap
func (k Keymap) Clone() Keymap {
	out := make(Keymap, len(k))
	for key, act := range k {
		out[key] = act
	}
	return out
}

// Merge returns a copy of k with the overrides applied.
// Overrides map key names to action names, as found in config files.
func (k Keymap) Merge(overrides map[string]string) (Keymap, error) {
	out := k.Clone()
	for key, name := range overrides {
		if key == "" {
			return nil, fmt.Errorf("empty key name bound to %q", name)
		}
		act, err := action.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("binding for key %q: %w", key, err)
		}
		out[key] = act
	}
	return out, nil
}

// HelpLines returns one instruction line per binding, ordered by action
// and then by key name.
func HelpLines(k Keymap) []string {
	keys := make([]string, 0, len(k))
	for key := range k {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if k[keys[i]] != k[keys[j]] {
			return k[keys[i]] < k[keys[j]]
		}
		return keys[i] < keys[j]
	})

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		label := fmt.Sprintf("'%s'", key)
		if len(key) > 1 {
			label = fmt.Sprintf("'%s'", abbreviate(key))
		}
		lines = append(lines, fmt.Sprintf("Press %s to %s.", label, action.GetInfo(k[key]).Description))
	}
	return lines
}

func abbreviate(key string) string {
	if key == event.KeyEscape {
		return "Esc"
	}
	return key
}
