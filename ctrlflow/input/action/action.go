package action

import (
	"fmt"
	"strings"
)

// Action represents a user command bound to a key
type Action int

const (
	// Control flow modes
	ModeWait Action = iota
	ModeWaitUntil
	ModePoll

	// Session controls
	ToggleRedraw
	Close
)

// Info describes an action for help output
type Info struct {
	Name        string
	Description string
}

var infos = map[Action]Info{
	ModeWait:      {Name: "wait", Description: "switch to Wait mode"},
	ModeWaitUntil: {Name: "wait-until", Description: "switch to WaitUntil mode"},
	ModePoll:      {Name: "poll", Description: "switch to Poll mode"},
	ToggleRedraw:  {Name: "toggle-redraw", Description: "toggle request_redraw() calls"},
	Close:         {Name: "close", Description: "close the window"},
}

// All lists every action in help order
var All = []Action{ModeWait, ModeWaitUntil, ModePoll, ToggleRedraw, Close}

// GetInfo returns the metadata for an action
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Name: fmt.Sprintf("action-%d", int(act)), Description: "unknown action"}
}

func (a Action) String() string {
	return GetInfo(a).Name
}

// Parse resolves an action by its name, case insensitively
func Parse(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, act := range All {
		if infos[act].Name == name {
			return act, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}
