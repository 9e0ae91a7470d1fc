package planner

import (
	"fmt"

	"github.com/danieljhkim/debplan/internal/queue"
)

// Action is an executor operation.
type Action int

const (
	ActionInstall Action = iota
	ActionRemove
	ActionReinstall
	ActionUpgrade
	ActionDowngrade
)

func (a Action) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionRemove:
		return "remove"
	case ActionReinstall:
		return "reinstall"
	case ActionUpgrade:
		return "upgrade"
	case ActionDowngrade:
		return "downgrade"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	for _, c := range []Action{ActionInstall, ActionRemove, ActionReinstall, ActionUpgrade, ActionDowngrade} {
		if string(text) == c.String() {
			*a = c
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", text)
}

// ActionFor maps a queue to the action its entries perform. Pulled-in
// packages are plain installs. Conflict entries have no action.
func ActionFor(t queue.Type) (Action, bool) {
	switch t {
	case queue.Install, queue.Dependency, queue.Essential:
		return ActionInstall, true
	case queue.Remove:
		return ActionRemove, true
	case queue.Reinstall:
		return ActionReinstall, true
	case queue.Upgrade:
		return ActionUpgrade, true
	case queue.Downgrade:
		return ActionDowngrade, true
	case queue.Conflict:
		return 0, false
	}
	return 0, false
}
