// Package stopmachine implements the three-state enforcement posture
// machine GREEN -> AMBER -> RED. RED is terminal and irreversible; backward
// and same-state transitions are forbidden.
package stopmachine

import (
	"fmt"

	wardenerrors "github.com/davidahmann/warden/core/errors"
)

// State is a posture of the stop machine.
type State int

const (
	Green State = 0
	Amber State = 1
	Red   State = 2
)

func (s State) String() string {
	switch s {
	case Green:
		return "GREEN"
	case Amber:
		return "AMBER"
	case Red:
		return "RED"
	}
	return fmt.Sprintf("STATE(%d)", int(s))
}

// Machine holds the current posture. The zero value starts at GREEN.
type Machine struct {
	state State
}

// State returns the current posture.
func (m *Machine) State() State {
	return m.state
}

// Advance moves forward one step: GREEN->AMBER->RED. Advancing from RED is
// an error.
func (m *Machine) Advance() error {
	if m.state == Red {
		return terminalStateError("cannot advance from RED: terminal state")
	}
	m.state++
	return nil
}

// TransitionTo jumps to target only when target is strictly ahead of the
// current posture.
func (m *Machine) TransitionTo(target State) error {
	if target != Green && target != Amber && target != Red {
		return terminalStateError(fmt.Sprintf("unknown target state %d", int(target)))
	}
	if target <= m.state {
		return terminalStateError(fmt.Sprintf(
			"cannot transition from %s to %s: backwards or same-state transitions are forbidden",
			m.state, target))
	}
	m.state = target
	return nil
}

// Reset returns the machine to GREEN. Forbidden once RED is reached.
func (m *Machine) Reset() error {
	if m.state == Red {
		return terminalStateError("cannot reset from RED: terminal state")
	}
	m.state = Green
	return nil
}

func terminalStateError(message string) error {
	return wardenerrors.Wrap(
		fmt.Errorf("%s", message),
		wardenerrors.CategoryInvalidInput,
		"forbidden_state_transition",
		"stop machine postures only move forward; RED is terminal",
		false,
	)
}
