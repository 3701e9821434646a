// Package fsm defines the listener lifecycle: whether spoken tokens are
// currently accepted and matched.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StatePaused    State = "paused"
	StateError     State = "error"
)

const (
	EventStart  Event = "start"
	EventPause  Event = "pause"
	EventResume Event = "resume"
	EventStop   Event = "stop"
	EventFail   Event = "fail"
	EventReset  Event = "reset"
)

// Accepting reports whether tokens heard in s should be buffered.
func (s State) Accepting() bool {
	return s == StateListening
}

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventPause:
			return StatePaused, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePaused:
		switch event {
		case EventResume:
			return StateListening, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
