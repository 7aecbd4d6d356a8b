// Package fsm is the drill's visible record/submit state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateInitializing State = "initializing"
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateSubmitting   State = "submitting"
	StateUnavailable  State = "unavailable"
)

const (
	EventReady       Event = "ready"
	EventUnavailable Event = "unavailable"
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventRated       Event = "rated"
)

// Transition returns the state reached by applying event to current.
// Invalid pairs return current unchanged plus an error.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateInitializing:
		switch event {
		case EventReady:
			return StateIdle, nil
		case EventUnavailable:
			return StateUnavailable, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateSubmitting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSubmitting:
		switch event {
		case EventRated:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUnavailable:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// CanRecord reports whether the record affordance should accept input.
func CanRecord(state State) bool {
	return state == StateIdle || state == StateRecording
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
