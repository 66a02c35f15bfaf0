// Package fsm models the device-code authorization flow as a state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StatePending    State = "pending"
	StateAuthorized State = "authorized"
	StateFailed     State = "failed"
)

const (
	EventBegin     Event = "begin"
	EventIssued    Event = "issued"
	EventAuthorize Event = "authorize"
	EventFail      Event = "fail"
	EventReset     Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateFailed, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventBegin:
			return StateRequesting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRequesting:
		switch event {
		case EventIssued:
			return StatePending, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePending:
		switch event {
		case EventAuthorize:
			return StateAuthorized, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAuthorized:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFailed:
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
