package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle        State = "idle"
	StateListening   State = "listening"
	StateDispatching State = "dispatching"
	StateError       State = "error"
)

const (
	EventStart      Event = "start"
	EventFinal      Event = "final"
	EventDispatched Event = "dispatched"
	EventStop       Event = "stop"
	EventCancel     Event = "cancel"
	EventFail       Event = "fail"
	EventReset      Event = "reset"
)

// Transition returns the state a session enters after event. A session
// keeps listening between utterances: each final transcript passes
// through dispatching and returns to listening.
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
		case EventFinal:
			return StateDispatching, nil
		case EventStop:
			return StateIdle, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDispatching:
		switch event {
		case EventDispatched:
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
