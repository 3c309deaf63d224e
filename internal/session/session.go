// Package session coordinates voice-session lifecycle state, actions,
// and transcript dispatch.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voxcart/internal/fsm"
	"voxcart/internal/ipc"
	"voxcart/internal/list"
	"voxcart/internal/speech"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State        fsm.State
	Dispatched   int
	LastFeedback list.Feedback
	Cancelled    bool
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Controller owns one voice session: it keeps the recognizer running,
// dispatches each final transcript, and returns to listening until a
// stop or cancel arrives.
type Controller struct {
	logger     *slog.Logger
	recognizer speech.Recognizer
	dispatch   Dispatcher

	mu      sync.RWMutex
	state   fsm.State
	interim string

	actions chan action
	finals  chan string
	errs    chan string
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, recognizer speech.Recognizer, dispatcher Dispatcher) *Controller {
	if recognizer == nil {
		recognizer = speech.NoopRecognizer{}
	}
	if dispatcher == nil {
		dispatcher = DispatchFunc(func(context.Context, string) (list.Feedback, error) {
			return list.Feedback{}, nil
		})
	}

	return &Controller{
		logger:     logger,
		recognizer: recognizer,
		dispatch:   dispatcher,
		state:      fsm.StateIdle,
		actions:    make(chan action, 1),
		finals:     make(chan string, 8),
		errs:       make(chan string, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Interim returns the most recent partial transcript.
func (c *Controller) Interim() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interim
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) setInterim(text string) {
	c.mu.Lock()
	c.interim = text
	c.mu.Unlock()
}

// Run executes one session from start until stop, cancel, or failure.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	stop, err := c.recognizer.Start(ctx, speech.Events{
		OnInterim: c.setInterim,
		OnFinal: func(text string) {
			select {
			case c.finals <- text:
			default:
			}
		},
		OnError: func(code string) {
			select {
			case c.errs <- code:
			default:
			}
		},
	})
	if err != nil {
		c.toErrorAndReset()
		result.State = c.State()
		result.Err = fmt.Errorf("start recognizer: %w", err)
		result.FinishedAt = time.Now()
		return result
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			c.toErrorAndReset()
			result.State = c.State()
			result.Err = ctx.Err()
			result.FinishedAt = time.Now()
			return result

		case a := <-c.actions:
			switch a {
			case actionCancel:
				_ = c.transition(fsm.EventCancel)
				result.State = c.State()
				result.Cancelled = true
				result.FinishedAt = time.Now()
				return result
			case actionStop:
				_ = c.transition(fsm.EventStop)
				result.State = c.State()
				result.FinishedAt = time.Now()
				return result
			default:
				c.toErrorAndReset()
				result.State = c.State()
				result.Err = fmt.Errorf("unknown action %d", a)
				result.FinishedAt = time.Now()
				return result
			}

		case code := <-c.errs:
			if code == speech.ErrAborted {
				_ = c.transition(fsm.EventStop)
				result.State = c.State()
				result.FinishedAt = time.Now()
				return result
			}
			c.toErrorAndReset()
			result.State = c.State()
			result.Err = fmt.Errorf("recognition error: %s", speech.ErrorMessage(code))
			result.FinishedAt = time.Now()
			return result

		case transcript := <-c.finals:
			c.setInterim("")
			if strings.TrimSpace(transcript) == "" {
				continue
			}
			if err := c.transition(fsm.EventFinal); err != nil {
				continue
			}

			feedback, dispatchErr := c.dispatch.Dispatch(ctx, transcript)
			if dispatchErr != nil {
				c.toErrorAndReset()
				result.State = c.State()
				result.Err = dispatchErr
				result.FinishedAt = time.Now()
				return result
			}
			result.Dispatched++
			result.LastFeedback = feedback
			if c.logger != nil {
				c.logger.Info("dispatched transcript",
					"transcript", transcript,
					"feedback", feedback.Message,
					"severity", string(feedback.Severity))
			}
			_ = c.transition(fsm.EventDispatched)
		}
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case "toggle":
		return c.requestStop("toggle")
	case "stop":
		return c.requestStop("stop")
	case "cancel":
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// Inject feeds a transcript into the session as if the recognizer had
// finalized it.
func (c *Controller) Inject(transcript string) bool {
	select {
	case c.finals <- transcript:
		return true
	default:
		return false
	}
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state != fsm.StateListening && state != fsm.StateDispatching {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state != fsm.StateListening {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}
