package session

import (
	"context"
	"errors"

	"voxcart/internal/list"
)

var (
	// ErrRecognizerUnavailable indicates no speech recognizer is wired.
	ErrRecognizerUnavailable = errors.New("speech recognizer not configured")
)

// Dispatcher applies one final transcript to the shopping list and
// returns the feedback the user should see or hear.
type Dispatcher interface {
	Dispatch(ctx context.Context, transcript string) (list.Feedback, error)
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(context.Context, string) (list.Feedback, error)

func (f DispatchFunc) Dispatch(ctx context.Context, transcript string) (list.Feedback, error) {
	return f(ctx, transcript)
}
