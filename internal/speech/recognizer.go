// Package speech defines the recognition boundary: a transcript source,
// a readiness probe for the recognition backend, and spoken feedback.
package speech

import "context"

// Events receives recognition callbacks. Any callback may be nil.
type Events struct {
	OnInterim func(text string)
	OnFinal   func(text string)
	OnError   func(code string)
}

// Recognizer produces transcripts until stopped. Start returns a stop
// function that aborts recognition; calling it more than once is safe.
type Recognizer interface {
	Start(ctx context.Context, events Events) (stop func(), err error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, events Events) (func(), error)

func (f RecognizerFunc) Start(ctx context.Context, events Events) (func(), error) {
	return f(ctx, events)
}

// NoopRecognizer starts successfully and never produces transcripts.
type NoopRecognizer struct{}

func (NoopRecognizer) Start(context.Context, Events) (func(), error) {
	return func() {}, nil
}

// Recognition error codes.
const (
	ErrNoSpeech          = "no-speech"
	ErrNotAllowed        = "not-allowed"
	ErrServiceNotAllowed = "service-not-allowed"
	ErrAudioCapture      = "audio-capture"
	ErrNetwork           = "network"
	ErrAborted           = "aborted"
)

var errorMessages = map[string]string{
	ErrNoSpeech:          "No speech detected. Try again.",
	ErrNotAllowed:        "Microphone access was denied. Check permissions.",
	ErrServiceNotAllowed: "Microphone access was blocked. Check permissions.",
	ErrAudioCapture:      "No microphone detected. Connect one and retry.",
	ErrNetwork:           "Network error while using speech recognition.",
	ErrAborted:           "Voice recognition stopped.",
}

// ErrorMessage maps a recognition error code to a user-facing message.
// Unknown codes get a generic fallback.
func ErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Voice recognition error occurred."
}
