package speech

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageKnownCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No speech detected. Try again.", ErrorMessage(ErrNoSpeech))
	require.Equal(t, "Microphone access was denied. Check permissions.", ErrorMessage(ErrNotAllowed))
	require.Equal(t, "Voice recognition stopped.", ErrorMessage(ErrAborted))
}

func TestErrorMessageUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Voice recognition error occurred.", ErrorMessage("something-else"))
}

func TestNoopRecognizerStartsCleanly(t *testing.T) {
	t.Parallel()

	stop, err := NoopRecognizer{}.Start(context.Background(), Events{})
	require.NoError(t, err)
	require.NotPanics(t, stop)
	require.NotPanics(t, stop)
}

func TestRecognizerFuncAdapts(t *testing.T) {
	t.Parallel()

	var got string
	r := RecognizerFunc(func(_ context.Context, events Events) (func(), error) {
		events.OnFinal("add milk")
		return func() {}, nil
	})

	stop, err := r.Start(context.Background(), Events{OnFinal: func(text string) { got = text }})
	require.NoError(t, err)
	defer stop()
	require.Equal(t, "add milk", got)
}

func TestProbeRejectsEmptyEndpoint(t *testing.T) {
	t.Parallel()

	err := Probe(context.Background(), "   ", 0)
	require.Error(t, err)
}

func TestSpeakerDisabledWithoutCommand(t *testing.T) {
	t.Parallel()

	s := NewSpeaker(nil, "", true, nil)
	require.False(t, s.Enabled())
	require.False(t, s.Speak(context.Background(), "hello"))
}

func TestSpeakerRunsCommand(t *testing.T) {
	t.Parallel()

	s := NewSpeaker([]string{"cat"}, "", true, nil)
	require.True(t, s.Enabled())
	require.True(t, s.Speak(context.Background(), "hello"))

	s.SetEnabled(false)
	require.False(t, s.Speak(context.Background(), "hello"))
}

func TestSpeakerSkipsEmptyText(t *testing.T) {
	t.Parallel()

	s := NewSpeaker([]string{"cat"}, "", true, nil)
	require.False(t, s.Speak(context.Background(), ""))
}
