package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxcart/internal/fsm"
	"voxcart/internal/ipc"
	"voxcart/internal/list"
	"voxcart/internal/speech"
)

// fakeRecognizer hands its event sinks back to the test so transcripts
// and errors can be injected at will.
type fakeRecognizer struct {
	mu       sync.Mutex
	events   speech.Events
	started  bool
	stopped  bool
	startErr error
}

func (f *fakeRecognizer) Start(_ context.Context, events speech.Events) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.events = events
	f.started = true
	return func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeRecognizer) emitFinal(text string) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	events.OnFinal(text)
}

func (f *fakeRecognizer) emitError(code string) {
	f.mu.Lock()
	events := f.events
	f.mu.Unlock()
	events.OnError(code)
}

// recordingDispatcher remembers every transcript it was handed.
type recordingDispatcher struct {
	mu          sync.Mutex
	transcripts []string
	err         error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, transcript string) (list.Feedback, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return list.Feedback{}, d.err
	}
	d.transcripts = append(d.transcripts, transcript)
	return list.Feedback{Message: "ok: " + transcript, Severity: list.SeveritySuccess}, nil
}

func (d *recordingDispatcher) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.transcripts))
	copy(out, d.transcripts)
	return out
}

func waitForState(t *testing.T, ctrl *Controller, want fsm.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ctrl.State() == want
	}, time.Second, time.Millisecond)
}

func TestRunDispatchesFinalsUntilStopped(t *testing.T) {
	recognizer := &fakeRecognizer{}
	dispatcher := &recordingDispatcher{}
	ctrl := NewController(nil, recognizer, dispatcher)

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	recognizer.emitFinal("add milk")
	recognizer.emitFinal("add bread")
	require.Eventually(t, func() bool {
		return len(dispatcher.seen()) == 2
	}, time.Second, time.Millisecond)

	resp := ctrl.Handle(context.Background(), ipc.Request{Command: "stop"})
	require.True(t, resp.OK)

	result := <-done
	require.NoError(t, result.Err)
	require.False(t, result.Cancelled)
	require.Equal(t, fsm.StateIdle, result.State)
	require.Equal(t, 2, result.Dispatched)
	require.Equal(t, "ok: add bread", result.LastFeedback.Message)
	require.Equal(t, []string{"add milk", "add bread"}, dispatcher.seen())
	require.True(t, recognizer.stopped)
}

func TestRunSkipsBlankFinals(t *testing.T) {
	recognizer := &fakeRecognizer{}
	dispatcher := &recordingDispatcher{}
	ctrl := NewController(nil, recognizer, dispatcher)

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	recognizer.emitFinal("   ")
	recognizer.emitFinal("add eggs")
	require.Eventually(t, func() bool {
		return len(dispatcher.seen()) == 1
	}, time.Second, time.Millisecond)

	ctrl.Handle(context.Background(), ipc.Request{Command: "stop"})
	result := <-done
	require.Equal(t, 1, result.Dispatched)
}

func TestRunCancel(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, &recordingDispatcher{})

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	resp := ctrl.Handle(context.Background(), ipc.Request{Command: "cancel"})
	require.True(t, resp.OK)

	result := <-done
	require.True(t, result.Cancelled)
	require.Equal(t, fsm.StateIdle, result.State)
}

func TestRunStartFailure(t *testing.T) {
	recognizer := &fakeRecognizer{startErr: errors.New("start failed")}
	ctrl := NewController(nil, recognizer, &recordingDispatcher{})

	result := ctrl.Run(context.Background())
	require.Error(t, result.Err)
	require.Equal(t, fsm.StateIdle, result.State)
	require.NotZero(t, result.FinishedAt)
}

func TestRunRecognitionErrorEndsSession(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, &recordingDispatcher{})

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	recognizer.emitError(speech.ErrNotAllowed)
	result := <-done
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "Microphone access was denied")
}

func TestRunAbortedCodeStopsCleanly(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, &recordingDispatcher{})

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	recognizer.emitError(speech.ErrAborted)
	result := <-done
	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateIdle, result.State)
}

func TestRunDispatchErrorEndsSession(t *testing.T) {
	recognizer := &fakeRecognizer{}
	dispatcher := &recordingDispatcher{err: errors.New("store exploded")}
	ctrl := NewController(nil, recognizer, dispatcher)

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	recognizer.emitFinal("add milk")
	result := <-done
	require.Error(t, result.Err)
	require.Equal(t, fsm.StateIdle, result.State)
}

func TestRunContextCancellation(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, &recordingDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(ctx) }()
	waitForState(t, ctrl, fsm.StateListening)

	cancel()
	result := <-done
	require.ErrorIs(t, result.Err, context.Canceled)
}

func TestInjectFeedsFinalsQueue(t *testing.T) {
	recognizer := &fakeRecognizer{}
	dispatcher := &recordingDispatcher{}
	ctrl := NewController(nil, recognizer, dispatcher)

	done := make(chan Result, 1)
	go func() { done <- ctrl.Run(context.Background()) }()
	waitForState(t, ctrl, fsm.StateListening)

	require.True(t, ctrl.Inject("delete milk"))
	require.Eventually(t, func() bool {
		return len(dispatcher.seen()) == 1
	}, time.Second, time.Millisecond)

	ctrl.Handle(context.Background(), ipc.Request{Command: "stop"})
	<-done
}

func TestHandleStatusAndUnknownCommand(t *testing.T) {
	ctrl := NewController(nil, &fakeRecognizer{}, nil)

	status := ctrl.Handle(context.Background(), ipc.Request{Command: "status"})
	require.True(t, status.OK)
	require.Equal(t, string(fsm.StateIdle), status.State)

	unknown := ctrl.Handle(context.Background(), ipc.Request{Command: "definitely-unknown"})
	require.False(t, unknown.OK)
	require.Contains(t, unknown.Error, "unknown command")
}

func TestRequestStopAndCancelStateGuards(t *testing.T) {
	ctrl := NewController(nil, &fakeRecognizer{}, nil)

	stopFromIdle := ctrl.Handle(context.Background(), ipc.Request{Command: "stop"})
	require.False(t, stopFromIdle.OK)
	require.Contains(t, stopFromIdle.Error, "cannot stop from state idle")

	cancelFromIdle := ctrl.Handle(context.Background(), ipc.Request{Command: "cancel"})
	require.False(t, cancelFromIdle.OK)
	require.Contains(t, cancelFromIdle.Error, "cannot cancel from state idle")
}

func TestRequestStopAndCancelAlreadyRequested(t *testing.T) {
	ctrl := NewController(nil, &fakeRecognizer{}, nil)

	ctrl.mu.Lock()
	ctrl.state = fsm.StateListening
	ctrl.mu.Unlock()

	ctrl.actions <- actionStop
	stop := ctrl.requestStop("stop")
	require.True(t, stop.OK)
	require.Equal(t, "stop already requested", stop.Message)

	<-ctrl.actions
	ctrl.actions <- actionCancel
	cancel := ctrl.requestCancel()
	require.True(t, cancel.OK)
	require.Equal(t, "cancel already requested", cancel.Message)
}
