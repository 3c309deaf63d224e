package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventFinal)
	require.NoError(t, err)
	require.Equal(t, StateDispatching, next)

	next, err = Transition(next, EventDispatched)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateListening, StateDispatching, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle final invalid", state: StateIdle, event: EventFinal, want: StateIdle, wantErr: true},
		{name: "listening start invalid", state: StateListening, event: EventStart, want: StateListening, wantErr: true},
		{name: "listening dispatched invalid", state: StateListening, event: EventDispatched, want: StateListening, wantErr: true},
		{name: "listening cancel valid", state: StateListening, event: EventCancel, want: StateIdle, wantErr: false},
		{name: "dispatching start invalid", state: StateDispatching, event: EventStart, want: StateDispatching, wantErr: true},
		{name: "dispatching cancel invalid", state: StateDispatching, event: EventCancel, want: StateDispatching, wantErr: true},
		{name: "dispatching stop valid", state: StateDispatching, event: EventStop, want: StateIdle, wantErr: false},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.state, tt.event)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, next)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	_, err := Transition(State("bogus"), EventStart)
	require.Error(t, err)
}
