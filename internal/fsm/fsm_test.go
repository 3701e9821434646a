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
	require.True(t, next.Accepting())

	next, err = Transition(next, EventPause)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)
	require.False(t, next.Accepting())

	next, err = Transition(next, EventResume)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateListening, StatePaused, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
		require.False(t, next.Accepting())
	}
}

func TestTransitionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle pause invalid", state: StateIdle, event: EventPause, want: StateIdle, wantErr: true},
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "listening start invalid", state: StateListening, event: EventStart, want: StateListening, wantErr: true},
		{name: "listening resume invalid", state: StateListening, event: EventResume, want: StateListening, wantErr: true},
		{name: "paused pause invalid", state: StatePaused, event: EventPause, want: StatePaused, wantErr: true},
		{name: "paused stop valid", state: StatePaused, event: EventStop, want: StateIdle},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "error resume invalid", state: StateError, event: EventResume, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
