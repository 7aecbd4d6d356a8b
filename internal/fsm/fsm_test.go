package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateInitializing

	next, err := Transition(s, EventReady)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)

	next, err = Transition(next, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateSubmitting, next)

	next, err = Transition(next, EventRated)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionInitializationFailureIsTerminal(t *testing.T) {
	next, err := Transition(StateInitializing, EventUnavailable)
	require.NoError(t, err)
	require.Equal(t, StateUnavailable, next)

	for _, event := range []Event{EventReady, EventUnavailable, EventStart, EventStop, EventRated} {
		got, err := Transition(StateUnavailable, event)
		require.Error(t, err)
		require.Equal(t, StateUnavailable, got)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "initializing start invalid", state: StateInitializing, event: EventStart},
		{name: "initializing rated invalid", state: StateInitializing, event: EventRated},
		{name: "idle stop invalid", state: StateIdle, event: EventStop},
		{name: "idle ready invalid", state: StateIdle, event: EventReady},
		{name: "idle rated invalid", state: StateIdle, event: EventRated},
		{name: "recording start invalid", state: StateRecording, event: EventStart},
		{name: "recording rated invalid", state: StateRecording, event: EventRated},
		{name: "submitting start invalid", state: StateSubmitting, event: EventStart},
		{name: "submitting stop invalid", state: StateSubmitting, event: EventStop},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestCanRecord(t *testing.T) {
	require.True(t, CanRecord(StateIdle))
	require.True(t, CanRecord(StateRecording))
	require.False(t, CanRecord(StateInitializing))
	require.False(t, CanRecord(StateSubmitting))
	require.False(t, CanRecord(StateUnavailable))
}
