package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		expected Route
	}{
		{"Hi", RouteGreeting},
		{" hi ", RouteGreeting},
		{"HI", RouteGreeting},
		{"hello", RouteGreeting},
		{"\tHey\n", RouteGreeting},
		{"yo", RouteGreeting},
		{"bye", RouteExit},
		{"Thank You", RouteExit},
		{"  QUIT", RouteExit},
		{"great,bye", RouteExit},
		{"hi there", RouteRAG},
		{"What time must employees clock in?", RouteRAG},
		{"", RouteRAG},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.input))
		})
	}
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "thank you", NormalizeInput("  Thank YOU \n"))
}

func TestRoute_State(t *testing.T) {
	assert.Equal(t, StateGreeting, RouteGreeting.State())
	assert.Equal(t, StateExit, RouteExit.State())
	assert.Equal(t, StateRAG, RouteRAG.State())
	assert.Equal(t, StateEnded, RouteEnded.State())
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession("s1")
	assert.Equal(t, StateAwaitingInput, s.State())
	assert.False(t, s.Ended())

	require.NoError(t, s.Transition(StateClassifying))
	require.NoError(t, s.Transition(StateRAG))
	require.NoError(t, s.Transition(StateAwaitingInput))

	require.NoError(t, s.Transition(StateClassifying))
	require.NoError(t, s.Transition(StateExit))
	require.NoError(t, s.Transition(StateEnded))
	assert.True(t, s.Ended())

	err := s.Transition(StateClassifying)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, s.Ended())
}

func TestSession_IllegalTransition(t *testing.T) {
	s := NewSession("s1")

	err := s.Transition(StateRAG)

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, StateAwaitingInput, s.State())
}

func TestSession_HistoryAndReset(t *testing.T) {
	s := NewSession("s1")
	s.Append(RoleUser, "hi")
	s.Append(RoleAssistant, "hello")

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "hi"}, history[0])

	// Returned history is a copy
	history[0].Content = "changed"
	assert.Equal(t, "hi", s.History()[0].Content)

	require.NoError(t, s.Transition(StateClassifying))
	require.NoError(t, s.Transition(StateExit))
	require.NoError(t, s.Transition(StateEnded))

	s.Reset()
	assert.Equal(t, StateAwaitingInput, s.State())
	assert.Empty(t, s.History())
}

func TestReply_Failed(t *testing.T) {
	assert.False(t, Reply{Route: RouteRAG}.Failed())
	assert.True(t, Reply{Route: RouteRAG, Failure: FailureGeneration}.Failed())
}
