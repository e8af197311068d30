package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sessionWithPlan(plan string) *Session {
	s := NewSessionStore().Create()
	s.finishSubmit(plan, nil, nil)
	return s
}

func TestChat_Ask(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	gen.On("Generate", mock.Anything, "groq-key", BuildChatPrompt("## Dining\nCrepes", "Where to eat?")).
		Return("Try Le Comptoir.", nil)

	s := sessionWithPlan("## Dining\nCrepes")
	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{GroqAPIKey: "groq-key"}, "  Where to eat?  ")
	require.NoError(t, err)

	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "Where to eat?"},
		{Role: RoleAssistant, Content: "Try Le Comptoir."},
	}, view.Messages)
	assert.False(t, view.Chatting)
	gen.AssertExpectations(t)
}

func TestChat_BlankQuestionIsNoop(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	s := sessionWithPlan("plan")

	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{GroqAPIKey: "groq-key"}, "   ")
	require.NoError(t, err)
	assert.Empty(t, view.Messages)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_FailureAppendsApology(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	gen.On("Generate", mock.Anything, "groq-key", mock.Anything).
		Return("", &GenerationError{Vendor: "mock", Kind: ErrNetworkFailure})

	s := sessionWithPlan("plan")
	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{GroqAPIKey: "groq-key"}, "Is it safe?")
	require.NoError(t, err)

	require.Len(t, view.Messages, 2)
	assert.Equal(t, Message{Role: RoleAssistant, Content: ChatApology}, view.Messages[1])
}

func TestChat_MissingKeyAppendsApology(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	s := sessionWithPlan("plan")

	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{}, "Is it safe?")
	require.NoError(t, err)

	require.Len(t, view.Messages, 2)
	assert.Equal(t, ChatApology, view.Messages[1].Content)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_NoPlan(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	s := NewSessionStore().Create()

	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{GroqAPIKey: "groq-key"}, "Hello?")
	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Empty(t, view.Messages)
}

func TestChat_Busy(t *testing.T) {
	gen := newMockGenerator(GroqAPIKey)
	s := sessionWithPlan("plan")
	_, err := s.beginChat("first")
	require.NoError(t, err)

	view, err := NewChat(gen, nil).Ask(context.Background(), s, StaticCredentials{GroqAPIKey: "groq-key"}, "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, view.Messages, 1)
}

func TestBuildChatPrompt(t *testing.T) {
	assert.Equal(t,
		"You are a travel assistant. Based on this trip plan:\n\nPLAN\n\nUser question: Q?\n\nProvide a helpful response.",
		BuildChatPrompt("PLAN", "Q?"))
}
