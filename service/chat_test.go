package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatComplete(t *testing.T) {
	m := model.NewMockModel("gpt-4o-mini", "openai")
	m.EnqueueText("Photosynthesis turns light into chemical energy.")
	chat := NewChat(m)

	reply, err := chat.Complete(context.Background(), "  What is photosynthesis? ", []ChatMessage{
		{Role: "system", Content: "Answer for a 9th grader."},
		{Role: "user", Content: "Hi"},
		{Role: "assistant", Content: "Hello! How can I help?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis turns light into chemical energy.", reply.Response)
	assert.Equal(t, "OpenAI API", reply.Source)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Tools)
	require.Len(t, reqs[0].Contents, 4)
	roles := make([]string, 0, 4)
	for _, c := range reqs[0].Contents {
		roles = append(roles, c.Role)
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "What is photosynthesis?", reqs[0].Contents[3].Text())
}

func TestChatCompleteValidation(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	chat := NewChat(m)
	ctx := context.Background()

	tests := []struct {
		name    string
		prompt  string
		history []ChatMessage
	}{
		{"empty prompt", "   ", nil},
		{"too long", strings.Repeat("a", MaxChatPromptLength+1), nil},
		{"unknown role", "hi", []ChatMessage{{Role: "tool", Content: "x"}}},
		{"empty history content", "hi", []ChatMessage{{Role: "user", Content: " "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chat.Complete(ctx, tt.prompt, tt.history)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
	assert.Empty(t, m.Requests())

	m.EnqueueText("ok")
	_, err := chat.Complete(ctx, strings.Repeat("ä", MaxChatPromptLength), nil)
	assert.NoError(t, err)
}

func TestChatCompleteEngineFailure(t *testing.T) {
	m := model.NewMockModel("claude", "anthropic")
	chat := NewChat(m)

	m.EnqueueError(errors.New("overloaded"))
	_, err := chat.Complete(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)

	m.EnqueueText("  ")
	_, err = chat.Complete(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)

	m.EnqueueText("Hello")
	reply, err := chat.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Anthropic API", reply.Source)
}
