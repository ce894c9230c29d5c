package openai

import (
	"testing"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/model"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParams_ToolsAndMessages(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.Model = "gpt-test"
	})
	req := model.Request{
		Instructions: "system prompt",
		Contents:     []core.Content{core.NewUserContent("hello")},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "get_performance_analytics",
				Description: "desc",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
	}

	params := m.buildParams(req)
	assert.Equal(t, "gpt-test", string(params.Model))
	assert.Len(t, params.Messages, 2)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "get_performance_analytics", params.Tools[0].Function.Name)
	assert.Equal(t, "openai", m.Info().Provider)
}

func TestConvertResponse(t *testing.T) {
	resp := &openai.ChatCompletion{
		ID: "cmpl-1",
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "tool_calls",
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCall{{
					ID: "call_1",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      "list_upcoming_events",
						Arguments: `{"type":"Olympiad"}`,
					},
				}},
			},
		}},
	}

	out := convertResponse(resp)
	calls := out.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, `{"type":"Olympiad"}`, calls[0].Arguments)
	assert.Equal(t, "", out.Text())
	assert.Equal(t, "tool_calls", out.FinishReason)
}
