package testutil

import (
	"encoding/json"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/model"
)

// ResponseBuilder provides a fluent helper for constructing engine responses in tests.
// Example:
//
//	resp := NewResponseBuilder().Call("get_performance_analytics", nil).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type ResponseBuilder struct {
	id     string
	texts  []string
	calls  []core.FunctionCall
	finish string
	usage  *model.TokenUsage
}

// NewResponseBuilder creates an empty assistant response builder.
func NewResponseBuilder() *ResponseBuilder { return &ResponseBuilder{} }

// ID sets the provider response id (chainable).
func (b *ResponseBuilder) ID(id string) *ResponseBuilder { b.id = id; return b }

// Text appends an assistant text part (chainable).
func (b *ResponseBuilder) Text(t string) *ResponseBuilder {
	b.texts = append(b.texts, t)
	return b
}

// Call appends a function call whose arguments are args encoded as JSON (chainable).
// A nil map produces an empty argument object.
func (b *ResponseBuilder) Call(name string, args map[string]any) *ResponseBuilder {
	raw := "{}"
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			panic(err)
		}
		raw = string(data)
	}
	return b.RawCall(name, raw)
}

// RawCall appends a function call with a verbatim argument string (chainable).
func (b *ResponseBuilder) RawCall(name, args string) *ResponseBuilder {
	b.calls = append(b.calls, core.FunctionCall{
		ID:        "call_" + name,
		Name:      name,
		Arguments: args,
	})
	return b
}

// Finish overrides the finish reason (chainable).
func (b *ResponseBuilder) Finish(reason string) *ResponseBuilder { b.finish = reason; return b }

// Usage sets token usage (chainable).
func (b *ResponseBuilder) Usage(prompt, completion int) *ResponseBuilder {
	b.usage = &model.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
	return b
}

// Build constructs the final (non-partial) model.Response.
func (b *ResponseBuilder) Build() model.Response {
	parts := make([]core.Part, 0, len(b.texts)+len(b.calls))
	for _, t := range b.texts {
		parts = append(parts, core.TextPart{Text: t})
	}
	for _, fc := range b.calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}

	finish := "stop"
	if len(b.calls) > 0 {
		finish = "tool_calls"
	}
	if b.finish != "" {
		finish = b.finish
	}

	return model.Response{
		ID:           b.id,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finish,
		Usage:        b.usage,
	}
}
