package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/model"
)

// MaxChatPromptLength bounds a direct chat prompt, counted in characters.
const MaxChatPromptLength = 500

const chatInstructions = "You are AI Schoolmate, a helpful and safe school assistant. Answer clearly and kindly."

// ChatMessage is one prior turn of a direct chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the engine answer to a direct chat prompt.
type ChatReply struct {
	Response string `json:"response"`
	Source   string `json:"source"`
}

// ChatOptions configures a Chat.
type ChatOptions struct {
	Timeout time.Duration
	Logger  logging.Logger
}

// Chat forwards free-form prompts straight to the reasoning engine without
// any capabilities.
type Chat struct {
	model   model.Model
	timeout time.Duration
	logger  logging.Logger
}

// NewChat creates a direct chat over m.
func NewChat(m model.Model, optFns ...func(o *ChatOptions)) *Chat {
	opts := ChatOptions{
		Timeout: 30 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Chat{model: m, timeout: opts.Timeout, logger: opts.Logger}
}

// Complete sends prompt after the prior turns in history. Roles are user,
// assistant or system.
func (c *Chat) Complete(ctx context.Context, prompt string, history []ChatMessage) (ChatReply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ChatReply{}, invalid("prompt is required")
	}
	if utf8.RuneCountInString(prompt) > MaxChatPromptLength {
		return ChatReply{}, invalid(fmt.Sprintf("prompt is too long, max %d characters", MaxChatPromptLength))
	}

	contents := make([]core.Content, 0, len(history)+1)
	for i, msg := range history {
		content, err := chatContent(msg)
		if err != nil {
			return ChatReply{}, fmt.Errorf("history[%d]: %w", i, err)
		}
		contents = append(contents, content)
	}
	contents = append(contents, core.NewUserContent(prompt))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := model.Collect(ctx, c.model, model.Request{
		Instructions: chatInstructions,
		Contents:     contents,
	})
	logging.LogModelCall(c.logger, "chat", c.model.Info().Name, resp.TotalTokens(), time.Since(start), err)
	if err != nil {
		return ChatReply{}, fmt.Errorf("%w: chat completion: %v", core.ErrServiceUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ChatReply{}, fmt.Errorf("%w: chat completion returned no text", core.ErrServiceUnavailable)
	}

	return ChatReply{Response: text, Source: chatSource(c.model.Info().Provider)}, nil
}

func chatContent(msg ChatMessage) (core.Content, error) {
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return core.Content{}, invalid("message content is required")
	}
	switch msg.Role {
	case "user":
		return core.NewUserContent(text), nil
	case "system":
		return core.NewSystemContent(text), nil
	case "assistant":
		return core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: text}}}, nil
	default:
		return core.Content{}, invalid(fmt.Sprintf("unknown role %q", msg.Role))
	}
}

func chatSource(provider string) string {
	switch provider {
	case "openai":
		return "OpenAI API"
	case "anthropic":
		return "Anthropic API"
	default:
		return provider
	}
}
