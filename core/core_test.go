package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelLimiter(t *testing.T) {
	ml := NewModelLimiter(2)
	assert.Equal(t, 0, ml.Count())

	assert.NoError(t, ml.Increment())
	assert.NoError(t, ml.Increment())
	assert.Equal(t, 2, ml.Count())

	err := ml.Increment()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.Equal(t, 2, ml.Count())
}

func TestModelLimiter_Unlimited(t *testing.T) {
	ml := NewModelLimiter(0)
	for i := 0; i < 10; i++ {
		assert.NoError(t, ml.Increment())
	}
	assert.Equal(t, 10, ml.Count())
}

func TestContent_TextAndCalls(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "a"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "x"}},
		TextPart{Text: "b"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "y"}},
	}}

	assert.Equal(t, "ab", c.Text())
	calls := c.FunctionCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "x", calls[0].Name)
	assert.Equal(t, "y", calls[1].Name)

	assert.Equal(t, "user", NewUserContent("hi").Role)
	assert.Equal(t, "system", NewSystemContent("hi").Role)
}
