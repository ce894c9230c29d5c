package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/internal/testutil"
	"github.com/hupe1980/schoolmate/model"
)

func TestResolveInvocations(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.EnqueueResponse(testutil.NewResponseBuilder().
		Call(capability.PerformanceAnalytics, map[string]any{capability.SubjectParam: "S1"}).
		Call(capability.UpcomingEvents, nil).
		Usage(120, 30).
		Build())
	r := NewResolver(m, capability.DefaultRegistry(), 0, nil, nil)

	intent, err := r.Resolve(context.Background(), "How am I doing?", "S1")
	require.NoError(t, err)

	assert.Equal(t, IntentInvocations, intent.Kind)
	require.Len(t, intent.Invocations, 2)
	assert.Equal(t, capability.PerformanceAnalytics, intent.Invocations[0].Capability)
	assert.Equal(t, "S1", intent.Invocations[0].Arguments[capability.SubjectParam])
	assert.Empty(t, intent.Invocations[1].Arguments)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].Tools, 4)
	assert.Equal(t, intentInstructions, reqs[0].Instructions)
	assert.Contains(t, reqs[0].Contents[0].Text(), `The user asked: "How am I doing?"`)
	assert.Contains(t, reqs[0].Contents[0].Text(), "Student ID: S1.")
}

func TestResolveOmitsMissingSubject(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.EnqueueText("Hello!")
	r := NewResolver(m, capability.DefaultRegistry(), 0, nil, nil)

	intent, err := r.Resolve(context.Background(), "Hi", "")
	require.NoError(t, err)
	assert.Equal(t, IntentFreeText, intent.Kind)
	assert.Equal(t, "Hello!", intent.Text)
	assert.NotContains(t, m.Requests()[0].Contents[0].Text(), "Student ID")
}

func TestResolveNone(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.EnqueueText("   ")
	r := NewResolver(m, capability.DefaultRegistry(), 0, nil, nil)

	intent, err := r.Resolve(context.Background(), "Hi", "")
	require.NoError(t, err)
	assert.Equal(t, IntentNone, intent.Kind)
}

func TestResolveEngineFailure(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.EnqueueError(errors.New("connection reset"))
	r := NewResolver(m, capability.DefaultRegistry(), 0, nil, nil)

	_, err := r.Resolve(context.Background(), "Hi", "S1")
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)
}

func TestParseIntentMalformed(t *testing.T) {
	tests := []struct {
		name string
		fc   core.FunctionCall
	}{
		{name: "empty name", fc: core.FunctionCall{Name: " ", Arguments: "{}"}},
		{name: "invalid json", fc: core.FunctionCall{Name: "x", Arguments: "{not json"}},
		{name: "not an object", fc: core.FunctionCall{Name: "x", Arguments: `["a"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseIntent(testutil.NewResponseBuilder().RawCall(tt.fc.Name, tt.fc.Arguments).Build())
			assert.ErrorIs(t, err, ErrMalformedIntent)
			assert.ErrorIs(t, err, core.ErrServiceUnavailable)
		})
	}
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = decodeArguments("null")
	require.NoError(t, err)
	assert.NotNil(t, args)

	args, err = decodeArguments(`{"subject_id":"S1","n":2}`)
	require.NoError(t, err)
	assert.Equal(t, "S1", args["subject_id"])
	assert.InDelta(t, 2, args["n"], 0)
}
