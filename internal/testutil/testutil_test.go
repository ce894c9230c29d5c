package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmate/storage"
	"github.com/hupe1980/schoolmate/storage/memory"
)

func TestResponseBuilder(t *testing.T) {
	resp := NewResponseBuilder().
		Text("thinking").
		Call("get_performance_analytics", map[string]any{"subject_id": "s1"}).
		RawCall("list_upcoming_events", "").
		Usage(10, 5).
		Build()

	assert.Equal(t, "thinking", resp.Text())
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 15, resp.TotalTokens())
	calls := resp.FunctionCalls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"subject_id":"s1"}`, calls[0].Arguments)
	assert.Empty(t, calls[1].Arguments)

	assert.Equal(t, "stop", NewResponseBuilder().Text("hi").Build().FinishReason)
	assert.Equal(t, "length", NewResponseBuilder().Text("hi").Finish("length").Build().FinishReason)
}

func TestSchoolBuilder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	err := NewSchoolBuilder().
		Student("s1", "Aida", "10A").
		Grade("s1", "Math", "Fractions", 50, "2026-09-01").
		Grade("s1", "Math", "Algebra", 70, "2026-09-02").
		Event("Olympiad", "olympiad", "2026-11-20").
		Exam("s1", 80, 86, "2026-10-01").
		Seed(ctx, store)
	require.NoError(t, err)

	grades, err := store.ListGrades(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, grades, 2)

	events, err := store.ListEvents(ctx, storage.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	err = NewSchoolBuilder().Grade("missing", "Math", "", 50, "2026-09-01").Seed(ctx, store)
	assert.Error(t, err)

	assert.Panics(t, func() { Date("01.09.2026") })
}
