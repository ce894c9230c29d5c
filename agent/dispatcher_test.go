package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
)

func testRegistry(t *testing.T, names ...string) *capability.Registry {
	t.Helper()
	descs := make([]capability.Descriptor, 0, len(names))
	for _, n := range names {
		descs = append(descs, capability.Descriptor{
			Name:        n,
			Description: n,
			Parameters: []capability.Parameter{
				{Name: "value", Type: "string"},
			},
		})
	}
	r, err := capability.NewRegistry(descs...)
	require.NoError(t, err)
	return r
}

func sleepHandler(d time.Duration, summary string) Handler {
	return HandlerFunc(func(ctx context.Context, _ map[string]any) (string, error) {
		select {
		case <-time.After(d):
			return summary, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func TestNewDispatcherValidatesHandlers(t *testing.T) {
	reg := testRegistry(t, "a", "b")
	ok := HandlerFunc(func(context.Context, map[string]any) (string, error) { return "", nil })

	_, err := NewDispatcher(reg, map[string]Handler{"a": ok})
	assert.ErrorContains(t, err, "b has no handler")

	_, err = NewDispatcher(reg, map[string]Handler{"a": ok, "b": ok, "c": ok})
	assert.ErrorContains(t, err, "unregistered capabilities [c]")

	_, err = NewDispatcher(reg, map[string]Handler{"a": ok, "b": nil})
	assert.ErrorContains(t, err, "nil handler")

	d, err := NewDispatcher(reg, map[string]Handler{"a": ok, "b": ok})
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestDispatchPreservesOrder(t *testing.T) {
	reg := testRegistry(t, "slow", "medium", "fast")
	d, err := NewDispatcher(reg, map[string]Handler{
		"slow":   sleepHandler(60*time.Millisecond, "slow"),
		"medium": sleepHandler(30*time.Millisecond, "medium"),
		"fast":   sleepHandler(0, "fast"),
	})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []InvocationRequest{
		{Capability: "slow"},
		{Capability: "medium"},
		{Capability: "fast"},
	})

	require.Len(t, outcomes, 3)
	for i, want := range []string{"slow", "medium", "fast"} {
		assert.Equal(t, want, outcomes[i].Capability)
		assert.True(t, outcomes[i].Succeeded)
		assert.Equal(t, want, outcomes[i].Summary)
	}
}

func TestDispatchRunsConcurrently(t *testing.T) {
	reg := testRegistry(t, "a", "b", "c")
	var running, peak atomic.Int32
	h := HandlerFunc(func(context.Context, map[string]any) (string, error) {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(40 * time.Millisecond)
		return "ok", nil
	})
	d, err := NewDispatcher(reg, map[string]Handler{"a": h, "b": h, "c": h}, func(o *DispatcherOptions) {
		o.MaxParallel = 2
	})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []InvocationRequest{
		{Capability: "a"}, {Capability: "b"}, {Capability: "c"},
	})
	require.Len(t, outcomes, 3)
	assert.Equal(t, int32(2), peak.Load())
}

func TestDispatchIsolatesFailures(t *testing.T) {
	reg := testRegistry(t, "ok", "boom", "panic")
	d, err := NewDispatcher(reg, map[string]Handler{
		"ok": sleepHandler(0, "fine"),
		"boom": HandlerFunc(func(context.Context, map[string]any) (string, error) {
			return "", errors.New("database unavailable")
		}),
		"panic": HandlerFunc(func(context.Context, map[string]any) (string, error) {
			panic("nil map")
		}),
	})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []InvocationRequest{
		{Capability: "boom"},
		{Capability: "ok"},
		{Capability: "panic"},
		{Capability: "missing"},
		{Capability: "ok", Arguments: map[string]any{"value": 7}},
	})
	require.Len(t, outcomes, 5)

	assert.False(t, outcomes[0].Succeeded)
	assert.Equal(t, "database unavailable", outcomes[0].Error)
	assert.ErrorIs(t, outcomes[0].Err, core.ErrCapabilityFailure)

	assert.True(t, outcomes[1].Succeeded)
	assert.Equal(t, "fine", outcomes[1].Summary)

	assert.False(t, outcomes[2].Succeeded)
	assert.Contains(t, outcomes[2].Error, "panic recovered: nil map")

	assert.False(t, outcomes[3].Succeeded)
	assert.ErrorIs(t, outcomes[3].Err, core.ErrUnknownCapability)
	var capErr *capability.Error
	require.ErrorAs(t, outcomes[3].Err, &capErr)
	assert.Equal(t, capability.CodeUnknown, capErr.Code)

	assert.False(t, outcomes[4].Succeeded)
	require.ErrorAs(t, outcomes[4].Err, &capErr)
	assert.Equal(t, capability.CodeValidation, capErr.Code)
}

func TestDispatchTimeout(t *testing.T) {
	reg := testRegistry(t, "slow", "fast")
	d, err := NewDispatcher(reg, map[string]Handler{
		"slow": sleepHandler(time.Second, "late"),
		"fast": sleepHandler(0, "fast"),
	}, func(o *DispatcherOptions) {
		o.Timeout = 20 * time.Millisecond
	})
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), []InvocationRequest{
		{Capability: "slow"},
		{Capability: "fast"},
	})
	assert.False(t, outcomes[0].Succeeded)
	assert.Contains(t, outcomes[0].Error, context.DeadlineExceeded.Error())
	assert.True(t, outcomes[1].Succeeded)
}

func TestDispatchTimeoutIgnoredByHandler(t *testing.T) {
	reg := testRegistry(t, "stuck", "fast")
	release := make(chan struct{})
	exited := make(chan struct{})
	d, err := NewDispatcher(reg, map[string]Handler{
		"stuck": HandlerFunc(func(context.Context, map[string]any) (string, error) {
			defer close(exited)
			<-release
			return "too late", nil
		}),
		"fast": sleepHandler(0, "fast"),
	}, func(o *DispatcherOptions) {
		o.Timeout = 20 * time.Millisecond
	})
	require.NoError(t, err)

	start := time.Now()
	outcomes := d.Dispatch(context.Background(), []InvocationRequest{
		{Capability: "stuck"},
		{Capability: "fast"},
	})
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, outcomes[0].Succeeded)
	assert.Contains(t, outcomes[0].Error, context.DeadlineExceeded.Error())
	assert.True(t, outcomes[1].Succeeded)

	close(release)
	<-exited
}

func TestDispatchCanceledContext(t *testing.T) {
	reg := testRegistry(t, "a")
	called := false
	d, err := NewDispatcher(reg, map[string]Handler{
		"a": HandlerFunc(func(context.Context, map[string]any) (string, error) {
			called = true
			return "", nil
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := d.Dispatch(ctx, []InvocationRequest{{Capability: "a"}})
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Succeeded)
	assert.False(t, called)
}

func TestDispatchEmpty(t *testing.T) {
	d, err := NewDispatcher(testRegistry(t), nil)
	require.NoError(t, err)
	assert.Empty(t, d.Dispatch(context.Background(), nil))
}
