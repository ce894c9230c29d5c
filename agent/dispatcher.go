package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
)

// Handler executes one capability and renders its result. Handlers should
// honour ctx; once it is done the dispatcher records a failed outcome without
// waiting for the handler to return.
type Handler interface {
	Handle(ctx context.Context, args map[string]any) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, args map[string]any) (string, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, args map[string]any) (string, error) {
	return f(ctx, args)
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	MaxParallel int           // <1 runs every invocation of a batch at once
	Timeout     time.Duration // per invocation, 0 disables
	Logger      logging.Logger
	Metrics     *metrics.Metrics
}

// Dispatcher executes reconciled invocations against a dispatch table.
type Dispatcher struct {
	registry *capability.Registry
	handlers map[string]Handler
	opts     DispatcherOptions
}

// NewDispatcher validates handlers against the registry: every registered
// capability needs a handler and every handler needs a registered capability.
func NewDispatcher(registry *capability.Registry, handlers map[string]Handler, optFns ...func(o *DispatcherOptions)) (*Dispatcher, error) {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var unregistered []string
	for name, h := range handlers {
		if _, ok := registry.Lookup(name); !ok {
			unregistered = append(unregistered, name)
		}
		if h == nil {
			return nil, fmt.Errorf("dispatcher: nil handler for %s", name)
		}
	}
	if len(unregistered) > 0 {
		sort.Strings(unregistered)
		return nil, fmt.Errorf("dispatcher: handlers for unregistered capabilities %v", unregistered)
	}
	for _, name := range registry.Names() {
		if _, ok := handlers[name]; !ok {
			return nil, fmt.Errorf("dispatcher: capability %s has no handler", name)
		}
	}

	table := make(map[string]Handler, len(handlers))
	for name, h := range handlers {
		table[name] = h
	}
	return &Dispatcher{registry: registry, handlers: table, opts: opts}, nil
}

// Dispatch runs invocations and returns one outcome per invocation in input
// order. A failing invocation never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, invs []InvocationRequest) []InvocationOutcome {
	outcomes := make([]InvocationOutcome, len(invs))
	if len(invs) == 0 {
		return outcomes
	}

	if len(invs) == 1 {
		outcomes[0] = d.execute(ctx, invs[0])
		return outcomes
	}

	limit := d.opts.MaxParallel
	if limit < 1 || limit > len(invs) {
		limit = len(invs)
	}

	batchStart := time.Now()
	var g errgroup.Group
	g.SetLimit(limit)
	for i, inv := range invs {
		g.Go(func() error {
			outcomes[i] = d.execute(ctx, inv)
			return nil
		})
	}
	_ = g.Wait()

	d.opts.Logger.Debug(
		"agent.capabilities.batch.complete",
		"run_id", runIDFrom(ctx),
		"count", len(invs),
		"parallelism", limit,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return outcomes
}

func (d *Dispatcher) execute(ctx context.Context, inv InvocationRequest) (out InvocationOutcome) {
	out.Capability = inv.Capability

	desc, ok := d.registry.Lookup(inv.Capability)
	if !ok {
		return failed(out, capability.NewError(inv.Capability, "capability is not registered", capability.CodeUnknown))
	}
	if err := capability.ValidateArguments(desc, inv.Arguments); err != nil {
		return failed(out, capability.NewError(inv.Capability, err.Error(), capability.CodeValidation))
	}
	if err := ctx.Err(); err != nil {
		return failed(out, capability.NewError(inv.Capability, err.Error(), capability.CodeExecution))
	}

	callCtx := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := d.call(ctx, callCtx, inv)
	dur := time.Since(start)

	logging.LogCapabilityCall(logging.With(d.opts.Logger, "run_id", runIDFrom(ctx)), inv.Capability, dur, err)
	d.opts.Metrics.ObserveCapability(inv.Capability, dur, err)

	if err != nil {
		return failed(out, capability.NewError(inv.Capability, err.Error(), capability.CodeExecution))
	}
	out.Succeeded = true
	out.Summary = summary
	return out
}

type handlerResult struct {
	summary string
	err     error
}

// call runs the handler in its own goroutine so that a handler ignoring
// callCtx cannot hold up the batch past its deadline.
func (d *Dispatcher) call(ctx, callCtx context.Context, inv InvocationRequest) (string, error) {
	done := make(chan handlerResult, 1)
	go func() {
		var res handlerResult
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("panic recovered: %v", r)
				d.opts.Logger.Error(
					"agent.capability.panic",
					"run_id", runIDFrom(ctx),
					"capability", inv.Capability,
					"recover", r,
					"stack", string(debug.Stack()),
				)
			}
			done <- res
		}()
		res.summary, res.err = d.handlers[inv.Capability].Handle(callCtx, inv.Arguments)
	}()

	select {
	case res := <-done:
		return res.summary, res.err
	case <-callCtx.Done():
		return "", fmt.Errorf("capability abandoned: %w", callCtx.Err())
	}
}

func failed(out InvocationOutcome, err *capability.Error) InvocationOutcome {
	out.Succeeded = false
	out.Err = err
	out.Error = err.Message
	return out
}
