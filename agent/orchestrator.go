package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/model"
)

// Options configures an Orchestrator.
//
// Use functional options with New to override defaults.
type Options struct {
	MaxModelCalls     int           // engine round-trips per run, 0 = unlimited
	ModelTimeout      time.Duration // per engine round-trip
	CapabilityTimeout time.Duration // per capability invocation
	MaxParallel       int           // concurrent invocations per batch
	MismatchPolicy    MismatchPolicy
	MismatchHook      MismatchHook
	UnscopedPolicy    UnscopedPolicy
	Logger            logging.Logger
	Metrics           *metrics.Metrics
}

// Orchestrator runs the two-phase query protocol. It holds no per-run state
// and is safe for concurrent use.
type Orchestrator struct {
	model         model.Model
	registry      *capability.Registry
	resolver      *Resolver
	reconciler    *Reconciler
	dispatcher    *Dispatcher
	synthesizer   *Synthesizer
	maxModelCalls int
	modelTimeout  time.Duration
	logger        logging.Logger
	metrics       *metrics.Metrics
}

// New creates an orchestrator. The dispatch table is validated against the
// registry and a mismatch is reported as an error.
func New(m model.Model, registry *capability.Registry, handlers map[string]Handler, optFns ...func(o *Options)) (*Orchestrator, error) {
	if m == nil {
		return nil, errors.New("agent: model is required")
	}
	if registry == nil {
		return nil, errors.New("agent: registry is required")
	}

	opts := Options{
		MaxModelCalls:     2,
		ModelTimeout:      30 * time.Second,
		CapabilityTimeout: 10 * time.Second,
		MaxParallel:       4,
		MismatchPolicy:    MismatchOverride,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	dispatcher, err := NewDispatcher(registry, handlers, func(o *DispatcherOptions) {
		o.MaxParallel = opts.MaxParallel
		o.Timeout = opts.CapabilityTimeout
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		model:         m,
		registry:      registry,
		resolver:      NewResolver(m, registry, opts.ModelTimeout, opts.Logger, opts.Metrics),
		reconciler: NewReconciler(registry, func(o *ReconcilerOptions) {
			o.MismatchPolicy = opts.MismatchPolicy
			o.MismatchHook = opts.MismatchHook
			o.UnscopedPolicy = opts.UnscopedPolicy
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
		}),
		dispatcher:    dispatcher,
		synthesizer:   NewSynthesizer(m, opts.ModelTimeout, opts.Logger, opts.Metrics),
		maxModelCalls: opts.MaxModelCalls,
		modelTimeout:  opts.ModelTimeout,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}, nil
}

// Registry returns the capability registry the orchestrator advertises.
func (o *Orchestrator) Registry() *capability.Registry { return o.registry }

// run tracks the state machine of one orchestration.
type run struct {
	id      string
	state   State
	logger  logging.Logger
	limiter *core.ModelLimiter
}

func (r *run) transition(to State) {
	r.logger.Debug("agent.state", "from", r.state.String(), "to", to.String())
	r.state = to
}

// Run answers one query. Only core.ErrInvalidArgument, core.ErrServiceUnavailable
// and, under MismatchReject, core.ErrSubjectMismatch are returned as errors.
// A missing subject identifier yields a clarification answer with a nil error.
func (o *Orchestrator) Run(ctx context.Context, req OrchestrationRequest) (resp AgentResponse, err error) {
	r := &run{
		id:      uuid.NewString(),
		state:   StateStart,
		limiter: core.NewModelLimiter(o.maxModelCalls),
	}
	r.logger = logging.With(o.logger, "run_id", r.id)
	ctx = withRunID(ctx, r.id)

	start := time.Now()
	defer func() {
		if err != nil {
			r.transition(StateFailed)
			r.logger.Warn("agent.run.failed", "error", err.Error(), "model_calls", r.limiter.Count(), "duration_ms", time.Since(start).Milliseconds())
		} else {
			r.logger.Info("agent.run.completed", "state", r.state.String(), "model_calls", r.limiter.Count(), "duration_ms", time.Since(start).Milliseconds())
		}
		o.metrics.ObserveRun(r.state.String())
		resp.State = r.state
		resp.RunID = r.id
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return AgentResponse{}, fmt.Errorf("%w: query must not be empty", core.ErrInvalidArgument)
	}
	subjectID := strings.TrimSpace(req.SubjectID)

	r.transition(StateResolvingIntent)
	if err := r.limiter.Increment(); err != nil {
		return AgentResponse{}, err
	}
	intent, err := o.resolver.Resolve(ctx, query, subjectID)
	if err != nil {
		return AgentResponse{}, err
	}
	r.logger.Info("agent.intent.resolved", "kind", intent.Kind.String(), "invocations", len(intent.Invocations))

	if intent.Kind != IntentInvocations {
		r.transition(StateNoToolPath)
		text := intent.Text
		if intent.Kind == IntentNone {
			if text, err = o.direct(ctx, r, query); err != nil {
				return AgentResponse{}, err
			}
		}
		r.transition(StateDone)
		return AgentResponse{Text: text, Source: Source}, nil
	}

	r.transition(StateReconcilingArgs)
	invs, err := o.reconciler.ReconcileAll(ctx, intent.Invocations, subjectID)
	if err != nil {
		if errors.Is(err, core.ErrClarificationNeeded) {
			r.logger.Info("agent.clarification.needed", "reason", err.Error())
			r.transition(StateClarificationNeeded)
			return AgentResponse{Text: clarificationText, Source: Source}, nil
		}
		return AgentResponse{}, err
	}

	r.transition(StateDispatching)
	outcomes := o.dispatcher.Dispatch(ctx, invs)
	failures := 0
	for _, out := range outcomes {
		if !out.Succeeded {
			failures++
		}
	}
	r.logger.Info("agent.capabilities.dispatched", "count", len(outcomes), "failed", failures)

	r.transition(StateSynthesizing)
	if err := r.limiter.Increment(); err != nil {
		return AgentResponse{}, err
	}
	text, err := o.synthesizer.Synthesize(ctx, query, outcomes)
	if err != nil {
		return AgentResponse{}, err
	}

	r.transition(StateDone)
	return AgentResponse{Text: text, Source: Source}, nil
}

// direct answers the query without tools when the engine produced nothing.
func (o *Orchestrator) direct(ctx context.Context, r *run, query string) (string, error) {
	if err := r.limiter.Increment(); err != nil {
		return "", err
	}
	resp, err := callModel(ctx, o.model, model.Request{
		Instructions: directInstructions,
		Contents:     []core.Content{core.NewUserContent(query)},
	}, o.modelTimeout, "direct", r.logger, o.metrics)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text()) == "" {
		return "", fmt.Errorf("%w: direct completion returned no text", core.ErrServiceUnavailable)
	}
	return resp.Text(), nil
}
