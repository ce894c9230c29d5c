package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
)

// MismatchPolicy decides what happens when the engine names a different
// subject than the caller.
type MismatchPolicy int

const (
	// MismatchOverride replaces the engine's subject with the caller's and continues.
	MismatchOverride MismatchPolicy = iota
	// MismatchReject aborts the run with core.ErrSubjectMismatch.
	MismatchReject
)

func (p MismatchPolicy) String() string {
	if p == MismatchReject {
		return "reject"
	}
	return "override"
}

// ParseMismatchPolicy parses "override" or "reject".
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "override":
		return MismatchOverride, nil
	case "reject":
		return MismatchReject, nil
	default:
		return MismatchOverride, fmt.Errorf("unknown subject mismatch policy %q", s)
	}
}

// UnscopedPolicy decides what happens when the engine names a subject but
// the caller supplied none.
type UnscopedPolicy int

const (
	// UnscopedPassThrough forwards the engine's subject unchanged.
	UnscopedPassThrough UnscopedPolicy = iota
	// UnscopedClarify asks the caller to identify the student instead.
	UnscopedClarify
)

func (p UnscopedPolicy) String() string {
	if p == UnscopedClarify {
		return "clarify"
	}
	return "passthrough"
}

// ParseUnscopedPolicy parses "passthrough" or "clarify".
func ParseUnscopedPolicy(s string) (UnscopedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return UnscopedPassThrough, nil
	case "clarify":
		return UnscopedClarify, nil
	default:
		return UnscopedPassThrough, fmt.Errorf("unknown unscoped subject policy %q", s)
	}
}

// MismatchEvent describes an engine supplied subject that differs from the caller's.
type MismatchEvent struct {
	RunID            string
	Capability       string
	EngineSubjectID  string
	TrustedSubjectID string
	Policy           MismatchPolicy
}

// MismatchHook is notified of every mismatch, e.g. for auditing.
type MismatchHook func(ctx context.Context, ev MismatchEvent)

// ReconcilerOptions configures a Reconciler.
type ReconcilerOptions struct {
	MismatchPolicy MismatchPolicy
	MismatchHook   MismatchHook
	UnscopedPolicy UnscopedPolicy
	Logger         logging.Logger
	Metrics        *metrics.Metrics
}

// Reconciler enforces identity scoping on engine supplied arguments.
type Reconciler struct {
	registry *capability.Registry
	policy   MismatchPolicy
	hook     MismatchHook
	unscoped UnscopedPolicy
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewReconciler creates a reconciler.
func NewReconciler(registry *capability.Registry, optFns ...func(o *ReconcilerOptions)) *Reconciler {
	opts := ReconcilerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Reconciler{
		registry: registry,
		policy:   opts.MismatchPolicy,
		hook:     opts.MismatchHook,
		unscoped: opts.UnscopedPolicy,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Reconcile applies the scoping rules to one invocation, in priority order:
//  1. engine and caller subjects differ: the caller's wins (or the run is
//     rejected under MismatchReject);
//  2. the capability requires a subject and nobody supplied one:
//     core.ErrClarificationNeeded;
//  3. the capability requires a subject only the caller supplied: it is inserted;
//  4. otherwise the invocation passes through. An engine subject without a
//     caller subject passes through too, unless UnscopedClarify asks for
//     clarification instead.
//
// The input arguments are never mutated.
func (r *Reconciler) Reconcile(ctx context.Context, inv InvocationRequest, trustedSubjectID string) (InvocationRequest, error) {
	args := make(map[string]any, len(inv.Arguments)+1)
	for k, v := range inv.Arguments {
		args[k] = v
	}
	out := InvocationRequest{ID: inv.ID, Capability: inv.Capability, Arguments: args}

	engineID, engineSet := subjectArg(inv.Arguments)
	trusted := strings.TrimSpace(trustedSubjectID)

	if engineSet && trusted != "" && engineID != trusted {
		ev := MismatchEvent{
			RunID:            runIDFrom(ctx),
			Capability:       inv.Capability,
			EngineSubjectID:  engineID,
			TrustedSubjectID: trusted,
			Policy:           r.policy,
		}
		r.logger.Warn(
			"agent.reconcile.subject_mismatch",
			"run_id", ev.RunID,
			"capability", inv.Capability,
			"engine_subject_id", engineID,
			"trusted_subject_id", trusted,
			"policy", r.policy.String(),
		)
		if r.hook != nil {
			r.hook(ctx, ev)
		}
		if r.policy == MismatchReject {
			return InvocationRequest{}, fmt.Errorf("%w: capability %s", core.ErrSubjectMismatch, inv.Capability)
		}
		r.metrics.ObserveSubjectOverride()
		args[capability.SubjectParam] = trusted
		return out, nil
	}

	if engineSet {
		if trusted != "" {
			args[capability.SubjectParam] = trusted
			return out, nil
		}
		if r.unscoped == UnscopedClarify {
			r.logger.Info("agent.reconcile.unscoped_subject", "run_id", runIDFrom(ctx), "capability", inv.Capability, "engine_subject_id", engineID)
			return InvocationRequest{}, fmt.Errorf("%w: capability %s names a student the caller did not", core.ErrClarificationNeeded, inv.Capability)
		}
		return out, nil
	}

	desc, known := r.registry.Lookup(inv.Capability)
	if !known || !desc.RequiresSubject() {
		return out, nil
	}

	if trusted == "" {
		return InvocationRequest{}, fmt.Errorf("%w: capability %s requires %s", core.ErrClarificationNeeded, inv.Capability, capability.SubjectParam)
	}

	args[capability.SubjectParam] = trusted
	r.logger.Debug("agent.reconcile.subject_inserted", "run_id", runIDFrom(ctx), "capability", inv.Capability)
	return out, nil
}

// ReconcileAll reconciles a batch. The first clarification or rejection
// aborts the whole batch so no capability runs.
func (r *Reconciler) ReconcileAll(ctx context.Context, invs []InvocationRequest, trustedSubjectID string) ([]InvocationRequest, error) {
	out := make([]InvocationRequest, 0, len(invs))
	for _, inv := range invs {
		rec, err := r.Reconcile(ctx, inv, trustedSubjectID)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// subjectArg returns the engine supplied subject id, if any.
func subjectArg(args map[string]any) (string, bool) {
	v, ok := args[capability.SubjectParam]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
