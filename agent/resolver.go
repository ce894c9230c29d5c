package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/model"
)

// ErrMalformedIntent reports engine output that follows neither the tool
// calling format nor plain text. It is always wrapped with core.ErrServiceUnavailable.
var ErrMalformedIntent = errors.New("malformed intent")

// IntentKind discriminates Intent.
type IntentKind int

// Intent kinds.
const (
	// IntentNone means the engine returned neither text nor invocations.
	IntentNone IntentKind = iota
	// IntentFreeText means the engine answered directly.
	IntentFreeText
	// IntentInvocations means the engine requested one or more capabilities.
	IntentInvocations
)

func (k IntentKind) String() string {
	switch k {
	case IntentFreeText:
		return "free_text"
	case IntentInvocations:
		return "invocations"
	default:
		return "none"
	}
}

// Intent is the typed result of intent resolution.
type Intent struct {
	Kind        IntentKind
	Invocations []InvocationRequest
	Text        string
}

// Resolver asks the reasoning engine which capabilities answer a query.
type Resolver struct {
	model    model.Model
	registry *capability.Registry
	timeout  time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewResolver creates a resolver. timeout bounds the engine round-trip when positive.
func NewResolver(m model.Model, registry *capability.Registry, timeout time.Duration, logger logging.Logger, mtr *metrics.Metrics) *Resolver {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Resolver{model: m, registry: registry, timeout: timeout, logger: logger, metrics: mtr}
}

// Resolve performs one intent round-trip. Engine failures and malformed
// output are reported as core.ErrServiceUnavailable. Resolve never retries.
func (r *Resolver) Resolve(ctx context.Context, query, subjectID string) (Intent, error) {
	prompt, err := intentPrompt(query, subjectID)
	if err != nil {
		return Intent{}, fmt.Errorf("render intent prompt: %w", err)
	}

	req := model.Request{
		Instructions: intentInstructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
		Tools:        r.registry.ToolDefinitions(),
	}

	resp, err := callModel(ctx, r.model, req, r.timeout, "intent", r.logger, r.metrics)
	if err != nil {
		return Intent{}, err
	}

	return parseIntent(resp)
}

func parseIntent(resp model.Response) (Intent, error) {
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return Intent{Kind: IntentNone}, nil
		}
		return Intent{Kind: IntentFreeText, Text: resp.Text()}, nil
	}

	invs := make([]InvocationRequest, 0, len(calls))
	for _, fc := range calls {
		if strings.TrimSpace(fc.Name) == "" {
			return Intent{}, fmt.Errorf("%w: %w: tool call without name", core.ErrServiceUnavailable, ErrMalformedIntent)
		}
		args, err := decodeArguments(fc.Arguments)
		if err != nil {
			return Intent{}, fmt.Errorf("%w: %w: arguments of %s: %v", core.ErrServiceUnavailable, ErrMalformedIntent, fc.Name, err)
		}
		invs = append(invs, InvocationRequest{ID: fc.ID, Capability: fc.Name, Arguments: args})
	}
	return Intent{Kind: IntentInvocations, Invocations: invs, Text: resp.Text()}, nil
}

func decodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// callModel performs one bounded engine round-trip with logging and metrics.
// Any failure is wrapped with core.ErrServiceUnavailable.
func callModel(
	ctx context.Context,
	m model.Model,
	req model.Request,
	timeout time.Duration,
	phase string,
	logger logging.Logger,
	mtr *metrics.Metrics,
) (model.Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := model.Collect(ctx, m, req)
	logging.LogModelCall(logger, phase, m.Info().Name, resp.TotalTokens(), time.Since(start), err)
	mtr.ObserveModelCall(phase, err)
	if err != nil {
		return model.Response{}, fmt.Errorf("%w: %s call: %w", core.ErrServiceUnavailable, phase, err)
	}
	return resp, nil
}
