package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/metrics"
	"github.com/hupe1980/schoolmate/model"
)

// Synthesizer turns invocation outcomes into the final answer.
type Synthesizer struct {
	model   model.Model
	timeout time.Duration
	logger  logging.Logger
	metrics *metrics.Metrics
}

// NewSynthesizer creates a synthesizer. timeout bounds the engine round-trip when positive.
func NewSynthesizer(m model.Model, timeout time.Duration, logger logging.Logger, mtr *metrics.Metrics) *Synthesizer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Synthesizer{model: m, timeout: timeout, logger: logger, metrics: mtr}
}

// Synthesize performs one round-trip. There is no fallback: a failed call
// or an empty answer is core.ErrServiceUnavailable.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, outcomes []InvocationOutcome) (string, error) {
	prompt, err := synthesisPrompt(query, outcomes)
	if err != nil {
		return "", fmt.Errorf("render synthesis prompt: %w", err)
	}

	resp, err := callModel(ctx, s.model, model.Request{
		Instructions: synthesisInstructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
	}, s.timeout, "synthesis", s.logger, s.metrics)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: synthesis returned no text", core.ErrServiceUnavailable)
	}
	return text, nil
}
