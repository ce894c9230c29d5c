package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schoolmate/agent"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "schoolmate.db", cfg.DBPath)
	assert.Equal(t, ProviderOpenAI, cfg.ModelProvider)
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 10*time.Second, cfg.CapabilityTimeout)
	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, uint(3), cfg.ModelRetries)
	assert.Equal(t, agent.MismatchOverride, cfg.MismatchPolicy())
	assert.Equal(t, agent.UnscopedPassThrough, cfg.UnscopedPolicy())
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"SCHOOLMATE_ADDR":             ":8080",
		"SCHOOLMATE_MODEL_PROVIDER":   "Anthropic",
		"ANTHROPIC_API_KEY":           "sk-ant",
		"OPENAI_API_KEY":              "sk-openai",
		"SCHOOLMATE_MODEL_TIMEOUT":    "5s",
		"SCHOOLMATE_MAX_PARALLEL":     "2",
		"SCHOOLMATE_SUBJECT_MISMATCH": "reject",
		"SCHOOLMATE_UNSCOPED_SUBJECT": "clarify",
		"SCHOOLMATE_REDIS_URL":        "redis://localhost:6379/0",
		"SCHOOLMATE_LOG_LEVEL":        "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ProviderAnthropic, cfg.ModelProvider)
	assert.Equal(t, "sk-ant", cfg.APIKey())
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, agent.MismatchReject, cfg.MismatchPolicy())
	assert.Equal(t, agent.UnscopedClarify, cfg.UnscopedPolicy())
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{name: "provider", vars: map[string]string{"SCHOOLMATE_MODEL_PROVIDER": "llama"}, want: "unsupported model provider"},
		{name: "policy", vars: map[string]string{"SCHOOLMATE_SUBJECT_MISMATCH": "ignore"}, want: "mismatch policy"},
		{name: "unscoped", vars: map[string]string{"SCHOOLMATE_UNSCOPED_SUBJECT": "trust"}, want: "unscoped subject policy"},
		{name: "parallel", vars: map[string]string{"SCHOOLMATE_MAX_PARALLEL": "0"}, want: "max parallel"},
		{name: "timeout", vars: map[string]string{"SCHOOLMATE_MODEL_TIMEOUT": "-1s"}, want: "model timeout"},
		{name: "level", vars: map[string]string{"SCHOOLMATE_LOG_LEVEL": "loud"}, want: "unknown log level"},
		{name: "duration syntax", vars: map[string]string{"SCHOOLMATE_CAPABILITY_TIMEOUT": "soon"}, want: "parse env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := LoadFrom(map[string]string{"SCHOOLMATE_LOG_FORMAT": "json", "SCHOOLMATE_LOG_LEVEL": "warn"})
	require.NoError(t, err)

	l := cfg.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"schoolmate"`)
}
