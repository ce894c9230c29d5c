// Package config loads schoolmate runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/hupe1980/schoolmate/agent"
	"github.com/hupe1980/schoolmate/logging"
)

// Supported reasoning engine providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the process configuration. Secrets are never logged.
type Config struct {
	Addr       string `env:"SCHOOLMATE_ADDR"        envDefault:":3000"`
	DBPath     string `env:"SCHOOLMATE_DB_PATH"     envDefault:"schoolmate.db"`
	AuthSecret string `env:"SCHOOLMATE_AUTH_SECRET"`
	RedisURL   string `env:"SCHOOLMATE_REDIS_URL"`

	ModelProvider   string `env:"SCHOOLMATE_MODEL_PROVIDER" envDefault:"openai"`
	Model           string `env:"SCHOOLMATE_MODEL"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	ModelTimeout      time.Duration `env:"SCHOOLMATE_MODEL_TIMEOUT"      envDefault:"30s"`
	CapabilityTimeout time.Duration `env:"SCHOOLMATE_CAPABILITY_TIMEOUT" envDefault:"10s"`
	MaxParallel       int           `env:"SCHOOLMATE_MAX_PARALLEL"       envDefault:"4"`
	ModelRetries      uint          `env:"SCHOOLMATE_MODEL_RETRIES"      envDefault:"3"`
	SubjectMismatch   string        `env:"SCHOOLMATE_SUBJECT_MISMATCH"   envDefault:"override"`
	UnscopedSubject   string        `env:"SCHOOLMATE_UNSCOPED_SUBJECT"   envDefault:"passthrough"`

	LogLevel  string `env:"SCHOOLMATE_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"SCHOOLMATE_LOG_FORMAT" envDefault:"text"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ModelProvider = strings.ToLower(strings.TrimSpace(cfg.ModelProvider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start the agent.
func (c Config) Validate() error {
	var errs []error
	switch c.ModelProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unsupported model provider %q", c.ModelProvider))
	}
	if c.ModelTimeout <= 0 {
		errs = append(errs, errors.New("model timeout must be positive"))
	}
	if c.CapabilityTimeout <= 0 {
		errs = append(errs, errors.New("capability timeout must be positive"))
	}
	if c.MaxParallel < 1 {
		errs = append(errs, errors.New("max parallel must be at least 1"))
	}
	if _, err := agent.ParseMismatchPolicy(c.SubjectMismatch); err != nil {
		errs = append(errs, err)
	}
	if _, err := agent.ParseUnscopedPolicy(c.UnscopedSubject); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// APIKey returns the key of the configured provider.
func (c Config) APIKey() string {
	if c.ModelProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// MismatchPolicy returns the parsed subject mismatch policy.
func (c Config) MismatchPolicy() agent.MismatchPolicy {
	p, _ := agent.ParseMismatchPolicy(c.SubjectMismatch)
	return p
}

// UnscopedPolicy returns the parsed policy for engine subjects in unscoped queries.
func (c Config) UnscopedPolicy() agent.UnscopedPolicy {
	p, _ := agent.ParseUnscopedPolicy(c.UnscopedSubject)
	return p
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    c.LogFormat,
		Output:    w,
		Component: "schoolmate",
	})
}
