// Package config loads the conclave configuration file.
//
// A missing field keeps its default. Unknown fields are rejected so typos
// surface at startup rather than as silently ignored settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/logging"
	"github.com/roach88/conclave/internal/model"
)

// Config is the full configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	Log        LogConfig        `yaml:"log"`
	Completion CompletionConfig `yaml:"completion"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CompletionConfig selects and configures the completion provider.
type CompletionConfig struct {
	Provider   string      `yaml:"provider"`
	Model      string      `yaml:"model"`
	GatewayURL string      `yaml:"gateway_url"`
	BaseURL    string      `yaml:"base_url"`
	MaxTokens  int64       `yaml:"max_tokens"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig mirrors completion.RetryPolicy. On lists the retried error
// classes: "transport" and "malformed".
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	On          []string      `yaml:"on"`
	Backoff     time.Duration `yaml:"backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// EvaluationConfig sets defaults for evaluation sweeps.
type EvaluationConfig struct {
	Limit    int      `yaml:"limit"`
	Parallel int      `yaml:"parallel"`
	Subjects []string `yaml:"subjects"`
	Shuffle  bool     `yaml:"shuffle"`
	Seed     uint64   `yaml:"seed"`
}

// Retry classes.
const (
	RetryTransport = "transport"
	RetryMalformed = "malformed"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir: "data",
		Log:     LogConfig{Level: "info", Format: logging.FormatText},
		Completion: CompletionConfig{
			Provider:   completion.ProviderOpenAI,
			Model:      model.DefaultModel,
			GatewayURL: completion.DefaultGatewayURL,
			Retry:      RetryConfig{MaxAttempts: 1, Backoff: time.Second, MaxBackoff: 30 * time.Second},
		},
		Evaluation: EvaluationConfig{Limit: 100, Parallel: 1, Seed: 42},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format)
	}

	providers := []string{
		completion.ProviderOpenAI, completion.ProviderAnthropic,
		completion.ProviderGateway, completion.ProviderScripted,
	}
	if !slices.Contains(providers, strings.ToLower(c.Completion.Provider)) {
		return fmt.Errorf("completion.provider: unknown provider %q (want one of %s)",
			c.Completion.Provider, strings.Join(providers, ", "))
	}
	if c.Completion.MaxTokens < 0 {
		return fmt.Errorf("completion.max_tokens: must be non-negative")
	}

	r := c.Completion.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("completion.retry.max_attempts: must be at least 1")
	}
	for _, class := range r.On {
		if class != RetryTransport && class != RetryMalformed {
			return fmt.Errorf("completion.retry.on: unknown class %q (want transport or malformed)", class)
		}
	}
	if r.Backoff < 0 || r.MaxBackoff < 0 {
		return fmt.Errorf("completion.retry: backoff must be non-negative")
	}

	if c.Evaluation.Limit < 0 {
		return fmt.Errorf("evaluation.limit: must be non-negative")
	}
	if c.Evaluation.Parallel < 1 {
		return fmt.Errorf("evaluation.parallel: must be at least 1")
	}
	return nil
}

// RetryPolicy converts the retry section.
func (c Config) RetryPolicy() completion.RetryPolicy {
	r := c.Completion.Retry
	return completion.RetryPolicy{
		MaxAttempts: r.MaxAttempts,
		OnTransport: slices.Contains(r.On, RetryTransport),
		OnMalformed: slices.Contains(r.On, RetryMalformed),
		Backoff:     r.Backoff,
		MaxBackoff:  r.MaxBackoff,
	}
}

// CompletionOptions converts the completion section.
func (c Config) CompletionOptions() completion.Options {
	return completion.Options{
		Provider:   c.Completion.Provider,
		GatewayURL: c.Completion.GatewayURL,
		BaseURL:    c.Completion.BaseURL,
		MaxTokens:  c.Completion.MaxTokens,
		Retry:      c.RetryPolicy(),
	}
}

// Logging converts the log section.
func (c Config) Logging(out io.Writer) logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, Output: out}
}
