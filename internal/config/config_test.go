package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultModel, cfg.Completion.Model)
	assert.Equal(t, completion.DefaultRetryPolicy().MaxAttempts, cfg.RetryPolicy().MaxAttempts)
	assert.False(t, cfg.RetryPolicy().OnTransport)
	assert.False(t, cfg.RetryPolicy().OnMalformed)
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conclave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/conclave
log:
  level: debug
  format: json
completion:
  provider: gateway
  gateway_url: http://gpt.internal:8000/gpt
  retry:
    max_attempts: 3
    on: [transport, malformed]
    backoff: 250ms
evaluation:
  parallel: 4
  subjects: [high_school_physics]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/conclave", cfg.DataDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, model.DefaultModel, cfg.Completion.Model, "unset fields keep defaults")
	assert.Equal(t, 100, cfg.Evaluation.Limit)
	assert.Equal(t, []string{"high_school_physics"}, cfg.Evaluation.Subjects)

	assert.Equal(t, completion.RetryPolicy{
		MaxAttempts: 3,
		OnTransport: true,
		OnMalformed: true,
		Backoff:     250 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
	}, cfg.RetryPolicy())

	opts := cfg.CompletionOptions()
	assert.Equal(t, "gateway", opts.Provider)
	assert.Equal(t, "http://gpt.internal:8000/gpt", opts.GatewayURL)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown field", "completion:\n  provder: openai\n", "failed to parse YAML"},
		{"unknown provider", "completion:\n  provider: llama\n", "completion.provider"},
		{"unknown retry class", "completion:\n  retry:\n    on: [timeout]\n", "completion.retry.on"},
		{"zero attempts", "completion:\n  retry:\n    max_attempts: 0\n", "max_attempts"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"zero parallel", "evaluation:\n  parallel: 0\n", "evaluation.parallel"},
		{"bad duration", "completion:\n  retry:\n    backoff: soon\n", "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
