package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"swarm/internal/generation"
	"swarm/internal/routing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 4096, cfg.Defaults.MaxTokens)
	require.InDelta(t, 0.7, cfg.Defaults.Temperature, 1e-9)
	require.Equal(t, 5, cfg.Health.FailureThreshold)
	require.Equal(t, 2, cfg.Health.SuccessThreshold)
	require.Equal(t, 30*time.Second, cfg.Health.RecoveryTimeout)
	require.Empty(t, cfg.Models)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
models:
  - id: fast-1
    provider: acme
    tier: small
    cost_per_1k_input: 0.1
    cost_per_1k_output: 0.2
    avg_latency_ms: 300
  - id: strong-1
    provider: acme
    tier: strong
    cost_per_1k_input: 5
    cost_per_1k_output: 10
    avg_latency_ms: 2000
health:
  failure_threshold: 3
  recovery_timeout: 10s
presets:
  quick_check:
    max_tokens: 512
    temperature: 0.05
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Models, 2)
	require.Equal(t, routing.TierSmall, cfg.Models[0].Tier)
	require.InDelta(t, 0.2, cfg.Models[0].CostPer1KOutput, 1e-9)
	require.Equal(t, 3, cfg.Health.FailureThreshold)
	require.Equal(t, 10*time.Second, cfg.Health.RecoveryTimeout)
	// Unset health values keep their defaults.
	require.Equal(t, 2, cfg.Health.SuccessThreshold)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SWARM_LOG_LEVEL", "warn")
	path := writeConfig(t, "log_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: weird-1
    provider: acme
    tier: enormous
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown tier")
}

func TestLoadRejectsDuplicateModelIDs(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: fast-1
    provider: acme
    tier: small
  - id: fast-1
    provider: other
    tier: default
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "duplicate model id")
}

func TestPresetBudgetsDropsUnknownNames(t *testing.T) {
	cfg := &Config{Presets: map[string]PresetBudget{
		"quick_check": {MaxTokens: 512, Temperature: 0.05},
		"warp_speed":  {MaxTokens: 1},
	}}
	budgets := cfg.PresetBudgets()
	require.Len(t, budgets, 1)
	require.Equal(t, generation.Budget{MaxTokens: 512, Temperature: 0.05}, budgets[generation.PresetQuickCheck])
}

func TestHealthConfigMapping(t *testing.T) {
	cfg := &Config{Health: HealthSettings{
		FailureThreshold: 7,
		SuccessThreshold: 3,
		RecoveryTimeout:  time.Minute,
	}}
	hc := cfg.HealthConfig()
	require.Equal(t, 7, hc.FailureThreshold)
	require.Equal(t, 3, hc.SuccessThreshold)
	require.Equal(t, time.Minute, hc.RecoveryTimeout)
}
