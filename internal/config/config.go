// Package config loads swarm.yaml and environment overrides into typed
// settings for the router, the engine, and the generation presets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	swarmerrors "swarm/internal/errors"
	"swarm/internal/generation"
	"swarm/internal/routing"
)

// HealthSettings tunes the backend health tracker.
type HealthSettings struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
}

// PresetBudget overrides one preset's token and temperature defaults.
type PresetBudget struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// Defaults apply when neither the caller nor a preset sets a value.
type Defaults struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// Config holds all runtime configuration for a swarm build. Values come
// from swarm.yaml, SWARM_* env vars, and built-in defaults.
type Config struct {
	LogLevel string                  `mapstructure:"log_level"`
	Models   []routing.ModelProfile  `mapstructure:"models"`
	Defaults Defaults                `mapstructure:"defaults"`
	Health   HealthSettings          `mapstructure:"health"`
	Presets  map[string]PresetBudget `mapstructure:"presets"`
}

var validTiers = map[routing.ModelTier]bool{
	routing.TierSmall:   true,
	routing.TierDefault: true,
	routing.TierStrong:  true,
}

// Load reads configuration from the given file, or from swarm.yaml in the
// working directory and $HOME when path is empty. An absent search-path
// file is not an error; defaults and environment still apply. An explicit
// path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("swarm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("SWARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("defaults.max_tokens", 4096)
	v.SetDefault("defaults.temperature", 0.7)
	v.SetDefault("health.failure_threshold", 5)
	v.SetDefault("health.success_threshold", 2)
	v.SetDefault("health.recovery_timeout", 30*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HealthConfig maps the health settings onto the tracker's config.
func (c *Config) HealthConfig() swarmerrors.HealthConfig {
	return swarmerrors.HealthConfig{
		FailureThreshold: c.Health.FailureThreshold,
		SuccessThreshold: c.Health.SuccessThreshold,
		RecoveryTimeout:  c.Health.RecoveryTimeout,
	}
}

// PresetBudgets converts configured preset overrides for the generation
// facade, dropping names it does not recognize.
func (c *Config) PresetBudgets() map[generation.Preset]generation.Budget {
	budgets := make(map[generation.Preset]generation.Budget, len(c.Presets))
	for name, override := range c.Presets {
		preset := generation.Preset(name)
		if !preset.Known() {
			continue
		}
		budgets[preset] = generation.Budget{
			MaxTokens:   override.MaxTokens,
			Temperature: override.Temperature,
		}
	}
	return budgets
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Models))
	for _, model := range c.Models {
		if model.ID == "" {
			return errors.New("config: model with empty id")
		}
		if seen[model.ID] {
			return fmt.Errorf("config: duplicate model id %q", model.ID)
		}
		seen[model.ID] = true
		if !validTiers[model.Tier] {
			return fmt.Errorf("config: model %s has unknown tier %q", model.ID, model.Tier)
		}
	}
	if c.Health.FailureThreshold < 1 {
		return fmt.Errorf("config: health.failure_threshold must be positive, got %d", c.Health.FailureThreshold)
	}
	if c.Health.SuccessThreshold < 1 {
		return fmt.Errorf("config: health.success_threshold must be positive, got %d", c.Health.SuccessThreshold)
	}
	return nil
}
