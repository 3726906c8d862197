// Package engine contains the agent-task coordination core: the lock
// manager, agent state machine, leasing, assignment validation, scoring,
// and the consistency checker with its recovery action.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// ConfigLoader defines the interface for loading and validating the engine
// configuration from the .boardconfig file.
type ConfigLoader interface {
	Load() (*models.EngineConfig, error)
	Validate(cfg *models.EngineConfig) error
}

// viperConfigLoader implements ConfigLoader using Viper for reading the
// YAML configuration file.
type viperConfigLoader struct {
	basePath string
}

// NewConfigLoader creates a ConfigLoader that reads .boardconfig from
// basePath.
func NewConfigLoader(basePath string) ConfigLoader {
	return &viperConfigLoader{basePath: basePath}
}

// DefaultConfig returns an EngineConfig populated with the engine defaults.
func DefaultConfig() *models.EngineConfig {
	return &models.EngineConfig{
		MaxAgents:             5,
		MaxConcurrentPerAgent: 2,
		StaleAfter:            24 * time.Hour,
		LockTimeout:           30 * time.Second,
		WorkloadWarnPercent:   80,
		SkillMatchThreshold:   30,
	}
}

// Load reads the .boardconfig file from the base path. If the file does not
// exist, defaults are returned.
func (cl *viperConfigLoader) Load() (*models.EngineConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".boardconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cl.basePath)

	v.SetDefault("agents.max_agents", cfg.MaxAgents)
	v.SetDefault("agents.max_concurrent_per_agent", cfg.MaxConcurrentPerAgent)
	v.SetDefault("agents.stale_after_hours", int(cfg.StaleAfter.Hours()))
	v.SetDefault("locks.timeout_seconds", int(cfg.LockTimeout.Seconds()))
	v.SetDefault("validation.workload_warn_percent", cfg.WorkloadWarnPercent)
	v.SetDefault("validation.skill_match_threshold", cfg.SkillMatchThreshold)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .boardconfig: %w", err)
	}

	cfg.MaxAgents = v.GetInt("agents.max_agents")
	cfg.MaxConcurrentPerAgent = v.GetInt("agents.max_concurrent_per_agent")
	cfg.StaleAfter = time.Duration(v.GetInt("agents.stale_after_hours")) * time.Hour
	cfg.LockTimeout = time.Duration(v.GetInt("locks.timeout_seconds")) * time.Second
	cfg.WorkloadWarnPercent = v.GetFloat64("validation.workload_warn_percent")
	cfg.SkillMatchThreshold = v.GetFloat64("validation.skill_match_threshold")

	return cfg, nil
}

// Validate checks the configuration for invalid values and returns a clear
// error message identifying every problem.
func (cl *viperConfigLoader) Validate(cfg *models.EngineConfig) error {
	if cfg == nil {
		return fmt.Errorf("engine configuration is nil")
	}

	var errs []string

	if cfg.MaxAgents < 1 {
		errs = append(errs, fmt.Sprintf("agents.max_agents must be at least 1, got %d", cfg.MaxAgents))
	}
	if cfg.MaxConcurrentPerAgent < 1 {
		errs = append(errs, fmt.Sprintf("agents.max_concurrent_per_agent must be at least 1, got %d", cfg.MaxConcurrentPerAgent))
	}
	if cfg.StaleAfter <= 0 {
		errs = append(errs, "agents.stale_after_hours must be positive")
	}
	if cfg.LockTimeout <= 0 {
		errs = append(errs, "locks.timeout_seconds must be positive")
	}
	if cfg.WorkloadWarnPercent <= 0 || cfg.WorkloadWarnPercent > 100 {
		errs = append(errs, fmt.Sprintf("validation.workload_warn_percent must be in (0, 100], got %g", cfg.WorkloadWarnPercent))
	}
	if cfg.SkillMatchThreshold < 0 || cfg.SkillMatchThreshold > 100 {
		errs = append(errs, fmt.Sprintf("validation.skill_match_threshold must be in [0, 100], got %g", cfg.SkillMatchThreshold))
	}

	if len(errs) > 0 {
		return fmt.Errorf("engine config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
