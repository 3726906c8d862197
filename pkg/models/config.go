package models

import "time"

// EngineConfig holds coordination engine settings read from .boardconfig
// via Viper.
type EngineConfig struct {
	MaxAgents             int           `yaml:"max_agents" mapstructure:"max_agents"`
	MaxConcurrentPerAgent int           `yaml:"max_concurrent_per_agent" mapstructure:"max_concurrent_per_agent"`
	StaleAfter            time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
	LockTimeout           time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
	WorkloadWarnPercent   float64       `yaml:"workload_warn_percent" mapstructure:"workload_warn_percent"`
	SkillMatchThreshold   float64       `yaml:"skill_match_threshold" mapstructure:"skill_match_threshold"`
}
