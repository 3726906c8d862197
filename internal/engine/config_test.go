package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigLoader_DefaultsWhenFileMissing(t *testing.T) {
	loader := NewConfigLoader(t.TempDir())

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultConfig()
	if cfg.MaxAgents != want.MaxAgents || cfg.MaxConcurrentPerAgent != want.MaxConcurrentPerAgent {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.LockTimeout != 30*time.Second {
		t.Errorf("expected 30s lock timeout, got %s", cfg.LockTimeout)
	}
}

func TestConfigLoader_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `agents:
  max_agents: 3
  max_concurrent_per_agent: 1
  stale_after_hours: 48
locks:
  timeout_seconds: 10
validation:
  workload_warn_percent: 70
  skill_match_threshold: 50
`
	if err := os.WriteFile(filepath.Join(dir, ".boardconfig"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewConfigLoader(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxAgents != 3 {
		t.Errorf("max_agents = %d, want 3", cfg.MaxAgents)
	}
	if cfg.MaxConcurrentPerAgent != 1 {
		t.Errorf("max_concurrent_per_agent = %d, want 1", cfg.MaxConcurrentPerAgent)
	}
	if cfg.StaleAfter != 48*time.Hour {
		t.Errorf("stale_after = %s, want 48h", cfg.StaleAfter)
	}
	if cfg.LockTimeout != 10*time.Second {
		t.Errorf("lock_timeout = %s, want 10s", cfg.LockTimeout)
	}
	if cfg.WorkloadWarnPercent != 70 {
		t.Errorf("workload_warn_percent = %g, want 70", cfg.WorkloadWarnPercent)
	}
	if cfg.SkillMatchThreshold != 50 {
		t.Errorf("skill_match_threshold = %g, want 50", cfg.SkillMatchThreshold)
	}
}

func TestConfigLoader_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".boardconfig"), []byte("agents:\n  max_agents: 8\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewConfigLoader(dir).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxAgents != 8 {
		t.Errorf("max_agents = %d, want 8", cfg.MaxAgents)
	}
	if cfg.MaxConcurrentPerAgent != DefaultConfig().MaxConcurrentPerAgent {
		t.Errorf("unset keys must keep their defaults, got %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	loader := NewConfigLoader(t.TempDir())

	if err := loader.Validate(DefaultConfig()); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
	if err := loader.Validate(nil); err == nil {
		t.Error("nil config must be rejected")
	}

	bad := DefaultConfig()
	bad.MaxAgents = 0
	bad.WorkloadWarnPercent = 150
	err := loader.Validate(bad)
	if err == nil {
		t.Fatal("expected validation failure")
	}
}
