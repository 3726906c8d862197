package models

import "time"

// AgentStatus represents the current lifecycle state of an agent slot.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentWorking   AgentStatus = "working"
	AgentBlocked   AgentStatus = "blocked"
	AgentOffline   AgentStatus = "offline"
)

// Agent represents a logical worker slot in the fixed-size pool. Agents are
// lazily materialized on first reference and never deleted, only reset.
type Agent struct {
	ID          string      `yaml:"id"`
	Status      AgentStatus `yaml:"status"`
	CurrentTask string      `yaml:"current_task,omitempty"`
	Workspace   string      `yaml:"workspace,omitempty"`
	Specialties []string    `yaml:"specialties,omitempty"`
	LastActive  time.Time   `yaml:"last_active"`
}

// NewAgent returns a freshly materialized agent in the available state.
func NewAgent(id string) Agent {
	return Agent{
		ID:         id,
		Status:     AgentAvailable,
		LastActive: time.Now().UTC(),
	}
}
