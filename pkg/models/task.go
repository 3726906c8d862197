package models

import "time"

// Stage represents a task's position in the board workflow.
type Stage string

const (
	StageBacklog    Stage = "backlog"
	StageTodo       Stage = "todo"
	StageInProgress Stage = "in_progress"
	StageReview     Stage = "review"
	StageDone       Stage = "done"
)

// Stages lists all board stages in workflow order.
func Stages() []Stage {
	return []Stage{StageBacklog, StageTodo, StageInProgress, StageReview, StageDone}
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Task represents a unit of work on the board. A task lives in exactly one
// stage at a time and is assigned to at most one agent.
type Task struct {
	ID                string     `yaml:"id"`
	Title             string     `yaml:"title"`
	Priority          Priority   `yaml:"priority"`
	EstimatedHours    float64    `yaml:"estimated_hours,omitempty"`
	Description       string     `yaml:"description,omitempty"`
	Requirements      []string   `yaml:"requirements,omitempty"`
	TargetFiles       []string   `yaml:"target_files,omitempty"`
	Dependencies      []string   `yaml:"dependencies,omitempty"`
	Labels            []string   `yaml:"labels,omitempty"`
	Assignee          string     `yaml:"assignee,omitempty"`
	Created           time.Time  `yaml:"created"`
	Started           *time.Time `yaml:"started,omitempty"`
	Completed         *time.Time `yaml:"completed,omitempty"`
	DispositionReason string     `yaml:"disposition_reason,omitempty"`
}
