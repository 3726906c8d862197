package models

import "time"

// Severity grades a validation or consistency finding. Blocking findings
// always invalidate an operation; critical findings invalidate unless the
// caller explicitly bypasses warnings. Findings are data, never errors.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// severityRank orders severities from most to least severe.
var severityRank = map[Severity]int{
	SeverityBlocking: 5,
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// Rank returns a numeric rank for ordering; higher is more severe.
func (s Severity) Rank() int {
	return severityRank[s]
}

// FindingCode identifies the specific condition a finding reports.
type FindingCode string

const (
	CodeMalformedAgentID    FindingCode = "MALFORMED_AGENT_ID"
	CodeInvalidTransition   FindingCode = "INVALID_TRANSITION"
	CodeTaskRequired        FindingCode = "TASK_REQUIRED"
	CodeTaskNotFound        FindingCode = "TASK_NOT_FOUND"
	CodeTaskAlreadyAssigned FindingCode = "TASK_ALREADY_ASSIGNED"
	CodeAgentOffline        FindingCode = "AGENT_OFFLINE"
	CodeAgentBlocked        FindingCode = "AGENT_BLOCKED"
	CodeAgentOverloaded     FindingCode = "AGENT_OVERLOADED"
	CodeWorkloadHigh        FindingCode = "WORKLOAD_HIGH"
	CodeTaskDone            FindingCode = "TASK_DONE"
	CodeTaskInProgress      FindingCode = "TASK_IN_PROGRESS"
	CodeTaskInReview        FindingCode = "TASK_IN_REVIEW"
	CodeLowSkillMatch       FindingCode = "LOW_SKILL_MATCH"
	CodeMissingDependency   FindingCode = "MISSING_DEPENDENCY"
	CodeUnmetDependency     FindingCode = "UNMET_DEPENDENCY"
	CodeResourceConflict    FindingCode = "RESOURCE_CONFLICT"
	CodeWorkloadImbalance   FindingCode = "WORKLOAD_IMBALANCE"
	CodeDependencyCycle     FindingCode = "DEPENDENCY_CYCLE"

	// Consistency checker codes.
	CodeWorkingWithoutTask FindingCode = "WORKING_WITHOUT_TASK"
	CodeInvalidTask        FindingCode = "INVALID_TASK"
	CodeTaskReassigned     FindingCode = "TASK_REASSIGNED"
	CodeMissingWorktree    FindingCode = "MISSING_WORKTREE"
	CodeStaleState         FindingCode = "STALE_STATE"
	CodeStaleAgent         FindingCode = "STALE_AGENT"
	CodeOrphanedWorktree   FindingCode = "ORPHANED_WORKTREE"
	CodeDuplicateTask      FindingCode = "DUPLICATE_TASK"
	CodeDanglingAssignee   FindingCode = "DANGLING_ASSIGNEE"
)

// Finding is a structured validation result with a severity level and a
// suggested resolution.
type Finding struct {
	Code       FindingCode `yaml:"code"`
	Severity   Severity    `yaml:"severity"`
	Message    string      `yaml:"message"`
	Resolution string      `yaml:"resolution,omitempty"`
}

// ValidationResult is the decision object produced by the assignment
// validator. It never reflects a board mutation.
type ValidationResult struct {
	AgentID    string    `yaml:"agent_id"`
	TaskID     string    `yaml:"task_id"`
	Valid      bool      `yaml:"valid"`
	Score      float64   `yaml:"score"`
	Confidence float64   `yaml:"confidence"`
	Errors     []Finding `yaml:"errors,omitempty"`
	Warnings   []Finding `yaml:"warnings,omitempty"`
}

// HasBlocking reports whether any error finding is blocking.
func (r *ValidationResult) HasBlocking() bool {
	for _, f := range r.Errors {
		if f.Severity == SeverityBlocking {
			return true
		}
	}
	return false
}

// HasCritical reports whether any error finding is critical.
func (r *ValidationResult) HasCritical() bool {
	for _, f := range r.Errors {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// TransitionResult reports the outcome of an agent status transition.
// Ordinary validation failures set Valid=false; only infrastructure
// failures surface as Go errors.
type TransitionResult struct {
	Valid    bool      `yaml:"valid"`
	Errors   []Finding `yaml:"errors,omitempty"`
	Warnings []Finding `yaml:"warnings,omitempty"`
	Agent    *Agent    `yaml:"agent,omitempty"`
}

// TransitionRecord is the immutable history record appended after every
// committed agent status transition.
type TransitionRecord struct {
	ID         string      `yaml:"id" json:"id"`
	AgentID    string      `yaml:"agent_id" json:"agent_id"`
	FromStatus AgentStatus `yaml:"from_status" json:"from_status"`
	ToStatus   AgentStatus `yaml:"to_status" json:"to_status"`
	TaskID     string      `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Reason     string      `yaml:"reason,omitempty" json:"reason,omitempty"`
	Time       time.Time   `yaml:"time" json:"time"`
}

// AgentFindings groups the consistency findings for a single agent.
type AgentFindings struct {
	AgentID  string    `yaml:"agent_id"`
	Findings []Finding `yaml:"findings"`
}

// ConsistencyReport is the output of a whole-board consistency check.
type ConsistencyReport struct {
	CheckedAt   time.Time        `yaml:"checked_at"`
	Agents      []AgentFindings  `yaml:"agents,omitempty"`
	Board       []Finding        `yaml:"board,omitempty"`
	CountsBySev map[Severity]int `yaml:"counts_by_severity"`
}

// Total returns the total number of findings in the report.
func (r *ConsistencyReport) Total() int {
	n := len(r.Board)
	for _, a := range r.Agents {
		n += len(a.Findings)
	}
	return n
}
