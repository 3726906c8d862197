package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// AssignmentValidator scores and vets a proposed (agent, task) pairing
// before the state machine commits it. Validation never mutates the board.
type AssignmentValidator interface {
	ValidateAssignment(ctx context.Context, agentID, taskID string, bypassWarnings bool) (*models.ValidationResult, error)
	Conflicts(ctx context.Context, agentID, taskID string) ([]models.Finding, error)
}

type assignmentValidator struct {
	boards BoardStore
	locks  *LockManager
	scorer ScoringStrategy
	cfg    *models.EngineConfig
}

// NewAssignmentValidator creates an AssignmentValidator using the given
// scoring strategy.
func NewAssignmentValidator(boards BoardStore, locks *LockManager, scorer ScoringStrategy, cfg *models.EngineConfig) AssignmentValidator {
	return &assignmentValidator{
		boards: boards,
		locks:  locks,
		scorer: scorer,
		cfg:    cfg,
	}
}

// ValidateAssignment runs every check against a fresh board read and
// returns the aggregate decision object. The assignment is valid iff no
// blocking finding is present and, unless bypassWarnings is set, no
// critical finding either.
func (av *assignmentValidator) ValidateAssignment(ctx context.Context, agentID, taskID string, bypassWarnings bool) (*models.ValidationResult, error) {
	release, err := av.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("validating assignment %s/%s: %w", agentID, taskID, err)
	}
	defer release()

	board, err := av.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("validating assignment %s/%s: %w", agentID, taskID, err)
	}

	return av.validate(board, agentID, taskID, bypassWarnings), nil
}

func (av *assignmentValidator) validate(board *models.Board, agentID, taskID string, bypassWarnings bool) *models.ValidationResult {
	result := &models.ValidationResult{AgentID: agentID, TaskID: taskID}

	slot, idOK := AgentSlot(agentID)
	if !idOK || slot > av.cfg.MaxAgents {
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeMalformedAgentID,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("agent ID %q does not name a configured slot", agentID),
			Resolution: fmt.Sprintf("use agent-001..%s", SlotID(av.cfg.MaxAgents)),
		})
	}

	agent, agentExists := board.Agents[agentID]
	if !agentExists {
		// Unmaterialized slots are implicitly available.
		agent = models.NewAgent(agentID)
	}

	task, stage, taskFound := board.FindTask(taskID)
	if !taskFound {
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeTaskNotFound,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("task %s does not exist on the board", taskID),
			Resolution: "verify the task ID",
		})
	}

	if taskFound {
		av.checkIdentity(board, &agent, task, result)
		av.checkEligibility(stage, result)
		av.checkDependencies(board, task, result)
		av.checkResourceConflicts(board, agentID, task, result)
	}
	workload := av.checkCapacity(board, agentID, result)
	if taskFound {
		av.checkDistribution(board, agentID, result)
	}

	skill := 0.0
	if taskFound {
		skill = av.scorer.SkillMatch(agent, *task)
		if skill < av.cfg.SkillMatchThreshold {
			result.Warnings = append(result.Warnings, models.Finding{
				Code:       models.CodeLowSkillMatch,
				Severity:   models.SeverityInfo,
				Message:    fmt.Sprintf("skill match %.0f is below threshold %.0f", skill, av.cfg.SkillMatchThreshold),
				Resolution: "consider an agent whose specialties overlap the task labels",
			})
		}
	}

	headroom := 100 - workload
	if headroom < 0 {
		headroom = 0
	}
	in := ScoreInputs{
		CapacityHeadroom: headroom,
		SkillMatch:       skill,
	}
	if taskFound {
		in.Priority = task.Priority
		in.TargetFileCount = len(task.TargetFiles)
	}
	result.Score = av.scorer.AssignmentScore(in)
	result.Confidence = av.scorer.Confidence(result.Score, result.Errors, result.Warnings)

	result.Valid = !result.HasBlocking() && (bypassWarnings || !result.HasCritical())
	return result
}

// checkIdentity covers claim and agent-state findings: a task claimed by a
// different agent blocks, an offline agent is critical, a blocked agent is
// high.
func (av *assignmentValidator) checkIdentity(board *models.Board, agent *models.Agent, task *models.Task, result *models.ValidationResult) {
	holder := board.AgentHolding(task.ID)
	if holder == "" && task.Assignee != "" {
		holder = task.Assignee
	}
	if holder != "" && holder != agent.ID {
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeTaskAlreadyAssigned,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("task %s is already claimed by %s", task.ID, holder),
			Resolution: "pick another task or recover the holding agent",
		})
	}

	switch agent.Status {
	case models.AgentOffline:
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeAgentOffline,
			Severity:   models.SeverityCritical,
			Message:    fmt.Sprintf("agent %s is offline", agent.ID),
			Resolution: "bring the agent back to available first",
		})
	case models.AgentBlocked:
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeAgentBlocked,
			Severity:   models.SeverityHigh,
			Message:    fmt.Sprintf("agent %s is blocked", agent.ID),
			Resolution: "resolve the blocker before assigning new work",
		})
	}
}

// checkCapacity computes the agent's workload as a percentage of its
// concurrency budget and records the overload or warn-threshold findings.
// It returns the workload percentage for scoring.
func (av *assignmentValidator) checkCapacity(board *models.Board, agentID string, result *models.ValidationResult) float64 {
	assigned := len(board.TasksAssignedTo(agentID, models.StageInProgress))
	workload := float64(assigned) / float64(av.cfg.MaxConcurrentPerAgent) * 100

	switch {
	case workload >= 100:
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeAgentOverloaded,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("agent %s is at %.0f%% of its concurrency budget (%d/%d)", agentID, workload, assigned, av.cfg.MaxConcurrentPerAgent),
			Resolution: "finish or reassign an in-progress task first",
		})
	case workload >= av.cfg.WorkloadWarnPercent:
		result.Warnings = append(result.Warnings, models.Finding{
			Code:       models.CodeWorkloadHigh,
			Severity:   models.SeverityInfo,
			Message:    fmt.Sprintf("agent %s workload %.0f%% exceeds the warn threshold %.0f%%", agentID, workload, av.cfg.WorkloadWarnPercent),
			Resolution: "consider a less-loaded agent",
		})
	}
	return workload
}

// checkEligibility verifies the task sits in an assignable stage.
func (av *assignmentValidator) checkEligibility(stage models.Stage, result *models.ValidationResult) {
	switch stage {
	case models.StageDone:
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeTaskDone,
			Severity:   models.SeverityBlocking,
			Message:    "task is already done",
			Resolution: "done tasks cannot be assigned",
		})
	case models.StageInProgress:
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeTaskInProgress,
			Severity:   models.SeverityCritical,
			Message:    "task is already in progress",
			Resolution: "validate against the holding agent or recover it",
		})
	case models.StageReview:
		result.Warnings = append(result.Warnings, models.Finding{
			Code:       models.CodeTaskInReview,
			Severity:   models.SeverityInfo,
			Message:    "task is in review; assigning it will pull it back into progress",
			Resolution: "confirm the review outcome first",
		})
	}
}

// checkDependencies verifies every dependency exists and warns about
// dependencies that are not yet done. Unmet dependencies never block.
func (av *assignmentValidator) checkDependencies(board *models.Board, task *models.Task, result *models.ValidationResult) {
	for _, dep := range task.Dependencies {
		depTask, depStage, found := board.FindTask(dep)
		if !found {
			result.Errors = append(result.Errors, models.Finding{
				Code:       models.CodeMissingDependency,
				Severity:   models.SeverityHigh,
				Message:    fmt.Sprintf("dependency %s does not exist", dep),
				Resolution: "fix the task's dependency list",
			})
			continue
		}
		if depStage != models.StageDone {
			result.Warnings = append(result.Warnings, models.Finding{
				Code:       models.CodeUnmetDependency,
				Severity:   models.SeverityInfo,
				Message:    fmt.Sprintf("dependency %s (%s) is in %s, not done", depTask.ID, depTask.Title, depStage),
				Resolution: "the task may stall until its dependencies complete",
			})
		}
	}
}

// checkResourceConflicts warns when the task's target files overlap the
// target files of tasks held by other working agents, which risks merge
// conflicts across workspaces.
func (av *assignmentValidator) checkResourceConflicts(board *models.Board, agentID string, task *models.Task, result *models.ValidationResult) {
	if len(task.TargetFiles) == 0 {
		return
	}

	ids := make([]string, 0, len(board.Agents))
	for id := range board.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		other := board.Agents[id]
		if id == agentID || other.Status != models.AgentWorking || other.CurrentTask == "" {
			continue
		}
		otherTask, _, found := board.FindTask(other.CurrentTask)
		if !found {
			continue
		}
		for _, mine := range task.TargetFiles {
			for _, theirs := range otherTask.TargetFiles {
				if pathsOverlap(mine, theirs) {
					result.Warnings = append(result.Warnings, models.Finding{
						Code:       models.CodeResourceConflict,
						Severity:   models.SeverityInfo,
						Message:    fmt.Sprintf("target %s overlaps %s held by %s (task %s); merge conflicts are likely", mine, theirs, id, otherTask.ID),
						Resolution: "sequence the tasks or split the file boundary",
					})
				}
			}
		}
	}
}

// pathsOverlap reports whether two target paths collide: identical paths,
// or one being a directory prefix of the other.
func pathsOverlap(a, b string) bool {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimSuffix(b, "/")
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// checkDistribution warns when committing this assignment would push the
// agent's workload far above the pool average and suggests a
// better-balanced alternative.
func (av *assignmentValidator) checkDistribution(board *models.Board, agentID string, result *models.ValidationResult) {
	if av.cfg.MaxAgents < 2 {
		return
	}

	load := func(id string) int {
		return len(board.TasksAssignedTo(id, models.StageInProgress))
	}

	total := 0
	bestID := ""
	bestLoad := 0
	for slot := 1; slot <= av.cfg.MaxAgents; slot++ {
		id := SlotID(slot)
		l := load(id)
		total += l
		if id == agentID {
			continue
		}
		if agent, ok := board.Agents[id]; ok && agent.Status != models.AgentAvailable {
			continue
		}
		if bestID == "" || l < bestLoad {
			bestID, bestLoad = id, l
		}
	}

	avg := float64(total) / float64(av.cfg.MaxAgents)
	prospective := float64(load(agentID) + 1)
	if prospective > avg+1 && bestID != "" && float64(bestLoad) < prospective-1 {
		result.Warnings = append(result.Warnings, models.Finding{
			Code:       models.CodeWorkloadImbalance,
			Severity:   models.SeverityInfo,
			Message:    fmt.Sprintf("assignment pushes %s to %.0f in-progress tasks against a pool average of %.1f", agentID, prospective, avg),
			Resolution: fmt.Sprintf("agent %s is better balanced for this task", bestID),
		})
	}
}

// Conflicts returns only the resource-conflict analysis for a proposed
// pairing, without the rest of the validation checks.
func (av *assignmentValidator) Conflicts(ctx context.Context, agentID, taskID string) ([]models.Finding, error) {
	release, err := av.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("analyzing conflicts %s/%s: %w", agentID, taskID, err)
	}
	defer release()

	board, err := av.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("analyzing conflicts %s/%s: %w", agentID, taskID, err)
	}

	task, _, found := board.FindTask(taskID)
	if !found {
		return []models.Finding{{
			Code:       models.CodeTaskNotFound,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("task %s does not exist on the board", taskID),
			Resolution: "verify the task ID",
		}}, nil
	}

	scratch := &models.ValidationResult{AgentID: agentID, TaskID: taskID}
	av.checkResourceConflicts(board, agentID, task, scratch)
	return scratch.Warnings, nil
}
