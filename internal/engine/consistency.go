package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// ConsistencyChecker audits the whole board for invariant violations and
// applies the conservative recovery action. Findings are reported as data,
// never thrown; every finding carries a suggested resolution.
type ConsistencyChecker interface {
	Check(ctx context.Context) (*models.ConsistencyReport, error)
	Recover(ctx context.Context, agentID string) (*models.Agent, error)
}

type consistencyChecker struct {
	boards     BoardStore
	locks      *LockManager
	workspaces WorkspaceProvider
	events     EventLogger
	cfg        *models.EngineConfig
	now        func() time.Time
}

// NewConsistencyChecker creates a ConsistencyChecker with all dependencies
// injected. events may be nil.
func NewConsistencyChecker(boards BoardStore, locks *LockManager, workspaces WorkspaceProvider, events EventLogger, cfg *models.EngineConfig) ConsistencyChecker {
	return &consistencyChecker{
		boards:     boards,
		locks:      locks,
		workspaces: workspaces,
		events:     events,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Check iterates every agent and the board-level invariants, returning a
// report of severity-tagged findings with aggregate counts.
func (cc *consistencyChecker) Check(ctx context.Context) (*models.ConsistencyReport, error) {
	release, err := cc.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("consistency check: %w", err)
	}
	defer release()

	board, err := cc.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("consistency check: %w", err)
	}

	report := &models.ConsistencyReport{
		CheckedAt:   cc.now(),
		CountsBySev: make(map[models.Severity]int),
	}

	ids := make([]string, 0, len(board.Agents))
	for id := range board.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		findings := cc.checkAgent(board, board.Agents[id])
		if len(findings) > 0 {
			report.Agents = append(report.Agents, models.AgentFindings{AgentID: id, Findings: findings})
		}
	}

	report.Board = append(report.Board, cc.checkOrphanedWorkspaces(board)...)
	report.Board = append(report.Board, cc.checkDanglingAssignees(board)...)
	report.Board = append(report.Board, cc.checkDuplicateTasks(board)...)
	report.Board = append(report.Board, cc.checkDependencyGraph(board)...)

	for _, a := range report.Agents {
		for _, f := range a.Findings {
			report.CountsBySev[f.Severity]++
		}
	}
	for _, f := range report.Board {
		report.CountsBySev[f.Severity]++
	}

	return report, nil
}

// checkAgent applies the per-agent audit rules.
func (cc *consistencyChecker) checkAgent(board *models.Board, agent models.Agent) []models.Finding {
	var findings []models.Finding

	if agent.Status == models.AgentWorking {
		switch {
		case agent.CurrentTask == "":
			findings = append(findings, models.Finding{
				Code:       models.CodeWorkingWithoutTask,
				Severity:   models.SeverityHigh,
				Message:    fmt.Sprintf("%s is working without a task", agent.ID),
				Resolution: fmt.Sprintf("recover %s to reset it to available", agent.ID),
			})
		default:
			task, _, found := board.FindTask(agent.CurrentTask)
			if !found {
				findings = append(findings, models.Finding{
					Code:       models.CodeInvalidTask,
					Severity:   models.SeverityCritical,
					Message:    fmt.Sprintf("%s holds task %s which does not exist", agent.ID, agent.CurrentTask),
					Resolution: fmt.Sprintf("recover %s; the task record is gone", agent.ID),
				})
			} else if task.Assignee != "" && task.Assignee != agent.ID {
				findings = append(findings, models.Finding{
					Code:       models.CodeTaskReassigned,
					Severity:   models.SeverityCritical,
					Message:    fmt.Sprintf("%s holds task %s but the task is assigned to %s", agent.ID, agent.CurrentTask, task.Assignee),
					Resolution: fmt.Sprintf("recover %s; the task moved elsewhere", agent.ID),
				})
			}
		}

		if exists, _ := cc.workspaces.Exists(agent.ID); !exists {
			findings = append(findings, models.Finding{
				Code:       models.CodeMissingWorktree,
				Severity:   models.SeverityHigh,
				Message:    fmt.Sprintf("%s is working but its workspace is gone", agent.ID),
				Resolution: fmt.Sprintf("recover %s or re-provision its workspace", agent.ID),
			})
		}
	}

	if agent.Status == models.AgentAvailable && (agent.CurrentTask != "" || agent.Workspace != "") {
		findings = append(findings, models.Finding{
			Code:       models.CodeStaleState,
			Severity:   models.SeverityMedium,
			Message:    fmt.Sprintf("%s is available but still carries bookkeeping (task=%q workspace=%q)", agent.ID, agent.CurrentTask, agent.Workspace),
			Resolution: fmt.Sprintf("recover %s to clear the stale bindings", agent.ID),
		})
	}

	if !agent.LastActive.IsZero() && cc.now().Sub(agent.LastActive) > cc.cfg.StaleAfter {
		sev := models.SeverityLow
		if agent.Status == models.AgentWorking {
			sev = models.SeverityMedium
		}
		findings = append(findings, models.Finding{
			Code:       models.CodeStaleAgent,
			Severity:   sev,
			Message:    fmt.Sprintf("%s has been inactive since %s", agent.ID, agent.LastActive.Format(time.RFC3339)),
			Resolution: "confirm the agent is still alive or recover it",
		})
	}

	return findings
}

// checkOrphanedWorkspaces scans the provisioner for workspaces that no
// working agent record accounts for.
func (cc *consistencyChecker) checkOrphanedWorkspaces(board *models.Board) []models.Finding {
	names, err := cc.workspaces.List()
	if err != nil {
		return nil
	}

	var findings []models.Finding
	for _, name := range names {
		agent, ok := board.Agents[name]
		if ok && (agent.Status == models.AgentWorking || agent.Status == models.AgentBlocked) {
			continue
		}
		findings = append(findings, models.Finding{
			Code:       models.CodeOrphanedWorktree,
			Severity:   models.SeverityMedium,
			Message:    fmt.Sprintf("workspace %s has no working agent record", name),
			Resolution: "remove the workspace or restore the agent claim",
		})
	}
	return findings
}

// checkDanglingAssignees verifies every assigned task is actually held by
// the agent it names. Drift here means a claim was rebound without clearing
// the old task.
func (cc *consistencyChecker) checkDanglingAssignees(board *models.Board) []models.Finding {
	var findings []models.Finding
	for _, stage := range models.Stages() {
		for _, task := range board.Stages[stage] {
			if task.Assignee == "" {
				continue
			}
			agent, ok := board.Agents[task.Assignee]
			if ok && agent.CurrentTask == task.ID {
				continue
			}
			findings = append(findings, models.Finding{
				Code:       models.CodeDanglingAssignee,
				Severity:   models.SeverityMedium,
				Message:    fmt.Sprintf("task %s names assignee %s who does not hold it", task.ID, task.Assignee),
				Resolution: "clear the assignee or restore the agent claim",
			})
		}
	}
	return findings
}

// checkDuplicateTasks verifies no task ID occurs in two stage sequences.
func (cc *consistencyChecker) checkDuplicateTasks(board *models.Board) []models.Finding {
	seen := make(map[string]models.Stage)
	var findings []models.Finding
	for _, stage := range models.Stages() {
		for _, task := range board.Stages[stage] {
			if prev, dup := seen[task.ID]; dup {
				findings = append(findings, models.Finding{
					Code:       models.CodeDuplicateTask,
					Severity:   models.SeverityCritical,
					Message:    fmt.Sprintf("task %s occurs in both %s and %s", task.ID, prev, stage),
					Resolution: "remove the duplicate entry; a task lives in exactly one stage",
				})
				continue
			}
			seen[task.ID] = stage
		}
	}
	return findings
}

// checkDependencyGraph verifies dependencies resolve to existing tasks and
// reports cycles. A cycle is a defect in the task data, detected as a
// warning rather than resolved at runtime.
func (cc *consistencyChecker) checkDependencyGraph(board *models.Board) []models.Finding {
	deps := make(map[string][]string)
	for _, stage := range models.Stages() {
		for _, task := range board.Stages[stage] {
			deps[task.ID] = task.Dependencies
		}
	}

	var findings []models.Finding
	taskIDs := make([]string, 0, len(deps))
	for id := range deps {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	for _, id := range taskIDs {
		for _, dep := range deps[id] {
			if _, ok := deps[dep]; !ok {
				findings = append(findings, models.Finding{
					Code:       models.CodeMissingDependency,
					Severity:   models.SeverityMedium,
					Message:    fmt.Sprintf("task %s depends on %s which does not exist", id, dep),
					Resolution: "fix the dependency list",
				})
			}
		}
	}

	// Cycle detection: recursive DFS with three-color marking.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(deps))
	var visit func(string)
	visit = func(id string) {
		color[id] = gray
		for _, dep := range deps[id] {
			if _, ok := deps[dep]; !ok {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				findings = append(findings, models.Finding{
					Code:       models.CodeDependencyCycle,
					Severity:   models.SeverityMedium,
					Message:    fmt.Sprintf("dependency cycle involving %s and %s", id, dep),
					Resolution: "break the cycle; dependencies must be acyclic",
				})
			}
		}
		color[id] = black
	}
	for _, id := range taskIDs {
		if color[id] == white {
			visit(id)
		}
	}

	return findings
}

// Recover applies the single deterministic repair: reset the agent to
// available with no task and no workspace. It deliberately discards
// in-flight bookkeeping rather than reconciling it, and is idempotent.
func (cc *consistencyChecker) Recover(ctx context.Context, agentID string) (*models.Agent, error) {
	if !ValidAgentID(agentID) {
		return nil, fmt.Errorf("recovering agent: malformed agent ID %q", agentID)
	}

	releaseAgent, err := cc.locks.Acquire(ctx, AgentLockKey(agentID))
	if err != nil {
		return nil, fmt.Errorf("recovering %s: %w", agentID, err)
	}
	defer releaseAgent()

	releaseBoard, err := cc.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("recovering %s: %w", agentID, err)
	}
	defer releaseBoard()

	board, err := cc.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("recovering %s: %w", agentID, err)
	}

	agent, exists := board.Agents[agentID]
	if !exists {
		agent = models.NewAgent(agentID)
	}

	agent.Status = models.AgentAvailable
	agent.CurrentTask = ""
	agent.Workspace = ""
	agent.LastActive = cc.now()
	board.Agents[agentID] = agent

	if err := cc.boards.Save(board); err != nil {
		return nil, fmt.Errorf("recovering %s: %w", agentID, err)
	}

	if cc.events != nil {
		_ = cc.events.LogEvent("agent.recovered", map[string]any{
			"agent_id": agentID,
			"time":     agent.LastActive.Format(time.RFC3339Nano),
		})
	}

	return &agent, nil
}
