package engine

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// BoardStore is the subset of storage.BoardManager that the engine needs.
// Defining it here keeps engine independent of the storage package.
type BoardStore interface {
	LoadOrInit() (*models.Board, error)
	Save(board *models.Board) error
}

// WorkspaceProvider is the subset of the workspace provisioner consumed by
// the engine. The engine only acts on the existence signal; creation and
// removal are delegated on entering and recovering agents.
type WorkspaceProvider interface {
	Exists(agentID string) (bool, string)
	Create(agentID string) (string, error)
	Remove(agentID string) error
	List() ([]string, error)
}

// EventLogger is the subset of observability.EventLog used for the
// immutable transition history and engine audit events.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// agentIDPattern matches the fixed agent naming scheme: agent-001 .. agent-NNN.
var agentIDPattern = regexp.MustCompile(`^agent-(\d{3})$`)

// ValidAgentID reports whether id matches the agent naming pattern.
func ValidAgentID(id string) bool {
	return agentIDPattern.MatchString(id)
}

// AgentSlot extracts the 1-based slot number from an agent ID. The bool
// result is false for malformed IDs or slot zero.
func AgentSlot(id string) (int, bool) {
	m := agentIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	slot := 0
	for _, c := range m[1] {
		slot = slot*10 + int(c-'0')
	}
	if slot < 1 {
		return 0, false
	}
	return slot, true
}

// SlotID formats a 1-based slot number as an agent ID.
func SlotID(slot int) string {
	return fmt.Sprintf("agent-%03d", slot)
}

// allowedTransitions is the agent state machine edge table.
var allowedTransitions = map[models.AgentStatus][]models.AgentStatus{
	models.AgentAvailable: {models.AgentWorking, models.AgentOffline, models.AgentBlocked},
	models.AgentWorking:   {models.AgentAvailable, models.AgentBlocked, models.AgentOffline},
	models.AgentBlocked:   {models.AgentAvailable, models.AgentWorking, models.AgentOffline},
	models.AgentOffline:   {models.AgentAvailable},
}

// TransitionAllowed reports whether the edge from -> to is in the table.
func TransitionAllowed(from, to models.AgentStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StateMachine validates and applies agent status transitions and task
// bindings under the engine's locking discipline.
type StateMachine interface {
	Transition(ctx context.Context, agentID string, to models.AgentStatus, taskID, reason string) (*models.TransitionResult, error)
}

type stateMachine struct {
	boards     BoardStore
	locks      *LockManager
	workspaces WorkspaceProvider
	events     EventLogger
	cfg        *models.EngineConfig
}

// NewStateMachine creates a StateMachine with all dependencies injected.
// events may be nil if transition history is not recorded.
func NewStateMachine(boards BoardStore, locks *LockManager, workspaces WorkspaceProvider, events EventLogger, cfg *models.EngineConfig) StateMachine {
	return &stateMachine{
		boards:     boards,
		locks:      locks,
		workspaces: workspaces,
		events:     events,
		cfg:        cfg,
	}
}

// Transition performs the full validate-mutate-persist sequence for one
// agent status change. Ordinary validation failures are reported in the
// result, never as errors; errors are reserved for lock and persistence
// infrastructure failures, which abort with zero board mutation.
func (sm *stateMachine) Transition(ctx context.Context, agentID string, to models.AgentStatus, taskID, reason string) (*models.TransitionResult, error) {
	result := &models.TransitionResult{}

	slot, ok := AgentSlot(agentID)
	if !ok || slot > sm.cfg.MaxAgents {
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeMalformedAgentID,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("agent ID %q does not name a configured slot (agent-001..%s)", agentID, SlotID(sm.cfg.MaxAgents)),
			Resolution: "use a slot within the configured pool",
		})
		return result, nil
	}

	// Per-agent lock before any board access, per the lock ordering rule.
	releaseAgent, err := sm.locks.Acquire(ctx, AgentLockKey(agentID))
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", agentID, err)
	}
	defer releaseAgent()

	releaseBoard, err := sm.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", agentID, err)
	}
	defer releaseBoard()

	// Always re-load fresh state after acquiring the locks; a pre-lock
	// snapshot may be stale.
	board, err := sm.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", agentID, err)
	}

	agent, exists := board.Agents[agentID]
	if !exists {
		agent = models.NewAgent(agentID)
	}

	if !TransitionAllowed(agent.Status, to) {
		result.Errors = append(result.Errors, models.Finding{
			Code:       models.CodeInvalidTransition,
			Severity:   models.SeverityBlocking,
			Message:    fmt.Sprintf("transition %s -> %s is not allowed for %s", agent.Status, to, agentID),
			Resolution: fmt.Sprintf("allowed from %s: %v", agent.Status, allowedTransitions[agent.Status]),
		})
		return result, nil
	}

	if to == models.AgentWorking {
		if taskID == "" {
			result.Errors = append(result.Errors, models.Finding{
				Code:       models.CodeTaskRequired,
				Severity:   models.SeverityBlocking,
				Message:    "entering working requires a task ID",
				Resolution: "pass the task being claimed",
			})
			return result, nil
		}
		if _, _, found := board.FindTask(taskID); !found {
			result.Errors = append(result.Errors, models.Finding{
				Code:       models.CodeTaskNotFound,
				Severity:   models.SeverityBlocking,
				Message:    fmt.Sprintf("task %s does not exist on the board", taskID),
				Resolution: "verify the task ID",
			})
			return result, nil
		}
		if holder := board.AgentHolding(taskID); holder != "" && holder != agentID {
			result.Errors = append(result.Errors, models.Finding{
				Code:       models.CodeTaskAlreadyAssigned,
				Severity:   models.SeverityBlocking,
				Message:    fmt.Sprintf("task %s is already held by %s", taskID, holder),
				Resolution: fmt.Sprintf("recover %s first or pick another task", holder),
			})
			return result, nil
		} else if holder == agentID {
			result.Warnings = append(result.Warnings, models.Finding{
				Code:     models.CodeTaskAlreadyAssigned,
				Severity: models.SeverityInfo,
				Message:  fmt.Sprintf("%s already holds task %s; re-claim is a no-op binding", agentID, taskID),
			})
		}
	}

	from := agent.Status
	agent.Status = to
	agent.LastActive = time.Now().UTC()

	switch {
	case to == models.AgentWorking:
		// A blocked agent switching to a different task surrenders the
		// old claim; otherwise its assignee binding would dangle.
		if agent.CurrentTask != "" && agent.CurrentTask != taskID {
			sm.unbindTask(board, agent.CurrentTask, agentID)
		}
		agent.CurrentTask = taskID
		sm.bindTask(board, agentID, taskID)
		if handle, wsErr := sm.workspaces.Create(agentID); wsErr != nil {
			result.Warnings = append(result.Warnings, models.Finding{
				Code:       models.CodeMissingWorktree,
				Severity:   models.SeverityMedium,
				Message:    fmt.Sprintf("workspace provisioning for %s failed: %v", agentID, wsErr),
				Resolution: "provision the workspace manually or run check",
			})
		} else {
			agent.Workspace = handle
		}
	case to == models.AgentAvailable, to == models.AgentOffline:
		// Blocked agents keep their claim; releasing or going offline
		// surrenders it.
		sm.unbindTask(board, agent.CurrentTask, agentID)
		agent.CurrentTask = ""
		agent.Workspace = ""
	}

	board.Agents[agentID] = agent

	if err := sm.boards.Save(board); err != nil {
		return nil, fmt.Errorf("transition %s: %w", agentID, err)
	}

	sm.appendHistory(models.TransitionRecord{
		ID:         uuid.NewString(),
		AgentID:    agentID,
		FromStatus: from,
		ToStatus:   to,
		TaskID:     taskID,
		Reason:     reason,
		Time:       agent.LastActive,
	})

	result.Valid = true
	result.Agent = &agent
	return result, nil
}

// bindTask records the symmetric assignment: the task's assignee is set and
// the task moves to in_progress with its started timestamp stamped once.
func (sm *stateMachine) bindTask(board *models.Board, agentID, taskID string) {
	task, stage, found := board.FindTask(taskID)
	if !found {
		return
	}
	task.Assignee = agentID
	if task.Started == nil {
		now := time.Now().UTC()
		task.Started = &now
	}
	if stage != models.StageInProgress {
		board.MoveTask(taskID, models.StageInProgress)
	}
}

// unbindTask clears the task side of an assignment when an agent leaves the
// working state. The task stays in its stage; disposition is external.
func (sm *stateMachine) unbindTask(board *models.Board, taskID, agentID string) {
	if taskID == "" {
		return
	}
	if task, _, found := board.FindTask(taskID); found && task.Assignee == agentID {
		task.Assignee = ""
	}
}

// appendHistory writes the immutable transition record. History failures do
// not fail the transition; the board commit already happened.
func (sm *stateMachine) appendHistory(rec models.TransitionRecord) {
	if sm.events == nil {
		return
	}
	_ = sm.events.LogEvent("agent.transition", map[string]any{
		"id":          rec.ID,
		"agent_id":    rec.AgentID,
		"from_status": string(rec.FromStatus),
		"to_status":   string(rec.ToStatus),
		"task_id":     rec.TaskID,
		"reason":      rec.Reason,
		"time":        rec.Time.Format(time.RFC3339Nano),
	})
}
