package engine

import (
	"context"
	"testing"
	"time"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

func newTestValidator() (AssignmentValidator, *memBoardStore) {
	boards := newMemBoardStore()
	v := NewAssignmentValidator(boards, NewLockManager(time.Second), NewWeightedScoring(), DefaultConfig())
	return v, boards
}

func findingByCode(findings []models.Finding, code models.FindingCode) *models.Finding {
	for i := range findings {
		if findings[i].Code == code {
			return &findings[i]
		}
	}
	return nil
}

func TestValidateAssignment_CleanPairing(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageTodo] = []models.Task{testTask("T-001", "Parse config")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-001", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected a valid assignment, errors: %+v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no error findings, got %+v", result.Errors)
	}
	if result.Score <= 0 || result.Score > 100 {
		t.Errorf("score out of range: %g", result.Score)
	}
	if result.Confidence > result.Score {
		t.Errorf("confidence %g exceeds score %g", result.Confidence, result.Score)
	}
}

func TestValidateAssignment_TaskAlreadyAssigned(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	task := testTask("T-001", "Storage layer")
	task.Assignee = "agent-002"
	board.Stages[models.StageInProgress] = []models.Task{task}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentWorking, CurrentTask: "T-001"}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-001", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("assignment of a held task must be invalid")
	}
	f := findingByCode(result.Errors, models.CodeTaskAlreadyAssigned)
	if f == nil {
		t.Fatalf("expected TASK_ALREADY_ASSIGNED, got %+v", result.Errors)
	}
	if f.Severity != models.SeverityBlocking {
		t.Errorf("expected blocking severity, got %s", f.Severity)
	}
	// Bypassing warnings must not rescue a blocking finding.
	result, _ = v.ValidateAssignment(context.Background(), "agent-001", "T-001", true)
	if result.Valid {
		t.Error("bypass must not override a blocking finding")
	}
}

func TestValidateAssignment_AgentOverloaded(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	t1 := testTask("T-001", "a")
	t1.Assignee = "agent-001"
	t2 := testTask("T-002", "b")
	t2.Assignee = "agent-001"
	board.Stages[models.StageInProgress] = []models.Task{t1, t2}
	board.Stages[models.StageTodo] = []models.Task{testTask("T-003", "c")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-003", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("an agent at capacity must not take more work")
	}
	f := findingByCode(result.Errors, models.CodeAgentOverloaded)
	if f == nil {
		t.Fatalf("expected AGENT_OVERLOADED, got %+v", result.Errors)
	}
	if f.Severity != models.SeverityBlocking {
		t.Errorf("expected blocking severity, got %s", f.Severity)
	}
}

func TestValidateAssignment_OfflineAgentBypass(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageTodo] = []models.Task{testTask("T-001", "Parse config")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentOffline}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-001", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("assigning to an offline agent must be invalid without bypass")
	}
	if f := findingByCode(result.Errors, models.CodeAgentOffline); f == nil || f.Severity != models.SeverityCritical {
		t.Fatalf("expected critical AGENT_OFFLINE, got %+v", result.Errors)
	}

	// Critical findings are overridable by an explicit bypass.
	result, _ = v.ValidateAssignment(context.Background(), "agent-001", "T-001", true)
	if !result.Valid {
		t.Errorf("bypass should override a critical finding, errors: %+v", result.Errors)
	}
}

func TestValidateAssignment_TaskStageEligibility(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	done := testTask("T-001", "finished")
	board.Stages[models.StageDone] = []models.Task{done}
	board.Stages[models.StageReview] = []models.Task{testTask("T-002", "in review")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable}

	result, _ := v.ValidateAssignment(context.Background(), "agent-001", "T-001", false)
	if result.Valid {
		t.Error("a done task must not be assignable")
	}
	if findingByCode(result.Errors, models.CodeTaskDone) == nil {
		t.Errorf("expected TASK_DONE, got %+v", result.Errors)
	}

	result, _ = v.ValidateAssignment(context.Background(), "agent-001", "T-002", false)
	if !result.Valid {
		t.Errorf("a review task should validate with a warning, errors: %+v", result.Errors)
	}
	if findingByCode(result.Warnings, models.CodeTaskInReview) == nil {
		t.Errorf("expected TASK_IN_REVIEW warning, got %+v", result.Warnings)
	}
}

func TestValidateAssignment_Dependencies(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	task := testTask("T-002", "Wire transport")
	task.Dependencies = []string{"T-001", "T-404"}
	board.Stages[models.StageTodo] = []models.Task{testTask("T-001", "Parse config"), task}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-002", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f := findingByCode(result.Errors, models.CodeMissingDependency); f == nil || f.Severity != models.SeverityHigh {
		t.Errorf("expected high MISSING_DEPENDENCY for T-404, got %+v", result.Errors)
	}
	if findingByCode(result.Warnings, models.CodeUnmetDependency) == nil {
		t.Errorf("expected UNMET_DEPENDENCY warning for T-001, got %+v", result.Warnings)
	}
}

func TestValidateAssignment_ResourceConflict(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	held := testTask("T-001", "Storage layer")
	held.Assignee = "agent-002"
	held.TargetFiles = []string{"internal/storage/boardstore.go"}
	board.Stages[models.StageInProgress] = []models.Task{held}

	candidate := testTask("T-002", "Storage tweaks")
	candidate.TargetFiles = []string{"internal/storage"}
	board.Stages[models.StageTodo] = []models.Task{candidate}

	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentWorking, CurrentTask: "T-001"}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-002", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if findingByCode(result.Warnings, models.CodeResourceConflict) == nil {
		t.Errorf("expected RESOURCE_CONFLICT warning, got %+v", result.Warnings)
	}

	conflicts, err := v.Conflicts(context.Background(), "agent-001", "T-002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if findingByCode(conflicts, models.CodeResourceConflict) == nil {
		t.Errorf("Conflicts should report the same overlap, got %+v", conflicts)
	}
}

func TestValidateAssignment_LowSkillMatchWarning(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	task := testTask("T-001", "Frontend styling")
	task.Labels = []string{"frontend", "css"}
	board.Stages[models.StageTodo] = []models.Task{task}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentAvailable, Specialties: []string{"database"}}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-001", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("a skill mismatch must not invalidate, errors: %+v", result.Errors)
	}
	if findingByCode(result.Warnings, models.CodeLowSkillMatch) == nil {
		t.Errorf("expected LOW_SKILL_MATCH warning, got %+v", result.Warnings)
	}
}

func TestValidateAssignment_MalformedAgent(t *testing.T) {
	v, boards := newTestValidator()
	board, _ := boards.LoadOrInit()
	board.Stages[models.StageTodo] = []models.Task{testTask("T-001", "a")}

	result, err := v.ValidateAssignment(context.Background(), "robot-9", "T-001", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("a malformed agent ID must be invalid")
	}
	if findingByCode(result.Errors, models.CodeMalformedAgentID) == nil {
		t.Errorf("expected MALFORMED_AGENT_ID, got %+v", result.Errors)
	}
}

func TestValidateAssignment_WorkloadImbalance(t *testing.T) {
	v, boards := newTestValidator()

	board, _ := boards.LoadOrInit()
	t1 := testTask("T-001", "a")
	t1.Assignee = "agent-001"
	board.Stages[models.StageInProgress] = []models.Task{t1}
	board.Stages[models.StageTodo] = []models.Task{testTask("T-002", "b")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentAvailable}

	result, err := v.ValidateAssignment(context.Background(), "agent-001", "T-002", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := findingByCode(result.Warnings, models.CodeWorkloadImbalance)
	if f == nil {
		t.Fatalf("expected WORKLOAD_IMBALANCE warning, got %+v", result.Warnings)
	}
}
