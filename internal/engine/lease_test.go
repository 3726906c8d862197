package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

func newTestLeaser() (AgentLeaser, *memBoardStore, *fakeWorkspaces) {
	boards := newMemBoardStore()
	workspaces := newFakeWorkspaces()
	leaser := NewAgentLeaser(boards, NewLockManager(time.Second), workspaces, DefaultConfig())
	return leaser, boards, workspaces
}

func TestNextAvailableAgent_PrefersAvailable(t *testing.T) {
	leaser, boards, _ := newTestLeaser()

	board, _ := boards.LoadOrInit()
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentAvailable}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentOffline}

	result, err := leaser.NextAvailableAgent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AgentID != "agent-002" || result.Rule != LeaseRuleAvailable {
		t.Errorf("expected agent-002 via available, got %+v", result)
	}
}

func TestNextAvailableAgent_ReclaimsStaleClaim(t *testing.T) {
	leaser, boards, workspaces := newTestLeaser()

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageInProgress] = []models.Task{testTask("T-001", "Storage layer")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}
	// No workspace provisioned for agent-001: its claim is stale.
	_ = workspaces

	result, err := leaser.NextAvailableAgent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AgentID != "agent-001" || result.Rule != LeaseRuleStaleClaim {
		t.Errorf("expected agent-001 via stale_claim, got %+v", result)
	}
}

func TestNextAvailableAgent_ReclaimsOrphanBeforeMintingSlot(t *testing.T) {
	leaser, boards, workspaces := newTestLeaser()

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageInProgress] = []models.Task{testTask("T-001", "Storage layer")}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentOffline}
	board.Agents["agent-003"] = models.Agent{ID: "agent-003", Status: models.AgentWorking} // no current task
	if _, err := workspaces.Create("agent-001"); err != nil {
		t.Fatalf("provisioning workspace: %v", err)
	}
	if _, err := workspaces.Create("agent-003"); err != nil {
		t.Fatalf("provisioning workspace: %v", err)
	}

	// Slots 4 and 5 are unused, but the orphaned agent-003 must win.
	result, err := leaser.NextAvailableAgent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AgentID != "agent-003" || result.Rule != LeaseRuleOrphanedWork {
		t.Errorf("expected agent-003 via orphaned_status, got %+v", result)
	}
}

func TestNextAvailableAgent_MintsUnusedSlot(t *testing.T) {
	leaser, boards, workspaces := newTestLeaser()

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageInProgress] = []models.Task{
		testTask("T-001", "a"), testTask("T-002", "b"),
	}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentWorking, CurrentTask: "T-002"}
	if _, err := workspaces.Create("agent-001"); err != nil {
		t.Fatal(err)
	}
	if _, err := workspaces.Create("agent-002"); err != nil {
		t.Fatal(err)
	}

	result, err := leaser.NextAvailableAgent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AgentID != "agent-003" || result.Rule != LeaseRuleUnusedSlot {
		t.Errorf("expected agent-003 via unused_slot, got %+v", result)
	}
}

func TestNextAvailableAgent_PoolExhausted(t *testing.T) {
	boards := newMemBoardStore()
	workspaces := newFakeWorkspaces()
	cfg := DefaultConfig()
	cfg.MaxAgents = 2
	leaser := NewAgentLeaser(boards, NewLockManager(time.Second), workspaces, cfg)

	board, _ := boards.LoadOrInit()
	board.Stages[models.StageInProgress] = []models.Task{
		testTask("T-001", "a"), testTask("T-002", "b"),
	}
	board.Agents["agent-001"] = models.Agent{ID: "agent-001", Status: models.AgentWorking, CurrentTask: "T-001"}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentWorking, CurrentTask: "T-002"}
	for _, id := range []string{"agent-001", "agent-002"} {
		if _, err := workspaces.Create(id); err != nil {
			t.Fatal(err)
		}
	}

	_, err := leaser.NextAvailableAgent(context.Background())
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestNextAvailableAgent_DeterministicOrder(t *testing.T) {
	leaser, boards, _ := newTestLeaser()

	board, _ := boards.LoadOrInit()
	board.Agents["agent-003"] = models.Agent{ID: "agent-003", Status: models.AgentAvailable}
	board.Agents["agent-002"] = models.Agent{ID: "agent-002", Status: models.AgentAvailable}

	for i := 0; i < 5; i++ {
		result, err := leaser.NextAvailableAgent(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AgentID != "agent-002" {
			t.Fatalf("expected the lowest available slot every time, got %s", result.AgentID)
		}
	}
}
