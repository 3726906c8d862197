package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// LeaseRule identifies which leasing rule matched an agent.
type LeaseRule string

const (
	LeaseRuleAvailable    LeaseRule = "available"
	LeaseRuleStaleClaim   LeaseRule = "stale_claim"
	LeaseRuleOrphanedWork LeaseRule = "orphaned_status"
	LeaseRuleUnusedSlot   LeaseRule = "unused_slot"
)

// LeaseResult names the agent selected for the next lease and the rule that
// selected it.
type LeaseResult struct {
	AgentID string    `yaml:"agent_id"`
	Rule    LeaseRule `yaml:"rule"`
	Reason  string    `yaml:"reason"`
}

// AgentLeaser selects the next leasable agent from the fixed pool.
type AgentLeaser interface {
	NextAvailableAgent(ctx context.Context) (*LeaseResult, error)
}

type agentLeaser struct {
	boards     BoardStore
	locks      *LockManager
	workspaces WorkspaceProvider
	cfg        *models.EngineConfig
}

// NewAgentLeaser creates an AgentLeaser with all dependencies injected.
func NewAgentLeaser(boards BoardStore, locks *LockManager, workspaces WorkspaceProvider, cfg *models.EngineConfig) AgentLeaser {
	return &agentLeaser{
		boards:     boards,
		locks:      locks,
		workspaces: workspaces,
		cfg:        cfg,
	}
}

// NextAvailableAgent evaluates the leasing rules in strict priority order
// and returns the first match:
//
//  1. an agent recorded available with no current task,
//  2. a working agent whose workspace no longer exists (stale claim),
//  3. a working agent with no current task (orphaned status),
//  4. a configured slot not yet present on the board.
//
// Broken claims are reclaimed before new slots are minted so the pool does
// not grow while repairable agents sit idle. When no rule matches, the
// error is ErrPoolExhausted; callers must not invent slots beyond the
// configured pool.
func (al *agentLeaser) NextAvailableAgent(ctx context.Context) (*LeaseResult, error) {
	release, err := al.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("leasing agent: %w", err)
	}
	defer release()

	board, err := al.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("leasing agent: %w", err)
	}

	// Deterministic scan order: agents sorted by ID, slots ascending.
	ids := make([]string, 0, len(board.Agents))
	for id := range board.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		agent := board.Agents[id]
		if agent.Status == models.AgentAvailable && agent.CurrentTask == "" {
			return &LeaseResult{
				AgentID: id,
				Rule:    LeaseRuleAvailable,
				Reason:  "agent is available with no current task",
			}, nil
		}
	}

	for _, id := range ids {
		agent := board.Agents[id]
		if agent.Status != models.AgentWorking {
			continue
		}
		if exists, _ := al.workspaces.Exists(id); !exists {
			return &LeaseResult{
				AgentID: id,
				Rule:    LeaseRuleStaleClaim,
				Reason:  "recorded working but its workspace no longer exists",
			}, nil
		}
	}

	for _, id := range ids {
		agent := board.Agents[id]
		if agent.Status == models.AgentWorking && agent.CurrentTask == "" {
			return &LeaseResult{
				AgentID: id,
				Rule:    LeaseRuleOrphanedWork,
				Reason:  "recorded working with no current task",
			}, nil
		}
	}

	for slot := 1; slot <= al.cfg.MaxAgents; slot++ {
		id := SlotID(slot)
		if _, present := board.Agents[id]; !present {
			return &LeaseResult{
				AgentID: id,
				Rule:    LeaseRuleUnusedSlot,
				Reason:  "slot has never been materialized",
			}, nil
		}
	}

	return nil, ErrPoolExhausted
}
