package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// SplitResult names the two tasks derived from a partially-validated task.
type SplitResult struct {
	CompletedID string `yaml:"completed_id"`
	RemainingID string `yaml:"remaining_id"`
}

// TaskSplitter replaces a partially-completed task with a completed portion
// in done and a remaining-work task in todo.
type TaskSplitter interface {
	SplitTask(ctx context.Context, taskID, reason string) (*SplitResult, error)
}

type taskSplitter struct {
	boards BoardStore
	locks  *LockManager
	events EventLogger
}

// NewTaskSplitter creates a TaskSplitter. events may be nil.
func NewTaskSplitter(boards BoardStore, locks *LockManager, events EventLogger) TaskSplitter {
	return &taskSplitter{boards: boards, locks: locks, events: events}
}

// SplitTask removes the original task and derives two tasks from it: the
// completed portion lands in done, the remaining work in todo. The
// remaining task inherits the original dependencies plus a dependency on
// the completed portion, and any dependent tasks are rewritten to point at
// the remaining task. A task currently held by an agent cannot be split.
func (ts *taskSplitter) SplitTask(ctx context.Context, taskID, reason string) (*SplitResult, error) {
	release, err := ts.locks.Acquire(ctx, LockKeyBoard)
	if err != nil {
		return nil, fmt.Errorf("splitting task %s: %w", taskID, err)
	}
	defer release()

	board, err := ts.boards.LoadOrInit()
	if err != nil {
		return nil, fmt.Errorf("splitting task %s: %w", taskID, err)
	}

	task, _, found := board.FindTask(taskID)
	if !found {
		return nil, fmt.Errorf("splitting task %s: task not found", taskID)
	}
	if holder := board.AgentHolding(taskID); holder != "" {
		return nil, fmt.Errorf("splitting task %s: task is held by %s", taskID, holder)
	}

	original := *task
	now := time.Now().UTC()

	completed := original
	completed.ID = original.ID + "-a"
	completed.Title = original.Title + " (completed portion)"
	completed.Assignee = ""
	completed.EstimatedHours = original.EstimatedHours / 2
	completed.Completed = &now
	completed.DispositionReason = reason

	remaining := original
	remaining.ID = original.ID + "-b"
	remaining.Title = original.Title + " (remaining work)"
	remaining.Assignee = ""
	remaining.EstimatedHours = original.EstimatedHours / 2
	remaining.Started = nil
	remaining.Completed = nil
	remaining.Dependencies = append(append([]string{}, original.Dependencies...), completed.ID)
	remaining.DispositionReason = reason

	board.RemoveTask(taskID)
	board.Stages[models.StageDone] = append(board.Stages[models.StageDone], completed)
	board.Stages[models.StageTodo] = append(board.Stages[models.StageTodo], remaining)

	// Dependents of the original now depend on the remaining work.
	for _, stage := range models.Stages() {
		tasks := board.Stages[stage]
		for i := range tasks {
			for j, dep := range tasks[i].Dependencies {
				if dep == taskID {
					tasks[i].Dependencies[j] = remaining.ID
				}
			}
		}
	}

	if err := ts.boards.Save(board); err != nil {
		return nil, fmt.Errorf("splitting task %s: %w", taskID, err)
	}

	if ts.events != nil {
		_ = ts.events.LogEvent("task.split", map[string]any{
			"task_id":      taskID,
			"completed_id": completed.ID,
			"remaining_id": remaining.ID,
			"reason":       reason,
		})
	}

	return &SplitResult{CompletedID: completed.ID, RemainingID: remaining.ID}, nil
}
