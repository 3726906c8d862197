package models

// BoardSummary holds denormalized counts derived from the stage sequences.
// It is recomputed on every save and is never authoritative.
type BoardSummary struct {
	TotalTasks      int           `yaml:"total_tasks"`
	StageCounts     map[Stage]int `yaml:"stage_counts"`
	CompletionPct   float64       `yaml:"completion_pct"`
	ActiveAgents    int           `yaml:"active_agents"`
	LastRecomputeBy string        `yaml:"last_recompute_by,omitempty"`
}

// Board is the shared structure holding all tasks, partitioned by stage, and
// all agent records. It is the sole shared mutable resource of the engine.
type Board struct {
	Version string           `yaml:"version"`
	Stages  map[Stage][]Task `yaml:"stages"`
	Agents  map[string]Agent `yaml:"agents"`
	Summary BoardSummary     `yaml:"summary"`
}

// NewBoard returns an empty board with all stage sequences initialized.
func NewBoard() *Board {
	stages := make(map[Stage][]Task, len(Stages()))
	for _, s := range Stages() {
		stages[s] = nil
	}
	return &Board{
		Version: "1.0",
		Stages:  stages,
		Agents:  make(map[string]Agent),
	}
}

// FindTask returns the task with the given ID and the stage holding it.
// The bool result reports whether the task exists anywhere on the board.
func (b *Board) FindTask(taskID string) (*Task, Stage, bool) {
	for _, stage := range Stages() {
		tasks := b.Stages[stage]
		for i := range tasks {
			if tasks[i].ID == taskID {
				return &tasks[i], stage, true
			}
		}
	}
	return nil, "", false
}

// RemoveTask deletes the task with the given ID from whichever stage holds it
// and returns the removed task. The bool result reports whether it was found.
func (b *Board) RemoveTask(taskID string) (Task, bool) {
	for _, stage := range Stages() {
		tasks := b.Stages[stage]
		for i := range tasks {
			if tasks[i].ID == taskID {
				removed := tasks[i]
				b.Stages[stage] = append(tasks[:i:i], tasks[i+1:]...)
				return removed, true
			}
		}
	}
	return Task{}, false
}

// MoveTask relocates a task to the end of the target stage sequence.
func (b *Board) MoveTask(taskID string, to Stage) bool {
	task, ok := b.RemoveTask(taskID)
	if !ok {
		return false
	}
	b.Stages[to] = append(b.Stages[to], task)
	return true
}

// AgentHolding returns the ID of the agent whose current_task equals taskID,
// or the empty string if no agent holds it.
func (b *Board) AgentHolding(taskID string) string {
	for id, agent := range b.Agents {
		if agent.CurrentTask == taskID {
			return id
		}
	}
	return ""
}

// TasksAssignedTo returns the tasks in the given stage whose assignee is the
// given agent ID.
func (b *Board) TasksAssignedTo(agentID string, stage Stage) []Task {
	var out []Task
	for _, t := range b.Stages[stage] {
		if t.Assignee == agentID {
			out = append(out, t)
		}
	}
	return out
}

// RecomputeSummary rebuilds the denormalized summary from the stage
// sequences. The result is deterministic for a given board.
func (b *Board) RecomputeSummary() {
	counts := make(map[Stage]int, len(Stages()))
	total := 0
	for _, stage := range Stages() {
		counts[stage] = len(b.Stages[stage])
		total += len(b.Stages[stage])
	}

	pct := 0.0
	if total > 0 {
		pct = float64(counts[StageDone]) / float64(total) * 100
	}

	active := 0
	for _, agent := range b.Agents {
		if agent.Status == AgentWorking {
			active++
		}
	}

	b.Summary = BoardSummary{
		TotalTasks:    total,
		StageCounts:   counts,
		CompletionPct: pct,
		ActiveAgents:  active,
	}
}
