package engine

import (
	"strings"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// ScoreInputs carries the per-dimension inputs for the aggregate
// assignment score.
type ScoreInputs struct {
	CapacityHeadroom float64 // 0-100, percent of concurrency budget left
	SkillMatch       float64 // 0-100
	Priority         models.Priority
	TargetFileCount  int
}

// ScoringStrategy computes the skill match, the aggregate assignment score,
// and the confidence value for a proposed (agent, task) pairing. It is
// pluggable so scoring policy stays decoupled from validation control flow.
type ScoringStrategy interface {
	SkillMatch(agent models.Agent, task models.Task) float64
	AssignmentScore(in ScoreInputs) float64
	Confidence(score float64, errors, warnings []models.Finding) float64
}

// weightedScoring is the default strategy: a weighted blend of capacity
// headroom (30%), skill match (40%), task priority (20%), and a scope
// bonus for tightly-scoped tasks (10%).
type weightedScoring struct{}

// NewWeightedScoring returns the default ScoringStrategy.
func NewWeightedScoring() ScoringStrategy {
	return weightedScoring{}
}

// priorityScore maps task priority to a 0-100 urgency value.
var priorityScore = map[models.Priority]float64{
	models.PriorityCritical: 100,
	models.PriorityHigh:     75,
	models.PriorityNormal:   50,
	models.PriorityLow:      25,
}

// SkillMatch scores the overlap of the agent's declared specialties against
// the task's labels, title, and description on a 0-100 scale. An exact
// label match weighs highest; keyword substring hits in the title or
// description weigh lower. An agent with no declared specialties scores a
// neutral 50.
func (weightedScoring) SkillMatch(agent models.Agent, task models.Task) float64 {
	if len(agent.Specialties) == 0 {
		return 50
	}

	labels := make(map[string]struct{}, len(task.Labels))
	for _, l := range task.Labels {
		labels[strings.ToLower(l)] = struct{}{}
	}
	text := strings.ToLower(task.Title + " " + task.Description)

	score := 0.0
	for _, spec := range agent.Specialties {
		s := strings.ToLower(strings.TrimSpace(spec))
		if s == "" {
			continue
		}
		if _, ok := labels[s]; ok {
			score += 40
			continue
		}
		if strings.Contains(text, s) {
			score += 15
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// AssignmentScore blends the scoring dimensions with the fixed weights.
func (weightedScoring) AssignmentScore(in ScoreInputs) float64 {
	prio, ok := priorityScore[in.Priority]
	if !ok {
		prio = 50
	}

	// Tighter scope earns a bonus: each target file past the first trims it.
	scope := 100.0 - float64(in.TargetFileCount)*10
	if in.TargetFileCount == 0 {
		scope = 50
	}
	if scope < 0 {
		scope = 0
	}

	score := 0.30*in.CapacityHeadroom + 0.40*in.SkillMatch + 0.20*prio + 0.10*scope
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Confidence discounts the assignment score for every finding present:
// blocking costs 20, critical 15, high and medium 10, low 5, and each
// non-blocking warning 5. The result is clamped to [0, 100].
func (weightedScoring) Confidence(score float64, errors, warnings []models.Finding) float64 {
	confidence := score
	for _, f := range errors {
		switch f.Severity {
		case models.SeverityBlocking:
			confidence -= 20
		case models.SeverityCritical:
			confidence -= 15
		case models.SeverityHigh, models.SeverityMedium:
			confidence -= 10
		default:
			confidence -= 5
		}
	}
	confidence -= 5 * float64(len(warnings))

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}
