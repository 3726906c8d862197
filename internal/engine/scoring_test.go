package engine

import (
	"math"
	"testing"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSkillMatch(t *testing.T) {
	scorer := NewWeightedScoring()

	cases := []struct {
		name        string
		specialties []string
		task        models.Task
		want        float64
	}{
		{
			name: "no specialties is neutral",
			task: models.Task{Labels: []string{"backend"}},
			want: 50,
		},
		{
			name:        "exact label match",
			specialties: []string{"backend"},
			task:        models.Task{Labels: []string{"backend"}},
			want:        40,
		},
		{
			name:        "keyword hit in title",
			specialties: []string{"storage"},
			task:        models.Task{Title: "Rework the storage layer"},
			want:        15,
		},
		{
			name:        "label beats keyword per specialty",
			specialties: []string{"storage"},
			task:        models.Task{Title: "storage cleanup", Labels: []string{"storage"}},
			want:        40,
		},
		{
			name:        "no overlap",
			specialties: []string{"frontend"},
			task:        models.Task{Title: "Database migration", Labels: []string{"database"}},
			want:        0,
		},
		{
			name:        "capped at 100",
			specialties: []string{"a", "b", "c"},
			task:        models.Task{Labels: []string{"a", "b", "c"}},
			want:        100,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agent := models.Agent{ID: "agent-001", Specialties: tc.specialties}
			if got := scorer.SkillMatch(agent, tc.task); got != tc.want {
				t.Errorf("SkillMatch = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestAssignmentScore(t *testing.T) {
	scorer := NewWeightedScoring()

	// 0.30*100 + 0.40*50 + 0.20*50 + 0.10*50 = 65
	got := scorer.AssignmentScore(ScoreInputs{
		CapacityHeadroom: 100,
		SkillMatch:       50,
		Priority:         models.PriorityNormal,
		TargetFileCount:  0,
	})
	if !almostEqual(got, 65) {
		t.Errorf("expected 65, got %g", got)
	}

	// Critical priority and a single target file raise the score:
	// 0.30*100 + 0.40*50 + 0.20*100 + 0.10*90 = 79
	got = scorer.AssignmentScore(ScoreInputs{
		CapacityHeadroom: 100,
		SkillMatch:       50,
		Priority:         models.PriorityCritical,
		TargetFileCount:  1,
	})
	if !almostEqual(got, 79) {
		t.Errorf("expected 79, got %g", got)
	}

	// An unknown priority falls back to the normal urgency.
	a := scorer.AssignmentScore(ScoreInputs{CapacityHeadroom: 50, SkillMatch: 50, Priority: "weird"})
	b := scorer.AssignmentScore(ScoreInputs{CapacityHeadroom: 50, SkillMatch: 50, Priority: models.PriorityNormal})
	if !almostEqual(a, b) {
		t.Errorf("unknown priority should score like normal: %g != %g", a, b)
	}

	// A huge target surface floors the scope bonus at zero.
	got = scorer.AssignmentScore(ScoreInputs{
		CapacityHeadroom: 0,
		SkillMatch:       0,
		Priority:         models.PriorityLow,
		TargetFileCount:  50,
	})
	if !almostEqual(got, 5) { // 0.20*25
		t.Errorf("expected 5, got %g", got)
	}
}

func TestConfidence_Discounts(t *testing.T) {
	scorer := NewWeightedScoring()

	if got := scorer.Confidence(80, nil, nil); !almostEqual(got, 80) {
		t.Errorf("clean confidence should equal the score, got %g", got)
	}

	errs := []models.Finding{
		{Severity: models.SeverityBlocking}, // -20
		{Severity: models.SeverityCritical}, // -15
		{Severity: models.SeverityHigh},     // -10
	}
	warns := []models.Finding{
		{Severity: models.SeverityInfo}, // -5
		{Severity: models.SeverityInfo}, // -5
	}
	if got := scorer.Confidence(80, errs, warns); !almostEqual(got, 25) {
		t.Errorf("expected 25 after discounts, got %g", got)
	}

	// Clamped at zero.
	if got := scorer.Confidence(10, errs, warns); !almostEqual(got, 0) {
		t.Errorf("expected 0, got %g", got)
	}
}
