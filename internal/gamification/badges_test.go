package gamification

import (
	"testing"

	"github.com/amazonia-research/academy-backend/internal/models"
)

func testCatalog() []models.Badge {
	return []models.Badge{
		{ID: 1, Name: "Quick Learner", RequirementType: models.RequireLessons, RequirementValue: 5, Points: 20},
		{ID: 2, Name: "Quiz Master", RequirementType: models.RequireQuizzes, RequirementValue: 10, Points: 50},
		{ID: 3, Name: "Perfectionist", RequirementType: models.RequirePerfect, RequirementValue: 1, Points: 25},
		{ID: 4, Name: "Week Streak", RequirementType: models.RequireStreak, RequirementValue: 7, Points: 50},
	}
}

func badgeIDs(badges []models.Badge) []int64 {
	ids := make([]int64, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

func TestEvaluateBadgesThresholdExactness(t *testing.T) {
	catalog := testCatalog()
	earned := map[int64]bool{}

	// One below the threshold: no qualification.
	p := &models.StudentPoints{LessonsCompleted: 4}
	if got := EvaluateBadges(p, Signals{}, catalog, earned); len(got) != 0 {
		t.Fatalf("4 lessons qualified for %v, want none", badgeIDs(got))
	}

	// Exactly at the threshold: exactly one qualification.
	p.LessonsCompleted = 5
	got := EvaluateBadges(p, Signals{}, catalog, earned)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("5 lessons qualified for %v, want [1]", badgeIDs(got))
	}
}

func TestEvaluateBadgesSkipsEarned(t *testing.T) {
	catalog := testCatalog()
	p := &models.StudentPoints{LessonsCompleted: 50, QuizzesPassed: 50}

	got := EvaluateBadges(p, Signals{}, catalog, map[int64]bool{1: true})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("qualified for %v, want [2]", badgeIDs(got))
	}
}

func TestEvaluateBadgesPerfectScoreSignal(t *testing.T) {
	catalog := testCatalog()
	p := &models.StudentPoints{QuizzesPassed: 1}

	// The perfect-score badge follows the attempt signal, not any
	// stored counter.
	if got := EvaluateBadges(p, Signals{}, catalog, map[int64]bool{}); len(got) != 0 {
		t.Fatalf("no signal qualified for %v, want none", badgeIDs(got))
	}

	got := EvaluateBadges(p, Signals{PerfectScore: true}, catalog, map[int64]bool{})
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("perfect signal qualified for %v, want [3]", badgeIDs(got))
	}
}

func TestEvaluateBadgesStreak(t *testing.T) {
	catalog := testCatalog()

	p := &models.StudentPoints{LoginStreak: 6}
	if got := EvaluateBadges(p, Signals{}, catalog, map[int64]bool{}); len(got) != 0 {
		t.Fatalf("6-day streak qualified for %v, want none", badgeIDs(got))
	}

	p.LoginStreak = 7
	got := EvaluateBadges(p, Signals{}, catalog, map[int64]bool{})
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("7-day streak qualified for %v, want [4]", badgeIDs(got))
	}
}

func TestEvaluateBadgesUnknownRequirement(t *testing.T) {
	catalog := []models.Badge{
		{ID: 9, Name: "Mystery", RequirementType: models.Requirement("solve_riddles"), RequirementValue: 1},
	}
	p := &models.StudentPoints{LessonsCompleted: 100}

	if got := EvaluateBadges(p, Signals{}, catalog, map[int64]bool{}); len(got) != 0 {
		t.Fatalf("unknown requirement qualified for %v, want none", badgeIDs(got))
	}
}
