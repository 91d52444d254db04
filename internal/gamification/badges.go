package gamification

import (
	"log"

	"github.com/amazonia-research/academy-backend/internal/models"
)

// Signals carries event-scoped inputs to badge evaluation. Unlike the
// ledger counters these are true for a single attempt only, so they
// must not be folded into the counters: a stored flag would re-qualify
// the student on every later evaluation.
type Signals struct {
	// PerfectScore is set when the triggering quiz attempt scored 100.
	PerfectScore bool
}

// EvaluateBadges returns the catalog badges the student newly
// qualifies for: requirement met and not already in earned.
// The caller persists the awards; this function has no side effects.
func EvaluateBadges(p *models.StudentPoints, sig Signals, catalog []models.Badge, earned map[int64]bool) []models.Badge {
	var qualified []models.Badge
	for _, b := range catalog {
		if earned[b.ID] {
			continue
		}
		if requirementMet(b, p, sig) {
			qualified = append(qualified, b)
		}
	}
	return qualified
}

func requirementMet(b models.Badge, p *models.StudentPoints, sig Signals) bool {
	switch b.RequirementType {
	case models.RequireLessons:
		return p.LessonsCompleted >= b.RequirementValue
	case models.RequireQuizzes:
		return p.QuizzesPassed >= b.RequirementValue
	case models.RequireModules:
		return p.ModulesCompleted >= b.RequirementValue
	case models.RequireCourses:
		return p.CoursesCompleted >= b.RequirementValue
	case models.RequireStreak:
		return p.LoginStreak >= b.RequirementValue
	case models.RequirePerfect:
		return sig.PerfectScore
	default:
		log.Printf("[gamification] unknown badge requirement %q for badge %d, skipping", b.RequirementType, b.ID)
		return false
	}
}
