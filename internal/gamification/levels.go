package gamification

import "github.com/amazonia-research/academy-backend/internal/models"

// Per-activity point values. These are product constants, not
// contracts: the engine only requires them to be positive.
const (
	LessonPoints = 10
	QuizPoints   = 25
	ModulePoints = 50
	CoursePoints = 100
)

// Quiz scoring thresholds (score is 0-100).
const (
	QuizPassScore = 70
	PerfectScore  = 100
)

// PointsFor returns the fixed point value for a completed activity.
func PointsFor(kind models.ActivityKind) int {
	switch kind {
	case models.ActivityLesson:
		return LessonPoints
	case models.ActivityQuiz:
		return QuizPoints
	case models.ActivityModule:
		return ModulePoints
	case models.ActivityCourse:
		return CoursePoints
	default:
		return 0
	}
}

// levelThresholds is the cumulative point staircase. Entry i is the
// minimum total required for level i+1. Must stay sorted ascending.
var levelThresholds = []struct {
	Points int
	Name   string
}{
	{0, "Seedling"},
	{100, "Sprout"},
	{250, "Sapling"},
	{500, "Young Tree"},
	{1000, "Canopy Climber"},
	{2000, "Canopy"},
	{3500, "Emergent"},
	{5500, "Old Growth"},
	{8000, "Forest Guardian"},
}

// MaxLevel is the highest reachable level.
var MaxLevel = len(levelThresholds)

// LevelFor maps a point total onto the level staircase. Progress is
// the fraction of the way from the current level's threshold to the
// next; at max level progress is 1 and PointsToNext is 0.
func LevelFor(totalPoints int) models.LevelInfo {
	if totalPoints < 0 {
		totalPoints = 0
	}

	idx := 0
	for i, t := range levelThresholds {
		if totalPoints >= t.Points {
			idx = i
		}
	}

	info := models.LevelInfo{
		Level: idx + 1,
		Name:  levelThresholds[idx].Name,
	}

	if idx == len(levelThresholds)-1 {
		info.Progress = 1
		info.PointsToNext = 0
		return info
	}

	cur := levelThresholds[idx].Points
	next := levelThresholds[idx+1].Points
	info.Progress = float64(totalPoints-cur) / float64(next-cur)
	info.PointsToNext = next - totalPoints
	return info
}
