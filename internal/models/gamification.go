package models

import "time"

// ── Activity Kinds ────────────────────────────────────────

// ActivityKind identifies the learning activity that triggered a
// ledger update.
type ActivityKind string

const (
	ActivityLesson ActivityKind = "lesson"
	ActivityQuiz   ActivityKind = "quiz"
	ActivityModule ActivityKind = "module"
	ActivityCourse ActivityKind = "course"
)

// IsValid reports whether the kind is one of the known activities.
func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityLesson, ActivityQuiz, ActivityModule, ActivityCourse:
		return true
	default:
		return false
	}
}

// ── Badge Requirements ────────────────────────────────────

// Requirement selects which counter a badge threshold is compared
// against. perfect_score is event-driven: it never reads a counter
// and only fires on the attempt that produced the perfect result.
type Requirement string

const (
	RequireLessons Requirement = "complete_lessons"
	RequireQuizzes Requirement = "pass_quiz"
	RequireModules Requirement = "complete_modules"
	RequireCourses Requirement = "complete_courses"
	RequireStreak  Requirement = "login_streak"
	RequirePerfect Requirement = "perfect_score"
)

// ── Core Gamification Structs ─────────────────────────────

// StudentPoints is the per-student aggregate ledger row. Level is
// never stored: it is always derived from TotalPoints.
type StudentPoints struct {
	UserID           int64      `json:"user_id"`
	TotalPoints      int        `json:"total_points"`
	LessonsCompleted int        `json:"lessons_completed"`
	QuizzesPassed    int        `json:"quizzes_passed"`
	ModulesCompleted int        `json:"modules_completed"`
	CoursesCompleted int        `json:"courses_completed"`
	LoginStreak      int        `json:"login_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActiveDate   *time.Time `json:"last_active_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Badge is a catalog entry. RequirementValue is the threshold the
// matching counter must reach; Points is the one-time unlock bonus.
type Badge struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Icon             string      `json:"icon"`
	Color            string      `json:"color"`
	RequirementType  Requirement `json:"requirement_type"`
	RequirementValue int         `json:"requirement_value"`
	Points           int         `json:"points"`
}

// EarnedBadge is a badge joined with its award timestamp.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earned_at"`
}

// WeeklyChallenge is a time-boxed goal definition. Immutable once
// published mid-week; expiry is a scheduling concern outside this
// service.
type WeeklyChallenge struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ChallengeType string    `json:"challenge_type"`
	TargetValue   int       `json:"target_value"`
	RewardPoints  int       `json:"reward_points"`
	WeekStart     time.Time `json:"week_start"`
	WeekEnd       time.Time `json:"week_end"`
}

// ChallengeProgress is a challenge definition joined with one
// student's progress row (zero-valued when the student has none yet).
type ChallengeProgress struct {
	WeeklyChallenge
	CurrentProgress int  `json:"current_progress"`
	IsCompleted     bool `json:"is_completed"`
	RewardClaimed   bool `json:"reward_claimed"`
}

// Student is the identity shadow row kept for leaderboard display
// and notification addressing. The identity provider owns the source
// of truth.
type Student struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is what the identity collaborator supplies for the acting
// student. The engine treats all three fields as opaque.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// ── Level ─────────────────────────────────────────────────

// LevelInfo is the derived display tier for a point total.
type LevelInfo struct {
	Level        int     `json:"level"`
	Name         string  `json:"name"`
	Progress     float64 `json:"progress"`
	PointsToNext int     `json:"points_to_next"`
}

// ── Request Types ─────────────────────────────────────────

type CompleteQuizRequest struct {
	Score int `json:"score"`
}

// ── Response Types ────────────────────────────────────────

type GamificationResponse struct {
	UserID           int64         `json:"user_id"`
	TotalPoints      int           `json:"total_points"`
	LessonsCompleted int           `json:"lessons_completed"`
	QuizzesPassed    int           `json:"quizzes_passed"`
	ModulesCompleted int           `json:"modules_completed"`
	CoursesCompleted int           `json:"courses_completed"`
	LoginStreak      int           `json:"login_streak"`
	LongestStreak    int           `json:"longest_streak"`
	Level            LevelInfo     `json:"level"`
	Badges           []EarnedBadge `json:"badges"`
}

// BadgeStatus is a catalog badge annotated with the caller's state.
type BadgeStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// ActivityResult is returned after a completion endpoint runs the
// full ledger, badge, and challenge flow.
type ActivityResult struct {
	AlreadyCompleted bool      `json:"already_completed"`
	Passed           bool      `json:"passed"`
	PointsEarned     int       `json:"points_earned"`
	TotalPoints      int       `json:"total_points"`
	Level            LevelInfo `json:"level"`
	NewBadges        []Badge   `json:"new_badges"`
}

type ClaimRewardResponse struct {
	ChallengeID    int64 `json:"challenge_id"`
	RewardPoints   int   `json:"reward_points"`
	TotalPoints    int   `json:"total_points"`
	AlreadyClaimed bool  `json:"already_claimed"`
}

type LeaderboardResponse struct {
	Entries     []LeaderboardEntry `json:"entries"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           int64  `json:"user_id"`
	DisplayName      string `json:"display_name"`
	TotalPoints      int    `json:"total_points"`
	Level            int    `json:"level"`
	LevelName        string `json:"level_name"`
	LessonsCompleted int    `json:"lessons_completed"`
	ModulesCompleted int    `json:"modules_completed"`
	IsCurrentUser    bool   `json:"is_current_user"`
}

type ChallengesResponse struct {
	Challenges []ChallengeProgress `json:"challenges"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
