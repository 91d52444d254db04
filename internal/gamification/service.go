package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amazonia-research/academy-backend/internal/models"
	"github.com/amazonia-research/academy-backend/internal/notify"
)

// Repository is the storage surface the engine runs on. *Store is the
// Postgres implementation; tests substitute an in-memory one. Every
// mutation behind this interface is atomic at the store: the service
// never read-modifies-writes a counter across the network boundary.
type Repository interface {
	GetOrCreatePoints(userID int64) (*models.StudentPoints, error)
	GetPoints(userID int64) (*models.StudentPoints, error)
	IncrementActivity(userID int64, kind models.ActivityKind, points int) error
	AddPoints(userID int64, amount int) error
	UpdateStreak(userID int64, current, longest int, lastActive time.Time) error

	GetBadgeCatalog() ([]models.Badge, error)
	GetEarnedBadgeIDs(userID int64) (map[int64]bool, error)
	GetEarnedBadges(userID int64) ([]models.EarnedBadge, error)
	InsertBadgeAward(userID, badgeID int64) (bool, error)

	GetActiveChallenges(now time.Time) ([]models.WeeklyChallenge, error)
	GetChallengeProgress(userID int64, now time.Time) ([]models.ChallengeProgress, error)
	AddChallengeProgress(userID, challengeID int64, amount int) (bool, error)
	ClaimChallengeReward(userID, challengeID int64) (reward, newTotal int, err error)

	GetLeaderboard(limit int) ([]models.LeaderboardEntry, error)
	GetStudentRank(userID int64) (int, error)
	GetStudent(userID int64) (*models.Student, error)
}

// LeaderboardCache is an optional read-through cache for leaderboard
// snapshots.
type LeaderboardCache interface {
	GetTop(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool)
	SetTop(ctx context.Context, limit int, entries []models.LeaderboardEntry)
}

type Service struct {
	store  Repository
	events notify.Publisher
	cache  LeaderboardCache
	now    func() time.Time
}

// NewService wires the engine. events and cache may be nil: badge
// awards then go unannounced and leaderboard reads always hit the
// store.
func NewService(store Repository, events notify.Publisher, cache LeaderboardCache) *Service {
	return &Service{
		store:  store,
		events: events,
		cache:  cache,
		now:    time.Now,
	}
}

// ── Points Ledger ───────────────────────────────────────

// RecordActivity credits the fixed point value for kind and bumps the
// matching counter. The ledger does not deduplicate: callers must
// have recorded the underlying completion first (at-least-once
// delivery of the same event would otherwise double count).
func (s *Service) RecordActivity(userID int64, kind models.ActivityKind) (int, error) {
	points := PointsFor(kind)
	if points == 0 {
		return 0, fmt.Errorf("unknown activity kind %q", kind)
	}

	if _, err := s.store.GetOrCreatePoints(userID); err != nil {
		return 0, fmt.Errorf("ensure ledger row: %w", err)
	}

	if err := s.store.IncrementActivity(userID, kind, points); err != nil {
		return 0, fmt.Errorf("record %s: %w", kind, err)
	}

	if err := s.UpdateLoginStreak(userID); err != nil {
		log.Printf("[gamification] failed to update streak for user %d: %v", userID, err)
	}

	return points, nil
}

// UpdateLoginStreak advances the consecutive-day streak. A second
// activity on the same day is a no-op; a gap of more than one day
// resets the streak to 1.
func (s *Service) UpdateLoginStreak(userID int64) error {
	p, err := s.store.GetOrCreatePoints(userID)
	if err != nil {
		return fmt.Errorf("get ledger: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)

	streak := 1
	if p.LastActiveDate != nil {
		lastActive := p.LastActiveDate.UTC().Truncate(24 * time.Hour)
		if lastActive.Equal(today) {
			return nil
		}
		if int(today.Sub(lastActive).Hours()/24) == 1 {
			streak = p.LoginStreak + 1
		}
	}

	longest := p.LongestStreak
	if streak > longest {
		longest = streak
	}

	return s.store.UpdateStreak(userID, streak, longest, today)
}

// ── Badge Award Service ─────────────────────────────────

// AwardNewBadges re-reads the ledger, evaluates the catalog, and
// persists awards for badges the student newly qualifies for. Each
// badge is processed independently: one failed insert never blocks
// the rest. The unique constraint on student_badges settles races
// between concurrent sessions; a lost race means skip, not a second
// bonus. Returns only the badges this call actually awarded.
func (s *Service) AwardNewBadges(userID int64, sig Signals) ([]models.Badge, error) {
	p, err := s.store.GetPoints(userID)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	catalog, err := s.store.GetBadgeCatalog()
	if err != nil {
		return nil, fmt.Errorf("read badge catalog: %w", err)
	}

	earned, err := s.store.GetEarnedBadgeIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("read earned badges: %w", err)
	}

	var awarded []models.Badge
	for _, badge := range EvaluateBadges(p, sig, catalog, earned) {
		created, err := s.store.InsertBadgeAward(userID, badge.ID)
		if err != nil {
			log.Printf("[gamification] failed to award badge %d to user %d: %v", badge.ID, userID, err)
			continue
		}
		if !created {
			// Another session already awarded it.
			continue
		}

		if badge.Points > 0 {
			if err := s.store.AddPoints(userID, badge.Points); err != nil {
				log.Printf("[gamification] failed to credit %d bonus points for badge %d to user %d: %v",
					badge.Points, badge.ID, userID, err)
			}
		}

		awarded = append(awarded, badge)
		s.notifyBadgeEarned(userID, badge)
	}

	return awarded, nil
}

func (s *Service) notifyBadgeEarned(userID int64, badge models.Badge) {
	if s.events == nil {
		return
	}
	student, err := s.store.GetStudent(userID)
	if err != nil {
		log.Printf("[gamification] no student record for user %d, skipping badge notification: %v", userID, err)
		return
	}
	s.events.Publish(notify.NewEvent(notify.EventBadgeEarned, student.Email, student.Name, map[string]interface{}{
		"badge_name":   badge.Name,
		"badge_icon":   badge.Icon,
		"bonus_points": badge.Points,
	}))
}

// ── Challenge Tracker ───────────────────────────────────

// challengeTypeFor maps an activity to the challenge_type it advances.
func challengeTypeFor(kind models.ActivityKind) string {
	switch kind {
	case models.ActivityLesson:
		return string(models.RequireLessons)
	case models.ActivityQuiz:
		return string(models.RequireQuizzes)
	case models.ActivityModule:
		return string(models.RequireModules)
	case models.ActivityCourse:
		return string(models.RequireCourses)
	default:
		return ""
	}
}

// TrackActivityChallenges advances every active challenge matching
// the activity by one. Challenges are independent units of work: a
// failure on one is logged and the rest still progress.
func (s *Service) TrackActivityChallenges(userID int64, kind models.ActivityKind) {
	challengeType := challengeTypeFor(kind)
	if challengeType == "" {
		return
	}

	challenges, err := s.store.GetActiveChallenges(s.now())
	if err != nil {
		log.Printf("[gamification] failed to load active challenges: %v", err)
		return
	}

	for _, c := range challenges {
		if c.ChallengeType != challengeType {
			continue
		}
		completed, err := s.store.AddChallengeProgress(userID, c.ID, 1)
		if err != nil {
			log.Printf("[gamification] failed to advance challenge %d for user %d: %v", c.ID, userID, err)
			continue
		}
		if completed {
			log.Printf("[gamification] user %d completed challenge %d (%s)", userID, c.ID, c.Title)
		}
	}
}

// ClaimReward credits a completed challenge's reward exactly once.
// ErrNotCompleted and ErrNotFound surface to the caller; a repeat
// claim comes back as ErrAlreadyClaimed with no point movement.
func (s *Service) ClaimReward(userID, challengeID int64) (*models.ClaimRewardResponse, error) {
	reward, total, err := s.store.ClaimChallengeReward(userID, challengeID)
	if err != nil {
		return nil, err
	}
	return &models.ClaimRewardResponse{
		ChallengeID:  challengeID,
		RewardPoints: reward,
		TotalPoints:  total,
	}, nil
}

// ListChallenges returns the active week's challenges with the
// student's progress.
func (s *Service) ListChallenges(userID int64) (*models.ChallengesResponse, error) {
	progress, err := s.store.GetChallengeProgress(userID, s.now())
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = []models.ChallengeProgress{}
	}
	return &models.ChallengesResponse{Challenges: progress}, nil
}

// ── Read Projections ────────────────────────────────────

// CurrentPoints returns the ledger row as stored right now.
func (s *Service) CurrentPoints(userID int64) (*models.StudentPoints, error) {
	return s.store.GetOrCreatePoints(userID)
}

// GetOverview is a pure read: a student with no ledger row yet (no
// activity recorded, so no identity shadow row either) gets zero
// counters back rather than a row insert, which would trip the
// students foreign key before their first completion.
func (s *Service) GetOverview(userID int64) (*models.GamificationResponse, error) {
	p, err := s.store.GetPoints(userID)
	if errors.Is(err, ErrNotFound) {
		p = &models.StudentPoints{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	badges, err := s.store.GetEarnedBadges(userID)
	if err != nil {
		return nil, err
	}
	if badges == nil {
		badges = []models.EarnedBadge{}
	}

	return &models.GamificationResponse{
		UserID:           p.UserID,
		TotalPoints:      p.TotalPoints,
		LessonsCompleted: p.LessonsCompleted,
		QuizzesPassed:    p.QuizzesPassed,
		ModulesCompleted: p.ModulesCompleted,
		CoursesCompleted: p.CoursesCompleted,
		LoginStreak:      p.LoginStreak,
		LongestStreak:    p.LongestStreak,
		Level:            LevelFor(p.TotalPoints),
		Badges:           badges,
	}, nil
}

func (s *Service) ListBadges(userID int64) ([]models.BadgeStatus, error) {
	catalog, err := s.store.GetBadgeCatalog()
	if err != nil {
		return nil, err
	}

	earned, err := s.store.GetEarnedBadges(userID)
	if err != nil {
		return nil, err
	}
	earnedAt := make(map[int64]time.Time, len(earned))
	for _, b := range earned {
		earnedAt[b.ID] = b.EarnedAt
	}

	statuses := make([]models.BadgeStatus, 0, len(catalog))
	for _, b := range catalog {
		status := models.BadgeStatus{Badge: b}
		if at, ok := earnedAt[b.ID]; ok {
			status.Earned = true
			t := at
			status.EarnedAt = &t
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetLeaderboard returns the top N students plus the caller's own
// entry when they fall outside it. Snapshots are cached briefly;
// the current-user flag is applied after the cache so cached entries
// stay caller-neutral.
func (s *Service) GetLeaderboard(ctx context.Context, userID int64, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []models.LeaderboardEntry
	cached := false
	if s.cache != nil {
		entries, cached = s.cache.GetTop(ctx, limit)
	}
	if !cached {
		var err error
		entries, err = s.store.GetLeaderboard(limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.SetTop(ctx, limit, entries)
		}
	}

	found := false
	for i := range entries {
		if entries[i].UserID == userID {
			entries[i].IsCurrentUser = true
			found = true
		}
	}

	var currentUser *models.LeaderboardEntry
	if !found {
		rank, err := s.store.GetStudentRank(userID)
		if err == nil && rank > 0 {
			if p, err := s.store.GetPoints(userID); err == nil {
				lvl := LevelFor(p.TotalPoints)
				currentUser = &models.LeaderboardEntry{
					Rank:             rank,
					UserID:           userID,
					TotalPoints:      p.TotalPoints,
					Level:            lvl.Level,
					LevelName:        lvl.Name,
					LessonsCompleted: p.LessonsCompleted,
					ModulesCompleted: p.ModulesCompleted,
					IsCurrentUser:    true,
				}
			}
		}
	}

	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	return &models.LeaderboardResponse{
		Entries:     entries,
		CurrentUser: currentUser,
	}, nil
}
