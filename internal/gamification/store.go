package gamification

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/amazonia-research/academy-backend/internal/models"
)

// Store is the Postgres persistence layer for the progress engine.
// All counter mutations are single atomic UPDATE statements; award
// and claim uniqueness is enforced by schema constraints, never by a
// client-side check alone.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Points Ledger ───────────────────────────────────────

// GetOrCreatePoints inserts the ledger row on first write. The
// students shadow row must already exist (student_points carries a
// foreign key to it), so callers reach this only from the activity
// flow, after EnsureStudent. Pure reads use GetPoints.
func (s *Store) GetOrCreatePoints(userID int64) (*models.StudentPoints, error) {
	_, err := s.db.Exec(
		`INSERT INTO student_points (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert student points: %w", err)
	}
	return s.GetPoints(userID)
}

func (s *Store) GetPoints(userID int64) (*models.StudentPoints, error) {
	var p models.StudentPoints
	err := s.db.QueryRow(
		`SELECT user_id, total_points, lessons_completed, quizzes_passed,
		        modules_completed, courses_completed, login_streak,
		        longest_streak, last_active_date, created_at, updated_at
		 FROM student_points WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.TotalPoints, &p.LessonsCompleted, &p.QuizzesPassed,
		&p.ModulesCompleted, &p.CoursesCompleted, &p.LoginStreak,
		&p.LongestStreak, &p.LastActiveDate, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student points: %w", err)
	}
	return &p, nil
}

// IncrementActivity bumps the counter for kind and total_points by
// points in one statement. The ledger never deduplicates: the caller
// must have recorded the underlying completion first.
func (s *Store) IncrementActivity(userID int64, kind models.ActivityKind, points int) error {
	var counter string
	switch kind {
	case models.ActivityLesson:
		counter = "lessons_completed"
	case models.ActivityQuiz:
		counter = "quizzes_passed"
	case models.ActivityModule:
		counter = "modules_completed"
	case models.ActivityCourse:
		counter = "courses_completed"
	default:
		return fmt.Errorf("unknown activity kind %q", kind)
	}

	result, err := s.db.Exec(
		fmt.Sprintf(
			`UPDATE student_points SET
			    %s = %s + 1,
			    total_points = total_points + $2,
			    updated_at = NOW()
			 WHERE user_id = $1`, counter, counter),
		userID, points,
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", counter, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AddPoints(userID int64, amount int) error {
	result, err := s.db.Exec(
		`UPDATE student_points SET
		    total_points = total_points + $2,
		    updated_at = NOW()
		 WHERE user_id = $1`,
		userID, amount,
	)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStreak(userID int64, current, longest int, lastActive time.Time) error {
	_, err := s.db.Exec(
		`UPDATE student_points SET
		    login_streak = $2, longest_streak = $3, last_active_date = $4,
		    updated_at = NOW()
		 WHERE user_id = $1`,
		userID, current, longest, lastActive,
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// ── Badges ──────────────────────────────────────────────

func (s *Store) GetBadgeCatalog() ([]models.Badge, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, icon, color,
		        requirement_type, requirement_value, points
		 FROM badges ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("get badge catalog: %w", err)
	}
	defer rows.Close()

	var catalog []models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Color,
			&b.RequirementType, &b.RequirementValue, &b.Points); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		catalog = append(catalog, b)
	}
	return catalog, rows.Err()
}

func (s *Store) GetEarnedBadgeIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT badge_id FROM student_badges WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get earned badge ids: %w", err)
	}
	defer rows.Close()

	earned := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

func (s *Store) GetEarnedBadges(userID int64) ([]models.EarnedBadge, error) {
	rows, err := s.db.Query(
		`SELECT b.id, b.name, b.description, b.icon, b.color,
		        b.requirement_type, b.requirement_value, b.points, sb.earned_at
		 FROM student_badges sb
		 JOIN badges b ON b.id = sb.badge_id
		 WHERE sb.user_id = $1
		 ORDER BY sb.earned_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get earned badges: %w", err)
	}
	defer rows.Close()

	var badges []models.EarnedBadge
	for rows.Next() {
		var b models.EarnedBadge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Color,
			&b.RequirementType, &b.RequirementValue, &b.Points, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan earned badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// InsertBadgeAward records the award and reports whether this call
// created it. A concurrent award from another session loses the race
// at the unique constraint and comes back false, nil: the caller must
// then skip the bonus.
func (s *Store) InsertBadgeAward(userID, badgeID int64) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO student_badges (user_id, badge_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID, badgeID,
	)
	if err != nil {
		return false, fmt.Errorf("insert badge award: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// ── Challenges ──────────────────────────────────────────

func (s *Store) GetActiveChallenges(now time.Time) ([]models.WeeklyChallenge, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, challenge_type, target_value,
		        reward_points, week_start, week_end
		 FROM weekly_challenges
		 WHERE week_start <= $1 AND week_end >= $1
		 ORDER BY id`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("get active challenges: %w", err)
	}
	defer rows.Close()

	var challenges []models.WeeklyChallenge
	for rows.Next() {
		var c models.WeeklyChallenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.ChallengeType,
			&c.TargetValue, &c.RewardPoints, &c.WeekStart, &c.WeekEnd); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *Store) GetChallengeProgress(userID int64, now time.Time) ([]models.ChallengeProgress, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.title, c.description, c.challenge_type, c.target_value,
		        c.reward_points, c.week_start, c.week_end,
		        COALESCE(sc.current_progress, 0),
		        COALESCE(sc.is_completed, FALSE),
		        COALESCE(sc.reward_claimed, FALSE)
		 FROM weekly_challenges c
		 LEFT JOIN student_challenges sc
		   ON sc.challenge_id = c.id AND sc.user_id = $1
		 WHERE c.week_start <= $2 AND c.week_end >= $2
		 ORDER BY c.id`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("get challenge progress: %w", err)
	}
	defer rows.Close()

	var progress []models.ChallengeProgress
	for rows.Next() {
		var p models.ChallengeProgress
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ChallengeType,
			&p.TargetValue, &p.RewardPoints, &p.WeekStart, &p.WeekEnd,
			&p.CurrentProgress, &p.IsCompleted, &p.RewardClaimed); err != nil {
			return nil, fmt.Errorf("scan challenge progress: %w", err)
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// AddChallengeProgress increments the progress row (creating it on
// first write) and latches is_completed once the target is reached.
// The latch is one-way: a completed challenge never resets mid-week.
// Returns true when this call flipped the latch.
func (s *Store) AddChallengeProgress(userID, challengeID int64, amount int) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin challenge progress: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO student_challenges (user_id, challenge_id, current_progress)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, challenge_id) DO UPDATE SET
		    current_progress = student_challenges.current_progress + EXCLUDED.current_progress,
		    updated_at = NOW()`,
		userID, challengeID, amount,
	)
	if err != nil {
		return false, fmt.Errorf("upsert challenge progress: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE student_challenges sc SET is_completed = TRUE, updated_at = NOW()
		 FROM weekly_challenges c
		 WHERE c.id = sc.challenge_id
		   AND sc.user_id = $1 AND sc.challenge_id = $2
		   AND NOT sc.is_completed
		   AND sc.current_progress >= c.target_value`,
		userID, challengeID,
	)
	if err != nil {
		return false, fmt.Errorf("latch challenge completion: %w", err)
	}
	rows, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit challenge progress: %w", err)
	}
	return rows == 1, nil
}

// ClaimChallengeReward flips reward_claimed and credits the reward in
// one transaction: both happen or neither. The claim is a one-way
// transition; a repeat claim fails with ErrAlreadyClaimed and leaves
// total_points untouched.
func (s *Store) ClaimChallengeReward(userID, challengeID int64) (reward, newTotal int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	var isCompleted, rewardClaimed bool
	err = tx.QueryRow(
		`SELECT sc.is_completed, sc.reward_claimed, c.reward_points
		 FROM student_challenges sc
		 JOIN weekly_challenges c ON c.id = sc.challenge_id
		 WHERE sc.user_id = $1 AND sc.challenge_id = $2
		 FOR UPDATE OF sc`,
		userID, challengeID,
	).Scan(&isCompleted, &rewardClaimed, &reward)
	if err == sql.ErrNoRows {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("lock challenge claim: %w", err)
	}

	if !isCompleted {
		return 0, 0, ErrNotCompleted
	}
	if rewardClaimed {
		return 0, 0, ErrAlreadyClaimed
	}

	result, err := tx.Exec(
		`UPDATE student_challenges SET reward_claimed = TRUE, updated_at = NOW()
		 WHERE user_id = $1 AND challenge_id = $2 AND NOT reward_claimed`,
		userID, challengeID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("claim reward: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return 0, 0, ErrAlreadyClaimed
	}

	err = tx.QueryRow(
		`UPDATE student_points SET
		    total_points = total_points + $2,
		    updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING total_points`,
		userID, reward,
	).Scan(&newTotal)
	if err != nil {
		return 0, 0, fmt.Errorf("credit reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit claim: %w", err)
	}
	return reward, newTotal, nil
}

// ── Leaderboard ─────────────────────────────────────────

// GetLeaderboard returns the top entries sorted by total points.
// Ties break on user_id ascending so a fixed snapshot always ranks
// identically.
func (s *Store) GetLeaderboard(limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT st.id, st.name, sp.total_points, sp.lessons_completed, sp.modules_completed,
		        ROW_NUMBER() OVER (ORDER BY sp.total_points DESC, sp.user_id ASC) AS rank
		 FROM student_points sp
		 JOIN students st ON st.id = sp.user_id
		 ORDER BY sp.total_points DESC, sp.user_id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.TotalPoints,
			&e.LessonsCompleted, &e.ModulesCompleted, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		lvl := LevelFor(e.TotalPoints)
		e.Level = lvl.Level
		e.LevelName = lvl.Name
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetStudentRank(userID int64) (int, error) {
	var rank int
	err := s.db.QueryRow(
		`SELECT COALESCE(
		    (SELECT rank FROM (
		        SELECT user_id,
		               ROW_NUMBER() OVER (ORDER BY total_points DESC, user_id ASC) AS rank
		        FROM student_points
		    ) r WHERE r.user_id = $1),
		    0
		)`,
		userID,
	).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("get student rank: %w", err)
	}
	return rank, nil
}

// ── Students ────────────────────────────────────────────

func (s *Store) GetStudent(userID int64) (*models.Student, error) {
	var st models.Student
	err := s.db.QueryRow(
		`SELECT id, email, name, created_at FROM students WHERE id = $1`,
		userID,
	).Scan(&st.ID, &st.Email, &st.Name, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &st, nil
}
