package activity

import (
	"fmt"
	"log"

	"github.com/amazonia-research/academy-backend/internal/gamification"
	"github.com/amazonia-research/academy-backend/internal/models"
	"github.com/amazonia-research/academy-backend/internal/notify"
)

// CompletionStore is the dedup layer for activity signals.
type CompletionStore interface {
	EnsureStudent(id int64, email, name string) error
	RecordLessonCompletion(userID, lessonID int64) (bool, error)
	RecordQuizPass(userID, quizID int64, score int) (bool, error)
	RecordModuleCompletion(userID, moduleID int64) (bool, error)
	RecordCourseCompletion(userID, courseID int64) (bool, error)
}

// Rewarder is the slice of the progress engine the activity flow
// drives.
type Rewarder interface {
	RecordActivity(userID int64, kind models.ActivityKind) (int, error)
	AwardNewBadges(userID int64, sig gamification.Signals) ([]models.Badge, error)
	TrackActivityChallenges(userID int64, kind models.ActivityKind)
	CurrentPoints(userID int64) (*models.StudentPoints, error)
}

type Service struct {
	store  CompletionStore
	engine Rewarder
	events notify.Publisher
}

func NewService(store CompletionStore, engine Rewarder, events notify.Publisher) *Service {
	return &Service{store: store, engine: engine, events: events}
}

// CompleteLesson runs the full flow for a lesson completion: dedup,
// then ledger, badges, and challenges. A repeat signal is a no-op
// that reports the current totals.
func (s *Service) CompleteLesson(ident models.Identity, lessonID int64) (*models.ActivityResult, error) {
	if err := s.store.EnsureStudent(ident.UserID, ident.Email, ident.Name); err != nil {
		return nil, err
	}

	first, err := s.store.RecordLessonCompletion(ident.UserID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("record lesson completion: %w", err)
	}
	if !first {
		return s.result(ident.UserID, 0, nil, true, true)
	}

	return s.reward(ident, models.ActivityLesson, gamification.Signals{}, nil)
}

// CompleteQuiz records a quiz attempt. Only passing attempts touch
// the ledger; a score of 100 raises the perfect-score signal for
// badge evaluation on exactly this attempt.
func (s *Service) CompleteQuiz(ident models.Identity, quizID int64, score int) (*models.ActivityResult, error) {
	if err := s.store.EnsureStudent(ident.UserID, ident.Email, ident.Name); err != nil {
		return nil, err
	}

	if score < gamification.QuizPassScore {
		return s.result(ident.UserID, 0, nil, false, false)
	}

	first, err := s.store.RecordQuizPass(ident.UserID, quizID, score)
	if err != nil {
		return nil, fmt.Errorf("record quiz pass: %w", err)
	}
	if !first {
		return s.result(ident.UserID, 0, nil, true, true)
	}

	sig := gamification.Signals{PerfectScore: score >= gamification.PerfectScore}
	event := notify.NewEvent(notify.EventQuizPassed, ident.Email, ident.Name, map[string]interface{}{
		"quiz_id": quizID,
		"score":   score,
	})
	return s.reward(ident, models.ActivityQuiz, sig, &event)
}

func (s *Service) CompleteModule(ident models.Identity, moduleID int64) (*models.ActivityResult, error) {
	if err := s.store.EnsureStudent(ident.UserID, ident.Email, ident.Name); err != nil {
		return nil, err
	}

	first, err := s.store.RecordModuleCompletion(ident.UserID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("record module completion: %w", err)
	}
	if !first {
		return s.result(ident.UserID, 0, nil, true, true)
	}

	event := notify.NewEvent(notify.EventModuleCompleted, ident.Email, ident.Name, map[string]interface{}{
		"module_id": moduleID,
	})
	return s.reward(ident, models.ActivityModule, gamification.Signals{}, &event)
}

// CompleteCourse finishes a course and issues the certificate
// notification.
func (s *Service) CompleteCourse(ident models.Identity, courseID int64) (*models.ActivityResult, error) {
	if err := s.store.EnsureStudent(ident.UserID, ident.Email, ident.Name); err != nil {
		return nil, err
	}

	first, err := s.store.RecordCourseCompletion(ident.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("record course completion: %w", err)
	}
	if !first {
		return s.result(ident.UserID, 0, nil, true, true)
	}

	event := notify.NewEvent(notify.EventCertificateIssued, ident.Email, ident.Name, map[string]interface{}{
		"course_id": courseID,
	})
	return s.reward(ident, models.ActivityCourse, gamification.Signals{}, &event)
}

// reward credits the ledger, evaluates badges and challenges, and
// publishes the notification for a freshly recorded completion.
// The completion itself is already
// durable at this point: a failure anywhere past the ledger update is
// logged, never surfaced, so the learning activity is never blocked
// by the reward machinery.
func (s *Service) reward(ident models.Identity, kind models.ActivityKind, sig gamification.Signals, event *notify.Event) (*models.ActivityResult, error) {
	points, err := s.engine.RecordActivity(ident.UserID, kind)
	if err != nil {
		return nil, fmt.Errorf("update ledger: %w", err)
	}

	badges, err := s.engine.AwardNewBadges(ident.UserID, sig)
	if err != nil {
		log.Printf("[activity] badge evaluation failed for user %d: %v", ident.UserID, err)
		badges = nil
	}

	s.engine.TrackActivityChallenges(ident.UserID, kind)

	if event != nil && s.events != nil {
		s.events.Publish(*event)
	}

	return s.result(ident.UserID, points, badges, false, true)
}

func (s *Service) result(userID int64, pointsEarned int, newBadges []models.Badge, already, passed bool) (*models.ActivityResult, error) {
	if newBadges == nil {
		newBadges = []models.Badge{}
	}

	res := &models.ActivityResult{
		AlreadyCompleted: already,
		Passed:           passed,
		PointsEarned:     pointsEarned,
		NewBadges:        newBadges,
		Level:            gamification.LevelFor(0),
	}

	p, err := s.engine.CurrentPoints(userID)
	if err != nil {
		log.Printf("[activity] reading totals for user %d: %v", userID, err)
		return res, nil
	}
	res.TotalPoints = p.TotalPoints
	res.Level = gamification.LevelFor(p.TotalPoints)
	return res, nil
}
