// Package activity records lesson/quiz/module/course completions and
// drives the progress engine. The completion tables are the dedup
// guard for at-least-once delivery: the ledger is only touched after
// a completion row is inserted for the first time.
package activity

import (
	"database/sql"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureStudent refreshes the identity shadow row for the acting
// student. Email and name come from the identity provider's token and
// may change between requests.
func (s *Store) EnsureStudent(id int64, email, name string) error {
	_, err := s.db.Exec(
		`INSERT INTO students (id, email, name) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name`,
		id, email, name,
	)
	if err != nil {
		return fmt.Errorf("ensure student: %w", err)
	}
	return nil
}

// RecordLessonCompletion inserts the completion row and reports
// whether this was the first completion of the lesson by this
// student. A repeat delivery hits the unique constraint and comes
// back false, nil.
func (s *Store) RecordLessonCompletion(userID, lessonID int64) (bool, error) {
	return s.recordCompletion(
		`INSERT INTO lesson_completions (user_id, lesson_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID, lessonID,
	)
}

// RecordQuizPass records a passing quiz attempt. Failed attempts are
// never recorded so a later passing attempt still counts as the first
// completion.
func (s *Store) RecordQuizPass(userID, quizID int64, score int) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO quiz_completions (user_id, quiz_id, score) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, quiz_id) DO NOTHING`,
		userID, quizID, score,
	)
	if err != nil {
		return false, fmt.Errorf("record quiz pass: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (s *Store) RecordModuleCompletion(userID, moduleID int64) (bool, error) {
	return s.recordCompletion(
		`INSERT INTO module_completions (user_id, module_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, module_id) DO NOTHING`,
		userID, moduleID,
	)
}

func (s *Store) RecordCourseCompletion(userID, courseID int64) (bool, error) {
	return s.recordCompletion(
		`INSERT INTO course_completions (user_id, course_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID,
	)
}

func (s *Store) recordCompletion(query string, userID, activityID int64) (bool, error) {
	result, err := s.db.Exec(query, userID, activityID)
	if err != nil {
		return false, fmt.Errorf("record completion: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}
