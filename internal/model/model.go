package model

import (
	"context"
	"fmt"
	"time"
)

// ValidationError reports a bad field value on a submitted record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// User owns records. Every session, exam and error belongs to exactly one user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudySession is one logged batch of practice questions.
// Accuracy and pace are derived on demand by the metrics package and are
// never persisted.
type StudySession struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Date            time.Time `json:"date"`
	ExamType        ExamType  `json:"exam_type"`
	Subject         string    `json:"subject"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectCount    int       `json:"correct_count"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// Validate checks the session field invariants.
func (s StudySession) Validate() error {
	if _, ok := ParseExamType(string(s.ExamType)); !ok {
		return &ValidationError{Field: "exam_type", Reason: fmt.Sprintf("unknown exam type %q", s.ExamType)}
	}
	if s.Subject == "" {
		return &ValidationError{Field: "subject", Reason: "must not be empty"}
	}
	if s.TotalQuestions <= 0 {
		return &ValidationError{Field: "total_questions", Reason: "must be greater than zero"}
	}
	if s.CorrectCount < 0 {
		return &ValidationError{Field: "correct_count", Reason: "must not be negative"}
	}
	if s.CorrectCount > s.TotalQuestions {
		return &ValidationError{
			Field:  "correct_count",
			Reason: fmt.Sprintf("%d exceeds total_questions %d", s.CorrectCount, s.TotalQuestions),
		}
	}
	if s.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must be greater than zero"}
	}
	if s.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be set"}
	}
	return nil
}

// MockExam is one logged full mock exam (simulado).
type MockExam struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	ExamName         string             `json:"exam_name"`
	ExamType         ExamType           `json:"exam_type"`
	Date             time.Time          `json:"date"`
	TotalScore       float64            `json:"total_score"`
	MaxPossibleScore float64            `json:"max_possible_score"`
	Breakdown        map[string]float64 `json:"breakdown,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

// Validate checks the exam field invariants.
func (e MockExam) Validate() error {
	if e.ExamName == "" {
		return &ValidationError{Field: "exam_name", Reason: "must not be empty"}
	}
	if _, ok := ParseExamType(string(e.ExamType)); !ok {
		return &ValidationError{Field: "exam_type", Reason: fmt.Sprintf("unknown exam type %q", e.ExamType)}
	}
	if e.TotalScore < 0 {
		return &ValidationError{Field: "total_score", Reason: "must not be negative"}
	}
	if e.MaxPossibleScore <= 0 {
		return &ValidationError{Field: "max_possible_score", Reason: "must be greater than zero"}
	}
	if e.TotalScore > e.MaxPossibleScore {
		return &ValidationError{
			Field:  "total_score",
			Reason: fmt.Sprintf("%.1f exceeds max_possible_score %.1f", e.TotalScore, e.MaxPossibleScore),
		}
	}
	if e.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be set"}
	}
	return nil
}

// ErrorRecord is one logged mistake. SessionID and MockExamID are weak
// references: deleting the referenced session or exam nulls them out but
// never deletes the record.
type ErrorRecord struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Date        time.Time  `json:"date"`
	Subject     string     `json:"subject"`
	Topic       string     `json:"topic"`
	Description string     `json:"description,omitempty"`
	ErrorType   ErrorType  `json:"error_type"`
	Difficulty  Difficulty `json:"difficulty"`
	ExamType    ExamType   `json:"exam_type"`
	SessionID   *int64     `json:"session_id,omitempty"`
	MockExamID  *int64     `json:"mock_exam_id,omitempty"`
}

// Validate checks the error record field invariants.
func (r ErrorRecord) Validate() error {
	if r.Subject == "" {
		return &ValidationError{Field: "subject", Reason: "must not be empty"}
	}
	if r.Topic == "" {
		return &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if _, ok := ParseErrorType(string(r.ErrorType)); !ok {
		return &ValidationError{Field: "error_type", Reason: fmt.Sprintf("unknown error type %q", r.ErrorType)}
	}
	if _, ok := ParseDifficulty(string(r.Difficulty)); !ok {
		return &ValidationError{Field: "difficulty", Reason: fmt.Sprintf("unknown difficulty %q", r.Difficulty)}
	}
	if _, ok := ParseExamType(string(r.ExamType)); !ok {
		return &ValidationError{Field: "exam_type", Reason: fmt.Sprintf("unknown exam type %q", r.ExamType)}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be set"}
	}
	return nil
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
