// Package store persists users and their study records in SQLite.
// Every record read or write is scoped by owner: accessing another user's
// record fails with ErrNotOwned.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luizancard/error-autopsy/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotOwned is returned when a record exists but belongs to a
// different user. It is always fatal to the calling operation.
var ErrNotOwned = errors.New("record not owned by user")

const dateFormat = "2006-01-02"

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		exam_type TEXT NOT NULL,
		subject TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		duration_minutes REAL NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS mock_exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		exam_name TEXT NOT NULL,
		exam_type TEXT NOT NULL,
		date TEXT NOT NULL,
		total_score REAL NOT NULL,
		max_possible_score REAL NOT NULL,
		breakdown TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS error_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		subject TEXT NOT NULL,
		topic TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		error_type TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT 'Medium',
		exam_type TEXT NOT NULL DEFAULT 'General',
		session_id INTEGER,
		mock_exam_id INTEGER,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (session_id) REFERENCES study_sessions(id) ON DELETE SET NULL,
		FOREIGN KEY (mock_exam_id) REFERENCES mock_exams(id) ON DELETE SET NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SessionFilter narrows ListSessions. Zero values mean no filtering.
type SessionFilter struct {
	ExamType model.ExamType
	Subject  string
	From     time.Time
	To       time.Time
}

// ErrorFilter narrows ListErrors. Zero values mean no filtering.
type ErrorFilter struct {
	ExamType model.ExamType
	Subject  string
	Topic    string
	From     time.Time
	To       time.Time
}

// CreateSession inserts a study session for its owner.
func (s *Store) CreateSession(sess model.StudySession) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO study_sessions (user_id, date, exam_type, subject, total_questions, correct_count, duration_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.UserID, sess.Date.Format(dateFormat), sess.ExamType, sess.Subject,
		sess.TotalQuestions, sess.CorrectCount, sess.DurationMinutes,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSession returns a session by ID, checking ownership.
func (s *Store) GetSession(userID, id int64) (model.StudySession, error) {
	var sess model.StudySession
	var date string
	err := s.db.QueryRow(
		`SELECT id, user_id, date, exam_type, subject, total_questions, correct_count, duration_minutes
		 FROM study_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &date, &sess.ExamType, &sess.Subject,
		&sess.TotalQuestions, &sess.CorrectCount, &sess.DurationMinutes)
	if err != nil {
		return model.StudySession{}, err
	}
	if sess.UserID != userID {
		return model.StudySession{}, ErrNotOwned
	}
	sess.Date, err = time.Parse(dateFormat, date)
	return sess, err
}

// ListSessions returns a user's sessions, newest first.
func (s *Store) ListSessions(userID int64, filter SessionFilter) ([]model.StudySession, error) {
	query := `SELECT id, user_id, date, exam_type, subject, total_questions, correct_count, duration_minutes
		 FROM study_sessions WHERE user_id = ?`
	args := []any{userID}
	if filter.ExamType != "" {
		query += ` AND exam_type = ?`
		args = append(args, filter.ExamType)
	}
	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.From.Format(dateFormat))
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filter.To.Format(dateFormat))
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.StudySession
	for rows.Next() {
		var sess model.StudySession
		var date string
		if err := rows.Scan(&sess.ID, &sess.UserID, &date, &sess.ExamType, &sess.Subject,
			&sess.TotalQuestions, &sess.CorrectCount, &sess.DurationMinutes); err != nil {
			return nil, err
		}
		if sess.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("session %d: bad date %q: %w", sess.ID, date, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateSession rewrites a session's mutable fields, checking ownership.
func (s *Store) UpdateSession(sess model.StudySession) error {
	if _, err := s.GetSession(sess.UserID, sess.ID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE study_sessions SET date = ?, exam_type = ?, subject = ?,
		 total_questions = ?, correct_count = ?, duration_minutes = ?
		 WHERE id = ? AND user_id = ?`,
		sess.Date.Format(dateFormat), sess.ExamType, sess.Subject,
		sess.TotalQuestions, sess.CorrectCount, sess.DurationMinutes,
		sess.ID, sess.UserID,
	)
	return err
}

// DeleteSession removes a session, checking ownership. Error records that
// referenced it keep existing with a nulled session_id.
func (s *Store) DeleteSession(userID, id int64) error {
	if _, err := s.GetSession(userID, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// CreateExam inserts a mock exam for its owner.
func (s *Store) CreateExam(e model.MockExam) (int64, error) {
	breakdown, err := marshalBreakdown(e.Breakdown)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO mock_exams (user_id, exam_name, exam_type, date, total_score, max_possible_score, breakdown, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ExamName, e.ExamType, e.Date.Format(dateFormat),
		e.TotalScore, e.MaxPossibleScore, breakdown, e.Notes,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetExam returns a mock exam by ID, checking ownership.
func (s *Store) GetExam(userID, id int64) (model.MockExam, error) {
	var e model.MockExam
	var date, breakdown string
	err := s.db.QueryRow(
		`SELECT id, user_id, exam_name, exam_type, date, total_score, max_possible_score, breakdown, notes
		 FROM mock_exams WHERE id = ?`, id,
	).Scan(&e.ID, &e.UserID, &e.ExamName, &e.ExamType, &date,
		&e.TotalScore, &e.MaxPossibleScore, &breakdown, &e.Notes)
	if err != nil {
		return model.MockExam{}, err
	}
	if e.UserID != userID {
		return model.MockExam{}, ErrNotOwned
	}
	if e.Date, err = time.Parse(dateFormat, date); err != nil {
		return model.MockExam{}, fmt.Errorf("exam %d: bad date %q: %w", e.ID, date, err)
	}
	e.Breakdown, err = unmarshalBreakdown(breakdown)
	return e, err
}

// ListExams returns a user's mock exams, newest first.
func (s *Store) ListExams(userID int64) ([]model.MockExam, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, exam_name, exam_type, date, total_score, max_possible_score, breakdown, notes
		 FROM mock_exams WHERE user_id = ? ORDER BY date DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.MockExam
	for rows.Next() {
		var e model.MockExam
		var date, breakdown string
		if err := rows.Scan(&e.ID, &e.UserID, &e.ExamName, &e.ExamType, &date,
			&e.TotalScore, &e.MaxPossibleScore, &breakdown, &e.Notes); err != nil {
			return nil, err
		}
		if e.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("exam %d: bad date %q: %w", e.ID, date, err)
		}
		if e.Breakdown, err = unmarshalBreakdown(breakdown); err != nil {
			return nil, fmt.Errorf("exam %d: bad breakdown: %w", e.ID, err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExam rewrites an exam's mutable fields, checking ownership.
func (s *Store) UpdateExam(e model.MockExam) error {
	if _, err := s.GetExam(e.UserID, e.ID); err != nil {
		return err
	}
	breakdown, err := marshalBreakdown(e.Breakdown)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`UPDATE mock_exams SET exam_name = ?, exam_type = ?, date = ?,
		 total_score = ?, max_possible_score = ?, breakdown = ?, notes = ?
		 WHERE id = ? AND user_id = ?`,
		e.ExamName, e.ExamType, e.Date.Format(dateFormat),
		e.TotalScore, e.MaxPossibleScore, breakdown, e.Notes,
		e.ID, e.UserID,
	)
	return err
}

// DeleteExam removes a mock exam, checking ownership. Linked error
// records survive with a nulled mock_exam_id.
func (s *Store) DeleteExam(userID, id int64) error {
	if _, err := s.GetExam(userID, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM mock_exams WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func marshalBreakdown(b map[string]float64) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal breakdown: %w", err)
	}
	return string(data), nil
}

func unmarshalBreakdown(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	var b map[string]float64
	if err := json.Unmarshal([]byte(s), &b); err != nil {
		return nil, err
	}
	return b, nil
}
