package store

import (
	"fmt"
	"time"

	"github.com/luizancard/error-autopsy/internal/model"
)

// CreateError inserts an error record. Weak references to a session or
// exam must point at records owned by the same user; a cross-user
// reference fails with ErrNotOwned.
func (s *Store) CreateError(r model.ErrorRecord) (int64, error) {
	if r.SessionID != nil {
		if _, err := s.GetSession(r.UserID, *r.SessionID); err != nil {
			return 0, fmt.Errorf("session reference %d: %w", *r.SessionID, err)
		}
	}
	if r.MockExamID != nil {
		if _, err := s.GetExam(r.UserID, *r.MockExamID); err != nil {
			return 0, fmt.Errorf("exam reference %d: %w", *r.MockExamID, err)
		}
	}
	res, err := s.db.Exec(
		`INSERT INTO error_records (user_id, date, subject, topic, description, error_type, difficulty, exam_type, session_id, mock_exam_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Date.Format(dateFormat), r.Subject, r.Topic, r.Description,
		r.ErrorType, r.Difficulty, r.ExamType, r.SessionID, r.MockExamID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetError returns an error record by ID, checking ownership.
func (s *Store) GetError(userID, id int64) (model.ErrorRecord, error) {
	var r model.ErrorRecord
	var date string
	err := s.db.QueryRow(
		`SELECT id, user_id, date, subject, topic, description, error_type, difficulty, exam_type, session_id, mock_exam_id
		 FROM error_records WHERE id = ?`, id,
	).Scan(&r.ID, &r.UserID, &date, &r.Subject, &r.Topic, &r.Description,
		&r.ErrorType, &r.Difficulty, &r.ExamType, &r.SessionID, &r.MockExamID)
	if err != nil {
		return model.ErrorRecord{}, err
	}
	if r.UserID != userID {
		return model.ErrorRecord{}, ErrNotOwned
	}
	r.Date, err = time.Parse(dateFormat, date)
	return r, err
}

// ListErrors returns a user's error records, newest first.
func (s *Store) ListErrors(userID int64, filter ErrorFilter) ([]model.ErrorRecord, error) {
	query := `SELECT id, user_id, date, subject, topic, description, error_type, difficulty, exam_type, session_id, mock_exam_id
		 FROM error_records WHERE user_id = ?`
	args := []any{userID}
	if filter.ExamType != "" {
		query += ` AND exam_type = ?`
		args = append(args, filter.ExamType)
	}
	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.Topic != "" {
		query += ` AND topic = ?`
		args = append(args, filter.Topic)
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

	var records []model.ErrorRecord
	for rows.Next() {
		var r model.ErrorRecord
		var date string
		if err := rows.Scan(&r.ID, &r.UserID, &date, &r.Subject, &r.Topic, &r.Description,
			&r.ErrorType, &r.Difficulty, &r.ExamType, &r.SessionID, &r.MockExamID); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("error record %d: bad date %q: %w", r.ID, date, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateError rewrites an error record's mutable fields, checking ownership.
func (s *Store) UpdateError(r model.ErrorRecord) error {
	if _, err := s.GetError(r.UserID, r.ID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE error_records SET date = ?, subject = ?, topic = ?, description = ?,
		 error_type = ?, difficulty = ?, exam_type = ?, session_id = ?, mock_exam_id = ?
		 WHERE id = ? AND user_id = ?`,
		r.Date.Format(dateFormat), r.Subject, r.Topic, r.Description,
		r.ErrorType, r.Difficulty, r.ExamType, r.SessionID, r.MockExamID,
		r.ID, r.UserID,
	)
	return err
}

// DeleteError removes an error record, checking ownership.
func (s *Store) DeleteError(userID, id int64) error {
	if _, err := s.GetError(userID, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM error_records WHERE id = ? AND user_id = ?`, id, userID)
	return err
}
