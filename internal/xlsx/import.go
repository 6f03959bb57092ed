package xlsx

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/luizancard/error-autopsy/internal/model"
)

// RowError is one rejected spreadsheet row with its reason.
type RowError struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"` // 1-based, as shown in a spreadsheet UI
	Reason string `json:"reason"`
}

// Report is the outcome of an import run. Rows are independent: every
// rejection is recorded here and never blocks the rest of the batch.
// Accepted records still carry their sheet IDs; Apply remaps weak
// references when persisting.
type Report struct {
	Processed int        `json:"processed"`
	Accepted  int        `json:"accepted"`
	Rejected  int        `json:"rejected"`
	RowErrors []RowError `json:"row_errors,omitempty"`

	Sessions []model.StudySession `json:"-"`
	Exams    []model.MockExam     `json:"-"`
	Errors   []model.ErrorRecord  `json:"-"`
}

func (rep *Report) reject(sheet string, row int, reason string) {
	rep.Rejected++
	rep.RowErrors = append(rep.RowErrors, RowError{Sheet: sheet, Row: row, Reason: reason})
}

// Existing supplies the user's pre-existing records so weak references in
// the workbook can resolve against them.
type Existing struct {
	Sessions []model.StudySession
	Exams    []model.MockExam
}

// Import reads a workbook and validates every row against the canonical
// schema. Missing sheets are skipped. Unresolvable session/exam
// references degrade to null instead of failing the row.
func Import(r io.Reader, userID int64, existing Existing) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]string) // canonical -> actual sheet name
	for _, name := range f.GetSheetList() {
		if canon := canonicalSheet(name); canon != "" {
			if _, dup := sheets[canon]; !dup {
				sheets[canon] = name
			}
		}
	}

	rep := &Report{}

	// Sessions and exams first so error rows can resolve batch references.
	if name, ok := sheets[SheetSessions]; ok {
		if err := importSessions(f, name, userID, rep); err != nil {
			return nil, err
		}
	}
	if name, ok := sheets[SheetExams]; ok {
		if err := importExams(f, name, userID, rep); err != nil {
			return nil, err
		}
	}
	if name, ok := sheets[SheetErrors]; ok {
		if err := importErrors(f, name, userID, existing, rep); err != nil {
			return nil, err
		}
	}

	return rep, nil
}

func importSessions(f *excelize.File, sheet string, userID int64, rep *Report) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	cols := resolveHeaders(sessionFields, rows[0])

	for i, row := range rows[1:] {
		rowNum := i + 2
		if emptyRow(row) {
			continue
		}
		rep.Processed++

		s := model.StudySession{UserID: userID}
		s.ID, _ = strconv.ParseInt(cell(row, cols, "id"), 10, 64)

		var reasons []string
		s.Date = requireDate(cell(row, cols, "date"), "date", &reasons)
		s.ExamType = requireExamType(cell(row, cols, "exam_type"), &reasons)
		s.Subject = requireString(cell(row, cols, "subject"), "subject", &reasons)
		s.TotalQuestions = requireInt(cell(row, cols, "total_questions"), "total_questions", &reasons)
		s.CorrectCount = requireInt(cell(row, cols, "correct_count"), "correct_count", &reasons)
		s.DurationMinutes = requireFloat(cell(row, cols, "duration_minutes"), "duration_minutes", &reasons)

		if len(reasons) == 0 {
			if err := s.Validate(); err != nil {
				reasons = append(reasons, err.Error())
			}
		}
		if len(reasons) > 0 {
			rep.reject(SheetSessions, rowNum, strings.Join(reasons, "; "))
			continue
		}
		rep.Accepted++
		rep.Sessions = append(rep.Sessions, s)
	}
	return nil
}

func importExams(f *excelize.File, sheet string, userID int64, rep *Report) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	cols := resolveHeaders(examFields, rows[0])

	for i, row := range rows[1:] {
		rowNum := i + 2
		if emptyRow(row) {
			continue
		}
		rep.Processed++

		e := model.MockExam{UserID: userID}
		e.ID, _ = strconv.ParseInt(cell(row, cols, "id"), 10, 64)

		var reasons []string
		e.ExamName = requireString(cell(row, cols, "exam_name"), "exam_name", &reasons)
		e.ExamType = requireExamType(cell(row, cols, "exam_type"), &reasons)
		e.Date = requireDate(cell(row, cols, "date"), "date", &reasons)
		e.TotalScore = requireFloat(cell(row, cols, "total_score"), "total_score", &reasons)
		e.MaxPossibleScore = requireFloat(cell(row, cols, "max_possible_score"), "max_possible_score", &reasons)
		e.Notes = cell(row, cols, "notes")

		if raw := cell(row, cols, "breakdown"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &e.Breakdown); err != nil {
				reasons = append(reasons, fmt.Sprintf("breakdown: not a valid section mapping: %v", err))
			}
		}

		if len(reasons) == 0 {
			if err := e.Validate(); err != nil {
				reasons = append(reasons, err.Error())
			}
		}
		if len(reasons) > 0 {
			rep.reject(SheetExams, rowNum, strings.Join(reasons, "; "))
			continue
		}
		rep.Accepted++
		rep.Exams = append(rep.Exams, e)
	}
	return nil
}

func importErrors(f *excelize.File, sheet string, userID int64, existing Existing, rep *Report) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	cols := resolveHeaders(errorFields, rows[0])

	sessionIDs := make(map[int64]bool)
	for _, s := range rep.Sessions {
		if s.ID != 0 {
			sessionIDs[s.ID] = true
		}
	}
	for _, s := range existing.Sessions {
		sessionIDs[s.ID] = true
	}
	examIDs := make(map[int64]bool)
	examNames := make(map[string]int64)
	for _, e := range rep.Exams {
		if e.ID != 0 {
			examIDs[e.ID] = true
		}
		examNames[strings.ToLower(e.ExamName)] = e.ID
	}
	for _, e := range existing.Exams {
		examIDs[e.ID] = true
		if _, dup := examNames[strings.ToLower(e.ExamName)]; !dup {
			examNames[strings.ToLower(e.ExamName)] = e.ID
		}
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if emptyRow(row) {
			continue
		}
		rep.Processed++

		r := model.ErrorRecord{UserID: userID}
		r.ID, _ = strconv.ParseInt(cell(row, cols, "id"), 10, 64)

		var reasons []string
		r.Date = requireDate(cell(row, cols, "date"), "date", &reasons)
		r.Subject = requireString(cell(row, cols, "subject"), "subject", &reasons)
		r.Topic = requireString(cell(row, cols, "topic"), "topic", &reasons)
		r.Description = cell(row, cols, "description")

		if raw := cell(row, cols, "error_type"); raw == "" {
			reasons = append(reasons, "error_type: required field is empty")
		} else if et, ok := model.ParseErrorType(raw); ok {
			r.ErrorType = et
		} else {
			reasons = append(reasons, fmt.Sprintf("error_type: %q is not a known error type", raw))
		}

		r.Difficulty = model.DifficultyMedium
		if raw := cell(row, cols, "difficulty"); raw != "" {
			if d, ok := model.ParseDifficulty(raw); ok {
				r.Difficulty = d
			} else {
				reasons = append(reasons, fmt.Sprintf("difficulty: %q is not a known difficulty", raw))
			}
		}

		r.ExamType = model.ExamGeneral
		if raw := cell(row, cols, "exam_type"); raw != "" {
			if et, ok := model.ParseExamType(raw); ok {
				r.ExamType = et
			} else {
				reasons = append(reasons, fmt.Sprintf("exam_type: %q is not a known exam type", raw))
			}
		}

		// Weak references resolve against the batch and pre-existing
		// records; anything unresolved imports as null, never a rejection.
		if raw := cell(row, cols, "session_id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && sessionIDs[id] {
				r.SessionID = &id
			}
		}
		if raw := cell(row, cols, "mock_exam"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && examIDs[id] {
				r.MockExamID = &id
			} else if id, ok := examNames[strings.ToLower(raw)]; ok && id != 0 {
				ref := id
				r.MockExamID = &ref
			}
		}

		if len(reasons) == 0 {
			if err := r.Validate(); err != nil {
				reasons = append(reasons, err.Error())
			}
		}
		if len(reasons) > 0 {
			rep.reject(SheetErrors, rowNum, strings.Join(reasons, "; "))
			continue
		}
		rep.Accepted++
		rep.Errors = append(rep.Errors, r)
	}
	return nil
}

// Saver persists accepted rows. *store.Store satisfies it.
type Saver interface {
	CreateSession(model.StudySession) (int64, error)
	CreateExam(model.MockExam) (int64, error)
	CreateError(model.ErrorRecord) (int64, error)
}

// Apply persists the accepted rows through the storage collaborator.
// Sessions and exams go first so weak references from error rows can be
// remapped from sheet IDs to the freshly assigned ones. Storage failures
// propagate to the caller.
func (rep *Report) Apply(s Saver) error {
	sessionIDMap := make(map[int64]int64)
	for _, sess := range rep.Sessions {
		sheetID := sess.ID
		sess.ID = 0
		newID, err := s.CreateSession(sess)
		if err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		if sheetID != 0 {
			sessionIDMap[sheetID] = newID
		}
	}

	examIDMap := make(map[int64]int64)
	for _, e := range rep.Exams {
		sheetID := e.ID
		e.ID = 0
		newID, err := s.CreateExam(e)
		if err != nil {
			return fmt.Errorf("persist exam: %w", err)
		}
		if sheetID != 0 {
			examIDMap[sheetID] = newID
		}
	}

	for _, r := range rep.Errors {
		r.ID = 0
		if r.SessionID != nil {
			if newID, ok := sessionIDMap[*r.SessionID]; ok {
				r.SessionID = &newID
			}
		}
		if r.MockExamID != nil {
			if newID, ok := examIDMap[*r.MockExamID]; ok {
				r.MockExamID = &newID
			}
		}
		if _, err := s.CreateError(r); err != nil {
			return fmt.Errorf("persist error record: %w", err)
		}
	}
	return nil
}

// cell returns the trimmed value of a canonical column in a row, or ""
// when the column is absent or the row is short.
func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func requireString(v, name string, reasons *[]string) string {
	if v == "" {
		*reasons = append(*reasons, name+": required field is empty")
	}
	return v
}

func requireInt(v, name string, reasons *[]string) int {
	if v == "" {
		*reasons = append(*reasons, name+": required field is empty")
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*reasons = append(*reasons, fmt.Sprintf("%s: %q is not an integer", name, v))
		return 0
	}
	return n
}

func requireFloat(v, name string, reasons *[]string) float64 {
	if v == "" {
		*reasons = append(*reasons, name+": required field is empty")
		return 0
	}
	// Accept pt-BR decimal commas.
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		*reasons = append(*reasons, fmt.Sprintf("%s: %q is not a number", name, v))
		return 0
	}
	return f
}

func requireExamType(v string, reasons *[]string) model.ExamType {
	if v == "" {
		*reasons = append(*reasons, "exam_type: required field is empty")
		return ""
	}
	et, ok := model.ParseExamType(v)
	if !ok {
		*reasons = append(*reasons, fmt.Sprintf("exam_type: %q is not a known exam type", v))
		return ""
	}
	return et
}

func requireDate(v, name string, reasons *[]string) time.Time {
	if v == "" {
		*reasons = append(*reasons, name+": required field is empty")
		return time.Time{}
	}
	t, err := parseDate(v)
	if err != nil {
		*reasons = append(*reasons, fmt.Sprintf("%s: %q is not a recognized date", name, v))
	}
	return t
}

// dateLayouts are tried in order. Day-first layouts take priority over
// month-first ones, matching the original spreadsheet convention.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	// Excel serial date cells sometimes survive as raw numbers.
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 59 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}
