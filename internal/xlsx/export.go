package xlsx

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/luizancard/error-autopsy/internal/model"
)

const cellDateFormat = "2006-01-02"

// Export writes errors, sessions and exams into a three-sheet workbook
// plus a Metadata summary sheet. Headers come from the single field
// table in the chosen label set, so an exported file always re-imports.
func Export(w io.Writer, errors []model.ErrorRecord, sessions []model.StudySession, exams []model.MockExam, set LabelSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, SheetErrors, labels(errorFields, set), errorRows(errors)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetSessions, labels(sessionFields, set), sessionRows(sessions)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetExams, labels(examFields, set), examRows(exams)); err != nil {
		return err
	}
	if err := writeMetadata(f, len(errors), len(sessions), len(exams)); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &headerCells); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func errorRows(records []model.ErrorRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		var sessionRef, examRef any
		if r.SessionID != nil {
			sessionRef = *r.SessionID
		}
		if r.MockExamID != nil {
			examRef = *r.MockExamID
		}
		rows[i] = []any{
			r.ID, r.Date.Format(cellDateFormat), r.Subject, r.Topic, r.Description,
			string(r.ErrorType), string(r.Difficulty), string(r.ExamType),
			sessionRef, examRef,
		}
	}
	return rows
}

func sessionRows(sessions []model.StudySession) [][]any {
	rows := make([][]any, len(sessions))
	for i, s := range sessions {
		rows[i] = []any{
			s.ID, s.Date.Format(cellDateFormat), string(s.ExamType), s.Subject,
			s.TotalQuestions, s.CorrectCount, s.DurationMinutes,
		}
	}
	return rows
}

func examRows(exams []model.MockExam) [][]any {
	rows := make([][]any, len(exams))
	for i, e := range exams {
		var breakdown string
		if len(e.Breakdown) > 0 {
			data, err := json.Marshal(e.Breakdown)
			if err == nil {
				breakdown = string(data)
			}
		}
		rows[i] = []any{
			e.ID, e.ExamName, string(e.ExamType), e.Date.Format(cellDateFormat),
			e.TotalScore, e.MaxPossibleScore, breakdown, e.Notes,
		}
	}
	return rows
}

func writeMetadata(f *excelize.File, errorCount, sessionCount, examCount int) error {
	if _, err := f.NewSheet(SheetMetadata); err != nil {
		return fmt.Errorf("create metadata sheet: %w", err)
	}
	rows := [][]any{
		{"Export Date", time.Now().Format(cellDateFormat)},
		{"Total Errors", errorCount},
		{"Total Sessions", sessionCount},
		{"Total Mock Exams", examCount},
		{"Format Version", formatVersion},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetMetadata, cell, &row); err != nil {
			return fmt.Errorf("write metadata row %d: %w", i+1, err)
		}
	}
	return nil
}
