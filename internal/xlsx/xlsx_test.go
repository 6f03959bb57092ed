package xlsx

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/luizancard/error-autopsy/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecords() ([]model.ErrorRecord, []model.StudySession, []model.MockExam) {
	sessID := int64(11)
	examID := int64(21)
	sessions := []model.StudySession{
		{
			ID: 11, UserID: 1, Date: day(2026, 3, 2), ExamType: model.ExamENEM,
			Subject: "Matemática", TotalQuestions: 30, CorrectCount: 24, DurationMinutes: 75,
		},
		{
			ID: 12, UserID: 1, Date: day(2026, 3, 5), ExamType: model.ExamFUVEST,
			Subject: "Física", TotalQuestions: 10, CorrectCount: 6, DurationMinutes: 32.5,
		},
	}
	exams := []model.MockExam{
		{
			ID: 21, UserID: 1, ExamName: "Simulado ENEM Março", ExamType: model.ExamENEM,
			Date: day(2026, 3, 8), TotalScore: 720, MaxPossibleScore: 1000,
			Breakdown: map[string]float64{"Matemática": 160, "Linguagens": 180},
			Notes:     "primeiro simulado completo",
		},
	}
	errors := []model.ErrorRecord{
		{
			ID: 31, UserID: 1, Date: day(2026, 3, 2), Subject: "Matemática", Topic: "Funções",
			Description: "esqueci a condição de existência", ErrorType: model.ErrContentGap,
			Difficulty: model.DifficultyHard, ExamType: model.ExamENEM,
			SessionID: &sessID, MockExamID: &examID,
		},
		{
			ID: 32, UserID: 1, Date: day(2026, 3, 8), Subject: "Física", Topic: "Óptica",
			ErrorType: model.ErrAttentionDetail, Difficulty: model.DifficultyMedium,
			ExamType: model.ExamFUVEST,
		},
	}
	return errors, sessions, exams
}

func exportToBuffer(t *testing.T, set LabelSet) *bytes.Buffer {
	t.Helper()
	errors, sessions, exams := sampleRecords()
	var buf bytes.Buffer
	if err := Export(&buf, errors, sessions, exams, set); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return &buf
}

func TestExportSheetLayout(t *testing.T) {
	buf := exportToBuffer(t, LabelsEnglish)
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open exported workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{SheetErrors, SheetSessions, SheetExams, SheetMetadata} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %s", sheet)
		}
	}

	rows, err := f.GetRows(SheetSessions)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Sessions sheet has %d rows, want header + 2", len(rows))
	}
	if rows[0][1] != "Date" || rows[0][3] != "Subject" {
		t.Errorf("unexpected English header row: %v", rows[0])
	}
}

func TestRoundTrip(t *testing.T) {
	wantErrors, wantSessions, wantExams := sampleRecords()
	buf := exportToBuffer(t, LabelsEnglish)

	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Rejected != 0 {
		t.Fatalf("round-trip rejected %d rows: %v", rep.Rejected, rep.RowErrors)
	}
	if rep.Accepted != len(wantErrors)+len(wantSessions)+len(wantExams) {
		t.Errorf("Accepted = %d, want %d", rep.Accepted, len(wantErrors)+len(wantSessions)+len(wantExams))
	}

	if len(rep.Sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(rep.Sessions))
	}
	got := rep.Sessions[0]
	want := wantSessions[0]
	if got.Subject != want.Subject || got.TotalQuestions != want.TotalQuestions ||
		got.CorrectCount != want.CorrectCount || got.DurationMinutes != want.DurationMinutes ||
		!got.Date.Equal(want.Date) || got.ExamType != want.ExamType {
		t.Errorf("session round-trip = %+v, want %+v", got, want)
	}

	if len(rep.Exams) != 1 {
		t.Fatalf("got %d exams, want 1", len(rep.Exams))
	}
	if rep.Exams[0].Breakdown["Matemática"] != 160 {
		t.Errorf("breakdown round-trip = %v", rep.Exams[0].Breakdown)
	}
	if rep.Exams[0].Notes != "primeiro simulado completo" {
		t.Errorf("notes round-trip = %q", rep.Exams[0].Notes)
	}

	if len(rep.Errors) != 2 {
		t.Fatalf("got %d errors, want 2", len(rep.Errors))
	}
	linked := rep.Errors[0]
	if linked.SessionID == nil || *linked.SessionID != 11 {
		t.Errorf("session reference = %v, want 11", linked.SessionID)
	}
	if linked.MockExamID == nil || *linked.MockExamID != 21 {
		t.Errorf("exam reference = %v, want 21", linked.MockExamID)
	}
}

func TestRoundTripPortugueseHeaders(t *testing.T) {
	buf := exportToBuffer(t, LabelsPortuguese)
	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Rejected != 0 {
		t.Fatalf("Portuguese round-trip rejected %d rows: %v", rep.Rejected, rep.RowErrors)
	}
	if len(rep.Sessions) != 2 || len(rep.Exams) != 1 || len(rep.Errors) != 2 {
		t.Errorf("got %d/%d/%d sessions/exams/errors, want 2/1/2",
			len(rep.Sessions), len(rep.Exams), len(rep.Errors))
	}
}

func buildWorkbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return &buf
}

func TestImportRejectsCrossFieldViolation(t *testing.T) {
	buf := buildWorkbook(t, SheetSessions, [][]any{
		{"Date", "Exam Type", "Subject", "Total Questions", "Correct Answers", "Duration (min)"},
		{"2026-03-01", "ENEM", "Matemática", 10, 15, 30},     // correct > total
		{"2026-03-02", "ENEM", "Matemática", 20, 15, 50},     // fine
		{"2026-03-03", "Hogwarts", "Matemática", 20, 15, 50}, // bad enum
		{"not-a-date", "ENEM", "Matemática", 20, 15, 50},     // bad date
	})

	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Processed != 4 {
		t.Errorf("Processed = %d, want 4", rep.Processed)
	}
	if rep.Accepted != 1 || rep.Rejected != 3 {
		t.Fatalf("accepted/rejected = %d/%d, want 1/3: %v", rep.Accepted, rep.Rejected, rep.RowErrors)
	}

	var crossField bool
	for _, re := range rep.RowErrors {
		if re.Row == 2 && strings.Contains(re.Reason, "exceeds total_questions") {
			crossField = true
		}
	}
	if !crossField {
		t.Errorf("expected a cross-field reason for row 2, got %v", rep.RowErrors)
	}
	// One row's rejection never blocks the rest of the batch.
	if len(rep.Sessions) != 1 || rep.Sessions[0].TotalQuestions != 20 {
		t.Errorf("surviving session = %+v", rep.Sessions)
	}
}

func TestImportMissingSheetsSkipped(t *testing.T) {
	buf := buildWorkbook(t, SheetErrors, [][]any{
		{"Date", "Subject", "Topic", "Error Type"},
		{"2026-03-01", "Matemática", "Funções", "content gap"},
	})
	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Accepted != 1 || rep.Rejected != 0 {
		t.Fatalf("accepted/rejected = %d/%d, want 1/0: %v", rep.Accepted, rep.Rejected, rep.RowErrors)
	}
	r := rep.Errors[0]
	// Case-insensitive enum resolution plus defaults for optional fields.
	if r.ErrorType != model.ErrContentGap {
		t.Errorf("ErrorType = %v, want Content Gap", r.ErrorType)
	}
	if r.Difficulty != model.DifficultyMedium || r.ExamType != model.ExamGeneral {
		t.Errorf("defaults = %v/%v, want Medium/General", r.Difficulty, r.ExamType)
	}
}

func TestImportUnresolvedReferencesDegradeToNull(t *testing.T) {
	buf := buildWorkbook(t, SheetErrors, [][]any{
		{"Date", "Subject", "Topic", "Error Type", "Session ID", "Mock Exam"},
		{"2026-03-01", "Matemática", "Funções", "Content Gap", 999, "Simulado Fantasma"},
	})
	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Accepted != 1 {
		t.Fatalf("accepted = %d, want 1: %v", rep.Accepted, rep.RowErrors)
	}
	r := rep.Errors[0]
	if r.SessionID != nil || r.MockExamID != nil {
		t.Errorf("unresolved references = %v/%v, want nil/nil", r.SessionID, r.MockExamID)
	}
}

func TestImportResolvesReferencesAgainstExisting(t *testing.T) {
	existing := Existing{
		Sessions: []model.StudySession{{ID: 7, UserID: 1, Subject: "Matemática"}},
		Exams:    []model.MockExam{{ID: 9, UserID: 1, ExamName: "Simulado ENEM Março"}},
	}
	buf := buildWorkbook(t, SheetErrors, [][]any{
		{"Date", "Subject", "Topic", "Error Type", "Session ID", "Mock Exam"},
		{"2026-03-01", "Matemática", "Funções", "Content Gap", 7, "simulado enem março"},
	})
	rep, err := Import(buf, 1, existing)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if rep.Accepted != 1 {
		t.Fatalf("accepted = %d, want 1: %v", rep.Accepted, rep.RowErrors)
	}
	r := rep.Errors[0]
	if r.SessionID == nil || *r.SessionID != 7 {
		t.Errorf("SessionID = %v, want 7", r.SessionID)
	}
	if r.MockExamID == nil || *r.MockExamID != 9 {
		t.Errorf("MockExamID = %v, want 9 (resolved by name)", r.MockExamID)
	}
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-05", day(2026, 3, 5)},
		{"05-03-2026", day(2026, 3, 5)},
		{"05/03/2026", day(2026, 3, 5)},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if err != nil {
			t.Errorf("parseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseDate("soon"); err == nil {
		t.Error("parseDate(\"soon\") should fail")
	}
}

// fakeSaver records persisted rows and hands out sequential IDs.
type fakeSaver struct {
	nextID   int64
	sessions []model.StudySession
	exams    []model.MockExam
	errors   []model.ErrorRecord
}

func (f *fakeSaver) CreateSession(s model.StudySession) (int64, error) {
	f.nextID++
	s.ID = f.nextID
	f.sessions = append(f.sessions, s)
	return f.nextID, nil
}

func (f *fakeSaver) CreateExam(e model.MockExam) (int64, error) {
	f.nextID++
	e.ID = f.nextID
	f.exams = append(f.exams, e)
	return f.nextID, nil
}

func (f *fakeSaver) CreateError(r model.ErrorRecord) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.errors = append(f.errors, r)
	return f.nextID, nil
}

func TestApplyRemapsBatchReferences(t *testing.T) {
	buf := exportToBuffer(t, LabelsEnglish)
	rep, err := Import(buf, 1, Existing{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	saver := &fakeSaver{nextID: 100}
	if err := rep.Apply(saver); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(saver.sessions) != 2 || len(saver.exams) != 1 || len(saver.errors) != 2 {
		t.Fatalf("persisted %d/%d/%d, want 2/1/2",
			len(saver.sessions), len(saver.exams), len(saver.errors))
	}

	// Sheet IDs 11 and 21 must be remapped to the IDs the saver assigned.
	linked := saver.errors[0]
	if linked.SessionID == nil || *linked.SessionID != saver.sessions[0].ID {
		t.Errorf("SessionID = %v, want remapped %d", linked.SessionID, saver.sessions[0].ID)
	}
	if linked.MockExamID == nil || *linked.MockExamID != saver.exams[0].ID {
		t.Errorf("MockExamID = %v, want remapped %d", linked.MockExamID, saver.exams[0].ID)
	}
}
