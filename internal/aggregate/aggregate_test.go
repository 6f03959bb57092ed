package aggregate

import (
	"testing"
	"time"

	"github.com/luizancard/error-autopsy/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func session(subject string, total, correct int, date time.Time) model.StudySession {
	return model.StudySession{
		UserID:          1,
		Date:            date,
		ExamType:        model.ExamENEM,
		Subject:         subject,
		TotalQuestions:  total,
		CorrectCount:    correct,
		DurationMinutes: float64(total) * 2.5,
	}
}

func exam(id int64, et model.ExamType, date time.Time, score, max float64) model.MockExam {
	return model.MockExam{
		ID:               id,
		UserID:           1,
		ExamName:         "Mock",
		ExamType:         et,
		Date:             date,
		TotalScore:       score,
		MaxPossibleScore: max,
	}
}

func TestDashboardKPIsEmpty(t *testing.T) {
	k := DashboardKPIs(nil, nil, nil)
	if k.SessionCount != 0 {
		t.Errorf("SessionCount = %d, want 0", k.SessionCount)
	}
	if k.MeanAccuracy != nil {
		t.Errorf("MeanAccuracy = %v, want nil for no data", *k.MeanAccuracy)
	}
	if k.LatestExamScore != nil {
		t.Errorf("LatestExamScore = %v, want nil for no data", *k.LatestExamScore)
	}
}

func TestDashboardKPIs(t *testing.T) {
	sessions := []model.StudySession{
		session("Matemática", 20, 16, day(2026, 1, 5)), // 80%
		session("Física", 10, 6, day(2026, 1, 8)),      // 60%
	}
	exams := []model.MockExam{
		exam(1, model.ExamENEM, day(2026, 1, 10), 70, 100),
		exam(2, model.ExamENEM, day(2026, 1, 20), 85, 100),
		exam(3, model.ExamENEM, day(2026, 1, 20), 90, 100), // same date, newer
	}
	errors := []model.ErrorRecord{
		{ErrorType: model.ErrContentGap},
		{ErrorType: model.ErrInterpretation},
	}

	k := DashboardKPIs(sessions, exams, errors)
	if k.SessionCount != 2 {
		t.Errorf("SessionCount = %d, want 2", k.SessionCount)
	}
	if k.MeanAccuracy == nil || *k.MeanAccuracy != 70 {
		t.Errorf("MeanAccuracy = %v, want 70", k.MeanAccuracy)
	}
	if k.LatestExamScore == nil || *k.LatestExamScore != 90 {
		t.Errorf("LatestExamScore = %v, want 90 (date tie broken by newest)", k.LatestExamScore)
	}
	if k.AvoidableErrors != 1 {
		t.Errorf("AvoidableErrors = %d, want 1", k.AvoidableErrors)
	}
}

func TestSubjectBreakdownOrdering(t *testing.T) {
	sessions := []model.StudySession{
		session("Física", 10, 5, day(2026, 1, 1)),
		session("Matemática", 30, 30, day(2026, 1, 2)),
		session("Biologia", 10, 10, day(2026, 1, 3)),
	}
	got := SubjectBreakdown(sessions)
	if len(got) != 3 {
		t.Fatalf("expected 3 subjects, got %d", len(got))
	}
	if got[0].Subject != "Matemática" {
		t.Errorf("first = %q, want most-practiced Matemática", got[0].Subject)
	}
	// Biologia and Física both have 10 questions; alphabetical tie-break.
	if got[1].Subject != "Biologia" || got[2].Subject != "Física" {
		t.Errorf("tie order = %q, %q, want Biologia then Física", got[1].Subject, got[2].Subject)
	}
	if got[2].MeanAccuracy != 50 {
		t.Errorf("Física mean accuracy = %v, want 50", got[2].MeanAccuracy)
	}
}

func TestTopicErrorRate(t *testing.T) {
	sessions := []model.StudySession{
		session("Matemática", 40, 30, day(2026, 1, 1)),
		session("Matemática", 10, 8, day(2026, 1, 2)),
	}
	errors := []model.ErrorRecord{
		{Subject: "Matemática", Topic: "Funções", ErrorType: model.ErrContentGap},
		{Subject: "Matemática", Topic: "Funções", ErrorType: model.ErrContentGap},
		{Subject: "História", Topic: "Brasil Colônia", ErrorType: model.ErrFatigue},
	}

	got := TopicErrorRate(errors, sessions)
	if len(got) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(got))
	}
	if got[0].Topic != "Funções" {
		t.Fatalf("first topic = %q, want Funções", got[0].Topic)
	}
	if got[0].Rate == nil || *got[0].Rate != 2.0/50.0 {
		t.Errorf("Funções rate = %v, want 0.04", got[0].Rate)
	}
	// No história sessions logged: rate undefined, not infinite.
	if got[1].Rate != nil {
		t.Errorf("Brasil Colônia rate = %v, want nil for zero denominator", *got[1].Rate)
	}
}

func TestActivityHeatmapZeroFill(t *testing.T) {
	ref := day(2026, 6, 30)
	got := ActivityHeatmap(nil, nil, ref, 1)
	if len(got) == 0 {
		t.Fatal("expected day buckets even with zero activity")
	}
	for _, d := range got {
		if d.Count != 0 {
			t.Errorf("day %s count = %d, want 0", d.Date, d.Count)
		}
	}
	if got[len(got)-1].Date != "2026-06-30" {
		t.Errorf("last day = %s, want reference date 2026-06-30", got[len(got)-1].Date)
	}
}

func TestActivityHeatmapCounts(t *testing.T) {
	ref := day(2026, 3, 15)
	sessions := []model.StudySession{
		session("Matemática", 10, 8, day(2026, 3, 10)),
		session("Física", 10, 8, day(2026, 3, 10)),
	}
	exams := []model.MockExam{exam(1, model.ExamENEM, day(2026, 3, 10), 80, 100)}

	got := ActivityHeatmap(sessions, exams, ref, 1)
	counts := make(map[string]int, len(got))
	for _, d := range got {
		counts[d.Date] = d.Count
	}
	if counts["2026-03-10"] != 3 {
		t.Errorf("2026-03-10 count = %d, want 3", counts["2026-03-10"])
	}
	if counts["2026-03-11"] != 0 {
		t.Errorf("2026-03-11 count = %d, want 0", counts["2026-03-11"])
	}
}

func TestMockExamTrajectory(t *testing.T) {
	exams := []model.MockExam{
		exam(1, model.ExamFUVEST, day(2026, 1, 10), 80, 100),
		exam(2, model.ExamFUVEST, day(2026, 3, 10), 85, 100),
		exam(3, model.ExamFUVEST, day(2026, 2, 10), 70, 100),
	}

	got := MockExamTrajectory(exams)
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	pts := got[0].Points
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}

	wantScores := []float64{80, 70, 85}
	wantImprovements := []*float64{nil, f(-10), f(15)}
	for i, p := range pts {
		if p.AttemptNumber != i+1 {
			t.Errorf("point %d attempt = %d, want %d", i, p.AttemptNumber, i+1)
		}
		if p.ScorePct != wantScores[i] {
			t.Errorf("point %d score = %v, want %v", i, p.ScorePct, wantScores[i])
		}
		switch {
		case wantImprovements[i] == nil:
			if p.Improvement != nil {
				t.Errorf("point %d improvement = %v, want nil", i, *p.Improvement)
			}
		case p.Improvement == nil || *p.Improvement != *wantImprovements[i]:
			t.Errorf("point %d improvement = %v, want %v", i, p.Improvement, *wantImprovements[i])
		}
	}
}

func TestMockExamTrajectoryGroupsByType(t *testing.T) {
	exams := []model.MockExam{
		exam(1, model.ExamSAT, day(2026, 1, 1), 1200, 1600),
		exam(2, model.ExamENEM, day(2026, 1, 2), 700, 1000),
	}
	got := MockExamTrajectory(exams)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].ExamType != model.ExamENEM || got[1].ExamType != model.ExamSAT {
		t.Errorf("group order = %v, %v, want ENEM then SAT", got[0].ExamType, got[1].ExamType)
	}
}

func f(v float64) *float64 { return &v }
