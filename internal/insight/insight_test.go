package insight

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/luizancard/error-autopsy/internal/i18n"
	"github.com/luizancard/error-autopsy/internal/model"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	return i18n.WithLocalizer(context.Background(), i18n.NewLocalizer("en"))
}

func errRecord(subject, topic string, et model.ErrorType) model.ErrorRecord {
	return model.ErrorRecord{
		UserID: 1, Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Subject: subject, Topic: topic, ErrorType: et,
		Difficulty: model.DifficultyMedium, ExamType: model.ExamGeneral,
	}
}

func TestDiagnoseEmpty(t *testing.T) {
	d := Diagnose(testCtx(t), nil)
	if d.Subject != "" || d.Count != 0 {
		t.Errorf("empty diagnosis = %+v", d)
	}
	if !strings.Contains(d.Message, "No data in this period") {
		t.Errorf("Message = %q, want no-data notice", d.Message)
	}
}

func TestDiagnoseFindsWorstTopic(t *testing.T) {
	records := []model.ErrorRecord{
		errRecord("Matemática", "Funções", model.ErrContentGap),
		errRecord("Matemática", "Funções", model.ErrContentGap),
		errRecord("Matemática", "Funções", model.ErrAttentionDetail),
		errRecord("Matemática", "Geometria", model.ErrContentGap),
		errRecord("Física", "Óptica", model.ErrTimeManagement),
	}

	d := Diagnose(testCtx(t), records)
	if d.Subject != "Matemática" || d.Topic != "Funções" {
		t.Fatalf("worst pair = %s/%s, want Matemática/Funções", d.Subject, d.Topic)
	}
	if d.ErrorType != model.ErrContentGap {
		t.Errorf("dominant type = %v, want Content Gap", d.ErrorType)
	}
	if d.Count != 3 {
		t.Errorf("Count = %d, want 3", d.Count)
	}
	if !strings.Contains(d.Message, "Matemática") || !strings.Contains(d.Message, "Funções") {
		t.Errorf("Message = %q", d.Message)
	}
	if !strings.Contains(d.Tip, "core concepts") {
		t.Errorf("Tip = %q, want content-gap advice", d.Tip)
	}
}

func TestDiagnoseAvoidableShare(t *testing.T) {
	records := []model.ErrorRecord{
		errRecord("Química", "Estequiometria", model.ErrAttentionDetail),
		errRecord("Química", "Estequiometria", model.ErrInterpretation),
		errRecord("Química", "Estequiometria", model.ErrContentGap),
		errRecord("Química", "Estequiometria", model.ErrFatigue),
	}

	d := Diagnose(testCtx(t), records)
	if d.AvoidablePct != 50 {
		t.Errorf("AvoidablePct = %v, want 50", d.AvoidablePct)
	}
}

func TestSummarize(t *testing.T) {
	records := []model.ErrorRecord{
		errRecord("Matemática", "Funções", model.ErrContentGap),
		errRecord("Física", "Óptica", model.ErrContentGap),
	}

	s := Summarize(records)
	if s.TotalErrors != 2 {
		t.Errorf("TotalErrors = %d, want 2", s.TotalErrors)
	}
	if s.ByType[model.ErrContentGap] != 2 {
		t.Errorf("ByType = %v", s.ByType)
	}
	if s.BySubject["Física"] != 1 {
		t.Errorf("BySubject = %v", s.BySubject)
	}
	if s.ByMonth["2026-03"] != 2 {
		t.Errorf("ByMonth = %v", s.ByMonth)
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	s := Summary{
		TotalErrors: 3,
		ByType:      map[model.ErrorType]int{model.ErrContentGap: 2, model.ErrFatigue: 1},
		BySubject:   map[string]int{"Matemática": 3},
		ByTopic:     map[string]int{"Funções": 2, "Geometria": 1},
		ByMonth:     map[string]int{"2026-02": 1, "2026-03": 2},
	}

	prompt := buildAnalysisPrompt(s)
	for _, want := range []string{
		"Total Errors Logged: 3",
		"Content Gap: 2",
		"Matemática: 3",
		"2026-02: 1, 2026-03: 2",
		`"diagnosis"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestFormatCountsStableOrder(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	if got := formatCounts(m); got != "a: 1, b: 2, c: 3" {
		t.Errorf("formatCounts = %q", got)
	}
	if got := formatCounts(nil); got != "none" {
		t.Errorf("formatCounts(nil) = %q", got)
	}
}
