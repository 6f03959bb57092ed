package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/luizancard/error-autopsy/internal/model"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		want    float64
	}{
		{"all correct", 20, 20, 100},
		{"none correct", 0, 20, 0},
		{"seventy percent", 14, 20, 70},
		{"zero total guard", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accuracy(tt.correct, tt.total)
			if got != tt.want {
				t.Errorf("Accuracy(%d, %d) = %v, want %v", tt.correct, tt.total, got, tt.want)
			}
		})
	}
}

func TestPacePerQuestion(t *testing.T) {
	if got := PacePerQuestion(60, 20); got != 3 {
		t.Errorf("PacePerQuestion(60, 20) = %v, want 3", got)
	}
	if got := PacePerQuestion(60, 0); got != 0 {
		t.Errorf("PacePerQuestion(60, 0) = %v, want 0 (zero guard)", got)
	}
}

func TestClassifyPaceBoundaries(t *testing.T) {
	const bench = 3.0
	tests := []struct {
		name string
		pace float64
		want PaceZone
	}{
		{"half benchmark is optimal", bench * 0.5, PaceOptimal},
		{"just under half is rushing", bench * 0.49, PaceRushing},
		{"1.2x benchmark is optimal", bench * 1.2, PaceOptimal},
		{"just over 1.2x is too slow", bench * 1.21, PaceTooSlow},
		{"exactly on benchmark", bench, PaceOptimal},
		{"double benchmark", bench * 2, PaceTooSlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPace(tt.pace, bench); got != tt.want {
				t.Errorf("ClassifyPace(%v, %v) = %v, want %v", tt.pace, bench, got, tt.want)
			}
		})
	}
}

func TestClassifyAccuracyBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want AccuracyZone
	}{
		{100, AccuracyMastery},
		{80, AccuracyMastery},
		{79.9, AccuracyDeveloping},
		{60, AccuracyDeveloping},
		{59.9, AccuracyStruggling},
		{0, AccuracyStruggling},
	}
	for _, tt := range tests {
		if got := ClassifyAccuracy(tt.pct); got != tt.want {
			t.Errorf("ClassifyAccuracy(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestCombineCoversAllNineCases(t *testing.T) {
	tests := []struct {
		pace     PaceZone
		accuracy AccuracyZone
		want     PerformanceZone
	}{
		{PaceOptimal, AccuracyMastery, ZoneMastery},
		{PaceRushing, AccuracyMastery, ZoneRushingAccurate},
		{PaceTooSlow, AccuracyMastery, ZoneSlowAccurate},
		{PaceRushing, AccuracyStruggling, ZoneRushingStruggling},
		{PaceOptimal, AccuracyDeveloping, ZoneNeedsImprovement},
		{PaceOptimal, AccuracyStruggling, ZoneNeedsImprovement},
		{PaceRushing, AccuracyDeveloping, ZoneNeedsImprovement},
		{PaceTooSlow, AccuracyDeveloping, ZoneNeedsImprovement},
		{PaceTooSlow, AccuracyStruggling, ZoneNeedsImprovement},
	}
	for _, tt := range tests {
		if got := Combine(tt.pace, tt.accuracy); got != tt.want {
			t.Errorf("Combine(%v, %v) = %v, want %v", tt.pace, tt.accuracy, got, tt.want)
		}
	}
}

func TestForSession(t *testing.T) {
	s := model.StudySession{
		Date:            time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ExamType:        model.ExamENEM,
		Subject:         "Matemática",
		TotalQuestions:  20,
		CorrectCount:    18,
		DurationMinutes: 50,
	}
	p := ForSession(s)
	if p.AccuracyPct != 90 {
		t.Errorf("AccuracyPct = %v, want 90", p.AccuracyPct)
	}
	if p.PacePerQuestion != 2.5 {
		t.Errorf("PacePerQuestion = %v, want 2.5", p.PacePerQuestion)
	}
	if p.Benchmark != 3.0 {
		t.Errorf("Benchmark = %v, want 3.0 for ENEM", p.Benchmark)
	}
	if p.PaceZone != PaceOptimal {
		t.Errorf("PaceZone = %v, want Optimal", p.PaceZone)
	}
	if p.PerformanceZone != ZoneMastery {
		t.Errorf("PerformanceZone = %v, want MasteryZone", p.PerformanceZone)
	}
}

func TestTrendSteps(t *testing.T) {
	steps := TrendSteps([]float64{80, 70, 85})
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].AttemptNumber != 1 || steps[0].Improvement != nil {
		t.Errorf("first step = %+v, want attempt 1 with nil improvement", steps[0])
	}
	if steps[1].AttemptNumber != 2 || steps[1].Improvement == nil || *steps[1].Improvement != -10 {
		t.Errorf("second step = %+v, want attempt 2 improvement -10", steps[1])
	}
	if steps[2].Improvement == nil || math.Abs(*steps[2].Improvement-15) > 1e-9 {
		t.Errorf("third step = %+v, want improvement 15", steps[2])
	}
}

func TestTrendStepsEmpty(t *testing.T) {
	if steps := TrendSteps(nil); len(steps) != 0 {
		t.Errorf("TrendSteps(nil) = %v, want empty", steps)
	}
}
