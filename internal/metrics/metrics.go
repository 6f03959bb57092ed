// Package metrics turns raw logged events into derived performance
// figures. Every function is pure: deterministic, no side effects, and
// guarded against empty input instead of raising.
package metrics

import (
	"github.com/luizancard/error-autopsy/internal/benchmark"
	"github.com/luizancard/error-autopsy/internal/model"
)

// PaceZone classifies pace relative to the exam benchmark.
type PaceZone string

const (
	PaceRushing PaceZone = "Rushing"
	PaceOptimal PaceZone = "Optimal"
	PaceTooSlow PaceZone = "TooSlow"
)

// AccuracyZone classifies accuracy percentage into mastery buckets.
type AccuracyZone string

const (
	AccuracyMastery    AccuracyZone = "Mastery"
	AccuracyDeveloping AccuracyZone = "Developing"
	AccuracyStruggling AccuracyZone = "Struggling"
)

// PerformanceZone combines pace and accuracy into one label.
type PerformanceZone string

const (
	ZoneMastery           PerformanceZone = "MasteryZone"
	ZoneRushingAccurate   PerformanceZone = "RushingAccurate"
	ZoneSlowAccurate      PerformanceZone = "SlowAccurate"
	ZoneRushingStruggling PerformanceZone = "RushingStruggling"
	ZoneNeedsImprovement  PerformanceZone = "NeedsImprovement"
)

// Accuracy returns correct/total as a percentage. A zero total returns 0:
// total_questions is always positive on stored sessions, the guard covers
// aggregate calls over empty sets.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// PacePerQuestion returns minutes spent per question, 0 for a zero total.
func PacePerQuestion(durationMinutes float64, total int) float64 {
	if total == 0 {
		return 0
	}
	return durationMinutes / float64(total)
}

// ScorePercentage returns score/max as a percentage, 0 for a zero max.
func ScorePercentage(score, max float64) float64 {
	if max == 0 {
		return 0
	}
	return score / max * 100
}

// ClassifyPace buckets a pace against its benchmark. The optimal band is
// the closed interval [0.5, 1.2] of the pace/benchmark ratio.
func ClassifyPace(pacePerQuestion, bench float64) PaceZone {
	if bench == 0 {
		return PaceOptimal
	}
	ratio := pacePerQuestion / bench
	switch {
	case ratio < 0.5:
		return PaceRushing
	case ratio <= 1.2:
		return PaceOptimal
	default:
		return PaceTooSlow
	}
}

// ClassifyAccuracy buckets an accuracy percentage. Exactly 80 is Mastery,
// exactly 60 is Developing.
func ClassifyAccuracy(accuracyPct float64) AccuracyZone {
	switch {
	case accuracyPct >= 80:
		return AccuracyMastery
	case accuracyPct >= 60:
		return AccuracyDeveloping
	default:
		return AccuracyStruggling
	}
}

// Combine maps the 3x3 pace/accuracy product onto a performance zone.
// Four combinations have dedicated labels; the remaining five all read as
// NeedsImprovement.
func Combine(pace PaceZone, accuracy AccuracyZone) PerformanceZone {
	switch {
	case pace == PaceOptimal && accuracy == AccuracyMastery:
		return ZoneMastery
	case pace == PaceRushing && accuracy == AccuracyMastery:
		return ZoneRushingAccurate
	case pace == PaceTooSlow && accuracy == AccuracyMastery:
		return ZoneSlowAccurate
	case pace == PaceRushing && accuracy == AccuracyStruggling:
		return ZoneRushingStruggling
	default:
		return ZoneNeedsImprovement
	}
}

// SessionPerformance bundles the derived figures for one study session.
type SessionPerformance struct {
	AccuracyPct     float64         `json:"accuracy_pct"`
	PacePerQuestion float64         `json:"pace_per_question"`
	Benchmark       float64         `json:"benchmark"`
	PaceZone        PaceZone        `json:"pace_zone"`
	AccuracyZone    AccuracyZone    `json:"accuracy_zone"`
	PerformanceZone PerformanceZone `json:"performance_zone"`
}

// ForSession derives the full performance picture for one session against
// its exam-type benchmark.
func ForSession(s model.StudySession) SessionPerformance {
	acc := Accuracy(s.CorrectCount, s.TotalQuestions)
	pace := PacePerQuestion(s.DurationMinutes, s.TotalQuestions)
	bench := benchmark.Pace(s.ExamType)
	pz := ClassifyPace(pace, bench)
	az := ClassifyAccuracy(acc)
	return SessionPerformance{
		AccuracyPct:     acc,
		PacePerQuestion: pace,
		Benchmark:       bench,
		PaceZone:        pz,
		AccuracyZone:    az,
		PerformanceZone: Combine(pz, az),
	}
}

// TrendStep is one element of a time-ordered score series.
type TrendStep struct {
	AttemptNumber int      `json:"attempt_number"`
	Improvement   *float64 `json:"improvement"`
}

// TrendSteps numbers a date-ordered score series and computes per-step
// improvement deltas. The caller supplies the series already sorted; the
// first step has a nil improvement to distinguish "no prior attempt" from
// a zero delta.
func TrendSteps(scores []float64) []TrendStep {
	steps := make([]TrendStep, len(scores))
	for i := range scores {
		steps[i] = TrendStep{AttemptNumber: i + 1}
		if i > 0 {
			d := scores[i] - scores[i-1]
			steps[i].Improvement = &d
		}
	}
	return steps
}
