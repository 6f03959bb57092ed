package aggregate

import (
	"sort"
	"time"

	"github.com/luizancard/error-autopsy/internal/metrics"
	"github.com/luizancard/error-autopsy/internal/model"
)

// Days used to approximate one month when applying trailing time filters.
const daysPerMonth = 30

// CountByErrorType counts errors per category.
func CountByErrorType(errors []model.ErrorRecord) map[model.ErrorType]int {
	counts := make(map[model.ErrorType]int)
	for _, e := range errors {
		counts[e.ErrorType]++
	}
	return counts
}

// CountBySubject counts errors per subject.
func CountBySubject(errors []model.ErrorRecord) map[string]int {
	counts := make(map[string]int)
	for _, e := range errors {
		counts[e.Subject]++
	}
	return counts
}

// CountByTopic counts errors per topic.
func CountByTopic(errors []model.ErrorRecord) map[string]int {
	counts := make(map[string]int)
	for _, e := range errors {
		counts[e.Topic]++
	}
	return counts
}

// CountByDifficulty counts errors per difficulty level.
func CountByDifficulty(errors []model.ErrorRecord) map[model.Difficulty]int {
	counts := make(map[model.Difficulty]int)
	for _, e := range errors {
		counts[e.Difficulty]++
	}
	return counts
}

// CountByMonth counts errors per YYYY-MM bucket.
func CountByMonth(errors []model.ErrorRecord) map[string]int {
	counts := make(map[string]int)
	for _, e := range errors {
		counts[e.Date.Format("2006-01")]++
	}
	return counts
}

// MonthlyStats compares the current month's error volume with the
// previous month's.
type MonthlyStats struct {
	CurrentTotal int     `json:"current_total"`
	DeltaPct     float64 `json:"delta_pct"`
	TopSubject   string  `json:"top_subject"`
	TopType      string  `json:"top_type"`
}

// MonthlyErrorStats summarizes the month containing ref against the month
// before it. An empty previous month reads as a 100% increase when the
// current month has any errors.
func MonthlyErrorStats(errors []model.ErrorRecord, ref time.Time) MonthlyStats {
	curYear, curMonth := ref.Year(), ref.Month()
	prev := ref.AddDate(0, 0, -ref.Day()) // last day of the previous month
	prevYear, prevMonth := prev.Year(), prev.Month()

	var current, previous []model.ErrorRecord
	for _, e := range errors {
		switch {
		case e.Date.Year() == curYear && e.Date.Month() == curMonth:
			current = append(current, e)
		case e.Date.Year() == prevYear && e.Date.Month() == prevMonth:
			previous = append(previous, e)
		}
	}

	stats := MonthlyStats{CurrentTotal: len(current)}
	switch {
	case len(previous) == 0 && len(current) > 0:
		stats.DeltaPct = 100
	case len(previous) > 0:
		stats.DeltaPct = float64(len(current)-len(previous)) / float64(len(previous)) * 100
	}

	stats.TopSubject = topKey(CountBySubject(current))
	typeCounts := make(map[string]int)
	for _, e := range current {
		typeCounts[string(e.ErrorType)]++
	}
	stats.TopType = topKey(typeCounts)
	return stats
}

// topKey returns the key with the highest count, smallest key on ties,
// empty string for an empty map.
func topKey(counts map[string]int) string {
	var best string
	bestCount := -1
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

// ExamKPIs are the headline numbers of the mock-exam analysis page.
type ExamKPIs struct {
	TotalExams  int     `json:"total_exams"`
	BestScore   float64 `json:"best_score"`
	LatestScore float64 `json:"latest_score"`
	AvgScore    float64 `json:"avg_score"`
	Trend       string  `json:"trend"` // Improving, Declining, Stable
}

// MockExamKPIs summarizes a set of mock exams. The trend compares the
// latest score against the mean of all earlier attempts, with a two-point
// dead band.
func MockExamKPIs(exams []model.MockExam) ExamKPIs {
	k := ExamKPIs{TotalExams: len(exams)}
	if len(exams) == 0 {
		k.Trend = "Stable"
		return k
	}

	sorted := make([]model.MockExam, len(exams))
	copy(sorted, exams)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var sum float64
	for _, e := range sorted {
		pct := metrics.ScorePercentage(e.TotalScore, e.MaxPossibleScore)
		sum += pct
		if pct > k.BestScore {
			k.BestScore = pct
		}
	}
	k.AvgScore = sum / float64(len(sorted))
	k.LatestScore = metrics.ScorePercentage(
		sorted[len(sorted)-1].TotalScore, sorted[len(sorted)-1].MaxPossibleScore)

	k.Trend = "Stable"
	if len(sorted) > 1 {
		priorMean := (sum - k.LatestScore) / float64(len(sorted)-1)
		switch {
		case k.LatestScore > priorMean+2:
			k.Trend = "Improving"
		case k.LatestScore < priorMean-2:
			k.Trend = "Declining"
		}
	}
	return k
}

// FilterErrorsByMonths keeps errors from the trailing window. months == 0
// means the current calendar month, a negative value means no filtering.
func FilterErrorsByMonths(errors []model.ErrorRecord, months int, ref time.Time) []model.ErrorRecord {
	cutoff, all := monthsCutoff(months, ref)
	if all {
		return errors
	}
	var out []model.ErrorRecord
	for _, e := range errors {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// FilterSessionsByMonths keeps sessions from the trailing window, with the
// same months semantics as FilterErrorsByMonths.
func FilterSessionsByMonths(sessions []model.StudySession, months int, ref time.Time) []model.StudySession {
	cutoff, all := monthsCutoff(months, ref)
	if all {
		return sessions
	}
	var out []model.StudySession
	for _, s := range sessions {
		if !s.Date.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

func monthsCutoff(months int, ref time.Time) (cutoff time.Time, all bool) {
	switch {
	case months < 0:
		return time.Time{}, true
	case months == 0:
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()), false
	default:
		return ref.AddDate(0, 0, -months*daysPerMonth), false
	}
}
