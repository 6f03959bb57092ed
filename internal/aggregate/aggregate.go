// Package aggregate folds record collections into dashboard-ready
// summaries. Inputs are the caller's own records; outputs are plain
// structured data for the presentation layer.
package aggregate

import (
	"sort"
	"time"

	"github.com/luizancard/error-autopsy/internal/metrics"
	"github.com/luizancard/error-autopsy/internal/model"
)

// KPIs are the headline dashboard numbers. MeanAccuracy and
// LatestExamScore are nil when there is no data to derive them from,
// which is not the same thing as scoring zero.
type KPIs struct {
	SessionCount    int      `json:"session_count"`
	MeanAccuracy    *float64 `json:"mean_accuracy"`
	LatestExamScore *float64 `json:"latest_exam_score"`
	ErrorCount      int      `json:"error_count"`
	AvoidableErrors int      `json:"avoidable_errors"`
}

// DashboardKPIs computes the headline numbers over a user's records.
// Mean accuracy is the unweighted arithmetic mean of per-session accuracy.
// The latest exam is picked by date, ties broken by most recently created.
func DashboardKPIs(sessions []model.StudySession, exams []model.MockExam, errors []model.ErrorRecord) KPIs {
	k := KPIs{
		SessionCount:    len(sessions),
		ErrorCount:      len(errors),
		AvoidableErrors: AvoidableCount(errors),
	}

	if len(sessions) > 0 {
		var sum float64
		for _, s := range sessions {
			sum += metrics.Accuracy(s.CorrectCount, s.TotalQuestions)
		}
		mean := sum / float64(len(sessions))
		k.MeanAccuracy = &mean
	}

	if len(exams) > 0 {
		latest := exams[0]
		for _, e := range exams[1:] {
			if e.Date.After(latest.Date) || (e.Date.Equal(latest.Date) && e.ID > latest.ID) {
				latest = e
			}
		}
		score := metrics.ScorePercentage(latest.TotalScore, latest.MaxPossibleScore)
		k.LatestExamScore = &score
	}

	return k
}

// SubjectStats summarizes practice volume and accuracy for one subject.
type SubjectStats struct {
	Subject        string  `json:"subject"`
	SessionCount   int     `json:"session_count"`
	TotalQuestions int     `json:"total_questions"`
	MeanAccuracy   float64 `json:"mean_accuracy"`
}

// SubjectBreakdown groups sessions by subject. Most-practiced subjects
// come first; equal question counts order alphabetically.
func SubjectBreakdown(sessions []model.StudySession) []SubjectStats {
	bySubject := make(map[string]*SubjectStats)
	accSums := make(map[string]float64)

	for _, s := range sessions {
		st, ok := bySubject[s.Subject]
		if !ok {
			st = &SubjectStats{Subject: s.Subject}
			bySubject[s.Subject] = st
		}
		st.SessionCount++
		st.TotalQuestions += s.TotalQuestions
		accSums[s.Subject] += metrics.Accuracy(s.CorrectCount, s.TotalQuestions)
	}

	out := make([]SubjectStats, 0, len(bySubject))
	for subject, st := range bySubject {
		st.MeanAccuracy = accSums[subject] / float64(st.SessionCount)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuestions != out[j].TotalQuestions {
			return out[i].TotalQuestions > out[j].TotalQuestions
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// TopicStats reports the error rate for one topic. Rate is nil when no
// session questions exist to divide by.
type TopicStats struct {
	Topic              string   `json:"topic"`
	ErrorCount         int      `json:"error_count"`
	QuestionsAttempted int      `json:"questions_attempted"`
	Rate               *float64 `json:"rate"`
}

// TopicErrorRate groups errors by topic and divides each topic's error
// count by the questions attempted in sessions sharing the topic's
// subject(s).
func TopicErrorRate(errors []model.ErrorRecord, sessions []model.StudySession) []TopicStats {
	questionsBySubject := make(map[string]int)
	for _, s := range sessions {
		questionsBySubject[s.Subject] += s.TotalQuestions
	}

	counts := make(map[string]int)
	topicSubjects := make(map[string]map[string]bool)
	var order []string
	for _, e := range errors {
		if _, seen := counts[e.Topic]; !seen {
			order = append(order, e.Topic)
			topicSubjects[e.Topic] = make(map[string]bool)
		}
		counts[e.Topic]++
		topicSubjects[e.Topic][e.Subject] = true
	}

	out := make([]TopicStats, 0, len(order))
	for _, topic := range order {
		st := TopicStats{Topic: topic, ErrorCount: counts[topic]}
		for subject := range topicSubjects[topic] {
			st.QuestionsAttempted += questionsBySubject[subject]
		}
		if st.QuestionsAttempted > 0 {
			r := float64(st.ErrorCount) / float64(st.QuestionsAttempted)
			st.Rate = &r
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ErrorCount != out[j].ErrorCount {
			return out[i].ErrorCount > out[j].ErrorCount
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// DayActivity is one cell of the contribution-style heatmap.
type DayActivity struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// ActivityHeatmap buckets session and exam dates into daily counts over
// the trailing window ending at ref. Every day in the window appears in
// the output, zero-activity days included.
func ActivityHeatmap(sessions []model.StudySession, exams []model.MockExam, ref time.Time, windowMonths int) []DayActivity {
	if windowMonths <= 0 {
		windowMonths = 6
	}
	end := dateOnly(ref)
	start := end.AddDate(0, -windowMonths, 0).AddDate(0, 0, 1)

	counts := make(map[string]int)
	for _, s := range sessions {
		counts[dateOnly(s.Date).Format("2006-01-02")]++
	}
	for _, e := range exams {
		counts[dateOnly(e.Date).Format("2006-01-02")]++
	}

	var out []DayActivity
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DayActivity{Date: key, Count: counts[key]})
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TrajectoryPoint is one mock exam in a per-exam-type score series.
type TrajectoryPoint struct {
	Date          time.Time `json:"date"`
	ExamName      string    `json:"exam_name"`
	ScorePct      float64   `json:"score_pct"`
	AttemptNumber int       `json:"attempt_number"`
	Improvement   *float64  `json:"improvement"`
}

// ExamTrajectory is the full score series for one exam type.
type ExamTrajectory struct {
	ExamType model.ExamType    `json:"exam_type"`
	Points   []TrajectoryPoint `json:"points"`
}

// MockExamTrajectory builds date-ordered score series per exam type with
// 1-based attempt numbers and per-attempt improvement deltas. Equal dates
// keep insertion order. Groups are sorted by exam type name.
func MockExamTrajectory(exams []model.MockExam) []ExamTrajectory {
	groups := make(map[model.ExamType][]model.MockExam)
	for _, e := range exams {
		groups[e.ExamType] = append(groups[e.ExamType], e)
	}

	types := make([]model.ExamType, 0, len(groups))
	for et := range groups {
		types = append(types, et)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	out := make([]ExamTrajectory, 0, len(types))
	for _, et := range types {
		group := groups[et]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		scores := make([]float64, len(group))
		for i, e := range group {
			scores[i] = metrics.ScorePercentage(e.TotalScore, e.MaxPossibleScore)
		}
		steps := metrics.TrendSteps(scores)

		points := make([]TrajectoryPoint, len(group))
		for i, e := range group {
			points[i] = TrajectoryPoint{
				Date:          e.Date,
				ExamName:      e.ExamName,
				ScorePct:      scores[i],
				AttemptNumber: steps[i].AttemptNumber,
				Improvement:   steps[i].Improvement,
			}
		}
		out = append(out, ExamTrajectory{ExamType: et, Points: points})
	}
	return out
}

// AvoidableCount counts errors of the avoidable categories.
func AvoidableCount(errors []model.ErrorRecord) int {
	avoidable := make(map[model.ErrorType]bool, len(model.AvoidableErrorTypes))
	for _, et := range model.AvoidableErrorTypes {
		avoidable[et] = true
	}
	n := 0
	for _, e := range errors {
		if avoidable[e.ErrorType] {
			n++
		}
	}
	return n
}
