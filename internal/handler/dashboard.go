package handler

import (
	"net/http"
	"time"

	"github.com/luizancard/error-autopsy/internal/aggregate"
	"github.com/luizancard/error-autopsy/internal/benchmark"
	"github.com/luizancard/error-autopsy/internal/insight"
	"github.com/luizancard/error-autopsy/internal/model"
	"github.com/luizancard/error-autopsy/internal/store"
)

// examTypeMeta describes one exam type for client form-building.
type examTypeMeta struct {
	ExamType  model.ExamType `json:"exam_type"`
	PaceBench float64        `json:"pace_benchmark"`
	Subjects  []string       `json:"subjects"`
	Sections  []string       `json:"sections,omitempty"`
}

// handleMeta serves the static per-exam vocabulary: target pace, subject
// suggestions and mock-exam section names.
func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta := make([]examTypeMeta, len(model.ExamTypes))
	for i, et := range model.ExamTypes {
		meta[i] = examTypeMeta{
			ExamType:  et,
			PaceBench: benchmark.Pace(et),
			Subjects:  benchmark.Subjects(et),
			Sections:  benchmark.Sections(et),
		}
	}
	writeJSON(w, http.StatusOK, meta)
}

// dashboardResponse bundles the headline widgets in one round trip.
type dashboardResponse struct {
	KPIs         aggregate.KPIs           `json:"kpis"`
	Subjects     []aggregate.SubjectStats `json:"subjects"`
	ErrorsByType map[model.ErrorType]int  `json:"errors_by_type"`
	ErrorsByDiff map[model.Difficulty]int `json:"errors_by_difficulty"`
	Monthly      aggregate.MonthlyStats   `json:"monthly"`
	ExamKPIs     aggregate.ExamKPIs       `json:"exam_kpis"`
}

// loadRecords fetches the user's sessions, exams and errors, optionally
// narrowed by the exam_type query parameter.
func (h *Handler) loadRecords(r *http.Request) ([]model.StudySession, []model.MockExam, []model.ErrorRecord, error) {
	user := currentUser(r)

	var sessionFilter store.SessionFilter
	var errorFilter store.ErrorFilter
	var examType model.ExamType
	if raw := r.URL.Query().Get("exam_type"); raw != "" {
		if et, ok := model.ParseExamType(raw); ok {
			examType = et
			sessionFilter.ExamType = et
			errorFilter.ExamType = et
		}
	}

	sessions, err := h.store.ListSessions(user.ID, sessionFilter)
	if err != nil {
		return nil, nil, nil, err
	}
	exams, err := h.store.ListExams(user.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if examType != "" {
		kept := exams[:0]
		for _, e := range exams {
			if e.ExamType == examType {
				kept = append(kept, e)
			}
		}
		exams = kept
	}
	records, err := h.store.ListErrors(user.ID, errorFilter)
	if err != nil {
		return nil, nil, nil, err
	}
	return sessions, exams, records, nil
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sessions, exams, records, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	now := time.Now()
	months := monthsParam(r)
	sessions = aggregate.FilterSessionsByMonths(sessions, months, now)
	records = aggregate.FilterErrorsByMonths(records, months, now)

	writeJSON(w, http.StatusOK, dashboardResponse{
		KPIs:         aggregate.DashboardKPIs(sessions, exams, records),
		Subjects:     aggregate.SubjectBreakdown(sessions),
		ErrorsByType: aggregate.CountByErrorType(records),
		ErrorsByDiff: aggregate.CountByDifficulty(records),
		Monthly:      aggregate.MonthlyErrorStats(records, now),
		ExamKPIs:     aggregate.MockExamKPIs(exams),
	})
}

func (h *Handler) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	sessions, exams, _, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	window := 0 // ActivityHeatmap applies its own default
	if months := monthsParam(r); months > 0 {
		window = months
	}
	writeJSON(w, http.StatusOK, aggregate.ActivityHeatmap(sessions, exams, time.Now(), window))
}

func (h *Handler) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	_, exams, _, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.MockExamTrajectory(exams))
}

func (h *Handler) handleSubjects(w http.ResponseWriter, r *http.Request) {
	sessions, _, _, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	sessions = aggregate.FilterSessionsByMonths(sessions, monthsParam(r), time.Now())
	writeJSON(w, http.StatusOK, aggregate.SubjectBreakdown(sessions))
}

func (h *Handler) handleTopics(w http.ResponseWriter, r *http.Request) {
	sessions, _, records, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.TopicErrorRate(records, sessions))
}

func (h *Handler) handleInsight(w http.ResponseWriter, r *http.Request) {
	_, _, records, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	records = aggregate.FilterErrorsByMonths(records, monthsParam(r), time.Now())
	writeJSON(w, http.StatusOK, insight.Diagnose(r.Context(), records))
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		http.Error(w, "LLM analysis is not configured", http.StatusServiceUnavailable)
		return
	}
	_, _, records, err := h.loadRecords(r)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	records = aggregate.FilterErrorsByMonths(records, monthsParam(r), time.Now())

	analysis, err := h.llm.AnalyzePatterns(r.Context(), insight.Summarize(records))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
