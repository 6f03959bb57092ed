package handler

import (
	"net/http"
	"time"

	"github.com/luizancard/error-autopsy/internal/metrics"
	"github.com/luizancard/error-autopsy/internal/model"
	"github.com/luizancard/error-autopsy/internal/store"
)

const dateFormat = "2006-01-02"

// sessionRequest is the JSON payload for creating or updating a session.
type sessionRequest struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	ExamType        string  `json:"exam_type" validate:"required"`
	Subject         string  `json:"subject" validate:"required"`
	TotalQuestions  int     `json:"total_questions" validate:"required,gt=0"`
	CorrectCount    int     `json:"correct_count" validate:"gte=0"`
	DurationMinutes float64 `json:"duration_minutes" validate:"required,gt=0"`
}

func (req sessionRequest) toModel(userID int64) (model.StudySession, error) {
	s := model.StudySession{
		UserID:          userID,
		Subject:         req.Subject,
		TotalQuestions:  req.TotalQuestions,
		CorrectCount:    req.CorrectCount,
		DurationMinutes: req.DurationMinutes,
	}
	et, ok := model.ParseExamType(req.ExamType)
	if !ok {
		return s, &model.ValidationError{Field: "exam_type", Reason: "unknown exam type " + req.ExamType}
	}
	s.ExamType = et
	s.Date, _ = time.Parse(dateFormat, req.Date)
	return s, s.Validate()
}

// sessionView is a session with its derived performance attached.
type sessionView struct {
	model.StudySession
	Performance metrics.SessionPerformance `json:"performance"`
}

func viewSession(s model.StudySession) sessionView {
	return sessionView{StudySession: s, Performance: metrics.ForSession(s)}
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	filter := store.SessionFilter{Subject: q.Get("subject")}
	if raw := q.Get("exam_type"); raw != "" {
		et, ok := model.ParseExamType(raw)
		if !ok {
			h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
			return
		}
		filter.ExamType = et
	}
	if raw := q.Get("from"); raw != "" {
		filter.From, _ = time.Parse(dateFormat, raw)
	}
	if raw := q.Get("to"); raw != "" {
		filter.To, _ = time.Parse(dateFormat, raw)
	}

	sessions, err := h.store.ListSessions(user.ID, filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	views := make([]sessionView, len(sessions))
	for i, s := range sessions {
		views[i] = viewSession(s)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	s, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	id, err := h.store.CreateSession(s)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	s.ID = id
	writeJSON(w, http.StatusCreated, viewSession(s))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	s, err := h.store.GetSession(currentUser(r).ID, id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(s))
}

func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	var req sessionRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	s, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.ID = id
	if err := h.store.UpdateSession(s); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(s))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	if err := h.store.DeleteSession(currentUser(r).ID, id); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// examRequest is the JSON payload for creating or updating a mock exam.
type examRequest struct {
	ExamName         string             `json:"exam_name" validate:"required"`
	ExamType         string             `json:"exam_type" validate:"required"`
	Date             string             `json:"date" validate:"required,datetime=2006-01-02"`
	TotalScore       float64            `json:"total_score" validate:"gte=0"`
	MaxPossibleScore float64            `json:"max_possible_score" validate:"required,gt=0"`
	Breakdown        map[string]float64 `json:"breakdown"`
	Notes            string             `json:"notes"`
}

func (req examRequest) toModel(userID int64) (model.MockExam, error) {
	e := model.MockExam{
		UserID:           userID,
		ExamName:         req.ExamName,
		TotalScore:       req.TotalScore,
		MaxPossibleScore: req.MaxPossibleScore,
		Breakdown:        req.Breakdown,
		Notes:            req.Notes,
	}
	et, ok := model.ParseExamType(req.ExamType)
	if !ok {
		return e, &model.ValidationError{Field: "exam_type", Reason: "unknown exam type " + req.ExamType}
	}
	e.ExamType = et
	e.Date, _ = time.Parse(dateFormat, req.Date)
	return e, e.Validate()
}

// examView is an exam with its score percentage attached.
type examView struct {
	model.MockExam
	ScorePct float64 `json:"score_pct"`
}

func viewExam(e model.MockExam) examView {
	return examView{MockExam: e, ScorePct: metrics.ScorePercentage(e.TotalScore, e.MaxPossibleScore)}
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams(currentUser(r).ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	views := make([]examView, len(exams))
	for i, e := range exams {
		views[i] = viewExam(e)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	e, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	id, err := h.store.CreateExam(e)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	e.ID = id
	writeJSON(w, http.StatusCreated, viewExam(e))
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	e, err := h.store.GetExam(currentUser(r).ID, id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewExam(e))
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	var req examRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	e, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	e.ID = id
	if err := h.store.UpdateExam(e); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewExam(e))
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	if err := h.store.DeleteExam(currentUser(r).ID, id); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorRequest is the JSON payload for creating or updating an error
// record. Difficulty and exam type default when omitted, matching the
// spreadsheet import.
type errorRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Subject     string `json:"subject" validate:"required"`
	Topic       string `json:"topic" validate:"required"`
	Description string `json:"description"`
	ErrorType   string `json:"error_type" validate:"required"`
	Difficulty  string `json:"difficulty"`
	ExamType    string `json:"exam_type"`
	SessionID   *int64 `json:"session_id"`
	MockExamID  *int64 `json:"mock_exam_id"`
}

func (req errorRequest) toModel(userID int64) (model.ErrorRecord, error) {
	rec := model.ErrorRecord{
		UserID:      userID,
		Subject:     req.Subject,
		Topic:       req.Topic,
		Description: req.Description,
		SessionID:   req.SessionID,
		MockExamID:  req.MockExamID,
	}
	rec.Date, _ = time.Parse(dateFormat, req.Date)

	et, ok := model.ParseErrorType(req.ErrorType)
	if !ok {
		return rec, &model.ValidationError{Field: "error_type", Reason: "unknown error type " + req.ErrorType}
	}
	rec.ErrorType = et

	rec.Difficulty = model.DifficultyMedium
	if req.Difficulty != "" {
		d, ok := model.ParseDifficulty(req.Difficulty)
		if !ok {
			return rec, &model.ValidationError{Field: "difficulty", Reason: "unknown difficulty " + req.Difficulty}
		}
		rec.Difficulty = d
	}

	rec.ExamType = model.ExamGeneral
	if req.ExamType != "" {
		xt, ok := model.ParseExamType(req.ExamType)
		if !ok {
			return rec, &model.ValidationError{Field: "exam_type", Reason: "unknown exam type " + req.ExamType}
		}
		rec.ExamType = xt
	}

	return rec, rec.Validate()
}

func (h *Handler) handleListErrors(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	q := r.URL.Query()

	filter := store.ErrorFilter{Subject: q.Get("subject"), Topic: q.Get("topic")}
	if raw := q.Get("exam_type"); raw != "" {
		et, ok := model.ParseExamType(raw)
		if !ok {
			h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
			return
		}
		filter.ExamType = et
	}
	if raw := q.Get("from"); raw != "" {
		filter.From, _ = time.Parse(dateFormat, raw)
	}
	if raw := q.Get("to"); raw != "" {
		filter.To, _ = time.Parse(dateFormat, raw)
	}

	records, err := h.store.ListErrors(user.ID, filter)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCreateError(w http.ResponseWriter, r *http.Request) {
	var req errorRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	rec, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	id, err := h.store.CreateError(rec)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	rec.ID = id
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGetError(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	rec, err := h.store.GetError(currentUser(r).ID, id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleUpdateError(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	var req errorRequest
	if err := h.decodeValid(r, &req); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	rec, err := req.toModel(currentUser(r).ID)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	rec.ID = id
	if err := h.store.UpdateError(rec); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDeleteError(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	if err := h.store.DeleteError(currentUser(r).ID, id); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
