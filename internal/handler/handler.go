// Package handler exposes the JSON API: record CRUD, dashboard
// aggregates, insights and spreadsheet transfer. Every route runs behind
// the user middleware; records are only ever read or written for the
// authenticated user.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/luizancard/error-autopsy/internal/i18n"
	"github.com/luizancard/error-autopsy/internal/insight"
	"github.com/luizancard/error-autopsy/internal/model"
	"github.com/luizancard/error-autopsy/internal/store"
)

// userHeader names the caller for single-tenant deployments behind a
// trusted proxy.
const userHeader = "X-Username"

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	llm      *insight.Client // nil when no API key is configured
	validate *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store, l *insight.Client) *Handler {
	return &Handler{
		store:    s,
		llm:      l,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireUser)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.handleListSessions)
			r.Post("/", h.handleCreateSession)
			r.Get("/{id}", h.handleGetSession)
			r.Put("/{id}", h.handleUpdateSession)
			r.Delete("/{id}", h.handleDeleteSession)
		})
		r.Route("/exams", func(r chi.Router) {
			r.Get("/", h.handleListExams)
			r.Post("/", h.handleCreateExam)
			r.Get("/{id}", h.handleGetExam)
			r.Put("/{id}", h.handleUpdateExam)
			r.Delete("/{id}", h.handleDeleteExam)
		})
		r.Route("/errors", func(r chi.Router) {
			r.Get("/", h.handleListErrors)
			r.Post("/", h.handleCreateError)
			r.Get("/{id}", h.handleGetError)
			r.Put("/{id}", h.handleUpdateError)
			r.Delete("/{id}", h.handleDeleteError)
		})

		r.Get("/meta", h.handleMeta)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/subjects", h.handleSubjects)
		r.Get("/heatmap", h.handleHeatmap)
		r.Get("/trajectory", h.handleTrajectory)
		r.Get("/topics", h.handleTopics)
		r.Get("/insight", h.handleInsight)
		r.Post("/insight/analyze", h.handleAnalyze)

		r.Post("/import", h.handleImport)
		r.Get("/export", h.handleExport)
	})
}

// requireUser resolves the caller from the username header and stores the
// user in the request context.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get(userHeader)
		if username == "" {
			h.errorJSON(w, r, http.StatusUnauthorized, "ErrUnknownUser")
			return
		}
		user, err := h.store.GetUserByUsername(username)
		if err != nil {
			slog.Error("user lookup failed", "username", username, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if user == nil {
			h.errorJSON(w, r, http.StatusUnauthorized, "ErrUnknownUser")
			return
		}
		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *model.User {
	return model.UserFromContext(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// errorJSON writes a localized error message.
func (h *Handler) errorJSON(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, map[string]string{"error": i18n.T(r.Context(), msgID)})
}

// storeError maps storage failures onto HTTP statuses. Ownership
// violations never degrade to not-found so misdirected writes surface
// loudly.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotOwned):
		h.errorJSON(w, r, http.StatusForbidden, "ErrNotOwned")
	case errors.Is(err, sql.ErrNoRows):
		h.errorJSON(w, r, http.StatusNotFound, "ErrNotFound")
	default:
		slog.Error("store operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// decodeValid decodes a JSON body and runs struct validation on it.
func (h *Handler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// monthsParam reads the period filter. Absent means all history.
func monthsParam(r *http.Request) int {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
