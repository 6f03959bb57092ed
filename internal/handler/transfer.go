package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/luizancard/error-autopsy/internal/i18n"
	"github.com/luizancard/error-autopsy/internal/store"
	"github.com/luizancard/error-autopsy/internal/xlsx"
)

const maxImportSize = 20 << 20 // 20 MiB

// importResponse is the reconciliation report plus a localized summary.
type importResponse struct {
	*xlsx.Report
	Message string `json:"message"`
}

// handleImport ingests an uploaded workbook. With dry_run=1 the rows are
// validated and reported but nothing is persisted.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}
	defer file.Close()

	// Pre-existing records so workbook references can resolve against them.
	sessions, err := h.store.ListSessions(user.ID, store.SessionFilter{})
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	exams, err := h.store.ListExams(user.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	rep, err := xlsx.Import(file, user.ID, xlsx.Existing{Sessions: sessions, Exams: exams})
	if err != nil {
		slog.Warn("workbook rejected", "user", user.Username, "error", err)
		h.errorJSON(w, r, http.StatusBadRequest, "ErrInvalidPayload")
		return
	}

	if r.URL.Query().Get("dry_run") != "1" {
		if err := rep.Apply(h.store); err != nil {
			slog.Error("import apply failed", "user", user.Username, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	slog.Info("import finished", "user", user.Username,
		"processed", rep.Processed, "accepted", rep.Accepted, "rejected", rep.Rejected)

	writeJSON(w, http.StatusOK, importResponse{
		Report: rep,
		Message: i18n.Td(r.Context(), "ImportSummary", map[string]any{
			"Accepted": rep.Accepted,
			"Rejected": rep.Rejected,
		}),
	})
}

// handleExport streams the user's full history as a workbook. The labels
// query parameter picks the header language, defaulting to English.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	sessions, err := h.store.ListSessions(user.ID, store.SessionFilter{})
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	exams, err := h.store.ListExams(user.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	records, err := h.store.ListErrors(user.ID, store.ErrorFilter{})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	set := xlsx.LabelsEnglish
	if r.URL.Query().Get("labels") == "pt" {
		set = xlsx.LabelsPortuguese
	}

	filename := fmt.Sprintf("error-autopsy-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := xlsx.Export(w, records, sessions, exams, set); err != nil {
		slog.Error("export failed", "user", user.Username, "error", err)
	}
}
