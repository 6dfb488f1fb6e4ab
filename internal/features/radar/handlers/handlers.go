package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
	"pr-radar/internal/features/radar/services"
)

const maxBodyBytes = 1 << 20

// Handlers contains all radar feature HTTP handlers
type Handlers struct {
	logger *core.Logger
	radar  *services.Radar
}

// NewHandlers creates a new handlers instance
func NewHandlers(logger *core.Logger, radar *services.Radar) *Handlers {
	return &Handlers{
		logger: logger,
		radar:  radar,
	}
}

// Overview handlers
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.radar.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, dashboard)
}

// Keyword handlers
func (h *Handlers) ListKeywords(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{"keywords": h.radar.Keywords()})
}

func (h *Handlers) AddKeyword(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.radar.AddKeyword(req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, map[string]any{"keywords": h.radar.Keywords()})
}

func (h *Handlers) RemoveKeywords(w http.ResponseWriter, r *http.Request) {
	var req models.KeywordRequest
	if !h.decode(w, r, &req) {
		return
	}

	names := req.Names
	if req.Name != "" {
		names = append(names, req.Name)
	}

	removed := h.radar.RemoveKeywords(names)
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"removed":  removed,
		"keywords": h.radar.Keywords(),
	})
}

// Collection handlers
func (h *Handlers) Collect(w http.ResponseWriter, r *http.Request) {
	result := h.radar.Collect(r.Context())
	core.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetScheduler(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"state":           h.radar.SchedulerState(),
		"last_collection": h.radar.LastCollection(),
	})
}

func (h *Handlers) UpdateScheduler(w http.ResponseWriter, r *http.Request) {
	var req models.SchedulerUpdate
	if !h.decode(w, r, &req) {
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"state": h.radar.SetAutoCollect(req.AutoCollect)})
}

// Inbox handlers
func (h *Handlers) ListInbox(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	core.WriteJSON(w, http.StatusOK, h.radar.Inbox(keyword))
}

func (h *Handlers) ClearInbox(w http.ResponseWriter, r *http.Request) {
	removed := h.radar.ClearInbox()
	core.WriteJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *Handlers) Promote(w http.ResponseWriter, r *http.Request) {
	var req models.PromoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.ArticleIDs) == 0 {
		core.HandleError(w, core.NewValidationError("select at least one article to save", nil))
		return
	}

	result, err := h.radar.Promote(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{"alerts": h.radar.Alerts()})
}

// Archive handlers
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.radar.Folders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (h *Handlers) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	folder, err := h.radar.CreateFolder(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, folder)
}

func (h *Handlers) DeleteFolders(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteFoldersRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.radar.DeleteFolders(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) ListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.radar.Saved(r.Context(), strings.TrimSpace(r.URL.Query().Get("folder")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"saved": saved})
}

func (h *Handlers) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SavedIDs []string `json:"saved_ids"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.SavedIDs) == 0 {
		core.HandleError(w, core.NewValidationError("select at least one saved article to delete", nil))
		return
	}

	deleted, err := h.radar.DeleteSaved(r.Context(), req.SavedIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handlers) UpdateSavedPress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Press string `json:"press"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	saved, err := h.radar.UpdateSavedPress(r.Context(), chi.URLParam(r, "id"), req.Press)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, saved)
}

func (h *Handlers) ExportSaved(w http.ResponseWriter, r *http.Request) {
	table, err := h.radar.SavedExport(r.Context(), strings.TrimSpace(r.URL.Query().Get("folder")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTable(w, r, table, "pr_radar_saved_db")
}

// Correction handlers
func (h *Handlers) ListCorrections(w http.ResponseWriter, r *http.Request) {
	var status models.CorrectionStatus
	if value := r.URL.Query().Get("status"); value != "" {
		parsed, err := models.ParseCorrectionStatus(value)
		if err != nil {
			core.HandleError(w, core.NewValidationError(err.Error(), nil))
			return
		}
		status = parsed
	}

	items, err := h.radar.Corrections(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"corrections": items})
}

func (h *Handlers) OpenCorrection(w http.ResponseWriter, r *http.Request) {
	var req models.CorrectionCreate
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.radar.OpenCorrection(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handlers) UpdateCorrection(w http.ResponseWriter, r *http.Request) {
	var req models.CorrectionUpdate
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.radar.UpdateCorrection(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	core.WriteJSON(w, http.StatusOK, item)
}

func (h *Handlers) ExportCorrections(w http.ResponseWriter, r *http.Request) {
	table, err := h.radar.CorrectionExport(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeTable(w, r, table, "pr_radar_corrections")
}

// Helpers
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.HandleError(w, core.NewValidationError("invalid request body", err))
		return false
	}
	return true
}

func (h *Handlers) writeTable(w http.ResponseWriter, r *http.Request, table services.Table, prefix string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table.FileName(prefix, h.radar.Now().In(h.radar.Location()))))
	w.WriteHeader(http.StatusOK)

	if err := table.WriteCSV(w); err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to write export", "table", table.Name, "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *core.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, services.ErrDuplicateFolder), errors.Is(err, services.ErrDuplicateKeyword):
		appErr = core.NewConflictError(err.Error(), err)
	case errors.Is(err, services.ErrFolderNotFound),
		errors.Is(err, services.ErrSavedNotFound),
		errors.Is(err, services.ErrCorrectionNotFound),
		errors.Is(err, services.ErrArticleNotFound):
		appErr = core.NewNotFoundError(err.Error(), err)
	case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrInvalidStatus):
		appErr = core.NewValidationError(err.Error(), err)
	default:
		h.logger.WithContext(r.Context()).Error("Radar request failed", "path", r.URL.Path, "error", err)
		appErr = core.NewInternalError("An unexpected error occurred", err)
	}

	core.HandleError(w, appErr)
}
